package address

import (
	"fmt"
	"regexp"
	"strings"
)

// segmentRegex validates a single segment of an address path.
var segmentRegex = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// Parse creates an Address by parsing its canonical string representation.
// Valid shapes are "object.<family>.<name>[.<part>...]", "settings.<type>"
// and "features".
func Parse(raw string) (Address, error) {
	if raw == "" {
		return Address{}, fmt.Errorf("element address cannot be empty")
	}

	segments := strings.Split(raw, ".")
	for _, seg := range segments {
		if seg == "" {
			return Address{}, fmt.Errorf("element address %q contains an empty segment", raw)
		}
		if !segmentRegex.MatchString(seg) {
			return Address{}, fmt.Errorf("invalid address segment %q in %q", seg, raw)
		}
	}

	addr := Address{Path: segments}
	switch segments[0] {
	case "object":
		if len(segments) < 3 {
			return Address{}, fmt.Errorf("object address %q must have at least a family and a name", raw)
		}
	case "settings":
		if len(segments) != 2 {
			return Address{}, fmt.Errorf("settings address %q must be settings.<type>", raw)
		}
	case "features":
		if len(segments) != 1 {
			return Address{}, fmt.Errorf("features address %q takes no further segments", raw)
		}
	default:
		return Address{}, fmt.Errorf("unknown address class %q in %q", segments[0], raw)
	}

	return addr, nil
}
