package address

import (
	"strings"
)

// Kind distinguishes the three addressable element classes.
type Kind int

const (
	// KindObject addresses a keyed customization object, e.g. "object.script.hourly_rollup".
	KindObject Kind = iota
	// KindSettings addresses a configuration-type settings element, e.g. "settings.accounting_prefs".
	KindSettings
	// KindFeatures addresses the single feature-toggle element, "features".
	KindFeatures
)

// Address is the structured representation of a unique element identifier.
// It is modeled as a dot-separated path; the leading segment determines the
// element class, and objects may carry trailing segments that address a
// nested part of the object (a sub-change target).
type Address struct {
	Path []string
}

// Kind reports the element class the address belongs to.
func (a Address) Kind() Kind {
	switch a.Path[0] {
	case "settings":
		return KindSettings
	case "features":
		return KindFeatures
	default:
		return KindObject
	}
}

// Family returns the object family segment, or "" for non-object addresses.
func (a Address) Family() string {
	if a.Kind() != KindObject || len(a.Path) < 2 {
		return ""
	}
	return a.Path[1]
}

// Name returns the element's local name: the instance name for objects, the
// configuration type for settings, and "features" for the features element.
func (a Address) Name() string {
	switch a.Kind() {
	case KindObject:
		if len(a.Path) < 3 {
			return ""
		}
		return a.Path[2]
	case KindSettings:
		if len(a.Path) < 2 {
			return ""
		}
		return a.Path[1]
	default:
		return "features"
	}
}

// Root returns the address of the top-level element this address belongs to,
// stripping any nested-part segments. Changes that target a nested part of an
// object share their root's graph node and batch fate.
func (a Address) Root() Address {
	n := rootLen(a.Kind())
	if len(a.Path) <= n {
		return a
	}
	return Address{Path: a.Path[:n]}
}

// IsRoot reports whether the address names a top-level element rather than a
// nested part of one.
func (a Address) IsRoot() bool {
	return len(a.Path) == rootLen(a.Kind())
}

func rootLen(k Kind) int {
	switch k {
	case KindObject:
		return 3
	case KindSettings:
		return 2
	default:
		return 1
	}
}

// String serializes the Address into its canonical dot-separated form.
func (a Address) String() string {
	return strings.Join(a.Path, ".")
}

// Equal checks for equality between two addresses.
func (a Address) Equal(other Address) bool {
	if len(a.Path) != len(other.Path) {
		return false
	}
	for i, seg := range a.Path {
		if other.Path[i] != seg {
			return false
		}
	}
	return true
}

// Object builds the root address of a keyed object.
func Object(family, name string) Address {
	return Address{Path: []string{"object", family, name}}
}

// Settings builds the address of a configuration-type settings element.
func Settings(configType string) Address {
	return Address{Path: []string{"settings", configType}}
}

// Features returns the address of the feature-toggle element.
func Features() Address {
	return Address{Path: []string{"features"}}
}
