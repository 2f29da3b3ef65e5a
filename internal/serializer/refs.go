package serializer

import "regexp"

// refPattern matches an embedded cross-reference token inside document
// bytes. String attribute values reference other objects by key as
// "[ref=custscript_rollup]".
var refPattern = regexp.MustCompile(`\[ref=([a-z][a-z0-9_]*)\]`)

// ExtractReferences scans one document for embedded cross-references and
// returns the distinct referenced object keys in order of first appearance.
func ExtractReferences(doc Document) []string {
	matches := refPattern.FindAllSubmatch(doc.Body, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	var keys []string
	for _, m := range matches {
		key := string(m[1])
		if seen[key] {
			continue
		}
		seen[key] = true
		keys = append(keys, key)
	}
	return keys
}

// Ref renders an object key as an embeddable reference token. Fetch uses it
// when writing blueprint files so that round-tripped references survive.
func Ref(key string) string {
	return "[ref=" + key + "]"
}
