/*
Package serializer translates between model elements and the tenant's
canonical document format.

A document is a deterministic JSON rendering of one element: object keys are
emitted in a stable order, so the same element always produces the same
bytes and therefore the same digest. The planner relies on this to compare
local state against remote inventory digests, and the deploy dependency
builder scans document bytes for embedded cross-references.

Serialization walks the full cty attribute value and is the most expensive
step of planning, so the Serializer memoizes results per element address.
*/
package serializer
