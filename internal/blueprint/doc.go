/*
Package blueprint loads a workspace's .hcl files and translates them into
the format-agnostic model.

Loading is a three step pass: discover every .hcl file under the blueprint
path, decode each one against the schema package's block shapes, then
evaluate attribute expressions and merge everything into one
model.Blueprint. Cross-file concerns (the single features block, the single
workspace block, duplicate addresses) are enforced during the merge, which
is what makes splitting a workspace across files safe.
*/
package blueprint
