/*
Package address provides a structured, type-safe representation for element
identifiers, based on the canonical dot-separated format.

Object elements are addressed as `object.<family>.<name>`, optionally followed
by segments naming a nested part of the object (`object.script.rollup.params`).
Settings elements are addressed as `settings.<type>`, and the single feature
toggle element as `features`.

This package enforces the identifier schema and centralizes all formatting and
parsing logic.
*/
package address
