/*
Package depgraph provides a generic directed graph over typed nodes, keyed by
a caller-chosen primary key and indexed by one secondary field.

Nodes live in an arena slice and are addressed through two side tables built
at insert time (primary key -> index, secondary field -> index), so both
lookups are O(1) and edges are plain index sets with no pointer aliasing
between nodes.

The deploy pipeline uses it to answer "which changes transitively depend on
this failed object" while reducing a rejected bundle.
*/
package depgraph
