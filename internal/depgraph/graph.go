package depgraph

import (
	"fmt"
	"sort"
)

// Graph is a directed graph over nodes of type N stored in an arena slice.
// The primary key and the secondary field of a node are derived by the two
// functions supplied to New; both side tables are maintained incrementally
// on Insert, so lookups never scan the arena.
//
// Graph is not safe for concurrent mutation; the deploy pipeline builds it
// once, upfront, and only reads it afterwards.
type Graph[N any] struct {
	nodes   []N
	byKey   map[string]int
	byField map[string]int
	// edges[i] holds the arena indices reachable from node i in one step
	// (its direct dependents).
	edges map[int]map[int]struct{}

	keyOf   func(N) string
	fieldOf func(N) string
}

// New creates an empty graph. keyOf derives a node's primary key; fieldOf
// derives the secondary index field. fieldOf may return "" for nodes that
// have no secondary field (those are simply absent from the secondary
// index).
func New[N any](keyOf, fieldOf func(N) string) *Graph[N] {
	return &Graph[N]{
		byKey:   make(map[string]int),
		byField: make(map[string]int),
		edges:   make(map[int]map[int]struct{}),
		keyOf:   keyOf,
		fieldOf: fieldOf,
	}
}

// Insert adds nodes to the arena and indexes them. Inserting a node whose
// primary key is already present does nothing. The secondary index is
// first-wins: when two nodes with distinct primary keys share a field
// value, the earlier insertion keeps the index entry.
func (g *Graph[N]) Insert(nodes ...N) {
	for _, n := range nodes {
		key := g.keyOf(n)
		if _, ok := g.byKey[key]; ok {
			continue
		}
		idx := len(g.nodes)
		g.nodes = append(g.nodes, n)
		g.byKey[key] = idx
		if field := g.fieldOf(n); field != "" {
			if _, taken := g.byField[field]; !taken {
				g.byField[field] = idx
			}
		}
	}
}

// Len returns the number of nodes in the graph.
func (g *Graph[N]) Len() int {
	return len(g.nodes)
}

// FindByKey looks a node up by its primary key.
func (g *Graph[N]) FindByKey(key string) (N, bool) {
	if idx, ok := g.byKey[key]; ok {
		return g.nodes[idx], true
	}
	var zero N
	return zero, false
}

// FindByField looks a node up through the secondary index.
func (g *Graph[N]) FindByField(value string) (N, bool) {
	if idx, ok := g.byField[value]; ok {
		return g.nodes[idx], true
	}
	var zero N
	return zero, false
}

// AddEdge creates a directed edge from the node keyed fromKey to the node
// keyed toKey, meaning toKey depends on fromKey. Adding the same edge twice
// has no extra effect. An error is returned if either node does not exist
// or if the edge would be a self-reference.
func (g *Graph[N]) AddEdge(fromKey, toKey string) error {
	if fromKey == toKey {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", fromKey, fromKey)
	}
	from, ok := g.byKey[fromKey]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromKey)
	}
	to, ok := g.byKey[toKey]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toKey)
	}

	if g.edges[from] == nil {
		g.edges[from] = make(map[int]struct{})
	}
	g.edges[from][to] = struct{}{}
	return nil
}

// TransitiveDependents returns the node keyed by key plus every node
// reachable by following edges forward from it. The traversal carries a
// visited set, so graphs containing cycles terminate with a finite result.
// Results come back in arena insertion order, which keeps reduction logs
// deterministic. An unknown key yields nil.
func (g *Graph[N]) TransitiveDependents(key string) []N {
	start, ok := g.byKey[key]
	if !ok {
		return nil
	}

	visited := make(map[int]struct{})
	stack := []int{start}
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := visited[idx]; seen {
			continue
		}
		visited[idx] = struct{}{}
		for next := range g.edges[idx] {
			stack = append(stack, next)
		}
	}

	order := make([]int, 0, len(visited))
	for idx := range visited {
		order = append(order, idx)
	}
	sort.Ints(order)

	out := make([]N, 0, len(order))
	for _, idx := range order {
		out = append(out, g.nodes[idx])
	}
	return out
}

// DetectCycles checks the graph for cycles. It returns a non-nil error if a
// cycle is found, naming the first node involved in the detected cycle.
func (g *Graph[N]) DetectCycles() error {
	// Classic depth-first search with three sets of nodes:
	// permanent: fully visited, known not to be part of a cycle.
	// temporary: currently in the recursion stack.
	// unvisited: everything else.
	permanent := make(map[int]bool)
	temporary := make(map[int]bool)

	var visit func(idx int) error
	visit = func(idx int) error {
		if permanent[idx] {
			return nil
		}
		if temporary[idx] {
			return fmt.Errorf("cycle detected involving node '%s'", g.keyOf(g.nodes[idx]))
		}

		temporary[idx] = true
		for next := range g.edges[idx] {
			if err := visit(next); err != nil {
				return err
			}
		}
		delete(temporary, idx)
		permanent[idx] = true
		return nil
	}

	for idx := range g.nodes {
		if !permanent[idx] {
			if err := visit(idx); err != nil {
				return err
			}
		}
	}
	return nil
}
