package deploy

import (
	"context"
	"fmt"

	"github.com/vk/tenantgridgo/internal/ctxlog"
	"github.com/vk/tenantgridgo/internal/depgraph"
	"github.com/vk/tenantgridgo/internal/model"
	"github.com/vk/tenantgridgo/internal/serializer"
)

// NodeSummary is the dependency graph's view of one root element in a
// batch: just enough to build edges and resolve failure reports, cached so
// the reduction loop never re-serializes.
type NodeSummary struct {
	// Addr is the root element address, the graph's primary key.
	Addr string
	// Key is the object key, the graph's secondary index field. Empty for
	// settings and features nodes, which failure reports never reference
	// by key.
	Key string
	// Kind is the change kind. Only Addition nodes grow incoming edges:
	// referencing a pre-existing object imposes no ordering constraint.
	Kind model.ChangeKind
	// Documents holds the element's canonical serialized documents.
	Documents []serializer.Document
}

// Graph is the concrete dependency graph type used by the pipeline.
type Graph = depgraph.Graph[*NodeSummary]

// Dependencies bundles the two read-only structures the reduction loop
// consults: the graph for transitive-dependent expansion and the map for
// missing-dependency failures, which report referenced keys rather than
// nodes. Callers always need both, so they are built and returned as one
// unit.
type Dependencies struct {
	// Map goes from a root element address to the object keys its
	// documents reference.
	Map map[string][]string
	// Graph holds one node per root element with edges from every
	// newly-created object to the changes whose documents reference it.
	Graph *Graph
}

// newGraph creates an empty pipeline graph with the standard key derivations.
func newGraph() *Graph {
	return depgraph.New(
		func(n *NodeSummary) string { return n.Addr },
		func(n *NodeSummary) string { return n.Key },
	)
}

// BuildDependencies derives the dependency structures for one deploy
// group's batch. Serialization runs eagerly here, once per root element,
// through the memoizing serializer; afterwards the loop only needs keys and
// addresses.
//
// Sub-changes fold into their root element's node: they contribute no
// separate documents and share the root's batch fate. When a root is
// covered by both a root change and sub-changes, an Addition kind wins.
func BuildDependencies(ctx context.Context, changes []model.Change, ser *serializer.Serializer) (*Dependencies, error) {
	logger := ctxlog.FromContext(ctx)

	graph := newGraph()
	depMap := make(map[string][]string)

	// One node per root address, in batch order.
	var order []string
	byAddr := make(map[string]*NodeSummary)
	for _, change := range changes {
		root := change.RootAddr().String()
		if existing, ok := byAddr[root]; ok {
			if change.Kind == model.Addition {
				existing.Kind = model.Addition
			}
			continue
		}

		docs, err := ser.Serialize(change.Desired)
		if err != nil {
			return nil, fmt.Errorf("building dependencies for %s: %w", root, err)
		}
		byAddr[root] = &NodeSummary{
			Addr:      root,
			Key:       change.Key,
			Kind:      change.Kind,
			Documents: docs,
		}
		order = append(order, root)
	}

	for _, root := range order {
		graph.Insert(byAddr[root])
	}

	// Wire edges: referenced addition -> referencing change.
	for _, root := range order {
		node := byAddr[root]
		seen := make(map[string]bool)
		for _, doc := range node.Documents {
			for _, refKey := range serializer.ExtractReferences(doc) {
				if !seen[refKey] {
					seen[refKey] = true
					depMap[root] = append(depMap[root], refKey)
				}

				refNode, ok := graph.FindByField(refKey)
				if !ok || refNode.Kind != model.Addition || refNode.Addr == root {
					continue
				}
				if err := graph.AddEdge(refNode.Addr, root); err != nil {
					return nil, fmt.Errorf("linking %s -> %s: %w", refNode.Addr, root, err)
				}
				logger.Debug("Linked change dependency.", "from", refNode.Addr, "to", root, "key", refKey)
			}
		}
	}

	logger.Debug("Dependency structures built.", "nodes", graph.Len(), "referencing_changes", len(depMap))
	return &Dependencies{Map: depMap, Graph: graph}, nil
}
