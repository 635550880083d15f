// Package resolve builds dependency graphs over script records and
// produces load orders, dependency trees, and unresolved-reference
// reports from them.
package resolve

import "github.com/pqhub/pqhub-cli/internal/script"

type node struct {
	name string
	deps []string
}

// Graph is a dependency graph over a set of script records. Nodes keep
// the order of the records they were built from, so traversals are
// deterministic for a given snapshot.
type Graph struct {
	nodes map[string]*node
	order []string
}

// Build constructs a graph from records. Edges come from the declared
// dependency lists, not from body scans. The first record wins when a
// name appears twice.
func Build(records []script.Record) *Graph {
	g := &Graph{nodes: make(map[string]*node, len(records))}
	for _, rec := range records {
		if _, ok := g.nodes[rec.Name]; ok {
			continue
		}
		n := &node{name: rec.Name, deps: append([]string(nil), rec.Dependencies...)}
		g.nodes[rec.Name] = n
		g.order = append(g.order, rec.Name)
	}
	return g
}

// Contains reports whether name is a node in the graph.
func (g *Graph) Contains(name string) bool {
	_, ok := g.nodes[name]
	return ok
}

// Unresolved maps each script to the declared dependencies no record
// provides. Scripts whose dependencies all resolve are absent.
func (g *Graph) Unresolved() map[string][]string {
	out := make(map[string][]string)
	for _, name := range g.order {
		for _, dep := range g.nodes[name].deps {
			if !g.Contains(dep) {
				out[name] = append(out[name], dep)
			}
		}
	}
	return out
}
