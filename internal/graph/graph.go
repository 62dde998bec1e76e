package graph

import (
	"slices"
	"sync"
)

type Node struct {
	ID           string
	Label        string
	Dependencies []string
}

// Graph is the dependency graph of planned nodes. Edges point from a node to
// the nodes it needs.
type Graph struct {
	mu    sync.RWMutex
	nodes map[string]*Node
	edges map[string][]string
}

func New() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
		edges: make(map[string][]string),
	}
}

func (g *Graph) AddNode(id, label string, dependencies []string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	deps := slices.Clone(dependencies)
	g.nodes[id] = &Node{
		ID:           id,
		Label:        label,
		Dependencies: deps,
	}
	g.edges[id] = deps
}

func (g *Graph) Dependents(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var dependents []string
	for nodeID, deps := range g.edges {
		if slices.Contains(deps, id) {
			dependents = append(dependents, nodeID)
		}
	}
	slices.Sort(dependents)
	return dependents
}

// Nodes returns node IDs in sorted order.
func (g *Graph) Nodes() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.sortedIDs()
}

func (g *Graph) sortedIDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (g *Graph) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.nodes)
}

func (g *Graph) Clone() *Graph {
	g.mu.RLock()
	defer g.mu.RUnlock()

	clone := New()
	for id, node := range g.nodes {
		deps := slices.Clone(node.Dependencies)
		clone.nodes[id] = &Node{
			ID:           node.ID,
			Label:        node.Label,
			Dependencies: deps,
		}
		clone.edges[id] = deps
	}
	return clone
}

// Validate returns dependency IDs that have no node.
func (g *Graph) Validate() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var missing []string
	seen := make(map[string]bool)

	for _, id := range g.sortedIDs() {
		for _, dep := range g.edges[id] {
			if _, exists := g.nodes[dep]; !exists && !seen[dep] {
				missing = append(missing, dep)
				seen[dep] = true
			}
		}
	}

	return missing
}
