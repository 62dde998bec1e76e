package graph

import (
	"errors"
	"slices"
)

var ErrCycleDetected = errors.New("cycle detected in graph")

// TopologicalSort orders nodes so that every node follows its dependencies.
// Ties are broken by ID, so the order is stable across runs.
func (g *Graph) TopologicalSort() ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	nodeCount := len(g.nodes)
	dependents := make(map[string][]string, nodeCount)
	inDegree := make(map[string]int, nodeCount)

	ids := g.sortedIDs()
	for _, id := range ids {
		inDegree[id] = 0
	}

	for _, id := range ids {
		for _, dep := range g.edges[id] {
			if _, exists := g.nodes[dep]; exists {
				dependents[dep] = append(dependents[dep], id)
				inDegree[id]++
			}
		}
	}

	var queue []string
	for _, id := range ids {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	sorted := make([]string, 0, nodeCount)
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		sorted = append(sorted, node)

		for _, dependent := range dependents[node] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(sorted) != nodeCount {
		return nil, ErrCycleDetected
	}

	return sorted, nil
}

func (g *Graph) ReverseTopologicalSort() ([]string, error) {
	sorted, err := g.TopologicalSort()
	if err != nil {
		return nil, err
	}
	slices.Reverse(sorted)
	return sorted, nil
}
