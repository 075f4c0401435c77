package planner

import (
	"fmt"
	"sort"

	"github.com/sourceplane/tgistack/internal/model"
)

// ResourceGraph represents the DAG of submittable resources with cycle detection and topological sorting
type ResourceGraph struct {
	nodes map[string]*model.ResourceNode
}

// NewResourceGraph creates a new resource graph from resource nodes
func NewResourceGraph(nodes map[string]*model.ResourceNode) *ResourceGraph {
	return &ResourceGraph{
		nodes: nodes,
	}
}

// DetectCycles performs cycle detection on the dependency graph using DFS
func (g *ResourceGraph) DetectCycles() error {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)

	for _, id := range g.sortedIDs() {
		if !visited[id] {
			if g.hasCycleDFS(id, visited, recStack) {
				return fmt.Errorf("cycle detected in resource dependencies at %s", id)
			}
		}
	}

	return nil
}

// hasCycleDFS performs DFS cycle detection from a given node
func (g *ResourceGraph) hasCycleDFS(node string, visited, recStack map[string]bool) bool {
	visited[node] = true
	recStack[node] = true

	resource, exists := g.nodes[node]
	if !exists {
		return false
	}

	for _, dep := range resource.DependsOn {
		if !visited[dep] {
			if g.hasCycleDFS(dep, visited, recStack) {
				return true
			}
		} else if recStack[dep] {
			return true
		}
	}

	recStack[node] = false
	return false
}

// TopologicalSort orders resources so that every resource comes after its dependencies
// (Kahn's algorithm). Ties are broken by logical ID so the order is deterministic.
func (g *ResourceGraph) TopologicalSort() ([]string, error) {
	dependents := make(map[string][]string)
	inDegree := make(map[string]int)

	for id := range g.nodes {
		inDegree[id] = 0
		dependents[id] = make([]string, 0)
	}

	for id, resource := range g.nodes {
		for _, dep := range resource.DependsOn {
			if _, exists := g.nodes[dep]; !exists {
				return nil, fmt.Errorf("resource %s depends on unknown resource %s", id, dep)
			}
			dependents[dep] = append(dependents[dep], id)
			inDegree[id]++
		}
	}

	queue := make([]string, 0)
	for id, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)

	sorted := make([]string, 0, len(g.nodes))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		sorted = append(sorted, current)

		for _, dependent := range dependents[current] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
		sort.Strings(queue)
	}

	if len(sorted) != len(g.nodes) {
		return nil, fmt.Errorf("failed to topologically sort: possible cycle detected")
	}

	return sorted, nil
}

// Ordered returns the resources themselves in topological order
func (g *ResourceGraph) Ordered() ([]*model.ResourceNode, error) {
	ids, err := g.TopologicalSort()
	if err != nil {
		return nil, err
	}
	ordered := make([]*model.ResourceNode, 0, len(ids))
	for _, id := range ids {
		ordered = append(ordered, g.nodes[id])
	}
	return ordered, nil
}

func (g *ResourceGraph) sortedIDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
