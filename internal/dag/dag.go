// Package dag holds planned resources and the dependencies between them.
//
// Edges are checked as they are added: an edge that would close a cycle is
// rejected with a *CycleError and the graph is left unchanged, so a Graph is
// acyclic at every point. TopologicalOrder breaks ties by insertion order,
// making the order a pure function of the sequence of calls.
package dag

import (
	"fmt"
	"sort"
	"strings"

	stackplan "github.com/lex00/stackplan-aws-go"
)

// CycleError reports the dependency path an edge would have closed.
// Cycle starts and ends with the same ID.
type CycleError struct {
	Cycle []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%v: %s", stackplan.ErrCycleDetected, strings.Join(e.Cycle, " → "))
}

func (e *CycleError) Unwrap() error { return stackplan.ErrCycleDetected }

type vertex struct {
	node  stackplan.ResourceNode
	index int
	deps  []string
}

// Graph is a dependency graph of resource nodes.
// The zero value is not usable; call New.
type Graph struct {
	vertices map[string]*vertex
	order    []string
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{vertices: make(map[string]*vertex)}
}

// AddNode inserts a node. IDs are unique within a graph.
func (g *Graph) AddNode(node stackplan.ResourceNode) error {
	if node.ID == "" {
		return fmt.Errorf("%w: resource node of type %s has no ID", stackplan.ErrInvalidConfiguration, node.Type)
	}
	if _, exists := g.vertices[node.ID]; exists {
		return fmt.Errorf("%w: resource %q added twice", stackplan.ErrDuplicateIdentifier, node.ID)
	}
	node.DependsOn = nil
	g.vertices[node.ID] = &vertex{node: node, index: len(g.order)}
	g.order = append(g.order, node.ID)
	return nil
}

// AddEdge records that from depends on to. Adding an existing edge is a
// no-op. Both nodes must already exist.
func (g *Graph) AddEdge(from, to string) error {
	src, ok := g.vertices[from]
	if !ok {
		return fmt.Errorf("%w: dependency from unknown resource %q", stackplan.ErrMissingReference, from)
	}
	if _, ok := g.vertices[to]; !ok {
		return fmt.Errorf("%w: resource %q depends on unknown resource %q", stackplan.ErrMissingReference, from, to)
	}
	if from == to {
		return &CycleError{Cycle: []string{from, from}}
	}
	for _, dep := range src.deps {
		if dep == to {
			return nil
		}
	}
	if path := g.path(to, from); path != nil {
		return &CycleError{Cycle: append([]string{from}, path...)}
	}
	src.deps = append(src.deps, to)
	return nil
}

// Add inserts node and its dependencies in one call.
func (g *Graph) Add(node stackplan.ResourceNode, deps ...string) error {
	if err := g.AddNode(node); err != nil {
		return err
	}
	for _, dep := range deps {
		if err := g.AddEdge(node.ID, dep); err != nil {
			return err
		}
	}
	return nil
}

// Has reports whether id is in the graph.
func (g *Graph) Has(id string) bool {
	_, ok := g.vertices[id]
	return ok
}

// Node returns the node with the given id and its direct dependencies.
func (g *Graph) Node(id string) (stackplan.ResourceNode, bool) {
	v, ok := g.vertices[id]
	if !ok {
		return stackplan.ResourceNode{}, false
	}
	node := v.node
	node.DependsOn = append([]string(nil), v.deps...)
	return node, true
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.order) }

// IDs returns node IDs in insertion order.
func (g *Graph) IDs() []string {
	return append([]string(nil), g.order...)
}

// Reaches reports whether from depends on to, directly or transitively.
func (g *Graph) Reaches(from, to string) bool {
	if !g.Has(from) || !g.Has(to) || from == to {
		return false
	}
	return g.path(from, to) != nil
}

// path returns a dependency path from -> ... -> to, or nil.
func (g *Graph) path(from, to string) []string {
	visited := make(map[string]bool)
	var walk func(id string) []string
	walk = func(id string) []string {
		if id == to {
			return []string{id}
		}
		visited[id] = true
		for _, dep := range g.vertices[id].deps {
			if visited[dep] {
				continue
			}
			if rest := walk(dep); rest != nil {
				return append([]string{id}, rest...)
			}
		}
		return nil
	}
	return walk(from)
}

// TopologicalOrder returns every node after all of its dependencies.
// Among nodes whose dependencies are satisfied, the earliest inserted comes
// first. Each returned node carries its direct dependencies in DependsOn.
func (g *Graph) TopologicalOrder() ([]stackplan.ResourceNode, error) {
	inDegree := make(map[string]int, len(g.order))
	dependents := make(map[string][]string, len(g.order))
	for _, id := range g.order {
		v := g.vertices[id]
		inDegree[id] = len(v.deps)
		for _, dep := range v.deps {
			dependents[dep] = append(dependents[dep], id)
		}
	}

	// Kahn's algorithm over insertion indices.
	var queue []int
	for _, id := range g.order {
		if inDegree[id] == 0 {
			queue = append(queue, g.vertices[id].index)
		}
	}

	result := make([]stackplan.ResourceNode, 0, len(g.order))
	for len(queue) > 0 {
		id := g.order[queue[0]]
		queue = queue[1:]

		node, _ := g.Node(id)
		result = append(result, node)

		for _, dependent := range dependents[id] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, g.vertices[dependent].index)
				sort.Ints(queue)
			}
		}
	}

	if len(result) != len(g.order) {
		return nil, fmt.Errorf("%w: %d of %d resources could not be ordered",
			stackplan.ErrCycleDetected, len(g.order)-len(result), len(g.order))
	}
	return result, nil
}
