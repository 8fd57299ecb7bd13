package dag

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrCycle is returned when an ordering is requested for a graph that
// contains a cycle.
var ErrCycle = errors.New("cycle detected")

// ErrNodeNotFound is returned when an operation names an unknown node.
var ErrNodeNotFound = errors.New("node not found")

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*node),
	}
}

// AddNode adds a new node with the given ID to the graph. If a node with
// the same ID already exists, the function does nothing.
func (g *Graph) AddNode(id string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.nodes[id]; ok {
		return
	}

	g.nodes[id] = &node{
		id:         id,
		index:      g.seq,
		deps:       make(map[string]*node),
		dependents: make(map[string]*node),
	}
	g.order = append(g.order, id)
	g.seq++
}

// RemoveNode deletes the node and severs every edge touching it. Removing an
// unknown node is a no-op.
func (g *Graph) RemoveNode(id string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	n, ok := g.nodes[id]
	if !ok {
		return
	}
	for depID, dep := range n.deps {
		delete(dep.dependents, id)
		delete(n.deps, depID)
	}
	for depID, dependent := range n.dependents {
		delete(dependent.deps, id)
		delete(n.dependents, depID)
	}
	delete(g.nodes, id)
	g.order = slices.DeleteFunc(g.order, func(s string) bool { return s == id })
}

// Nodes returns all node IDs in insertion order.
func (g *Graph) Nodes() []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return slices.Clone(g.order)
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return len(g.nodes)
}

// AddEdge creates a directed edge from the `fromID` node to the `toID` node.
// This signifies that `toID` has a dependency on `fromID`. An error is returned
// if either node does not exist or if the edge would create a self-reference.
func (g *Graph) AddEdge(fromID, toID string) error {
	if fromID == toID {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", fromID, fromID)
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	fromNode, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}

	toNode, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}

	toNode.deps[fromID] = fromNode
	fromNode.dependents[toID] = toNode

	return nil
}

// RemoveEdge deletes the edge from `fromID` to `toID` if present.
func (g *Graph) RemoveEdge(fromID, toID string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if fromNode, ok := g.nodes[fromID]; ok {
		delete(fromNode.dependents, toID)
	}
	if toNode, ok := g.nodes[toID]; ok {
		delete(toNode.deps, fromID)
	}
}

// Ancestors returns every node the given node transitively depends on, in
// topological order.
func (g *Graph) Ancestors(id string) ([]string, error) {
	return g.reachable(id, func(n *node) map[string]*node { return n.deps })
}

// Descendants returns every node that transitively depends on the given node,
// in topological order.
func (g *Graph) Descendants(id string) ([]string, error) {
	return g.reachable(id, func(n *node) map[string]*node { return n.dependents })
}

func (g *Graph) reachable(id string, next func(*node) map[string]*node) ([]string, error) {
	g.mutex.RLock()
	start, ok := g.nodes[id]
	if !ok {
		g.mutex.RUnlock()
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	seen := make(map[string]bool)
	stack := []*node{start}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for nid, m := range next(n) {
			if !seen[nid] && nid != id {
				seen[nid] = true
				stack = append(stack, m)
			}
		}
	}
	g.mutex.RUnlock()

	order, err := g.TopologicalSort()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(seen))
	for _, nid := range order {
		if seen[nid] {
			out = append(out, nid)
		}
	}
	return out, nil
}

// TopologicalSort orders the nodes so that every node follows the nodes it
// depends on. Among nodes that are ready at the same time, the one added
// first comes first. A cycle fails the sort with ErrCycle.
func (g *Graph) TopologicalSort() ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	inDegree := make(map[string]int, len(g.nodes))
	var ready []*node
	for _, id := range g.order {
		n := g.nodes[id]
		inDegree[id] = len(n.deps)
		if len(n.deps) == 0 {
			ready = append(ready, n)
		}
	}

	result := make([]string, 0, len(g.nodes))
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		result = append(result, n.id)

		for _, dependent := range sortedNodes(n.dependents) {
			inDegree[dependent.id]--
			if inDegree[dependent.id] == 0 {
				i, _ := slices.BinarySearchFunc(ready, dependent.index, func(r *node, idx int) int {
					return r.index - idx
				})
				ready = slices.Insert(ready, i, dependent)
			}
		}
	}

	if len(result) != len(g.nodes) {
		var stuck []string
		for _, id := range g.order {
			if inDegree[id] > 0 {
				stuck = append(stuck, id)
			}
		}
		return nil, fmt.Errorf("%w among nodes: %s", ErrCycle, strings.Join(stuck, ", "))
	}
	return result, nil
}

// ReverseTopologicalSort returns the TopologicalSort order reversed, so that
// consumers precede their providers.
func (g *Graph) ReverseTopologicalSort() ([]string, error) {
	order, err := g.TopologicalSort()
	if err != nil {
		return nil, err
	}
	slices.Reverse(order)
	return order, nil
}

// DetectCycles checks the graph for cycles. The error names the first cycle
// found, walking nodes in insertion order, as "a -> b -> a".
func (g *Graph) DetectCycles() error {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	// permanent holds nodes fully visited and outside any cycle. path is the
	// current depth-first trail and onPath maps its nodes to their position.
	permanent := make(map[string]bool)
	onPath := make(map[string]int)
	var path []string

	var visit func(n *node) error
	visit = func(n *node) error {
		if permanent[n.id] {
			return nil
		}
		if i, ok := onPath[n.id]; ok {
			cycle := append(slices.Clone(path[i:]), n.id)
			return fmt.Errorf("%w: %s", ErrCycle, strings.Join(cycle, " -> "))
		}

		onPath[n.id] = len(path)
		path = append(path, n.id)

		for _, dependent := range sortedNodes(n.dependents) {
			if err := visit(dependent); err != nil {
				return err
			}
		}

		path = path[:len(path)-1]
		delete(onPath, n.id)
		permanent[n.id] = true

		return nil
	}

	for _, id := range g.order {
		if !permanent[id] {
			if err := visit(g.nodes[id]); err != nil {
				return err
			}
		}
	}

	return nil
}

func sortedNodes(set map[string]*node) []*node {
	out := make([]*node, 0, len(set))
	for _, n := range set {
		out = append(out, n)
	}
	slices.SortFunc(out, func(a, b *node) int { return a.index - b.index })
	return out
}
