// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file implements the dependency graph. Each containment scope owns one
// partition; partitions link parent to child. Edges run from provider to
// consumer and are always local: a binding that crosses scopes becomes an
// edge between the two subtrees' roots in the deepest partition enclosing
// both ends.
package model

import (
	"fmt"
	"slices"
	"sync"

	"github.com/vk/composegrid/internal/address"
	"github.com/vk/composegrid/internal/dag"
)

type edge struct {
	from, to string
}

// DependencyGraph is one partition of the dependency graph.
type DependencyGraph struct {
	mu        sync.RWMutex
	partition string
	parent    *DependencyGraph
	children  []*DependencyGraph
	graph     *dag.Graph
	models    map[string]DeploymentModel
	refs      map[edge]int
}

// NewDependencyGraph creates a root partition.
func NewDependencyGraph(partition string) *DependencyGraph {
	return &DependencyGraph{
		partition: partition,
		graph:     dag.New(),
		models:    make(map[string]DeploymentModel),
		refs:      make(map[edge]int),
	}
}

// NewChild creates and links a child partition.
func (g *DependencyGraph) NewChild(partition string) *DependencyGraph {
	child := NewDependencyGraph(partition)
	child.parent = g

	g.mu.Lock()
	g.children = append(g.children, child)
	g.mu.Unlock()
	return child
}

// RemoveChild unlinks a child partition.
func (g *DependencyGraph) RemoveChild(child *DependencyGraph) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.children = slices.DeleteFunc(g.children, func(c *DependencyGraph) bool { return c == child })
}

func (g *DependencyGraph) Partition() string          { return g.partition }
func (g *DependencyGraph) Parent() *DependencyGraph   { return g.parent }

// Children returns the linked child partitions.
func (g *DependencyGraph) Children() []*DependencyGraph {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.children)
}

// Add registers m as a node of this partition.
func (g *DependencyGraph) Add(m DeploymentModel) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.models[m.Path()] = m
	g.graph.AddNode(m.Path())
}

// Remove deletes m and every edge touching it.
func (g *DependencyGraph) Remove(m DeploymentModel) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := m.Path()
	delete(g.models, id)
	for e := range g.refs {
		if e.from == id || e.to == id {
			delete(g.refs, e)
		}
	}
	g.graph.RemoveNode(id)
}

// Models returns the partition's nodes in insertion order.
func (g *DependencyGraph) Models() []DeploymentModel {
	return g.resolve(g.graph.Nodes())
}

// locate finds the partition that should hold the edge for a binding from
// provider to consumer, along with the local node IDs of both ends. ok is
// false when the binding needs no edge, e.g. both ends share a subtree.
func (g *DependencyGraph) locate(provider, consumer DeploymentModel) (target *DependencyGraph, e edge, ok bool, err error) {
	common := address.CommonPartition(provider.Path(), consumer.Path())
	target = g
	for target != nil && target.partition != common {
		target = target.parent
	}
	if target == nil {
		return nil, edge{}, false, fmt.Errorf("no graph partition %q above %q", common, g.partition)
	}
	from, okFrom := address.LocalName(common, provider.Path())
	to, okTo := address.LocalName(common, consumer.Path())
	if !okFrom || !okTo || from == to {
		return nil, edge{}, false, nil
	}
	return target, edge{from: common + from, to: common + to}, true, nil
}

// Connect records that consumer depends on provider.
func (g *DependencyGraph) Connect(provider, consumer DeploymentModel) error {
	target, e, ok, err := g.locate(provider, consumer)
	if err != nil || !ok {
		return err
	}

	target.mu.Lock()
	defer target.mu.Unlock()
	if err := target.graph.AddEdge(e.from, e.to); err != nil {
		return &RuntimeError{Op: "connect " + e.from + " -> " + e.to, Err: err}
	}
	target.refs[e]++
	return nil
}

// Disconnect drops one binding recorded by Connect. The edge disappears when
// no binding uses it any more.
func (g *DependencyGraph) Disconnect(provider, consumer DeploymentModel) {
	target, e, ok, err := g.locate(provider, consumer)
	if err != nil || !ok {
		return
	}

	target.mu.Lock()
	defer target.mu.Unlock()
	if target.refs[e] <= 1 {
		delete(target.refs, e)
		target.graph.RemoveEdge(e.from, e.to)
		return
	}
	target.refs[e]--
}

// StartupGraph orders the partition's models providers first. A cycle is an error.
func (g *DependencyGraph) StartupGraph() ([]DeploymentModel, error) {
	ids, err := g.graph.TopologicalSort()
	if err != nil {
		return nil, g.orderError("startup graph", err)
	}
	return g.resolve(ids), nil
}

// ShutdownGraph is the reverse of StartupGraph.
func (g *DependencyGraph) ShutdownGraph() ([]DeploymentModel, error) {
	ids, err := g.graph.ReverseTopologicalSort()
	if err != nil {
		return nil, g.orderError("shutdown graph", err)
	}
	return g.resolve(ids), nil
}

// orderError replaces a failed sort with the named cycle when one is found.
func (g *DependencyGraph) orderError(op string, err error) error {
	if cycle := g.graph.DetectCycles(); cycle != nil {
		err = cycle
	}
	return &RuntimeError{Op: op + " of " + g.partition, Err: err}
}

// ProviderGraph returns the local models m transitively depends on, in startup order.
func (g *DependencyGraph) ProviderGraph(m DeploymentModel) ([]DeploymentModel, error) {
	ids, err := g.graph.Ancestors(m.Path())
	if err != nil {
		return nil, &RuntimeError{Op: "provider graph of " + m.Path(), Err: err}
	}
	return g.resolve(ids), nil
}

// ConsumerGraph returns the local models transitively depending on m, in startup order.
func (g *DependencyGraph) ConsumerGraph(m DeploymentModel) ([]DeploymentModel, error) {
	ids, err := g.graph.Descendants(m.Path())
	if err != nil {
		return nil, &RuntimeError{Op: "consumer graph of " + m.Path(), Err: err}
	}
	return g.resolve(ids), nil
}

func (g *DependencyGraph) resolve(ids []string) []DeploymentModel {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]DeploymentModel, 0, len(ids))
	for _, id := range ids {
		if m, ok := g.models[id]; ok {
			out = append(out, m)
		}
	}
	return out
}
