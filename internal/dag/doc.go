// Package dag provides the directed graph that backs the dependency graph
// of a containment scope.
//
// Nodes are identified by string IDs and remember their insertion order. An
// edge from A to B means B depends on A. TopologicalSort returns providers
// before consumers and breaks ties by insertion order, so the result is
// deterministic for a given sequence of AddNode and AddEdge calls. A cycle is
// reported as ErrCycle; the sort never returns a partial order.
//
// All operations on a Graph are concurrency-safe.
package dag
