//
// FlowMaestro is pleased to support the open source community by making flowmaestro-go available.
//
// Copyright (C) 2025 FlowMaestro.  All rights reserved.
//
// flowmaestro-go is licensed under the Apache License Version 2.0.
//
//

// Package graph compiles declarative workflow definitions into executable,
// leveled dependency graphs.
package graph

import "encoding/json"

// EdgeKind distinguishes the success path from the failure path of a node.
type EdgeKind string

const (
	// EdgeKindDefault is the normal success-path edge.
	EdgeKindDefault EdgeKind = "default"
	// EdgeKindError routes a node's failure to a handler branch.
	EdgeKindError EdgeKind = "error"
)

// DefaultMaxConcurrent bounds parallel node execution when a definition does
// not specify its own limit.
const DefaultMaxConcurrent = 4

// Node is one unit of work in a compiled workflow graph.
// Nodes are immutable once compiled.
type Node struct {
	// ID is the unique identifier of the node within the graph.
	ID string
	// Kind selects which step executor runs this node.
	Kind string
	// Name is the human-readable name of the node.
	Name string
	// Config is the opaque, kind-specific configuration. Shape validation
	// belongs to the step executor, not the compiler.
	Config json.RawMessage
	// Depth is the longest path from the entry node, in edges.
	Depth int
	// Dependencies lists predecessor node IDs in definition order.
	Dependencies []string
	// Dependents lists successor node IDs in definition order.
	Dependents []string
	// Output marks the node as a designated terminal whose value
	// contributes to the run result.
	Output bool
}

// Edge is a directed link between two nodes.
type Edge struct {
	// ID is the unique identifier of the edge.
	ID string
	// Source is the origin node ID.
	Source string
	// Target is the destination node ID.
	Target string
	// SourceHandle names the branch this edge leaves from. Routers select
	// exactly one handle per execution; edges on unselected handles are
	// never satisfied.
	SourceHandle string
	// TargetHandle names the input slot on the target node.
	TargetHandle string
	// Kind is the edge kind. An empty kind means EdgeKindDefault.
	Kind EdgeKind
}

// IsError reports whether the edge carries failure routing.
func (e *Edge) IsError() bool {
	return e.Kind == EdgeKindError
}

// Graph is a compiled, validated workflow graph. It is immutable: all
// mutation happens inside Compile, and runtime components only read it.
type Graph struct {
	nodes       map[string]*Node
	edges       map[string]*Edge
	outEdges    map[string][]*Edge
	inEdges     map[string][]*Edge
	levels      [][]string
	entryID     string
	terminalIDs []string

	maxConcurrent int
}

// Node returns a node by ID.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns the number of nodes in the graph.
func (g *Graph) Nodes() int {
	return len(g.nodes)
}

// NodeIDs returns the IDs of all nodes, ordered by level then ID.
func (g *Graph) NodeIDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for _, level := range g.levels {
		ids = append(ids, level...)
	}
	return ids
}

// Edge returns an edge by ID.
func (g *Graph) Edge(id string) (*Edge, bool) {
	e, ok := g.edges[id]
	return e, ok
}

// OutEdges returns all edges leaving the given node, in definition order.
func (g *Graph) OutEdges(nodeID string) []*Edge {
	return g.outEdges[nodeID]
}

// InEdges returns all edges entering the given node, in definition order.
func (g *Graph) InEdges(nodeID string) []*Edge {
	return g.inEdges[nodeID]
}

// ErrorEdges returns the error-kind edges leaving the given node.
func (g *Graph) ErrorEdges(nodeID string) []*Edge {
	var out []*Edge
	for _, e := range g.outEdges[nodeID] {
		if e.IsError() {
			out = append(out, e)
		}
	}
	return out
}

// EntryID returns the ID of the entry node.
func (g *Graph) EntryID() string {
	return g.entryID
}

// TerminalIDs returns the IDs of the designated output nodes.
func (g *Graph) TerminalIDs() []string {
	return g.terminalIDs
}

// Levels returns node IDs grouped by depth, ascending. Levels are a
// scheduling hint only; runtime readiness is authoritative for dispatch.
func (g *Graph) Levels() [][]string {
	return g.levels
}

// MaxConcurrent returns the concurrency cap for this graph.
func (g *Graph) MaxConcurrent() int {
	return g.maxConcurrent
}
