//
// FlowMaestro is pleased to support the open source community by making flowmaestro-go available.
//
// Copyright (C) 2025 FlowMaestro.  All rights reserved.
//
// flowmaestro-go is licensed under the Apache License Version 2.0.
//
//

package graph

import (
	"encoding/json"
	"fmt"
	"sort"
)

// NodeDefinition is the wire form of a node before compilation.
type NodeDefinition struct {
	Kind   string          `json:"kind"`
	Name   string          `json:"name,omitempty"`
	Config json.RawMessage `json:"config,omitempty"`
	Output bool            `json:"output,omitempty"`
}

// EdgeDefinition is the wire form of an edge before compilation.
type EdgeDefinition struct {
	ID           string   `json:"id,omitempty"`
	Source       string   `json:"source"`
	Target       string   `json:"target"`
	SourceHandle string   `json:"sourceHandle,omitempty"`
	TargetHandle string   `json:"targetHandle,omitempty"`
	Kind         EdgeKind `json:"kind,omitempty"`
}

// Definition is a declarative workflow graph as submitted by callers.
type Definition struct {
	Nodes         map[string]NodeDefinition `json:"nodes"`
	Edges         []EdgeDefinition          `json:"edges"`
	Entry         string                    `json:"entry"`
	MaxConcurrent int                       `json:"maxConcurrent,omitempty"`
}

// Compile validates a definition and produces an executable Graph.
//
// Compile enforces the structural invariants the runtime relies on and never
// re-checks: every edge references existing nodes, every node is reachable
// from the entry, the graph is acyclic, and depth(target) > depth(source)
// along every edge. Error-kind edges count as dependency edges; a node whose
// only predecessor is an error source is reachable, just conditionally.
func Compile(def *Definition) (*Graph, error) {
	if def == nil || len(def.Nodes) == 0 {
		return nil, fmt.Errorf("%w: no nodes defined", ErrMalformedGraph)
	}
	if def.Entry == "" {
		return nil, fmt.Errorf("%w: no entry node designated", ErrMalformedGraph)
	}
	if _, ok := def.Nodes[def.Entry]; !ok {
		return nil, fmt.Errorf("%w: entry node %q does not exist", ErrMalformedGraph, def.Entry)
	}

	g := &Graph{
		nodes:         make(map[string]*Node, len(def.Nodes)),
		edges:         make(map[string]*Edge, len(def.Edges)),
		outEdges:      make(map[string][]*Edge),
		inEdges:       make(map[string][]*Edge),
		entryID:       def.Entry,
		maxConcurrent: def.MaxConcurrent,
	}
	if g.maxConcurrent <= 0 {
		g.maxConcurrent = DefaultMaxConcurrent
	}

	for id, nd := range def.Nodes {
		name := nd.Name
		if name == "" {
			name = id
		}
		g.nodes[id] = &Node{
			ID:     id,
			Kind:   nd.Kind,
			Name:   name,
			Config: nd.Config,
			Output: nd.Output,
		}
	}

	for i, ed := range def.Edges {
		if _, ok := g.nodes[ed.Source]; !ok {
			return nil, fmt.Errorf("%w: edge references unknown source node %q", ErrMalformedGraph, ed.Source)
		}
		if _, ok := g.nodes[ed.Target]; !ok {
			return nil, fmt.Errorf("%w: edge references unknown target node %q", ErrMalformedGraph, ed.Target)
		}
		if ed.Source == ed.Target {
			return nil, fmt.Errorf("%w: edge from node %q to itself", ErrCyclicGraph, ed.Source)
		}
		kind := ed.Kind
		if kind == "" {
			kind = EdgeKindDefault
		}
		if kind != EdgeKindDefault && kind != EdgeKindError {
			return nil, fmt.Errorf("%w: edge %q has unknown kind %q", ErrMalformedGraph, ed.ID, ed.Kind)
		}
		edgeID := ed.ID
		if edgeID == "" {
			edgeID = fmt.Sprintf("%s->%s#%d", ed.Source, ed.Target, i)
		}
		if _, exists := g.edges[edgeID]; exists {
			return nil, fmt.Errorf("%w: duplicate edge id %q", ErrMalformedGraph, edgeID)
		}
		e := &Edge{
			ID:           edgeID,
			Source:       ed.Source,
			Target:       ed.Target,
			SourceHandle: ed.SourceHandle,
			TargetHandle: ed.TargetHandle,
			Kind:         kind,
		}
		g.edges[edgeID] = e
		g.outEdges[e.Source] = append(g.outEdges[e.Source], e)
		g.inEdges[e.Target] = append(g.inEdges[e.Target], e)
	}

	g.linkNeighbors()
	if err := g.checkReachability(); err != nil {
		return nil, err
	}
	if err := g.computeDepths(); err != nil {
		return nil, err
	}
	g.buildLevels()
	g.resolveTerminals()
	return g, nil
}

// MustCompile compiles the definition or panics if invalid.
func MustCompile(def *Definition) *Graph {
	g, err := Compile(def)
	if err != nil {
		panic(err)
	}
	return g
}

// linkNeighbors derives each node's ordered dependency and dependent sets
// from the edge list, deduplicating multiple edges between the same pair.
func (g *Graph) linkNeighbors() {
	for _, n := range g.nodes {
		seenDep := make(map[string]bool)
		for _, e := range g.inEdges[n.ID] {
			if !seenDep[e.Source] {
				seenDep[e.Source] = true
				n.Dependencies = append(n.Dependencies, e.Source)
			}
		}
		seenOut := make(map[string]bool)
		for _, e := range g.outEdges[n.ID] {
			if !seenOut[e.Target] {
				seenOut[e.Target] = true
				n.Dependents = append(n.Dependents, e.Target)
			}
		}
	}
}

// checkReachability verifies every node can be reached from the entry node,
// following both default and error edges.
func (g *Graph) checkReachability() error {
	visited := map[string]bool{g.entryID: true}
	work := []string{g.entryID}
	for len(work) > 0 {
		id := work[0]
		work = work[1:]
		for _, e := range g.outEdges[id] {
			if !visited[e.Target] {
				visited[e.Target] = true
				work = append(work, e.Target)
			}
		}
	}
	for id := range g.nodes {
		if !visited[id] {
			return fmt.Errorf("%w: node %q is not reachable from entry %q", ErrMalformedGraph, id, g.entryID)
		}
	}
	return nil
}

// computeDepths assigns each node its longest-path distance from the entry
// using bounded relaxation. Recursion is deliberately avoided so deep graphs
// cannot exhaust the stack. If depths are still relaxing after |nodes|
// passes, some edge participates in a cycle.
func (g *Graph) computeDepths() error {
	for _, n := range g.nodes {
		n.Depth = 0
	}
	for pass := 0; pass < len(g.nodes); pass++ {
		changed := false
		for _, e := range g.edges {
			src, tgt := g.nodes[e.Source], g.nodes[e.Target]
			if tgt.Depth < src.Depth+1 {
				tgt.Depth = src.Depth + 1
				changed = true
			}
		}
		if !changed {
			return nil
		}
	}
	return fmt.Errorf("%w: no valid depth ordering exists", ErrCyclicGraph)
}

// buildLevels groups node IDs by depth, ascending, with stable ordering
// inside each level.
func (g *Graph) buildLevels() {
	maxDepth := 0
	for _, n := range g.nodes {
		if n.Depth > maxDepth {
			maxDepth = n.Depth
		}
	}
	levels := make([][]string, maxDepth+1)
	for id, n := range g.nodes {
		levels[n.Depth] = append(levels[n.Depth], id)
	}
	for _, level := range levels {
		sort.Strings(level)
	}
	g.levels = levels
}

// resolveTerminals picks the designated output nodes: explicitly marked ones,
// or every sink node when none are marked.
func (g *Graph) resolveTerminals() {
	var marked []string
	var sinks []string
	for _, id := range g.NodeIDs() {
		n := g.nodes[id]
		if n.Output {
			marked = append(marked, id)
		}
		if len(n.Dependents) == 0 {
			sinks = append(sinks, id)
		}
	}
	if len(marked) > 0 {
		g.terminalIDs = marked
		return
	}
	g.terminalIDs = sinks
}
