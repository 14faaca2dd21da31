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
)

// Builder provides a fluent interface for assembling workflow definitions in
// code. It is the primary programmatic alternative to submitting a JSON
// Definition.
//
// Example usage:
//
//	g, err := graph.NewBuilder().
//	  AddNode("in", "input").
//	  AddNode("llm", "llm", graph.WithConfig(cfg)).
//	  AddNode("out", "output", graph.WithOutput()).
//	  AddEdge("in", "llm").
//	  AddEdge("llm", "out").
//	  SetEntryPoint("in").
//	  Compile()
type Builder struct {
	def  Definition
	errs []error
}

// NodeOption configures a node definition added through the builder.
type NodeOption func(*NodeDefinition)

// WithName sets the human-readable name of the node.
func WithName(name string) NodeOption {
	return func(nd *NodeDefinition) {
		nd.Name = name
	}
}

// WithConfig attaches a kind-specific configuration value to the node. The
// value is serialized once at build time.
func WithConfig(v any) NodeOption {
	return func(nd *NodeDefinition) {
		raw, err := json.Marshal(v)
		if err != nil {
			// Surfaced by Compile via the pending error list.
			return
		}
		nd.Config = raw
	}
}

// WithRawConfig attaches an already-serialized configuration to the node.
func WithRawConfig(raw json.RawMessage) NodeOption {
	return func(nd *NodeDefinition) {
		nd.Config = raw
	}
}

// WithOutput marks the node as a designated terminal.
func WithOutput() NodeOption {
	return func(nd *NodeDefinition) {
		nd.Output = true
	}
}

// NewBuilder creates an empty workflow builder.
func NewBuilder() *Builder {
	return &Builder{
		def: Definition{Nodes: make(map[string]NodeDefinition)},
	}
}

// AddNode adds a node with the given ID and kind.
func (b *Builder) AddNode(id, kind string, opts ...NodeOption) *Builder {
	if id == "" {
		b.errs = append(b.errs, fmt.Errorf("node ID cannot be empty"))
		return b
	}
	if _, exists := b.def.Nodes[id]; exists {
		b.errs = append(b.errs, fmt.Errorf("node %q already exists", id))
		return b
	}
	nd := NodeDefinition{Kind: kind}
	for _, opt := range opts {
		opt(&nd)
	}
	b.def.Nodes[id] = nd
	return b
}

// AddEdge adds a default-kind edge between two nodes.
func (b *Builder) AddEdge(source, target string) *Builder {
	b.def.Edges = append(b.def.Edges, EdgeDefinition{Source: source, Target: target})
	return b
}

// AddBranch adds a default-kind edge leaving the named source handle. A
// router selects one handle per execution; targets of unselected handles are
// pruned.
func (b *Builder) AddBranch(source, handle, target string) *Builder {
	b.def.Edges = append(b.def.Edges, EdgeDefinition{
		Source:       source,
		Target:       target,
		SourceHandle: handle,
	})
	return b
}

// AddErrorEdge adds an error-kind edge routing the source's failure to the
// target.
func (b *Builder) AddErrorEdge(source, target string) *Builder {
	b.def.Edges = append(b.def.Edges, EdgeDefinition{
		Source: source,
		Target: target,
		Kind:   EdgeKindError,
	})
	return b
}

// SetEntryPoint designates the entry node.
func (b *Builder) SetEntryPoint(id string) *Builder {
	b.def.Entry = id
	return b
}

// SetMaxConcurrent sets the concurrency cap for the compiled graph.
func (b *Builder) SetMaxConcurrent(n int) *Builder {
	b.def.MaxConcurrent = n
	return b
}

// Definition returns the accumulated definition without compiling it.
func (b *Builder) Definition() *Definition {
	return &b.def
}

// Compile validates the accumulated definition and returns the executable
// graph.
func (b *Builder) Compile() (*Graph, error) {
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrMalformedGraph, b.errs[0])
	}
	return Compile(&b.def)
}

// MustCompile compiles the accumulated definition or panics if invalid.
func (b *Builder) MustCompile() *Graph {
	g, err := b.Compile()
	if err != nil {
		panic(err)
	}
	return g
}
