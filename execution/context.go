//
// FlowMaestro is pleased to support the open source community by making flowmaestro-go available.
//
// Copyright (C) 2025 FlowMaestro.  All rights reserved.
//
// flowmaestro-go is licensed under the Apache License Version 2.0.
//
//

package execution

import "maps"

// Context is the append-only store of per-node outputs plus a scratch
// variable namespace. Updates are functional: WithOutput and WithVar return
// a new Context and never mutate the receiver, so a Snapshot captured at
// node dispatch keeps observing a consistent view while later nodes settle.
type Context struct {
	outputs map[string]any
	vars    map[string]any
}

// NewContext creates an empty execution context.
func NewContext() *Context {
	return &Context{
		outputs: make(map[string]any),
		vars:    make(map[string]any),
	}
}

// WithOutput returns a new context with the node's output recorded.
func (c *Context) WithOutput(nodeID string, value any) *Context {
	next := &Context{
		outputs: maps.Clone(c.outputs),
		vars:    c.vars,
	}
	next.outputs[nodeID] = value
	return next
}

// WithVar returns a new context with the scratch variable set.
func (c *Context) WithVar(name string, value any) *Context {
	next := &Context{
		outputs: c.outputs,
		vars:    maps.Clone(c.vars),
	}
	next.vars[name] = value
	return next
}

// Output returns a node's recorded output.
func (c *Context) Output(nodeID string) (any, bool) {
	v, ok := c.outputs[nodeID]
	return v, ok
}

// Var returns a scratch variable.
func (c *Context) Var(name string) (any, bool) {
	v, ok := c.vars[name]
	return v, ok
}

// Snapshot returns a frozen, read-only view of the context. The snapshot
// shares no mutable state with the live context.
func (c *Context) Snapshot() Snapshot {
	return Snapshot{
		outputs: maps.Clone(c.outputs),
		vars:    maps.Clone(c.vars),
	}
}

// AggregateOutputs merges each terminal node's output under its node ID,
// producing the run's final result object. Terminals with no recorded
// output are omitted.
func (c *Context) AggregateOutputs(terminalIDs []string) map[string]any {
	out := make(map[string]any, len(terminalIDs))
	for _, id := range terminalIDs {
		if v, ok := c.outputs[id]; ok {
			out[id] = v
		}
	}
	return out
}

// Snapshot is an immutable view of an execution context, keyed by node ID.
type Snapshot struct {
	outputs map[string]any
	vars    map[string]any
}

// Output returns a node's output at snapshot time.
func (s Snapshot) Output(nodeID string) (any, bool) {
	v, ok := s.outputs[nodeID]
	return v, ok
}

// Var returns a scratch variable at snapshot time.
func (s Snapshot) Var(name string) (any, bool) {
	v, ok := s.vars[name]
	return v, ok
}

// Outputs returns a copy of all outputs at snapshot time.
func (s Snapshot) Outputs() map[string]any {
	return maps.Clone(s.outputs)
}
