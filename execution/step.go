//
// FlowMaestro is pleased to support the open source community by making flowmaestro-go available.
//
// Copyright (C) 2025 FlowMaestro.  All rights reserved.
//
// flowmaestro-go is licensed under the Apache License Version 2.0.
//
//

package execution

import (
	"context"
	"encoding/json"
)

// StepRequest carries everything a step executor needs to run one node.
type StepRequest struct {
	// ExecutionID identifies the run the node belongs to.
	ExecutionID string
	// NodeID is the node being executed.
	NodeID string
	// Kind selects the executor behavior.
	Kind string
	// Name is the node's human-readable name.
	Name string
	// Config is the node's opaque configuration.
	Config json.RawMessage
	// Dependencies lists the node's predecessor IDs, in definition order.
	Dependencies []string
	// Snapshot is the frozen context view captured at dispatch time.
	Snapshot Snapshot
	// Inputs are the run-level input values.
	Inputs map[string]any
}

// StepResult is what a step executor reports back on success.
type StepResult struct {
	// Output is the node's output value, recorded into the context.
	Output any
	// Cost is the credits this step consumed, aggregated by the
	// admission gate. Zero when the step reports no cost.
	Cost float64
	// Handle names the outgoing branch a routing step selected. Empty
	// means all default edges are taken.
	Handle string
}

// StepExecutor is the collaborator that performs a node's actual work. The
// scheduler calls Execute exactly once per dispatched node and treats a
// returned error identically to a reported failure.
type StepExecutor interface {
	Execute(ctx context.Context, req *StepRequest) (*StepResult, error)
}

// StepExecutorFunc adapts a function to the StepExecutor interface.
type StepExecutorFunc func(ctx context.Context, req *StepRequest) (*StepResult, error)

// Execute implements StepExecutor.
func (f StepExecutorFunc) Execute(ctx context.Context, req *StepRequest) (*StepResult, error) {
	return f(ctx, req)
}
