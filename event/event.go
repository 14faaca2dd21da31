//
// FlowMaestro is pleased to support the open source community by making flowmaestro-go available.
//
// Copyright (C) 2025 FlowMaestro.  All rights reserved.
//
// flowmaestro-go is licensed under the Apache License Version 2.0.
//
//

// Package event provides the progress-event system for workflow executions.
package event

import (
	"time"

	"github.com/google/uuid"
)

// Type identifies the lifecycle transition an event reports.
type Type string

const (
	// TypeExecutionStarted fires once before the first node dispatch.
	TypeExecutionStarted Type = "execution:started"
	// TypeExecutionProgress fires after each batch settles.
	TypeExecutionProgress Type = "execution:progress"
	// TypeExecutionCompleted fires when every required terminal settled.
	TypeExecutionCompleted Type = "execution:completed"
	// TypeExecutionFailed fires when the run ends with unreached terminals
	// or is denied admission.
	TypeExecutionFailed Type = "execution:failed"
	// TypeExecutionCancelled fires when the run context is cancelled.
	TypeExecutionCancelled Type = "execution:cancelled"
	// TypeNodeStarted fires when a node is dispatched.
	TypeNodeStarted Type = "node:started"
	// TypeNodeCompleted fires when a node settles successfully.
	TypeNodeCompleted Type = "node:completed"
	// TypeNodeFailed fires when a node fails, whether or not an error edge
	// recovers it.
	TypeNodeFailed Type = "node:failed"
)

// Progress reports how much of the graph has settled.
type Progress struct {
	Settled int `json:"settled"`
	Total   int `json:"total"`
}

// Event is a single notification about a workflow execution.
type Event struct {
	ID          string    `json:"id"`
	Type        Type      `json:"type"`
	ExecutionID string    `json:"execution_id"`
	NodeID      string    `json:"node_id,omitempty"`
	NodeKind    string    `json:"node_type,omitempty"`
	Output      any       `json:"output,omitempty"`
	Error       string    `json:"error,omitempty"`
	Progress    *Progress `json:"progress,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Option configures an Event at construction time.
type Option func(*Event)

// WithNode attaches node identity to the event.
func WithNode(id, kind string) Option {
	return func(e *Event) {
		e.NodeID = id
		e.NodeKind = kind
	}
}

// WithOutput attaches a node or run output to the event.
func WithOutput(v any) Option {
	return func(e *Event) {
		e.Output = v
	}
}

// WithError attaches an error message to the event.
func WithError(msg string) Option {
	return func(e *Event) {
		e.Error = msg
	}
}

// WithProgress attaches settled/total counts to the event.
func WithProgress(settled, total int) Option {
	return func(e *Event) {
		e.Progress = &Progress{Settled: settled, Total: total}
	}
}

// New creates an Event with a generated ID and the current timestamp.
func New(executionID string, t Type, opts ...Option) *Event {
	e := &Event{
		ID:          uuid.New().String(),
		Type:        t,
		ExecutionID: executionID,
		Timestamp:   time.Now(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}
