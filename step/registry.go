//
// FlowMaestro is pleased to support the open source community by making flowmaestro-go available.
//
// Copyright (C) 2025 FlowMaestro.  All rights reserved.
//
// flowmaestro-go is licensed under the Apache License Version 2.0.
//
//

// Package step provides the builtin node executors and the registry that
// dispatches node work by kind. The execution core only ever sees the
// registry through the StepExecutor interface.
package step

import (
	"context"
	"fmt"
	"sync"

	"github.com/flowmaestro/flowmaestro-go/execution"
)

// Handler executes nodes of one kind.
type Handler = execution.StepExecutor

// Registry maps node kinds to handlers and implements
// execution.StepExecutor by dispatching on the request's kind.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates a registry preloaded with the builtin kinds: input,
// output, transform, router and http. Register replaces builtins.
func NewRegistry() *Registry {
	r := &Registry{handlers: make(map[string]Handler)}
	r.Register("input", &Input{})
	r.Register("output", &Output{})
	r.Register("transform", &Transform{})
	r.Register("router", &Router{})
	r.Register("http", NewHTTP(nil))
	return r
}

// Register binds a handler to a kind, replacing any previous binding.
func (r *Registry) Register(kind string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[kind] = h
}

// Handler returns the handler bound to kind.
func (r *Registry) Handler(kind string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[kind]
	return h, ok
}

// Execute implements execution.StepExecutor.
func (r *Registry) Execute(ctx context.Context, req *execution.StepRequest) (*execution.StepResult, error) {
	h, ok := r.Handler(req.Kind)
	if !ok {
		return nil, fmt.Errorf("no handler registered for node kind %q", req.Kind)
	}
	return h.Execute(ctx, req)
}
