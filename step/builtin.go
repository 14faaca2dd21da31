//
// FlowMaestro is pleased to support the open source community by making flowmaestro-go available.
//
// Copyright (C) 2025 FlowMaestro.  All rights reserved.
//
// flowmaestro-go is licensed under the Apache License Version 2.0.
//
//

package step

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"

	"github.com/flowmaestro/flowmaestro-go/execution"
)

// Input surfaces the run's input values as the entry node's output. Config
// values are merged on top of the run inputs, so a graph can fix defaults.
type Input struct{}

type inputConfig struct {
	Value map[string]any `json:"value"`
}

// Execute implements Handler.
func (*Input) Execute(_ context.Context, req *execution.StepRequest) (*execution.StepResult, error) {
	out := make(map[string]any, len(req.Inputs))
	for k, v := range req.Inputs {
		out[k] = v
	}
	if len(req.Config) > 0 {
		var cfg inputConfig
		if err := sonic.Unmarshal(req.Config, &cfg); err != nil {
			return nil, fmt.Errorf("parse input config: %w", err)
		}
		for k, v := range cfg.Value {
			out[k] = v
		}
	}
	return &execution.StepResult{Output: out}, nil
}

// Output shapes a run's terminal value. With a configured value template it
// resolves the template against the context; without one it passes through
// its sole dependency's output.
type Output struct{}

type outputConfig struct {
	Value string `json:"value"`
}

// Execute implements Handler.
func (*Output) Execute(_ context.Context, req *execution.StepRequest) (*execution.StepResult, error) {
	if len(req.Config) > 0 {
		var cfg outputConfig
		if err := sonic.Unmarshal(req.Config, &cfg); err != nil {
			return nil, fmt.Errorf("parse output config: %w", err)
		}
		if cfg.Value != "" {
			return &execution.StepResult{Output: execution.ResolveValue(req.Snapshot, cfg.Value)}, nil
		}
	}
	// Passthrough: the first non-failure dependency output wins, so an
	// error-branch join forwards the recovered value, not the failure.
	var failure any
	haveFailure := false
	for _, dep := range req.Dependencies {
		v, ok := req.Snapshot.Output(dep)
		if !ok {
			continue
		}
		if execution.IsFailureOutput(v) {
			if !haveFailure {
				failure, haveFailure = v, true
			}
			continue
		}
		return &execution.StepResult{Output: v}, nil
	}
	if haveFailure {
		return &execution.StepResult{Output: failure}, nil
	}
	return &execution.StepResult{}, nil
}

// Transform produces a new value from upstream outputs. A "template" config
// resolves one expression; a "fields" config builds an object with each
// field resolved independently.
type Transform struct{}

type transformConfig struct {
	Template string            `json:"template"`
	Fields   map[string]string `json:"fields"`
}

// Execute implements Handler.
func (*Transform) Execute(_ context.Context, req *execution.StepRequest) (*execution.StepResult, error) {
	var cfg transformConfig
	if len(req.Config) > 0 {
		if err := sonic.Unmarshal(req.Config, &cfg); err != nil {
			return nil, fmt.Errorf("parse transform config: %w", err)
		}
	}
	switch {
	case cfg.Template != "":
		return &execution.StepResult{Output: execution.ResolveValue(req.Snapshot, cfg.Template)}, nil
	case len(cfg.Fields) > 0:
		out := make(map[string]any, len(cfg.Fields))
		for name, tmpl := range cfg.Fields {
			out[name] = execution.ResolveValue(req.Snapshot, tmpl)
		}
		return &execution.StepResult{Output: out}, nil
	default:
		return nil, fmt.Errorf("transform node %s: config needs template or fields", req.NodeID)
	}
}
