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
	"strconv"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/flowmaestro/flowmaestro-go/execution"
)

// Router selects an outgoing branch handle from configured rules. Rules are
// evaluated in order and the first match wins; the default handle applies
// when nothing matches.
type Router struct{}

type routerRule struct {
	// Ref is a template expression resolved against the context.
	Ref string `json:"ref"`
	// Op is one of eq, neq, gt, lt, gte, lte, contains, exists.
	Op string `json:"op"`
	// Value is the right-hand comparison operand.
	Value any `json:"value"`
	// Handle is the branch selected when the rule matches.
	Handle string `json:"handle"`
}

type routerConfig struct {
	Rules   []routerRule `json:"rules"`
	Default string       `json:"default"`
}

// Execute implements Handler.
func (*Router) Execute(_ context.Context, req *execution.StepRequest) (*execution.StepResult, error) {
	var cfg routerConfig
	if len(req.Config) > 0 {
		if err := sonic.Unmarshal(req.Config, &cfg); err != nil {
			return nil, fmt.Errorf("parse router config: %w", err)
		}
	}
	for _, rule := range cfg.Rules {
		match, err := evalRule(req.Snapshot, rule)
		if err != nil {
			return nil, fmt.Errorf("router node %s: %w", req.NodeID, err)
		}
		if match {
			return &execution.StepResult{
				Output: map[string]any{"selected": rule.Handle},
				Handle: rule.Handle,
			}, nil
		}
	}
	if cfg.Default == "" {
		return nil, fmt.Errorf("router node %s: no rule matched and no default handle", req.NodeID)
	}
	return &execution.StepResult{
		Output: map[string]any{"selected": cfg.Default},
		Handle: cfg.Default,
	}, nil
}

func evalRule(snap execution.Snapshot, rule routerRule) (bool, error) {
	left := execution.ResolveValue(snap, rule.Ref)
	unresolved := isUnresolved(left)
	switch rule.Op {
	case "exists":
		return !unresolved, nil
	case "eq":
		return !unresolved && looseEqual(left, rule.Value), nil
	case "neq":
		return !unresolved && !looseEqual(left, rule.Value), nil
	case "gt", "lt", "gte", "lte":
		if unresolved {
			return false, nil
		}
		l, lok := toFloat(left)
		r, rok := toFloat(rule.Value)
		if !lok || !rok {
			return false, nil
		}
		switch rule.Op {
		case "gt":
			return l > r, nil
		case "lt":
			return l < r, nil
		case "gte":
			return l >= r, nil
		default:
			return l <= r, nil
		}
	case "contains":
		if unresolved {
			return false, nil
		}
		ls, lok := left.(string)
		rs, rok := rule.Value.(string)
		return lok && rok && strings.Contains(ls, rs), nil
	default:
		return false, fmt.Errorf("unknown rule op %q", rule.Op)
	}
}

func isUnresolved(v any) bool {
	s, ok := v.(string)
	return ok && strings.HasPrefix(s, "{{unresolved:")
}

// looseEqual compares across the numeric representations JSON decoding
// produces, so 200 matches float64(200).
func looseEqual(a, b any) bool {
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return af == bf
		}
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
