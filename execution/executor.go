//
// FlowMaestro is pleased to support the open source community by making flowmaestro-go available.
//
// Copyright (C) 2025 FlowMaestro.  All rights reserved.
//
// flowmaestro-go is licensed under the Apache License Version 2.0.
//
//

// Package execution runs compiled workflow graphs: it schedules nodes by
// readiness under a concurrency cap, records outputs into an append-only
// context, routes failures across error edges, and meters credit spend
// through an admission gate.
package execution

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/flowmaestro/flowmaestro-go/event"
	"github.com/flowmaestro/flowmaestro-go/graph"
	"github.com/flowmaestro/flowmaestro-go/ledger"
	"github.com/flowmaestro/flowmaestro-go/log"
	"github.com/flowmaestro/flowmaestro-go/telemetry"
)

// Run statuses recorded in Result.Status.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// ReasonInsufficientBudget is the Result.Error code for a run denied at the
// admission gate before any node dispatched.
const ReasonInsufficientBudget = "InsufficientBudget"

// Result is the outcome of one run.
type Result struct {
	// ExecutionID identifies the run.
	ExecutionID string `json:"execution_id"`
	// Status is one of StatusCompleted, StatusFailed, StatusCancelled.
	Status string `json:"status"`
	// Success is true only when every non-pruned terminal settled.
	Success bool `json:"success"`
	// Outputs maps terminal node IDs to their recorded outputs.
	Outputs map[string]any `json:"outputs,omitempty"`
	// Error describes why the run failed, empty on success.
	Error string `json:"error,omitempty"`
	// UnreachedNodes lists terminal nodes that never settled for a
	// non-benign reason.
	UnreachedNodes []string `json:"unreached_nodes,omitempty"`
	// Cost is the credits actually consumed, as reported by step executors.
	Cost float64 `json:"cost"`
}

// Executor coordinates runs. It is safe for concurrent use; each Run keeps
// its own scheduler, context and gate.
type Executor struct {
	steps         StepExecutor
	ledger        ledger.Ledger
	publisher     event.Publisher
	maxConcurrent int
}

// Option configures an Executor.
type Option func(*Executor)

// WithLedger enables budget enforcement against the given ledger. Without
// it, runs are admitted unconditionally and nothing is settled.
func WithLedger(l ledger.Ledger) Option {
	return func(e *Executor) { e.ledger = l }
}

// WithPublisher sets the event publisher for run and node lifecycle events.
func WithPublisher(p event.Publisher) Option {
	return func(e *Executor) { e.publisher = p }
}

// WithMaxConcurrent overrides the per-graph concurrency cap for every run.
// Zero keeps the graph's own cap; negative means unlimited.
func WithMaxConcurrent(n int) Option {
	return func(e *Executor) { e.maxConcurrent = n }
}

// New creates an Executor that hands node work to steps.
func New(steps StepExecutor, opts ...Option) *Executor {
	e := &Executor{
		steps:     steps,
		publisher: event.NopPublisher{},
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

type runOptions struct {
	executionID string
	subjectID   string
	timeout     time.Duration
	vars        map[string]any
	publisher   event.Publisher
}

// RunOption configures a single run.
type RunOption func(*runOptions)

// WithExecutionID fixes the run's ID instead of generating one.
func WithExecutionID(id string) RunOption {
	return func(o *runOptions) { o.executionID = id }
}

// WithSubject names the budget subject the run is charged to. Ignored when
// the executor has no ledger.
func WithSubject(id string) RunOption {
	return func(o *runOptions) { o.subjectID = id }
}

// WithTimeout bounds the run's wall time.
func WithTimeout(d time.Duration) RunOption {
	return func(o *runOptions) { o.timeout = d }
}

// WithRunPublisher overrides the executor's event publisher for this run
// only, so a caller can stream one run's events without touching others.
func WithRunPublisher(p event.Publisher) RunOption {
	return func(o *runOptions) { o.publisher = p }
}

// WithVar seeds a context variable visible to every node.
func WithVar(name string, value any) RunOption {
	return func(o *runOptions) {
		if o.vars == nil {
			o.vars = make(map[string]any)
		}
		o.vars[name] = value
	}
}

// Run executes the graph to completion and returns the run's Result.
//
// Step failures, budget denial and unreached terminals are reported inside
// the Result, not as a returned error. The returned error is non-nil only
// for setup problems (nil graph, pool creation, ledger I/O) and for
// cancellation, where it wraps ErrExecutionCanceled and the partial Result
// accompanies it.
func (e *Executor) Run(ctx context.Context, g *graph.Graph, inputs map[string]any, opts ...RunOption) (*Result, error) {
	if g == nil {
		return nil, fmt.Errorf("run: nil graph")
	}
	ro := runOptions{executionID: uuid.NewString()}
	for _, o := range opts {
		o(&ro)
	}
	if ro.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ro.timeout)
		defer cancel()
	}

	res := &Result{ExecutionID: ro.executionID}
	ctx, span := telemetry.StartExecutionSpan(ctx, ro.executionID)
	var runErr error
	defer func() {
		telemetry.EndSpan(span, runErr)
		telemetry.RecordExecution(ctx, res.Success)
	}()

	pub := e.publisher
	if ro.publisher != nil {
		pub = ro.publisher
	}

	gate := ledger.NewGate(e.ledger)
	dispatched := false
	defer func() {
		gate.Finalize(context.WithoutCancel(ctx), dispatched)
	}()

	if err := gate.Admit(ctx, ro.subjectID, float64(g.Nodes())); err != nil {
		if errors.Is(err, ledger.ErrInsufficientBudget) {
			log.Infof("execution %s denied: %v", ro.executionID, err)
			res.Status = StatusFailed
			res.Error = ReasonInsufficientBudget
			publish(pub, ctx, event.New(ro.executionID, event.TypeExecutionFailed,
				event.WithError(res.Error)))
			return res, nil
		}
		runErr = err
		return nil, fmt.Errorf("admit execution %s: %w", ro.executionID, err)
	}

	limit := g.MaxConcurrent()
	if e.maxConcurrent != 0 {
		limit = e.maxConcurrent
	}
	poolSize := limit
	if poolSize <= 0 {
		poolSize = g.Nodes()
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		runErr = err
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	ectx := NewContext()
	for name, v := range ro.vars {
		ectx = ectx.WithVar(name, v)
	}
	q := newRunQueue(g)

	publish(pub, ctx, event.New(ro.executionID, event.TypeExecutionStarted))
	log.Debugf("execution %s started: %d nodes, cap %d", ro.executionID, g.Nodes(), limit)

	// One mutex serializes every scheduler transition and context append
	// for this run; workers only compute.
	var mu sync.Mutex
	var firstErr error

	for !q.Complete() {
		if ctx.Err() != nil {
			return e.finishCancelled(ctx, pub, res, q, gate, ectx, g)
		}
		batch := q.ReadyBatch(limit)
		if len(batch) == 0 {
			if q.Complete() {
				break
			}
			firstErr = fmt.Errorf("no runnable nodes remain with %d unsettled", g.Nodes()-q.Settled())
			break
		}
		dispatched = true
		snap := ectx.Snapshot()

		var wg sync.WaitGroup
		for _, id := range batch {
			n, ok := g.Node(id)
			if !ok {
				continue
			}
			publish(pub, ctx, event.New(ro.executionID, event.TypeNodeStarted,
				event.WithNode(n.ID, n.Kind)))
			wg.Add(1)
			task := func() {
				defer wg.Done()
				sr, nodeErr := e.runNode(ctx, ro.executionID, n, snap, inputs)
				mu.Lock()
				defer mu.Unlock()
				if nodeErr != nil {
					routed := q.MarkFailed(n.ID)
					ectx = ectx.WithOutput(n.ID, FailureOutput(nodeErr))
					if !routed && firstErr == nil {
						firstErr = fmt.Errorf("node %s: %w", n.ID, nodeErr)
					}
					publish(pub, ctx, event.New(ro.executionID, event.TypeNodeFailed,
						event.WithNode(n.ID, n.Kind), event.WithError(nodeErr.Error())))
					return
				}
				ectx = ectx.WithOutput(n.ID, sr.Output)
				gate.Add(sr.Cost)
				q.MarkSettled(n.ID, sr.Handle)
				publish(pub, ctx, event.New(ro.executionID, event.TypeNodeCompleted,
					event.WithNode(n.ID, n.Kind), event.WithOutput(sr.Output)))
			}
			if submitErr := pool.Submit(task); submitErr != nil {
				task()
			}
		}
		wg.Wait()

		publish(pub, ctx, event.New(ro.executionID, event.TypeExecutionProgress,
			event.WithProgress(q.Settled(), q.Total())))
	}

	res.Outputs = ectx.AggregateOutputs(g.TerminalIDs())
	res.UnreachedNodes = q.UnreachedTerminals()
	res.Cost = gate.Actual()
	telemetry.RecordCredits(ctx, res.Cost)

	switch {
	case firstErr != nil:
		res.Status = StatusFailed
		res.Error = firstErr.Error()
	case len(res.UnreachedNodes) > 0:
		res.Status = StatusFailed
		res.Error = fmt.Sprintf("terminal nodes unreached: %s", strings.Join(res.UnreachedNodes, ", "))
	default:
		res.Status = StatusCompleted
		res.Success = true
	}

	if res.Success {
		publish(pub, ctx, event.New(ro.executionID, event.TypeExecutionCompleted,
			event.WithOutput(res.Outputs)))
		log.Debugf("execution %s completed: %d nodes settled, cost %.2f",
			ro.executionID, q.Settled(), res.Cost)
	} else {
		publish(pub, ctx, event.New(ro.executionID, event.TypeExecutionFailed,
			event.WithError(res.Error)))
		log.Infof("execution %s failed: %s", ro.executionID, res.Error)
	}
	return res, nil
}

// finishCancelled builds the partial result for a run stopped by its
// context. The gate still settles the cost consumed so far through the
// deferred Finalize.
func (e *Executor) finishCancelled(ctx context.Context, pub event.Publisher, res *Result, q *runQueue, gate *ledger.Gate, ectx *Context, g *graph.Graph) (*Result, error) {
	res.Status = StatusCancelled
	res.Error = ErrExecutionCanceled.Error()
	res.Outputs = ectx.AggregateOutputs(g.TerminalIDs())
	res.UnreachedNodes = q.UnreachedTerminals()
	res.Cost = gate.Actual()
	detached := context.WithoutCancel(ctx)
	publish(pub, detached, event.New(res.ExecutionID, event.TypeExecutionCancelled,
		event.WithError(res.Error)))
	log.Infof("execution %s cancelled after %d/%d nodes", res.ExecutionID, q.Settled(), q.Total())
	return res, fmt.Errorf("execution %s: %w", res.ExecutionID, ErrExecutionCanceled)
}

// runNode executes one node through the step executor, converting panics
// into failures so a misbehaving step cannot take the run down.
func (e *Executor) runNode(ctx context.Context, executionID string, n *graph.Node, snap Snapshot, inputs map[string]any) (sr *StepResult, err error) {
	nctx, span := telemetry.StartNodeSpan(ctx, executionID, n.ID, n.Kind)
	defer func() {
		if r := recover(); r != nil {
			sr, err = nil, fmt.Errorf("panic: %v", r)
		}
		telemetry.EndSpan(span, err)
		telemetry.RecordNode(nctx, n.Kind, err != nil)
	}()

	sr, err = e.steps.Execute(nctx, &StepRequest{
		ExecutionID:  executionID,
		NodeID:       n.ID,
		Kind:         n.Kind,
		Name:         n.Name,
		Config:       n.Config,
		Dependencies: n.Dependencies,
		Snapshot:     snap,
		Inputs:       inputs,
	})
	if err != nil {
		return nil, err
	}
	if sr == nil {
		sr = &StepResult{}
	}
	return sr, nil
}

func publish(p event.Publisher, ctx context.Context, ev *event.Event) {
	if err := p.Publish(ctx, ev); err != nil {
		log.Debugf("publish %s for execution %s: %v", ev.Type, ev.ExecutionID, err)
	}
}
