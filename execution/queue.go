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
	"github.com/flowmaestro/flowmaestro-go/graph"
)

// nodeState tracks where a node is in its lifecycle during a run.
type nodeState int

const (
	// statePending means not all predecessors have resolved yet.
	statePending nodeState = iota
	// stateReady means every predecessor resolved with at least one live
	// path in, and the node is waiting for dispatch.
	stateReady
	// stateExecuting means the node has been handed to a step executor.
	stateExecuting
	// stateSettled means the node finished successfully.
	stateSettled
	// stateFailed means the node's executor reported an error.
	stateFailed
	// statePruned means every path into the node was switched away by
	// routing. Pruning is benign and does not fail the run.
	statePruned
	// stateUnreachable means the node depends on a failure that no error
	// edge handled, so it can never run.
	stateUnreachable
)

// exclusionCause records why an incoming dependency will never deliver.
type exclusionCause int

const (
	// causeBenign marks a path dropped by routing or by an untaken error
	// edge. Benign exclusions prune, they never fail.
	causeBenign exclusionCause = iota
	// causeFailed marks a path severed by an unhandled failure.
	causeFailed
)

// runQueue is the readiness scheduler for one execution. It tracks per-node
// state and per-dependency dispositions and decides which nodes may run next.
// runQueue is not safe for concurrent use; the coordinator serializes access.
type runQueue struct {
	g         *graph.Graph
	states    map[string]nodeState
	satisfied map[string]map[string]bool
	excluded  map[string]map[string]exclusionCause
	settled   int
}

func newRunQueue(g *graph.Graph) *runQueue {
	q := &runQueue{
		g:         g,
		states:    make(map[string]nodeState, g.Nodes()),
		satisfied: make(map[string]map[string]bool),
		excluded:  make(map[string]map[string]exclusionCause),
	}
	for _, id := range g.NodeIDs() {
		q.states[id] = statePending
	}
	q.promote()
	return q
}

// ReadyBatch promotes every eligible pending node and returns up to max of
// them, marking the returned nodes as executing. A max of zero or less means
// no limit. Nodes are returned in level order so shallower work runs first.
func (q *runQueue) ReadyBatch(max int) []string {
	q.promote()
	var batch []string
	for _, id := range q.g.NodeIDs() {
		if q.states[id] != stateReady {
			continue
		}
		if max > 0 && len(batch) >= max {
			break
		}
		q.states[id] = stateExecuting
		batch = append(batch, id)
	}
	return batch
}

// MarkSettled records a successful node and routes its outgoing edges.
// When the node selected a branch handle, default edges on other handles
// are dropped as benign. Error edges out of a successful node are never
// taken. Repeated settlement of the same node is ignored.
func (q *runQueue) MarkSettled(id, handle string) {
	if q.states[id] != stateExecuting {
		return
	}
	q.states[id] = stateSettled
	q.settled++
	q.routeOut(id, func(e *graph.Edge) bool {
		if e.IsError() {
			return false
		}
		return handle == "" || e.SourceHandle == "" || e.SourceHandle == handle
	}, causeBenign)
	q.promote()
}

// MarkFailed records a failed node. When the node has error edges the
// failure is routed onto them and the success-path dependents are dropped
// benignly; the returned routed flag is true. Without error edges every
// dependent becomes unreachable and routed is false.
func (q *runQueue) MarkFailed(id string) (routed bool) {
	if q.states[id] != stateExecuting {
		return false
	}
	q.states[id] = stateFailed
	if len(q.g.ErrorEdges(id)) > 0 {
		q.routeOut(id, func(e *graph.Edge) bool { return e.IsError() }, causeBenign)
		q.promote()
		return true
	}
	q.routeOut(id, func(e *graph.Edge) bool { return false }, causeFailed)
	q.promote()
	return false
}

// routeOut resolves every outgoing dependency of id. Edges for which taken
// returns true satisfy their target; the rest are excluded with cause. When
// multiple edges reach the same target, a single taken edge wins.
func (q *runQueue) routeOut(id string, taken func(*graph.Edge) bool, cause exclusionCause) {
	sat := make(map[string]bool)
	dropped := make(map[string]bool)
	for _, e := range q.g.OutEdges(id) {
		if taken(e) {
			sat[e.Target] = true
		} else {
			dropped[e.Target] = true
		}
	}
	for target := range sat {
		q.satisfy(target, id)
	}
	for target := range dropped {
		if !sat[target] {
			q.exclude(target, id, cause)
		}
	}
}

func (q *runQueue) satisfy(target, source string) {
	m := q.satisfied[target]
	if m == nil {
		m = make(map[string]bool)
		q.satisfied[target] = m
	}
	m[source] = true
	delete(q.excluded[target], source)
}

func (q *runQueue) exclude(target, source string, cause exclusionCause) {
	if q.satisfied[target][source] {
		return
	}
	m := q.excluded[target]
	if m == nil {
		m = make(map[string]exclusionCause)
		q.excluded[target] = m
	}
	// A failed exclusion is never downgraded to benign.
	if prev, ok := m[source]; ok && prev == causeFailed {
		return
	}
	m[source] = cause
}

// promote walks pending nodes and advances any whose predecessors have all
// resolved: to ready when a live path remains, to pruned when every path was
// dropped benignly, to unreachable when an unhandled failure severed one.
// Pruned and unreachable nodes propagate onward, so promotion loops until
// the frontier is stable.
func (q *runQueue) promote() {
	for changed := true; changed; {
		changed = false
		for _, id := range q.g.NodeIDs() {
			if q.states[id] != statePending {
				continue
			}
			next, done := q.resolvePending(id)
			if !done {
				continue
			}
			q.states[id] = next
			changed = true
			switch next {
			case statePruned:
				q.routeOut(id, func(e *graph.Edge) bool { return false }, causeBenign)
			case stateUnreachable:
				q.routeOut(id, func(e *graph.Edge) bool { return false }, causeFailed)
			}
		}
	}
}

// resolvePending reports the next state of a pending node, or done=false
// when some predecessor is still outstanding.
func (q *runQueue) resolvePending(id string) (next nodeState, done bool) {
	n, ok := q.g.Node(id)
	if !ok {
		return statePending, false
	}
	if len(n.Dependencies) == 0 {
		return stateReady, true
	}
	live := 0
	for _, dep := range n.Dependencies {
		switch {
		case q.satisfied[id][dep]:
			live++
		case q.excluded[id] != nil:
			cause, resolved := q.excluded[id][dep]
			if !resolved {
				return statePending, false
			}
			if cause == causeFailed {
				return stateUnreachable, true
			}
		default:
			return statePending, false
		}
	}
	if live == 0 {
		return statePruned, true
	}
	return stateReady, true
}

// Complete reports whether the run has no pending, ready or executing nodes
// left.
func (q *runQueue) Complete() bool {
	for _, s := range q.states {
		switch s {
		case statePending, stateReady, stateExecuting:
			return false
		}
	}
	return true
}

// Settled returns the number of successfully settled nodes.
func (q *runQueue) Settled() int { return q.settled }

// Total returns the number of nodes in the graph.
func (q *runQueue) Total() int { return q.g.Nodes() }

// UnreachedTerminals returns the output nodes that did not settle for a
// non-benign reason. Terminals pruned away by routing are not listed; a run
// that leaves only pruned terminals behind is still a success.
func (q *runQueue) UnreachedTerminals() []string {
	var out []string
	for _, id := range q.g.TerminalIDs() {
		switch q.states[id] {
		case stateSettled, statePruned:
		default:
			out = append(out, id)
		}
	}
	return out
}
