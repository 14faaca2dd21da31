//
// FlowMaestro is pleased to support the open source community by making flowmaestro-go available.
//
// Copyright (C) 2025 FlowMaestro.  All rights reserved.
//
// flowmaestro-go is licensed under the Apache License Version 2.0.
//
//

package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/flowmaestro/flowmaestro-go/log"
)

// Gate wraps one run boundary with a pre-flight budget check, a hold for the
// run's duration, and exactly-once settlement. It does not compute costs
// itself: steps report their own cost and the gate aggregates.
type Gate struct {
	ledger Ledger

	mu          sync.Mutex
	reservation *Reservation
	actual      float64
	finalized   bool
}

// NewGate creates a gate over the given ledger. A nil ledger produces a gate
// that admits everything and settles nothing, which keeps budget enforcement
// optional for embedded use.
func NewGate(l Ledger) *Gate {
	return &Gate{ledger: l}
}

// Admit performs the pre-flight allowance check and places the hold. It must
// be called before any node dispatches; a denial leaves no reservation
// behind.
func (g *Gate) Admit(ctx context.Context, subjectID string, estimate float64) error {
	if g.ledger == nil {
		return nil
	}
	ok, err := g.ledger.CheckAllowance(ctx, subjectID, estimate)
	if err != nil {
		return fmt.Errorf("check allowance for %s: %w", subjectID, err)
	}
	if !ok {
		return fmt.Errorf("%w: subject %s cannot cover %.2f credits", ErrInsufficientBudget, subjectID, estimate)
	}
	r, err := g.ledger.Hold(ctx, subjectID, estimate)
	if err != nil {
		return fmt.Errorf("hold %.2f credits for %s: %w", estimate, subjectID, err)
	}
	g.mu.Lock()
	g.reservation = r
	g.mu.Unlock()
	return nil
}

// Add accumulates actual cost reported by a settled step.
func (g *Gate) Add(cost float64) {
	if cost <= 0 {
		return
	}
	g.mu.Lock()
	g.actual += cost
	g.mu.Unlock()
}

// Actual returns the cost accumulated so far.
func (g *Gate) Actual() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.actual
}

// Finalize fires exactly one of settle or release on the reservation:
// release when no node was ever dispatched, settle to the accumulated actual
// cost otherwise. Safe to call from a deferred scope around the whole run;
// repeat calls are no-ops.
func (g *Gate) Finalize(ctx context.Context, dispatched bool) {
	g.mu.Lock()
	if g.finalized || g.reservation == nil {
		g.mu.Unlock()
		return
	}
	g.finalized = true
	r := g.reservation
	actual := g.actual
	g.mu.Unlock()

	var err error
	if dispatched {
		err = g.ledger.Settle(ctx, r, actual)
	} else {
		err = g.ledger.Release(ctx, r)
	}
	if err != nil {
		// The hold stays on the books for reconciliation; the run result
		// is already decided at this point.
		log.Errorf("ledger: finalize reservation %s: %v", r.ID, err)
	}
}
