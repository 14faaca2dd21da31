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
)

// InMemory is a process-local Ledger for tests and single-node deployments.
type InMemory struct {
	mu       sync.Mutex
	balances map[string]float64
	held     map[string]float64            // subjectID -> total outstanding holds
	holds    map[string]*Reservation       // reservation ID -> handle
}

// NewInMemory creates an empty in-memory ledger.
func NewInMemory() *InMemory {
	return &InMemory{
		balances: make(map[string]float64),
		held:     make(map[string]float64),
		holds:    make(map[string]*Reservation),
	}
}

// SetBalance sets a subject's credit balance.
func (l *InMemory) SetBalance(subjectID string, balance float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[subjectID] = balance
}

// Balance returns a subject's current credit balance.
func (l *InMemory) Balance(subjectID string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[subjectID]
}

// Outstanding returns the subject's total outstanding holds.
func (l *InMemory) Outstanding(subjectID string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held[subjectID]
}

// CheckAllowance implements Ledger.
func (l *InMemory) CheckAllowance(_ context.Context, subjectID string, amount float64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[subjectID]-l.held[subjectID] >= amount, nil
}

// Hold implements Ledger.
func (l *InMemory) Hold(_ context.Context, subjectID string, amount float64) (*Reservation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[subjectID]-l.held[subjectID] < amount {
		return nil, fmt.Errorf("%w: subject %s", ErrInsufficientBudget, subjectID)
	}
	r := NewReservation(subjectID, amount)
	l.held[subjectID] += amount
	l.holds[r.ID] = r
	return r, nil
}

// Settle implements Ledger.
func (l *InMemory) Settle(_ context.Context, r *Reservation, actual float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if r == nil {
		return ErrReservationNotFound
	}
	if _, ok := l.holds[r.ID]; !ok {
		return fmt.Errorf("%w: %s", ErrReservationNotFound, r.ID)
	}
	delete(l.holds, r.ID)
	l.held[r.SubjectID] -= r.Amount
	l.balances[r.SubjectID] -= actual
	return nil
}

// Release implements Ledger.
func (l *InMemory) Release(_ context.Context, r *Reservation) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if r == nil {
		return ErrReservationNotFound
	}
	if _, ok := l.holds[r.ID]; !ok {
		return fmt.Errorf("%w: %s", ErrReservationNotFound, r.ID)
	}
	delete(l.holds, r.ID)
	l.held[r.SubjectID] -= r.Amount
	return nil
}
