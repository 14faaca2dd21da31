//
// FlowMaestro is pleased to support the open source community by making flowmaestro-go available.
//
// Copyright (C) 2025 FlowMaestro.  All rights reserved.
//
// flowmaestro-go is licensed under the Apache License Version 2.0.
//
//

// Package ledger provides the prepaid-credit ledger and the admission gate
// that wraps workflow executions.
package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrInsufficientBudget reports that a subject's balance cannot cover
	// the estimated cost of a run.
	ErrInsufficientBudget = errors.New("insufficient budget")
	// ErrReservationNotFound reports a settle or release against an
	// unknown or already-finalized reservation.
	ErrReservationNotFound = errors.New("reservation not found")
)

// Reservation is a temporary hold against a subject's credit balance for the
// duration of one run. Exactly one of Settle or Release finalizes it.
type Reservation struct {
	// ID identifies the hold in the ledger backend.
	ID string
	// SubjectID is the account the hold was taken from.
	SubjectID string
	// Amount is the credits held.
	Amount float64
}

// NewReservation creates a reservation handle with a generated ID.
func NewReservation(subjectID string, amount float64) *Reservation {
	return &Reservation{
		ID:        uuid.New().String(),
		SubjectID: subjectID,
		Amount:    amount,
	}
}

// Ledger is the credit-ledger collaborator contract. Implementations must
// make Hold atomic with respect to concurrent holds on the same subject.
type Ledger interface {
	// CheckAllowance reports whether the subject's available balance
	// (balance minus outstanding holds) covers the given amount.
	CheckAllowance(ctx context.Context, subjectID string, amount float64) (bool, error)
	// Hold places a hold for the given amount, failing with
	// ErrInsufficientBudget when the available balance cannot cover it.
	Hold(ctx context.Context, subjectID string, amount float64) (*Reservation, error)
	// Settle converts the hold into a debit of the actual usage and
	// removes the hold. Actual may be below or above the held amount.
	Settle(ctx context.Context, r *Reservation, actual float64) error
	// Release removes the hold in full without debiting anything.
	Release(ctx context.Context, r *Reservation) error
}
