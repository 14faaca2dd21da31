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
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisKeys(t *testing.T) {
	assert.Equal(t, "flowmaestro:credits:acct", subjectKey("acct"))
	assert.Equal(t, "flowmaestro:hold:res-1", holdKey("res-1"))
}

func TestParseFloat(t *testing.T) {
	assert.Equal(t, 12.5, parseFloat("12.5"))
	assert.Equal(t, 0.0, parseFloat(nil))
	assert.Equal(t, 0.0, parseFloat("not a number"))
}

func TestRedisNilReservation(t *testing.T) {
	l := &Redis{}
	assert.ErrorIs(t, l.Settle(context.Background(), nil, 1), ErrReservationNotFound)
	assert.ErrorIs(t, l.Release(context.Background(), nil), ErrReservationNotFound)
}

// TestRedisLedgerRoundTrip exercises the Lua scripts against a live Redis.
// Set FLOWMAESTRO_TEST_REDIS_URL (e.g. redis://localhost:6379/15) to run it.
func TestRedisLedgerRoundTrip(t *testing.T) {
	url := os.Getenv("FLOWMAESTRO_TEST_REDIS_URL")
	if url == "" {
		t.Skip("FLOWMAESTRO_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	l, err := NewRedis(ctx, url)
	require.NoError(t, err)

	require.NoError(t, l.SetBalance(ctx, "test-acct", 10))

	ok, err := l.CheckAllowance(ctx, "test-acct", 8)
	require.NoError(t, err)
	assert.True(t, ok)

	r, err := l.Hold(ctx, "test-acct", 8)
	require.NoError(t, err)

	// Available balance shrinks while the hold is outstanding.
	ok, err = l.CheckAllowance(ctx, "test-acct", 3)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, l.Settle(ctx, r, 5))
	assert.ErrorIs(t, l.Settle(ctx, r, 5), ErrReservationNotFound)

	ok, err = l.CheckAllowance(ctx, "test-acct", 5)
	require.NoError(t, err)
	assert.True(t, ok)
}
