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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextWithOutputDoesNotMutateReceiver(t *testing.T) {
	base := NewContext()
	next := base.WithOutput("fetch", map[string]any{"status": 200})

	_, ok := base.Output("fetch")
	assert.False(t, ok, "receiver must stay empty")

	v, ok := next.Output("fetch")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"status": 200}, v)
}

func TestContextSnapshotIsFrozen(t *testing.T) {
	ctx := NewContext().WithOutput("a", 1)
	snap := ctx.Snapshot()

	ctx = ctx.WithOutput("b", 2).WithVar("attempt", 3)

	_, ok := snap.Output("b")
	assert.False(t, ok, "snapshot must not observe later writes")
	_, ok = snap.Var("attempt")
	assert.False(t, ok)

	v, ok := snap.Output("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	// The live context sees everything.
	_, ok = ctx.Output("b")
	assert.True(t, ok)
}

func TestContextVars(t *testing.T) {
	ctx := NewContext().WithVar("tenant", "acme")
	v, ok := ctx.Var("tenant")
	require.True(t, ok)
	assert.Equal(t, "acme", v)

	_, ok = ctx.Var("missing")
	assert.False(t, ok)
}

func TestAggregateOutputsSkipsUnrecordedTerminals(t *testing.T) {
	ctx := NewContext().
		WithOutput("summary", "done").
		WithOutput("audit", map[string]any{"rows": 3})

	got := ctx.AggregateOutputs([]string{"summary", "audit", "never-ran"})
	assert.Equal(t, map[string]any{
		"summary": "done",
		"audit":   map[string]any{"rows": 3},
	}, got)
}

func TestSnapshotOutputsReturnsCopy(t *testing.T) {
	ctx := NewContext().WithOutput("a", 1)
	snap := ctx.Snapshot()

	m := snap.Outputs()
	m["a"] = 99

	v, _ := snap.Output("a")
	assert.Equal(t, 1, v)
}
