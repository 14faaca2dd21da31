//
// FlowMaestro is pleased to support the open source community by making flowmaestro-go available.
//
// Copyright (C) 2025 FlowMaestro.  All rights reserved.
//
// flowmaestro-go is licensed under the Apache License Version 2.0.
//
//

package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderCompile(t *testing.T) {
	g, err := NewBuilder().
		AddNode("in", "input").
		AddNode("route", "router", WithName("Route by intent")).
		AddNode("a", "transform").
		AddNode("b", "transform").
		AddNode("out", "output", WithOutput()).
		AddEdge("in", "route").
		AddBranch("route", "left", "a").
		AddBranch("route", "right", "b").
		AddEdge("a", "out").
		AddEdge("b", "out").
		SetEntryPoint("in").
		SetMaxConcurrent(3).
		Compile()
	require.NoError(t, err)

	assert.Equal(t, "in", g.EntryID())
	assert.Equal(t, []string{"out"}, g.TerminalIDs())
	assert.Equal(t, 3, g.MaxConcurrent())

	route, ok := g.Node("route")
	require.True(t, ok)
	assert.Equal(t, "Route by intent", route.Name)

	edges := g.OutEdges("route")
	require.Len(t, edges, 2)
	assert.Equal(t, "left", edges[0].SourceHandle)
	assert.Equal(t, "right", edges[1].SourceHandle)
}

func TestBuilderDuplicateNode(t *testing.T) {
	_, err := NewBuilder().
		AddNode("a", "input").
		AddNode("a", "transform").
		SetEntryPoint("a").
		Compile()
	assert.ErrorIs(t, err, ErrMalformedGraph)
}

func TestBuilderEmptyNodeID(t *testing.T) {
	_, err := NewBuilder().
		AddNode("", "input").
		Compile()
	assert.ErrorIs(t, err, ErrMalformedGraph)
}

func TestBuilderErrorEdge(t *testing.T) {
	g, err := NewBuilder().
		AddNode("in", "input").
		AddNode("call", "http").
		AddNode("fallback", "transform").
		AddEdge("in", "call").
		AddErrorEdge("call", "fallback").
		SetEntryPoint("in").
		Compile()
	require.NoError(t, err)

	errEdges := g.ErrorEdges("call")
	require.Len(t, errEdges, 1)
	assert.Equal(t, "fallback", errEdges[0].Target)
	assert.True(t, errEdges[0].IsError())
}

func TestBuilderWithConfig(t *testing.T) {
	g, err := NewBuilder().
		AddNode("in", "input").
		AddNode("tr", "transform", WithConfig(map[string]any{"template": "{{in}}"})).
		AddEdge("in", "tr").
		SetEntryPoint("in").
		Compile()
	require.NoError(t, err)

	tr, ok := g.Node("tr")
	require.True(t, ok)
	assert.JSONEq(t, `{"template":"{{in}}"}`, string(tr.Config))
}

func TestMustCompilePanics(t *testing.T) {
	assert.Panics(t, func() {
		NewBuilder().MustCompile()
	})
}
