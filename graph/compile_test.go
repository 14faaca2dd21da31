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

func linearDefinition() *Definition {
	return &Definition{
		Nodes: map[string]NodeDefinition{
			"in":  {Kind: "input"},
			"llm": {Kind: "llm"},
			"out": {Kind: "output"},
		},
		Edges: []EdgeDefinition{
			{Source: "in", Target: "llm"},
			{Source: "llm", Target: "out"},
		},
		Entry: "in",
	}
}

func TestCompileLinear(t *testing.T) {
	g, err := Compile(linearDefinition())
	require.NoError(t, err)

	assert.Equal(t, "in", g.EntryID())
	assert.Equal(t, 3, g.Nodes())
	assert.Equal(t, []string{"out"}, g.TerminalIDs())

	in, ok := g.Node("in")
	require.True(t, ok)
	assert.Equal(t, 0, in.Depth)
	assert.Empty(t, in.Dependencies)
	assert.Equal(t, []string{"llm"}, in.Dependents)

	out, ok := g.Node("out")
	require.True(t, ok)
	assert.Equal(t, 2, out.Depth)
	assert.Equal(t, []string{"llm"}, out.Dependencies)

	assert.Equal(t, [][]string{{"in"}, {"llm"}, {"out"}}, g.Levels())
}

func TestCompileDepthExceedsSourceOnEveryEdge(t *testing.T) {
	// Diamond with a long arm: depth must follow the longest path.
	def := &Definition{
		Nodes: map[string]NodeDefinition{
			"in": {Kind: "input"},
			"a":  {Kind: "transform"},
			"b":  {Kind: "transform"},
			"c":  {Kind: "transform"},
			"out": {Kind: "output"},
		},
		Edges: []EdgeDefinition{
			{Source: "in", Target: "a"},
			{Source: "in", Target: "b"},
			{Source: "b", Target: "c"},
			{Source: "a", Target: "out"},
			{Source: "c", Target: "out"},
		},
		Entry: "in",
	}
	g, err := Compile(def)
	require.NoError(t, err)

	for _, e := range def.Edges {
		src, _ := g.Node(e.Source)
		tgt, _ := g.Node(e.Target)
		assert.Greater(t, tgt.Depth, src.Depth,
			"edge %s->%s must increase depth", e.Source, e.Target)
	}
	out, _ := g.Node("out")
	assert.Equal(t, 3, out.Depth)
}

func TestCompileCyclic(t *testing.T) {
	def := &Definition{
		Nodes: map[string]NodeDefinition{
			"in": {Kind: "input"},
			"a":  {Kind: "transform"},
			"b":  {Kind: "transform"},
		},
		Edges: []EdgeDefinition{
			{Source: "in", Target: "a"},
			{Source: "a", Target: "b"},
			{Source: "b", Target: "a"},
		},
		Entry: "in",
	}
	_, err := Compile(def)
	assert.ErrorIs(t, err, ErrCyclicGraph)
}

func TestCompileSelfLoop(t *testing.T) {
	def := &Definition{
		Nodes: map[string]NodeDefinition{
			"in": {Kind: "input"},
		},
		Edges: []EdgeDefinition{
			{Source: "in", Target: "in"},
		},
		Entry: "in",
	}
	_, err := Compile(def)
	assert.ErrorIs(t, err, ErrCyclicGraph)
}

func TestCompileBadEdgeReference(t *testing.T) {
	def := linearDefinition()
	def.Edges = append(def.Edges, EdgeDefinition{Source: "llm", Target: "missing"})
	_, err := Compile(def)
	assert.ErrorIs(t, err, ErrMalformedGraph)

	def = linearDefinition()
	def.Edges = append(def.Edges, EdgeDefinition{Source: "missing", Target: "out"})
	_, err = Compile(def)
	assert.ErrorIs(t, err, ErrMalformedGraph)
}

func TestCompileUnreachableNode(t *testing.T) {
	def := linearDefinition()
	def.Nodes["orphan"] = NodeDefinition{Kind: "transform"}
	_, err := Compile(def)
	assert.ErrorIs(t, err, ErrMalformedGraph)
}

func TestCompileMissingEntry(t *testing.T) {
	def := linearDefinition()
	def.Entry = ""
	_, err := Compile(def)
	assert.ErrorIs(t, err, ErrMalformedGraph)

	def = linearDefinition()
	def.Entry = "nope"
	_, err = Compile(def)
	assert.ErrorIs(t, err, ErrMalformedGraph)
}

func TestCompileErrorEdgeIsDependencyEdge(t *testing.T) {
	def := &Definition{
		Nodes: map[string]NodeDefinition{
			"in":       {Kind: "input"},
			"process":  {Kind: "llm"},
			"fallback": {Kind: "transform"},
		},
		Edges: []EdgeDefinition{
			{Source: "in", Target: "process"},
			{Source: "process", Target: "fallback", Kind: EdgeKindError},
		},
		Entry: "in",
	}
	g, err := Compile(def)
	require.NoError(t, err)

	// fallback is reachable only through the error edge, but it is still a
	// dependent of process and gets a deeper depth.
	fb, ok := g.Node("fallback")
	require.True(t, ok)
	assert.Equal(t, []string{"process"}, fb.Dependencies)
	assert.Equal(t, 2, fb.Depth)
	assert.Len(t, g.ErrorEdges("process"), 1)
}

func TestCompileExplicitOutputs(t *testing.T) {
	def := linearDefinition()
	nd := def.Nodes["llm"]
	nd.Output = true
	def.Nodes["llm"] = nd

	g, err := Compile(def)
	require.NoError(t, err)
	assert.Equal(t, []string{"llm"}, g.TerminalIDs())
}

func TestCompileMaxConcurrentDefault(t *testing.T) {
	g, err := Compile(linearDefinition())
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxConcurrent, g.MaxConcurrent())

	def := linearDefinition()
	def.MaxConcurrent = 2
	g, err = Compile(def)
	require.NoError(t, err)
	assert.Equal(t, 2, g.MaxConcurrent())
}

func TestCompileUnknownEdgeKind(t *testing.T) {
	def := linearDefinition()
	def.Edges = append(def.Edges, EdgeDefinition{Source: "in", Target: "out", Kind: "maybe"})
	_, err := Compile(def)
	assert.ErrorIs(t, err, ErrMalformedGraph)
}
