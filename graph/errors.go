//
// FlowMaestro is pleased to support the open source community by making flowmaestro-go available.
//
// Copyright (C) 2025 FlowMaestro.  All rights reserved.
//
// flowmaestro-go is licensed under the Apache License Version 2.0.
//
//

package graph

import "errors"

var (
	// ErrMalformedGraph reports a definition whose edges reference unknown
	// nodes, whose entry is missing, or whose nodes are unreachable.
	ErrMalformedGraph = errors.New("malformed graph")
	// ErrCyclicGraph reports a definition with no valid depth ordering.
	ErrCyclicGraph = errors.New("cyclic graph")
)
