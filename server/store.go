//
// FlowMaestro is pleased to support the open source community by making flowmaestro-go available.
//
// Copyright (C) 2025 FlowMaestro.  All rights reserved.
//
// flowmaestro-go is licensed under the Apache License Version 2.0.
//
//

package server

import (
	"sync"
	"time"

	"github.com/flowmaestro/flowmaestro-go/event"
	"github.com/flowmaestro/flowmaestro-go/execution"
)

// record tracks one async execution from submission to its final result.
type record struct {
	mu        sync.Mutex
	id        string
	status    string
	result    *execution.Result
	runErr    error
	startedAt time.Time
	publisher *event.ChannelPublisher
}

// executionView is the GET representation of a record.
type executionView struct {
	ExecutionID string            `json:"execution_id"`
	Status      string            `json:"status"`
	StartedAt   time.Time         `json:"started_at"`
	Result      *execution.Result `json:"result,omitempty"`
	Error       string            `json:"error,omitempty"`
}

func (r *record) view() executionView {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := executionView{
		ExecutionID: r.id,
		Status:      r.status,
		StartedAt:   r.startedAt,
		Result:      r.result,
	}
	if r.runErr != nil {
		v.Error = r.runErr.Error()
	}
	return v
}

func (r *record) events() <-chan *event.Event {
	return r.publisher.Events()
}

// store is the in-memory registry of async executions.
type store struct {
	mu      sync.RWMutex
	records map[string]*record
}

func newStore() *store {
	return &store{records: make(map[string]*record)}
}

func (s *store) create(id string, pub *event.ChannelPublisher) *record {
	rec := &record{
		id:        id,
		status:    "running",
		startedAt: time.Now(),
		publisher: pub,
	}
	s.mu.Lock()
	s.records[id] = rec
	s.mu.Unlock()
	return rec
}

func (s *store) get(id string) (*record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	return rec, ok
}

// finish stores the run's outcome. The record's status becomes the result's
// status, or "failed" when the run errored before producing one.
func (s *store) finish(rec *record, res *execution.Result, runErr error) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.result = res
	rec.runErr = runErr
	switch {
	case res != nil:
		rec.status = res.Status
	default:
		rec.status = execution.StatusFailed
	}
}
