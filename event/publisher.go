//
// FlowMaestro is pleased to support the open source community by making flowmaestro-go available.
//
// Copyright (C) 2025 FlowMaestro.  All rights reserved.
//
// flowmaestro-go is licensed under the Apache License Version 2.0.
//
//

package event

import (
	"context"
	"sync"
)

// Publisher delivers execution events to interested consumers. Publishing is
// fire-and-forget: the execution core never waits on a consumer and a broken
// publisher must never fail a run.
type Publisher interface {
	Publish(ctx context.Context, e *Event) error
}

// NopPublisher discards all events.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, *Event) error { return nil }

// ChannelPublisher buffers events on a channel for streaming consumers.
// When the buffer is full the event is dropped rather than blocking the run.
type ChannelPublisher struct {
	ch     chan *Event
	mu     sync.Mutex
	closed bool
}

// NewChannelPublisher creates a publisher with the given buffer size.
func NewChannelPublisher(bufferSize int) *ChannelPublisher {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &ChannelPublisher{ch: make(chan *Event, bufferSize)}
}

// Publish implements Publisher. It never blocks: events are dropped when the
// buffer is full or the publisher is closed.
func (p *ChannelPublisher) Publish(_ context.Context, e *Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	select {
	case p.ch <- e:
	default:
	}
	return nil
}

// Events returns the channel consumers receive from. The channel is closed
// by Close once the producing execution finishes.
func (p *ChannelPublisher) Events() <-chan *Event {
	return p.ch
}

// Close closes the event channel. Subsequent publishes are discarded.
func (p *ChannelPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.ch)
	}
}
