//
// FlowMaestro is pleased to support the open source community by making flowmaestro-go available.
//
// Copyright (C) 2025 FlowMaestro.  All rights reserved.
//
// flowmaestro-go is licensed under the Apache License Version 2.0.
//
//

// Package telemetry wraps the workflow execution core with OpenTelemetry
// spans and metrics. Every helper here is best-effort: a broken telemetry
// backend must never fail a run, so failures are logged and swallowed.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/flowmaestro/flowmaestro-go/log"
)

// Telemetry constants.
const (
	ServiceName    = "flowmaestro-engine"
	InstrumentName = "flowmaestro.engine"

	SpanNamePrefixExecution = "execute_workflow"
	SpanNamePrefixNode      = "execute_node"
)

// Telemetry attribute keys.
var (
	KeyExecutionID = attribute.Key("flowmaestro.execution.id")
	KeyNodeID      = attribute.Key("flowmaestro.node.id")
	KeyNodeKind    = attribute.Key("flowmaestro.node.kind")
	KeySubjectID   = attribute.Key("flowmaestro.budget.subject")
)

// Tracer is the tracer used by the execution core. It resolves against the
// global provider, so applications configure exporters through the standard
// otel SDK setup and the engine picks them up automatically.
var Tracer trace.Tracer = otel.Tracer(InstrumentName)

// Meter is the meter used by the execution core.
var Meter metric.Meter = otel.Meter(InstrumentName)

var (
	executionCounter   metric.Int64Counter
	nodeCounter        metric.Int64Counter
	nodeFailureCounter metric.Int64Counter
	creditHistogram    metric.Float64Histogram
)

func init() {
	var err error
	if executionCounter, err = Meter.Int64Counter(
		"flowmaestro.executions",
		metric.WithDescription("Total number of workflow executions"),
		metric.WithUnit("1"),
	); err != nil {
		log.Warnf("telemetry: create execution counter: %v", err)
	}
	if nodeCounter, err = Meter.Int64Counter(
		"flowmaestro.nodes.executed",
		metric.WithDescription("Total number of executed nodes"),
		metric.WithUnit("1"),
	); err != nil {
		log.Warnf("telemetry: create node counter: %v", err)
	}
	if nodeFailureCounter, err = Meter.Int64Counter(
		"flowmaestro.nodes.failed",
		metric.WithDescription("Total number of failed nodes"),
		metric.WithUnit("1"),
	); err != nil {
		log.Warnf("telemetry: create node failure counter: %v", err)
	}
	if creditHistogram, err = Meter.Float64Histogram(
		"flowmaestro.credits.consumed",
		metric.WithDescription("Credits consumed per execution"),
		metric.WithUnit("{credit}"),
	); err != nil {
		log.Warnf("telemetry: create credit histogram: %v", err)
	}
}

// StartExecutionSpan begins the span covering a whole workflow run.
func StartExecutionSpan(ctx context.Context, executionID string) (context.Context, trace.Span) {
	return safeStart(ctx, SpanNamePrefixExecution,
		trace.WithAttributes(KeyExecutionID.String(executionID)))
}

// StartNodeSpan begins the span covering one node dispatch.
func StartNodeSpan(ctx context.Context, executionID, nodeID, kind string) (context.Context, trace.Span) {
	return safeStart(ctx, SpanNamePrefixNode+" "+nodeID,
		trace.WithAttributes(
			KeyExecutionID.String(executionID),
			KeyNodeID.String(nodeID),
			KeyNodeKind.String(kind),
		))
}

// EndSpan finishes a span, recording the error if one occurred.
func EndSpan(span trace.Span, err error) {
	defer swallow("end span")
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// RecordExecution counts one finished execution.
func RecordExecution(ctx context.Context, success bool) {
	defer swallow("record execution")
	if executionCounter == nil {
		return
	}
	executionCounter.Add(ctx, 1,
		metric.WithAttributes(attribute.Bool("success", success)))
}

// RecordNode counts one settled or failed node.
func RecordNode(ctx context.Context, kind string, failed bool) {
	defer swallow("record node")
	if nodeCounter == nil {
		return
	}
	nodeCounter.Add(ctx, 1, metric.WithAttributes(KeyNodeKind.String(kind)))
	if failed && nodeFailureCounter != nil {
		nodeFailureCounter.Add(ctx, 1, metric.WithAttributes(KeyNodeKind.String(kind)))
	}
}

// RecordCredits records the credit cost of a finished execution.
func RecordCredits(ctx context.Context, amount float64) {
	defer swallow("record credits")
	if creditHistogram == nil || amount <= 0 {
		return
	}
	creditHistogram.Record(ctx, amount)
}

// safeStart starts a span, falling back to a pass-through when the tracer
// panics. Collaborator failures never reach the scheduler's control flow.
func safeStart(ctx context.Context, name string, opts ...trace.SpanStartOption) (c context.Context, s trace.Span) {
	defer func() {
		if r := recover(); r != nil {
			log.Warnf("telemetry: start span %q: %v", name, r)
			c, s = ctx, trace.SpanFromContext(ctx)
		}
	}()
	return Tracer.Start(ctx, name, opts...)
}

func swallow(op string) {
	if r := recover(); r != nil {
		log.Warnf("telemetry: %s: %v", op, r)
	}
}
