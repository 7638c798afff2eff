// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package builder

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/reqtrace/services/reqtrace/diag"
	"github.com/AleutianAI/reqtrace/services/reqtrace/graph"
)

// Package-level tracer and meter for build operations.
var (
	tracer = otel.Tracer("reqtrace.builder")
	meter  = otel.Meter("reqtrace.builder")
)

// Metrics for build operations.
var (
	buildLatency metric.Float64Histogram
	buildTotal   metric.Int64Counter
	nodesCreated metric.Int64Histogram
	edgesCreated metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		buildLatency, err = meter.Float64Histogram(
			"reqtrace_build_duration_seconds",
			metric.WithDescription("Duration of graph build operations"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		buildTotal, err = meter.Int64Counter(
			"reqtrace_build_total",
			metric.WithDescription("Total number of graph build operations"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		nodesCreated, err = meter.Int64Histogram(
			"reqtrace_build_nodes",
			metric.WithDescription("Number of nodes created per build"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		edgesCreated, err = meter.Int64Histogram(
			"reqtrace_build_edges",
			metric.WithDescription("Number of edges created per build"),
		)
		if err != nil {
			metricsErr = err
		}
	})
	return metricsErr
}

// startBuildSpan opens the tracing span for one build.
func startBuildSpan(ctx context.Context, requirementCount int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "builder.Build",
		trace.WithAttributes(
			attribute.Int("requirements", requirementCount),
		),
	)
}

// finishBuildSpan attaches the build outcome to the span.
func finishBuildSpan(span trace.Span, g *graph.TraceGraph, result *diag.ValidationResult) {
	info, warn, errs := result.Counts()
	span.SetAttributes(
		attribute.Int("nodes", g.NodeCount()),
		attribute.Int("edges", g.EdgeCount()),
		attribute.Int("diagnostics.info", info),
		attribute.Int("diagnostics.warning", warn),
		attribute.Int("diagnostics.error", errs),
	)
}

// recordBuildMetrics records the per-build metrics. Metric failures
// are ignored; telemetry must never affect a build.
func recordBuildMetrics(ctx context.Context, g *graph.TraceGraph, duration time.Duration) {
	if err := initMetrics(); err != nil {
		return
	}
	buildTotal.Add(ctx, 1)
	buildLatency.Record(ctx, duration.Seconds())
	nodesCreated.Record(ctx, int64(g.NodeCount()))
	edgesCreated.Record(ctx, int64(g.EdgeCount()))
}
