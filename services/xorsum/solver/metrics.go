// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package solver

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for solver operations.
var (
	tracer = otel.Tracer("aleutian.xorsum.solver")
	meter  = otel.Meter("aleutian.xorsum.solver")
)

var (
	sweepLatency   metric.Float64Histogram
	sweepTotal     metric.Int64Counter
	recordsCreated metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		sweepLatency, err = meter.Float64Histogram(
			"solver_sweep_duration_seconds",
			metric.WithDescription("Duration of bit-sweep solves"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		sweepTotal, err = meter.Int64Counter(
			"solver_sweep_total",
			metric.WithDescription("Total number of bit-sweep solves"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		recordsCreated, err = meter.Int64Histogram(
			"solver_records_created",
			metric.WithDescription("Combination records created per solve"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordSolveMetrics records metrics for one solve.
func recordSolveMetrics(ctx context.Context, duration time.Duration, res *Result, err error) {
	if initMetrics() != nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("result", string(Classify(err))))
	sweepLatency.Record(ctx, duration.Seconds(), attrs)
	sweepTotal.Add(ctx, 1, attrs)

	if res != nil {
		recordsCreated.Record(ctx, int64(len(res.Records)))
	}
}

// startSolveSpan creates a span for one solve.
func startSolveSpan(ctx context.Context, targetBytes, candidates int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Solver.Solve",
		trace.WithAttributes(
			attribute.Int("solver.target_bytes", targetBytes),
			attribute.Int("solver.candidates", candidates),
		),
	)
}

// setSolveSpanResult sets the result attributes on a solve span.
func setSolveSpanResult(span trace.Span, res *Result, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(Classify(err)))
		return
	}
	span.SetAttributes(
		attribute.Int("solver.computed", len(res.Computed)),
		attribute.Int("solver.records", len(res.Records)),
	)
	span.SetStatus(codes.Ok, "")
}
