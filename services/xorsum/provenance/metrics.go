// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package provenance

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/xorbreak/services/xorsum/solver"
	"github.com/AleutianAI/xorbreak/services/xorsum/xorhash"
)

// Package-level tracer and meter for provenance operations.
var (
	tracer = otel.Tracer("aleutian.xorsum.provenance")
	meter  = otel.Meter("aleutian.xorsum.provenance")
)

// Metrics for graph building and reduction.
var (
	buildLatency  metric.Float64Histogram
	nodesCreated  metric.Int64Histogram
	reduceLatency metric.Float64Histogram
	reducedValues metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		buildLatency, err = meter.Float64Histogram(
			"provenance_build_duration_seconds",
			metric.WithDescription("Duration of provenance graph builds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		nodesCreated, err = meter.Int64Histogram(
			"provenance_nodes_created",
			metric.WithDescription("Number of distinct nodes per provenance graph"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		reduceLatency, err = meter.Float64Histogram(
			"provenance_reduce_duration_seconds",
			metric.WithDescription("Duration of base value reductions"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		reducedValues, err = meter.Int64Histogram(
			"provenance_reduced_values",
			metric.WithDescription("Number of pool values returned per reduction"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func recordBuildMetrics(ctx context.Context, duration time.Duration, g *Graph, err error) {
	if initMetrics() != nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("result", string(solver.Classify(err))))
	buildLatency.Record(ctx, duration.Seconds(), attrs)
	if err == nil && g != nil {
		nodesCreated.Record(ctx, int64(g.Len()))
	}
}

func recordReduceMetrics(ctx context.Context, duration time.Duration, out []xorhash.Value, err error) {
	if initMetrics() != nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("result", string(solver.Classify(err))))
	reduceLatency.Record(ctx, duration.Seconds(), attrs)
	if err == nil {
		reducedValues.Record(ctx, int64(len(out)))
	}
}

func startBuildSpan(ctx context.Context, computed, records int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Provenance.Build",
		trace.WithAttributes(
			attribute.Int("provenance.computed", computed),
			attribute.Int("provenance.records", records),
		),
	)
}

func setBuildSpanResult(span trace.Span, g *Graph, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(solver.Classify(err)))
		return
	}
	span.SetAttributes(
		attribute.Int("provenance.node_count", g.Len()),
		attribute.Int("provenance.edge_count", g.Edges()),
	)
}

func startReduceSpan(ctx context.Context, nodes int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Provenance.Reduce",
		trace.WithAttributes(attribute.Int("provenance.node_count", nodes)),
	)
}

func setReduceSpanResult(span trace.Span, out []xorhash.Value, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(solver.Classify(err)))
		return
	}
	span.SetAttributes(attribute.Int("provenance.reduced", len(out)))
}
