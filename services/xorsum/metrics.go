// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package xorsum

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/AleutianAI/xorbreak/services/xorsum/solver"
)

// Request modes used as metric labels.
const (
	modeSolve    = "solve"
	modeOptimize = "optimize"
	modeRender   = "render"
)

// =============================================================================
// Prometheus Metrics for the XOR-sum Service
// =============================================================================

var (
	// solveTotal counts requests by outcome.
	// Labels: mode (solve, optimize, render), result (see solver.ErrorKind)
	solveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "xorsum",
		Name:      "solve_total",
		Help:      "Total XOR-sum requests by mode and result",
	}, []string{"mode", "result"})

	// solveDuration measures end-to-end request latency.
	// Labels: mode
	solveDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "xorsum",
		Name:      "solve_duration_seconds",
		Help:      "XOR-sum request latency in seconds",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
	}, []string{"mode"})

	// resultValues tracks how many values successful solves return.
	resultValues = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "xorsum",
		Name:      "result_values",
		Help:      "Number of values returned per successful solve",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	})
)

// recordRequest records one finished request.
//
// Inputs:
//
//	mode - modeSolve, modeOptimize or modeRender.
//	duration - Wall time of the request.
//	values - Number of returned values; ignored for failures and renders.
//	err - The request error, nil on success.
func recordRequest(mode string, duration time.Duration, values int, err error) {
	solveTotal.WithLabelValues(mode, string(solver.Classify(err))).Inc()
	solveDuration.WithLabelValues(mode).Observe(duration.Seconds())
	if err == nil && mode != modeRender {
		resultValues.Observe(float64(values))
	}
}
