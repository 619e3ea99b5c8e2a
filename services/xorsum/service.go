// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package xorsum finds pool-derived values whose XOR equals a target.
//
// # Overview
//
// Service is the entry point. Solve runs the bit-sweep solver and, when
// asked to optimize, rewrites its output in terms of pool members only.
// Render writes the provenance of an unoptimized solve as a Mermaid
// flowchart. SolveBatch solves several targets against one pool in parallel.
//
// # Thread Safety
//
// A Service is safe for concurrent use. Every call owns its working state.
package xorsum

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/xorbreak/services/xorsum/provenance"
	"github.com/AleutianAI/xorbreak/services/xorsum/solver"
	"github.com/AleutianAI/xorbreak/services/xorsum/xorhash"
)

const tracerName = "aleutian.xorsum"

// Config configures a Service.
type Config struct {
	// Jobs bounds SolveBatch concurrency. Zero or less uses GOMAXPROCS.
	Jobs int

	// MermaidFooter appends a line-count comment to rendered diagrams.
	MermaidFooter bool

	// Logger receives service events. Nil uses slog.Default().
	Logger *slog.Logger

	// TracerProvider creates the service's spans. Nil uses the global provider.
	TracerProvider trace.TracerProvider

	// Progress, if set, is passed to every solver the service runs.
	Progress solver.ProgressFunc
}

// Service runs solves and renders.
type Service struct {
	config Config
	logger *slog.Logger
	tracer trace.Tracer
	solver *solver.Solver
}

// Outcome is the full result of one solve.
type Outcome struct {
	// Values are the returned values: the solver's computed list, or the
	// reduced pool members when optimizing.
	Values []xorhash.Value

	// Result is the raw solver output, kept for attribution.
	Result *solver.Result

	// Graph is set only when optimizing.
	Graph *provenance.Graph
}

// BatchResult is the outcome for one target of SolveBatch.
type BatchResult struct {
	// Index is the target's position in the request.
	Index int

	// Values are the returned values as byte slices. Nil on error.
	Values [][]byte

	// Err is the target's error, if any.
	Err error
}

// NewService creates a Service.
func NewService(config Config) *Service {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Jobs <= 0 {
		config.Jobs = runtime.GOMAXPROCS(0)
	}
	tp := config.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	opts := []solver.Option{solver.WithLogger(config.Logger)}
	if config.Progress != nil {
		opts = append(opts, solver.WithProgressCallback(config.Progress))
	}

	return &Service{
		config: config,
		logger: config.Logger,
		tracer: tp.Tracer(tracerName),
		solver: solver.New(opts...),
	}
}

// Solve returns values whose XOR is target.
//
// Description:
//
//	Without optimize the values may be intermediate XOR combinations of
//	pool members. With optimize they are distinct nonzero pool members,
//	sorted by hexadecimal text.
//
// Inputs:
//
//	ctx - Cancels the solve.
//	target - Value to reach.
//	pool - Candidate values, each len(target) bytes.
//	optimize - Reduce the answer to pool members.
//
// Outputs:
//
//	[][]byte - Fresh slices owned by the caller.
//	error - See the solver package sentinels.
func (s *Service) Solve(ctx context.Context, target []byte, pool [][]byte, optimize bool) ([][]byte, error) {
	out, err := s.SolveOutcome(ctx, target, pool, optimize)
	if err != nil {
		return nil, err
	}
	return xorhash.ToSlices(out.Values), nil
}

// SolveOutcome is Solve keeping the solver result and provenance graph.
func (s *Service) SolveOutcome(ctx context.Context, target []byte, pool [][]byte, optimize bool) (out *Outcome, err error) {
	mode := modeSolve
	if optimize {
		mode = modeOptimize
	}

	ctx, span := s.startSpan(ctx, "Service.Solve", mode, len(target), len(pool))
	defer span.End()
	start := time.Now()
	defer func() {
		n := 0
		if out != nil {
			n = len(out.Values)
			span.SetAttributes(attribute.Int("xorsum.values", n))
		}
		s.finish(span, mode, start, n, err)
	}()

	res, err := s.solver.Solve(ctx, target, pool)
	if err != nil {
		return nil, err
	}
	if !optimize {
		return &Outcome{Values: res.Computed, Result: res}, nil
	}

	g, err := provenance.Build(ctx, res)
	if err != nil {
		return nil, err
	}
	values, err := provenance.Reduce(ctx, g, res)
	if err != nil {
		return nil, err
	}
	return &Outcome{Values: values, Result: res, Graph: g}, nil
}

// Render solves without optimization and writes the provenance diagram to w.
func (s *Service) Render(ctx context.Context, target []byte, pool [][]byte, w io.Writer) (err error) {
	if w == nil {
		return errors.New("writer must not be nil")
	}

	ctx, span := s.startSpan(ctx, "Service.Render", modeRender, len(target), len(pool))
	defer span.End()
	start := time.Now()
	defer func() {
		s.finish(span, modeRender, start, 0, err)
	}()

	res, err := s.solver.Solve(ctx, target, pool)
	if err != nil {
		return err
	}
	g, err := provenance.Build(ctx, res)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.Int("xorsum.nodes", g.Len()))

	if err := provenance.WriteMermaid(ctx, g, w, provenance.MermaidOptions{Footer: s.config.MermaidFooter}); err != nil {
		if solver.Classify(err) == solver.KindCancelled {
			return err
		}
		return fmt.Errorf("writing diagram: %w", err)
	}
	return nil
}

// SolveBatch solves every target against the same pool.
//
// Description:
//
//	Targets are solved concurrently, at most Config.Jobs at a time. A failing
//	target records its error in its BatchResult and does not stop the others.
//	Cancellation stops the batch: unfinished targets report ErrCancelled and
//	the batch itself returns the cancellation error.
//
// Outputs:
//
//	[]BatchResult - One entry per target, in request order.
//	error - Non-nil only when ctx was cancelled.
func (s *Service) SolveBatch(ctx context.Context, targets [][]byte, pool [][]byte, optimize bool) ([]BatchResult, error) {
	results := make([]BatchResult, len(targets))
	for i := range results {
		results[i].Index = i
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Jobs)

	for i, target := range targets {
		g.Go(func() error {
			if err := solver.CheckContext(gCtx); err != nil {
				results[i].Err = err
				return err
			}
			values, err := s.Solve(gCtx, target, pool, optimize)
			results[i].Values = values
			results[i].Err = err
			if solver.Classify(err) == solver.KindCancelled {
				return err
			}
			return nil
		})
	}

	err := g.Wait()
	s.logger.Info("batch_complete",
		slog.Int("targets", len(targets)),
		slog.Int("jobs", s.config.Jobs),
		slog.Bool("optimize", optimize),
		slog.Bool("cancelled", err != nil),
	)
	return results, err
}

func (s *Service) startSpan(ctx context.Context, name, mode string, targetBytes, candidates int) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name,
		trace.WithAttributes(
			attribute.String("xorsum.mode", mode),
			attribute.Int("xorsum.target_bytes", targetBytes),
			attribute.Int("xorsum.candidates", candidates),
		),
	)
}

// finish closes out a request: span status, Prometheus metrics and a log line.
func (s *Service) finish(span trace.Span, mode string, start time.Time, values int, err error) {
	duration := time.Since(start)
	recordRequest(mode, duration, values, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(solver.Classify(err)))
		s.logger.Warn("request_failed",
			slog.String("mode", mode),
			slog.String("kind", string(solver.Classify(err))),
			slog.String("error", err.Error()),
		)
		return
	}
	span.SetStatus(codes.Ok, "")
	s.logger.Debug("request_complete",
		slog.String("mode", mode),
		slog.Int("values", values),
		slog.Duration("duration", duration),
	)
}
