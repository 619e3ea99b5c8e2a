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
	"fmt"
	"log/slog"
	"time"

	"github.com/bits-and-blooms/bitset"

	"github.com/AleutianAI/xorbreak/services/xorsum/xorhash"
)

// MinCandidatesPerByte is the minimum pool size per target byte: one
// candidate per target bit.
const MinCandidatesPerByte = 8

// Progress reports the state of the bit sweep after one bit position.
type Progress struct {
	// Bit is the zero-based bit position just processed.
	Bit int

	// Bits is the total number of bit positions.
	Bits int

	// Working is the number of working vectors left after elimination.
	Working int

	// Output is the length of the raw output list so far, duplicates included.
	Output int
}

// ProgressFunc receives sweep progress. It runs on the solving goroutine.
type ProgressFunc func(Progress)

// Options configures a Solver.
type Options struct {
	// Logger receives debug events. Nil uses slog.Default().
	Logger *slog.Logger

	// ProgressCallback is called once per bit position. May be nil.
	ProgressCallback ProgressFunc
}

// Option is a functional option for configuring a Solver.
type Option func(*Options)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithProgressCallback sets the progress callback.
func WithProgressCallback(fn ProgressFunc) Option {
	return func(o *Options) {
		o.ProgressCallback = fn
	}
}

// Solver finds pool-derived values that XOR to a target.
//
// Thread Safety:
//
//	Solver holds only configuration and is safe for concurrent use.
//	Each Solve call builds its own working state.
type Solver struct {
	options Options
}

// New creates a Solver.
func New(opts ...Option) *Solver {
	var options Options
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	return &Solver{options: options}
}

// entry is one working vector: its current value and the pool indices it
// was built from.
type entry struct {
	mask *bitset.BitSet
	data xorhash.Value
}

// sweepState holds the mutable state of one Solve call.
type sweepState struct {
	working     []entry
	ans         xorhash.Value
	residual    xorhash.Value
	output      []xorhash.Value
	records     map[xorhash.Value]Record
	attribution map[xorhash.Value]*bitset.BitSet
}

// Validate checks the inputs of Solve without doing any solving work.
func Validate(target []byte, pool [][]byte) error {
	if len(target) == 0 {
		return ErrEmptyTarget
	}
	for i, p := range pool {
		if len(p) != len(target) {
			return fmt.Errorf("%w: entry %d has %d bytes, target has %d", ErrLengthMismatch, i, len(p), len(target))
		}
	}
	if need := MinCandidatesPerByte * len(target); len(pool) < need {
		return fmt.Errorf("%w: have %d, need at least %d", ErrInsufficientCandidates, len(pool), need)
	}
	return nil
}

// Solve computes values that XOR to target using only pool members and
// XOR combinations of them.
//
// Description:
//
//	Sweeps bit positions from the most significant bit of the first byte.
//	At each position every working vector whose bit matches the residual
//	bit is added to the output, then the first vector with the bit set
//	becomes the pivot and is eliminated from all other vectors sharing the
//	bit. Every vector produced by elimination is recorded so its origin can
//	be traced later.
//
// Inputs:
//
//	ctx - Checked once per bit position and once per vector visit.
//	target - Value to reach. Must be non-empty.
//	pool - Candidates, each len(target) bytes, at least 8*len(target) of them.
//
// Outputs:
//
//	*Result - Computed values plus their derivation records.
//	error - ErrEmptyTarget, ErrLengthMismatch, ErrInsufficientCandidates,
//	        ErrUnsolvable, ErrInvariantViolation or ErrCancelled.
//
// Complexity:
//
//	Time:  O(n·M) vector operations for n bits and M pool entries.
//	Space: O(M) working vectors plus the records map.
func (s *Solver) Solve(ctx context.Context, target []byte, pool [][]byte) (res *Result, err error) {
	if err := Validate(target, pool); err != nil {
		return nil, err
	}
	if err := CheckContext(ctx); err != nil {
		return nil, err
	}

	ctx, span := startSolveSpan(ctx, len(target), len(pool))
	defer span.End()

	start := time.Now()
	defer func() {
		setSolveSpanResult(span, res, err)
		recordSolveMetrics(ctx, time.Since(start), res, err)
	}()

	logger := s.options.Logger
	t := xorhash.New(target)
	values := xorhash.FromSlices(pool)

	state := newSweepState(t, values)
	bits := t.Bits()

	logger.Debug("solve_start",
		slog.Int("bits", bits),
		slog.Int("candidates", len(values)),
	)

	for i := 0; i < bits; i++ {
		if err := CheckContext(ctx); err != nil {
			return nil, err
		}
		if err := state.contribute(ctx, i); err != nil {
			return nil, err
		}
		pivot, ok, err := state.pivot(ctx, i)
		if err != nil {
			return nil, err
		}
		if !ok {
			logger.Debug("solve_unsolvable", slog.Int("bit", i))
			return nil, fmt.Errorf("%w: bit %d", ErrUnsolvable, i)
		}
		if err := state.eliminate(ctx, i, pivot); err != nil {
			return nil, err
		}

		if s.options.ProgressCallback != nil {
			s.options.ProgressCallback(Progress{
				Bit:     i,
				Bits:    bits,
				Working: len(state.working),
				Output:  len(state.output),
			})
		}
	}

	if state.ans != t {
		return nil, Invariantf("accumulated %s, want %s", state.ans, t)
	}

	computed := make([]xorhash.Value, 0, len(state.output))
	for _, v := range state.output {
		if !v.IsZero() {
			computed = append(computed, v)
		}
	}
	computed = xorhash.OddOnly(computed)
	if err := xorhash.Verify(t, computed); err != nil {
		return nil, Invariantf("computed values: %v", err)
	}

	logger.Debug("solve_complete",
		slog.Int("raw_outputs", len(state.output)),
		slog.Int("computed", len(computed)),
		slog.Int("records", len(state.records)),
	)

	return &Result{
		Target:      t,
		Computed:    computed,
		Records:     state.records,
		Pool:        values,
		attribution: state.attribution,
	}, nil
}

func newSweepState(target xorhash.Value, pool []xorhash.Value) *sweepState {
	working := make([]entry, len(pool))
	for i, v := range pool {
		working[i] = entry{
			mask: bitset.New(uint(len(pool))).Set(uint(i)),
			data: v,
		}
	}
	return &sweepState{
		working:     working,
		ans:         xorhash.Zero(target.Len()),
		residual:    target,
		records:     make(map[xorhash.Value]Record),
		attribution: make(map[xorhash.Value]*bitset.BitSet),
	}
}

// contribute adds every working vector whose bit i equals the residual's
// current bit i. The residual is re-read after each addition, so a single
// position can add zero, one or many vectors.
func (st *sweepState) contribute(ctx context.Context, i int) error {
	for _, e := range st.working {
		if err := CheckContext(ctx); err != nil {
			return err
		}
		if e.data.Bit(i) != st.residual.Bit(i) {
			continue
		}
		st.ans = st.ans.Xor(e.data)
		st.residual = st.residual.Xor(e.data)
		st.output = append(st.output, e.data)
		if _, ok := st.attribution[e.data]; !ok {
			st.attribution[e.data] = e.mask
		}
	}
	return nil
}

// pivot returns the first working vector with bit i set.
func (st *sweepState) pivot(ctx context.Context, i int) (entry, bool, error) {
	for _, e := range st.working {
		if err := CheckContext(ctx); err != nil {
			return entry{}, false, err
		}
		if e.data.Bit(i) {
			return e, true, nil
		}
	}
	return entry{}, false, nil
}

// eliminate clears bit i from every working vector except the pivot, which
// is dropped. Vectors equal to the pivot cancel to zero and are dropped too.
func (st *sweepState) eliminate(ctx context.Context, i int, pivot entry) error {
	next := make([]entry, 0, len(st.working))
	for _, e := range st.working {
		if err := CheckContext(ctx); err != nil {
			return err
		}
		if !e.data.Bit(i) {
			next = append(next, e)
			continue
		}
		if e.data == pivot.data {
			continue
		}
		combined := e.data.Xor(pivot.data)
		rec, err := NewRecord(e.data, pivot.data, combined)
		if err != nil {
			return err
		}
		st.records[combined] = rec
		next = append(next, entry{
			mask: e.mask.SymmetricDifference(pivot.mask),
			data: combined,
		})
	}
	st.working = next
	return nil
}
