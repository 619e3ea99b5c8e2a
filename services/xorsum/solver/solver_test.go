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
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/xorbreak/services/xorsum/xorhash"
)

// unitMasks returns the eight single-bit bytes, most significant first.
func unitMasks() [][]byte {
	out := make([][]byte, 8)
	for i := range out {
		out[i] = []byte{0x80 >> uint(i)}
	}
	return out
}

// randomInput builds a random target and a pool of factor*8*n candidates.
func randomInput(t *testing.T, seed byte, n, factor int) ([]byte, [][]byte) {
	t.Helper()
	r := rand.NewChaCha8([32]byte{seed, byte(n), byte(factor)})
	target, err := xorhash.Random(r, n)
	require.NoError(t, err)
	pool, err := xorhash.RandomPool(r, n, factor*8*n)
	require.NoError(t, err)
	return target.Bytes(), xorhash.ToSlices(pool)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		target []byte
		pool   [][]byte
		want   error
	}{
		{"empty target", nil, unitMasks(), ErrEmptyTarget},
		{"length mismatch", []byte{1}, append(unitMasks(), []byte{1, 2}), ErrLengthMismatch},
		{"too few", []byte{1}, unitMasks()[:7], ErrInsufficientCandidates},
		{"nil entries", []byte{1, 2}, make([][]byte, 16), ErrLengthMismatch},
		{"ok", []byte{1}, unitMasks(), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.target, tt.pool)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSolve_InsufficientCandidatesDoesNoWork(t *testing.T) {
	calls := 0
	s := New(WithProgressCallback(func(Progress) { calls++ }))

	pool := make([][]byte, 15)
	for i := range pool {
		pool[i] = []byte{byte(i), 0xFF}
	}

	_, err := s.Solve(context.Background(), []byte{1, 2}, pool)
	require.ErrorIs(t, err, ErrInsufficientCandidates)
	assert.Zero(t, calls)
	assert.Equal(t, KindInsufficientCandidates, Classify(err))
}

func TestSolve_UnitMasks(t *testing.T) {
	pool := append(unitMasks(), []byte{0x00})

	res, err := New().Solve(context.Background(), []byte{0xFF}, pool)
	require.NoError(t, err)

	want := xorhash.FromSlices(unitMasks())
	if diff := cmp.Diff(want, res.Computed, cmp.AllowUnexported(xorhash.Value{})); diff != "" {
		t.Errorf("Computed mismatch (-want +got):\n%s", diff)
	}
	require.NoError(t, xorhash.Verify(res.Target, res.Computed))
	assert.Len(t, res.Pool, 9)
	assert.Empty(t, res.Records)
}

// TestSolve_SweepTrace pins the exact sweep for a small pool: the values each
// bit position contributes, the pivots eliminated and every record written.
//
//	0x80: residual bit 0, adds 0F 18 16 5D; pivot F5 yields 28 06 2F 23
//	0x40: residual bit 0, adds 28 06 2F 0F 18 16 23; pivot 5D, dropped
//	...
//	raw output ends 06 07 01 02 01; zeros dropped, pairs cancelled.
func TestSolve_SweepTrace(t *testing.T) {
	hex := func(ss ...string) []xorhash.Value {
		out := make([]xorhash.Value, len(ss))
		for i, s := range ss {
			v, err := xorhash.ParseHex(s)
			require.NoError(t, err)
			out[i] = v
		}
		return out
	}
	pool := xorhash.ToSlices(hex("F5", "DD", "F3", "DA", "0F", "18", "16", "5D", "D6"))

	var trace []Progress
	s := New(WithProgressCallback(func(p Progress) { trace = append(trace, p) }))
	res, err := s.Solve(context.Background(), []byte{0x7E}, pool)
	require.NoError(t, err)

	wantComputed := hex("18", "16", "5D", "28", "2F", "23", "0B", "02")
	if diff := cmp.Diff(wantComputed, res.Computed, cmp.AllowUnexported(xorhash.Value{})); diff != "" {
		t.Errorf("Computed mismatch (-want +got):\n%s", diff)
	}

	wantRecords := make(map[xorhash.Value]Record)
	for _, r := range [][3]string{
		{"DD", "F5", "28"},
		{"F3", "F5", "06"},
		{"DA", "F5", "2F"},
		{"D6", "F5", "23"},
		{"23", "28", "0B"},
		{"2F", "28", "07"},
		{"16", "18", "0E"},
		{"0B", "0F", "04"},
		{"04", "06", "02"},
		{"07", "06", "01"},
	} {
		vs := hex(r[0], r[1], r[2])
		wantRecords[vs[2]] = Record{Left: vs[0], Right: vs[1], Result: vs[2]}
	}
	if diff := cmp.Diff(wantRecords, res.Records, cmp.AllowUnexported(xorhash.Value{})); diff != "" {
		t.Errorf("Records mismatch (-want +got):\n%s", diff)
	}

	// Raw output length and working set size after each bit position.
	wantOutput := []int{4, 11, 15, 19, 21, 22, 23, 24}
	wantWorking := []int{8, 7, 6, 5, 4, 3, 2, 0}
	require.Len(t, trace, 8)
	for i, p := range trace {
		assert.Equal(t, wantOutput[i], p.Output, "output after bit %d", i)
		assert.Equal(t, wantWorking[i], p.Working, "working after bit %d", i)
	}
}

func TestSolve_ZeroTargetWithSpanningPool(t *testing.T) {
	pool := unitMasks()
	for i := 0; i < 8; i++ {
		pool = append(pool, []byte{0x01})
	}

	res, err := New().Solve(context.Background(), []byte{0x00}, pool)
	require.NoError(t, err)
	require.NoError(t, xorhash.Verify(xorhash.Zero(1), res.Computed))
}

func TestSolve_Unsolvable(t *testing.T) {
	pool := make([][]byte, 8)
	for i := range pool {
		pool[i] = []byte{0x01}
	}

	_, err := New().Solve(context.Background(), []byte{0x01}, pool)
	require.ErrorIs(t, err, ErrUnsolvable)
	assert.Equal(t, KindUnsolvable, Classify(err))
	assert.False(t, IsInputError(err))
}

func TestSolve_RandomInputsReachTarget(t *testing.T) {
	for _, n := range []int{1, 2, 4, 8} {
		for seed := byte(0); seed < 5; seed++ {
			t.Run(fmt.Sprintf("n=%d/seed=%d", n, seed), func(t *testing.T) {
				target, pool := randomInput(t, seed, n, 12)

				res, err := New().Solve(context.Background(), target, pool)
				require.NoError(t, err)

				require.NoError(t, xorhash.Verify(xorhash.New(target), res.Computed))

				seen := make(map[xorhash.Value]bool)
				for _, v := range res.Computed {
					assert.False(t, v.IsZero())
					assert.False(t, seen[v], "duplicate value %s", v)
					seen[v] = true
				}

				for key, rec := range res.Records {
					assert.Equal(t, key, rec.Result)
					assert.Equal(t, rec.Result, rec.Left.Xor(rec.Right))
				}
			})
		}
	}
}

func TestSolve_Deterministic(t *testing.T) {
	target, pool := randomInput(t, 42, 4, 12)
	s := New()

	first, err := s.Solve(context.Background(), target, pool)
	require.NoError(t, err)
	second, err := s.Solve(context.Background(), target, pool)
	require.NoError(t, err)

	assert.Equal(t, first.Computed, second.Computed)
	assert.Equal(t, first.Records, second.Records)
	assert.Equal(t, first.PoolIndices(), second.PoolIndices())
}

func TestSolve_PoolIndicesReachTarget(t *testing.T) {
	target, pool := randomInput(t, 3, 4, 12)

	res, err := New().Solve(context.Background(), target, pool)
	require.NoError(t, err)

	var chosen []xorhash.Value
	for _, idx := range res.PoolIndices() {
		chosen = append(chosen, res.Pool[idx])
	}
	assert.NoError(t, xorhash.Verify(res.Target, chosen))

	for _, v := range res.Computed {
		idxs, ok := res.Attribution(v)
		require.True(t, ok, "no attribution for %s", v)
		var parts []xorhash.Value
		for _, idx := range idxs {
			parts = append(parts, res.Pool[idx])
		}
		assert.NoError(t, xorhash.Verify(v, parts))
	}

	_, ok := res.Attribution(xorhash.Zero(4))
	assert.False(t, ok)
}

func TestSolve_PreCancelledContext(t *testing.T) {
	target, pool := randomInput(t, 1, 2, 12)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	s := New(WithProgressCallback(func(Progress) { calls++ }))

	_, err := s.Solve(ctx, target, pool)
	require.ErrorIs(t, err, ErrCancelled)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, calls)
	assert.Equal(t, KindCancelled, Classify(err))
}

func TestSolve_CancelledMidSweep(t *testing.T) {
	target, pool := randomInput(t, 9, 4, 12)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var seen []int
	s := New(WithProgressCallback(func(p Progress) {
		seen = append(seen, p.Bit)
		if p.Bit == 3 {
			cancel()
		}
	}))

	_, err := s.Solve(ctx, target, pool)
	require.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, []int{0, 1, 2, 3}, seen)
}

func TestSolve_ProgressShrinksWorkingSet(t *testing.T) {
	target, pool := randomInput(t, 5, 2, 12)

	var progress []Progress
	s := New(WithProgressCallback(func(p Progress) { progress = append(progress, p) }))

	_, err := s.Solve(context.Background(), target, pool)
	require.NoError(t, err)
	require.Len(t, progress, 16)

	prev := len(pool)
	for i, p := range progress {
		assert.Equal(t, i, p.Bit)
		assert.Equal(t, 16, p.Bits)
		assert.Less(t, p.Working, prev)
		prev = p.Working
	}
}

func TestNewRecord(t *testing.T) {
	a := xorhash.New([]byte{0xF0})
	b := xorhash.New([]byte{0x0F})

	rec, err := NewRecord(a, b, xorhash.New([]byte{0xFF}))
	require.NoError(t, err)
	assert.Equal(t, a, rec.Left)

	_, err = NewRecord(a, b, xorhash.New([]byte{0x00}))
	assert.ErrorIs(t, err, ErrInvariantViolation)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorKind
	}{
		{nil, KindNone},
		{ErrEmptyTarget, KindEmptyTarget},
		{fmt.Errorf("wrap: %w", ErrLengthMismatch), KindLengthMismatch},
		{ErrInsufficientCandidates, KindInsufficientCandidates},
		{ErrUnsolvable, KindUnsolvable},
		{Invariantf("x"), KindInvariantViolation},
		{CheckContext(cancelledContext()), KindCancelled},
		{errors.New("other"), KindUnknown},
	}

	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestIsInputError(t *testing.T) {
	assert.True(t, IsInputError(ErrEmptyTarget))
	assert.True(t, IsInputError(ErrLengthMismatch))
	assert.True(t, IsInputError(ErrInsufficientCandidates))
	assert.False(t, IsInputError(ErrInvariantViolation))
	assert.False(t, IsInputError(nil))
}

func cancelledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}
