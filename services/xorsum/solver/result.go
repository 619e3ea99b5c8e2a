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
	"github.com/bits-and-blooms/bitset"

	"github.com/AleutianAI/xorbreak/services/xorsum/xorhash"
)

// Record explains one derived value: Left ^ Right == Result.
type Record struct {
	Left   xorhash.Value
	Right  xorhash.Value
	Result xorhash.Value
}

// NewRecord validates that left ^ right == result and returns the record.
func NewRecord(left, right, result xorhash.Value) (Record, error) {
	if err := xorhash.Verify(result, []xorhash.Value{left, right}); err != nil {
		return Record{}, Invariantf("combination %s ^ %s: %v", left, right, err)
	}
	return Record{Left: left, Right: right, Result: result}, nil
}

// Result is the output of one Solve call. It is not modified after Solve
// returns and may be shared by readers.
type Result struct {
	// Target is the value the computed list XORs to.
	Target xorhash.Value

	// Computed holds the duplicate-free, nonzero values whose XOR equals
	// Target. Values may be intermediate combinations rather than pool members.
	Computed []xorhash.Value

	// Records maps every value produced during elimination to the pair it
	// came from. When a value was produced more than once, the last record wins.
	Records map[xorhash.Value]Record

	// Pool is the caller's candidate list, in input order.
	Pool []xorhash.Value

	// attribution holds, for each value appended to the output list, the
	// pool indices that compose it.
	attribution map[xorhash.Value]*bitset.BitSet
}

// Attribution returns the sorted pool indices whose values XOR to v, for any
// value the solver appended to its output list.
func (r *Result) Attribution(v xorhash.Value) ([]int, bool) {
	mask, ok := r.attribution[v]
	if !ok {
		return nil, false
	}
	return maskIndices(mask), true
}

// PoolIndices returns pool indices whose values XOR to Target, derived from
// the provenance masks of the computed values. Indices with duplicate values
// are reported individually.
func (r *Result) PoolIndices() []int {
	acc := bitset.New(uint(len(r.Pool)))
	for _, v := range r.Computed {
		if mask, ok := r.attribution[v]; ok {
			acc.InPlaceSymmetricDifference(mask)
		}
	}
	return maskIndices(acc)
}

// PoolSet returns the nonzero pool values as a set.
func (r *Result) PoolSet() map[xorhash.Value]struct{} {
	set := make(map[xorhash.Value]struct{}, len(r.Pool))
	for _, p := range r.Pool {
		if !p.IsZero() {
			set[p] = struct{}{}
		}
	}
	return set
}

func maskIndices(mask *bitset.BitSet) []int {
	out := make([]int, 0, mask.Count())
	for i, ok := mask.NextSet(0); ok; i, ok = mask.NextSet(i + 1) {
		out = append(out, int(i))
	}
	return out
}
