// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package xorhash

import (
	"fmt"
	"io"
)

// ToBits expands v into one bool per bit, in bit order.
func ToBits(v Value) []bool {
	out := make([]bool, v.Bits())
	for i := range out {
		out[i] = v.Bit(i)
	}
	return out
}

// FromBits packs bits back into a Value. A trailing partial byte is padded
// on the left with zeros, so len(bits) == 12 yields two bytes where the
// second holds the last four bits in its low nibble.
func FromBits(bits []bool) Value {
	out := make([]byte, (len(bits)+7)/8)
	for start, i := 0, 0; start < len(bits); start, i = start+8, i+1 {
		end := min(start+8, len(bits))
		var b byte
		for _, bit := range bits[start:end] {
			b <<= 1
			if bit {
				b |= 1
			}
		}
		out[i] = b
	}
	return New(out)
}

// Sum XORs all values together. n is the byte length used for the empty sum.
func Sum(n int, vs ...Value) Value {
	acc := make([]byte, n)
	for _, v := range vs {
		if v.Len() != n {
			panic(fmt.Sprintf("xorhash: %v (%d != %d)", ErrLengthMismatch, v.Len(), n))
		}
		for i := 0; i < n; i++ {
			acc[i] ^= v.b[i]
		}
	}
	return New(acc)
}

// Verify returns ErrSumMismatch unless the XOR of vs equals want.
func Verify(want Value, vs []Value) error {
	for _, v := range vs {
		if v.Len() != want.Len() {
			return fmt.Errorf("%w: got %d bytes, want %d", ErrLengthMismatch, v.Len(), want.Len())
		}
	}
	if got := Sum(want.Len(), vs...); got != want {
		return fmt.Errorf("%w: got %s, want %s", ErrSumMismatch, got.Hex(), want.Hex())
	}
	return nil
}

// OddOnly keeps the values that occur an odd number of times in vs, in order
// of first appearance. Pairs cancel under XOR, so the result has the same sum.
func OddOnly(vs []Value) []Value {
	counts := make(map[Value]int, len(vs))
	order := make([]Value, 0, len(vs))
	for _, v := range vs {
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}

	out := order[:0]
	for _, v := range order {
		if counts[v]%2 == 1 {
			out = append(out, v)
		}
	}
	return out
}

// Random reads n bytes from r.
func Random(r io.Reader, n int) (Value, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return Value{}, fmt.Errorf("read random bytes: %w", err)
	}
	return New(b), nil
}

// RandomPool reads count values of n bytes each from r.
func RandomPool(r io.Reader, n, count int) ([]Value, error) {
	pool := make([]Value, count)
	for i := range pool {
		v, err := Random(r, n)
		if err != nil {
			return nil, err
		}
		pool[i] = v
	}
	return pool, nil
}
