// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package xorhash provides the fixed-length byte value used throughout the
// XOR-sum solver.
//
// # Content Identity
//
// Value is backed by an immutable string, so two values built from the same
// bytes compare equal with == and can be used directly as map keys. Nothing in
// the solver ever relies on slice identity.
//
// # Bit Order
//
// Bits are numbered from 0 to 8*Len()-1, most significant bit of the first
// byte first:
//
//	bit 0  -> 0x80 of byte 0
//	bit 7  -> 0x01 of byte 0
//	bit 8  -> 0x80 of byte 1
package xorhash

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrLengthMismatch is returned when two values of different length are combined.
var ErrLengthMismatch = errors.New("value lengths differ")

// ErrSumMismatch is returned by Verify when a list does not XOR to the expected value.
var ErrSumMismatch = errors.New("xor sum does not match")

// Value is an immutable byte sequence compared by content.
//
// The zero Value has length 0.
type Value struct {
	b string
}

// New copies b into a new Value.
func New(b []byte) Value {
	return Value{b: string(b)}
}

// Zero returns an all-zero Value of n bytes.
func Zero(n int) Value {
	return Value{b: string(make([]byte, n))}
}

// Len returns the length in bytes.
func (v Value) Len() int {
	return len(v.b)
}

// Bits returns the number of bits, 8*Len().
func (v Value) Bits() int {
	return 8 * len(v.b)
}

// Bytes returns a copy of the underlying bytes.
func (v Value) Bytes() []byte {
	return []byte(v.b)
}

// Bit reports whether bit i is set. See the package documentation for the
// bit order. Panics if i is out of range.
func (v Value) Bit(i int) bool {
	return v.b[i>>3]&(0x80>>uint(i&7)) != 0
}

// IsZero reports whether every byte is zero. An empty value is zero.
func (v Value) IsZero() bool {
	for i := 0; i < len(v.b); i++ {
		if v.b[i] != 0 {
			return false
		}
	}
	return true
}

// Xor returns v ^ o. Panics if the lengths differ; callers validate lengths
// at the boundary.
func (v Value) Xor(o Value) Value {
	if len(v.b) != len(o.b) {
		panic(fmt.Sprintf("xorhash: %v (%d != %d)", ErrLengthMismatch, len(v.b), len(o.b)))
	}
	out := make([]byte, len(v.b))
	for i := range out {
		out[i] = v.b[i] ^ o.b[i]
	}
	return Value{b: string(out)}
}

// Hex returns the uppercase hexadecimal form, two digits per byte.
func (v Value) Hex() string {
	return strings.ToUpper(hex.EncodeToString([]byte(v.b)))
}

// String implements fmt.Stringer.
func (v Value) String() string {
	return v.Hex()
}

// Compare orders values by their hexadecimal text. For equal-length values
// this is the byte order.
func Compare(a, b Value) int {
	return strings.Compare(a.Hex(), b.Hex())
}

// ParseHex decodes a hexadecimal string. Surrounding whitespace is ignored
// and both letter cases are accepted.
func ParseHex(s string) (Value, error) {
	b, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return Value{}, fmt.Errorf("parse hex: %w", err)
	}
	return New(b), nil
}

// FromSlices converts raw buffers into values.
func FromSlices(bs [][]byte) []Value {
	out := make([]Value, len(bs))
	for i, b := range bs {
		out[i] = New(b)
	}
	return out
}

// ToSlices converts values into freshly allocated raw buffers.
func ToSlices(vs []Value) [][]byte {
	out := make([][]byte, len(vs))
	for i, v := range vs {
		out[i] = v.Bytes()
	}
	return out
}
