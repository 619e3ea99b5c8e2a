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
	"bytes"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_ContentEquality(t *testing.T) {
	a := New([]byte{0xDE, 0xAD})
	b := New([]byte{0xDE, 0xAD})
	c := New([]byte{0xDE, 0xAE})

	assert.True(t, a == b)
	assert.False(t, a == c)

	m := map[Value]int{a: 1}
	m[b]++
	assert.Equal(t, 2, m[a])
	assert.Len(t, m, 1)
}

func TestValue_NewCopiesInput(t *testing.T) {
	raw := []byte{1, 2, 3}
	v := New(raw)
	raw[0] = 9

	assert.Equal(t, []byte{1, 2, 3}, v.Bytes())

	out := v.Bytes()
	out[1] = 9
	assert.Equal(t, []byte{1, 2, 3}, v.Bytes())
}

func TestValue_BitOrder(t *testing.T) {
	v := New([]byte{0x80, 0x01})

	assert.Equal(t, 16, v.Bits())
	assert.True(t, v.Bit(0))
	for i := 1; i < 15; i++ {
		assert.False(t, v.Bit(i), "bit %d", i)
	}
	assert.True(t, v.Bit(15))
}

func TestValue_Xor(t *testing.T) {
	a := New([]byte{0xF0, 0x0F})
	b := New([]byte{0xFF, 0xFF})

	assert.Equal(t, New([]byte{0x0F, 0xF0}), a.Xor(b))
	assert.True(t, a.Xor(a).IsZero())
	assert.Panics(t, func() { a.Xor(New([]byte{1})) })
}

func TestValue_IsZero(t *testing.T) {
	assert.True(t, Zero(4).IsZero())
	assert.True(t, Value{}.IsZero())
	assert.False(t, New([]byte{0, 0, 1}).IsZero())
}

func TestValue_Hex(t *testing.T) {
	v := New([]byte{0x0A, 0xBC, 0xFF})
	assert.Equal(t, "0ABCFF", v.Hex())
	assert.Equal(t, "0ABCFF", v.String())
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []byte
		wantErr bool
	}{
		{"upper", "0ABCFF", []byte{0x0A, 0xBC, 0xFF}, false},
		{"lower", "0abcff", []byte{0x0A, 0xBC, 0xFF}, false},
		{"whitespace", "  ff \n", []byte{0xFF}, false},
		{"empty", "", []byte{}, false},
		{"odd length", "ABC", nil, true},
		{"not hex", "ZZ", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHex(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Bytes())
		})
	}
}

func TestCompare_HexOrder(t *testing.T) {
	a := New([]byte{0x01, 0xFF})
	b := New([]byte{0x02, 0x00})

	assert.Negative(t, Compare(a, b))
	assert.Positive(t, Compare(b, a))
	assert.Zero(t, Compare(a, a))
}

func TestSlicesRoundTrip(t *testing.T) {
	in := [][]byte{{1, 2}, {3, 4}}
	vs := FromSlices(in)
	require.Len(t, vs, 2)

	out := ToSlices(vs)
	assert.Equal(t, in, out)
	out[0][0] = 7
	assert.Equal(t, byte(1), vs[0].Bytes()[0])
}

func TestBitsCodec(t *testing.T) {
	r := rand.NewChaCha8([32]byte{1})
	for i := 0; i < 50; i++ {
		v, err := Random(r, 1+i%5)
		require.NoError(t, err)

		bits := ToBits(v)
		require.Len(t, bits, v.Bits())
		for j, bit := range bits {
			assert.Equal(t, v.Bit(j), bit)
		}
		assert.Equal(t, v, FromBits(bits))
	}
}

func TestFromBits_PartialByte(t *testing.T) {
	bits := []bool{true, false, true, true}
	assert.Equal(t, []byte{0x0B}, FromBits(bits).Bytes())
}

func TestSumAndVerify(t *testing.T) {
	a := New([]byte{0x81})
	b := New([]byte{0x18})
	want := New([]byte{0x99})

	assert.Equal(t, want, Sum(1, a, b))
	assert.Equal(t, Zero(1), Sum(1))
	require.NoError(t, Verify(want, []Value{a, b}))
	assert.ErrorIs(t, Verify(want, []Value{a}), ErrSumMismatch)
	assert.ErrorIs(t, Verify(want, []Value{New([]byte{1, 2})}), ErrLengthMismatch)
}

func TestOddOnly(t *testing.T) {
	a := New([]byte{1})
	b := New([]byte{2})
	c := New([]byte{3})

	got := OddOnly([]Value{b, a, b, c, a, a, c, c})
	assert.Equal(t, []Value{a, c}, got)
	assert.Empty(t, OddOnly(nil))
	assert.Equal(t, Sum(1, b, a, b, c, a, a, c, c), Sum(1, got...))
}

func TestRandomPool(t *testing.T) {
	pool, err := RandomPool(rand.NewChaCha8([32]byte{7}), 4, 10)
	require.NoError(t, err)
	require.Len(t, pool, 10)
	for _, v := range pool {
		assert.Equal(t, 4, v.Len())
	}

	_, err = Random(bytes.NewReader([]byte{1}), 4)
	assert.Error(t, err)
}
