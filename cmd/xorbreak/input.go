// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bufio"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	mathrand "math/rand/v2"
	"os"
	"slices"

	"github.com/AleutianAI/xorbreak/pkg/validation"
	"github.com/AleutianAI/xorbreak/services/xorsum/xorhash"
)

// stdinPath names standard input in file flags.
const stdinPath = "-"

// readValues reads one hex value per line from path, or from in for "-".
func readValues(path string, in io.Reader) ([]xorhash.Value, error) {
	if path == "" {
		return nil, newUsageError("no input file given")
	}

	r := in
	if path != stdinPath {
		f, err := os.Open(path)
		if err != nil {
			return nil, &usageError{err: err}
		}
		defer f.Close()
		r = f
	}

	lines, err := validation.ReadHexLines(r)
	if err != nil {
		return nil, newUsageError("%s: %w", path, err)
	}
	return parseValues(lines)
}

// readPool reads and merges one or more pool files, keeping the first
// occurrence of every value. It returns how many duplicates were dropped.
func readPool(paths []string, in io.Reader) ([]xorhash.Value, int, error) {
	if len(paths) == 0 {
		return nil, 0, newUsageError("--pool-file is required")
	}
	if slices.Index(paths, stdinPath) != slices.LastIndex(paths, stdinPath) {
		return nil, 0, newUsageError("standard input can be read only once")
	}

	var pool []xorhash.Value
	seen := make(map[xorhash.Value]struct{})
	dropped := 0
	for _, path := range paths {
		vs, err := readValues(path, in)
		if err != nil {
			return nil, 0, err
		}
		for _, v := range vs {
			if _, dup := seen[v]; dup {
				dropped++
				continue
			}
			seen[v] = struct{}{}
			pool = append(pool, v)
		}
	}
	return pool, dropped, nil
}

func parseValues(lines []string) ([]xorhash.Value, error) {
	out := make([]xorhash.Value, len(lines))
	for i, l := range lines {
		v, err := xorhash.ParseHex(l)
		if err != nil {
			return nil, newUsageError("line %d: %w", i+1, err)
		}
		out[i] = v
	}
	return out, nil
}

// readTarget resolves the target from exactly one of a hex literal or a file
// holding a single value.
func readTarget(hex, path string, in io.Reader) (xorhash.Value, error) {
	switch {
	case hex != "" && path != "":
		return xorhash.Value{}, newUsageError("--target and --target-file are mutually exclusive")
	case hex != "":
		s, err := validation.SanitizeHexLine(hex)
		if err != nil {
			return xorhash.Value{}, newUsageError("--target: %w", err)
		}
		v, err := xorhash.ParseHex(s)
		if err != nil {
			return xorhash.Value{}, newUsageError("--target: %w", err)
		}
		return v, nil
	case path != "":
		vs, err := readValues(path, in)
		if err != nil {
			return xorhash.Value{}, err
		}
		if len(vs) != 1 {
			return xorhash.Value{}, newUsageError("%s: want exactly one target value, found %d", path, len(vs))
		}
		return vs[0], nil
	default:
		return xorhash.Value{}, newUsageError("one of --target or --target-file is required")
	}
}

// writeHexLines writes one uppercase hex value per line.
func writeHexLines(w io.Writer, vs []xorhash.Value) error {
	bw := bufio.NewWriter(w)
	for _, v := range vs {
		if _, err := fmt.Fprintln(bw, v.Hex()); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeHexFile(path string, vs []xorhash.Value) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return writeHexLines(f, vs)
}

// randomSource returns a reproducible ChaCha8 stream for a seed, or
// crypto/rand when seed is nil.
func randomSource(seed *uint64) io.Reader {
	if seed == nil {
		return rand.Reader
	}
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:8], *seed)
	return mathrand.NewChaCha8(key)
}

// generate draws a target of n bytes and a pool of factor*n values.
func generate(r io.Reader, n, factor int) (xorhash.Value, []xorhash.Value, error) {
	target, err := xorhash.Random(r, n)
	if err != nil {
		return xorhash.Value{}, nil, fmt.Errorf("generate target: %w", err)
	}
	pool, err := xorhash.RandomPool(r, n, factor*n)
	if err != nil {
		return xorhash.Value{}, nil, fmt.Errorf("generate pool: %w", err)
	}
	return target, pool, nil
}
