// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation utilities for user-supplied
// hex data.
//
// Targets and pools arrive as text files with one hexadecimal value per
// line. These validators reject malformed lines before any decoding, and
// report every bad line at once rather than failing on the first.
package validation

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// hexPattern matches one value: an even number of hex digits, at least two.
var hexPattern = regexp.MustCompile(`^(?:[0-9A-Fa-f]{2})+$`)

// maxReportedLines caps how many bad line numbers an error lists.
const maxReportedLines = 10

// ValidateHexLine validates one hex-encoded value.
//
// Valid lines:
//   - An even number of hex digits, upper or lower case
//   - No whitespace, prefix, or separators
//
// Returns an error if the line is invalid.
//
// Example:
//
//	if err := validation.ValidateHexLine(line); err != nil {
//	    return nil, fmt.Errorf("target: %w", err)
//	}
func ValidateHexLine(line string) error {
	if line == "" {
		return fmt.Errorf("hex value cannot be empty")
	}
	if len(line)%2 != 0 {
		return fmt.Errorf("invalid hex value: odd number of digits (%d)", len(line))
	}
	if !hexPattern.MatchString(line) {
		return fmt.Errorf("invalid hex value: %q (must contain only 0-9, a-f, A-F)", truncate(line, 32))
	}
	return nil
}

// ValidateHexLines validates multiple values of the same width.
// Returns an error listing the 1-based numbers of the invalid lines, or of
// the lines whose width differs from the first line.
func ValidateHexLines(lines []string) error {
	var invalid []int
	width := -1
	for i, l := range lines {
		if err := ValidateHexLine(l); err != nil {
			invalid = append(invalid, i+1)
			continue
		}
		if width < 0 {
			width = len(l)
		} else if len(l) != width {
			invalid = append(invalid, i+1)
		}
	}

	if len(invalid) > 0 {
		shown := invalid
		if len(shown) > maxReportedLines {
			shown = shown[:maxReportedLines]
		}
		return fmt.Errorf("invalid hex lines (%d total): %v", len(invalid), shown)
	}
	return nil
}

// SanitizeHexLine normalizes and validates a value.
// Surrounding whitespace and a leading 0x or 0X are removed and the digits
// are uppercased.
//
//	v, err := validation.SanitizeHexLine("  0xdeadBEEF ")
//	// v == "DEADBEEF"
func SanitizeHexLine(line string) (string, error) {
	normalized := strings.TrimSpace(line)
	if len(normalized) >= 2 && normalized[0] == '0' && (normalized[1] == 'x' || normalized[1] == 'X') {
		normalized = normalized[2:]
	}
	normalized = strings.ToUpper(normalized)
	if err := ValidateHexLine(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}

// ReadHexLines reads one value per line from r, sanitizing each.
//
// Blank lines and lines starting with '#' are skipped. Every remaining line
// is validated and must match the width of the first valid line; the error
// lists the file line numbers of all bad lines. The returned strings are
// uppercase hex without prefixes.
func ReadHexLines(r io.Reader) ([]string, error) {
	var out, raw []string
	var lineNos []int
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	n := 0
	for scanner.Scan() {
		n++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		raw = append(raw, text)
		lineNos = append(lineNos, n)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading hex lines: %w", err)
	}

	var bad []int
	width := -1
	for i, text := range raw {
		v, err := SanitizeHexLine(text)
		if err == nil && width >= 0 && len(v) != width {
			err = fmt.Errorf("width %d differs from %d", len(v), width)
		}
		if err != nil {
			bad = append(bad, lineNos[i])
			continue
		}
		if width < 0 {
			width = len(v)
		}
		out = append(out, v)
	}
	if len(bad) > 0 {
		shown := bad
		if len(shown) > maxReportedLines {
			shown = shown[:maxReportedLines]
		}
		return nil, fmt.Errorf("invalid hex lines (%d total): %v", len(bad), shown)
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
