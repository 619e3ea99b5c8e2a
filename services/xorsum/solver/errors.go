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
)

// Sentinel errors for solver and provenance operations.
//
// Callers inspect them with errors.Is; every returned error wraps exactly
// one of these.
var (
	// ErrEmptyTarget is returned when the target has zero length.
	ErrEmptyTarget = errors.New("target has zero length")

	// ErrLengthMismatch is returned when a pool entry's length differs from
	// the target's.
	ErrLengthMismatch = errors.New("pool entry length does not match target")

	// ErrInsufficientCandidates is returned when the pool holds fewer than
	// 8 entries per target byte.
	ErrInsufficientCandidates = errors.New("too few candidate values")

	// ErrUnsolvable is returned when no pool-derived vector has a given bit
	// set. The pool is not diverse enough to reach every target.
	ErrUnsolvable = errors.New("no pivot available; candidate values are not random enough")

	// ErrInvariantViolation signals an internal defect: a zero value in the
	// provenance walk, an orphaned combination, or a final sum mismatch.
	// It is never recovered from.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrCancelled is returned when the caller's context is done mid-operation.
	// The context error is wrapped alongside it.
	ErrCancelled = errors.New("operation cancelled")
)

// ErrorKind is a stable label for an error, used for metrics and exit codes.
type ErrorKind string

const (
	KindNone                   ErrorKind = "none"
	KindEmptyTarget            ErrorKind = "empty_target"
	KindLengthMismatch         ErrorKind = "length_mismatch"
	KindInsufficientCandidates ErrorKind = "insufficient_candidates"
	KindUnsolvable             ErrorKind = "unsolvable"
	KindInvariantViolation     ErrorKind = "invariant_violation"
	KindCancelled              ErrorKind = "cancelled"
	KindUnknown                ErrorKind = "unknown"
)

// Classify maps err to its ErrorKind. A nil error is KindNone.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrCancelled):
		return KindCancelled
	case errors.Is(err, ErrEmptyTarget):
		return KindEmptyTarget
	case errors.Is(err, ErrLengthMismatch):
		return KindLengthMismatch
	case errors.Is(err, ErrInsufficientCandidates):
		return KindInsufficientCandidates
	case errors.Is(err, ErrUnsolvable):
		return KindUnsolvable
	case errors.Is(err, ErrInvariantViolation):
		return KindInvariantViolation
	default:
		return KindUnknown
	}
}

// IsInputError reports whether err was caused by bad caller input rather
// than by the pool or the implementation.
func IsInputError(err error) bool {
	switch Classify(err) {
	case KindEmptyTarget, KindLengthMismatch, KindInsufficientCandidates:
		return true
	default:
		return false
	}
}

// CheckContext returns an ErrCancelled error if ctx is done, nil otherwise.
// Long-running loops call it once per iteration.
func CheckContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	return nil
}

// Invariantf builds an ErrInvariantViolation error with a formatted detail.
func Invariantf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariantViolation, fmt.Sprintf(format, args...))
}
