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
	"context"
	"errors"
	"fmt"

	"github.com/AleutianAI/xorbreak/services/xorsum/solver"
)

// Process exit codes.
const (
	exitOK         = 0
	exitFailure    = 1
	exitUsage      = 2
	exitUnsolvable = 3
	exitCancelled  = 4
	exitInternal   = 70 // EX_SOFTWARE
)

// usageError marks a failure caused by bad flags, arguments or input files.
type usageError struct {
	err error
}

func (e *usageError) Error() string {
	return e.err.Error()
}

func (e *usageError) Unwrap() error {
	return e.err
}

func newUsageError(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

// exitCode maps a command error to the process exit code.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}

	switch solver.Classify(err) {
	case solver.KindEmptyTarget, solver.KindLengthMismatch, solver.KindInsufficientCandidates:
		return exitUsage
	case solver.KindUnsolvable:
		return exitUnsolvable
	case solver.KindCancelled:
		return exitCancelled
	case solver.KindInvariantViolation:
		return exitInternal
	}

	var ue *usageError
	if errors.As(err, &ue) {
		return exitUsage
	}
	if errors.Is(err, context.Canceled) {
		return exitCancelled
	}
	return exitFailure
}
