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
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/xorbreak/pkg/logging"
	"github.com/AleutianAI/xorbreak/services/xorsum/xorhash"
)

// targetFlags are shared by solve and render.
type targetFlags struct {
	target     string
	targetFile string
	poolFiles  []string
}

func (f *targetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.target, "target", "", "target value as hex")
	cmd.Flags().StringVar(&f.targetFile, "target-file", "", "file holding the target value (- for stdin)")
	cmd.Flags().StringArrayVar(&f.poolFiles, "pool-file", nil, "file with one pool value per line (- for stdin); repeatable, duplicates are dropped")
}

// load reads the target and pool. Only one of them may come from stdin.
func (f *targetFlags) load(in io.Reader, logger *logging.Logger) (xorhash.Value, []xorhash.Value, error) {
	if f.targetFile == stdinPath && slices.Contains(f.poolFiles, stdinPath) {
		return xorhash.Value{}, nil, newUsageError("target and pool cannot both be read from stdin")
	}
	target, err := readTarget(f.target, f.targetFile, in)
	if err != nil {
		return xorhash.Value{}, nil, err
	}
	pool, dropped, err := readPool(f.poolFiles, in)
	if err != nil {
		return xorhash.Value{}, nil, err
	}
	if dropped > 0 {
		logger.Info("pool_duplicates_dropped", "files", len(f.poolFiles), "dropped", dropped)
	}
	return target, pool, nil
}

func (a *app) newSolveCmd() *cobra.Command {
	var (
		flags     targetFlags
		optimize  bool
		attribute bool
	)

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Print values whose XOR equals the target",
		Long: `Solve prints one uppercase hex value per line on stdout. Without --optimize
the values may be XOR combinations of pool values; with it they are distinct
pool values. Statistics go to stderr.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			target, pool, err := flags.load(a.stdin, a.logger)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("optimize") {
				optimize = a.cfg.Solve.Optimize
			}

			a.logger.Info("solve_start",
				"target_bytes", target.Len(),
				"candidates", len(pool),
				"optimize", optimize,
			)

			svc := a.service(a.cfg.Solve.Jobs, false, nil)
			start := time.Now()
			out, err := svc.SolveOutcome(cmd.Context(), target.Bytes(), xorhash.ToSlices(pool), optimize)
			elapsed := time.Since(start)
			if err != nil {
				return err
			}

			if err := writeHexLines(a.stdout, out.Values); err != nil {
				return fmt.Errorf("write values: %w", err)
			}
			if attribute {
				a.out.Stat("Pool indices", joinInts(out.Result.PoolIndices()))
			}
			a.writeStats(len(out.Values), elapsed)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&optimize, "optimize", false, "reduce the answer to pool values")
	cmd.Flags().BoolVar(&attribute, "attribute", false, "print pool indices whose values XOR to the target")
	return cmd
}

func (a *app) newRenderCmd() *cobra.Command {
	var (
		flags  targetFlags
		out    string
		footer bool
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Write the derivation of a solve as a Mermaid flowchart",
		Long: `Render solves without optimization and writes a Mermaid flowchart that
shows how every computed value was derived from pool values.

Mermaid limits the number of edges it draws by default; targets wider than
two bytes usually need a larger maxEdges setting.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			target, pool, err := flags.load(a.stdin, a.logger)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("footer") {
				footer = a.cfg.Render.Footer
			}

			w := a.stdout
			if out != "" && out != stdinPath {
				f, err := os.Create(out)
				if err != nil {
					return &usageError{err: err}
				}
				defer func() {
					if cerr := f.Close(); cerr != nil && err == nil {
						err = cerr
					}
				}()
				w = f
			}

			a.logger.Info("render_start",
				"target_bytes", target.Len(),
				"candidates", len(pool),
				"out", out,
			)
			svc := a.service(a.cfg.Solve.Jobs, footer, nil)
			return svc.Render(cmd.Context(), target.Bytes(), xorhash.ToSlices(pool), w)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&footer, "footer", false, "append a line-count comment")
	return cmd
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, ",")
}
