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
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/xorbreak/services/xorsum/solver"
	"github.com/AleutianAI/xorbreak/services/xorsum/xorhash"
)

// generateFlags are shared by generate and demo.
type generateFlags struct {
	bytes  int
	factor int
	seed   uint64
}

func (f *generateFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.bytes, "bytes", 32, "value width in bytes")
	cmd.Flags().IntVar(&f.factor, "factor", 12, "pool values per target byte (at least 8)")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "seed for reproducible data (default: crypto/rand)")
}

// resolve merges the flags over the configuration and validates the result.
func (f *generateFlags) resolve(cmd *cobra.Command, cfg Config) (GenerateConfig, error) {
	gen := cfg.Generate
	if cmd.Flags().Changed("bytes") {
		gen.Bytes = f.bytes
	}
	if cmd.Flags().Changed("factor") {
		gen.Factor = f.factor
	}
	if cmd.Flags().Changed("seed") {
		seed := f.seed
		gen.Seed = &seed
	}

	check := cfg
	check.Generate = gen
	if err := check.Validate(); err != nil {
		return GenerateConfig{}, &usageError{err: err}
	}
	return gen, nil
}

func (a *app) newGenerateCmd() *cobra.Command {
	var (
		flags     generateFlags
		targetOut string
		poolOut   string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a random target and pool for testing",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if targetOut == "" || poolOut == "" {
				return newUsageError("--target-out and --pool-out are required")
			}
			gen, err := flags.resolve(cmd, a.cfg)
			if err != nil {
				return err
			}

			target, pool, err := generate(randomSource(gen.Seed), gen.Bytes, gen.Factor)
			if err != nil {
				return err
			}
			if err := writeHexFile(targetOut, []xorhash.Value{target}); err != nil {
				return fmt.Errorf("write target: %w", err)
			}
			if err := writeHexFile(poolOut, pool); err != nil {
				return fmt.Errorf("write pool: %w", err)
			}

			a.logger.Info("generate_complete",
				"bytes", gen.Bytes,
				"candidates", len(pool),
				"seeded", gen.Seed != nil,
			)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&targetOut, "target-out", "", "file to write the target to")
	cmd.Flags().StringVar(&poolOut, "pool-out", "", "file to write the pool to")
	return cmd
}

func (a *app) newDemoCmd() *cobra.Command {
	var flags generateFlags

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Solve a randomly generated problem end to end",
		Long: `Demo generates a random target and pool in memory, solves with
optimization and prints the pool values it used.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gen, err := flags.resolve(cmd, a.cfg)
			if err != nil {
				return err
			}
			target, pool, err := generate(randomSource(gen.Seed), gen.Bytes, gen.Factor)
			if err != nil {
				return err
			}

			a.out.Title("Trying to break a XOR sum for a %d bit hash...", target.Bits())

			spin := a.out.NewSpinner("Sweeping bits")
			progress := func(p solver.Progress) {
				spin.SetProgress("Sweeping bits", p.Bit+1, p.Bits)
			}
			svc := a.service(a.cfg.Solve.Jobs, false, progress)

			spin.Start()
			start := time.Now()
			values, err := svc.Solve(cmd.Context(), target.Bytes(), xorhash.ToSlices(pool), true)
			elapsed := time.Since(start)
			spin.Stop()
			if err != nil {
				return err
			}

			if err := writeHexLines(a.stdout, xorhash.FromSlices(values)); err != nil {
				return fmt.Errorf("write values: %w", err)
			}
			a.writeStats(len(values), elapsed)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func (a *app) newBatchCmd() *cobra.Command {
	var (
		targetsFile string
		poolFiles   []string
		jobs        int
		optimize    bool
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Solve many targets against one pool in parallel",
		Long: `Batch solves every target in --targets-file against the pool. For each
target it prints a "# <index> <target> <n> values" header followed by the
values, or a "# <index> <target> error: ..." line. The exit code reflects the
first failed target.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if targetsFile == stdinPath && slices.Contains(poolFiles, stdinPath) {
				return newUsageError("targets and pool cannot both be read from stdin")
			}
			targets, err := readValues(targetsFile, a.stdin)
			if err != nil {
				return err
			}
			pool, dropped, err := readPool(poolFiles, a.stdin)
			if err != nil {
				return err
			}
			if dropped > 0 {
				a.logger.Info("pool_duplicates_dropped", "files", len(poolFiles), "dropped", dropped)
			}
			if !cmd.Flags().Changed("jobs") {
				jobs = a.cfg.Solve.Jobs
			}
			if jobs < 0 {
				return newUsageError("--jobs must not be negative")
			}
			if !cmd.Flags().Changed("optimize") {
				optimize = a.cfg.Solve.Optimize
			}

			svc := a.service(jobs, false, nil)
			results, err := svc.SolveBatch(cmd.Context(), xorhash.ToSlices(targets), xorhash.ToSlices(pool), optimize)

			var firstErr error
			for _, res := range results {
				t := targets[res.Index].Hex()
				if res.Err != nil {
					fmt.Fprintf(a.stdout, "# %d %s error: %v\n", res.Index, t, res.Err)
					if firstErr == nil {
						firstErr = fmt.Errorf("target %d: %w", res.Index, res.Err)
					}
					continue
				}
				fmt.Fprintf(a.stdout, "# %d %s %d values\n", res.Index, t, len(res.Values))
				if werr := writeHexLines(a.stdout, xorhash.FromSlices(res.Values)); werr != nil {
					return fmt.Errorf("write values: %w", werr)
				}
			}

			if err != nil {
				return err
			}
			return firstErr
		},
	}

	cmd.Flags().StringVar(&targetsFile, "targets-file", "", "file with one target per line (- for stdin)")
	cmd.Flags().StringArrayVar(&poolFiles, "pool-file", nil, "file with one pool value per line (- for stdin); repeatable, duplicates are dropped")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "parallel solves (default: one per CPU)")
	cmd.Flags().BoolVar(&optimize, "optimize", false, "reduce answers to pool values")
	return cmd
}
