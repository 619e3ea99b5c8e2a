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
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/xorbreak/pkg/logging"
	"github.com/AleutianAI/xorbreak/pkg/telemetry"
	"github.com/AleutianAI/xorbreak/pkg/ux"
	"github.com/AleutianAI/xorbreak/services/xorsum"
	"github.com/AleutianAI/xorbreak/services/xorsum/solver"
)

// metricPrefixes selects the families written by --metrics.
var metricPrefixes = []string{"xorsum_", "solver_", "provenance_"}

// app holds the state of one CLI invocation.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	out    *ux.Printer

	// Persistent flags.
	configPath string
	logLevel   string
	logJSON    bool
	trace      bool
	metrics    bool

	cfg      Config
	logger   *logging.Logger
	runID    string
	registry *prometheus.Registry
	shutdown func(context.Context) error
}

// run executes the CLI with args and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr, out: ux.NewPrinter(stderr)}

	root := a.newRootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	a.finish()

	if err != nil {
		if a.logger != nil {
			a.logger.Error("command_failed",
				"kind", string(solver.Classify(err)),
				"error", err.Error(),
			)
		}
		a.out.Error(err)
	}
	return exitCode(err)
}

func (a *app) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "xorbreak",
		Short: "Find pool values whose XOR equals a target",
		Long: `xorbreak solves XOR-sum equations over GF(2): given a target value and a
pool of candidate values of the same width, it finds candidates whose
bytewise XOR is the target, and can explain the result as a Mermaid diagram.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML configuration file")
	pf.StringVar(&a.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	pf.BoolVar(&a.logJSON, "log-json", false, "write logs as JSON")
	pf.BoolVar(&a.trace, "trace", false, "export spans to stderr")
	pf.BoolVar(&a.metrics, "metrics", false, "print metrics to stderr on exit")

	root.AddCommand(
		a.newSolveCmd(),
		a.newRenderCmd(),
		a.newGenerateCmd(),
		a.newDemoCmd(),
		a.newBatchCmd(),
	)
	return root
}

// setup loads configuration and starts logging and telemetry.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := LoadConfig(a.configPath)
	if err != nil {
		return &usageError{err: err}
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if flags.Changed("log-json") {
		cfg.Log.JSON = a.logJSON
	}
	if err := cfg.Validate(); err != nil {
		return &usageError{err: err}
	}
	a.cfg = cfg

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return &usageError{err: err}
	}

	a.runID = uuid.NewString()
	a.logger = logging.New(logging.Config{
		Level:   level,
		Service: "xorbreak",
		JSON:    cfg.Log.JSON,
		LogDir:  cfg.Log.Dir,
		Output:  a.stderr,
	}).With("run_id", a.runID, "command", cmd.Name())

	if a.trace || a.metrics {
		tcfg := telemetry.DefaultConfig()
		tcfg.TraceExporter = "none"
		tcfg.MetricExporter = "none"
		if a.trace {
			tcfg.TraceExporter = "stdout"
			tcfg.TraceWriter = a.stderr
		}
		if a.metrics {
			a.registry = prometheus.NewRegistry()
			tcfg.MetricExporter = "prometheus"
			tcfg.Registerer = a.registry
		}
		shutdown, err := telemetry.Init(cmd.Context(), tcfg)
		if err != nil {
			return fmt.Errorf("init telemetry: %w", err)
		}
		a.shutdown = shutdown
	}

	a.logger.Debug("command_start", "config", a.configPath)
	return nil
}

// finish dumps metrics, flushes telemetry and closes the log file.
func (a *app) finish() {
	if a.metrics && a.registry != nil {
		gatherers := prometheus.Gatherers{prometheus.DefaultGatherer, a.registry}
		if err := telemetry.WriteMetrics(a.stderr, gatherers, metricPrefixes...); err != nil {
			a.logger.Warn("metrics_dump_failed", "error", err.Error())
		}
	}
	if a.shutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.shutdown(ctx); err != nil && a.logger != nil {
			a.logger.Warn("telemetry_shutdown_failed", "error", err.Error())
		}
	}
	if a.logger != nil {
		_ = a.logger.Close()
	}
}

// service builds the xorsum service from the loaded configuration.
func (a *app) service(jobs int, footer bool, progress solver.ProgressFunc) *xorsum.Service {
	return xorsum.NewService(xorsum.Config{
		Jobs:          jobs,
		MermaidFooter: footer,
		Logger:        a.logger.Slog(),
		Progress:      progress,
	})
}

// noArgs rejects positional arguments as a usage error.
func noArgs(_ *cobra.Command, args []string) error {
	if len(args) > 0 {
		return newUsageError("unexpected arguments: %v", args)
	}
	return nil
}

// writeStats prints the summary lines the solve and demo commands share.
func (a *app) writeStats(values int, elapsed time.Duration) {
	a.out.Stat("Hashes needed", values)
	a.out.Stat("Computation took", elapsed)
}
