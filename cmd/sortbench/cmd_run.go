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
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/sortbench/cmd/sortbench/config"
	"github.com/AleutianAI/sortbench/pkg/logging"
	"github.com/AleutianAI/sortbench/services/bench/experiment"
	"github.com/AleutianAI/sortbench/services/bench/history"
	"github.com/AleutianAI/sortbench/services/bench/report"
	"github.com/AleutianAI/sortbench/services/bench/sorting"
	"github.com/AleutianAI/sortbench/services/bench/telemetry"
	"github.com/AleutianAI/sortbench/services/bench/trial"
)

// runFlags are the run command's overrides. Only flags the user set are
// applied over the config file.
type runFlags struct {
	loops        int
	length       int
	seed         uint64
	split        int
	algorithm    string
	count        bool
	format       string
	output       string
	verbose      bool
	parallel     bool
	historyDir   string
	otelTraces   string
	otelMetrics  string
	otlpEndpoint string
	promTextfile string
	influxURL    string
	influxToken  string
	influxOrg    string
	influxBucket string
}

func newRunCmd(a *app) *cobra.Command {
	f := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run an experiment",
		Long: `Run an experiment: for every loop, generate one random and one
semi-sorted input, sort each once with the selected algorithm, and verify
the result. Averages per input category are printed at the end.

The command fails on an invalid configuration or when the algorithm
reports an error. Unsorted or destructive outputs are reported, not
treated as failures.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f.apply(cmd, a.cfg)
			return a.run(cmd)
		},
	}

	fl := cmd.Flags()
	fl.IntVarP(&f.loops, "loops", "n", 1, "Trials per category")
	fl.IntVarP(&f.length, "length", "l", 10000, "Length of each input sequence")
	fl.Uint64Var(&f.seed, "seed", 0, "Seed for input generation and split points")
	fl.IntVar(&f.split, "split", -1, "Fixed semi-sorted split point (-1 = random per loop)")
	fl.StringVarP(&f.algorithm, "algorithm", "a", sorting.DefaultAlgorithm, "Algorithm to benchmark (see 'sortbench algorithms')")
	fl.BoolVar(&f.count, "count", false, "Count comparisons and moves for instrumented algorithms")
	fl.StringVarP(&f.format, "format", "f", string(report.FormatConsole), "Output format: console, json, csv")
	fl.StringVarP(&f.output, "output", "o", "", "Write the report to a file instead of stdout")
	fl.BoolVarP(&f.verbose, "verbose", "v", true, "Print every trial (console format)")
	fl.BoolVar(&f.parallel, "parallel", false, "Run the categories of each loop concurrently")
	fl.StringVar(&f.historyDir, "history-dir", "", "Store the report in the history database at this path")
	fl.StringVar(&f.otelTraces, "otel-traces", "", "Trace exporter: none, otlp, stdout")
	fl.StringVar(&f.otelMetrics, "otel-metrics", "", "Metric exporter: none, prometheus, stdout")
	fl.StringVar(&f.otlpEndpoint, "otlp-endpoint", "", "OTLP gRPC endpoint, host:port")
	fl.StringVar(&f.promTextfile, "prom-textfile", "", "Write Prometheus metrics to this file after the run (requires --otel-metrics prometheus)")
	fl.StringVar(&f.influxURL, "influx-url", "", "InfluxDB URL; enables writing results to InfluxDB")
	fl.StringVar(&f.influxToken, "influx-token", "", "InfluxDB token (or "+config.EnvInfluxToken+")")
	fl.StringVar(&f.influxOrg, "influx-org", "", "InfluxDB organization")
	fl.StringVar(&f.influxBucket, "influx-bucket", "", "InfluxDB bucket")

	return cmd
}

// apply copies every flag the user set into cfg.
func (f *runFlags) apply(cmd *cobra.Command, cfg *config.File) {
	changed := cmd.Flags().Changed
	if changed("loops") {
		cfg.Experiment.Loops = f.loops
	}
	if changed("length") {
		cfg.Experiment.SequenceLength = f.length
	}
	if changed("seed") {
		cfg.Experiment.Seed = f.seed
	}
	if changed("split") {
		if f.split < 0 {
			cfg.Experiment.SplitPoint = nil
		} else {
			split := f.split
			cfg.Experiment.SplitPoint = &split
		}
	}
	if changed("parallel") {
		cfg.Experiment.ParallelCategories = f.parallel
	}
	if changed("algorithm") {
		cfg.Algorithm = f.algorithm
	}
	if changed("count") {
		cfg.Count = f.count
	}
	if changed("format") {
		cfg.Output.Format = f.format
	}
	if changed("output") {
		cfg.Output.Path = f.output
	}
	if changed("verbose") {
		cfg.Output.Verbose = f.verbose
	}
	if changed("history-dir") {
		cfg.History.Path = f.historyDir
	}
	if changed("otel-traces") {
		cfg.Telemetry.TraceExporter = f.otelTraces
	}
	if changed("otel-metrics") {
		cfg.Telemetry.MetricExporter = f.otelMetrics
	}
	if changed("otlp-endpoint") {
		cfg.Telemetry.OTLPEndpoint = f.otlpEndpoint
	}
	if changed("prom-textfile") {
		cfg.Telemetry.PromTextfile = f.promTextfile
	}
	if changed("influx-url") {
		cfg.Influx.URL = f.influxURL
	}
	if changed("influx-token") {
		cfg.Influx.Token = f.influxToken
	}
	if changed("influx-org") {
		cfg.Influx.Org = f.influxOrg
	}
	if changed("influx-bucket") {
		cfg.Influx.Bucket = f.influxBucket
	}
}

func (a *app) run(cmd *cobra.Command) (err error) {
	cfg := a.cfg
	logger := a.logger
	if err := cfg.Validate(); err != nil {
		return err
	}

	alg, err := sorting.Default().Get(cfg.Algorithm)
	if err != nil {
		return fmt.Errorf("%w: %w", config.ErrInvalid, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	// Telemetry
	var promRegistry *prometheus.Registry
	if cfg.Telemetry.PromTextfile != "" {
		promRegistry = prometheus.NewRegistry()
		cfg.Telemetry.Registerer = promRegistry
	}
	cfg.Telemetry.Writer = cmd.ErrOrStderr()
	shutdown, err := telemetry.Init(ctx, cfg.Telemetry.Config)
	if err != nil {
		return fmt.Errorf("%w: %w", config.ErrInvalid, err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if serr := shutdown(shutdownCtx); serr != nil {
			logger.Warn("telemetry shutdown failed", "error", serr.Error())
		}
	}()

	var sink telemetry.Sink = telemetry.NewNoOpSink()
	traces := enabled(cfg.Telemetry.TraceExporter)
	metrics := enabled(cfg.Telemetry.MetricExporter)
	if traces || metrics {
		otelCfg := telemetry.DefaultOTelConfig()
		otelCfg.ServiceVersion = cfg.Telemetry.ServiceVersion
		otelCfg.TraceEnabled = traces
		otelCfg.MetricsEnabled = metrics
		otelSink, err := telemetry.NewOTelSink(otelCfg)
		if err != nil {
			return err
		}
		defer otelSink.Close()
		sink = otelSink
	}

	// Output
	var out io.Writer = cmd.OutOrStdout()
	if cfg.Output.Path != "" {
		file, ferr := os.Create(cfg.Output.Path)
		if ferr != nil {
			return fmt.Errorf("create output file: %w", ferr)
		}
		defer func() {
			if cerr := file.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("close output file: %w", cerr)
			}
		}()
		out = file
	}
	rep, err := report.NewReporter(report.Format(cfg.Output.Format), out, cfg.Output.Verbose)
	if err != nil {
		return fmt.Errorf("%w: %w", config.ErrInvalid, err)
	}
	reporters := report.Multi{rep}
	if cfg.Influx.Enabled() {
		influx, err := report.OpenInflux(cfg.Influx)
		if err != nil {
			return fmt.Errorf("%w: %w", config.ErrInvalid, err)
		}
		defer influx.Close()
		reporters = append(reporters, influx)
	}

	// Experiment
	opts := []experiment.Option{
		experiment.WithName(alg.Name),
		experiment.WithLogger(logger.Slog()),
		experiment.WithSink(sink),
		experiment.WithTrialHook(func(c experiment.Category, loop int, o trial.Outcome) {
			if err := reporters.ReportTrial(c, loop, o); err != nil {
				logger.Warn("failed to report trial", "error", err.Error())
			}
		}),
	}
	var counter *sorting.Counter
	if cfg.Count {
		if alg.Instrumented() {
			counter = sorting.NewCounter()
			opts = append(opts, experiment.WithCounter(counter))
		} else {
			logger.Warn("algorithm is not instrumented; operations will not be counted", "algorithm", alg.Name)
		}
	}

	result, err := experiment.New(cfg.Experiment, alg.SortFunc(counter), opts...).Run(ctx)
	if err != nil {
		return err
	}

	var errs []error
	if err := reporters.Report(result); err != nil {
		errs = append(errs, fmt.Errorf("report: %w", err))
	}
	if cfg.History.Enabled() {
		// BadgerDB logs every table open at info; only forward it when debugging.
		var dbLogger *slog.Logger
		if logger.Level() == logging.LevelDebug {
			dbLogger = logger.Slog()
		}
		if err := saveHistory(ctx, cfg.History, dbLogger, result); err != nil {
			errs = append(errs, err)
		}
	}
	if promRegistry != nil {
		if err := telemetry.WritePrometheusTextfile(cfg.Telemetry.PromTextfile, promRegistry); err != nil {
			errs = append(errs, err)
		}
	}
	if !result.Passed() {
		logger.Warn("some trials failed verification", "run_id", result.RunID)
	}
	return errors.Join(errs...)
}

func saveHistory(ctx context.Context, cfg config.HistoryConfig, logger *slog.Logger, r *experiment.Report) error {
	storeCfg := cfg.HistoryStoreConfig()
	storeCfg.Logger = logger
	store, err := history.Open(storeCfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Save(ctx, r)
}

func enabled(exporter string) bool {
	return exporter != "" && exporter != telemetry.ExporterNone
}
