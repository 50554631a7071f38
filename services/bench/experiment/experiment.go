// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/sortbench/services/bench/generate"
	"github.com/AleutianAI/sortbench/services/bench/telemetry"
	"github.com/AleutianAI/sortbench/services/bench/trial"
)

// -----------------------------------------------------------------------------
// Report
// -----------------------------------------------------------------------------

// CategoryResult holds the outcomes and statistics of one category.
type CategoryResult struct {
	Category Category        `json:"category"`
	Outcomes []trial.Outcome `json:"outcomes"`
	Stats    CategoryStats   `json:"stats"`
}

// Report is the result of a completed experiment.
//
// Thread Safety: Safe for concurrent read access.
type Report struct {
	// RunID uniquely identifies the run.
	RunID string `json:"run_id"`

	// Algorithm is the name the experiment was built with.
	Algorithm string `json:"algorithm"`

	// Config is the configuration the run used.
	Config Config `json:"config"`

	// StartedAt is when Run began.
	StartedAt time.Time `json:"started_at"`

	// Duration is the wall time of the whole run.
	Duration time.Duration `json:"duration_ns"`

	// Categories are in Config.Categories order.
	Categories []CategoryResult `json:"categories"`
}

// Category returns the result for c.
func (r *Report) Category(c Category) (CategoryResult, bool) {
	for _, res := range r.Categories {
		if res.Category == c {
			return res, true
		}
	}
	return CategoryResult{}, false
}

// Passed is true if no trial in any category failed verification.
func (r *Report) Passed() bool {
	for _, res := range r.Categories {
		if res.Stats.UnsortedTrials > 0 || res.Stats.DestructiveTrials > 0 {
			return false
		}
	}
	return true
}

// -----------------------------------------------------------------------------
// Options
// -----------------------------------------------------------------------------

// TrialHook observes each outcome as soon as its loop completes.
type TrialHook func(category Category, loop int, outcome trial.Outcome)

// Option configures an Experiment.
type Option func(*Experiment)

// WithName sets the algorithm name recorded in the Report.
func WithName(name string) Option {
	return func(e *Experiment) {
		if name != "" {
			e.name = name
		}
	}
}

// WithGenerator replaces the seeded |N(0,1)| generator.
func WithGenerator(g generate.Generator) Option {
	return func(e *Experiment) {
		if g != nil {
			e.generator = g
		}
	}
}

// WithSplitter replaces the splitter derived from the Config.
func WithSplitter(s generate.Splitter) Option {
	return func(e *Experiment) {
		if s != nil {
			e.splitter = s
		}
	}
}

// WithCounter attaches an operation counter to every trial. The counter
// must be the one the sort function increments. It cannot be combined
// with ParallelCategories.
func WithCounter(c trial.OpCounter) Option {
	return func(e *Experiment) {
		e.counter = c
	}
}

// WithClock replaces the trial clock.
func WithClock(clock trial.Clock) Option {
	return func(e *Experiment) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Experiment) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithSink records every trial and category to sink.
func WithSink(sink telemetry.Sink) Option {
	return func(e *Experiment) {
		if sink != nil {
			e.sink = sink
		}
	}
}

// WithTrialHook registers a hook called once per outcome, on the goroutine
// that called Run.
func WithTrialHook(hook TrialHook) Option {
	return func(e *Experiment) {
		if hook != nil {
			e.hooks = append(e.hooks, hook)
		}
	}
}

// -----------------------------------------------------------------------------
// Experiment
// -----------------------------------------------------------------------------

// spanStarter is implemented by sinks that can open a parent span for a run.
type spanStarter interface {
	StartExperimentSpan(ctx context.Context, runID, algorithm string) (context.Context, trace.Span)
}

// Experiment runs trials for every configured category.
//
// Description:
//
//	An Experiment is built once and may be Run more than once; every Run
//	draws fresh inputs from the same generator, so two runs of one
//	Experiment see different sequences. Build a new Experiment with the
//	same seed to reproduce a run.
//
// Thread Safety: Not safe for concurrent Run calls.
type Experiment struct {
	config    Config
	sort      trial.SortFunc
	name      string
	generator generate.Generator
	splitter  generate.Splitter
	counter   trial.OpCounter
	clock     trial.Clock
	logger    *slog.Logger
	sink      telemetry.Sink
	hooks     []TrialHook
}

// New creates an Experiment. A nil Categories runs every category.
// Configuration errors surface from Run.
//
// Inputs:
//   - config: The experiment configuration.
//   - sort: The sort under test.
//   - opts: Options.
//
// Outputs:
//   - *Experiment: Never nil.
func New(config Config, sort trial.SortFunc, opts ...Option) *Experiment {
	e := &Experiment{
		config: config.WithDefaults(),
		sort:   sort,
		name:   "custom",
		logger: slog.Default(),
		sink:   telemetry.NewNoOpSink(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.generator == nil {
		e.generator = generate.NewNormal(config.Seed)
	}
	if e.splitter == nil {
		if config.SplitPoint != nil {
			e.splitter = generate.FixedSplitter(*config.SplitPoint)
		} else {
			e.splitter = generate.NewRandomSplitter(config.Seed)
		}
	}
	return e
}

// Config returns the experiment configuration.
func (e *Experiment) Config() Config {
	return e.config
}

func (e *Experiment) validate() error {
	if e.sort == nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, trial.ErrNilSort)
	}
	if err := e.config.Validate(); err != nil {
		return err
	}
	if e.config.ParallelCategories && e.counter != nil {
		return fmt.Errorf("%w: an operation counter cannot be shared by parallel categories", ErrInvalidConfig)
	}
	return nil
}

// Run executes the experiment.
//
// Description:
//
//	For each loop a split point is drawn and one input per category is
//	generated, in category order. The trials of the loop then run either
//	sequentially or, with ParallelCategories, one goroutine per category.
//	After the last loop each category is folded into CategoryStats.
//
// Inputs:
//   - ctx: Checked between trials. Must not be nil.
//
// Outputs:
//   - *Report: Non-nil only when every trial completed.
//   - error: ErrInvalidConfig before any trial, a wrapped
//     trial.ErrAlgorithmFailure, or the context error.
func (e *Experiment) Run(ctx context.Context) (*Report, error) {
	if ctx == nil {
		return nil, fmt.Errorf("%w: nil context", ErrInvalidConfig)
	}
	if err := e.validate(); err != nil {
		return nil, err
	}

	report := &Report{
		RunID:     uuid.NewString(),
		Algorithm: e.name,
		Config:    e.config,
		StartedAt: time.Now(),
	}
	if s, ok := e.sink.(spanStarter); ok {
		var span trace.Span
		ctx, span = s.StartExperimentSpan(ctx, report.RunID, report.Algorithm)
		defer span.End()
	}

	logger := e.logger.With(
		slog.String("run_id", report.RunID),
		slog.String("algorithm", report.Algorithm),
	)
	logger.Info("experiment started",
		slog.Int("loops", e.config.Loops),
		slog.Int("sequence_length", e.config.SequenceLength),
		slog.Bool("parallel", e.config.ParallelCategories),
	)

	categories := e.config.Categories
	outcomes := make([][]trial.Outcome, len(categories))
	for i := range outcomes {
		outcomes[i] = make([]trial.Outcome, 0, e.config.Loops)
	}

	for loop := 0; loop < e.config.Loops; loop++ {
		inputs := e.inputs(categories)

		var (
			results []trial.Outcome
			err     error
		)
		if e.config.ParallelCategories {
			results, err = e.runParallel(ctx, inputs)
		} else {
			results, err = e.runSequential(ctx, inputs)
		}
		if err != nil {
			logger.Error("experiment aborted",
				slog.Int("loop", loop),
				slog.String("error", err.Error()),
			)
			return nil, err
		}

		for i, outcome := range results {
			outcomes[i] = append(outcomes[i], outcome)
			e.recordTrial(ctx, logger, report, categories[i], loop, outcome)
		}
	}

	report.Categories = make([]CategoryResult, len(categories))
	for i, category := range categories {
		stats := Fold(outcomes[i])
		report.Categories[i] = CategoryResult{
			Category: category,
			Outcomes: outcomes[i],
			Stats:    stats,
		}
		e.recordCategory(ctx, logger, report, category, stats)
	}
	report.Duration = time.Since(report.StartedAt)

	logger.Info("experiment completed",
		slog.Duration("duration", report.Duration),
		slog.Bool("passed", report.Passed()),
	)
	return report, nil
}

// inputs builds one fresh input per category from the shared generator.
func (e *Experiment) inputs(categories []Category) [][]float64 {
	n := e.config.SequenceLength
	split := e.splitter.Split(n)

	inputs := make([][]float64, len(categories))
	for i, category := range categories {
		switch category {
		case CategorySemiSorted:
			inputs[i] = generate.SemiSorted(e.generator.Random(n), split)
		default:
			inputs[i] = e.generator.Random(n)
		}
	}
	return inputs
}

func (e *Experiment) runSequential(ctx context.Context, inputs [][]float64) ([]trial.Outcome, error) {
	results := make([]trial.Outcome, len(inputs))
	for i, input := range inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		outcome, err := e.runTrial(input)
		if err != nil {
			return nil, err
		}
		results[i] = outcome
	}
	return results, nil
}

func (e *Experiment) runParallel(ctx context.Context, inputs [][]float64) ([]trial.Outcome, error) {
	results := make([]trial.Outcome, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	for i, input := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcome, err := e.runTrial(input)
			if err != nil {
				return err
			}
			results[i] = outcome
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (e *Experiment) runTrial(input []float64) (trial.Outcome, error) {
	opts := make([]trial.Option, 0, 2)
	if e.counter != nil {
		opts = append(opts, trial.WithCounter(e.counter))
	}
	if e.clock != nil {
		opts = append(opts, trial.WithClock(e.clock))
	}

	runner, err := trial.NewRunner(e.sort, input, e.config.ExpectedFigure(), opts...)
	if err != nil {
		return trial.Outcome{}, err
	}
	return runner.Run()
}

func (e *Experiment) recordTrial(ctx context.Context, logger *slog.Logger, report *Report, category Category, loop int, outcome trial.Outcome) {
	for _, hook := range e.hooks {
		hook(category, loop, outcome)
	}

	logger.Debug("trial completed",
		slog.String("category", category.String()),
		slog.Int("loop", loop),
		slog.Int64("elapsed_ns", outcome.ElapsedNanoseconds()),
		slog.Bool("sorted", outcome.Sorted),
		slog.Bool("destructive", outcome.Destructive),
	)

	err := e.sink.RecordTrial(ctx, &telemetry.TrialData{
		RunID:       report.RunID,
		Algorithm:   report.Algorithm,
		Category:    category.String(),
		Loop:        loop,
		Length:      outcome.Length,
		Elapsed:     outcome.Elapsed,
		Sorted:      outcome.Sorted,
		Destructive: outcome.Destructive,
		ReportedOps: outcome.ReportedOps,
		CountedOps:  outcome.CountedOps,
		Counted:     outcome.Counted,
	})
	if err != nil {
		logger.Warn("failed to record trial", slog.String("error", err.Error()))
	}
}

func (e *Experiment) recordCategory(ctx context.Context, logger *slog.Logger, report *Report, category Category, stats CategoryStats) {
	err := e.sink.RecordCategory(ctx, &telemetry.CategoryData{
		RunID:             report.RunID,
		Algorithm:         report.Algorithm,
		Category:          category.String(),
		Trials:            stats.Trials,
		MeanTime:          stats.MeanTime(),
		MeanReportedOps:   stats.MeanReportedOps,
		UnsortedTrials:    stats.UnsortedTrials,
		DestructiveTrials: stats.DestructiveTrials,
	})
	if err != nil {
		logger.Warn("failed to record category", slog.String("error", err.Error()))
	}
}
