// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"context"
	"errors"
	"time"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrNilContext is returned when a nil context is passed.
	ErrNilContext = errors.New("context must not be nil")

	// ErrNilData is returned when nil data is passed.
	ErrNilData = errors.New("data must not be nil")

	// ErrSinkClosed is returned when recording to a closed sink.
	ErrSinkClosed = errors.New("sink is closed")

	// ErrNoSinks is returned when a composite sink has nothing to wrap.
	ErrNoSinks = errors.New("at least one sink is required")

	// ErrUnknownExporter is returned for an unsupported exporter name.
	ErrUnknownExporter = errors.New("unknown exporter")
)

// -----------------------------------------------------------------------------
// Data
// -----------------------------------------------------------------------------

// TrialData describes one completed trial.
type TrialData struct {
	// RunID identifies the experiment the trial belongs to.
	RunID string

	// Algorithm is the name of the sort under test.
	Algorithm string

	// Category is the input distribution ("random", "semi_sorted").
	Category string

	// Loop is the zero-based loop index.
	Loop int

	// Length is the input length.
	Length int

	// Elapsed is the measured sort time.
	Elapsed time.Duration

	// Sorted and Destructive are the verification flags.
	Sorted      bool
	Destructive bool

	// ReportedOps is the expected operation figure.
	ReportedOps float64

	// CountedOps is the measured operation count, valid when Counted.
	CountedOps int64
	Counted    bool
}

// CategoryData describes a finalized category.
type CategoryData struct {
	RunID     string
	Algorithm string
	Category  string

	// Trials is the number of trials folded.
	Trials int

	// MeanTime is the arithmetic mean trial time.
	MeanTime time.Duration

	// MeanReportedOps is the mean expected operation figure.
	MeanReportedOps float64

	// UnsortedTrials and DestructiveTrials count failed verifications.
	UnsortedTrials    int
	DestructiveTrials int
}

// -----------------------------------------------------------------------------
// Sink
// -----------------------------------------------------------------------------

// Sink receives benchmark measurements.
//
// Thread Safety: Implementations must be safe for concurrent use.
type Sink interface {
	// RecordTrial records one trial.
	RecordTrial(ctx context.Context, data *TrialData) error

	// RecordCategory records one finalized category.
	RecordCategory(ctx context.Context, data *CategoryData) error

	// Flush forces export of buffered data.
	Flush(ctx context.Context) error

	// Close releases resources. Idempotent.
	Close() error
}

// NoOpSink discards all data.
type NoOpSink struct{}

// NewNoOpSink returns a NoOpSink.
func NewNoOpSink() *NoOpSink {
	return &NoOpSink{}
}

// RecordTrial validates its arguments and discards the data.
func (s *NoOpSink) RecordTrial(ctx context.Context, data *TrialData) error {
	return checkArgs(ctx, data == nil)
}

// RecordCategory validates its arguments and discards the data.
func (s *NoOpSink) RecordCategory(ctx context.Context, data *CategoryData) error {
	return checkArgs(ctx, data == nil)
}

// Flush is a no-op.
func (s *NoOpSink) Flush(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// Close is a no-op.
func (s *NoOpSink) Close() error {
	return nil
}

// CompositeSink forwards to several sinks.
//
// Description:
//
//	Every wrapped sink is called even if an earlier one fails; the errors
//	are joined.
type CompositeSink struct {
	sinks []Sink
}

// NewCompositeSink wraps the non-nil sinks.
//
// Outputs:
//   - *CompositeSink: Never nil on success.
//   - error: ErrNoSinks if no non-nil sink was given.
func NewCompositeSink(sinks ...Sink) (*CompositeSink, error) {
	filtered := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			filtered = append(filtered, s)
		}
	}
	if len(filtered) == 0 {
		return nil, ErrNoSinks
	}
	return &CompositeSink{sinks: filtered}, nil
}

// RecordTrial forwards to all sinks.
func (c *CompositeSink) RecordTrial(ctx context.Context, data *TrialData) error {
	if err := checkArgs(ctx, data == nil); err != nil {
		return err
	}
	return c.each(func(s Sink) error { return s.RecordTrial(ctx, data) })
}

// RecordCategory forwards to all sinks.
func (c *CompositeSink) RecordCategory(ctx context.Context, data *CategoryData) error {
	if err := checkArgs(ctx, data == nil); err != nil {
		return err
	}
	return c.each(func(s Sink) error { return s.RecordCategory(ctx, data) })
}

// Flush flushes all sinks.
func (c *CompositeSink) Flush(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return c.each(func(s Sink) error { return s.Flush(ctx) })
}

// Close closes all sinks.
func (c *CompositeSink) Close() error {
	return c.each(func(s Sink) error { return s.Close() })
}

func (c *CompositeSink) each(fn func(Sink) error) error {
	var errs []error
	for _, s := range c.sinks {
		if err := fn(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func checkArgs(ctx context.Context, dataNil bool) error {
	if ctx == nil {
		return ErrNilContext
	}
	if dataNil {
		return ErrNilData
	}
	return nil
}

var (
	_ Sink = (*NoOpSink)(nil)
	_ Sink = (*CompositeSink)(nil)
)
