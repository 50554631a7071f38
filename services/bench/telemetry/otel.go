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
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/AleutianAI/sortbench/services/bench/telemetry"

// ErrInvalidOTelConfig is returned when the OTel sink configuration is invalid.
var ErrInvalidOTelConfig = errors.New("invalid opentelemetry configuration")

// OTelConfig configures the OpenTelemetry sink.
//
// Thread Safety: Immutable after creation.
type OTelConfig struct {
	// ServiceVersion is attached to the instrumentation scope.
	ServiceVersion string

	// TracerProvider to use. Nil means the global provider.
	TracerProvider trace.TracerProvider

	// MeterProvider to use. Nil means the global provider.
	MeterProvider metric.MeterProvider

	// TraceEnabled creates a span per recorded trial and category.
	TraceEnabled bool

	// MetricsEnabled records metric instruments.
	MetricsEnabled bool
}

// DefaultOTelConfig enables traces and metrics on the global providers.
func DefaultOTelConfig() *OTelConfig {
	return &OTelConfig{
		ServiceVersion: "1.0.0",
		TraceEnabled:   true,
		MetricsEnabled: true,
	}
}

// OTelSink records trials and categories via OpenTelemetry.
//
// Description:
//
//	Each trial becomes a "trial.record" span carrying the measured time as
//	an attribute, plus a histogram observation and a counter increment
//	labelled with the verification flags. Each category becomes a
//	"category.record" span and two gauge observations.
//
//	The sink does not own the providers and never shuts them down.
//
// Thread Safety: Safe for concurrent use.
type OTelSink struct {
	config *OTelConfig
	tracer trace.Tracer
	meter  metric.Meter

	trialDuration    metric.Float64Histogram
	trialTotal       metric.Int64Counter
	trialCountedOps  metric.Int64Histogram
	categoryMeanTime metric.Float64Gauge
	categoryMeanOps  metric.Float64Gauge

	mu     sync.RWMutex
	closed bool
}

// NewOTelSink creates an OTelSink.
//
// Inputs:
//   - config: Must not be nil.
//
// Outputs:
//   - *OTelSink: Never nil on success.
//   - error: ErrInvalidOTelConfig if config is nil or instruments cannot be
//     created.
func NewOTelSink(config *OTelConfig) (*OTelSink, error) {
	if config == nil {
		return nil, ErrInvalidOTelConfig
	}
	cfg := *config

	tp := cfg.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	mp := cfg.MeterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}

	sink := &OTelSink{
		config: &cfg,
		tracer: tp.Tracer(instrumentationName, trace.WithInstrumentationVersion(cfg.ServiceVersion)),
		meter:  mp.Meter(instrumentationName, metric.WithInstrumentationVersion(cfg.ServiceVersion)),
	}

	if cfg.MetricsEnabled {
		if err := sink.initializeMetrics(); err != nil {
			return nil, errors.Join(ErrInvalidOTelConfig, err)
		}
	}
	return sink, nil
}

func (s *OTelSink) initializeMetrics() error {
	var err error

	s.trialDuration, err = s.meter.Float64Histogram(
		"sortbench.trial.duration",
		metric.WithDescription("Measured sort time per trial"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	s.trialTotal, err = s.meter.Int64Counter(
		"sortbench.trial.total",
		metric.WithDescription("Completed trials"),
		metric.WithUnit("{trial}"),
	)
	if err != nil {
		return err
	}

	s.trialCountedOps, err = s.meter.Int64Histogram(
		"sortbench.trial.counted_ops",
		metric.WithDescription("Comparisons plus moves counted by instrumented sorts"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return err
	}

	s.categoryMeanTime, err = s.meter.Float64Gauge(
		"sortbench.category.mean_time",
		metric.WithDescription("Mean trial time per category"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	s.categoryMeanOps, err = s.meter.Float64Gauge(
		"sortbench.category.mean_ops",
		metric.WithDescription("Mean reported operations per category"),
		metric.WithUnit("{operation}"),
	)
	return err
}

func (s *OTelSink) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// RecordTrial records one trial.
func (s *OTelSink) RecordTrial(ctx context.Context, data *TrialData) error {
	if err := checkArgs(ctx, data == nil); err != nil {
		return err
	}
	if s.isClosed() {
		return ErrSinkClosed
	}

	attrs := []attribute.KeyValue{
		attribute.String("algorithm", data.Algorithm),
		attribute.String("category", data.Category),
		attribute.Bool("sorted", data.Sorted),
		attribute.Bool("destructive", data.Destructive),
	}

	if s.config.TraceEnabled {
		_, span := s.tracer.Start(ctx, "trial.record",
			trace.WithAttributes(attrs...),
			trace.WithAttributes(
				attribute.String("run_id", data.RunID),
				attribute.Int("loop", data.Loop),
				attribute.Int("length", data.Length),
				attribute.Int64("elapsed_ns", data.Elapsed.Nanoseconds()),
				attribute.Float64("reported_ops", data.ReportedOps),
			),
		)
		if data.Counted {
			span.SetAttributes(attribute.Int64("counted_ops", data.CountedOps))
		}
		if !data.Sorted || data.Destructive {
			span.SetStatus(codes.Error, "verification failed")
		}
		span.End()
	}

	if s.config.MetricsEnabled {
		attrSet := metric.WithAttributes(attrs...)
		s.trialDuration.Record(ctx, data.Elapsed.Seconds(), attrSet)
		s.trialTotal.Add(ctx, 1, attrSet)
		if data.Counted {
			s.trialCountedOps.Record(ctx, data.CountedOps, attrSet)
		}
	}
	return nil
}

// RecordCategory records one finalized category.
func (s *OTelSink) RecordCategory(ctx context.Context, data *CategoryData) error {
	if err := checkArgs(ctx, data == nil); err != nil {
		return err
	}
	if s.isClosed() {
		return ErrSinkClosed
	}

	attrs := []attribute.KeyValue{
		attribute.String("algorithm", data.Algorithm),
		attribute.String("category", data.Category),
	}

	if s.config.TraceEnabled {
		_, span := s.tracer.Start(ctx, "category.record",
			trace.WithAttributes(attrs...),
			trace.WithAttributes(
				attribute.String("run_id", data.RunID),
				attribute.Int("trials", data.Trials),
				attribute.Int64("mean_time_ns", data.MeanTime.Nanoseconds()),
				attribute.Float64("mean_reported_ops", data.MeanReportedOps),
				attribute.Int("unsorted_trials", data.UnsortedTrials),
				attribute.Int("destructive_trials", data.DestructiveTrials),
			),
		)
		if data.UnsortedTrials > 0 || data.DestructiveTrials > 0 {
			span.SetStatus(codes.Error, "category had failed verifications")
		}
		span.End()
	}

	if s.config.MetricsEnabled {
		attrSet := metric.WithAttributes(attrs...)
		s.categoryMeanTime.Record(ctx, data.MeanTime.Seconds(), attrSet)
		s.categoryMeanOps.Record(ctx, data.MeanReportedOps, attrSet)
	}
	return nil
}

// StartExperimentSpan starts the parent span for one experiment run.
// The caller must end it.
func (s *OTelSink) StartExperimentSpan(ctx context.Context, runID, algorithm string) (context.Context, trace.Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	return s.tracer.Start(ctx, "experiment.run",
		trace.WithAttributes(
			attribute.String("run_id", runID),
			attribute.String("algorithm", algorithm),
		),
	)
}

// Flush is a no-op; flushing belongs to the providers' owner.
func (s *OTelSink) Flush(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	if s.isClosed() {
		return ErrSinkClosed
	}
	return nil
}

// Close marks the sink closed. Idempotent.
func (s *OTelSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

var _ Sink = (*OTelSink)(nil)
