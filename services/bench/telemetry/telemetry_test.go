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
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

type mockSink struct {
	mu         sync.Mutex
	trials     int
	categories int
	flushes    int
	closes     int
	err        error
}

func (m *mockSink) RecordTrial(ctx context.Context, data *TrialData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trials++
	return m.err
}

func (m *mockSink) RecordCategory(ctx context.Context, data *CategoryData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories++
	return m.err
}

func (m *mockSink) Flush(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flushes++
	return m.err
}

func (m *mockSink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closes++
	return m.err
}

func testTrialData() *TrialData {
	return &TrialData{
		RunID:       "run-1",
		Algorithm:   "quicksort",
		Category:    "random",
		Loop:        0,
		Length:      100,
		Elapsed:     250 * time.Microsecond,
		Sorted:      true,
		ReportedOps: 461,
		CountedOps:  900,
		Counted:     true,
	}
}

func testCategoryData() *CategoryData {
	return &CategoryData{
		RunID:           "run-1",
		Algorithm:       "quicksort",
		Category:        "semi_sorted",
		Trials:          3,
		MeanTime:        time.Millisecond,
		MeanReportedOps: 461,
	}
}

func newTestSink(t *testing.T) (*OTelSink, *tracetest.SpanRecorder, *sdkmetric.ManualReader) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
	})

	config := DefaultOTelConfig()
	config.TracerProvider = tp
	config.MeterProvider = mp
	sink, err := NewOTelSink(config)
	if err != nil {
		t.Fatalf("NewOTelSink failed: %v", err)
	}
	return sink, recorder, reader
}

func metricNames(t *testing.T, reader *sdkmetric.ManualReader) map[string]bool {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	names := make(map[string]bool)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
		}
	}
	return names
}

// -----------------------------------------------------------------------------
// NoOp and Composite
// -----------------------------------------------------------------------------

func TestNoOpSink(t *testing.T) {
	sink := NewNoOpSink()
	ctx := context.Background()

	if err := sink.RecordTrial(ctx, testTrialData()); err != nil {
		t.Errorf("RecordTrial error = %v", err)
	}
	if err := sink.RecordCategory(ctx, testCategoryData()); err != nil {
		t.Errorf("RecordCategory error = %v", err)
	}
	//nolint:staticcheck // nil context is the case under test
	if err := sink.RecordTrial(nil, testTrialData()); !errors.Is(err, ErrNilContext) {
		t.Errorf("expected ErrNilContext, got %v", err)
	}
	if err := sink.RecordCategory(ctx, nil); !errors.Is(err, ErrNilData) {
		t.Errorf("expected ErrNilData, got %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Errorf("Close error = %v", err)
	}
}

func TestCompositeSink(t *testing.T) {
	t.Run("rejects empty", func(t *testing.T) {
		if _, err := NewCompositeSink(nil, nil); !errors.Is(err, ErrNoSinks) {
			t.Errorf("expected ErrNoSinks, got %v", err)
		}
	})

	t.Run("forwards and joins errors", func(t *testing.T) {
		ok := &mockSink{}
		bad := &mockSink{err: errors.New("export failed")}
		composite, err := NewCompositeSink(nil, ok, bad)
		if err != nil {
			t.Fatalf("NewCompositeSink failed: %v", err)
		}
		if len(composite.sinks) != 2 {
			t.Fatalf("expected 2 sinks, got %d", len(composite.sinks))
		}

		ctx := context.Background()
		if err := composite.RecordTrial(ctx, testTrialData()); err == nil {
			t.Error("expected joined error")
		}
		_ = composite.RecordCategory(ctx, testCategoryData())
		_ = composite.Flush(ctx)
		_ = composite.Close()

		for _, m := range []*mockSink{ok, bad} {
			if m.trials != 1 || m.categories != 1 || m.flushes != 1 || m.closes != 1 {
				t.Errorf("mock calls = %+v, want one of each", m)
			}
		}
	})
}

// -----------------------------------------------------------------------------
// OTelSink
// -----------------------------------------------------------------------------

func TestNewOTelSink(t *testing.T) {
	if _, err := NewOTelSink(nil); !errors.Is(err, ErrInvalidOTelConfig) {
		t.Errorf("expected ErrInvalidOTelConfig, got %v", err)
	}

	sink, err := NewOTelSink(DefaultOTelConfig())
	if err != nil {
		t.Fatalf("NewOTelSink with global providers failed: %v", err)
	}
	sink.Close()
}

func TestOTelSink_RecordTrial(t *testing.T) {
	sink, recorder, reader := newTestSink(t)

	if err := sink.RecordTrial(context.Background(), testTrialData()); err != nil {
		t.Fatalf("RecordTrial failed: %v", err)
	}

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name() != "trial.record" {
		t.Errorf("span name = %s, want trial.record", spans[0].Name())
	}
	if spans[0].Status().Code == codes.Error {
		t.Error("passing trial should not mark the span as error")
	}

	names := metricNames(t, reader)
	for _, want := range []string{"sortbench.trial.duration", "sortbench.trial.total", "sortbench.trial.counted_ops"} {
		if !names[want] {
			t.Errorf("metric %s not recorded; got %v", want, names)
		}
	}
}

func TestOTelSink_FailedVerificationMarksSpan(t *testing.T) {
	sink, recorder, _ := newTestSink(t)

	data := testTrialData()
	data.Destructive = true
	if err := sink.RecordTrial(context.Background(), data); err != nil {
		t.Fatalf("RecordTrial failed: %v", err)
	}
	if got := recorder.Ended()[0].Status().Code; got != codes.Error {
		t.Errorf("status = %v, want Error", got)
	}
}

func TestOTelSink_RecordCategory(t *testing.T) {
	sink, recorder, reader := newTestSink(t)

	if err := sink.RecordCategory(context.Background(), testCategoryData()); err != nil {
		t.Fatalf("RecordCategory failed: %v", err)
	}
	if len(recorder.Ended()) != 1 || recorder.Ended()[0].Name() != "category.record" {
		t.Errorf("expected one category.record span")
	}
	names := metricNames(t, reader)
	if !names["sortbench.category.mean_time"] || !names["sortbench.category.mean_ops"] {
		t.Errorf("category gauges missing; got %v", names)
	}
}

func TestOTelSink_Closed(t *testing.T) {
	sink, _, _ := newTestSink(t)
	sink.Close()
	sink.Close()

	if err := sink.RecordTrial(context.Background(), testTrialData()); !errors.Is(err, ErrSinkClosed) {
		t.Errorf("expected ErrSinkClosed, got %v", err)
	}
	if err := sink.Flush(context.Background()); !errors.Is(err, ErrSinkClosed) {
		t.Errorf("expected ErrSinkClosed, got %v", err)
	}
}

func TestOTelSink_ExperimentSpan(t *testing.T) {
	sink, recorder, _ := newTestSink(t)

	ctx, span := sink.StartExperimentSpan(context.Background(), "run-1", "quicksort")
	_ = sink.RecordTrial(ctx, testTrialData())
	span.End()

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	child, parent := spans[0], spans[1]
	if child.Parent().SpanID() != parent.SpanContext().SpanID() {
		t.Error("trial span should be a child of the experiment span")
	}
}

// -----------------------------------------------------------------------------
// Init
// -----------------------------------------------------------------------------

func TestInit_UnknownExporter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TraceExporter = "carrier-pigeon"
	if _, err := Init(context.Background(), cfg); !errors.Is(err, ErrUnknownExporter) {
		t.Errorf("expected ErrUnknownExporter, got %v", err)
	}

	cfg = DefaultConfig()
	cfg.MetricExporter = "fax"
	if _, err := Init(context.Background(), cfg); !errors.Is(err, ErrUnknownExporter) {
		t.Errorf("expected ErrUnknownExporter, got %v", err)
	}
}

func TestInit_None(t *testing.T) {
	shutdown, err := Init(context.Background(), DefaultConfig())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown failed: %v", err)
	}
}

func TestInit_StdoutTraces(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.TraceExporter = ExporterStdout
	cfg.Writer = &buf

	shutdown, err := Init(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	sink, err := NewOTelSink(&OTelConfig{TraceEnabled: true})
	if err != nil {
		t.Fatalf("NewOTelSink failed: %v", err)
	}
	_ = sink.RecordTrial(context.Background(), testTrialData())

	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
	if !strings.Contains(buf.String(), "trial.record") {
		t.Errorf("stdout exporter output missing span: %s", buf.String())
	}
}

func TestInit_PrometheusTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	cfg := DefaultConfig()
	cfg.MetricExporter = ExporterPrometheus
	cfg.Registerer = reg

	shutdown, err := Init(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer shutdown(context.Background())

	sink, err := NewOTelSink(&OTelConfig{MetricsEnabled: true})
	if err != nil {
		t.Fatalf("NewOTelSink failed: %v", err)
	}
	if err := sink.RecordTrial(context.Background(), testTrialData()); err != nil {
		t.Fatalf("RecordTrial failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "sortbench.prom")
	if err := WritePrometheusTextfile(path, reg); err != nil {
		t.Fatalf("WritePrometheusTextfile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(data), "sortbench_trial") {
		t.Errorf("textfile missing sortbench metrics:\n%s", data)
	}
}
