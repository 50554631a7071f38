// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package report

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/AleutianAI/sortbench/services/bench/experiment"
	"github.com/AleutianAI/sortbench/services/bench/trial"
)

// Measurement names written by InfluxWriter.
const (
	MeasurementTrial    = "sortbench_trials"
	MeasurementCategory = "sortbench_categories"
)

// ErrInvalidInfluxConfig is returned by OpenInflux for an incomplete config.
var ErrInvalidInfluxConfig = errors.New("invalid influxdb configuration")

// InfluxConfig locates an InfluxDB v2 bucket.
type InfluxConfig struct {
	URL     string        `yaml:"url" json:"url"`
	Token   string        `yaml:"token" json:"-"`
	Org     string        `yaml:"org" json:"org"`
	Bucket  string        `yaml:"bucket" json:"bucket"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// Enabled is true when a URL is configured.
func (c InfluxConfig) Enabled() bool {
	return c.URL != ""
}

// PointWriter is the part of api.WriteAPIBlocking InfluxWriter uses.
type PointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// InfluxWriter writes experiment reports to InfluxDB.
//
// Description:
//
//	Each trial becomes one point in MeasurementTrial and each category one
//	point in MeasurementCategory, tagged with run_id, algorithm and
//	category. All points of a report are written in one blocking call.
//
// Thread Safety: Safe for concurrent use if the PointWriter is.
type InfluxWriter struct {
	writer  PointWriter
	client  influxdb2.Client
	timeout time.Duration
}

// NewInfluxWriter wraps an existing point writer.
func NewInfluxWriter(w PointWriter) *InfluxWriter {
	return &InfluxWriter{writer: w, timeout: 10 * time.Second}
}

// OpenInflux creates a client for cfg and a blocking writer on its bucket.
//
// Outputs:
//   - *InfluxWriter: Call Close when done.
//   - error: ErrInvalidInfluxConfig if URL, Org or Bucket is empty.
func OpenInflux(cfg InfluxConfig) (*InfluxWriter, error) {
	if cfg.URL == "" || cfg.Org == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: url, org and bucket are required", ErrInvalidInfluxConfig)
	}
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	w := NewInfluxWriter(client.WriteAPIBlocking(cfg.Org, cfg.Bucket))
	w.client = client
	if cfg.Timeout > 0 {
		w.timeout = cfg.Timeout
	}
	return w, nil
}

// ReportTrial implements Reporter. Trials are written with the report.
func (i *InfluxWriter) ReportTrial(experiment.Category, int, trial.Outcome) error {
	return nil
}

// Report implements Reporter with the writer's timeout.
func (i *InfluxWriter) Report(r *experiment.Report) error {
	ctx, cancel := context.WithTimeout(context.Background(), i.timeout)
	defer cancel()
	return i.WriteReport(ctx, r)
}

// WriteReport writes every trial and category point of r.
func (i *InfluxWriter) WriteReport(ctx context.Context, r *experiment.Report) error {
	points := Points(r)
	if len(points) == 0 {
		return nil
	}
	if err := i.writer.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("write %d points to influxdb: %w", len(points), err)
	}
	return nil
}

// Close releases the client created by OpenInflux.
func (i *InfluxWriter) Close() {
	if i.client != nil {
		i.client.Close()
	}
}

// Points converts a report into InfluxDB points. Trial points are stamped
// StartedAt plus their loop index in nanoseconds so they stay distinct.
func Points(r *experiment.Report) []*write.Point {
	var points []*write.Point
	for _, res := range r.Categories {
		for loop, o := range res.Outcomes {
			p := influxdb2.NewPointWithMeasurement(MeasurementTrial).
				AddTag("run_id", r.RunID).
				AddTag("algorithm", r.Algorithm).
				AddTag("category", res.Category.String()).
				AddTag("loop", strconv.Itoa(loop)).
				AddField("length", o.Length).
				AddField("elapsed_ns", o.ElapsedNanoseconds()).
				AddField("sorted", o.Sorted).
				AddField("destructive", o.Destructive).
				AddField("reported_ops", o.ReportedOps).
				SetTime(r.StartedAt.Add(time.Duration(loop)))
			if o.Counted {
				p.AddField("counted_ops", o.CountedOps)
			}
			points = append(points, p)
		}

		s := res.Stats
		points = append(points, influxdb2.NewPointWithMeasurement(MeasurementCategory).
			AddTag("run_id", r.RunID).
			AddTag("algorithm", r.Algorithm).
			AddTag("category", res.Category.String()).
			AddField("trials", s.Trials).
			AddField("mean_time_ns", s.MeanTimeNanoseconds).
			AddField("min_time_ns", s.MinTime.Nanoseconds()).
			AddField("max_time_ns", s.MaxTime.Nanoseconds()).
			AddField("mean_reported_ops", s.MeanReportedOps).
			AddField("mean_counted_ops", s.MeanCountedOps).
			AddField("unsorted_trials", s.UnsortedTrials).
			AddField("destructive_trials", s.DestructiveTrials).
			SetTime(r.StartedAt))
	}
	return points
}
