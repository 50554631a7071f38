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
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/AleutianAI/sortbench/services/bench/experiment"
	"github.com/AleutianAI/sortbench/services/bench/trial"
)

// CSVHeader is the header row written by CSVReporter.
var CSVHeader = []string{
	"run_id",
	"algorithm",
	"category",
	"sequence_length",
	"trials",
	"mean_time_ns",
	"mean_time_ms",
	"min_time_ns",
	"max_time_ns",
	"mean_reported_ops",
	"mean_counted_ops",
	"unsorted_trials",
	"destructive_trials",
}

// CSVReporter writes one row per category.
type CSVReporter struct {
	w *csv.Writer
}

// NewCSVReporter creates a CSVReporter.
func NewCSVReporter(w io.Writer) *CSVReporter {
	return &CSVReporter{w: csv.NewWriter(w)}
}

// ReportTrial implements Reporter. Trials are not written individually.
func (c *CSVReporter) ReportTrial(experiment.Category, int, trial.Outcome) error {
	return nil
}

// Report implements Reporter.
func (c *CSVReporter) Report(r *experiment.Report) error {
	if err := c.w.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, res := range r.Categories {
		s := res.Stats
		row := []string{
			r.RunID,
			r.Algorithm,
			res.Category.String(),
			strconv.Itoa(r.Config.SequenceLength),
			strconv.Itoa(s.Trials),
			strconv.FormatFloat(s.MeanTimeNanoseconds, 'f', 0, 64),
			strconv.FormatFloat(s.MeanTimeNanoseconds*1e-6, 'f', 2, 64),
			strconv.FormatInt(s.MinTime.Nanoseconds(), 10),
			strconv.FormatInt(s.MaxTime.Nanoseconds(), 10),
			strconv.FormatFloat(s.MeanReportedOps, 'f', 0, 64),
			strconv.FormatFloat(s.MeanCountedOps, 'f', 0, 64),
			strconv.Itoa(s.UnsortedTrials),
			strconv.Itoa(s.DestructiveTrials),
		}
		if err := c.w.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	c.w.Flush()
	return c.w.Error()
}
