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
	"encoding/json"
	"fmt"
	"io"

	"github.com/AleutianAI/sortbench/services/bench/experiment"
	"github.com/AleutianAI/sortbench/services/bench/trial"
)

// JSONReporter writes the final report as a single JSON document.
type JSONReporter struct {
	w      io.Writer
	pretty bool
}

// NewJSONReporter creates a JSONReporter. With pretty set, output is
// indented by two spaces.
func NewJSONReporter(w io.Writer, pretty bool) *JSONReporter {
	return &JSONReporter{w: w, pretty: pretty}
}

// ReportTrial implements Reporter. Outcomes are written with the report.
func (j *JSONReporter) ReportTrial(experiment.Category, int, trial.Outcome) error {
	return nil
}

// Report implements Reporter.
func (j *JSONReporter) Report(r *experiment.Report) error {
	enc := json.NewEncoder(j.w)
	if j.pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}
