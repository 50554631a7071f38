// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package report renders experiment results.
//
// A Reporter receives each trial outcome as it completes and the final
// experiment.Report once the run is over. Console output reproduces the
// classic per-trial block:
//
//	Time: 1834112 ns (1 ms)
//	Is sorted: yes
//	Is destructive: no
//	O(): 92103 (expected 92103 ops)
//
// followed by per-category averages. JSON and CSV reporters write only the
// final report. InfluxWriter sends trial and category points to InfluxDB.
package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/AleutianAI/sortbench/services/bench/experiment"
	"github.com/AleutianAI/sortbench/services/bench/trial"
)

// ErrUnknownFormat is returned by NewReporter for an unsupported format.
var ErrUnknownFormat = errors.New("unknown report format")

// Format names an output format.
type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
	FormatCSV     Format = "csv"
)

// Formats returns every supported format.
func Formats() []Format {
	return []Format{FormatConsole, FormatJSON, FormatCSV}
}

// Reporter consumes experiment results.
type Reporter interface {
	// ReportTrial is called once per outcome, in run order.
	ReportTrial(category experiment.Category, loop int, outcome trial.Outcome) error

	// Report is called once with the completed report.
	Report(r *experiment.Report) error
}

// NewReporter builds the reporter for format writing to w.
//
// Inputs:
//   - format: One of Formats(). Case-insensitive.
//   - w: Destination. Must not be nil.
//   - verbose: Console only; print every trial block.
//
// Outputs:
//   - Reporter: Never nil on success.
//   - error: ErrUnknownFormat.
func NewReporter(format Format, w io.Writer, verbose bool) (Reporter, error) {
	switch Format(strings.ToLower(string(format))) {
	case FormatConsole, "":
		return NewConsoleReporter(w, verbose), nil
	case FormatJSON:
		return NewJSONReporter(w, true), nil
	case FormatCSV:
		return NewCSVReporter(w), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Multi fans out to several reporters. Every reporter is called; errors are
// joined.
type Multi []Reporter

// ReportTrial implements Reporter.
func (m Multi) ReportTrial(category experiment.Category, loop int, outcome trial.Outcome) error {
	var errs []error
	for _, r := range m {
		if err := r.ReportTrial(category, loop, outcome); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Report implements Reporter.
func (m Multi) Report(r *experiment.Report) error {
	var errs []error
	for _, rep := range m {
		if err := rep.Report(r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// categoryTitle is the heading used for a category in human-readable output.
func categoryTitle(c experiment.Category) string {
	switch c {
	case experiment.CategoryRandom:
		return "Fully random list"
	case experiment.CategorySemiSorted:
		return "Semi sorted list"
	default:
		return string(c)
	}
}

// YesNo renders b the way every human-readable report does.
func YesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
