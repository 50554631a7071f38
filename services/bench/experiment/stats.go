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
	"time"

	"github.com/AleutianAI/sortbench/services/bench/trial"
)

// CategoryStats summarises the outcomes of one category.
type CategoryStats struct {
	// Trials is the number of outcomes folded.
	Trials int `json:"trials"`

	// MeanTimeNanoseconds is the arithmetic mean of the elapsed times.
	MeanTimeNanoseconds float64 `json:"mean_time_ns"`

	// MeanReportedOps is the arithmetic mean of the reported operation figures.
	MeanReportedOps float64 `json:"mean_reported_ops"`

	// MeanCountedOps is the mean over counted outcomes only. Zero when no
	// outcome was counted.
	MeanCountedOps float64 `json:"mean_counted_ops,omitempty"`

	// MinTime and MaxTime bound the elapsed times.
	MinTime time.Duration `json:"min_time_ns"`
	MaxTime time.Duration `json:"max_time_ns"`

	// UnsortedTrials counts outcomes whose output was not sorted.
	UnsortedTrials int `json:"unsorted_trials"`

	// DestructiveTrials counts outcomes that did not preserve the input.
	DestructiveTrials int `json:"destructive_trials"`
}

// MeanTime returns MeanTimeNanoseconds as a Duration, truncated.
func (s CategoryStats) MeanTime() time.Duration {
	return time.Duration(s.MeanTimeNanoseconds)
}

// Fold reduces outcomes into CategoryStats.
//
// Description:
//
//	Fold is pure. An empty slice yields the zero CategoryStats. Means are
//	sums divided by the number of outcomes.
func Fold(outcomes []trial.Outcome) CategoryStats {
	var stats CategoryStats
	if len(outcomes) == 0 {
		return stats
	}

	var (
		sumTime    float64
		sumOps     float64
		sumCounted float64
		counted    int
	)
	stats.MinTime = outcomes[0].Elapsed
	for _, o := range outcomes {
		sumTime += float64(o.Elapsed.Nanoseconds())
		sumOps += o.ReportedOps
		if o.Counted {
			sumCounted += float64(o.CountedOps)
			counted++
		}
		stats.MinTime = min(stats.MinTime, o.Elapsed)
		stats.MaxTime = max(stats.MaxTime, o.Elapsed)
		if !o.Sorted {
			stats.UnsortedTrials++
		}
		if o.Destructive {
			stats.DestructiveTrials++
		}
	}

	n := float64(len(outcomes))
	stats.Trials = len(outcomes)
	stats.MeanTimeNanoseconds = sumTime / n
	stats.MeanReportedOps = sumOps / n
	if counted > 0 {
		stats.MeanCountedOps = sumCounted / float64(counted)
	}
	return stats
}
