// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package experiment drives repeated sort trials over two input
// distributions and folds the outcomes into per-category statistics.
//
// # Overview
//
// An Experiment owns one sort function and a Config. Run executes Loops
// rounds; each round draws a split point, builds one fresh input per
// category (a random sequence and a semi-sorted one), runs a single
// trial.Runner on each and keeps the outcome. When every round has
// completed, the outcomes of each category are reduced by Fold.
//
// # Failure Model
//
//   - An invalid Config fails with ErrInvalidConfig before any trial runs.
//   - A sort that returns an error stops the experiment. Run returns the
//     wrapped trial.ErrAlgorithmFailure and no Report.
//   - A cancelled context stops the experiment between trials, again with
//     no Report.
//   - A trial whose output is unsorted or destructive is a normal outcome.
//     It is counted in CategoryStats, not returned as an error.
//
// # Usage
//
//	cfg := experiment.DefaultConfig()
//	cfg.Loops = 5
//	exp := experiment.New(cfg, trial.Plain(sorting.Quicksort),
//	    experiment.WithName("quicksort"))
//	report, err := exp.Run(ctx)
package experiment
