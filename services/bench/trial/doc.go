// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package trial runs a single sorting function against a single input sequence
// and verifies the result without trusting the sort.
//
// # Overview
//
// A Runner owns exactly one input sequence. At construction it takes a
// baseline Inventory of the input so that an in-place sort cannot destroy the
// evidence needed to detect lost or duplicated values. Run invokes the sort
// exactly once, times the call on a monotonic clock, and checks:
//
//   - Sortedness: every adjacent pair satisfies a[i] <= a[i+1].
//   - Non-destructiveness: the output has the original length and the same
//     multiplicity for every value.
//
// Verification failures are data. They are reported as flags on Outcome and
// never returned as errors. The only error Run returns for a well-formed Runner
// is ErrAlgorithmFailure, when the sort itself reports one. A panicking sort is
// not recovered.
//
// # Usage
//
//	runner, err := trial.NewRunner(trial.Plain(sorting.Quicksort), values, 92103)
//	if err != nil {
//	    return err
//	}
//	outcome, err := runner.Run()
//	if err != nil {
//	    return err
//	}
//	fmt.Println(outcome.Elapsed, outcome.Sorted, outcome.Destructive)
//
// # Thread Safety
//
// A Runner is used by one goroutine. Distinct Runners share nothing and may run
// concurrently.
package trial
