// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package trial

import (
	"fmt"
	"time"
)

// Clock returns the current time. The default is time.Now, whose readings
// carry a monotonic component, so differences are immune to wall clock steps.
type Clock func() time.Time

// Option configures a Runner.
type Option func(*Runner)

// WithCounter attaches an operation counter that the sort under test
// increments. The Runner resets it before the sort and records its total in
// Outcome.CountedOps.
func WithCounter(c OpCounter) Option {
	return func(r *Runner) {
		r.counter = c
	}
}

// WithClock replaces the clock used to time the sort.
func WithClock(clock Clock) Option {
	return func(r *Runner) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// Runner executes one sort against one input exactly once.
//
// Description:
//
//	The baseline inventory is taken in NewRunner, before the sort can touch
//	the input. Run may be called once; later calls return ErrAlreadyRun.
//
// Thread Safety: Not safe for concurrent use.
type Runner struct {
	sort        SortFunc
	input       []float64
	expectedOps float64

	baseline    Inventory
	baselineLen int

	counter OpCounter
	clock   Clock
	ran     bool
}

// NewRunner creates a Runner for one trial.
//
// Description:
//
//	Stores the sort and input and computes the baseline inventory of the
//	input at its original length. The input slice is handed to the sort as
//	is; the Runner never modifies it.
//
// Inputs:
//   - sort: The sort under test. Must not be nil.
//   - input: The sequence to sort. May be empty.
//   - expectedOps: Reference operation figure (e.g. n*ln(n)), reported only.
//   - opts: Optional counter and clock.
//
// Outputs:
//   - *Runner: Ready to Run. Nil on error.
//   - error: ErrNilSort if sort is nil.
func NewRunner(sort SortFunc, input []float64, expectedOps float64, opts ...Option) (*Runner, error) {
	if sort == nil {
		return nil, ErrNilSort
	}

	r := &Runner{
		sort:        sort,
		input:       input,
		expectedOps: expectedOps,
		baseline:    TakeInventory(input),
		baselineLen: len(input),
		clock:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Baseline returns the inventory taken at construction.
func (r *Runner) Baseline() Inventory {
	return r.baseline
}

// Run invokes the sort once, times it and verifies its output.
//
// Description:
//
//	The timer brackets only the sort call. Verification happens after the
//	timer has stopped and does not count towards Elapsed.
//
// Outputs:
//   - Outcome: The verified result. Zero value on error.
//   - error: ErrAlgorithmFailure wrapping the sort's error, or ErrAlreadyRun.
//
// Limitations:
//   - A panic inside the sort is not recovered and unwinds through Run.
func (r *Runner) Run() (Outcome, error) {
	if r.ran {
		return Outcome{}, ErrAlreadyRun
	}
	r.ran = true

	if r.counter != nil {
		r.counter.Reset()
	}

	start := r.clock()
	sorted, err := r.sort(r.input)
	elapsed := r.clock().Sub(start)

	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %w", ErrAlgorithmFailure, err)
	}
	if elapsed < 0 {
		elapsed = 0
	}

	outcome := Outcome{
		Length:      r.baselineLen,
		Elapsed:     elapsed,
		Sorted:      IsSorted(sorted),
		Destructive: IsDestructive(r.baseline, r.baselineLen, sorted),
		ReportedOps: r.expectedOps,
	}
	if r.counter != nil {
		outcome.CountedOps = r.counter.Total()
		outcome.Counted = true
	}
	return outcome, nil
}
