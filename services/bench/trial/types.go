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
	"errors"
	"time"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrNilSort is returned when a Runner is constructed without a sort.
	ErrNilSort = errors.New("sort function must not be nil")

	// ErrAlgorithmFailure wraps an error reported by the sort under test.
	ErrAlgorithmFailure = errors.New("algorithm failure")

	// ErrAlreadyRun is returned when Run is called a second time.
	ErrAlreadyRun = errors.New("trial already run")
)

// -----------------------------------------------------------------------------
// Sort Function
// -----------------------------------------------------------------------------

// SortFunc is the sort under test.
//
// Description:
//
//	A SortFunc receives the trial's input sequence as its only argument. It may
//	sort in place and return the same slice, allocate and return a new slice,
//	or both. The returned slice is what gets verified.
//
//	A non-nil error is treated as an algorithm failure: the trial produces no
//	Outcome and the error propagates to the caller.
type SortFunc func(values []float64) ([]float64, error)

// Plain adapts a sort that cannot fail to a SortFunc.
//
// Example:
//
//	fn := trial.Plain(func(v []float64) []float64 {
//	    slices.Sort(v)
//	    return v
//	})
func Plain(fn func(values []float64) []float64) SortFunc {
	if fn == nil {
		return nil
	}
	return func(values []float64) ([]float64, error) {
		return fn(values), nil
	}
}

// OpCounter is an operation counter shared with an instrumented sort.
//
// The Runner resets it immediately before the sort and reads it immediately
// after, so a counter must not be shared between concurrently running trials.
type OpCounter interface {
	Reset()
	Total() int64
}

// -----------------------------------------------------------------------------
// Outcome
// -----------------------------------------------------------------------------

// Outcome is the verified result of one trial.
//
// Description:
//
//	Outcome is a plain value. It is produced once by Runner.Run and never
//	modified afterwards.
//
// Thread Safety: Safe for concurrent read access.
type Outcome struct {
	// Length is the input length the trial was constructed with.
	Length int `json:"length"`

	// Elapsed is the monotonic wall time of the single sort invocation.
	Elapsed time.Duration `json:"elapsed_ns"`

	// Sorted is true if every adjacent pair of the output is in order.
	Sorted bool `json:"sorted"`

	// Destructive is true if the output does not preserve the input multiset.
	Destructive bool `json:"destructive"`

	// ReportedOps is the caller-supplied expected operation figure.
	// It is passed through, not measured.
	ReportedOps float64 `json:"reported_ops"`

	// CountedOps is the number of operations an instrumented sort reported.
	// Zero unless Counted is true.
	CountedOps int64 `json:"counted_ops,omitempty"`

	// Counted is true if the trial ran with an OpCounter.
	Counted bool `json:"counted"`
}

// ElapsedNanoseconds returns the elapsed time as integer nanoseconds.
func (o Outcome) ElapsedNanoseconds() int64 {
	return o.Elapsed.Nanoseconds()
}

// ElapsedMilliseconds returns the elapsed time truncated to whole milliseconds.
func (o Outcome) ElapsedMilliseconds() int64 {
	return o.Elapsed.Milliseconds()
}

// Passed is true if the output is sorted and non-destructive.
func (o Outcome) Passed() bool {
	return o.Sorted && !o.Destructive
}
