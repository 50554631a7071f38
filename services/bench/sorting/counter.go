// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package sorting

import "sync/atomic"

// Counter tallies the comparisons and element moves performed by a sort.
//
// Thread Safety: Safe for concurrent use. The counts are atomics so a
// parallel sort can share one Counter, but a Counter should only ever be
// attached to one trial at a time.
type Counter struct {
	comparisons atomic.Int64
	moves       atomic.Int64
}

// NewCounter returns a zeroed Counter.
func NewCounter() *Counter {
	return &Counter{}
}

// Compare records one comparison and returns a < b.
// A nil Counter records nothing.
func (c *Counter) Compare(a, b float64) bool {
	if c != nil {
		c.comparisons.Add(1)
	}
	return a < b
}

// LessOrEqual records one comparison and returns a <= b.
func (c *Counter) LessOrEqual(a, b float64) bool {
	if c != nil {
		c.comparisons.Add(1)
	}
	return a <= b
}

// Move records n element writes.
func (c *Counter) Move(n int) {
	if c != nil {
		c.moves.Add(int64(n))
	}
}

// Comparisons returns the number of comparisons recorded.
func (c *Counter) Comparisons() int64 {
	return c.comparisons.Load()
}

// Moves returns the number of element writes recorded.
func (c *Counter) Moves() int64 {
	return c.moves.Load()
}

// Total returns comparisons plus moves.
func (c *Counter) Total() int64 {
	return c.Comparisons() + c.Moves()
}

// Reset zeroes both counts.
func (c *Counter) Reset() {
	c.comparisons.Store(0)
	c.moves.Store(0)
}
