// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package generate produces the input sequences the harness sorts.
//
// Two categories are supported. Random sequences are absolute values of
// standard normal draws. Semi-sorted sequences take a random sequence and sort
// a prefix [0, split) in place, leaving [split, n) as drawn. The split point
// comes from a Splitter so experiments can be replayed exactly from a seed.
package generate

import (
	"math"
	"math/rand/v2"
	"slices"
)

// Generator produces random sequences of a requested length.
type Generator interface {
	Random(n int) []float64
}

// Normal draws |N(0,1)| values from a seeded PCG source.
//
// Thread Safety: Not safe for concurrent use.
type Normal struct {
	rng *rand.Rand
}

// NewNormal creates a Normal generator. Equal seeds yield equal sequences.
func NewNormal(seed uint64) *Normal {
	return &Normal{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Random returns n values. A non-positive n yields an empty slice.
func (g *Normal) Random(n int) []float64 {
	if n <= 0 {
		return []float64{}
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Abs(g.rng.NormFloat64())
	}
	return out
}

// SemiSorted returns a copy of values whose prefix [0, split) is sorted in
// ascending order and whose remainder is unchanged.
//
// Description:
//
//	split is clamped to [0, len(values)], so the result always has the same
//	length and multiset as values. values itself is not modified.
//
// Example:
//
//	SemiSorted([]float64{3, 1, 2, 0}, 3) // [1 2 3 0]
func SemiSorted(values []float64, split int) []float64 {
	out := slices.Clone(values)
	if out == nil {
		out = []float64{}
	}
	split = clamp(split, len(out))
	slices.Sort(out[:split])
	return out
}

// -----------------------------------------------------------------------------
// Splitters
// -----------------------------------------------------------------------------

// Splitter chooses the semi-sorted split point for a sequence of length n.
// Results are in [0, n].
type Splitter interface {
	Split(n int) int
}

// RandomSplitter draws a uniform split point from a seeded source on every
// call.
//
// Thread Safety: Not safe for concurrent use.
type RandomSplitter struct {
	rng *rand.Rand
}

// NewRandomSplitter creates a RandomSplitter.
func NewRandomSplitter(seed uint64) *RandomSplitter {
	return &RandomSplitter{
		rng: rand.New(rand.NewPCG(seed, ^seed)),
	}
}

// Split returns a point in [0, n].
func (s *RandomSplitter) Split(n int) int {
	if n <= 0 {
		return 0
	}
	return s.rng.IntN(n + 1)
}

// FixedSplitter always returns the same split point, clamped to [0, n].
type FixedSplitter int

// Split returns the fixed point clamped to [0, n].
func (f FixedSplitter) Split(n int) int {
	return clamp(int(f), n)
}

func clamp(p, n int) int {
	if p < 0 {
		return 0
	}
	if p > n {
		return n
	}
	return p
}
