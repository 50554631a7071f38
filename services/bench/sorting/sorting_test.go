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

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/sortbench/pkg/validation"
	"github.com/AleutianAI/sortbench/services/bench/trial"
)

func randomValues(seed uint64, n int) []float64 {
	rng := rand.New(rand.NewPCG(seed, seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(rng.IntN(n/2 + 1))
	}
	return out
}

func TestAlgorithms_Sort(t *testing.T) {
	inputs := map[string][]float64{
		"empty":      {},
		"single":     {42},
		"sorted":     {1, 2, 3, 4, 5},
		"reversed":   {5, 4, 3, 2, 1},
		"duplicates": {3, 1, 3, 1, 2, 2},
		"negatives":  {-0.5, 3, -7, 0, 2.25},
		"random":     randomValues(7, 500),
	}

	for _, a := range Default().List() {
		for name, input := range inputs {
			t.Run(a.Name+"/"+name, func(t *testing.T) {
				want := slices.Clone(input)
				slices.Sort(want)

				got := a.Sort(slices.Clone(input))
				assert.Equal(t, want, got)

				if a.Counting != nil {
					c := NewCounter()
					got = a.Counting(slices.Clone(input), c)
					assert.Equal(t, want, got)
					if len(input) > 1 {
						assert.Positive(t, c.Comparisons())
					}
				}
			})
		}
	}
}

func TestMergeSort_DoesNotMutateInput(t *testing.T) {
	input := []float64{3, 1, 2}
	out := MergeSort(input)
	assert.Equal(t, []float64{3, 1, 2}, input)
	assert.Equal(t, []float64{1, 2, 3}, out)
}

func TestQuicksort_LargeSortedInput(t *testing.T) {
	// Worst case for a last-element pivot; must not exhaust the stack.
	n := 20000
	input := make([]float64, n)
	for i := range input {
		input[i] = float64(i)
	}
	out := Quicksort(input)
	assert.True(t, slices.IsSorted(out))
}

func TestCounter(t *testing.T) {
	c := NewCounter()
	assert.True(t, c.Compare(1, 2))
	assert.False(t, c.Compare(2, 2))
	assert.True(t, c.LessOrEqual(2, 2))
	c.Move(3)

	assert.Equal(t, int64(3), c.Comparisons())
	assert.Equal(t, int64(3), c.Moves())
	assert.Equal(t, int64(6), c.Total())

	c.Reset()
	assert.Zero(t, c.Total())

	var nilCounter *Counter
	assert.True(t, nilCounter.Compare(1, 2), "nil counter still compares")
	nilCounter.Move(1)
}

func TestCounter_SatisfiesOpCounter(t *testing.T) {
	var _ trial.OpCounter = (*Counter)(nil)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Algorithm{Name: "a", Sort: Stdlib}))

	err := r.Register(Algorithm{Name: "a", Sort: Stdlib})
	assert.ErrorIs(t, err, ErrAlreadyRegistered)

	err = r.Register(Algorithm{Name: "b"})
	assert.ErrorIs(t, err, ErrInvalidAlgorithm)

	err = r.Register(Algorithm{Sort: Stdlib})
	assert.ErrorIs(t, err, ErrInvalidAlgorithm)

	err = r.Register(Algorithm{Name: "Quick Sort", Sort: Stdlib})
	assert.ErrorIs(t, err, ErrInvalidAlgorithm)
	assert.ErrorIs(t, err, validation.ErrInvalid)

	_, err = r.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	a, err := r.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "a", a.Name)
	assert.Equal(t, 1, r.Count())
}

func TestRegistry_MustRegisterPanics(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(Algorithm{Name: "a", Sort: Stdlib})
	assert.Panics(t, func() {
		r.MustRegister(Algorithm{Name: "a", Sort: Stdlib})
	})
}

func TestDefault(t *testing.T) {
	names := Default().Names()
	assert.Equal(t, []string{"insertion", "merge", "quicksort", "stdlib"}, names)
	assert.Same(t, Default(), Default())

	a, err := Default().Get(DefaultAlgorithm)
	require.NoError(t, err)
	assert.True(t, a.Instrumented())
	assert.True(t, a.InPlace)
}

func TestAlgorithm_SortFunc(t *testing.T) {
	a, err := Default().Get("quicksort")
	require.NoError(t, err)

	t.Run("counting variant feeds the runner", func(t *testing.T) {
		c := NewCounter()
		r, err := trial.NewRunner(a.SortFunc(c), []float64{4, 3, 2, 1}, 5, trial.WithCounter(c))
		require.NoError(t, err)

		outcome, err := r.Run()
		require.NoError(t, err)
		assert.True(t, outcome.Sorted)
		assert.False(t, outcome.Destructive)
		assert.True(t, outcome.Counted)
		assert.Equal(t, c.Total(), outcome.CountedOps)
		assert.Positive(t, outcome.CountedOps)
	})

	t.Run("plain variant without counter", func(t *testing.T) {
		out, err := a.SortFunc(nil)([]float64{2, 1})
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2}, out)
	})

	t.Run("uninstrumented algorithm ignores counter", func(t *testing.T) {
		std, err := Default().Get("stdlib")
		require.NoError(t, err)
		c := NewCounter()
		out, err := std.SortFunc(c)([]float64{2, 1})
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2}, out)
		assert.Zero(t, c.Total())
	})
}
