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
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/AleutianAI/sortbench/pkg/validation"
	"github.com/AleutianAI/sortbench/services/bench/trial"
)

var (
	// ErrNotFound is returned when an algorithm is not in the registry.
	ErrNotFound = errors.New("algorithm not found")

	// ErrAlreadyRegistered is returned when registering a duplicate name.
	ErrAlreadyRegistered = errors.New("algorithm already registered")

	// ErrInvalidAlgorithm is returned when registering a malformed algorithm.
	ErrInvalidAlgorithm = errors.New("invalid algorithm definition")
)

// Algorithm describes one benchmarkable sort.
type Algorithm struct {
	// Name is the lookup key, lowercase with underscores.
	Name string

	// Description is a one-line summary for listings.
	Description string

	// InPlace is true if the algorithm sorts its argument rather than
	// returning a new slice.
	InPlace bool

	// Sort is the plain implementation. Required.
	Sort func(values []float64) []float64

	// Counting is the instrumented implementation. Optional.
	Counting func(values []float64, c *Counter) []float64
}

// Validate checks that the algorithm is well-formed.
func (a *Algorithm) Validate() error {
	if err := validation.ValidateAlgorithmName(a.Name); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidAlgorithm, err)
	}
	if a.Sort == nil {
		return fmt.Errorf("%w: sort function is required for %s", ErrInvalidAlgorithm, a.Name)
	}
	return nil
}

// Instrumented reports whether the algorithm has a counting variant.
func (a *Algorithm) Instrumented() bool {
	return a.Counting != nil
}

// SortFunc returns the trial.SortFunc for this algorithm.
//
// Description:
//
//	When c is non-nil and the algorithm is instrumented, the counting variant
//	is returned and increments c. Otherwise the plain variant is returned.
func (a *Algorithm) SortFunc(c *Counter) trial.SortFunc {
	if c != nil && a.Counting != nil {
		counting := a.Counting
		return trial.Plain(func(values []float64) []float64 {
			return counting(values, c)
		})
	}
	return trial.Plain(a.Sort)
}

// Registry is a named collection of algorithms.
//
// Thread Safety: Safe for concurrent use via read-write mutex.
type Registry struct {
	mu         sync.RWMutex
	algorithms map[string]Algorithm
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		algorithms: make(map[string]Algorithm),
	}
}

// Register adds an algorithm.
//
// Outputs:
//   - error: ErrInvalidAlgorithm if malformed, ErrAlreadyRegistered if the
//     name is taken.
func (r *Registry) Register(a Algorithm) error {
	if err := a.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.algorithms[a.Name]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, a.Name)
	}
	r.algorithms[a.Name] = a
	return nil
}

// MustRegister registers an algorithm and panics on error.
// Only for use during initialization.
func (r *Registry) MustRegister(a Algorithm) {
	if err := r.Register(a); err != nil {
		panic(fmt.Sprintf("sorting: failed to register %s: %v", a.Name, err))
	}
}

// Get looks up an algorithm by name.
//
// Outputs:
//   - Algorithm: The algorithm, zero value if missing.
//   - error: ErrNotFound wrapped with the name if missing.
func (r *Registry) Get(name string) (Algorithm, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.algorithms[name]
	if !ok {
		return Algorithm{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return a, nil
}

// List returns all algorithms sorted by name.
func (r *Registry) List() []Algorithm {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]Algorithm, 0, len(r.algorithms))
	for _, a := range r.algorithms {
		list = append(list, a)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})
	return list
}

// Names returns all registered names, sorted.
func (r *Registry) Names() []string {
	list := r.List()
	names := make([]string, len(list))
	for i, a := range list {
		names[i] = a.Name
	}
	return names
}

// Count returns the number of registered algorithms.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.algorithms)
}

// -----------------------------------------------------------------------------
// Default Registry
// -----------------------------------------------------------------------------

// DefaultAlgorithm is the algorithm the CLI benchmarks when none is named.
const DefaultAlgorithm = "quicksort"

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the registry pre-populated with the built-in algorithms.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		r := NewRegistry()
		r.MustRegister(Algorithm{
			Name:        "quicksort",
			Description: "Lomuto quicksort, last-element pivot",
			InPlace:     true,
			Sort:        Quicksort,
			Counting:    CountingQuicksort,
		})
		r.MustRegister(Algorithm{
			Name:        "insertion",
			Description: "Insertion sort",
			InPlace:     true,
			Sort:        InsertionSort,
			Counting:    CountingInsertionSort,
		})
		r.MustRegister(Algorithm{
			Name:        "merge",
			Description: "Top-down merge sort into a new slice",
			Sort:        MergeSort,
			Counting:    CountingMergeSort,
		})
		r.MustRegister(Algorithm{
			Name:        "stdlib",
			Description: "slices.Sort (pattern-defeating quicksort)",
			InPlace:     true,
			Sort:        Stdlib,
		})
		defaultRegistry = r
	})
	return defaultRegistry
}
