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
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrInvalidConfig is returned when an experiment cannot start.
	ErrInvalidConfig = errors.New("invalid experiment configuration")
)

// configValidate is the validator instance for experiment configuration.
var configValidate = validator.New()

// -----------------------------------------------------------------------------
// Categories
// -----------------------------------------------------------------------------

// Category names an input distribution.
type Category string

const (
	// CategoryRandom is a sequence of independent |N(0,1)| draws.
	CategoryRandom Category = "random"

	// CategorySemiSorted is a random sequence whose prefix up to the split
	// point has been sorted ascending.
	CategorySemiSorted Category = "semi_sorted"
)

// AllCategories returns every supported category in run order.
func AllCategories() []Category {
	return []Category{CategoryRandom, CategorySemiSorted}
}

// String implements fmt.Stringer.
func (c Category) String() string {
	return string(c)
}

// -----------------------------------------------------------------------------
// Configuration
// -----------------------------------------------------------------------------

// Config configures an experiment.
//
// Description:
//
//	Config is a plain value. It is copied into the Report so a stored run
//	records exactly what produced it.
type Config struct {
	// Loops is the number of trials per category. Must be at least 1.
	Loops int `yaml:"loops" json:"loops" validate:"gte=1"`

	// SequenceLength is the length of every generated input.
	SequenceLength int `yaml:"sequence_length" json:"sequence_length" validate:"gte=0"`

	// Seed seeds the input generator and the split-point draw.
	Seed uint64 `yaml:"seed" json:"seed"`

	// SplitPoint fixes the semi-sorted split point. When nil, a split point
	// is drawn per loop from the seeded splitter.
	SplitPoint *int `yaml:"split_point,omitempty" json:"split_point,omitempty" validate:"omitempty,gte=0"`

	// ExpectedOps is the figure reported as each trial's operation count.
	// Zero means round(n*ln(n)) for n = SequenceLength.
	ExpectedOps float64 `yaml:"expected_ops" json:"expected_ops" validate:"gte=0"`

	// Categories lists the distributions to run, in order. Nil means every
	// category; an explicitly empty list is rejected.
	Categories []Category `yaml:"categories" json:"categories" validate:"min=1,unique,dive,oneof=random semi_sorted"`

	// ParallelCategories runs the categories of one loop concurrently.
	ParallelCategories bool `yaml:"parallel_categories" json:"parallel_categories"`
}

// DefaultConfig returns one loop over 10000 elements in both categories.
func DefaultConfig() Config {
	return Config{
		Loops:          1,
		SequenceLength: 10000,
		Categories:     AllCategories(),
	}
}

// WithDefaults returns c with a nil Categories replaced by AllCategories.
func (c Config) WithDefaults() Config {
	if c.Categories == nil {
		c.Categories = AllCategories()
	}
	return c
}

// Validate checks the configuration after applying WithDefaults.
//
// Outputs:
//   - error: nil if valid, otherwise ErrInvalidConfig wrapping the reason.
func (c Config) Validate() error {
	c = c.WithDefaults()
	if err := configValidate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if math.IsInf(c.ExpectedOps, 0) {
		return fmt.Errorf("%w: expected_ops must be finite", ErrInvalidConfig)
	}
	if c.SplitPoint != nil && *c.SplitPoint > c.SequenceLength {
		return fmt.Errorf("%w: split_point %d exceeds sequence_length %d",
			ErrInvalidConfig, *c.SplitPoint, c.SequenceLength)
	}
	return nil
}

// ExpectedFigure returns the operation figure every trial reports.
//
// Description:
//
//	ExpectedOps when set, otherwise round(n*ln(n)). Lengths below 2 yield 0.
func (c Config) ExpectedFigure() float64 {
	if c.ExpectedOps > 0 {
		return c.ExpectedOps
	}
	return ExpectedOps(c.SequenceLength)
}

// ExpectedOps returns round(n*ln(n)), the comparison count expected of an
// O(n log n) sort. Lengths below 2 yield 0.
func ExpectedOps(n int) float64 {
	if n < 2 {
		return 0
	}
	f := float64(n)
	return math.Round(f * math.Log(f))
}
