// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation for identifiers that end up
// in storage keys or lookup tables.
//
// Run IDs and algorithm names are user-provided on the command line and are
// used to build Badger keys and registry entries. Validating them keeps a
// malformed argument from addressing the wrong key range.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalid is returned for any identifier that fails validation.
var ErrInvalid = errors.New("invalid identifier")

// algorithmPattern matches registry names such as "quicksort" or "merge-3way".
// Lowercase letters, digits, hyphens and underscores; max 32 characters.
var algorithmPattern = regexp.MustCompile(`^[a-z][a-z0-9_\-]{0,31}$`)

// ValidateRunID checks that id is a canonical UUID string.
//
// Description:
//
//	Accepts only the 36-character hyphenated form produced by
//	uuid.NewString. Braced, URN and unhyphenated forms are rejected so
//	that one run has exactly one key.
//
// Inputs:
//   - id: The run ID to check.
//
// Outputs:
//   - error: ErrInvalid wrapped with the offending value.
func ValidateRunID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: run ID cannot be empty", ErrInvalid)
	}
	if len(id) != 36 {
		return fmt.Errorf("%w: run ID %q is not a UUID", ErrInvalid, id)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: run ID %q: %w", ErrInvalid, id, err)
	}
	if parsed.String() != id {
		return fmt.Errorf("%w: run ID %q must be lowercase", ErrInvalid, id)
	}
	return nil
}

// SanitizeRunID trims and lowercases id, then validates it.
//
//	safeID, err := validation.SanitizeRunID(args[0])
//	if err != nil {
//	    return err
//	}
func SanitizeRunID(id string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(id))
	if err := ValidateRunID(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}

// ValidateAlgorithmName checks a sort algorithm registry name.
func ValidateAlgorithmName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: algorithm name cannot be empty", ErrInvalid)
	}
	if !algorithmPattern.MatchString(name) {
		return fmt.Errorf("%w: algorithm name %q (must be 1-32 lowercase alphanumeric chars, hyphens, or underscores)", ErrInvalid, name)
	}
	return nil
}

// ValidateAlgorithmNames validates multiple names.
// Returns an error listing all invalid names if any fail validation.
func ValidateAlgorithmNames(names []string) error {
	var invalid []string
	for _, n := range names {
		if err := ValidateAlgorithmName(n); err != nil {
			invalid = append(invalid, n)
		}
	}
	if len(invalid) > 0 {
		return fmt.Errorf("%w: algorithm names %q", ErrInvalid, invalid)
	}
	return nil
}
