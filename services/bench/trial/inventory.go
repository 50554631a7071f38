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

import "math"

// canonicalNaN is the single key shared by every NaN payload.
var canonicalNaN = math.Float64bits(math.NaN())

// Inventory maps a value to the number of times it occurs in a sequence.
//
// Description:
//
//	Keys are canonical bit patterns rather than float64 values so that NaN
//	can be counted at all (NaN != NaN would make every NaN a fresh map key).
//	Positive and negative zero share a key, and all NaN payloads share a key.
//
//	An Inventory is order independent: two sequences have equal inventories
//	iff one is a permutation of the other.
type Inventory map[uint64]int

// canonicalKey returns the inventory key for v.
func canonicalKey(v float64) uint64 {
	switch {
	case v == 0:
		return 0
	case math.IsNaN(v):
		return canonicalNaN
	default:
		return math.Float64bits(v)
	}
}

// TakeInventory counts the occurrences of every value in values.
//
// Description:
//
//	Builds a fresh Inventory. The input is only read.
//
// Inputs:
//   - values: The sequence to count. May be nil or empty.
//
// Outputs:
//   - Inventory: Never nil. Empty for an empty sequence.
//
// Example:
//
//	inv := TakeInventory([]float64{3, 1, 3})
//	inv.Count(3) // 2
func TakeInventory(values []float64) Inventory {
	inv := make(Inventory, len(values))
	for _, v := range values {
		inv[canonicalKey(v)]++
	}
	return inv
}

// Count returns how many times v occurs.
func (inv Inventory) Count(v float64) int {
	return inv[canonicalKey(v)]
}

// Total returns the number of elements counted.
func (inv Inventory) Total() int {
	total := 0
	for _, n := range inv {
		total += n
	}
	return total
}

// Equal reports whether inv and other hold the same multiplicity for every key
// present in either of them.
func (inv Inventory) Equal(other Inventory) bool {
	for key, n := range inv {
		if other[key] != n {
			return false
		}
	}
	for key, n := range other {
		if inv[key] != n {
			return false
		}
	}
	return true
}

// IsSorted reports whether every adjacent pair satisfies values[i] <= values[i+1].
//
// Description:
//
//	Sequences of length 0 or 1 are sorted. The scan stops at the last pair and
//	never reads past the end. A NaN compares false against everything, so any
//	NaN adjacent to another element makes the sequence unsorted.
func IsSorted(values []float64) bool {
	for i := 0; i+1 < len(values); i++ {
		if !(values[i] <= values[i+1]) {
			return false
		}
	}
	return true
}

// IsDestructive reports whether out fails to preserve the multiset described by
// baseline.
//
// Inputs:
//   - baseline: Inventory of the original input.
//   - baselineLen: Length of the original input.
//   - out: The sequence returned by the sort.
//
// Outputs:
//   - bool: true if the length changed or any value's multiplicity changed.
func IsDestructive(baseline Inventory, baselineLen int, out []float64) bool {
	if len(out) != baselineLen {
		return true
	}
	return !baseline.Equal(TakeInventory(out))
}
