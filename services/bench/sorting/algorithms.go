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

import "slices"

// Quicksort sorts values in place with a Lomuto partition around the last
// element and returns values.
//
// Already ordered runs degrade it towards O(n^2). Recursion descends into the
// smaller partition so stack depth stays O(log n).
func Quicksort(values []float64) []float64 {
	quicksort(values, nil)
	return values
}

// CountingQuicksort is Quicksort with every comparison and swap recorded in c.
func CountingQuicksort(values []float64, c *Counter) []float64 {
	quicksort(values, c)
	return values
}

func quicksort(v []float64, c *Counter) {
	low, high := 0, len(v)-1
	for low < high {
		p := partition(v, low, high, c)
		if p-low < high-p {
			quicksort(v[low:p], c)
			low = p + 1
		} else {
			quicksort(v[p+1:high+1], c)
			high = p - 1
		}
	}
}

func partition(v []float64, low, high int, c *Counter) int {
	pivot := v[high]
	i := low - 1
	for j := low; j < high; j++ {
		if c.LessOrEqual(v[j], pivot) {
			i++
			v[i], v[j] = v[j], v[i]
			c.Move(2)
		}
	}
	v[i+1], v[high] = v[high], v[i+1]
	c.Move(2)
	return i + 1
}

// InsertionSort sorts values in place and returns values.
func InsertionSort(values []float64) []float64 {
	insertionSort(values, nil)
	return values
}

// CountingInsertionSort is InsertionSort with operations recorded in c.
func CountingInsertionSort(values []float64, c *Counter) []float64 {
	insertionSort(values, c)
	return values
}

func insertionSort(v []float64, c *Counter) {
	for i := 1; i < len(v); i++ {
		key := v[i]
		j := i - 1
		for j >= 0 && c.Compare(key, v[j]) {
			v[j+1] = v[j]
			c.Move(1)
			j--
		}
		v[j+1] = key
		c.Move(1)
	}
}

// MergeSort returns a new sorted slice and leaves values untouched.
func MergeSort(values []float64) []float64 {
	return mergeSort(values, nil)
}

// CountingMergeSort is MergeSort with operations recorded in c.
func CountingMergeSort(values []float64, c *Counter) []float64 {
	return mergeSort(values, c)
}

func mergeSort(v []float64, c *Counter) []float64 {
	out := slices.Clone(v)
	if len(out) < 2 {
		return out
	}
	buf := make([]float64, len(out))
	mergeSortInto(out, buf, c)
	return out
}

// mergeSortInto sorts v using buf (same length) as scratch space.
func mergeSortInto(v, buf []float64, c *Counter) {
	if len(v) < 2 {
		return
	}
	mid := len(v) / 2
	mergeSortInto(v[:mid], buf[:mid], c)
	mergeSortInto(v[mid:], buf[mid:], c)

	copy(buf, v)
	c.Move(len(v))
	i, j, k := 0, mid, 0
	for i < mid && j < len(v) {
		if c.LessOrEqual(buf[i], buf[j]) {
			v[k] = buf[i]
			i++
		} else {
			v[k] = buf[j]
			j++
		}
		c.Move(1)
		k++
	}
	for ; i < mid; i++ {
		v[k] = buf[i]
		c.Move(1)
		k++
	}
	for ; j < len(v); j++ {
		v[k] = buf[j]
		c.Move(1)
		k++
	}
}

// Stdlib sorts values in place with slices.Sort and returns values.
// It has no counting variant.
func Stdlib(values []float64) []float64 {
	slices.Sort(values)
	return values
}
