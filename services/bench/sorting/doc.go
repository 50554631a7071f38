// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package sorting holds the algorithms the harness can benchmark.
//
// Every algorithm sorts a []float64 in ascending order and has two forms: a
// plain function used for timing, and a counting variant that increments a
// Counter on every comparison and element move. The counting variants feed
// trial.WithCounter so a trial can report measured operation counts next to
// the caller's expected figure.
//
// Algorithms are looked up by name through a Registry. Default returns the
// registry the CLI uses.
package sorting
