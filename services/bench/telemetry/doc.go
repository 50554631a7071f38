// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry exports trial and category measurements.
//
// # Sinks
//
// A Sink receives one TrialData per completed trial and one CategoryData per
// finalized category. Implementations:
//
//   - NoOpSink discards everything.
//   - CompositeSink fans out to several sinks.
//   - OTelSink records spans and metrics through OpenTelemetry.
//
// # Providers
//
// Init installs global tracer and meter providers from a Config. Traces can go
// to an OTLP gRPC collector or stdout; metrics to a Prometheus registry or
// stdout. WritePrometheusTextfile dumps the Prometheus registry in text
// exposition format for the node_exporter textfile collector, which suits a
// short-lived benchmark process better than a scrape endpoint.
//
// # Metric Names
//
//   - sortbench.trial.duration (histogram, seconds)
//   - sortbench.trial.total (counter, labelled sorted/destructive)
//   - sortbench.category.mean_time (gauge, seconds)
//   - sortbench.category.mean_ops (gauge)
//
// # Thread Safety
//
// All Sink implementations are safe for concurrent use.
package telemetry
