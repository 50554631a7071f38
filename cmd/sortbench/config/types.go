// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the sortbench YAML configuration file.
package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/AleutianAI/sortbench/services/bench/experiment"
	"github.com/AleutianAI/sortbench/services/bench/history"
	"github.com/AleutianAI/sortbench/services/bench/report"
	"github.com/AleutianAI/sortbench/services/bench/sorting"
	"github.com/AleutianAI/sortbench/services/bench/telemetry"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid configuration")

var fileValidate = validator.New()

// File is the whole configuration file.
//
// Example:
//
//	algorithm: quicksort
//	experiment:
//	  loops: 5
//	  sequence_length: 10000
//	  seed: 7
//	output:
//	  format: json
//	telemetry:
//	  trace_exporter: otlp
//	  otlp_endpoint: collector:4317
//	history:
//	  path: ~/.sortbench/history
type File struct {
	// Algorithm is the catalog name of the sort under test.
	Algorithm string `yaml:"algorithm" validate:"required"`

	// Count enables operation counting for instrumented algorithms.
	Count bool `yaml:"count"`

	Experiment experiment.Config   `yaml:"experiment" validate:"-"`
	Output     OutputConfig        `yaml:"output"`
	Logging    LoggingConfig       `yaml:"logging"`
	Telemetry  TelemetryConfig     `yaml:"telemetry"`
	History    HistoryConfig       `yaml:"history"`
	Influx     report.InfluxConfig `yaml:"influx"`
}

// OutputConfig selects the report format and destination.
type OutputConfig struct {
	// Format is console, json or csv.
	Format string `yaml:"format" validate:"oneof=console json csv"`

	// Path writes the report to a file instead of stdout.
	Path string `yaml:"path"`

	// Verbose prints every trial in console format.
	Verbose bool `yaml:"verbose"`
}

// LoggingConfig configures diagnostic logging.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Dir   string `yaml:"dir"`
	JSON  bool   `yaml:"json"`
}

// TelemetryConfig extends the provider configuration with a Prometheus
// textfile dump.
type TelemetryConfig struct {
	telemetry.Config `yaml:",inline"`

	// PromTextfile, when set, receives every gathered metric after the run.
	PromTextfile string `yaml:"prom_textfile"`
}

// HistoryConfig enables the run history store.
type HistoryConfig struct {
	// Path is the store directory. Empty disables history.
	Path string `yaml:"path"`
}

// Enabled is true when a history path is configured.
func (h HistoryConfig) Enabled() bool {
	return h.Path != ""
}

// Default returns the configuration used when no file is given: quicksort,
// one loop of 10000 elements per category, console output with every
// trial printed, no telemetry and no history.
func Default() *File {
	return &File{
		Algorithm:  sorting.DefaultAlgorithm,
		Experiment: experiment.DefaultConfig(),
		Output: OutputConfig{
			Format:  string(report.FormatConsole),
			Verbose: true,
		},
		Logging:   LoggingConfig{Level: "info"},
		Telemetry: TelemetryConfig{Config: telemetry.DefaultConfig()},
	}
}

// Validate checks every section.
func (f *File) Validate() error {
	if err := fileValidate.Struct(f); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := f.Experiment.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if f.Count && f.Experiment.ParallelCategories {
		return fmt.Errorf("%w: count cannot be combined with parallel_categories", ErrInvalid)
	}
	if f.Telemetry.TraceExporter != "" {
		switch f.Telemetry.TraceExporter {
		case telemetry.ExporterNone, telemetry.ExporterOTLP, telemetry.ExporterStdout:
		default:
			return fmt.Errorf("%w: trace_exporter %q", ErrInvalid, f.Telemetry.TraceExporter)
		}
	}
	if f.Telemetry.MetricExporter != "" {
		switch f.Telemetry.MetricExporter {
		case telemetry.ExporterNone, telemetry.ExporterPrometheus, telemetry.ExporterStdout:
		default:
			return fmt.Errorf("%w: metric_exporter %q", ErrInvalid, f.Telemetry.MetricExporter)
		}
	}
	if f.Telemetry.PromTextfile != "" && f.Telemetry.MetricExporter != telemetry.ExporterPrometheus {
		return fmt.Errorf("%w: prom_textfile requires metric_exporter prometheus", ErrInvalid)
	}
	return nil
}

// HistoryStoreConfig returns the history store configuration for h.
func (h HistoryConfig) HistoryStoreConfig() history.Config {
	return history.DefaultConfig(h.Path)
}
