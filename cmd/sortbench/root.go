// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/sortbench/cmd/sortbench/config"
	"github.com/AleutianAI/sortbench/pkg/logging"
)

// app holds state shared by every command of one invocation.
type app struct {
	configPath string
	logLevel   string
	logJSON    bool

	cfg    *config.File
	logger *logging.Logger
}

// newRootCmd builds the command tree. Each call returns an independent
// tree, so tests can execute commands without shared flag state.
func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "sortbench",
		Short: "Time and verify sort algorithms on random and semi-sorted inputs",
		Long: `sortbench runs a sort algorithm repeatedly over two input distributions,
fully random sequences and partially pre-sorted ones, timing each call and
checking that the output is sorted and contains exactly the input values.

Examples:
  sortbench run
  sortbench run --algorithm merge --loops 10 --length 100000
  sortbench run --format json --output result.json --history-dir ~/.sortbench/history
  sortbench history list --history-dir ~/.sortbench/history`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.logger != nil {
				return a.logger.Close()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "",
		"Path to a YAML config file (default: built-in defaults)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "",
		"Log level: debug, info, warn, error (overrides config)")
	root.PersistentFlags().BoolVar(&a.logJSON, "log-json", false,
		"Write logs as JSON")

	root.AddCommand(
		newRunCmd(a),
		newAlgorithmsCmd(a),
		newHistoryCmd(a),
		newConfigCmd(a),
	)
	return root
}

// setup loads the configuration and builds the logger.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = a.logLevel
	}
	if cmd.Flags().Changed("log-json") {
		cfg.Logging.JSON = a.logJSON
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("%w: %w", config.ErrInvalid, err)
	}
	a.cfg = cfg
	a.logger = logging.New(logging.Config{
		Level:  level,
		LogDir: cfg.Logging.Dir,
		JSON:   cfg.Logging.JSON,
		Output: cmd.ErrOrStderr(),
	})
	return nil
}
