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
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/sortbench/cmd/sortbench/config"
	"github.com/AleutianAI/sortbench/pkg/validation"
	"github.com/AleutianAI/sortbench/services/bench/history"
	"github.com/AleutianAI/sortbench/services/bench/report"
	"github.com/AleutianAI/sortbench/services/bench/sorting"
)

// =============================================================================
// algorithms
// =============================================================================

func newAlgorithmsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "algorithms",
		Short: "List the available sort algorithms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t := table.New().Headers("NAME", "IN PLACE", "COUNTING", "DESCRIPTION")
			for _, alg := range sorting.Default().List() {
				t.Row(alg.Name, report.YesNo(alg.InPlace), report.YesNo(alg.Instrumented()), alg.Description)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return err
		},
	}
}

// =============================================================================
// history
// =============================================================================

func newHistoryCmd(a *app) *cobra.Command {
	var dir string

	openStore := func(cmd *cobra.Command) (*history.Store, error) {
		if cmd.Flags().Changed("history-dir") {
			a.cfg.History.Path = dir
		}
		if !a.cfg.History.Enabled() {
			return nil, fmt.Errorf("%w: no history path; set history.path or --history-dir", config.ErrInvalid)
		}
		storeCfg := a.cfg.History.HistoryStoreConfig()
		storeCfg.GCInterval = 0
		return history.Open(storeCfg)
	}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect stored experiment reports",
	}
	cmd.PersistentFlags().StringVar(&dir, "history-dir", "", "History database path (overrides config)")

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List stored runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			reports, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			t := table.New().Headers("RUN ID", "STARTED", "ALGORITHM", "LOOPS", "LENGTH", "PASSED")
			for _, r := range reports {
				t.Row(
					r.RunID,
					r.StartedAt.Local().Format(time.DateTime),
					r.Algorithm,
					strconv.Itoa(r.Config.Loops),
					strconv.Itoa(r.Config.SequenceLength),
					report.YesNo(r.Passed()),
				)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return err
		},
	}
	list.Flags().IntVar(&limit, "limit", 20, "Maximum runs to list (0 = all)")

	var format string
	show := &cobra.Command{
		Use:   "show RUN_ID",
		Short: "Print a stored report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, err := validation.SanitizeRunID(args[0])
			if err != nil {
				return err
			}
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			r, err := store.Get(cmd.Context(), runID)
			if err != nil {
				return err
			}
			rep, err := report.NewReporter(report.Format(format), cmd.OutOrStdout(), false)
			if err != nil {
				return err
			}
			return rep.Report(r)
		},
	}
	show.Flags().StringVarP(&format, "format", "f", string(report.FormatConsole), "Output format: console, json, csv")

	del := &cobra.Command{
		Use:   "delete RUN_ID",
		Short: "Delete a stored report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, err := validation.SanitizeRunID(args[0])
			if err != nil {
				return err
			}
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()
			return store.Delete(cmd.Context(), runID)
		},
	}

	cmd.AddCommand(list, show, del)
	return cmd
}

// =============================================================================
// config
// =============================================================================

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create configuration files",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := config.Marshal(a.cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "init PATH",
		Short: "Write a config file with the default settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Save(args[0], config.Default()); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
			return err
		},
	})

	return cmd
}
