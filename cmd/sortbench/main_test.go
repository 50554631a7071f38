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
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/sortbench/cmd/sortbench/config"
	"github.com/AleutianAI/sortbench/pkg/validation"
	"github.com/AleutianAI/sortbench/services/bench/experiment"
	"github.com/AleutianAI/sortbench/services/bench/history"
	"github.com/AleutianAI/sortbench/services/bench/sorting"
)

// execute runs the command tree with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRun_ConsoleDefaults(t *testing.T) {
	stdout, _, err := execute(t, "run", "--length", "200", "--loops", "2", "--seed", "3")
	require.NoError(t, err)

	assert.Equal(t, 4, strings.Count(stdout, "Is sorted: yes"))
	assert.Equal(t, 4, strings.Count(stdout, "Is destructive: no"))
	assert.Contains(t, stdout, "Fully random list results on average:")
	assert.Contains(t, stdout, "Semi sorted list results on average:")
	assert.Contains(t, stdout, "quicksort: 2 loop(s) of 200 elements")
}

func TestRun_JSONReport(t *testing.T) {
	stdout, _, err := execute(t, "run",
		"--length", "100", "--loops", "3", "--format", "json",
		"--algorithm", "merge", "--split", "50", "--count")
	require.NoError(t, err)

	var r experiment.Report
	require.NoError(t, json.Unmarshal([]byte(stdout), &r))
	assert.Equal(t, "merge", r.Algorithm)
	require.Len(t, r.Categories, 2)
	for _, res := range r.Categories {
		assert.Len(t, res.Outcomes, 3)
		assert.Zero(t, res.Stats.UnsortedTrials)
		assert.Zero(t, res.Stats.DestructiveTrials)
		assert.Positive(t, res.Stats.MeanCountedOps)
	}
	require.NotNil(t, r.Config.SplitPoint)
	assert.Equal(t, 50, *r.Config.SplitPoint)
}

func TestRun_CSVToFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "result.csv")
	stdout, _, err := execute(t, "run", "--length", "50", "--format", "csv", "--output", out, "--parallel")
	require.NoError(t, err)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "run_id,algorithm,category"))
}

func TestRun_InvalidConfigFailsFast(t *testing.T) {
	stdout, _, err := execute(t, "run", "--loops", "0")
	assert.ErrorIs(t, err, config.ErrInvalid)
	assert.NotContains(t, stdout, "Time:")
}

func TestRun_CountWithParallelRejectedBeforeOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "result.json")
	_, _, err := execute(t, "run", "--length", "50", "--count", "--parallel", "--format", "json", "--output", out)
	assert.ErrorIs(t, err, config.ErrInvalid)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "output file must not be created")
}

func TestRun_UnknownAlgorithm(t *testing.T) {
	_, _, err := execute(t, "run", "--algorithm", "bogosort")
	assert.ErrorIs(t, err, sorting.ErrNotFound)
}

func TestRun_UnknownFormat(t *testing.T) {
	_, _, err := execute(t, "run", "--format", "xml")
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestRun_PrometheusTextfile(t *testing.T) {
	prom := filepath.Join(t.TempDir(), "sortbench.prom")
	_, _, err := execute(t, "run", "--length", "50",
		"--otel-metrics", "prometheus", "--prom-textfile", prom, "--verbose=false")
	require.NoError(t, err)

	data, err := os.ReadFile(prom)
	require.NoError(t, err)
	assert.Contains(t, string(data), "sortbench_trial_total")
}

func TestRun_HistoryRoundTrip(t *testing.T) {
	dir := t.TempDir()

	stdout, _, err := execute(t, "run", "--length", "50", "--format", "json", "--history-dir", dir)
	require.NoError(t, err)
	var r experiment.Report
	require.NoError(t, json.Unmarshal([]byte(stdout), &r))

	listOut, _, err := execute(t, "history", "list", "--history-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, listOut, r.RunID)

	showOut, _, err := execute(t, "history", "show", r.RunID, "--history-dir", dir, "--format", "json")
	require.NoError(t, err)
	var shown experiment.Report
	require.NoError(t, json.Unmarshal([]byte(showOut), &shown))
	assert.Equal(t, r.RunID, shown.RunID)

	_, _, err = execute(t, "history", "delete", r.RunID, "--history-dir", dir)
	require.NoError(t, err)
	_, _, err = execute(t, "history", "show", r.RunID, "--history-dir", dir)
	assert.ErrorIs(t, err, history.ErrNotFound)
}

func TestHistory_RejectsMalformedRunID(t *testing.T) {
	dir := t.TempDir()

	_, _, err := execute(t, "history", "show", "report/../x", "--history-dir", dir)
	assert.ErrorIs(t, err, validation.ErrInvalid)
	_, _, err = execute(t, "history", "delete", "", "--history-dir", dir)
	assert.ErrorIs(t, err, validation.ErrInvalid)
}

func TestHistory_RequiresPath(t *testing.T) {
	_, _, err := execute(t, "history", "list")
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestAlgorithms(t *testing.T) {
	stdout, _, err := execute(t, "algorithms")
	require.NoError(t, err)
	for _, name := range sorting.Default().Names() {
		assert.Contains(t, stdout, name)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sortbench.yaml")

	_, _, err := execute(t, "config", "init", path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("algorithm: insertion\nexperiment:\n  loops: 2\n"), 0600))
	stdout, _, err := execute(t, "config", "show", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "algorithm: insertion")
	assert.Contains(t, stdout, "loops: 2")
}

func TestRootFlags_LogLevel(t *testing.T) {
	_, _, err := execute(t, "algorithms", "--log-level", "chatty")
	assert.ErrorIs(t, err, config.ErrInvalid)

	_, stderr, err := execute(t, "run", "--length", "10", "--log-level", "debug", "--log-json", "--verbose=false")
	require.NoError(t, err)
	assert.Contains(t, stderr, `"msg":"trial completed"`)
}
