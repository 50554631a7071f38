// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.


package e2e

import (
	"encoding/json"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// runCLI executes the built binary with a timeout and returns stdout, stderr
// and the process exit code.
func runCLI(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	cmd := exec.Command(cliBinary, args...)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	timer := time.AfterFunc(60*time.Second, func() {
		if cmd.Process != nil {
			cmd.Process.Kill()
		}
	})
	defer timer.Stop()

	err := cmd.Run()
	code := 0
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	} else if err != nil {
		t.Fatalf("failed to start CLI: %v", err)
	}
	return stdout.String(), stderr.String(), code
}

// TestRun_ConsoleReport runs two loops with the default algorithm and checks
// both per-trial blocks and both category summaries are printed.
func TestRun_ConsoleReport(t *testing.T) {
	out, stderr, code := runCLI(t, "run", "--loops", "2", "--length", "500", "--seed", "7")
	if code != 0 {
		t.Fatalf("exit code %d\nstderr: %s", code, stderr)
	}

	if got := strings.Count(out, "Is sorted: yes"); got != 4 {
		t.Errorf("expected 4 sorted trials, got %d\n%s", got, out)
	}
	if got := strings.Count(out, "Is destructive: no"); got != 4 {
		t.Errorf("expected 4 non-destructive trials, got %d\n%s", got, out)
	}
	for _, want := range []string{
		"Fully random list results on average:",
		"Semi sorted list results on average:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output:\n%s", want, out)
		}
	}
}

// TestRun_InvalidConfigExitsNonZero checks a zero loop count fails before
// any trial output.
func TestRun_InvalidConfigExitsNonZero(t *testing.T) {
	out, _, code := runCLI(t, "run", "--loops", "0")
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if strings.Contains(out, "Time:") {
		t.Errorf("no trial should run on invalid config:\n%s", out)
	}
}

// TestRun_HistoryRoundTrip stores a JSON run and reads it back by run ID.
func TestRun_HistoryRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "history")

	out, stderr, code := runCLI(t, "run", "--length", "100", "--format", "json", "--history-dir", dir)
	if code != 0 {
		t.Fatalf("run exit code %d\nstderr: %s", code, stderr)
	}
	var report struct {
		RunID string `json:"run_id"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("run output is not JSON: %v\n%s", err, out)
	}

	shown, stderr, code := runCLI(t, "history", "show", report.RunID, "--history-dir", dir, "--format", "json")
	if code != 0 {
		t.Fatalf("history show exit code %d\nstderr: %s", code, stderr)
	}
	if !strings.Contains(shown, report.RunID) {
		t.Errorf("history show did not return run %s:\n%s", report.RunID, shown)
	}
}
