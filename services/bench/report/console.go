// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/AleutianAI/sortbench/services/bench/experiment"
	"github.com/AleutianAI/sortbench/services/bench/trial"
)

// Palette, shared with the rest of the Aleutian CLIs.
var (
	colorTeal  = lipgloss.Color("#2CD7C7")
	colorSlate = lipgloss.Color("#2C4A54")
	colorGold  = lipgloss.Color("#F4D03F")
	colorRed   = lipgloss.Color("#E74C3C")
)

type consoleStyles struct {
	title lipgloss.Style
	muted lipgloss.Style
	ok    lipgloss.Style
	warn  lipgloss.Style
	fail  lipgloss.Style
}

func newConsoleStyles() consoleStyles {
	return consoleStyles{
		title: lipgloss.NewStyle().Bold(true).Foreground(colorTeal),
		muted: lipgloss.NewStyle().Foreground(colorSlate),
		ok:    lipgloss.NewStyle().Foreground(colorTeal),
		warn:  lipgloss.NewStyle().Foreground(colorGold),
		fail:  lipgloss.NewStyle().Bold(true).Foreground(colorRed),
	}
}

// ConsoleReporter writes human-readable text.
//
// Description:
//
//	Colour is applied only when w is a terminal. With verbose set, every
//	trial prints its Time / Is sorted / Is destructive / O() block as it
//	completes; otherwise only the final averages are printed.
//
// Thread Safety: Not safe for concurrent use.
type ConsoleReporter struct {
	w       io.Writer
	verbose bool
	color   bool
	styles  consoleStyles
}

// NewConsoleReporter creates a ConsoleReporter.
func NewConsoleReporter(w io.Writer, verbose bool) *ConsoleReporter {
	return &ConsoleReporter{
		w:       w,
		verbose: verbose,
		color:   isTerminal(w),
		styles:  newConsoleStyles(),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (c *ConsoleReporter) render(style lipgloss.Style, s string) string {
	if !c.color {
		return s
	}
	return style.Render(s)
}

// answer renders a yes/no answer, highlighting it when it signals a failure.
func (c *ConsoleReporter) answer(yes, failed bool) string {
	style := c.styles.ok
	if failed {
		style = c.styles.fail
	}
	return c.render(style, YesNo(yes))
}

// ReportTrial implements Reporter.
func (c *ConsoleReporter) ReportTrial(category experiment.Category, loop int, o trial.Outcome) error {
	if !c.verbose {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n", c.render(c.styles.muted, fmt.Sprintf("[%s #%d]", category, loop+1)))
	fmt.Fprintf(&b, "Time: %d ns (%d ms)\n", o.ElapsedNanoseconds(), o.ElapsedMilliseconds())
	fmt.Fprintf(&b, "Is sorted: %s\n", c.answer(o.Sorted, !o.Sorted))
	fmt.Fprintf(&b, "Is destructive: %s\n", c.answer(o.Destructive, o.Destructive))
	fmt.Fprintf(&b, "O(): %s (expected %.0f ops)\n", opsFigure(o), o.ReportedOps)

	_, err := io.WriteString(c.w, b.String())
	return err
}

func opsFigure(o trial.Outcome) string {
	if o.Counted {
		return fmt.Sprintf("%d", o.CountedOps)
	}
	return fmt.Sprintf("%.0f", o.ReportedOps)
}

// Report implements Reporter.
func (c *ConsoleReporter) Report(r *experiment.Report) error {
	var b strings.Builder

	fmt.Fprintf(&b, "\n%s\n", c.render(c.styles.title,
		fmt.Sprintf("%s: %d loop(s) of %d elements", r.Algorithm, r.Config.Loops, r.Config.SequenceLength)))
	fmt.Fprintf(&b, "%s\n", c.render(c.styles.muted, "run "+r.RunID))

	expected := r.Config.ExpectedFigure()
	for _, res := range r.Categories {
		s := res.Stats
		fmt.Fprintf(&b, "\n%s results on average:\n", categoryTitle(res.Category))
		fmt.Fprintf(&b, "    %.0f ns\n", s.MeanTimeNanoseconds)
		fmt.Fprintf(&b, "    %.2f ms\n", s.MeanTimeNanoseconds*1e-6)
		fmt.Fprintf(&b, "    %.0f operations (expected %.0f)\n", s.MeanReportedOps, expected)
		if s.MeanCountedOps > 0 {
			fmt.Fprintf(&b, "    %.0f counted operations\n", s.MeanCountedOps)
		}
		if s.UnsortedTrials > 0 || s.DestructiveTrials > 0 {
			fmt.Fprintf(&b, "    %s\n", c.render(c.styles.warn,
				fmt.Sprintf("%d unsorted, %d destructive of %d trials",
					s.UnsortedTrials, s.DestructiveTrials, s.Trials)))
		}
	}
	b.WriteString("\n")

	_, err := io.WriteString(c.w, b.String())
	return err
}
