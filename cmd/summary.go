package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/conneroisu/quire/internal/build"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("170"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)
)

// printSummary writes the result of a generation run.
func printSummary(w io.Writer, report *build.Report, output string) {
	var lines []string

	status := successStyle.Render("Build succeeded")
	if report.Failed() {
		status = failedStyle.Render("Build finished with failures")
	}
	lines = append(lines,
		titleStyle.Render("quire")+" "+status,
		mutedStyle.Render("build "+report.BuildID),
		"",
		fmt.Sprintf("%-12s %d", "written", len(report.Written)),
		fmt.Sprintf("%-12s %d", "unchanged", report.Unchanged),
		fmt.Sprintf("%-12s %d", "assets", report.Assets),
	)
	if report.Skipped > 0 {
		lines = append(lines, warningStyle.Render(fmt.Sprintf("%-12s %d", "skipped", report.Skipped)))
	}
	lines = append(lines,
		fmt.Sprintf("%-12s %s", "output", output),
		fmt.Sprintf("%-12s %s", "duration", report.Duration.Round(time.Millisecond)),
	)

	if diagnostics := report.Diagnostics(); len(diagnostics) > 0 {
		lines = append(lines, "", warningStyle.Render(fmt.Sprintf("%d warning(s)", len(diagnostics))))
		for _, d := range diagnostics {
			lines = append(lines, "  "+mutedStyle.Render(d.String()))
		}
	}

	if report.Failed() {
		lines = append(lines, "", failedStyle.Render(fmt.Sprintf("%d failed page(s)", len(report.Failures))))
		for _, f := range report.Failures {
			lines = append(lines, fmt.Sprintf("  %s: %v", f.Page, f.Err))
		}
	}

	fmt.Fprintln(w, boxStyle.Render(strings.Join(lines, "\n")))
}

// printRebuild writes the one-line status shown after each watched rebuild.
func printRebuild(w io.Writer, report *build.Report, err error) {
	switch {
	case err != nil:
		fmt.Fprintln(w, failedStyle.Render("rebuild failed: ")+err.Error())
	case report.Failed():
		fmt.Fprintln(w, warningStyle.Render(fmt.Sprintf("rebuilt %d file(s), %d page(s) failed",
			len(report.Written), len(report.Failures))))
		for _, f := range report.Failures {
			fmt.Fprintf(w, "  %s: %v\n", f.Page, f.Err)
		}
	default:
		fmt.Fprintln(w, successStyle.Render(fmt.Sprintf("rebuilt %d file(s) in %s",
			len(report.Written), report.Duration.Round(time.Millisecond))))
	}
}
