package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"notionsync/internal/engine"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED"))

	metricStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#06B6D4")).
			Width(20)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10B981"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#EF4444"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))
)

func check(ok bool) string {
	if ok {
		return okStyle.Render("✓")
	}
	return mutedStyle.Render("✗")
}

// printSummary renders the end-of-run metrics table.
func printSummary(out io.Writer, result *engine.Result) {
	rule := mutedStyle.Render(strings.Repeat("=", 50))

	fmt.Fprintln(out)
	fmt.Fprintln(out, rule)
	fmt.Fprintln(out, titleStyle.Render("Sync Summary"))
	fmt.Fprintln(out, rule)

	row := func(metric, value string) {
		fmt.Fprintln(out, metricStyle.Render(metric)+value)
	}
	row("Pages synced", strconv.Itoa(len(result.Synced)))
	row("Pages skipped", strconv.Itoa(len(result.Skipped)))
	row("Pages failed", strconv.Itoa(len(result.Failed)))
	row("Images downloaded", strconv.Itoa(result.ImagesDownloaded))
	row("Commit created", check(result.CommitCreated))
	row("Pushed to remote", check(result.Pushed))
	row("API requests", strconv.Itoa(result.Requests))

	if len(result.Synced) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, okStyle.Render("Synced: ")+strings.Join(result.Synced, ", "))
	}
	if len(result.Failed) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, errorStyle.Render("Failed: ")+strings.Join(result.Failed, ", "))
	}
	fmt.Fprintln(out)
}

const statusColWidth = 24

func statusHeader() string {
	cols := []string{"Page", "Directory", "Last Edited", "Last Synced"}
	parts := make([]string, len(cols))
	for i, col := range cols {
		parts[i] = titleStyle.Render(pad(col))
	}
	return strings.Join(parts, "")
}

func statusRow(title, directory, edited, synced string) string {
	return pad(title) + pad(directory) + pad(edited) + pad(synced)
}

func pad(s string) string {
	// Display width, not byte length: titles carry emoji and accents.
	width := lipgloss.Width(s)
	if width >= statusColWidth {
		return s + " "
	}
	return s + strings.Repeat(" ", statusColWidth-width)
}
