package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/piwi3910/floorpack/internal/check"
	"github.com/piwi3910/floorpack/internal/model"
)

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleLabel   = lipgloss.NewStyle().Foreground(colorGray)
	styleNumber  = lipgloss.NewStyle().Foreground(colorCyan)
	styleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleError   = lipgloss.NewStyle().Foreground(colorRed)
	styleHeader  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
)

func printSuccess(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, styleSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printWarning(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, styleWarning.Render(iconWarning)+" "+fmt.Sprintf(format, args...))
}

func printError(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, styleError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

// printKeyValues renders aligned "label  value" lines.
func printKeyValues(w io.Writer, pairs [][2]string) {
	width := 0
	for _, p := range pairs {
		width = max(width, len(p[0]))
	}
	for _, p := range pairs {
		label := styleLabel.Render(p[0] + strings.Repeat(" ", width-len(p[0])))
		fmt.Fprintf(w, "  %s  %s\n", label, styleNumber.Render(p[1]))
	}
}

// printResult summarizes a finished run and its validity report.
func printResult(w io.Writer, res model.Result, spec model.Spec, report check.Report) {
	fmt.Fprintln(w, styleTitle.Render("Floorplan "+res.RunID))
	target := fmt.Sprintf("%g x %g", spec.TargetWidth, spec.TargetHeight)
	if spec.UnboundedHeight() {
		target = fmt.Sprintf("%g x open", spec.TargetWidth)
	}
	pairs := [][2]string{
		{"problem", res.ProblemType.String()},
		{"target", target},
		{"modules", fmt.Sprintf("%d", len(res.Placements))},
		{"bounds", fmt.Sprintf("%g x %g", report.BoundWidth, report.BoundHeight)},
		{"utilization", fmt.Sprintf("%.2f%%", report.Utilization*100)},
	}
	if res.Strategy != "" {
		pairs = append(pairs, [2]string{"strategy", string(res.Strategy)})
	}
	if res.SolveCalls > 0 || res.Elapsed > 0 {
		pairs = append(pairs,
			[2]string{"solver calls", fmt.Sprintf("%d", res.SolveCalls)},
			[2]string{"fallbacks", fmt.Sprintf("%d", res.Fallbacks)},
			[2]string{"elapsed", res.Elapsed.Round(time.Millisecond).String()})
	}
	printKeyValues(w, pairs)
	printReport(w, report)
}

// printReport lists every issue found, or a success line.
func printReport(w io.Writer, report check.Report) {
	if report.Valid() {
		printSuccess(w, "layout is valid")
		return
	}
	for _, msg := range check.FormatIssues(report) {
		printError(w, "%s", msg)
	}
}

// comparisonTable renders one row per scenario.
func comparisonTable(rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Scenario", "Strategy", "Height", "Utilization", "Valid", "Elapsed").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return base.Inherit(styleHeader)
			}
			if row == 0 {
				return base.Bold(true)
			}
			return base
		}).
		Render()
}
