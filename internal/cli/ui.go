package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/texviz/refgraph/pkg/diag"
)

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary values
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
	styleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleError   = lipgloss.NewStyle().Foreground(colorRed)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconArrow   = "→"
)

// printFile prints a produced artifact path.
func printFile(path string) {
	fmt.Println("  " + styleDim.Render(iconArrow) + " " + styleValue.Render(path))
}

// printSummary prints the diagnostics summary: one line per kind with its
// count. The summary is emitted on every run, fatal or not, so broken
// references and skipped files are never silently invisible.
func printSummary(report *diag.Report) {
	fmt.Println(styleTitle.Render("Diagnostics"))
	for _, kind := range diag.Kinds {
		n := report.Count(kind)
		line := fmt.Sprintf("%-16s %d", kind, n)
		if n == 0 {
			fmt.Println("  " + styleDim.Render(line))
		} else {
			fmt.Println("  " + styleWarning.Render(iconWarning) + " " + styleValue.Render(line))
		}
	}
}

// printSuccess prints a final success line.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleSuccess.Render(iconSuccess) + " " + msg)
}

// printError prints a final failure line.
func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleError.Render(iconError) + " " + styleError.Render(msg))
}
