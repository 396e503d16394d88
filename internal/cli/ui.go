package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorCyan   = lipgloss.Color("36")  // primary values
	colorGreen  = lipgloss.Color("35")  // success
	colorYellow = lipgloss.Color("220") // warnings
	colorRed    = lipgloss.Color("167") // errors
	colorDim    = lipgloss.Color("240") // muted text
)

var (
	styleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleError   = lipgloss.NewStyle().Foreground(colorRed)
	styleValue   = lipgloss.NewStyle().Foreground(colorCyan)
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
)

// printSuccess prints a green check line.
func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleSuccess.Render("✓")+" "+fmt.Sprintf(format, args...))
}

// printWarning prints an amber warning line.
func printWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleWarning.Render("!")+" "+fmt.Sprintf(format, args...))
}

// printError prints a red error line.
func printError(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleError.Render("✗")+" "+fmt.Sprintf(format, args...))
}

// printKV prints an aligned key/value detail line.
func printKV(w io.Writer, key string, value any) {
	fmt.Fprintf(w, "  %s %s\n", styleDim.Render(key+":"), styleValue.Render(fmt.Sprint(value)))
}
