package main

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	// Color palette
	successColor = lipgloss.Color("#04B575")
	warningColor = lipgloss.Color("#FFA500")
	errorColor   = lipgloss.Color("#FF4B4B")
	mutedColor   = lipgloss.Color("#666666")

	titleStyle = lipgloss.NewStyle().Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(successColor)
	warnStyle  = lipgloss.NewStyle().Foreground(warningColor)
	badStyle   = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(mutedColor)
)

// disableColor forces plain output. lipgloss already drops colors when
// stdout is not a terminal.
func disableColor() {
	lipgloss.SetColorProfile(termenv.Ascii)
}
