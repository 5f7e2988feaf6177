package ui

import (
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Color definitions for consistent styling across the UI.
var (
	// Event titles
	colorTitle = color.New(color.FgCyan, color.Bold)

	// Times and dates
	colorTime = color.New(color.FgGreen)

	// Warnings, conflicts and shortfalls
	colorWarn = color.New(color.FgYellow)

	// Headers: bold
	colorHeader = color.New(color.Bold)

	// Assistant replies
	colorReply = color.New(color.FgWhite)

	// Muted: for secondary information
	colorMuted = color.New(color.FgWhite, color.Faint)
)

// termWidth returns the terminal width, or a default if detection fails.
func termWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// interactive reports whether stdin is a terminal.
func interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// DisableColor disables all color output.
func DisableColor() {
	color.NoColor = true
}

// EnableColor enables color output (if terminal supports it).
func EnableColor() {
	color.NoColor = false
}

func formatTitle(s string) string {
	return colorTitle.Sprint(s)
}

func formatTime(s string) string {
	return colorTime.Sprint(s)
}

func formatWarn(s string) string {
	return colorWarn.Sprint(s)
}

func formatHeader(s string) string {
	return colorHeader.Sprint(s)
}

func formatReply(s string) string {
	return colorReply.Sprint(s)
}

func formatMuted(s string) string {
	return colorMuted.Sprint(s)
}
