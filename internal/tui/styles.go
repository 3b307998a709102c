package tui

import "github.com/charmbracelet/lipgloss"

// Colors
var (
	primaryColor = lipgloss.Color("#2563EB") // Blue
	addColor     = lipgloss.Color("#10B981") // Green
	mutedColor   = lipgloss.Color("#6B7280") // Gray
	errorColor   = lipgloss.Color("#EF4444") // Red
)

var (
	appStyle = lipgloss.NewStyle().Padding(1, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(primaryColor).
			Padding(0, 1)

	// Entry and change rows
	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E5E7EB"))

	dimStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Padding(1, 0, 0, 0)

	// Status line
	successBadge = lipgloss.NewStyle().
			Foreground(addColor).
			Bold(true)

	errorBadge = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	// Entry diff lines
	addedStyle   = lipgloss.NewStyle().Foreground(addColor)
	deletedStyle = lipgloss.NewStyle().Foreground(errorColor)
)
