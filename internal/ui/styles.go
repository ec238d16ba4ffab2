package ui

import "github.com/charmbracelet/lipgloss"

var (
	accentColor = lipgloss.Color("#48BB78")
	mutedColor  = lipgloss.Color("#888888")
	warnColor   = lipgloss.Color("#A40000")
	textColor   = lipgloss.Color("#FFFFFF")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	keyStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	valueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(textColor)

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(warnColor)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor)
)
