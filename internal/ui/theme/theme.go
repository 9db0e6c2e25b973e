// Package theme holds the colours and shared lipgloss styles of the TUI.
package theme

import (
	"charm.land/lipgloss/v2"
)

// Palette. Muted so long study sessions stay easy on the eyes.
var (
	Primary   = lipgloss.Color("#6366F1") // indigo
	Secondary = lipgloss.Color("#0EA5E9") // sky
	Accent    = lipgloss.Color("#F59E0B") // amber
	Success   = lipgloss.Color("#10B981") // emerald
	Error     = lipgloss.Color("#EF4444") // red
	Text      = lipgloss.Color("#E5E7EB")
	TextDim   = lipgloss.Color("#9CA3AF")
	BgCard    = lipgloss.Color("#1F2937")
	Border    = lipgloss.Color("#374151")
)

var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Label = lipgloss.NewStyle().
		Foreground(Secondary).
		Bold(true)

	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(1, 2)
)

// Answer states.
var (
	Selected = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	Unselected = lipgloss.NewStyle().
			Foreground(Text)

	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Incorrect = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	Faded = lipgloss.NewStyle().
		Foreground(TextDim)
)
