// Package screen defines what the router stacks.
package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/shelf/internal/ui/layout"
)

// Screen is one full-frame view of the app.
type Screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the content area only; the app draws the frame.
	View(width, height int) string
	Title() string
}

// KeyHintProvider lets a screen replace the default footer.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// StatusProvider lets a screen fill the right side of the header.
type StatusProvider interface {
	Status() string
}
