package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/shelf/internal/ui/theme"
)

// MultiChoice is a five-option selector. Letters a-e and digits 1-5 pick
// an option directly; arrows move the cursor and enter confirms it.
type MultiChoice struct {
	Prompt   string
	Options  []string
	Selected int

	// Chosen is the confirmed option, or -1.
	Chosen int
	// Correct is revealed with Reveal; -1 hides it.
	Correct int
}

// NewMultiChoice returns a selector with nothing chosen.
func NewMultiChoice(prompt string, options []string) MultiChoice {
	return MultiChoice{Prompt: prompt, Options: options, Chosen: -1, Correct: -1}
}

// OptionLabel is the letter shown before option i.
func OptionLabel(i int) string {
	return string(rune('A' + i))
}

// Confirmed reports whether an option has been chosen.
func (m MultiChoice) Confirmed() bool {
	return m.Chosen >= 0
}

// Reveal marks the correct option and locks the selector.
func (m MultiChoice) Reveal(correct, chosen int) MultiChoice {
	m.Correct = correct
	m.Chosen = chosen
	return m
}

// Update handles a key press. It returns true when the press confirmed
// an option.
func (m MultiChoice) Update(msg tea.Msg) (MultiChoice, bool) {
	key, ok := msg.(tea.KeyPressMsg)
	if !ok || m.Confirmed() || m.Correct >= 0 {
		return m, false
	}

	s := key.String()
	switch s {
	case "up", "k":
		if m.Selected > 0 {
			m.Selected--
		}
		return m, false
	case "down", "j":
		if m.Selected < len(m.Options)-1 {
			m.Selected++
		}
		return m, false
	case "enter":
		m.Chosen = m.Selected
		return m, true
	}

	if len(s) == 1 {
		idx := -1
		switch c := s[0]; {
		case c >= 'a' && c <= 'z':
			idx = int(c - 'a')
		case c >= 'A' && c <= 'Z':
			idx = int(c - 'A')
		case c >= '1' && c <= '9':
			idx = int(c - '1')
		}
		if idx >= 0 && idx < len(m.Options) {
			m.Selected = idx
			m.Chosen = idx
			return m, true
		}
	}
	return m, false
}

// View renders the prompt and the options, colouring the answer once it
// is revealed.
func (m MultiChoice) View(width int) string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Width(width).Foreground(theme.Text).Bold(true).Render(m.Prompt))
	b.WriteString("\n\n")

	revealed := m.Correct >= 0
	for i, opt := range m.Options {
		cursor := "  "
		if i == m.Selected && !revealed {
			cursor = "› "
		}
		line := fmt.Sprintf("%s%s)  %s", cursor, OptionLabel(i), opt)

		style := theme.Unselected
		switch {
		case revealed && i == m.Correct:
			style = theme.Correct
		case revealed && i == m.Chosen:
			style = theme.Incorrect
		case revealed:
			style = theme.Faded
		case i == m.Selected:
			style = theme.Selected
		}
		b.WriteString(style.Width(width).Render(line))
		b.WriteString("\n")
	}
	return b.String()
}
