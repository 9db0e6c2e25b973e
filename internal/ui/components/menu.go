package components

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/shelf/internal/ui/theme"
)

// MenuItem is one selectable row.
type MenuItem struct {
	Label  string
	Detail string
	Action func() tea.Cmd
}

// Menu is a vertical list navigated with the arrow keys.
type Menu struct {
	Items    []MenuItem
	Selected int
}

func NewMenu(items []MenuItem) Menu {
	return Menu{Items: items}
}

// Update moves the cursor or runs the selected item's action on enter.
func (m Menu) Update(msg tea.Msg) (Menu, tea.Cmd) {
	key, ok := msg.(tea.KeyPressMsg)
	if !ok || len(m.Items) == 0 {
		return m, nil
	}
	switch key.String() {
	case "up", "k":
		m.Selected = max(m.Selected-1, 0)
	case "down", "j":
		m.Selected = min(m.Selected+1, len(m.Items)-1)
	case "enter":
		if act := m.Items[m.Selected].Action; act != nil {
			return m, act()
		}
	}
	return m, nil
}

func (m Menu) View() string {
	var s string
	for i, item := range m.Items {
		row := "    " + item.Label
		style := theme.Unselected
		if i == m.Selected {
			row = "  › " + item.Label
			style = theme.Selected
		}
		s += style.Render(row)
		if item.Detail != "" {
			s += "  " + theme.Faded.Render(item.Detail)
		}
		s += "\n"
	}
	return s
}
