package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/shelf/internal/ui/theme"
)

// ProgressBar renders done/total as a filled bar followed by "done/total".
type ProgressBar struct {
	Label string
	Done  int
	Total int
	Width int
}

// View renders the bar. A zero Total draws an empty bar.
func (p ProgressBar) View() string {
	var out string
	if p.Label != "" {
		out = theme.Label.Render(p.Label) + "  "
	}
	count := fmt.Sprintf("  %d/%d", p.Done, p.Total)

	width := max(p.Width-lipgloss.Width(out)-len(count), 4)
	filled := 0
	if p.Total > 0 {
		filled = min(max(width*p.Done/p.Total, 0), width)
	}

	out += lipgloss.NewStyle().Background(theme.Secondary).Render(strings.Repeat(" ", filled))
	out += lipgloss.NewStyle().Background(theme.Border).Render(strings.Repeat(" ", width-filled))
	return out + theme.Faded.Render(count)
}
