// Package layout draws the frame around every screen: header, content
// area and a footer of key hints.
package layout

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/shelf/internal/ui/theme"
)

const (
	MinWidth  = 72
	MinHeight = 20
)

// KeyHint is one entry of the footer.
type KeyHint struct {
	Key         string
	Description string
}

// IsTooSmall reports whether the terminal cannot fit the frame.
func IsTooSmall(width, height int) bool {
	return width < MinWidth || height < MinHeight
}

// RenderMinSizeMessage asks the user to enlarge the terminal.
func RenderMinSizeMessage(width, height int) string {
	return lipgloss.NewStyle().
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.Text).
		Width(width).
		Height(height).
		Render(fmt.Sprintf("Terminal too small.\n\nNeed at least %d x %d, have %d x %d.",
			MinWidth, MinHeight, width, height))
}

// RenderHeader draws the app name, the screen title in the middle and an
// optional status on the right.
func RenderHeader(title, status string, width int) string {
	left := theme.Title.Render("  shelf")
	center := theme.Body.Render(title)
	right := lipgloss.NewStyle().Foreground(theme.Accent).Render(status)

	inner := max(width-4, 0)
	leftGap := max((inner-lipgloss.Width(center))/2-lipgloss.Width(left), 1)
	rightGap := max(inner-lipgloss.Width(left)-leftGap-lipgloss.Width(center)-lipgloss.Width(right), 1)

	return bar(left+strings.Repeat(" ", leftGap)+center+strings.Repeat(" ", rightGap)+right, width)
}

// RenderFooter draws the key hints.
func RenderFooter(hints []KeyHint, width int) string {
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts,
			lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(h.Key)+" "+
				theme.Faded.Render(h.Description))
	}
	return bar("  "+strings.Join(parts, "   "), width)
}

func bar(content string, width int) string {
	return lipgloss.NewStyle().
		Width(width).
		Background(theme.BgCard).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Render(content)
}

// RenderFrame stacks header, content and footer to fill height.
func RenderFrame(header, content, footer string, width, height int) string {
	body := max(height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	return header + "\n" +
		lipgloss.NewStyle().Width(width).Height(body).Render(content) + "\n" +
		footer
}
