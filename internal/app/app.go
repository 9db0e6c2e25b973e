// Package app is the root bubbletea model: a router of screens inside the
// shared header and footer frame.
package app

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/shelf/internal/router"
	"github.com/abhisek/shelf/internal/screen"
	"github.com/abhisek/shelf/internal/screens/courses"
	"github.com/abhisek/shelf/internal/screens/play"
	"github.com/abhisek/shelf/internal/ui/layout"
)

// Options wire the app to its data.
type Options struct {
	UserID  string
	Catalog courses.Catalog

	// NewEngine builds a session engine for one course.
	NewEngine func(courseID string) (play.Engine, error)

	// CourseID, when set, opens that course's session straight away with
	// the course list underneath.
	CourseID string
}

// Model is the root tea.Model.
type Model struct {
	router *router.Router
	width  int
	height int
}

// New returns a model rooted at the course list. send delivers engine
// notifications to the running program.
func New(opts Options, send func(tea.Msg)) Model {
	open := func(courseID string) (screen.Screen, error) {
		eng, err := opts.NewEngine(courseID)
		if err != nil {
			return nil, fmt.Errorf("open course %s: %w", courseID, err)
		}
		return play.New(eng, send), nil
	}
	r := router.New(courses.New(opts.Catalog, opts.UserID, open))
	if opts.CourseID != "" {
		if s, err := open(opts.CourseID); err == nil {
			// Model.Init runs the pushed screen's Init.
			r.Push(s)
		}
	}
	return Model{router: r}
}

func (m Model) Init() tea.Cmd {
	return m.router.Active().Init()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c":
			for m.router.Depth() > 1 {
				m.router.Pop()
			}
			return m, tea.Quit
		case "esc":
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}
	}
	return m, m.router.Update(msg)
}

func (m Model) View() tea.View {
	v := tea.NewView(m.render())
	v.AltScreen = true
	return v
}

func (m Model) render() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if layout.IsTooSmall(m.width, m.height) {
		return layout.RenderMinSizeMessage(m.width, m.height)
	}

	active := m.router.Active()
	var status string
	if sp, ok := active.(screen.StatusProvider); ok {
		status = sp.Status()
	}
	header := layout.RenderHeader(active.Title(), status, m.width)

	hints := []layout.KeyHint{{Key: "Ctrl+C", Description: "Quit"}}
	if hp, ok := active.(screen.KeyHintProvider); ok {
		hints = hp.KeyHints()
	}
	if m.router.Depth() > 1 {
		hints = append(hints, layout.KeyHint{Key: "Esc", Description: "Back"})
	}
	footer := layout.RenderFooter(hints, m.width)

	body := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	return layout.RenderFrame(header, m.router.View(m.width, body), footer, m.width, m.height)
}

// Run starts the program and blocks until the user quits.
func Run(opts Options) error {
	var p *tea.Program
	send := func(msg tea.Msg) {
		if p != nil {
			p.Send(msg)
		}
	}
	p = tea.NewProgram(New(opts, send))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
