// Package courses is the start screen: a list of imported courses with
// their progress. Picking one opens a play screen for it.
package courses

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/shelf/internal/router"
	"github.com/abhisek/shelf/internal/screen"
	"github.com/abhisek/shelf/internal/session"
	"github.com/abhisek/shelf/internal/store"
	"github.com/abhisek/shelf/internal/ui/components"
	"github.com/abhisek/shelf/internal/ui/layout"
	"github.com/abhisek/shelf/internal/ui/theme"
)

// Catalog lists courses and their aggregates.
type Catalog interface {
	Courses(ctx context.Context) ([]store.CourseInfo, error)
	CourseStats(ctx context.Context, userID, courseID string) (session.CourseStats, error)
}

// Opener builds the screen for a course session.
type Opener func(courseID string) (screen.Screen, error)

type entry struct {
	course store.CourseInfo
	stats  session.CourseStats
}

type loadedMsg struct {
	entries []entry
	err     error
}

type openFailedMsg struct{ err error }

// Screen implements screen.Screen.
type Screen struct {
	catalog Catalog
	userID  string
	open    Opener

	menu    components.Menu
	loaded  bool
	entries []entry
	err     error
}

var _ screen.Screen = (*Screen)(nil)

func New(catalog Catalog, userID string, open Opener) *Screen {
	return &Screen{catalog: catalog, userID: userID, open: open}
}

// Init reloads the list, so stats are fresh when a session is closed.
func (s *Screen) Init() tea.Cmd {
	catalog, userID := s.catalog, s.userID
	return func() tea.Msg {
		ctx := context.Background()
		list, err := catalog.Courses(ctx)
		if err != nil {
			return loadedMsg{err: err}
		}
		entries := make([]entry, 0, len(list))
		for _, c := range list {
			stats, err := catalog.CourseStats(ctx, userID, c.ID)
			if err != nil {
				return loadedMsg{err: fmt.Errorf("stats of %s: %w", c.ID, err)}
			}
			entries = append(entries, entry{course: c, stats: stats})
		}
		return loadedMsg{entries: entries}
	}
}

func (s *Screen) Title() string { return "Courses" }

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		s.loaded = true
		s.err = msg.err
		s.entries = msg.entries
		s.menu = components.NewMenu(s.items())
		return s, nil
	case openFailedMsg:
		s.err = msg.err
		return s, nil
	}
	var cmd tea.Cmd
	s.menu, cmd = s.menu.Update(msg)
	return s, cmd
}

func (s *Screen) items() []components.MenuItem {
	items := make([]components.MenuItem, len(s.entries))
	for i, e := range s.entries {
		id := e.course.ID
		items[i] = components.MenuItem{
			Label:  e.course.Name,
			Detail: fmt.Sprintf("%d solved, %.0f%% mastery", e.stats.TotalQuestionsSolved, e.stats.AverageMastery),
			Action: func() tea.Cmd { return s.openCmd(id) },
		}
	}
	return items
}

func (s *Screen) openCmd(courseID string) tea.Cmd {
	open := s.open
	return func() tea.Msg {
		next, err := open(courseID)
		if err != nil {
			return openFailedMsg{err: err}
		}
		return router.PushScreenMsg{Screen: next}
	}
}

func (s *Screen) View(width, height int) string {
	var body string
	switch {
	case !s.loaded:
		body = theme.Hint.Render("Loading courses...")
	case len(s.entries) == 0 && s.err == nil:
		body = theme.Body.Render("No courses yet.") + "\n\n" +
			theme.Hint.Render("Import one with: shelf import <bundle.json>")
	default:
		body = theme.Title.Render("Pick a course") + "\n\n" + s.menu.View()
	}
	if s.err != nil {
		body += "\n" + theme.Incorrect.Render(s.err.Error())
	}
	return lipgloss.NewStyle().Padding(1, 4).Width(width).MaxHeight(height).Render(body)
}

func (s *Screen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Choose"},
		{Key: "Enter", Description: "Study"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}
