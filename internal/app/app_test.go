package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/shelf/internal/content"
	"github.com/abhisek/shelf/internal/screens/play"
	"github.com/abhisek/shelf/internal/session"
	"github.com/abhisek/shelf/internal/store"
)

type oneCourse struct{}

func (oneCourse) Courses(context.Context) ([]store.CourseInfo, error) {
	return []store.CourseInfo{{Course: content.Course{ID: "bio", Name: "Biology"}}}, nil
}

func (oneCourse) CourseStats(context.Context, string, string) (session.CourseStats, error) {
	return session.CourseStats{}, nil
}

func newTestModel() Model {
	return New(Options{
		UserID:  "u1",
		Catalog: oneCourse{},
		NewEngine: func(string) (play.Engine, error) {
			return nil, errors.New("no engines in this test")
		},
	}, nil)
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestRendersCourseListInFrame(t *testing.T) {
	m := newTestModel()
	m, _ = update(m, m.Init()())
	m, _ = update(m, tea.WindowSizeMsg{Width: 100, Height: 30})

	view := m.render()
	for _, want := range []string{"shelf", "Courses", "Biology", "Ctrl+C"} {
		if !strings.Contains(view, want) {
			t.Errorf("view is missing %q", want)
		}
	}
}

func TestTooSmallTerminal(t *testing.T) {
	m, _ := update(newTestModel(), tea.WindowSizeMsg{Width: 40, Height: 10})
	if !strings.Contains(m.render(), "Terminal too small") {
		t.Error("expected the resize message")
	}
}

func TestEscAtRootDoesNothing(t *testing.T) {
	m, cmd := update(newTestModel(), tea.KeyPressMsg{Code: tea.KeyEscape})
	if cmd != nil {
		t.Error("esc on the root screen should not produce a command")
	}
	if m.router.Depth() != 1 {
		t.Errorf("depth = %d", m.router.Depth())
	}
}

func TestCtrlCQuits(t *testing.T) {
	_, cmd := update(newTestModel(), tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl})
	if cmd == nil {
		t.Fatal("ctrl+c returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c should quit")
	}
}
