// Package router keeps the stack of screens and routes messages to the
// top one.
package router

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/shelf/internal/screen"
)

// PushScreenMsg opens Screen on top of the stack.
type PushScreenMsg struct {
	Screen screen.Screen
}

// PopScreenMsg closes the top screen.
type PopScreenMsg struct{}

// Closer is implemented by screens that hold resources to release when
// popped.
type Closer interface {
	Close()
}

type Router struct {
	stack []screen.Screen
}

func New(root screen.Screen) *Router {
	return &Router{stack: []screen.Screen{root}}
}

// Push adds s and returns its Init command.
func (r *Router) Push(s screen.Screen) tea.Cmd {
	r.stack = append(r.stack, s)
	return s.Init()
}

// Pop removes the top screen; the root is never popped. The newly
// exposed screen is re-initialized so it can refresh its data.
func (r *Router) Pop() tea.Cmd {
	if len(r.stack) <= 1 {
		return nil
	}
	top := r.stack[len(r.stack)-1]
	if c, ok := top.(Closer); ok {
		c.Close()
	}
	r.stack = r.stack[:len(r.stack)-1]
	return r.Active().Init()
}

func (r *Router) Active() screen.Screen {
	if len(r.stack) == 0 {
		return nil
	}
	return r.stack[len(r.stack)-1]
}

func (r *Router) Depth() int { return len(r.stack) }

// Update handles navigation messages itself and forwards everything else
// to the active screen.
func (r *Router) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case PushScreenMsg:
		return r.Push(msg.Screen)
	case PopScreenMsg:
		return r.Pop()
	}
	active := r.Active()
	if active == nil {
		return nil
	}
	next, cmd := active.Update(msg)
	r.stack[len(r.stack)-1] = next
	return cmd
}

func (r *Router) View(width, height int) string {
	if active := r.Active(); active != nil {
		return active.View(width, height)
	}
	return ""
}
