package play

import (
	"charm.land/bubbles/v2/key"

	"github.com/abhisek/shelf/internal/ui/layout"
)

type keyMap struct {
	Start    key.Binding
	Choose   key.Binding
	Blank    key.Binding
	Next     key.Binding
	Prev     key.Binding
	Continue key.Binding
	Finish   key.Binding
	Retry    key.Binding
	Back     key.Binding
}

var keys = keyMap{
	Start:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("Enter", "Start")),
	Choose:   key.NewBinding(key.WithKeys("a", "b", "c", "d", "e"), key.WithHelp("A-E", "Answer")),
	Blank:    key.NewBinding(key.WithKeys("s"), key.WithHelp("S", "Leave blank")),
	Next:     key.NewBinding(key.WithKeys("enter", "n", "right"), key.WithHelp("Enter", "Next")),
	Prev:     key.NewBinding(key.WithKeys("p", "left"), key.WithHelp("P", "Previous")),
	Continue: key.NewBinding(key.WithKeys("enter"), key.WithHelp("Enter", "Continue")),
	Finish:   key.NewBinding(key.WithKeys("q"), key.WithHelp("Q", "Finish")),
	Retry:    key.NewBinding(key.WithKeys("r"), key.WithHelp("R", "Retry")),
	Back:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("Enter", "Courses")),
}

func hints(bindings ...key.Binding) []layout.KeyHint {
	out := make([]layout.KeyHint, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		out = append(out, layout.KeyHint{Key: h.Key, Description: h.Desc})
	}
	return out
}
