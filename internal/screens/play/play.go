// Package play is the quiz screen. It renders the session engine's state
// and turns key presses into engine calls; it holds no quiz logic itself.
package play

import (
	"context"
	"fmt"
	"time"

	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/shelf/internal/content"
	"github.com/abhisek/shelf/internal/router"
	"github.com/abhisek/shelf/internal/screen"
	"github.com/abhisek/shelf/internal/session"
	"github.com/abhisek/shelf/internal/ui/components"
	"github.com/abhisek/shelf/internal/ui/layout"
	"github.com/abhisek/shelf/internal/ui/theme"
)

// Engine is the part of session.Engine the screen drives.
type Engine interface {
	InitializeSession(ctx context.Context) error
	State() session.State
	OnChange(fn func(session.State))
	Start() session.State
	Next() session.State
	Prev() session.State
	Continue() session.State
	Finish() session.State
	CurrentQuestion(ctx context.Context) (*content.Question, error)
	RecordResponse(ctx context.Context, q *content.Question, answerIndex *int, elapsed time.Duration) (session.State, error)
	Summary() session.Summary
	Wait()
}

var _ Engine = (*session.Engine)(nil)

// StateChangedMsg tells the screen the engine state moved. The screen
// always re-reads the engine, so stale or reordered messages are harmless.
type StateChangedMsg struct{}

type initDoneMsg struct{ err error }

type questionMsg struct {
	id  string
	q   *content.Question
	err error
}

// Screen implements screen.Screen for one course session.
type Screen struct {
	engine Engine
	ctx    context.Context
	cancel context.CancelFunc
	now    func() time.Time

	state    session.State
	spinner  spinner.Model
	starting bool

	question  *content.Question
	loadingID string
	loadErr   error
	choice    components.MultiChoice
	shownAt   time.Time
}

var (
	_ screen.Screen          = (*Screen)(nil)
	_ screen.KeyHintProvider = (*Screen)(nil)
	_ screen.StatusProvider  = (*Screen)(nil)
	_ router.Closer          = (*Screen)(nil)
)

// New returns a screen for eng. notify delivers messages to the running
// program; it is called from engine goroutines and must not block the
// caller, so it is always invoked on its own goroutine.
func New(eng Engine, notify func(tea.Msg)) *Screen {
	ctx, cancel := context.WithCancel(context.Background())
	if notify != nil {
		eng.OnChange(func(session.State) { go notify(StateChangedMsg{}) })
	}
	return &Screen{
		engine:  eng,
		ctx:     ctx,
		cancel:  cancel,
		now:     time.Now,
		state:   eng.State(),
		spinner: spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(theme.Label)),
	}
}

func (s *Screen) Init() tea.Cmd {
	s.starting = true
	return tea.Batch(s.spinner.Tick, s.initialize())
}

func (s *Screen) initialize() tea.Cmd {
	eng, ctx := s.engine, s.ctx
	return func() tea.Msg {
		return initDoneMsg{err: eng.InitializeSession(ctx)}
	}
}

// Close waits for answers still being saved.
func (s *Screen) Close() {
	s.cancel()
	s.engine.Wait()
}

func (s *Screen) Title() string {
	if s.state.SessionInfo != nil {
		return s.state.SessionInfo.CourseName
	}
	return "Session"
}

// Status shows the session number and position in the queue.
func (s *Screen) Status() string {
	if s.state.SessionInfo == nil {
		return ""
	}
	pos := min(s.state.CurrentReviewIndex+1, len(s.state.ReviewQueue))
	return fmt.Sprintf("Session %d  %d/%d", s.state.SessionInfo.CurrentSession, pos, len(s.state.ReviewQueue))
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case StateChangedMsg:
		return s, s.refresh()

	case initDoneMsg:
		s.starting = false
		return s, s.refresh()

	case questionMsg:
		if msg.id != s.loadingID {
			return s, nil
		}
		s.loadingID = ""
		s.loadErr = msg.err
		if msg.err == nil {
			s.setQuestion(msg.q)
		}
		return s, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd

	case tea.KeyPressMsg:
		return s, s.handleKey(msg)
	}
	return s, nil
}

// refresh pulls the engine state and starts loading the question under
// the cursor when it changed.
func (s *Screen) refresh() tea.Cmd {
	s.state = s.engine.State()
	item, ok := s.state.Current()
	if !ok || !s.showsQuestion() {
		return nil
	}
	if s.question != nil && s.question.ID == item.QuestionID {
		s.syncChoice()
		return nil
	}
	if s.loadingID == item.QuestionID {
		return nil
	}
	s.loadingID = item.QuestionID
	s.loadErr = nil
	s.question = nil
	return tea.Batch(s.spinner.Tick, s.load(item.QuestionID))
}

func (s *Screen) load(id string) tea.Cmd {
	eng, ctx := s.engine, s.ctx
	return func() tea.Msg {
		q, err := eng.CurrentQuestion(ctx)
		if err == nil && q.ID != id {
			// The cursor moved while loading; the next refresh loads again.
			return questionMsg{id: ""}
		}
		return questionMsg{id: id, q: q, err: err}
	}
}

func (s *Screen) showsQuestion() bool {
	return s.state.Status == session.StatusPlaying || s.state.Status == session.StatusReady
}

func (s *Screen) setQuestion(q *content.Question) {
	s.question = q
	s.choice = components.NewMultiChoice(q.Prompt, q.Options)
	s.shownAt = s.now()
	s.syncChoice()
}

// syncChoice reveals the answer of an item answered earlier, e.g. after
// stepping back to it.
func (s *Screen) syncChoice() {
	if s.question == nil || !s.state.IsAnswered {
		return
	}
	chosen := -1
	if s.state.SelectedAnswer != nil {
		chosen = *s.state.SelectedAnswer
	}
	s.choice = s.choice.Reveal(s.question.CorrectIndex, chosen)
}

func (s *Screen) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	switch s.state.Status {
	case session.StatusError:
		if key.Matches(msg, keys.Retry) {
			s.starting = true
			return tea.Batch(s.spinner.Tick, s.initialize())
		}
		if key.Matches(msg, keys.Back) {
			return popScreen
		}

	case session.StatusReady:
		switch {
		case key.Matches(msg, keys.Start):
			s.engine.Start()
			s.shownAt = s.now()
			return s.refresh()
		case key.Matches(msg, keys.Finish):
			s.engine.Finish()
			return s.refresh()
		}

	case session.StatusPlaying:
		return s.handlePlayingKey(msg)

	case session.StatusIntermission:
		switch {
		case key.Matches(msg, keys.Continue):
			s.engine.Continue()
			return s.refresh()
		case key.Matches(msg, keys.Finish):
			s.engine.Finish()
			return s.refresh()
		}

	case session.StatusFinished, session.StatusIdle:
		if key.Matches(msg, keys.Back) {
			return popScreen
		}
	}
	return nil
}

func (s *Screen) handlePlayingKey(msg tea.KeyPressMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Finish):
		s.engine.Finish()
		return s.refresh()
	case key.Matches(msg, keys.Prev):
		s.engine.Prev()
		return s.refresh()
	case s.loadErr != nil && key.Matches(msg, keys.Retry):
		s.loadingID = ""
		return s.refresh()
	}

	if s.question == nil {
		return nil
	}
	if s.state.IsAnswered {
		if key.Matches(msg, keys.Next) {
			s.engine.Next()
			return s.refresh()
		}
		return nil
	}

	if key.Matches(msg, keys.Blank) {
		return s.answer(nil)
	}
	var confirmed bool
	s.choice, confirmed = s.choice.Update(msg)
	if confirmed {
		idx := s.choice.Chosen
		return s.answer(&idx)
	}
	return nil
}

func (s *Screen) answer(idx *int) tea.Cmd {
	elapsed := s.now().Sub(s.shownAt)
	if _, err := s.engine.RecordResponse(s.ctx, s.question, idx, elapsed); err != nil {
		s.loadErr = err
		return nil
	}
	return s.refresh()
}

func popScreen() tea.Msg { return router.PopScreenMsg{} }

// KeyHints lists the keys valid in the current status.
func (s *Screen) KeyHints() []layout.KeyHint {
	switch s.state.Status {
	case session.StatusReady:
		return hints(keys.Start, keys.Finish)
	case session.StatusPlaying:
		if s.state.IsAnswered {
			return hints(keys.Next, keys.Prev, keys.Finish)
		}
		return hints(keys.Choose, keys.Blank, keys.Prev, keys.Finish)
	case session.StatusIntermission:
		return hints(keys.Continue, keys.Finish)
	case session.StatusError:
		return hints(keys.Retry, keys.Back)
	case session.StatusFinished:
		return hints(keys.Back)
	}
	return nil
}
