package play

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"testing"
	"time"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/shelf/internal/content"
	"github.com/abhisek/shelf/internal/mastery"
	"github.com/abhisek/shelf/internal/queue"
	"github.com/abhisek/shelf/internal/router"
	"github.com/abhisek/shelf/internal/session"
)

// fakeEngine runs the real reducer over an in-memory queue.
type fakeEngine struct {
	mu        sync.Mutex
	state     session.State
	questions map[string]*content.Question
	initErr   error
	batchSize int
	answers   []answered
	listeners []func(session.State)
	waited    bool
}

type answered struct {
	id      string
	index   *int
	elapsed time.Duration
}

func newFakeEngine(ids ...string) *fakeEngine {
	qs := make(map[string]*content.Question, len(ids))
	for _, id := range ids {
		qs[id] = &content.Question{
			ID:           id,
			Prompt:       "Question " + id,
			Options:      []string{"one", "two", "three", "four", "five"},
			CorrectIndex: 1,
			Explanation:  "Two is right.",
		}
	}
	return &fakeEngine{state: session.NewState(), questions: qs, batchSize: 10}
}

func (f *fakeEngine) dispatch(a session.Action) session.State {
	f.mu.Lock()
	f.state = session.Reduce(f.state, a)
	s, ls := f.state, f.listeners
	f.mu.Unlock()
	for _, fn := range ls {
		fn(s)
	}
	return s
}

func (f *fakeEngine) InitializeSession(context.Context) error {
	gen := f.State().Generation + 1
	f.dispatch(session.StartInitializing{Generation: gen})
	if f.initErr != nil {
		f.dispatch(session.SetError{Generation: gen, Message: "Could not start the session."})
		return f.initErr
	}
	items := make([]queue.Item, 0, len(f.questions))
	for _, id := range sortedIDs(f.questions) {
		items = append(items, queue.Item{QuestionID: id, CourseID: "bio"})
	}
	f.dispatch(session.Initialize{
		Generation:  gen,
		SessionInfo: session.SessionInfo{CourseID: "bio", CourseName: "Biology", CurrentSession: 3, IsNewSession: true},
		QuotaInfo:   session.QuotaInfo{ReviewQuota: 25, PendingReviewCount: 4},
		CourseStats: &session.CourseStats{TotalQuestionsSolved: 12, AverageMastery: 40},
		Queue:       items,
		BatchSize:   f.batchSize,
	})
	return nil
}

func sortedIDs(m map[string]*content.Question) []string {
	return slices.Sorted(maps.Keys(m))
}

func (f *fakeEngine) State() session.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeEngine) OnChange(fn func(session.State)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, fn)
}

func (f *fakeEngine) Start() session.State    { return f.dispatch(session.StartPlaying{}) }
func (f *fakeEngine) Next() session.State     { return f.dispatch(session.NextQuestion{}) }
func (f *fakeEngine) Prev() session.State     { return f.dispatch(session.PrevQuestion{}) }
func (f *fakeEngine) Continue() session.State { return f.dispatch(session.ContinueBatch{}) }
func (f *fakeEngine) Finish() session.State   { return f.dispatch(session.FinishSession{}) }
func (f *fakeEngine) Summary() session.Summary {
	return session.BuildSummary(f.State())
}
func (f *fakeEngine) Wait() { f.waited = true }

func (f *fakeEngine) CurrentQuestion(context.Context) (*content.Question, error) {
	item, ok := f.State().Current()
	if !ok {
		return nil, session.ErrNotInitialized
	}
	return f.questions[item.QuestionID], nil
}

func (f *fakeEngine) RecordResponse(_ context.Context, q *content.Question, idx *int, elapsed time.Duration) (session.State, error) {
	resp := mastery.ResponseBlank
	if idx != nil {
		resp = mastery.ResponseIncorrect
		if *idx == q.CorrectIndex {
			resp = mastery.ResponseCorrect
		}
	}
	f.answers = append(f.answers, answered{id: q.ID, index: idx, elapsed: elapsed})
	return f.dispatch(session.AnswerQuestion{QuestionID: q.ID, AnswerIndex: idx, Response: resp, Elapsed: elapsed}), nil
}

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func enter() tea.KeyPressMsg { return tea.KeyPressMsg{Code: tea.KeyEnter} }

// run executes cmd and feeds every resulting message except spinner
// ticks back into the screen, following batches.
func run(t *testing.T, s *Screen, cmd tea.Cmd) {
	t.Helper()
	pending := []tea.Cmd{cmd}
	for steps := 0; len(pending) > 0; steps++ {
		require.Less(t, steps, 100, "command loop did not settle")
		c := pending[0]
		pending = pending[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			pending = append(pending, msg...)
		case spinner.TickMsg, nil:
		default:
			_, next := s.Update(msg)
			pending = append(pending, next)
		}
	}
}

// started returns a screen past initialization with a fixed clock.
func started(t *testing.T, eng *fakeEngine) (*Screen, *time.Time) {
	t.Helper()
	s := New(eng, nil)
	clock := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }
	run(t, s, s.Init())
	return s, &clock
}

func press(t *testing.T, s *Screen, msg tea.Msg) {
	t.Helper()
	_, cmd := s.Update(msg)
	run(t, s, cmd)
}

func TestReadyScreen(t *testing.T) {
	s, _ := started(t, newFakeEngine("q1", "q2"))

	assert.Equal(t, session.StatusReady, s.state.Status)
	assert.Equal(t, "Biology", s.Title())
	assert.Equal(t, "Session 3  1/2", s.Status())

	view := s.View(100, 30)
	assert.Contains(t, view, "Session 3")
	assert.Contains(t, view, "2 of 25 planned")
	assert.Contains(t, view, "Press Enter to start")
}

func TestAnswerFlow(t *testing.T) {
	eng := newFakeEngine("q1", "q2")
	s, clock := started(t, eng)

	press(t, s, enter())
	require.Equal(t, session.StatusPlaying, s.state.Status)
	require.NotNil(t, s.question)
	assert.Equal(t, "q1", s.question.ID)
	assert.Contains(t, s.View(100, 30), "Question q1")

	*clock = clock.Add(12 * time.Second)
	press(t, s, keyPress('b'))

	require.Len(t, eng.answers, 1)
	assert.Equal(t, 1, *eng.answers[0].index)
	assert.Equal(t, 12*time.Second, eng.answers[0].elapsed)
	assert.True(t, s.state.IsAnswered)
	view := s.View(100, 30)
	assert.Contains(t, view, "Correct!")
	assert.Contains(t, view, "Two is right.")

	// A second answer key is ignored once answered.
	press(t, s, keyPress('c'))
	assert.Len(t, eng.answers, 1)

	press(t, s, enter())
	require.NotNil(t, s.question)
	assert.Equal(t, "q2", s.question.ID)
	assert.False(t, s.state.IsAnswered)
}

func TestWrongAndBlankAnswers(t *testing.T) {
	eng := newFakeEngine("q1", "q2")
	s, _ := started(t, eng)
	press(t, s, enter())

	press(t, s, keyPress('e'))
	assert.Contains(t, s.View(100, 30), "Not quite. The answer is B.")
	press(t, s, enter())

	press(t, s, keyPress('s'))
	require.Len(t, eng.answers, 2)
	assert.Nil(t, eng.answers[1].index)
	assert.Contains(t, s.View(100, 30), "Left blank")
	assert.Equal(t, 1, s.state.Results.Incorrect)
	assert.Equal(t, 1, s.state.Results.Blank)
}

func TestArrowSelectionAndEnter(t *testing.T) {
	eng := newFakeEngine("q1")
	s, _ := started(t, eng)
	press(t, s, enter())

	press(t, s, tea.KeyPressMsg{Code: tea.KeyDown})
	press(t, s, tea.KeyPressMsg{Code: tea.KeyDown})
	press(t, s, enter())

	require.Len(t, eng.answers, 1)
	assert.Equal(t, 2, *eng.answers[0].index)
}

func TestPrevRevealsEarlierAnswer(t *testing.T) {
	eng := newFakeEngine("q1", "q2")
	s, _ := started(t, eng)
	press(t, s, enter())
	press(t, s, keyPress('a'))
	press(t, s, enter())

	press(t, s, keyPress('p'))
	require.Equal(t, "q1", s.question.ID)
	assert.True(t, s.state.IsAnswered)
	assert.Equal(t, 0, s.choice.Chosen)
	assert.Equal(t, 1, s.choice.Correct)
}

func TestIntermissionAndFinish(t *testing.T) {
	eng := newFakeEngine("q1", "q2", "q3")
	eng.batchSize = 2
	s, _ := started(t, eng)
	press(t, s, enter())

	press(t, s, keyPress('b'))
	press(t, s, enter())
	press(t, s, keyPress('b'))
	press(t, s, enter())
	require.Equal(t, session.StatusIntermission, s.state.Status)
	assert.Contains(t, s.View(100, 30), "Batch 1 of 2 done")

	press(t, s, enter())
	require.Equal(t, session.StatusPlaying, s.state.Status)
	assert.Equal(t, "q3", s.question.ID)

	press(t, s, keyPress('q'))
	require.Equal(t, session.StatusFinished, s.state.Status)
	view := s.View(100, 30)
	assert.Contains(t, view, "Session complete")
	assert.Contains(t, view, "2 (100%)")

	_, cmd := s.Update(enter())
	require.NotNil(t, cmd)
	assert.Equal(t, router.PopScreenMsg{}, cmd())
}

func TestInitErrorAndRetry(t *testing.T) {
	eng := newFakeEngine("q1")
	eng.initErr = errors.New("db locked")
	s, _ := started(t, eng)

	require.Equal(t, session.StatusError, s.state.Status)
	assert.Contains(t, s.View(100, 30), "Could not start the session.")

	eng.initErr = nil
	press(t, s, keyPress('r'))
	assert.Equal(t, session.StatusReady, s.state.Status)
}

func TestEngineChangesReachProgram(t *testing.T) {
	eng := newFakeEngine("q1")
	got := make(chan tea.Msg, 8)
	New(eng, func(msg tea.Msg) { got <- msg })

	eng.Start()

	select {
	case msg := <-got:
		assert.Equal(t, StateChangedMsg{}, msg)
	case <-time.After(time.Second):
		t.Fatal("no notification")
	}
}

func TestCloseWaitsForEngine(t *testing.T) {
	eng := newFakeEngine("q1")
	s := New(eng, nil)
	s.Close()
	assert.True(t, eng.waited)
}
