package session

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/shelf/internal/mastery"
	"github.com/abhisek/shelf/internal/queue"
	"github.com/abhisek/shelf/internal/spacedrep"
)

func makeItems(n int) []queue.Item {
	items := make([]queue.Item, n)
	for i := range items {
		items[i] = queue.Item{
			QuestionID: fmt.Sprintf("q%02d", i),
			ChunkID:    "ch1",
			CourseID:   "c1",
			Status:     spacedrep.StatusActive,
			Priority:   queue.PriorityActive,
		}
	}
	return items
}

func readyState(n int) State {
	s := Reduce(NewState(), StartInitializing{Generation: 1})
	return Reduce(s, Initialize{
		Generation:  1,
		SessionInfo: SessionInfo{CourseID: "c1", CurrentSession: 3},
		CourseStats: &CourseStats{TotalQuestionsSolved: 7},
		Queue:       makeItems(n),
		BatchSize:   10,
	})
}

func playingAt(t *testing.T, n, cursor int) State {
	t.Helper()
	s := Reduce(readyState(n), StartPlaying{})
	for s.CurrentReviewIndex < cursor {
		s = Reduce(s, NextQuestion{})
		if s.Status == StatusIntermission {
			s = Reduce(s, ContinueBatch{})
		}
	}
	require.Equal(t, cursor, s.CurrentReviewIndex)
	return s
}

func answerCurrent(s State, resp mastery.ResponseType, idx *int) State {
	cur, _ := s.Current()
	return Reduce(s, AnswerQuestion{
		QuestionID:  cur.QuestionID,
		AnswerIndex: idx,
		Response:    resp,
		Elapsed:     5 * time.Second,
	})
}

func intPtr(v int) *int { return &v }

func questionIDs(items []queue.Item) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.QuestionID
	}
	return ids
}

func checkInvariants(t *testing.T, s State) {
	t.Helper()
	assert.Equal(t, questionIDs(s.ReviewQueue), questionIDs(queue.Flatten(s.Batches)),
		"batches must concatenate to the review queue")
	assert.GreaterOrEqual(t, s.CurrentReviewIndex, 0)
	assert.LessOrEqual(t, s.CurrentReviewIndex, len(s.ReviewQueue))
	assert.GreaterOrEqual(t, s.TotalBatches(), 1)
}

func TestEmptyQueueFinishesOnFirstNext(t *testing.T) {
	s := readyState(0)
	if s.Status != StatusReady {
		t.Fatalf("Status = %s, want READY", s.Status)
	}
	if s.TotalBatches() != 1 || len(s.Batches[0]) != 0 {
		t.Fatalf("Batches = %v, want [[]]", s.Batches)
	}

	s = Reduce(s, NextQuestion{})
	if s.Status != StatusFinished {
		t.Errorf("Status = %s, want FINISHED", s.Status)
	}
	if s.CurrentReviewIndex != 0 {
		t.Errorf("CurrentReviewIndex = %d, want 0", s.CurrentReviewIndex)
	}
	checkInvariants(t, s)
}

func TestBatchCrossing(t *testing.T) {
	s := playingAt(t, 12, 9)
	require.Equal(t, StatusPlaying, s.Status)
	require.Equal(t, 0, s.CurrentBatchIndex)

	s = Reduce(s, NextQuestion{})
	assert.Equal(t, StatusIntermission, s.Status)
	assert.Equal(t, 10, s.CurrentReviewIndex)
	assert.Equal(t, 1, s.CurrentBatchIndex)

	// The cursor does not move again until the break is acknowledged.
	blocked := Reduce(s, NextQuestion{})
	assert.Equal(t, s.CurrentReviewIndex, blocked.CurrentReviewIndex)
	assert.Equal(t, StatusIntermission, blocked.Status)

	s = Reduce(s, ContinueBatch{})
	assert.Equal(t, StatusPlaying, s.Status)
	assert.Equal(t, 10, s.CurrentReviewIndex)
	checkInvariants(t, s)
}

func TestIntermissionHappensOncePerBoundary(t *testing.T) {
	s := Reduce(readyState(25), StartPlaying{})
	intermissions := 0
	for s.Status != StatusFinished {
		s = answerCurrent(s, mastery.ResponseCorrect, intPtr(0))
		s = Reduce(s, NextQuestion{})
		if s.Status == StatusIntermission {
			intermissions++
			s = Reduce(s, ContinueBatch{})
		}
	}
	if intermissions != 2 {
		t.Errorf("intermissions = %d, want 2", intermissions)
	}
	if s.CurrentReviewIndex != 25 {
		t.Errorf("CurrentReviewIndex = %d, want 25", s.CurrentReviewIndex)
	}
}

func TestInjectScaffoldingAfterCursor(t *testing.T) {
	s := playingAt(t, 10, 3)
	s = Reduce(s, InjectScaffolding{Generation: 1, Item: queue.Item{QuestionID: "remedial"}})

	require.Len(t, s.Batches[0], 11)
	require.Len(t, s.ReviewQueue, 11)
	got := s.ReviewQueue[4]
	assert.Equal(t, "remedial", got.QuestionID)
	assert.Equal(t, spacedrep.StatusPendingFollowup, got.Status)
	assert.Equal(t, queue.PriorityScaffold, got.Priority)
	assert.Equal(t, "c1", got.CourseID)
	assert.Equal(t, "q03", s.ReviewQueue[3].QuestionID)
	assert.Equal(t, "q04", s.ReviewQueue[5].QuestionID)
	assert.Equal(t, "q09", s.ReviewQueue[10].QuestionID)
	assert.Equal(t, 3, s.CurrentReviewIndex)
	checkInvariants(t, s)

	s = Reduce(s, NextQuestion{})
	cur, _ := s.Current()
	assert.Equal(t, "remedial", cur.QuestionID)
}

func TestInjectScaffoldingInLaterBatch(t *testing.T) {
	s := playingAt(t, 12, 10)
	s = Reduce(s, InjectScaffolding{Generation: 1, Item: queue.Item{QuestionID: "remedial"}})

	assert.Len(t, s.Batches[0], 10)
	require.Len(t, s.Batches[1], 3)
	assert.Equal(t, "remedial", s.Batches[1][1].QuestionID)
	assert.Equal(t, "remedial", s.ReviewQueue[11].QuestionID)
	checkInvariants(t, s)
}

func TestInjectScaffoldingIgnored(t *testing.T) {
	base := playingAt(t, 5, 1)

	tests := []struct {
		name  string
		state State
		act   InjectScaffolding
	}{
		{"duplicate", base, InjectScaffolding{Generation: 1, Item: queue.Item{QuestionID: "q03"}}},
		{"stale generation", base, InjectScaffolding{Generation: 7, Item: queue.Item{QuestionID: "new"}}},
		{"empty id", base, InjectScaffolding{Generation: 1}},
		{"finished", Reduce(base, FinishSession{}), InjectScaffolding{Generation: 1, Item: queue.Item{QuestionID: "new"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reduce(tt.state, tt.act)
			assert.Equal(t, questionIDs(tt.state.ReviewQueue), questionIDs(got.ReviewQueue))
		})
	}
}

func TestAnswerQuestion(t *testing.T) {
	s := playingAt(t, 3, 0)
	s = answerCurrent(s, mastery.ResponseIncorrect, intPtr(2))

	require.True(t, s.IsAnswered)
	require.NotNil(t, s.SelectedAnswer)
	assert.Equal(t, 2, *s.SelectedAnswer)
	require.NotNil(t, s.IsCorrect)
	assert.False(t, *s.IsCorrect)
	assert.True(t, s.IsSyncing)
	assert.Equal(t, 1, s.Results.Incorrect)
	assert.Equal(t, 5*time.Second, s.Results.TotalTime)
	assert.Equal(t, 8, s.CourseStats.TotalQuestionsSolved)
	assert.True(t, s.ReviewQueue[0].Answered)
	assert.True(t, s.Batches[0][0].Answered)

	again := answerCurrent(s, mastery.ResponseCorrect, intPtr(1))
	assert.Equal(t, s.Results, again.Results, "second answer to the same item is ignored")

	wrongID := Reduce(s, AnswerQuestion{QuestionID: "q02", Response: mastery.ResponseCorrect})
	assert.Equal(t, s.Results, wrongID.Results)
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	s := playingAt(t, 3, 0)
	_ = answerCurrent(s, mastery.ResponseCorrect, intPtr(0))
	_ = Reduce(s, InjectScaffolding{Generation: 1, Item: queue.Item{QuestionID: "x"}})

	if s.ReviewQueue[0].Answered || s.Batches[0][0].Answered {
		t.Error("answer leaked into the input state")
	}
	if len(s.ReviewQueue) != 3 || len(s.Batches[0]) != 3 {
		t.Error("injection leaked into the input state")
	}
	if s.CourseStats.TotalQuestionsSolved != 7 {
		t.Errorf("TotalQuestionsSolved = %d, want 7", s.CourseStats.TotalQuestionsSolved)
	}
}

func TestResultsCountDistinctAnsweredItems(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	responses := []mastery.ResponseType{mastery.ResponseCorrect, mastery.ResponseIncorrect, mastery.ResponseBlank}

	for run := 0; run < 50; run++ {
		s := Reduce(readyState(rng.Intn(30)), StartPlaying{})
		for step := 0; step < 80; step++ {
			switch rng.Intn(5) {
			case 0, 1:
				s = answerCurrent(s, responses[rng.Intn(3)], intPtr(rng.Intn(5)))
			case 2:
				s = Reduce(s, NextQuestion{})
			case 3:
				s = Reduce(s, PrevQuestion{})
			case 4:
				s = Reduce(s, ContinueBatch{})
			}

			answered := 0
			for _, it := range s.ReviewQueue {
				if it.Answered {
					answered++
				}
			}
			if s.Results.Answered() != answered {
				t.Fatalf("run %d step %d: results %d, answered items %d", run, step, s.Results.Answered(), answered)
			}
			if answered > len(s.ReviewQueue) {
				t.Fatalf("run %d: answered %d exceeds queue %d", run, answered, len(s.ReviewQueue))
			}
			checkInvariants(t, s)
		}
	}
}

func TestPrevQuestionRestoresAnswer(t *testing.T) {
	s := playingAt(t, 4, 0)
	s = answerCurrent(s, mastery.ResponseCorrect, intPtr(3))
	s = Reduce(s, NextQuestion{})
	require.False(t, s.IsAnswered)

	s = Reduce(s, PrevQuestion{})
	assert.Equal(t, 0, s.CurrentReviewIndex)
	assert.True(t, s.IsAnswered)
	require.NotNil(t, s.SelectedAnswer)
	assert.Equal(t, 3, *s.SelectedAnswer)
	require.NotNil(t, s.IsCorrect)
	assert.True(t, *s.IsCorrect)

	s = Reduce(s, PrevQuestion{})
	assert.Equal(t, 0, s.CurrentReviewIndex, "cursor clamps at zero")
}

func TestPrevQuestionAcrossBatchBoundary(t *testing.T) {
	s := playingAt(t, 12, 9)
	s = Reduce(s, NextQuestion{})
	require.Equal(t, StatusIntermission, s.Status)

	s = Reduce(s, PrevQuestion{})
	assert.Equal(t, StatusPlaying, s.Status)
	assert.Equal(t, 9, s.CurrentReviewIndex)
	assert.Equal(t, 0, s.CurrentBatchIndex)
}

func TestInitializeRestoresCursor(t *testing.T) {
	tests := []struct {
		name      string
		index     int
		wantIndex int
		wantBatch int
	}{
		{"start", 0, 0, 0},
		{"second batch", 11, 11, 1},
		{"negative", -4, 0, 0},
		{"past end", 50, 12, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Reduce(NewState(), StartInitializing{Generation: 2})
			s = Reduce(s, Initialize{
				Generation:         2,
				Queue:              makeItems(12),
				BatchSize:          10,
				InitialReviewIndex: tt.index,
			})
			if s.CurrentReviewIndex != tt.wantIndex {
				t.Errorf("CurrentReviewIndex = %d, want %d", s.CurrentReviewIndex, tt.wantIndex)
			}
			if s.CurrentBatchIndex != tt.wantBatch {
				t.Errorf("CurrentBatchIndex = %d, want %d", s.CurrentBatchIndex, tt.wantBatch)
			}
		})
	}
}

func TestInitializeRecountsRestoredAnswers(t *testing.T) {
	items := makeItems(6)
	yes, no := true, false
	items[0].Answered, items[0].UserAnswer, items[0].IsCorrectAnswer = true, intPtr(2), &yes
	items[1].Answered, items[1].UserAnswer, items[1].IsCorrectAnswer = true, intPtr(0), &no
	items[2].Answered, items[2].IsCorrectAnswer = true, &no
	items[3].Answered, items[3].UserAnswer, items[3].IsCorrectAnswer = true, intPtr(1), &yes

	s := Reduce(NewState(), StartInitializing{Generation: 1})
	s = Reduce(s, Initialize{Generation: 1, Queue: items, BatchSize: 10, InitialReviewIndex: 4})

	assert.Equal(t, 2, s.Results.Correct)
	assert.Equal(t, 1, s.Results.Incorrect)
	assert.Equal(t, 1, s.Results.Blank)
	assert.Equal(t, 4, s.Results.Answered())
	checkInvariants(t, s)

	s = answerCurrent(Reduce(s, StartPlaying{}), mastery.ResponseCorrect, intPtr(3))
	assert.Equal(t, 3, s.Results.Correct)
	checkInvariants(t, s)
}

func TestStaleCompletionsDropped(t *testing.T) {
	s := readyState(3)
	s = answerCurrent(Reduce(s, StartPlaying{}), mastery.ResponseCorrect, intPtr(0))
	s = Reduce(s, StartInitializing{Generation: 2})

	for _, a := range []Action{
		Initialize{Generation: 1, Queue: makeItems(5)},
		SyncComplete{Generation: 1, TopicRefreshed: true},
		SetError{Generation: 1, Message: "boom"},
	} {
		got := Reduce(s, a)
		if got.Status != StatusInitializing || got.TopicRefreshed || len(got.ReviewQueue) != 0 {
			t.Errorf("%T with stale generation changed state: %+v", a, got)
		}
	}
}

func TestSyncComplete(t *testing.T) {
	s := answerCurrent(playingAt(t, 2, 0), mastery.ResponseCorrect, intPtr(0))
	require.True(t, s.IsSyncing)

	s = Reduce(s, SyncComplete{Generation: 1, TopicRefreshed: true})
	assert.False(t, s.IsSyncing)
	assert.True(t, s.TopicRefreshed)
}

func TestSyncingUntilLastSyncCompletes(t *testing.T) {
	s := answerCurrent(playingAt(t, 3, 0), mastery.ResponseCorrect, intPtr(0))
	s = Reduce(s, NextQuestion{})
	s = answerCurrent(s, mastery.ResponseIncorrect, intPtr(1))
	require.Equal(t, 2, s.PendingSyncs)

	s = Reduce(s, SyncComplete{Generation: 1})
	assert.True(t, s.IsSyncing, "second answer is still in flight")
	assert.Equal(t, 1, s.PendingSyncs)

	s = Reduce(s, SyncComplete{Generation: 1})
	assert.False(t, s.IsSyncing)
	assert.Zero(t, s.PendingSyncs)

	s = Reduce(s, SyncComplete{Generation: 1})
	assert.Zero(t, s.PendingSyncs, "extra completions do not go negative")
}

func TestErrorIsRecoverable(t *testing.T) {
	s := Reduce(NewState(), StartInitializing{Generation: 1})
	s = Reduce(s, SetError{Generation: 1, Message: "no network"})
	require.Equal(t, StatusError, s.Status)
	require.Equal(t, "no network", s.Error)

	// Nothing but a fresh initialization moves an errored session.
	assert.Equal(t, StatusError, Reduce(s, NextQuestion{}).Status)
	assert.Equal(t, StatusError, Reduce(s, StartPlaying{}).Status)

	s = Reduce(s, StartInitializing{Generation: 2})
	assert.Equal(t, StatusInitializing, s.Status)
	assert.Empty(t, s.Error)
}

func TestFinishSession(t *testing.T) {
	s := Reduce(playingAt(t, 5, 2), FinishSession{})
	assert.Equal(t, StatusFinished, s.Status)
	assert.Equal(t, 2, s.CurrentReviewIndex)

	idle := Reduce(NewState(), FinishSession{})
	assert.Equal(t, StatusIdle, idle.Status)
}
