package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/shelf/internal/content"
	"github.com/abhisek/shelf/internal/grading"
	"github.com/abhisek/shelf/internal/queue"
)

type fakeRepo struct {
	mu         sync.Mutex
	info       SessionInfo
	quota      QuotaInfo
	version    int64
	items      []queue.Item
	infoErr    error
	queueCalls int
	lastLimit  int
}

func newFakeRepo(n int) *fakeRepo {
	return &fakeRepo{
		info:    SessionInfo{CourseID: "c1", CourseName: "Anatomy", CurrentSession: 3},
		quota:   QuotaInfo{Quotas: content.DefaultQuotas, ReviewQuota: 25},
		version: 4,
		items:   makeItems(n),
	}
}

func (r *fakeRepo) SessionInfo(context.Context, string, string) (SessionInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.info, r.infoErr
}

func (r *fakeRepo) QuotaInfo(context.Context, string, string) (QuotaInfo, error) {
	return r.quota, nil
}

func (r *fakeRepo) CourseStats(context.Context, string, string) (CourseStats, error) {
	return CourseStats{TotalQuestionsSolved: 4, AverageMastery: 55}, nil
}

func (r *fakeRepo) ReviewQueue(_ context.Context, _, _ string, _ int, limit int) ([]queue.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queueCalls++
	r.lastLimit = limit
	return r.items, nil
}

func (r *fakeRepo) ContentVersion(context.Context, string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.version, nil
}

func (r *fakeRepo) bumpVersion() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.version++
}

func (r *fakeRepo) Question(_ context.Context, id string) (*content.Question, error) {
	return &content.Question{ID: id, CourseID: "c1", ChunkID: "ch1", CorrectIndex: 1}, nil
}

func (r *fakeRepo) setInfoErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.infoErr = err
}

type fakeSubmitter struct {
	mu      sync.Mutex
	outcome grading.Outcome
	err     error
	answers []grading.Answer
}

func (s *fakeSubmitter) Submit(_ context.Context, ans grading.Answer) (grading.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers = append(s.answers, ans)
	return s.outcome, s.err
}

type fakeRemediator struct {
	release chan struct{}
	calls   int
	// repo, when set, sees its content version bumped like a real save.
	repo *fakeRepo
}

func (f *fakeRemediator) Remediate(_ context.Context, _ string, missed *content.Question) (*content.Question, error) {
	f.calls++
	if f.release != nil {
		<-f.release
	}
	if f.repo != nil {
		f.repo.bumpVersion()
	}
	return &content.Question{ID: "remedial-" + missed.ID, CourseID: missed.CourseID, ChunkID: missed.ChunkID}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T, repo *fakeRepo, sub *fakeSubmitter, deps Deps) *Engine {
	t.Helper()
	deps.UserID = "u1"
	deps.CourseID = "c1"
	deps.Repo = repo
	deps.Submitter = sub
	deps.Logger = discardLogger()
	e, err := NewEngine(deps, DefaultConfig())
	require.NoError(t, err)
	return e
}

func TestNewEngineValidates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BatchSize = 0
	_, err := NewEngine(Deps{Repo: newFakeRepo(1), Submitter: &fakeSubmitter{}}, cfg)
	assert.Error(t, err)

	_, err = NewEngine(Deps{}, DefaultConfig())
	assert.Error(t, err)
}

func TestInitializeSessionLoadsQueue(t *testing.T) {
	repo := newFakeRepo(12)
	e := newTestEngine(t, repo, &fakeSubmitter{}, Deps{})

	require.NoError(t, e.InitializeSession(context.Background()))
	s := e.State()
	assert.Equal(t, StatusReady, s.Status)
	assert.Equal(t, 2, s.TotalBatches())
	assert.Equal(t, 3, s.SessionInfo.CurrentSession)
	assert.Equal(t, 4, s.CourseStats.TotalQuestionsSolved)
	assert.Equal(t, 25, repo.lastLimit)
}

func TestInitializeSessionFailureIsRecoverable(t *testing.T) {
	repo := newFakeRepo(3)
	repo.setInfoErr(errors.New("connection refused"))
	e := newTestEngine(t, repo, &fakeSubmitter{}, Deps{})

	err := e.InitializeSession(context.Background())
	require.Error(t, err)
	s := e.State()
	assert.Equal(t, StatusError, s.Status)
	assert.NotContains(t, s.Error, "connection refused")

	repo.setInfoErr(nil)
	require.NoError(t, e.InitializeSession(context.Background()))
	assert.Equal(t, StatusReady, e.State().Status)
	assert.Len(t, e.State().ReviewQueue, 3)
}

func TestRecordResponseBeforeInitialize(t *testing.T) {
	e := newTestEngine(t, newFakeRepo(1), &fakeSubmitter{}, Deps{})
	_, err := e.RecordResponse(context.Background(), &content.Question{ID: "q00"}, nil, time.Second)
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestRecordResponseSwallowsSubmitError(t *testing.T) {
	sub := &fakeSubmitter{err: errors.New("db locked")}
	e := newTestEngine(t, newFakeRepo(2), sub, Deps{})
	require.NoError(t, e.InitializeSession(context.Background()))
	e.Start()

	q, err := e.CurrentQuestion(context.Background())
	require.NoError(t, err)
	s, err := e.RecordResponse(context.Background(), q, intPtr(1), 4*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Results.Correct)
	assert.True(t, s.IsSyncing)

	e.Wait()
	s = e.State()
	assert.False(t, s.IsSyncing)
	assert.Equal(t, 1, s.Results.Correct, "optimistic update is kept")
	require.Len(t, sub.answers, 1)
	assert.Equal(t, 3, sub.answers[0].Session)
	assert.Equal(t, "q00", sub.answers[0].QuestionID)
}

func TestRecordResponseInjectsRemedial(t *testing.T) {
	sub := &fakeSubmitter{outcome: grading.Outcome{Result: grading.Result{NewFailsCount: 1}}}
	rem := &fakeRemediator{}
	e := newTestEngine(t, newFakeRepo(5), sub, Deps{Remediator: rem})
	require.NoError(t, e.InitializeSession(context.Background()))
	e.Start()
	e.Next()

	q, err := e.CurrentQuestion(context.Background())
	require.NoError(t, err)
	_, err = e.RecordResponse(context.Background(), q, intPtr(4), time.Second)
	require.NoError(t, err)
	e.Wait()

	s := e.State()
	require.Len(t, s.ReviewQueue, 6)
	assert.Equal(t, "remedial-q01", s.ReviewQueue[2].QuestionID)
	assert.Equal(t, 1, rem.calls)
}

func TestCorrectAnswerDoesNotRemediate(t *testing.T) {
	sub := &fakeSubmitter{outcome: grading.Outcome{Result: grading.Result{IsCorrect: true}}}
	rem := &fakeRemediator{}
	e := newTestEngine(t, newFakeRepo(3), sub, Deps{Remediator: rem})
	require.NoError(t, e.InitializeSession(context.Background()))
	e.Start()

	q, _ := e.CurrentQuestion(context.Background())
	_, err := e.RecordResponse(context.Background(), q, intPtr(1), time.Second)
	require.NoError(t, err)
	e.Wait()

	assert.Zero(t, rem.calls)
	assert.Len(t, e.State().ReviewQueue, 3)
}

func TestStaleRemedialIsDiscarded(t *testing.T) {
	sub := &fakeSubmitter{outcome: grading.Outcome{Result: grading.Result{NewFailsCount: 3}}}
	rem := &fakeRemediator{release: make(chan struct{})}
	e := newTestEngine(t, newFakeRepo(3), sub, Deps{Remediator: rem})
	require.NoError(t, e.InitializeSession(context.Background()))
	e.Start()

	q, _ := e.CurrentQuestion(context.Background())
	_, err := e.RecordResponse(context.Background(), q, nil, time.Second)
	require.NoError(t, err)

	// Restart while the remedial request is still in flight.
	require.NoError(t, e.InitializeSession(context.Background()))
	close(rem.release)
	e.Wait()

	for _, it := range e.State().ReviewQueue {
		assert.NotEqual(t, "remedial-q00", it.QuestionID)
	}
	assert.Equal(t, StatusReady, e.State().Status)
}

func TestSnapshotRestoresCursor(t *testing.T) {
	repo := newFakeRepo(12)
	snaps := NewMemorySnapshots()
	require.NoError(t, snaps.SaveSnapshot(context.Background(), Snapshot{
		UserID:             "u1",
		CourseID:           "c1",
		SessionID:          3,
		ContentVersion:     4,
		CurrentReviewIndex: 5,
		Queue:              makeItems(8),
	}, time.Hour))

	e := newTestEngine(t, repo, &fakeSubmitter{}, Deps{Snapshots: snaps})
	require.NoError(t, e.InitializeSession(context.Background()))
	e.Wait()

	s := e.State()
	assert.Equal(t, 5, s.CurrentReviewIndex)
	assert.Len(t, s.ReviewQueue, 8)
	assert.Zero(t, repo.queueCalls)
}

func TestStaleSnapshotIsDiscarded(t *testing.T) {
	tests := []struct {
		name    string
		session int
		version int64
	}{
		{"old session", 2, 4},
		{"old content", 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo(12)
			snaps := NewMemorySnapshots()
			require.NoError(t, snaps.SaveSnapshot(context.Background(), Snapshot{
				UserID: "u1", CourseID: "c1",
				SessionID: tt.session, ContentVersion: tt.version,
				CurrentReviewIndex: 5, Queue: makeItems(8),
			}, time.Hour))

			e := newTestEngine(t, repo, &fakeSubmitter{}, Deps{Snapshots: snaps})
			require.NoError(t, e.InitializeSession(context.Background()))
			e.Wait()

			s := e.State()
			assert.Equal(t, 0, s.CurrentReviewIndex)
			assert.Len(t, s.ReviewQueue, 12)
			assert.Equal(t, 1, repo.queueCalls)

			saved, err := snaps.LoadSnapshot(context.Background(), "u1", "c1")
			require.NoError(t, err)
			require.NotNil(t, saved)
			assert.Equal(t, 3, saved.SessionID)
			assert.Equal(t, int64(4), saved.ContentVersion)
		})
	}
}

func TestSnapshotFollowsCursorAndClearsOnFinish(t *testing.T) {
	snaps := NewMemorySnapshots()
	e := newTestEngine(t, newFakeRepo(2), &fakeSubmitter{}, Deps{Snapshots: snaps})
	require.NoError(t, e.InitializeSession(context.Background()))
	e.Start()
	e.Next()
	e.Wait()

	saved, err := snaps.LoadSnapshot(context.Background(), "u1", "c1")
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, 1, saved.CurrentReviewIndex)

	s := e.Next()
	require.Equal(t, StatusFinished, s.Status)
	e.Wait()

	saved, err = snaps.LoadSnapshot(context.Background(), "u1", "c1")
	require.NoError(t, err)
	assert.Nil(t, saved)
}

func TestResumeKeepsResults(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo(5)
	snaps := NewMemorySnapshots()
	e := newTestEngine(t, repo, &fakeSubmitter{}, Deps{Snapshots: snaps})
	require.NoError(t, e.InitializeSession(ctx))
	e.Start()

	for _, answer := range []*int{intPtr(1), intPtr(0), nil} {
		q, err := e.CurrentQuestion(ctx)
		require.NoError(t, err)
		_, err = e.RecordResponse(ctx, q, answer, time.Second)
		require.NoError(t, err)
		e.Next()
	}
	e.Wait()

	resumed := newTestEngine(t, repo, &fakeSubmitter{}, Deps{Snapshots: snaps})
	require.NoError(t, resumed.InitializeSession(ctx))
	resumed.Wait()

	s := resumed.State()
	assert.Equal(t, 3, s.CurrentReviewIndex)
	assert.Equal(t, 1, s.Results.Correct)
	assert.Equal(t, 1, s.Results.Incorrect)
	assert.Equal(t, 1, s.Results.Blank)
	assert.Equal(t, 1, repo.queueCalls, "resumed from the snapshot")
}

func TestRemedialKeepsSnapshotResumable(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo(5)
	snaps := NewMemorySnapshots()
	sub := &fakeSubmitter{outcome: grading.Outcome{Result: grading.Result{NewFailsCount: 1}}}
	rem := &fakeRemediator{repo: repo}
	e := newTestEngine(t, repo, sub, Deps{Remediator: rem, Snapshots: snaps})
	require.NoError(t, e.InitializeSession(ctx))
	e.Start()

	q, err := e.CurrentQuestion(ctx)
	require.NoError(t, err)
	_, err = e.RecordResponse(ctx, q, intPtr(3), time.Second)
	require.NoError(t, err)
	e.Wait()
	require.Len(t, e.State().ReviewQueue, 6)

	saved, err := snaps.LoadSnapshot(ctx, "u1", "c1")
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, int64(5), saved.ContentVersion)
	assert.Len(t, saved.Queue, 6)

	resumed := newTestEngine(t, repo, &fakeSubmitter{}, Deps{Snapshots: snaps})
	require.NoError(t, resumed.InitializeSession(ctx))
	resumed.Wait()

	s := resumed.State()
	assert.Len(t, s.ReviewQueue, 6)
	assert.Equal(t, "remedial-q00", s.ReviewQueue[1].QuestionID)
	assert.Equal(t, 1, s.Results.Incorrect)
	assert.Equal(t, 1, repo.queueCalls)
}

func TestOnChangeSeesBackgroundCompletions(t *testing.T) {
	e := newTestEngine(t, newFakeRepo(2), &fakeSubmitter{}, Deps{})

	var mu sync.Mutex
	var seen []Status
	e.OnChange(func(s State) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, s.Status)
	})

	require.NoError(t, e.InitializeSession(context.Background()))
	e.Start()
	q, _ := e.CurrentQuestion(context.Background())
	_, err := e.RecordResponse(context.Background(), q, intPtr(0), time.Second)
	require.NoError(t, err)
	e.Wait()

	mu.Lock()
	defer mu.Unlock()
	// StartInitializing, Initialize, StartPlaying, AnswerQuestion, SyncComplete.
	assert.Equal(t, []Status{StatusInitializing, StatusReady, StatusPlaying, StatusPlaying, StatusPlaying}, seen)
}
