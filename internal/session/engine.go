package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abhisek/shelf/internal/content"
	"github.com/abhisek/shelf/internal/grading"
	"github.com/abhisek/shelf/internal/mastery"
	"github.com/abhisek/shelf/internal/queue"
)

// ErrNotInitialized is returned when an operation needs a loaded session.
var ErrNotInitialized = errors.New("session not initialized")

// initFailedMessage is what the learner sees; the cause is only logged.
const initFailedMessage = "Could not load the session. Press r to retry."

// Repository is the read side of the persistence collaborator.
type Repository interface {
	SessionInfo(ctx context.Context, userID, courseID string) (SessionInfo, error)
	QuotaInfo(ctx context.Context, userID, courseID string) (QuotaInfo, error)
	CourseStats(ctx context.Context, userID, courseID string) (CourseStats, error)
	ReviewQueue(ctx context.Context, userID, courseID string, session, limit int) ([]queue.Item, error)
	ContentVersion(ctx context.Context, courseID string) (int64, error)
	Question(ctx context.Context, questionID string) (*content.Question, error)
}

// Submitter grades and persists one answer.
type Submitter interface {
	Submit(ctx context.Context, ans grading.Answer) (grading.Outcome, error)
}

// Remediator produces and stores an easier follow-up for a missed question.
type Remediator interface {
	Remediate(ctx context.Context, userID string, missed *content.Question) (*content.Question, error)
}

// Deps are the collaborators an Engine drives. Remediator and Snapshots
// are optional.
type Deps struct {
	UserID     string
	CourseID   string
	Repo       Repository
	Submitter  Submitter
	Remediator Remediator
	Snapshots  SnapshotStore
	Logger     *slog.Logger
}

// Engine owns one learner's session for one course. It serializes every
// action through Reduce and runs persistence and generation calls in the
// background, feeding their results back as actions.
type Engine struct {
	deps   Deps
	cfg    Config
	logger *slog.Logger

	mu             sync.Mutex
	state          State
	generation     uint64
	contentVersion int64
	listeners      []func(State)

	snapMu   sync.Mutex
	snapSeq  uint64
	snapDone uint64

	wg sync.WaitGroup
}

// NewEngine validates cfg and returns an idle engine.
func NewEngine(deps Deps, cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session config: %w", err)
	}
	if deps.Repo == nil || deps.Submitter == nil {
		return nil, errors.New("session engine needs a repository and a submitter")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		deps:   deps,
		cfg:    cfg,
		logger: logger.With("user_id", deps.UserID, "course_id", deps.CourseID),
		state:  NewState(),
	}, nil
}

// State returns the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// OnChange registers fn to be called after every state change, including
// those caused by background completions.
func (e *Engine) OnChange(fn func(State)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, fn)
}

// Dispatch applies a and returns the new state.
func (e *Engine) Dispatch(a Action) State {
	e.mu.Lock()
	prev := e.state
	next := Reduce(prev, a)
	e.state = next
	if touchesSnapshot(prev, next, a) {
		e.persistLocked(next)
	}
	listeners := e.listeners
	e.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
	return next
}

// InitializeSession loads everything the session needs and moves it to
// READY. It may be called again after a failure or to restart; completions
// from an earlier call are discarded.
func (e *Engine) InitializeSession(ctx context.Context) error {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()
	e.Dispatch(StartInitializing{Generation: gen})

	var (
		info    SessionInfo
		quota   QuotaInfo
		stats   *CourseStats
		version int64
		snap    *Snapshot
	)
	userID, courseID := e.deps.UserID, e.deps.CourseID

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		info, err = e.deps.Repo.SessionInfo(gctx, userID, courseID)
		if err != nil {
			return fmt.Errorf("session info: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		quota, err = e.deps.Repo.QuotaInfo(gctx, userID, courseID)
		if err != nil {
			return fmt.Errorf("quota info: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		cs, err := e.deps.Repo.CourseStats(gctx, userID, courseID)
		if err != nil {
			e.logger.Warn("course stats unavailable", "error", err)
			return nil
		}
		stats = &cs
		return nil
	})
	g.Go(func() error {
		var err error
		version, err = e.deps.Repo.ContentVersion(gctx, courseID)
		if err != nil {
			return fmt.Errorf("content version: %w", err)
		}
		return nil
	})
	if e.deps.Snapshots != nil {
		g.Go(func() error {
			s, err := e.deps.Snapshots.LoadSnapshot(gctx, userID, courseID)
			if err != nil {
				e.logger.Warn("snapshot load failed", "error", err)
				return nil
			}
			snap = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return e.fail(gen, err)
	}

	items, index := e.restore(ctx, snap, info.CurrentSession, version)
	if items == nil {
		limit := quota.ReviewQuota
		if limit <= 0 {
			limit = e.cfg.ReviewLimit
		}
		var err error
		items, err = e.deps.Repo.ReviewQueue(ctx, userID, courseID, info.CurrentSession, limit)
		if err != nil {
			return e.fail(gen, fmt.Errorf("review queue: %w", err))
		}
	}

	e.mu.Lock()
	if e.generation == gen {
		e.contentVersion = version
	}
	e.mu.Unlock()

	s := e.Dispatch(Initialize{
		Generation:         gen,
		SessionInfo:        info,
		QuotaInfo:          quota,
		CourseStats:        stats,
		Queue:              items,
		BatchSize:          e.cfg.BatchSize,
		InitialReviewIndex: index,
	})
	if s.Generation == gen {
		e.logger.Info("session ready",
			"session", info.CurrentSession,
			"queue", len(s.ReviewQueue),
			"batches", s.TotalBatches(),
			"resumed_at", s.CurrentReviewIndex)
	}
	return nil
}

// restore returns the snapshot's queue and cursor when it belongs to the
// current session and content version. A mismatching snapshot is cleared.
func (e *Engine) restore(ctx context.Context, snap *Snapshot, session int, version int64) ([]queue.Item, int) {
	if snap == nil {
		return nil, 0
	}
	if snap.matches(session, version) {
		items := snap.Queue
		if items == nil {
			items = []queue.Item{}
		}
		return items, snap.CurrentReviewIndex
	}

	e.logger.Info("discarding stale snapshot",
		"snapshot_session", snap.SessionID, "session", session,
		"snapshot_version", snap.ContentVersion, "version", version)
	if err := e.deps.Snapshots.ClearSnapshot(ctx, e.deps.UserID, e.deps.CourseID); err != nil {
		e.logger.Warn("snapshot clear failed", "error", err)
	}
	return nil, 0
}

func (e *Engine) fail(gen uint64, err error) error {
	e.logger.Error("session initialization failed", "error", err)
	e.Dispatch(SetError{Generation: gen, Message: initFailedMessage})
	return fmt.Errorf("initialize session: %w", err)
}

// Start leaves the READY screen.
func (e *Engine) Start() State {
	return e.Dispatch(StartPlaying{})
}

// Next advances to the next question.
func (e *Engine) Next() State {
	return e.Dispatch(NextQuestion{})
}

// Prev steps back one question.
func (e *Engine) Prev() State {
	return e.Dispatch(PrevQuestion{})
}

// Continue ends an intermission.
func (e *Engine) Continue() State {
	return e.Dispatch(ContinueBatch{})
}

// Finish ends the session early.
func (e *Engine) Finish() State {
	return e.Dispatch(FinishSession{})
}

// CurrentQuestion loads the question under the cursor.
func (e *Engine) CurrentQuestion(ctx context.Context) (*content.Question, error) {
	item, ok := e.State().Current()
	if !ok {
		return nil, ErrNotInitialized
	}
	q, err := e.deps.Repo.Question(ctx, item.QuestionID)
	if err != nil {
		return nil, fmt.Errorf("load question %s: %w", item.QuestionID, err)
	}
	return q, nil
}

// RecordResponse applies the answer optimistically and persists it in the
// background. A nil answerIndex is a blank answer. The returned state
// already reflects the answer; sync completion arrives later through
// OnChange. Persistence errors are logged and never returned.
func (e *Engine) RecordResponse(ctx context.Context, q *content.Question, answerIndex *int, elapsed time.Duration) (State, error) {
	if q == nil {
		return e.State(), errors.New("record response: nil question")
	}
	resp := mastery.ResponseBlank
	if answerIndex != nil {
		resp = mastery.ResponseIncorrect
		if *answerIndex == q.CorrectIndex {
			resp = mastery.ResponseCorrect
		}
	}

	e.mu.Lock()
	live := e.state.live()
	e.mu.Unlock()
	if !live {
		return e.State(), ErrNotInitialized
	}

	before := e.State()
	after := e.Dispatch(AnswerQuestion{
		QuestionID:  q.ID,
		AnswerIndex: answerIndex,
		Response:    resp,
		Elapsed:     elapsed,
	})
	if after.Results.Answered() == before.Results.Answered() {
		return after, nil
	}

	ans := grading.Answer{
		UserID:     e.deps.UserID,
		CourseID:   e.deps.CourseID,
		QuestionID: q.ID,
		Response:   resp,
		Elapsed:    elapsed,
	}
	if after.SessionInfo != nil {
		ans.Session = after.SessionInfo.CurrentSession
	}

	e.wg.Add(1)
	go e.sync(context.WithoutCancel(ctx), after.Generation, ans, q)
	return after, nil
}

func (e *Engine) sync(ctx context.Context, gen uint64, ans grading.Answer, q *content.Question) {
	defer e.wg.Done()

	sctx, cancel := context.WithTimeout(ctx, e.cfg.SyncTimeout)
	out, err := e.deps.Submitter.Submit(sctx, ans)
	cancel()
	if err != nil {
		e.logger.Warn("answer sync failed", "question_id", ans.QuestionID, "error", err)
		e.Dispatch(SyncComplete{Generation: gen})
		return
	}
	e.Dispatch(SyncComplete{Generation: gen, TopicRefreshed: out.Result.IsTopicRefreshed})

	if out.Result.IsCorrect || q.IsMock() || e.deps.Remediator == nil {
		return
	}
	if out.Result.NewFailsCount < e.cfg.ScaffoldAfterFails {
		return
	}
	e.remediate(ctx, gen, q)
}

func (e *Engine) remediate(ctx context.Context, gen uint64, missed *content.Question) {
	rctx, cancel := context.WithTimeout(ctx, e.cfg.RemedialTimeout)
	defer cancel()

	follow, err := e.deps.Remediator.Remediate(rctx, e.deps.UserID, missed)
	if err != nil {
		e.logger.Warn("remedial question failed", "question_id", missed.ID, "error", err)
		return
	}
	if follow == nil {
		return
	}
	e.refreshContentVersion(rctx, gen)

	s := e.Dispatch(InjectScaffolding{
		Generation: gen,
		Item: queue.Item{
			QuestionID: follow.ID,
			ChunkID:    follow.ChunkID,
			CourseID:   follow.CourseID,
		},
	})
	if s.Generation == gen {
		e.logger.Debug("remedial question queued", "question_id", follow.ID, "parent_id", missed.ID)
	}
}

// refreshContentVersion picks up the version bump caused by storing a
// generated question, so later snapshots are not mistaken for stale ones.
// The current snapshot is rewritten under the new version.
func (e *Engine) refreshContentVersion(ctx context.Context, gen uint64) {
	v, err := e.deps.Repo.ContentVersion(ctx, e.deps.CourseID)
	if err != nil {
		e.logger.Warn("content version refresh failed", "error", err)
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.generation != gen || v == e.contentVersion {
		return
	}
	e.contentVersion = v
	if e.state.Generation == gen && e.state.live() && e.state.SessionInfo != nil {
		e.persistLocked(e.state)
	}
}

// Summary condenses the current results.
func (e *Engine) Summary() Summary {
	return BuildSummary(e.State())
}

// Wait blocks until background syncs and snapshot writes have finished.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// touchesSnapshot reports whether a transition changed what a snapshot
// records.
func touchesSnapshot(prev, next State, a Action) bool {
	if next.Generation != prev.Generation || next.SessionInfo == nil {
		return false
	}
	if next.Status == StatusFinished {
		return prev.Status != StatusFinished
	}
	if _, ok := a.(Initialize); ok {
		return prev.Status != next.Status
	}
	if _, ok := a.(AnswerQuestion); ok {
		return prev.Results.Answered() != next.Results.Answered()
	}
	return prev.CurrentReviewIndex != next.CurrentReviewIndex ||
		len(prev.ReviewQueue) != len(next.ReviewQueue)
}

// persistLocked writes or clears the snapshot in the background. Writes
// carry a sequence number and an older write never lands after a newer
// one. Caller holds e.mu.
func (e *Engine) persistLocked(s State) {
	if e.deps.Snapshots == nil {
		return
	}
	e.snapSeq++
	seq := e.snapSeq
	snap := Snapshot{
		UserID:             e.deps.UserID,
		CourseID:           e.deps.CourseID,
		SessionID:          s.SessionInfo.CurrentSession,
		CurrentReviewIndex: s.CurrentReviewIndex,
		ContentVersion:     e.contentVersion,
		Queue:              s.ReviewQueue,
	}
	finished := s.Status == StatusFinished

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.snapMu.Lock()
		defer e.snapMu.Unlock()
		if seq <= e.snapDone {
			return
		}
		e.snapDone = seq

		ctx, cancel := context.WithTimeout(context.Background(), e.cfg.SyncTimeout)
		defer cancel()
		var err error
		if finished {
			err = e.deps.Snapshots.ClearSnapshot(ctx, snap.UserID, snap.CourseID)
		} else {
			snap.SavedAt = time.Now()
			err = e.deps.Snapshots.SaveSnapshot(ctx, snap, e.cfg.SnapshotTTL)
		}
		if err != nil {
			e.logger.Warn("snapshot write failed", "error", err)
		}
	}()
}
