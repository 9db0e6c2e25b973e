package grading

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/abhisek/shelf/internal/content"
	"github.com/abhisek/shelf/internal/mastery"
)

// ChunkProgress is a learner's stored progress on one chunk.
type ChunkProgress struct {
	// TotalQuestions is the number of questions the chunk owns; 0 if unknown.
	TotalQuestions int
	// ItemScores maps every attempted question of the chunk to its running score.
	ItemScores map[string]float64
	// LastFullReview is when coverage last reached the refresh threshold.
	LastFullReview *time.Time
}

// AnswerRecord is everything persisted for one answer.
type AnswerRecord struct {
	UserID     string
	CourseID   string
	QuestionID string
	ChunkID    string
	Session    int
	Response   mastery.ResponseType
	Elapsed    time.Duration
	Mock       bool
	Result     Result

	// Chunk mastery, only meaningful when ChunkID is set and Mock is false.
	ChunkMastery   int
	FullReviewedAt *time.Time
	AnsweredAt     time.Time
}

// Repository is the persistence collaborator used by Service.
type Repository interface {
	Question(ctx context.Context, questionID string) (*content.Question, error)
	Chunk(ctx context.Context, chunkID string) (*content.Chunk, error)
	QuestionStatus(ctx context.Context, userID, questionID string) (*QuestionStatus, error)
	ChunkProgress(ctx context.Context, userID, chunkID string) (*ChunkProgress, error)
	RecordAnswer(ctx context.Context, rec AnswerRecord) error
}

// Answer is one learner response to be graded and persisted.
type Answer struct {
	UserID     string
	CourseID   string
	QuestionID string
	Session    int
	Response   mastery.ResponseType
	Elapsed    time.Duration
}

// Outcome is returned to the caller after a successful submit.
type Outcome struct {
	Result       Result
	ChunkMastery int
}

// Service grades answers and writes the results through a Repository.
type Service struct {
	repo      Repository
	evaluator *Evaluator
	config    Config
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a grading Service.
func NewService(repo Repository, cfg Config, logger *slog.Logger) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("grading config: %w", err)
	}
	strategy, _ := mastery.StrategyByName(cfg.Strategy)
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		evaluator: NewEvaluator(strategy, cfg.RefreshThreshold),
		config:    cfg,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Submit grades an answer and persists the new question status, chunk
// mastery and course counters.
func (s *Service) Submit(ctx context.Context, ans Answer) (Outcome, error) {
	q, err := s.repo.Question(ctx, ans.QuestionID)
	if err != nil {
		return Outcome{}, fmt.Errorf("load question %s: %w", ans.QuestionID, err)
	}

	status, err := s.repo.QuestionStatus(ctx, ans.UserID, ans.QuestionID)
	if err != nil {
		return Outcome{}, fmt.Errorf("load question status: %w", err)
	}

	var chunk *content.Chunk
	progress := &ChunkProgress{}
	if q.ChunkID != "" {
		if chunk, err = s.repo.Chunk(ctx, q.ChunkID); err != nil {
			return Outcome{}, fmt.Errorf("load chunk %s: %w", q.ChunkID, err)
		}
		if progress, err = s.repo.ChunkProgress(ctx, ans.UserID, q.ChunkID); err != nil {
			return Outcome{}, fmt.Errorf("load chunk progress: %w", err)
		}
	}

	total := progress.TotalQuestions
	if total <= 0 {
		total = s.config.DefaultChunkQuestions
	}

	prevScore := 0.0
	if status != nil {
		prevScore = status.Score
	}

	// Generated follow-ups sit outside the chunk's question total, so they
	// add neither coverage nor score to the chunk.
	counted := !q.IsMock() && q.ParentID == ""
	solved := len(progress.ItemScores)
	if _, seen := progress.ItemScores[q.ID]; !seen && counted {
		solved++
	}

	res := s.evaluator.Evaluate(Submission{
		Current:             status,
		Response:            ans.Response,
		Elapsed:             ans.Elapsed,
		Question:            q,
		Chunk:               chunk,
		PreviousScore:       prevScore,
		UniqueSolved:        solved,
		TotalChunkQuestions: total,
		Session:             ans.Session,
	})

	now := s.now()
	rec := AnswerRecord{
		UserID:     ans.UserID,
		CourseID:   ans.CourseID,
		QuestionID: q.ID,
		ChunkID:    q.ChunkID,
		Session:    ans.Session,
		Response:   ans.Response,
		Elapsed:    ans.Elapsed,
		Mock:       q.IsMock(),
		Result:     res,
		AnsweredAt: now,
	}

	if q.ChunkID != "" && !q.IsMock() {
		scores := make([]float64, 0, len(progress.ItemScores)+1)
		for id, sc := range progress.ItemScores {
			if id != q.ID {
				scores = append(scores, sc)
			}
		}
		if counted {
			scores = append(scores, res.NewMastery)
		}
		rec.ChunkMastery = mastery.ChunkScore(solved, total, mastery.Average(scores))

		if res.IsTopicRefreshed {
			rec.FullReviewedAt = &now
			last := progress.LastFullReview
			if last != nil && now.Sub(*last) <= s.config.RefreshCooldown {
				res.IsTopicRefreshed = false
				rec.Result.IsTopicRefreshed = false
			}
		}
	}

	if err := s.repo.RecordAnswer(ctx, rec); err != nil {
		return Outcome{}, fmt.Errorf("record answer: %w", err)
	}

	s.logger.Debug("answer graded",
		"user_id", ans.UserID,
		"question_id", q.ID,
		"status", res.NewStatus,
		"score", res.NewMastery,
		"topic_refreshed", res.IsTopicRefreshed,
	)

	return Outcome{Result: res, ChunkMastery: rec.ChunkMastery}, nil
}

// Evaluator exposes the underlying evaluator.
func (s *Service) Evaluator() *Evaluator {
	return s.evaluator
}
