// Package grading turns one answered question into a scheduling and score
// decision, and persists that decision through a repository.
package grading

import (
	"time"

	"github.com/abhisek/shelf/internal/content"
	"github.com/abhisek/shelf/internal/mastery"
	"github.com/abhisek/shelf/internal/spacedrep"
)

// QuestionStatus is a learner's stored spaced-repetition state for one
// question.
type QuestionStatus struct {
	Status             spacedrep.Status `json:"status"`
	ConsecutiveSuccess float64          `json:"consecutive_success"`
	ConsecutiveFails   int              `json:"consecutive_fails"`
	NextReviewSession  *int             `json:"next_review_session,omitempty"`
	Score              float64          `json:"score"`
}

// Repeated reports whether the question has any answer history.
func (s *QuestionStatus) Repeated() bool {
	return s != nil && (s.ConsecutiveSuccess > 0 || s.ConsecutiveFails > 0)
}

// Submission is the input to Evaluate. Question, Chunk and Current may be
// nil; missing metadata resolves to defaults.
type Submission struct {
	Current  *QuestionStatus
	Response mastery.ResponseType
	Elapsed  time.Duration
	Question *content.Question
	Chunk    *content.Chunk
	// PreviousScore is the item's running score before this answer.
	PreviousScore       float64
	UniqueSolved        int
	TotalChunkQuestions int
	Session             int
}

// Result is the decision for one answered question.
type Result struct {
	IsCorrect         bool             `json:"is_correct"`
	ScoreDelta        float64          `json:"score_delta"`
	NewMastery        float64          `json:"new_mastery"`
	NewStatus         spacedrep.Status `json:"new_status"`
	NextReviewSession *int             `json:"next_review_session"`
	IsTopicRefreshed  bool             `json:"is_topic_refreshed"`
	NewSuccessCount   float64          `json:"new_success_count"`
	NewFailsCount     int              `json:"new_fails_count"`
}

// Evaluator combines the shelf classifier, the gap scheduler and a scoring
// strategy.
type Evaluator struct {
	strategy         mastery.ScoringStrategy
	refreshThreshold float64
}

// NewEvaluator creates an Evaluator. A nil strategy means mastery.FlatScorer.
func NewEvaluator(strategy mastery.ScoringStrategy, refreshThreshold float64) *Evaluator {
	if strategy == nil {
		strategy = mastery.FlatScorer{}
	}
	if refreshThreshold <= 0 {
		refreshThreshold = DefaultRefreshThreshold
	}
	return &Evaluator{strategy: strategy, refreshThreshold: refreshThreshold}
}

// Strategy returns the scoring strategy in use.
func (e *Evaluator) Strategy() mastery.ScoringStrategy {
	return e.strategy
}

// Evaluate computes the Result for a submission.
func (e *Evaluator) Evaluate(sub Submission) Result {
	isCorrect := sub.Response == mastery.ResponseCorrect

	var prevSuccess float64
	var prevFails int
	if sub.Current != nil {
		prevSuccess = sub.Current.ConsecutiveSuccess
		prevFails = sub.Current.ConsecutiveFails
	}

	if sub.Question != nil && sub.Question.IsMock() {
		provisional := spacedrep.Classify(prevSuccess, isCorrect, mastery.IsFastFallback(sub.Elapsed))
		return Result{
			IsCorrect:       isCorrect,
			NewMastery:      sub.PreviousScore,
			NewStatus:       provisional.Status,
			NewSuccessCount: prevSuccess,
			NewFailsCount:   prevFails,
		}
	}

	level := mastery.BloomKnowledge
	if sub.Question != nil {
		level = mastery.ParseBloomLevel(string(sub.Question.BloomLevel))
	}

	isFast := mastery.IsFastFallback(sub.Elapsed)
	if sub.Question != nil && sub.Chunk != nil {
		budget := mastery.TimeBudget(sub.Chunk.CharCount(), sub.Chunk.ConceptCount(), level)
		isFast = mastery.IsFast(sub.Elapsed, budget)
	}

	class, next := spacedrep.Schedule(sub.Session, prevSuccess, isCorrect, isFast)

	delta := e.strategy.Delta(mastery.ScoreInput{
		Response: sub.Response,
		Repeated: sub.Current.Repeated(),
		Elapsed:  sub.Elapsed,
		Level:    level,
	})
	newScore, applied := mastery.ApplyDelta(sub.PreviousScore, delta)

	fails := 0
	if !isCorrect {
		fails = prevFails + 1
	}

	return Result{
		IsCorrect:         isCorrect,
		ScoreDelta:        applied,
		NewMastery:        newScore,
		NewStatus:         class.Status,
		NextReviewSession: next,
		IsTopicRefreshed:  e.refreshed(sub.UniqueSolved, sub.TotalChunkQuestions),
		NewSuccessCount:   class.SuccessCount,
		NewFailsCount:     fails,
	}
}

func (e *Evaluator) refreshed(uniqueSolved, total int) bool {
	if total <= 0 {
		return false
	}
	return mastery.Coverage(uniqueSolved, total) >= e.refreshThreshold
}
