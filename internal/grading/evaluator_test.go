package grading

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/shelf/internal/content"
	"github.com/abhisek/shelf/internal/mastery"
	"github.com/abhisek/shelf/internal/spacedrep"
)

func trainingQuestion() *content.Question {
	return &content.Question{ID: "q1", ChunkID: "c1", CourseID: "course", Usage: content.UsageTraining, BloomLevel: mastery.BloomKnowledge}
}

func TestEvaluate_FirstCorrectFast(t *testing.T) {
	e := NewEvaluator(nil, 0)
	res := e.Evaluate(Submission{
		Response:            mastery.ResponseCorrect,
		Elapsed:             10 * time.Second,
		Question:            trainingQuestion(),
		Chunk:               &content.Chunk{ID: "c1"},
		UniqueSolved:        1,
		TotalChunkQuestions: 10,
		Session:             4,
	})

	assert.True(t, res.IsCorrect)
	assert.Equal(t, spacedrep.StatusPendingFollowup, res.NewStatus)
	assert.Equal(t, 1.0, res.NewSuccessCount)
	assert.Equal(t, 0, res.NewFailsCount)
	require.NotNil(t, res.NextReviewSession)
	assert.Equal(t, 5, *res.NextReviewSession)
	assert.Equal(t, 10.0, res.ScoreDelta)
	assert.Equal(t, 10.0, res.NewMastery)
	assert.False(t, res.IsTopicRefreshed)
}

func TestEvaluate_SlowCorrectUsesTimeBudget(t *testing.T) {
	e := NewEvaluator(nil, 0)
	// Empty chunk content, 5 concepts, knowledge: budget is 35s.
	sub := Submission{
		Response: mastery.ResponseCorrect,
		Elapsed:  40 * time.Second,
		Question: trainingQuestion(),
		Chunk:    &content.Chunk{ID: "c1"},
		Session:  1,
	}
	res := e.Evaluate(sub)
	assert.Equal(t, 0.5, res.NewSuccessCount)

	sub.Elapsed = 35 * time.Second
	res = e.Evaluate(sub)
	assert.Equal(t, 1.0, res.NewSuccessCount)
}

func TestEvaluate_FallbackFastWithoutChunk(t *testing.T) {
	e := NewEvaluator(nil, 0)
	res := e.Evaluate(Submission{Response: mastery.ResponseCorrect, Elapsed: 29 * time.Second, Session: 1})
	assert.Equal(t, 1.0, res.NewSuccessCount)

	res = e.Evaluate(Submission{Response: mastery.ResponseCorrect, Elapsed: 30 * time.Second, Session: 1})
	assert.Equal(t, 0.5, res.NewSuccessCount)
}

func TestEvaluate_RepeatedFailure(t *testing.T) {
	e := NewEvaluator(nil, 0)
	res := e.Evaluate(Submission{
		Current:       &QuestionStatus{Status: spacedrep.StatusPendingFollowup, ConsecutiveSuccess: 1.5, ConsecutiveFails: 0, Score: 40},
		Response:      mastery.ResponseBlank,
		Elapsed:       5 * time.Second,
		Question:      trainingQuestion(),
		PreviousScore: 40,
		Session:       7,
	})

	assert.False(t, res.IsCorrect)
	assert.Equal(t, spacedrep.StatusPendingFollowup, res.NewStatus)
	assert.Equal(t, 0.0, res.NewSuccessCount)
	assert.Equal(t, 1, res.NewFailsCount)
	assert.Equal(t, -10.0, res.ScoreDelta)
	assert.Equal(t, 30.0, res.NewMastery)
	require.NotNil(t, res.NextReviewSession)
	assert.Equal(t, 8, *res.NextReviewSession)
}

func TestEvaluate_ScoreClamp(t *testing.T) {
	e := NewEvaluator(nil, 0)

	res := e.Evaluate(Submission{Response: mastery.ResponseCorrect, PreviousScore: 95, Session: 1})
	assert.Equal(t, 100.0, res.NewMastery)
	assert.Equal(t, 5.0, res.ScoreDelta)

	res = e.Evaluate(Submission{Response: mastery.ResponseIncorrect, PreviousScore: 3, Session: 1})
	assert.Equal(t, 0.0, res.NewMastery)
	assert.Equal(t, -3.0, res.ScoreDelta)
}

func TestEvaluate_ArchivesAfterStreak(t *testing.T) {
	e := NewEvaluator(nil, 0)
	res := e.Evaluate(Submission{
		Current:  &QuestionStatus{ConsecutiveSuccess: 2.5},
		Response: mastery.ResponseCorrect,
		Elapsed:  time.Second,
		Session:  10,
	})
	assert.Equal(t, spacedrep.StatusArchived, res.NewStatus)
	assert.Equal(t, 3.5, res.NewSuccessCount)
	require.NotNil(t, res.NextReviewSession)
	assert.Equal(t, 17, *res.NextReviewSession)
}

func TestEvaluate_MockBypassesSRS(t *testing.T) {
	e := NewEvaluator(nil, 0)
	q := trainingQuestion()
	q.Usage = content.UsageMock

	res := e.Evaluate(Submission{
		Current:             &QuestionStatus{ConsecutiveSuccess: 2, ConsecutiveFails: 1, Score: 55},
		Response:            mastery.ResponseCorrect,
		Elapsed:             10 * time.Second,
		Question:            q,
		Chunk:               &content.Chunk{ID: "c1"},
		PreviousScore:       55,
		UniqueSolved:        10,
		TotalChunkQuestions: 10,
		Session:             3,
	})

	assert.True(t, res.IsCorrect)
	assert.Equal(t, 0.0, res.ScoreDelta)
	assert.Equal(t, 55.0, res.NewMastery)
	assert.Nil(t, res.NextReviewSession)
	assert.False(t, res.IsTopicRefreshed)
	assert.Equal(t, 2.0, res.NewSuccessCount)
	assert.Equal(t, 1, res.NewFailsCount)
	// Provisional status: 2 + 1.0 = 3 -> archived.
	assert.Equal(t, spacedrep.StatusArchived, res.NewStatus)
}

func TestEvaluate_TopicRefreshed(t *testing.T) {
	e := NewEvaluator(nil, 0)
	sub := Submission{Response: mastery.ResponseIncorrect, UniqueSolved: 8, TotalChunkQuestions: 10, Session: 1}
	assert.True(t, e.Evaluate(sub).IsTopicRefreshed)

	sub.UniqueSolved = 7
	assert.False(t, e.Evaluate(sub).IsTopicRefreshed)

	sub.TotalChunkQuestions = 0
	assert.False(t, e.Evaluate(sub).IsTopicRefreshed)
}

func TestEvaluate_AdvancedStrategy(t *testing.T) {
	e := NewEvaluator(mastery.AdvancedScorer{}, 0)
	q := trainingQuestion()
	q.BloomLevel = mastery.BloomAnalysis

	res := e.Evaluate(Submission{
		Response:      mastery.ResponseCorrect,
		Elapsed:       25 * time.Second,
		Question:      q,
		PreviousScore: 50,
		Session:       1,
	})
	// 10 * 1.6 * (50/25 = 2.0) = 32
	assert.InDelta(t, 82.0, res.NewMastery, 0.001)
	assert.InDelta(t, 32.0, res.ScoreDelta, 0.001)
}
