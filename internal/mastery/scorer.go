package mastery

import (
	"fmt"
	"math"
	"time"
)

// ResponseType is how a question was answered.
type ResponseType string

const (
	ResponseCorrect   ResponseType = "correct"
	ResponseIncorrect ResponseType = "incorrect"
	ResponseBlank     ResponseType = "blank"
)

// Score bounds for a single item's running score.
const (
	MinScore = 0.0
	MaxScore = 100.0
)

// Nominal point deltas.
const (
	PointsCorrect          = 10.0
	PenaltyIncorrectFirst  = 5.0
	PenaltyBlankFirst      = 2.0
	PenaltyRepeatedFailure = 10.0
)

// ScoreInput is everything a strategy may look at to score one attempt.
type ScoreInput struct {
	Response ResponseType
	// Repeated is true when the item already has success or fail history.
	Repeated bool
	Elapsed  time.Duration
	Level    BloomLevel
}

// ScoringStrategy computes the nominal score delta for one attempt. The
// delta is applied to the running score with ApplyDelta.
type ScoringStrategy interface {
	Name() string
	Delta(in ScoreInput) float64
}

// BaseDelta returns the flat point delta for a response.
func BaseDelta(resp ResponseType, repeated bool) float64 {
	switch {
	case resp == ResponseCorrect:
		return PointsCorrect
	case repeated:
		return -PenaltyRepeatedFailure
	case resp == ResponseIncorrect:
		return -PenaltyIncorrectFirst
	case resp == ResponseBlank:
		return -PenaltyBlankFirst
	}
	return 0
}

// FlatScorer awards fixed deltas per response type.
type FlatScorer struct{}

func (FlatScorer) Name() string { return "flat" }

func (FlatScorer) Delta(in ScoreInput) float64 {
	return BaseDelta(in.Response, in.Repeated)
}

// AdvancedScorer weights the flat delta by the bloom coefficient and by how
// fast the answer came relative to the level's target time.
type AdvancedScorer struct{}

const (
	minTimeRatio = 0.5
	maxTimeRatio = 2.0
	minElapsed   = time.Second
)

func (AdvancedScorer) Name() string { return "advanced" }

func (AdvancedScorer) Delta(in ScoreInput) float64 {
	base := BaseDelta(in.Response, in.Repeated)
	return round2(base * in.Level.Coefficient() * TimeRatio(in.Level, in.Elapsed))
}

// TimeRatio is target/actual clamped to [0.5, 2.0]. Elapsed times below
// one second count as one second.
func TimeRatio(level BloomLevel, elapsed time.Duration) float64 {
	actual := max(elapsed, minElapsed)
	ratio := float64(level.TargetTime()) / float64(actual)
	return clamp(ratio, minTimeRatio, maxTimeRatio)
}

// StrategyByName resolves a configured strategy name.
func StrategyByName(name string) (ScoringStrategy, error) {
	switch name {
	case "", "flat":
		return FlatScorer{}, nil
	case "advanced":
		return AdvancedScorer{}, nil
	}
	return nil, fmt.Errorf("unknown scoring strategy: %q", name)
}

// ApplyDelta adds delta to prev and clamps the result to [MinScore, MaxScore].
// applied is the change actually made, which is smaller than delta near the
// bounds.
func ApplyDelta(prev, delta float64) (next, applied float64) {
	next = clamp(prev+delta, MinScore, MaxScore)
	return next, next - prev
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
