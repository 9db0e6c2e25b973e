package mastery

import (
	"math"
	"time"
)

const (
	// ReadingCharsPerMinute is the assumed reading speed for chunk content.
	ReadingCharsPerMinute = 780

	// BaseComplexitySecs is the fixed thinking time per question.
	BaseComplexitySecs = 15

	// PerConceptSecs is added to the thinking time for every concept in the chunk.
	PerConceptSecs = 2

	// BufferSecs is the slack added to every time budget.
	BufferSecs = 10

	// DefaultConceptCount is used when a chunk has no concept map.
	DefaultConceptCount = 5

	// FallbackFastThreshold decides fast/slow when no content metadata exists.
	FallbackFastThreshold = 30 * time.Second
)

// TimeBudget returns tMax, the time within which an answer counts as fast:
// reading time for the chunk content plus complexity scaled by the bloom
// level plus a fixed buffer. Rounded to the millisecond.
func TimeBudget(charCount, conceptCount int, level BloomLevel) time.Duration {
	reading := float64(charCount) / ReadingCharsPerMinute * 60
	complexity := float64(BaseComplexitySecs+conceptCount*PerConceptSecs) * level.Multiplier()
	secs := reading + complexity + BufferSecs
	return time.Duration(math.Round(secs*1000)) * time.Millisecond
}

// IsFast reports whether elapsed is within budget.
func IsFast(elapsed, budget time.Duration) bool {
	return elapsed <= budget
}

// IsFastFallback is the fast/slow check used without content metadata.
func IsFastFallback(elapsed time.Duration) bool {
	return elapsed < FallbackFastThreshold
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
