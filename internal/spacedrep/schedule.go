package spacedrep

import "math"

// ReviewGaps defines the resurfacing delay in sessions, indexed by the
// whole part of the success streak minus one.
var ReviewGaps = []int{1, 3, 7, 14, 30}

// MaxGapIndex is the highest index in ReviewGaps.
const MaxGapIndex = 4

// GapIndex maps a success streak to an index into ReviewGaps.
func GapIndex(successCount float64) int {
	idx := int(math.Floor(math.Max(1, successCount))) - 1
	if idx < 0 {
		return 0
	}
	if idx > MaxGapIndex {
		return MaxGapIndex
	}
	return idx
}

// NextSession returns the session index at which an item resurfaces.
// Higher streaks never yield a shorter delay.
func NextSession(currentSession int, successCount float64) int {
	return currentSession + ReviewGaps[GapIndex(successCount)]
}

// Schedules reports whether items in the given status get a resurfacing
// session. Active items stay in the immediate rotation.
func Schedules(status Status) bool {
	return status == StatusPendingFollowup || status == StatusArchived
}

// Schedule classifies an answer and computes the next review session in
// one step. next is nil when the resulting status is not scheduled.
func Schedule(currentSession int, consecutiveSuccess float64, isCorrect, isFast bool) (Classification, *int) {
	c := Classify(consecutiveSuccess, isCorrect, isFast)
	if !Schedules(c.Status) {
		return c, nil
	}
	next := NextSession(currentSession, c.SuccessCount)
	return c, &next
}
