package session

import (
	"fmt"
	"math"
	"time"
)

// Summary holds the data displayed on the finish screen.
type Summary struct {
	Total         int           `json:"total"`
	Correct       int           `json:"correct"`
	Incorrect     int           `json:"incorrect"`
	Blank         int           `json:"blank"`
	Percentage    int           `json:"percentage"`
	MasteryScore  int           `json:"masteryScore"`
	PendingReview int           `json:"pendingReview"`
	TotalTime     time.Duration `json:"totalTime"`
}

// BuildSummary condenses the session results. Percentage and MasteryScore
// are on a 0-100 scale; an incorrect answer counts for a fifth of a
// correct one in the mastery figure.
func BuildSummary(s State) Summary {
	r := s.Results
	sum := Summary{
		Total:         r.Answered(),
		Correct:       r.Correct,
		Incorrect:     r.Incorrect,
		Blank:         r.Blank,
		PendingReview: r.Incorrect + r.Blank,
		TotalTime:     r.TotalTime,
	}
	if sum.Total == 0 {
		return sum
	}
	total := float64(sum.Total)
	sum.Percentage = int(math.Round(float64(r.Correct) / total * 100))
	sum.MasteryScore = int(math.Round((float64(r.Correct) + float64(r.Incorrect)*0.2) / total * 100))
	return sum
}

// FormattedTime renders TotalTime as hh:mm:ss.
func (s Summary) FormattedTime() string {
	return FormatClock(s.TotalTime)
}

// FormatClock renders d as hh:mm:ss, truncated to whole seconds.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs/60)%60, secs%60)
}
