package session

import (
	"testing"
	"time"
)

func TestBuildSummary(t *testing.T) {
	s := NewState()
	s.Results = Results{Correct: 3, Incorrect: 1, Blank: 1, TotalTime: 3725 * time.Second}

	got := BuildSummary(s)
	if got.Total != 5 {
		t.Errorf("Total = %d, want 5", got.Total)
	}
	if got.Percentage != 60 {
		t.Errorf("Percentage = %d, want 60", got.Percentage)
	}
	if got.MasteryScore != 64 {
		t.Errorf("MasteryScore = %d, want 64", got.MasteryScore)
	}
	if got.PendingReview != 2 {
		t.Errorf("PendingReview = %d, want 2", got.PendingReview)
	}
	if got.FormattedTime() != "01:02:05" {
		t.Errorf("FormattedTime() = %q, want 01:02:05", got.FormattedTime())
	}
}

func TestBuildSummaryEmpty(t *testing.T) {
	got := BuildSummary(NewState())
	if got.Total != 0 || got.Percentage != 0 || got.MasteryScore != 0 {
		t.Errorf("empty summary = %+v", got)
	}
	if got.FormattedTime() != "00:00:00" {
		t.Errorf("FormattedTime() = %q", got.FormattedTime())
	}
}
