package spacedrep

import "testing"

func TestReviewGaps_Values(t *testing.T) {
	expected := []int{1, 3, 7, 14, 30}
	if len(ReviewGaps) != len(expected) {
		t.Fatalf("expected %d gaps, got %d", len(expected), len(ReviewGaps))
	}
	for i, v := range expected {
		if ReviewGaps[i] != v {
			t.Errorf("ReviewGaps[%d] = %d, want %d", i, ReviewGaps[i], v)
		}
	}
}

func TestNextSession(t *testing.T) {
	tests := []struct {
		current int
		streak  float64
		want    int
	}{
		{10, 1, 11},
		{10, 2, 13},
		{10, 5, 40},
		{10, 0, 11},
		{10, 0.5, 11},
		{10, 1.5, 11},
		{10, 3.5, 17},
		{10, 4, 24},
		{10, 99, 40},
	}

	for _, tt := range tests {
		if got := NextSession(tt.current, tt.streak); got != tt.want {
			t.Errorf("NextSession(%d, %v) = %d, want %d", tt.current, tt.streak, got, tt.want)
		}
	}
}

func TestNextSession_Monotonic(t *testing.T) {
	prev := NextSession(0, 0)
	for streak := 0.5; streak <= 10; streak += 0.5 {
		got := NextSession(0, streak)
		if got < prev {
			t.Fatalf("NextSession(0, %v) = %d, shorter than previous %d", streak, got, prev)
		}
		prev = got
	}
}

func TestSchedule(t *testing.T) {
	c, next := Schedule(10, 2.5, true, true)
	if c.Status != StatusArchived {
		t.Fatalf("status = %q, want archived", c.Status)
	}
	if next == nil || *next != 17 {
		t.Fatalf("next = %v, want 17", next)
	}

	c, next = Schedule(4, 1, false, true)
	if c.Status != StatusPendingFollowup || next == nil || *next != 5 {
		t.Errorf("wrong answer: status %q next %v, want pending_followup at 5", c.Status, next)
	}

	c, next = Schedule(4, -1, true, false)
	if c.Status != StatusActive || next != nil {
		t.Errorf("active result should not be scheduled, got %q next %v", c.Status, next)
	}
}
