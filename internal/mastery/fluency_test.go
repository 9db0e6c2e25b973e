package mastery

import (
	"math"
	"testing"
	"time"
)

const epsilon = 0.001

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestTimeBudget(t *testing.T) {
	tests := []struct {
		name     string
		chars    int
		concepts int
		level    BloomLevel
		want     time.Duration
	}{
		// 0 + (15+10)*1.0 + 10 = 35s
		{"no content, knowledge", 0, 5, BloomKnowledge, 35 * time.Second},
		// 780 chars = 60s reading; (15+4)*1.2 = 22.8; +10 = 92.8s
		{"one minute of reading, application", 780, 2, BloomApplication, 92800 * time.Millisecond},
		// 390 chars = 30s; (15+6)*1.5 = 31.5; +10 = 71.5s
		{"analysis", 390, 3, BloomAnalysis, 71500 * time.Millisecond},
		// 100/780*60 = 7.6923s; 15+10 = 25s; total 42.6923 -> 42692ms
		{"rounded to ms", 100, 0, BloomKnowledge, 42692 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TimeBudget(tt.chars, tt.concepts, tt.level)
			if got != tt.want {
				t.Errorf("TimeBudget(%d, %d, %s) = %v, want %v", tt.chars, tt.concepts, tt.level, got, tt.want)
			}
		})
	}
}

func TestIsFast(t *testing.T) {
	budget := 35 * time.Second
	if !IsFast(35*time.Second, budget) {
		t.Error("elapsed equal to budget should be fast")
	}
	if IsFast(35*time.Second+time.Millisecond, budget) {
		t.Error("elapsed over budget should be slow")
	}
	if !IsFastFallback(29 * time.Second) {
		t.Error("29s should be fast without metadata")
	}
	if IsFastFallback(30 * time.Second) {
		t.Error("30s should be slow without metadata")
	}
}

func TestParseBloomLevel(t *testing.T) {
	tests := map[string]BloomLevel{
		"knowledge":   BloomKnowledge,
		"Application": BloomApplication,
		" analysis ":  BloomAnalysis,
		"":            BloomKnowledge,
		"synthesis":   BloomKnowledge,
	}
	for in, want := range tests {
		if got := ParseBloomLevel(in); got != want {
			t.Errorf("ParseBloomLevel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBloomEasier(t *testing.T) {
	if BloomAnalysis.Easier() != BloomApplication {
		t.Error("analysis should step down to application")
	}
	if BloomApplication.Easier() != BloomKnowledge {
		t.Error("application should step down to knowledge")
	}
	if BloomKnowledge.Easier() != BloomKnowledge {
		t.Error("knowledge is the floor")
	}
}
