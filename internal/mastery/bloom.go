package mastery

import (
	"strings"
	"time"
)

// BloomLevel is the cognitive-demand tier of a question.
type BloomLevel string

const (
	BloomKnowledge   BloomLevel = "knowledge"
	BloomApplication BloomLevel = "application"
	BloomAnalysis    BloomLevel = "analysis"
)

// AllBloomLevels lists the levels from least to most demanding.
var AllBloomLevels = []BloomLevel{BloomKnowledge, BloomApplication, BloomAnalysis}

// ParseBloomLevel maps a stored label to a BloomLevel. Unknown or empty
// labels resolve to BloomKnowledge.
func ParseBloomLevel(s string) BloomLevel {
	switch BloomLevel(strings.ToLower(strings.TrimSpace(s))) {
	case BloomApplication:
		return BloomApplication
	case BloomAnalysis:
		return BloomAnalysis
	default:
		return BloomKnowledge
	}
}

// Multiplier scales the complexity part of the time budget.
func (b BloomLevel) Multiplier() float64 {
	switch b {
	case BloomApplication:
		return 1.2
	case BloomAnalysis:
		return 1.5
	default:
		return 1.0
	}
}

// Coefficient weights a score delta in the advanced scoring model.
func (b BloomLevel) Coefficient() float64 {
	switch b {
	case BloomApplication:
		return 1.3
	case BloomAnalysis:
		return 1.6
	default:
		return 1.0
	}
}

// TargetTime is the expected answer time in the advanced scoring model.
func (b BloomLevel) TargetTime() time.Duration {
	switch b {
	case BloomApplication:
		return 35 * time.Second
	case BloomAnalysis:
		return 50 * time.Second
	default:
		return 20 * time.Second
	}
}

// Easier returns the next level down, stopping at BloomKnowledge.
func (b BloomLevel) Easier() BloomLevel {
	switch b {
	case BloomAnalysis:
		return BloomApplication
	default:
		return BloomKnowledge
	}
}
