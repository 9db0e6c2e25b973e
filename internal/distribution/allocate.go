// Package distribution splits an exam question budget across content
// chunks.
package distribution

import (
	"math"
	"sort"
	"strings"
)

// Importance is the course-level weight of an exam.
type Importance string

const (
	ImportanceHigh   Importance = "high"
	ImportanceMedium Importance = "medium"
	ImportanceLow    Importance = "low"
)

// ParseImportance maps a label to an Importance. Unknown labels are medium.
func ParseImportance(s string) Importance {
	switch Importance(strings.ToLower(strings.TrimSpace(s))) {
	case ImportanceHigh:
		return ImportanceHigh
	case ImportanceLow:
		return ImportanceLow
	default:
		return ImportanceMedium
	}
}

// Score returns the importance component of a chunk weight.
func (i Importance) Score() float64 {
	switch i {
	case ImportanceHigh:
		return 1.0
	case ImportanceLow:
		return 0.4
	default:
		return 0.7
	}
}

// ChunkMetric is the per-chunk input to Allocate.
type ChunkMetric struct {
	ID              string  `json:"id"`
	ConceptCount    int     `json:"concept_count"`
	DifficultyIndex int     `json:"difficulty_index"` // 1-5, 0 means unknown
	MasteryScore    float64 `json:"mastery_score"`    // 0-100
}

const (
	importanceWeight = 0.4
	weaknessWeight   = 0.3
	difficultyWeight = 0.2
	conceptWeight    = 0.1

	// DefaultDifficulty stands in for a missing difficulty index.
	DefaultDifficulty = 3
)

// Weight computes a chunk's share weight. maxConcepts is the largest
// concept count among the chunks being allocated (at least 1).
func Weight(c ChunkMetric, importance Importance, maxConcepts int) float64 {
	mastery := math.Min(1, math.Max(0, c.MasteryScore/100))
	diff := c.DifficultyIndex
	if diff == 0 {
		diff = DefaultDifficulty
	}
	diffNorm := math.Min(1, math.Max(0, float64(diff-1)/4))
	if maxConcepts < 1 {
		maxConcepts = 1
	}
	concepts := math.Min(1, float64(max(c.ConceptCount, 0))/float64(maxConcepts))

	return importance.Score()*importanceWeight +
		(1-mastery)*weaknessWeight +
		diffNorm*difficultyWeight +
		concepts*conceptWeight
}

// Allocate splits examTotal questions across chunks. The counts always sum
// to examTotal when examTotal is positive and chunks is non-empty.
func Allocate(examTotal int, importance Importance, chunks []ChunkMetric) map[string]int {
	out := make(map[string]int, len(chunks))
	if len(chunks) == 0 {
		return out
	}

	maxConcepts := 1
	for _, c := range chunks {
		maxConcepts = max(maxConcepts, c.ConceptCount)
	}

	weights := make([]float64, len(chunks))
	for i, c := range chunks {
		weights[i] = Weight(c, importance, maxConcepts)
	}

	for i, n := range Apportion(examTotal, weights) {
		out[chunks[i].ID] += n
	}
	return out
}

// Apportion distributes total units over weights with the largest
// remainder method: every slot gets the floor of its exact share, then the
// leftover units go one each to the slots with the largest fractional
// remainders. Ties keep input order. A zero total weight falls back to an
// even split with the remainder going to the first slots.
func Apportion(total int, weights []float64) []int {
	counts := make([]int, len(weights))
	if total <= 0 || len(weights) == 0 {
		return counts
	}

	sum := 0.0
	for _, w := range weights {
		if w > 0 {
			sum += w
		}
	}

	if sum == 0 {
		base, rem := total/len(weights), total%len(weights)
		for i := range counts {
			counts[i] = base
			if i < rem {
				counts[i]++
			}
		}
		return counts
	}

	type remainder struct {
		idx  int
		frac float64
	}
	rems := make([]remainder, len(weights))
	assigned := 0
	for i, w := range weights {
		exact := 0.0
		if w > 0 {
			exact = w / sum * float64(total)
		}
		floor := math.Floor(exact)
		counts[i] = int(floor)
		assigned += counts[i]
		rems[i] = remainder{idx: i, frac: exact - floor}
	}

	sort.SliceStable(rems, func(a, b int) bool {
		return rems[a].frac > rems[b].frac
	})
	for i := 0; assigned < total; i++ {
		counts[rems[i%len(rems)].idx]++
		assigned++
	}
	return counts
}
