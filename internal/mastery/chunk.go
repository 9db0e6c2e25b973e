package mastery

import "math"

const (
	coverageWeight = 40.0
	scoreWeight    = 0.6
)

// ChunkScore aggregates item scores into a chunk-level mastery score in
// [0, 100]. Coverage (unique questions solved over the chunk's question
// count) and average item score contribute independently, so repeating a
// few easy questions cannot saturate it.
func ChunkScore(uniqueSolved, totalQuestions int, averageItemScore float64) int {
	if totalQuestions <= 0 {
		return 0
	}
	coverage := math.Min(1, float64(uniqueSolved)/float64(totalQuestions))
	avg := clamp(averageItemScore, MinScore, MaxScore)
	return int(math.Round(coverage*coverageWeight + avg*scoreWeight))
}

// Coverage returns uniqueSolved/total, or 0 for an empty chunk.
func Coverage(uniqueSolved, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(uniqueSolved) / float64(total)
}

// Average returns the mean of scores, or 0 for none.
func Average(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}
