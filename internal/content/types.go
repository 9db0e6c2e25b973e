// Package content holds the course material types the engine consumes:
// chunks with their concept maps and quotas, and the questions generated
// for them.
package content

import (
	"strings"

	"github.com/abhisek/shelf/internal/mastery"
)

// UsageType is how a question is meant to be used.
type UsageType string

const (
	// UsageTraining questions are the regular practice pool.
	UsageTraining UsageType = "antrenman"
	// UsageArchive questions are held back for spaced review.
	UsageArchive UsageType = "arsiv"
	// UsageMock questions belong to mock exams and never enter spaced repetition.
	UsageMock UsageType = "deneme"
)

// ParseUsageType maps a stored label to a UsageType, defaulting to training.
func ParseUsageType(s string) UsageType {
	switch UsageType(s) {
	case UsageArchive:
		return UsageArchive
	case UsageMock:
		return UsageMock
	default:
		return UsageTraining
	}
}

// Quotas are the suggested number of questions per usage type for a chunk.
type Quotas struct {
	Training int `json:"antrenman"`
	Archive  int `json:"arsiv"`
	Mock     int `json:"deneme"`
}

// DefaultQuotas apply when the content collaborator supplies none.
var DefaultQuotas = Quotas{Training: 5, Archive: 1, Mock: 1}

// ResolveQuotas returns q, or DefaultQuotas when q is missing or empty.
func ResolveQuotas(q *Quotas) Quotas {
	if q == nil || q.Total() == 0 {
		return DefaultQuotas
	}
	return *q
}

// Total sums all usage types.
func (q Quotas) Total() int {
	return q.Training + q.Archive + q.Mock
}

// For returns the quota for one usage type.
func (q Quotas) For(u UsageType) int {
	switch u {
	case UsageArchive:
		return q.Archive
	case UsageMock:
		return q.Mock
	default:
		return q.Training
	}
}

// Concept is one entry of a chunk's concept map.
type Concept struct {
	Title          string             `json:"title"`
	Focus          string             `json:"focus"`
	CognitiveLevel mastery.BloomLevel `json:"cognitiveLevel"`
	IsException    bool               `json:"isException"`
	// Prerequisites are titles of concepts this one builds on.
	Prerequisites []string `json:"prerequisites,omitempty"`
}

// Chunk is an atomic content unit of a course.
type Chunk struct {
	ID              string    `json:"id"`
	CourseID        string    `json:"course_id"`
	Title           string    `json:"title"`
	Content         string    `json:"content"`
	DifficultyIndex int       `json:"difficulty_index"`
	ConceptMap      []Concept `json:"concept_map"`
	Quotas          *Quotas   `json:"quotas,omitempty"`
}

// ConceptCount is the number of concepts, or mastery.DefaultConceptCount
// when the chunk has no concept map.
func (c Chunk) ConceptCount() int {
	if len(c.ConceptMap) == 0 {
		return mastery.DefaultConceptCount
	}
	return len(c.ConceptMap)
}

// CharCount is the length of the chunk content in characters.
func (c Chunk) CharCount() int {
	return len([]rune(c.Content))
}

// FindConcept returns the concept with the given title.
func (c Chunk) FindConcept(title string) (Concept, bool) {
	for _, concept := range c.ConceptMap {
		if concept.Title == title {
			return concept, true
		}
	}
	return Concept{}, false
}

// Prerequisites returns the prerequisite titles of the concept whose title
// matches concept, ignoring case and surrounding space.
func (c Chunk) Prerequisites(concept string) []string {
	want := strings.TrimSpace(concept)
	for _, item := range c.ConceptMap {
		if strings.EqualFold(strings.TrimSpace(item.Title), want) {
			return item.Prerequisites
		}
	}
	return nil
}

// OptionCount is the number of answer options every question carries.
const OptionCount = 5

// Question is a multiple-choice question ready for display.
type Question struct {
	ID       string `json:"id"`
	ChunkID  string `json:"chunk_id,omitempty"`
	CourseID string `json:"course_id"`
	// ParentID is set on remedial follow-ups generated after a wrong answer.
	ParentID     string             `json:"parent_question_id,omitempty"`
	Prompt       string             `json:"prompt"`
	Options      []string           `json:"options"`
	CorrectIndex int                `json:"correct_index"`
	Explanation  string             `json:"explanation"`
	Evidence     string             `json:"evidence"`
	ImageRef     string             `json:"image_ref,omitempty"`
	Usage        UsageType          `json:"usage_type"`
	BloomLevel   mastery.BloomLevel `json:"bloom_level"`
	Concept      string             `json:"concept,omitempty"`
}

// IsMock reports whether the question bypasses spaced repetition.
func (q Question) IsMock() bool {
	return q.Usage == UsageMock
}
