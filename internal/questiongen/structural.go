package questiongen

import (
	"strings"

	"github.com/abhisek/shelf/internal/content"
)

const (
	maxPromptLen      = 600
	maxExplanationLen = 1200
)

// StructuralValidator checks required fields, lengths and the answer key.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(q *content.Question, _ Input) *ValidationError {
	switch {
	case strings.TrimSpace(q.Prompt) == "":
		return reject(v, true, "prompt is empty")
	case len(q.Prompt) > maxPromptLen:
		return reject(v, true, "prompt exceeds %d characters", maxPromptLen)
	case strings.TrimSpace(q.Explanation) == "":
		return reject(v, true, "explanation is empty")
	case len(q.Explanation) > maxExplanationLen:
		return reject(v, true, "explanation exceeds %d characters", maxExplanationLen)
	case len(q.Options) != content.OptionCount:
		return reject(v, true, "got %d options, want %d", len(q.Options), content.OptionCount)
	case q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options):
		return reject(v, true, "correct_index %d out of range", q.CorrectIndex)
	}
	return nil
}
