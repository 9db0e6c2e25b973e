package questiongen

import (
	"fmt"
	"strings"

	"github.com/abhisek/shelf/internal/content"
)

// DuplicateValidator rejects a prompt that repeats one already stored for
// the chunk, or the missed question itself.
type DuplicateValidator struct{}

func (v *DuplicateValidator) Name() string { return "duplicate" }

func (v *DuplicateValidator) Validate(q *content.Question, in Input) *ValidationError {
	prompt := normalize(q.Prompt)
	if in.Missed != nil && normalize(in.Missed.Prompt) == prompt {
		return reject(v, true, "prompt repeats the missed question")
	}
	for _, prior := range in.PriorPrompts {
		if normalize(prior) == prompt {
			return reject(v, true, "prompt repeats an existing question")
		}
	}
	return nil
}

// buildDedup lists at most limit prior prompts, newest first, or "None".
func buildDedup(prior []string, limit int) string {
	if len(prior) == 0 {
		return "None"
	}
	if limit > 0 && len(prior) > limit {
		prior = prior[:limit]
	}
	var b strings.Builder
	for i, p := range prior {
		fmt.Fprintf(&b, "%d. %s\n", i+1, p)
	}
	return strings.TrimRight(b.String(), "\n")
}
