package questiongen

import (
	"strings"

	"github.com/abhisek/shelf/internal/content"
)

// EvidenceValidator requires the quoted evidence to appear in the chunk
// text. Chunks without text skip the check.
type EvidenceValidator struct{}

func (v *EvidenceValidator) Name() string { return "evidence" }

func (v *EvidenceValidator) Validate(q *content.Question, in Input) *ValidationError {
	if strings.TrimSpace(in.Chunk.Content) == "" {
		return nil
	}
	evidence := normalize(q.Evidence)
	if evidence == "" {
		return reject(v, true, "evidence is empty")
	}
	if !strings.Contains(normalize(in.Chunk.Content), evidence) {
		return reject(v, true, "evidence is not quoted from chunk %s", in.Chunk.ID)
	}
	return nil
}
