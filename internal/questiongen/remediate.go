package questiongen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/abhisek/shelf/internal/content"
	"github.com/abhisek/shelf/internal/llm"
	"github.com/abhisek/shelf/internal/store"
)

// QuestionStore is the persistence the Remediator needs.
type QuestionStore interface {
	Chunk(ctx context.Context, id string) (*content.Chunk, error)
	ChunkPrompts(ctx context.Context, chunkID string, limit int) ([]string, error)
	SaveQuestion(ctx context.Context, q content.Question) error
}

// Remediator turns a missed question into a stored, one level easier
// follow-up on the same concept.
type Remediator struct {
	gen    Generator
	store  QuestionStore
	limit  int
	logger *slog.Logger
}

// NewRemediator wires a generator to a store. priorLimit caps how many
// stored prompts are loaded for de-duplication.
func NewRemediator(gen Generator, qs QuestionStore, priorLimit int, logger *slog.Logger) *Remediator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Remediator{gen: gen, store: qs, limit: priorLimit, logger: logger}
}

// Remediate generates and saves the follow-up. The returned question has
// ParentID set to missed.ID.
func (r *Remediator) Remediate(ctx context.Context, userID string, missed *content.Question) (*content.Question, error) {
	if missed == nil {
		return nil, errors.New("remediate: no question")
	}
	ctx = llm.WithPurpose(ctx, llm.PurposeRemedial)

	in := Input{
		Chunk:   content.Chunk{ID: missed.ChunkID, CourseID: missed.CourseID},
		Concept: missed.Concept,
		Bloom:   missed.BloomLevel.Easier(),
		Usage:   content.UsageTraining,
		Missed:  missed,
	}
	if missed.ChunkID != "" {
		chunk, err := r.store.Chunk(ctx, missed.ChunkID)
		switch {
		case err == nil:
			in.Chunk = *chunk
		case errors.Is(err, store.ErrNotFound):
			r.logger.Debug("remedial question without chunk text", "chunk_id", missed.ChunkID)
		default:
			return nil, fmt.Errorf("remediate %s: %w", missed.ID, err)
		}
		prompts, err := r.store.ChunkPrompts(ctx, missed.ChunkID, r.limit)
		if err != nil {
			return nil, fmt.Errorf("remediate %s: %w", missed.ID, err)
		}
		in.PriorPrompts = prompts
	}

	q, err := r.gen.Generate(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("remediate %s: %w", missed.ID, err)
	}
	q.ParentID = missed.ID
	q.CourseID = missed.CourseID
	q.ChunkID = missed.ChunkID

	if err := r.store.SaveQuestion(ctx, *q); err != nil {
		return nil, fmt.Errorf("remediate %s: %w", missed.ID, err)
	}
	r.logger.Info("remedial question stored",
		"user_id", userID,
		"parent_id", missed.ID,
		"question_id", q.ID,
		"bloom", q.BloomLevel,
	)
	return q, nil
}
