// Package questiongen asks an LLM for five-option questions grounded in a
// chunk of course material, checks them with a validator chain, and
// stores easier follow-ups for questions a learner missed.
package questiongen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/abhisek/shelf/internal/content"
	"github.com/abhisek/shelf/internal/llm"
	"github.com/abhisek/shelf/internal/mastery"
	"github.com/google/uuid"
)

// Input is everything a single generation needs.
type Input struct {
	Chunk content.Chunk

	// Concept narrows the question to one concept map entry. Empty lets
	// the model pick.
	Concept string
	Bloom   mastery.BloomLevel
	Usage   content.UsageType

	// PriorPrompts are prompts already stored for the chunk, newest first.
	PriorPrompts []string

	// Missed is the question the learner got wrong, for remedial requests.
	Missed *content.Question
}

// Generator produces one validated question.
type Generator interface {
	Generate(ctx context.Context, in Input) (*content.Question, error)
}

// LLMGenerator implements Generator on top of an llm.Provider.
type LLMGenerator struct {
	provider llm.Provider
	config   Config
	newID    func() string
}

// New returns a generator using provider.
func New(provider llm.Provider, cfg Config) *LLMGenerator {
	return &LLMGenerator{provider: provider, config: cfg, newID: uuid.NewString}
}

type questionOutput struct {
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	Explanation  string   `json:"explanation"`
	Evidence     string   `json:"evidence"`
	Concept      string   `json:"concept"`
}

// Generate asks the provider for one question and runs every validator
// on it. A retryable ValidationError is retried up to MaxAttempts times.
func (g *LLMGenerator) Generate(ctx context.Context, in Input) (*content.Question, error) {
	if llm.PurposeFrom(ctx) == llm.PurposeUnknown {
		ctx = llm.WithPurpose(ctx, llm.PurposeGenerate)
	}
	if in.Bloom == "" {
		in.Bloom = mastery.BloomKnowledge
	}
	if in.Usage == "" {
		in.Usage = content.UsageTraining
	}

	req := llm.Request{
		System:      systemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildUserMessage(in, g.config)}},
		Schema:      QuestionSchema,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	}

	attempts := max(g.config.MaxAttempts, 1)
	var lastErr error
	for range attempts {
		q, err := g.attempt(ctx, req, in)
		if err == nil {
			return q, nil
		}
		lastErr = err
		var verr *ValidationError
		if !errors.As(err, &verr) || !verr.Retryable {
			return nil, err
		}
	}
	return nil, lastErr
}

func (g *LLMGenerator) attempt(ctx context.Context, req llm.Request, in Input) (*content.Question, error) {
	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("generate question: %w", err)
	}

	var raw questionOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, fmt.Errorf("decode generated question: %w", err)
	}

	q := &content.Question{
		ID:           g.newID(),
		ChunkID:      in.Chunk.ID,
		CourseID:     in.Chunk.CourseID,
		Prompt:       raw.Prompt,
		Options:      raw.Options,
		CorrectIndex: raw.CorrectIndex,
		Explanation:  raw.Explanation,
		Evidence:     raw.Evidence,
		Usage:        in.Usage,
		BloomLevel:   in.Bloom,
		Concept:      raw.Concept,
	}
	if in.Concept != "" {
		q.Concept = in.Concept
	}
	if in.Missed != nil {
		q.ParentID = in.Missed.ID
	}

	for _, v := range g.config.Validators {
		if verr := v.Validate(q, in); verr != nil {
			return nil, verr
		}
	}
	return q, nil
}
