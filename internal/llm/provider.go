// Package llm talks to hosted language models. Every provider returns
// schema-validated JSON so callers can decode the content directly.
package llm

import (
	"context"
	"encoding/json"
)

// Provider generates one structured completion.
type Provider interface {
	// Generate sends req and returns the model output. When req.Schema is
	// set the provider asks for JSON matching it and validates the result.
	Generate(ctx context.Context, req Request) (*Response, error)

	// Name is the provider family, e.g. "gemini".
	Name() string

	// ModelID is the model requests are sent to.
	ModelID() string
}

// Request is a single generation call.
type Request struct {
	System   string
	Messages []Message

	// Schema, when set, switches the provider to structured output.
	Schema *Schema

	MaxTokens int
	// Temperature in [0,1]; zero leaves the provider default.
	Temperature float64
}

// Message is one conversation turn.
type Message struct {
	Role    Role
	Content string
}

// Role is the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// UserPrompt builds the common single-turn request.
func UserPrompt(system, prompt string) Request {
	return Request{
		System:   system,
		Messages: []Message{{Role: RoleUser, Content: prompt}},
	}
}

// Schema is a JSON Schema the response must satisfy.
type Schema struct {
	// Name is a kebab-case identifier, also the validation cache key.
	Name        string
	Description string
	Definition  map[string]any
}

// StopReason is why the model stopped generating.
type StopReason string

const (
	StopEnd       StopReason = "end"
	StopMaxTokens StopReason = "max_tokens"
)

// Response is a completed generation.
type Response struct {
	// Content is the validated JSON when a schema was requested, otherwise
	// the raw model text.
	Content    json.RawMessage
	Usage      Usage
	Model      string
	StopReason StopReason
}

// Usage is the token count of one call.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Total is input plus output tokens.
func (u Usage) Total() int {
	return u.InputTokens + u.OutputTokens
}

// Purposes label calls in the request log.
const (
	PurposeRemedial = "remedial"
	PurposeGenerate = "generate"
	PurposeUnknown  = "unknown"
)

type purposeKey struct{}

// WithPurpose tags ctx so the logging decorator can attribute the call.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

// PurposeFrom returns the purpose tag of ctx, or PurposeUnknown.
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey{}).(string); ok && v != "" {
		return v
	}
	return PurposeUnknown
}

// complete turns raw provider output into a Response. A truncated
// structured reply is reported as ErrMaxTokensExceeded instead of being
// validated.
func complete(req Request, content json.RawMessage, usage Usage, model string, stop StopReason) (*Response, error) {
	if req.Schema != nil {
		if stop == StopMaxTokens {
			return nil, &ErrMaxTokensExceeded{Content: content}
		}
		if err := validateResponse(req.Schema, content); err != nil {
			return nil, err
		}
	}
	return &Response{Content: content, Usage: usage, Model: model, StopReason: stop}, nil
}

// resolveModel expands a short alias; unknown names pass through.
func resolveModel(name string, aliases map[string]string) string {
	if id, ok := aliases[name]; ok {
		return id
	}
	return name
}
