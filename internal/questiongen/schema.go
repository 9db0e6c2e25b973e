package questiongen

import (
	"github.com/abhisek/shelf/internal/content"
	"github.com/abhisek/shelf/internal/llm"
)

// QuestionSchema is the structured output requested from the model.
var QuestionSchema = &llm.Schema{
	Name:        "chunk-question",
	Description: "One multiple-choice question grounded in a passage of course material",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"prompt": map[string]any{
				"type":        "string",
				"description": "The question stem shown to the learner",
			},
			"options": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"minItems":    content.OptionCount,
				"maxItems":    content.OptionCount,
				"description": "Exactly five answer options, one of them correct",
			},
			"correct_index": map[string]any{
				"type":        "integer",
				"minimum":     0,
				"maximum":     content.OptionCount - 1,
				"description": "Zero-based index of the correct option",
			},
			"explanation": map[string]any{
				"type":        "string",
				"description": "Why the correct option is right and the distractors are wrong",
			},
			"evidence": map[string]any{
				"type":        "string",
				"description": "A sentence quoted verbatim from the passage that supports the answer",
			},
			"concept": map[string]any{
				"type":        "string",
				"description": "Title of the concept the question targets",
			},
		},
		"required":             []any{"prompt", "options", "correct_index", "explanation", "evidence", "concept"},
		"additionalProperties": false,
	},
}
