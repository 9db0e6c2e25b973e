package questiongen

import (
	"fmt"

	"github.com/abhisek/shelf/internal/content"
)

// Validator checks a generated question. Implementations are stateless.
type Validator interface {
	Name() string
	Validate(q *content.Question, in Input) *ValidationError
}

// ValidationError describes why a question was rejected.
type ValidationError struct {
	Validator string
	Message   string
	// Retryable is true when asking again is likely to produce a
	// different, acceptable question.
	Retryable bool
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}

func reject(v Validator, retryable bool, format string, args ...any) *ValidationError {
	return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf(format, args...), Retryable: retryable}
}
