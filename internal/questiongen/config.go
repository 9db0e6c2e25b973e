package questiongen

import (
	"errors"
	"fmt"
)

// Config controls an LLMGenerator.
type Config struct {
	// Validators run in order; the first failure stops the chain.
	Validators []Validator

	MaxTokens   int
	Temperature float64

	// MaxPriorQuestions caps the prompts listed for de-duplication.
	MaxPriorQuestions int

	// MaxAttempts bounds regeneration after a retryable validation failure.
	MaxAttempts int
}

// DefaultConfig returns the standard validator chain and limits.
func DefaultConfig() Config {
	return Config{
		Validators: []Validator{
			&StructuralValidator{},
			&OptionsValidator{},
			&EvidenceValidator{},
			&DuplicateValidator{},
		},
		MaxTokens:         1024,
		Temperature:       0.7,
		MaxPriorQuestions: 8,
		MaxAttempts:       2,
	}
}

// Validate rejects configurations the generator cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("max tokens must be positive, got %d", c.MaxTokens))
	}
	if c.Temperature < 0 || c.Temperature > 1 {
		errs = append(errs, fmt.Errorf("temperature must be within [0, 1], got %g", c.Temperature))
	}
	if c.MaxPriorQuestions < 0 {
		errs = append(errs, errors.New("max prior questions cannot be negative"))
	}
	return errors.Join(errs...)
}
