package grading

import (
	"fmt"
	"time"

	"github.com/abhisek/shelf/internal/mastery"
)

const (
	// DefaultRefreshThreshold is the chunk coverage at which a topic counts
	// as refreshed.
	DefaultRefreshThreshold = 0.8

	// DefaultChunkQuestions stands in for a chunk with no known questions.
	DefaultChunkQuestions = 10
)

// Config controls scoring and topic refresh behavior.
type Config struct {
	// Strategy names the scoring strategy: "flat" or "advanced".
	Strategy string

	RefreshThreshold float64

	// DefaultChunkQuestions is used when the chunk question count is unknown.
	DefaultChunkQuestions int

	// RefreshCooldown suppresses repeated topic-refreshed notices for the
	// same chunk within this window.
	RefreshCooldown time.Duration
}

// DefaultConfig returns the standard grading configuration.
func DefaultConfig() Config {
	return Config{
		Strategy:              "flat",
		RefreshThreshold:      DefaultRefreshThreshold,
		DefaultChunkQuestions: DefaultChunkQuestions,
		RefreshCooldown:       10 * time.Minute,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if _, err := mastery.StrategyByName(c.Strategy); err != nil {
		return err
	}
	if c.RefreshThreshold <= 0 || c.RefreshThreshold > 1 {
		return fmt.Errorf("refresh threshold must be in (0, 1], got %v", c.RefreshThreshold)
	}
	if c.DefaultChunkQuestions <= 0 {
		return fmt.Errorf("default chunk questions must be positive, got %d", c.DefaultChunkQuestions)
	}
	if c.RefreshCooldown < 0 {
		return fmt.Errorf("refresh cooldown must not be negative")
	}
	return nil
}
