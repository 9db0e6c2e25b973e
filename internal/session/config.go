package session

import (
	"fmt"
	"time"

	"github.com/abhisek/shelf/internal/queue"
)

// Config tunes the session engine.
type Config struct {
	// BatchSize is the number of questions between intermissions.
	BatchSize int

	// ReviewLimit caps the queue when the repository reports no review
	// quota.
	ReviewLimit int

	// SnapshotTTL bounds how long a saved cursor stays resumable.
	SnapshotTTL time.Duration

	// ScaffoldAfterFails is the consecutive-fail count at which a wrong
	// answer triggers a remedial question.
	ScaffoldAfterFails int

	// SyncTimeout bounds a single answer submission.
	SyncTimeout time.Duration

	// RemedialTimeout bounds a remedial question request.
	RemedialTimeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:          queue.DefaultBatchSize,
		ReviewLimit:        25,
		SnapshotTTL:        24 * time.Hour,
		ScaffoldAfterFails: 1,
		SyncTimeout:        10 * time.Second,
		RemedialTimeout:    20 * time.Second,
	}
}

// Validate checks that the config values are within acceptable ranges.
func (c Config) Validate() error {
	if c.BatchSize < 1 {
		return fmt.Errorf("batch size must be >= 1, got %d", c.BatchSize)
	}
	if c.ReviewLimit < 1 {
		return fmt.Errorf("review limit must be >= 1, got %d", c.ReviewLimit)
	}
	if c.SnapshotTTL <= 0 {
		return fmt.Errorf("snapshot TTL must be positive, got %s", c.SnapshotTTL)
	}
	if c.ScaffoldAfterFails < 1 {
		return fmt.Errorf("scaffold threshold must be >= 1, got %d", c.ScaffoldAfterFails)
	}
	if c.SyncTimeout <= 0 || c.RemedialTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	return nil
}
