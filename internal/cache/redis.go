// Package cache keeps session snapshots in Redis so an interrupted quiz
// can resume from another process or machine.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abhisek/shelf/internal/queue"
	"github.com/abhisek/shelf/internal/session"
)

// Config holds the Redis connection settings.
type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// DefaultConfig returns the settings for a local Redis.
func DefaultConfig() Config {
	return Config{
		Addr:      "localhost:6379",
		KeyPrefix: "shelf:",
	}
}

// ConfigFromEnv reads SHELF_REDIS_ADDR, SHELF_REDIS_PASSWORD,
// SHELF_REDIS_DB and SHELF_REDIS_PREFIX over the defaults.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if v := os.Getenv("SHELF_REDIS_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("SHELF_REDIS_PASSWORD"); v != "" {
		cfg.Password = v
	}
	if v := os.Getenv("SHELF_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.DB = db
		}
	}
	if v := os.Getenv("SHELF_REDIS_PREFIX"); v != "" {
		cfg.KeyPrefix = v
	}
	return cfg
}

// Enabled reports whether SHELF_REDIS_ADDR is set.
func Enabled() bool {
	return os.Getenv("SHELF_REDIS_ADDR") != ""
}

// Snapshots is a session.SnapshotStore on Redis. The session header and
// the queue live under separate keys that share one TTL.
type Snapshots struct {
	client *redis.Client
	prefix string
}

// NewSnapshots wraps an existing client.
func NewSnapshots(client *redis.Client, prefix string) *Snapshots {
	return &Snapshots{client: client, prefix: prefix}
}

// Dial connects to Redis and checks the connection.
func Dial(ctx context.Context, cfg Config) (*Snapshots, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
	}
	return NewSnapshots(client, cfg.KeyPrefix), nil
}

// Close closes the underlying client.
func (s *Snapshots) Close() error {
	return s.client.Close()
}

func (s *Snapshots) sessionKey(userID, courseID string) string {
	return fmt.Sprintf("%ssession:%s:%s", s.prefix, userID, courseID)
}

func (s *Snapshots) queueKey(userID, courseID string) string {
	return fmt.Sprintf("%squeue:%s:%s", s.prefix, userID, courseID)
}

type header struct {
	SessionID          int       `json:"sessionId"`
	CurrentReviewIndex int       `json:"currentReviewIndex"`
	ContentVersion     int64     `json:"contentVersion"`
	SavedAt            time.Time `json:"savedAt"`
}

// LoadSnapshot returns nil when either key is missing or expired.
func (s *Snapshots) LoadSnapshot(ctx context.Context, userID, courseID string) (*session.Snapshot, error) {
	vals, err := s.client.MGet(ctx, s.sessionKey(userID, courseID), s.queueKey(userID, courseID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	rawHeader, ok1 := vals[0].(string)
	rawQueue, ok2 := vals[1].(string)
	if !ok1 || !ok2 {
		return nil, nil
	}

	var h header
	if err := json.Unmarshal([]byte(rawHeader), &h); err != nil {
		return nil, fmt.Errorf("decode snapshot header: %w", err)
	}
	var items []queue.Item
	if err := json.Unmarshal([]byte(rawQueue), &items); err != nil {
		return nil, fmt.Errorf("decode snapshot queue: %w", err)
	}

	return &session.Snapshot{
		UserID:             userID,
		CourseID:           courseID,
		SessionID:          h.SessionID,
		CurrentReviewIndex: h.CurrentReviewIndex,
		ContentVersion:     h.ContentVersion,
		Queue:              items,
		SavedAt:            h.SavedAt,
	}, nil
}

// SaveSnapshot writes both keys in one MULTI/EXEC.
func (s *Snapshots) SaveSnapshot(ctx context.Context, snap session.Snapshot, ttl time.Duration) error {
	saved := snap.SavedAt
	if saved.IsZero() {
		saved = time.Now()
	}
	h, err := json.Marshal(header{
		SessionID:          snap.SessionID,
		CurrentReviewIndex: snap.CurrentReviewIndex,
		ContentVersion:     snap.ContentVersion,
		SavedAt:            saved,
	})
	if err != nil {
		return fmt.Errorf("encode snapshot header: %w", err)
	}
	items := snap.Queue
	if items == nil {
		items = []queue.Item{}
	}
	q, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode snapshot queue: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.sessionKey(snap.UserID, snap.CourseID), h, ttl)
		p.Set(ctx, s.queueKey(snap.UserID, snap.CourseID), q, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// ClearSnapshot deletes both keys.
func (s *Snapshots) ClearSnapshot(ctx context.Context, userID, courseID string) error {
	if err := s.client.Del(ctx, s.sessionKey(userID, courseID), s.queueKey(userID, courseID)).Err(); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	return nil
}

var _ session.SnapshotStore = (*Snapshots)(nil)
