package session

import (
	"context"
	"sync"
	"time"

	"github.com/abhisek/shelf/internal/queue"
)

// Snapshot is the resumable part of a session: the cursor plus the queue
// it points into. It is keyed by user and course.
type Snapshot struct {
	UserID             string       `json:"userId"`
	CourseID           string       `json:"courseId"`
	SessionID          int          `json:"sessionId"`
	CurrentReviewIndex int          `json:"currentReviewIndex"`
	ContentVersion     int64        `json:"contentVersion"`
	Queue              []queue.Item `json:"queue"`
	SavedAt            time.Time    `json:"savedAt"`
}

// matches reports whether the snapshot can resume the given session.
func (s *Snapshot) matches(sessionID int, contentVersion int64) bool {
	return s.SessionID == sessionID && s.ContentVersion == contentVersion
}

// SnapshotStore persists session snapshots with an expiry.
type SnapshotStore interface {
	// LoadSnapshot returns the saved snapshot, or nil if none exists or it
	// has expired.
	LoadSnapshot(ctx context.Context, userID, courseID string) (*Snapshot, error)

	// SaveSnapshot replaces the snapshot for the user and course.
	SaveSnapshot(ctx context.Context, snap Snapshot, ttl time.Duration) error

	// ClearSnapshot removes any snapshot for the user and course.
	ClearSnapshot(ctx context.Context, userID, courseID string) error
}

// MemorySnapshots is an in-process SnapshotStore.
type MemorySnapshots struct {
	mu      sync.Mutex
	entries map[string]memorySnapshot
	now     func() time.Time
}

type memorySnapshot struct {
	snap      Snapshot
	expiresAt time.Time
}

// NewMemorySnapshots returns an empty in-process store.
func NewMemorySnapshots() *MemorySnapshots {
	return &MemorySnapshots{
		entries: make(map[string]memorySnapshot),
		now:     time.Now,
	}
}

func snapshotKey(userID, courseID string) string {
	return userID + "\x00" + courseID
}

func (m *MemorySnapshots) LoadSnapshot(_ context.Context, userID, courseID string) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := snapshotKey(userID, courseID)
	e, ok := m.entries[key]
	if !ok {
		return nil, nil
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.entries, key)
		return nil, nil
	}
	snap := e.snap
	snap.Queue = append([]queue.Item{}, e.snap.Queue...)
	return &snap, nil
}

func (m *MemorySnapshots) SaveSnapshot(_ context.Context, snap Snapshot, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap.Queue = append([]queue.Item{}, snap.Queue...)
	m.entries[snapshotKey(snap.UserID, snap.CourseID)] = memorySnapshot{
		snap:      snap,
		expiresAt: m.now().Add(ttl),
	}
	return nil
}

func (m *MemorySnapshots) ClearSnapshot(_ context.Context, userID, courseID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, snapshotKey(userID, courseID))
	return nil
}
