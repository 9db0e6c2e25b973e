package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/shelf/internal/session"
)

type snapshotRow struct {
	SessionID          int    `sql:"session_id"`
	CurrentReviewIndex int    `sql:"current_review_index"`
	ContentVersion     int64  `sql:"content_version"`
	Queue              string `sql:"queue"`
	SavedAt            int64  `sql:"saved_at"`
}

// LoadSnapshot returns the learner's saved session for a course, or nil
// when there is none or it has expired.
func (s *Store) LoadSnapshot(ctx context.Context, userID, courseID string) (*session.Snapshot, error) {
	var rows []snapshotRow
	sel := builder().Select("session_id", "current_review_index", "content_version", "queue", "saved_at").
		From(builder().Table(SessionSnapshotsTable.Name)).
		Where(entsql.And(
			entsql.EQ("user_id", userID),
			entsql.EQ("course_id", courseID),
			entsql.GT("expires_at", millis(s.now())),
		))
	if err := scanAll(ctx, s.drv, sel, &rows); err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	r := rows[0]
	snap := &session.Snapshot{
		UserID:             userID,
		CourseID:           courseID,
		SessionID:          r.SessionID,
		CurrentReviewIndex: r.CurrentReviewIndex,
		ContentVersion:     r.ContentVersion,
		SavedAt:            fromMillis(r.SavedAt),
	}
	if err := json.Unmarshal([]byte(r.Queue), &snap.Queue); err != nil {
		return nil, fmt.Errorf("decode snapshot queue: %w", err)
	}
	return snap, nil
}

// SaveSnapshot replaces the learner's snapshot for the course.
func (s *Store) SaveSnapshot(ctx context.Context, snap session.Snapshot, ttl time.Duration) error {
	q, err := json.Marshal(snap.Queue)
	if err != nil {
		return fmt.Errorf("encode snapshot queue: %w", err)
	}
	saved := snap.SavedAt
	if saved.IsZero() {
		saved = s.now()
	}

	err = execQuery(ctx, s.drv, builder().Insert(SessionSnapshotsTable.Name).
		Columns("user_id", "course_id", "session_id", "current_review_index",
			"content_version", "queue", "saved_at", "expires_at").
		Values(snap.UserID, snap.CourseID, snap.SessionID, snap.CurrentReviewIndex,
			snap.ContentVersion, string(q), millis(saved), millis(s.now().Add(ttl))).
		OnConflict(entsql.ConflictColumns("user_id", "course_id"), entsql.ResolveWithNewValues()))
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// ClearSnapshot deletes the learner's snapshot for the course.
func (s *Store) ClearSnapshot(ctx context.Context, userID, courseID string) error {
	err := execQuery(ctx, s.drv, builder().Delete(SessionSnapshotsTable.Name).
		Where(entsql.And(entsql.EQ("user_id", userID), entsql.EQ("course_id", courseID))))
	if err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	return nil
}

// PurgeExpiredSnapshots removes every expired snapshot and reports how
// many were deleted.
func (s *Store) PurgeExpiredSnapshots(ctx context.Context) (int64, error) {
	n, err := execAffected(ctx, s.drv, builder().Delete(SessionSnapshotsTable.Name).
		Where(entsql.LTE("expires_at", millis(s.now()))))
	if err != nil {
		return 0, fmt.Errorf("purge snapshots: %w", err)
	}
	return n, nil
}

var _ session.SnapshotStore = (*Store)(nil)
