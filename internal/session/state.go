package session

import (
	"time"

	"github.com/abhisek/shelf/internal/content"
	"github.com/abhisek/shelf/internal/mastery"
	"github.com/abhisek/shelf/internal/queue"
)

// Status is the lifecycle state of a quiz session.
type Status string

const (
	StatusIdle         Status = "IDLE"
	StatusInitializing Status = "INITIALIZING"
	StatusReady        Status = "READY"
	StatusPlaying      Status = "PLAYING"
	StatusIntermission Status = "INTERMISSION"
	StatusFinished     Status = "FINISHED"
	StatusError        Status = "ERROR"
)

// SessionInfo identifies the course and the learner's session number in it.
type SessionInfo struct {
	CourseID       string `json:"courseId"`
	CourseName     string `json:"courseName"`
	CurrentSession int    `json:"currentSession"`
	IsNewSession   bool   `json:"isNewSession"`
}

// QuotaInfo carries the session's review quota and the suggested per-usage
// quotas for the course.
type QuotaInfo struct {
	Quotas             content.Quotas `json:"quotas"`
	ReviewQuota        int            `json:"reviewQuota"`
	PendingReviewCount int            `json:"pendingReviewCount"`
	IsMaintenanceMode  bool           `json:"isMaintenanceMode"`
}

// CourseStats are course-level aggregates shown alongside the session.
type CourseStats struct {
	TotalQuestionsSolved int     `json:"totalQuestionsSolved"`
	AverageMastery       float64 `json:"averageMastery"`
}

// Results are the running answer counters for a session.
type Results struct {
	Correct   int           `json:"correct"`
	Incorrect int           `json:"incorrect"`
	Blank     int           `json:"blank"`
	TotalTime time.Duration `json:"totalTime"`
}

// Answered returns the number of answered items.
func (r Results) Answered() int {
	return r.Correct + r.Incorrect + r.Blank
}

func (r Results) add(resp mastery.ResponseType, elapsed time.Duration) Results {
	switch resp {
	case mastery.ResponseCorrect:
		r.Correct++
	case mastery.ResponseIncorrect:
		r.Incorrect++
	default:
		r.Blank++
	}
	r.TotalTime += elapsed
	return r
}

// State is the full session record. It is only changed through Reduce.
//
// Invariants: the concatenation of Batches equals ReviewQueue, and
// 0 <= CurrentReviewIndex <= len(ReviewQueue).
type State struct {
	Status Status `json:"status"`

	// Generation identifies the initialization this state belongs to.
	// Async completions tagged with another generation are dropped.
	Generation uint64 `json:"generation"`

	SessionInfo *SessionInfo `json:"sessionInfo,omitempty"`
	QuotaInfo   *QuotaInfo   `json:"quotaInfo,omitempty"`
	CourseStats *CourseStats `json:"courseStats,omitempty"`

	ReviewQueue        []queue.Item   `json:"reviewQueue"`
	Batches            [][]queue.Item `json:"batches"`
	CurrentBatchIndex  int            `json:"currentBatchIndex"`
	CurrentReviewIndex int            `json:"currentReviewIndex"`

	Results        Results `json:"results"`
	IsAnswered     bool    `json:"isAnswered"`
	SelectedAnswer *int    `json:"selectedAnswer,omitempty"`
	IsCorrect      *bool   `json:"isCorrect,omitempty"`
	IsSyncing      bool    `json:"isSyncing"`
	// PendingSyncs counts answers whose persistence has not completed.
	PendingSyncs int `json:"pendingSyncs"`

	// TopicRefreshed is set by the last sync when the answered question's
	// chunk reached full coverage.
	TopicRefreshed bool   `json:"topicRefreshed"`
	Error          string `json:"error,omitempty"`
}

// NewState returns an idle session.
func NewState() State {
	return State{
		Status:      StatusIdle,
		ReviewQueue: []queue.Item{},
		Batches:     [][]queue.Item{{}},
	}
}

// TotalBatches is the number of batches, always at least one once
// initialized.
func (s State) TotalBatches() int {
	return len(s.Batches)
}

// Current returns the item under the cursor.
func (s State) Current() (queue.Item, bool) {
	if s.CurrentReviewIndex < 0 || s.CurrentReviewIndex >= len(s.ReviewQueue) {
		return queue.Item{}, false
	}
	return s.ReviewQueue[s.CurrentReviewIndex], true
}

// Remaining is the number of items at or after the cursor.
func (s State) Remaining() int {
	return max(len(s.ReviewQueue)-s.CurrentReviewIndex, 0)
}

// Clone returns a copy that shares no slices with s.
func (s State) Clone() State {
	c := s
	c.ReviewQueue = append([]queue.Item{}, s.ReviewQueue...)
	c.Batches = make([][]queue.Item, len(s.Batches))
	for i, b := range s.Batches {
		c.Batches[i] = append([]queue.Item{}, b...)
	}
	if s.SessionInfo != nil {
		info := *s.SessionInfo
		c.SessionInfo = &info
	}
	if s.QuotaInfo != nil {
		qi := *s.QuotaInfo
		c.QuotaInfo = &qi
	}
	if s.CourseStats != nil {
		cs := *s.CourseStats
		c.CourseStats = &cs
	}
	return c
}
