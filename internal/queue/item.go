// Package queue assembles the ordered list of questions a session presents
// and slices it into batches.
package queue

import "github.com/abhisek/shelf/internal/spacedrep"

// Priorities, lower is sooner.
const (
	PriorityScaffold     = 0
	PriorityPrerequisite = 0
	PriorityFollowup     = 1
	PriorityActive   = 2
	PriorityArchived = 3
)

// Item is one schedulable question in a session.
type Item struct {
	QuestionID string           `json:"questionId"`
	ChunkID    string           `json:"chunkId,omitempty"`
	CourseID   string           `json:"courseId"`
	Status     spacedrep.Status `json:"status"`
	Priority   int              `json:"priority"`
	// UserAnswer is the selected option index once answered; nil when
	// unanswered or left blank.
	UserAnswer      *int  `json:"userAnswer,omitempty"`
	IsCorrectAnswer *bool `json:"isCorrectAnswer,omitempty"`
	Answered        bool  `json:"answered,omitempty"`
}

// Candidate is a question eligible for a session, as read from storage.
type Candidate struct {
	QuestionID        string
	ChunkID           string
	CourseID          string
	Status            spacedrep.Status
	NextReviewSession *int
}

// Review returns the candidate's scheduling state.
func (c Candidate) Review() spacedrep.Review {
	return spacedrep.Review{Status: c.Status, NextSession: c.NextReviewSession}
}

// Candidates groups the sources the builder merges. Each slice is
// expected in the storage's preferred order (oldest first).
type Candidates struct {
	// Prerequisites are questions on concepts that recently failed
	// concepts build on.
	Prerequisites []Candidate
	// Followups are pending_followup items, including generated remedial
	// questions.
	Followups []Candidate
	// Active are questions the learner has never attempted.
	Active []Candidate
	// Archived are retired items that may be due for resurfacing.
	Archived []Candidate
}
