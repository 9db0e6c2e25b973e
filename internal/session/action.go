package session

import (
	"time"

	"github.com/abhisek/shelf/internal/mastery"
	"github.com/abhisek/shelf/internal/queue"
)

// Action is a state transition request. The set of actions is closed:
// only types in this package implement it.
type Action interface {
	isAction()
}

// StartInitializing begins a new initialization with the given generation.
type StartInitializing struct {
	Generation uint64
}

// Initialize installs the data loaded for a session. InitialReviewIndex
// restores a saved cursor.
type Initialize struct {
	Generation         uint64
	SessionInfo        SessionInfo
	QuotaInfo          QuotaInfo
	CourseStats        *CourseStats
	Queue              []queue.Item
	BatchSize          int
	InitialReviewIndex int
}

// StartPlaying leaves READY.
type StartPlaying struct{}

// AnswerQuestion records the answer to the item under the cursor.
// AnswerIndex is nil for a blank answer.
type AnswerQuestion struct {
	QuestionID  string
	AnswerIndex *int
	Response    mastery.ResponseType
	Elapsed     time.Duration
}

// NextQuestion advances the cursor.
type NextQuestion struct{}

// PrevQuestion moves the cursor back one item.
type PrevQuestion struct{}

// ContinueBatch acknowledges an intermission.
type ContinueBatch struct{}

// InjectScaffolding inserts a remedial item right after the cursor.
type InjectScaffolding struct {
	Generation uint64
	Item       queue.Item
}

// SyncComplete marks the end of an answer's persistence call, successful
// or not.
type SyncComplete struct {
	Generation     uint64
	TopicRefreshed bool
}

// SetError moves the session to ERROR.
type SetError struct {
	Generation uint64
	Message    string
}

// FinishSession ends the session early.
type FinishSession struct{}

func (StartInitializing) isAction() {}
func (Initialize) isAction()        {}
func (StartPlaying) isAction()      {}
func (AnswerQuestion) isAction()    {}
func (NextQuestion) isAction()      {}
func (PrevQuestion) isAction()      {}
func (ContinueBatch) isAction()     {}
func (InjectScaffolding) isAction() {}
func (SyncComplete) isAction()      {}
func (SetError) isAction()          {}
func (FinishSession) isAction()     {}
