package spacedrep

// Status is the lifecycle state of a review item ("shelf").
type Status string

const (
	// StatusActive is the initial status of an item that has never been
	// answered. Classify never returns it for a real answer; see Classify.
	StatusActive          Status = "active"
	StatusPendingFollowup Status = "pending_followup"
	StatusArchived        Status = "archived"
	StatusLearning        Status = "learning"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusPendingFollowup, StatusArchived, StatusLearning:
		return true
	}
	return false
}

const (
	// FastIncrement is added to the success streak for a correct answer
	// given within the time budget.
	FastIncrement = 1.0

	// SlowIncrement is added for a correct answer over the time budget.
	SlowIncrement = 0.5

	// ArchiveThreshold is the streak at which an item leaves active rotation.
	ArchiveThreshold = 3.0

	// FollowupThreshold is the streak at which a correct item still needs
	// reinforcement rather than immediate rotation.
	FollowupThreshold = 0.5
)

// Classification is the outcome of classifying one answer.
type Classification struct {
	Status       Status  `json:"status"`
	SuccessCount float64 `json:"success_count"`
}

// Classify decides the next shelf status and success streak for an item
// given its current streak and the outcome of the latest answer.
//
// A wrong answer always resets the streak and returns pending_followup.
// The StatusActive branch is unreachable for real inputs since the smallest
// increment is SlowIncrement; it is kept so a negative streak read from
// storage still degrades to the initial status instead of being archived.
func Classify(consecutiveSuccess float64, isCorrect, isFast bool) Classification {
	if !isCorrect {
		return Classification{Status: StatusPendingFollowup, SuccessCount: 0}
	}

	inc := SlowIncrement
	if isFast {
		inc = FastIncrement
	}
	n := consecutiveSuccess + inc

	switch {
	case n >= ArchiveThreshold:
		return Classification{Status: StatusArchived, SuccessCount: n}
	case n >= FollowupThreshold:
		return Classification{Status: StatusPendingFollowup, SuccessCount: n}
	default:
		return Classification{Status: StatusActive, SuccessCount: n}
	}
}
