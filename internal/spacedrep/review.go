package spacedrep

// DueState describes where a scheduled item stands relative to the
// current session.
type DueState string

const (
	DueNow      DueState = "due"
	DueOverdue  DueState = "overdue"
	DueLater    DueState = "later"
	DueRetired  DueState = "retired"
	DueUnplaced DueState = "unscheduled"
)

// Review is the scheduling state of one item for one learner.
type Review struct {
	Status       Status
	SuccessCount float64
	// NextSession is nil for items that were never scheduled.
	NextSession *int
}

// IsDue reports whether the item should resurface in session. Items
// without a scheduled session are always due.
func (r Review) IsDue(session int) bool {
	return r.NextSession == nil || *r.NextSession <= session
}

// OverdueSessions is how many sessions have passed since the item came
// due. Zero when not yet due or unscheduled.
func (r Review) OverdueSessions(session int) int {
	if r.NextSession == nil || session <= *r.NextSession {
		return 0
	}
	return session - *r.NextSession
}

// SessionsUntilDue is how many sessions remain before the item resurfaces.
// Zero when already due.
func (r Review) SessionsUntilDue(session int) int {
	if r.IsDue(session) {
		return 0
	}
	return *r.NextSession - session
}

// State summarizes the item for display. An overdue item is one that
// missed more than its own gap, so a follow-up skipped for a session or
// two is still just due.
func (r Review) State(session int) DueState {
	if r.NextSession == nil {
		return DueUnplaced
	}
	if !r.IsDue(session) {
		if r.Status == StatusArchived {
			return DueRetired
		}
		return DueLater
	}
	if r.OverdueSessions(session) > ReviewGaps[GapIndex(r.SuccessCount)] {
		return DueOverdue
	}
	return DueNow
}
