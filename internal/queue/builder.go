package queue

import (
	"math"

	"github.com/abhisek/shelf/internal/spacedrep"
)

const (
	followupShare     = 0.3
	archiveShare      = 0.15
	prerequisiteShare = 0.2
)

// Limits returns how many follow-up and archived items a queue of size
// limit may hold. Active items fill whatever the follow-ups leave.
func Limits(limit int) (followups, archived int) {
	if limit <= 0 {
		return 0, 0
	}
	followups = int(math.Ceil(float64(limit) * followupShare))
	archived = max(1, int(math.Floor(float64(limit)*archiveShare)))
	return followups, archived
}

// PrerequisiteLimit returns how many prerequisite items a queue of size
// limit may open with.
func PrerequisiteLimit(limit int) int {
	if limit <= 0 {
		return 0
	}
	return int(math.Ceil(float64(limit) * prerequisiteShare))
}

// Build merges candidates into a session queue of at most limit items:
// prerequisites of recently failed concepts first, then due follow-ups,
// then never-attempted items, then due archived items in whatever room
// remains. A question appears at most once.
func Build(c Candidates, currentSession, limit int) []Item {
	if limit <= 0 {
		return []Item{}
	}

	followLimit, archiveLimit := Limits(limit)
	out := make([]Item, 0, limit)
	used := make(map[string]bool)

	add := func(cand Candidate, status spacedrep.Status, priority int) {
		used[cand.QuestionID] = true
		out = append(out, Item{
			QuestionID: cand.QuestionID,
			ChunkID:    cand.ChunkID,
			CourseID:   cand.CourseID,
			Status:     status,
			Priority:   priority,
		})
	}

	taken := 0
	for _, cand := range c.Prerequisites {
		if taken >= PrerequisiteLimit(limit) || len(out) >= limit {
			break
		}
		if used[cand.QuestionID] || !due(cand, currentSession) {
			continue
		}
		status := cand.Status
		if status == "" {
			status = spacedrep.StatusActive
		}
		add(cand, status, PriorityPrerequisite)
		taken++
	}

	taken = 0
	for _, cand := range c.Followups {
		if taken >= followLimit || len(out) >= limit {
			break
		}
		if used[cand.QuestionID] || !due(cand, currentSession) {
			continue
		}
		add(cand, spacedrep.StatusPendingFollowup, PriorityFollowup)
		taken++
	}

	for _, cand := range c.Active {
		if len(out) >= limit {
			break
		}
		if used[cand.QuestionID] {
			continue
		}
		add(cand, spacedrep.StatusActive, PriorityActive)
	}

	room := min(archiveLimit, limit-len(out))
	taken = 0
	for _, cand := range c.Archived {
		if taken >= room {
			break
		}
		if used[cand.QuestionID] || !due(cand, currentSession) {
			continue
		}
		add(cand, spacedrep.StatusArchived, PriorityArchived)
		taken++
	}

	return out
}

func due(c Candidate, currentSession int) bool {
	return c.Review().IsDue(currentSession)
}
