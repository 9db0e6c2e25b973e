package session

import (
	"slices"

	"github.com/abhisek/shelf/internal/mastery"
	"github.com/abhisek/shelf/internal/queue"
	"github.com/abhisek/shelf/internal/spacedrep"
)

// Reduce applies a to s and returns the resulting state. It never mutates
// s. Actions that do not apply in the current status, or that carry a
// generation other than s.Generation, return s unchanged.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case StartInitializing:
		next := NewState()
		next.Status = StatusInitializing
		next.Generation = a.Generation
		return next

	case Initialize:
		if a.Generation != s.Generation {
			return s
		}
		return initialize(s, a)

	case StartPlaying:
		if s.Status != StatusReady {
			return s
		}
		next := s.Clone()
		next.Status = StatusPlaying
		return next

	case AnswerQuestion:
		return answer(s, a)

	case NextQuestion:
		return advance(s)

	case PrevQuestion:
		return back(s)

	case ContinueBatch:
		if s.Status != StatusIntermission {
			return s
		}
		next := s.Clone()
		next.Status = StatusPlaying
		return next

	case InjectScaffolding:
		if a.Generation != s.Generation {
			return s
		}
		return inject(s, a.Item)

	case SyncComplete:
		if a.Generation != s.Generation {
			return s
		}
		next := s.Clone()
		next.PendingSyncs = max(s.PendingSyncs-1, 0)
		next.IsSyncing = next.PendingSyncs > 0
		next.TopicRefreshed = a.TopicRefreshed
		return next

	case SetError:
		if a.Generation != s.Generation {
			return s
		}
		next := s.Clone()
		next.Status = StatusError
		next.Error = a.Message
		next.IsSyncing = false
		next.PendingSyncs = 0
		return next

	case FinishSession:
		if !s.live() {
			return s
		}
		next := s.Clone()
		next.Status = StatusFinished
		return next
	}
	return s
}

// live reports whether the session has a queue the learner can act on.
func (s State) live() bool {
	switch s.Status {
	case StatusReady, StatusPlaying, StatusIntermission:
		return true
	}
	return false
}

func initialize(s State, a Initialize) State {
	items := make([]queue.Item, len(a.Queue))
	copy(items, a.Queue)

	info := a.SessionInfo
	quota := a.QuotaInfo
	next := State{
		Status:      StatusReady,
		Generation:  s.Generation,
		SessionInfo: &info,
		QuotaInfo:   &quota,
		ReviewQueue: items,
		Batches:     queue.CreateBatches(items, a.BatchSize),
		Results:     resultsOf(items),
	}
	if a.CourseStats != nil {
		cs := *a.CourseStats
		next.CourseStats = &cs
	}

	next.CurrentReviewIndex = min(max(a.InitialReviewIndex, 0), len(items))
	next.CurrentBatchIndex = queue.BatchIndexOf(next.Batches, next.CurrentReviewIndex)
	next.restoreAnswer()
	return next
}

// resultsOf recounts the answers already recorded on a restored queue.
// Elapsed time is not part of the queue, so TotalTime restarts at zero.
func resultsOf(items []queue.Item) Results {
	var r Results
	for _, it := range items {
		switch {
		case !it.Answered:
		case it.IsCorrectAnswer != nil && *it.IsCorrectAnswer:
			r.Correct++
		case it.UserAnswer == nil:
			r.Blank++
		default:
			r.Incorrect++
		}
	}
	return r
}

func answer(s State, a AnswerQuestion) State {
	if s.Status != StatusPlaying && s.Status != StatusReady {
		return s
	}
	cur, ok := s.Current()
	if !ok || cur.QuestionID != a.QuestionID || cur.Answered {
		return s
	}

	next := s.Clone()
	correct := a.Response == mastery.ResponseCorrect
	var selected *int
	if a.AnswerIndex != nil {
		v := *a.AnswerIndex
		selected = &v
	}

	next.updateAt(next.CurrentReviewIndex, func(it *queue.Item) {
		it.Answered = true
		it.UserAnswer = selected
		it.IsCorrectAnswer = &correct
	})

	next.Status = StatusPlaying
	next.IsAnswered = true
	next.SelectedAnswer = selected
	next.IsCorrect = &correct
	next.PendingSyncs++
	next.IsSyncing = true
	next.TopicRefreshed = false
	next.Results = next.Results.add(a.Response, a.Elapsed)
	if next.CourseStats != nil {
		next.CourseStats.TotalQuestionsSolved++
	}
	return next
}

func advance(s State) State {
	if s.Status != StatusPlaying && s.Status != StatusReady {
		return s
	}
	next := s.Clone()
	idx := s.CurrentReviewIndex + 1
	if idx >= len(s.ReviewQueue) {
		next.CurrentReviewIndex = len(s.ReviewQueue)
		next.Status = StatusFinished
		next.clearAnswer()
		return next
	}

	next.CurrentReviewIndex = idx
	if nb := queue.BatchIndexOf(next.Batches, idx); nb > s.CurrentBatchIndex {
		next.CurrentBatchIndex = nb
		next.Status = StatusIntermission
	} else {
		next.Status = StatusPlaying
	}
	next.restoreAnswer()
	return next
}

func back(s State) State {
	if !s.live() || len(s.ReviewQueue) == 0 {
		return s
	}
	next := s.Clone()
	next.CurrentReviewIndex = max(s.CurrentReviewIndex-1, 0)
	next.CurrentBatchIndex = queue.BatchIndexOf(next.Batches, next.CurrentReviewIndex)
	next.Status = StatusPlaying
	next.restoreAnswer()
	return next
}

func inject(s State, item queue.Item) State {
	if !s.live() || item.QuestionID == "" {
		return s
	}
	if slices.ContainsFunc(s.ReviewQueue, func(it queue.Item) bool {
		return it.QuestionID == item.QuestionID
	}) {
		return s
	}

	item.Status = spacedrep.StatusPendingFollowup
	item.Priority = queue.PriorityScaffold
	item.Answered = false
	item.UserAnswer = nil
	item.IsCorrectAnswer = nil
	if item.CourseID == "" && s.SessionInfo != nil {
		item.CourseID = s.SessionInfo.CourseID
	}

	next := s.Clone()
	pos := min(s.CurrentReviewIndex+1, len(s.ReviewQueue))
	next.ReviewQueue = slices.Insert(next.ReviewQueue, pos, item)

	bi := queue.BatchIndexOf(next.Batches, s.CurrentReviewIndex)
	rel := min(max(pos-queue.BatchStart(next.Batches, bi), 0), len(next.Batches[bi]))
	next.Batches[bi] = slices.Insert(next.Batches[bi], rel, item)
	return next
}

// updateAt applies fn to the queue item at global index idx and to its
// copy in the owning batch.
func (s *State) updateAt(idx int, fn func(*queue.Item)) {
	fn(&s.ReviewQueue[idx])
	bi := queue.BatchIndexOf(s.Batches, idx)
	rel := idx - queue.BatchStart(s.Batches, bi)
	if rel >= 0 && rel < len(s.Batches[bi]) {
		fn(&s.Batches[bi][rel])
	}
}

func (s *State) restoreAnswer() {
	cur, ok := s.Current()
	if !ok {
		s.clearAnswer()
		return
	}
	s.IsAnswered = cur.Answered
	s.SelectedAnswer = cur.UserAnswer
	s.IsCorrect = cur.IsCorrectAnswer
}

func (s *State) clearAnswer() {
	s.IsAnswered = false
	s.SelectedAnswer = nil
	s.IsCorrect = nil
}
