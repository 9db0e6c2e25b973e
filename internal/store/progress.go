package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/shelf/internal/content"
	"github.com/abhisek/shelf/internal/distribution"
	"github.com/abhisek/shelf/internal/grading"
	"github.com/abhisek/shelf/internal/mastery"
	"github.com/abhisek/shelf/internal/queue"
	"github.com/abhisek/shelf/internal/session"
	"github.com/abhisek/shelf/internal/spacedrep"
)

// DefaultReviewQuota is the planned number of questions per session.
const DefaultReviewQuota = 25

const dayLayout = "2006-01-02"

// SessionInfo returns the learner's session number for a course. The
// counter advances on the first call of each calendar day.
func (s *Store) SessionInfo(ctx context.Context, userID, courseID string) (session.SessionInfo, error) {
	course, err := s.Course(ctx, courseID)
	if err != nil {
		return session.SessionInfo{}, err
	}

	today := s.now().Format(dayLayout)
	info := session.SessionInfo{CourseID: course.ID, CourseName: course.Name}

	err = s.withTx(ctx, func(tx dialect.Tx) error {
		var rows []struct {
			Current int    `sql:"current_session"`
			Date    string `sql:"last_session_date"`
		}
		sel := builder().Select("current_session", "last_session_date").
			From(builder().Table(SessionCountersTable.Name)).
			Where(entsql.And(entsql.EQ("user_id", userID), entsql.EQ("course_id", courseID)))
		if err := scanAll(ctx, tx, sel, &rows); err != nil {
			return err
		}

		switch {
		case len(rows) == 0:
			info.CurrentSession, info.IsNewSession = 1, true
			return execQuery(ctx, tx, builder().Insert(SessionCountersTable.Name).
				Columns("user_id", "course_id", "current_session", "last_session_date").
				Values(userID, courseID, 1, today))
		case rows[0].Date != today:
			info.CurrentSession, info.IsNewSession = rows[0].Current+1, true
			return execQuery(ctx, tx, builder().Update(SessionCountersTable.Name).
				Set("current_session", info.CurrentSession).
				Set("last_session_date", today).
				Where(entsql.And(entsql.EQ("user_id", userID), entsql.EQ("course_id", courseID))))
		default:
			info.CurrentSession = rows[0].Current
			return nil
		}
	})
	if err != nil {
		return session.SessionInfo{}, fmt.Errorf("session counter: %w", err)
	}
	return info, nil
}

// QuotaInfo sums the course's per-chunk quotas and counts the items
// still in rotation.
func (s *Store) QuotaInfo(ctx context.Context, userID, courseID string) (session.QuotaInfo, error) {
	chunks, err := s.Chunks(ctx, courseID)
	if err != nil {
		return session.QuotaInfo{}, err
	}
	var quotas content.Quotas
	for _, c := range chunks {
		q := content.ResolveQuotas(c.Quotas)
		quotas.Training += q.Training
		quotas.Archive += q.Archive
		quotas.Mock += q.Mock
	}

	pending, err := scanInt(ctx, s.drv, builder().Select(entsql.Count("*")).
		From(builder().Table(UserQuestionStatusTable.Name)).
		Where(entsql.And(
			entsql.EQ("user_id", userID),
			entsql.EQ("course_id", courseID),
			entsql.In("status", string(spacedrep.StatusActive), string(spacedrep.StatusPendingFollowup)),
		)))
	if err != nil {
		return session.QuotaInfo{}, fmt.Errorf("count pending reviews: %w", err)
	}

	fresh, err := scanInt(ctx, s.drv, candidateQuery(userID, courseID, activePredicate()).Count())
	if err != nil {
		return session.QuotaInfo{}, fmt.Errorf("count unseen questions: %w", err)
	}

	return session.QuotaInfo{
		Quotas:             quotas,
		ReviewQuota:        DefaultReviewQuota,
		PendingReviewCount: pending,
		IsMaintenanceMode:  pending == 0 && fresh == 0,
	}, nil
}

// CourseStats aggregates the learner's chunk mastery rows for a course.
func (s *Store) CourseStats(ctx context.Context, userID, courseID string) (session.CourseStats, error) {
	var rows []struct {
		Seen    int     `sql:"seen"`
		Average float64 `sql:"average"`
	}
	sel := builder().Select(
		entsql.As("COALESCE(SUM(`total_questions_seen`), 0)", "seen"),
		entsql.As("COALESCE(AVG(`mastery_score`), 0)", "average"),
	).
		From(builder().Table(ChunkMasteryTable.Name)).
		Where(entsql.And(entsql.EQ("user_id", userID), entsql.EQ("course_id", courseID)))
	if err := scanAll(ctx, s.drv, sel, &rows); err != nil {
		return session.CourseStats{}, fmt.Errorf("query course stats: %w", err)
	}
	if len(rows) == 0 {
		return session.CourseStats{}, nil
	}
	return session.CourseStats{
		TotalQuestionsSolved: rows[0].Seen,
		AverageMastery:       math.Round(rows[0].Average),
	}, nil
}

type candidateRow struct {
	QuestionID string  `sql:"question_id"`
	ChunkID    *string `sql:"chunk_id"`
	CourseID   string  `sql:"course_id"`
	Status     *string `sql:"status"`
	NextReview *int    `sql:"next_review_session"`
}

const (
	questionAlias = "q"
	statusAlias   = "s"
)

// candidateQuery selects the course's non-mock questions joined with the
// learner's status rows, filtered by pred.
func candidateQuery(userID, courseID string, pred *entsql.Predicate) *entsql.Selector {
	q := builder().Table(QuestionsTable.Name).As(questionAlias)
	st := builder().Table(UserQuestionStatusTable.Name).As(statusAlias)
	return builder().Select(
		entsql.As(q.C("id"), "question_id"),
		entsql.As(q.C("chunk_id"), "chunk_id"),
		entsql.As(q.C("course_id"), "course_id"),
		entsql.As(st.C("status"), "status"),
		entsql.As(st.C("next_review_session"), "next_review_session"),
	).
		From(q).
		LeftJoin(st).
		OnP(entsql.And(
			entsql.ColumnsEQ(q.C("id"), st.C("question_id")),
			entsql.EQ(st.C("user_id"), userID),
		)).
		Where(entsql.And(
			entsql.EQ(q.C("course_id"), courseID),
			entsql.NEQ(q.C("usage_type"), string(content.UsageMock)),
			pred,
		))
}

func qcol(c string) string { return "`" + questionAlias + "`.`" + c + "`" }
func scol(c string) string { return "`" + statusAlias + "`.`" + c + "`" }

// followupPredicate matches pending follow-ups and generated remedial
// questions the learner has not answered yet.
func followupPredicate() *entsql.Predicate {
	return entsql.Or(
		entsql.EQ(scol("status"), string(spacedrep.StatusPendingFollowup)),
		entsql.And(entsql.IsNull(scol("status")), entsql.NotNull(qcol("parent_question_id"))),
	)
}

// activePredicate matches questions still in the immediate rotation.
func activePredicate() *entsql.Predicate {
	return entsql.Or(
		entsql.And(entsql.IsNull(scol("status")), entsql.IsNull(qcol("parent_question_id"))),
		entsql.In(scol("status"), string(spacedrep.StatusActive), string(spacedrep.StatusLearning)),
	)
}

func archivedPredicate() *entsql.Predicate {
	return entsql.EQ(scol("status"), string(spacedrep.StatusArchived))
}

func (s *Store) candidates(ctx context.Context, sel *entsql.Selector) ([]queue.Candidate, error) {
	var rows []candidateRow
	if err := scanAll(ctx, s.drv, sel, &rows); err != nil {
		return nil, err
	}
	out := make([]queue.Candidate, len(rows))
	for i, r := range rows {
		out[i] = queue.Candidate{
			QuestionID:        r.QuestionID,
			ChunkID:           deref(r.ChunkID),
			CourseID:          r.CourseID,
			NextReviewSession: r.NextReview,
		}
		if r.Status != nil {
			out[i].Status = spacedrep.Status(*r.Status)
		} else {
			out[i].Status = spacedrep.StatusActive
		}
	}
	return out, nil
}

const (
	// recentFailureLimit is how many failing questions are inspected for
	// missing prerequisites.
	recentFailureLimit = 5
	// prerequisitesPerConcept caps the questions drawn for one failure.
	prerequisitesPerConcept = 3
	prerequisiteScanLimit   = 10
)

type failureRow struct {
	ChunkID          string `sql:"chunk_id"`
	Concept          string `sql:"concept"`
	ConsecutiveFails int    `sql:"consecutive_fails"`
}

// prerequisiteCandidates finds questions on the prerequisites of the
// concepts the learner most recently failed. After repeated fails on a
// concept only knowledge-level questions are drawn when any exist.
func (s *Store) prerequisiteCandidates(ctx context.Context, userID, courseID string) ([]queue.Candidate, error) {
	st := builder().Table(UserQuestionStatusTable.Name).As(statusAlias)
	q := builder().Table(QuestionsTable.Name).As(questionAlias)
	var fails []failureRow
	sel := builder().Select(
		entsql.As(q.C("chunk_id"), "chunk_id"),
		entsql.As(q.C("concept"), "concept"),
		entsql.As(st.C("consecutive_fails"), "consecutive_fails"),
	).
		From(st).
		Join(q).
		OnP(entsql.ColumnsEQ(st.C("question_id"), q.C("id"))).
		Where(entsql.And(
			entsql.EQ(st.C("user_id"), userID),
			entsql.EQ(q.C("course_id"), courseID),
			entsql.GT(st.C("consecutive_fails"), 0),
			entsql.NotNull(q.C("chunk_id")),
			entsql.NotNull(q.C("concept")),
		)).
		OrderBy(entsql.Desc(st.C("updated_at"))).
		Limit(recentFailureLimit)
	if err := scanAll(ctx, s.drv, sel, &fails); err != nil {
		return nil, fmt.Errorf("query recent failures: %w", err)
	}

	var out []queue.Candidate
	seen := make(map[string]bool)
	for _, f := range fails {
		key := strings.ToLower(strings.TrimSpace(f.Concept))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		chunk, err := s.Chunk(ctx, f.ChunkID)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		prereqs := chunk.Prerequisites(f.Concept)
		if len(prereqs) == 0 {
			continue
		}
		titles := make([]any, len(prereqs))
		for i, p := range prereqs {
			titles[i] = p
		}
		pred := entsql.And(entsql.In(qcol("concept"), titles...), entsql.IsNull(qcol("parent_question_id")))

		var found []queue.Candidate
		if f.ConsecutiveFails > 1 {
			found, err = s.prerequisiteQuestions(ctx, userID, courseID,
				entsql.And(pred, entsql.EQ(qcol("bloom_level"), string(mastery.BloomKnowledge))))
			if err != nil {
				return nil, err
			}
		}
		if len(found) == 0 {
			if found, err = s.prerequisiteQuestions(ctx, userID, courseID, pred); err != nil {
				return nil, err
			}
		}
		out = append(out, found[:min(len(found), prerequisitesPerConcept)]...)
	}
	return out, nil
}

func (s *Store) prerequisiteQuestions(ctx context.Context, userID, courseID string, pred *entsql.Predicate) ([]queue.Candidate, error) {
	sel := candidateQuery(userID, courseID, pred).
		OrderBy(entsql.Asc(qcol("created_at")), qcol("id")).
		Limit(prerequisiteScanLimit)
	found, err := s.candidates(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("query prerequisite questions: %w", err)
	}
	return found, nil
}

// ReviewQueue builds the session queue from prerequisites of recently
// failed concepts, the learner's follow-ups, unseen questions and due
// archived items, each oldest first.
func (s *Store) ReviewQueue(ctx context.Context, userID, courseID string, currentSession, limit int) ([]queue.Item, error) {
	var c queue.Candidates
	var err error

	if c.Prerequisites, err = s.prerequisiteCandidates(ctx, userID, courseID); err != nil {
		return nil, err
	}

	sel := candidateQuery(userID, courseID, followupPredicate()).
		OrderBy(entsql.Asc(scol("updated_at")), entsql.Asc(qcol("created_at")), qcol("id"))
	if c.Followups, err = s.candidates(ctx, sel); err != nil {
		return nil, fmt.Errorf("query follow-ups: %w", err)
	}

	sel = candidateQuery(userID, courseID, activePredicate()).
		OrderBy(entsql.Asc(qcol("created_at")), qcol("id"))
	if c.Active, err = s.candidates(ctx, sel); err != nil {
		return nil, fmt.Errorf("query active questions: %w", err)
	}

	sel = candidateQuery(userID, courseID, archivedPredicate()).
		OrderBy(entsql.Asc(scol("next_review_session")), entsql.Asc(scol("updated_at")))
	if c.Archived, err = s.candidates(ctx, sel); err != nil {
		return nil, fmt.Errorf("query archived questions: %w", err)
	}

	return queue.Build(c, currentSession, limit), nil
}

type statusRow struct {
	Status             string  `sql:"status"`
	ConsecutiveSuccess float64 `sql:"consecutive_success"`
	ConsecutiveFails   int     `sql:"consecutive_fails"`
	NextReviewSession  *int    `sql:"next_review_session"`
	Score              float64 `sql:"score"`
}

// QuestionStatus returns the learner's status row for a question, or nil
// when the question was never answered.
func (s *Store) QuestionStatus(ctx context.Context, userID, questionID string) (*grading.QuestionStatus, error) {
	var rows []statusRow
	sel := builder().Select("status", "consecutive_success", "consecutive_fails", "next_review_session", "score").
		From(builder().Table(UserQuestionStatusTable.Name)).
		Where(entsql.And(entsql.EQ("user_id", userID), entsql.EQ("question_id", questionID)))
	if err := scanAll(ctx, s.drv, sel, &rows); err != nil {
		return nil, fmt.Errorf("query question status: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	r := rows[0]
	return &grading.QuestionStatus{
		Status:             spacedrep.Status(r.Status),
		ConsecutiveSuccess: r.ConsecutiveSuccess,
		ConsecutiveFails:   r.ConsecutiveFails,
		NextReviewSession:  r.NextReviewSession,
		Score:              r.Score,
	}, nil
}

// ChunkProgress returns the learner's item scores and last full review
// for a chunk. Generated follow-ups do not count towards coverage.
func (s *Store) ChunkProgress(ctx context.Context, userID, chunkID string) (*grading.ChunkProgress, error) {
	total, err := countQuestions(ctx, s.drv, chunkID)
	if err != nil {
		return nil, fmt.Errorf("count chunk questions: %w", err)
	}

	st := builder().Table(UserQuestionStatusTable.Name).As(statusAlias)
	q := builder().Table(QuestionsTable.Name).As(questionAlias)
	var scores []struct {
		QuestionID string  `sql:"question_id"`
		Score      float64 `sql:"score"`
	}
	sel := builder().Select(
		entsql.As(st.C("question_id"), "question_id"),
		entsql.As(st.C("score"), "score"),
	).
		From(st).
		Join(q).
		OnP(entsql.ColumnsEQ(st.C("question_id"), q.C("id"))).
		Where(entsql.And(
			entsql.EQ(st.C("user_id"), userID),
			entsql.EQ(st.C("chunk_id"), chunkID),
			entsql.IsNull(q.C("parent_question_id")),
		))
	if err := scanAll(ctx, s.drv, sel, &scores); err != nil {
		return nil, fmt.Errorf("query item scores: %w", err)
	}

	progress := &grading.ChunkProgress{
		TotalQuestions: total,
		ItemScores:     make(map[string]float64, len(scores)),
	}
	for _, r := range scores {
		progress.ItemScores[r.QuestionID] = r.Score
	}

	var rows []struct {
		LastFullReviewAt *int64 `sql:"last_full_review_at"`
	}
	sel = builder().Select("last_full_review_at").
		From(builder().Table(ChunkMasteryTable.Name)).
		Where(entsql.And(entsql.EQ("user_id", userID), entsql.EQ("chunk_id", chunkID)))
	if err := scanAll(ctx, s.drv, sel, &rows); err != nil {
		return nil, fmt.Errorf("query chunk mastery: %w", err)
	}
	if len(rows) > 0 && rows[0].LastFullReviewAt != nil {
		t := fromMillis(*rows[0].LastFullReviewAt)
		progress.LastFullReview = &t
	}
	return progress, nil
}

// RecordAnswer writes the graded answer: the question status, the chunk
// mastery row and the answer log entry, in one transaction. Mock answers
// only reach the log.
func (s *Store) RecordAnswer(ctx context.Context, rec grading.AnswerRecord) error {
	at := millis(rec.AnsweredAt)
	res := rec.Result

	return s.withTx(ctx, func(tx dialect.Tx) error {
		if !rec.Mock {
			err := execQuery(ctx, tx, builder().Insert(UserQuestionStatusTable.Name).
				Columns("user_id", "question_id", "course_id", "chunk_id", "status",
					"consecutive_success", "consecutive_fails", "next_review_session",
					"score", "attempts", "updated_at").
				Values(rec.UserID, rec.QuestionID, rec.CourseID, nullable(rec.ChunkID), string(res.NewStatus),
					res.NewSuccessCount, res.NewFailsCount, res.NextReviewSession,
					res.NewMastery, 1, at).
				OnConflict(
					entsql.ConflictColumns("user_id", "question_id"),
					entsql.ResolveWith(func(u *entsql.UpdateSet) {
						for _, c := range []string{"status", "consecutive_success", "consecutive_fails",
							"next_review_session", "score", "updated_at"} {
							u.SetExcluded(c)
						}
						u.Add("attempts", 1)
					}),
				))
			if err != nil {
				return fmt.Errorf("upsert question status: %w", err)
			}
		}

		if rec.ChunkID != "" && !rec.Mock {
			var fullReview any
			if rec.FullReviewedAt != nil {
				fullReview = millis(*rec.FullReviewedAt)
			}
			err := execQuery(ctx, tx, builder().Insert(ChunkMasteryTable.Name).
				Columns("user_id", "chunk_id", "course_id", "mastery_score", "last_reviewed_session",
					"last_full_review_at", "total_questions_seen", "updated_at").
				Values(rec.UserID, rec.ChunkID, rec.CourseID, rec.ChunkMastery, rec.Session,
					fullReview, 1, at).
				OnConflict(
					entsql.ConflictColumns("user_id", "chunk_id"),
					entsql.ResolveWith(func(u *entsql.UpdateSet) {
						u.SetExcluded("mastery_score")
						u.SetExcluded("last_reviewed_session")
						u.SetExcluded("updated_at")
						if rec.FullReviewedAt != nil {
							u.SetExcluded("last_full_review_at")
						}
						u.Add("total_questions_seen", 1)
					}),
				))
			if err != nil {
				return fmt.Errorf("upsert chunk mastery: %w", err)
			}
		}

		err := execQuery(ctx, tx, builder().Insert(AnswersTable.Name).
			Columns("user_id", "course_id", "question_id", "chunk_id", "session_number", "response",
				"elapsed_ms", "score_delta", "new_status", "mock", "answered_at").
			Values(rec.UserID, rec.CourseID, rec.QuestionID, nullable(rec.ChunkID), rec.Session,
				string(rec.Response), rec.Elapsed.Milliseconds(), res.ScoreDelta, string(res.NewStatus),
				rec.Mock, at))
		if err != nil {
			return fmt.Errorf("insert answer: %w", err)
		}
		return nil
	})
}

// ChunkMetrics returns the allocator input for every chunk of a course,
// with the learner's mastery where one is recorded.
func (s *Store) ChunkMetrics(ctx context.Context, userID, courseID string) ([]distribution.ChunkMetric, error) {
	chunks, err := s.Chunks(ctx, courseID)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		ChunkID string `sql:"chunk_id"`
		Score   int    `sql:"mastery_score"`
	}
	sel := builder().Select("chunk_id", "mastery_score").
		From(builder().Table(ChunkMasteryTable.Name)).
		Where(entsql.And(entsql.EQ("user_id", userID), entsql.EQ("course_id", courseID)))
	if err := scanAll(ctx, s.drv, sel, &rows); err != nil {
		return nil, fmt.Errorf("query chunk mastery: %w", err)
	}
	scores := make(map[string]int, len(rows))
	for _, r := range rows {
		scores[r.ChunkID] = r.Score
	}

	out := make([]distribution.ChunkMetric, len(chunks))
	for i, c := range chunks {
		out[i] = distribution.ChunkMetric{
			ID:              c.ID,
			ConceptCount:    c.ConceptCount(),
			DifficultyIndex: c.DifficultyIndex,
			MasteryScore:    float64(scores[c.ID]),
		}
	}
	return out, nil
}

// ResetProgress deletes every progress row the learner has for a course.
// Course content is left untouched.
func (s *Store) ResetProgress(ctx context.Context, userID, courseID string) error {
	tables := []string{
		UserQuestionStatusTable.Name,
		ChunkMasteryTable.Name,
		AnswersTable.Name,
		SessionCountersTable.Name,
		SessionSnapshotsTable.Name,
	}
	return s.withTx(ctx, func(tx dialect.Tx) error {
		for _, t := range tables {
			err := execQuery(ctx, tx, builder().Delete(t).
				Where(entsql.And(entsql.EQ("user_id", userID), entsql.EQ("course_id", courseID))))
			if err != nil {
				return fmt.Errorf("reset %s: %w", t, err)
			}
		}
		return nil
	})
}

var (
	_ session.Repository = (*Store)(nil)
	_ grading.Repository = (*Store)(nil)
)
