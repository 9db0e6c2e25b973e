package store

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/shelf/internal/content"
	"github.com/abhisek/shelf/internal/mastery"
)

// CourseInfo is a course with its live content version.
type CourseInfo struct {
	content.Course
	ContentVersion int64
}

// ImportResult counts the rows an import wrote.
type ImportResult struct {
	Chunks    int
	Questions int
}

type courseRow struct {
	ID             string `sql:"id"`
	Name           string `sql:"name"`
	Importance     string `sql:"importance"`
	ContentVersion int64  `sql:"content_version"`
}

type chunkRow struct {
	ID              string  `sql:"id"`
	CourseID        string  `sql:"course_id"`
	Title           string  `sql:"title"`
	Content         string  `sql:"content"`
	DifficultyIndex int     `sql:"difficulty_index"`
	ConceptMap      string  `sql:"concept_map"`
	Quotas          *string `sql:"quotas"`
}

var chunkColumns = []string{"id", "course_id", "title", "content", "difficulty_index", "concept_map", "quotas"}

func (r chunkRow) chunk() (*content.Chunk, error) {
	c := &content.Chunk{
		ID:              r.ID,
		CourseID:        r.CourseID,
		Title:           r.Title,
		Content:         r.Content,
		DifficultyIndex: r.DifficultyIndex,
	}
	if r.ConceptMap != "" {
		if err := json.Unmarshal([]byte(r.ConceptMap), &c.ConceptMap); err != nil {
			return nil, fmt.Errorf("decode concept map of chunk %s: %w", r.ID, err)
		}
	}
	if r.Quotas != nil && *r.Quotas != "" {
		var q content.Quotas
		if err := json.Unmarshal([]byte(*r.Quotas), &q); err != nil {
			return nil, fmt.Errorf("decode quotas of chunk %s: %w", r.ID, err)
		}
		c.Quotas = &q
	}
	return c, nil
}

type questionRow struct {
	ID               string  `sql:"id"`
	CourseID         string  `sql:"course_id"`
	ChunkID          *string `sql:"chunk_id"`
	ParentQuestionID *string `sql:"parent_question_id"`
	Prompt           string  `sql:"prompt"`
	Options          string  `sql:"options"`
	CorrectIndex     int     `sql:"correct_index"`
	Explanation      string  `sql:"explanation"`
	Evidence         string  `sql:"evidence"`
	ImageRef         *string `sql:"image_ref"`
	UsageType        string  `sql:"usage_type"`
	BloomLevel       string  `sql:"bloom_level"`
	Concept          *string `sql:"concept"`
}

var questionColumns = []string{
	"id", "course_id", "chunk_id", "parent_question_id", "prompt", "options",
	"correct_index", "explanation", "evidence", "image_ref", "usage_type",
	"bloom_level", "concept",
}

func (r questionRow) question() (*content.Question, error) {
	q := &content.Question{
		ID:           r.ID,
		CourseID:     r.CourseID,
		ChunkID:      deref(r.ChunkID),
		ParentID:     deref(r.ParentQuestionID),
		Prompt:       r.Prompt,
		CorrectIndex: r.CorrectIndex,
		Explanation:  r.Explanation,
		Evidence:     r.Evidence,
		ImageRef:     deref(r.ImageRef),
		Usage:        content.ParseUsageType(r.UsageType),
		BloomLevel:   mastery.ParseBloomLevel(r.BloomLevel),
		Concept:      deref(r.Concept),
	}
	if err := json.Unmarshal([]byte(r.Options), &q.Options); err != nil {
		return nil, fmt.Errorf("decode options of question %s: %w", r.ID, err)
	}
	return q, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// nullable maps "" to NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// upsertKeeping resolves a primary-key conflict by overwriting every
// inserted column except keep.
func upsertKeeping(keep ...string) entsql.ConflictOption {
	return entsql.ResolveWith(func(u *entsql.UpdateSet) {
		for _, c := range u.Columns() {
			if !slices.Contains(keep, c) {
				u.SetExcluded(c)
			}
		}
	})
}

// ImportBundle upserts a course with its chunks and questions and bumps
// the course content version, all in one transaction.
func (s *Store) ImportBundle(ctx context.Context, b *content.Bundle) (ImportResult, error) {
	var res ImportResult
	err := s.withTx(ctx, func(tx dialect.Tx) error {
		importance := b.Course.Importance
		if importance == "" {
			importance = "medium"
		}
		err := execQuery(ctx, tx, builder().Insert(CoursesTable.Name).
			Columns("id", "name", "importance", "content_version", "created_at").
			Values(b.Course.ID, b.Course.Name, importance, 0, millis(s.now())).
			OnConflict(entsql.ConflictColumns("id"), upsertKeeping("id", "content_version", "created_at")))
		if err != nil {
			return fmt.Errorf("upsert course %s: %w", b.Course.ID, err)
		}

		for i, c := range b.Chunks {
			if err := insertChunk(ctx, tx, c, i); err != nil {
				return err
			}
			res.Chunks++
		}
		for _, q := range b.Questions {
			if err := insertQuestion(ctx, tx, q, millis(s.now())); err != nil {
				return err
			}
			res.Questions++
		}
		return bumpContentVersion(ctx, tx, b.Course.ID)
	})
	if err != nil {
		return ImportResult{}, fmt.Errorf("import bundle: %w", err)
	}
	return res, nil
}

func insertChunk(ctx context.Context, conn dialect.ExecQuerier, c content.Chunk, position int) error {
	concepts, err := json.Marshal(c.ConceptMap)
	if err != nil {
		return fmt.Errorf("encode concept map of chunk %s: %w", c.ID, err)
	}
	var quotas any
	if c.Quotas != nil {
		b, err := json.Marshal(c.Quotas)
		if err != nil {
			return fmt.Errorf("encode quotas of chunk %s: %w", c.ID, err)
		}
		quotas = string(b)
	}
	err = execQuery(ctx, conn, builder().Insert(ChunksTable.Name).
		Columns(append(slices.Clone(chunkColumns), "position")...).
		Values(c.ID, c.CourseID, c.Title, c.Content, c.DifficultyIndex, string(concepts), quotas, position).
		OnConflict(entsql.ConflictColumns("id"), upsertKeeping("id")))
	if err != nil {
		return fmt.Errorf("upsert chunk %s: %w", c.ID, err)
	}
	return nil
}

func insertQuestion(ctx context.Context, conn dialect.ExecQuerier, q content.Question, createdAt int64) error {
	opts, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("encode options of question %s: %w", q.ID, err)
	}
	usage := q.Usage
	if usage == "" {
		usage = content.UsageTraining
	}
	level := q.BloomLevel
	if level == "" {
		level = mastery.BloomKnowledge
	}
	err = execQuery(ctx, conn, builder().Insert(QuestionsTable.Name).
		Columns(append(slices.Clone(questionColumns), "created_at")...).
		Values(
			q.ID, q.CourseID, nullable(q.ChunkID), nullable(q.ParentID), q.Prompt, string(opts),
			q.CorrectIndex, q.Explanation, q.Evidence, nullable(q.ImageRef), string(usage),
			string(level), nullable(q.Concept), createdAt,
		).
		OnConflict(entsql.ConflictColumns("id"), upsertKeeping("id", "created_at")))
	if err != nil {
		return fmt.Errorf("upsert question %s: %w", q.ID, err)
	}
	return nil
}

func bumpContentVersion(ctx context.Context, conn dialect.ExecQuerier, courseID string) error {
	n, err := execAffected(ctx, conn, builder().Update(CoursesTable.Name).
		Add("content_version", 1).
		Where(entsql.EQ("id", courseID)))
	if err != nil {
		return fmt.Errorf("bump content version: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("course %s: %w", courseID, ErrNotFound)
	}
	return nil
}

// SaveQuestion stores a single question, typically a generated remedial
// follow-up, and bumps the course content version.
func (s *Store) SaveQuestion(ctx context.Context, q content.Question) error {
	if err := q.Validate(); err != nil {
		return fmt.Errorf("save question: %w", err)
	}
	return s.withTx(ctx, func(tx dialect.Tx) error {
		if err := insertQuestion(ctx, tx, q, millis(s.now())); err != nil {
			return err
		}
		return bumpContentVersion(ctx, tx, q.CourseID)
	})
}

// Course returns one course, or ErrNotFound.
func (s *Store) Course(ctx context.Context, id string) (*CourseInfo, error) {
	var rows []courseRow
	sel := builder().Select("id", "name", "importance", "content_version").
		From(builder().Table(CoursesTable.Name)).
		Where(entsql.EQ("id", id))
	if err := scanAll(ctx, s.drv, sel, &rows); err != nil {
		return nil, fmt.Errorf("query course %s: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("course %s: %w", id, ErrNotFound)
	}
	return rows[0].info(), nil
}

// Courses lists every course by name.
func (s *Store) Courses(ctx context.Context) ([]CourseInfo, error) {
	var rows []courseRow
	sel := builder().Select("id", "name", "importance", "content_version").
		From(builder().Table(CoursesTable.Name)).
		OrderBy("name")
	if err := scanAll(ctx, s.drv, sel, &rows); err != nil {
		return nil, fmt.Errorf("query courses: %w", err)
	}
	out := make([]CourseInfo, len(rows))
	for i, r := range rows {
		out[i] = *r.info()
	}
	return out, nil
}

func (r courseRow) info() *CourseInfo {
	return &CourseInfo{
		Course:         content.Course{ID: r.ID, Name: r.Name, Importance: r.Importance},
		ContentVersion: r.ContentVersion,
	}
}

// ContentVersion returns the course's content version.
func (s *Store) ContentVersion(ctx context.Context, courseID string) (int64, error) {
	c, err := s.Course(ctx, courseID)
	if err != nil {
		return 0, err
	}
	return c.ContentVersion, nil
}

// Chunk returns one chunk, or ErrNotFound.
func (s *Store) Chunk(ctx context.Context, id string) (*content.Chunk, error) {
	var rows []chunkRow
	sel := builder().Select(chunkColumns...).
		From(builder().Table(ChunksTable.Name)).
		Where(entsql.EQ("id", id))
	if err := scanAll(ctx, s.drv, sel, &rows); err != nil {
		return nil, fmt.Errorf("query chunk %s: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("chunk %s: %w", id, ErrNotFound)
	}
	return rows[0].chunk()
}

// Chunks returns the course's chunks in import order.
func (s *Store) Chunks(ctx context.Context, courseID string) ([]content.Chunk, error) {
	var rows []chunkRow
	sel := builder().Select(chunkColumns...).
		From(builder().Table(ChunksTable.Name)).
		Where(entsql.EQ("course_id", courseID)).
		OrderBy("position", "id")
	if err := scanAll(ctx, s.drv, sel, &rows); err != nil {
		return nil, fmt.Errorf("query chunks of %s: %w", courseID, err)
	}
	out := make([]content.Chunk, 0, len(rows))
	for _, r := range rows {
		c, err := r.chunk()
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, nil
}

// Question returns one question, or ErrNotFound.
func (s *Store) Question(ctx context.Context, id string) (*content.Question, error) {
	var rows []questionRow
	sel := builder().Select(questionColumns...).
		From(builder().Table(QuestionsTable.Name)).
		Where(entsql.EQ("id", id))
	if err := scanAll(ctx, s.drv, sel, &rows); err != nil {
		return nil, fmt.Errorf("query question %s: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("question %s: %w", id, ErrNotFound)
	}
	return rows[0].question()
}

// ChunkPrompts returns up to limit prompts already stored for a chunk,
// newest first.
func (s *Store) ChunkPrompts(ctx context.Context, chunkID string, limit int) ([]string, error) {
	var rows []struct {
		Prompt string `sql:"prompt"`
	}
	sel := builder().Select("prompt").
		From(builder().Table(QuestionsTable.Name)).
		Where(entsql.EQ("chunk_id", chunkID)).
		OrderBy(entsql.Desc("created_at"))
	if limit > 0 {
		sel.Limit(limit)
	}
	if err := scanAll(ctx, s.drv, sel, &rows); err != nil {
		return nil, fmt.Errorf("query prompts of chunk %s: %w", chunkID, err)
	}
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Prompt
	}
	return out, nil
}

// countQuestions counts the spaced-repetition questions of a chunk,
// excluding mock questions and generated follow-ups.
func countQuestions(ctx context.Context, conn dialect.ExecQuerier, chunkID string) (int, error) {
	return scanInt(ctx, conn, builder().Select(entsql.Count("*")).
		From(builder().Table(QuestionsTable.Name)).
		Where(entsql.And(
			entsql.EQ("chunk_id", chunkID),
			entsql.NEQ("usage_type", string(content.UsageMock)),
			entsql.IsNull("parent_question_id"),
		)))
}
