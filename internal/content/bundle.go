package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Course is the top-level container of chunks.
type Course struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Importance weighs the course in exam planning: high, medium or low.
	Importance string `json:"importance,omitempty"`
}

// Bundle is an importable set of course material.
type Bundle struct {
	Course    Course     `json:"course"`
	Chunks    []Chunk    `json:"chunks"`
	Questions []Question `json:"questions"`
}

// ReadBundle decodes a JSON bundle and fills in course ids the file
// leaves implicit.
func ReadBundle(r io.Reader) (*Bundle, error) {
	var b Bundle
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&b); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	for i := range b.Chunks {
		if b.Chunks[i].CourseID == "" {
			b.Chunks[i].CourseID = b.Course.ID
		}
	}
	for i := range b.Questions {
		q := &b.Questions[i]
		if q.CourseID == "" {
			q.CourseID = b.Course.ID
		}
		q.Usage = ParseUsageType(string(q.Usage))
	}
	return &b, b.Validate()
}

// Validate checks ids and references across the bundle.
func (b *Bundle) Validate() error {
	if strings.TrimSpace(b.Course.ID) == "" {
		return errors.New("course id is required")
	}
	chunks := make(map[string]bool, len(b.Chunks))
	for _, c := range b.Chunks {
		if c.ID == "" {
			return errors.New("chunk id is required")
		}
		if c.CourseID != b.Course.ID {
			return fmt.Errorf("chunk %s belongs to course %s, not %s", c.ID, c.CourseID, b.Course.ID)
		}
		chunks[c.ID] = true
	}

	var errs []error
	for _, q := range b.Questions {
		if err := q.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if q.ChunkID != "" && !chunks[q.ChunkID] {
			errs = append(errs, fmt.Errorf("question %s: unknown chunk %s", q.ID, q.ChunkID))
		}
	}
	return errors.Join(errs...)
}

// Validate checks that q can be shown and graded.
func (q Question) Validate() error {
	switch {
	case q.ID == "":
		return errors.New("question id is required")
	case strings.TrimSpace(q.Prompt) == "":
		return fmt.Errorf("question %s: empty prompt", q.ID)
	case len(q.Options) != OptionCount:
		return fmt.Errorf("question %s: has %d options, want %d", q.ID, len(q.Options), OptionCount)
	case q.CorrectIndex < 0 || q.CorrectIndex >= OptionCount:
		return fmt.Errorf("question %s: correct index %d out of range", q.ID, q.CorrectIndex)
	}
	for i, o := range q.Options {
		if strings.TrimSpace(o) == "" {
			return fmt.Errorf("question %s: option %d is empty", q.ID, i)
		}
	}
	return nil
}
