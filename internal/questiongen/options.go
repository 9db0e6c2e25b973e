package questiongen

import (
	"strings"

	"github.com/abhisek/shelf/internal/content"
)

const maxOptionLen = 200

// catchAll options make the answer key ambiguous.
var catchAll = []string{
	"all of the above",
	"none of the above",
	"hepsi",
	"hiçbiri",
}

// OptionsValidator requires five distinct, non-blank, self-contained options.
type OptionsValidator struct{}

func (v *OptionsValidator) Name() string { return "options" }

func (v *OptionsValidator) Validate(q *content.Question, _ Input) *ValidationError {
	seen := make(map[string]int, len(q.Options))
	for i, opt := range q.Options {
		norm := normalize(opt)
		if norm == "" {
			return reject(v, true, "option %d is blank", i)
		}
		if len(opt) > maxOptionLen {
			return reject(v, true, "option %d exceeds %d characters", i, maxOptionLen)
		}
		if j, dup := seen[norm]; dup {
			return reject(v, true, "options %d and %d are the same", j, i)
		}
		seen[norm] = i
		for _, bad := range catchAll {
			if norm == bad {
				return reject(v, true, "option %d is a catch-all %q", i, opt)
			}
		}
	}
	return nil
}

// normalize lowercases s, collapses whitespace and drops trailing
// punctuation so near-identical strings compare equal.
func normalize(s string) string {
	s = strings.Join(strings.Fields(strings.ToLower(s)), " ")
	return strings.TrimRight(s, ".!?;:")
}
