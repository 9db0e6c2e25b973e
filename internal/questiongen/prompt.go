package questiongen

import (
	"fmt"
	"strings"

	"github.com/abhisek/shelf/internal/mastery"
)

const systemPrompt = `You write multiple-choice exam questions from course material.

Rules:
- Write one question answerable from the passage alone. Do not rely on outside knowledge.
- Give exactly five options. Exactly one is correct; the other four are plausible mistakes a student makes with this material.
- Never use "all of the above" or "none of the above".
- Write in the same language as the passage.
- correct_index is the zero-based position of the correct option. Vary it between questions.
- evidence is one sentence copied word for word from the passage that proves the answer.
- The explanation says why the correct option is right and why the most tempting distractor is wrong.
- Match the requested cognitive level:
  knowledge: recall a definition or fact stated in the passage.
  application: use a rule from the passage on a new, concrete case.
  analysis: compare, classify or find the cause behind statements in the passage.
- Do not repeat any question from the "Existing questions" list.`

// levelHints describe each cognitive level in the user message.
var levelHints = map[mastery.BloomLevel]string{
	mastery.BloomKnowledge:   "knowledge (recall)",
	mastery.BloomApplication: "application (use the rule)",
	mastery.BloomAnalysis:    "analysis (compare and reason)",
}

func buildUserMessage(in Input, cfg Config) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Topic: %s\n", in.Chunk.Title)
	fmt.Fprintf(&b, "Cognitive level: %s\n", levelHints[in.Bloom])

	if in.Concept != "" {
		fmt.Fprintf(&b, "Target concept: %s\n", in.Concept)
		if c, ok := in.Chunk.FindConcept(in.Concept); ok && c.Focus != "" {
			fmt.Fprintf(&b, "Concept focus: %s\n", c.Focus)
		}
	} else if len(in.Chunk.ConceptMap) > 0 {
		titles := make([]string, len(in.Chunk.ConceptMap))
		for i, c := range in.Chunk.ConceptMap {
			titles[i] = c.Title
		}
		fmt.Fprintf(&b, "Concepts (pick one): %s\n", strings.Join(titles, "; "))
	}

	if m := in.Missed; m != nil {
		b.WriteString("\nThe student answered this question wrong. Write an easier question on the same concept that builds up to it:\n")
		fmt.Fprintf(&b, "%s\n", m.Prompt)
		for i, opt := range m.Options {
			marker := " "
			if i == m.CorrectIndex {
				marker = "*"
			}
			fmt.Fprintf(&b, "%s %c) %s\n", marker, 'A'+i, opt)
		}
	}

	b.WriteString("\nPassage:\n")
	b.WriteString(strings.TrimSpace(in.Chunk.Content))

	b.WriteString("\n\nExisting questions:\n")
	b.WriteString(buildDedup(in.PriorPrompts, cfg.MaxPriorQuestions))
	return b.String()
}
