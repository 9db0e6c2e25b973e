package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/shelf/internal/content"
	"github.com/abhisek/shelf/internal/llm"
	"github.com/abhisek/shelf/internal/mastery"
	"github.com/abhisek/shelf/internal/questiongen"
)

var generateCmd = &cobra.Command{
	Use:   "generate <chunk-id>",
	Short: "Generate new questions for a chunk with the configured LLM",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		count, _ := cmd.Flags().GetInt("count")
		bloom, _ := cmd.Flags().GetString("bloom")
		usage, _ := cmd.Flags().GetString("usage")
		concept, _ := cmd.Flags().GetString("concept")

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := llm.WithPurpose(cmd.Context(), llm.PurposeGenerate)
		chunk, err := st.Chunk(ctx, args[0])
		if err != nil {
			return fmt.Errorf("load chunk: %w", err)
		}

		provider, err := newProvider(ctx, st)
		if err != nil {
			return fmt.Errorf("build LLM provider: %w", err)
		}
		cfg := questiongen.DefaultConfig()
		gen := questiongen.New(provider, cfg)

		prior, err := st.ChunkPrompts(ctx, chunk.ID, cfg.MaxPriorQuestions)
		if err != nil {
			return fmt.Errorf("load prior questions: %w", err)
		}

		var saved int
		for i := 0; i < count; i++ {
			q, err := gen.Generate(ctx, questiongen.Input{
				Chunk:        *chunk,
				Concept:      concept,
				Bloom:        mastery.ParseBloomLevel(bloom),
				Usage:        content.ParseUsageType(usage),
				PriorPrompts: prior,
			})
			if err != nil {
				logger.Warn("generate question failed", "chunk_id", chunk.ID, "error", err)
				fmt.Printf("  %d. failed: %v\n", i+1, err)
				continue
			}
			q.CourseID, q.ChunkID = chunk.CourseID, chunk.ID
			if err := st.SaveQuestion(ctx, *q); err != nil {
				return fmt.Errorf("save question: %w", err)
			}
			saved++
			prior = append([]string{q.Prompt}, prior...)
			fmt.Printf("  %d. [%s] %s\n", i+1, q.Concept, truncate(q.Prompt, 64))
		}

		fmt.Printf("Saved %d of %d questions for %s.\n", saved, count, chunk.Title)
		return nil
	},
}

func init() {
	generateCmd.Flags().IntP("count", "n", 3, "Number of questions to generate")
	generateCmd.Flags().String("bloom", string(mastery.BloomKnowledge), "Bloom level: knowledge, application or analysis")
	generateCmd.Flags().String("usage", string(content.UsageTraining), "Usage type: antrenman, arsiv or deneme")
	generateCmd.Flags().String("concept", "", "Concept title to focus on")
}
