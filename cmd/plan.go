package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/shelf/internal/distribution"
)

var planCmd = &cobra.Command{
	Use:   "plan <course-id>",
	Short: "Split an exam's question count across a course's chunks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		total, _ := cmd.Flags().GetInt("total")
		importanceFlag, _ := cmd.Flags().GetString("importance")

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()
		course, err := st.Course(ctx, args[0])
		if err != nil {
			return fmt.Errorf("load course: %w", err)
		}
		importance := distribution.ParseImportance(course.Importance)
		if importanceFlag != "" {
			importance = distribution.ParseImportance(importanceFlag)
		}

		chunks, err := st.Chunks(ctx, course.ID)
		if err != nil {
			return fmt.Errorf("load chunks: %w", err)
		}
		metrics, err := st.ChunkMetrics(ctx, userID(), course.ID)
		if err != nil {
			return fmt.Errorf("load chunk metrics: %w", err)
		}
		if len(metrics) == 0 {
			fmt.Println("Course has no chunks.")
			return nil
		}

		titles := make(map[string]string, len(chunks))
		for _, c := range chunks {
			titles[c.ID] = c.Title
		}
		alloc := distribution.Allocate(total, importance, metrics)

		fmt.Printf("%s: %d questions, %s importance\n", course.Name, total, importance)
		fmt.Println(strings.Repeat("─", 72))
		fmt.Printf("%-32s  %8s  %4s  %7s  %9s\n", "Chunk", "Concepts", "Diff", "Mastery", "Questions")
		fmt.Println(strings.Repeat("─", 72))
		for _, m := range metrics {
			label := titles[m.ID]
			if label == "" {
				label = m.ID
			}
			fmt.Printf("%-32s  %8d  %4d  %6.0f%%  %9d\n",
				truncate(label, 32), m.ConceptCount, m.DifficultyIndex, m.MasteryScore, alloc[m.ID])
		}
		return nil
	},
}

func init() {
	planCmd.Flags().IntP("total", "t", 20, "Number of exam questions to distribute")
	planCmd.Flags().StringP("importance", "i", "", "Exam importance: high, medium or low (default: the course's)")
}
