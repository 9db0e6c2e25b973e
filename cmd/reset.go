package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/shelf/internal/cache"
)

var resetCmd = &cobra.Command{
	Use:   "reset <course-id>",
	Short: "Reset learner progress for a course",
	Long:  "Reset deletes the learner's question statuses, chunk mastery, answers, session counter and saved session for a course. Course content is kept.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")

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
		user := userID()

		if !yes {
			fmt.Printf("Reset all progress of %q in %q? [y/N] ", user, course.Name)
			answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
				fmt.Println("Aborted.")
				return nil
			}
		}

		if err := st.ResetProgress(ctx, user, course.ID); err != nil {
			return fmt.Errorf("reset progress: %w", err)
		}
		if cache.Enabled() {
			rs, err := cache.Dial(ctx, cache.ConfigFromEnv())
			if err != nil {
				logger.Warn("redis unavailable, cached session not cleared", "error", err)
			} else {
				defer rs.Close()
				if err := rs.ClearSnapshot(ctx, user, course.ID); err != nil {
					logger.Warn("clear cached session failed", "error", err)
				}
			}
		}
		fmt.Printf("Progress reset for %s.\n", course.Name)
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
}
