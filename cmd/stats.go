package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/shelf/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats [course-id]",
	Short: "Show learning statistics",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()
		var courses []store.CourseInfo
		if len(args) == 1 {
			c, err := st.Course(ctx, args[0])
			if err != nil {
				return fmt.Errorf("load course: %w", err)
			}
			courses = append(courses, *c)
		} else if courses, err = st.Courses(ctx); err != nil {
			return fmt.Errorf("list courses: %w", err)
		}

		if len(courses) == 0 {
			fmt.Println("No courses yet. Add one with: shelf import <bundle.json>")
			return nil
		}

		user := userID()
		fmt.Printf("Learner: %s\n", user)
		fmt.Println(strings.Repeat("─", 72))
		fmt.Printf("%-28s  %8s  %7s  %7s  %7s  %s\n", "Course", "Solved", "Mastery", "Pending", "Quota", "Mode")
		fmt.Println(strings.Repeat("─", 72))
		for _, c := range courses {
			stats, err := st.CourseStats(ctx, user, c.ID)
			if err != nil {
				return fmt.Errorf("course %s stats: %w", c.ID, err)
			}
			quota, err := st.QuotaInfo(ctx, user, c.ID)
			if err != nil {
				return fmt.Errorf("course %s quota: %w", c.ID, err)
			}
			mode := "review"
			if quota.IsMaintenanceMode {
				mode = "maintenance"
			}
			name := c.Name
			if name == "" {
				name = c.ID
			}
			fmt.Printf("%-28s  %8d  %6.0f%%  %7d  %7d  %s\n",
				truncate(name, 28), stats.TotalQuestionsSolved, stats.AverageMastery,
				quota.PendingReviewCount, quota.ReviewQuota, mode)
		}
		return nil
	},
}
