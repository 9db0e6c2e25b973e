package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/shelf/internal/app"
	"github.com/abhisek/shelf/internal/cache"
	"github.com/abhisek/shelf/internal/grading"
	"github.com/abhisek/shelf/internal/llm"
	"github.com/abhisek/shelf/internal/questiongen"
	"github.com/abhisek/shelf/internal/screens/play"
	"github.com/abhisek/shelf/internal/session"
	"github.com/abhisek/shelf/internal/store"
)

var playCmd = &cobra.Command{
	Use:   "play [course-id]",
	Short: "Start a practice session",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var courseID string
		if len(args) == 1 {
			courseID = args[0]
		}
		return runPlay(cmd, courseID)
	},
}

// runPlay opens the store, builds the session dependencies, and launches
// the TUI.
func runPlay(cmd *cobra.Command, courseID string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if courseID != "" {
		if _, err := st.Course(ctx, courseID); err != nil {
			return fmt.Errorf("course %s: %w", courseID, err)
		}
	}
	if n, err := st.PurgeExpiredSnapshots(ctx); err != nil {
		logger.Warn("purge expired snapshots failed", "error", err)
	} else if n > 0 {
		logger.Info("purged expired snapshots", "count", n)
	}

	sessCfg, err := sessionConfig()
	if err != nil {
		return err
	}
	grader, err := grading.NewService(st, gradingConfig(), logger)
	if err != nil {
		return fmt.Errorf("build grading service: %w", err)
	}

	var snapshots session.SnapshotStore = st
	if cache.Enabled() {
		rs, err := cache.Dial(ctx, cache.ConfigFromEnv())
		if err != nil {
			logger.Warn("redis unavailable, keeping snapshots in sqlite", "error", err)
		} else {
			defer rs.Close()
			snapshots = rs
		}
	}

	var remediator session.Remediator
	if provider, err := newProvider(ctx, st); err != nil {
		fmt.Fprintln(os.Stderr, "LLM provider not configured:", err)
		fmt.Fprintln(os.Stderr, "Remedial questions will be unavailable.")
	} else {
		gen := questiongen.New(provider, questiongen.DefaultConfig())
		remediator = questiongen.NewRemediator(gen, st, questiongen.DefaultConfig().MaxPriorQuestions, logger)
	}

	user := userID()
	return app.Run(app.Options{
		UserID:   user,
		Catalog:  st,
		CourseID: courseID,
		NewEngine: func(id string) (play.Engine, error) {
			eng, err := session.NewEngine(session.Deps{
				UserID:     user,
				CourseID:   id,
				Repo:       st,
				Submitter:  grader,
				Remediator: remediator,
				Snapshots:  snapshots,
				Logger:     logger,
			}, sessCfg)
			if err != nil {
				return nil, err
			}
			return eng, nil
		},
	})
}

// newProvider builds the LLM provider from SHELF_LLM_* settings, falling
// back to whichever vendor key is present in the environment.
func newProvider(ctx context.Context, st *store.Store) (llm.Provider, error) {
	cfg := llm.ConfigFromEnv()
	if os.Getenv("SHELF_LLM_PROVIDER") == "" {
		if found, ok := llm.DiscoverConfig(); ok {
			cfg = found
		}
	}
	return llm.New(ctx, cfg, st.EventRepo(), logger)
}
