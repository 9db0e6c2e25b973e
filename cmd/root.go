package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/shelf/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "shelf",
	Short: "Spaced-repetition quiz trainer",
	Long:  "Shelf schedules quiz questions across sessions and tracks mastery per chunk of course material.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadSettings(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlay(cmd, "")
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("db", "", "Path to SQLite database file (overrides SHELF_DB env var)")
	flags.String("user", defaultUser, "Learner id that progress is recorded under")
	flags.String("log-level", "warn", "Log level: debug, info, warn or error")
	flags.String("config", "", "Config file (default $XDG_CONFIG_HOME/shelf/config.yaml)")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path from --db or the config file,
// then SHELF_DB, then the default XDG path.
func resolveDBPath() (string, error) {
	if p := settings.GetString(keyDB); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

func openStore() (*store.Store, error) {
	dbPath, err := resolveDBPath()
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}
