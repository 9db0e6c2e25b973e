package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/abhisek/shelf/internal/grading"
	"github.com/abhisek/shelf/internal/session"
)

const defaultUser = "local"

// Settings keys. Each is also readable as SHELF_<KEY> with dashes and dots
// replaced by underscores.
const (
	keyDB          = "db"
	keyUser        = "user"
	keyLogLevel    = "log-level"
	keyStrategy    = "grading.strategy"
	keyBatchSize   = "session.batch-size"
	keyReviewLimit = "session.review-limit"
	keySnapshotTTL = "session.snapshot-ttl"
)

// settings layers flags over SHELF_* env vars over the config file.
var settings = viper.New()

var logger = slog.Default()

func loadSettings(cmd *cobra.Command) error {
	settings.SetEnvPrefix("SHELF")
	settings.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	settings.AutomaticEnv()

	for _, name := range []string{keyDB, keyUser, keyLogLevel} {
		if err := settings.BindPFlag(name, cmd.Root().PersistentFlags().Lookup(name)); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}

	defaults := session.DefaultConfig()
	settings.SetDefault(keyUser, defaultUser)
	settings.SetDefault(keyLogLevel, "warn")
	settings.SetDefault(keyStrategy, grading.DefaultConfig().Strategy)
	settings.SetDefault(keyBatchSize, defaults.BatchSize)
	settings.SetDefault(keyReviewLimit, defaults.ReviewLimit)
	settings.SetDefault(keySnapshotTTL, defaults.SnapshotTTL)

	if err := readConfigFile(cmd); err != nil {
		return err
	}

	logger = newLogger(settings.GetString(keyLogLevel))
	slog.SetDefault(logger)
	return nil
}

func readConfigFile(cmd *cobra.Command) error {
	if path, _ := cmd.Root().PersistentFlags().GetString("config"); path != "" {
		settings.SetConfigFile(path)
		if err := settings.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		return nil
	}

	dir, err := configDir()
	if err != nil {
		return nil
	}
	settings.SetConfigName("config")
	settings.SetConfigType("yaml")
	settings.AddConfigPath(dir)

	var notFound viper.ConfigFileNotFoundError
	if err := settings.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// configDir is $XDG_CONFIG_HOME/shelf, falling back to ~/.config/shelf.
func configDir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "shelf"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "shelf"), nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func userID() string {
	if u := strings.TrimSpace(settings.GetString(keyUser)); u != "" {
		return u
	}
	return defaultUser
}

func sessionConfig() (session.Config, error) {
	cfg := session.DefaultConfig()
	cfg.BatchSize = settings.GetInt(keyBatchSize)
	cfg.ReviewLimit = settings.GetInt(keyReviewLimit)
	cfg.SnapshotTTL = settings.GetDuration(keySnapshotTTL)
	if err := cfg.Validate(); err != nil {
		return session.Config{}, fmt.Errorf("session settings: %w", err)
	}
	return cfg, nil
}

func gradingConfig() grading.Config {
	cfg := grading.DefaultConfig()
	cfg.Strategy = settings.GetString(keyStrategy)
	return cfg
}
