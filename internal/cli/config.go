package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds settings read from the environment. Command-line flags
// override every field.
type Config struct {
	DB       string `env:"JOE_DB"        envDefault:"joe.db"`
	Schemas  string `env:"JOE_SCHEMAS"`
	LogLevel string `env:"JOE_LOG_LEVEL" envDefault:"warn"`
	Format   string `env:"JOE_FORMAT"    envDefault:"text"`
}

// ParseConfig loads configuration from environment variables.
func ParseConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// parseLevel maps a level name to a slog level.
func parseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning", "":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", name)
}

// newLogger builds the command logger. Logs always go to stderr so they
// never corrupt JSON output; --verbose lowers the level to debug.
func newLogger(opts *RootOptions) *slog.Logger {
	level, err := parseLevel(opts.LogLevel)
	if err != nil {
		level = slog.LevelWarn
	}
	if opts.Verbose {
		level = slog.LevelDebug
	}
	w := opts.errWriter
	if w == nil {
		w = os.Stderr
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
