// Package logging builds the leveled text loggers used by the command runtime.
//
// Loggers write to stderr by default. The level comes from the command line (quiet, normal or
// debug) and may be seeded from an environment variable before the command line is parsed:
//
//	level := logging.LevelFromEnv(logging.EnvLevel, slog.LevelInfo)
//	logger := logging.New(logging.Options{Level: level, Timestamps: true})
//	logger.Info("running", "args", args)
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// EnvLevel is the environment variable consulted by [LevelFromEnv] in the default runtime.
const EnvLevel = "SIGCLI_LOG_LEVEL"

// LevelQuiet is above every level slog emits, so a logger at LevelQuiet is silent.
const LevelQuiet = slog.LevelError + 4

// Options configures [New].
type Options struct {
	// Level is the minimum level written.
	Level slog.Leveler
	// Timestamps adds the time attribute to each record.
	Timestamps bool
	// Output defaults to os.Stderr.
	Output io.Writer
}

// New returns a text logger for opts.
func New(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	level := opts.Level
	if level == nil {
		level = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level.Level() <= slog.LevelDebug,
	}
	if !opts.Timestamps {
		handlerOpts.ReplaceAttr = dropTime
	}
	return slog.New(slog.NewTextHandler(out, handlerOpts))
}

func dropTime(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.TimeKey {
		return slog.Attr{}
	}
	return a
}

// ParseLevel parses a level name, case-insensitively. "warning" is accepted for warn and "quiet"
// for [LevelQuiet].
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	case "quiet":
		return LevelQuiet, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// LevelFromEnv returns the level named by the environment variable key, or fallback when it is
// unset or invalid.
func LevelFromEnv(key string, fallback slog.Level) slog.Level {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	level, err := ParseLevel(v)
	if err != nil {
		return fallback
	}
	return level
}
