package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("without timestamps", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger := New(Options{Level: slog.LevelInfo, Output: &buf})
		logger.Info("hello", "name", "world")
		logger.Debug("hidden")
		assert.Equal(t, "level=INFO msg=hello name=world\n", buf.String())
	})
	t.Run("with timestamps", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger := New(Options{Level: slog.LevelInfo, Timestamps: true, Output: &buf})
		logger.Warn("careful")
		assert.Contains(t, buf.String(), "time=")
		assert.Contains(t, buf.String(), "level=WARN msg=careful")
	})
	t.Run("quiet", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger := New(Options{Level: LevelQuiet, Output: &buf})
		logger.Error("nope")
		assert.Empty(t, buf.String())
	})
	t.Run("debug adds source", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger := New(Options{Level: slog.LevelDebug, Output: &buf})
		logger.Debug("detail")
		assert.Contains(t, buf.String(), "source=")
		assert.Contains(t, buf.String(), "msg=detail")
	})
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"Warning", slog.LevelWarn},
		{"warn", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"quiet", LevelQuiet},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	_, err := ParseLevel("loud")
	require.Error(t, err)
	assert.Equal(t, `unknown log level "loud"`, err.Error())
}

func TestLevelFromEnv(t *testing.T) {
	t.Setenv("SIGCLI_TEST_LEVEL", "debug")
	assert.Equal(t, slog.LevelDebug, LevelFromEnv("SIGCLI_TEST_LEVEL", slog.LevelInfo))

	t.Setenv("SIGCLI_TEST_LEVEL", "bogus")
	assert.Equal(t, slog.LevelWarn, LevelFromEnv("SIGCLI_TEST_LEVEL", slog.LevelWarn))

	assert.Equal(t, slog.LevelError, LevelFromEnv("SIGCLI_TEST_LEVEL_UNSET", slog.LevelError))
}
