package logging

import (
	"log/slog"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNewStandardLogger(t *testing.T) {
	logger := NewStandardLogger("info")
	assert.NotNil(t, logger)
	assert.NotNil(t, logger.Logger())
}

func TestStandardLoggerContextHelpers(t *testing.T) {
	logger := NewStandardLogger("debug")

	assert.NotNil(t, logger.WithComponent("pipeline"))
	assert.NotNil(t, logger.WithRequestID("req-1"))
	assert.NotNil(t, logger.WithError(assert.AnError))
}

func TestGetSlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, getSlogLevel(tt.level), "level %q", tt.level)
	}
}

func TestParseLogrusLevel(t *testing.T) {
	tests := []struct {
		level string
		want  logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"warn", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"anything", logrus.InfoLevel},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLogrusLevel(tt.level), "level %q", tt.level)
	}
}

func TestNewLogrusLogger(t *testing.T) {
	logger := NewLogrusLogger("warn")
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)
}
