package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{
		Level:  slog.LevelInfo,
		Format: FormatJSON,
		Writer: &buf,
	})

	logger.Info("test message", "key", "value")

	out := buf.String()
	assert.Contains(t, out, `"msg":"test message"`)
	assert.Contains(t, out, `"level":"INFO"`)
	assert.Contains(t, out, `"key":"value"`)
}

func TestNew_PrettyFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{
		Level:  slog.LevelInfo,
		Format: FormatPretty,
		Writer: &buf,
	})

	logger.Info("test message", "key", "value")

	out := buf.String()
	assert.Contains(t, out, "test message")
	assert.Contains(t, out, "INF")
	assert.Contains(t, out, "key=value")
	assert.NotContains(t, out, `"msg"`)
}

func TestNew_UnknownFormatFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "xml", Writer: &buf})

	logger.Info("hello")

	assert.Contains(t, buf.String(), `"msg":"hello"`)
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{
		Level:  slog.LevelWarn,
		Format: FormatJSON,
		Writer: &buf,
	})

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "error message")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"DEBUG", slog.LevelDebug},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestPrettyHandler_Enabled(t *testing.T) {
	h := NewPrettyHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn})

	ctx := context.Background()
	assert.False(t, h.Enabled(ctx, slog.LevelDebug))
	assert.False(t, h.Enabled(ctx, slog.LevelInfo))
	assert.True(t, h.Enabled(ctx, slog.LevelWarn))
	assert.True(t, h.Enabled(ctx, slog.LevelError))
}

func TestPrettyHandler_NilOptsDefaultsToInfo(t *testing.T) {
	h := NewPrettyHandler(&bytes.Buffer{}, nil)

	ctx := context.Background()
	assert.False(t, h.Enabled(ctx, slog.LevelDebug))
	assert.True(t, h.Enabled(ctx, slog.LevelInfo))
}

func TestPrettyHandler_LevelLabels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger.Debug("a")
	logger.Info("b")
	logger.Warn("c")
	logger.Error("d")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "DBG")
	assert.Contains(t, lines[1], "INF")
	assert.Contains(t, lines[2], "WRN")
	assert.Contains(t, lines[3], "ERR")
}

func TestPrettyHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewPrettyHandler(&buf, nil))

	logger.With("component", "scanner").Info("scan started", "sets", 12)

	out := buf.String()
	assert.Contains(t, out, "component=scanner")
	assert.Contains(t, out, "sets=12")
}

func TestPrettyHandler_WithAttrsDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(NewPrettyHandler(&buf, nil))

	child := base.With("component", "watcher")
	child.Info("child line")
	base.Info("base line")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "component=watcher")
	assert.NotContains(t, lines[1], "component=watcher")
}

func TestPrettyHandler_SourceLocation(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewPrettyHandler(&buf, &slog.HandlerOptions{AddSource: true}))

	logger.Info("located")

	assert.Contains(t, buf.String(), "logger_test.go:")
}
