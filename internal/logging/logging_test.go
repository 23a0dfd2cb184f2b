package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for logging:
// - ParseLevel maps names case-insensitively and defaults to info
// - New honours the level threshold
// - New writes JSON when asked and text otherwise
// - Discard drops errors too

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   Level
		want slog.Level
	}{
		{LevelDebug, slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{LevelWarn, slog.LevelWarn},
		{"Error", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}

	assert.True(t, ValidLevel("WARN"))
	assert.False(t, ValidLevel("verbose"))
}

func TestNew_LevelThreshold(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(Config{Level: LevelWarn, Format: FormatText, Output: &buf})

	logger.Info("hidden")
	logger.Warn("shown", "id", "P.C")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
	assert.Contains(t, buf.String(), "id=P.C")
}

func TestNew_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	New(Config{Level: LevelInfo, Format: FormatJSON, Output: &buf}).Info("annotation", "annotation", "p.Mark")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "annotation", entry["msg"])
	assert.Equal(t, "p.Mark", entry["annotation"])
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	assert.False(t, Discard().Enabled(context.Background(), slog.LevelError))
}
