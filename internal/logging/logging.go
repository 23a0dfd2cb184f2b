// Package logging builds the structured logger shared by the CLI and the
// extraction pipeline.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Level is a logging level name as it appears in configuration.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Format is the log output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Config holds the logger settings.
type Config struct {
	Level  Level
	Format Format
	Output io.Writer
}

// DefaultConfig logs info and above as text to stderr, leaving stdout to
// command output.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Format: FormatText,
		Output: os.Stderr,
	}
}

// New creates a logger from cfg. Unknown levels fall back to info and
// unknown formats to text.
func New(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	switch Format(strings.ToLower(string(cfg.Format))) {
	case FormatJSON:
		handler = slog.NewJSONHandler(out, opts)
	default:
		handler = slog.NewTextHandler(out, opts)
	}
	return slog.New(handler)
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// ParseLevel converts a level name to a slog.Level.
func ParseLevel(level Level) slog.Level {
	switch Level(strings.ToLower(string(level))) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ValidLevel reports whether level names a known level.
func ValidLevel(level Level) bool {
	switch Level(strings.ToLower(string(level))) {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
		return true
	}
	return false
}
