// Package logging provides the structured logger used across the engine.
// Built on log/slog with a thin wrapper so call sites can attach run and
// trip context without threading slog attrs everywhere.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config holds logger settings, normally sourced from pkg/config.
type Config struct {
	Level  string // trace-ish levels map onto slog: debug, info, warn, error
	Format string // "json" or "text"
	Output io.Writer
}

// DefaultConfig returns production-leaning defaults.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "json", Output: os.Stdout}
}

// Logger wraps slog.Logger with engine-specific helpers.
type Logger struct {
	s *slog.Logger
}

// New creates a logger from config. Unknown levels fall back to info.
func New(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if strings.ToLower(cfg.Format) == "text" {
		h = slog.NewTextHandler(out, opts)
	} else {
		h = slog.NewJSONHandler(out, opts)
	}
	return &Logger{s: slog.New(h)}
}

// Component returns a child logger tagged with a component name.
func (l *Logger) Component(name string) *Logger {
	return &Logger{s: l.s.With("component", name)}
}

// WithRun returns a child logger tagged with a run ID.
func (l *Logger) WithRun(runID string) *Logger {
	return &Logger{s: l.s.With("run_id", runID)}
}

// WithTrip returns a child logger tagged with a trip ID.
func (l *Logger) WithTrip(tripID int64) *Logger {
	return &Logger{s: l.s.With("trip_id", tripID)}
}

func (l *Logger) Debug(msg string, args ...any) { l.s.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.s.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.s.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.s.Error(msg, args...) }
