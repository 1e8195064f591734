// Package logger wraps log/slog with a package-level configurable
// level and format, the way the donor's internal/logger package does
// for its own daemon. This module is an embeddable library, not a
// daemon, so the terminal-color and file-rotation handling the donor
// carries is not needed here — only level/format configuration and a
// context-carried logger survive the trim.
package logger

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
)

// Level mirrors slog's levels under names the rest of this module
// uses, avoiding an slog import at every call site.
type Level = slog.Level

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

var currentLevel atomic.Int64

func init() {
	currentLevel.Store(int64(LevelInfo))
}

// SetLevel adjusts the minimum level logged by loggers created after
// this call (and, because the handler reads the atomic, by loggers
// already created via New).
func SetLevel(l Level) {
	currentLevel.Store(int64(l))
}

// ParseLevel maps a config-file level name ("DEBUG"/"INFO"/"WARN"/
// "ERROR", case-insensitive) to a Level, defaulting to LevelInfo for
// anything unrecognized rather than failing config load over a typo.
func ParseLevel(name string) Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(name)); err != nil {
		return LevelInfo
	}
	return l
}

type levelVar struct{}

func (levelVar) Level() slog.Level {
	return slog.Level(currentLevel.Load())
}

// New returns an slog.Logger writing to os.Stderr in text format at
// the package's current level, matching the donor's default handler
// configuration.
func New() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: levelVar{}}))
}

// NewJSON returns an slog.Logger writing structured JSON, for
// deployments that ship logs to a collector.
func NewJSON() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: levelVar{}}))
}

type contextKey struct{}

// WithContext attaches a logger to ctx for retrieval by From.
func WithContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// From returns the logger attached to ctx, or the package default if
// none was attached.
func From(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(contextKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return New()
}

// Repo returns a logger with repository-identity fields attached, the
// way the donor's internal/logger/fields.go attaches connection
// identity to every log line for a session.
func Repo(l *slog.Logger, root string) *slog.Logger {
	return l.With(slog.String("root", root))
}

// Resource extends a repository logger with resource identity.
func Resource(l *slog.Logger, iri string) *slog.Logger {
	return l.With(slog.String("iri", iri))
}
