// Package log provides structured logging for tidying operations.
//
// The package defines a minimal, slog-compatible logging interface plus
// standard attribute keys for tidier diagnostics (operation, model kind,
// output shape). The interface is backend-agnostic: the default setup wires
// slog's JSON handler, and zerolog or any other slog-compatible backend can
// be substituted without touching call sites.
package log

import (
	"context"
)

// Logger is a structured logging interface compatible with Go's log/slog.
// Fields are alternating key/value pairs, as in slog.
type Logger interface {
	// Debug logs detailed diagnostic information.
	Debug(msg string, fields ...any)

	// Info logs general operational information.
	Info(msg string, fields ...any)

	// Warn logs non-fatal conditions, including tidier warnings
	// (deprecated options, no-op transforms, omitted diagnostics).
	Warn(msg string, fields ...any)

	// Error logs failure conditions. If a field value is an error produced
	// by pkg/errors, the handler attaches its stack trace.
	Error(msg string, fields ...any)

	// With returns a Logger with the given fields pre-populated.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits records at the given level.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, value-compatible with slog.Level.
type Level int

// Standard logging levels.
const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
