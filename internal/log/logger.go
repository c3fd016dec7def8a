// Package log provides structured logging for codexget.
//
// It defines a small Logger interface backed by the stdlib slog package so
// the pipeline stays testable: components accept a Logger, tests pass a
// noop or buffer-backed one, and main installs the process-wide default.
// All diagnostic output goes to stderr; stdout is reserved for nothing,
// since the tool's product is a file on disk, not text.
package log

import (
	"io"
	"log/slog"
	"sync"
)

// Logger is the interface for structured logging.
// Method signatures match slog for easy interoperation.
type Logger interface {
	// Debug logs internal detail useful only when troubleshooting,
	// such as candidate lists and asset scoring decisions.
	Debug(msg string, args ...any)

	// Info logs operational progress, such as the resolved release tag
	// or the final installed path.
	Info(msg string, args ...any)

	// Warn logs recoverable issues, such as a retried download attempt
	// or a chmod that could not be applied.
	Warn(msg string, args ...any)

	// Error logs failures that terminate the run.
	Error(msg string, args ...any)

	// With returns a Logger carrying additional key-value context on
	// every subsequent entry.
	With(args ...any) Logger
}

type slogLogger struct {
	l *slog.Logger
}

// New creates a Logger backed by slog with the given handler.
func New(h slog.Handler) Logger {
	return &slogLogger{l: slog.New(h)}
}

// NewText creates a Logger writing human-readable lines to w at the given
// minimum level. This is the handler main wires to stderr.
func NewText(w io.Writer, level slog.Level) Logger {
	return New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (s *slogLogger) Debug(msg string, args ...any) {
	s.l.Debug(msg, args...)
}

func (s *slogLogger) Info(msg string, args ...any) {
	s.l.Info(msg, args...)
}

func (s *slogLogger) Warn(msg string, args ...any) {
	s.l.Warn(msg, args...)
}

func (s *slogLogger) Error(msg string, args ...any) {
	s.l.Error(msg, args...)
}

func (s *slogLogger) With(args ...any) Logger {
	return &slogLogger{l: s.l.With(args...)}
}

// noopLogger discards all output.
type noopLogger struct{}

// NewNoop returns a logger that discards everything. Used in tests and as
// the pre-initialization default.
func NewNoop() Logger {
	return noopLogger{}
}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) With(...any) Logger   { return noopLogger{} }

var (
	defaultLogger Logger = noopLogger{}
	defaultMu     sync.RWMutex
)

// Default returns the process-wide logger. It is a noop until SetDefault
// is called.
func Default() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault installs the process-wide logger. Called once from main.
func SetDefault(l Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}
