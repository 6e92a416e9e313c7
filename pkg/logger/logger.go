// Package logger provides leveled logging for runonchange.
//
// Three output formats are supported. The console format (the CLI default)
// prints one line per message prefixed with a local-time timestamp, e.g.
//
//	2024-05-01 13:37:00: File change detected
//
// The text and json formats emit slog records and are meant for diagnostics
// written to a file.
//
// Example usage:
//
//	log := logger.New(logger.Config{
//	    Level:  "info",
//	    Output: "stdout",
//	    Format: "console",
//	})
//	log.Info("Watching ./src")
//	log.Debug("signal failed", "pid", 4242, "error", err)
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger provides structured logging with levels and fields.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs.
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an informational message with optional key-value pairs.
	Info(msg string, keysAndValues ...interface{})

	// Warn logs a warning message with optional key-value pairs.
	Warn(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs.
	Error(msg string, keysAndValues ...interface{})

	// With returns a new logger with additional context fields.
	With(keysAndValues ...interface{}) Logger
}

// Config contains logger configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string

	// Output is the destination (stdout, stderr, or file path).
	Output string

	// Format is the output format (console, text, json).
	Format string
}

// Supported formats.
const (
	FormatConsole = "console"
	FormatText    = "text"
	FormatJSON    = "json"
)

// logger implements the Logger interface using slog.
type logger struct {
	slogger *slog.Logger
}

// New creates a new logger with the given configuration.
//
// If the output cannot be opened, the logger falls back to stderr.
func New(cfg Config) Logger {
	writer, err := getWriter(cfg.Output)
	if err != nil {
		writer = os.Stderr
	}

	return NewWithWriter(cfg, writer)
}

// NewWithWriter creates a logger that writes to w, ignoring cfg.Output.
func NewWithWriter(cfg Config, w io.Writer) Logger {
	if strings.ToLower(cfg.Format) == FormatConsole {
		return newConsole(cfg.Level, w)
	}

	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	return &logger{
		slogger: slog.New(handler),
	}
}

// Debug implements Logger.Debug.
func (l *logger) Debug(msg string, keysAndValues ...interface{}) {
	l.slogger.Debug(msg, keysAndValues...)
}

// Info implements Logger.Info.
func (l *logger) Info(msg string, keysAndValues ...interface{}) {
	l.slogger.Info(msg, keysAndValues...)
}

// Warn implements Logger.Warn.
func (l *logger) Warn(msg string, keysAndValues ...interface{}) {
	l.slogger.Warn(msg, keysAndValues...)
}

// Error implements Logger.Error.
func (l *logger) Error(msg string, keysAndValues ...interface{}) {
	l.slogger.Error(msg, keysAndValues...)
}

// With implements Logger.With.
func (l *logger) With(keysAndValues ...interface{}) Logger {
	return &logger{
		slogger: l.slogger.With(keysAndValues...),
	}
}

// parseLevel converts a string log level to slog.Level.
// Unrecognized levels map to info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// getWriter returns an io.Writer for the given output destination.
//
// Supported destinations:
//   - "stdout": Standard output
//   - "stderr": Standard error (default)
//   - file path: Opens file for appending (creates if not exists)
func getWriter(output string) (io.Writer, error) {
	switch strings.ToLower(output) {
	case "stdout":
		return os.Stdout, nil
	case "stderr", "":
		return os.Stderr, nil
	default:
		// #nosec G304: output path comes from the command line
		f, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600) // nolint:gosec
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", output, err)
		}
		return f, nil
	}
}

// Default returns the console logger the CLI uses: info level on stdout.
func Default() Logger {
	return New(Config{
		Level:  "info",
		Output: "stdout",
		Format: FormatConsole,
	})
}

// Noop returns a logger that discards all log messages.
func Noop() Logger {
	return &logger{
		slogger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}
