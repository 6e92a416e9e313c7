package logger

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ConsoleTimeFormat is the timestamp layout of console lines, in local time.
const ConsoleTimeFormat = "2006-01-02 15:04:05"

// consoleLogger renders "<timestamp>: <message> key=value..." lines via zerolog.
type consoleLogger struct {
	zl zerolog.Logger
}

func newConsole(level string, w io.Writer) Logger {
	cw := zerolog.ConsoleWriter{
		Out:             w,
		NoColor:         true,
		PartsOrder:      []string{zerolog.TimestampFieldName, zerolog.MessageFieldName},
		FormatTimestamp: formatConsoleTimestamp,
	}

	zl := zerolog.New(cw).
		Level(parseZerologLevel(level)).
		With().
		Timestamp().
		Logger()

	return &consoleLogger{zl: zl}
}

// formatConsoleTimestamp converts zerolog's RFC 3339 field into local time.
func formatConsoleTimestamp(i interface{}) string {
	s, ok := i.(string)
	if !ok {
		return fmt.Sprintf("%v:", i)
	}

	ts, err := time.Parse(zerolog.TimeFieldFormat, s)
	if err != nil {
		return s + ":"
	}

	return ts.Local().Format(ConsoleTimeFormat) + ":"
}

// Debug implements Logger.Debug.
func (l *consoleLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.zl.Debug().Fields(keysAndValues).Msg(msg)
}

// Info implements Logger.Info.
func (l *consoleLogger) Info(msg string, keysAndValues ...interface{}) {
	l.zl.Info().Fields(keysAndValues).Msg(msg)
}

// Warn implements Logger.Warn.
func (l *consoleLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.zl.Warn().Fields(keysAndValues).Msg(msg)
}

// Error implements Logger.Error.
func (l *consoleLogger) Error(msg string, keysAndValues ...interface{}) {
	l.zl.Error().Fields(keysAndValues).Msg(msg)
}

// With implements Logger.With.
func (l *consoleLogger) With(keysAndValues ...interface{}) Logger {
	return &consoleLogger{
		zl: l.zl.With().Fields(keysAndValues).Logger(),
	}
}

func parseZerologLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
