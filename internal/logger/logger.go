// Package logger is a small structured-logging facade over charmbracelet/log.
// Library packages stay silent; the CLI layer logs through this facade so
// diagnostics never mix into command output.
package logger

import (
	"io"

	charmlog "github.com/charmbracelet/log"
)

// Logger defines the interface for structured logging.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
}

type charmLogger struct {
	l *charmlog.Logger
}

func (c *charmLogger) Debug(msg string, keyvals ...any) { c.l.Debug(msg, keyvals...) }
func (c *charmLogger) Info(msg string, keyvals ...any)  { c.l.Info(msg, keyvals...) }
func (c *charmLogger) Warn(msg string, keyvals ...any)  { c.l.Warn(msg, keyvals...) }
func (c *charmLogger) Error(msg string, keyvals ...any) { c.l.Error(msg, keyvals...) }

// New creates a logger writing to w at the given level ("debug", "info",
// "warn", "error"; anything else falls back to info).
func New(w io.Writer, level string) Logger {
	l := charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: false,
		Level:           parseLevel(level),
	})
	return &charmLogger{l: l}
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return &charmLogger{l: charmlog.NewWithOptions(io.Discard, charmlog.Options{Level: charmlog.FatalLevel})}
}

func parseLevel(level string) charmlog.Level {
	switch level {
	case "debug":
		return charmlog.DebugLevel
	case "warn":
		return charmlog.WarnLevel
	case "error":
		return charmlog.ErrorLevel
	default:
		return charmlog.InfoLevel
	}
}
