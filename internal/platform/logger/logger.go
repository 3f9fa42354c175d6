// Package logger provides structured logging for the hospital simulator.
// Every admission, treatment and discharge should be traceable through this.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps a zerolog.Logger with the small API the engine systems use.
type Logger struct {
	zl zerolog.Logger
}

// Options controls how a Logger renders its output.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // console or json
	Out    io.Writer
}

// NewLogger creates a console logger at info level writing to stdout.
func NewLogger() *Logger {
	return New(Options{Level: "info", Format: "console", Out: os.Stdout})
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// New creates a logger from explicit options.
func New(opts Options) *Logger {
	dst := opts.Out
	if dst == nil {
		dst = os.Stdout
	}

	out := dst
	if !strings.EqualFold(opts.Format, "json") {
		out = zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
			w.Out = dst
			w.TimeFormat = time.TimeOnly
		})
	}

	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}

	zl := zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		CallerWithSkipFrameCount(3).
		Logger()

	return &Logger{zl: zl}
}

// With returns a child logger carrying an extra field on every line.
func (l *Logger) With(key string, value any) *Logger {
	return &Logger{zl: l.zl.With().Interface(key, value).Logger()}
}

// Debug logs verbose diagnostics.
func (l *Logger) Debug(msg string) {
	l.zl.Debug().Msg(msg)
}

// Info logs informational messages.
func (l *Logger) Info(msg string) {
	l.zl.Info().Msg(msg)
}

// Warn logs warning messages.
func (l *Logger) Warn(msg string) {
	l.zl.Warn().Msg(msg)
}

// Error logs error messages.
func (l *Logger) Error(msg string) {
	l.zl.Error().Msg(msg)
}

// Err logs msg at error level with err attached.
func (l *Logger) Err(err error, msg string) {
	l.zl.Error().Err(err).Msg(msg)
}

// Event logs a hospital event for the ward journal.
func (l *Logger) Event(eventType string, actorID string, details string) {
	l.zl.Info().
		Str("event", eventType).
		Str("actor", actorID).
		Msg(details)
}
