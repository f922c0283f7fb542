package logger

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	defaultLogger *slog.Logger
	once          sync.Once
)

// Init initializes the global logger on stdout.
// debug enables debug level logging with source locations.
func Init(debug bool) {
	once.Do(func() {
		defaultLogger = newLogger(os.Stdout, debug)
		slog.SetDefault(defaultLogger)
	})
}

// SetOutput replaces the global logger with one writing to w.
// Tests use it to capture or silence output.
func SetOutput(w io.Writer, debug bool) {
	once.Do(func() {})
	defaultLogger = newLogger(w, debug)
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func get() *slog.Logger {
	if defaultLogger == nil {
		Init(os.Getenv("DEBUG") == "true")
	}
	return defaultLogger
}

// Debug logs at Debug level.
func Debug(msg string, args ...any) {
	get().Debug(msg, args...)
}

// Info logs at Info level.
func Info(msg string, args ...any) {
	get().Info(msg, args...)
}

// Warn logs at Warn level.
func Warn(msg string, args ...any) {
	get().Warn(msg, args...)
}

// Error logs at Error level.
func Error(msg string, args ...any) {
	get().Error(msg, args...)
}

// Fatal logs at Error level and then exits.
func Fatal(msg string, args ...any) {
	get().Error(msg, args...)
	os.Exit(1)
}

// With returns a new logger with the given attributes.
func With(args ...any) *slog.Logger {
	return get().With(args...)
}
