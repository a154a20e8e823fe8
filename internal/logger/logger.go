// Package logger provides verbose logging for the ragnote CLI.
// When verbose mode is enabled via the --verbose flag, debug messages
// are written to stderr to help users follow the ingestion and retrieval
// pipeline. Records go through log/slog, as text or JSON.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Output formats accepted by SetFormat.
const (
	FormatText = "text"
	FormatJSON = "json"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	logFormat         = FormatText
	log               = newLogger(os.Stderr, FormatText)
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for verbose logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	log = newLogger(output, logFormat)
}

// SetFormat selects text or JSON records.
func SetFormat(f string) error {
	if f != FormatText && f != FormatJSON {
		return fmt.Errorf("unknown log format %q (want %s or %s)", f, FormatText, FormatJSON)
	}

	mu.Lock()
	defer mu.Unlock()
	logFormat = f
	log = newLogger(output, logFormat)
	return nil
}

// Slog returns a structured logger for callers that attach attributes.
// It discards records unless verbose mode is enabled.
func Slog() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if !verbose {
		return slog.New(slog.DiscardHandler)
	}
	return log
}

// Debug logs a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	emit(slog.LevelDebug, format, args)
}

// Section logs a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		log.Info("=== "+name+" ===", slog.String("section", name))
	}
}

// Info logs an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	emit(slog.LevelInfo, format, args)
}

// Warn logs a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	emit(slog.LevelWarn, format, args)
}

func emit(level slog.Level, format string, args []any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		log.Log(context.Background(), level, fmt.Sprintf(format, args...))
	}
}

// newLogger builds a logger writing every level to w. Text records omit the
// timestamp so terminal output stays short.
func newLogger(w io.Writer, f string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelDebug}
	if f == FormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}

	opts.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
		if len(groups) == 0 && a.Key == slog.TimeKey {
			return slog.Attr{}
		}
		return a
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
