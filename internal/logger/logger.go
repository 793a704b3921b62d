// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logger provides the leveled, structured logger shared by all
// pandoc-live components. It wraps charmbracelet/log and adds helpers for
// the events the synchronization pipeline reports.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Logger wraps charm/log for structured logging.
type Logger struct {
	*log.Logger
}

// New creates a logger writing to w at info level.
func New(w io.Writer) *Logger {
	return NewWithLevel(w, log.InfoLevel)
}

// NewWithLevel creates a logger with a specific level.
func NewWithLevel(w io.Writer, level log.Level) *Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Level:           level,
	})
	return &Logger{Logger: l}
}

// ParseLevel maps a config level name to a log.Level. An empty name is info.
func ParseLevel(name string) (log.Level, error) {
	if strings.TrimSpace(name) == "" {
		return log.InfoLevel, nil
	}
	level, err := log.ParseLevel(strings.ToLower(name))
	if err != nil {
		return log.InfoLevel, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}

// Open builds the application logger from a level name and an optional log
// file. Output always goes to stderr; when file is set it is also appended
// there. The returned cleanup closes the file.
func Open(level, file string) (*Logger, func(), error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}
	if file == "" {
		return NewWithLevel(os.Stderr, lvl), func() {}, nil
	}

	f, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file %s: %w", file, err)
	}
	cleanup := func() {
		f.Close()
	}
	return NewWithLevel(io.MultiWriter(os.Stderr, f), lvl), cleanup, nil
}

// With returns a child logger that adds keyvals to every entry.
func (l *Logger) With(keyvals ...any) *Logger {
	return &Logger{Logger: l.Logger.With(keyvals...)}
}

// Discard returns a logger that discards all output.
func Discard() *Logger {
	return New(io.Discard)
}

// ConversionStarted logs the start of a pipeline run.
func (l *Logger) ConversionStarted(direction string, inputBytes int) {
	l.Debug("conversion started",
		"direction", direction,
		"input_bytes", inputBytes)
}

// ConversionFinished logs the end of a pipeline run.
func (l *Logger) ConversionFinished(direction string, outputBytes int, took time.Duration) {
	l.Debug("conversion finished",
		"direction", direction,
		"output_bytes", outputBytes,
		"duration", took.Round(time.Millisecond))
}

// PandocStderr logs diagnostics pandoc printed on a successful run.
func (l *Logger) PandocStderr(args []string, stderr string) {
	l.Warn("pandoc stderr",
		"args", strings.Join(args, " "),
		"stderr", strings.TrimSpace(stderr))
}

// ConversionFailed logs a failed conversion.
func (l *Logger) ConversionFailed(direction string, err error) {
	l.Error("conversion failed",
		"direction", direction,
		"error", err)
}

// FormattingFailed logs a failed formatting pass that was recovered.
func (l *Logger) FormattingFailed(err error) {
	l.Warn("formatting failed, returning unformatted markdown",
		"error", err)
}

// BackupFailed logs a backup slot that could not be rotated.
func (l *Logger) BackupFailed(file string, slot int, err error) {
	l.Warn("backup rotation failed",
		"file", file,
		"slot", slot,
		"error", err)
}

// SaveWritten logs a successful write.
func (l *Logger) SaveWritten(file string, bytes, backups, coalesced int) {
	l.Info("file saved",
		"file", file,
		"bytes", bytes,
		"backups", backups,
		"coalesced", coalesced)
}

// SaveFailed logs a failed write.
func (l *Logger) SaveFailed(file string, err error) {
	l.Error("save failed",
		"file", file,
		"error", err)
}

// EchoSuppressed logs a document change ignored because it was caused by
// our own write.
func (l *Logger) EchoSuppressed(file string) {
	l.Debug("document change suppressed",
		"file", file)
}
