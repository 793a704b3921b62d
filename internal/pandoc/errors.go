// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pandoc

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotReady is returned by a Handler whose readiness probe failed. No
// subprocess is spawned.
var ErrNotReady = errors.New("pandoc handler is not initialized or pandoc is unavailable")

// ConversionError records a failed pandoc invocation with enough context to
// build a user-facing diagnostic without running pandoc again.
type ConversionError struct {
	// Message is a short description ("failed to start", "exited with code 2").
	Message string

	// Stderr is the captured standard error, or the OS error text when the
	// process could not be started.
	Stderr string

	// ExitCode is nil when the process never exited on its own.
	ExitCode *int

	// Args are the arguments pandoc was invoked with.
	Args []string

	// Err is the underlying cause, if any.
	Err error
}

func (e *ConversionError) Error() string {
	return "pandoc: " + e.Message
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// UserMessage formats the error for display in the editing surface.
func (e *ConversionError) UserMessage() string {
	var b strings.Builder
	b.WriteString("Pandoc Error: ")
	b.WriteString(e.Message)
	if e.ExitCode != nil {
		fmt.Fprintf(&b, " (exit code %d)", *e.ExitCode)
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		b.WriteString("\n\n")
		b.WriteString(s)
	}
	return b.String()
}

// Wrap converts err into a *ConversionError. A *ConversionError anywhere in
// the chain is returned unchanged; anything else becomes the cause of a new
// ConversionError whose message is prefix followed by err's text.
func Wrap(err error, prefix string) error {
	if err == nil {
		return nil
	}
	var ce *ConversionError
	if errors.As(err, &ce) {
		return ce
	}
	return &ConversionError{
		Message: prefix + ": " + err.Error(),
		Err:     err,
	}
}
