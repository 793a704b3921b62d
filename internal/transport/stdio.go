// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package transport carries session messages between an editing surface
// and a session: JSON lines over stdio for editor integrations, and a
// WebSocket server with a built-in editing page for browsers.
package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/pdiddy/pandoc-live/internal/logger"
	"github.com/pdiddy/pandoc-live/internal/session"
)

// maxLineBytes bounds one inbound JSON line.
const maxLineBytes = 16 << 20

// LineWriter sends each message as one JSON line.
type LineWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewLineWriter returns a session.Sender writing to w.
func NewLineWriter(w io.Writer) *LineWriter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &LineWriter{enc: enc}
}

// Send encodes msg followed by a newline.
func (l *LineWriter) Send(msg any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enc.Encode(msg); err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}
	return nil
}

// ServeLines reads JSON lines from r and hands each message to s until r
// is exhausted or ctx is done. Malformed lines are logged and skipped.
// Reading happens on its own goroutine so a blocked r does not hold up
// cancellation; that goroutine exits with the next line or read error.
func ServeLines(ctx context.Context, r io.Reader, s *session.Session, log *logger.Logger) error {
	if log == nil {
		log = logger.Discard()
	}
	lines := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			if err != nil {
				return fmt.Errorf("reading messages: %w", err)
			}
			return nil
		case line := <-lines:
			if err := ctx.Err(); err != nil {
				return err
			}
			if len(line) == 0 {
				continue
			}
			msg, err := session.DecodeInbound(line)
			if err != nil {
				log.Warn("ignoring message", "error", err)
				continue
			}
			if err := s.Handle(ctx, msg); err != nil {
				return fmt.Errorf("handling %s message: %w", msg.Type, err)
			}
		}
	}
}
