// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session connects one editing surface to a document. It turns
// save, updateContent and ready messages into conversions and queued
// writes, and answers with saved and update messages.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/pandoc-live/internal/convert"
	"github.com/pdiddy/pandoc-live/internal/document"
	"github.com/pdiddy/pandoc-live/internal/logger"
	"github.com/pdiddy/pandoc-live/internal/pandoc"
	"github.com/pdiddy/pandoc-live/internal/syncctl"
	"github.com/pdiddy/pandoc-live/pkg/types"
)

// Sender delivers an outbound message to the editing surface.
type Sender interface {
	Send(msg any) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(msg any) error

// Send calls f.
func (f SenderFunc) Send(msg any) error { return f(msg) }

// Saver queues a document write.
type Saver interface {
	RequestSave(path, content string) error
}

// Session is one editing surface attached to a document.
type Session struct {
	id      string
	doc     *document.Document
	conv    convert.Converter
	saver   Saver
	sync    *syncctl.Controller
	out     Sender
	opts    types.ConversionOptions
	timeout time.Duration
	log     *logger.Logger

	sendMu sync.Mutex
}

// Option configures a Session.
type Option func(*Session)

// WithOptions sets the conversion options used for rendering.
func WithOptions(opts types.ConversionOptions) Option {
	return func(s *Session) { s.opts = opts }
}

// WithTimeout bounds every conversion. Zero means no deadline.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) { s.timeout = d }
}

// WithLogger sets the session logger.
func WithLogger(log *logger.Logger) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

// WithSyncController shares a sync controller between sessions of one
// document.
func WithSyncController(c *syncctl.Controller) Option {
	return func(s *Session) {
		if c != nil {
			s.sync = c
		}
	}
}

// New creates a session with a fresh id.
func New(doc *document.Document, conv convert.Converter, saver Saver, out Sender, opts ...Option) *Session {
	s := &Session{
		id:    uuid.NewString(),
		doc:   doc,
		conv:  conv,
		saver: saver,
		out:   out,
		opts:  types.DefaultConversionOptions(),
		sync:  syncctl.New(),
		log:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("session", s.id)
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Document returns the attached document.
func (s *Session) Document() *document.Document { return s.doc }

// Handle processes one inbound message. The returned error is for the
// transport; user-visible failures are reported through messages.
func (s *Session) Handle(ctx context.Context, msg Inbound) error {
	switch msg.Type {
	case TypeSave:
		md, err := s.updateDocument(ctx, msg.Content)
		if err != nil {
			return s.send(Saved{Type: TypeSaved, Success: false, Error: userMessage(err)})
		}
		return s.send(Saved{Type: TypeSaved, Success: true, Content: md})
	case TypeUpdateContent:
		if _, err := s.updateDocument(ctx, msg.Content); err != nil {
			s.log.Error("updating document failed", "file", s.doc.Path(), "error", err)
		}
		return nil
	case TypeReady:
		return s.Refresh(ctx)
	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
}

// updateDocument converts editor HTML to Markdown, applies it to the
// document and queues the write. While another update is applied it
// returns the current text unchanged.
func (s *Session) updateDocument(ctx context.Context, html string) (string, error) {
	var md string
	err := s.sync.Write(ctx, func(ctx context.Context) (string, error) {
		ctx, cancel := s.withTimeout(ctx)
		defer cancel()

		converted, err := s.conv.HTMLToMarkdown(ctx, html)
		if err != nil {
			return "", err
		}
		md = converted
		s.doc.SetText(md)
		if err := s.saver.RequestSave(s.doc.Path(), md); err != nil {
			return "", fmt.Errorf("queueing save: %w", err)
		}
		return md, nil
	})
	if errors.Is(err, syncctl.ErrBusy) {
		return s.doc.Text(), nil
	}
	return md, err
}

// Refresh renders the document and sends it to the editing surface. A
// rendering failure is shown as an error view.
func (s *Session) Refresh(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	html, err := s.conv.MarkdownToHTML(ctx, s.doc.Text(), s.opts)
	if err != nil {
		s.log.Error("rendering document failed", "file", s.doc.Path(), "error", err)
		return s.send(Update{Type: TypeUpdate, Content: ErrorView(userMessage(err)), Error: true})
	}
	return s.send(Update{Type: TypeUpdate, Content: html})
}

// NotifySaveResult forwards a failed write of this session's document to
// the editing surface. Successful writes were already acknowledged.
func (s *Session) NotifySaveResult(res types.SaveResult) {
	if res.OK() || res.TargetPath != s.doc.Path() {
		return
	}
	if err := s.send(Saved{Type: TypeSaved, Success: false, Error: res.Err.Error()}); err != nil {
		s.log.Warn("sending save failure failed", "error", err)
	}
}

func (s *Session) send(msg any) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if err := s.out.Send(msg); err != nil {
		return fmt.Errorf("sending message: %w", err)
	}
	return nil
}

func (s *Session) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return context.WithCancel(ctx)
}

func userMessage(err error) string {
	var ce *pandoc.ConversionError
	if errors.As(err, &ce) {
		return ce.UserMessage()
	}
	return err.Error()
}
