// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"context"
	"sync"

	"github.com/pdiddy/pandoc-live/internal/convert"
	"github.com/pdiddy/pandoc-live/internal/document"
	"github.com/pdiddy/pandoc-live/internal/logger"
	"github.com/pdiddy/pandoc-live/internal/syncctl"
	"github.com/pdiddy/pandoc-live/pkg/types"
)

// Hub tracks the sessions attached to one document. It routes external
// document changes and save results to them.
type Hub struct {
	doc  *document.Document
	sync *syncctl.Controller
	log  *logger.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewHub creates a hub for doc. All sessions created through the hub share
// its sync controller.
func NewHub(doc *document.Document, log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Discard()
	}
	return &Hub{
		doc:      doc,
		sync:     syncctl.New(),
		log:      log,
		sessions: make(map[string]*Session),
	}
}

// Document returns the hub's document.
func (h *Hub) Document() *document.Document { return h.doc }

// Controller returns the shared sync controller.
func (h *Hub) Controller() *syncctl.Controller { return h.sync }

// Add registers s.
func (h *Hub) Add(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[s.ID()] = s
}

// NewSession creates a session on the hub's document, sharing the hub's
// sync controller, and registers it.
func (h *Hub) NewSession(conv convert.Converter, saver Saver, out Sender, opts ...Option) *Session {
	opts = append([]Option{WithLogger(h.log)}, opts...)
	opts = append(opts, WithSyncController(h.sync))
	s := New(h.doc, conv, saver, out, opts...)
	h.Add(s)
	return s
}

// Remove unregisters s.
func (h *Hub) Remove(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, s.ID())
}

// Len returns the number of registered sessions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

func (h *Hub) snapshot() []*Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		out = append(out, s)
	}
	return out
}

// ExternalChange handles a change of the document file. Echoes of this
// program's own writes are ignored; anything else replaces the document
// text and refreshes every session. It reports whether the change was
// applied.
func (h *Hub) ExternalChange(ctx context.Context, content string) bool {
	if h.sync.Suppress(content) {
		h.log.EchoSuppressed(h.doc.Path())
		return false
	}
	if !h.doc.SetText(content) {
		return false
	}
	for _, s := range h.snapshot() {
		if err := s.Refresh(ctx); err != nil {
			h.log.Warn("refreshing session failed", "session", s.ID(), "error", err)
		}
	}
	return true
}

// SaveResult forwards a write result to every session. It is meant to be
// registered as a save queue observer.
func (h *Hub) SaveResult(res types.SaveResult) {
	for _, s := range h.snapshot() {
		s.NotifySaveResult(res)
	}
}
