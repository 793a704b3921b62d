// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transport

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pdiddy/pandoc-live/internal/convert"
	"github.com/pdiddy/pandoc-live/internal/logger"
	"github.com/pdiddy/pandoc-live/internal/session"
)

const (
	writeWait       = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

//go:embed page.html
var pageSource string

var pageTemplate = template.Must(template.New("page").Parse(pageSource))

// Server serves the editing page and one WebSocket session per browser
// tab, all attached to the hub's document.
type Server struct {
	hub      *session.Hub
	conv     convert.Converter
	saver    session.Saver
	opts     []session.Option
	log      *logger.Logger
	upgrader websocket.Upgrader
}

// NewServer creates a server. opts are applied to every new session.
func NewServer(hub *session.Hub, conv convert.Converter, saver session.Saver, log *logger.Logger, opts ...session.Option) *Server {
	if log == nil {
		log = logger.Discard()
	}
	return &Server{
		hub:   hub,
		conv:  conv,
		saver: saver,
		opts:  opts,
		log:   log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
}

// Handler returns the HTTP routes: the editing page at / and the session
// socket at /ws.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handlePage)
	mux.HandleFunc("GET /ws", s.handleSocket)
	return mux
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.log.Info("editing surface listening", "url", "http://"+ln.Addr().String()+"/")

	select {
	case err := <-errc:
		return fmt.Errorf("serving http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving http: %w", err)
	}
	return nil
}

func (s *Server) handlePage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := struct{ Title string }{Title: filepath.Base(s.hub.Document().Path())}
	if err := pageTemplate.Execute(w, data); err != nil {
		s.log.Error("rendering editing page failed", "error", err)
	}
}

func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sess := s.hub.NewSession(s.conv, s.saver, &socketSender{conn: conn}, s.opts...)
	defer s.hub.Remove(sess)
	log := s.log.With("session", sess.ID())
	log.Info("editing surface connected", "remote", r.RemoteAddr)

	ctx := r.Context()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("websocket closed", "error", err)
			} else {
				log.Info("editing surface disconnected")
			}
			return
		}
		msg, err := session.DecodeInbound(data)
		if err != nil {
			log.Warn("ignoring message", "error", err)
			continue
		}
		if err := sess.Handle(ctx, msg); err != nil {
			log.Error("handling message failed", "type", msg.Type, "error", err)
			return
		}
	}
}

// socketSender writes messages as JSON text frames. gorilla/websocket
// allows one concurrent writer per connection.
type socketSender struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *socketSender) Send(msg any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("setting write deadline: %w", err)
	}
	if err := s.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("writing websocket message: %w", err)
	}
	return nil
}
