// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pandoc-live/internal/document"
	"github.com/pdiddy/pandoc-live/internal/logger"
	"github.com/pdiddy/pandoc-live/internal/session"
	"github.com/pdiddy/pandoc-live/pkg/types"
)

// echoConverter wraps content so tests can see which direction ran.
type echoConverter struct{}

func (echoConverter) MarkdownToHTML(_ context.Context, md string, _ types.ConversionOptions) (string, error) {
	return "<p>" + strings.TrimSpace(md) + "</p>", nil
}

func (echoConverter) HTMLToMarkdown(_ context.Context, html string) (string, error) {
	return strings.TrimSuffix(strings.TrimPrefix(html, "<p>"), "</p>") + "\n", nil
}

type memSaver struct {
	mu    sync.Mutex
	saves map[string]string
}

func (m *memSaver) RequestSave(path, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saves == nil {
		m.saves = make(map[string]string)
	}
	m.saves[path] = content
	return nil
}

func (m *memSaver) get(path string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves[path]
}

func openDoc(t *testing.T, text string) *document.Document {
	t.Helper()
	d, err := document.Open(filepath.Join(t.TempDir(), "notes.md"))
	require.NoError(t, err)
	d.SetText(text)
	return d
}

func decodeLines(t *testing.T, out string) []map[string]any {
	t.Helper()
	var msgs []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		msgs = append(msgs, m)
	}
	return msgs
}

func TestServeLines(t *testing.T) {
	doc := openDoc(t, "hello")
	saver := &memSaver{}
	var out bytes.Buffer
	s := session.New(doc, echoConverter{}, saver, NewLineWriter(&out))

	in := strings.Join([]string{
		`{"type":"ready"}`,
		``,
		`not json`,
		`{"type":"save","content":"<p>a & b</p>"}`,
	}, "\n")
	require.NoError(t, ServeLines(context.Background(), strings.NewReader(in), s, logger.Discard()))

	msgs := decodeLines(t, out.String())
	require.Len(t, msgs, 2)
	assert.Equal(t, "update", msgs[0]["type"])
	assert.Equal(t, "<p>hello</p>", msgs[0]["content"])
	assert.Equal(t, "saved", msgs[1]["type"])
	assert.Equal(t, true, msgs[1]["success"])
	assert.Equal(t, "a & b\n", msgs[1]["content"])
	assert.Equal(t, "a & b\n", saver.get(doc.Path()))
	assert.NotContains(t, out.String(), `\u0026`)
}

func TestServeLines_CanceledContext(t *testing.T) {
	doc := openDoc(t, "x")
	var out bytes.Buffer
	s := session.New(doc, echoConverter{}, &memSaver{}, NewLineWriter(&out))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := ServeLines(ctx, strings.NewReader(`{"type":"ready"}`+"\n"), s, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.String())
}

func newTestServer(t *testing.T, doc *document.Document, saver session.Saver) (*httptest.Server, *session.Hub) {
	t.Helper()
	hub := session.NewHub(doc, logger.Discard())
	srv := NewServer(hub, echoConverter{}, saver, logger.Discard())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, hub
}

func TestServer_Page(t *testing.T) {
	ts, _ := newTestServer(t, openDoc(t, ""), &memSaver{})

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, string(body), "<title>notes.md - pandoc-live</title>")
	assert.Contains(t, string(body), `contenteditable="true"`)

	resp, err = http.Get(ts.URL + "/missing")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_WebSocketSession(t *testing.T) {
	doc := openDoc(t, "hello")
	saver := &memSaver{}
	ts, hub := newTestServer(t, doc, saver)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	require.NoError(t, conn.WriteJSON(session.Inbound{Type: session.TypeReady}))
	var update session.Update
	require.NoError(t, conn.ReadJSON(&update))
	assert.Equal(t, session.Update{Type: session.TypeUpdate, Content: "<p>hello</p>"}, update)
	assert.Equal(t, 1, hub.Len())

	require.NoError(t, conn.WriteJSON(session.Inbound{Type: session.TypeSave, Content: "<p>edited</p>"}))
	var saved session.Saved
	require.NoError(t, conn.ReadJSON(&saved))
	assert.Equal(t, session.Saved{Type: session.TypeSaved, Success: true, Content: "edited\n"}, saved)
	assert.Equal(t, "edited\n", saver.get(doc.Path()))

	// An external edit is pushed to the browser.
	assert.True(t, hub.ExternalChange(context.Background(), "changed"))
	require.NoError(t, conn.ReadJSON(&update))
	assert.Equal(t, "<p>changed</p>", update.Content)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	require.Eventually(t, func() bool { return hub.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestServer_ServeStopsOnCancel(t *testing.T) {
	hub := session.NewHub(openDoc(t, ""), nil)
	srv := NewServer(hub, echoConverter{}, &memSaver{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
