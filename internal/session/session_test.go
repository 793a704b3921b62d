// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pandoc-live/internal/document"
	"github.com/pdiddy/pandoc-live/internal/logger"
	"github.com/pdiddy/pandoc-live/internal/pandoc"
	"github.com/pdiddy/pandoc-live/pkg/types"
)

// fakeConverter implements convert.Converter with canned results.
type fakeConverter struct {
	mu       sync.Mutex
	markdown string
	html     string
	mdErr    error
	htmlErr  error
	rendered []string
	onHTML   func()
}

func (f *fakeConverter) MarkdownToHTML(_ context.Context, md string, _ types.ConversionOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rendered = append(f.rendered, md)
	if f.htmlErr != nil {
		return "", f.htmlErr
	}
	return f.html, nil
}

func (f *fakeConverter) HTMLToMarkdown(_ context.Context, _ string) (string, error) {
	if f.onHTML != nil {
		f.onHTML()
	}
	if f.mdErr != nil {
		return "", f.mdErr
	}
	return f.markdown, nil
}

// fakeSaver records queued writes.
type fakeSaver struct {
	mu    sync.Mutex
	saves map[string]string
	err   error
}

func (f *fakeSaver) RequestSave(path, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.saves == nil {
		f.saves = make(map[string]string)
	}
	f.saves[path] = content
	return nil
}

// outbox collects sent messages.
type outbox struct {
	mu   sync.Mutex
	msgs []any
}

func (o *outbox) Send(msg any) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.msgs = append(o.msgs, msg)
	return nil
}

func (o *outbox) last(t *testing.T) any {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	require.NotEmpty(t, o.msgs)
	return o.msgs[len(o.msgs)-1]
}

func (o *outbox) len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.msgs)
}

func openDoc(t *testing.T) *document.Document {
	t.Helper()
	d, err := document.Open(filepath.Join(t.TempDir(), "doc.md"))
	require.NoError(t, err)
	d.SetText("# Old\n")
	return d
}

func TestHandle_Save(t *testing.T) {
	doc := openDoc(t)
	conv := &fakeConverter{markdown: "# New\n"}
	saver := &fakeSaver{}
	out := &outbox{}
	s := New(doc, conv, saver, out, WithLogger(logger.Discard()))

	require.NoError(t, s.Handle(context.Background(), Inbound{Type: TypeSave, Content: "<h1>New</h1>"}))

	assert.Equal(t, Saved{Type: TypeSaved, Success: true, Content: "# New\n"}, out.last(t))
	assert.Equal(t, "# New\n", doc.Text())
	assert.Equal(t, "# New\n", saver.saves[doc.Path()])
	assert.False(t, s.sync.Updating())
}

func TestHandle_SaveConversionFailureKeepsDocument(t *testing.T) {
	code := 1
	doc := openDoc(t)
	conv := &fakeConverter{mdErr: &pandoc.ConversionError{Message: "exited with code 1", Stderr: "bad html", ExitCode: &code}}
	saver := &fakeSaver{}
	out := &outbox{}
	s := New(doc, conv, saver, out)

	require.NoError(t, s.Handle(context.Background(), Inbound{Type: TypeSave, Content: "<p>x</p>"}))

	msg, ok := out.last(t).(Saved)
	require.True(t, ok)
	assert.False(t, msg.Success)
	assert.Equal(t, "Pandoc Error: exited with code 1 (exit code 1)\n\nbad html", msg.Error)
	assert.Equal(t, "# Old\n", doc.Text())
	assert.Empty(t, saver.saves)
}

func TestHandle_SaveQueueFailure(t *testing.T) {
	doc := openDoc(t)
	s := New(doc, &fakeConverter{markdown: "x"}, &fakeSaver{err: errors.New("queue closed")}, &outbox{})
	out := s.out.(*outbox)

	require.NoError(t, s.Handle(context.Background(), Inbound{Type: TypeSave, Content: "<p>x</p>"}))
	msg := out.last(t).(Saved)
	assert.False(t, msg.Success)
	assert.Contains(t, msg.Error, "queue closed")
	// The edit stays applied in memory.
	assert.Equal(t, "x", doc.Text())
}

func TestHandle_UpdateContentSendsNothing(t *testing.T) {
	doc := openDoc(t)
	saver := &fakeSaver{}
	out := &outbox{}
	s := New(doc, &fakeConverter{markdown: "typed"}, saver, out)

	require.NoError(t, s.Handle(context.Background(), Inbound{Type: TypeUpdateContent, Content: "<p>typed</p>"}))
	assert.Equal(t, 0, out.len())
	assert.Equal(t, "typed", doc.Text())
	assert.Equal(t, "typed", saver.saves[doc.Path()])
}

func TestHandle_Ready(t *testing.T) {
	doc := openDoc(t)
	conv := &fakeConverter{html: "<h1>Old</h1>"}
	out := &outbox{}
	s := New(doc, conv, &fakeSaver{}, out)

	require.NoError(t, s.Handle(context.Background(), Inbound{Type: TypeReady}))
	assert.Equal(t, Update{Type: TypeUpdate, Content: "<h1>Old</h1>"}, out.last(t))
	assert.Equal(t, []string{"# Old\n"}, conv.rendered)
}

func TestRefresh_ErrorView(t *testing.T) {
	doc := openDoc(t)
	conv := &fakeConverter{htmlErr: errors.New("pandoc <missing>")}
	out := &outbox{}
	s := New(doc, conv, &fakeSaver{}, out)

	require.NoError(t, s.Refresh(context.Background()))
	msg := out.last(t).(Update)
	assert.True(t, msg.Error)
	assert.Contains(t, msg.Content, "Error Rendering Document")
	assert.Contains(t, msg.Content, "pandoc &lt;missing&gt;")
}

func TestHandle_ReentrantUpdateReturnsCurrentText(t *testing.T) {
	doc := openDoc(t)
	saver := &fakeSaver{}
	out := &outbox{}
	conv := &fakeConverter{markdown: "outer"}
	s := New(doc, conv, saver, out)

	var inner error
	conv.onHTML = func() {
		conv.onHTML = nil
		inner = s.Handle(context.Background(), Inbound{Type: TypeSave, Content: "<p>inner</p>"})
	}
	require.NoError(t, s.Handle(context.Background(), Inbound{Type: TypeSave, Content: "<p>outer</p>"}))
	require.NoError(t, inner)

	out.mu.Lock()
	defer out.mu.Unlock()
	require.Len(t, out.msgs, 2)
	assert.Equal(t, Saved{Type: TypeSaved, Success: true, Content: "# Old\n"}, out.msgs[0])
	assert.Equal(t, Saved{Type: TypeSaved, Success: true, Content: "outer"}, out.msgs[1])
}

func TestNotifySaveResult(t *testing.T) {
	doc := openDoc(t)
	out := &outbox{}
	s := New(doc, &fakeConverter{}, &fakeSaver{}, out)

	s.NotifySaveResult(types.SaveResult{TargetPath: doc.Path()})
	s.NotifySaveResult(types.SaveResult{TargetPath: "/elsewhere.md", Err: errors.New("other file")})
	assert.Equal(t, 0, out.len())

	s.NotifySaveResult(types.SaveResult{TargetPath: doc.Path(), Err: errors.New("disk full")})
	assert.Equal(t, Saved{Type: TypeSaved, Success: false, Error: "disk full"}, out.last(t))
}

func TestHub_LoopSuppression(t *testing.T) {
	doc := openDoc(t)
	hub := NewHub(doc, logger.Discard())
	conv := &fakeConverter{markdown: "# Saved\n", html: "<h1>x</h1>"}
	out := &outbox{}
	s := hub.NewSession(conv, &fakeSaver{}, out)
	assert.Equal(t, 1, hub.Len())

	require.NoError(t, s.Handle(context.Background(), Inbound{Type: TypeSave, Content: "<h1>Saved</h1>"}))
	sent := out.len()

	// The file watcher reports our own write: no refresh.
	assert.False(t, hub.ExternalChange(context.Background(), "# Saved\n"))
	assert.Equal(t, sent, out.len())

	// An edit from another program refreshes the session.
	assert.True(t, hub.ExternalChange(context.Background(), "# Changed elsewhere\n"))
	assert.Equal(t, sent+1, out.len())
	assert.Equal(t, "# Changed elsewhere\n", doc.Text())
	assert.Equal(t, Update{Type: TypeUpdate, Content: "<h1>x</h1>"}, out.last(t))

	// Unchanged content is not re-rendered.
	assert.False(t, hub.ExternalChange(context.Background(), "# Changed elsewhere\n"))

	hub.Remove(s)
	assert.Equal(t, 0, hub.Len())
}

func TestHub_LateEchoOfQueuedWriteKeepsNewerEdit(t *testing.T) {
	ctx := context.Background()
	doc := openDoc(t)
	hub := NewHub(doc, logger.Discard())
	conv := &fakeConverter{html: "<p>x</p>"}
	out := &outbox{}
	s := hub.NewSession(conv, &fakeSaver{}, out)

	conv.markdown = "A\n"
	require.NoError(t, s.Handle(ctx, Inbound{Type: TypeSave, Content: "<p>A</p>"}))
	conv.markdown = "B\n"
	require.NoError(t, s.Handle(ctx, Inbound{Type: TypeSave, Content: "<p>B</p>"}))
	sent := out.len()

	// The save queue lands A on disk after B was applied.
	assert.False(t, hub.ExternalChange(ctx, "A\n"))
	assert.Equal(t, "B\n", doc.Text())
	assert.Equal(t, sent, out.len())
	assert.Empty(t, conv.rendered)

	assert.False(t, hub.ExternalChange(ctx, "B\n"))
	assert.Equal(t, sent, out.len())

	// Once both writes are confirmed, A from another program is an edit.
	assert.True(t, hub.ExternalChange(ctx, "A\n"))
	assert.Equal(t, "A\n", doc.Text())
	assert.Equal(t, sent+1, out.len())
}

func TestHub_SaveResultForwarded(t *testing.T) {
	doc := openDoc(t)
	hub := NewHub(doc, nil)
	out := &outbox{}
	hub.NewSession(&fakeConverter{}, &fakeSaver{}, out)

	hub.SaveResult(types.SaveResult{TargetPath: doc.Path(), Err: errors.New("permission denied")})
	msg := out.last(t).(Saved)
	assert.False(t, msg.Success)
	assert.Equal(t, "permission denied", msg.Error)
}

func TestDecodeInbound(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    Inbound
		wantErr string
	}{
		{name: "save", data: `{"type":"save","content":"<p>x</p>"}`, want: Inbound{Type: TypeSave, Content: "<p>x</p>"}},
		{name: "ready", data: `{"type":"ready"}`, want: Inbound{Type: TypeReady}},
		{name: "unknown", data: `{"type":"delete"}`, wantErr: "unknown message type"},
		{name: "garbage", data: `{`, wantErr: "decoding message"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeInbound([]byte(tt.data))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOutboundJSON(t *testing.T) {
	data, err := json.Marshal(Saved{Type: TypeSaved, Success: false, Error: "boom"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"saved","success":false,"error":"boom"}`, string(data))

	data, err = json.Marshal(Update{Type: TypeUpdate, Content: "<p/>"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"update","content":"<p/>"}`, string(data))
	assert.False(t, strings.Contains(string(data), "error"))
}
