// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package document

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pandoc-live/internal/logger"
)

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.md")
	require.NoError(t, os.WriteFile(path, []byte("# Hello\n"), 0o644))

	d, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, "# Hello\n", d.Text())
	assert.True(t, filepath.IsAbs(d.Path()))
}

func TestOpen_MissingFileIsEmpty(t *testing.T) {
	d, err := Open(filepath.Join(t.TempDir(), "new.md"))
	require.NoError(t, err)
	assert.Empty(t, d.Text())
}

func TestOpen_DirectoryFails(t *testing.T) {
	_, err := Open(t.TempDir())
	assert.Error(t, err)
}

func TestSetTextAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.md")
	d, err := Open(path)
	require.NoError(t, err)

	assert.True(t, d.SetText("edited"))
	assert.False(t, d.SetText("edited"))
	assert.Equal(t, "edited", d.Text())

	require.NoError(t, os.WriteFile(path, []byte("from disk"), 0o644))
	text, err := d.Reload()
	require.NoError(t, err)
	assert.Equal(t, "from disk", text)
	assert.Equal(t, "from disk", d.Text())
}

func TestWatcher_ReportsExternalChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.md")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	w, err := NewWatcher(path, logger.Discard())
	require.NoError(t, err)

	var mu sync.Mutex
	var seen []string
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(content string) {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, content)
		})
	}()

	// Changes to other files in the directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.md"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) > 0 && seen[len(seen)-1] == "v2"
	}, 3*time.Second, 20*time.Millisecond)

	mu.Lock()
	for _, s := range seen {
		assert.Equal(t, "v2", s)
	}
	mu.Unlock()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
