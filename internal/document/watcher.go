// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package document

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/pdiddy/pandoc-live/internal/logger"
)

// settleDelay groups the several events an editor emits for one save.
const settleDelay = 50 * time.Millisecond

// Watcher reports content changes of one file. It watches the parent
// directory so that editors replacing the file by rename are seen too.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	log     *logger.Logger
}

// NewWatcher starts watching path.
func NewWatcher(path string, log *logger.Logger) (*Watcher, error) {
	if log == nil {
		log = logger.Discard()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{path: abs, watcher: w, log: log}, nil
}

// Run calls onChange with the file content after each settled change until
// ctx is done or the watcher is closed. onChange runs on the Run goroutine.
func (w *Watcher) Run(ctx context.Context, onChange func(content string)) error {
	settle := time.NewTimer(settleDelay)
	settle.Stop()
	defer settle.Stop()

	for {
		select {
		case <-ctx.Done():
			return w.Close()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				settle.Reset(settleDelay)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Error("document watcher error", "file", w.path, "error", err)
		case <-settle.C:
			data, err := os.ReadFile(w.path)
			if err != nil {
				w.log.Warn("reading changed document failed", "file", w.path, "error", err)
				continue
			}
			onChange(string(data))
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
