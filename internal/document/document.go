// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package document holds the Markdown text of an open file and watches the
// file for changes made outside the editor.
package document

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Document is the in-memory text of one Markdown file. Edits are applied in
// memory immediately; the save queue persists them later.
type Document struct {
	path string

	mu   sync.RWMutex
	text string
}

// Open loads path. A missing file opens as an empty document and is created
// by the first save.
func Open(path string) (*Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	d := &Document{path: abs}
	if _, err := d.Reload(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return d, nil
}

// Path returns the absolute file path.
func (d *Document) Path() string { return d.path }

// Text returns the current in-memory text.
func (d *Document) Text() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.text
}

// SetText replaces the in-memory text and reports whether it changed.
func (d *Document) SetText(text string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.text == text {
		return false
	}
	d.text = text
	return true
}

// Reload replaces the in-memory text with the file content and returns it.
func (d *Document) Reload() (string, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", d.path, err)
	}
	text := string(data)
	d.SetText(text)
	return text, nil
}
