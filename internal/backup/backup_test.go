// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package backup

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pandoc-live/internal/logger"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func read(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestPath(t *testing.T) {
	assert.Equal(t, filepath.Join("docs", ".backup-3-notes.md"), Path(filepath.Join("docs", "notes.md"), 3))
	assert.Equal(t, ".backup-1-a.md", Path("a.md", 1))
}

func TestRotate_MissingTarget(t *testing.T) {
	target := filepath.Join(t.TempDir(), "doc.md")
	r := NewRotator(5, logger.Discard())
	assert.Equal(t, 0, r.Rotate(target))
	assert.NoFileExists(t, Path(target, 1))
}

func TestRotate_ShiftsNewestFirst(t *testing.T) {
	target := filepath.Join(t.TempDir(), "doc.md")
	r := NewRotator(5, logger.Discard())

	for i := 1; i <= 3; i++ {
		write(t, target, fmt.Sprintf("v%d", i))
		r.Rotate(target)
	}

	assert.Equal(t, "v3", read(t, Path(target, 1)))
	assert.Equal(t, "v2", read(t, Path(target, 2)))
	assert.Equal(t, "v1", read(t, Path(target, 3)))
	assert.NoFileExists(t, Path(target, 4))
}

func TestRotate_BoundedByMax(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "doc.md")
	r := NewRotator(0, nil)
	require.Equal(t, DefaultMax, r.Max)

	for i := 1; i <= 7; i++ {
		write(t, target, fmt.Sprintf("v%d", i))
		n := r.Rotate(target)
		assert.LessOrEqual(t, n, DefaultMax)
	}

	backups, err := List(target)
	require.NoError(t, err)
	require.Len(t, backups, 5)
	for i, b := range backups {
		assert.Equal(t, i+1, b.Index)
		assert.Equal(t, fmt.Sprintf("v%d", 7-i), read(t, b.Path))
	}

	matches, err := filepath.Glob(filepath.Join(dir, ".backup-*"))
	require.NoError(t, err)
	assert.Len(t, matches, 5)
}

func TestRotate_FailingSlotIsSkipped(t *testing.T) {
	target := filepath.Join(t.TempDir(), "doc.md")
	var buf bytes.Buffer
	r := NewRotator(2, logger.New(&buf))

	write(t, target, "v1")
	r.Rotate(target)
	// A non-empty directory in slot 2 makes the rename of slot 1 fail.
	require.NoError(t, os.MkdirAll(filepath.Join(Path(target, 2), "child"), 0o755))

	write(t, target, "v2")
	r.Rotate(target)

	assert.Equal(t, "v2", read(t, Path(target, 1)))
	assert.Equal(t, "v2", read(t, target))
	assert.Contains(t, buf.String(), "slot=2")
}

func TestList_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "doc.md")
	write(t, Path(target, 2), "b")
	write(t, Path(target, 1), "a")
	write(t, filepath.Join(dir, ".backup-x-doc.md"), "junk")
	write(t, filepath.Join(dir, ".backup-1-other.md"), "other")
	write(t, filepath.Join(dir, ".backup-0-doc.md"), "zero")

	backups, err := List(target)
	require.NoError(t, err)
	require.Len(t, backups, 2)
	assert.Equal(t, 1, backups[0].Index)
	assert.Equal(t, 2, backups[1].Index)
	assert.EqualValues(t, 1, backups[0].Size)
}

func TestRestore(t *testing.T) {
	target := filepath.Join(t.TempDir(), "doc.md")
	r := NewRotator(5, logger.Discard())

	write(t, target, "old")
	r.Rotate(target)
	write(t, target, "new")

	require.NoError(t, r.Restore(target, 1))
	assert.Equal(t, "old", read(t, target))
	// The overwritten content is now the newest backup.
	assert.Equal(t, "new", read(t, Path(target, 1)))
	assert.Equal(t, "old", read(t, Path(target, 2)))
}

func TestRestore_Errors(t *testing.T) {
	target := filepath.Join(t.TempDir(), "doc.md")
	r := NewRotator(5, logger.Discard())

	tests := []struct {
		name string
		slot int
	}{
		{name: "zero", slot: 0},
		{name: "above max", slot: 6},
		{name: "missing", slot: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Restore(target, tt.slot)
			assert.True(t, errors.Is(err, ErrNoBackup))
		})
	}
}
