// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package backup maintains the rotating set of backups kept next to every
// saved document. Slot 1 is the newest copy; slot Max the oldest.
package backup

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/pandoc-live/internal/logger"
)

// DefaultMax is the number of backups kept per file when none is configured.
const DefaultMax = 5

const prefix = ".backup-"

// ErrNoBackup is returned by Restore when the requested slot does not exist.
var ErrNoBackup = errors.New("backup slot does not exist")

// Backup describes one existing backup file.
type Backup struct {
	Index   int       `json:"index" yaml:"index"`
	Path    string    `json:"path" yaml:"path"`
	Size    int64     `json:"size" yaml:"size"`
	ModTime time.Time `json:"mod_time" yaml:"mod_time"`
}

// Path returns the location of backup slot n for target.
func Path(target string, n int) string {
	dir, base := filepath.Split(target)
	return filepath.Join(dir, prefix+strconv.Itoa(n)+"-"+filepath.Base(base))
}

// Rotator shifts backups for a target and copies the current file into
// slot 1. Failures of individual slots are logged and skipped.
type Rotator struct {
	Max int
	Log *logger.Logger
}

// NewRotator returns a rotator keeping max backups. A max below 1 means
// DefaultMax.
func NewRotator(max int, log *logger.Logger) *Rotator {
	if max < 1 {
		max = DefaultMax
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Rotator{Max: max, Log: log}
}

// Rotate moves slot i to i+1 for i = Max-1 down to 1, overwriting slot Max,
// then copies target into slot 1. A missing target is not an error and
// leaves the set untouched. Rotate returns the number of backups that exist
// afterwards.
func (r *Rotator) Rotate(target string) int {
	if _, err := os.Stat(target); err != nil {
		return r.count(target)
	}

	for i := r.Max - 1; i >= 1; i-- {
		from := Path(target, i)
		if _, err := os.Stat(from); err != nil {
			continue
		}
		if err := os.Rename(from, Path(target, i+1)); err != nil {
			r.Log.BackupFailed(target, i+1, err)
		}
	}

	if err := copyFile(target, Path(target, 1)); err != nil {
		r.Log.BackupFailed(target, 1, err)
	}
	return r.count(target)
}

func (r *Rotator) count(target string) int {
	n := 0
	for i := 1; i <= r.Max; i++ {
		if _, err := os.Stat(Path(target, i)); err == nil {
			n++
		}
	}
	return n
}

// List returns the existing backups for target ordered newest first. Files
// that match the naming scheme but fall outside any slot are ignored.
func List(target string) ([]Backup, error) {
	dir := filepath.Dir(target)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	suffix := "-" + filepath.Base(target)
	var out []Backup
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, prefix), suffix))
		if err != nil || n < 1 {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Backup{
			Index:   n,
			Path:    filepath.Join(dir, name),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

// Restore copies backup slot n back over target. The current target is
// rotated first, so the restore itself can be undone from slot 1.
func (r *Rotator) Restore(target string, n int) error {
	if n < 1 || n > r.Max {
		return fmt.Errorf("backup slot %d out of range 1..%d: %w", n, r.Max, ErrNoBackup)
	}
	src := Path(target, n)
	data, err := os.ReadFile(src)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("restoring %s from slot %d: %w", target, n, ErrNoBackup)
	}
	if err != nil {
		return fmt.Errorf("reading backup %s: %w", src, err)
	}

	r.Rotate(target)
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", target, err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying to %s: %w", dst, err)
	}
	return out.Close()
}
