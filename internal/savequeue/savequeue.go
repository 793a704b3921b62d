// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package savequeue coalesces bursts of save requests into one debounced
// write per file. Each path has a single pending slot: a new request
// replaces the slot's content, so only the newest content is written.
// Before every write the existing file is rotated into its backup set.
package savequeue

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/pdiddy/pandoc-live/internal/backup"
	"github.com/pdiddy/pandoc-live/internal/logger"
	"github.com/pdiddy/pandoc-live/pkg/types"
)

// DefaultDebounce is the delay between the first request of a burst and
// the write.
const DefaultDebounce = 500 * time.Millisecond

// ErrClosed is returned by RequestSave after Close.
var ErrClosed = errors.New("save queue is closed")

// Observer receives the result of every write attempt. It is called from
// the writing goroutine and must not block for long.
type Observer func(types.SaveResult)

type slot struct {
	content    string
	enqueuedAt time.Time
	coalesced  int
	timer      *time.Timer
}

// Queue is the per-path debounced save coordinator. Writes for one path
// never overlap; different paths write concurrently.
type Queue struct {
	debounce time.Duration
	locking  bool
	rotator  *backup.Rotator
	observer Observer
	log      *logger.Logger

	mu      sync.Mutex
	idle    *sync.Cond
	slots   map[string]*slot
	writing map[string]int
	writers map[string]*sync.Mutex
	active  int
	closed  bool
}

// Option configures a Queue.
type Option func(*Queue)

// WithDebounce sets the delay between the first request of a burst and the
// write. Non-positive values are ignored.
func WithDebounce(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.debounce = d
		}
	}
}

// WithMaxBackups sets the number of backups kept per file.
func WithMaxBackups(n int) Option {
	return func(q *Queue) {
		q.rotator = backup.NewRotator(n, q.log)
	}
}

// WithLocking guards rotation and write with an advisory lock file next
// to the target.
func WithLocking(enabled bool) Option {
	return func(q *Queue) {
		q.locking = enabled
	}
}

// WithObserver registers a function called after every write attempt.
func WithObserver(fn Observer) Option {
	return func(q *Queue) {
		q.observer = fn
	}
}

// WithLogger sets the logger used for write outcomes and rotation failures.
func WithLogger(log *logger.Logger) Option {
	return func(q *Queue) {
		if log != nil {
			q.log = log
			q.rotator.Log = log
		}
	}
}

// New creates a queue with the given options.
func New(opts ...Option) *Queue {
	q := &Queue{
		debounce: DefaultDebounce,
		log:      logger.Discard(),
		slots:    make(map[string]*slot),
		writing:  make(map[string]int),
		writers:  make(map[string]*sync.Mutex),
	}
	q.rotator = backup.NewRotator(backup.DefaultMax, q.log)
	q.idle = sync.NewCond(&q.mu)
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// FromConfig builds the option list for cfg.
func FromConfig(cfg types.SaveConfig) []Option {
	return []Option{
		WithDebounce(cfg.Debounce),
		WithMaxBackups(cfg.MaxBackups),
		WithLocking(cfg.LockFiles),
	}
}

// RequestSave schedules content to be written to path. If a write for path
// is already pending its content is replaced and its timer keeps running:
// the write happens one debounce after the first request of the burst.
func (q *Queue) RequestSave(path, content string) error {
	path = filepath.Clean(path)

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}

	now := time.Now()
	if s, ok := q.slots[path]; ok {
		s.content = content
		s.enqueuedAt = now
		s.coalesced++
		return nil
	}

	s := &slot{content: content, enqueuedAt: now}
	s.timer = time.AfterFunc(q.debounce, func() { q.fire(path, s) })
	q.slots[path] = s
	q.active++
	return nil
}

// State reports whether path has a pending or in-flight write. A write in
// flight takes precedence over a newer pending slot.
func (q *Queue) State(path string) types.SaveState {
	path = filepath.Clean(path)

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.writing[path] > 0 {
		return types.SaveWriting
	}
	if _, ok := q.slots[path]; ok {
		return types.SavePending
	}
	return types.SaveIdle
}

// Pending returns the pending save requests.
func (q *Queue) Pending() []types.SaveRequest {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]types.SaveRequest, 0, len(q.slots))
	for path, s := range q.slots {
		out = append(out, types.SaveRequest{TargetPath: path, Content: s.content, EnqueuedAt: s.enqueuedAt})
	}
	return out
}

// Flush writes every pending slot now and waits until no write is pending
// or in flight.
func (q *Queue) Flush() {
	q.mu.Lock()
	due := make(map[string]*slot)
	for path, s := range q.slots {
		if s.timer.Stop() {
			due[path] = s
		}
	}
	q.mu.Unlock()

	var wg sync.WaitGroup
	for path, s := range due {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.fire(path, s)
		}()
	}
	wg.Wait()

	q.mu.Lock()
	for q.active > 0 {
		q.idle.Wait()
	}
	q.mu.Unlock()
}

// Close stops accepting requests, writes what is pending and waits for
// in-flight writes.
func (q *Queue) Close() error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.Flush()
	return nil
}

func (q *Queue) writer(path string) *sync.Mutex {
	q.mu.Lock()
	defer q.mu.Unlock()
	m, ok := q.writers[path]
	if !ok {
		m = &sync.Mutex{}
		q.writers[path] = m
	}
	return m
}

// fire writes slot s. The per-path writer lock is taken before the slot is
// detached, so requests that arrive while an earlier write runs keep
// replacing this slot's content. The observer runs after the lock is
// released and may see results of one path out of write order.
func (q *Queue) fire(path string, s *slot) {
	w := q.writer(path)
	w.Lock()

	q.mu.Lock()
	if q.slots[path] == s {
		delete(q.slots, path)
	}
	q.writing[path]++
	content, enqueuedAt, coalesced := s.content, s.enqueuedAt, s.coalesced
	q.mu.Unlock()

	result := q.write(path, content)
	result.EnqueuedAt = enqueuedAt
	result.Coalesced = coalesced

	if result.Err != nil {
		q.log.SaveFailed(path, result.Err)
	} else {
		q.log.SaveWritten(path, result.Bytes, result.Backups, result.Coalesced)
	}

	q.mu.Lock()
	if q.writing[path]--; q.writing[path] == 0 {
		delete(q.writing, path)
	}
	q.mu.Unlock()
	w.Unlock()

	if q.observer != nil {
		q.observer(result)
	}

	q.mu.Lock()
	q.active--
	if q.active == 0 {
		q.idle.Broadcast()
	}
	q.mu.Unlock()
}

func (q *Queue) write(path, content string) types.SaveResult {
	result := types.SaveResult{TargetPath: path}

	if q.locking {
		lock := flock.New(LockPath(path))
		if err := lock.Lock(); err != nil {
			result.Err = fmt.Errorf("acquiring lock for %s: %w", path, err)
			result.WrittenAt = time.Now()
			return result
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				q.log.Warn("releasing lock failed", "file", path, "error", err)
			}
		}()
	}

	result.Backups = q.rotator.Rotate(path)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		result.Err = fmt.Errorf("writing %s: %w", path, err)
		result.WrittenAt = time.Now()
		return result
	}
	result.Bytes = len(content)
	result.WrittenAt = time.Now()
	return result
}

// LockPath returns the advisory lock file used for target.
func LockPath(target string) string {
	dir, base := filepath.Split(target)
	return filepath.Join(dir, ".lock-"+base)
}
