// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package syncctl prevents feedback loops between the editing surface and
// the document. While a program-initiated write is applied, change
// notifications for the document are ignored; fingerprints of the written
// texts also catch notifications delivered after the write completed, which
// with a debounced save queue can be long after newer edits were applied.
package syncctl

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

// ErrBusy is returned by Write when another write is being applied.
var ErrBusy = errors.New("document update already in progress")

// maxPending bounds the fingerprints kept for writes whose change
// notification has not arrived yet. The oldest is dropped first.
const maxPending = 32

// Controller owns the sync flag of one document. The zero value is ready
// to use with the flag cleared.
type Controller struct {
	updating atomic.Bool

	mu      sync.Mutex
	pending []uint64 // oldest first
}

// New returns a controller with the flag cleared.
func New() *Controller {
	return &Controller{}
}

// Updating reports whether a program-initiated write is being applied.
func (c *Controller) Updating() bool {
	return c.updating.Load()
}

// Write sets the flag, runs fn and clears the flag when fn returns, fails
// or panics. fn returns the content it wrote; its fingerprint is kept until
// a matching change notification consumes it. If the flag is already set
// Write returns ErrBusy without running fn.
func (c *Controller) Write(ctx context.Context, fn func(ctx context.Context) (string, error)) error {
	if !c.updating.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer c.updating.Store(false)

	if err := ctx.Err(); err != nil {
		return err
	}

	written, err := fn(ctx)
	if err != nil {
		return err
	}
	c.remember(written)
	return nil
}

func (c *Controller) remember(content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, xxhash.Sum64String(content))
	if n := len(c.pending); n > maxPending {
		c.pending = append(c.pending[:0], c.pending[n-maxPending:]...)
	}
}

// Suppress reports whether a change notification carrying content must be
// ignored: either a write is in progress, or content matches a
// program-initiated write that has not been confirmed yet. The oldest
// matching fingerprint is consumed together with every older one: those
// writes either landed before it or were superseded in the save queue.
func (c *Controller) Suppress(content string) bool {
	if c.updating.Load() {
		return true
	}
	sum := xxhash.Sum64String(content)
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, fp := range c.pending {
		if fp == sum {
			c.pending = append(c.pending[:0], c.pending[i+1:]...)
			return true
		}
	}
	return false
}

// Pending returns the number of program writes not yet confirmed by a
// change notification.
func (c *Controller) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
