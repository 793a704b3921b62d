// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// SaveState is the per-path state of the save queue.
type SaveState string

const (
	SaveIdle    SaveState = "idle"
	SavePending SaveState = "pending"
	SaveWriting SaveState = "writing"
)

// SaveRequest asks for content to be written to TargetPath. Requests for the
// same path that arrive before the pending write runs are coalesced: only the
// most recent Content is written.
type SaveRequest struct {
	TargetPath string    `json:"target_path" yaml:"target_path"`
	Content    string    `json:"content" yaml:"content"`
	EnqueuedAt time.Time `json:"enqueued_at" yaml:"enqueued_at"`
}

// SaveResult describes one completed write attempt.
type SaveResult struct {
	// TargetPath is the file that was written.
	TargetPath string `json:"target_path" yaml:"target_path"`

	// Bytes is the size of the written content.
	Bytes int `json:"bytes" yaml:"bytes"`

	// Backups is the number of backup files present after rotation.
	Backups int `json:"backups" yaml:"backups"`

	// Coalesced counts the earlier requests whose content was replaced
	// before the write ran.
	Coalesced int `json:"coalesced" yaml:"coalesced"`

	// EnqueuedAt is the time of the most recent request that was written.
	EnqueuedAt time.Time `json:"enqueued_at" yaml:"enqueued_at"`

	// WrittenAt is when the write attempt finished.
	WrittenAt time.Time `json:"written_at" yaml:"written_at"`

	// Err is non-nil when the write failed.
	Err error `json:"-" yaml:"-"`
}

// OK reports whether the write succeeded.
func (r SaveResult) OK() bool {
	return r.Err == nil
}
