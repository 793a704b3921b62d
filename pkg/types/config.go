package types

import "time"

// PandocBackend identifies how the pandoc binary is executed.
type PandocBackend string

const (
	BackendLocal     PandocBackend = "local"
	BackendContainer PandocBackend = "container"
)

// PandocConfig holds settings for running the external converter.
type PandocConfig struct {
	// Backend selects a local pandoc binary or a container image.
	Backend PandocBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// Binary is the pandoc executable name or path for the local backend.
	Binary string `json:"binary" yaml:"binary" mapstructure:"binary"`

	// Image is the container image for the container backend
	// (e.g. "pandoc/core:latest").
	Image string `json:"image" yaml:"image" mapstructure:"image"`

	// ExtraArgs is a shell-style string of arguments appended to every
	// generic conversion (e.g. "--toc --number-sections").
	ExtraArgs string `json:"extra_args,omitempty" yaml:"extra_args,omitempty" mapstructure:"extra_args"`

	// Timeout bounds a single conversion. Zero means no deadline.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// ProseWrap is the line-wrapping policy of the final formatting pass.
type ProseWrap string

const (
	ProseWrapPreserve ProseWrap = "preserve"
	ProseWrapAlways   ProseWrap = "always"
	ProseWrapNever    ProseWrap = "never"
)

// FormatConfig holds settings for the Markdown formatting pass.
type FormatConfig struct {
	// ProseWrap is preserve (default), always, or never.
	ProseWrap ProseWrap `json:"prose_wrap" yaml:"prose_wrap" mapstructure:"prose_wrap"`

	// Width is the wrap column used by ProseWrapAlways (default 80).
	Width int `json:"width" yaml:"width" mapstructure:"width"`
}

// SaveConfig holds settings for the save queue and backups.
type SaveConfig struct {
	// Debounce is the delay between the first request of a burst and the
	// write (default 500ms).
	Debounce time.Duration `json:"debounce" yaml:"debounce" mapstructure:"debounce"`

	// MaxBackups is the number of rotated backups kept per file (default 5).
	MaxBackups int `json:"max_backups" yaml:"max_backups" mapstructure:"max_backups"`

	// LockFiles guards rotation and write with an advisory file lock.
	LockFiles bool `json:"lock_files" yaml:"lock_files" mapstructure:"lock_files"`

	// History records every write attempt in the SQLite journal.
	History bool `json:"history" yaml:"history" mapstructure:"history"`

	// DataDir holds the history database. Empty means the XDG data dir.
	DataDir string `json:"data_dir,omitempty" yaml:"data_dir,omitempty" mapstructure:"data_dir"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is debug, info, warn, or error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// File, when set, receives log output in addition to stderr.
	File string `json:"file,omitempty" yaml:"file,omitempty" mapstructure:"file"`
}

// ServerConfig holds settings for the editing-surface HTTP server.
type ServerConfig struct {
	// Addr is the listen address (default 127.0.0.1:8642).
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`
}

// Config groups all settings. A Config is built once per load and not
// mutated afterwards.
type Config struct {
	Pandoc PandocConfig `json:"pandoc" yaml:"pandoc" mapstructure:"pandoc"`
	Format FormatConfig `json:"format" yaml:"format" mapstructure:"format"`
	Save   SaveConfig   `json:"save" yaml:"save" mapstructure:"save"`
	Log    LogConfig    `json:"log" yaml:"log" mapstructure:"log"`
	Server ServerConfig `json:"server" yaml:"server" mapstructure:"server"`
}
