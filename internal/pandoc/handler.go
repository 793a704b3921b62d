// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pandoc

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pdiddy/pandoc-live/internal/container"
	"github.com/pdiddy/pandoc-live/internal/logger"
	"github.com/pdiddy/pandoc-live/pkg/types"
)

const tempDirPattern = "pandoc-live-"

// Handler is a Runner that refuses to run until pandoc has answered a
// --version probe. It owns the temporary working directory used for the
// lifetime of the process.
type Handler struct {
	runner  Runner
	log     *logger.Logger
	tempDir string
	ready   bool
	version string
	reason  error
}

// Open creates the working directory, builds the runner selected by cfg,
// and probes it. A failed probe is not an error: the handler is returned
// not ready and every Run fails with ErrNotReady. Open fails only when the
// working directory cannot be created.
func Open(ctx context.Context, cfg types.PandocConfig, log *logger.Logger) (*Handler, error) {
	dir, err := os.MkdirTemp("", tempDirPattern)
	if err != nil {
		return nil, fmt.Errorf("creating temporary directory: %w", err)
	}
	log.Info("using temporary directory", "dir", dir)

	runner, err := newRunner(cfg, dir, log)
	if err != nil {
		h := &Handler{log: log, tempDir: dir, reason: err}
		log.Error("pandoc is not available", "error", err)
		return h, nil
	}

	h := NewHandler(ctx, runner, log)
	h.tempDir = dir
	return h, nil
}

func newRunner(cfg types.PandocConfig, dir string, log *logger.Logger) (Runner, error) {
	switch cfg.Backend {
	case types.BackendLocal, "":
		binary := cfg.Binary
		if binary == "" {
			binary = "pandoc"
		}
		return NewLocalRunner(binary, dir, log), nil
	case types.BackendContainer:
		rt, err := container.DetectRuntime()
		if err != nil {
			return nil, err
		}
		if err := rt.ImageExists(cfg.Image); err != nil {
			return nil, err
		}
		return NewContainerRunner(rt, cfg.Image, log), nil
	default:
		return nil, fmt.Errorf("unknown pandoc backend %q", cfg.Backend)
	}
}

// NewHandler probes runner and returns a handler without a working
// directory of its own.
func NewHandler(ctx context.Context, runner Runner, log *logger.Logger) *Handler {
	h := &Handler{runner: runner, log: log}
	out, err := runner.Run(ctx, []string{"--version"}, "")
	if err != nil {
		h.reason = err
		log.Error("pandoc is not available", "error", err)
		return h
	}
	h.ready = true
	h.version = firstLine(out)
	log.Debug("pandoc ready", "version", h.version)
	return h
}

// Ready reports whether the probe succeeded.
func (h *Handler) Ready() bool { return h.ready }

// Version returns the first line of pandoc --version.
func (h *Handler) Version() string { return h.version }

// Reason returns why the handler is not ready, or nil.
func (h *Handler) Reason() error { return h.reason }

// TempDir returns the process-lifetime working directory, if any.
func (h *Handler) TempDir() string { return h.tempDir }

// Run delegates to the underlying runner once the handler is ready.
func (h *Handler) Run(ctx context.Context, args []string, input string) (string, error) {
	if !h.ready {
		return "", ErrNotReady
	}
	return h.runner.Run(ctx, args, input)
}

// Close removes the working directory.
func (h *Handler) Close() error {
	if h.tempDir == "" {
		return nil
	}
	if err := os.RemoveAll(h.tempDir); err != nil {
		return fmt.Errorf("removing temporary directory %s: %w", h.tempDir, err)
	}
	h.log.Info("cleaned up temporary directory", "dir", h.tempDir)
	h.tempDir = ""
	return nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
