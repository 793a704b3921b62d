// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/pdiddy/pandoc-live/internal/config"
	"github.com/pdiddy/pandoc-live/internal/convert"
	"github.com/pdiddy/pandoc-live/internal/document"
	"github.com/pdiddy/pandoc-live/internal/format"
	"github.com/pdiddy/pandoc-live/internal/history"
	"github.com/pdiddy/pandoc-live/internal/logger"
	"github.com/pdiddy/pandoc-live/internal/pandoc"
	"github.com/pdiddy/pandoc-live/internal/savequeue"
	"github.com/pdiddy/pandoc-live/internal/session"
	"github.com/pdiddy/pandoc-live/pkg/types"
)

// historyTimeout bounds one journal insert from the save observer.
const historyTimeout = 5 * time.Second

// loadConfig returns the validated configuration and a logger built
// from it. The cleanup closes the log file, if any.
func loadConfig() (types.Config, *logger.Logger, func(), error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return types.Config{}, nil, nil, err
	}
	log, cleanup, err := logger.Open(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return types.Config{}, nil, nil, err
	}
	return cfg, log, cleanup, nil
}

// openPipeline starts the pandoc handler and builds the conversion
// pipeline on top of it. A handler that is not ready is an error here:
// every command that needs a pipeline needs pandoc.
func openPipeline(ctx context.Context, cfg types.Config, log *logger.Logger) (*convert.Pipeline, *pandoc.Handler, error) {
	h, err := pandoc.Open(ctx, cfg.Pandoc, log)
	if err != nil {
		return nil, nil, err
	}
	if !h.Ready() {
		h.Close()
		return nil, nil, fmt.Errorf("%w: %v", pandoc.ErrNotReady, h.Reason())
	}
	f, err := format.New(cfg.Format)
	if err != nil {
		h.Close()
		return nil, nil, fmt.Errorf("format: %w", err)
	}
	return convert.New(h, f, log), h, nil
}

// editor is everything an editing session needs for one document.
type editor struct {
	runID    string
	cfg      types.Config
	log      *logger.Logger
	pipeline *convert.Pipeline
	handler  *pandoc.Handler
	doc      *document.Document
	hub      *session.Hub
	queue    *savequeue.Queue
	history  *history.Store
}

// openEditor wires pipeline, document, hub, save queue and history for
// path.
func openEditor(ctx context.Context, cfg types.Config, log *logger.Logger, path string) (*editor, error) {
	pipeline, h, err := openPipeline(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	doc, err := document.Open(path)
	if err != nil {
		h.Close()
		return nil, err
	}

	e := &editor{
		runID:    uuid.NewString(),
		cfg:      cfg,
		log:      log,
		pipeline: pipeline,
		handler:  h,
		doc:      doc,
		hub:      session.NewHub(doc, log),
	}

	if cfg.Save.History {
		store, err := history.Open(cfg.Save.DataDir)
		if err != nil {
			log.Warn("save history disabled", "error", err)
		} else {
			e.history = store
		}
	}

	opts := append(savequeue.FromConfig(cfg.Save),
		savequeue.WithLogger(log),
		savequeue.WithObserver(e.observe),
	)
	e.queue = savequeue.New(opts...)
	return e, nil
}

// observe forwards a save result to the sessions and the journal.
func (e *editor) observe(res types.SaveResult) {
	e.hub.SaveResult(res)
	if e.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
	defer cancel()
	if _, err := e.history.Record(ctx, res, e.runID); err != nil {
		e.log.Warn("recording save history failed", "error", err)
	}
}

// sessionOptions returns the options applied to every session.
func (e *editor) sessionOptions() []session.Option {
	return []session.Option{
		session.WithTimeout(e.cfg.Pandoc.Timeout),
		session.WithOptions(types.DefaultConversionOptions()),
	}
}

// onExternalChange is the document watcher callback.
func (e *editor) onExternalChange(ctx context.Context) func(string) {
	return func(content string) {
		if e.hub.ExternalChange(ctx, content) {
			e.log.Info("document changed on disk", "file", e.doc.Path())
		}
	}
}

// Close flushes pending saves and releases resources.
func (e *editor) Close() {
	if err := e.queue.Close(); err != nil {
		e.log.Warn("closing save queue failed", "error", err)
	}
	if e.history != nil {
		e.history.Close()
	}
	if err := e.handler.Close(); err != nil {
		e.log.Warn("removing temporary directory failed", "error", err)
	}
}
