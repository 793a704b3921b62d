// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/pandoc-live/internal/document"
	"github.com/pdiddy/pandoc-live/internal/transport"
)

var serveCmd = &cobra.Command{
	Use:   "serve <file.md>",
	Short: "Edit a Markdown file in the browser",
	Long: `Serve opens the editing surface for a Markdown file at server.addr. Edits
are converted back to Markdown and saved after save.debounce; the file is
watched and changes made by other programs are pushed to the browser.`,
	Args: cobra.ExactArgs(1),
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, cleanup, err := loadConfig()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	ed, err := openEditor(ctx, cfg, log, args[0])
	if err != nil {
		return err
	}
	defer ed.Close()

	watcher, err := document.NewWatcher(ed.doc.Path(), log)
	if err != nil {
		return err
	}

	srv := transport.NewServer(ed.hub, ed.pipeline, ed.queue, log, ed.sessionOptions()...)
	log.Info("editing", "file", ed.doc.Path(), "pandoc", ed.handler.Version())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(ctx, cfg.Server.Addr)
	})
	g.Go(func() error {
		return watcher.Run(ctx, ed.onExternalChange(ctx))
	})
	return g.Wait()
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))

	rootCmd.AddCommand(serveCmd)
}
