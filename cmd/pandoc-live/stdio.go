// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/pandoc-live/internal/document"
	"github.com/pdiddy/pandoc-live/internal/transport"
)

var stdioCmd = &cobra.Command{
	Use:   "stdio <file.md>",
	Short: "Serve one editing session over stdin/stdout",
	Long: `Stdio attaches one editing session to a Markdown file and exchanges JSON
messages, one per line, on stdin and stdout. It is meant for editor
integrations that host their own editing surface.

Inbound:  {"type":"save"|"updateContent"|"ready","content":"<html>"}
Outbound: {"type":"saved","success":true,"content":"<markdown>"}
          {"type":"update","content":"<html>"}

The session ends when stdin is closed; pending saves are written first.`,
	Args: cobra.ExactArgs(1),
	RunE: runStdio,
}

func runStdio(cmd *cobra.Command, args []string) error {
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

	sess := ed.hub.NewSession(ed.pipeline, ed.queue, transport.NewLineWriter(cmd.OutOrStdout()), ed.sessionOptions()...)
	defer ed.hub.Remove(sess)

	ctx, cancel := context.WithCancel(ctx)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// End of input ends the session and stops the watcher.
		defer cancel()
		return transport.ServeLines(ctx, cmd.InOrStdin(), sess, log)
	})
	g.Go(func() error {
		return watcher.Run(ctx, ed.onExternalChange(ctx))
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func init() {
	rootCmd.AddCommand(stdioCmd)
}
