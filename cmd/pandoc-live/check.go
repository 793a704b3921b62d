// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pandoc-live/internal/pandoc"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that pandoc can be run",
	Long: `Check starts the configured pandoc backend, runs pandoc --version and
reports the result. It exits non-zero when pandoc is unavailable.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, log, cleanup, err := loadConfig()
	if err != nil {
		return err
	}
	defer cleanup()

	h, err := pandoc.Open(cmd.Context(), cfg.Pandoc, log)
	if err != nil {
		return err
	}
	defer h.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "backend:  %s\n", cfg.Pandoc.Backend)
	if !h.Ready() {
		fmt.Fprintf(out, "status:   unavailable (%v)\n", h.Reason())
		return pandoc.ErrNotReady
	}
	fmt.Fprintf(out, "status:   ready\n")
	fmt.Fprintf(out, "version:  %s\n", h.Version())
	fmt.Fprintf(out, "temp dir: %s\n", h.TempDir())
	return nil
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
