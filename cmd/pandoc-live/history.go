// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pandoc-live/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history [file.md]",
	Short: "Show the save journal",
	Long: `History prints the journal of save attempts recorded by serve and stdio,
newest first. Without a file it lists every file. --prune keeps only the
newest N entries per file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, _, cleanup, err := loadConfig()
	if err != nil {
		return err
	}
	defer cleanup()

	store, err := history.Open(cfg.Save.DataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	if keep, _ := cmd.Flags().GetInt("prune"); keep > 0 {
		n, err := store.Prune(ctx, keep)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "pruned %d entries\n", n)
		return nil
	}

	var path string
	if len(args) == 1 {
		if path, err = filepath.Abs(args[0]); err != nil {
			return fmt.Errorf("resolving %s: %w", args[0], err)
		}
	}
	limit, _ := cmd.Flags().GetInt("limit")
	entries, err := store.List(ctx, path, limit)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WRITTEN\tBYTES\tBACKUPS\tCOALESCED\tSTATUS\tPATH")
	for _, e := range entries {
		status := "ok"
		if !e.OK() {
			status = "error: " + e.Error
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\t%s\n",
			e.WrittenAt.Local().Format(time.DateTime), e.Bytes, e.Backups, e.Coalesced, status, e.Path)
	}
	return w.Flush()
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum entries to show (0 for all)")
	historyCmd.Flags().Int("prune", 0, "keep only the newest N entries per file")
	historyCmd.Flags().Bool("json", false, "print entries as JSON")

	rootCmd.AddCommand(historyCmd)
}
