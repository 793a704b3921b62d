// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pandoc-live/internal/backup"
)

var backupsCmd = &cobra.Command{
	Use:   "backups <file.md>",
	Short: "List the rotating backups of a file",
	Long: `Backups lists the copies kept next to a file before each save, newest
first. Slot 1 is the content the file had before the most recent save.`,
	Args: cobra.ExactArgs(1),
	RunE: runBackups,
}

func runBackups(cmd *cobra.Command, args []string) error {
	target, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolving %s: %w", args[0], err)
	}
	list, err := backup.List(target)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "no backups for %s\n", target)
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SLOT\tSIZE\tMODIFIED\tPATH")
	for _, b := range list {
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", b.Index, b.Size, b.ModTime.Format(time.DateTime), b.Path)
	}
	return w.Flush()
}

var backupsRestoreCmd = &cobra.Command{
	Use:   "restore <file.md> <slot>",
	Short: "Restore a file from a backup slot",
	Long: `Restore copies a backup over the file. The current content is rotated
into slot 1 first, so a restore can itself be undone.`,
	Args: cobra.ExactArgs(2),
	RunE: runBackupsRestore,
}

func runBackupsRestore(cmd *cobra.Command, args []string) error {
	cfg, log, cleanup, err := loadConfig()
	if err != nil {
		return err
	}
	defer cleanup()

	target, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolving %s: %w", args[0], err)
	}
	slot, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid slot %q: %w", args[1], err)
	}

	r := backup.NewRotator(cfg.Save.MaxBackups, log)
	if err := r.Restore(target, slot); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "restored %s from slot %d\n", target, slot)
	return nil
}

func init() {
	backupsCmd.AddCommand(backupsRestoreCmd)
	rootCmd.AddCommand(backupsCmd)
}
