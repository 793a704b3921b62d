// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pandoc-live CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pandoc-live/internal/config"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the pandoc-live CLI.
var rootCmd = &cobra.Command{
	Use:   "pandoc-live",
	Short: "Edit Markdown documents as rendered HTML, kept in sync through pandoc",
	Long: `pandoc-live keeps a Markdown file and a WYSIWYG editing surface in sync.
Edits made in the browser (serve) or in an editor integration (stdio) are
converted back to Markdown with pandoc and saved with rotating backups;
changes made to the file by other programs are rendered back to the surface.

The convert command exposes the same pipeline for one-off conversions.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./pandoc-live.yaml or $XDG_CONFIG_HOME/pandoc-live/pandoc-live.yaml)")
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file with PANDOC_LIVE_* overrides")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-file", "", "also append logs to this file")
	rootCmd.PersistentFlags().String("backend", "", "pandoc backend: local or container")

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.file", rootCmd.PersistentFlags().Lookup("log-file"))
	_ = viper.BindPFlag("pandoc.backend", rootCmd.PersistentFlags().Lookup("backend"))
}

func initConfig() {
	envFile, _ := rootCmd.PersistentFlags().GetString("env-file")
	if err := config.LoadDotEnv(envFile); err != nil {
		fmt.Fprintln(os.Stderr, "warning:", err)
	}

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	used, err := config.Init(viper.GetViper(), cfgFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "warning:", err)
		return
	}
	if used != "" {
		fmt.Fprintln(os.Stderr, "Using config file:", used)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
