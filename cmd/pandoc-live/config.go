// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pandoc-live/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Long: `Show prints the configuration after merging defaults, the config file,
.env, PANDOC_LIVE_* environment variables and flags.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}
		return config.WriteYAML(cmd.OutOrStdout(), cfg)
	},
}

var configPathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Print the directories pandoc-live reads and writes",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "config file: %s\n", viper.ConfigFileUsed())
		fmt.Fprintf(out, "config dir:  %s\n", config.ConfigDir())
		fmt.Fprintf(out, "data dir:    %s\n", config.DataDir())
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configPathsCmd)
	rootCmd.AddCommand(configCmd)
}
