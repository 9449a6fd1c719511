package main

import (
	"github.com/spf13/cobra"

	"github.com/storygate/storygate/config"
)

// loadConfig resolves the effective configuration for a command:
// flags > env > config files > defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	files, _ := cmd.Flags().GetStringSlice("config")
	return config.Load(files, cmd.Flags())
}
