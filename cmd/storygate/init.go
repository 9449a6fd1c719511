package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/storygate/storygate/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with default settings",
	Long: `Write a config.yaml populated with the gateway defaults.

The signing key is left empty and must be filled in (or auth.public_only
set) before the server will start. Use 'storygate configure' for an
interactive walkthrough instead.`,
	RunE: runInit,
}

var initOutput string

func init() {
	initCmd.Flags().StringVarP(&initOutput, "output", "o", "config.yaml", "output file path")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(initOutput); err == nil {
		return fmt.Errorf("%s already exists, remove it first or use --output", initOutput)
	}

	cfg := config.Config{
		Server: config.ServerConfig{
			Port:         8972,
			PublicPrefix: "/shared/",
		},
		Storage: config.StorageConfig{
			Backend: "filesystem",
			Path:    "./media",
		},
		Cache: config.CacheConfig{
			Backend:         "memory",
			SharePrivate:    true,
			RedisURL:        "redis://localhost:6379",
			PopulateWorkers: 8,
		},
		Log: config.LogConfig{Level: "info"},
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(initOutput, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Printf("Wrote %s\nSet auth.signing_key (or auth.public_only) before starting the server.\n", initOutput)
	return nil
}
