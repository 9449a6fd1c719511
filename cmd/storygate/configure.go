package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/storygate/storygate/config"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Interactively write a config file",
	Long: `Walk through the gateway settings and write a config.yaml.

You will be prompted for:
  - Server port and public prefix
  - Storage backend (filesystem or gcs) and its location
  - Edge cache backend (memory or redis)
  - Link signing key, or public-only mode

The resulting file is validated before it is written.`,
	RunE: runConfigure,
}

var configureOutput string

func init() {
	configureCmd.Flags().StringVarP(&configureOutput, "output", "o", "config.yaml", "output file path")
	rootCmd.AddCommand(configureCmd)
}

func runConfigure(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(configureOutput); err == nil {
		confirm := promptui.Prompt{
			Label:     fmt.Sprintf("%s already exists. Overwrite it", configureOutput),
			IsConfirm: true,
		}
		if _, promptErr := confirm.Run(); promptErr != nil {
			fmt.Println("Cancelled.")
			return nil //nolint:nilerr // User cancelled, not an error
		}
	}

	var cfg config.Config

	portPrompt := promptui.Prompt{
		Label:   "Server port",
		Default: "8972",
		Validate: func(input string) error {
			p, convErr := strconv.Atoi(input)
			if convErr != nil || p < 1 || p > 65535 {
				return errors.New("port must be between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	prefixPrompt := promptui.Prompt{
		Label:   "Public path prefix",
		Default: "/shared/",
		Validate: func(input string) error {
			if len(input) < 2 || input[0] != '/' || input[len(input)-1] != '/' {
				return errors.New("prefix must start and end with /")
			}
			return nil
		},
	}
	cfg.Server.PublicPrefix, err = prefixPrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}

	storageSelect := promptui.Select{
		Label: "Storage backend",
		Items: []string{"filesystem", "gcs"},
	}
	_, cfg.Storage.Backend, err = storageSelect.Run()
	if err != nil {
		return handlePromptError(err)
	}

	switch cfg.Storage.Backend {
	case "filesystem":
		pathPrompt := promptui.Prompt{
			Label:   "Media directory",
			Default: "./media",
		}
		cfg.Storage.Path, err = pathPrompt.Run()
		if err != nil {
			return handlePromptError(err)
		}

		indexPrompt := promptui.Prompt{
			Label:   "ETag index database (empty to disable)",
			Default: "",
		}
		cfg.Storage.ETagIndex, err = indexPrompt.Run()
		if err != nil {
			return handlePromptError(err)
		}

	case "gcs":
		bucketPrompt := promptui.Prompt{
			Label: "Bucket URI (gs://bucket/prefix)",
			Validate: func(input string) error {
				if input == "" {
					return errors.New("bucket URI is required")
				}
				return nil
			},
		}
		cfg.Storage.Bucket, err = bucketPrompt.Run()
		if err != nil {
			return handlePromptError(err)
		}
	}

	cacheSelect := promptui.Select{
		Label: "Edge cache backend",
		Items: []string{"memory", "redis"},
	}
	_, cfg.Cache.Backend, err = cacheSelect.Run()
	if err != nil {
		return handlePromptError(err)
	}

	if cfg.Cache.Backend == "redis" {
		redisPrompt := promptui.Prompt{
			Label:   "Redis URL",
			Default: "redis://localhost:6379",
		}
		cfg.Cache.RedisURL, err = redisPrompt.Run()
		if err != nil {
			return handlePromptError(err)
		}
	}
	cfg.Cache.SharePrivate = true
	cfg.Cache.PopulateWorkers = 8

	publicOnlyPrompt := promptui.Prompt{
		Label:     "Serve public paths only (no signed links)",
		IsConfirm: true,
	}
	if _, promptErr := publicOnlyPrompt.Run(); promptErr == nil {
		cfg.Auth.PublicOnly = true
	} else if !errors.Is(promptErr, promptui.ErrAbort) {
		return handlePromptError(promptErr)
	}

	if !cfg.Auth.PublicOnly {
		keyPrompt := promptui.Prompt{
			Label: "Link signing key",
			Mask:  '*',
			Validate: func(input string) error {
				if input == "" {
					return errors.New("signing key is required")
				}
				return nil
			},
		}
		cfg.Auth.SigningKey, err = keyPrompt.Run()
		if err != nil {
			return handlePromptError(err)
		}
	}

	cfg.Log.Level = "info"

	if err := cfg.Validate(); err != nil {
		return err
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(configureOutput, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Printf("Wrote %s\n", configureOutput)
	return nil
}

func handlePromptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) {
		fmt.Println("\nCancelled.")
		os.Exit(0)
	}
	if errors.Is(err, promptui.ErrAbort) {
		fmt.Println("Cancelled.")
		return nil
	}
	return err
}
