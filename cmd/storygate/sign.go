package main

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/storygate/storygate"
)

var signCmd = &cobra.Command{
	Use:   "sign <path>",
	Short: "Issue a signed link for a private object",
	Long: `Issue a time-limited signed link for an object path.

The link carries the expiration, an HMAC token over the path and
expiration, and a shared flag that switches the response to the
public cache policy.

Examples:
  # Link valid for one hour
  storygate sign /private/story1.mp4 --ttl 1h

  # Shareable link with the public cache policy
  storygate sign /private/cover.jpg --ttl 24h --shared

  # Full URL instead of path and query
  storygate sign /private/story1.mp4 --base-url https://media.example.com`,
	Args: cobra.ExactArgs(1),
	RunE: runSign,
}

var (
	signTTL     time.Duration
	signShared  bool
	signBaseURL string
)

func init() {
	signCmd.Flags().DurationVar(&signTTL, "ttl", time.Hour, "link lifetime")
	signCmd.Flags().BoolVar(&signShared, "shared", false, "mark the link shareable (public cache policy)")
	signCmd.Flags().StringVar(&signBaseURL, "base-url", "", "prepend a base URL to the signed path")
	rootCmd.AddCommand(signCmd)
}

func runSign(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Auth.PublicOnly {
		return fmt.Errorf("signed links are disabled: auth.public_only is set")
	}

	path := args[0]
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	signer, err := storygate.NewSigner(cfg.Auth.SigningKey)
	if err != nil {
		return fmt.Errorf("configure signer: %w", err)
	}

	expiresAt := time.Now().Add(signTTL)
	query := signer.IssueQuery(path, expiresAt, signShared)

	link := path + "?" + query.Encode()
	if signBaseURL != "" {
		base, parseErr := url.Parse(signBaseURL)
		if parseErr != nil {
			return fmt.Errorf("parse base url: %w", parseErr)
		}
		base.Path = strings.TrimSuffix(base.Path, "/") + path
		base.RawQuery = query.Encode()
		link = base.String()
	}

	fmt.Fprintln(cmd.OutOrStdout(), link)
	return nil
}
