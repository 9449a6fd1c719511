// Package config loads and validates storygate configuration from YAML
// files, STORYGATE_-prefixed environment variables, and CLI flags, in
// ascending order of precedence.
package config
