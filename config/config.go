package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the root configuration struct for storygate.
type Config struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Auth    AuthConfig    `mapstructure:"auth" yaml:"auth"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Cache   CacheConfig   `mapstructure:"cache" yaml:"cache"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         int    `mapstructure:"port" yaml:"port" validate:"required,min=1,max=65535"`
	PublicPrefix string `mapstructure:"public_prefix" yaml:"public_prefix" validate:"required,startswith=/,endswith=/"`
}

// AuthConfig holds signed-link configuration.
//
// SigningKey has no default on purpose. A deployment serving private
// content must configure one or the server refuses to start; a public-only
// deployment sets public_only instead and the gateway fails closed on any
// private path.
type AuthConfig struct {
	SigningKey string `mapstructure:"signing_key" yaml:"signing_key"`
	PublicOnly bool   `mapstructure:"public_only" yaml:"public_only"`
}

// StorageConfig selects and configures the backing object store.
type StorageConfig struct {
	Backend string `mapstructure:"backend" yaml:"backend" validate:"required,oneof=filesystem gcs"`
	// Path is the local media directory (filesystem backend).
	Path string `mapstructure:"path" yaml:"path"`
	// ETagIndex is the SQLite ETag memo for the filesystem backend; empty
	// disables it and every cold read re-hashes the file.
	ETagIndex string `mapstructure:"etag_index" yaml:"etag_index"`
	// Bucket is a "gs://bucket/prefix" URI (gcs backend).
	Bucket string `mapstructure:"bucket" yaml:"bucket"`
}

// CacheConfig configures the edge cache.
type CacheConfig struct {
	Backend       string `mapstructure:"backend" yaml:"backend" validate:"required,oneof=memory redis"`
	SharePrivate  bool   `mapstructure:"share_private" yaml:"share_private"`
	RedisURL      string `mapstructure:"redis_url" yaml:"redis_url"`
	MaxEntryBytes int64  `mapstructure:"max_entry_bytes" yaml:"max_entry_bytes" validate:"min=0"`
	MaxTotalBytes int64  `mapstructure:"max_total_bytes" yaml:"max_total_bytes" validate:"min=0"`
	// PopulateWorkers bounds concurrent background cache writes.
	PopulateWorkers int `mapstructure:"populate_workers" yaml:"populate_workers" validate:"min=0"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=debug info warn error"`
}

// SetDefaults configures default values on the viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8972)
	v.SetDefault("server.public_prefix", "/shared/")

	v.SetDefault("auth.public_only", false)

	v.SetDefault("storage.backend", "filesystem")
	v.SetDefault("storage.path", "./media")
	v.SetDefault("storage.etag_index", "")
	v.SetDefault("storage.bucket", "")

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.share_private", true)
	v.SetDefault("cache.redis_url", "redis://localhost:6379")
	v.SetDefault("cache.max_entry_bytes", 0)
	v.SetDefault("cache.max_total_bytes", 0)
	v.SetDefault("cache.populate_workers", 8)

	v.SetDefault("log.level", "info")
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	SetDefaults(v)

	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	v.SetEnvPrefix("STORYGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		bindFlags(v, flags)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks structural constraints plus the cross-field rules the
// tag-based validator cannot express.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	if c.Auth.SigningKey == "" && !c.Auth.PublicOnly {
		return errors.New("validate config: auth.signing_key is required unless auth.public_only is set")
	}
	if c.Auth.SigningKey != "" && c.Auth.PublicOnly {
		return errors.New("validate config: auth.signing_key and auth.public_only are mutually exclusive")
	}

	switch c.Storage.Backend {
	case "filesystem":
		if c.Storage.Path == "" {
			return errors.New("validate config: storage.path is required for the filesystem backend")
		}
	case "gcs":
		if c.Storage.Bucket == "" {
			return errors.New("validate config: storage.bucket is required for the gcs backend")
		}
	}

	if c.Cache.Backend == "redis" && c.Cache.RedisURL == "" {
		return errors.New("validate config: cache.redis_url is required for the redis backend")
	}

	return nil
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"port":            "server.port",
	"public-prefix":   "server.public_prefix",
	"signing-key":     "auth.signing_key",
	"public-only":     "auth.public_only",
	"storage-backend": "storage.backend",
	"storage-path":    "storage.path",
	"storage-bucket":  "storage.bucket",
	"cache-backend":   "cache.backend",
	"redis-url":       "cache.redis_url",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}
