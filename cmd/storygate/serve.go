package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/storygate/storygate"
	"github.com/storygate/storygate/cache"
	"github.com/storygate/storygate/config"
	storygatehttp "github.com/storygate/storygate/http"
	"github.com/storygate/storygate/metrics"
	"github.com/storygate/storygate/objectstore"
	"github.com/storygate/storygate/objectstore/filesystem"
	"github.com/storygate/storygate/objectstore/gcs"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gateway HTTP server",
	Long:  `Start the storygate HTTP server.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 8972, "HTTP server port")
	serveCmd.Flags().String("public-prefix", "", "path prefix served without validation (default: /shared/)")
	serveCmd.Flags().String("signing-key", "", "link signing key (env: STORYGATE_AUTH_SIGNING_KEY)")
	serveCmd.Flags().Bool("public-only", false, "serve only the public prefix, no signed links")
	serveCmd.Flags().String("storage-backend", "", "storage backend: filesystem, gcs")
	serveCmd.Flags().String("storage-path", "", "media directory (filesystem backend)")
	serveCmd.Flags().String("storage-bucket", "", "gs://bucket/prefix URI (gcs backend)")
	serveCmd.Flags().String("cache-backend", "", "edge cache backend: memory, redis")
	serveCmd.Flags().String("redis-url", "", "redis connection URL (redis cache backend)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	setupLogging(cfg.Log.Level)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	store, closeStore, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	edge, closeCache, err := openCache(cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	var validator *storygate.LinkValidator
	if !cfg.Auth.PublicOnly {
		signer, signerErr := storygate.NewSigner(cfg.Auth.SigningKey)
		if signerErr != nil {
			return fmt.Errorf("configure signer: %w", signerErr)
		}
		validator = storygate.NewLinkValidator(signer)
	} else {
		slog.Warn("running public-only, private paths answer 403")
	}

	handlerConfig := storygatehttp.Config{
		PublicPrefix:          cfg.Server.PublicPrefix,
		SharePrivateResponses: cfg.Cache.SharePrivate,
		MaxCacheableBytes:     cfg.Cache.MaxEntryBytes,
		PopulateWorkers:       cfg.Cache.PopulateWorkers,
	}

	handler := storygatehttp.NewHandler(&handlerConfig, store, edge, validator, slog.Default(), metrics.NewProm("storygate"))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		cancel()
	}()

	slog.Info("starting server",
		"addr", addr,
		"storage", cfg.Storage.Backend,
		"cache", cfg.Cache.Backend,
		"public_prefix", cfg.Server.PublicPrefix,
	)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	// Let in-flight cache population finish before the process exits.
	handler.WaitCacheWrites()
	return nil
}

func openStorage(ctx context.Context, cfg *config.Config) (objectstore.Storage, func(), error) {
	switch cfg.Storage.Backend {
	case "filesystem":
		root, err := os.OpenRoot(cfg.Storage.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open media root: %w", err)
		}

		var index *filesystem.Index
		if cfg.Storage.ETagIndex != "" {
			index, err = filesystem.OpenIndex(ctx, cfg.Storage.ETagIndex)
			if err != nil {
				_ = root.Close()
				return nil, nil, fmt.Errorf("open etag index: %w", err)
			}
		}

		store := filesystem.NewStore(root, index)
		closer := func() {
			if index != nil {
				_ = index.Close()
			}
			_ = root.Close()
		}
		return store, closer, nil

	case "gcs":
		store, err := gcs.New(ctx, cfg.Storage.Bucket)
		if err != nil {
			return nil, nil, fmt.Errorf("open gcs bucket: %w", err)
		}
		return store, func() { _ = store.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}
}

func openCache(cfg *config.Config) (cache.Store, func(), error) {
	switch cfg.Cache.Backend {
	case "memory":
		m := cache.NewMemory(cache.MemoryConfig{
			MaxEntryBytes: cfg.Cache.MaxEntryBytes,
			MaxTotalBytes: cfg.Cache.MaxTotalBytes,
		})
		return m, func() {}, nil

	case "redis":
		r, err := cache.NewRedis(cfg.Cache.RedisURL, 0)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		return r, func() { _ = r.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown cache backend: %s", cfg.Cache.Backend)
	}
}
