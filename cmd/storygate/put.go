package main

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/storygate/storygate/objectstore/filesystem"
)

var putCmd = &cobra.Command{
	Use:   "put [flags] <file1> [file2] ...",
	Short: "Import media files into the filesystem store",
	Long: `Copy files from external paths into the media directory the
filesystem backend serves from. Files are written atomically and their
ETags are recorded in the index when one is configured.

Examples:
  # Import a single file
  storygate put /path/to/story1.mp4

  # Import under a destination prefix
  storygate put --dest shared/ /path/to/cover.jpg

  # Import a directory recursively
  storygate put -r /path/to/episodes`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPut,
}

var (
	putDest      string
	putRecursive bool
	putQuiet     bool
)

func init() {
	putCmd.Flags().StringVarP(&putDest, "dest", "d", "", "destination path prefix in the store")
	putCmd.Flags().BoolVarP(&putRecursive, "recursive", "r", false, "recursively import directories")
	putCmd.Flags().BoolVarP(&putQuiet, "quiet", "q", false, "suppress per-file output")
	rootCmd.AddCommand(putCmd)
}

// mediaEntry pairs a source file with its destination key in the store.
type mediaEntry struct {
	sourcePath string
	destKey    string
}

func runPut(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	if cfg.Storage.Backend != "filesystem" {
		return fmt.Errorf("put supports the filesystem backend only, storage.backend is %q", cfg.Storage.Backend)
	}

	if err = os.MkdirAll(cfg.Storage.Path, 0o750); err != nil {
		return fmt.Errorf("create media directory: %w", err)
	}

	root, err := os.OpenRoot(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open media root: %w", err)
	}
	defer func() { _ = root.Close() }()

	var index *filesystem.Index
	if cfg.Storage.ETagIndex != "" {
		index, err = filesystem.OpenIndex(ctx, cfg.Storage.ETagIndex)
		if err != nil {
			return fmt.Errorf("open etag index: %w", err)
		}
		defer func() { _ = index.Close() }()
	}

	store := filesystem.NewStore(root, index)

	var files []mediaEntry
	for _, arg := range args {
		entries, collectErr := collectFiles(arg, putRecursive, putDest)
		if collectErr != nil {
			return fmt.Errorf("collect files from %s: %w", arg, collectErr)
		}
		files = append(files, entries...)
	}

	if len(files) == 0 {
		slog.Info("no files to import")
		return nil
	}

	imported := 0
	for _, entry := range files {
		f, openErr := os.Open(entry.sourcePath)
		if openErr != nil {
			return fmt.Errorf("open %s: %w", entry.sourcePath, openErr)
		}

		info, writeErr := store.Write(ctx, entry.destKey, f)
		_ = f.Close()
		if writeErr != nil {
			return fmt.Errorf("import %s: %w", entry.destKey, writeErr)
		}

		imported++
		if !putQuiet {
			slog.Info("imported",
				"key", info.Key,
				"content_type", info.ContentType,
				"size", info.Size,
			)
		}
	}

	slog.Info("import complete", "files", imported)
	return nil
}

// collectFiles gathers files from a path, optionally recursively.
func collectFiles(path string, recursive bool, destPrefix string) ([]mediaEntry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	destPrefix = strings.TrimPrefix(destPrefix, "/")
	if destPrefix != "" && !strings.HasSuffix(destPrefix, "/") {
		destPrefix += "/"
	}

	if !info.IsDir() {
		return []mediaEntry{{sourcePath: path, destKey: destPrefix + filepath.Base(path)}}, nil
	}

	if !recursive {
		return nil, fmt.Errorf("%s is a directory (use -r to import recursively)", path)
	}

	var entries []mediaEntry
	walkErr := filepath.WalkDir(path, func(walkPath string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}

		relPath, relErr := filepath.Rel(path, walkPath)
		if relErr != nil {
			return relErr
		}

		entries = append(entries, mediaEntry{
			sourcePath: walkPath,
			destKey:    destPrefix + filepath.ToSlash(relPath),
		})
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	return entries, nil
}
