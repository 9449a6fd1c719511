// Package filesystem provides a local filesystem binding for the backing
// object store. Reads are sandboxed under an os.Root to prevent path
// traversal, ETags are SHA256 content hashes, and content types are
// detected from file extensions. An optional SQLite index memoizes ETags by
// path, size, and mtime so large media files are not re-hashed on every
// cold fetch.
package filesystem

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/storygate/storygate/objectstore"
)

// Store provides filesystem-backed object reads.
type Store struct {
	root  *os.Root
	index *Index
}

// NewStore creates a Store rooted at root. The index may be nil, in which
// case every metadata read hashes the file contents.
func NewStore(root *os.Root, index *Index) *Store {
	return &Store{root: root, index: index}
}

// Get opens an object for reading. Returns objectstore.ErrNotFound if the
// file does not exist.
func (s *Store) Get(ctx context.Context, key string) (objectstore.ObjectInfo, io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return objectstore.ObjectInfo{}, nil, err
	}

	f, err := s.root.Open(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return objectstore.ObjectInfo{}, nil, objectstore.ErrNotFound
		}
		return objectstore.ObjectInfo{}, nil, fmt.Errorf("open object: %w", err)
	}

	info, err := s.describe(ctx, key, f)
	if err != nil {
		_ = f.Close()
		return objectstore.ObjectInfo{}, nil, err
	}

	return info, f, nil
}

// Stat returns object metadata without handing out the body.
func (s *Store) Stat(ctx context.Context, key string) (objectstore.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return objectstore.ObjectInfo{}, err
	}

	f, err := s.root.Open(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return objectstore.ObjectInfo{}, objectstore.ErrNotFound
		}
		return objectstore.ObjectInfo{}, fmt.Errorf("open object: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Warn("failed to close file", "key", key, "err", closeErr)
		}
	}()

	return s.describe(ctx, key, f)
}

// describe builds ObjectInfo for an open file, leaving the read offset at
// the start of the file.
func (s *Store) describe(ctx context.Context, key string, f *os.File) (objectstore.ObjectInfo, error) {
	stat, err := f.Stat()
	if err != nil {
		return objectstore.ObjectInfo{}, fmt.Errorf("stat object: %w", err)
	}
	if stat.IsDir() {
		return objectstore.ObjectInfo{}, objectstore.ErrNotFound
	}

	size := stat.Size()
	mtime := stat.ModTime().UnixNano()

	etag, err := s.lookupETag(ctx, key, size, mtime, f)
	if err != nil {
		return objectstore.ObjectInfo{}, err
	}

	return objectstore.ObjectInfo{
		Key:         key,
		ContentType: detectContentType(key),
		ETag:        etag,
		Size:        size,
	}, nil
}

func (s *Store) lookupETag(ctx context.Context, key string, size, mtime int64, f *os.File) (string, error) {
	if s.index != nil {
		etag, ok, err := s.index.Lookup(ctx, key, size, mtime)
		if err != nil {
			slog.Warn("etag index lookup failed", "key", key, "err", err)
		} else if ok {
			return etag, nil
		}
	}

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash object: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind object: %w", err)
	}

	etag := hex.EncodeToString(h.Sum(nil))

	if s.index != nil {
		if err := s.index.Save(ctx, key, size, mtime, etag); err != nil {
			slog.Warn("etag index save failed", "key", key, "err", err)
		}
	}

	return etag, nil
}

// Write atomically stores content under key using a temp file and rename,
// creating intermediate directories as needed. It returns the written
// object's metadata. The gateway never writes; this exists for seeding
// tooling and tests.
func (s *Store) Write(ctx context.Context, key string, content io.Reader) (objectstore.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return objectstore.ObjectInfo{}, err
	}

	tmpFile := tmpFileName()
	t, createErr := s.root.Create(tmpFile)
	if createErr != nil {
		return objectstore.ObjectInfo{}, fmt.Errorf("could not open temp file: %w", createErr)
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil {
			slog.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := s.root.Remove(t.Name()); rmErr != nil {
				slog.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	h := sha256.New()
	w := io.MultiWriter(h, t)

	size, err := io.Copy(w, content)
	if err != nil {
		return objectstore.ObjectInfo{}, fmt.Errorf("could not copy object contents: %w", err)
	}

	if err := t.Sync(); err != nil {
		return objectstore.ObjectInfo{}, fmt.Errorf("could not sync written file: %w", err)
	}

	destDir := filepath.Dir(key)
	if destDir != "." {
		if err := s.root.MkdirAll(destDir, 0o755); err != nil {
			return objectstore.ObjectInfo{}, fmt.Errorf("could not create intermediate directories: %w", err)
		}
	}

	if renameErr := s.root.Rename(tmpFile, key); renameErr != nil {
		return objectstore.ObjectInfo{}, fmt.Errorf("failed to rename file: %w", renameErr)
	}

	etag := hex.EncodeToString(h.Sum(nil))
	success = true

	return objectstore.ObjectInfo{
		Key:         key,
		ContentType: detectContentType(key),
		ETag:        etag,
		Size:        size,
	}, nil
}

func detectContentType(key string) string {
	ext := filepath.Ext(key)
	contentType := mime.TypeByExtension(ext)

	if contentType == "" {
		return "application/octet-stream"
	}

	return contentType
}

func tmpFileName() string {
	return fmt.Sprintf(".t%s", uuid.New().String())
}
