package filesystem_test

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/storygate/storygate/objectstore"
	"github.com/storygate/storygate/objectstore/filesystem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*filesystem.Store, string) {
	t.Helper()
	tempDir := t.TempDir()
	root, err := os.OpenRoot(tempDir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = root.Close() })

	return filesystem.NewStore(root, nil), tempDir
}

func TestStore_Get(t *testing.T) {
	store, dir := newStore(t)
	content := []byte("frame data")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "private"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "private", "story1.mp4"), content, 0o644))

	info, body, err := store.Get(context.Background(), "private/story1.mp4")
	require.NoError(t, err)
	defer func() { _ = body.Close() }()

	assert.Equal(t, "private/story1.mp4", info.Key)
	assert.Equal(t, "video/mp4", info.ContentType)
	assert.Equal(t, int64(len(content)), info.Size)

	sum := sha256.Sum256(content)
	assert.Equal(t, hex.EncodeToString(sum[:]), info.ETag)

	got, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestStore_Get_NotFound(t *testing.T) {
	store, _ := newStore(t)

	_, _, err := store.Get(context.Background(), "missing.mp4")
	assert.ErrorIs(t, err, objectstore.ErrNotFound)
}

func TestStore_Stat(t *testing.T) {
	store, dir := newStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "story.json"), []byte(`{"title":"t"}`), 0o644))

	info, err := store.Stat(context.Background(), "story.json")
	require.NoError(t, err)
	assert.Equal(t, "application/json", info.ContentType)
	assert.Equal(t, int64(13), info.Size)
	assert.NotEmpty(t, info.ETag)
}

func TestStore_Stat_NotFound(t *testing.T) {
	store, _ := newStore(t)

	_, err := store.Stat(context.Background(), "missing.json")
	assert.ErrorIs(t, err, objectstore.ErrNotFound)
}

func TestStore_Write(t *testing.T) {
	store, _ := newStore(t)
	content := []byte("cover bytes")

	info, err := store.Write(context.Background(), "shared/cover.jpg", bytes.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", info.ContentType)
	assert.Equal(t, int64(len(content)), info.Size)

	got, body, err := store.Get(context.Background(), "shared/cover.jpg")
	require.NoError(t, err)
	defer func() { _ = body.Close() }()
	assert.Equal(t, info.ETag, got.ETag)

	read, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, content, read)
}

func TestStore_WithIndex_ReusesETag(t *testing.T) {
	tempDir := t.TempDir()
	root, err := os.OpenRoot(tempDir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = root.Close() })

	ctx := context.Background()
	index, err := filesystem.OpenIndex(ctx, filepath.Join(t.TempDir(), "etags.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	store := filesystem.NewStore(root, index)

	content := []byte("narration bytes")
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "narration.mp3"), content, 0o644))

	first, err := store.Stat(ctx, "narration.mp3")
	require.NoError(t, err)

	second, err := store.Stat(ctx, "narration.mp3")
	require.NoError(t, err)
	assert.Equal(t, first.ETag, second.ETag)

	sum := sha256.Sum256(content)
	assert.Equal(t, hex.EncodeToString(sum[:]), first.ETag)
}
