package cache_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/storygate/storygate/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEntry(body string) *cache.Entry {
	h := http.Header{}
	h.Set("Content-Type", "video/mp4")
	h.Set("Cache-Control", "public, max-age=2592000, immutable")
	return &cache.Entry{
		Status:   http.StatusOK,
		Header:   h,
		Body:     []byte(body),
		StoredAt: time.Now(),
	}
}

func TestKey(t *testing.T) {
	assert.Equal(t, "https://media.example.com/private/story1.mp4",
		cache.Key("https", "media.example.com", "/private/story1.mp4"))

	// query string never reaches the key; scheme defaults to http
	assert.Equal(t, "http://media.example.com/shared/cover.jpg",
		cache.Key("", "media.example.com", "/shared/cover.jpg"))
}

func TestMemory_GetPut(t *testing.T) {
	store := cache.NewMemory(cache.MemoryConfig{})
	ctx := context.Background()

	_, err := store.Get(ctx, "k1")
	assert.ErrorIs(t, err, cache.ErrNotFound)

	require.NoError(t, store.Put(ctx, "k1", newEntry("hello")))

	got, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, got.Status)
	assert.Equal(t, []byte("hello"), got.Body)
	assert.Equal(t, "video/mp4", got.Header.Get("Content-Type"))
}

func TestMemory_GetReturnsCopy(t *testing.T) {
	store := cache.NewMemory(cache.MemoryConfig{})
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "k1", newEntry("hello")))

	first, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	first.Header.Set("Content-Type", "text/plain")
	first.Body[0] = 'X'

	second, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "video/mp4", second.Header.Get("Content-Type"))
	assert.Equal(t, []byte("hello"), second.Body)
}

func TestMemory_LastWriteWins(t *testing.T) {
	store := cache.NewMemory(cache.MemoryConfig{})
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "k1", newEntry("first")))
	require.NoError(t, store.Put(ctx, "k1", newEntry("second")))

	got, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got.Body)
	assert.Equal(t, 1, store.Len())
}

func TestMemory_DeclinesOversizedEntry(t *testing.T) {
	store := cache.NewMemory(cache.MemoryConfig{MaxEntryBytes: 4})
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "big", newEntry("way too large")))

	_, err := store.Get(ctx, "big")
	assert.ErrorIs(t, err, cache.ErrNotFound)
}

func TestMemory_EvictsLeastRecentlyUsed(t *testing.T) {
	store := cache.NewMemory(cache.MemoryConfig{MaxEntryBytes: 10, MaxTotalBytes: 10})
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "a", newEntry("aaaa")))
	require.NoError(t, store.Put(ctx, "b", newEntry("bbbb")))

	// touch "a" so "b" becomes the eviction candidate
	_, err := store.Get(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, "c", newEntry("cccc")))

	_, err = store.Get(ctx, "a")
	assert.NoError(t, err)
	_, err = store.Get(ctx, "b")
	assert.ErrorIs(t, err, cache.ErrNotFound)
	_, err = store.Get(ctx, "c")
	assert.NoError(t, err)
}
