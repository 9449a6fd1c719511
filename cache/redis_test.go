package cache_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/storygate/storygate/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*cache.Redis, *miniredis.Miniredis) {
	t.Helper()
	srv, err := miniredis.Run()
	if err != nil {
		t.Skipf("miniredis unavailable: %v", err)
	}
	t.Cleanup(srv.Close)

	store, err := cache.NewRedis("redis://"+srv.Addr(), time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store, srv
}

func TestRedis_GetPut(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "k1")
	assert.ErrorIs(t, err, cache.ErrNotFound)

	require.NoError(t, store.Put(ctx, "k1", newEntry("hello")))

	got, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, got.Status)
	assert.Equal(t, []byte("hello"), got.Body)
	assert.Equal(t, "video/mp4", got.Header.Get("Content-Type"))
	assert.Equal(t, "public, max-age=2592000, immutable", got.Header.Get("Cache-Control"))
}

func TestRedis_EntriesExpire(t *testing.T) {
	store, srv := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "k1", newEntry("hello")))

	srv.FastForward(2 * time.Hour)

	_, err := store.Get(ctx, "k1")
	assert.ErrorIs(t, err, cache.ErrNotFound)
}

func TestRedis_InvalidURL(t *testing.T) {
	_, err := cache.NewRedis("not a url", time.Hour)
	assert.Error(t, err)
}
