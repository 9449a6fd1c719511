// Package cache implements the shared edge cache the gateway reads and
// populates. Entries are complete responses (status, headers, body) keyed by
// the normalized request URL with the query string stripped, so a cached
// object is addressable regardless of which signed token produced access.
//
// Two backends are provided: an in-process bounded store (per-instance edge
// cache) and a Redis store shared across instances in a region.
package cache

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// ErrNotFound is returned when no entry exists for a key.
var ErrNotFound = errors.New("cache entry not found")

// Entry is a cached response. Header holds the exact headers the response
// was built with, including Cache-Control and CORS headers.
type Entry struct {
	Status   int         `json:"status"`
	Header   http.Header `json:"header"`
	Body     []byte      `json:"body"`
	StoredAt time.Time   `json:"stored_at"`
}

// Clone returns a deep copy so callers can mutate headers without
// corrupting the stored entry.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	clone := &Entry{
		Status:   e.Status,
		Header:   e.Header.Clone(),
		Body:     make([]byte, len(e.Body)),
		StoredAt: e.StoredAt,
	}
	copy(clone.Body, e.Body)
	return clone
}

// Store is the edge cache contract. Implementations must be safe for
// concurrent use; the last Put for a given key wins.
type Store interface {
	// Get returns the entry for key, or ErrNotFound.
	Get(ctx context.Context, key string) (*Entry, error)

	// Put stores an entry under key. Implementations may silently decline
	// entries that exceed their size limits.
	Put(ctx context.Context, key string, entry *Entry) error
}

// Key builds the cache key for a request: scheme, host, and path with the
// query string stripped. The key is stable for a given path no matter which
// signed token produced access.
func Key(scheme, host, path string) string {
	if scheme == "" {
		scheme = "http"
	}
	return scheme + "://" + host + path
}
