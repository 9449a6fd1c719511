// Package objectstore defines the binding to the backing object store
// holding actual media bytes and metadata. The gateway only ever reads
// through this interface; object lifecycle is owned elsewhere.
package objectstore

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when no object exists under a key.
var ErrNotFound = errors.New("object not found")

// ObjectInfo describes a stored object. ETag identifies the exact content
// version and is surfaced to clients unchanged.
type ObjectInfo struct {
	Key         string
	ContentType string
	ETag        string
	Size        int64
}

// Storage is implemented by backing store bindings (local filesystem, GCS).
//
// All methods accept a context for cancellation and timeout control and
// must be safe for concurrent use.
type Storage interface {
	// Get opens an object for reading along with its metadata.
	// Returns ErrNotFound if no object exists under key.
	// The caller is responsible for closing the returned reader.
	Get(ctx context.Context, key string) (ObjectInfo, io.ReadCloser, error)

	// Stat returns object metadata without opening the body. Used for HEAD
	// requests and health probes. Returns ErrNotFound if absent.
	Stat(ctx context.Context, key string) (ObjectInfo, error)
}
