// Package gcs implements the backing store binding for Google Cloud
// Storage buckets.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/storygate/storygate/objectstore"
)

// Store reads objects from a GCS bucket, optionally under a key prefix.
type Store struct {
	bucket string
	client *gcs.Client
	prefix string
}

// New creates a Store for a bucket URI of the form "gs://bucket/prefix".
func New(ctx context.Context, bucketURI string) (*Store, error) {
	uri, err := url.Parse(bucketURI)
	if err != nil {
		return nil, fmt.Errorf("parse GCS bucket URI: %w", err)
	}

	if uri.Scheme != "gs" || uri.Host == "" {
		return nil, errors.New("invalid GCS bucket URI")
	}

	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create GCS client: %w", err)
	}

	return &Store{
		bucket: uri.Host,
		client: client,
		prefix: strings.TrimLeft(uri.Path, "/"),
	}, nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) objectKey(key string) string {
	return strings.TrimLeft(path.Join(s.prefix, key), "/")
}

// Get opens an object for reading along with its metadata.
func (s *Store) Get(ctx context.Context, key string) (objectstore.ObjectInfo, io.ReadCloser, error) {
	objHdl := s.client.Bucket(s.bucket).Object(s.objectKey(key))

	attrs, err := objHdl.Attrs(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return objectstore.ObjectInfo{}, nil, objectstore.ErrNotFound
		}
		return objectstore.ObjectInfo{}, nil, fmt.Errorf("get object attrs: %w", err)
	}

	r, err := objHdl.NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return objectstore.ObjectInfo{}, nil, objectstore.ErrNotFound
		}
		return objectstore.ObjectInfo{}, nil, fmt.Errorf("get object reader: %w", err)
	}

	return infoFromAttrs(key, attrs), r, nil
}

// Stat returns object metadata without opening the body.
func (s *Store) Stat(ctx context.Context, key string) (objectstore.ObjectInfo, error) {
	objHdl := s.client.Bucket(s.bucket).Object(s.objectKey(key))

	attrs, err := objHdl.Attrs(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return objectstore.ObjectInfo{}, objectstore.ErrNotFound
		}
		return objectstore.ObjectInfo{}, fmt.Errorf("get object attrs: %w", err)
	}

	return infoFromAttrs(key, attrs), nil
}

func infoFromAttrs(key string, attrs *gcs.ObjectAttrs) objectstore.ObjectInfo {
	contentType := attrs.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return objectstore.ObjectInfo{
		Key:         key,
		ContentType: contentType,
		ETag:        attrs.Etag,
		Size:        attrs.Size,
	}
}
