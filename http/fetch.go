package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/storygate/storygate"
	"github.com/storygate/storygate/cache"
	"github.com/storygate/storygate/objectstore"
)

// fetch resolves response bytes from the edge cache or the backing store.
//
// With useCache, the edge cache is consulted under the path-derived key and
// misses schedule a detached background write, GET only. Without it, every
// request reads through to the store and the response carries a
// browser-private Cache-Control policy picked by media category.
func (h *Handler) fetch(w http.ResponseWriter, r *http.Request, useCache bool) {
	start := time.Now()
	defer func() { h.metrics.ObserveFetch(time.Since(start).Seconds()) }()

	ctx := r.Context()

	useCache = useCache && h.cache != nil

	var key string
	if useCache {
		key = cache.Key(r.URL.Scheme, r.Host, r.URL.Path)

		entry, err := h.cache.Get(ctx, key)
		if err == nil {
			h.metrics.IncCacheHit()
			writeEntry(w, r, entry)
			return
		}
		if !errors.Is(err, cache.ErrNotFound) {
			// a broken cache degrades to a store read, never to an error
			h.log.Warn("edge cache read failed", "key", key, "err", err)
		}
		h.metrics.IncCacheMiss()
	}

	objKey := storygate.ObjectKey(r.URL.Path)
	if !storygate.IsValidKey(objKey) {
		writeError(w, http.StatusBadRequest, "Invalid path.")
		return
	}

	if r.Method == http.MethodHead {
		info, err := h.store.Stat(ctx, objKey)
		if err != nil {
			h.writeStoreError(w, objKey, err)
			return
		}
		h.metrics.IncStoreRead("ok")

		hdr := h.objectHeader(info, useCache, r.URL.Path)
		copyHeader(w.Header(), hdr)
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
		if useCache {
			w.Header().Set("X-Cache", "MISS")
		}
		w.WriteHeader(http.StatusOK)
		return
	}

	info, body, err := h.store.Get(ctx, objKey)
	if err != nil {
		h.writeStoreError(w, objKey, err)
		return
	}
	defer func() { _ = body.Close() }()
	h.metrics.IncStoreRead("ok")

	hdr := h.objectHeader(info, useCache, r.URL.Path)

	if useCache && info.Size <= h.cfg.MaxCacheableBytes {
		data, readErr := io.ReadAll(body)
		if readErr != nil {
			h.log.Error("object read failed", "key", objKey, "err", readErr)
			writeError(w, http.StatusBadGateway, "Unable to fetch object.")
			return
		}

		// Detached: the response below must not wait on the cache write.
		h.populator.Enqueue(key, &cache.Entry{
			Status:   http.StatusOK,
			Header:   hdr,
			Body:     data,
			StoredAt: time.Now(),
		})
		h.metrics.IncPopulateScheduled()

		copyHeader(w.Header(), hdr)
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Header().Set("X-Cache", "MISS")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	copyHeader(w.Header(), hdr)
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	if useCache {
		w.Header().Set("X-Cache", "MISS")
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		h.log.Warn("streaming object interrupted", "key", objKey, "err", err)
	}
}

// objectHeader builds response headers for an object read from the backing
// store. Shared responses get the immutable public policy; everything else
// is cacheable only by the requesting browser, per media category.
func (h *Handler) objectHeader(info objectstore.ObjectInfo, shared bool, path string) http.Header {
	hdr := http.Header{}
	hdr.Set("Content-Type", info.ContentType)

	if etag := info.ETag; etag != "" {
		if !strings.HasPrefix(etag, `"`) {
			etag = `"` + etag + `"`
		}
		hdr.Set("ETag", etag)
	}

	setCORSHeaders(hdr)

	if shared {
		hdr.Set("Cache-Control", storygate.SharedCacheControl)
	} else {
		hdr.Set("Cache-Control", storygate.Classify(path).BrowserCacheControl())
	}

	return hdr
}

func (h *Handler) writeStoreError(w http.ResponseWriter, key string, err error) {
	if errors.Is(err, objectstore.ErrNotFound) {
		h.metrics.IncStoreRead("not_found")
		writeError(w, http.StatusNotFound, "Object not found")
		return
	}

	h.metrics.IncStoreRead("error")
	h.log.Error("object store read failed", "key", key, "err", err)
	writeError(w, http.StatusBadGateway, "Unable to fetch object.")
}

// writeEntry serves a cache hit. HEAD gets the cached status and headers
// with an empty body and must never trigger a new cache write.
func writeEntry(w http.ResponseWriter, r *http.Request, entry *cache.Entry) {
	copyHeader(w.Header(), entry.Header)
	w.Header().Set("Content-Length", strconv.Itoa(len(entry.Body)))
	w.Header().Set("X-Cache", "HIT")
	w.WriteHeader(entry.Status)

	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(entry.Body)
}

func copyHeader(dst, src http.Header) {
	for k, values := range src {
		for _, v := range values {
			dst.Add(k, v)
		}
	}
}
