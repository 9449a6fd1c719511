package cache

import (
	"container/list"
	"context"
	"sync"
)

const (
	// DefaultMaxEntryBytes is the largest single body the in-memory store
	// accepts. Larger objects are still served, just never cached.
	DefaultMaxEntryBytes = 64 << 20 // 64 MiB

	// DefaultMaxTotalBytes bounds the sum of cached body sizes.
	DefaultMaxTotalBytes = 512 << 20 // 512 MiB
)

// MemoryConfig holds size limits for the in-memory store. Zero values fall
// back to the package defaults.
type MemoryConfig struct {
	MaxEntryBytes int64
	MaxTotalBytes int64
}

// Memory is a bounded in-process edge cache with LRU eviction.
type Memory struct {
	mu         sync.Mutex
	entries    map[string]*list.Element
	order      *list.List // front = most recently used
	totalBytes int64

	maxEntryBytes int64
	maxTotalBytes int64
}

type memoryItem struct {
	key   string
	entry *Entry
}

// NewMemory creates an in-memory Store with the given limits.
func NewMemory(cfg MemoryConfig) *Memory {
	maxEntry := cfg.MaxEntryBytes
	if maxEntry <= 0 {
		maxEntry = DefaultMaxEntryBytes
	}
	maxTotal := cfg.MaxTotalBytes
	if maxTotal <= 0 {
		maxTotal = DefaultMaxTotalBytes
	}

	return &Memory{
		entries:       make(map[string]*list.Element),
		order:         list.New(),
		maxEntryBytes: maxEntry,
		maxTotalBytes: maxTotal,
	}
}

// Get returns a copy of the entry for key, or ErrNotFound.
func (m *Memory) Get(ctx context.Context, key string) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	elem, ok := m.entries[key]
	if !ok {
		return nil, ErrNotFound
	}

	m.order.MoveToFront(elem)
	return elem.Value.(*memoryItem).entry.Clone(), nil
}

// Put stores a copy of entry under key, evicting least recently used
// entries to stay under the total size limit. Entries over the per-entry
// limit are declined without error.
func (m *Memory) Put(ctx context.Context, key string, entry *Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if int64(len(entry.Body)) > m.maxEntryBytes {
		return nil
	}

	stored := entry.Clone()

	m.mu.Lock()
	defer m.mu.Unlock()

	if elem, ok := m.entries[key]; ok {
		item := elem.Value.(*memoryItem)
		m.totalBytes -= int64(len(item.entry.Body))
		item.entry = stored
		m.totalBytes += int64(len(stored.Body))
		m.order.MoveToFront(elem)
	} else {
		elem := m.order.PushFront(&memoryItem{key: key, entry: stored})
		m.entries[key] = elem
		m.totalBytes += int64(len(stored.Body))
	}

	for m.totalBytes > m.maxTotalBytes {
		oldest := m.order.Back()
		if oldest == nil {
			break
		}
		item := oldest.Value.(*memoryItem)
		m.order.Remove(oldest)
		delete(m.entries, item.key)
		m.totalBytes -= int64(len(item.entry.Body))
	}

	return nil
}

// Len returns the number of cached entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
