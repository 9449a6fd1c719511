package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const populateTimeout = 30 * time.Second

// Populator writes entries into the edge cache as detached background
// tasks, decoupled from the response already sent to the client. Writes are
// at-most-once: a failure is logged and dropped, never retried, and when all
// slots are busy the write is skipped entirely.
type Populator struct {
	store Store
	log   *slog.Logger
	slots chan struct{}
	wg    sync.WaitGroup
}

// NewPopulator creates a Populator writing to store with at most maxInflight
// concurrent writes.
func NewPopulator(store Store, logger *slog.Logger, maxInflight int) *Populator {
	if maxInflight <= 0 {
		maxInflight = 8
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Populator{
		store: store,
		log:   logger,
		slots: make(chan struct{}, maxInflight),
	}
}

// Enqueue schedules a background write of entry under key and returns
// immediately. The write runs on its own context so it survives the request
// that spawned it.
func (p *Populator) Enqueue(key string, entry *Entry) {
	select {
	case p.slots <- struct{}{}:
	default:
		p.log.Warn("cache populate skipped, writers saturated", "key", key)
		return
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() { <-p.slots }()

		ctx, cancel := context.WithTimeout(context.Background(), populateTimeout)
		defer cancel()

		if err := p.store.Put(ctx, key, entry); err != nil {
			p.log.Warn("cache populate failed", "key", key, "err", err)
		}
	}()
}

// Wait blocks until all in-flight writes finish. Used on shutdown so the
// process does not abandon writes mid-flight, and by tests.
func (p *Populator) Wait() {
	p.wg.Wait()
}
