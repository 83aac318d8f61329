package api

import (
	"context"
	"sync"
	"time"

	"moviebox/internal/screen"
)

// ModelFactory builds an idle content model for a movie.
type ModelFactory func(movieID int64) *screen.MovieContentModel

type modelEntry struct {
	model    *screen.MovieContentModel
	lastUsed time.Time
}

// modelCache keeps one MovieContentModel per movie for card reloads and
// repeat views. Entries idle longer than ttl are closed.
type modelCache struct {
	mu      sync.Mutex
	factory ModelFactory
	ttl     time.Duration
	now     func() time.Time
	entries map[int64]*modelEntry
}

func newModelCache(factory ModelFactory, ttl time.Duration, now func() time.Time) *modelCache {
	if now == nil {
		now = time.Now
	}
	return &modelCache{
		factory: factory,
		ttl:     ttl,
		now:     now,
		entries: make(map[int64]*modelEntry),
	}
}

// load returns the model for movieID, creating it and starting its content
// fetch when absent. A model whose last fetch failed is started again.
func (c *modelCache) load(movieID int64) (*screen.MovieContentModel, error) {
	c.mu.Lock()
	c.sweepLocked()
	entry, ok := c.entries[movieID]
	if !ok {
		entry = &modelEntry{model: c.factory(movieID)}
		c.entries[movieID] = entry
	}
	entry.lastUsed = c.now()
	model := entry.model
	c.mu.Unlock()

	// Models outlive the request that created them; Close cancels their work.
	switch model.Snapshot().State {
	case screen.StateIdle, screen.StateFailed:
		if err := model.Start(context.Background()); err != nil {
			return nil, err
		}
	}
	return model, nil
}

// lookup returns a cached model without creating one.
func (c *modelCache) lookup(movieID int64) (*screen.MovieContentModel, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweepLocked()
	entry, ok := c.entries[movieID]
	if !ok {
		return nil, false
	}
	entry.lastUsed = c.now()
	return entry.model, true
}

func (c *modelCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *modelCache) sweepLocked() {
	if c.ttl <= 0 {
		return
	}
	cutoff := c.now().Add(-c.ttl)
	for id, entry := range c.entries {
		if entry.lastUsed.Before(cutoff) {
			entry.model.Close()
			delete(c.entries, id)
		}
	}
}

func (c *modelCache) closeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, entry := range c.entries {
		entry.model.Close()
		delete(c.entries, id)
	}
}
