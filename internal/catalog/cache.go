package catalog

import (
	"context"
	"sync"
	"time"
)

// cacheEntry holds one fetched catalog listing with its fetch time.
type cacheEntry[T any] struct {
	value     []T
	fetchedAt time.Time
}

// readThroughCache keeps listings keyed by their filter, refreshing entries
// older than the staleness window. When a refresh fails and a stale entry
// exists, the stale entry is served instead of the error.
type readThroughCache[T any] struct {
	mu      sync.Mutex
	entries map[string]cacheEntry[T]
	ttl     time.Duration
	now     func() time.Time
}

func newReadThroughCache[T any](ttl time.Duration, now func() time.Time) *readThroughCache[T] {
	if now == nil {
		now = time.Now
	}
	return &readThroughCache[T]{
		entries: make(map[string]cacheEntry[T]),
		ttl:     ttl,
		now:     now,
	}
}

type cacheOutcome int

const (
	outcomeHit cacheOutcome = iota
	outcomeMiss
	outcomeStaleServed
)

func (c *readThroughCache[T]) get(ctx context.Context, key string, fetch func(context.Context) ([]T, error)) ([]T, cacheOutcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if ok && c.now().Sub(entry.fetchedAt) < c.ttl {
		return entry.value, outcomeHit, nil
	}

	value, err := fetch(ctx)
	if err != nil {
		if ok {
			return entry.value, outcomeStaleServed, nil
		}
		return nil, outcomeMiss, err
	}

	c.entries[key] = cacheEntry[T]{value: value, fetchedAt: c.now()}
	return value, outcomeMiss, nil
}

func (c *readThroughCache[T]) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry[T])
}
