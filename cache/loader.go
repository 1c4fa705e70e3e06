// Package cache holds the metadata enrichment caches: a process-lifetime
// single-flight loader for album attributes and a disk-backed TTL cache for
// playlist creator names. Both collapse concurrent misses for the same key
// into one fetch, and never cache a failed fetch.
package cache

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Loader fills a keyed in-memory cache on demand. Each key is fetched at
// most once per process; concurrent misses share a single in-flight fetch.
type Loader[V any] struct {
	fetch func(ctx context.Context, key string) (V, error)

	mu     sync.RWMutex
	values map[string]V
	group  singleflight.Group
}

// NewLoader creates a loader backed by fetch.
func NewLoader[V any](fetch func(ctx context.Context, key string) (V, error)) *Loader[V] {
	return &Loader[V]{
		fetch:  fetch,
		values: make(map[string]V),
	}
}

// Get returns the cached value for key, fetching it on first use. A fetch
// error is returned to every waiting caller and is not cached; the next Get
// retries.
func (l *Loader[V]) Get(ctx context.Context, key string) (V, error) {
	l.mu.RLock()
	value, ok := l.values[key]
	l.mu.RUnlock()
	if ok {
		return value, nil
	}

	result, err, _ := l.group.Do(key, func() (interface{}, error) {
		// Re-check under the group: another caller may have filled the key
		// between our miss and the flight starting.
		l.mu.RLock()
		value, ok := l.values[key]
		l.mu.RUnlock()
		if ok {
			return value, nil
		}

		fetched, err := l.fetch(ctx, key)
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.values[key] = fetched
		l.mu.Unlock()
		return fetched, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return result.(V), nil
}

// Len returns the number of cached keys.
func (l *Loader[V]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.values)
}
