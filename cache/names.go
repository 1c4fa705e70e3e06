package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultNameTTL is how long a cached creator name stays fresh.
const DefaultNameTTL = 24 * time.Hour

type nameEntry struct {
	Name      string    `json:"name"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// NameCache maps user ids to display names. Entries persist across runs in
// a JSON file and expire after the TTL; stale entries are refetched.
type NameCache struct {
	path  string
	ttl   time.Duration
	fetch func(ctx context.Context, userID string) (string, error)

	mu      sync.Mutex
	entries map[string]nameEntry
	group   singleflight.Group

	now func() time.Time
}

// NewNameCache loads the cache file at path (a missing or unreadable file
// starts the cache empty) and uses fetch to fill misses.
func NewNameCache(path string, ttl time.Duration, fetch func(ctx context.Context, userID string) (string, error)) *NameCache {
	if ttl <= 0 {
		ttl = DefaultNameTTL
	}
	c := &NameCache{
		path:    path,
		ttl:     ttl,
		fetch:   fetch,
		entries: make(map[string]nameEntry),
		now:     time.Now,
	}
	c.load()
	return c
}

func (c *NameCache) load() {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		log.Printf("WARN: creator_cache_unreadable path=%s error=%v", c.path, err)
		c.entries = make(map[string]nameEntry)
	}
}

// save writes the cache file. Callers hold mu.
func (c *NameCache) save() {
	if c.path == "" {
		return
	}
	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		log.Printf("WARN: creator_cache_not_saved path=%s error=%v", c.path, err)
		return
	}
	if err := os.WriteFile(c.path, data, 0644); err != nil {
		log.Printf("WARN: creator_cache_not_saved path=%s error=%v", c.path, err)
	}
}

// GetName returns the display name for a user id, fetching and persisting
// it when missing or stale. Concurrent misses for the same id share one
// fetch. Implements tidal.CreatorNamer.
func (c *NameCache) GetName(ctx context.Context, userID string) (string, error) {
	c.mu.Lock()
	entry, ok := c.entries[userID]
	fresh := ok && c.now().Sub(entry.FetchedAt) < c.ttl
	c.mu.Unlock()
	if fresh {
		return entry.Name, nil
	}

	result, err, _ := c.group.Do(userID, func() (interface{}, error) {
		c.mu.Lock()
		entry, ok := c.entries[userID]
		if ok && c.now().Sub(entry.FetchedAt) < c.ttl {
			c.mu.Unlock()
			return entry.Name, nil
		}
		c.mu.Unlock()

		name, err := c.fetch(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("fetching creator name for %s: %w", userID, err)
		}
		c.mu.Lock()
		c.entries[userID] = nameEntry{Name: name, FetchedAt: c.now()}
		c.save()
		c.mu.Unlock()
		return name, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// Len returns the number of persisted entries, fresh or stale.
func (c *NameCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
