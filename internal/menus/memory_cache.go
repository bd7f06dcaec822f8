package menus

import (
	"context"
	"sync"
	"time"

	domain "github.com/hanko-field/namedmenus/internal/domain"
)

const defaultMemoryCacheEntries = 1024

// MemoryCache is an in-process Cache with a per-entry TTL and a bounded size.
// When full, the entry closest to expiry is dropped.
type MemoryCache struct {
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	nodes     []domain.NavigationNode
	expiresAt time.Time
}

// MemoryCacheOption customises MemoryCache behaviour.
type MemoryCacheOption func(*MemoryCache)

// WithMemoryCacheClock overrides the clock, mainly for tests.
func WithMemoryCacheClock(now func() time.Time) MemoryCacheOption {
	return func(c *MemoryCache) {
		if now != nil {
			c.now = now
		}
	}
}

// NewMemoryCache constructs a cache. A non-positive ttl keeps entries until
// evicted; a non-positive maxEntries uses the default bound.
func NewMemoryCache(ttl time.Duration, maxEntries int, opts ...MemoryCacheOption) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = defaultMemoryCacheEntries
	}
	c := &MemoryCache{
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
		entries:    make(map[string]memoryEntry),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Get implements Cache.
func (c *MemoryCache) Get(_ context.Context, key string) ([]domain.NavigationNode, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.expired(entry) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.nodes, true
}

// Set implements Cache.
func (c *MemoryCache) Set(_ context.Context, key string, nodes []domain.NavigationNode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictLocked()
	}
	entry := memoryEntry{nodes: nodes}
	if c.ttl > 0 {
		entry.expiresAt = c.now().Add(c.ttl)
	}
	c.entries[key] = entry
}

// Delete implements Cache.
func (c *MemoryCache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *MemoryCache) expired(entry memoryEntry) bool {
	return !entry.expiresAt.IsZero() && !c.now().Before(entry.expiresAt)
}

func (c *MemoryCache) evictLocked() {
	var (
		victim string
		oldest time.Time
		found  bool
	)
	for key, entry := range c.entries {
		if c.expired(entry) {
			delete(c.entries, key)
			return
		}
		if !found || entry.expiresAt.Before(oldest) {
			victim, oldest, found = key, entry.expiresAt, true
		}
	}
	if found {
		delete(c.entries, victim)
	}
}
