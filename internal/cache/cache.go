// Package cache holds the per-process analysis cache: content-addressed
// entries keyed by (image fingerprint, provider), plus the
// negative-feedback blocklist. A blocklisted fingerprint always reads
// as a miss, no matter how fresh its entries are.
package cache

import (
	"sync"
	"time"

	"github.com/ReptilePvP/ai-ndresells-sub000/internal/fingerprint"
	"github.com/ReptilePvP/ai-ndresells-sub000/internal/provider"
)

// Key identifies one cache entry.
type Key struct {
	Fingerprint fingerprint.Fingerprint
	Provider    provider.ID
}

type entry[V any] struct {
	value     V
	writtenAt time.Time
	expires   time.Time
}

// Cache is a TTL cache with a blocklist override. Reads are concurrent;
// writes serialize per cache, last writer wins.
type Cache[V any] struct {
	mu      sync.RWMutex
	entries map[Key]entry[V]
	blocked map[fingerprint.Fingerprint]struct{}
}

func New[V any]() *Cache[V] {
	return &Cache[V]{
		entries: make(map[Key]entry[V]),
		blocked: make(map[fingerprint.Fingerprint]struct{}),
	}
}

// Get returns the cached value for (fp, id). Blocklisted fingerprints
// miss unconditionally; expired entries are evicted lazily.
func (c *Cache[V]) Get(fp fingerprint.Fingerprint, id provider.ID) (V, bool) {
	var zero V

	c.mu.RLock()
	_, isBlocked := c.blocked[fp]
	e, ok := c.entries[Key{Fingerprint: fp, Provider: id}]
	c.mu.RUnlock()

	if isBlocked || !ok {
		return zero, false
	}
	if time.Now().After(e.expires) {
		c.mu.Lock()
		// Re-check under the write lock; another writer may have
		// refreshed the entry in between.
		if cur, still := c.entries[Key{Fingerprint: fp, Provider: id}]; still && time.Now().After(cur.expires) {
			delete(c.entries, Key{Fingerprint: fp, Provider: id})
		}
		c.mu.Unlock()
		return zero, false
	}
	return e.value, true
}

// Put stores a value with the given TTL.
func (c *Cache[V]) Put(fp fingerprint.Fingerprint, id provider.ID, value V, ttl time.Duration) {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[Key{Fingerprint: fp, Provider: id}] = entry[V]{
		value:     value,
		writtenAt: now,
		expires:   now.Add(ttl),
	}
}

// Invalidate adds the fingerprint to the blocklist and evicts every
// provider's entry for it. Adding twice is a no-op.
func (c *Cache[V]) Invalidate(fp fingerprint.Fingerprint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blocked[fp] = struct{}{}
	for k := range c.entries {
		if k.Fingerprint == fp {
			delete(c.entries, k)
		}
	}
}

// ClearBlock removes the fingerprint from the blocklist so future
// analyses are cacheable again.
func (c *Cache[V]) ClearBlock(fp fingerprint.Fingerprint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.blocked, fp)
}

// Blocked reports blocklist membership.
func (c *Cache[V]) Blocked(fp fingerprint.Fingerprint) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.blocked[fp]
	return ok
}

// SeedBlocklist loads persisted blocklist membership, typically at
// startup. Membership outlives cache entries and process restarts.
func (c *Cache[V]) SeedBlocklist(fps []fingerprint.Fingerprint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, fp := range fps {
		c.blocked[fp] = struct{}{}
	}
}

// Len returns the number of live entries, counting expired ones that
// have not been read yet.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
