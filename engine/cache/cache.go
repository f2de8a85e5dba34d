// Package cache provides a small in-process LRU cache with per-entry TTL.
// The engine memoizes derived productivity profiles in it for a short
// window; it is an ephemeral recomputation cache, never persistence, and
// safe for concurrent use.
package cache

import (
	"container/list"
	"sync"
	"time"
)

const (
	DefaultCapacity = 256
	DefaultTTL      = 5 * time.Minute
)

// Cache is an LRU cache with TTL. The zero value is not usable; construct
// with New.
type Cache[K comparable, V any] struct {
	mu         sync.Mutex
	entries    map[K]*list.Element
	order      *list.List
	capacity   int
	defaultTTL time.Duration
}

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// New creates a cache holding up to capacity entries, each living ttl after
// its last Set. Non-positive arguments fall back to the defaults.
func New[K comparable, V any](capacity int, ttl time.Duration) *Cache[K, V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache[K, V]{
		entries:    make(map[K]*list.Element),
		order:      list.New(),
		capacity:   capacity,
		defaultTTL: ttl,
	}
}

// Get returns the live value for key, refreshing its recency. Expired
// entries are removed on access and report a miss.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	ent := el.Value.(*entry[K, V])
	if time.Now().After(ent.expiresAt) {
		c.remove(el)
		var zero V
		return zero, false
	}
	c.order.MoveToFront(el)
	return ent.value, true
}

// Set stores value under key with the default TTL, evicting the least
// recently used entry when the cache is full.
func (c *Cache[K, V]) Set(key K, value V) {
	c.SetTTL(key, value, c.defaultTTL)
}

// SetTTL is Set with an explicit lifetime.
func (c *Cache[K, V]) SetTTL(key K, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		ent := el.Value.(*entry[K, V])
		ent.value = value
		ent.expiresAt = time.Now().Add(ttl)
		c.order.MoveToFront(el)
		return
	}
	for len(c.entries) >= c.capacity {
		if oldest := c.order.Back(); oldest != nil {
			c.remove(oldest)
		}
	}
	el := c.order.PushFront(&entry[K, V]{key: key, value: value, expiresAt: time.Now().Add(ttl)})
	c.entries[key] = el
}

// Remove drops key from the cache, reporting whether it was present.
func (c *Cache[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if ok {
		c.remove(el)
	}
	return ok
}

// Len returns the number of stored entries, expired ones included until
// they are touched or pruned.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Capacity returns the maximum number of entries the cache holds.
func (c *Cache[K, V]) Capacity() int { return c.capacity }

// Clear drops every entry.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[K]*list.Element)
	c.order.Init()
}

// PruneExpired removes entries past their TTL and reports how many went.
func (c *Cache[K, V]) PruneExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	var stale []*list.Element
	for _, el := range c.entries {
		if now.After(el.Value.(*entry[K, V]).expiresAt) {
			stale = append(stale, el)
		}
	}
	for _, el := range stale {
		c.remove(el)
	}
	return len(stale)
}

func (c *Cache[K, V]) remove(el *list.Element) {
	c.order.Remove(el)
	delete(c.entries, el.Value.(*entry[K, V]).key)
}
