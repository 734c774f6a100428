package cache

import (
	"sync"
	"time"
)

// ============================================================================
// CACHE SERVICE - IN-MEMORY CACHING WITH TTL
// ============================================================================
// Thread-safe cache with automatic expiration, used for the hot read
// paths that would otherwise recompute or re-query on every request
// (ETA answers, per-stop schedule lookups).
//
// Usage:
//   cache := NewCache(30*time.Second, time.Minute)
//   cache.Set("eta:B1:S1", etaMinutes)
//   if v, found := cache.Get("eta:B1:S1"); found {
//       return v
//   }

// Item is a cached value with its expiration timestamp.
type Item struct {
	Value      interface{}
	Expiration int64 // UnixNano; 0 means no expiration
}

// Cache is a thread-safe key-value store with TTL.
type Cache struct {
	items             map[string]Item
	mu                sync.RWMutex
	defaultExpiration time.Duration
	cleanupInterval   time.Duration
	stopCleanup       chan bool
}

// NewCache creates a cache with the given default TTL. cleanupInterval
// drives periodic removal of expired items.
func NewCache(defaultExpiration, cleanupInterval time.Duration) *Cache {
	c := &Cache{
		items:             make(map[string]Item),
		defaultExpiration: defaultExpiration,
		cleanupInterval:   cleanupInterval,
		stopCleanup:       make(chan bool),
	}

	go c.startCleanupTimer()

	return c
}

// Set stores a value with the default expiration.
func (c *Cache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.defaultExpiration)
}

// SetWithTTL stores a value with a specific expiration duration.
func (c *Cache) SetWithTTL(key string, value interface{}, duration time.Duration) {
	var expiration int64

	if duration > 0 {
		expiration = time.Now().Add(duration).UnixNano()
	}

	c.mu.Lock()
	c.items[key] = Item{
		Value:      value,
		Expiration: expiration,
	}
	c.mu.Unlock()
}

// Get retrieves a value. Returns (nil, false) for missing or expired keys.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	item, found := c.items[key]
	c.mu.RUnlock()

	if !found {
		return nil, false
	}

	if item.Expiration > 0 && time.Now().UnixNano() > item.Expiration {
		c.Delete(key)
		return nil, false
	}

	return item.Value, true
}

// Delete removes a key.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// DeletePrefix removes every key starting with the given prefix. Useful
// to invalidate groups (e.g. "stop:" after a schedule write).
func (c *Cache) DeletePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for key := range c.items {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(c.items, key)
			count++
		}
	}
	return count
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.items = make(map[string]Item)
	c.mu.Unlock()
}

// Count returns the number of items (including expired, not yet swept).
func (c *Cache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Cache) startCleanupTimer() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-c.stopCleanup:
			return
		}
	}
}

func (c *Cache) deleteExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UnixNano()
	for key, item := range c.items {
		if item.Expiration > 0 && now > item.Expiration {
			delete(c.items, key)
		}
	}
}

// Stop halts the cleanup goroutine.
func (c *Cache) Stop() {
	c.stopCleanup <- true
}

// ============================================================================
// CACHE PRESETS
// ============================================================================

var (
	// EtaCache - arrival estimates are real-time data, keep them briefly
	EtaCache *Cache

	// ScheduleCache - per-stop schedule lookups; timetables change rarely
	// and are explicitly invalidated on administrative writes
	ScheduleCache *Cache
)

// InitCaches initializes the preset caches.
func InitCaches() {
	// ETA: 30s TTL, sweep every minute
	EtaCache = NewCache(30*time.Second, time.Minute)

	// Per-stop schedules: 5min TTL, sweep every 10min
	ScheduleCache = NewCache(5*time.Minute, 10*time.Minute)
}

// StopCaches stops the preset caches.
func StopCaches() {
	if EtaCache != nil {
		EtaCache.Stop()
	}
	if ScheduleCache != nil {
		ScheduleCache.Stop()
	}
}
