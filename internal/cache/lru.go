package cache

import (
	"container/list"
	"sync"
	"time"
)

// EvictReason tells an eviction callback why an entry left the cache.
type EvictReason int

const (
	// Expired entries were idle for longer than the TTL.
	Expired EvictReason = iota
	// Evicted entries were the least recently used when capacity was exceeded.
	Evicted
	// Deleted entries were removed explicitly.
	Deleted
)

func (r EvictReason) String() string {
	switch r {
	case Expired:
		return "expired"
	case Evicted:
		return "evicted"
	case Deleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// LRUCache is a size-bounded cache whose entries expire after ttl of
// inactivity. Every successful Get pushes the expiry forward.
type LRUCache[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	lru     *list.List
	now     func() time.Time
	onEvict func(key string, value T, reason EvictReason)
}

type cacheItem[T any] struct {
	key       string
	data      T
	expiresAt time.Time
}

// Option configures an LRUCache.
type Option[T any] func(*LRUCache[T])

// WithEvictCallback registers fn to run after an entry is removed.
// fn is called without the cache lock held.
func WithEvictCallback[T any](fn func(key string, value T, reason EvictReason)) Option[T] {
	return func(c *LRUCache[T]) { c.onEvict = fn }
}

// WithClock replaces time.Now, for tests.
func WithClock[T any](now func() time.Time) Option[T] {
	return func(c *LRUCache[T]) { c.now = now }
}

// NewLRUCache creates a new LRU cache with sliding TTL
func NewLRUCache[T any](maxSize int, ttl time.Duration, opts ...Option[T]) *LRUCache[T] {
	c := &LRUCache[T]{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get retrieves a value and refreshes its expiry.
func (c *LRUCache[T]) Get(key string) (T, bool) {
	var zero T
	c.mu.Lock()
	elem, exists := c.items[key]
	if !exists {
		c.mu.Unlock()
		return zero, false
	}

	item := elem.Value.(*cacheItem[T])
	now := c.now()
	if now.After(item.expiresAt) {
		c.removeElement(elem)
		c.mu.Unlock()
		c.notify(item, Expired)
		return zero, false
	}

	item.expiresAt = now.Add(c.ttl)
	c.lru.MoveToFront(elem)
	c.mu.Unlock()
	return item.data, true
}

// Set stores a value, evicting the least recently used entry when full.
func (c *LRUCache[T]) Set(key string, data T) {
	c.mu.Lock()
	item := &cacheItem[T]{
		key:       key,
		data:      data,
		expiresAt: c.now().Add(c.ttl),
	}

	if elem, exists := c.items[key]; exists {
		elem.Value = item
		c.lru.MoveToFront(elem)
		c.mu.Unlock()
		return
	}

	elem := c.lru.PushFront(item)
	c.items[key] = elem

	var evicted *cacheItem[T]
	if c.maxSize > 0 && c.lru.Len() > c.maxSize {
		if oldest := c.lru.Back(); oldest != nil {
			evicted = oldest.Value.(*cacheItem[T])
			c.removeElement(oldest)
		}
	}
	c.mu.Unlock()

	if evicted != nil {
		c.notify(evicted, Evicted)
	}
}

// Delete removes a key and reports whether it was present.
func (c *LRUCache[T]) Delete(key string) bool {
	c.mu.Lock()
	elem, exists := c.items[key]
	if !exists {
		c.mu.Unlock()
		return false
	}
	item := elem.Value.(*cacheItem[T])
	c.removeElement(elem)
	c.mu.Unlock()

	c.notify(item, Deleted)
	return true
}

// Size returns the number of entries, expired ones not yet cleaned included.
func (c *LRUCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

func (c *LRUCache[T]) removeElement(elem *list.Element) {
	item := elem.Value.(*cacheItem[T])
	delete(c.items, item.key)
	c.lru.Remove(elem)
}

func (c *LRUCache[T]) notify(item *cacheItem[T], reason EvictReason) {
	if c.onEvict != nil {
		c.onEvict(item.key, item.data, reason)
	}
}

// CleanExpired removes all expired entries and returns count of removed items
func (c *LRUCache[T]) CleanExpired() int {
	c.mu.Lock()
	now := c.now()
	var removed []*cacheItem[T]
	for elem := c.lru.Front(); elem != nil; {
		next := elem.Next()
		item := elem.Value.(*cacheItem[T])
		if now.After(item.expiresAt) {
			c.removeElement(elem)
			removed = append(removed, item)
		}
		elem = next
	}
	c.mu.Unlock()

	for _, item := range removed {
		c.notify(item, Expired)
	}
	return len(removed)
}
