package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache stores computed values, such as rendered template HTML, for a
// limited time.
type Cache[V any] interface {
	// Get returns the value and true if present and not expired
	Get(key string) (V, bool)

	// Set stores a value with the given TTL
	Set(key string, value V, ttl time.Duration)

	// GetOrSet returns the cached value or computes and stores it.
	// Concurrent callers for the same key share a single computation.
	GetOrSet(key string, ttl time.Duration, compute func() (V, error)) (V, error)

	Delete(key string)
	Clear()

	// Size includes expired entries that have not been swept yet
	Size() int

	// Stop ends the background sweep. Safe to call more than once.
	Stop()
}

type entry[V any] struct {
	value      V
	expiration time.Time
}

func (e entry[V]) expired(now time.Time) bool {
	return now.After(e.expiration)
}

// InMemoryCache is a mutex-guarded map swept periodically for expired entries
type InMemoryCache[V any] struct {
	mu       sync.RWMutex
	items    map[string]entry[V]
	group    singleflight.Group
	interval time.Duration
	stop     chan struct{}
	stopOnce sync.Once
	now      func() time.Time
}

// NewInMemoryCache starts a cache whose expired entries are swept every cleanupInterval
func NewInMemoryCache[V any](cleanupInterval time.Duration) *InMemoryCache[V] {
	c := &InMemoryCache[V]{
		items:    make(map[string]entry[V]),
		interval: cleanupInterval,
		stop:     make(chan struct{}),
		now:      time.Now,
	}

	go c.sweepLoop()

	return c
}

// Key derives a fixed-length cache key from its parts, e.g. template content
// plus the preview data it was merged with.
func Key(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (c *InMemoryCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, found := c.items[key]
	if !found || e.expired(c.now()) {
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *InMemoryCache[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = entry[V]{value: value, expiration: c.now().Add(ttl)}
}

func (c *InMemoryCache[V]) GetOrSet(key string, ttl time.Duration, compute func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	res, err, _ := c.group.Do(key, func() (interface{}, error) {
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		v, err := compute()
		if err != nil {
			return nil, err
		}
		c.Set(key, v, ttl)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}

func (c *InMemoryCache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

func (c *InMemoryCache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]entry[V])
}

func (c *InMemoryCache[V]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}

func (c *InMemoryCache[V]) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *InMemoryCache[V]) sweepLoop() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stop:
			return
		}
	}
}

func (c *InMemoryCache[V]) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, e := range c.items {
		if e.expired(now) {
			delete(c.items, key)
		}
	}
}
