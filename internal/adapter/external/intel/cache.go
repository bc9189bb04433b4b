package intel

import (
	"context"
	"sync"
	"time"

	"github.com/VishwasN1706/airis/internal/entity"
)

// BundleCache provides in-memory TTL caching of lookup bundles keyed by IP.
type BundleCache struct {
	data   map[string]*cacheEntry
	ttl    time.Duration
	mu     sync.RWMutex
	hits   int64
	misses int64
}

type cacheEntry struct {
	bundle    *entity.Bundle
	expiresAt time.Time
}

// CacheStats contains cache statistics.
type CacheStats struct {
	Size    int     `json:"size"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
	TTL     string  `json:"ttl"`
}

// NewBundleCache creates a bundle cache and starts its background cleanup.
func NewBundleCache(ttl time.Duration) *BundleCache {
	cache := &BundleCache{
		data: make(map[string]*cacheEntry),
		ttl:  ttl,
	}

	go cache.cleanup()

	return cache
}

// Get retrieves a bundle from cache.
func (c *BundleCache) Get(ip string) (*entity.Bundle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.data[ip]
	if !exists {
		c.misses++
		return nil, false
	}

	if time.Now().After(entry.expiresAt) {
		delete(c.data, ip)
		c.misses++
		return nil, false
	}

	c.hits++
	return entry.bundle, true
}

// Set stores a bundle in cache. Bundles are immutable, so the pointer is
// shared rather than copied.
func (c *BundleCache) Set(ip string, b *entity.Bundle) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[ip] = &cacheEntry{
		bundle:    b,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Clear removes all entries.
func (c *BundleCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = make(map[string]*cacheEntry)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *BundleCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := c.hits + c.misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}

	return CacheStats{
		Size:    len(c.data),
		Hits:    c.hits,
		Misses:  c.misses,
		HitRate: hitRate,
		TTL:     c.ttl.String(),
	}
}

func (c *BundleCache) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.removeExpired()
	}
}

func (c *BundleCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for ip, entry := range c.data {
		if now.After(entry.expiresAt) {
			delete(c.data, ip)
		}
	}
}

// CachedClient is a read-through caching layer over the lookup client.
// Failures are never cached, so an operator-initiated retry always reaches
// the upstream service.
type CachedClient struct {
	client *Client
	cache  *BundleCache
}

// NewCachedClient wraps a client with a TTL bundle cache.
func NewCachedClient(client *Client, ttl time.Duration) *CachedClient {
	return &CachedClient{
		client: client,
		cache:  NewBundleCache(ttl),
	}
}

// Lookup returns the cached bundle when fresh, otherwise fetches upstream.
func (c *CachedClient) Lookup(ctx context.Context, ip string) (*entity.Bundle, error) {
	if b, ok := c.cache.Get(ip); ok {
		return b, nil
	}

	b, err := c.client.Lookup(ctx, ip)
	if err != nil {
		return nil, err
	}

	c.cache.Set(ip, b)
	return b, nil
}

// CacheStats exposes the underlying cache statistics.
func (c *CachedClient) CacheStats() CacheStats {
	return c.cache.Stats()
}
