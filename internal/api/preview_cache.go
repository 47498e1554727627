package api

import (
	"sync"
	"time"

	"lunar-vfx/internal/render"
)

const (
	DefaultMaxPreviews = 64
	PreviewTTL         = 10 * time.Minute
)

// cachedPreview holds an encoded frame and when it was rendered
type cachedPreview struct {
	png        []byte
	renderedAt time.Time
}

// PreviewCache stores encoded PNG previews keyed by their normalized request,
// evicting the oldest entry when full. Equal requests render identical
// pixels, so a hit is always exact.
type PreviewCache struct {
	mu      sync.Mutex
	entries map[render.FrameRequest]*cachedPreview
	order   []render.FrameRequest // insertion order (oldest first)
	maxSize int
	ttl     time.Duration

	hits, misses uint64
}

// NewPreviewCache creates a cache holding at most maxSize previews.
func NewPreviewCache(maxSize int, ttl time.Duration) *PreviewCache {
	if maxSize <= 0 {
		maxSize = DefaultMaxPreviews
	}
	if ttl <= 0 {
		ttl = PreviewTTL
	}
	return &PreviewCache{
		entries: make(map[render.FrameRequest]*cachedPreview),
		order:   make([]render.FrameRequest, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

// Get returns the cached PNG for req or nil. Expired entries are dropped.
func (c *PreviewCache) Get(req render.FrameRequest) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	cached, ok := c.entries[req]
	if !ok {
		c.misses++
		return nil
	}
	if time.Since(cached.renderedAt) > c.ttl {
		c.remove(req)
		c.misses++
		return nil
	}
	c.hits++
	return cached.png
}

// Put stores png for req. The slice must not be modified afterwards.
func (c *PreviewCache) Put(req render.FrameRequest, png []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[req]; ok {
		c.remove(req)
	}
	for len(c.entries) >= c.maxSize && len(c.order) > 0 {
		c.remove(c.order[0])
	}

	c.entries[req] = &cachedPreview{png: png, renderedAt: time.Now()}
	c.order = append(c.order, req)
}

// remove deletes req from both the map and the order. Caller holds c.mu.
func (c *PreviewCache) remove(req render.FrameRequest) {
	delete(c.entries, req)
	for i, k := range c.order {
		if k == req {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Size returns the current cache size
func (c *PreviewCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// GetStats returns hit/miss counters
func (c *PreviewCache) GetStats() map[string]uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return map[string]uint64{
		"hits":    c.hits,
		"misses":  c.misses,
		"entries": uint64(len(c.entries)),
	}
}
