// Package cache keeps computed load payloads so navigating between plays
// does not recompute route timings.
package cache

import (
	"sync"

	"github.com/gridironlab/playbook/internal/timing"
)

type key struct {
	playID   string
	speedFps float64
}

// PayloadCache caches load payloads by play and player speed
type PayloadCache struct {
	mu       sync.RWMutex
	payloads map[key]timing.LoadPlayPayload

	Hits   SafeCounter
	Misses SafeCounter
}

func NewPayloadCache() *PayloadCache {
	return &PayloadCache{
		payloads: make(map[key]timing.LoadPlayPayload),
	}
}

// Get returns the cached payload for a play at speedFps
func (c *PayloadCache) Get(playID string, speedFps float64) (timing.LoadPlayPayload, bool) {
	c.mu.RLock()
	p, ok := c.payloads[key{playID, speedFps}]
	c.mu.RUnlock()
	if ok {
		c.Hits.Inc()
	} else {
		c.Misses.Inc()
	}
	return p, ok
}

func (c *PayloadCache) Set(speedFps float64, p timing.LoadPlayPayload) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payloads[key{p.PlayID, speedFps}] = p
}

// Invalidate drops every cached payload of a play, at any speed
func (c *PayloadCache) Invalidate(playID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.payloads {
		if k.playID == playID {
			delete(c.payloads, k)
		}
	}
}

func (c *PayloadCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.payloads)
}

func (c *PayloadCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payloads = make(map[key]timing.LoadPlayPayload)
}

// SafeCounter is a thread-safe counter
type SafeCounter struct {
	mu sync.Mutex
	v  int
}

func (c *SafeCounter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

func (c *SafeCounter) Inc() {
	c.mu.Lock()
	c.v++
	c.mu.Unlock()
}
