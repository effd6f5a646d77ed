package recorder

import (
	"sync"
	"time"
)

// Cache keeps the last crop predictions in memory, newest first on read.
type Cache struct {
	mu    sync.RWMutex
	items []cached
	next  int
	full  bool
}

type cached struct {
	at time.Time
	p  Prediction
}

func NewCache(size int) *Cache {
	if size <= 0 {
		size = 200
	}
	return &Cache{items: make([]cached, size)}
}

func (c *Cache) Add(at time.Time, p Prediction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[c.next] = cached{at: at, p: p}
	c.next = (c.next + 1) % len(c.items)
	if c.next == 0 {
		c.full = true
	}
}

// Recent returns up to limit predictions not older than since, newest first.
func (c *Cache) Recent(since time.Time, limit int) []Prediction {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := c.next
	if c.full {
		n = len(c.items)
	}
	out := make([]Prediction, 0, min(n, max(limit, 0)))
	for i := 0; i < n && len(out) < limit; i++ {
		idx := (c.next - 1 - i + len(c.items)) % len(c.items)
		it := c.items[idx]
		if it.at.Before(since) {
			continue
		}
		out = append(out, it.p)
	}
	return out
}
