package codelockout

import (
	"context"
	"sync"
	"time"
)

// MemoryCounter is a single-process Counter for tests and redis-less runs.
type MemoryCounter struct {
	mu     sync.Mutex
	misses map[string]*windowCount
	locks  map[string]time.Time
	now    func() time.Time
}

type windowCount struct {
	count     int64
	expiresAt time.Time
}

// NewMemoryCounter constructs an empty counter.
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{
		misses: make(map[string]*windowCount),
		locks:  make(map[string]time.Time),
		now:    time.Now,
	}
}

func (c *MemoryCounter) IncrMiss(_ context.Context, key string, window time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	w := c.misses[key]
	if w == nil || now.After(w.expiresAt) {
		w = &windowCount{expiresAt: now.Add(window)}
		c.misses[key] = w
	}
	w.count++
	return w.count, nil
}

func (c *MemoryCounter) SetLock(_ context.Context, key string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.locks[key] = c.now().Add(ttl)
	return nil
}

func (c *MemoryCounter) IsLocked(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	until, ok := c.locks[key]
	if !ok {
		return false, nil
	}
	if c.now().After(until) {
		delete(c.locks, key)
		return false, nil
	}
	return true, nil
}
