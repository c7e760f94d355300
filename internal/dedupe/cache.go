// ABOUTME: Thread-safe TTL cache mapping idempotency keys to created message IDs.
// ABOUTME: Used by the conversation service to answer retried submissions.

package dedupe

import (
	"container/list"
	"sync"
	"time"
)

// entry stores when a key was recorded, the message it produced, and its
// position in the eviction list.
type entry struct {
	recordedAt time.Time
	messageID  int64
	element    *list.Element
}

// Cache is a TTL-based, size-limited map from idempotency key to message ID.
// Oldest keys are evicted first once maxSize is reached.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	order   *list.List // keys in record order (oldest at front)
	ttl     time.Duration
	maxSize int
	now     func() time.Time
	done    chan struct{}
	closed  bool
}

// New creates a cache with the specified TTL and maximum size.
// A background goroutine periodically sweeps expired keys.
func New(ttl time.Duration, maxSize int) *Cache {
	c := newCache(ttl, maxSize, time.Now)
	go c.sweepLoop(sweepInterval(ttl))
	return c
}

func newCache(ttl time.Duration, maxSize int, now func() time.Time) *Cache {
	if maxSize < 1 {
		maxSize = 1
	}
	return &Cache{
		entries: make(map[string]*entry),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		now:     now,
		done:    make(chan struct{}),
	}
}

// sweepInterval picks how often expired keys are purged.
func sweepInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 || ttl >= time.Minute {
		return time.Minute
	}
	return ttl
}

// Lookup returns the message ID recorded for key, if it is still live.
func (c *Cache) Lookup(key string) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || c.expired(e) {
		return 0, false
	}
	return e.messageID, true
}

// Record stores messageID under key, refreshing its TTL if it already exists.
func (c *Cache) Record(key string, messageID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.recordedAt = c.now()
		e.messageID = messageID
		c.order.MoveToBack(e.element)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.entries[key] = &entry{
		recordedAt: c.now(),
		messageID:  messageID,
		element:    c.order.PushBack(key),
	}
}

// Len returns the number of keys currently held, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// expired must be called with mu held.
func (c *Cache) expired(e *entry) bool {
	return c.now().Sub(e.recordedAt) >= c.ttl
}

// evictOldest must be called with mu held.
func (c *Cache) evictOldest() {
	front := c.order.Front()
	if front == nil {
		return
	}
	key, _ := front.Value.(string)
	c.order.Remove(front)
	delete(c.entries, key)
}

func (c *Cache) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.done:
			return
		}
	}
}

// sweep drops expired keys. Record order equals expiry order, so it stops at
// the first live key.
func (c *Cache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for front := c.order.Front(); front != nil; front = c.order.Front() {
		key, _ := front.Value.(string)
		e := c.entries[key]
		if e != nil && !c.expired(e) {
			return
		}
		c.order.Remove(front)
		delete(c.entries, key)
	}
}

// Close stops the background sweeper. It is safe to call multiple times.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.done)
		c.closed = true
	}
}
