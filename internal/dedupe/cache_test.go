// ABOUTME: Tests for the idempotency cache used by message submission.
// ABOUTME: Validates TTL expiry, refresh, eviction order, sweeping, and concurrency.

package dedupe

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
}

func newTestCache(ttl time.Duration, maxSize int) (*Cache, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)}
	return newCache(ttl, maxSize, clock.Now), clock
}

func TestCache_Lookup_Unknown(t *testing.T) {
	cache, _ := newTestCache(time.Minute, 10)

	_, ok := cache.Lookup("never-seen")
	assert.False(t, ok)
}

func TestCache_RecordAndLookup(t *testing.T) {
	cache, _ := newTestCache(time.Minute, 10)

	cache.Record("send:7:abc", 42)

	id, ok := cache.Lookup("send:7:abc")
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)
}

func TestCache_Lookup_Expired(t *testing.T) {
	cache, clock := newTestCache(time.Minute, 10)

	cache.Record("k", 1)
	clock.Advance(time.Minute)

	_, ok := cache.Lookup("k")
	assert.False(t, ok)
}

func TestCache_Record_RefreshesTTL(t *testing.T) {
	cache, clock := newTestCache(time.Minute, 10)

	cache.Record("k", 1)
	clock.Advance(40 * time.Second)
	cache.Record("k", 1)
	clock.Advance(40 * time.Second)

	_, ok := cache.Lookup("k")
	assert.True(t, ok, "re-recorded key should survive past its original TTL")
}

func TestCache_Eviction(t *testing.T) {
	cache, _ := newTestCache(time.Minute, 3)

	cache.Record("k1", 1)
	cache.Record("k2", 2)
	cache.Record("k3", 3)
	cache.Record("k4", 4)

	_, ok := cache.Lookup("k1")
	assert.False(t, ok, "oldest key should be evicted")
	for _, k := range []string{"k2", "k3", "k4"} {
		_, ok := cache.Lookup(k)
		assert.True(t, ok, k)
	}
	assert.Equal(t, 3, cache.Len())
}

func TestCache_Eviction_RefreshMovesToBack(t *testing.T) {
	cache, _ := newTestCache(time.Minute, 2)

	cache.Record("k1", 1)
	cache.Record("k2", 2)
	cache.Record("k1", 1) // k2 is now the oldest
	cache.Record("k3", 3)

	_, ok := cache.Lookup("k2")
	assert.False(t, ok)
	_, ok = cache.Lookup("k1")
	assert.True(t, ok)
}

func TestCache_Sweep(t *testing.T) {
	cache, clock := newTestCache(time.Minute, 10)

	cache.Record("old", 1)
	clock.Advance(30 * time.Second)
	cache.Record("new", 2)
	clock.Advance(31 * time.Second)

	cache.sweep()

	assert.Equal(t, 1, cache.Len())
	_, ok := cache.Lookup("new")
	assert.True(t, ok)
}

func TestCache_Close_Idempotent(t *testing.T) {
	cache := New(time.Minute, 10)
	cache.Close()
	cache.Close()
}

func TestCache_ConcurrentAccess(t *testing.T) {
	cache := New(time.Minute, 1000)
	defer cache.Close()

	var wg sync.WaitGroup
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				key := fmt.Sprintf("g%d-k%d", g, i)
				cache.Record(key, int64(i))
				cache.Lookup(key)
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, 1000, cache.Len())
}
