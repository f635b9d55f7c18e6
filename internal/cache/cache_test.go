package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 2, 6, 4, 17, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func TestGetSet(t *testing.T) {
	c := New[string]("test")

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("k", "v", time.Minute)
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)

	c.Set("k", "v2", time.Minute)
	v, _ = c.Get("k")
	assert.Equal(t, "v2", v, "last write wins")
	assert.Equal(t, 1, c.Len())
}

func TestTTLExpiry(t *testing.T) {
	clock := newFakeClock()
	c := New[int]("ttl", WithClock(clock.Now))

	c.Set("a", 1, time.Hour)
	clock.Advance(59 * time.Minute)
	_, ok := c.Get("a")
	assert.True(t, ok)

	clock.Advance(time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok, "entry expires exactly at its deadline")

	s := c.Stats()
	assert.Equal(t, uint64(1), s.Hits)
	assert.Equal(t, uint64(1), s.Misses)
	assert.Equal(t, uint64(1), s.Expirations)
	assert.Equal(t, 0, s.Size)
}

func TestDefaultTTL(t *testing.T) {
	clock := newFakeClock()
	c := New[int]("default", WithClock(clock.Now), WithDefaultTTL(10*time.Second))

	c.Set("a", 1, 0)
	clock.Advance(11 * time.Second)
	_, ok := c.Get("a")
	assert.False(t, ok)

	forever := New[int]("forever", WithClock(clock.Now))
	forever.Set("a", 1, 0)
	clock.Advance(1000 * time.Hour)
	_, ok = forever.Get("a")
	assert.True(t, ok)
}

func TestLRUEviction(t *testing.T) {
	c := New[int]("lru", WithMaxSize(2))

	c.Set("a", 1, time.Hour)
	c.Set("b", 2, time.Hour)
	_, _ = c.Get("a") // a is now most recent
	c.Set("c", 3, time.Hour)

	_, okA := c.Get("a")
	_, okB := c.Get("b")
	_, okC := c.Get("c")
	assert.True(t, okA)
	assert.False(t, okB, "least recently used entry is evicted")
	assert.True(t, okC)
	assert.Equal(t, uint64(1), c.Stats().Evictions)
}

func TestEvictionPrefersExpired(t *testing.T) {
	clock := newFakeClock()
	c := New[int]("exp", WithMaxSize(2), WithClock(clock.Now))

	c.Set("short", 1, time.Second)
	c.Set("long", 2, time.Hour)
	_, _ = c.Get("short")
	clock.Advance(2 * time.Second)
	c.Set("new", 3, time.Hour)

	_, ok := c.Get("long")
	assert.True(t, ok)
	s := c.Stats()
	assert.Equal(t, uint64(0), s.Evictions)
	assert.Equal(t, uint64(1), s.Expirations)
}

func TestEvictionAtCapacityFollowsPolicy(t *testing.T) {
	const size = 500
	c := New[int]("full", WithMaxSize(size))
	for i := range size {
		c.Set(fmt.Sprintf("old-%03d", i), i, time.Hour)
	}
	for i := range size {
		c.Set(fmt.Sprintf("new-%03d", i), i, time.Hour)
		_, ok := c.Get(fmt.Sprintf("old-%03d", i))
		require.False(t, ok, "oldest live entry goes first")
	}

	s := c.Stats()
	assert.Equal(t, size, s.Size)
	assert.Equal(t, uint64(size), s.Evictions)
	assert.Zero(t, s.Expirations)
}

func TestExpiredVictimCountsAsExpiration(t *testing.T) {
	clock := newFakeClock()
	c := New[int]("victim", WithMaxSize(expirySample*4), WithClock(clock.Now))

	c.Set("stale", 0, time.Second)
	for i := 1; i < expirySample*4; i++ {
		c.Set(fmt.Sprintf("k%02d", i), i, time.Hour)
	}
	clock.Advance(2 * time.Second)
	c.Set("fresh", 1, time.Hour)

	_, ok := c.Get("stale")
	assert.False(t, ok)
	s := c.Stats()
	assert.Zero(t, s.Evictions)
	assert.Equal(t, uint64(1), s.Expirations)
	assert.Equal(t, expirySample*4, s.Size)
}

func TestFIFOPolicy(t *testing.T) {
	c := New[int]("fifo", WithMaxSize(2), WithPolicy(NewFIFO()))

	c.Set("a", 1, time.Hour)
	c.Set("b", 2, time.Hour)
	_, _ = c.Get("a") // access does not matter for FIFO
	c.Set("c", 3, time.Hour)

	_, okA := c.Get("a")
	_, okB := c.Get("b")
	assert.False(t, okA)
	assert.True(t, okB)
}

func TestClearAndDelete(t *testing.T) {
	c := New[int]("clear", WithMaxSize(10))
	for i := range 5 {
		c.Set(fmt.Sprintf("k%d", i), i, time.Hour)
	}
	c.Delete("k0")
	c.Delete("nope")
	assert.Equal(t, 4, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
	_, ok := c.Get("k1")
	assert.False(t, ok)

	// The policy was reset with the entries, so filling again evicts cleanly.
	for i := range 12 {
		c.Set(fmt.Sprintf("n%d", i), i, time.Hour)
	}
	assert.Equal(t, 10, c.Len())
}

func TestPurgeExpired(t *testing.T) {
	clock := newFakeClock()
	c := New[int]("purge", WithClock(clock.Now))
	c.Set("a", 1, time.Second)
	c.Set("b", 2, time.Second)
	c.Set("c", 3, time.Hour)
	clock.Advance(time.Minute)

	assert.Equal(t, 2, c.PurgeExpired())
	assert.Equal(t, 1, c.Len())
}

func TestStatsHitRate(t *testing.T) {
	c := New[int]("rate")
	assert.Zero(t, c.Stats().HitRate)

	c.Set("a", 1, time.Hour)
	_, _ = c.Get("a")
	_, _ = c.Get("a")
	_, _ = c.Get("a")
	_, _ = c.Get("b")

	s := c.Stats()
	assert.Equal(t, "rate", s.Name)
	assert.InDelta(t, 0.75, s.HitRate, 0.0001)
	assert.Equal(t, 1, s.Size)
}

func TestConcurrentAccess(t *testing.T) {
	c := New[int]("concurrent", WithMaxSize(50))
	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 200 {
				key := fmt.Sprintf("k%d", (g*200+i)%75)
				c.Set(key, i, time.Minute)
				_, _ = c.Get(key)
			}
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 50)
}
