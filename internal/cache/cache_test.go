package cache

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shortlyhq/shortly/internal"
)

// These tests need a real Redis; set TEST_REDIS_ADDR to run them, e.g.
// TEST_REDIS_ADDR=localhost:6379 go test ./internal/cache/...
func testCache(t *testing.T) *Cache {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: 9})
	require.NoError(t, rdb.FlushDB(context.Background()).Err())
	t.Cleanup(func() { rdb.Close() })
	return NewWithClient(rdb)
}

// unreachableCache returns a cache whose every round-trip fails fast, for
// exercising the degraded paths. No Redis required.
func unreachableCache(t *testing.T) *Cache {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		ReadTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { rdb.Close() })
	return NewWithClient(rdb)
}

func TestURLCacheRoundTrip(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()

	_, ok := c.GetCachedURL(ctx, "abc1234")
	assert.False(t, ok)

	c.CacheURL(ctx, "abc1234", "https://example.com", time.Minute)
	url, ok := c.GetCachedURL(ctx, "abc1234")
	assert.True(t, ok)
	assert.Equal(t, "https://example.com", url)

	// Invalidation is idempotent: both deletes leave the same miss.
	c.Invalidate(ctx, "abc1234")
	_, ok = c.GetCachedURL(ctx, "abc1234")
	assert.False(t, ok)
	c.Invalidate(ctx, "abc1234")
	_, ok = c.GetCachedURL(ctx, "abc1234")
	assert.False(t, ok)
}

func TestRateLimitSlidingWindow(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		res := c.CheckRateLimit(ctx, "203.0.113.9", 5, time.Second)
		assert.True(t, res.Allowed, "request %d should be admitted", i+1)
		assert.Equal(t, 4-i, res.Remaining)
	}

	res := c.CheckRateLimit(ctx, "203.0.113.9", 5, time.Second)
	assert.False(t, res.Allowed, "6th request within the window must be rejected")

	// A different identifier is unaffected.
	assert.True(t, c.CheckRateLimit(ctx, "203.0.113.10", 5, time.Second).Allowed)

	time.Sleep(1100 * time.Millisecond)
	assert.True(t, c.CheckRateLimit(ctx, "203.0.113.9", 5, time.Second).Allowed,
		"a new request after the window elapses must be admitted")
}

func TestRateLimitConcurrentCallers(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()

	const callers = 20
	const max = 5

	var wg sync.WaitGroup
	results := make(chan bool, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- c.CheckRateLimit(ctx, "shared-ip", max, 10*time.Second).Allowed
		}()
	}
	wg.Wait()
	close(results)

	admitted := 0
	for allowed := range results {
		if allowed {
			admitted++
		}
	}
	assert.Equal(t, max, admitted, "exactly max callers may be admitted")
}

func TestRateLimitFailsOpen(t *testing.T) {
	c := unreachableCache(t)
	res := c.CheckRateLimit(context.Background(), "203.0.113.9", 1, time.Second)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Remaining)
}

func TestDegradedURLOps(t *testing.T) {
	c := unreachableCache(t)
	ctx := context.Background()

	// None of these may error out; the store fallback covers for them.
	c.CacheURL(ctx, "abc1234", "https://example.com", time.Minute)
	_, ok := c.GetCachedURL(ctx, "abc1234")
	assert.False(t, ok)
	c.Invalidate(ctx, "abc1234")
	assert.Empty(t, c.FlushClickBuffer(ctx, "abc1234"))
	assert.False(t, c.IsBlacklisted(ctx, "token"))
}

func TestClickBufferFlush(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		c.BufferClick(ctx, "abc1234", internal.ClickEvent{
			ShortCode: "abc1234",
			Timestamp: now,
			IP:        fmt.Sprintf("203.0.113.%d", i),
		})
	}

	events := c.FlushClickBuffer(ctx, "abc1234")
	require.Len(t, events, 3)
	assert.Equal(t, "203.0.113.0", events[0].IP)
	assert.Equal(t, "abc1234", events[0].ShortCode)

	// Flush clears: a second flush finds nothing.
	assert.Empty(t, c.FlushClickBuffer(ctx, "abc1234"))
}

func TestScanClickBuffers(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()

	c.BufferClick(ctx, "aaa1111", internal.ClickEvent{ShortCode: "aaa1111", Timestamp: time.Now()})
	c.BufferClick(ctx, "bbb2222", internal.ClickEvent{ShortCode: "bbb2222", Timestamp: time.Now()})
	c.CacheURL(ctx, "ccc3333", "https://example.com", time.Minute)

	codes := c.ScanClickBuffers(ctx)
	assert.ElementsMatch(t, []string{"aaa1111", "bbb2222"}, codes)
}

func TestTokenBlacklist(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()

	assert.False(t, c.IsBlacklisted(ctx, "tok-1"))

	c.BlacklistToken(ctx, "tok-1", time.Second)
	assert.True(t, c.IsBlacklisted(ctx, "tok-1"))

	// Entries expire on their own at the token's expiry horizon.
	time.Sleep(1100 * time.Millisecond)
	assert.False(t, c.IsBlacklisted(ctx, "tok-1"))

	// Zero TTL is ignored rather than persisted forever.
	c.BlacklistToken(ctx, "tok-2", 0)
	assert.False(t, c.IsBlacklisted(ctx, "tok-2"))
}
