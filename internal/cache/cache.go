// Package cache is the Redis fast path: code->URL lookups, distributed rate
// limit counters, click-event buffering and the token revocation set.
//
// Every operation degrades gracefully. Redis being down must never become a
// user-visible failure: lookups report a miss, rate limiting fails open and
// writes are dropped with a log line. The store remains the source of truth.
package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shortlyhq/shortly/internal"
	"github.com/shortlyhq/shortly/internal/logger"
)

const (
	urlPrefix       = "url:"
	rateLimitPrefix = "rl:"
	clickPrefix     = "clicks:"
	blacklistPrefix = "blacklist:"

	// An unflushed click buffer expires on its own so a broken drain path
	// cannot grow it without bound.
	clickBufferTTL = 5 * time.Minute
)

type Cache struct {
	rdb *redis.Client
}

type Options struct {
	Addr     string
	Password string
	DB       int
	Timeout  time.Duration
}

func New(opts Options) *Cache {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})
	return &Cache{rdb: rdb}
}

// NewWithClient wraps an existing client; used by tests running against
// miniature or shared Redis instances.
func NewWithClient(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	return c.rdb.Close()
}

// CacheURL stores the code->URL mapping with an expiry. Best effort.
func (c *Cache) CacheURL(ctx context.Context, code, url string, ttl time.Duration) {
	if err := c.rdb.Set(ctx, urlPrefix+code, url, ttl).Err(); err != nil {
		logger.FromContext(ctx).Warn("cache set failed", "code", code, "err", err)
	}
}

// GetCachedURL returns the cached destination for a code. Both a genuine
// miss and an unreachable Redis report found=false; callers fall back to
// the store either way.
func (c *Cache) GetCachedURL(ctx context.Context, code string) (string, bool) {
	url, err := c.rdb.Get(ctx, urlPrefix+code).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		logger.FromContext(ctx).Warn("cache get failed", "code", code, "err", err)
		return "", false
	}
	return url, true
}

// Invalidate removes a cached mapping after an owner-initiated delete.
// Deleting an absent key is a no-op, so invalidation is idempotent.
func (c *Cache) Invalidate(ctx context.Context, code string) {
	if err := c.rdb.Del(ctx, urlPrefix+code).Err(); err != nil {
		logger.FromContext(ctx).Warn("cache invalidate failed", "code", code, "err", err)
	}
}

// BufferClick appends a click event to the per-code buffer for batch
// processing. Clicks can be lost if Redis is down; that is the accepted
// trade for never failing a redirect.
func (c *Cache) BufferClick(ctx context.Context, code string, event internal.ClickEvent) {
	body, err := json.Marshal(event)
	if err != nil {
		logger.FromContext(ctx).Warn("click event marshal failed", "code", code, "err", err)
		return
	}
	pipe := c.rdb.Pipeline()
	pipe.RPush(ctx, clickPrefix+code, body)
	pipe.Expire(ctx, clickPrefix+code, clickBufferTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.FromContext(ctx).Warn("click buffer failed", "code", code, "err", err)
	}
}

// FlushClickBuffer atomically reads and clears the buffer for a code.
func (c *Cache) FlushClickBuffer(ctx context.Context, code string) []internal.ClickEvent {
	pipe := c.rdb.TxPipeline()
	rangeCmd := pipe.LRange(ctx, clickPrefix+code, 0, -1)
	pipe.Del(ctx, clickPrefix+code)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.FromContext(ctx).Warn("click buffer flush failed", "code", code, "err", err)
		return nil
	}

	raw := rangeCmd.Val()
	events := make([]internal.ClickEvent, 0, len(raw))
	for _, item := range raw {
		var ev internal.ClickEvent
		if err := json.Unmarshal([]byte(item), &ev); err != nil {
			logger.FromContext(ctx).Warn("dropping undecodable click event", "code", code, "err", err)
			continue
		}
		if ev.ShortCode == "" {
			ev.ShortCode = code
		}
		events = append(events, ev)
	}
	return events
}

// ScanClickBuffers lists codes that currently have buffered clicks. The
// worker uses it to drain buffers left behind when queue publishing failed.
func (c *Cache) ScanClickBuffers(ctx context.Context) []string {
	var codes []string
	iter := c.rdb.Scan(ctx, 0, clickPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		codes = append(codes, strings.TrimPrefix(iter.Val(), clickPrefix))
	}
	if err := iter.Err(); err != nil {
		logger.FromContext(ctx).Warn("click buffer scan failed", "err", err)
	}
	return codes
}

// BlacklistToken revokes a token until its own expiry horizon.
func (c *Cache) BlacklistToken(ctx context.Context, token string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if err := c.rdb.Set(ctx, blacklistPrefix+token, "1", ttl).Err(); err != nil {
		logger.FromContext(ctx).Warn("token blacklist failed", "err", err)
	}
}

// IsBlacklisted fails open: an unreachable Redis never locks out a valid
// token.
func (c *Cache) IsBlacklisted(ctx context.Context, token string) bool {
	n, err := c.rdb.Exists(ctx, blacklistPrefix+token).Result()
	if err != nil {
		logger.FromContext(ctx).Warn("token blacklist check failed", "err", err)
		return false
	}
	return n == 1
}
