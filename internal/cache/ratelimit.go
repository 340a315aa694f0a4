package cache

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shortlyhq/shortly/internal/logger"
)

// Sliding window over a sorted set. The four sub-steps (evict old entries,
// count, record, re-arm expiry) run as one script so concurrent requests
// from the same identifier cannot both claim the last slot.
var rateLimitScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local max = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)
local count = redis.call('ZCARD', key)
redis.call('ZADD', key, now, member)
redis.call('PEXPIRE', key, window)

if count < max then
  return {1, max - count - 1}
end
return {0, 0}
`)

type RateLimitResult struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// CheckRateLimit admits or rejects a request for the given identifier.
// Redis transport failures fail open: availability wins over strict
// throttling, because a cache outage must not take pages down with it.
func (c *Cache) CheckRateLimit(ctx context.Context, identifier string, max int, window time.Duration) RateLimitResult {
	now := time.Now()
	open := RateLimitResult{Allowed: true, Remaining: max, ResetAt: now.Add(window)}

	member := fmt.Sprintf("%d-%d", now.UnixNano(), rand.Int63())
	res, err := rateLimitScript.Run(ctx, c.rdb,
		[]string{rateLimitPrefix + identifier},
		now.UnixMilli(), window.Milliseconds(), max, member,
	).Int64Slice()
	if err != nil {
		logger.FromContext(ctx).Warn("rate limit check failed, allowing request", "identifier", identifier, "err", err)
		return open
	}
	if len(res) != 2 {
		return open
	}

	return RateLimitResult{
		Allowed:   res[0] == 1,
		Remaining: int(res[1]),
		ResetAt:   now.Add(window),
	}
}
