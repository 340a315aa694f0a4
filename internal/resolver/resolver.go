// Package resolver orchestrates the redirect hot path: cache lookup, store
// fallback, cache repopulation, click recording and destination validation.
package resolver

import (
	"context"
	"time"

	"github.com/shortlyhq/shortly/internal"
	"github.com/shortlyhq/shortly/internal/logger"
)

const (
	// Cache TTL bounds for repopulated entries. The default also caps the
	// TTL so a cached mapping never outlives its record by more than the
	// accepted staleness window.
	minCacheTTL     = 60 * time.Second
	defaultCacheTTL = time.Hour

	// Deadline for the fire-and-forget recording goroutine.
	asyncRecordTimeout = 3 * time.Second
)

// CacheLayer is the fast path the resolver consults first.
type CacheLayer interface {
	GetCachedURL(ctx context.Context, code string) (string, bool)
	CacheURL(ctx context.Context, code, url string, ttl time.Duration)
	BufferClick(ctx context.Context, code string, event internal.ClickEvent)
}

// URLStore is the durable fallback and click sink.
type URLStore interface {
	FindActiveByCode(ctx context.Context, code string) (*internal.URL, error)
	RecordClick(ctx context.Context, code string, event internal.ClickEvent) error
}

// ClickPublisher hands a click event to the async pipeline.
type ClickPublisher interface {
	PublishClick(ctx context.Context, event internal.ClickEvent) error
}

// Visit carries the request metadata recorded with each click.
type Visit struct {
	IP        string
	UserAgent string
	Referer   string
}

type Resolver struct {
	cache CacheLayer
	store URLStore
	queue ClickPublisher
	now   func() time.Time
}

func New(cache CacheLayer, store URLStore, queue ClickPublisher) *Resolver {
	return &Resolver{
		cache: cache,
		store: store,
		queue: queue,
		now:   time.Now,
	}
}

// Resolve maps a short code to its destination URL.
//
// Cache hit: the click is recorded fire-and-forget and the cached URL is
// returned without waiting for durability. Cache miss: the store is
// consulted, the cache repopulated, and the click recorded synchronously.
// Either way the destination scheme is re-checked before it is handed back
// for an actual redirect.
func (r *Resolver) Resolve(ctx context.Context, code string, visit Visit) (string, error) {
	if internal.IsReservedPath(code) {
		return "", internal.ErrNotFound
	}

	event := internal.ClickEvent{
		ShortCode: code,
		Timestamp: r.now(),
		IP:        visit.IP,
		UserAgent: visit.UserAgent,
		Referer:   visit.Referer,
	}

	if url, ok := r.cache.GetCachedURL(ctx, code); ok {
		go r.recordAsync(event)
		if !internal.ValidDestination(url) {
			return "", internal.ErrUnsupportedScheme
		}
		return url, nil
	}

	record, err := r.store.FindActiveByCode(ctx, code)
	if err != nil {
		return "", err
	}

	ttl := record.RemainingTTL(r.now(), minCacheTTL, defaultCacheTTL)
	r.cache.CacheURL(ctx, code, record.OriginalURL, ttl)

	// A failed click write is logged and swallowed; it must never fail a
	// redirect that otherwise succeeded.
	if err := r.store.RecordClick(ctx, code, event); err != nil {
		logger.FromContext(ctx).Warn("click record failed", "code", code, "err", err)
	}

	if !internal.ValidDestination(record.OriginalURL) {
		return "", internal.ErrUnsupportedScheme
	}
	return record.OriginalURL, nil
}

// recordAsync pushes the click into the queue pipeline without blocking the
// redirect. When publishing fails the event lands in the cache-layer buffer
// instead, where the worker's drain pass picks it up. Errors on this path
// only ever log.
func (r *Resolver) recordAsync(event internal.ClickEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), asyncRecordTimeout)
	defer cancel()

	if r.queue != nil {
		err := r.queue.PublishClick(ctx, event)
		if err == nil {
			return
		}
		logger.Default().Warn("click publish failed, buffering",
			"code", event.ShortCode, "err", err)
	}
	r.cache.BufferClick(ctx, event.ShortCode, event)
}
