package resolver

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shortlyhq/shortly/internal"
)

type fakeCache struct {
	mu       sync.Mutex
	entries  map[string]string
	ttls     map[string]time.Duration
	buffered []internal.ClickEvent
	gets     int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeCache) GetCachedURL(ctx context.Context, code string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	url, ok := f.entries[code]
	return url, ok
}

func (f *fakeCache) CacheURL(ctx context.Context, code, url string, ttl time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[code] = url
	f.ttls[code] = ttl
}

func (f *fakeCache) BufferClick(ctx context.Context, code string, event internal.ClickEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buffered = append(f.buffered, event)
}

func (f *fakeCache) bufferedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.buffered)
}

type fakeStore struct {
	mu      sync.Mutex
	urls    map[string]*internal.URL
	clicks  []internal.ClickEvent
	finds   int
	prepped error
}

func newFakeStore() *fakeStore {
	return &fakeStore{urls: map[string]*internal.URL{}}
}

func (f *fakeStore) FindActiveByCode(ctx context.Context, code string) (*internal.URL, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finds++
	url, ok := f.urls[code]
	if !ok || !url.IsActive || url.Expired(time.Now()) {
		return nil, internal.ErrNotFound
	}
	return url, nil
}

func (f *fakeStore) RecordClick(ctx context.Context, code string, event internal.ClickEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.prepped != nil {
		return f.prepped
	}
	f.clicks = append(f.clicks, event)
	return nil
}

func (f *fakeStore) clickCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clicks)
}

type fakePublisher struct {
	fail      bool
	published chan internal.ClickEvent
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{published: make(chan internal.ClickEvent, 8)}
}

func (f *fakePublisher) PublishClick(ctx context.Context, event internal.ClickEvent) error {
	if f.fail {
		return errors.New("broker down")
	}
	f.published <- event
	return nil
}

func visit() Visit {
	return Visit{IP: "203.0.113.9", UserAgent: "curl/8.4.0", Referer: "https://news.example"}
}

func TestResolveCacheHit(t *testing.T) {
	cache := newFakeCache()
	cache.entries["abc1234"] = "https://example.com"
	store := newFakeStore()
	pub := newFakePublisher()
	r := New(cache, store, pub)

	url, err := r.Resolve(context.Background(), "abc1234", visit())
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", url)

	// Click goes through the async queue path, never the store.
	select {
	case ev := <-pub.published:
		assert.Equal(t, "abc1234", ev.ShortCode)
		assert.Equal(t, "203.0.113.9", ev.IP)
	case <-time.After(2 * time.Second):
		t.Fatal("expected click event to be published")
	}
	assert.Equal(t, 0, store.finds)
	assert.Equal(t, 0, store.clickCount())
}

func TestResolveCacheHitPublishFailureFallsBackToBuffer(t *testing.T) {
	cache := newFakeCache()
	cache.entries["abc1234"] = "https://example.com"
	pub := newFakePublisher()
	pub.fail = true
	r := New(cache, newFakeStore(), pub)

	url, err := r.Resolve(context.Background(), "abc1234", visit())
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", url)

	assert.Eventually(t, func() bool { return cache.bufferedCount() == 1 },
		2*time.Second, 10*time.Millisecond)
}

func TestResolveCacheMiss(t *testing.T) {
	cache := newFakeCache()
	store := newFakeStore()
	exp := time.Now().Add(30 * time.Minute)
	store.urls["abc1234"] = &internal.URL{
		ShortCode:   "abc1234",
		OriginalURL: "https://example.com",
		IsActive:    true,
		ExpiresAt:   &exp,
	}
	r := New(cache, store, newFakePublisher())

	url, err := r.Resolve(context.Background(), "abc1234", visit())
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", url)

	// Cache repopulated with the remaining lifetime as TTL.
	assert.Equal(t, "https://example.com", cache.entries["abc1234"])
	assert.InDelta(t, (30 * time.Minute).Seconds(), cache.ttls["abc1234"].Seconds(), 5)

	// Click recorded synchronously on the miss path.
	assert.Equal(t, 1, store.clickCount())
}

func TestResolveCacheMissDefaultTTL(t *testing.T) {
	cache := newFakeCache()
	store := newFakeStore()
	store.urls["abc1234"] = &internal.URL{
		ShortCode:   "abc1234",
		OriginalURL: "https://example.com",
		IsActive:    true,
	}
	r := New(cache, store, newFakePublisher())

	_, err := r.Resolve(context.Background(), "abc1234", visit())
	require.NoError(t, err)
	assert.Equal(t, time.Hour, cache.ttls["abc1234"])
}

func TestResolveNotFound(t *testing.T) {
	r := New(newFakeCache(), newFakeStore(), newFakePublisher())

	_, err := r.Resolve(context.Background(), "missing1", visit())
	assert.ErrorIs(t, err, internal.ErrNotFound)
}

func TestResolveExpiredRecordNotFound(t *testing.T) {
	store := newFakeStore()
	past := time.Now().Add(-time.Minute)
	store.urls["old1234"] = &internal.URL{
		ShortCode:   "old1234",
		OriginalURL: "https://example.com",
		IsActive:    true,
		ExpiresAt:   &past,
	}
	r := New(newFakeCache(), store, newFakePublisher())

	_, err := r.Resolve(context.Background(), "old1234", visit())
	assert.ErrorIs(t, err, internal.ErrNotFound)
}

func TestResolveReservedPathShortCircuits(t *testing.T) {
	cache := newFakeCache()
	store := newFakeStore()
	r := New(cache, store, newFakePublisher())

	for _, code := range []string{"api", "health", "ADMIN"} {
		_, err := r.Resolve(context.Background(), code, visit())
		assert.ErrorIs(t, err, internal.ErrNotFound)
	}
	assert.Equal(t, 0, cache.gets)
	assert.Equal(t, 0, store.finds)
}

func TestResolveRejectsBadSchemes(t *testing.T) {
	for _, dest := range []string{
		"javascript:alert(1)",
		"DATA:text/html,x",
		"ftp://example.com",
		"file:///etc/passwd",
	} {
		t.Run(dest, func(t *testing.T) {
			cache := newFakeCache()
			cache.entries["evil123"] = dest
			r := New(cache, newFakeStore(), newFakePublisher())

			_, err := r.Resolve(context.Background(), "evil123", visit())
			assert.ErrorIs(t, err, internal.ErrUnsupportedScheme)
		})
	}
}

func TestResolveClickFailureDoesNotFailRedirect(t *testing.T) {
	store := newFakeStore()
	store.urls["abc1234"] = &internal.URL{
		ShortCode:   "abc1234",
		OriginalURL: "https://example.com",
		IsActive:    true,
	}
	store.prepped = errors.New("db write failed")
	r := New(newFakeCache(), store, newFakePublisher())

	url, err := r.Resolve(context.Background(), "abc1234", visit())
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", url)
}

func TestResolveNilPublisherBuffersDirectly(t *testing.T) {
	cache := newFakeCache()
	cache.entries["abc1234"] = "https://example.com"
	r := New(cache, newFakeStore(), nil)

	_, err := r.Resolve(context.Background(), "abc1234", visit())
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return cache.bufferedCount() == 1 },
		2*time.Second, 10*time.Millisecond)
}
