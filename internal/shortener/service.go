// Package shortener implements the link management operations: create with
// collision-safe code generation, delete with cache invalidation, listing
// and analytics.
package shortener

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shortlyhq/shortly/internal"
	"github.com/shortlyhq/shortly/internal/store"
)

type URLStore interface {
	CreateURL(ctx context.Context, url *internal.URL) error
	IsCodeAvailable(ctx context.Context, code string) (bool, error)
	DeleteURL(ctx context.Context, code string, ownerID uuid.UUID) error
	ListUserURLs(ctx context.Context, ownerID uuid.UUID, page, limit int) ([]internal.URL, int64, error)
	Analytics(ctx context.Context, code string, ownerID uuid.UUID) (*store.AnalyticsSummary, error)
}

type CacheLayer interface {
	CacheURL(ctx context.Context, code, url string, ttl time.Duration)
	Invalidate(ctx context.Context, code string)
}

type Service struct {
	store             URLStore
	cache             CacheLayer
	defaultExpiryDays int
	now               func() time.Time
}

func New(urlStore URLStore, cache CacheLayer, defaultExpiryDays int) *Service {
	return &Service{
		store:             urlStore,
		cache:             cache,
		defaultExpiryDays: defaultExpiryDays,
		now:               time.Now,
	}
}

type CreateInput struct {
	OriginalURL string
	CustomSlug  string
	ExpiryDays  int
	UserID      uuid.UUID
}

// Create validates the destination and the optional custom slug, picks a
// code and persists the record. The storage-layer uniqueness constraint is
// the real arbiter for races; the availability checks here exist to give
// honest error messages before paying for generation.
func (s *Service) Create(ctx context.Context, in CreateInput) (*internal.URL, error) {
	if !internal.ValidDestination(in.OriginalURL) {
		return nil, internal.ErrUnsupportedScheme
	}

	code := in.CustomSlug
	if code != "" {
		if internal.IsReservedSlug(code) {
			return nil, internal.ErrReservedSlug
		}
		if !internal.ValidateSlug(code) {
			return nil, internal.ErrInvalidSlug
		}
		free, err := s.store.IsCodeAvailable(ctx, code)
		if err != nil {
			return nil, err
		}
		if !free {
			return nil, internal.ErrConflict
		}
	} else {
		generated, err := internal.GenerateCode(ctx, s.store.IsCodeAvailable)
		if err != nil {
			return nil, err
		}
		code = generated
	}

	days := in.ExpiryDays
	if days <= 0 {
		days = s.defaultExpiryDays
	}
	expiresAt := s.now().Add(time.Duration(days) * 24 * time.Hour)

	url := &internal.URL{
		ShortCode:   code,
		OriginalURL: in.OriginalURL,
		UserID:      in.UserID,
		IsActive:    true,
		ExpiresAt:   &expiresAt,
	}
	if in.CustomSlug != "" {
		url.CustomSlug = &in.CustomSlug
	}

	if err := s.store.CreateURL(ctx, url); err != nil {
		return nil, err
	}

	// Warm the cache so the first redirect is already a hit.
	s.cache.CacheURL(ctx, code, url.OriginalURL, url.RemainingTTL(s.now(), time.Minute, time.Hour))
	return url, nil
}

// Delete removes an owned link and invalidates its cache entry so the
// mapping stops resolving immediately rather than at TTL expiry.
func (s *Service) Delete(ctx context.Context, code string, ownerID uuid.UUID) error {
	if err := s.store.DeleteURL(ctx, code, ownerID); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, code)
	return nil
}

func (s *Service) List(ctx context.Context, ownerID uuid.UUID, page, limit int) ([]internal.URL, int64, error) {
	return s.store.ListUserURLs(ctx, ownerID, page, limit)
}

func (s *Service) Analytics(ctx context.Context, code string, ownerID uuid.UUID) (*store.AnalyticsSummary, error) {
	return s.store.Analytics(ctx, code, ownerID)
}
