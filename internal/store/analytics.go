package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shortlyhq/shortly/internal"
)

type Bucket struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

type AnalyticsSummary struct {
	URL struct {
		ShortCode   string  `json:"shortCode"`
		OriginalURL string  `json:"originalUrl"`
		ClickCount  int64   `json:"clickCount"`
		IsActive    bool    `json:"isActive"`
		CreatedAt   string  `json:"createdAt"`
		ExpiresAt   *string `json:"expiresAt,omitempty"`
	} `json:"url"`
	ClicksByDay     []Bucket `json:"clicksByDay"`
	ClicksByCountry []Bucket `json:"clicksByCountry"`
	ClicksByDevice  []Bucket `json:"clicksByDevice"`
	ClicksByBrowser []Bucket `json:"clicksByBrowser"`
}

// Analytics computes the on-demand click summary for a link. Ownership is
// verified first; a link owned by someone else looks like a missing one.
func (s *Store) Analytics(ctx context.Context, code string, ownerID uuid.UUID) (*AnalyticsSummary, error) {
	var url internal.URL
	err := s.db.WithContext(ctx).
		Where("short_code = ? AND user_id = ?", code, ownerID).
		First(&url).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, internal.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("analytics %q: %w", code, err)
	}

	summary := &AnalyticsSummary{}
	summary.URL.ShortCode = url.ShortCode
	summary.URL.OriginalURL = url.OriginalURL
	summary.URL.ClickCount = url.ClickCount
	summary.URL.IsActive = url.IsActive
	summary.URL.CreatedAt = url.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	if url.ExpiresAt != nil {
		exp := url.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z07:00")
		summary.URL.ExpiresAt = &exp
	}

	if summary.ClicksByDay, err = s.clicksByDay(ctx, url.ID); err != nil {
		return nil, err
	}
	if summary.ClicksByCountry, err = s.clicksGroupedBy(ctx, url.ID, "country", "Unknown", 10); err != nil {
		return nil, err
	}
	if summary.ClicksByDevice, err = s.clicksGroupedBy(ctx, url.ID, "device", "unknown", 0); err != nil {
		return nil, err
	}
	if summary.ClicksByBrowser, err = s.clicksGroupedBy(ctx, url.ID, "browser", "unknown", 0); err != nil {
		return nil, err
	}
	return summary, nil
}

// clicksByDay returns the most recent 30 day buckets in ascending date
// order: newest 30 selected descending, then reversed.
func (s *Store) clicksByDay(ctx context.Context, urlID int64) ([]Bucket, error) {
	var buckets []Bucket
	err := s.db.WithContext(ctx).Raw(`
		SELECT to_char(timestamp, 'YYYY-MM-DD') AS key, count(*) AS count
		FROM clicks
		WHERE url_id = ?
		GROUP BY 1
		ORDER BY 1 DESC
		LIMIT 30`, urlID).Scan(&buckets).Error
	if err != nil {
		return nil, fmt.Errorf("clicks by day: %w", err)
	}
	for i, j := 0, len(buckets)-1; i < j; i, j = i+1, j-1 {
		buckets[i], buckets[j] = buckets[j], buckets[i]
	}
	return buckets, nil
}

// clicksGroupedBy aggregates over one click dimension. Ties are broken by
// group key so repeated calls return identical ordering.
func (s *Store) clicksGroupedBy(ctx context.Context, urlID int64, column, unknown string, limit int) ([]Bucket, error) {
	q := fmt.Sprintf(`
		SELECT COALESCE(NULLIF(%s, ''), ?) AS key, count(*) AS count
		FROM clicks
		WHERE url_id = ?
		GROUP BY 1
		ORDER BY count DESC, key ASC`, column)
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}

	var buckets []Bucket
	if err := s.db.WithContext(ctx).Raw(q, unknown, urlID).Scan(&buckets).Error; err != nil {
		return nil, fmt.Errorf("clicks by %s: %w", column, err)
	}
	return buckets, nil
}
