package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shortlyhq/shortly/internal"
)

// CreateURL inserts a new record. Uniqueness of the code/slug namespace is
// enforced by the short_code unique index (a custom slug is stored in
// short_code as well), so two concurrent creators racing on the same slug
// produce one row and one ErrConflict.
func (s *Store) CreateURL(ctx context.Context, url *internal.URL) error {
	err := s.db.WithContext(ctx).Create(url).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return internal.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("create url: %w", err)
	}
	return nil
}

// FindActiveByCode returns the record for a code, filtered to active and
// non-expired rows. Absent, disabled and expired records are all
// internal.ErrNotFound.
func (s *Store) FindActiveByCode(ctx context.Context, code string) (*internal.URL, error) {
	var url internal.URL
	err := s.db.WithContext(ctx).
		Where("short_code = ? AND is_active = true", code).
		Where("expires_at IS NULL OR expires_at > ?", time.Now()).
		First(&url).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, internal.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find url %q: %w", code, err)
	}
	return &url, nil
}

// IsCodeAvailable checks both namespaces, active or not. Inactive records
// still hold their code.
func (s *Store) IsCodeAvailable(ctx context.Context, code string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&internal.URL{}).
		Where("short_code = ? OR custom_slug = ?", code, code).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("availability check %q: %w", code, err)
	}
	return count == 0, nil
}

// DeleteURL removes a record and, via the cascade, its click history. Only
// the owner can delete; a mismatched owner is indistinguishable from an
// absent code.
func (s *Store) DeleteURL(ctx context.Context, code string, ownerID uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Where("short_code = ? AND user_id = ?", code, ownerID).
		Delete(&internal.URL{})
	if res.Error != nil {
		return fmt.Errorf("delete url %q: %w", code, res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.ErrNotFound
	}
	return nil
}

// ListUserURLs returns one page of the owner's links, newest first. Click
// history is never loaded here.
func (s *Store) ListUserURLs(ctx context.Context, ownerID uuid.UUID, page, limit int) ([]internal.URL, int64, error) {
	if page < 1 {
		page = 1
	}

	var total int64
	q := s.db.WithContext(ctx).Model(&internal.URL{}).Where("user_id = ?", ownerID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count urls: %w", err)
	}

	var urls []internal.URL
	err := q.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&urls).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list urls: %w", err)
	}
	return urls, total, nil
}
