package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/shortlyhq/shortly/internal"
)

func clickFromEvent(urlID int64, ev internal.ClickEvent) internal.Click {
	return internal.Click{
		URLID:     urlID,
		Timestamp: ev.Timestamp,
		IP:        ev.IP,
		UserAgent: ev.UserAgent,
		Referer:   ev.Referer,
		Device:    internal.ParseDevice(ev.UserAgent),
		Browser:   internal.ParseBrowser(ev.UserAgent),
		OS:        internal.ParseOS(ev.UserAgent),
	}
}

// RecordClick appends one click and bumps the counter in a single
// transaction. The click row and the counter must move together or replays
// from the queue would skew one against the other.
func (s *Store) RecordClick(ctx context.Context, code string, ev internal.ClickEvent) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var url internal.URL
		err := tx.Select("id").Where("short_code = ?", code).First(&url).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Link deleted or swept between redirect and recording.
			return nil
		}
		if err != nil {
			return fmt.Errorf("record click %q: %w", code, err)
		}

		click := clickFromEvent(url.ID, ev)
		if err := tx.Create(&click).Error; err != nil {
			return fmt.Errorf("record click %q: %w", code, err)
		}
		return tx.Model(&internal.URL{}).Where("id = ?", url.ID).
			UpdateColumn("click_count", gorm.Expr("click_count + 1")).Error
	})
}

// RecordClickBatch persists a batch of buffered or queued click events,
// grouped per code. Events for codes that no longer exist are dropped.
func (s *Store) RecordClickBatch(ctx context.Context, events []internal.ClickEvent) error {
	if len(events) == 0 {
		return nil
	}

	byCode := make(map[string][]internal.ClickEvent)
	for _, ev := range events {
		byCode[ev.ShortCode] = append(byCode[ev.ShortCode], ev)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for code, group := range byCode {
			var url internal.URL
			err := tx.Select("id").Where("short_code = ?", code).First(&url).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("batch click %q: %w", code, err)
			}

			clicks := make([]internal.Click, 0, len(group))
			for _, ev := range group {
				clicks = append(clicks, clickFromEvent(url.ID, ev))
			}
			if err := tx.Create(&clicks).Error; err != nil {
				return fmt.Errorf("batch click %q: %w", code, err)
			}
			err = tx.Model(&internal.URL{}).Where("id = ?", url.ID).
				UpdateColumn("click_count", gorm.Expr("click_count + ?", len(group))).Error
			if err != nil {
				return fmt.Errorf("batch click %q: %w", code, err)
			}
		}
		return nil
	})
}
