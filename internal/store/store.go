// Package store is the durable record of URLs, users and click history,
// backed by Postgres through GORM. It is the source of truth the cache
// derives from.
package store

import (
	"context"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/shortlyhq/shortly/internal"
	applog "github.com/shortlyhq/shortly/internal/logger"
)

type Store struct {
	db *gorm.DB
}

func New(dsn, gormLogLevel string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: applog.NewGormLogger(gormLogLevel),
		// Maps unique violations to gorm.ErrDuplicatedKey so racing
		// creators get exactly one conflict.
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing GORM handle; used by tests.
func NewWithDB(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&internal.User{}, &internal.URL{}, &internal.Click{})
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// SweepExpired is the store-level passive expiry: it removes records whose
// expiresAt has passed, click history cascading with them. The resolver
// filters expired rows on every read, so the sweep cadence only bounds
// storage growth, never correctness.
func (s *Store) SweepExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", time.Now()).
		Delete(&internal.URL{})
	return res.RowsAffected, res.Error
}
