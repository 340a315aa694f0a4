package internal

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"type:varchar(50);not null" json:"name"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"type:varchar(60);not null" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type URL struct {
	ID          int64      `gorm:"primaryKey;type:bigint" json:"-"`
	ShortCode   string     `gorm:"type:varchar(50);uniqueIndex;not null" json:"shortCode"`
	OriginalURL string     `gorm:"type:text;not null" json:"originalUrl"`
	CustomSlug  *string    `gorm:"type:varchar(50);uniqueIndex" json:"customSlug,omitempty"`
	UserID      uuid.UUID  `gorm:"type:uuid;index;not null" json:"-"`
	User        User       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ClickCount  int64      `gorm:"not null;default:0" json:"clickCount"`
	IsActive    bool       `gorm:"not null;default:true" json:"isActive"`
	ExpiresAt   *time.Time `gorm:"index" json:"expiresAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Click is an append-only record of one redirect. Country and city stay
// empty until a geo-IP integration exists.
type Click struct {
	ID        int64     `gorm:"primaryKey;type:bigint" json:"-"`
	URLID     int64     `gorm:"index;not null" json:"-"`
	URL       URL       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Timestamp time.Time `gorm:"index;not null" json:"timestamp"`
	IP        string    `gorm:"type:varchar(45)" json:"ip,omitempty"`
	UserAgent string    `gorm:"type:text" json:"userAgent,omitempty"`
	Referer   string    `gorm:"type:text" json:"referer,omitempty"`
	Device    string    `gorm:"type:varchar(16)" json:"device,omitempty"`
	Browser   string    `gorm:"type:varchar(16)" json:"browser,omitempty"`
	OS        string    `gorm:"type:varchar(16)" json:"os,omitempty"`
	Country   string    `gorm:"type:varchar(64)" json:"country,omitempty"`
	City      string    `gorm:"type:varchar(64)" json:"city,omitempty"`
}

// Expired reports whether the record's expiry has passed. A nil ExpiresAt
// never expires.
func (u *URL) Expired(now time.Time) bool {
	return u.ExpiresAt != nil && !u.ExpiresAt.After(now)
}

// RemainingTTL derives the cache TTL for this record: remaining lifetime
// clamped to [min, def]. Records without an expiry get def.
func (u *URL) RemainingTTL(now time.Time, min, def time.Duration) time.Duration {
	if u.ExpiresAt == nil {
		return def
	}
	remaining := u.ExpiresAt.Sub(now)
	if remaining < min {
		return min
	}
	if remaining > def {
		return def
	}
	return remaining
}

// ClickEvent is the wire format published to the click queue and buffered
// in Redis on the cache-hit path.
type ClickEvent struct {
	ShortCode string    `json:"short_code"`
	Timestamp time.Time `json:"timestamp"`
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	Referer   string    `json:"referer,omitempty"`
}
