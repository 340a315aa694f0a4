package internal

import (
	"context"
	"crypto/rand"
	"strings"
)

// Base62, URL-safe
const (
	codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	CodeLength   = 7

	maxGenerateAttempts = 10
)

// reservedSlugs can never be claimed as custom slugs; they collide with
// system routes.
var reservedSlugs = map[string]struct{}{
	"api":       {},
	"admin":     {},
	"dashboard": {},
	"login":     {},
	"register":  {},
	"logout":    {},
	"health":    {},
	"swagger":   {},
	"docs":      {},
	"static":    {},
	"assets":    {},
}

// AvailabilityFunc reports whether a code is free in both the shortCode and
// customSlug namespaces, regardless of the record being active.
type AvailabilityFunc func(ctx context.Context, code string) (bool, error)

// GenerateCode draws random base62 codes until one passes the availability
// check, giving up after a bounded number of attempts with
// ErrGenerationExhausted.
func GenerateCode(ctx context.Context, available AvailabilityFunc) (string, error) {
	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		code, err := randomCode(CodeLength)
		if err != nil {
			return "", err
		}
		free, err := available(ctx, code)
		if err != nil {
			return "", err
		}
		if free {
			return code, nil
		}
	}
	return "", ErrGenerationExhausted
}

func randomCode(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	var b strings.Builder
	b.Grow(n)
	for _, c := range buf {
		b.WriteByte(codeAlphabet[int(c)%len(codeAlphabet)])
	}
	return b.String(), nil
}

// ValidateSlug enforces the custom slug shape: 3-50 characters, alphanumeric
// plus hyphen, alphanumeric at both ends, no consecutive hyphens.
func ValidateSlug(slug string) bool {
	if len(slug) < 3 || len(slug) > 50 {
		return false
	}
	if strings.Contains(slug, "--") {
		return false
	}
	if !isAlnum(slug[0]) || !isAlnum(slug[len(slug)-1]) {
		return false
	}
	for i := 0; i < len(slug); i++ {
		if !isAlnum(slug[i]) && slug[i] != '-' {
			return false
		}
	}
	return true
}

func isAlnum(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// IsReservedSlug matches the denylist case-insensitively.
func IsReservedSlug(slug string) bool {
	_, ok := reservedSlugs[strings.ToLower(slug)]
	return ok
}

// IsReservedPath reports whether a request path segment belongs to a system
// route rather than a short code. The redirect handler rejects these without
// touching cache or store.
func IsReservedPath(segment string) bool {
	if i := strings.IndexAny(segment, "/?"); i >= 0 {
		segment = segment[:i]
	}
	return IsReservedSlug(segment)
}

// ValidDestination checks the destination scheme, case-insensitively. It
// runs both at creation time and again right before every redirect, so a
// record written before stricter validation (or tampered with in the store)
// can never produce a javascript: or data: redirect.
func ValidDestination(rawURL string) bool {
	u := strings.ToLower(strings.TrimSpace(rawURL))
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}
