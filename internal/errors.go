package internal

import "errors"

var (
	// ErrNotFound covers absent, inactive and expired records alike.
	ErrNotFound = errors.New("short URL not found")

	// ErrConflict is returned when a code or slug is already taken. The
	// store translates database unique violations into it so that two
	// racing creators get exactly one success and one conflict.
	ErrConflict = errors.New("short code already in use")

	// ErrGenerationExhausted means the generator could not find a free
	// code within its attempt limit. Callers surface it as a retryable
	// service error.
	ErrGenerationExhausted = errors.New("could not generate unique short code")

	// ErrUnsupportedScheme rejects destination URLs that are not plain
	// http or https.
	ErrUnsupportedScheme = errors.New("only http and https URLs are allowed")

	ErrReservedSlug   = errors.New("slug is reserved")
	ErrInvalidSlug    = errors.New("invalid slug format")
	ErrNotOwner       = errors.New("not the owner of this short URL")
	ErrEmailTaken     = errors.New("email already registered")
	ErrBadCredentials = errors.New("invalid email or password")
)
