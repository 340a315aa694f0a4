package internal

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSlug(t *testing.T) {
	tests := []struct {
		slug     string
		expected bool
	}{
		{"my-link", true},
		{"abc", true},
		{"ABC-123", true},
		{"a1b", true},
		{strings.Repeat("a", 50), true},
		{"ab", false},                    // too short
		{strings.Repeat("a", 51), false}, // too long
		{"my--link", false},              // consecutive hyphens
		{"-abc", false},                  // leading hyphen
		{"abc-", false},                  // trailing hyphen
		{"my_link", false},               // underscore not allowed
		{"my link", false},               // space not allowed
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSlug(tt.slug))
		})
	}
}

func TestIsReservedSlug(t *testing.T) {
	tests := []struct {
		slug     string
		expected bool
	}{
		{"api", true},
		{"API", true},
		{"Admin", true},
		{"HEALTH", true},
		{"docs", true},
		{"my-custom-link", false},
		{"apix", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsReservedSlug(tt.slug))
		})
	}
}

func TestIsReservedPath(t *testing.T) {
	assert.True(t, IsReservedPath("api"))
	assert.True(t, IsReservedPath("api/v1/urls"))
	assert.True(t, IsReservedPath("health?verbose=1"))
	assert.False(t, IsReservedPath("apiDocs3"))
	assert.False(t, IsReservedPath("abc1234"))
}

func TestGenerateCode(t *testing.T) {
	alwaysFree := func(ctx context.Context, code string) (bool, error) { return true, nil }

	code, err := GenerateCode(context.Background(), alwaysFree)
	require.NoError(t, err)
	assert.Len(t, code, CodeLength)
	for i := 0; i < len(code); i++ {
		assert.Contains(t, codeAlphabet, string(code[i]))
	}
}

func TestGenerateCodeRetriesUntilFree(t *testing.T) {
	calls := 0
	available := func(ctx context.Context, code string) (bool, error) {
		calls++
		return calls >= 3, nil
	}

	code, err := GenerateCode(context.Background(), available)
	require.NoError(t, err)
	assert.Len(t, code, CodeLength)
	assert.Equal(t, 3, calls)
}

func TestGenerateCodeExhausted(t *testing.T) {
	calls := 0
	neverFree := func(ctx context.Context, code string) (bool, error) {
		calls++
		return false, nil
	}

	_, err := GenerateCode(context.Background(), neverFree)
	assert.ErrorIs(t, err, ErrGenerationExhausted)
	assert.Equal(t, maxGenerateAttempts, calls)
}

func TestGenerateCodePropagatesCheckError(t *testing.T) {
	boom := errors.New("db down")
	_, err := GenerateCode(context.Background(), func(ctx context.Context, code string) (bool, error) {
		return false, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestValidDestination(t *testing.T) {
	tests := []struct {
		url      string
		expected bool
	}{
		{"http://example.com", true},
		{"https://example.com/path?q=1", true},
		{"HTTPS://EXAMPLE.COM", true},
		{"  https://example.com  ", true},
		{"javascript:alert(1)", false},
		{"JavaScript:alert(1)", false},
		{"data:text/html,<script>", false},
		{"ftp://example.com", false},
		{"file:///etc/passwd", false},
		{"//example.com", false},
		{"example.com", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidDestination(tt.url))
		})
	}
}
