package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	uaChromeWindows = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	uaFirefoxLinux  = "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0"
	uaSafariIPhone  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Mobile/15E148 Safari/604.1"
	uaEdgeWindows   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0"
	uaOperaMac      = "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_1) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 OPR/106.0.0.0"
	uaChromeAndroid = "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.6099.43 Mobile Safari/537.36"
	uaSafariIPad    = "Mozilla/5.0 (iPad; CPU OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Mobile/15E148 Safari/604.1"
)

func TestParseDevice(t *testing.T) {
	tests := []struct {
		name     string
		ua       string
		expected string
	}{
		{"desktop chrome", uaChromeWindows, "desktop"},
		{"desktop firefox", uaFirefoxLinux, "desktop"},
		{"iphone", uaSafariIPhone, "mobile"},
		{"android phone", uaChromeAndroid, "mobile"},
		{"ipad", uaSafariIPad, "tablet"},
		{"empty", "", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseDevice(tt.ua))
		})
	}
}

func TestParseBrowser(t *testing.T) {
	tests := []struct {
		name     string
		ua       string
		expected string
	}{
		{"chrome", uaChromeWindows, "Chrome"},
		{"firefox", uaFirefoxLinux, "Firefox"},
		{"safari", uaSafariIPhone, "Safari"},
		{"edge before chrome", uaEdgeWindows, "Edge"},
		{"opera before chrome", uaOperaMac, "Opera"},
		{"unmatched", "curl/8.4.0", "other"},
		{"empty", "", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseBrowser(tt.ua))
		})
	}
}

func TestParseOS(t *testing.T) {
	tests := []struct {
		name     string
		ua       string
		expected string
	}{
		{"windows", uaChromeWindows, "Windows"},
		{"linux", uaFirefoxLinux, "Linux"},
		{"ios", uaSafariIPhone, "iOS"},
		{"macos", uaOperaMac, "macOS"},
		{"android before linux", uaChromeAndroid, "Android"},
		{"unmatched", "curl/8.4.0", "other"},
		{"empty", "", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseOS(tt.ua))
		})
	}
}
