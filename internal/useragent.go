package internal

import "strings"

// User-agent parsing is a deliberately small heuristic: ordered substring
// rules, first match wins. Good enough for dashboard breakdowns; swap in a
// real UA library if accuracy ever matters.

type uaRule struct {
	needles []string
	label   string
}

var browserRules = []uaRule{
	{[]string{"edg"}, "Edge"},
	{[]string{"opr", "opera"}, "Opera"},
	{[]string{"chrome"}, "Chrome"},
	{[]string{"firefox"}, "Firefox"},
	{[]string{"safari"}, "Safari"},
}

var osRules = []uaRule{
	{[]string{"windows"}, "Windows"},
	{[]string{"android"}, "Android"},
	{[]string{"iphone", "ipad", "ios"}, "iOS"},
	{[]string{"macintosh", "mac os"}, "macOS"},
	{[]string{"linux"}, "Linux"},
}

func matchRules(ua string, rules []uaRule) (string, bool) {
	for _, r := range rules {
		for _, n := range r.needles {
			if strings.Contains(ua, n) {
				return r.label, true
			}
		}
	}
	return "", false
}

func ParseDevice(ua string) string {
	if ua == "" {
		return "unknown"
	}
	lower := strings.ToLower(ua)
	if strings.Contains(lower, "tablet") || strings.Contains(lower, "ipad") {
		return "tablet"
	}
	for _, n := range []string{"mobile", "android", "iphone", "phone"} {
		if strings.Contains(lower, n) {
			return "mobile"
		}
	}
	return "desktop"
}

func ParseBrowser(ua string) string {
	if ua == "" {
		return "unknown"
	}
	if label, ok := matchRules(strings.ToLower(ua), browserRules); ok {
		return label
	}
	return "other"
}

func ParseOS(ua string) string {
	if ua == "" {
		return "unknown"
	}
	if label, ok := matchRules(strings.ToLower(ua), osRules); ok {
		return label
	}
	return "other"
}
