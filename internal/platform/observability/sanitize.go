package observability

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Field length bounds for values copied from requests into log entries.
const (
	maxRouteLen    = 180
	maxMethodLen   = 10
	maxMenuNameLen = 120
	maxFieldLen    = 256
)

// sanitizeString strips control characters and truncates to limit runes.
func sanitizeString(value string, limit int) string {
	if limit <= 0 {
		limit = maxFieldLen
	}
	value = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, value)
	if utf8.RuneCountInString(value) <= limit {
		return value
	}
	return string([]rune(value)[:limit])
}

// SanitizeRoute bounds a route pattern or path; empty routes log as "/".
func SanitizeRoute(route string) string {
	if route == "" {
		return "/"
	}
	return sanitizeString(route, maxRouteLen)
}

// SanitizeMethod bounds an HTTP method.
func SanitizeMethod(method string) string {
	return sanitizeString(strings.ToUpper(method), maxMethodLen)
}

// SanitizeMenuName bounds a client supplied menu name. Names are logged as
// typed so case mismatches against stored definitions stay visible.
func SanitizeMenuName(name string) string {
	return sanitizeString(strings.TrimSpace(name), maxMenuNameLen)
}
