// Package envconf reads process environment variables the way
// main.go's original getenv helper does, generalized to the indexed
// "_<n>" suffix convention the tenant registry relies on and to
// boolean parsing over a wider set of accepted spellings.
package envconf

import (
	"os"
	"strconv"
	"strings"
)

// String returns the trimmed value of key, or def when unset/blank.
func String(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

// Bool accepts 1/true/yes/on (any case) as true and 0/false/no/off as
// false; any other value, including unset, falls back to def.
func Bool(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

// Int parses key as an integer, falling back to def on absence or parse
// error.
func Int(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Indexed builds the "_<n>" suffixed env var name the registry uses to
// discover per-tenant configuration, e.g. Indexed("CHATWOOT_BASE_URL", "3")
// -> "CHATWOOT_BASE_URL_3".
func Indexed(base, id string) string {
	return base + "_" + id
}

// Has reports whether key is set to a non-blank value.
func Has(key string) bool {
	return strings.TrimSpace(os.Getenv(key)) != ""
}
