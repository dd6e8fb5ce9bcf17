// Package raw reads environment variables during bootstrap, before the
// logger exists. It must stay free of any project imports: the logger's own
// configuration comes through here
package raw

import (
	"os"
	"strconv"
	"strings"
)

// Conf is a prefix-namespaced view over the environment
type Conf struct{ prefix string }

// New returns the root view (no prefix)
func New() Conf { return Conf{} }

// Prefix narrows the view, e.g. New().Prefix("LOG_")
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

func (c Conf) lookup(key string) string {
	return strings.TrimSpace(os.Getenv(c.prefix + key))
}

// Get returns the trimmed value, or def when unset or empty
func (c Conf) Get(key, def string) string {
	if v := c.lookup(key); v != "" {
		return v
	}
	return def
}

// GetBool accepts 1/true/yes as true; anything else (or unset) falls back
func (c Conf) GetBool(key string, def bool) bool {
	v := strings.ToLower(c.lookup(key))
	if v == "" {
		return def
	}
	return v == "1" || v == "true" || v == "yes"
}

// GetInt parses a non-negative integer; unset or malformed falls back to def
func (c Conf) GetInt(key string, def int) int {
	s := c.lookup(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}
