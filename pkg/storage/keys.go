package storage

import (
	"fmt"
	"path"
	"strings"
)

// CleanPath normalizes a relative object path: leading slashes, empty and
// "." segments are dropped. Paths that climb above the root fail with
// ErrInvalidPath.
func CleanPath(p string) (string, error) {
	cleaned := path.Clean(strings.TrimLeft(p, "/"))
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%q: %w", p, ErrInvalidPath)
	}
	if cleaned == "." {
		return "", nil
	}
	return cleaned, nil
}

// PrefixKey builds the object key for p under prefix
func PrefixKey(prefix, p string) string {
	prefix = strings.Trim(prefix, "/")
	p = strings.TrimPrefix(p, "/")
	if prefix == "" {
		return p
	}
	if p == "" {
		return prefix + "/"
	}
	return prefix + "/" + p
}

// StripPrefix turns an object key back into a path relative to prefix
func StripPrefix(prefix, key string) string {
	prefix = strings.Trim(prefix, "/")
	key = strings.TrimPrefix(key, "/")
	if prefix == "" {
		return key
	}
	rel := strings.TrimPrefix(key, prefix)
	return strings.TrimPrefix(rel, "/")
}

// GlobPrefix returns the literal part of pattern before its first wildcard.
// "2024/*.png" -> "2024/"
func GlobPrefix(pattern string) string {
	if idx := strings.IndexAny(pattern, "*?["); idx >= 0 {
		return pattern[:idx]
	}
	return pattern
}

// MatchGlob reports whether p matches pattern. An empty pattern or "*"
// matches everything, including nested paths.
func MatchGlob(pattern, p string) bool {
	if pattern == "" || pattern == "*" {
		return true
	}
	ok, err := path.Match(pattern, p)
	return err == nil && ok
}
