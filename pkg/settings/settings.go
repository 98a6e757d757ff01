package settings

import (
	"strconv"
	"strings"
)

// Provider reads a named setting. The second return value reports whether
// the key is known to the provider at all.
type Provider interface {
	Get(key string) (string, bool)
}

// Map is an in-memory provider
type Map map[string]string

// Get returns the value stored under key
func (m Map) Get(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// Chain asks each provider in order and returns the first hit
type Chain []Provider

// Get returns the value from the first provider holding key
func (c Chain) Get(key string) (string, bool) {
	for _, p := range c {
		if p == nil {
			continue
		}
		if v, ok := p.Get(key); ok {
			return v, true
		}
	}
	return "", false
}

// Override pins some keys to fixed values on top of another provider
type Override struct {
	Provider Provider
	Values   map[string]string
}

// Get returns the pinned value for key, or falls through to the wrapped provider
func (o Override) Get(key string) (string, bool) {
	if v, ok := o.Values[key]; ok {
		return v, true
	}
	if o.Provider == nil {
		return "", false
	}
	return o.Provider.Get(key)
}

// lookup returns the first value among keys that is not blank. The value
// itself is returned untrimmed.
func lookup(p Provider, keys []string) (string, bool) {
	if p == nil {
		return "", false
	}
	for _, key := range keys {
		v, ok := p.Get(key)
		if !ok {
			continue
		}
		if strings.TrimSpace(v) == "" {
			continue
		}
		return v, true
	}
	return "", false
}

// String resolves the first non-empty value among keys, or def
func String(p Provider, def string, keys ...string) string {
	if v, ok := lookup(p, keys); ok {
		return v
	}
	return def
}

// Bool resolves the first parsable boolean among keys, or def.
// Values that fail to parse are skipped like missing keys.
func Bool(p Provider, def bool, keys ...string) bool {
	for _, key := range keys {
		v, ok := lookup(p, []string{key})
		if !ok {
			continue
		}
		b, err := parseBool(strings.TrimSpace(v))
		if err != nil {
			continue
		}
		return b
	}
	return def
}

// Int resolves the first parsable integer among keys, or def
func Int(p Provider, def int, keys ...string) int {
	for _, key := range keys {
		v, ok := lookup(p, []string{key})
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			continue
		}
		return n
	}
	return def
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	return strconv.ParseBool(v)
}
