package config

import (
	"time"
)

// Config is a read-only view over one decoded settings stanza. YAML and
// JSON both decode into map[string]any, so connector settings arrive
// untyped; the accessors pull out typed values and fall back when a key
// is absent or holds the wrong kind of value. Note that YAML decodes
// numbers as int while JSON decodes them as float64, so the numeric
// accessors accept both.
type Config struct {
	data map[string]any
}

// New wraps a decoded map. A nil map yields an empty Config.
func New(data map[string]any) Config {
	if data == nil {
		data = make(map[string]any)
	}
	return Config{data: data}
}

// Has reports whether the key is present in the stanza.
func (c Config) Has(key string) bool {
	_, ok := c.data[key]
	return ok
}

// Any returns the raw decoded value for key, or fallback when absent.
func (c Config) Any(key string, fallback any) any {
	if v, ok := c.data[key]; ok {
		return v
	}
	return fallback
}

// String returns the string under key, or fallback when the key is
// absent or not a string.
func (c Config) String(key, fallback string) string {
	if s, ok := c.data[key].(string); ok {
		return s
	}
	return fallback
}

// Bool returns the bool under key, or fallback. Strings like "true"
// are not coerced.
func (c Config) Bool(key string, fallback bool) bool {
	if b, ok := c.data[key].(bool); ok {
		return b
	}
	return fallback
}

// Int returns the integer under key, or fallback. JSON numbers arrive
// as float64 and convert only when they carry no fractional part.
func (c Config) Int(key string, fallback int) int {
	switch v := c.data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if v == float64(int(v)) {
			return int(v)
		}
	}
	return fallback
}

// Float returns the float64 under key, or fallback. Integer values
// widen.
func (c Config) Float(key string, fallback float64) float64 {
	switch v := c.data[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return fallback
}

// Duration returns the duration under key, or fallback. Strings parse
// with time.ParseDuration ("30s", "5m"); bare numbers are read as
// seconds, matching how intervals are usually written in agent files.
func (c Config) Duration(key string, fallback time.Duration) time.Duration {
	switch v := c.data[key].(type) {
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	case int:
		return time.Duration(v) * time.Second
	case int64:
		return time.Duration(v) * time.Second
	case float64:
		return time.Duration(v * float64(time.Second))
	case time.Duration:
		return v
	}
	return fallback
}

// StringSlice returns the string list under key, or fallback. YAML
// sequences decode as []any; every element must be a string or the
// whole value falls back.
func (c Config) StringSlice(key string, fallback []string) []string {
	switch v := c.data[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return fallback
			}
			out = append(out, s)
		}
		return out
	}
	return fallback
}

// Sub returns the nested stanza under key. Missing keys and non-map
// values yield an empty Config, so chained lookups stay safe.
func (c Config) Sub(key string) Config {
	if m, ok := c.data[key].(map[string]any); ok {
		return New(m)
	}
	return New(nil)
}

// Raw exposes the underlying map. Callers must not modify it.
func (c Config) Raw() map[string]any {
	return c.data
}
