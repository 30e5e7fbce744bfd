package config

import (
	"strconv"
	"strings"
	"time"
)

// Config is a read-only view of decoded configuration. Accessors take a
// default that is returned when the key is missing or its value has the
// wrong type; they never fail.
//
// Keys may be dotted paths into nested sections: "clock.rate" reads the
// rate key of the clock section. A literal key containing dots takes
// precedence over the path.
type Config struct {
	data map[string]any
}

// New creates a Config from the given map.
// If data is nil, an empty Config is returned.
func New(data map[string]any) Config {
	if data == nil {
		data = make(map[string]any)
	}
	return Config{data: data}
}

// lookup resolves key, following dotted paths through nested maps.
func (c Config) lookup(key string) (any, bool) {
	if v, ok := c.data[key]; ok {
		return v, true
	}
	head, rest, found := strings.Cut(key, ".")
	if !found {
		return nil, false
	}
	section, ok := c.data[head].(map[string]any)
	if !ok {
		return nil, false
	}
	return New(section).lookup(rest)
}

func (c Config) get(key string) any {
	v, _ := c.lookup(key)
	return v
}

// String returns the string at key.
func (c Config) String(key, defaultVal string) string {
	s, ok := c.get(key).(string)
	if !ok {
		return defaultVal
	}
	return s
}

// Bool returns the boolean at key. Strings such as "true" are not
// converted.
func (c Config) Bool(key string, defaultVal bool) bool {
	b, ok := c.get(key).(bool)
	if !ok {
		return defaultVal
	}
	return b
}

// Int returns the integer at key. See Int64 for accepted types.
func (c Config) Int(key string, defaultVal int) int {
	return int(c.Int64(key, int64(defaultVal)))
}

// Int64 returns the integer at key. It accepts int, int64, uint64 within
// range, and float64 without a fractional part (JSON numbers).
func (c Config) Int64(key string, defaultVal int64) int64 {
	if v, ok := toInt64(c.get(key)); ok {
		return v
	}
	return defaultVal
}

// Uint64 returns an identifier at key. It accepts non-negative integers
// and the string forms understood by ParseID.
func (c Config) Uint64(key string, defaultVal uint64) uint64 {
	switch v := c.get(key).(type) {
	case uint64:
		return v
	case string:
		id, err := ParseID(v)
		if err != nil {
			return defaultVal
		}
		return id
	default:
		n, ok := toInt64(v)
		if !ok || n < 0 {
			return defaultVal
		}
		return uint64(n)
	}
}

// Float returns the number at key as a float64.
func (c Config) Float(key string, defaultVal float64) float64 {
	switch v := c.get(key).(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return defaultVal
	}
}

// Duration returns the duration at key. Strings are parsed with
// time.ParseDuration; bare numbers are seconds.
func (c Config) Duration(key string, defaultVal time.Duration) time.Duration {
	switch v := c.get(key).(type) {
	case time.Duration:
		return v
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
	}
	return defaultVal
}

// Time returns the instant at key in seconds since the epoch. It accepts
// RFC 3339 strings, time.Time values and integer seconds.
func (c Config) Time(key string, defaultVal int64) int64 {
	switch v := c.get(key).(type) {
	case time.Time:
		return v.Unix()
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t.Unix()
		}
		return defaultVal
	default:
		if n, ok := toInt64(v); ok {
			return n
		}
		return defaultVal
	}
}

// StringSlice returns the list of strings at key. A list holding any
// non-string yields defaultVal.
func (c Config) StringSlice(key string, defaultVal []string) []string {
	switch v := c.get(key).(type) {
	case []string:
		return v
	case []any:
		out := make([]string, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return defaultVal
			}
			out[i] = s
		}
		return out
	}
	return defaultVal
}

// Sub returns the section at key. A missing or non-map value yields an
// empty Config.
func (c Config) Sub(key string) Config {
	section, _ := c.get(key).(map[string]any)
	return New(section)
}

// Has reports whether key resolves to a value.
func (c Config) Has(key string) bool {
	_, ok := c.lookup(key)
	return ok
}

// Any returns the raw value at key, or defaultVal if missing.
func (c Config) Any(key string, defaultVal any) any {
	if v, ok := c.lookup(key); ok {
		return v
	}
	return defaultVal
}

// Raw returns the underlying map. Callers must not modify it.
func (c Config) Raw() map[string]any {
	return c.data
}

// ParseID parses an identifier written as 0x-prefixed hex, dotted hex
// bytes ("05.01.01.01.22.00"), or a decimal integer.
func ParseID(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ".") {
		return strconv.ParseUint(strings.ReplaceAll(s, ".", ""), 16, 64)
	}
	if rest, ok := strings.CutPrefix(strings.ToLower(s), "0x"); ok {
		return strconv.ParseUint(rest, 16, 64)
	}
	return strconv.ParseUint(s, 10, 64)
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		return int64(n), n <= 1<<63-1
	case float64:
		return int64(n), n == float64(int64(n))
	}
	return 0, false
}
