package config

import (
	"strings"
	"time"
)

// CacheConfig defines settings for the catalog response cache middleware.
// When Enabled is false or no Redis client is configured, caching is
// disabled.  Methods lists the HTTP methods to cache and TTL the lifetime
// of entries.  KeyStrategy selects which parts of the request contribute
// to the key.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	TTL          time.Duration
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig builds a CacheConfig from CACHE_* variables.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		Methods:      parseMethods(envStr("CACHE_METHODS", "GET")),
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		KeyStrategy:  envStr("CACHE_KEY_STRATEGY", "route_query"),
		Prefix:       envStr("CACHE_PREFIX", "cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}

// AvailabilityCacheConfig controls the read-through cache in front of the
// available-seats query.  Entries are invalidated whenever a reservation
// for the showtime changes, so the TTL only bounds memory use.
type AvailabilityCacheConfig struct {
	Enabled bool
	TTL     time.Duration
	Prefix  string
}

// LoadAvailabilityCacheConfig reads SEAT_CACHE_* variables.
func LoadAvailabilityCacheConfig() AvailabilityCacheConfig {
	c := AvailabilityCacheConfig{
		Enabled: envBool("SEAT_CACHE_ENABLED", true),
		TTL:     envDur("SEAT_CACHE_TTL", time.Minute),
		Prefix:  envStr("SEAT_CACHE_PREFIX", "seats"),
	}
	if c.TTL <= 0 {
		c.TTL = time.Minute
	}
	return c
}

func parseMethods(s string) map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p != "" {
			m[p] = true
		}
	}
	return m
}
