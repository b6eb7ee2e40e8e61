package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(m map[string]string) LookupFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestParseMySQLDefaults(t *testing.T) {
	cfg, err := Parse(lookupFrom(map[string]string{
		"JWT_SECRET": "s3cret",
		"DB_USER":    "app",
		"DB_HOST":    "db",
		"DB_NAME":    "movies",
	}))
	require.NoError(t, err)
	assert.Equal(t, DriverMySQL, cfg.DBDriver)
	assert.Equal(t, "3306", cfg.DBPort)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 60, cfg.AccessTTLMin)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.InDelta(t, 0.8, cfg.PaymentSuccessRate, 1e-9)
	assert.True(t, cfg.AutoMigrate)
	assert.Empty(t, cfg.RabbitMQURL)
}

func TestParseSQLite(t *testing.T) {
	cfg, err := Parse(lookupFrom(map[string]string{
		"JWT_SECRET":           "s3cret",
		"DB_DRIVER":            "SQLite",
		"SQLITE_PATH":          "/tmp/app.db",
		"PAYMENT_SUCCESS_RATE": "1",
		"AMQP_URL":             "amqp://broker",
	}))
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, "/tmp/app.db", cfg.SQLitePath)
	assert.Equal(t, 1.0, cfg.PaymentSuccessRate)
	assert.Equal(t, "amqp://broker", cfg.RabbitMQURL)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Empty(t, cfg.AdminUsername)
}

func TestParseErrors(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secret":   {"DB_DRIVER": "sqlite", "SQLITE_PATH": "x.db"},
		"missing db user":  {"JWT_SECRET": "s", "DB_HOST": "h", "DB_NAME": "n"},
		"unknown driver":   {"JWT_SECRET": "s", "DB_DRIVER": "oracle"},
		"rate above one":   {"JWT_SECRET": "s", "DB_DRIVER": "sqlite", "SQLITE_PATH": "x", "PAYMENT_SUCCESS_RATE": "1.5"},
		"bad ttl":          {"JWT_SECRET": "s", "DB_DRIVER": "sqlite", "SQLITE_PATH": "x", "ACCESS_TOKEN_TTL_MIN": "abc"},
		"bad auto migrate": {"JWT_SECRET": "s", "DB_DRIVER": "sqlite", "SQLITE_PATH": "x", "DB_AUTO_MIGRATE": "maybe"},
		"admin no secret":  {"JWT_SECRET": "s", "DB_DRIVER": "sqlite", "SQLITE_PATH": "x", "ADMIN_USERNAME": "root"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(lookupFrom(env))
			assert.Error(t, err)
		})
	}
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	c := LoadRateLimitConfig()
	assert.Equal(t, 1, c.Capacity)
	assert.Equal(t, 1, c.RefillTokens)
	assert.Equal(t, 2*time.Second, c.RefillInterval)
	assert.Equal(t, 10*time.Second, c.TTL)
}

func TestLoadCacheConfigs(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	t.Setenv("SEAT_CACHE_TTL", "-5s")
	c := LoadCacheConfig()
	assert.True(t, c.Methods["GET"])
	assert.True(t, c.Methods["HEAD"])
	assert.False(t, c.Methods["POST"])
	a := LoadAvailabilityCacheConfig()
	assert.Equal(t, time.Minute, a.TTL)
	assert.Equal(t, "seats", a.Prefix)
}
