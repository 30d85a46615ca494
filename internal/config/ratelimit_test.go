package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadRateLimitConfigDefaults(t *testing.T) {
	for _, k := range []string{
		"RATE_LIMIT_ENABLED", "RATE_LIMIT_CAPACITY", "RATE_LIMIT_REFILL_TOKENS",
		"RATE_LIMIT_REFILL_INTERVAL", "RATE_LIMIT_TTL", "RATE_LIMIT_KEY_STRATEGY",
	} {
		t.Setenv(k, "")
	}

	cfg := LoadRateLimitConfig()

	assert.True(t, cfg.Enabled)
	assert.Equal(t, 60, cfg.Capacity)
	assert.Equal(t, 1, cfg.RefillTokens)
	assert.Equal(t, time.Second, cfg.RefillInterval)
	assert.Equal(t, 10*time.Minute, cfg.TTL)
	assert.Equal(t, "ip_user_route", cfg.KeyStrategy)
}

func TestLoadRateLimitConfigClampsBadValues(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "-5")
	t.Setenv("RATE_LIMIT_REFILL_TOKENS", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()

	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 1, cfg.RefillTokens)
	assert.Equal(t, 2*time.Second, cfg.RefillInterval)
	// TTL shorter than a few refill intervals would evict live buckets
	assert.Equal(t, 10*time.Second, cfg.TTL)
}

func TestLoadCacheConfigMethods(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")

	cfg := LoadCacheConfig()

	assert.True(t, cfg.Methods["GET"])
	assert.True(t, cfg.Methods["HEAD"])
	assert.False(t, cfg.Methods["POST"])
	assert.Equal(t, 5*time.Second, cfg.TTL)
}
