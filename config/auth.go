package config

import (
	"strings"
	"time"
)

const (
	defaultSessionMaxAge    = 8 * time.Hour
	defaultSessionKeyPrefix = "session:"
	maxPoolAcquireAttempts  = 5
)

// AuthConfig controls how login requests acquire tenant pools.
type AuthConfig struct {
	// PoolAcquireAttempts is the total number of acquire attempts per login. 1 disables retry.
	PoolAcquireAttempts int `env:"AUTH_POOL_ACQUIRE_ATTEMPTS" envDefault:"1"`
	// PoolAcquireBackoff is the pause between attempts.
	PoolAcquireBackoff time.Duration `env:"AUTH_POOL_ACQUIRE_BACKOFF" envDefault:"250ms"`
}

// Sanitize clamps the retry policy.
func (c *AuthConfig) Sanitize() {
	if c.PoolAcquireAttempts < 1 {
		c.PoolAcquireAttempts = 1
	}
	if c.PoolAcquireAttempts > maxPoolAcquireAttempts {
		c.PoolAcquireAttempts = maxPoolAcquireAttempts
	}
	if c.PoolAcquireBackoff < 0 {
		c.PoolAcquireBackoff = 0
	}
}

// SessionConfig controls server-side sessions.
type SessionConfig struct {
	// MaxAge is the absolute lifetime measured from login.
	MaxAge    time.Duration `env:"SESSION_MAX_AGE"    envDefault:"8h"`
	KeyPrefix string        `env:"SESSION_KEY_PREFIX" envDefault:"session:"`
}

// Sanitize restores defaults for empty or non-positive values.
func (c *SessionConfig) Sanitize() {
	if c.MaxAge <= 0 {
		c.MaxAge = defaultSessionMaxAge
	}
	c.KeyPrefix = strings.TrimSpace(c.KeyPrefix)
	if c.KeyPrefix == "" {
		c.KeyPrefix = defaultSessionKeyPrefix
	}
}
