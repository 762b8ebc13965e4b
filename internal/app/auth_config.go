package app

import (
	"time"

	"github.com/charlesng35/huddle/internal/auth"
	"github.com/charlesng35/huddle/internal/auth/providers"
	"github.com/charlesng35/huddle/internal/cache"
)

const (
	defaultLockoutThreshold  = 5
	defaultLockoutDuration   = 15 * time.Minute
	defaultRefreshLength     = 48
	defaultMinPasswordLength = 8
)

// JWTServiceConfig converts AuthConfig into the parameters expected by the JWT service.
func (c AuthConfig) JWTServiceConfig() auth.JWTConfig {
	ttl := c.JWT.TTL
	if ttl <= 0 {
		ttl = auth.DefaultAccessTokenTTL
	}

	return auth.JWTConfig{
		Secret:         c.JWT.Secret,
		Issuer:         c.JWT.Issuer,
		AccessTokenTTL: ttl,
	}
}

// SessionServiceConfig converts AuthConfig into SessionService parameters.
// store may be nil, in which case sessions are read from the database only.
func (c AuthConfig) SessionServiceConfig(store cache.Store) auth.SessionConfig {
	ttl := c.Session.RefreshTTL
	if ttl <= 0 {
		ttl = auth.DefaultRefreshTokenTTL
	}

	length := c.Session.RefreshLength
	if length <= 0 {
		length = defaultRefreshLength
	}

	cfg := auth.SessionConfig{
		RefreshTokenTTL: ttl,
		RefreshLength:   length,
	}
	if store != nil {
		cfg.Cache = auth.NewSessionCache(store)
	}
	return cfg
}

// LocalProviderConfig converts AuthConfig into LocalProvider parameters.
func (c AuthConfig) LocalProviderConfig() providers.LocalConfig {
	duration := c.Local.LockoutDuration
	if duration <= 0 {
		duration = defaultLockoutDuration
	}

	threshold := c.Local.LockoutThreshold
	if threshold <= 0 {
		threshold = defaultLockoutThreshold
	}

	minLength := c.Local.MinPasswordLength
	if minLength <= 0 {
		minLength = defaultMinPasswordLength
	}

	return providers.LocalConfig{
		LockoutThreshold:  threshold,
		LockoutDuration:   duration,
		MinPasswordLength: minLength,
	}
}
