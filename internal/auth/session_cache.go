package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charlesng35/huddle/internal/cache"
	"github.com/charlesng35/huddle/internal/models"
	"github.com/charlesng35/huddle/pkg/crypto"
)

const sessionCacheKeyPrefix = "auth:sessions:refresh:"

var errSessionCacheMiss = errors.New("session cache miss")

// SessionCache caches session rows keyed by refresh token.
type SessionCache interface {
	Get(ctx context.Context, refreshToken string) (*models.Session, error)
	Set(ctx context.Context, session *models.Session, ttl time.Duration) error
	Delete(ctx context.Context, refreshTokens ...string) error
}

// NewSessionCache wraps a cache store. Keys are fingerprints so refresh tokens never reach the cache backend.
func NewSessionCache(store cache.Store) SessionCache {
	if store == nil {
		return nil
	}
	return &storeSessionCache{store: store}
}

type storeSessionCache struct {
	store cache.Store
}

// cachedSession omits the refresh token.
type cachedSession struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	ExpiresAt  time.Time  `json:"expires_at"`
	LastUsedAt time.Time  `json:"last_used_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (c *storeSessionCache) Get(ctx context.Context, refreshToken string) (*models.Session, error) {
	key := cacheKey(refreshToken)
	if key == "" {
		return nil, errSessionCacheMiss
	}

	data, found, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errSessionCacheMiss
	}

	var entry cachedSession
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("session cache: decode: %w", err)
	}

	session := &models.Session{
		UserID:       entry.UserID,
		RefreshToken: strings.TrimSpace(refreshToken),
		ExpiresAt:    entry.ExpiresAt,
		LastUsedAt:   entry.LastUsedAt,
		RevokedAt:    entry.RevokedAt,
	}
	session.ID = entry.ID
	session.CreatedAt = entry.CreatedAt
	return session, nil
}

func (c *storeSessionCache) Set(ctx context.Context, session *models.Session, ttl time.Duration) error {
	if session == nil {
		return errors.New("session cache: session is nil")
	}
	key := cacheKey(session.RefreshToken)
	if key == "" {
		return errors.New("session cache: refresh token missing")
	}

	payload, err := json.Marshal(cachedSession{
		ID:         session.ID,
		UserID:     session.UserID,
		ExpiresAt:  session.ExpiresAt,
		LastUsedAt: session.LastUsedAt,
		RevokedAt:  session.RevokedAt,
		CreatedAt:  session.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("session cache: marshal: %w", err)
	}
	if ttl <= 0 {
		ttl = time.Second
	}
	return c.store.Set(ctx, key, payload, ttl)
}

func (c *storeSessionCache) Delete(ctx context.Context, refreshTokens ...string) error {
	keys := make([]string, 0, len(refreshTokens))
	for _, token := range refreshTokens {
		if key := cacheKey(token); key != "" {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	return c.store.Delete(ctx, keys...)
}

func cacheKey(refreshToken string) string {
	token := strings.TrimSpace(refreshToken)
	if token == "" {
		return ""
	}
	return sessionCacheKeyPrefix + crypto.Fingerprint(token)
}
