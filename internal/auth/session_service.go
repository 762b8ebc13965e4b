package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/huddle/internal/models"
	"github.com/charlesng35/huddle/pkg/crypto"
	"github.com/charlesng35/huddle/pkg/logger"
	"github.com/charlesng35/huddle/pkg/metrics"
)

const (
	// DefaultRefreshTokenTTL is the fallback refresh token lifetime.
	DefaultRefreshTokenTTL = 30 * 24 * time.Hour
	defaultRefreshLength   = 48
)

// SessionConfig describes tunable behaviour for the SessionService.
type SessionConfig struct {
	RefreshTokenTTL time.Duration
	RefreshLength   int
	Clock           func() time.Time
	Cache           SessionCache
}

// SessionMetadata captures contextual information about the client.
type SessionMetadata struct {
	IPAddress string
	UserAgent string
}

// TokenPair represents an access token and refresh token pair.
type TokenPair struct {
	AccessToken     string
	AccessExpiresAt time.Time
	RefreshToken    string
}

var (
	// ErrSessionNotFound indicates that no session matches the provided token or identifier.
	ErrSessionNotFound = errors.New("session: not found")
	// ErrSessionRevoked marks a session that has been signed out.
	ErrSessionRevoked = errors.New("session: revoked")
	// ErrSessionExpired signals that a refresh token has reached its expiry.
	ErrSessionExpired = errors.New("session: expired")
	// ErrSessionInvalidToken is returned when the supplied token or id is blank.
	ErrSessionInvalidToken = errors.New("session: invalid token")
)

// SessionService manages creation, rotation and revocation of user sessions.
type SessionService struct {
	db         *gorm.DB
	jwt        *JWTService
	refreshTTL time.Duration
	tokenLen   int
	now        func() time.Time
	cache      SessionCache
}

// NewSessionService constructs a session manager backed by the provided database and JWT service.
func NewSessionService(db *gorm.DB, jwtService *JWTService, cfg SessionConfig) (*SessionService, error) {
	if db == nil {
		return nil, errors.New("session service: db is required")
	}
	if jwtService == nil {
		return nil, errors.New("session service: jwt service is required")
	}

	ttl := cfg.RefreshTokenTTL
	if ttl <= 0 {
		ttl = DefaultRefreshTokenTTL
	}
	length := cfg.RefreshLength
	if length <= 0 {
		length = defaultRefreshLength
	}
	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	return &SessionService{
		db:         db,
		jwt:        jwtService,
		refreshTTL: ttl,
		tokenLen:   length,
		now:        clock,
		cache:      cfg.Cache,
	}, nil
}

// JWT exposes the token service used to sign access tokens.
func (s *SessionService) JWT() *JWTService {
	return s.jwt
}

// CreateSession persists a new session and issues a fresh token pair.
func (s *SessionService) CreateSession(ctx context.Context, userID string, meta SessionMetadata) (TokenPair, *models.Session, error) {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(userID) == "" {
		return TokenPair{}, nil, errors.New("session service: user id is required")
	}

	refreshToken, err := crypto.GenerateToken(s.tokenLen)
	if err != nil {
		return TokenPair{}, nil, fmt.Errorf("session service: generate refresh token: %w", err)
	}

	now := s.now()
	session := &models.Session{
		UserID:       userID,
		RefreshToken: refreshToken,
		IPAddress:    strings.TrimSpace(meta.IPAddress),
		UserAgent:    strings.TrimSpace(meta.UserAgent),
		ExpiresAt:    now.Add(s.refreshTTL),
		LastUsedAt:   now,
	}
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return TokenPair{}, nil, fmt.Errorf("session service: create session: %w", err)
	}
	metrics.ActiveSessions.Inc()

	accessToken, accessExpiry, err := s.jwt.GenerateAccessToken(AccessTokenInput{
		UserID:    userID,
		SessionID: session.ID,
	})
	if err != nil {
		return TokenPair{}, nil, fmt.Errorf("session service: generate access token: %w", err)
	}

	s.cacheSession(ctx, session)

	return TokenPair{
		AccessToken:     accessToken,
		AccessExpiresAt: accessExpiry,
		RefreshToken:    refreshToken,
	}, session, nil
}

// RefreshSession rotates the refresh token and issues a new access token.
// A refresh token can be redeemed once; a second attempt reports ErrSessionNotFound.
func (s *SessionService) RefreshSession(ctx context.Context, refreshToken string) (TokenPair, *models.Session, error) {
	ctx = ensureContext(ctx)
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return TokenPair{}, nil, ErrSessionInvalidToken
	}

	session, err := s.lookupByRefreshToken(ctx, refreshToken)
	if err != nil {
		return TokenPair{}, nil, err
	}

	now := s.now()
	if session.RevokedAt != nil {
		return TokenPair{}, nil, ErrSessionRevoked
	}
	if !session.ExpiresAt.After(now) {
		return TokenPair{}, nil, ErrSessionExpired
	}

	newRefresh, err := crypto.GenerateToken(s.tokenLen)
	if err != nil {
		return TokenPair{}, nil, fmt.Errorf("session service: generate refresh token: %w", err)
	}
	expiresAt := now.Add(s.refreshTTL)

	result := s.db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ? AND refresh_token = ? AND revoked_at IS NULL", session.ID, refreshToken).
		Updates(map[string]any{
			"refresh_token": newRefresh,
			"expires_at":    expiresAt,
			"last_used_at":  now,
		})
	if result.Error != nil {
		return TokenPair{}, nil, fmt.Errorf("session service: update session: %w", result.Error)
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, refreshToken)
	}
	if result.RowsAffected == 0 {
		return TokenPair{}, nil, ErrSessionNotFound
	}

	session.RefreshToken = newRefresh
	session.ExpiresAt = expiresAt
	session.LastUsedAt = now

	accessToken, accessExpiry, err := s.jwt.GenerateAccessToken(AccessTokenInput{
		UserID:    session.UserID,
		SessionID: session.ID,
	})
	if err != nil {
		return TokenPair{}, nil, fmt.Errorf("session service: generate access token: %w", err)
	}

	s.cacheSession(ctx, session)

	return TokenPair{
		AccessToken:     accessToken,
		AccessExpiresAt: accessExpiry,
		RefreshToken:    newRefresh,
	}, session, nil
}

// ValidateSession returns the session when it exists, is not revoked and has not expired.
func (s *SessionService) ValidateSession(ctx context.Context, sessionID string) (*models.Session, error) {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrSessionInvalidToken
	}

	var session models.Session
	err := s.db.WithContext(ctx).Take(&session, "id = ?", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session service: find session: %w", err)
	}

	if session.RevokedAt != nil {
		return nil, ErrSessionRevoked
	}
	if !session.ExpiresAt.After(s.now()) {
		return nil, ErrSessionExpired
	}
	return &session, nil
}

// RevokeSession marks a session as revoked, preventing further use of either token.
func (s *SessionService) RevokeSession(ctx context.Context, sessionID string) error {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(sessionID) == "" {
		return ErrSessionInvalidToken
	}

	var session models.Session
	if err := s.db.WithContext(ctx).Select("id", "refresh_token").Take(&session, "id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("session service: find session: %w", err)
	}

	result := s.db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ? AND revoked_at IS NULL", sessionID).
		Update("revoked_at", s.now())
	if result.Error != nil {
		return fmt.Errorf("session service: revoke session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSessionRevoked
	}

	if s.cache != nil {
		_ = s.cache.Delete(ctx, session.RefreshToken)
	}
	metrics.ActiveSessions.Dec()
	return nil
}

// RevokeUserSessions revokes every active session belonging to a user.
func (s *SessionService) RevokeUserSessions(ctx context.Context, userID string) error {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(userID) == "" {
		return ErrSessionInvalidToken
	}

	var tokens []string
	if s.cache != nil {
		if err := s.db.WithContext(ctx).Model(&models.Session{}).
			Where("user_id = ? AND revoked_at IS NULL", userID).
			Pluck("refresh_token", &tokens).Error; err != nil {
			tokens = nil
		}
	}

	result := s.db.WithContext(ctx).Model(&models.Session{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", s.now())
	if result.Error != nil {
		return fmt.Errorf("session service: revoke user sessions: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		metrics.ActiveSessions.Sub(float64(result.RowsAffected))
	}

	if s.cache != nil && len(tokens) > 0 {
		_ = s.cache.Delete(ctx, tokens...)
	}
	return nil
}

// CleanupExpired removes expired and revoked sessions.
func (s *SessionService) CleanupExpired(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)
	now := s.now()

	var activeExpired int64
	if err := s.db.WithContext(ctx).Model(&models.Session{}).
		Where("expires_at < ? AND revoked_at IS NULL", now).
		Count(&activeExpired).Error; err != nil {
		return 0, fmt.Errorf("session service: count expired sessions: %w", err)
	}

	var tokens []string
	if s.cache != nil {
		if err := s.db.WithContext(ctx).Model(&models.Session{}).
			Where("expires_at < ? OR revoked_at IS NOT NULL", now).
			Pluck("refresh_token", &tokens).Error; err != nil {
			tokens = nil
		}
	}

	result := s.db.WithContext(ctx).
		Where("expires_at < ? OR revoked_at IS NOT NULL", now).
		Delete(&models.Session{})
	if result.Error != nil {
		return 0, fmt.Errorf("session service: cleanup expired sessions: %w", result.Error)
	}

	if s.cache != nil && len(tokens) > 0 {
		_ = s.cache.Delete(ctx, tokens...)
	}
	if activeExpired > 0 {
		metrics.ActiveSessions.Sub(float64(activeExpired))
	}
	return result.RowsAffected, nil
}

func (s *SessionService) lookupByRefreshToken(ctx context.Context, refreshToken string) (*models.Session, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, refreshToken)
		if err == nil && cached != nil {
			return cached, nil
		}
		if err != nil && !errors.Is(err, errSessionCacheMiss) {
			logger.WithModule("auth").Warn("session cache lookup failed", zap.Error(err))
		}
	}

	var session models.Session
	err := s.db.WithContext(ctx).Where("refresh_token = ?", refreshToken).Take(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session service: find session: %w", err)
	}
	return &session, nil
}

func (s *SessionService) cacheSession(ctx context.Context, session *models.Session) {
	if s.cache == nil || session == nil {
		return
	}
	ttl := session.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return
	}
	if err := s.cache.Set(ctx, session, ttl); err != nil {
		logger.WithModule("auth").Debug("session cache write failed", zap.Error(err))
	}
}

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
