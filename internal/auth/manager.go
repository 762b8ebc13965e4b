package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/charlesng35/huddle/internal/auth/providers"
	"github.com/charlesng35/huddle/internal/models"
	apperrors "github.com/charlesng35/huddle/pkg/errors"
	"github.com/charlesng35/huddle/pkg/logger"
	"github.com/charlesng35/huddle/pkg/metrics"
)

var (
	// ErrEmailTaken is returned by Register when the email already has an identity.
	ErrEmailTaken = apperrors.New("EMAIL_TAKEN", "Email is already registered", http.StatusConflict)
	// ErrAccountLocked is returned while a lockout window is active.
	ErrAccountLocked = apperrors.New("ACCOUNT_LOCKED", "Account temporarily locked after repeated failures", http.StatusLocked)
	// ErrInvalidRefreshToken is returned when a refresh token cannot be redeemed.
	ErrInvalidRefreshToken = apperrors.New("INVALID_REFRESH_TOKEN", "Refresh token is invalid or expired", http.StatusUnauthorized)
)

// IdentityProvider verifies and creates identities.
type IdentityProvider interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	Lookup(ctx context.Context, userID string) (*models.User, error)
}

// InviteAcceptor promotes pending invites for an email into memberships.
type InviteAcceptor interface {
	AcceptInvites(ctx context.Context, userID, email string) (int, error)
}

// Session is the handle returned to a signed-in client.
type Session struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresAt    time.Time    `json:"expires_at"`
	User         *models.User `json:"user"`
}

// Principal is the identity resolved from an access token.
type Principal struct {
	User      *models.User
	SessionID string
}

// ManagerOption customises the Manager.
type ManagerOption func(*Manager)

// WithInviteAcceptor wires invite promotion into register and sign-in.
func WithInviteAcceptor(acceptor InviteAcceptor) ManagerOption {
	return func(m *Manager) {
		m.invites = acceptor
	}
}

// Manager resolves identities and issues session handles.
type Manager struct {
	provider IdentityProvider
	sessions *SessionService
	invites  InviteAcceptor
}

// NewManager wires an identity provider to the session service.
func NewManager(provider IdentityProvider, sessions *SessionService, opts ...ManagerOption) (*Manager, error) {
	if provider == nil {
		return nil, errors.New("auth manager: identity provider is required")
	}
	if sessions == nil {
		return nil, errors.New("auth manager: session service is required")
	}

	m := &Manager{provider: provider, sessions: sessions}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m, nil
}

// SetInviteAcceptor attaches the acceptor after construction.
func (m *Manager) SetInviteAcceptor(acceptor InviteAcceptor) {
	m.invites = acceptor
}

// Authenticate verifies credentials and opens a session.
func (m *Manager) Authenticate(ctx context.Context, email, password string, meta SessionMetadata) (*Session, error) {
	ctx = ensureContext(ctx)

	user, err := m.provider.Authenticate(ctx, email, password)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("login", "failure").Inc()
		return nil, translateProviderError(err)
	}

	session, err := m.openSession(ctx, user, meta)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("login", "error").Inc()
		return nil, err
	}
	metrics.AuthAttempts.WithLabelValues("login", "success").Inc()
	return session, nil
}

// Register creates the identity then signs it in.
func (m *Manager) Register(ctx context.Context, email, password string, meta SessionMetadata) (*Session, error) {
	ctx = ensureContext(ctx)

	user, err := m.provider.Register(ctx, email, password)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("register", "failure").Inc()
		return nil, translateProviderError(err)
	}

	session, err := m.openSession(ctx, user, meta)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("register", "error").Inc()
		return nil, err
	}
	metrics.AuthAttempts.WithLabelValues("register", "success").Inc()
	return session, nil
}

// Refresh rotates the refresh token and returns a new handle.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	ctx = ensureContext(ctx)

	tokens, record, err := m.sessions.RefreshSession(ctx, refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, ErrSessionNotFound),
			errors.Is(err, ErrSessionRevoked),
			errors.Is(err, ErrSessionExpired),
			errors.Is(err, ErrSessionInvalidToken):
			return nil, ErrInvalidRefreshToken
		default:
			return nil, apperrors.ErrProviderUnavailable.WithInternal(err)
		}
	}

	user, err := m.provider.Lookup(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, providers.ErrUserNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, apperrors.ErrProviderUnavailable.WithInternal(err)
	}

	return &Session{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.AccessExpiresAt,
		User:         user,
	}, nil
}

// Resolve maps an access token to its principal. It returns nil for any
// handle that is empty, malformed, expired, revoked or whose user is gone.
func (m *Manager) Resolve(ctx context.Context, handle string) *Principal {
	ctx = ensureContext(ctx)
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil
	}

	claims, err := m.sessions.JWT().ValidateAccessToken(handle)
	if err != nil {
		return nil
	}

	if _, err := m.sessions.ValidateSession(ctx, claims.SessionID); err != nil {
		if !isSessionStateError(err) {
			logger.WithModule("auth").Warn("session validation failed", zap.Error(err))
		}
		return nil
	}

	user, err := m.provider.Lookup(ctx, claims.UserID)
	if err != nil {
		if !errors.Is(err, providers.ErrUserNotFound) {
			logger.WithModule("auth").Warn("identity lookup failed", zap.Error(err))
		}
		return nil
	}
	if !user.IsActive {
		return nil
	}

	return &Principal{User: user, SessionID: claims.SessionID}
}

// CurrentUser returns the user behind a handle, or nil.
func (m *Manager) CurrentUser(ctx context.Context, handle string) *models.User {
	principal := m.Resolve(ctx, handle)
	if principal == nil {
		return nil
	}
	return principal.User
}

// SignOut revokes the session behind a handle. Failures are logged, never returned.
func (m *Manager) SignOut(ctx context.Context, handle string) {
	ctx = ensureContext(ctx)
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return
	}

	claims, err := m.sessions.JWT().ValidateAccessToken(handle)
	if err != nil {
		return
	}
	m.SignOutSession(ctx, claims.SessionID)
}

// SignOutEverywhere revokes every session of the user.
func (m *Manager) SignOutEverywhere(ctx context.Context, userID string) error {
	if err := m.sessions.RevokeUserSessions(ensureContext(ctx), userID); err != nil {
		return fmt.Errorf("auth manager: sign out everywhere: %w", err)
	}
	return nil
}

// SignOutSession revokes a session by id. Failures are logged, never returned.
func (m *Manager) SignOutSession(ctx context.Context, sessionID string) {
	if err := m.sessions.RevokeSession(ensureContext(ctx), sessionID); err != nil && !isSessionStateError(err) {
		logger.WithModule("auth").Warn("sign out failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
	}
}

func (m *Manager) openSession(ctx context.Context, user *models.User, meta SessionMetadata) (*Session, error) {
	tokens, _, err := m.sessions.CreateSession(ctx, user.ID, meta)
	if err != nil {
		return nil, apperrors.ErrProviderUnavailable.WithInternal(err)
	}

	if m.invites != nil {
		accepted, err := m.invites.AcceptInvites(ctx, user.ID, user.Email)
		if err != nil {
			logger.WithModule("auth").Warn("invite acceptance failed",
				zap.String("user_id", user.ID),
				zap.Error(err),
			)
		} else if accepted > 0 {
			logger.WithModule("auth").Info("pending invites accepted",
				zap.String("user_id", user.ID),
				zap.Int("count", accepted),
			)
		}
	}

	return &Session{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.AccessExpiresAt,
		User:         user,
	}, nil
}

func translateProviderError(err error) error {
	var invalid *providers.InvalidInputError
	switch {
	case errors.Is(err, providers.ErrInvalidCredentials), errors.Is(err, providers.ErrAccountDisabled):
		return apperrors.ErrInvalidCredentials
	case errors.Is(err, providers.ErrAccountLocked):
		return ErrAccountLocked
	case errors.Is(err, providers.ErrEmailTaken):
		return ErrEmailTaken
	case errors.As(err, &invalid):
		return apperrors.NewValidation(strings.TrimPrefix(invalid.Error(), "auth: "))
	default:
		return apperrors.ErrProviderUnavailable.WithInternal(err)
	}
}

func isSessionStateError(err error) bool {
	return errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrSessionRevoked) ||
		errors.Is(err, ErrSessionExpired) ||
		errors.Is(err, ErrSessionInvalidToken)
}
