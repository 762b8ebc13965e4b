package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/huddle/internal/database"
	"github.com/charlesng35/huddle/internal/models"
	"github.com/charlesng35/huddle/pkg/crypto"
	"github.com/charlesng35/huddle/pkg/validator"
)

const (
	defaultLockoutThreshold  = 5
	defaultLockoutDuration   = 15 * time.Minute
	defaultMinPasswordLength = 8
)

var (
	// ErrInvalidCredentials is returned when the supplied email/password pair is invalid.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrAccountLocked signals that the user has exceeded the permitted failed attempts.
	ErrAccountLocked = errors.New("auth: account locked")
	// ErrAccountDisabled signals that the user has been deactivated.
	ErrAccountDisabled = errors.New("auth: account disabled")
	// ErrEmailTaken is returned by Register when the email already has an identity.
	ErrEmailTaken = errors.New("auth: email already registered")
	// ErrUserNotFound is returned by Lookup for unknown ids.
	ErrUserNotFound = errors.New("auth: user not found")
)

// InvalidInputError describes a registration payload the provider refuses.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "auth: " + e.Reason
}

// LocalConfig defines tunable behaviour for the local provider.
type LocalConfig struct {
	LockoutThreshold  int
	LockoutDuration   time.Duration
	MinPasswordLength int
	Clock             func() time.Time
}

// LocalProvider implements email/password identities stored in the relational database.
type LocalProvider struct {
	db        *gorm.DB
	clock     func() time.Time
	threshold int
	duration  time.Duration
	minLength int
}

// NewLocalProvider builds a provider with sane defaults.
func NewLocalProvider(db *gorm.DB, cfg LocalConfig) (*LocalProvider, error) {
	if db == nil {
		return nil, errors.New("local provider: db is required")
	}

	threshold := cfg.LockoutThreshold
	if threshold <= 0 {
		threshold = defaultLockoutThreshold
	}
	duration := cfg.LockoutDuration
	if duration <= 0 {
		duration = defaultLockoutDuration
	}
	minLength := cfg.MinPasswordLength
	if minLength <= 0 {
		minLength = defaultMinPasswordLength
	}
	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	return &LocalProvider{
		db:        db,
		clock:     clock,
		threshold: threshold,
		duration:  duration,
		minLength: minLength,
	}, nil
}

// Register creates a new identity with a hashed password.
func (p *LocalProvider) Register(ctx context.Context, email, password string) (*models.User, error) {
	email = normaliseEmail(email)
	if !validator.IsEmail(email) {
		return nil, &InvalidInputError{Reason: "a valid email address is required"}
	}
	if len(password) < p.minLength {
		return nil, &InvalidInputError{Reason: fmt.Sprintf("password must be at least %d characters", p.minLength)}
	}

	hashed, err := crypto.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("local provider: hash password: %w", err)
	}

	user := &models.User{
		Email:    email,
		Password: hashed,
		IsActive: true,
	}
	if err := p.db.WithContext(ctx).Create(user).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("local provider: create user: %w", err)
	}
	return user, nil
}

// Authenticate verifies the supplied credentials and returns the associated user when successful.
func (p *LocalProvider) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = normaliseEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	var user models.User
	err := p.db.WithContext(ctx).Where("email = ?", email).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("local provider: query user: %w", err)
	}

	now := p.clock()
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}
	if user.LockedUntil != nil && user.LockedUntil.After(now) {
		return nil, ErrAccountLocked
	}
	if user.LockedUntil != nil {
		// Lockout elapsed; start counting afresh.
		user.LockedUntil = nil
		user.FailedAttempts = 0
	}

	if !crypto.VerifyPassword(user.Password, password) {
		return nil, p.recordFailure(ctx, &user, now)
	}

	user.FailedAttempts = 0
	user.LastLoginAt = &now
	if err := p.db.WithContext(ctx).Model(&user).Updates(map[string]any{
		"failed_attempts": 0,
		"locked_until":    nil,
		"last_login_at":   now,
	}).Error; err != nil {
		return nil, fmt.Errorf("local provider: update user: %w", err)
	}
	return &user, nil
}

// Lookup loads an identity by id.
func (p *LocalProvider) Lookup(ctx context.Context, userID string) (*models.User, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUserNotFound
	}

	var user models.User
	err := p.db.WithContext(ctx).Take(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("local provider: find user: %w", err)
	}
	return &user, nil
}

func (p *LocalProvider) recordFailure(ctx context.Context, user *models.User, now time.Time) error {
	user.FailedAttempts++
	updates := map[string]any{
		"failed_attempts": user.FailedAttempts,
		"locked_until":    nil,
	}

	locked := user.FailedAttempts >= p.threshold
	if locked {
		lockUntil := now.Add(p.duration)
		user.LockedUntil = &lockUntil
		updates["locked_until"] = lockUntil
	}

	if err := p.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return fmt.Errorf("local provider: update failed attempts: %w", err)
	}
	if locked {
		return ErrAccountLocked
	}
	return ErrInvalidCredentials
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
