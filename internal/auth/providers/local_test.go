package providers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/huddle/internal/database/testutil"
	"github.com/charlesng35/huddle/internal/models"
	"github.com/charlesng35/huddle/pkg/crypto"
)

func TestRegisterHashesPasswordAndNormalisesEmail(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	provider := newLocalProvider(t, db, LocalConfig{})

	user, err := provider.Register(context.Background(), "  Eve@Example.com ", "secret-pass")
	require.NoError(t, err)
	require.Equal(t, "eve@example.com", user.Email)
	require.NotEqual(t, "secret-pass", user.Password)
	require.True(t, crypto.VerifyPassword(user.Password, "secret-pass"))
	require.True(t, user.IsActive)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	provider := newLocalProvider(t, db, LocalConfig{})

	_, err := provider.Register(context.Background(), "dup@example.com", "password1")
	require.NoError(t, err)

	_, err = provider.Register(context.Background(), "DUP@example.com", "password2")
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterRejectsInvalidInput(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	provider := newLocalProvider(t, db, LocalConfig{MinPasswordLength: 6})

	_, err := provider.Register(context.Background(), "not-an-email", "password")
	var invalid *InvalidInputError
	require.ErrorAs(t, err, &invalid)

	_, err = provider.Register(context.Background(), "ok@example.com", "short")
	require.ErrorAs(t, err, &invalid)
	require.Contains(t, invalid.Reason, "at least 6")
}

func TestAuthenticateSuccessResetsCounters(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	current := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	provider := newLocalProvider(t, db, LocalConfig{Clock: func() time.Time { return current }})

	user := createUser(t, db, "alice@example.com", "password123")
	require.NoError(t, db.Model(user).Update("failed_attempts", 3).Error)

	result, err := provider.Authenticate(context.Background(), "ALICE@example.com", "password123")
	require.NoError(t, err)
	require.Equal(t, user.ID, result.ID)

	var updated models.User
	require.NoError(t, db.Take(&updated, "id = ?", user.ID).Error)
	require.Equal(t, 0, updated.FailedAttempts)
	require.Nil(t, updated.LockedUntil)
	require.NotNil(t, updated.LastLoginAt)
	require.True(t, updated.LastLoginAt.Equal(current))
}

func TestAuthenticateUnknownEmail(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	provider := newLocalProvider(t, db, LocalConfig{})

	_, err := provider.Authenticate(context.Background(), "ghost@example.com", "whatever")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = provider.Authenticate(context.Background(), "", "")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateInvalidPasswordLocksAccount(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	current := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	provider := newLocalProvider(t, db, LocalConfig{
		LockoutThreshold: 3,
		LockoutDuration:  10 * time.Minute,
		Clock:            func() time.Time { return current },
	})

	user := createUser(t, db, "bob@example.com", "correct-horse")

	_, err := provider.Authenticate(context.Background(), "bob@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = provider.Authenticate(context.Background(), "bob@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = provider.Authenticate(context.Background(), "bob@example.com", "wrong")
	require.ErrorIs(t, err, ErrAccountLocked)

	var updated models.User
	require.NoError(t, db.Take(&updated, "id = ?", user.ID).Error)
	require.Equal(t, 3, updated.FailedAttempts)
	require.NotNil(t, updated.LockedUntil)
	require.WithinDuration(t, current.Add(10*time.Minute), *updated.LockedUntil, time.Second)

	_, err = provider.Authenticate(context.Background(), "bob@example.com", "correct-horse")
	require.ErrorIs(t, err, ErrAccountLocked)

	current = current.Add(11 * time.Minute)
	_, err = provider.Authenticate(context.Background(), "bob@example.com", "correct-horse")
	require.NoError(t, err)
}

func TestAuthenticateDisabledAccount(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	provider := newLocalProvider(t, db, LocalConfig{})

	user := createUser(t, db, "diana@example.com", "correct-horse")
	require.NoError(t, db.Model(user).Update("is_active", false).Error)

	_, err := provider.Authenticate(context.Background(), "diana@example.com", "correct-horse")
	require.ErrorIs(t, err, ErrAccountDisabled)
}

func TestLookup(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	provider := newLocalProvider(t, db, LocalConfig{})

	user := createUser(t, db, "lookup@example.com", "password")

	found, err := provider.Lookup(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, "lookup@example.com", found.Email)

	_, err = provider.Lookup(context.Background(), "missing")
	require.ErrorIs(t, err, ErrUserNotFound)
	_, err = provider.Lookup(context.Background(), " ")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func newLocalProvider(t *testing.T, db *gorm.DB, cfg LocalConfig) *LocalProvider {
	t.Helper()
	provider, err := NewLocalProvider(db, cfg)
	require.NoError(t, err)
	return provider
}

func createUser(t *testing.T, db *gorm.DB, email, password string) *models.User {
	t.Helper()
	hashed, err := crypto.HashPassword(password)
	require.NoError(t, err)

	user := &models.User{Email: email, Password: hashed, IsActive: true}
	require.NoError(t, db.Create(user).Error)
	return user
}
