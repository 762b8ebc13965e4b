package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestNewJWTServiceRequiresSecret(t *testing.T) {
	_, err := NewJWTService(JWTConfig{})
	require.EqualError(t, err, "jwt: secret must be provided")
}

func TestGenerateAndValidateAccessToken(t *testing.T) {
	current := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	svc, err := NewJWTService(JWTConfig{
		Secret:         "super-secret",
		Issuer:         "huddle",
		AccessTokenTTL: time.Hour,
		Clock:          func() time.Time { return current },
	})
	require.NoError(t, err)

	token, expiresAt, err := svc.GenerateAccessToken(AccessTokenInput{
		UserID:    "user-123",
		SessionID: "session-456",
	})
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.True(t, expiresAt.Equal(current.Add(time.Hour)))

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	require.Equal(t, "user-123", claims.UserID)
	require.Equal(t, "session-456", claims.SessionID)
	require.Equal(t, "huddle", claims.Issuer)
	require.Equal(t, "session-456", claims.ID)
}

func TestValidateAccessTokenExpired(t *testing.T) {
	current := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	svc, err := NewJWTService(JWTConfig{
		Secret:         "secret",
		AccessTokenTTL: time.Minute,
		Clock:          func() time.Time { return current },
	})
	require.NoError(t, err)

	token, _, err := svc.GenerateAccessToken(AccessTokenInput{UserID: "u", SessionID: "s"})
	require.NoError(t, err)

	current = current.Add(2 * time.Minute)
	_, err = svc.ValidateAccessToken(token)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestValidateAccessTokenWrongSecretOrIssuer(t *testing.T) {
	issuer, err := NewJWTService(JWTConfig{Secret: "one", Issuer: "huddle"})
	require.NoError(t, err)
	token, _, err := issuer.GenerateAccessToken(AccessTokenInput{UserID: "u", SessionID: "s"})
	require.NoError(t, err)

	other, err := NewJWTService(JWTConfig{Secret: "two", Issuer: "huddle"})
	require.NoError(t, err)
	_, err = other.ValidateAccessToken(token)
	require.Error(t, err)

	sameSecret, err := NewJWTService(JWTConfig{Secret: "one", Issuer: "elsewhere"})
	require.NoError(t, err)
	_, err = sameSecret.ValidateAccessToken(token)
	require.EqualError(t, err, "jwt: invalid issuer")
}

func TestGenerateAccessTokenRequiresSession(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{Secret: "secret"})
	require.NoError(t, err)

	_, _, err = svc.GenerateAccessToken(AccessTokenInput{UserID: "u"})
	require.Error(t, err)
	_, _, err = svc.GenerateAccessToken(AccessTokenInput{SessionID: "s"})
	require.Error(t, err)
	_, err = svc.ValidateAccessToken("")
	require.Error(t, err)
}
