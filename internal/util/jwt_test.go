package util

import (
	"testing"
	"time"

	"construction-backend/config"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withSecret(t *testing.T) {
	t.Helper()
	old := config.AppConfig.JWTSecret
	config.AppConfig.JWTSecret = "test-secret"
	t.Cleanup(func() { config.AppConfig.JWTSecret = old })
}

func TestAccessToken(t *testing.T) {
	withSecret(t)

	token, err := GenerateToken(42)
	require.NoError(t, err)

	userID, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, 42, userID)

	exp, err := TokenExpiry(token)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(AccessTokenTTL), exp, time.Minute)

	_, err = ValidateToken("")
	assert.Error(t, err)
	_, err = ValidateToken(token + "x")
	assert.Error(t, err)
}

func TestResetTokenIsNotAnAccessToken(t *testing.T) {
	withSecret(t)

	token, err := GeneratePasswordResetToken("site@example.com", "hash")
	require.NoError(t, err)

	_, err = ValidateToken(token)
	assert.Error(t, err)
}

func TestPasswordResetToken(t *testing.T) {
	withSecret(t)

	token, err := GeneratePasswordResetToken("site@example.com", "$2a$10$hash")
	require.NoError(t, err)

	email, fp, err := ParsePasswordResetToken(token)
	require.NoError(t, err)
	assert.Equal(t, "site@example.com", email)
	assert.Equal(t, PasswordFingerprint("$2a$10$hash"), fp)
	assert.NotEqual(t, PasswordFingerprint("$2a$10$other"), fp)

	access, err := GenerateToken(1)
	require.NoError(t, err)
	_, _, err = ParsePasswordResetToken(access)
	assert.Error(t, err)
}

func TestExpiredResetToken(t *testing.T) {
	withSecret(t)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": "site@example.com",
		"type":  "password_reset",
		"exp":   time.Now().Add(-time.Minute).Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, _, err = ParsePasswordResetToken(signed)
	assert.Error(t, err)
}
