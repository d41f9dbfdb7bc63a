package auth

import (
	"testing"
	"time"

	"tradeboard_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("secret", 60)

	token, err := m.Generate("user-1", models.UserRoleEmployer)
	require.NoError(t, err)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.UserRoleEmployer, claims.Role)
	assert.Equal(t, "user-1", claims.Subject)
}

func TestTokenParse_WrongSecret(t *testing.T) {
	token, err := NewTokenManager("secret-a", 60).Generate("user-1", models.UserRoleAdmin)
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b", 60).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenParse_Expired(t *testing.T) {
	m := NewTokenManager("secret", 60)
	m.ttl = -time.Minute

	token, err := m.Generate("user-1", models.UserRoleJobSeeker)
	require.NoError(t, err)

	_, err = m.Parse(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestTokenParse_Garbage(t *testing.T) {
	m := NewTokenManager("secret", 60)
	_, err := m.Parse("definitely.not.ajwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2hunter2", hash)

	assert.True(t, CheckPasswordHash("hunter2hunter2", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("12345678"))
	assert.Error(t, ValidatePassword("1234567"))
	assert.Error(t, ValidatePassword(""))
}
