package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)

	token, err := manager.Generate(42, "alice@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := manager.Validate(token)
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", claims.Email)

	userID, err := claims.UserID()
	require.NoError(t, err)
	require.Equal(t, int64(42), userID)
}

func TestJWTWrongSecret(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)
	other := NewJWTManager("other-secret", time.Hour)

	token, err := manager.Generate(1, "a@b.c")
	require.NoError(t, err)

	_, err = other.Validate(token)
	require.Error(t, err)
}

func TestJWTExpired(t *testing.T) {
	manager := NewJWTManager("test-secret", -time.Minute)

	token, err := manager.Generate(1, "a@b.c")
	require.NoError(t, err)

	_, err = manager.Validate(token)
	require.Error(t, err)
}

func TestJWTGarbage(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)
	_, err := manager.Validate("not-a-token")
	require.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	require.ErrorIs(t, ValidatePassword("short"), ErrWeakPassword)
	require.NoError(t, ValidatePassword("long enough"))

	hash, err := HashPassword("long enough")
	require.NoError(t, err)
	require.True(t, VerifyPassword("long enough", hash))
	require.False(t, VerifyPassword("wrong", hash))
}
