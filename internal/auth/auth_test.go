package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("admin123")
	require.NoError(t, err)
	assert.NotEqual(t, "admin123", hash)

	assert.True(t, CheckPassword(hash, "admin123"))
	assert.False(t, CheckPassword(hash, "admin124"))
	assert.False(t, CheckPassword("not-a-hash", "admin123"))
}

func TestTokenRoundTrip(t *testing.T) {
	tok, err := MakeToken("user-1", "ADMIN", "secret", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(tok, "secret")
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "ADMIN", claims.Role)
}

func TestTokenWrongSecret(t *testing.T) {
	tok, err := MakeToken("user-1", "ADMIN", "secret", time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(tok, "other-secret")
	assert.Error(t, err)
}

func TestTokenExpired(t *testing.T) {
	tok, err := MakeToken("user-1", "ADMIN", "secret", -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(tok, "secret")
	assert.Error(t, err)
}

func TestTokenGarbage(t *testing.T) {
	_, err := ParseToken("not.a.token", "secret")
	assert.Error(t, err)
}
