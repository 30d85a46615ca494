package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccessTokenClaims(t *testing.T) {
	at, err := NewAccessToken("secret", 7, "admin", 30)
	require.NoError(t, err)
	assert.NotEmpty(t, at.Token)
	assert.WithinDuration(t, time.Now().UTC().Add(30*time.Minute), at.Exp, 5*time.Second)

	tok, err := jwt.Parse(at.Token, func(t *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	require.NoError(t, err)
	require.True(t, tok.Valid)
	claims, ok := tok.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, float64(7), claims["sub"])
	assert.Equal(t, "admin", claims["role"])
}

func TestNewRefreshTokenIsRandom(t *testing.T) {
	a, err := NewRefreshToken(7)
	require.NoError(t, err)
	b, err := NewRefreshToken(7)
	require.NoError(t, err)

	assert.Len(t, a.Raw, 96) // 48 bytes hex encoded
	assert.NotEqual(t, a.Raw, b.Raw)
	assert.WithinDuration(t, time.Now().UTC().Add(7*24*time.Hour), a.Exp, 5*time.Second)
}

func TestHashRefreshRawIsStable(t *testing.T) {
	h1 := HashRefreshRaw("some-token")
	h2 := HashRefreshRaw("some-token")
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64) // sha256 hex
	assert.NotEqual(t, h1, HashRefreshRaw("other-token"))
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter2", 4) // min cost keeps the test fast
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "hunter2"))
	assert.False(t, VerifyPassword(hash, "hunter3"))
	assert.False(t, VerifyPassword("not-a-hash", "hunter2"))
}
