package utils

import (
	"testing"
	"time"

	"servimatch/config"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withSecret(t *testing.T, secret string) {
	t.Helper()
	prev := config.AppConfig.JWTSecret
	config.AppConfig.JWTSecret = secret
	t.Cleanup(func() { config.AppConfig.JWTSecret = prev })
}

func TestGenerateAndExtractActor(t *testing.T) {
	withSecret(t, "test-secret")

	token, err := GenerateToken(42, "provider", time.Hour)
	require.NoError(t, err)

	id, role, err := ExtractActorFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, "provider", role)
}

func TestExtractActor_Rejects(t *testing.T) {
	withSecret(t, "test-secret")

	expired, err := GenerateToken(42, "customer", -time.Minute)
	require.NoError(t, err)
	_, _, err = ExtractActorFromToken(expired)
	assert.Error(t, err, "expired token")

	noRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "7"}).
		SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, _, err = ExtractActorFromToken(noRole)
	assert.Error(t, err, "missing role")

	badSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "abc", "role": "customer"}).
		SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, _, err = ExtractActorFromToken(badSub)
	assert.Error(t, err, "non-numeric subject")

	otherKey, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "7", "role": "customer"}).
		SignedString([]byte("another-secret"))
	require.NoError(t, err)
	_, _, err = ExtractActorFromToken(otherKey)
	assert.Error(t, err, "wrong signing key")
}
