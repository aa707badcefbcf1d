package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lunch-system/internal/domain"
)

var secret = []byte("test-secret")

func TestTokenRoundTrip(t *testing.T) {
	token, exp, err := GenerateToken(secret, domain.RoleSuperAdmin, time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := ParseToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSuperAdmin, claims.Role)
	assert.Equal(t, "superadmin", claims.Subject)
}

func TestParseTokenRejects(t *testing.T) {
	expired, _, err := GenerateToken(secret, domain.RoleAdmin, -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(secret, expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	valid, _, err := GenerateToken(secret, domain.RoleAdmin, time.Hour)
	require.NoError(t, err)
	_, err = ParseToken([]byte("other"), valid)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseToken(secret, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	employee := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Role:             domain.RoleEmployee,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	signed, err := employee.SignedString(secret)
	require.NoError(t, err)
	_, err = ParseToken(secret, signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGenerateTokenWithoutSecret(t *testing.T) {
	_, _, err := GenerateToken(nil, domain.RoleAdmin, time.Hour)
	assert.Error(t, err)
}
