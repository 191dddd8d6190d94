package utils

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)

	token, err := svc.Issue("user-1")
	require.NoError(t, err)

	claims, err := svc.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	require.NotNil(t, claims.ExpiresAt)
	require.NotNil(t, claims.IssuedAt)
	assert.Equal(t, time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestTokenExpired(t *testing.T) {
	svc := NewTokenService("secret", time.Minute)
	issued := time.Now()
	svc.now = func() time.Time { return issued }

	token, err := svc.Issue("user-1")
	require.NoError(t, err)

	svc.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = svc.Parse(token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidToken))
	assert.True(t, errors.Is(err, jwt.ErrTokenExpired))
}

func TestTokenTampered(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)
	token, err := svc.Issue("user-1")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	other, err := svc.Issue("user-2")
	require.NoError(t, err)
	// splice user-2's payload under user-1's signature
	forged := parts[0] + "." + strings.Split(other, ".")[1] + "." + parts[2]

	_, err = svc.Parse(forged)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := NewTokenService("secret", time.Hour).Issue("user-1")
	require.NoError(t, err)

	_, err = NewTokenService("another", time.Hour).Parse(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestTokenRejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenService("secret", time.Hour).Parse(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestTokenWithoutUserID(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)
	token, err := svc.Issue("")
	require.NoError(t, err)

	_, err = svc.Parse(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestTokenGarbage(t *testing.T) {
	_, err := NewTokenService("secret", time.Hour).Parse("not-a-token")
	assert.True(t, errors.Is(err, ErrInvalidToken))
}
