package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService(t *testing.T) TokenService {
	t.Helper()
	svc, err := NewTokenService(
		time.Hour, 24*time.Hour,
		"test-issuer", "test-audience",
		false, "", "",
		"test-secret-key-0123456789abcdef",
	)
	require.NoError(t, err)
	return svc
}

func TestNewTokenServiceRequiresSecret(t *testing.T) {
	_, err := NewTokenService(time.Hour, 24*time.Hour, "iss", "aud", false, "", "", "")
	require.Error(t, err)
}

func TestGenerateAndValidateTokens(t *testing.T) {
	svc := newTestTokenService(t)

	accessToken, refreshToken, err := svc.GenerateTokens(42, "owner")
	require.NoError(t, err)
	require.NotEmpty(t, accessToken)
	require.NotEmpty(t, refreshToken)
	assert.NotEqual(t, accessToken, refreshToken)

	accessClaims, err := svc.ValidateToken(accessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(42), accessClaims.OperatorID)
	assert.Equal(t, "owner", accessClaims.Role)
	assert.Equal(t, "access", accessClaims.TokenType)
	assert.NotEmpty(t, accessClaims.TokenID)

	refreshClaims, err := svc.ValidateToken(refreshToken)
	require.NoError(t, err)
	assert.Equal(t, "refresh", refreshClaims.TokenType)
}

func TestValidateGarbageToken(t *testing.T) {
	svc := newTestTokenService(t)

	_, err := svc.ValidateToken("not.a.jwt")
	require.Error(t, err)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	svc := newTestTokenService(t)
	accessToken, _, err := svc.GenerateTokens(1, "staff")
	require.NoError(t, err)

	other, err := NewTokenService(time.Hour, 24*time.Hour, "test-issuer", "test-audience", false, "", "", "a-completely-different-secret-key")
	require.NoError(t, err)

	_, err = other.ValidateToken(accessToken)
	require.Error(t, err)
}

func TestRefreshTokenIssuesNewPair(t *testing.T) {
	svc := newTestTokenService(t)

	_, refreshToken, err := svc.GenerateTokens(42, "owner")
	require.NoError(t, err)

	newAccess, newRefresh, err := svc.RefreshToken(refreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, newAccess)
	require.NotEmpty(t, newRefresh)

	claims, err := svc.ValidateToken(newAccess)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.OperatorID)
	assert.Equal(t, "access", claims.TokenType)
}

func TestRefreshWithAccessTokenRejected(t *testing.T) {
	svc := newTestTokenService(t)

	accessToken, _, err := svc.GenerateTokens(42, "owner")
	require.NoError(t, err)

	_, _, err = svc.RefreshToken(accessToken)
	require.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	svc, err := NewTokenService(
		-time.Minute, 24*time.Hour,
		"test-issuer", "test-audience",
		false, "", "",
		"test-secret-key-0123456789abcdef",
	)
	require.NoError(t, err)

	accessToken, _, err := svc.GenerateTokens(42, "owner")
	require.NoError(t, err)

	_, err = svc.ValidateToken(accessToken)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTokenExpired)
}
