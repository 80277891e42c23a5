package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linzhaoyu/referral-mall-backend/internal/common/config"
	"github.com/linzhaoyu/referral-mall-backend/internal/common/errors"
)

func newTestManager(accessExpireHours int) *Manager {
	return NewManager(&config.JWTConfig{
		Secret:             "test-secret",
		AccessTokenExpire:  accessExpireHours,
		RefreshTokenExpire: 168,
		Issuer:             "referral-mall-backend",
	})
}

func TestManager_GenerateAndParse(t *testing.T) {
	m := newTestManager(24)

	token, err := m.GenerateAccessToken(42, RoleUser)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, RoleUser, claims.Role)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.Equal(t, "referral-mall-backend", claims.Issuer)
}

func TestManager_RefreshToken(t *testing.T) {
	m := newTestManager(24)

	token, err := m.GenerateRefreshToken(42, RoleAdmin)
	require.NoError(t, err)

	claims, err := m.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, claims.TokenType)
	assert.Equal(t, RoleAdmin, claims.Role)
}

func TestManager_ParseToken_Expired(t *testing.T) {
	// 有效期为负，签出即过期
	m := newTestManager(-1)

	token, err := m.GenerateAccessToken(42, RoleUser)
	require.NoError(t, err)

	_, err = m.ParseToken(token)
	assert.ErrorIs(t, err, errors.ErrTokenExpired)
}

func TestManager_ParseToken_WrongSecret(t *testing.T) {
	m := newTestManager(24)
	other := NewManager(&config.JWTConfig{
		Secret:             "another-secret",
		AccessTokenExpire:  24,
		RefreshTokenExpire: 168,
		Issuer:             "referral-mall-backend",
	})

	token, err := m.GenerateAccessToken(42, RoleUser)
	require.NoError(t, err)

	_, err = other.ParseToken(token)
	assert.ErrorIs(t, err, errors.ErrTokenInvalid)
}

func TestManager_ParseToken_Garbage(t *testing.T) {
	m := newTestManager(24)

	_, err := m.ParseToken("not-a-token")
	assert.ErrorIs(t, err, errors.ErrTokenInvalid)
}
