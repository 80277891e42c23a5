// Package jwt 提供 JWT 令牌的签发与校验
package jwt

import (
	stderrors "errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/linzhaoyu/referral-mall-backend/internal/common/config"
	"github.com/linzhaoyu/referral-mall-backend/internal/common/errors"
)

// TokenType 令牌类型
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// 角色
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Claims 自定义声明
type Claims struct {
	UserID    int64  `json:"user_id"`
	Role      string `json:"role"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Manager JWT 管理器
type Manager struct {
	secret             []byte
	issuer             string
	accessTokenExpire  time.Duration
	refreshTokenExpire time.Duration
}

// NewManager 创建 JWT 管理器
func NewManager(cfg *config.JWTConfig) *Manager {
	return &Manager{
		secret:             []byte(cfg.Secret),
		issuer:             cfg.Issuer,
		accessTokenExpire:  cfg.AccessTokenDuration(),
		refreshTokenExpire: cfg.RefreshTokenDuration(),
	}
}

// GenerateAccessToken 生成访问令牌
func (m *Manager) GenerateAccessToken(userID int64, role string) (string, error) {
	return m.generate(userID, role, TokenTypeAccess, m.accessTokenExpire)
}

// GenerateRefreshToken 生成刷新令牌
func (m *Manager) GenerateRefreshToken(userID int64, role string) (string, error) {
	return m.generate(userID, role, TokenTypeRefresh, m.refreshTokenExpire)
}

func (m *Manager) generate(userID int64, role, tokenType string, expire time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    userID,
		Role:      role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expire)),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ParseToken 解析并校验令牌
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.ErrTokenInvalid
		}
		return m.secret, nil
	})
	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.ErrTokenExpired
		}
		return nil, errors.ErrTokenInvalid.WithError(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.ErrTokenInvalid
	}

	return claims, nil
}
