// Package middleware Hertz 中间件：鉴权与访问日志
package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/golang-jwt/jwt/v5"
	"github.com/hertz-contrib/keyauth"

	"github.com/Mangesh9326/Job-Platform/internal/logger"
)

// UserIDKey 鉴权通过后写入请求上下文的用户 ID 键
const UserIDKey = "user_id"

// ErrInvalidToken 令牌无效或缺少用户 ID
var ErrInvalidToken = errors.New("无效的访问令牌")

// Claims 登录令牌的声明，id 为用户 ID
type Claims struct {
	ID string `json:"id"`
	jwt.RegisteredClaims
}

// TokenVerifier 校验 HS256 令牌
type TokenVerifier struct {
	secret []byte
}

// NewTokenVerifier 创建令牌校验器
func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret)}
}

// Verify 解析并校验令牌，返回用户 ID
func (v *TokenVerifier) Verify(token string) (string, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("不支持的签名算法: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.ID == "" {
		return "", ErrInvalidToken
	}
	return claims.ID, nil
}

// Sign 签发令牌，供 CLI 与测试使用
func (v *TokenVerifier) Sign(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		ID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("签发令牌失败: %w", err)
	}
	return s, nil
}

// BearerAuth 返回 Authorization: Bearer 鉴权中间件，通过后把用户 ID 写入上下文
func BearerAuth(v *TokenVerifier) app.HandlerFunc {
	return keyauth.New(
		keyauth.WithKeyLookUp("header:Authorization", "Bearer"),
		keyauth.WithValidator(func(ctx context.Context, c *app.RequestContext, token string) (bool, error) {
			userID, err := v.Verify(token)
			if err != nil {
				return false, err
			}
			c.Set(UserIDKey, userID)
			return true, nil
		}),
		keyauth.WithErrorHandler(func(ctx context.Context, c *app.RequestContext, err error) {
			logger.Debug().Err(err).Str("path", string(c.Path())).Msg("鉴权失败")
			c.AbortWithStatusJSON(consts.StatusUnauthorized, utils.H{"message": "Unauthorized"})
		}),
	)
}

// UserID 读取鉴权中间件写入的用户 ID
func UserID(c *app.RequestContext) (string, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
