// File: internal/service/authentication.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"library-hub/internal/apperrors"
	"library-hub/internal/cache"
	"library-hub/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	jsonMarshal     = json.Marshal
	jsonUnmarshal   = json.Unmarshal
	timeNow         = time.Now
	parseWithClaims = jwt.ParseWithClaims
	newTokenID      = func() string { return uuid.NewString() }
)

const (
	refreshKeyPrefix   = "refresh_token:"
	revokedKeyPrefix   = "revoked_jti:"
	refreshTokenLength = 32
)

// CustomClaims 定義 JWT 負載內容，RegisteredClaims.ID 即 jti
type CustomClaims struct {
	UserID      int    `json:"user_id"`
	Username    string `json:"username"`
	IsSuperuser bool   `json:"is_superuser"`
	jwt.RegisteredClaims
}

// RefreshTokenData 存放於 Redis 的 refresh token 內容
type RefreshTokenData struct {
	UserID    int       `json:"user_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AuthenticateUser 驗證帳號狀態與明文密碼
func AuthenticateUser(ctx context.Context, user model.User, password string) error {
	if !user.IsActive || !HasUsablePassword(user.PasswordHash) {
		return apperrors.ErrInvalidPassword
	}
	if err := ComparePassword(user.PasswordHash, password); err != nil {
		return apperrors.ErrInvalidPassword
	}
	return nil
}

// jwtKey 由 SetJWTSecret 於啟動時注入；未注入時退回讀取環境變數
var jwtKey []byte

// SetJWTSecret 設定簽章金鑰，傳入空字串則清除
func SetJWTSecret(secret string) {
	jwtKey = []byte(secret)
}

func jwtSecret() ([]byte, error) {
	if len(jwtKey) > 0 {
		return jwtKey, nil
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET not set")
	}
	return []byte(secret), nil
}

// IssueAccessToken 依據使用者資訊與 TTL 產生 JWT
func IssueAccessToken(user model.User, ttl time.Duration) (string, error) {
	secret, err := jwtSecret()
	if err != nil {
		return "", err
	}

	now := timeNow()
	claims := CustomClaims{
		UserID:      user.ID,
		Username:    user.Username,
		IsSuperuser: user.IsSuperuser,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        newTokenID(),
			Subject:   strconv.Itoa(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// VerifyAccessToken 驗證並解析 JWT 令牌
func VerifyAccessToken(tokenString string) (*CustomClaims, error) {
	secret, err := jwtSecret()
	if err != nil {
		return nil, err
	}

	token, err := parseWithClaims(tokenString, &CustomClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}

// IssueRefreshToken 產生隨機 refresh token 並寫入 Redis
func IssueRefreshToken(ctx context.Context, c cache.Cache, userID int, ttl time.Duration) (string, error) {
	token, err := randomToken(refreshTokenLength)
	if err != nil {
		return "", fmt.Errorf("IssueRefreshToken: %w", err)
	}
	now := timeNow()
	data, err := jsonMarshal(RefreshTokenData{UserID: userID, IssuedAt: now, ExpiresAt: now.Add(ttl)})
	if err != nil {
		return "", fmt.Errorf("IssueRefreshToken: %w", err)
	}
	if err := c.Set(ctx, refreshKeyPrefix+token, data, ttl).Err(); err != nil {
		return "", fmt.Errorf("IssueRefreshToken: %w", err)
	}
	return token, nil
}

// ValidateRefreshToken 讀取 refresh token，不存在時回傳 ErrUnauthorized
func ValidateRefreshToken(ctx context.Context, c cache.Cache, token string) (*RefreshTokenData, error) {
	raw, err := c.Get(ctx, refreshKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("ValidateRefreshToken: %w", err)
	}
	var d RefreshTokenData
	if err := jsonUnmarshal([]byte(raw), &d); err != nil {
		return nil, fmt.Errorf("ValidateRefreshToken: %w", err)
	}
	return &d, nil
}

// RevokeRefreshToken 刪除 refresh token
func RevokeRefreshToken(ctx context.Context, c cache.Cache, token string) error {
	if err := c.Del(ctx, refreshKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("RevokeRefreshToken: %w", err)
	}
	return nil
}

// RevokeAccessToken 將 jti 列入黑名單直到 token 到期
func RevokeAccessToken(ctx context.Context, c cache.Cache, claims *CustomClaims) error {
	if claims.ID == "" {
		return nil
	}
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Time.Sub(timeNow())
	}
	if ttl <= 0 {
		return nil
	}
	if err := c.Set(ctx, revokedKeyPrefix+claims.ID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("RevokeAccessToken: %w", err)
	}
	return nil
}

// IsAccessTokenRevoked 查詢 jti 是否在黑名單
func IsAccessTokenRevoked(ctx context.Context, c cache.Cache, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	n, err := c.Exists(ctx, revokedKeyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("IsAccessTokenRevoked: %w", err)
	}
	return n > 0, nil
}
