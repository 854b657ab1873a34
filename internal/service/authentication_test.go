package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"library-hub/internal/apperrors"
	"library-hub/internal/cache"
	"library-hub/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func restoreGlobals() {
	bcryptGenerateFromPassword = bcrypt.GenerateFromPassword
	bcryptCompareHashAndPassword = bcrypt.CompareHashAndPassword
	randRead = rand.Read
	jsonMarshal = json.Marshal
	jsonUnmarshal = json.Unmarshal
	timeNow = time.Now
	parseWithClaims = jwt.ParseWithClaims
	newTokenID = func() string { return uuid.NewString() }
	SetJWTSecret("")
}

func TestSetJWTSecret(t *testing.T) {
	t.Cleanup(restoreGlobals)
	t.Setenv("JWT_SECRET", "")
	SetJWTSecret("injected")
	tok, err := IssueAccessToken(model.User{ID: 9}, time.Minute)
	require.NoError(t, err)
	_, err = jwt.ParseWithClaims(tok, &CustomClaims{}, func(*jwt.Token) (any, error) { return []byte("injected"), nil })
	require.NoError(t, err)

	// 注入值優先於環境變數
	t.Setenv("JWT_SECRET", "env")
	claims, err := VerifyAccessToken(tok)
	require.NoError(t, err)
	require.Equal(t, 9, claims.UserID)

	SetJWTSecret("")
	_, err = VerifyAccessToken(tok)
	require.Error(t, err)
}

func TestAuthenticateUser(t *testing.T) {
	t.Cleanup(restoreGlobals)
	hash, err := HashPassword("pw")
	require.NoError(t, err)

	u := model.User{PasswordHash: hash, IsActive: true}
	require.NoError(t, AuthenticateUser(context.Background(), u, "pw"))
	require.ErrorIs(t, AuthenticateUser(context.Background(), u, "bad"), apperrors.ErrInvalidPassword)

	u.IsActive = false
	require.ErrorIs(t, AuthenticateUser(context.Background(), u, "pw"), apperrors.ErrInvalidPassword)

	unusable, err := MakePassword("")
	require.NoError(t, err)
	require.ErrorIs(t, AuthenticateUser(context.Background(), model.User{PasswordHash: unusable, IsActive: true}, ""), apperrors.ErrInvalidPassword)
}

func TestIssueAccessToken(t *testing.T) {
	t.Cleanup(restoreGlobals)
	t.Setenv("JWT_SECRET", "")
	_, err := IssueAccessToken(model.User{}, time.Minute)
	require.Error(t, err)

	t.Setenv("JWT_SECRET", "s")
	newTokenID = func() string { return "jti-1" }
	tok, err := IssueAccessToken(model.User{ID: 5, Username: "ann", IsSuperuser: true}, time.Minute)
	require.NoError(t, err)
	claims := &CustomClaims{}
	_, err = jwt.ParseWithClaims(tok, claims, func(*jwt.Token) (any, error) { return []byte("s"), nil })
	require.NoError(t, err)
	require.Equal(t, 5, claims.UserID)
	require.Equal(t, "ann", claims.Username)
	require.True(t, claims.IsSuperuser)
	require.Equal(t, "jti-1", claims.ID)
	require.Equal(t, "5", claims.Subject)
}

func TestVerifyAccessToken(t *testing.T) {
	t.Cleanup(restoreGlobals)
	t.Setenv("JWT_SECRET", "")
	_, err := VerifyAccessToken("abc")
	require.Error(t, err)

	t.Setenv("JWT_SECRET", "s")
	_, err = VerifyAccessToken("invalid")
	require.Error(t, err)

	tokNone, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"foo": "bar"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	_, err = VerifyAccessToken(tokNone)
	require.Error(t, err)

	expired, err := IssueAccessToken(model.User{ID: 1}, -time.Minute)
	require.NoError(t, err)
	_, err = VerifyAccessToken(expired)
	require.Error(t, err)

	parseWithClaims = func(s string, c jwt.Claims, k jwt.Keyfunc, opts ...jwt.ParserOption) (*jwt.Token, error) {
		return &jwt.Token{Claims: jwt.MapClaims{}, Valid: false}, nil
	}
	_, err = VerifyAccessToken("whatever")
	require.Error(t, err)

	parseWithClaims = jwt.ParseWithClaims
	tok, _ := IssueAccessToken(model.User{ID: 3}, time.Minute)
	claims, err := VerifyAccessToken(tok)
	require.NoError(t, err)
	require.Equal(t, 3, claims.UserID)
	require.NotEmpty(t, claims.ID)
}

func TestIssueRefreshToken(t *testing.T) {
	t.Cleanup(restoreGlobals)
	ctx := context.Background()
	c := &cache.FakeCache{}

	randRead = func([]byte) (int, error) { return 0, errors.New("rand") }
	_, err := IssueRefreshToken(ctx, c, 1, time.Second)
	require.Error(t, err)

	randRead = rand.Read
	jsonMarshal = func(any) ([]byte, error) { return nil, errors.New("json") }
	_, err = IssueRefreshToken(ctx, c, 1, time.Second)
	require.Error(t, err)

	jsonMarshal = json.Marshal
	c.SetFn = func(context.Context, string, any, time.Duration) *redis.StatusCmd {
		return redis.NewStatusResult("", errors.New("set"))
	}
	_, err = IssueRefreshToken(ctx, c, 1, time.Second)
	require.Error(t, err)

	var storedKey string
	var storedVal []byte
	var storedTTL time.Duration
	c.SetFn = func(_ context.Context, key string, val any, ttl time.Duration) *redis.StatusCmd {
		storedKey = key
		storedVal = val.([]byte)
		storedTTL = ttl
		return redis.NewStatusResult("OK", nil)
	}
	tok, err := IssueRefreshToken(ctx, c, 1, time.Hour)
	require.NoError(t, err)
	require.Equal(t, "refresh_token:"+tok, storedKey)
	require.Equal(t, time.Hour, storedTTL)
	decoded, _ := base64.RawURLEncoding.DecodeString(tok)
	require.Len(t, decoded, 32)
	var d RefreshTokenData
	require.NoError(t, json.Unmarshal(storedVal, &d))
	require.Equal(t, 1, d.UserID)
}

func TestValidateRefreshToken(t *testing.T) {
	t.Cleanup(restoreGlobals)
	ctx := context.Background()
	c := &cache.FakeCache{}

	c.GetFn = func(context.Context, string) *redis.StringCmd {
		return redis.NewStringResult("", redis.Nil)
	}
	_, err := ValidateRefreshToken(ctx, c, "tok")
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)

	c.GetFn = func(context.Context, string) *redis.StringCmd {
		return redis.NewStringResult("", errors.New("get"))
	}
	_, err = ValidateRefreshToken(ctx, c, "tok")
	require.Error(t, err)

	c.GetFn = func(context.Context, string) *redis.StringCmd {
		return redis.NewStringResult("bad", nil)
	}
	_, err = ValidateRefreshToken(ctx, c, "tok")
	require.Error(t, err)

	dataBytes, _ := json.Marshal(RefreshTokenData{UserID: 2})
	c.GetFn = func(_ context.Context, key string) *redis.StringCmd {
		require.Equal(t, "refresh_token:tok", key)
		return redis.NewStringResult(string(dataBytes), nil)
	}
	data, err := ValidateRefreshToken(ctx, c, "tok")
	require.NoError(t, err)
	require.Equal(t, 2, data.UserID)
}

func TestRevokeTokens(t *testing.T) {
	t.Cleanup(restoreGlobals)
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	timeNow = func() time.Time { return now }

	c := &cache.FakeCache{}
	var delKeys []string
	c.DelFn = func(_ context.Context, keys ...string) *redis.IntCmd {
		delKeys = keys
		return redis.NewIntResult(1, nil)
	}
	require.NoError(t, RevokeRefreshToken(ctx, c, "r"))
	require.Equal(t, []string{"refresh_token:r"}, delKeys)

	var setKey string
	var setTTL time.Duration
	c.SetFn = func(_ context.Context, key string, _ any, ttl time.Duration) *redis.StatusCmd {
		setKey, setTTL = key, ttl
		return redis.NewStatusResult("OK", nil)
	}
	claims := &CustomClaims{RegisteredClaims: jwt.RegisteredClaims{ID: "j1", ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute))}}
	require.NoError(t, RevokeAccessToken(ctx, c, claims))
	require.Equal(t, "revoked_jti:j1", setKey)
	require.Equal(t, 10*time.Minute, setTTL)

	setKey = ""
	expired := &CustomClaims{RegisteredClaims: jwt.RegisteredClaims{ID: "j2", ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute))}}
	require.NoError(t, RevokeAccessToken(ctx, c, expired))
	require.Empty(t, setKey)

	c.ExistsFn = func(_ context.Context, keys ...string) *redis.IntCmd {
		if keys[0] == "revoked_jti:j1" {
			return redis.NewIntResult(1, nil)
		}
		return redis.NewIntResult(0, nil)
	}
	revoked, err := IsAccessTokenRevoked(ctx, c, "j1")
	require.NoError(t, err)
	require.True(t, revoked)
	revoked, err = IsAccessTokenRevoked(ctx, c, "j3")
	require.NoError(t, err)
	require.False(t, revoked)
	revoked, err = IsAccessTokenRevoked(ctx, c, "")
	require.NoError(t, err)
	require.False(t, revoked)
}
