package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"library-hub/internal/cache"
	"library-hub/internal/database"
	"library-hub/internal/model"
	"library-hub/internal/service"
	"library-hub/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func restoreGlobals() {
	verifyAccessToken = service.VerifyAccessToken
	isAccessTokenRevoked = service.IsAccessTokenRevoked
	hasPerm = store.HasPerm
	getUserRole = store.GetUserRole
	getUserByID = store.GetUserByID
}

// withUsers 讓 getUserByID 只認得給定的使用者，其餘視為已刪除
func withUsers(users ...model.User) {
	getUserByID = func(_ context.Context, _ database.Querier, id int) (*model.User, error) {
		for i := range users {
			if users[i].ID == id {
				u := users[i]
				return &u, nil
			}
		}
		return nil, fmt.Errorf("GetUserByID: %w", pgx.ErrNoRows)
	}
}

func newContext(method, auth string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, "/bookshelf/books?x=1", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// notRevoked 模擬 Redis 黑名單中沒有任何 jti
func notRevoked() *cache.FakeCache {
	return &cache.FakeCache{ExistsFn: func(context.Context, ...string) *redis.IntCmd {
		return redis.NewIntResult(0, nil)
	}}
}

func ok(c echo.Context) error { return c.String(http.StatusOK, "ok") }

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	return he.Code
}

func TestExtractClaims(t *testing.T) {
	t.Cleanup(restoreGlobals)
	t.Setenv("JWT_SECRET", "testsecret")
	rdb := notRevoked()
	withUsers(model.User{ID: 1, Username: "alice", IsActive: true, IsSuperuser: true})

	// missing header
	ctx, _ := newContext(http.MethodGet, "")
	_, err := extractClaims(ctx, nil, rdb)
	require.Equal(t, http.StatusUnauthorized, statusOf(t, err))

	// bad format
	ctx, _ = newContext(http.MethodGet, "BadHeader")
	_, err = extractClaims(ctx, nil, rdb)
	require.Error(t, err)

	// invalid token
	ctx, _ = newContext(http.MethodGet, "Bearer invalid")
	_, err = extractClaims(ctx, nil, rdb)
	require.Error(t, err)

	// valid token
	tok, err := service.IssueAccessToken(model.User{ID: 1, IsSuperuser: true}, time.Minute)
	require.NoError(t, err)
	ctx, _ = newContext(http.MethodGet, "Bearer "+tok)
	claims, err := extractClaims(ctx, nil, rdb)
	require.NoError(t, err)
	require.Equal(t, 1, claims.UserID)
	require.True(t, claims.IsSuperuser)
	require.Equal(t, "alice", claims.Username)

	// cookie
	ctx, _ = newContext(http.MethodGet, "")
	ctx.Request().AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: tok})
	claims, err = extractClaims(ctx, nil, rdb)
	require.NoError(t, err)
	require.Equal(t, 1, claims.UserID)

	// revoked
	isAccessTokenRevoked = func(context.Context, cache.Cache, string) (bool, error) { return true, nil }
	ctx, _ = newContext(http.MethodGet, "Bearer "+tok)
	_, err = extractClaims(ctx, nil, rdb)
	require.Equal(t, http.StatusUnauthorized, statusOf(t, err))

	// blacklist lookup error
	isAccessTokenRevoked = func(context.Context, cache.Cache, string) (bool, error) { return false, errors.New("down") }
	ctx, _ = newContext(http.MethodGet, "Bearer "+tok)
	_, err = extractClaims(ctx, nil, rdb)
	require.Equal(t, http.StatusInternalServerError, statusOf(t, err))
}

func TestExtractClaimsReloadsUser(t *testing.T) {
	t.Cleanup(restoreGlobals)
	t.Setenv("JWT_SECRET", "testsecret")
	rdb := notRevoked()
	tok, err := service.IssueAccessToken(model.User{ID: 5, Username: "old", IsSuperuser: true}, time.Minute)
	require.NoError(t, err)

	// 降級後 token 內的 superuser 旗標不再有效
	withUsers(model.User{ID: 5, Username: "new", IsActive: true})
	ctx, _ := newContext(http.MethodGet, "Bearer "+tok)
	claims, err := extractClaims(ctx, nil, rdb)
	require.NoError(t, err)
	require.False(t, claims.IsSuperuser)
	require.Equal(t, "new", claims.Username)

	// 停用
	withUsers(model.User{ID: 5, IsActive: false})
	ctx, _ = newContext(http.MethodGet, "Bearer "+tok)
	_, err = extractClaims(ctx, nil, rdb)
	require.Equal(t, http.StatusUnauthorized, statusOf(t, err))

	// 已刪除
	withUsers()
	ctx, _ = newContext(http.MethodGet, "Bearer "+tok)
	_, err = extractClaims(ctx, nil, rdb)
	require.Equal(t, http.StatusUnauthorized, statusOf(t, err))

	// 查詢失敗
	getUserByID = func(context.Context, database.Querier, int) (*model.User, error) { return nil, errors.New("db") }
	ctx, _ = newContext(http.MethodGet, "Bearer "+tok)
	_, err = extractClaims(ctx, nil, rdb)
	require.Equal(t, http.StatusInternalServerError, statusOf(t, err))
}

func TestRequireAuth(t *testing.T) {
	t.Cleanup(restoreGlobals)
	t.Setenv("JWT_SECRET", "secret")
	tok, err := service.IssueAccessToken(model.User{ID: 2}, time.Minute)
	require.NoError(t, err)
	withUsers(model.User{ID: 2, IsActive: true})

	// success path
	ctx, rec := newContext(http.MethodGet, "Bearer "+tok)
	called := false
	handler := RequireAuth(nil, notRevoked())(func(c echo.Context) error {
		called = true
		require.Equal(t, 2, Claims(c).UserID)
		return c.String(http.StatusOK, "ok")
	})
	require.NoError(t, handler(ctx))
	require.True(t, called)
	require.Equal(t, http.StatusOK, rec.Code)

	// missing token
	ctx, _ = newContext(http.MethodGet, "")
	called = false
	err = RequireAuth(nil, notRevoked())(func(echo.Context) error { called = true; return nil })(ctx)
	require.Error(t, err)
	require.False(t, called)
}

func TestOptionalAuth(t *testing.T) {
	t.Cleanup(restoreGlobals)
	ctx, rec := newContext(http.MethodGet, "Bearer broken")
	verifyAccessToken = func(string) (*service.CustomClaims, error) { return nil, errors.New("bad") }
	require.NoError(t, OptionalAuth(nil, notRevoked())(func(c echo.Context) error {
		require.Nil(t, Claims(c))
		return ok(c)
	})(ctx))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireSuperuser(t *testing.T) {
	t.Cleanup(restoreGlobals)
	t.Setenv("JWT_SECRET", "adminsecret")
	adminTok, err := service.IssueAccessToken(model.User{ID: 3, IsSuperuser: true}, time.Minute)
	require.NoError(t, err)
	userTok, err := service.IssueAccessToken(model.User{ID: 4}, time.Minute)
	require.NoError(t, err)
	withUsers(model.User{ID: 3, IsActive: true, IsSuperuser: true}, model.User{ID: 4, IsActive: true})

	ctx, rec := newContext(http.MethodGet, "Bearer "+adminTok)
	require.NoError(t, RequireSuperuser(nil, notRevoked())(ok)(ctx))
	require.Equal(t, http.StatusOK, rec.Code)

	ctx, _ = newContext(http.MethodGet, "Bearer "+userTok)
	err = RequireSuperuser(nil, notRevoked())(ok)(ctx)
	require.Equal(t, http.StatusForbidden, statusOf(t, err))

	ctx, _ = newContext(http.MethodGet, "")
	err = RequireSuperuser(nil, notRevoked())(ok)(ctx)
	require.Equal(t, http.StatusUnauthorized, statusOf(t, err))

	// 已降級的 superuser 持舊 token
	withUsers(model.User{ID: 3, IsActive: true}, model.User{ID: 4, IsActive: true})
	ctx, _ = newContext(http.MethodGet, "Bearer "+adminTok)
	err = RequireSuperuser(nil, notRevoked())(ok)(ctx)
	require.Equal(t, http.StatusForbidden, statusOf(t, err))

	// 已刪除的 superuser
	withUsers(model.User{ID: 4, IsActive: true})
	ctx, _ = newContext(http.MethodGet, "Bearer "+adminTok)
	err = RequireSuperuser(nil, notRevoked())(ok)(ctx)
	require.Equal(t, http.StatusUnauthorized, statusOf(t, err))
}

func TestReadOnlyOrAuth(t *testing.T) {
	t.Cleanup(restoreGlobals)
	rdb := notRevoked()

	ctx, rec := newContext(http.MethodGet, "")
	require.NoError(t, ReadOnlyOrAuth(nil, rdb)(ok)(ctx))
	require.Equal(t, http.StatusOK, rec.Code)

	ctx, _ = newContext(http.MethodPost, "")
	err := ReadOnlyOrAuth(nil, rdb)(ok)(ctx)
	require.Equal(t, http.StatusForbidden, statusOf(t, err))

	verifyAccessToken = func(string) (*service.CustomClaims, error) { return &service.CustomClaims{UserID: 1}, nil }
	withUsers(model.User{ID: 1, IsActive: true})
	ctx, rec = newContext(http.MethodDelete, "Bearer x")
	require.NoError(t, ReadOnlyOrAuth(nil, rdb)(ok)(ctx))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequirePerm(t *testing.T) {
	t.Cleanup(restoreGlobals)
	db := &database.FakeDB{}

	// anonymous
	ctx, _ := newContext(http.MethodGet, "")
	err := RequirePerm(db, "library.can_view")(ok)(ctx)
	require.Equal(t, http.StatusUnauthorized, statusOf(t, err))

	// denied
	hasPerm = func(_ context.Context, _ database.Querier, id int, perm string) (bool, error) {
		require.Equal(t, 7, id)
		require.Equal(t, "library.can_view", perm)
		return false, nil
	}
	ctx, _ = newContext(http.MethodGet, "")
	ctx.Set(ContextUserKey, &service.CustomClaims{UserID: 7})
	err = RequirePerm(db, "library.can_view")(ok)(ctx)
	require.Equal(t, http.StatusForbidden, statusOf(t, err))

	// lookup error
	hasPerm = func(context.Context, database.Querier, int, string) (bool, error) { return false, errors.New("db") }
	ctx, _ = newContext(http.MethodGet, "")
	ctx.Set(ContextUserKey, &service.CustomClaims{UserID: 7})
	err = RequirePerm(db, "library.can_view")(ok)(ctx)
	require.Equal(t, http.StatusInternalServerError, statusOf(t, err))

	// granted
	hasPerm = func(context.Context, database.Querier, int, string) (bool, error) { return true, nil }
	ctx, rec := newContext(http.MethodGet, "")
	ctx.Set(ContextUserKey, &service.CustomClaims{UserID: 7})
	require.NoError(t, RequirePerm(db, "library.can_view")(ok)(ctx))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginRequired(t *testing.T) {
	t.Cleanup(restoreGlobals)
	ctx, rec := newContext(http.MethodGet, "")
	require.NoError(t, LoginRequired(nil, notRevoked())(ok)(ctx))
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/accounts/login?next=%2Fbookshelf%2Fbooks%3Fx%3D1", rec.Header().Get(echo.HeaderLocation))

	verifyAccessToken = func(string) (*service.CustomClaims, error) { return &service.CustomClaims{UserID: 1}, nil }
	withUsers(model.User{ID: 1, IsActive: true})
	ctx, rec = newContext(http.MethodGet, "Bearer x")
	require.NoError(t, LoginRequired(nil, notRevoked())(ok)(ctx))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRole(t *testing.T) {
	t.Cleanup(restoreGlobals)
	db := &database.FakeDB{}
	rdb := notRevoked()

	ctx, rec := newContext(http.MethodGet, "")
	require.NoError(t, RequireRole(db, rdb, model.RoleAdmin)(ok)(ctx))
	require.Equal(t, http.StatusFound, rec.Code)

	verifyAccessToken = func(string) (*service.CustomClaims, error) { return &service.CustomClaims{UserID: 1}, nil }
	withUsers(model.User{ID: 1, IsActive: true})
	getUserRole = func(context.Context, database.Querier, int) (string, error) { return model.RoleMember, nil }
	ctx, rec = newContext(http.MethodGet, "Bearer x")
	require.NoError(t, RequireRole(db, rdb, model.RoleAdmin)(ok)(ctx))
	require.Equal(t, http.StatusFound, rec.Code)

	getUserRole = func(context.Context, database.Querier, int) (string, error) { return "", errors.New("db") }
	ctx, rec = newContext(http.MethodGet, "Bearer x")
	require.NoError(t, RequireRole(db, rdb, model.RoleAdmin)(ok)(ctx))
	require.Equal(t, http.StatusFound, rec.Code)

	getUserRole = func(context.Context, database.Querier, int) (string, error) { return model.RoleAdmin, nil }
	ctx, rec = newContext(http.MethodGet, "Bearer x")
	require.NoError(t, RequireRole(db, rdb, model.RoleAdmin)(ok)(ctx))
	require.Equal(t, http.StatusOK, rec.Code)
}
