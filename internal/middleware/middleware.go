package middleware

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"library-hub/internal/apperrors"
	"library-hub/internal/cache"
	"library-hub/internal/database"
	"library-hub/internal/logger"
	"library-hub/internal/service"
	"library-hub/internal/store"

	"github.com/labstack/echo/v4"
)

const (
	ContextUserKey = "user"
	// AccessTokenCookie HTML 頁面使用的 cookie 名稱
	AccessTokenCookie = "access_token"
	LoginPath         = "/accounts/login"
)

var (
	verifyAccessToken    = service.VerifyAccessToken
	isAccessTokenRevoked = service.IsAccessTokenRevoked
	hasPerm              = store.HasPerm
	getUserRole          = store.GetUserRole
	getUserByID          = store.GetUserByID
)

// Claims 取出已驗證的 claims，未登入時回傳 nil
func Claims(c echo.Context) *service.CustomClaims {
	claims, _ := c.Get(ContextUserKey).(*service.CustomClaims)
	return claims
}

// tokenFromRequest 優先讀取 Authorization header，其次是 cookie
func tokenFromRequest(c echo.Context) (string, error) {
	if authHeader := c.Request().Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header format")
		}
		return parts[1], nil
	}
	if ck, err := c.Cookie(AccessTokenCookie); err == nil && ck.Value != "" {
		return ck.Value, nil
	}
	return "", echo.NewHTTPError(http.StatusUnauthorized, "missing token")
}

// extractClaims 驗證 token 後重新讀取使用者；已刪除或停用的帳號視同未登入，
// superuser 旗標以資料庫為準
func extractClaims(c echo.Context, db database.DB, rdb cache.Cache) (*service.CustomClaims, error) {
	tokenString, err := tokenFromRequest(c)
	if err != nil {
		return nil, err
	}
	claims, err := verifyAccessToken(tokenString)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, fmt.Sprintf("invalid token: %v", err))
	}
	revoked, err := isAccessTokenRevoked(c.Request().Context(), rdb, claims.ID)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "token check failed").SetInternal(err)
	}
	if revoked {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "token revoked")
	}
	u, err := getUserByID(c.Request().Context(), db, claims.UserID)
	switch {
	case apperrors.IsNotFound(err):
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "user not found")
	case err != nil:
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "user lookup failed").SetInternal(err)
	case !u.IsActive:
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "user inactive")
	}
	claims.Username = u.Username
	claims.IsSuperuser = u.IsSuperuser
	return claims, nil
}

// RequireAuth 驗證失敗時回 401
func RequireAuth(db database.DB, rdb cache.Cache) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := extractClaims(c, db, rdb)
			if err != nil {
				return err
			}
			c.Set(ContextUserKey, claims)
			return next(c)
		}
	}
}

// OptionalAuth 有合法 token 時設定 claims，否則以匿名身分繼續
func OptionalAuth(db database.DB, rdb cache.Cache) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if claims, err := extractClaims(c, db, rdb); err == nil {
				c.Set(ContextUserKey, claims)
			}
			return next(c)
		}
	}
}

func RequireSuperuser(db database.DB, rdb cache.Cache) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return RequireAuth(db, rdb)(func(c echo.Context) error {
			if !Claims(c).IsSuperuser {
				return echo.NewHTTPError(http.StatusForbidden, "superuser privileges required")
			}
			return next(c)
		})
	}
}

func safeMethod(m string) bool {
	return m == http.MethodGet || m == http.MethodHead || m == http.MethodOptions
}

// ReadOnlyOrAuth GET/HEAD/OPTIONS 開放，其他方法需登入，匿名回 403
func ReadOnlyOrAuth(db database.DB, rdb cache.Cache) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return OptionalAuth(db, rdb)(func(c echo.Context) error {
			if !safeMethod(c.Request().Method) && Claims(c) == nil {
				return echo.NewHTTPError(http.StatusForbidden, "authentication credentials were not provided")
			}
			return next(c)
		})
	}
}

// RequirePerm 需先經過 RequireAuth 或 LoginRequired；未登入 401，沒有權限 403
func RequirePerm(db database.DB, perm string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := Claims(c)
			if claims == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication credentials were not provided")
			}
			ok, err := hasPerm(c.Request().Context(), db, claims.UserID, perm)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "permission check failed").SetInternal(err)
			}
			if !ok {
				logger.Debug().Int("user_id", claims.UserID).Str("perm", perm).Msg("permission denied")
				return echo.NewHTTPError(http.StatusForbidden, "You do not have permission to perform this action.")
			}
			return next(c)
		}
	}
}

// LoginURL 產生帶 next 參數的登入網址
func LoginURL(next string) string {
	return LoginPath + "?next=" + url.QueryEscape(next)
}

// LoginRequired HTML 頁面使用，未登入時導向登入頁
func LoginRequired(db database.DB, rdb cache.Cache) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return OptionalAuth(db, rdb)(func(c echo.Context) error {
			if Claims(c) == nil {
				return c.Redirect(http.StatusFound, LoginURL(c.Request().URL.RequestURI()))
			}
			return next(c)
		})
	}
}

// RequireRole 已登入且 profile 角色相符才放行，否則導向登入頁
func RequireRole(db database.DB, rdb cache.Cache, role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return OptionalAuth(db, rdb)(func(c echo.Context) error {
			claims := Claims(c)
			if claims == nil {
				return c.Redirect(http.StatusFound, LoginURL(c.Request().URL.RequestURI()))
			}
			got, err := getUserRole(c.Request().Context(), db, claims.UserID)
			if err != nil || got != role {
				if err != nil {
					logger.Warn().Err(err).Int("user_id", claims.UserID).Msg("role lookup failed")
				}
				return c.Redirect(http.StatusFound, LoginURL(c.Request().URL.RequestURI()))
			}
			return next(c)
		})
	}
}
