// File: internal/handler/auth/login.go
package auth

import (
	"net/http"

	"library-hub/internal/api"
	"library-hub/internal/apperrors"
	"library-hub/internal/cache"
	"library-hub/internal/database"
	"library-hub/internal/handler"
	"library-hub/internal/logger"

	"github.com/labstack/echo/v4"
)

// LoginHandler 使用 Username/Password 驗證並回傳 JWT 與 refresh token
// @Summary     登入使用者
// @Description 驗證成功後回傳令牌，並設定 access_token cookie 供 HTML 頁面使用
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       body body     api.LoginRequest true "帳號密碼"
// @Success     200  {object} api.TokenResponse
// @Failure     400  {object} api.ErrorResponse
// @Failure     401  {object} api.ErrorResponse
// @Failure     500  {object} api.ErrorResponse
// @Router      /auth/login [post]
func LoginHandler(db database.DB, rdb cache.Cache, opts handler.Options) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req api.LoginRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid request body"})
		}
		if err := c.Validate(&req); err != nil {
			return apperrors.Respond(c, apperrors.FromValidator(err))
		}

		ctx := c.Request().Context()
		user, err := getUserByUsername(ctx, db, req.Username)
		if err != nil {
			if !apperrors.IsNotFound(err) {
				return apperrors.Respond(c, err)
			}
			return c.JSON(http.StatusUnauthorized, api.ErrorResponse{Message: "invalid credentials"})
		}
		if err := authenticateUser(ctx, *user, req.Password); err != nil {
			logger.Info().Str("username", req.Username).Msg("login failed")
			return c.JSON(http.StatusUnauthorized, api.ErrorResponse{Message: "invalid credentials"})
		}

		tokens, err := issueTokens(ctx, rdb, user, opts)
		if err != nil {
			return apperrors.Respond(c, err)
		}
		handler.SetAccessCookie(c, tokens.AccessToken, opts.AccessTTL)
		recordLogin(opts, db, user.ID)
		return c.JSON(http.StatusOK, tokens)
	}
}
