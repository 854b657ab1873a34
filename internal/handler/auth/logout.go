package auth

import (
	"net/http"

	"library-hub/internal/apperrors"
	"library-hub/internal/cache"
	"library-hub/internal/handler"
	"library-hub/internal/middleware"

	"github.com/labstack/echo/v4"
)

type logoutRequest struct {
	RefreshToken string `json:"refresh_token" form:"refresh_token"`
}

// LogoutHandler 刪除 refresh token 並將目前 access token 列入黑名單
// @Summary     登出
// @Tags        auth
// @Accept      json
// @Param       body body api.RefreshRequest false "refresh token"
// @Success     204  "No Content"
// @Failure     401  {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /auth/logout [post]
func LogoutHandler(rdb cache.Cache) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims := middleware.Claims(c)
		if claims == nil {
			return apperrors.Respond(c, apperrors.ErrUnauthorized)
		}
		var req logoutRequest
		_ = c.Bind(&req)

		ctx := c.Request().Context()
		if req.RefreshToken != "" {
			if err := revokeRefreshToken(ctx, rdb, req.RefreshToken); err != nil {
				return apperrors.Respond(c, err)
			}
		}
		if err := revokeAccessToken(ctx, rdb, claims); err != nil {
			return apperrors.Respond(c, err)
		}
		handler.ClearAccessCookie(c)
		return c.NoContent(http.StatusNoContent)
	}
}
