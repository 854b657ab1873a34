package auth

import (
	"net/http"

	"library-hub/internal/api"
	"library-hub/internal/apperrors"
	"library-hub/internal/cache"
	"library-hub/internal/database"
	"library-hub/internal/handler"

	"github.com/labstack/echo/v4"
)

// RefreshHandler 以 refresh token 換發新的 access token
// @Summary     換發 access token
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       body body     api.RefreshRequest true "refresh token"
// @Success     200  {object} api.TokenResponse
// @Failure     400  {object} api.ErrorResponse
// @Failure     401  {object} api.ErrorResponse
// @Router      /auth/refresh [post]
func RefreshHandler(db database.DB, rdb cache.Cache, opts handler.Options) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req api.RefreshRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid request body"})
		}
		if err := c.Validate(&req); err != nil {
			return apperrors.Respond(c, apperrors.FromValidator(err))
		}

		ctx := c.Request().Context()
		data, err := validateRefreshToken(ctx, rdb, req.RefreshToken)
		if err != nil {
			return apperrors.Respond(c, err)
		}
		user, err := getUserByID(ctx, db, data.UserID)
		if err != nil || !user.IsActive {
			return c.JSON(http.StatusUnauthorized, api.ErrorResponse{Message: "invalid refresh token"})
		}
		access, err := issueAccessToken(*user, opts.AccessTTL)
		if err != nil {
			return apperrors.Respond(c, err)
		}
		return c.JSON(http.StatusOK, api.TokenResponse{
			AccessToken:  access,
			RefreshToken: req.RefreshToken,
			TokenType:    "Bearer",
			ExpiresIn:    int(opts.AccessTTL.Seconds()),
		})
	}
}
