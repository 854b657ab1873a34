package users

import (
	"net/http"

	"library-hub/internal/api"
	"library-hub/internal/apperrors"
	"library-hub/internal/cache"
	"library-hub/internal/database"
	"library-hub/internal/handler"
	"library-hub/internal/logger"
	"library-hub/internal/middleware"

	"github.com/labstack/echo/v4"
)

// @Summary     Get current user info
// @Description 透過 JWT Token 取得當前使用者詳細資訊，包含 full_name、age、role 與 groups
// @Tags        users
// @Produce     json
// @Success     200 {object} api.UserResponse
// @Failure     401 {object} api.ErrorResponse
// @Failure     500 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /users/me [get]
func GetMyUserHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := handler.CurrentUserID(c)
		if id == 0 {
			return c.JSON(http.StatusUnauthorized, api.ErrorResponse{Message: "invalid or missing token"})
		}
		resp, err := userWithGroups(c.Request().Context(), db, id)
		if err != nil {
			return apperrors.Respond(c, err)
		}
		return c.JSON(http.StatusOK, resp)
	}
}

// @Summary     Update current user info
// @Description 更新自己的 Email、姓名與生日
// @Tags        users
// @Accept      json
// @Produce     json
// @Param       body body     api.UpdateUserRequest true "個人資料"
// @Success     200  {object} api.UserResponse
// @Failure     400  {object} api.ErrorResponse
// @Failure     401  {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /users/me [put]
func UpdateMyUserHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := handler.CurrentUserID(c)
		if id == 0 {
			return c.JSON(http.StatusUnauthorized, api.ErrorResponse{Message: "invalid or missing token"})
		}
		req, err := bindUpdate(c)
		if err != nil {
			return apperrors.Respond(c, err)
		}

		ctx := c.Request().Context()
		u, err := getUserByID(ctx, db, id)
		if err != nil {
			return apperrors.Respond(c, err)
		}
		if err := applyUpdate(u, req, false); err != nil {
			return apperrors.Respond(c, err)
		}
		if err := updateUser(ctx, db, u); err != nil {
			return apperrors.Respond(c, err)
		}
		resp, err := userWithGroups(ctx, db, id)
		if err != nil {
			return apperrors.Respond(c, err)
		}
		return c.JSON(http.StatusOK, resp)
	}
}

// @Summary     Delete current user
// @Tags        users
// @Success     204 "No Content"
// @Failure     401 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /users/me [delete]
func DeleteMyUserHandler(db database.DB, rdb cache.Cache, opts handler.Options) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := handler.CurrentUserID(c)
		if id == 0 {
			return c.JSON(http.StatusUnauthorized, api.ErrorResponse{Message: "invalid or missing token"})
		}
		ctx := c.Request().Context()
		u, err := getUserByID(ctx, db, id)
		if err != nil {
			return apperrors.Respond(c, err)
		}
		if err := deleteUser(ctx, db, id); err != nil {
			return apperrors.Respond(c, err)
		}
		// 帳號已刪除，黑名單寫入失敗時 middleware 仍會擋下
		if err := revokeAccessToken(ctx, rdb, middleware.Claims(c)); err != nil {
			logger.Warn().Err(err).Int("user_id", id).Msg("revoke on self delete failed")
		}
		removePhoto(opts, u.ProfilePhoto)
		handler.ClearAccessCookie(c)
		return c.NoContent(http.StatusNoContent)
	}
}

// @Summary     Update current user password
// @Description 驗證舊密碼後更新為新密碼
// @Tags        users
// @Accept      json
// @Param       body body api.UpdateMyPasswordRequest true "新舊密碼"
// @Success     204  "No Content"
// @Failure     400  {object} api.ErrorResponse
// @Failure     401  {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /users/me/password [patch]
func UpdateMyUserPasswordHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := handler.CurrentUserID(c)
		if id == 0 {
			return c.JSON(http.StatusUnauthorized, api.ErrorResponse{Message: "invalid or missing token"})
		}
		var req api.UpdateMyPasswordRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid request body"})
		}
		if err := c.Validate(&req); err != nil {
			return apperrors.Respond(c, apperrors.FromValidator(err))
		}

		ctx := c.Request().Context()
		u, err := getUserByID(ctx, db, id)
		if err != nil {
			return apperrors.Respond(c, err)
		}
		if err := authenticateUser(ctx, *u, req.OldPassword); err != nil {
			return c.JSON(http.StatusUnauthorized, api.ErrorResponse{Message: "old password is incorrect"})
		}
		hash, err := hashPassword(req.NewPassword)
		if err != nil {
			return apperrors.Respond(c, err)
		}
		if err := updateUserPassword(ctx, db, id, hash); err != nil {
			return apperrors.Respond(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}
