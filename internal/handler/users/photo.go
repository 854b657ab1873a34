package users

import (
	"context"
	"errors"
	"net/http"

	"library-hub/internal/api"
	"library-hub/internal/apperrors"
	"library-hub/internal/database"
	"library-hub/internal/filestorage"
	"library-hub/internal/handler"

	"github.com/labstack/echo/v4"
)

// removePhoto 交給 worker 刪除舊檔案
func removePhoto(opts handler.Options, photo *string) {
	if photo == nil || *photo == "" || opts.Storage == nil || opts.Workers == nil {
		return
	}
	path := *photo
	opts.Background("delete_profile_photo", func(context.Context) error {
		return opts.Storage.Delete(path)
	})
}

// @Summary     Upload profile photo
// @Description 以 multipart 欄位 photo 上傳大頭照，舊檔案會被刪除
// @Tags        users
// @Accept      multipart/form-data
// @Produce     json
// @Param       photo formData file true "圖片檔"
// @Success     200   {object} api.UserResponse
// @Failure     400   {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /users/me/photo [put]
func UpdateMyPhotoHandler(db database.DB, opts handler.Options) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := handler.CurrentUserID(c)
		if id == 0 {
			return c.JSON(http.StatusUnauthorized, api.ErrorResponse{Message: "invalid or missing token"})
		}
		fh, err := c.FormFile("photo")
		if err != nil {
			return apperrors.Respond(c, apperrors.FieldError("photo", "No file was submitted."))
		}
		saved, err := opts.Storage.Save(fh, filestorage.ProfilePhotoDir)
		if err != nil {
			if errors.Is(err, filestorage.ErrUnsupportedType) {
				return apperrors.Respond(c, apperrors.FieldError("photo", "Upload a valid image."))
			}
			return apperrors.Respond(c, err)
		}

		ctx := c.Request().Context()
		prev, err := updateUserPhoto(ctx, db, id, &saved)
		if err != nil {
			_ = opts.Storage.Delete(saved)
			return apperrors.Respond(c, err)
		}
		removePhoto(opts, prev)

		resp, err := userWithGroups(ctx, db, id)
		if err != nil {
			return apperrors.Respond(c, err)
		}
		return c.JSON(http.StatusOK, resp)
	}
}
