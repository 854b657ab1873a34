package blog

import (
	"net/http"

	"library-hub/internal/api"
	"library-hub/internal/apperrors"
	"library-hub/internal/database"
	"library-hub/internal/handler"
	"library-hub/internal/middleware"
	"library-hub/internal/model"

	"github.com/labstack/echo/v4"
)

// @Summary     Comment on a post
// @Tags        blog
// @Accept      json
// @Produce     json
// @Param       id   path     int                true "文章 ID"
// @Param       body body     api.CommentRequest true "留言"
// @Success     201  {object} api.CommentResponse
// @Failure     400  {object} api.ErrorResponse
// @Failure     404  {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /posts/{id}/comments [post]
func CreateCommentHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.ParamID(c, "id")
		if !ok {
			return apperrors.Respond(c, apperrors.ErrNotFound)
		}
		claims := middleware.Claims(c)
		if claims == nil {
			return apperrors.Respond(c, apperrors.ErrUnauthorized)
		}
		ctx := c.Request().Context()
		if _, err := getPost(ctx, db, id); err != nil {
			return apperrors.Respond(c, err)
		}
		req, err := bind[api.CommentRequest](c)
		if err != nil {
			return apperrors.Respond(c, err)
		}
		cm, err := createComment(ctx, db, &model.Comment{
			PostID:         id,
			AuthorID:       claims.UserID,
			AuthorUsername: claims.Username,
			Content:        req.Content,
		})
		if err != nil {
			return apperrors.Respond(c, err)
		}
		return c.JSON(http.StatusCreated, toCommentResponse(*cm))
	}
}

func ownComment(c echo.Context, db database.DB) (*model.Comment, error) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cm, err := getComment(c.Request().Context(), db, id)
	if err != nil {
		return nil, err
	}
	if cm.AuthorID != handler.CurrentUserID(c) {
		return nil, apperrors.ErrPermissionDenied
	}
	return cm, nil
}

// @Summary     Edit a comment
// @Tags        blog
// @Accept      json
// @Produce     json
// @Param       id   path     int                true "留言 ID"
// @Param       body body     api.CommentRequest true "留言"
// @Success     200  {object} api.CommentResponse
// @Failure     403  {object} api.ErrorResponse
// @Failure     404  {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /comments/{id} [put]
func UpdateCommentHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		cm, err := ownComment(c, db)
		if err != nil {
			return apperrors.Respond(c, err)
		}
		req, err := bind[api.CommentRequest](c)
		if err != nil {
			return apperrors.Respond(c, err)
		}
		cm.Content = req.Content
		if err := updateComment(c.Request().Context(), db, cm); err != nil {
			return apperrors.Respond(c, err)
		}
		return c.JSON(http.StatusOK, toCommentResponse(*cm))
	}
}

// @Summary     Delete a comment
// @Tags        blog
// @Param       id  path int true "留言 ID"
// @Success     204 "No Content"
// @Failure     403 {object} api.ErrorResponse
// @Failure     404 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /comments/{id} [delete]
func DeleteCommentHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		cm, err := ownComment(c, db)
		if err != nil {
			return apperrors.Respond(c, err)
		}
		if err := deleteComment(c.Request().Context(), db, cm.ID); err != nil {
			return apperrors.Respond(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}
