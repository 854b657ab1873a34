package authors

import (
	"net/http"

	"library-hub/internal/api"
	"library-hub/internal/apperrors"
	"library-hub/internal/cache"
	"library-hub/internal/database"
	"library-hub/internal/handler"
	"library-hub/internal/model"
	"library-hub/internal/service"
	"library-hub/internal/store"

	"github.com/labstack/echo/v4"
)

var (
	listAuthors        = store.ListAuthors
	getAuthor          = store.GetAuthor
	createAuthor       = store.CreateAuthor
	updateAuthor       = store.UpdateAuthor
	deleteAuthor       = store.DeleteAuthor
	invalidateBookList = service.InvalidateBookList
)

func toAuthorResponse(a model.Author) api.AuthorResponse {
	books := make([]api.BookResponse, 0, len(a.Books))
	for _, b := range a.Books {
		books = append(books, api.BookResponse{ID: b.ID, Title: b.Title, PublicationYear: b.PublicationYear, Author: b.AuthorID})
	}
	return api.AuthorResponse{ID: a.ID, Name: a.Name, Books: books}
}

func bindAuthor(c echo.Context) (api.AuthorRequest, error) {
	var req api.AuthorRequest
	if err := c.Bind(&req); err != nil {
		return req, apperrors.FieldError("non_field_errors", "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return req, apperrors.FromValidator(err)
	}
	return req, nil
}

// @Summary     List authors
// @Description 每位作者附帶其著作
// @Tags        authors
// @Produce     json
// @Success     200 {array} api.AuthorResponse
// @Router      /authors [get]
func ListAuthorsHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		list, err := listAuthors(c.Request().Context(), db)
		if err != nil {
			return apperrors.Respond(c, err)
		}
		out := make([]api.AuthorResponse, 0, len(list))
		for _, a := range list {
			out = append(out, toAuthorResponse(a))
		}
		return c.JSON(http.StatusOK, out)
	}
}

// @Summary     Get an author
// @Tags        authors
// @Produce     json
// @Param       id  path     int true "作者 ID"
// @Success     200 {object} api.AuthorResponse
// @Failure     404 {object} api.ErrorResponse
// @Router      /authors/{id} [get]
func GetAuthorHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.ParamID(c, "id")
		if !ok {
			return apperrors.Respond(c, apperrors.ErrNotFound)
		}
		a, err := getAuthor(c.Request().Context(), db, id)
		if err != nil {
			return apperrors.Respond(c, err)
		}
		return c.JSON(http.StatusOK, toAuthorResponse(*a))
	}
}

// @Summary     Create an author
// @Tags        authors
// @Accept      json
// @Produce     json
// @Param       body body     api.AuthorRequest true "作者資料"
// @Success     201  {object} api.AuthorResponse
// @Failure     400  {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /authors [post]
func CreateAuthorHandler(db database.DB, rdb cache.Cache) echo.HandlerFunc {
	return func(c echo.Context) error {
		req, err := bindAuthor(c)
		if err != nil {
			return apperrors.Respond(c, err)
		}
		ctx := c.Request().Context()
		a, err := createAuthor(ctx, db, &model.Author{Name: req.Name})
		if err != nil {
			return apperrors.Respond(c, err)
		}
		invalidateBookList(ctx, rdb)
		return c.JSON(http.StatusCreated, toAuthorResponse(*a))
	}
}

// @Summary     Update an author
// @Tags        authors
// @Accept      json
// @Produce     json
// @Param       id   path     int               true "作者 ID"
// @Param       body body     api.AuthorRequest true "作者資料"
// @Success     200  {object} api.AuthorResponse
// @Failure     400  {object} api.ErrorResponse
// @Failure     404  {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /authors/{id} [put]
func UpdateAuthorHandler(db database.DB, rdb cache.Cache) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.ParamID(c, "id")
		if !ok {
			return apperrors.Respond(c, apperrors.ErrNotFound)
		}
		req, err := bindAuthor(c)
		if err != nil {
			return apperrors.Respond(c, err)
		}
		ctx := c.Request().Context()
		if err := updateAuthor(ctx, db, &model.Author{ID: id, Name: req.Name}); err != nil {
			return apperrors.Respond(c, err)
		}
		invalidateBookList(ctx, rdb)

		a, err := getAuthor(ctx, db, id)
		if err != nil {
			return apperrors.Respond(c, err)
		}
		return c.JSON(http.StatusOK, toAuthorResponse(*a))
	}
}

// DeleteAuthorHandler 作者的書籍會一起刪除
// @Summary     Delete an author
// @Tags        authors
// @Param       id  path int true "作者 ID"
// @Success     204 "No Content"
// @Failure     404 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /authors/{id} [delete]
func DeleteAuthorHandler(db database.DB, rdb cache.Cache) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.ParamID(c, "id")
		if !ok {
			return apperrors.Respond(c, apperrors.ErrNotFound)
		}
		ctx := c.Request().Context()
		if err := deleteAuthor(ctx, db, id); err != nil {
			return apperrors.Respond(c, err)
		}
		invalidateBookList(ctx, rdb)
		return c.NoContent(http.StatusNoContent)
	}
}
