package books

import (
	"context"
	"encoding/json"
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
	listBooks          = store.ListBooks
	getBook            = store.GetBook
	createBook         = store.CreateBook
	updateBook         = store.UpdateBook
	deleteBook         = store.DeleteBook
	authorExists       = store.AuthorExists
	cachedBookList     = service.CachedBookList
	storeBookList      = service.StoreBookList
	invalidateBookList = service.InvalidateBookList
	jsonMarshal        = json.Marshal
)

func toBookResponse(b model.Book) api.BookResponse {
	return api.BookResponse{ID: b.ID, Title: b.Title, PublicationYear: b.PublicationYear, Author: b.AuthorID}
}

func toBookResponses(list []model.Book) []api.BookResponse {
	out := make([]api.BookResponse, 0, len(list))
	for _, b := range list {
		out = append(out, toBookResponse(b))
	}
	return out
}

// applyBookRequest 合併請求欄位；partial 為 false 時每個欄位都必填
func applyBookRequest(ctx context.Context, db database.DB, b *model.Book, req api.BookRequest, partial bool) error {
	missing := &apperrors.ValidationError{}
	if req.Title != nil {
		b.Title = *req.Title
	} else if !partial {
		missing.Add("title", "This field is required.")
	}
	if req.PublicationYear != nil {
		b.PublicationYear = *req.PublicationYear
	} else if !partial {
		missing.Add("publication_year", "This field is required.")
	}
	if req.Author != nil {
		b.AuthorID = *req.Author
	} else if !partial {
		missing.Add("author", "This field is required.")
	}
	if err := missing.OrNil(); err != nil {
		return err
	}

	exists := false
	if b.AuthorID > 0 {
		ok, err := authorExists(ctx, db, b.AuthorID)
		if err != nil {
			return err
		}
		exists = ok
	}
	return service.ValidateBook(*b, exists, handler.Now())
}

func bindBook(c echo.Context) (api.BookRequest, error) {
	var req api.BookRequest
	if err := c.Bind(&req); err != nil {
		return req, apperrors.FieldError("non_field_errors", "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return req, apperrors.FromValidator(err)
	}
	return req, nil
}

// @Summary     List books
// @Description 支援 title、author__name、publication_year 等過濾條件，search 與 ordering；結果快取 60 秒
// @Tags        books
// @Produce     json
// @Param       title                   query string false "書名完全相符"
// @Param       title__icontains        query string false "書名包含"
// @Param       author__name            query string false "作者完全相符"
// @Param       author__name__icontains query string false "作者包含"
// @Param       publication_year        query int    false "出版年份"
// @Param       publication_year__gte   query int    false "出版年份下限"
// @Param       publication_year__lte   query int    false "出版年份上限"
// @Param       search                  query string false "書名或作者關鍵字"
// @Param       ordering                query string false "title, author, publication_year，- 表示遞減"
// @Success     200 {array}  api.BookResponse
// @Failure     400 {object} api.ErrorResponse
// @Router      /books [get]
func ListBooksHandler(db database.DB, rdb cache.Cache) echo.HandlerFunc {
	return func(c echo.Context) error {
		query := c.QueryParams()
		f, err := ParseBookFilter(query)
		if err != nil {
			return apperrors.Respond(c, err)
		}

		ctx := c.Request().Context()
		if body, ok := cachedBookList(ctx, rdb, query); ok {
			return c.JSONBlob(http.StatusOK, body)
		}

		list, err := listBooks(ctx, db, f)
		if err != nil {
			return apperrors.Respond(c, err)
		}
		body, err := jsonMarshal(toBookResponses(list))
		if err != nil {
			return apperrors.Respond(c, err)
		}
		storeBookList(ctx, rdb, query, body)
		return c.JSONBlob(http.StatusOK, body)
	}
}

// @Summary     Get a book
// @Tags        books
// @Produce     json
// @Param       id  path     int true "書籍 ID"
// @Success     200 {object} api.BookResponse
// @Failure     404 {object} api.ErrorResponse
// @Router      /books/{id} [get]
func GetBookHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.ParamID(c, "id")
		if !ok {
			return apperrors.Respond(c, apperrors.ErrNotFound)
		}
		b, err := getBook(c.Request().Context(), db, id)
		if err != nil {
			return apperrors.Respond(c, err)
		}
		return c.JSON(http.StatusOK, toBookResponse(*b))
	}
}

// @Summary     Create a book
// @Tags        books
// @Accept      json
// @Produce     json
// @Param       body body     api.BookRequest true "書籍資料"
// @Success     201  {object} api.BookResponse
// @Failure     400  {object} api.ErrorResponse
// @Failure     403  {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /books [post]
func CreateBookHandler(db database.DB, rdb cache.Cache) echo.HandlerFunc {
	return func(c echo.Context) error {
		req, err := bindBook(c)
		if err != nil {
			return apperrors.Respond(c, err)
		}
		ctx := c.Request().Context()
		b := &model.Book{}
		if err := applyBookRequest(ctx, db, b, req, false); err != nil {
			return apperrors.Respond(c, err)
		}
		if uid := handler.CurrentUserID(c); uid != 0 {
			b.AddedBy = &uid
		}
		created, err := createBook(ctx, db, b)
		if err != nil {
			return apperrors.Respond(c, err)
		}
		invalidateBookList(ctx, rdb)
		return c.JSON(http.StatusCreated, toBookResponse(*created))
	}
}

// UpdateBookHandler partial 為 true 時對應 PATCH
// @Summary     Update a book
// @Tags        books
// @Accept      json
// @Produce     json
// @Param       id   path     int             true "書籍 ID"
// @Param       body body     api.BookRequest true "書籍資料"
// @Success     200  {object} api.BookResponse
// @Failure     400  {object} api.ErrorResponse
// @Failure     404  {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /books/{id} [put]
// @Router      /books/{id} [patch]
func UpdateBookHandler(db database.DB, rdb cache.Cache, partial bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.ParamID(c, "id")
		if !ok {
			return apperrors.Respond(c, apperrors.ErrNotFound)
		}
		ctx := c.Request().Context()
		b, err := getBook(ctx, db, id)
		if err != nil {
			return apperrors.Respond(c, err)
		}
		req, err := bindBook(c)
		if err != nil {
			return apperrors.Respond(c, err)
		}
		if err := applyBookRequest(ctx, db, b, req, partial); err != nil {
			return apperrors.Respond(c, err)
		}
		if err := updateBook(ctx, db, b); err != nil {
			return apperrors.Respond(c, err)
		}
		invalidateBookList(ctx, rdb)
		return c.JSON(http.StatusOK, toBookResponse(*b))
	}
}

// @Summary     Delete a book
// @Tags        books
// @Param       id  path int true "書籍 ID"
// @Success     204 "No Content"
// @Failure     404 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /books/{id} [delete]
func DeleteBookHandler(db database.DB, rdb cache.Cache) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.ParamID(c, "id")
		if !ok {
			return apperrors.Respond(c, apperrors.ErrNotFound)
		}
		ctx := c.Request().Context()
		if err := deleteBook(ctx, db, id); err != nil {
			return apperrors.Respond(c, err)
		}
		invalidateBookList(ctx, rdb)
		return c.NoContent(http.StatusNoContent)
	}
}

// @Summary     List books with author names
// @Tags        books
// @Produce     json
// @Success     200 {array} api.SimpleBookResponse
// @Router      /books_list [get]
func SimpleBookListHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		list, err := listBooks(c.Request().Context(), db, store.BookFilter{ByID: true})
		if err != nil {
			return apperrors.Respond(c, err)
		}
		out := make([]api.SimpleBookResponse, 0, len(list))
		for _, b := range list {
			out = append(out, api.SimpleBookResponse{ID: b.ID, Title: b.Title, Author: b.AuthorName})
		}
		return c.JSON(http.StatusOK, out)
	}
}
