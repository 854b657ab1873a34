package libraries

import (
	"net/http"

	"library-hub/internal/api"
	"library-hub/internal/apperrors"
	"library-hub/internal/database"
	"library-hub/internal/handler"
	"library-hub/internal/model"
	"library-hub/internal/store"

	"github.com/labstack/echo/v4"
)

var (
	listLibraries         = store.ListLibraries
	getLibrary            = store.GetLibrary
	createLibrary         = store.CreateLibrary
	updateLibrary         = store.UpdateLibrary
	deleteLibrary         = store.DeleteLibrary
	getBook               = store.GetBook
	addBookToLibrary      = store.AddBookToLibrary
	removeBookFromLibrary = store.RemoveBookFromLibrary
	upsertLibrarian       = store.UpsertLibrarian
)

func toLibrarianResponse(lb *model.Librarian) *api.LibrarianResponse {
	if lb == nil {
		return nil
	}
	return &api.LibrarianResponse{ID: lb.ID, Name: lb.Name, LibraryID: lb.LibraryID}
}

func toLibraryResponse(l model.Library) api.LibraryResponse {
	out := api.LibraryResponse{
		ID:        l.ID,
		Name:      l.Name,
		Location:  l.Location,
		Books:     make([]api.BookResponse, 0, len(l.Books)),
		Librarian: toLibrarianResponse(l.Librarian),
	}
	for _, b := range l.Books {
		out.Books = append(out.Books, api.BookResponse{ID: b.ID, Title: b.Title, PublicationYear: b.PublicationYear, Author: b.AuthorID})
	}
	return out
}

func bind[T any](c echo.Context) (T, error) {
	var req T
	if err := c.Bind(&req); err != nil {
		return req, apperrors.FieldError("non_field_errors", "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return req, apperrors.FromValidator(err)
	}
	return req, nil
}

// @Summary     List libraries
// @Tags        libraries
// @Produce     json
// @Success     200 {array}  api.LibrarySummaryResponse
// @Failure     401 {object} api.ErrorResponse
// @Failure     403 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /libraries [get]
func ListLibrariesHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		list, err := listLibraries(c.Request().Context(), db)
		if err != nil {
			return apperrors.Respond(c, err)
		}
		out := make([]api.LibrarySummaryResponse, 0, len(list))
		for _, l := range list {
			out = append(out, api.LibrarySummaryResponse{ID: l.ID, Name: l.Name, Location: l.Location})
		}
		return c.JSON(http.StatusOK, out)
	}
}

// @Summary     Get a library
// @Description 包含館藏與館員，沒有館員時 librarian 為 null
// @Tags        libraries
// @Produce     json
// @Param       id  path     int true "圖書館 ID"
// @Success     200 {object} api.LibraryResponse
// @Failure     404 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /libraries/{id} [get]
func GetLibraryHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.ParamID(c, "id")
		if !ok {
			return apperrors.Respond(c, apperrors.ErrNotFound)
		}
		l, err := getLibrary(c.Request().Context(), db, id)
		if err != nil {
			return apperrors.Respond(c, err)
		}
		return c.JSON(http.StatusOK, toLibraryResponse(*l))
	}
}

// @Summary     Create a library
// @Tags        libraries
// @Accept      json
// @Produce     json
// @Param       body body     api.LibraryRequest true "圖書館資料"
// @Success     201  {object} api.LibraryResponse
// @Failure     400  {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /libraries [post]
func CreateLibraryHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		req, err := bind[api.LibraryRequest](c)
		if err != nil {
			return apperrors.Respond(c, err)
		}
		l, err := createLibrary(c.Request().Context(), db, &model.Library{Name: req.Name, Location: req.Location})
		if err != nil {
			return apperrors.Respond(c, err)
		}
		return c.JSON(http.StatusCreated, toLibraryResponse(*l))
	}
}

// @Summary     Update a library
// @Tags        libraries
// @Accept      json
// @Produce     json
// @Param       id   path     int                true "圖書館 ID"
// @Param       body body     api.LibraryRequest true "圖書館資料"
// @Success     200  {object} api.LibraryResponse
// @Failure     400  {object} api.ErrorResponse
// @Failure     404  {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /libraries/{id} [put]
func UpdateLibraryHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.ParamID(c, "id")
		if !ok {
			return apperrors.Respond(c, apperrors.ErrNotFound)
		}
		req, err := bind[api.LibraryRequest](c)
		if err != nil {
			return apperrors.Respond(c, err)
		}
		ctx := c.Request().Context()
		if err := updateLibrary(ctx, db, &model.Library{ID: id, Name: req.Name, Location: req.Location}); err != nil {
			return apperrors.Respond(c, err)
		}
		return respondLibrary(c, db, id, http.StatusOK)
	}
}

// @Summary     Delete a library
// @Tags        libraries
// @Param       id  path int true "圖書館 ID"
// @Success     204 "No Content"
// @Failure     404 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /libraries/{id} [delete]
func DeleteLibraryHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.ParamID(c, "id")
		if !ok {
			return apperrors.Respond(c, apperrors.ErrNotFound)
		}
		if err := deleteLibrary(c.Request().Context(), db, id); err != nil {
			return apperrors.Respond(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

// @Summary     Add a book to a library
// @Tags        libraries
// @Produce     json
// @Param       id      path     int true "圖書館 ID"
// @Param       book_id path     int true "書籍 ID"
// @Success     200     {object} api.LibraryResponse
// @Failure     404     {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /libraries/{id}/books/{book_id} [post]
func AddBookHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, bookID, ok := libraryAndBook(c)
		if !ok {
			return apperrors.Respond(c, apperrors.ErrNotFound)
		}
		ctx := c.Request().Context()
		if _, err := getLibrary(ctx, db, id); err != nil {
			return apperrors.Respond(c, err)
		}
		if _, err := getBook(ctx, db, bookID); err != nil {
			return apperrors.Respond(c, err)
		}
		if err := addBookToLibrary(ctx, db, id, bookID); err != nil {
			return apperrors.Respond(c, err)
		}
		return respondLibrary(c, db, id, http.StatusOK)
	}
}

// @Summary     Remove a book from a library
// @Tags        libraries
// @Param       id      path int true "圖書館 ID"
// @Param       book_id path int true "書籍 ID"
// @Success     204     "No Content"
// @Failure     404     {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /libraries/{id}/books/{book_id} [delete]
func RemoveBookHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, bookID, ok := libraryAndBook(c)
		if !ok {
			return apperrors.Respond(c, apperrors.ErrNotFound)
		}
		if err := removeBookFromLibrary(c.Request().Context(), db, id, bookID); err != nil {
			return apperrors.Respond(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

// @Summary     Assign the librarian
// @Description 每間圖書館只有一位館員，重複指派會更新姓名
// @Tags        libraries
// @Accept      json
// @Produce     json
// @Param       id   path     int                  true "圖書館 ID"
// @Param       body body     api.LibrarianRequest true "館員"
// @Success     200  {object} api.LibrarianResponse
// @Failure     400  {object} api.ErrorResponse
// @Failure     404  {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /libraries/{id}/librarian [put]
func SetLibrarianHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.ParamID(c, "id")
		if !ok {
			return apperrors.Respond(c, apperrors.ErrNotFound)
		}
		req, err := bind[api.LibrarianRequest](c)
		if err != nil {
			return apperrors.Respond(c, err)
		}
		ctx := c.Request().Context()
		if _, err := getLibrary(ctx, db, id); err != nil {
			return apperrors.Respond(c, err)
		}
		lb, err := upsertLibrarian(ctx, db, id, req.Name)
		if err != nil {
			return apperrors.Respond(c, err)
		}
		return c.JSON(http.StatusOK, toLibrarianResponse(lb))
	}
}

func libraryAndBook(c echo.Context) (int, int, bool) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return 0, 0, false
	}
	bookID, ok := handler.ParamID(c, "book_id")
	return id, bookID, ok
}

func respondLibrary(c echo.Context, db database.DB, id, status int) error {
	l, err := getLibrary(c.Request().Context(), db, id)
	if err != nil {
		return apperrors.Respond(c, err)
	}
	return c.JSON(status, toLibraryResponse(*l))
}
