package pages

import (
	"net/http"

	"library-hub/internal/apperrors"
	"library-hub/internal/database"
	"library-hub/internal/handler"
	"library-hub/internal/store"
	"library-hub/internal/web"

	"github.com/labstack/echo/v4"
)

// ListBooksPageHandler 公開的書籍與作者列表
func ListBooksPageHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		books, err := listBooks(c.Request().Context(), db, store.BookFilter{})
		if err != nil {
			return fail(c, err)
		}
		return render(c, http.StatusOK, "list_books.html", "All books", func(p *web.Page) { p.Data = books })
	}
}

func LibraryDetailPageHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.ParamID(c, "id")
		if !ok {
			return fail(c, apperrors.ErrNotFound)
		}
		lib, err := getLibrary(c.Request().Context(), db, id)
		if err != nil {
			return fail(c, err)
		}
		return render(c, http.StatusOK, "library_detail.html", lib.Name, func(p *web.Page) { p.Data = lib })
	}
}

// RolePageHandler 角色檢查由 middleware.RequireRole 負責
func RolePageHandler(name, title string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return render(c, http.StatusOK, name, title, nil)
	}
}

type manageNotice struct {
	Title string
}

// AddBookPageHandler 權限由 RequirePerm("book.can_create") 把關
func AddBookPageHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		return render(c, http.StatusOK, "book_manage.html", "Add book", func(p *web.Page) {
			p.Data = manageNotice{Title: "You can add books."}
		})
	}
}

func EditBookPageHandler(db database.DB) echo.HandlerFunc {
	return manageBookPage(db, "Edit book", "You can edit ")
}

func DeleteBookPageHandler(db database.DB) echo.HandlerFunc {
	return manageBookPage(db, "Delete book", "You can delete ")
}

func manageBookPage(db database.DB, title, prefix string) echo.HandlerFunc {
	return func(c echo.Context) error {
		b, err := bookFromPath(c, db)
		if err != nil {
			return fail(c, err)
		}
		return render(c, http.StatusOK, "book_manage.html", title, func(p *web.Page) {
			p.Data = manageNotice{Title: prefix + `"` + b.Title + `".`}
		})
	}
}
