package pages

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"library-hub/internal/apperrors"
	"library-hub/internal/cache"
	"library-hub/internal/database"
	"library-hub/internal/handler"
	"library-hub/internal/model"
	"library-hub/internal/service"
	"library-hub/internal/store"
	"library-hub/internal/web"

	"github.com/labstack/echo/v4"
)

const bookshelfPath = "/bookshelf/books"

// bookForm 書架表單送出的欄位
type bookForm struct {
	Title           string
	Author          string
	PublicationYear string
	ISBN            string
	Description     string
}

func readBookForm(c echo.Context) bookForm {
	return bookForm{
		Title:           strings.TrimSpace(c.FormValue("title")),
		Author:          strings.TrimSpace(c.FormValue("author")),
		PublicationYear: strings.TrimSpace(c.FormValue("publication_year")),
		ISBN:            strings.TrimSpace(c.FormValue("isbn")),
		Description:     c.FormValue("description"),
	}
}

func (f bookForm) values() url.Values {
	return url.Values{
		"title":            {f.Title},
		"author":           {f.Author},
		"publication_year": {f.PublicationYear},
		"isbn":             {f.ISBN},
		"description":      {f.Description},
	}
}

func bookFormValues(b *model.Book) url.Values {
	return bookForm{
		Title:           b.Title,
		Author:          b.AuthorName,
		PublicationYear: strconv.Itoa(b.PublicationYear),
		ISBN:            b.ISBN,
		Description:     b.Description,
	}.values()
}

// apply 檢查欄位並寫入 b；作者以名稱對應，不存在時建立
func (f bookForm) apply(c echo.Context, db database.DB, b *model.Book) error {
	v := &apperrors.ValidationError{}
	switch {
	case f.Author == "":
		v.Add("author", "This field is required.")
	case len([]rune(f.Author)) > 100:
		v.Add("author", "Ensure this field has no more than 100 characters.")
	}
	year, err := strconv.Atoi(f.PublicationYear)
	switch {
	case f.PublicationYear == "":
		v.Add("publication_year", "This field is required.")
	case err != nil:
		v.Add("publication_year", "Enter a whole number.")
	}
	if len(f.ISBN) > 13 {
		v.Add("isbn", "Ensure this field has no more than 13 characters.")
	}
	b.Title, b.PublicationYear, b.ISBN, b.Description = f.Title, year, f.ISBN, f.Description
	if err := service.ValidateBook(model.Book{Title: b.Title, PublicationYear: year, AuthorID: 1}, true, handler.Now()); err != nil {
		fields, _ := fieldErrors(err)
		for k, msgs := range fields {
			for _, m := range msgs {
				v.Add(k, m)
			}
		}
	}
	if err := v.OrNil(); err != nil {
		return err
	}

	a, err := resolveAuthor(c.Request().Context(), db, f.Author)
	if err != nil {
		return err
	}
	b.AuthorID, b.AuthorName = a.ID, a.Name
	return nil
}

func renderBookForm(c echo.Context, title string, form url.Values, errs map[string][]string) error {
	return render(c, http.StatusOK, "book_form.html", title, func(p *web.Page) {
		if form != nil {
			p.Form = form
		}
		p.Errors = errs
	})
}

func BookListHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		books, err := listBooks(c.Request().Context(), db, store.BookFilter{})
		if err != nil {
			return fail(c, err)
		}
		return render(c, http.StatusOK, "book_list.html", "Books", func(p *web.Page) { p.Data = books })
	}
}

func BookDetailHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		b, err := bookFromPath(c, db)
		if err != nil {
			return fail(c, err)
		}
		return render(c, http.StatusOK, "book_detail.html", b.Title, func(p *web.Page) { p.Data = b })
	}
}

func bookFromPath(c echo.Context, db database.DB) (*model.Book, error) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return getBook(c.Request().Context(), db, id)
}

func BookCreatePageHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		return renderBookForm(c, "Add book", nil, nil)
	}
}

func BookCreateHandler(db database.DB, rdb cache.Cache) echo.HandlerFunc {
	return func(c echo.Context) error {
		form := readBookForm(c)
		b := &model.Book{}
		if err := form.apply(c, db, b); err != nil {
			if fields, ok := fieldErrors(err); ok {
				return renderBookForm(c, "Add book", form.values(), fields)
			}
			return fail(c, err)
		}
		if uid := handler.CurrentUserID(c); uid != 0 {
			b.AddedBy = &uid
		}
		ctx := c.Request().Context()
		if _, err := createBook(ctx, db, b); err != nil {
			return fail(c, err)
		}
		invalidateBookList(ctx, rdb)
		return c.Redirect(http.StatusFound, bookshelfPath)
	}
}

func BookEditPageHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		b, err := bookFromPath(c, db)
		if err != nil {
			return fail(c, err)
		}
		return renderBookForm(c, "Edit book", bookFormValues(b), nil)
	}
}

func BookEditHandler(db database.DB, rdb cache.Cache) echo.HandlerFunc {
	return func(c echo.Context) error {
		b, err := bookFromPath(c, db)
		if err != nil {
			return fail(c, err)
		}
		form := readBookForm(c)
		if err := form.apply(c, db, b); err != nil {
			if fields, ok := fieldErrors(err); ok {
				return renderBookForm(c, "Edit book", form.values(), fields)
			}
			return fail(c, err)
		}
		ctx := c.Request().Context()
		if err := updateBook(ctx, db, b); err != nil {
			return fail(c, err)
		}
		invalidateBookList(ctx, rdb)
		return c.Redirect(http.StatusFound, bookshelfPath+"/"+strconv.Itoa(b.ID))
	}
}

func BookDeletePageHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		b, err := bookFromPath(c, db)
		if err != nil {
			return fail(c, err)
		}
		return render(c, http.StatusOK, "book_confirm_delete.html", "Delete book", func(p *web.Page) { p.Data = b })
	}
}

func BookDeleteHandler(db database.DB, rdb cache.Cache) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.ParamID(c, "id")
		if !ok {
			return fail(c, apperrors.ErrNotFound)
		}
		ctx := c.Request().Context()
		if err := deleteBook(ctx, db, id); err != nil {
			return fail(c, err)
		}
		invalidateBookList(ctx, rdb)
		return c.Redirect(http.StatusFound, bookshelfPath)
	}
}

// exampleForm 示範表單；模板輸出時會自動跳脫
type exampleForm struct {
	Title  string `json:"title" form:"title" validate:"required,max=100"`
	Author string `json:"author" form:"author" validate:"required,max=100"`
	Rating string `json:"rating" form:"rating" validate:"required,number"`
}

func FormExamplePageHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		return render(c, http.StatusOK, "form_example.html", "Example form", nil)
	}
}

// FormExampleHandler rating 需為 1 到 5 的整數
func FormExampleHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		var f exampleForm
		if err := c.Bind(&f); err != nil {
			return c.String(http.StatusBadRequest, "invalid form")
		}
		v := &apperrors.ValidationError{}
		if err := c.Validate(&f); err != nil {
			v = apperrors.FromValidator(err)
		}
		if _, bad := v.Fields["rating"]; !bad && f.Rating != "" {
			if n, err := strconv.Atoi(f.Rating); err != nil {
				v.Add("rating", "Enter a whole number.")
			} else if n < 1 || n > 5 {
				v.Add("rating", "Ensure this value is between 1 and 5.")
			}
		}

		values := url.Values{"title": {f.Title}, "author": {f.Author}, "rating": {f.Rating}}
		if v.OrNil() != nil {
			return render(c, http.StatusOK, "form_example.html", "Example form", func(p *web.Page) {
				p.Form = values
				p.Errors = v.Fields
			})
		}
		return render(c, http.StatusOK, "form_example.html", "Example form", func(p *web.Page) {
			p.Message = "Thanks, " + f.Author + "! Your review of " + f.Title + " was received."
		})
	}
}
