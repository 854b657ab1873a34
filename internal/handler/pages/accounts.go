package pages

import (
	"net/http"
	"strings"

	"library-hub/internal/apperrors"
	"library-hub/internal/cache"
	"library-hub/internal/database"
	"library-hub/internal/handler"
	"library-hub/internal/logger"
	"library-hub/internal/middleware"
	"library-hub/internal/model"
	"library-hub/internal/service"
	"library-hub/internal/web"

	"github.com/labstack/echo/v4"
)

const invalidLogin = "Please enter a correct username and password. Note that both fields may be case-sensitive."

func LoginPageHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		return render(c, http.StatusOK, "login.html", "Log in", func(p *web.Page) {
			p.Form.Set("next", c.QueryParam("next"))
		})
	}
}

// LoginSubmitHandler 驗證表單帳密，成功後寫入 cookie 並導向 next
func LoginSubmitHandler(db database.DB, opts handler.Options) echo.HandlerFunc {
	return func(c echo.Context) error {
		username := strings.TrimSpace(c.FormValue("username"))
		password := c.FormValue("password")
		next := c.FormValue("next")

		retry := func() error {
			return render(c, http.StatusOK, "login.html", "Log in", func(p *web.Page) {
				p.Form.Set("username", username)
				p.Form.Set("next", next)
				p.Errors = map[string][]string{"__all__": {invalidLogin}}
			})
		}

		ctx := c.Request().Context()
		user, err := getUserByUsername(ctx, db, username)
		if err != nil {
			if !apperrors.IsNotFound(err) {
				return fail(c, err)
			}
			return retry()
		}
		if err := authenticateUser(ctx, *user, password); err != nil {
			logger.Info().Str("username", username).Msg("form login failed")
			return retry()
		}
		token, err := issueAccessToken(*user, opts.AccessTTL)
		if err != nil {
			return fail(c, err)
		}
		handler.SetAccessCookie(c, token, opts.AccessTTL)
		recordLogin(opts, db, user.ID)
		return c.Redirect(http.StatusFound, safeNext(next))
	}
}

// LogoutHandler 撤銷目前的 access token 並清除 cookie
func LogoutHandler(rdb cache.Cache) echo.HandlerFunc {
	return func(c echo.Context) error {
		if claims := middleware.Claims(c); claims != nil {
			if err := revokeAccessToken(c.Request().Context(), rdb, claims); err != nil {
				logger.Warn().Err(err).Int("user_id", claims.UserID).Msg("revoke on logout failed")
			}
			c.Set(middleware.ContextUserKey, nil)
		}
		handler.ClearAccessCookie(c)
		return render(c, http.StatusOK, "logout.html", "Logged out", nil)
	}
}

func RegisterPageHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		return render(c, http.StatusOK, "register.html", "Register", nil)
	}
}

// RegisterSubmitHandler 註冊成功後直接登入
func RegisterSubmitHandler(db database.DB, opts handler.Options) echo.HandlerFunc {
	return func(c echo.Context) error {
		form := map[string]string{
			"username":  strings.TrimSpace(c.FormValue("username")),
			"email":     strings.TrimSpace(c.FormValue("email")),
			"password1": c.FormValue("password1"),
			"password2": c.FormValue("password2"),
		}
		v := &apperrors.ValidationError{}
		for _, k := range []string{"username", "email", "password1", "password2"} {
			if form[k] == "" {
				v.Add(k, "This field is required.")
			}
		}
		if form["password1"] != "" && form["password2"] != "" && form["password1"] != form["password2"] {
			v.Add("password2", "The two password fields didn't match.")
		}

		var created *model.User
		err := v.OrNil()
		if err == nil {
			var u *model.User
			u, err = service.BuildUser(service.NewUserInput{Username: form["username"], Email: form["email"], Password: form["password1"]})
			if err != nil {
				err = apperrors.FieldError("__all__", err.Error())
			} else if created, err = createUser(c.Request().Context(), db, u); apperrors.IsUniqueViolation(err) {
				err = apperrors.FieldError("username", "A user with that username already exists.")
			}
		}
		if err != nil {
			fields, ok := fieldErrors(err)
			if !ok {
				return fail(c, err)
			}
			return render(c, http.StatusOK, "register.html", "Register", func(p *web.Page) {
				p.Form.Set("username", form["username"])
				p.Form.Set("email", form["email"])
				p.Errors = fields
			})
		}

		token, err := issueAccessToken(*created, opts.AccessTTL)
		if err != nil {
			return fail(c, err)
		}
		handler.SetAccessCookie(c, token, opts.AccessTTL)
		recordLogin(opts, db, created.ID)
		return c.Redirect(http.StatusFound, HomePath)
	}
}

func DocumentsHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		docs, err := listDocuments(c.Request().Context(), db)
		if err != nil {
			return fail(c, err)
		}
		return render(c, http.StatusOK, "documents.html", "Documents", func(p *web.Page) { p.Data = docs })
	}
}

func CreateDocumentHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		title := strings.TrimSpace(c.FormValue("title"))
		content := c.FormValue("content")
		ctx := c.Request().Context()

		msg := ""
		switch {
		case title == "":
			msg = "This field is required."
		case len([]rune(title)) > 200:
			msg = "Ensure this field has no more than 200 characters."
		}
		if msg != "" {
			docs, err := listDocuments(ctx, db)
			if err != nil {
				return fail(c, err)
			}
			return render(c, http.StatusOK, "documents.html", "Documents", func(p *web.Page) {
				p.Data = docs
				p.Form.Set("title", title)
				p.Form.Set("content", content)
				p.Errors = map[string][]string{"title": {msg}}
			})
		}

		if _, err := createDocument(ctx, db, &model.Document{Title: title, Content: content, OwnerID: handler.CurrentUserID(c)}); err != nil {
			return fail(c, err)
		}
		return c.Redirect(http.StatusFound, "/accounts/documents")
	}
}

func DeleteDocumentHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.ParamID(c, "id")
		if !ok {
			return fail(c, apperrors.ErrNotFound)
		}
		if err := deleteDocument(c.Request().Context(), db, id); err != nil {
			return fail(c, err)
		}
		return c.Redirect(http.StatusFound, "/accounts/documents")
	}
}
