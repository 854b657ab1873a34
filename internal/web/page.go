package web

import (
	"net/url"

	"library-hub/internal/middleware"
	"library-hub/internal/service"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// Page 所有 HTML 頁面共用的資料
type Page struct {
	Title   string
	User    *service.CustomClaims
	CSRF    string
	Message string
	Form    url.Values
	Errors  map[string][]string
	Data    any
}

// NewPage 帶入目前使用者與 CSRF token
func NewPage(c echo.Context, title string, data any) Page {
	token, _ := c.Get(echomw.DefaultCSRFConfig.ContextKey).(string)
	return Page{
		Title: title,
		User:  middleware.Claims(c),
		CSRF:  token,
		Form:  url.Values{},
		Data:  data,
	}
}
