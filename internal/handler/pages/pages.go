// Package pages 提供表單登入、書架與關聯示範的 HTML 頁面
package pages

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"library-hub/internal/apperrors"
	"library-hub/internal/database"
	"library-hub/internal/handler"
	"library-hub/internal/model"
	"library-hub/internal/service"
	"library-hub/internal/store"
	"library-hub/internal/web"

	"github.com/labstack/echo/v4"
)

// HomePath 登入或註冊後的預設頁面
const HomePath = "/relationship/books"

var (
	getUserByUsername  = store.GetUserByUsername
	createUser         = store.CreateUser
	authenticateUser   = service.AuthenticateUser
	issueAccessToken   = service.IssueAccessToken
	revokeAccessToken  = service.RevokeAccessToken
	recordLogin        = handler.RecordLogin
	listDocuments      = store.ListDocuments
	createDocument     = store.CreateDocument
	deleteDocument     = store.DeleteDocument
	listBooks          = store.ListBooks
	getBook            = store.GetBook
	createBook         = store.CreateBook
	updateBook         = store.UpdateBook
	deleteBook         = store.DeleteBook
	getAuthorByName    = store.GetAuthorByName
	createAuthor       = store.CreateAuthor
	getLibrary         = store.GetLibrary
	invalidateBookList = service.InvalidateBookList
)

// render 以 Page 包裝資料後輸出模板
func render(c echo.Context, status int, name, title string, fill func(p *web.Page)) error {
	p := web.NewPage(c, title, nil)
	if fill != nil {
		fill(&p)
	}
	return c.Render(status, name, p)
}

// fail 將錯誤轉為狀態碼與純文字頁面
func fail(c echo.Context, err error) error {
	status, body := apperrors.Status(err)
	if status >= http.StatusInternalServerError {
		return apperrors.Respond(c, err)
	}
	return c.String(status, body.Message)
}

// safeNext 只接受站內路徑
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return HomePath
	}
	return next
}

// resolveAuthor 依名稱取得作者，不存在時建立
func resolveAuthor(ctx context.Context, db database.DB, name string) (*model.Author, error) {
	a, err := getAuthorByName(ctx, db, name)
	if err == nil {
		return a, nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, err
	}
	return createAuthor(ctx, db, &model.Author{Name: name})
}

func fieldErrors(err error) (map[string][]string, bool) {
	var verr *apperrors.ValidationError
	if errors.As(err, &verr) {
		return verr.Fields, true
	}
	return nil, false
}
