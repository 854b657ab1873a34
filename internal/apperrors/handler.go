package apperrors

import (
	"errors"
	"fmt"
	"net/http"

	"library-hub/internal/api"
	"library-hub/internal/logger"

	"github.com/labstack/echo/v4"
)

// Respond 依錯誤類型回寫 JSON，5xx 會記錄原始錯誤
func Respond(c echo.Context, err error) error {
	status, body := Status(err)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}
	return c.JSON(status, body)
}

// HTTPErrorHandler 取代 echo 預設的錯誤處理，統一輸出 api.ErrorResponse
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
		if he.Code >= http.StatusInternalServerError {
			logger.Error().Err(err).Str("path", c.Path()).Msg("request failed")
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(he.Code)
			return
		}
		_ = c.JSON(he.Code, api.ErrorResponse{Message: msg})
		return
	}
	_ = Respond(c, err)
}
