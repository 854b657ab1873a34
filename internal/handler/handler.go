package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"library-hub/internal/api"
	"library-hub/internal/database"
	"library-hub/internal/filestorage"
	"library-hub/internal/logger"
	"library-hub/internal/middleware"
	"library-hub/internal/model"
	"library-hub/internal/store"
	"library-hub/internal/worker"

	"github.com/labstack/echo/v4"
)

// Options 各 handler 共用的執行期設定
type Options struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Workers    worker.Pool
	Storage    filestorage.Storage
	// MediaRoot 非空時以 /media 提供上傳檔案
	MediaRoot  string
}

// Background 將副作用交給 worker；pool 已停止時只記錄，不影響回應
func (o Options) Background(name string, t worker.Task) {
	if o.Workers == nil {
		return
	}
	if err := o.Workers.Submit(name, t); err != nil {
		logger.Warn().Err(err).Str("job", name).Msg("background job dropped")
	}
}

var (
	updateLastLogin = store.UpdateLastLogin
	timeNow         = time.Now
)

// ParamID 解析路徑上的整數參數
func ParamID(c echo.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// CurrentUserID 回傳已登入的使用者 ID，未登入為 0
func CurrentUserID(c echo.Context) int {
	if claims := middleware.Claims(c); claims != nil {
		return claims.UserID
	}
	return 0
}

// SetAccessCookie 寫入 HTML 頁面使用的 access token cookie
func SetAccessCookie(c echo.Context, token string, ttl time.Duration) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearAccessCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// RecordLogin 交給 worker 非同步更新 last_login
func RecordLogin(opts Options, db database.DB, userID int) {
	if opts.Workers == nil {
		return
	}
	at := timeNow()
	opts.Background("update_last_login", func(ctx context.Context) error {
		return updateLastLogin(ctx, db, userID, at)
	})
}

// UserResponse 組合使用者回應，包含衍生欄位
func UserResponse(u *model.User, groups []string) api.UserResponse {
	var dob *string
	if u.DateOfBirth != nil {
		s := u.DateOfBirth.Format("2006-01-02")
		dob = &s
	}
	if groups == nil {
		groups = []string{}
	}
	return api.UserResponse{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		FullName:     u.FullName(),
		DateOfBirth:  dob,
		Age:          u.Age(timeNow()),
		ProfilePhoto: u.ProfilePhoto,
		Role:         u.Role,
		Groups:       groups,
		IsStaff:      u.IsStaff,
		IsSuperuser:  u.IsSuperuser,
		IsActive:     u.IsActive,
		LastLogin:    u.LastLogin,
		DateJoined:   u.DateJoined,
	}
}

// Now 目前時間，測試時可替換
func Now() time.Time { return timeNow() }
