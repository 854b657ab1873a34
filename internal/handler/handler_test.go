package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"library-hub/internal/database"
	"library-hub/internal/logger"
	"library-hub/internal/middleware"
	"library-hub/internal/model"
	"library-hub/internal/service"
	"library-hub/internal/store"
	"library-hub/internal/worker"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

// syncPool 立即在呼叫端執行工作
type syncPool struct{ names []string }

func (p *syncPool) Submit(name string, t worker.Task) error {
	p.names = append(p.names, name)
	return t(context.Background())
}

func (p *syncPool) Stop() {}

func TestParamID(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("12")
	id, ok := ParamID(c, "id")
	require.True(t, ok)
	require.Equal(t, 12, id)

	c.SetParamValues("abc")
	_, ok = ParamID(c, "id")
	require.False(t, ok)
	c.SetParamValues("-1")
	_, ok = ParamID(c, "id")
	require.False(t, ok)
}

func TestCurrentUserID(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	require.Zero(t, CurrentUserID(c))
	c.Set(middleware.ContextUserKey, &service.CustomClaims{UserID: 3})
	require.Equal(t, 3, CurrentUserID(c))
}

func TestAccessCookie(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	SetAccessCookie(c, "tok", time.Hour)
	ClearAccessCookie(c)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)
	require.Equal(t, "tok", cookies[0].Value)
	require.Equal(t, 3600, cookies[0].MaxAge)
	require.True(t, cookies[0].HttpOnly)
	require.Equal(t, "", cookies[1].Value)
	require.Less(t, cookies[1].MaxAge, 0)
}

func TestRecordLogin(t *testing.T) {
	t.Cleanup(func() {
		updateLastLogin = store.UpdateLastLogin
		timeNow = time.Now
	})
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	timeNow = func() time.Time { return now }

	var mu sync.Mutex
	var gotID int
	var gotAt time.Time
	updateLastLogin = func(_ context.Context, _ database.Querier, id int, at time.Time) error {
		mu.Lock()
		defer mu.Unlock()
		gotID, gotAt = id, at
		return nil
	}

	RecordLogin(Options{}, nil, 1)
	require.Zero(t, gotID)

	p := &syncPool{}
	RecordLogin(Options{Workers: p}, &database.FakeDB{}, 9)
	require.Equal(t, 9, gotID)
	require.Equal(t, now, gotAt)
	require.Equal(t, []string{"update_last_login"}, p.names)
}

func TestBackgroundStoppedPool(t *testing.T) {
	t.Cleanup(func() {
		updateLastLogin = store.UpdateLastLogin
		logger.Configure(logger.Config{Level: "info"})
	})
	var buf bytes.Buffer
	logger.Configure(logger.Config{Level: "info", Output: &buf})
	called := false
	updateLastLogin = func(context.Context, database.Querier, int, time.Time) error {
		called = true
		return nil
	}

	p := worker.NewPool(1, time.Second)
	p.Stop()
	RecordLogin(Options{Workers: p}, &database.FakeDB{}, 3)
	require.False(t, called)
	require.Contains(t, buf.String(), "background job dropped")
	require.Contains(t, buf.String(), "update_last_login")
	require.Contains(t, buf.String(), worker.ErrStopped.Error())

	// 未設定 pool 時直接略過
	buf.Reset()
	Options{}.Background("noop", func(context.Context) error { return nil })
	require.Empty(t, buf.String())
}

func TestUserResponse(t *testing.T) {
	t.Cleanup(func() { timeNow = time.Now })
	timeNow = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }
	dob := time.Date(1990, 5, 2, 0, 0, 0, 0, time.UTC)
	resp := UserResponse(&model.User{ID: 1, Username: "ann", FirstName: "Ann", LastName: "Lee", DateOfBirth: &dob, Role: model.RoleMember}, nil)
	require.Equal(t, "Ann Lee", resp.FullName)
	require.Equal(t, "1990-05-02", *resp.DateOfBirth)
	require.Equal(t, 33, *resp.Age)
	require.Equal(t, []string{}, resp.Groups)

	resp = UserResponse(&model.User{Username: "bob"}, []string{"Editors"})
	require.Equal(t, "bob", resp.FullName)
	require.Nil(t, resp.Age)
	require.Nil(t, resp.DateOfBirth)
	require.Equal(t, []string{"Editors"}, resp.Groups)
}
