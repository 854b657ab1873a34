package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"library-hub/internal/cache"
	"library-hub/internal/database"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func pingOnce(t *testing.T, db database.DB, rdb cache.Cache) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	ctx := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/ping", nil), rec)
	require.NoError(t, PingHandler(db, rdb)(ctx))
	return rec
}

func TestPingHandler(t *testing.T) {
	okDB := &database.FakeDB{PingFn: func(context.Context) error { return nil }}

	t.Run("db unhealthy", func(t *testing.T) {
		db := &database.FakeDB{PingFn: func(context.Context) error { return errors.New("fail") }}
		rec := pingOnce(t, db, &cache.FakeCache{})
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.Contains(t, rec.Body.String(), "database unhealthy")
	})

	t.Run("cache unhealthy", func(t *testing.T) {
		rdb := &cache.FakeCache{SetFn: func(context.Context, string, any, time.Duration) *redis.StatusCmd {
			return redis.NewStatusResult("", errors.New("set"))
		}}
		rec := pingOnce(t, okDB, rdb)
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.Contains(t, rec.Body.String(), "cache unhealthy")
	})

	t.Run("ok", func(t *testing.T) {
		var key string
		var ttl time.Duration
		rdb := &cache.FakeCache{SetFn: func(_ context.Context, k string, _ any, exp time.Duration) *redis.StatusCmd {
			key, ttl = k, exp
			return redis.NewStatusResult("OK", nil)
		}}
		rec := pingOnce(t, okDB, rdb)
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"message":"pong"}`, rec.Body.String())
		require.Equal(t, healthKey, key)
		require.Equal(t, 10*time.Second, ttl)
	})
}
