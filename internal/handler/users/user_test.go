package users

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"library-hub/internal/apperrors"
	"library-hub/internal/cache"
	"library-hub/internal/database"
	"library-hub/internal/filestorage"
	"library-hub/internal/handler"
	"library-hub/internal/logger"
	"library-hub/internal/middleware"
	"library-hub/internal/model"
	"library-hub/internal/service"
	"library-hub/internal/store"
	"library-hub/internal/worker"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

type stubValidator struct{ err error }

func (s *stubValidator) Validate(i interface{}) error { return s.err }

type errBinder struct{}

func (errBinder) Bind(i any, c echo.Context) error { return errors.New("bind") }

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = &stubValidator{}
	return e
}

func newJSONCtx(e *echo.Echo, method, body string, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	var names, values []string
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	return c, rec
}

func asUser(c echo.Context, id int) echo.Context {
	c.Set(middleware.ContextUserKey, &service.CustomClaims{UserID: id})
	return c
}

func restore() {
	authenticateUser = service.AuthenticateUser
	hashPassword = service.HashPassword
	randomPassword = service.RandomPassword
	createUser = store.CreateUser
	getUserByID = store.GetUserByID
	listUsers = store.ListUsers
	updateUser = store.UpdateUser
	updateUserPassword = store.UpdateUserPassword
	updateUserPhoto = store.UpdateUserPhoto
	deleteUser = store.DeleteUser
	setUserRole = store.SetUserRole
	listUserGroups = store.ListUserGroups
	getGroupByName = store.GetGroupByName
	addUserToGroup = store.AddUserToGroup
	removeUserFromGroup = store.RemoveUserFromGroup
	revokeAccessToken = service.RevokeAccessToken
}

func stubUser(u *model.User) {
	getUserByID = func(_ context.Context, _ database.Querier, id int) (*model.User, error) {
		if u == nil || u.ID != id {
			return nil, pgx.ErrNoRows
		}
		cp := *u
		return &cp, nil
	}
	listUserGroups = func(context.Context, database.Querier, int) ([]string, error) { return []string{"Viewers"}, nil }
}

func TestGetMyUserHandler(t *testing.T) {
	t.Cleanup(restore)
	e := newEcho()

	ctx, rec := newJSONCtx(e, http.MethodGet, "")
	require.NoError(t, GetMyUserHandler(nil)(ctx))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	stubUser(&model.User{ID: 1, Username: "ann", FirstName: "Ann", Role: model.RoleLibrarian})
	ctx, rec = newJSONCtx(e, http.MethodGet, "")
	require.NoError(t, GetMyUserHandler(nil)(asUser(ctx, 1)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"role":"Librarian"`)
	require.Contains(t, rec.Body.String(), `"groups":["Viewers"]`)

	ctx, rec = newJSONCtx(e, http.MethodGet, "")
	require.NoError(t, GetMyUserHandler(nil)(asUser(ctx, 2)))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateMyUserHandler(t *testing.T) {
	t.Cleanup(restore)
	e := newEcho()
	stubUser(&model.User{ID: 1, Username: "ann", IsActive: true})

	e.Binder = errBinder{}
	ctx, rec := newJSONCtx(e, http.MethodPut, `{}`)
	require.NoError(t, UpdateMyUserHandler(nil)(asUser(ctx, 1)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	e.Binder = &echo.DefaultBinder{}

	ctx, rec = newJSONCtx(e, http.MethodPut, `{"email":"a@b.c","date_of_birth":"bad"}`)
	require.NoError(t, UpdateMyUserHandler(nil)(asUser(ctx, 1)))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var saved *model.User
	updateUser = func(_ context.Context, _ database.Querier, u *model.User) error { saved = u; return nil }
	ctx, rec = newJSONCtx(e, http.MethodPut, `{"email":"Ann@EXAMPLE.com","first_name":"Ann","is_staff":true}`)
	require.NoError(t, UpdateMyUserHandler(nil)(asUser(ctx, 1)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Ann@example.com", saved.Email)
	require.False(t, saved.IsStaff)

	updateUser = func(context.Context, database.Querier, *model.User) error { return errors.New("db") }
	ctx, rec = newJSONCtx(e, http.MethodPut, `{"email":"a@b.c"}`)
	require.NoError(t, UpdateMyUserHandler(nil)(asUser(ctx, 1)))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestUpdateMyUserPasswordHandler(t *testing.T) {
	t.Cleanup(restore)
	e := newEcho()
	stubUser(&model.User{ID: 1, IsActive: true})

	ctx, rec := newJSONCtx(e, http.MethodPatch, `{"old_password":"a","new_password":"bbbbbbbb"}`)
	require.NoError(t, UpdateMyUserPasswordHandler(nil)(ctx))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	authenticateUser = func(context.Context, model.User, string) error { return apperrors.ErrInvalidPassword }
	ctx, rec = newJSONCtx(e, http.MethodPatch, `{"old_password":"a","new_password":"bbbbbbbb"}`)
	require.NoError(t, UpdateMyUserPasswordHandler(nil)(asUser(ctx, 1)))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "old password")

	authenticateUser = func(context.Context, model.User, string) error { return nil }
	hashPassword = func(string) (string, error) { return "", errors.New("hash") }
	ctx, rec = newJSONCtx(e, http.MethodPatch, `{"old_password":"a","new_password":"bbbbbbbb"}`)
	require.NoError(t, UpdateMyUserPasswordHandler(nil)(asUser(ctx, 1)))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	hashPassword = func(string) (string, error) { return "h", nil }
	var gotHash string
	updateUserPassword = func(_ context.Context, _ database.Querier, _ int, h string) error { gotHash = h; return nil }
	ctx, rec = newJSONCtx(e, http.MethodPatch, `{"old_password":"a","new_password":"bbbbbbbb"}`)
	require.NoError(t, UpdateMyUserPasswordHandler(nil)(asUser(ctx, 1)))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "h", gotHash)
}

type syncPool struct{}

func (syncPool) Submit(_ string, t worker.Task) error { return t(context.Background()) }
func (syncPool) Stop()                                {}

type memStorage struct {
	saved   []string
	deleted []string
	saveErr error
}

func (m *memStorage) Save(fh *multipart.FileHeader, sub string) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	p := sub + "/" + fh.Filename
	m.saved = append(m.saved, p)
	return p, nil
}

func (m *memStorage) Delete(p string) error {
	m.deleted = append(m.deleted, p)
	return nil
}

func newPhotoCtx(t *testing.T, e *echo.Echo, withFile bool) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if withFile {
		fw, err := w.CreateFormFile("photo", "me.png")
		require.NoError(t, err)
		_, _ = fw.Write([]byte("png"))
	}
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPut, "/", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestUpdateMyPhotoHandler(t *testing.T) {
	t.Cleanup(restore)
	e := newEcho()
	old := "profile_photos/old.png"
	stubUser(&model.User{ID: 1, ProfilePhoto: &old})

	st := &memStorage{}
	opts := handler.Options{Storage: st, Workers: syncPool{}}

	ctx, rec := newPhotoCtx(t, e, false)
	require.NoError(t, UpdateMyPhotoHandler(nil, opts)(asUser(ctx, 1)))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	st.saveErr = filestorage.ErrUnsupportedType
	ctx, rec = newPhotoCtx(t, e, true)
	require.NoError(t, UpdateMyPhotoHandler(nil, opts)(asUser(ctx, 1)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "valid image")
	st.saveErr = nil

	updateUserPhoto = func(context.Context, database.Querier, int, *string) (*string, error) {
		return nil, errors.New("db")
	}
	ctx, rec = newPhotoCtx(t, e, true)
	require.NoError(t, UpdateMyPhotoHandler(nil, opts)(asUser(ctx, 1)))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, []string{"profile_photos/me.png"}, st.deleted)

	st.deleted = nil
	updateUserPhoto = func(_ context.Context, _ database.Querier, _ int, p *string) (*string, error) {
		require.Equal(t, "profile_photos/me.png", *p)
		return &old, nil
	}
	ctx, rec = newPhotoCtx(t, e, true)
	require.NoError(t, UpdateMyPhotoHandler(nil, opts)(asUser(ctx, 1)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{old}, st.deleted)
}

func TestRemovePhotoStoppedPool(t *testing.T) {
	t.Cleanup(func() { logger.Configure(logger.Config{Level: "info"}) })
	var buf bytes.Buffer
	logger.Configure(logger.Config{Level: "info", Output: &buf})

	p := worker.NewPool(1, time.Second)
	p.Stop()
	st := &memStorage{}
	photo := "profile_photos/gone.png"
	removePhoto(handler.Options{Storage: st, Workers: p}, &photo)
	require.Empty(t, st.deleted)
	require.Contains(t, buf.String(), "delete_profile_photo")
	require.Contains(t, buf.String(), worker.ErrStopped.Error())
}

func TestDeleteMyUserHandler(t *testing.T) {
	t.Cleanup(restore)
	e := newEcho()
	photo := "profile_photos/a.png"
	stubUser(&model.User{ID: 1, ProfilePhoto: &photo})
	st := &memStorage{}
	var revoked []string
	revokeAccessToken = func(_ context.Context, _ cache.Cache, claims *service.CustomClaims) error {
		revoked = append(revoked, claims.ID)
		return nil
	}
	asSelf := func(c echo.Context) echo.Context {
		c.Set(middleware.ContextUserKey, &service.CustomClaims{
			UserID:           1,
			RegisteredClaims: jwt.RegisteredClaims{ID: "jti-1"},
		})
		return c
	}

	deleteUser = func(context.Context, database.Querier, int) error { return errors.New("db") }
	ctx, rec := newJSONCtx(e, http.MethodDelete, "")
	require.NoError(t, DeleteMyUserHandler(nil, nil, handler.Options{Storage: st, Workers: syncPool{}})(asSelf(ctx)))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Empty(t, revoked)

	deleteUser = func(context.Context, database.Querier, int) error { return nil }
	ctx, rec = newJSONCtx(e, http.MethodDelete, "")
	require.NoError(t, DeleteMyUserHandler(nil, nil, handler.Options{Storage: st, Workers: syncPool{}})(asSelf(ctx)))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, []string{photo}, st.deleted)
	require.Equal(t, []string{"jti-1"}, revoked)

	// 黑名單寫入失敗不影響刪除結果
	revokeAccessToken = func(context.Context, cache.Cache, *service.CustomClaims) error { return errors.New("redis") }
	ctx, rec = newJSONCtx(e, http.MethodDelete, "")
	require.NoError(t, DeleteMyUserHandler(nil, nil, handler.Options{Storage: st, Workers: syncPool{}})(asSelf(ctx)))
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCreateUserHandler(t *testing.T) {
	t.Cleanup(restore)
	e := newEcho()

	e.Binder = errBinder{}
	ctx, rec := newJSONCtx(e, http.MethodPost, `{}`)
	require.NoError(t, CreateUserHandler(nil)(ctx))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	e.Binder = &echo.DefaultBinder{}

	e.Validator = &stubValidator{err: errors.New("invalid")}
	ctx, rec = newJSONCtx(e, http.MethodPost, `{}`)
	require.NoError(t, CreateUserHandler(nil)(ctx))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	e.Validator = &stubValidator{}

	var got *model.User
	createUser = func(_ context.Context, _ database.Querier, u *model.User) (*model.User, error) {
		got = u
		u.ID = 10
		return u, nil
	}
	ctx, rec = newJSONCtx(e, http.MethodPost, `{"username":"root","email":"r@x.io","password":"pw","is_superuser":true}`)
	require.NoError(t, CreateUserHandler(nil)(ctx))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.True(t, got.IsStaff)
	require.True(t, got.IsSuperuser)
	require.Equal(t, model.RoleAdmin, got.Role)

	ctx, rec = newJSONCtx(e, http.MethodPost, `{"username":"bob","email":"b@x.io"}`)
	require.NoError(t, CreateUserHandler(nil)(ctx))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.False(t, got.IsSuperuser)
	require.False(t, service.HasUsablePassword(got.PasswordHash))
}

func TestListAndGetUserHandlers(t *testing.T) {
	t.Cleanup(restore)
	e := newEcho()

	listUsers = func(context.Context, database.Querier) ([]model.User, error) {
		return []model.User{{ID: 1, Username: "a"}, {ID: 2, Username: "b"}}, nil
	}
	ctx, rec := newJSONCtx(e, http.MethodGet, "")
	require.NoError(t, ListUsersHandler(nil)(ctx))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"username":"b"`)

	listUsers = func(context.Context, database.Querier) ([]model.User, error) { return nil, errors.New("db") }
	ctx, rec = newJSONCtx(e, http.MethodGet, "")
	require.NoError(t, ListUsersHandler(nil)(ctx))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	ctx, rec = newJSONCtx(e, http.MethodGet, "", "user_id", "abc")
	require.NoError(t, GetUserHandler(nil)(ctx))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	stubUser(&model.User{ID: 5, Username: "eve"})
	ctx, rec = newJSONCtx(e, http.MethodGet, "", "user_id", "6")
	require.NoError(t, GetUserHandler(nil)(ctx))
	require.Equal(t, http.StatusNotFound, rec.Code)

	ctx, rec = newJSONCtx(e, http.MethodGet, "", "user_id", "5")
	require.NoError(t, GetUserHandler(nil)(ctx))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateAndDeleteUserHandlers(t *testing.T) {
	t.Cleanup(restore)
	e := newEcho()
	stubUser(&model.User{ID: 5, IsActive: true})

	var saved *model.User
	updateUser = func(_ context.Context, _ database.Querier, u *model.User) error { saved = u; return nil }
	ctx, rec := newJSONCtx(e, http.MethodPut, `{"email":"e@x.io","is_active":false,"is_staff":true}`, "user_id", "5")
	require.NoError(t, UpdateUserHandler(nil)(ctx))
	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, saved.IsActive)
	require.True(t, saved.IsStaff)

	ctx, rec = newJSONCtx(e, http.MethodPut, `{"email":"e@x.io"}`, "user_id", "x")
	require.NoError(t, UpdateUserHandler(nil)(ctx))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	deleteUser = func(context.Context, database.Querier, int) error { return pgx.ErrNoRows }
	ctx, rec = newJSONCtx(e, http.MethodDelete, "", "user_id", "9")
	require.NoError(t, DeleteUserHandler(nil)(ctx))
	require.Equal(t, http.StatusNotFound, rec.Code)

	deleteUser = func(context.Context, database.Querier, int) error { return nil }
	ctx, rec = newJSONCtx(e, http.MethodDelete, "", "user_id", "5")
	require.NoError(t, DeleteUserHandler(nil)(ctx))
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestUpdateUserRoleHandler(t *testing.T) {
	t.Cleanup(restore)
	e := newEcho()
	stubUser(&model.User{ID: 5})

	ctx, rec := newJSONCtx(e, http.MethodPut, `{"role":"Wizard"}`, "user_id", "5")
	require.NoError(t, UpdateUserRoleHandler(nil)(ctx))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	ctx, rec = newJSONCtx(e, http.MethodPut, `{"role":"Admin"}`, "user_id", "6")
	require.NoError(t, UpdateUserRoleHandler(nil)(ctx))
	require.Equal(t, http.StatusNotFound, rec.Code)

	var role string
	setUserRole = func(_ context.Context, _ database.Querier, _ int, r string) error { role = r; return nil }
	ctx, rec = newJSONCtx(e, http.MethodPut, `{"role":"Admin"}`, "user_id", "5")
	require.NoError(t, UpdateUserRoleHandler(nil)(ctx))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, model.RoleAdmin, role)
}

func TestResetUserPasswordHandler(t *testing.T) {
	t.Cleanup(restore)
	e := newEcho()

	randomPassword = func() (string, error) { return "", errors.New("rand") }
	ctx, rec := newJSONCtx(e, http.MethodPost, "", "user_id", "5")
	require.NoError(t, ResetUserPasswordHandler(nil)(ctx))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	randomPassword = func() (string, error) { return "newpass", nil }
	updateUserPassword = func(context.Context, database.Querier, int, string) error { return pgx.ErrNoRows }
	ctx, rec = newJSONCtx(e, http.MethodPost, "", "user_id", "5")
	require.NoError(t, ResetUserPasswordHandler(nil)(ctx))
	require.Equal(t, http.StatusNotFound, rec.Code)

	var hash string
	updateUserPassword = func(_ context.Context, _ database.Querier, _ int, h string) error { hash = h; return nil }
	ctx, rec = newJSONCtx(e, http.MethodPost, "", "user_id", "5")
	require.NoError(t, ResetUserPasswordHandler(nil)(ctx))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"password":"newpass"}`, rec.Body.String())
	require.NoError(t, service.ComparePassword(hash, "newpass"))
}

func TestUserGroupHandlers(t *testing.T) {
	t.Cleanup(restore)
	e := newEcho()
	stubUser(&model.User{ID: 5})

	getGroupByName = func(context.Context, database.Querier, string) (*model.Group, error) { return nil, pgx.ErrNoRows }
	ctx, rec := newJSONCtx(e, http.MethodPost, "", "user_id", "5", "group", "Nope")
	require.NoError(t, AddUserGroupHandler(nil)(ctx))
	require.Equal(t, http.StatusNotFound, rec.Code)

	getGroupByName = func(_ context.Context, _ database.Querier, name string) (*model.Group, error) {
		return &model.Group{ID: 2, Name: name}, nil
	}
	var added, removed [2]int
	addUserToGroup = func(_ context.Context, _ database.Querier, u, g int) error { added = [2]int{u, g}; return nil }
	removeUserFromGroup = func(_ context.Context, _ database.Querier, u, g int) error { removed = [2]int{u, g}; return nil }

	ctx, rec = newJSONCtx(e, http.MethodPost, "", "user_id", "5", "group", "Editors")
	require.NoError(t, AddUserGroupHandler(nil)(ctx))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, [2]int{5, 2}, added)

	ctx, rec = newJSONCtx(e, http.MethodDelete, "", "user_id", "5", "group", "Editors")
	require.NoError(t, RemoveUserGroupHandler(nil)(ctx))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, [2]int{5, 2}, removed)
}
