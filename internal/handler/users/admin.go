package users

import (
	"net/http"

	"library-hub/internal/api"
	"library-hub/internal/apperrors"
	"library-hub/internal/database"
	"library-hub/internal/handler"
	"library-hub/internal/model"
	"library-hub/internal/service"

	"github.com/labstack/echo/v4"
)

// @Summary     Create a new user
// @Description 超級使用者建立帳號，is_superuser 為 true 時套用超級使用者規則
// @Tags        users
// @Accept      json
// @Produce     json
// @Param       body body     api.CreateUserRequest true "使用者資料"
// @Success     201  {object} api.UserResponse
// @Failure     400  {object} api.ErrorResponse
// @Failure     403  {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /users [post]
func CreateUserHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req api.CreateUserRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid request body"})
		}
		if err := c.Validate(&req); err != nil {
			return apperrors.Respond(c, apperrors.FromValidator(err))
		}
		dob, err := service.ParseDate(req.DateOfBirth)
		if err != nil {
			return apperrors.Respond(c, apperrors.FieldError("date_of_birth", "Enter a valid date in YYYY-MM-DD format."))
		}
		in := service.NewUserInput{
			Username:    req.Username,
			Email:       req.Email,
			Password:    req.Password,
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			DateOfBirth: dob,
			IsStaff:     req.IsStaff,
		}
		build := service.BuildUser
		if req.IsSuperuser {
			build = func(in service.NewUserInput) (*model.User, error) {
				return service.BuildSuperuser(in, service.SuperuserFlags{})
			}
		}
		u, err := build(in)
		if err != nil {
			return apperrors.Respond(c, apperrors.FieldError("non_field_errors", err.Error()))
		}
		created, err := createUser(c.Request().Context(), db, u)
		if err != nil {
			if apperrors.IsUniqueViolation(err) {
				return apperrors.Respond(c, apperrors.FieldError("username", "A user with that username already exists."))
			}
			return apperrors.Respond(c, err)
		}
		return c.JSON(http.StatusCreated, handler.UserResponse(created, nil))
	}
}

// @Summary     List users
// @Tags        users
// @Produce     json
// @Success     200 {array}  api.UserResponse
// @Failure     403 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /users [get]
func ListUsersHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		list, err := listUsers(c.Request().Context(), db)
		if err != nil {
			return apperrors.Respond(c, err)
		}
		out := make([]api.UserResponse, 0, len(list))
		for i := range list {
			out = append(out, handler.UserResponse(&list[i], nil))
		}
		return c.JSON(http.StatusOK, out)
	}
}

// @Summary     Get a user by ID
// @Description 透過 ID 查詢並回傳使用者詳細資料
// @Tags        users
// @Produce     json
// @Param       user_id   path      int  true  "使用者 ID"
// @Success     200  {object}  api.UserResponse
// @Failure     400  {object}  api.ErrorResponse  "參數錯誤"
// @Failure     404  {object}  api.ErrorResponse  "使用者不存在"
// @Security    ApiKeyAuth
// @Router      /users/{user_id} [get]
func GetUserHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.ParamID(c, "user_id")
		if !ok {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid user ID"})
		}
		resp, err := userWithGroups(c.Request().Context(), db, id)
		if err != nil {
			return apperrors.Respond(c, err)
		}
		return c.JSON(http.StatusOK, resp)
	}
}

// @Summary     Update a user by ID
// @Description 更新使用者資料，可另外調整 is_active 與 is_staff
// @Tags        users
// @Accept      json
// @Produce     json
// @Param       user_id  path     int                   true "使用者 ID"
// @Param       body     body     api.UpdateUserRequest true "使用者資料"
// @Success     200      {object} api.UserResponse
// @Failure     400      {object} api.ErrorResponse
// @Failure     404      {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /users/{user_id} [put]
func UpdateUserHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.ParamID(c, "user_id")
		if !ok {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid user ID"})
		}
		req, err := bindUpdate(c)
		if err != nil {
			return apperrors.Respond(c, err)
		}

		ctx := c.Request().Context()
		u, err := getUserByID(ctx, db, id)
		if err != nil {
			return apperrors.Respond(c, err)
		}
		if err := applyUpdate(u, req, true); err != nil {
			return apperrors.Respond(c, err)
		}
		if err := updateUser(ctx, db, u); err != nil {
			return apperrors.Respond(c, err)
		}
		resp, err := userWithGroups(ctx, db, id)
		if err != nil {
			return apperrors.Respond(c, err)
		}
		return c.JSON(http.StatusOK, resp)
	}
}

// @Summary     Delete a user by ID
// @Tags        users
// @Param       user_id   path      int  true  "使用者 ID"
// @Success     204  "No Content"
// @Failure     400  {object}  api.ErrorResponse  "參數錯誤"
// @Failure     404  {object}  api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /users/{user_id} [delete]
func DeleteUserHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.ParamID(c, "user_id")
		if !ok {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid user ID"})
		}
		if err := deleteUser(c.Request().Context(), db, id); err != nil {
			return apperrors.Respond(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

// @Summary     Change a user's role
// @Tags        users
// @Accept      json
// @Produce     json
// @Param       user_id path     int                   true "使用者 ID"
// @Param       body    body     api.UpdateRoleRequest true "角色"
// @Success     200     {object} api.UserResponse
// @Failure     400     {object} api.ErrorResponse
// @Failure     404     {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /users/{user_id}/role [put]
func UpdateUserRoleHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.ParamID(c, "user_id")
		if !ok {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid user ID"})
		}
		var req api.UpdateRoleRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid request body"})
		}
		if err := c.Validate(&req); err != nil {
			return apperrors.Respond(c, apperrors.FromValidator(err))
		}
		if !model.ValidRole(req.Role) {
			return apperrors.Respond(c, apperrors.FieldError("role", "Select a valid choice."))
		}

		ctx := c.Request().Context()
		if _, err := getUserByID(ctx, db, id); err != nil {
			return apperrors.Respond(c, err)
		}
		if err := setUserRole(ctx, db, id, req.Role); err != nil {
			return apperrors.Respond(c, err)
		}
		resp, err := userWithGroups(ctx, db, id)
		if err != nil {
			return apperrors.Respond(c, err)
		}
		return c.JSON(http.StatusOK, resp)
	}
}

// @Summary     Reset a user's password
// @Description 產生隨機密碼並回傳一次
// @Tags        users
// @Produce     json
// @Param       user_id path     int true "使用者 ID"
// @Success     200     {object} api.ResetPasswordResponse
// @Failure     404     {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /users/{user_id}/reset_password [post]
func ResetUserPasswordHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.ParamID(c, "user_id")
		if !ok {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid user ID"})
		}
		pw, err := randomPassword()
		if err != nil {
			return apperrors.Respond(c, err)
		}
		hash, err := hashPassword(pw)
		if err != nil {
			return apperrors.Respond(c, err)
		}
		if err := updateUserPassword(c.Request().Context(), db, id, hash); err != nil {
			return apperrors.Respond(c, err)
		}
		return c.JSON(http.StatusOK, api.ResetPasswordResponse{Password: pw})
	}
}

// @Summary     Add a user to a group
// @Tags        users
// @Param       user_id path int    true "使用者 ID"
// @Param       group   path string true "群組名稱"
// @Success     204 "No Content"
// @Failure     404 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /users/{user_id}/groups/{group} [post]
func AddUserGroupHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		return changeGroup(c, db, true)
	}
}

// @Summary     Remove a user from a group
// @Tags        users
// @Param       user_id path int    true "使用者 ID"
// @Param       group   path string true "群組名稱"
// @Success     204 "No Content"
// @Failure     404 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /users/{user_id}/groups/{group} [delete]
func RemoveUserGroupHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		return changeGroup(c, db, false)
	}
}

func changeGroup(c echo.Context, db database.DB, add bool) error {
	id, ok := handler.ParamID(c, "user_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid user ID"})
	}
	ctx := c.Request().Context()
	if _, err := getUserByID(ctx, db, id); err != nil {
		return apperrors.Respond(c, err)
	}
	g, err := getGroupByName(ctx, db, c.Param("group"))
	if err != nil {
		return apperrors.Respond(c, err)
	}
	if add {
		err = addUserToGroup(ctx, db, id, g.ID)
	} else {
		err = removeUserFromGroup(ctx, db, id, g.ID)
	}
	if err != nil {
		return apperrors.Respond(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
