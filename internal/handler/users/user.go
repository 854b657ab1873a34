package users

import (
	"context"

	"library-hub/internal/api"
	"library-hub/internal/apperrors"
	"library-hub/internal/database"
	"library-hub/internal/handler"
	"library-hub/internal/model"
	"library-hub/internal/service"
	"library-hub/internal/store"

	"github.com/labstack/echo/v4"
)

var (
	authenticateUser    = service.AuthenticateUser
	hashPassword        = service.HashPassword
	randomPassword      = service.RandomPassword
	createUser          = store.CreateUser
	getUserByID         = store.GetUserByID
	listUsers           = store.ListUsers
	updateUser          = store.UpdateUser
	updateUserPassword  = store.UpdateUserPassword
	updateUserPhoto     = store.UpdateUserPhoto
	deleteUser          = store.DeleteUser
	setUserRole         = store.SetUserRole
	listUserGroups      = store.ListUserGroups
	getGroupByName      = store.GetGroupByName
	addUserToGroup      = store.AddUserToGroup
	removeUserFromGroup = store.RemoveUserFromGroup
	revokeAccessToken   = service.RevokeAccessToken
)

// userWithGroups 讀取使用者並附上群組名稱
func userWithGroups(ctx context.Context, db database.DB, id int) (api.UserResponse, error) {
	u, err := getUserByID(ctx, db, id)
	if err != nil {
		return api.UserResponse{}, err
	}
	groups, err := listUserGroups(ctx, db, id)
	if err != nil {
		return api.UserResponse{}, err
	}
	return handler.UserResponse(u, groups), nil
}

// applyUpdate 將可編輯欄位寫回 model.User
func applyUpdate(u *model.User, req api.UpdateUserRequest, admin bool) error {
	dob, err := service.ParseDate(req.DateOfBirth)
	if err != nil {
		return apperrors.FieldError("date_of_birth", "Enter a valid date in YYYY-MM-DD format.")
	}
	u.Email = service.NormalizeEmail(req.Email)
	u.FirstName = req.FirstName
	u.LastName = req.LastName
	u.DateOfBirth = dob
	if admin {
		if req.IsActive != nil {
			u.IsActive = *req.IsActive
		}
		if req.IsStaff != nil {
			u.IsStaff = *req.IsStaff
		}
	}
	return nil
}

// bindUpdate 回傳的錯誤皆對應 400
func bindUpdate(c echo.Context) (api.UpdateUserRequest, error) {
	var req api.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return req, apperrors.FieldError("non_field_errors", "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return req, apperrors.FromValidator(err)
	}
	return req, nil
}
