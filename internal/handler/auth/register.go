package auth

import (
	"net/http"

	"library-hub/internal/api"
	"library-hub/internal/apperrors"
	"library-hub/internal/database"
	"library-hub/internal/handler"
	"library-hub/internal/service"

	"github.com/labstack/echo/v4"
)

// RegisterHandler 建立一般使用者，profile 角色預設為 Member
// @Summary     註冊使用者
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       body body     api.RegisterRequest true "註冊資料"
// @Success     201  {object} api.UserResponse
// @Failure     400  {object} api.ErrorResponse
// @Router      /auth/register [post]
func RegisterHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req api.RegisterRequest
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
		u, err := service.BuildUser(service.NewUserInput{
			Username:    req.Username,
			Email:       req.Email,
			Password:    req.Password,
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			DateOfBirth: dob,
		})
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
