package groups

import (
	"net/http"

	"library-hub/internal/api"
	"library-hub/internal/apperrors"
	"library-hub/internal/database"
	"library-hub/internal/service"
	"library-hub/internal/store"

	"github.com/labstack/echo/v4"
)

var (
	listGroups      = store.ListGroups
	listPermissions = store.ListPermissions
	setupGroups     = service.SetupGroups
)

// @Summary     List groups
// @Tags        groups
// @Produce     json
// @Success     200 {array}  api.GroupResponse
// @Failure     403 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /groups [get]
func ListGroupsHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		list, err := listGroups(c.Request().Context(), db)
		if err != nil {
			return apperrors.Respond(c, err)
		}
		out := make([]api.GroupResponse, 0, len(list))
		for _, g := range list {
			perms := g.Permissions
			if perms == nil {
				perms = []string{}
			}
			out = append(out, api.GroupResponse{ID: g.ID, Name: g.Name, Permissions: perms})
		}
		return c.JSON(http.StatusOK, out)
	}
}

// @Summary     Create default groups
// @Description 建立 Viewers、Editors、Admins；已存在的群組不會變更
// @Tags        groups
// @Produce     json
// @Success     200 {array}  api.GroupSetupResponse
// @Failure     403 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /groups/setup [post]
func SetupGroupsHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		results, err := setupGroups(c.Request().Context(), db)
		if err != nil {
			return apperrors.Respond(c, err)
		}
		out := make([]api.GroupSetupResponse, 0, len(results))
		for _, r := range results {
			out = append(out, api.GroupSetupResponse{Name: r.Name, Created: r.Created, Permissions: r.Permissions})
		}
		return c.JSON(http.StatusOK, out)
	}
}

// @Summary     List permissions
// @Tags        groups
// @Produce     json
// @Success     200 {array}  api.PermissionResponse
// @Security    ApiKeyAuth
// @Router      /groups/permissions [get]
func ListPermissionsHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		list, err := listPermissions(c.Request().Context(), db)
		if err != nil {
			return apperrors.Respond(c, err)
		}
		out := make([]api.PermissionResponse, 0, len(list))
		for _, p := range list {
			out = append(out, api.PermissionResponse{ID: p.ID, Codename: p.String(), Name: p.Name})
		}
		return c.JSON(http.StatusOK, out)
	}
}
