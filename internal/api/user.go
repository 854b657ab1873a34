package api

import "time"

// swagger:model api.UserResponse
type UserResponse struct {
	ID           int        `json:"id" example:"1"`
	Username     string     `json:"username" example:"alice"`
	Email        string     `json:"email" example:"alice@example.com"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	FullName     string     `json:"full_name" example:"Alice Liddell"`
	DateOfBirth  *string    `json:"date_of_birth" example:"1990-05-01"`
	Age          *int       `json:"age" example:"34"`
	ProfilePhoto *string    `json:"profile_photo"`
	Role         string     `json:"role" example:"Member"`
	Groups       []string   `json:"groups"`
	IsStaff      bool       `json:"is_staff"`
	IsSuperuser  bool       `json:"is_superuser"`
	IsActive     bool       `json:"is_active"`
	LastLogin    *time.Time `json:"last_login"`
	DateJoined   time.Time  `json:"date_joined"`
}

// swagger:model api.CreateUserRequest
type CreateUserRequest struct {
	Username    string `json:"username" form:"username" validate:"required,max=150" example:"bob"`
	Email       string `json:"email" form:"email" validate:"required,email" example:"bob@example.com"`
	Password    string `json:"password" form:"password" example:"Secret123!"`
	FirstName   string `json:"first_name" form:"first_name" validate:"max=150"`
	LastName    string `json:"last_name" form:"last_name" validate:"max=150"`
	DateOfBirth string `json:"date_of_birth" form:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	IsStaff     bool   `json:"is_staff" form:"is_staff"`
	IsSuperuser bool   `json:"is_superuser" form:"is_superuser"`
}

// swagger:model api.UpdateUserRequest
type UpdateUserRequest struct {
	Email       string `json:"email" form:"email" validate:"required,email" example:"alice@example.com"`
	FirstName   string `json:"first_name" form:"first_name" validate:"max=150"`
	LastName    string `json:"last_name" form:"last_name" validate:"max=150"`
	DateOfBirth string `json:"date_of_birth" form:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	IsActive    *bool  `json:"is_active" form:"is_active"`
	IsStaff     *bool  `json:"is_staff" form:"is_staff"`
}

// swagger:model api.UpdateMyPasswordRequest
type UpdateMyPasswordRequest struct {
	OldPassword string `json:"old_password" form:"old_password" validate:"required" example:"OldSecret123!"`
	NewPassword string `json:"new_password" form:"new_password" validate:"required,min=8" example:"NewSecret456!"`
}

// swagger:model api.UpdateRoleRequest
type UpdateRoleRequest struct {
	Role string `json:"role" form:"role" validate:"required,oneof=Admin Librarian Member" example:"Librarian"`
}

// swagger:model api.ResetPasswordResponse
type ResetPasswordResponse struct {
	Password string `json:"password" example:"Xy7...random"`
}

// swagger:model api.GroupResponse
type GroupResponse struct {
	ID          int      `json:"id"`
	Name        string   `json:"name" example:"Editors"`
	Permissions []string `json:"permissions" example:"book.can_view,book.can_edit"`
}

// swagger:model api.PermissionResponse
type PermissionResponse struct {
	ID       int    `json:"id"`
	Codename string `json:"codename" example:"book.can_view"`
	Name     string `json:"name" example:"Can view book"`
}

// swagger:model api.GroupSetupResponse
type GroupSetupResponse struct {
	Name        string `json:"name" example:"Viewers"`
	Created     bool   `json:"created"`
	Permissions int    `json:"permissions" example:"3"`
}
