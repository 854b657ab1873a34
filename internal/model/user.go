package model

import (
	"strings"
	"time"
)

// 使用者角色，存放於 user_profiles.role
const (
	RoleAdmin     = "Admin"
	RoleLibrarian = "Librarian"
	RoleMember    = "Member"
)

// ValidRole 檢查角色是否為三種之一
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleLibrarian, RoleMember:
		return true
	}
	return false
}

type User struct {
	ID           int        `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FirstName    string     `db:"first_name" json:"first_name"`
	LastName     string     `db:"last_name" json:"last_name"`
	DateOfBirth  *time.Time `db:"date_of_birth" json:"date_of_birth"`
	ProfilePhoto *string    `db:"profile_photo" json:"profile_photo"`
	IsStaff      bool       `db:"is_staff" json:"is_staff"`
	IsSuperuser  bool       `db:"is_superuser" json:"is_superuser"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login"`
	DateJoined   time.Time  `db:"date_joined" json:"date_joined"`
	// Role 來自 user_profiles
	Role string `db:"role" json:"role"`
}

// FullName 回傳 "first last"，皆空時退回 username
func (u User) FullName() string {
	full := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if full == "" {
		return u.Username
	}
	return full
}

// Age 以 now 計算滿幾歲，未填生日回傳 nil
func (u User) Age(now time.Time) *int {
	if u.DateOfBirth == nil {
		return nil
	}
	dob := *u.DateOfBirth
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return &age
}

type UserProfile struct {
	UserID     int       `db:"user_id" json:"user_id"`
	Role       string    `db:"role" json:"role"`
	Bio        string    `db:"bio" json:"bio"`
	DateJoined time.Time `db:"date_joined" json:"date_joined"`
}
