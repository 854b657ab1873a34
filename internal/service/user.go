package service

import (
	"errors"
	"strings"
	"time"

	"library-hub/internal/model"
)

var (
	ErrUsernameRequired = errors.New("The Username field must be set")
	ErrEmailRequired    = errors.New("The Email field must be set")
	ErrSuperuserStaff   = errors.New("Superuser must have is_staff=True.")
	ErrSuperuserFlag    = errors.New("Superuser must have is_superuser=True.")
)

// NormalizeEmail 僅將 @ 之後的網域轉小寫
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}

// NewUserInput 建立一般使用者或超級使用者的參數
type NewUserInput struct {
	Username    string
	Email       string
	Password    string
	FirstName   string
	LastName    string
	DateOfBirth *time.Time
	IsStaff     bool
	IsSuperuser bool
}

// BuildUser 檢查必填欄位、正規化 email 並雜湊密碼（空密碼視為不可用）
func BuildUser(in NewUserInput) (*model.User, error) {
	if strings.TrimSpace(in.Username) == "" {
		return nil, ErrUsernameRequired
	}
	if strings.TrimSpace(in.Email) == "" {
		return nil, ErrEmailRequired
	}
	hash, err := MakePassword(in.Password)
	if err != nil {
		return nil, err
	}
	return &model.User{
		Username:     strings.TrimSpace(in.Username),
		Email:        NormalizeEmail(in.Email),
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		DateOfBirth:  in.DateOfBirth,
		IsStaff:      in.IsStaff,
		IsSuperuser:  in.IsSuperuser,
		IsActive:     true,
		Role:         model.RoleMember,
	}, nil
}

// SuperuserFlags 未設定 (nil) 的旗標預設為 true
type SuperuserFlags struct {
	IsStaff     *bool
	IsSuperuser *bool
	IsActive    *bool
}

// BuildSuperuser 與 BuildUser 相同，但旗標明確設為 false 時拒絕建立
func BuildSuperuser(in NewUserInput, flags SuperuserFlags) (*model.User, error) {
	if flags.IsStaff != nil && !*flags.IsStaff {
		return nil, ErrSuperuserStaff
	}
	if flags.IsSuperuser != nil && !*flags.IsSuperuser {
		return nil, ErrSuperuserFlag
	}
	in.IsStaff = true
	in.IsSuperuser = true
	u, err := BuildUser(in)
	if err != nil {
		return nil, err
	}
	if flags.IsActive != nil {
		u.IsActive = *flags.IsActive
	}
	u.Role = model.RoleAdmin
	return u, nil
}

// ParseDate 解析 YYYY-MM-DD，空字串回傳 nil
func ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
