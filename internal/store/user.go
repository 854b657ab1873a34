package store

import (
	"context"
	"fmt"
	"time"

	"library-hub/internal/database"
	"library-hub/internal/model"
)

const userColumns = `u.id, u.username, u.email, u.password_hash, u.first_name, u.last_name,
	u.date_of_birth, u.profile_photo, u.is_staff, u.is_superuser, u.is_active,
	u.last_login, u.date_joined, COALESCE(p.role, 'Member')`

const userFrom = `FROM users u LEFT JOIN user_profiles p ON p.user_id = u.id`

func scanUser(row scanner) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&u.DateOfBirth,
		&u.ProfilePhoto,
		&u.IsStaff,
		&u.IsSuperuser,
		&u.IsActive,
		&u.LastLogin,
		&u.DateJoined,
		&u.Role,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func GetUserByID(ctx context.Context, db database.Querier, userID int) (*model.User, error) {
	u, err := scanUser(db.QueryRow(ctx,
		`SELECT `+userColumns+` `+userFrom+` WHERE u.id = $1`,
		userID,
	))
	if err != nil {
		return nil, fmt.Errorf("GetUserByID: %w", err)
	}
	return u, nil
}

func GetUserByUsername(ctx context.Context, db database.Querier, username string) (*model.User, error) {
	u, err := scanUser(db.QueryRow(ctx,
		`SELECT `+userColumns+` `+userFrom+` WHERE u.username = $1`,
		username,
	))
	if err != nil {
		return nil, fmt.Errorf("GetUserByUsername: %w", err)
	}
	return u, nil
}

func ListUsers(ctx context.Context, db database.Querier) ([]model.User, error) {
	rows, err := db.Query(ctx, `SELECT `+userColumns+` `+userFrom+` ORDER BY u.id`)
	if err != nil {
		return nil, fmt.Errorf("ListUsers: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("ListUsers: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListUsers: %w", err)
	}
	return users, nil
}

// CreateUser 同一個語句內建立 users 與 user_profiles
func CreateUser(ctx context.Context, db database.Querier, u *model.User) (*model.User, error) {
	role := u.Role
	if role == "" {
		role = model.RoleMember
	}
	row := db.QueryRow(ctx,
		`WITH nu AS (
			INSERT INTO users (username, email, password_hash, first_name, last_name,
				date_of_birth, is_staff, is_superuser, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id, date_joined
		), np AS (
			INSERT INTO user_profiles (user_id, role)
			SELECT id, $10 FROM nu
			RETURNING role
		)
		SELECT nu.id, nu.date_joined, np.role FROM nu, np`,
		u.Username,
		u.Email,
		u.PasswordHash,
		u.FirstName,
		u.LastName,
		u.DateOfBirth,
		u.IsStaff,
		u.IsSuperuser,
		u.IsActive,
		role,
	)
	if err := row.Scan(&u.ID, &u.DateJoined, &u.Role); err != nil {
		return nil, fmt.Errorf("CreateUser: %w", err)
	}
	return u, nil
}

func UpdateUser(ctx context.Context, db database.Querier, u *model.User) error {
	tag, err := db.Exec(ctx,
		`UPDATE users
		 SET email = $1, first_name = $2, last_name = $3, date_of_birth = $4,
		     is_active = $5, is_staff = $6
		 WHERE id = $7`,
		u.Email,
		u.FirstName,
		u.LastName,
		u.DateOfBirth,
		u.IsActive,
		u.IsStaff,
		u.ID,
	)
	if err != nil {
		return fmt.Errorf("UpdateUser: %w", err)
	}
	if err := affected(tag); err != nil {
		return fmt.Errorf("UpdateUser: %w", err)
	}
	return nil
}

func UpdateUserPassword(ctx context.Context, db database.Querier, userID int, passwordHash string) error {
	tag, err := db.Exec(ctx,
		`UPDATE users
		 SET password_hash = $1
		 WHERE id = $2`,
		passwordHash,
		userID,
	)
	if err != nil {
		return fmt.Errorf("UpdateUserPassword: %w", err)
	}
	if err := affected(tag); err != nil {
		return fmt.Errorf("UpdateUserPassword: %w", err)
	}
	return nil
}

// UpdateUserPhoto 設定新的大頭照路徑並回傳舊的路徑
func UpdateUserPhoto(ctx context.Context, db database.Querier, userID int, photo *string) (*string, error) {
	var previous *string
	err := db.QueryRow(ctx,
		`UPDATE users u
		 SET profile_photo = $1
		 FROM (SELECT id, profile_photo FROM users WHERE id = $2) old
		 WHERE u.id = old.id
		 RETURNING old.profile_photo`,
		photo,
		userID,
	).Scan(&previous)
	if err != nil {
		return nil, fmt.Errorf("UpdateUserPhoto: %w", err)
	}
	return previous, nil
}

func UpdateLastLogin(ctx context.Context, db database.Querier, userID int, at time.Time) error {
	if _, err := db.Exec(ctx, `UPDATE users SET last_login = $1 WHERE id = $2`, at, userID); err != nil {
		return fmt.Errorf("UpdateLastLogin: %w", err)
	}
	return nil
}

func DeleteUser(ctx context.Context, db database.Querier, id int) error {
	tag, err := db.Exec(ctx,
		`DELETE FROM users WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("DeleteUser: %w", err)
	}
	if err := affected(tag); err != nil {
		return fmt.Errorf("DeleteUser: %w", err)
	}
	return nil
}

// SetUserRole 更新角色，缺少 profile 時補建
func SetUserRole(ctx context.Context, db database.Querier, userID int, role string) error {
	_, err := db.Exec(ctx,
		`INSERT INTO user_profiles (user_id, role) VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET role = EXCLUDED.role`,
		userID,
		role,
	)
	if err != nil {
		return fmt.Errorf("SetUserRole: %w", err)
	}
	return nil
}

func GetUserRole(ctx context.Context, db database.Querier, userID int) (string, error) {
	var role string
	err := db.QueryRow(ctx,
		`SELECT COALESCE(p.role, 'Member') `+userFrom+` WHERE u.id = $1`,
		userID,
	).Scan(&role)
	if err != nil {
		return "", fmt.Errorf("GetUserRole: %w", err)
	}
	return role, nil
}

func GetUserProfile(ctx context.Context, db database.Querier, userID int) (*model.UserProfile, error) {
	p := &model.UserProfile{}
	err := db.QueryRow(ctx,
		`SELECT user_id, role, bio, date_joined FROM user_profiles WHERE user_id = $1`,
		userID,
	).Scan(&p.UserID, &p.Role, &p.Bio, &p.DateJoined)
	if err != nil {
		return nil, fmt.Errorf("GetUserProfile: %w", err)
	}
	return p, nil
}
