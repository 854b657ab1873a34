package store

import (
	"context"
	"errors"
	"fmt"

	"library-hub/internal/database"
	"library-hub/internal/model"

	"github.com/jackc/pgx/v5"
)

// permitted：停用帳號一律拒絕，啟用中的超級使用者一律允許
func permitted(isActive, isSuperuser, granted bool) bool {
	if !isActive {
		return false
	}
	return isSuperuser || granted
}

// HasPerm 檢查使用者是否擁有 "content_type.codename"，直接授權與群組授權取聯集
func HasPerm(ctx context.Context, db database.Querier, userID int, perm string) (bool, error) {
	ct, code, err := model.ParsePerm(perm)
	if err != nil {
		return false, fmt.Errorf("HasPerm: %w", err)
	}
	var isActive, isSuperuser, granted bool
	err = db.QueryRow(ctx,
		`SELECT u.is_active, u.is_superuser, EXISTS (
			SELECT 1 FROM user_permissions up
			JOIN permissions p ON p.id = up.permission_id
			WHERE up.user_id = u.id AND p.content_type = $2 AND p.codename = $3
			UNION ALL
			SELECT 1 FROM user_groups ug
			JOIN group_permissions gp ON gp.group_id = ug.group_id
			JOIN permissions p ON p.id = gp.permission_id
			WHERE ug.user_id = u.id AND p.content_type = $2 AND p.codename = $3
		)
		FROM users u WHERE u.id = $1`,
		userID, ct, code,
	).Scan(&isActive, &isSuperuser, &granted)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("HasPerm: %w", err)
	}
	return permitted(isActive, isSuperuser, granted), nil
}

func ListPermissions(ctx context.Context, db database.Querier) ([]model.Permission, error) {
	rows, err := db.Query(ctx,
		`SELECT id, content_type, codename, name FROM permissions ORDER BY content_type, id`)
	if err != nil {
		return nil, fmt.Errorf("ListPermissions: %w", err)
	}
	defer rows.Close()

	var perms []model.Permission
	for rows.Next() {
		var p model.Permission
		if err := rows.Scan(&p.ID, &p.ContentType, &p.Codename, &p.Name); err != nil {
			return nil, fmt.Errorf("ListPermissions: %w", err)
		}
		perms = append(perms, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListPermissions: %w", err)
	}
	return perms, nil
}

// GrantUserPermission 直接授予使用者權限，不存在的權限回傳 pgx.ErrNoRows
func GrantUserPermission(ctx context.Context, db database.Querier, userID int, perm string) error {
	ct, code, err := model.ParsePerm(perm)
	if err != nil {
		return fmt.Errorf("GrantUserPermission: %w", err)
	}
	var permID int
	if err := db.QueryRow(ctx,
		`SELECT id FROM permissions WHERE content_type = $1 AND codename = $2`, ct, code,
	).Scan(&permID); err != nil {
		return fmt.Errorf("GrantUserPermission: %w", err)
	}
	if _, err := db.Exec(ctx,
		`INSERT INTO user_permissions (user_id, permission_id) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`, userID, permID,
	); err != nil {
		return fmt.Errorf("GrantUserPermission: %w", err)
	}
	return nil
}

// GetOrCreateGroup 回傳群組以及是否為新建立
func GetOrCreateGroup(ctx context.Context, db database.Querier, name string) (*model.Group, bool, error) {
	g := &model.Group{Name: name}
	err := db.QueryRow(ctx,
		`INSERT INTO groups (name) VALUES ($1) ON CONFLICT (name) DO NOTHING RETURNING id`,
		name,
	).Scan(&g.ID)
	if err == nil {
		return g, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("GetOrCreateGroup: %w", err)
	}
	if err := db.QueryRow(ctx, `SELECT id FROM groups WHERE name = $1`, name).Scan(&g.ID); err != nil {
		return nil, false, fmt.Errorf("GetOrCreateGroup: %w", err)
	}
	return g, false, nil
}

func GetGroupByName(ctx context.Context, db database.Querier, name string) (*model.Group, error) {
	g := &model.Group{}
	if err := db.QueryRow(ctx, `SELECT id, name FROM groups WHERE name = $1`, name).Scan(&g.ID, &g.Name); err != nil {
		return nil, fmt.Errorf("GetGroupByName: %w", err)
	}
	return g, nil
}

// AddGroupPermissions 將 perms 加入群組，回傳實際新增的筆數
func AddGroupPermissions(ctx context.Context, db database.Querier, groupID int, perms []string) (int, error) {
	cts := make([]string, 0, len(perms))
	codes := make([]string, 0, len(perms))
	for _, perm := range perms {
		ct, code, err := model.ParsePerm(perm)
		if err != nil {
			return 0, fmt.Errorf("AddGroupPermissions: %w", err)
		}
		cts = append(cts, ct)
		codes = append(codes, code)
	}
	tag, err := db.Exec(ctx,
		`INSERT INTO group_permissions (group_id, permission_id)
		 SELECT $1, p.id
		 FROM permissions p
		 JOIN unnest($2::text[], $3::text[]) AS x(content_type, codename)
		   ON p.content_type = x.content_type AND p.codename = x.codename
		 ON CONFLICT DO NOTHING`,
		groupID, cts, codes,
	)
	if err != nil {
		return 0, fmt.Errorf("AddGroupPermissions: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func CountGroupPermissions(ctx context.Context, db database.Querier, groupID int) (int, error) {
	var n int
	if err := db.QueryRow(ctx,
		`SELECT COUNT(*) FROM group_permissions WHERE group_id = $1`, groupID,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("CountGroupPermissions: %w", err)
	}
	return n, nil
}

func ListGroups(ctx context.Context, db database.Querier) ([]model.Group, error) {
	rows, err := db.Query(ctx,
		`SELECT g.id, g.name,
			COALESCE(array_agg(p.content_type || '.' || p.codename ORDER BY p.content_type, p.id)
				FILTER (WHERE p.id IS NOT NULL), '{}')
		 FROM groups g
		 LEFT JOIN group_permissions gp ON gp.group_id = g.id
		 LEFT JOIN permissions p ON p.id = gp.permission_id
		 GROUP BY g.id, g.name
		 ORDER BY g.name`)
	if err != nil {
		return nil, fmt.Errorf("ListGroups: %w", err)
	}
	defer rows.Close()

	var groups []model.Group
	for rows.Next() {
		var g model.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Permissions); err != nil {
			return nil, fmt.Errorf("ListGroups: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListGroups: %w", err)
	}
	return groups, nil
}

func ListUserGroups(ctx context.Context, db database.Querier, userID int) ([]string, error) {
	rows, err := db.Query(ctx,
		`SELECT g.name FROM user_groups ug JOIN groups g ON g.id = ug.group_id
		 WHERE ug.user_id = $1 ORDER BY g.name`, userID)
	if err != nil {
		return nil, fmt.Errorf("ListUserGroups: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("ListUserGroups: %w", err)
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListUserGroups: %w", err)
	}
	return names, nil
}

func AddUserToGroup(ctx context.Context, db database.Querier, userID, groupID int) error {
	if _, err := db.Exec(ctx,
		`INSERT INTO user_groups (user_id, group_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, groupID,
	); err != nil {
		return fmt.Errorf("AddUserToGroup: %w", err)
	}
	return nil
}

func RemoveUserFromGroup(ctx context.Context, db database.Querier, userID, groupID int) error {
	tag, err := db.Exec(ctx,
		`DELETE FROM user_groups WHERE user_id = $1 AND group_id = $2`, userID, groupID)
	if err != nil {
		return fmt.Errorf("RemoveUserFromGroup: %w", err)
	}
	if err := affected(tag); err != nil {
		return fmt.Errorf("RemoveUserFromGroup: %w", err)
	}
	return nil
}
