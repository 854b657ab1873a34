package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"library-hub/internal/database"
	"library-hub/internal/logger"
	"library-hub/internal/store"

	"gopkg.in/yaml.v3"
)

// GroupDefinition 預設群組與其權限
type GroupDefinition struct {
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

// DefaultGroups Viewers 只能檢視；Editors 可檢視、新增、編輯；Admins 擁有全部權限
var DefaultGroups = []GroupDefinition{
	{
		Name: "Viewers",
		Permissions: []string{
			"book.can_view", "library.can_view", "document.can_view",
		},
	},
	{
		Name: "Editors",
		Permissions: []string{
			"book.can_view", "book.can_create", "book.can_edit",
			"library.can_view", "library.can_create", "library.can_edit",
			"document.can_view", "document.can_create", "document.can_edit",
		},
	},
	{
		Name: "Admins",
		Permissions: []string{
			"book.can_view", "book.can_create", "book.can_edit", "book.can_delete",
			"library.can_view", "library.can_create", "library.can_edit", "library.can_delete",
			"document.can_view", "document.can_create", "document.can_edit", "document.can_delete",
		},
	},
}

// GroupSetupResult 單一群組的建立結果
type GroupSetupResult struct {
	Name        string
	Created     bool
	Permissions int
}

var (
	getOrCreateGroup      = store.GetOrCreateGroup
	addGroupPermissions   = store.AddGroupPermissions
	countGroupPermissions = store.CountGroupPermissions
	inTx                  = database.InTx
)

// LoadGroupDefinitions 讀取 YAML 群組定義：
//
//	groups:
//	  - name: Viewers
//	    permissions: [book.can_view]
func LoadGroupDefinitions(r io.Reader) ([]GroupDefinition, error) {
	var doc struct {
		Groups []GroupDefinition `yaml:"groups"`
	}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("LoadGroupDefinitions: %w", err)
	}
	if len(doc.Groups) == 0 {
		return nil, fmt.Errorf("LoadGroupDefinitions: no groups defined")
	}
	for _, g := range doc.Groups {
		if strings.TrimSpace(g.Name) == "" {
			return nil, fmt.Errorf("LoadGroupDefinitions: group without name")
		}
		for _, p := range g.Permissions {
			if ct, code, ok := strings.Cut(p, "."); !ok || ct == "" || code == "" {
				return nil, fmt.Errorf("LoadGroupDefinitions: %s: invalid permission %q", g.Name, p)
			}
		}
	}
	return doc.Groups, nil
}

// SetupGroups 建立預設群組
func SetupGroups(ctx context.Context, db database.DB) ([]GroupSetupResult, error) {
	return SetupGroupsFrom(ctx, db, DefaultGroups)
}

// SetupGroupsFrom 只有新建立的群組才會加入權限，已存在的群組維持原狀
func SetupGroupsFrom(ctx context.Context, db database.DB, defs []GroupDefinition) ([]GroupSetupResult, error) {
	results := make([]GroupSetupResult, 0, len(defs))
	err := inTx(ctx, db, func(q database.Querier) error {
		for _, def := range defs {
			g, created, err := getOrCreateGroup(ctx, q, def.Name)
			if err != nil {
				return err
			}
			if created {
				if _, err := addGroupPermissions(ctx, q, g.ID, def.Permissions); err != nil {
					return err
				}
			}
			n, err := countGroupPermissions(ctx, q, g.ID)
			if err != nil {
				return err
			}
			results = append(results, GroupSetupResult{Name: def.Name, Created: created, Permissions: n})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("SetupGroupsFrom: %w", err)
	}
	for _, r := range results {
		logger.Info().Str("group", r.Name).Bool("created", r.Created).Int("permissions", r.Permissions).Msg("group setup")
	}
	return results, nil
}
