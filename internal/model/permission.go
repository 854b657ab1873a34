package model

import (
	"fmt"
	"strings"
)

type Permission struct {
	ID          int    `db:"id" json:"id"`
	ContentType string `db:"content_type" json:"content_type"`
	Codename    string `db:"codename" json:"codename"`
	Name        string `db:"name" json:"name"`
}

// String 回傳 "content_type.codename"
func (p Permission) String() string {
	return p.ContentType + "." + p.Codename
}

// ParsePerm 拆解 "book.can_view"
func ParsePerm(perm string) (contentType, codename string, err error) {
	parts := strings.SplitN(perm, ".", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid permission %q", perm)
	}
	return parts[0], parts[1], nil
}

type Group struct {
	ID          int      `db:"id" json:"id"`
	Name        string   `db:"name" json:"name"`
	Permissions []string `json:"permissions"`
}
