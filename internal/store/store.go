package store

import (
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// psql 產生 $1, $2 ... 佔位符的查詢
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// scanner 由 pgx.Row 與 pgx.Rows 共同實作
type scanner interface {
	Scan(dest ...any) error
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern 產生 ILIKE '%value%' 用的樣式，並跳脫萬用字元
func containsPattern(v string) string {
	return "%" + likeEscaper.Replace(v) + "%"
}

// affected 在沒有任何列被異動時回傳 pgx.ErrNoRows
func affected(tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
