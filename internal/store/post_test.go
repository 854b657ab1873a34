package store

import (
	"context"
	"testing"
	"time"

	"library-hub/internal/database"
	"library-hub/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestPostWhere(t *testing.T) {
	sql, args, err := postWhere(psql.Select("1").From("posts p"), PostFilter{Query: "go", TagSlug: "web"}).ToSql()
	require.NoError(t, err)
	require.Contains(t, sql, "p.title ILIKE $1 OR p.content ILIKE $2")
	require.Contains(t, sql, "t.name ILIKE $3")
	require.Contains(t, sql, "t.slug = $4")
	require.Equal(t, []any{"%go%", "%go%", "%go%", "web"}, args)

	sql, _, err = postWhere(psql.Select("1").From("posts p"), PostFilter{}).ToSql()
	require.NoError(t, err)
	require.NotContains(t, sql, "WHERE")
}

func TestListPosts(t *testing.T) {
	now := time.Now().UTC()
	calls := 0
	db := &database.FakeDB{QueryFn: func(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
		calls++
		if calls == 1 {
			require.Contains(t, sql, "ORDER BY p.published_date DESC, p.id DESC")
			require.Contains(t, sql, "LIMIT 5 OFFSET 5")
			return &fakeRows{data: [][]any{
				{2, "second", "c", now, 1, "alice"},
				{1, "first", "c", now.Add(-time.Hour), 1, "alice"},
			}}, nil
		}
		require.Equal(t, []int{2, 1}, args[0])
		return &fakeRows{data: [][]any{{2, 1, "Go", "go"}}}, nil
	}}
	posts, err := ListPosts(context.Background(), db, PostFilter{}, 5, 5)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	require.Equal(t, []model.Tag{{ID: 1, Name: "Go", Slug: "go"}}, posts[0].Tags)
	require.Equal(t, []model.Tag{}, posts[1].Tags)
}

func TestCountPosts(t *testing.T) {
	db := &database.FakeDB{QueryRowFn: func(_ context.Context, sql string, args ...any) pgx.Row {
		require.Contains(t, sql, "SELECT COUNT(*) FROM posts p")
		return &fakeRow{vals: []any{12}}
	}}
	n, err := CountPosts(context.Background(), db, PostFilter{TagSlug: "go"})
	require.NoError(t, err)
	require.Equal(t, 12, n)
}

func TestSetPostTags(t *testing.T) {
	var stmts []string
	db := &database.FakeDB{ExecFn: func(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
		stmts = append(stmts, sql)
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	}}
	err := SetPostTags(context.Background(), db, 1, []model.Tag{{Name: "Go Lang", Slug: "go-lang"}})
	require.NoError(t, err)
	require.Len(t, stmts, 3)
	require.Contains(t, stmts[0], "INSERT INTO tags")
	require.Contains(t, stmts[1], "DELETE FROM post_tags")
	require.Contains(t, stmts[2], "INSERT INTO post_tags")

	stmts = nil
	require.NoError(t, SetPostTags(context.Background(), db, 1, nil))
	require.Len(t, stmts, 1)
}
