package store

import (
	"context"
	"errors"
	"testing"

	"library-hub/internal/database"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestPermitted(t *testing.T) {
	require.False(t, permitted(false, true, true))
	require.True(t, permitted(true, true, false))
	require.True(t, permitted(true, false, true))
	require.False(t, permitted(true, false, false))
}

func TestHasPerm(t *testing.T) {
	ctx := context.Background()

	_, err := HasPerm(ctx, &database.FakeDB{}, 1, "nodot")
	require.Error(t, err)

	var gotArgs []any
	db := &database.FakeDB{QueryRowFn: func(_ context.Context, sql string, args ...any) pgx.Row {
		require.Contains(t, sql, "user_groups")
		require.Contains(t, sql, "user_permissions")
		gotArgs = args
		return &fakeRow{vals: []any{true, false, true}}
	}}
	ok, err := HasPerm(ctx, db, 7, "book.can_edit")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []any{7, "book", "can_edit"}, gotArgs)

	db.QueryRowFn = func(context.Context, string, ...any) pgx.Row { return &fakeRow{vals: []any{false, true, true}} }
	ok, err = HasPerm(ctx, db, 7, "book.can_edit")
	require.NoError(t, err)
	require.False(t, ok)

	db.QueryRowFn = func(context.Context, string, ...any) pgx.Row { return &fakeRow{scanErr: pgx.ErrNoRows} }
	ok, err = HasPerm(ctx, db, 7, "book.can_edit")
	require.NoError(t, err)
	require.False(t, ok)

	db.QueryRowFn = func(context.Context, string, ...any) pgx.Row { return &fakeRow{scanErr: errors.New("db")} }
	_, err = HasPerm(ctx, db, 7, "book.can_edit")
	require.Error(t, err)
}

func TestGetOrCreateGroup(t *testing.T) {
	ctx := context.Background()

	created := &database.FakeDB{QueryRowFn: func(context.Context, string, ...any) pgx.Row {
		return &fakeRow{vals: []any{4}}
	}}
	g, isNew, err := GetOrCreateGroup(ctx, created, "Editors")
	require.NoError(t, err)
	require.True(t, isNew)
	require.Equal(t, 4, g.ID)

	calls := 0
	existing := &database.FakeDB{QueryRowFn: func(_ context.Context, sql string, _ ...any) pgx.Row {
		calls++
		if calls == 1 {
			return &fakeRow{scanErr: pgx.ErrNoRows}
		}
		require.Contains(t, sql, "SELECT id FROM groups")
		return &fakeRow{vals: []any{2}}
	}}
	g, isNew, err = GetOrCreateGroup(ctx, existing, "Editors")
	require.NoError(t, err)
	require.False(t, isNew)
	require.Equal(t, 2, g.ID)
}

func TestAddGroupPermissions(t *testing.T) {
	ctx := context.Background()
	_, err := AddGroupPermissions(ctx, &database.FakeDB{}, 1, []string{"bad"})
	require.Error(t, err)

	db := &database.FakeDB{ExecFn: func(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
		require.Contains(t, sql, "unnest")
		require.Equal(t, []string{"book", "library"}, args[1])
		require.Equal(t, []string{"can_view", "can_view"}, args[2])
		return pgconn.NewCommandTag("INSERT 0 2"), nil
	}}
	n, err := AddGroupPermissions(ctx, db, 1, []string{"book.can_view", "library.can_view"})
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestListGroups(t *testing.T) {
	db := &database.FakeDB{QueryFn: func(context.Context, string, ...any) (pgx.Rows, error) {
		return &fakeRows{data: [][]any{{1, "Viewers", []string{"book.can_view"}}}}, nil
	}}
	groups, err := ListGroups(context.Background(), db)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Equal(t, []string{"book.can_view"}, groups[0].Permissions)
}
