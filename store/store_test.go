package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.EnsureSchema(`
		CREATE TABLE IF NOT EXISTS nodes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			path TEXT UNIQUE NOT NULL,
			lft REAL NOT NULL,
			rgt REAL NOT NULL,
			lvl INTEGER NOT NULL,
			name TEXT
		)
	`))
	return s
}

func TestOpenAppliesPragmas(t *testing.T) {
	s := openTestStore(t)

	var mode string
	require.NoError(t, s.DB().QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "memory", mode)

	var fk int
	require.NoError(t, s.DB().QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestInsertSelectUpdateDeleteRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)

	id, err := tx.InsertRow(ctx, "nodes", map[string]any{
		"path": "1", "lft": 1.0, "rgt": 2.0, "lvl": int64(1), "name": "root",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	require.NoError(t, tx.UpdateRow(ctx, "nodes", "id", id, map[string]any{"name": "renamed"}))

	var name string
	ok, err := tx.SelectOne(ctx, "nodes", []string{"name"}, "id = ?", []any{id}, func(rows *sql.Rows) error {
		return rows.Scan(&name)
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "renamed", name)

	n, err := tx.DeleteWhere(ctx, "nodes", "id = ?", []any{id})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, tx.Commit())
}

func TestSelectOneReportsNoRow(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	var name string
	ok, err := tx.SelectOne(ctx, "nodes", []string{"name"}, "id = ?", []any{999}, func(rows *sql.Rows) error {
		return rows.Scan(&name)
	})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRollbackDiscardsChanges(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	_, err = tx.InsertRow(ctx, "nodes", map[string]any{
		"path": "1", "lft": 1.0, "rgt": 2.0, "lvl": int64(1),
	})
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	tx2, err := s.BeginTx(ctx)
	require.NoError(t, err)
	defer tx2.Rollback()

	var count int
	_, err = tx2.SelectOne(ctx, "nodes", []string{"COUNT(*)"}, "", nil, func(rows *sql.Rows) error {
		return rows.Scan(&count)
	})
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestUserVersionRoundTrip(t *testing.T) {
	s := openTestStore(t)

	v, err := s.UserVersion()
	require.NoError(t, err)
	assert.Equal(t, 0, v)

	require.NoError(t, s.SetUserVersion(3))
	v, err = s.UserVersion()
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}
