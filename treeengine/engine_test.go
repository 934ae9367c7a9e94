package treeengine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nstlib/nst/nsterr"
	"github.com/nstlib/nst/query"
	"github.com/nstlib/nst/store"
)

var testCols = query.ColumnSet{Table: "nodes", PK: "id", Path: "path", Left: "lft", Right: "rgt", Level: "lvl"}

func openEngine(t *testing.T) (*Engine, *store.Store) {
	t.Helper()
	s, err := store.Open(":memory:")
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
	return New(s, testCols, 0), s
}

func pathOf(t *testing.T, s *store.Store, pk any) string {
	t.Helper()
	var path string
	err := s.DB().QueryRow("SELECT path FROM nodes WHERE id = ?", pk).Scan(&path)
	require.NoError(t, err)
	return path
}

func allPaths(t *testing.T, s *store.Store) []string {
	t.Helper()
	rows, err := s.DB().Query("SELECT path FROM nodes ORDER BY lft ASC")
	require.NoError(t, err)
	defer rows.Close()
	var paths []string
	for rows.Next() {
		var p string
		require.NoError(t, rows.Scan(&p))
		paths = append(paths, p)
	}
	require.NoError(t, rows.Err())
	return paths
}

func TestSaveAllocatesSuccessiveRoots(t *testing.T) {
	e, s := openEngine(t)
	ctx := context.Background()

	first, err := e.Save(ctx, Ref{}, map[string]any{"name": "a"})
	require.NoError(t, err)
	require.Equal(t, "1", first.Path)

	second, err := e.Save(ctx, Ref{}, map[string]any{"name": "b"})
	require.NoError(t, err)
	require.Equal(t, "2", second.Path)

	require.Equal(t, []string{"1", "2"}, allPaths(t, s))
}

func TestSaveOnExistingRecordOnlyUpdatesFields(t *testing.T) {
	e, s := openEngine(t)
	ctx := context.Background()

	root, err := e.Save(ctx, Ref{}, map[string]any{"name": "a"})
	require.NoError(t, err)

	updated, err := e.Save(ctx, root, map[string]any{"name": "renamed"})
	require.NoError(t, err)
	require.Equal(t, root.Path, updated.Path)

	var name string
	require.NoError(t, s.DB().QueryRow("SELECT name FROM nodes WHERE id = ?", root.PK).Scan(&name))
	require.Equal(t, "renamed", name)
}

func TestSaveIntoAppendsSuccessiveChildren(t *testing.T) {
	e, _ := openEngine(t)
	ctx := context.Background()

	root, err := e.Save(ctx, Ref{}, nil)
	require.NoError(t, err)

	child1, err := e.SaveInto(ctx, Ref{}, root.Path, map[string]any{"name": "c1"})
	require.NoError(t, err)
	require.Equal(t, "1.1", child1.Path)

	child2, err := e.SaveInto(ctx, Ref{}, root.Path, map[string]any{"name": "c2"})
	require.NoError(t, err)
	require.Equal(t, "1.2", child2.Path)
}

func TestSaveBeforeInsertsNewRecordAndShiftsLaterSiblings(t *testing.T) {
	e, s := openEngine(t)
	ctx := context.Background()

	r1, err := e.Save(ctx, Ref{}, nil)
	require.NoError(t, err)
	r2, err := e.Save(ctx, Ref{}, nil)
	require.NoError(t, err)
	require.Equal(t, "1", r1.Path)
	require.Equal(t, "2", r2.Path)

	inserted, err := e.SaveBefore(ctx, Ref{}, r2.Path, map[string]any{"name": "between"})
	require.NoError(t, err)
	require.Equal(t, "2", inserted.Path)

	require.Equal(t, "3", pathOf(t, s, r2.PK))
	require.Equal(t, []string{"1", "2", "3"}, allPaths(t, s))
}

func TestSaveAfterWithNextSiblingInsertsBetween(t *testing.T) {
	e, s := openEngine(t)
	ctx := context.Background()

	r1, err := e.Save(ctx, Ref{}, nil)
	require.NoError(t, err)
	r2, err := e.Save(ctx, Ref{}, nil)
	require.NoError(t, err)

	inserted, err := e.SaveAfter(ctx, Ref{}, r1.Path, map[string]any{"name": "between"})
	require.NoError(t, err)
	require.Equal(t, "2", inserted.Path)
	require.Equal(t, "3", pathOf(t, s, r2.PK))
}

func TestSaveAfterOnLastSiblingAppends(t *testing.T) {
	e, _ := openEngine(t)
	ctx := context.Background()

	r1, err := e.Save(ctx, Ref{}, nil)
	require.NoError(t, err)

	appended, err := e.SaveAfter(ctx, Ref{}, r1.Path, map[string]any{"name": "after"})
	require.NoError(t, err)
	require.Equal(t, "2", appended.Path)
}

func TestSaveIntoRelocatesExistingSubtree(t *testing.T) {
	e, s := openEngine(t)
	ctx := context.Background()

	root1, err := e.Save(ctx, Ref{}, nil)
	require.NoError(t, err)
	_, err = e.SaveInto(ctx, Ref{}, root1.Path, map[string]any{"name": "1.1"})
	require.NoError(t, err)
	root2, err := e.Save(ctx, Ref{}, nil)
	require.NoError(t, err)
	leaf, err := e.SaveInto(ctx, Ref{}, root2.Path, map[string]any{"name": "2.1"})
	require.NoError(t, err)

	moving := Ref{PK: root2.PK, Path: root2.Path}
	moved, err := e.SaveInto(ctx, moving, root1.Path, nil)
	require.NoError(t, err)
	require.Equal(t, "1.2", moved.Path)
	require.Equal(t, "1.2.1", pathOf(t, s, leaf.PK))
}

func TestSaveIntoSkipsPositionalWorkWhenCanMoveIsFalse(t *testing.T) {
	e, _ := openEngine(t)
	ctx := context.Background()

	root, err := e.Save(ctx, Ref{}, nil)
	require.NoError(t, err)
	child, err := e.SaveInto(ctx, Ref{}, root.Path, map[string]any{"name": "c"})
	require.NoError(t, err)

	// moving root into its own child is rejected silently; scalar fields
	// still save.
	movingRoot := Ref{PK: root.PK, Path: root.Path}
	result, err := e.SaveInto(ctx, movingRoot, child.Path, map[string]any{"name": "renamed"})
	require.NoError(t, err)
	require.Equal(t, root.Path, result.Path)
}

func TestDeleteRemovesSubtreeAndClosesGap(t *testing.T) {
	e, s := openEngine(t)
	ctx := context.Background()

	r1, err := e.Save(ctx, Ref{}, nil)
	require.NoError(t, err)
	_, err = e.SaveInto(ctx, Ref{}, r1.Path, nil)
	require.NoError(t, err)
	r2, err := e.Save(ctx, Ref{}, nil)
	require.NoError(t, err)

	n, err := e.Delete(ctx, Ref{PK: r1.PK, Path: r1.Path})
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	require.Equal(t, "1", pathOf(t, s, r2.PK))

	var count int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM nodes").Scan(&count))
	require.Equal(t, 1, count)
}

func TestWouldExceedMaxLevelBlocksDeepMove(t *testing.T) {
	e, s := openEngine(t)
	ctx := context.Background()

	root, err := e.Save(ctx, Ref{}, nil)
	require.NoError(t, err)
	child, err := e.SaveInto(ctx, Ref{}, root.Path, nil)
	require.NoError(t, err)
	other, err := e.Save(ctx, Ref{}, nil)
	require.NoError(t, err)
	_, err = e.SaveInto(ctx, Ref{}, other.Path, nil)
	require.NoError(t, err)

	// moving "2" (with its child "2.1") under "1.1" would put "2.1" at level 4.
	capped := New(s, testCols, 2)
	_, err = capped.SaveInto(ctx, Ref{PK: other.PK, Path: other.Path}, child.Path, nil)
	require.Error(t, err)
	require.True(t, nsterr.IsInvariantViolation(err))
}
