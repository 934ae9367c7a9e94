package treeengine

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nstlib/nst/nsterr"
	"github.com/nstlib/nst/query"
	"github.com/nstlib/nst/store"
)

// loadByPath resolves a path string to a Ref by a point query, failing
// with InvalidItemConfiguration when the path does not exist - the
// resolution rule every §4.5 operation applies to a string target.
func loadByPath(ctx context.Context, tx *store.Tx, cols query.ColumnSet, path string) (Ref, error) {
	var pk any
	ok, err := tx.SelectOne(ctx, cols.Table, []string{cols.PK, cols.Path}, cols.Path+" = ?", []any{path}, func(rows *sql.Rows) error {
		var scannedPath string
		if err := rows.Scan(&pk, &scannedPath); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return Ref{}, nsterr.DatabaseFailure("loadByPath", err)
	}
	if !ok {
		return Ref{}, nsterr.InvalidItemConfiguration(path, "path does not resolve to an existing row")
	}
	return RefFromPath(pk, path)
}

// loadRowByPath is loadByPath plus the raw values of extra columns, in the
// order given - the escape hatch node.Record uses to read its Attrs
// payload column alongside the tree columns in one query.
func loadRowByPath(ctx context.Context, tx *store.Tx, cols query.ColumnSet, path string, extra []string) (Ref, []any, error) {
	selectCols := append([]string{cols.PK, cols.Path}, extra...)
	var pk any
	var p string
	vals := make([]any, len(extra))
	targets := make([]any, 0, len(selectCols))
	targets = append(targets, &pk, &p)
	for i := range extra {
		targets = append(targets, &vals[i])
	}

	ok, err := tx.SelectOne(ctx, cols.Table, selectCols, cols.Path+" = ?", []any{path}, func(rows *sql.Rows) error {
		return rows.Scan(targets...)
	})
	if err != nil {
		return Ref{}, nil, nsterr.DatabaseFailure("loadRowByPath", err)
	}
	if !ok {
		return Ref{}, nil, nsterr.InvalidItemConfiguration(path, "path does not resolve to an existing row")
	}
	ref, err := RefFromPath(pk, p)
	if err != nil {
		return Ref{}, nil, err
	}
	return ref, vals, nil
}

// refresh re-reads self's own row by primary key and rebuilds its Ref from
// the (possibly updated) path column.
func refresh(ctx context.Context, tx *store.Tx, cols query.ColumnSet, pk any) (Ref, error) {
	var path string
	ok, err := tx.SelectOne(ctx, cols.Table, []string{cols.Path}, cols.PK+" = ?", []any{pk}, func(rows *sql.Rows) error {
		return rows.Scan(&path)
	})
	if err != nil {
		return Ref{}, nsterr.DatabaseFailure("refresh", err)
	}
	if !ok {
		return Ref{}, nsterr.InvariantViolation("row disappeared mid-transaction", map[string]string{"pk": fmt.Sprint(pk)})
	}
	return RefFromPath(pk, path)
}

// queryRows runs a compiled query.Builder and returns the raw (pk, path)
// pairs, in the builder's compiled order.
func queryRows(ctx context.Context, tx *store.Tx, cols query.ColumnSet, b *query.Builder) ([]Ref, error) {
	compiled, err := b.Prepare()
	if err != nil {
		return nil, err
	}
	rows, err := tx.Select(ctx, cols.Table, []string{cols.PK, cols.Path}, compiled.Where, compiled.Args, compiled.OrderBy)
	if err != nil {
		return nil, nsterr.DatabaseFailure("queryRows", err)
	}
	defer rows.Close()

	var refs []Ref
	for rows.Next() {
		var pk any
		var path string
		if err := rows.Scan(&pk, &path); err != nil {
			return nil, nsterr.DatabaseFailure("queryRows scan", err)
		}
		ref, err := RefFromPath(pk, path)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, nsterr.DatabaseFailure("queryRows iterate", err)
	}
	return refs, nil
}

// nextSibling returns self's immediate next sibling, or ok=false if self
// is the last child (or a root with no later root).
func nextSibling(ctx context.Context, tx *store.Tx, cols query.ColumnSet, self Ref) (Ref, bool, error) {
	ref, err := self.reference()
	if err != nil {
		return Ref{}, false, err
	}
	b := query.New(cols).Siblings().Next().Bind(ref)
	refs, err := queryRows(ctx, tx, cols, b)
	if err != nil {
		return Ref{}, false, err
	}
	if len(refs) == 0 {
		return Ref{}, false, nil
	}
	return refs[0], true, nil
}

// lastChild returns the highest-last-segment child of parent, excluding
// excludePK if non-nil, or ok=false when parent has no other children.
func lastChild(ctx context.Context, tx *store.Tx, cols query.ColumnSet, parent Ref, excludePK any) (Ref, bool, error) {
	ref, err := parent.reference()
	if err != nil {
		return Ref{}, false, err
	}
	b := query.New(cols).Children().Bind(ref).Reverse()
	refs, err := queryRows(ctx, tx, cols, b)
	if err != nil {
		return Ref{}, false, err
	}
	for _, r := range refs {
		if excludePK != nil && r.PK == excludePK {
			continue
		}
		return r, true, nil
	}
	return Ref{}, false, nil
}

// lastRoot returns the highest-last-segment root, or ok=false when the
// forest is empty.
func lastRoot(ctx context.Context, tx *store.Tx, cols query.ColumnSet) (Ref, bool, error) {
	b := query.New(cols).Roots().Reverse()
	refs, err := queryRows(ctx, tx, cols, b)
	if err != nil {
		return Ref{}, false, err
	}
	if len(refs) == 0 {
		return Ref{}, false, nil
	}
	return refs[0], true, nil
}

// laterSiblingsQuery builds (without executing) the query for from and
// every later sibling together with all of their descendants: the gap-
// open/gap-close target of §4.5.6. Order descending is safe against a +1
// bump (left values increasing); ascending is safe against a -1 bump.
func laterSiblingsQuery(cols query.ColumnSet, ref query.Reference, descending bool) *query.Builder {
	b := query.New(cols).Siblings().Bind(ref).IncludeSelf().IncludeDescendants().Next()
	if descending {
		b = b.Reverse()
	}
	return b
}

// subtreeQuery builds (without executing) the query for self and every
// descendant.
func subtreeQuery(cols query.ColumnSet, ref query.Reference, descending bool) *query.Builder {
	b := query.New(cols).Children().Bind(ref).IncludeSelf().IncludeDescendants()
	if descending {
		b = b.Reverse()
	}
	return b
}
