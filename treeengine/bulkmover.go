package treeengine

import (
	"context"

	"github.com/nstlib/nst/matrix"
	"github.com/nstlib/nst/nsterr"
	"github.com/nstlib/nst/pathcodec"
	"github.com/nstlib/nst/query"
	"github.com/nstlib/nst/store"
)

// applyTransform is the bulk mover (D7): it drains b's matching rows into
// memory first, then transforms and persists them one at a time - the
// cursor itself must close before the per-row UpdateRow calls can reuse
// the same connection, so a streaming one-pass rewrite isn't available
// here. For each row it computes transform.Multiply(row.matrix()),
// derives the new path/left/right/level via pathcodec, and issues one
// UpdateRow through the store. excludePK, when non-nil, skips the one
// matching row without re-querying.
//
// The ORDER BY the caller already set on b (via Reverse/Natural) before
// calling in only chooses the order rows are rewritten in; it never
// changes which rows match.
func applyTransform(ctx context.Context, tx *store.Tx, cols query.ColumnSet, b *query.Builder, transform matrix.Matrix, excludePK any) (int, error) {
	compiled, err := b.Prepare()
	if err != nil {
		return 0, err
	}
	rows, err := tx.Select(ctx, cols.Table, []string{cols.PK, cols.Path}, compiled.Where, compiled.Args, compiled.OrderBy)
	if err != nil {
		return 0, nsterr.DatabaseFailure("applyTransform select", err)
	}
	defer rows.Close()

	type pending struct {
		pk   any
		path string
	}
	var batch []pending
	for rows.Next() {
		var pk any
		var path string
		if err := rows.Scan(&pk, &path); err != nil {
			return 0, nsterr.DatabaseFailure("applyTransform scan", err)
		}
		batch = append(batch, pending{pk: pk, path: path})
	}
	if err := rows.Err(); err != nil {
		return 0, nsterr.DatabaseFailure("applyTransform iterate", err)
	}
	rows.Close()

	touched := 0
	for _, p := range batch {
		if excludePK != nil && p.pk == excludePK {
			continue
		}
		m, err := pathcodec.FromPath(p.path)
		if err != nil {
			return touched, err
		}
		moved := transform.Multiply(m)
		newPath, err := pathcodec.ToPath(moved)
		if err != nil {
			return touched, nsterr.InvariantViolation("transformed matrix does not decode to a path", map[string]string{"old_path": p.path})
		}
		level, err := pathcodec.LevelOfPath(newPath)
		if err != nil {
			return touched, err
		}
		left, _ := pathcodec.Left(moved).Float64()
		right, _ := pathcodec.Right(moved).Float64()

		set := map[string]any{
			cols.Path:  newPath,
			cols.Left:  left,
			cols.Right: right,
			cols.Level: int64(level),
		}
		if err := tx.UpdateRow(ctx, cols.Table, cols.PK, p.pk, set); err != nil {
			return touched, nsterr.DatabaseFailure("applyTransform update", err)
		}
		touched++
	}
	return touched, nil
}
