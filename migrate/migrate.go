package migrate

import (
	"context"
	"fmt"

	"github.com/nstlib/nst/nsterr"
	"github.com/nstlib/nst/pathcodec"
	"github.com/nstlib/nst/query"
	"github.com/nstlib/nst/store"
)

// Report summarizes one migration run: how many rows were backfilled, and
// the index DDL §6 still requires the caller to apply.
type Report struct {
	RowsTouched int
	IndexDDL    []string
}

// Migrator walks an existing table's path column and backfills
// left/right/level via pathcodec, through one *store.Store.
type Migrator struct {
	store *store.Store
	cols  query.ColumnSet
}

// New builds a Migrator for the given table/column configuration.
func New(s *store.Store, cols query.ColumnSet) *Migrator {
	return &Migrator{store: s, cols: cols}
}

// Run streams every row of the configured table, computes left/right/level
// from its path column via pathcodec, and writes them back in one
// transaction. It never reorders or renumbers rows - it trusts the
// existing path values as the ground truth the caller has already
// populated per §6(a).
func (m *Migrator) Run(ctx context.Context) (Report, error) {
	tx, err := m.store.BeginTx(ctx)
	if err != nil {
		return Report{}, err
	}
	defer tx.Rollback()

	touched, err := m.backfill(ctx, tx)
	if err != nil {
		return Report{}, err
	}

	if err := tx.Commit(); err != nil {
		return Report{}, nsterr.DatabaseFailure("migrate Run commit", err)
	}

	return Report{RowsTouched: touched, IndexDDL: m.indexDDL()}, nil
}

func (m *Migrator) backfill(ctx context.Context, tx *store.Tx) (int, error) {
	rows, err := tx.Select(ctx, m.cols.Table, []string{m.cols.PK, m.cols.Path}, "", nil, m.cols.PK+" ASC")
	if err != nil {
		return 0, nsterr.DatabaseFailure("migrate backfill select", err)
	}

	type pending struct {
		pk   any
		path string
	}
	var batch []pending
	for rows.Next() {
		var pk any
		var path string
		if err := rows.Scan(&pk, &path); err != nil {
			rows.Close()
			return 0, nsterr.DatabaseFailure("migrate backfill scan", err)
		}
		batch = append(batch, pending{pk: pk, path: path})
	}
	scanErr := rows.Err()
	rows.Close()
	if scanErr != nil {
		return 0, nsterr.DatabaseFailure("migrate backfill iterate", scanErr)
	}

	touched := 0
	for _, p := range batch {
		matrix, err := pathcodec.FromPath(p.path)
		if err != nil {
			return touched, fmt.Errorf("migrate: row %v: %w", p.pk, err)
		}
		level, err := pathcodec.LevelOfPath(p.path)
		if err != nil {
			return touched, fmt.Errorf("migrate: row %v: %w", p.pk, err)
		}
		left, _ := pathcodec.Left(matrix).Float64()
		right, _ := pathcodec.Right(matrix).Float64()

		set := map[string]any{
			m.cols.Left:  left,
			m.cols.Right: right,
			m.cols.Level: int64(level),
		}
		if err := tx.UpdateRow(ctx, m.cols.Table, m.cols.PK, p.pk, set); err != nil {
			return touched, nsterr.DatabaseFailure("migrate backfill update", err)
		}
		touched++
	}
	return touched, nil
}

// indexDDL reports the four indexes §6 requires, named deterministically
// from the table and column, but does not execute them.
func (m *Migrator) indexDDL() []string {
	return []string{
		fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS idx_%s_%s ON %s (%s)", m.cols.Table, m.cols.Path, m.cols.Table, m.cols.Path),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s (%s)", m.cols.Table, m.cols.Left, m.cols.Table, m.cols.Left),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s (%s)", m.cols.Table, m.cols.Right, m.cols.Table, m.cols.Right),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s (%s)", m.cols.Table, m.cols.Level, m.cols.Table, m.cols.Level),
	}
}
