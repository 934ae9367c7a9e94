package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

// Tx is the minimal transactional surface: select/updateRow/deleteWhere/
// insert, plus commit/rollback. A Tx is opened, used, and released within
// a single mutation call; it is never held across calls.
type Tx struct {
	tx *sql.Tx
}

// BeginTx opens a transaction. Callers must defer tx.Rollback() and call
// Commit explicitly on the success path.
func (s *Store) BeginTx(ctx context.Context) (*Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: begin transaction: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// Rollback rolls back the transaction. Calling it after a successful
// Commit is a no-op error from database/sql that callers ignore via
// defer.
func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

// Select runs a SELECT against table restricted by whereSQL (no leading
// "WHERE"), ordered by orderBySQL (no leading "ORDER BY"), returning the
// requested columns. Callers must close the returned rows.
func (t *Tx) Select(ctx context.Context, table string, columns []string, whereSQL string, args []any, orderBySQL string) (*sql.Rows, error) {
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(columns, ", "), table)
	if whereSQL != "" {
		query += " WHERE " + whereSQL
	}
	if orderBySQL != "" {
		query += " ORDER BY " + orderBySQL
	}
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: select from %s: %w", table, err)
	}
	return rows, nil
}

// SelectOne runs Select and scans at most one row via scan, reporting
// ok=false when no row matched.
func (t *Tx) SelectOne(ctx context.Context, table string, columns []string, whereSQL string, args []any, scan func(*sql.Rows) error) (bool, error) {
	rows, err := t.Select(ctx, table, columns, whereSQL, args, "")
	if err != nil {
		return false, err
	}
	defer rows.Close()

	if !rows.Next() {
		return false, rows.Err()
	}
	if err := scan(rows); err != nil {
		return false, fmt.Errorf("store: scan row from %s: %w", table, err)
	}
	return true, rows.Err()
}

// UpdateRow sets the named columns of the row identified by pkColumn ==
// pkValue. set's keys are iterated in sorted order so the generated SQL
// (and its parameter ordering) is deterministic.
func (t *Tx) UpdateRow(ctx context.Context, table, pkColumn string, pkValue any, set map[string]any) error {
	if len(set) == 0 {
		return fmt.Errorf("store: updateRow on %s: empty column set", table)
	}
	cols := make([]string, 0, len(set))
	for c := range set {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	assignments := make([]string, len(cols))
	args := make([]any, 0, len(cols)+1)
	for i, c := range cols {
		assignments[i] = c + " = ?"
		args = append(args, set[c])
	}
	args = append(args, pkValue)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?", table, strings.Join(assignments, ", "), pkColumn)
	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("store: updateRow on %s: %w", table, err)
	}
	return nil
}

// DeleteWhere deletes every row matching whereSQL and returns the number
// of rows removed.
func (t *Tx) DeleteWhere(ctx context.Context, table, whereSQL string, args []any) (int64, error) {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s", table, whereSQL)
	result, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("store: deleteWhere on %s: %w", table, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store: deleteWhere on %s: rows affected: %w", table, err)
	}
	return n, nil
}

// InsertRow inserts values into table and returns the generated primary
// key. values's keys are iterated in sorted order for deterministic SQL.
func (t *Tx) InsertRow(ctx context.Context, table string, values map[string]any) (int64, error) {
	cols := make([]string, 0, len(values))
	for c := range values {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	placeholders := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, c := range cols {
		placeholders[i] = "?"
		args[i] = values[c]
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	result, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("store: insertRow into %s: %w", table, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: insertRow into %s: last insert id: %w", table, err)
	}
	return id, nil
}
