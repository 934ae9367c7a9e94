package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/nstlib/nst/store"
)

// ValidateLive runs Validate, then checks the live database: each of
// spec's five columns must actually exist on spec.Table, and the three
// mandatory indexes of §6 must exist - a unique index covering path, and
// non-unique indexes (or one composite index) covering left, right, and
// level.
func (v *SchemaValidator) ValidateLive(ctx context.Context, s *store.Store, spec SchemaSpec) error {
	if err := v.Validate(spec); err != nil {
		return err
	}

	cols, err := tableColumns(ctx, s, spec.Table)
	if err != nil {
		return err
	}
	for field, name := range map[string]string{
		"pk": spec.PK, "path": spec.Path, "left": spec.Left, "right": spec.Right, "level": spec.Level,
	} {
		if _, ok := cols[strings.ToLower(name)]; !ok {
			return &ValidationError{Field: field, Message: fmt.Sprintf("column %q does not exist on table %q", name, spec.Table)}
		}
	}

	indexed, uniqueIndexed, err := indexedColumns(ctx, s, spec.Table)
	if err != nil {
		return err
	}
	if !uniqueIndexed[strings.ToLower(spec.Path)] {
		return &ValidationError{Field: "path", Message: fmt.Sprintf("column %q requires a unique index", spec.Path)}
	}
	for field, name := range map[string]string{"left": spec.Left, "right": spec.Right, "level": spec.Level} {
		if !indexed[strings.ToLower(name)] {
			return &ValidationError{Field: field, Message: fmt.Sprintf("column %q requires an index (unique or composite is acceptable)", name)}
		}
	}
	return nil
}

// tableColumns reads SQLite's table_info pragma for table, keyed by
// lower-cased column name (SQLite identifiers are case-insensitive for
// matching purposes, even though callers' configured names preserve case).
func tableColumns(ctx context.Context, s *store.Store, table string) (map[string]struct{}, error) {
	rows, err := s.DB().QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("schema: read table_info(%s): %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]struct{})
	for rows.Next() {
		var cid int
		var name, ctype string
		var notNull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("schema: scan table_info(%s): %w", table, err)
		}
		cols[strings.ToLower(name)] = struct{}{}
	}
	if len(cols) == 0 {
		return nil, &ValidationError{Field: "table", Message: fmt.Sprintf("table %q does not exist or has no columns", table)}
	}
	return cols, rows.Err()
}

// indexedColumns reports, per lower-cased column name, whether any index
// covers it at all (indexed) and whether any unique index covers it alone
// or as its leading column (uniqueIndexed) - path needs the latter, left/
// right/level only need the former.
func indexedColumns(ctx context.Context, s *store.Store, table string) (indexed, uniqueIndexed map[string]bool, err error) {
	indexed = make(map[string]bool)
	uniqueIndexed = make(map[string]bool)

	idxRows, err := s.DB().QueryContext(ctx, fmt.Sprintf("PRAGMA index_list(%s)", table))
	if err != nil {
		return nil, nil, fmt.Errorf("schema: read index_list(%s): %w", table, err)
	}
	defer idxRows.Close()

	type idxInfo struct {
		name   string
		unique bool
	}
	var indexes []idxInfo
	for idxRows.Next() {
		var seq int
		var name string
		var unique int
		var origin string
		var partial int
		if err := idxRows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			return nil, nil, fmt.Errorf("schema: scan index_list(%s): %w", table, err)
		}
		indexes = append(indexes, idxInfo{name: name, unique: unique != 0})
	}
	if err := idxRows.Err(); err != nil {
		return nil, nil, err
	}

	for _, idx := range indexes {
		colRows, err := s.DB().QueryContext(ctx, fmt.Sprintf("PRAGMA index_info(%s)", idx.name))
		if err != nil {
			return nil, nil, fmt.Errorf("schema: read index_info(%s): %w", idx.name, err)
		}
		first := true
		for colRows.Next() {
			var seqno, cid int
			var name string
			if err := colRows.Scan(&seqno, &cid, &name); err != nil {
				colRows.Close()
				return nil, nil, fmt.Errorf("schema: scan index_info(%s): %w", idx.name, err)
			}
			lname := strings.ToLower(name)
			indexed[lname] = true
			if idx.unique && first {
				uniqueIndexed[lname] = true
			}
			first = false
		}
		colRows.Close()
	}
	return indexed, uniqueIndexed, nil
}
