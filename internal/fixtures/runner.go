package fixtures

import (
	"context"
	"fmt"

	"github.com/nstlib/nst/node"
	"github.com/nstlib/nst/query"
	"github.com/nstlib/nst/store"
	"github.com/nstlib/nst/treeengine"
)

// Result is what Run reports: the resulting path set from the scenario's
// terminal Query (nil if the scenario has none), plus every alias's final
// path for direct assertions.
type Result struct {
	QueryPaths []string
	AliasPaths map[string]string
}

// Run executes scenario's Steps against engine/cols in order, then its
// terminal Query if present. Each alias's current path is always re-read
// by primary key immediately before use, since an earlier step may have
// shifted it as a side effect (a sibling insertion bumping later
// siblings, a deletion closing a gap).
func Run(ctx context.Context, s *store.Store, engine *treeengine.Engine, cols node.Columns, scenario *Scenario) (*Result, error) {
	aliasPK := make(map[string]any)

	for _, step := range scenario.Steps {
		if err := runStep(ctx, s, engine, cols, aliasPK, step); err != nil {
			return nil, fmt.Errorf("fixtures: scenario %q step %q: %w", scenario.Name, step.Alias, err)
		}
	}

	result := &Result{AliasPaths: make(map[string]string, len(aliasPK))}
	for alias, pk := range aliasPK {
		path, err := pathForPK(ctx, s, cols.ColumnSet, pk)
		if err != nil {
			return nil, fmt.Errorf("fixtures: scenario %q: resolving alias %q: %w", scenario.Name, alias, err)
		}
		result.AliasPaths[alias] = path
	}

	if scenario.Query != nil {
		paths, err := runQuery(ctx, s, engine, cols, aliasPK, scenario.Query)
		if err != nil {
			return nil, fmt.Errorf("fixtures: scenario %q query: %w", scenario.Name, err)
		}
		result.QueryPaths = paths
	}

	return result, nil
}

func runStep(ctx context.Context, s *store.Store, engine *treeengine.Engine, cols node.Columns, aliasPK map[string]any, step Step) error {
	if step.Action == "delete" {
		pk, ok := aliasPK[step.Alias]
		if !ok {
			return fmt.Errorf("alias %q was never created", step.Alias)
		}
		path, err := pathForPK(ctx, s, cols.ColumnSet, pk)
		if err != nil {
			return err
		}
		rec, err := node.Load(ctx, engine, cols, path)
		if err != nil {
			return err
		}
		if _, err := rec.Delete(ctx); err != nil {
			return err
		}
		delete(aliasPK, step.Alias)
		return nil
	}

	var targetPath string
	if step.Target != "" {
		targetPK, ok := aliasPK[step.Target]
		if !ok {
			return fmt.Errorf("target alias %q was never created", step.Target)
		}
		path, err := pathForPK(ctx, s, cols.ColumnSet, targetPK)
		if err != nil {
			return err
		}
		targetPath = path
	}

	moving := step.Action == "move_into" || step.Action == "move_before" || step.Action == "move_after"

	var rec *node.Record
	if moving {
		pk, ok := aliasPK[step.Alias]
		if !ok {
			return fmt.Errorf("alias %q was never created", step.Alias)
		}
		path, err := pathForPK(ctx, s, cols.ColumnSet, pk)
		if err != nil {
			return err
		}
		rec, err = node.Load(ctx, engine, cols, path)
		if err != nil {
			return err
		}
	} else {
		rec = node.New(engine, cols)
	}

	var err error
	switch step.Action {
	case "save":
		err = rec.Save(ctx)
	case "save_into", "move_into":
		err = rec.SaveInto(ctx, targetPath)
	case "save_before", "move_before":
		err = rec.SaveBefore(ctx, targetPath)
	case "save_after", "move_after":
		err = rec.SaveAfter(ctx, targetPath)
	default:
		return fmt.Errorf("unknown action %q", step.Action)
	}
	if err != nil {
		return err
	}
	aliasPK[step.Alias] = rec.PK()
	return nil
}

func runQuery(ctx context.Context, s *store.Store, engine *treeengine.Engine, cols node.Columns, aliasPK map[string]any, q *Query) ([]string, error) {
	pk, ok := aliasPK[q.Self]
	if !ok {
		return nil, fmt.Errorf("query.self alias %q was never created", q.Self)
	}
	path, err := pathForPK(ctx, s, cols.ColumnSet, pk)
	if err != nil {
		return nil, err
	}
	rec, err := node.Load(ctx, engine, cols, path)
	if err != nil {
		return nil, err
	}

	b, err := rec.RelativeQuery()
	if err != nil {
		return nil, err
	}
	applyScope(b, q)

	compiled, err := b.Prepare()
	if err != nil {
		return nil, err
	}

	tx, err := s.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.Select(ctx, compiled.Table, []string{cols.Path}, compiled.Where, compiled.Args, compiled.OrderBy)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return paths, tx.Commit()
}

func applyScope(b *query.Builder, q *Query) {
	switch q.Scope {
	case "roots":
		b.Roots()
	case "children":
		b.Children()
	case "parent":
		b.Parent()
	case "siblings":
		b.Siblings()
	case "excluding":
		b.Excluding()
	}
	switch q.Direction {
	case "next":
		b.Next()
	case "previous":
		b.Previous()
	}
	if q.IncludeSelf {
		b.IncludeSelf()
	}
	if q.IncludeDescendants {
		b.IncludeDescendants()
	}
	if q.IncludeAncestors {
		b.IncludeAncestors()
	}
	if q.ExcludeSelf {
		b.ExcludeSelf()
	}
	if q.ExcludeDescendants {
		b.ExcludeDescendants()
	}
	if q.Reverse {
		b.Reverse()
	}
}

func pathForPK(ctx context.Context, s *store.Store, cols query.ColumnSet, pk any) (string, error) {
	row := s.DB().QueryRowContext(ctx, fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?", cols.Path, cols.Table, cols.PK), pk)
	var path string
	if err := row.Scan(&path); err != nil {
		return "", fmt.Errorf("fixtures: resolve pk %v: %w", pk, err)
	}
	return path, nil
}
