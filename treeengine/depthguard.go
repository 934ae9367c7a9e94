package treeengine

import (
	"context"
	"database/sql"

	"github.com/nstlib/nst/nsterr"
	"github.com/nstlib/nst/pathcodec"
	"github.com/nstlib/nst/query"
	"github.com/nstlib/nst/store"
)

// MoveMode names which §4.5 operation a depth projection is for.
type MoveMode int

const (
	MoveInto MoveMode = iota
	MoveBefore
	MoveAfter
)

// subtreeMaxLevel returns the maximum level among self and its
// descendants, via one aggregate MAX(level) query - level is trusted here
// purely as an upper bound for the depth guard, never as tree-structural
// source of truth.
func subtreeMaxLevel(ctx context.Context, tx *store.Tx, cols query.ColumnSet, self Ref) (int, error) {
	ref, err := self.reference()
	if err != nil {
		return 0, err
	}
	b := query.New(cols).Children().Bind(ref).IncludeSelf().IncludeDescendants()
	compiled, err := b.Prepare()
	if err != nil {
		return 0, err
	}
	var maxLevel int
	_, err = tx.SelectOne(ctx, cols.Table, []string{"MAX(" + cols.Level + ")"}, compiled.Where, compiled.Args, func(rows *sql.Rows) error {
		return rows.Scan(&maxLevel)
	})
	if err != nil {
		return 0, nsterr.DatabaseFailure("subtreeMaxLevel", err)
	}
	return maxLevel, nil
}

// SubtreeDepth returns the max level among self and its descendants,
// minus self's own level.
func SubtreeDepth(ctx context.Context, tx *store.Tx, cols query.ColumnSet, self Ref) (int, error) {
	maxLevel, err := subtreeMaxLevel(ctx, tx, cols, self)
	if err != nil {
		return 0, err
	}
	return maxLevel - self.Level, nil
}

// MaxLevelIfMove projects the level the deepest moved node would end up at
// under mode, without mutating anything.
func MaxLevelIfMove(ctx context.Context, tx *store.Tx, cols query.ColumnSet, self Ref, targetPath string, mode MoveMode) (int, error) {
	target, err := loadByPath(ctx, tx, cols, targetPath)
	if err != nil {
		return 0, err
	}

	depth, err := SubtreeDepth(ctx, tx, cols, self)
	if err != nil {
		return 0, err
	}

	var newSelfLevel int
	switch mode {
	case MoveInto:
		newSelfLevel = target.Level + 1
	case MoveBefore, MoveAfter:
		targetSegs, err := pathcodec.ParsePath(targetPath)
		if err != nil {
			return 0, err
		}
		newSelfLevel = len(targetSegs)
	}
	return newSelfLevel + depth, nil
}

// WouldExceedMaxLevel reports whether the projected max level under mode
// exceeds maxLevel. A maxLevel of 0 means "no cap" and always returns
// false.
func WouldExceedMaxLevel(ctx context.Context, tx *store.Tx, cols query.ColumnSet, self Ref, targetPath string, maxLevel int, mode MoveMode) (bool, error) {
	if maxLevel == 0 {
		return false, nil
	}
	projected, err := MaxLevelIfMove(ctx, tx, cols, self, targetPath, mode)
	if err != nil {
		return false, err
	}
	return projected > maxLevel, nil
}
