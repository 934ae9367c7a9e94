package treeengine

import (
	"context"
	"strconv"

	"github.com/nstlib/nst/matrix"
	"github.com/nstlib/nst/movematrix"
	"github.com/nstlib/nst/nsterr"
	"github.com/nstlib/nst/pathcodec"
	"github.com/nstlib/nst/query"
	"github.com/nstlib/nst/store"
)

// Engine runs the mutation algorithms of §4.5 against one table, identified
// by cols, through one *store.Store. It never retains a Ref across calls:
// every method opens its own transaction, does its work, and commits or
// rolls back before returning.
type Engine struct {
	store    *store.Store
	cols     query.ColumnSet
	maxLevel int
}

// New builds an Engine. maxLevel of 0 means no depth cap.
func New(s *store.Store, cols query.ColumnSet, maxLevel int) *Engine {
	return &Engine{store: s, cols: cols, maxLevel: maxLevel}
}

// reserved tree columns a caller's fields map must never set directly -
// they are derived from path and position, never assigned.
func guardFields(cols query.ColumnSet, fields map[string]any) error {
	for _, r := range []string{cols.PK, cols.Path, cols.Left, cols.Right, cols.Level} {
		if r == "" {
			continue
		}
		if _, ok := fields[r]; ok {
			return nsterr.ReadOnlyTreeField(r)
		}
	}
	return nil
}

func insertNode(ctx context.Context, tx *store.Tx, cols query.ColumnSet, path string, fields map[string]any) (Ref, error) {
	m, err := pathcodec.FromPath(path)
	if err != nil {
		return Ref{}, err
	}
	level, err := pathcodec.LevelOfPath(path)
	if err != nil {
		return Ref{}, err
	}
	left, _ := pathcodec.Left(m).Float64()
	right, _ := pathcodec.Right(m).Float64()

	values := make(map[string]any, len(fields)+4)
	for k, v := range fields {
		values[k] = v
	}
	values[cols.Path] = path
	values[cols.Left] = left
	values[cols.Right] = right
	values[cols.Level] = int64(level)

	id, err := tx.InsertRow(ctx, cols.Table, values)
	if err != nil {
		return Ref{}, nsterr.DatabaseFailure("insertNode", err)
	}
	return RefFromPath(id, path)
}

func updateFields(ctx context.Context, tx *store.Tx, cols query.ColumnSet, pk any, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	if err := tx.UpdateRow(ctx, cols.Table, cols.PK, pk, fields); err != nil {
		return nsterr.DatabaseFailure("updateFields", err)
	}
	return nil
}

// openGapAt bumps pivot and every later sibling (with its descendants) up
// by one segment, within pivot's own parent, and returns pivot's last
// segment as it was immediately before the bump - the segment number a new
// node inserted "before pivot" should take.
func openGapAt(ctx context.Context, tx *store.Tx, cols query.ColumnSet, pivot Ref) (int64, error) {
	seg, err := pivot.LastSegment()
	if err != nil {
		return 0, err
	}
	parent, err := pivot.ParentMatrix()
	if err != nil {
		return 0, err
	}
	ref, err := pivot.reference()
	if err != nil {
		return 0, err
	}
	T, err := movematrix.Build(parent, parent, 1)
	if err != nil {
		return 0, err
	}
	b := laterSiblingsQuery(cols, ref, true)
	if _, err := applyTransform(ctx, tx, cols, b, T, nil); err != nil {
		return 0, err
	}
	return seg, nil
}

// closeGapAt bumps every later sibling of vacated (with its descendants)
// down by one segment, within vacated's own parent - undoing the hole left
// once vacated itself has been relocated elsewhere. Every row at or after
// vacated's old position is bumped, including a relocated row that landed
// there; excludePK, when non-nil, skips that one row.
func closeGapAt(ctx context.Context, tx *store.Tx, cols query.ColumnSet, vacated Ref, excludePK any) error {
	parent, err := vacated.ParentMatrix()
	if err != nil {
		return err
	}
	ref, err := vacated.reference()
	if err != nil {
		return err
	}
	T, err := movematrix.Build(parent, parent, -1)
	if err != nil {
		return err
	}
	b := laterSiblingsQuery(cols, ref, false)
	_, err = applyTransform(ctx, tx, cols, b, T, excludePK)
	return err
}

// relocateSubtree applies T to self and every descendant, using self's
// boundary interval as it stood before the call (the caller must capture
// self before any gap-open/gap-close step that might otherwise shift it),
// then re-reads self's own row.
func relocateSubtree(ctx context.Context, tx *store.Tx, cols query.ColumnSet, self Ref, fromParent, toParent matrix.Matrix, k int64) (Ref, error) {
	ref, err := self.reference()
	if err != nil {
		return Ref{}, err
	}
	T, err := movematrix.Build(fromParent, toParent, k)
	if err != nil {
		return Ref{}, err
	}
	b := subtreeQuery(cols, ref, false)
	if _, err := applyTransform(ctx, tx, cols, b, T, nil); err != nil {
		return Ref{}, err
	}
	return refresh(ctx, tx, cols, self.PK)
}

func (e *Engine) checkDepth(ctx context.Context, tx *store.Tx, self Ref, targetPath string, mode MoveMode) error {
	if e.maxLevel == 0 {
		return nil
	}
	exceeds, err := WouldExceedMaxLevel(ctx, tx, e.cols, self, targetPath, e.maxLevel, mode)
	if err != nil {
		return err
	}
	if exceeds {
		return nsterr.InvariantViolation("move would exceed the configured maximum depth",
			map[string]string{"path": self.Path, "target": targetPath})
	}
	return nil
}

// LoadRow resolves path to a Ref plus the raw values of extra columns, in
// the order given - node.Record's way of reading its Attrs payload column
// alongside the tree columns without the engine knowing that column's
// name.
func (e *Engine) LoadRow(ctx context.Context, path string, extra ...string) (Ref, []any, error) {
	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return Ref{}, nil, err
	}
	defer tx.Rollback()

	ref, vals, err := loadRowByPath(ctx, tx, e.cols, path, extra)
	if err != nil {
		return Ref{}, nil, err
	}
	if err := tx.Commit(); err != nil {
		return Ref{}, nil, nsterr.DatabaseFailure("LoadRow commit", err)
	}
	return ref, vals, nil
}

// Columns returns the ColumnSet this Engine was constructed with.
func (e *Engine) Columns() query.ColumnSet {
	return e.cols
}

// Save persists self's fields. A self with a nil PK is a new record and is
// appended as the forest's new last root; an existing self only has its
// fields saved - Save never repositions an existing record.
func (e *Engine) Save(ctx context.Context, self Ref, fields map[string]any) (Ref, error) {
	if err := guardFields(e.cols, fields); err != nil {
		return Ref{}, err
	}
	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return Ref{}, err
	}
	defer tx.Rollback()

	var result Ref
	if self.PK == nil {
		last, ok, err := lastRoot(ctx, tx, e.cols)
		if err != nil {
			return Ref{}, err
		}
		var seg int64
		if ok {
			if seg, err = last.LastSegment(); err != nil {
				return Ref{}, err
			}
		}
		result, err = insertNode(ctx, tx, e.cols, strconv.FormatInt(seg+1, 10), fields)
		if err != nil {
			return Ref{}, err
		}
	} else {
		if err := updateFields(ctx, tx, e.cols, self.PK, fields); err != nil {
			return Ref{}, err
		}
		if result, err = refresh(ctx, tx, e.cols, self.PK); err != nil {
			return Ref{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Ref{}, nsterr.DatabaseFailure("Save commit", err)
	}
	return result, nil
}

// SaveInto persists self as the last child of targetPath: a new record is
// inserted there directly; an existing record has its fields saved
// unconditionally and is relocated there only when self.CanMove(target)
// holds (moving a node into itself or into its own descendant is silently
// skipped rather than rejected, consistent with SaveBefore/SaveAfter).
func (e *Engine) SaveInto(ctx context.Context, self Ref, targetPath string, fields map[string]any) (Ref, error) {
	if err := guardFields(e.cols, fields); err != nil {
		return Ref{}, err
	}
	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return Ref{}, err
	}
	defer tx.Rollback()

	target, err := loadByPath(ctx, tx, e.cols, targetPath)
	if err != nil {
		return Ref{}, err
	}

	result, err := e.doSaveInto(ctx, tx, self, target, fields)
	if err != nil {
		return Ref{}, err
	}
	if err := tx.Commit(); err != nil {
		return Ref{}, nsterr.DatabaseFailure("SaveInto commit", err)
	}
	return result, nil
}

func (e *Engine) doSaveInto(ctx context.Context, tx *store.Tx, self Ref, target Ref, fields map[string]any) (Ref, error) {
	if self.PK == nil {
		if self.Path != "" {
			return Ref{}, nsterr.InvalidItemConfiguration(target.Path, "a new record cannot already have a path")
		}
		last, ok, err := lastChild(ctx, tx, e.cols, target, nil)
		if err != nil {
			return Ref{}, err
		}
		var seg int64
		if ok {
			if seg, err = last.LastSegment(); err != nil {
				return Ref{}, err
			}
		}
		return insertNode(ctx, tx, e.cols, target.Path+"."+strconv.FormatInt(seg+1, 10), fields)
	}

	if err := updateFields(ctx, tx, e.cols, self.PK, fields); err != nil {
		return Ref{}, err
	}
	current, err := refresh(ctx, tx, e.cols, self.PK)
	if err != nil {
		return Ref{}, err
	}
	if !current.CanMove(target.Path) {
		return current, nil
	}

	if err := e.checkDepth(ctx, tx, current, target.Path, MoveInto); err != nil {
		return Ref{}, err
	}
	if err := checkMove(current, target); err != nil {
		return Ref{}, err
	}

	last, ok, err := lastChild(ctx, tx, e.cols, target, current.PK)
	if err != nil {
		return Ref{}, err
	}
	selfSeg, err := current.LastSegment()
	if err != nil {
		return Ref{}, err
	}
	var k int64
	if ok {
		lastSeg, err := last.LastSegment()
		if err != nil {
			return Ref{}, err
		}
		k = (lastSeg + 1) - selfSeg
	} else {
		k = 1 - selfSeg
	}
	// self is already target's last child: there is nothing to relocate.
	if k == 0 && pathcodec.BasePath(current.Path) == target.Path {
		return current, nil
	}

	fromParent, err := current.ParentMatrix()
	if err != nil {
		return Ref{}, err
	}
	toParent, err := target.Matrix()
	if err != nil {
		return Ref{}, err
	}

	moved, err := relocateSubtree(ctx, tx, e.cols, current, fromParent, toParent, k)
	if err != nil {
		return Ref{}, err
	}
	if err := closeGapAt(ctx, tx, e.cols, current, nil); err != nil {
		return Ref{}, err
	}
	// the gap close also shifts self when it landed after its old slot
	// (same parent, or a later sibling's subtree), so re-read it.
	return refresh(ctx, tx, e.cols, moved.PK)
}

// SaveBefore persists self positioned immediately before targetPath, as a
// sibling of target: a new record is inserted there directly; an existing
// record has its fields saved unconditionally and is relocated there only
// when self.CanMove(target) holds.
func (e *Engine) SaveBefore(ctx context.Context, self Ref, targetPath string, fields map[string]any) (Ref, error) {
	if err := guardFields(e.cols, fields); err != nil {
		return Ref{}, err
	}
	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return Ref{}, err
	}
	defer tx.Rollback()

	target, err := loadByPath(ctx, tx, e.cols, targetPath)
	if err != nil {
		return Ref{}, err
	}

	result, err := e.doSaveBefore(ctx, tx, self, target, fields)
	if err != nil {
		return Ref{}, err
	}
	if err := tx.Commit(); err != nil {
		return Ref{}, nsterr.DatabaseFailure("SaveBefore commit", err)
	}
	return result, nil
}

func (e *Engine) doSaveBefore(ctx context.Context, tx *store.Tx, self Ref, target Ref, fields map[string]any) (Ref, error) {
	parentPath := pathcodec.BasePath(target.Path)

	if self.PK == nil {
		if self.Path != "" {
			return Ref{}, nsterr.InvalidItemConfiguration(target.Path, "a new record cannot already have a path")
		}
		seg, err := openGapAt(ctx, tx, e.cols, target)
		if err != nil {
			return Ref{}, err
		}
		newPath := strconv.FormatInt(seg, 10)
		if parentPath != "" {
			newPath = parentPath + "." + newPath
		}
		return insertNode(ctx, tx, e.cols, newPath, fields)
	}

	if err := updateFields(ctx, tx, e.cols, self.PK, fields); err != nil {
		return Ref{}, err
	}
	current, err := refresh(ctx, tx, e.cols, self.PK)
	if err != nil {
		return Ref{}, err
	}
	if !current.CanMove(target.Path) {
		return current, nil
	}

	if err := e.checkDepth(ctx, tx, current, target.Path, MoveBefore); err != nil {
		return Ref{}, err
	}
	if err := checkMove(current, target); err != nil {
		return Ref{}, err
	}

	// Open target's gap first and take newSeg as target's pre-bump
	// segment - self's destination. When self and target share a parent
	// and self currently sits after target, self is itself among the
	// "later" siblings this bumps, so self must be re-read afterward
	// rather than trusted from before the bump.
	newSeg, err := openGapAt(ctx, tx, e.cols, target)
	if err != nil {
		return Ref{}, err
	}
	current, err = refresh(ctx, tx, e.cols, self.PK)
	if err != nil {
		return Ref{}, err
	}
	selfSeg, err := current.LastSegment()
	if err != nil {
		return Ref{}, err
	}
	k := newSeg - selfSeg

	fromParent, err := current.ParentMatrix()
	if err != nil {
		return Ref{}, err
	}
	toParent, err := target.ParentMatrix()
	if err != nil {
		return Ref{}, err
	}

	// current, captured immediately before the relocate, is the hole
	// the close-gap step below must fill. Every row after it within the
	// old parent moves down by one - self included when it landed there
	// (a forward reorder within the same parent, or a move into a later
	// sibling's subtree) - so self is re-read once the gap is closed.
	vacated := current
	moved, err := relocateSubtree(ctx, tx, e.cols, current, fromParent, toParent, k)
	if err != nil {
		return Ref{}, err
	}
	if err := closeGapAt(ctx, tx, e.cols, vacated, nil); err != nil {
		return Ref{}, err
	}
	return refresh(ctx, tx, e.cols, moved.PK)
}

// SaveAfter persists self positioned immediately after targetPath. When
// target has a next sibling, this is exactly SaveBefore against that
// sibling; when target is the last child of its parent (or the last
// root), self is placed directly as the new last child of that parent (or
// new last root) instead, since there is no following node to open a gap
// against.
func (e *Engine) SaveAfter(ctx context.Context, self Ref, targetPath string, fields map[string]any) (Ref, error) {
	if err := guardFields(e.cols, fields); err != nil {
		return Ref{}, err
	}
	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return Ref{}, err
	}
	defer tx.Rollback()

	target, err := loadByPath(ctx, tx, e.cols, targetPath)
	if err != nil {
		return Ref{}, err
	}

	next, hasNext, err := nextSibling(ctx, tx, e.cols, target)
	if err != nil {
		return Ref{}, err
	}

	var result Ref
	if hasNext {
		result, err = e.doSaveBefore(ctx, tx, self, next, fields)
	} else {
		result, err = e.doAppendAsLastSibling(ctx, tx, self, target, fields)
	}
	if err != nil {
		return Ref{}, err
	}
	if err := tx.Commit(); err != nil {
		return Ref{}, nsterr.DatabaseFailure("SaveAfter commit", err)
	}
	return result, nil
}

// doAppendAsLastSibling places self as the new last child of target's
// parent (or new last root, when target is itself a root) - the
// degenerate case of SaveAfter where target has no next sibling to pivot
// a gap against.
func (e *Engine) doAppendAsLastSibling(ctx context.Context, tx *store.Tx, self Ref, target Ref, fields map[string]any) (Ref, error) {
	parentPath := pathcodec.BasePath(target.Path)
	if parentPath == "" {
		if self.PK == nil {
			return e.doSaveRoot(ctx, tx, self, fields)
		}
		return e.doMoveToRoot(ctx, tx, self, fields)
	}
	parent, err := loadByPath(ctx, tx, e.cols, parentPath)
	if err != nil {
		return Ref{}, err
	}
	return e.doSaveInto(ctx, tx, self, parent, fields)
}

func (e *Engine) doSaveRoot(ctx context.Context, tx *store.Tx, self Ref, fields map[string]any) (Ref, error) {
	if self.Path != "" {
		return Ref{}, nsterr.InvalidItemConfiguration("", "a new record cannot already have a path")
	}
	last, ok, err := lastRoot(ctx, tx, e.cols)
	if err != nil {
		return Ref{}, err
	}
	var seg int64
	if ok {
		if seg, err = last.LastSegment(); err != nil {
			return Ref{}, err
		}
	}
	return insertNode(ctx, tx, e.cols, strconv.FormatInt(seg+1, 10), fields)
}

// doMoveToRoot relocates an existing record to become the forest's new
// last root - the existing-record counterpart of doSaveRoot, reached when
// target (and thus self's destination) is itself a root with no later
// root to pivot against.
func (e *Engine) doMoveToRoot(ctx context.Context, tx *store.Tx, self Ref, fields map[string]any) (Ref, error) {
	if err := updateFields(ctx, tx, e.cols, self.PK, fields); err != nil {
		return Ref{}, err
	}
	current, err := refresh(ctx, tx, e.cols, self.PK)
	if err != nil {
		return Ref{}, err
	}
	if current.Level == 1 {
		// already a root; nothing to relocate.
		return current, nil
	}

	if e.maxLevel != 0 {
		// self becomes a root (level 1); there is no target row to project from.
		depth, err := SubtreeDepth(ctx, tx, e.cols, current)
		if err != nil {
			return Ref{}, err
		}
		if 1+depth > e.maxLevel {
			return Ref{}, nsterr.InvariantViolation("move would exceed the configured maximum depth",
				map[string]string{"path": current.Path, "target": ""})
		}
	}

	last, ok, err := lastRoot(ctx, tx, e.cols)
	if err != nil {
		return Ref{}, err
	}
	var newSeg int64
	if ok {
		if newSeg, err = last.LastSegment(); err != nil {
			return Ref{}, err
		}
	}
	selfSeg, err := current.LastSegment()
	if err != nil {
		return Ref{}, err
	}
	k := (newSeg + 1) - selfSeg

	fromParent, err := current.ParentMatrix()
	if err != nil {
		return Ref{}, err
	}
	moved, err := relocateSubtree(ctx, tx, e.cols, current, fromParent, pathcodec.RootMatrix(), k)
	if err != nil {
		return Ref{}, err
	}
	if err := closeGapAt(ctx, tx, e.cols, current, nil); err != nil {
		return Ref{}, err
	}
	return moved, nil
}

// Delete removes self and its entire subtree, then closes the gap left in
// its former sibling list.
func (e *Engine) Delete(ctx context.Context, self Ref) (int64, error) {
	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	current, err := refresh(ctx, tx, e.cols, self.PK)
	if err != nil {
		return 0, err
	}

	ref, err := current.reference()
	if err != nil {
		return 0, err
	}
	compiled, err := subtreeQuery(e.cols, ref, false).Prepare()
	if err != nil {
		return 0, err
	}
	n, err := tx.DeleteWhere(ctx, e.cols.Table, compiled.Where, compiled.Args)
	if err != nil {
		return 0, nsterr.DatabaseFailure("Delete", err)
	}

	if err := closeGapAt(ctx, tx, e.cols, current, nil); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, nsterr.DatabaseFailure("Delete commit", err)
	}
	return n, nil
}
