package treeengine

import (
	"math/big"

	"github.com/nstlib/nst/matrix"
	"github.com/nstlib/nst/pathcodec"
	"github.com/nstlib/nst/query"
)

// Ref is the minimal tree-column state the engine needs for one row: its
// primary key value and its path (left/right/level always re-derive from
// path, the source of truth; they're cached on Ref only to avoid
// recomputing them on every use within one call).
type Ref struct {
	PK    any
	Path  string
	Left  *big.Rat
	Right *big.Rat
	Level int
}

// RefFromPath builds a Ref's derived fields from path alone, via pathcodec.
func RefFromPath(pk any, path string) (Ref, error) {
	m, err := pathcodec.FromPath(path)
	if err != nil {
		return Ref{}, err
	}
	level, err := pathcodec.LevelOfPath(path)
	if err != nil {
		return Ref{}, err
	}
	return Ref{PK: pk, Path: path, Left: pathcodec.Left(m), Right: pathcodec.Right(m), Level: level}, nil
}

// Matrix returns the node's canonical matrix, always re-derived from Path
// rather than from the cached Left/Right (which may be stored as lossy
// floats in the database).
func (r Ref) Matrix() (matrix.Matrix, error) {
	return pathcodec.FromPath(r.Path)
}

// ParentMatrix returns the matrix of r's parent, falling back to
// pathcodec.RootMatrix() when r is a forest root - the convention
// MoveMatrixBuilder relies on throughout §4.5.
func (r Ref) ParentMatrix() (matrix.Matrix, error) {
	m, err := r.Matrix()
	if err != nil {
		return matrix.Matrix{}, err
	}
	parent, ok := pathcodec.Parent(m)
	if !ok {
		return pathcodec.RootMatrix(), nil
	}
	return parent, nil
}

// LastSegment returns r's own last path segment.
func (r Ref) LastSegment() (int64, error) {
	return pathcodec.LastSegmentOfPath(r.Path)
}

// reference builds a query.Reference bound to r, including its parent's
// boundary interval for the Siblings scope.
func (r Ref) reference() (query.Reference, error) {
	parent, err := r.ParentMatrix()
	if err != nil {
		return query.Reference{}, err
	}
	ref := query.Reference{Path: r.Path, Left: r.Left, Right: r.Right, Level: r.Level}
	if r.Level > 1 {
		pl, pr := pathcodec.Left(parent), pathcodec.Right(parent)
		ref.ParentLeft, ref.ParentRight = pl, pr
	}
	return ref, nil
}

// Reference exposes r's bound query.Reference to callers outside this
// package (node.Record uses it to build its own relative queries).
func (r Ref) Reference() (query.Reference, error) {
	return r.reference()
}

// CanMove reports whether r may be relocated to become a child of, or
// sibling adjacent to, targetPath: moving a node into itself or into one
// of its own descendants is never allowed.
func (r Ref) CanMove(targetPath string) bool {
	if targetPath == r.Path {
		return false
	}
	return !pathcodec.IsAncestorOf(r.Path, targetPath)
}

// rebuild recomputes left/right/level from a (possibly new) path, leaving
// PK untouched. Used after applying a matrix transform to a moved row.
func (r Ref) rebuild(newPath string) (Ref, error) {
	return RefFromPath(r.PK, newPath)
}
