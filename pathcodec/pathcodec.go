// Package pathcodec implements the bijection between dotted-decimal paths
// ("2.4.3") and the 2x2 matrices of package matrix: deriving a node's
// boundary interval, level, last segment, parent matrix, and ancestor chain
// in O(1) (or O(depth) for the ancestor walk) without touching a database.
//
// Every function here is pure: given the same path or matrix it always
// returns the same result, and nothing allocates a connection or issues a
// query. That purity is what lets the migration contract (see the migrate
// package) run entirely offline over a column of existing path strings.
package pathcodec

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/nstlib/nst/matrix"
)

// InvalidSegmentError is returned when a path segment is not a positive
// integer. It signals a programming bug at the call site and is never
// swallowed internally.
type InvalidSegmentError struct {
	Segment int64
}

func (e *InvalidSegmentError) Error() string {
	return fmt.Sprintf("pathcodec: invalid segment %d: segments must be >= 1", e.Segment)
}

// RootMatrix returns the swap matrix M0 = (0,1,1,0), the algebraic origin
// of the forest. It is deliberately not the identity matrix.
func RootMatrix() matrix.Matrix {
	return matrix.New(0, 1, 1, 0)
}

// SegmentMatrix returns S(n) = (1, 1, n, n+1) for n >= 1. Left-multiplying
// a parent's matrix by S(n) descends into the parent's n-th child.
func SegmentMatrix(n int64) (matrix.Matrix, error) {
	if n <= 0 {
		return matrix.Matrix{}, &InvalidSegmentError{Segment: n}
	}
	return matrix.New(1, 1, n, n+1), nil
}

// BumpMatrix returns B(k) = (1, 0, k, 1) for any integer k (positive, zero,
// or negative). It satisfies B(k) . SegmentMatrix(n) = SegmentMatrix(n+k)
// for every n, which is what lets MoveMatrixBuilder fold a sibling shift
// into the same left-multiplication chain as a parent change.
func BumpMatrix(k int64) matrix.Matrix {
	return matrix.New(1, 0, k, 1)
}

// ParsePath splits a dotted-decimal path into its positive-integer
// segments. It rejects the empty path and any non-positive segment.
func ParsePath(path string) ([]int64, error) {
	if path == "" {
		return nil, fmt.Errorf("pathcodec: path must not be empty")
	}
	parts := strings.Split(path, ".")
	segments := make([]int64, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("pathcodec: invalid segment %q in path %q: %w", p, path, err)
		}
		if n <= 0 {
			return nil, &InvalidSegmentError{Segment: n}
		}
		segments = append(segments, n)
	}
	return segments, nil
}

// FormatPath joins segments back into dotted-decimal form.
func FormatPath(segments []int64) string {
	parts := make([]string, len(segments))
	for i, s := range segments {
		parts[i] = strconv.FormatInt(s, 10)
	}
	return strings.Join(parts, ".")
}

// FromPath folds left-multiplication of RootMatrix by SegmentMatrix(s) for
// each segment s of path, in order, producing path's canonical matrix.
func FromPath(path string) (matrix.Matrix, error) {
	segments, err := ParsePath(path)
	if err != nil {
		return matrix.Matrix{}, err
	}
	m := RootMatrix()
	for _, s := range segments {
		sm, err := SegmentMatrix(s)
		if err != nil {
			return matrix.Matrix{}, err
		}
		m = m.Multiply(sm)
	}
	if det := m.Determinant(); det.IsInt64() && det.Int64() != -1 {
		return matrix.Matrix{}, fmt.Errorf("pathcodec: internal invariant violated: fromPath(%q) produced det=%s, want -1", path, det)
	}
	return m, nil
}

// LastSegmentOfMatrix returns floor(a / (b - a)) for m's cells, the integer
// identifying which child index m represents among its siblings.
func LastSegmentOfMatrix(m matrix.Matrix) int64 {
	a, b, _, _ := m.Int64()
	denom := b - a
	if denom == 0 {
		return 0
	}
	return floorDiv(a, denom)
}

// LastSegmentOfPath parses and returns the final dotted component of path.
func LastSegmentOfPath(path string) (int64, error) {
	segments, err := ParsePath(path)
	if err != nil {
		return 0, err
	}
	return segments[len(segments)-1], nil
}

// Parent computes M . SegmentMatrix(lastSegment(M))^-1 and returns the
// resulting matrix, or ok=false when the result is degenerate (c <= 0,
// d <= 0, or resulting a <= 0) — which, by construction, happens exactly
// for root nodes.
func Parent(m matrix.Matrix) (parent matrix.Matrix, ok bool) {
	last := LastSegmentOfMatrix(m)
	if last <= 0 {
		return matrix.Matrix{}, false
	}
	sm, err := SegmentMatrix(last)
	if err != nil {
		return matrix.Matrix{}, false
	}
	inv, err := sm.Inverse()
	if err != nil {
		return matrix.Matrix{}, false
	}
	p := m.Multiply(inv)
	a, _, c, d := p.Int64()
	if c <= 0 || d <= 0 || a <= 0 {
		return matrix.Matrix{}, false
	}
	return p, true
}

// ToPath extracts segments from m by repeatedly taking LastSegmentOfMatrix
// and replacing m with Parent(m) until Parent reports no parent, then
// reverses the collected segments to obtain the top-down path.
func ToPath(m matrix.Matrix) (string, error) {
	var segments []int64
	cur := m
	for {
		last := LastSegmentOfMatrix(cur)
		if last <= 0 {
			return "", fmt.Errorf("pathcodec: matrix %s does not decode to a valid path", m)
		}
		segments = append(segments, last)
		parent, ok := Parent(cur)
		if !ok {
			break
		}
		cur = parent
	}
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return FormatPath(segments), nil
}

// Left returns a/c for m's cells, as an exact rational.
func Left(m matrix.Matrix) *big.Rat {
	return new(big.Rat).SetFrac(m.A(), m.C())
}

// Right returns b/d for m's cells, as an exact rational.
func Right(m matrix.Matrix) *big.Rat {
	return new(big.Rat).SetFrac(m.B(), m.D())
}

// LevelOfPath returns the segment count of path.
func LevelOfPath(path string) (int, error) {
	segments, err := ParsePath(path)
	if err != nil {
		return 0, err
	}
	return len(segments), nil
}

// LevelOfMatrix decodes m to a path and returns its segment count.
func LevelOfMatrix(m matrix.Matrix) (int, error) {
	path, err := ToPath(m)
	if err != nil {
		return 0, err
	}
	return LevelOfPath(path)
}

// BasePath drops the last segment of path, returning "" for a root path.
func BasePath(path string) string {
	i := strings.LastIndex(path, ".")
	if i < 0 {
		return ""
	}
	return path[:i]
}

// AncestorMatrices enumerates, without any database access, the ancestor
// matrices of the node whose left boundary is a/c, using a Euclidean-style
// recurrence on (a, c) alone. Order is root-to-direct-parent; the node
// itself is not included.
//
// The recurrence exploits a property of the segment matrices: the
// continued-fraction expansion of a/c is the node's path segments
// interleaved with a forced "1" between each pair — e.g. path "2.4.3"
// expands to quotients [2, 1, 4, 1, 3]. Segments sit at the even indices;
// the odd-index "1"s are an artifact of the "+1" in SegmentMatrix(n)'s d
// cell and carry no information. The Euclidean algorithm merges a trailing
// "1, 1" into "2", so for a path ending in segment 1 (e.g. "2.4.1" gives
// [2, 1, 4, 2]) the last quotient q is split back into q-1, 1.
func AncestorMatrices(a, c int64) ([]matrix.Matrix, error) {
	segments, err := segmentsFromLeftFraction(a, c)
	if err != nil {
		return nil, err
	}
	ancestors := make([]matrix.Matrix, 0, len(segments)-1)
	for i := 1; i < len(segments); i++ {
		m, err := FromPath(FormatPath(segments[:i]))
		if err != nil {
			return nil, err
		}
		ancestors = append(ancestors, m)
	}
	return ancestors, nil
}

// segmentsFromLeftFraction decodes a node's full path from its left
// boundary's numerator and denominator alone, via the Euclidean recurrence
// described on AncestorMatrices.
func segmentsFromLeftFraction(a, c int64) ([]int64, error) {
	if a <= 0 || c <= 0 {
		return nil, fmt.Errorf("pathcodec: invalid boundary numerator/denominator (%d, %d)", a, c)
	}
	var quotients []int64
	for c != 0 {
		q := a / c
		r := a % c
		quotients = append(quotients, q)
		a, c = c, r
	}
	if len(quotients)%2 == 0 {
		last := len(quotients) - 1
		quotients[last]--
		quotients = append(quotients, 1)
	}
	segments := make([]int64, 0, (len(quotients)+1)/2)
	for i := 0; i < len(quotients); i += 2 {
		segments = append(segments, quotients[i])
	}
	return segments, nil
}

// AncestorPaths returns the strict dotted prefixes of path, root first.
func AncestorPaths(path string) ([]string, error) {
	segments, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(segments)-1)
	for i := 1; i < len(segments); i++ {
		paths = append(paths, FormatPath(segments[:i]))
	}
	return paths, nil
}

// IsAncestorOf reports whether ancestor is a strict dotted prefix of
// descendant.
func IsAncestorOf(ancestor, descendant string) bool {
	if ancestor == descendant {
		return false
	}
	return strings.HasPrefix(descendant, ancestor+".")
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
