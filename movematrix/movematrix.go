// Package movematrix builds the single 2x2 matrix that relocates an entire
// subtree from one parent to another in one left-multiplication per node.
//
// For every node X in the moving subtree, T.Multiply(X.Matrix()) yields X's
// new matrix. Because matrix multiplication associates, this holds whether
// X is the subtree root or a deep descendant: if Y = X.Multiply(Z) for some
// relative continuation Z, then T.Multiply(Y) = T.Multiply(X).Multiply(Z),
// so shifting every node in the subtree by the same T preserves the whole
// subtree's internal shape while relocating its root.
package movematrix

import (
	"fmt"

	"github.com/nstlib/nst/matrix"
	"github.com/nstlib/nst/pathcodec"
)

// Build returns T = toParent . BumpMatrix(k) . fromParent^-1.
//
// fromParent is the matrix of the subtree's current parent (pathcodec.
// RootMatrix() if the subtree sits at the forest top); toParent is the
// matrix of the destination parent, under the same root convention. k is
// newLastSegment - oldLastSegment, the shift in the moved subtree's own
// last path segment.
//
// det(T) is always +1: det(toParent) and det(fromParent) are each -1 for
// any well-formed parent matrix, det(BumpMatrix(k)) is 1, and (-1)*1*(-1)
// cancels. Left-multiplying any det=-1 node matrix by T therefore leaves
// its determinant at -1.
func Build(fromParent, toParent matrix.Matrix, k int64) (matrix.Matrix, error) {
	fromInv, err := fromParent.Inverse()
	if err != nil {
		return matrix.Matrix{}, fmt.Errorf("movematrix: invert from-parent matrix: %w", err)
	}
	return toParent.Multiply(pathcodec.BumpMatrix(k)).Multiply(fromInv), nil
}

// BuildInto is Build with the destination parent replaced by target's own
// matrix, for the "move into, becoming last child" case where the moved
// subtree's new parent is the target node itself rather than some node
// already identified independently as toParent.
func BuildInto(fromParent, target matrix.Matrix, k int64) (matrix.Matrix, error) {
	return Build(fromParent, target, k)
}
