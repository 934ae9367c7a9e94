package treeengine

import (
	"math/big"

	"github.com/nstlib/nst/nsterr"
)

// checkMove is the subtree guard (D6): an independent, boundary-space
// containment check run immediately before committing a move's matrix
// transform. It is algebraically redundant with Ref.CanMove's string-
// prefix test (any violation here implies that check would also fail)
// but deliberately uses a disjoint representation - boundary intervals
// rather than path strings - so a defect in one representation cannot
// silently defeat the other.
func checkMove(moving, destination Ref) error {
	if contains(moving.Left, moving.Right, destination.Left, destination.Right) ||
		overlapsWithoutContainment(moving.Left, moving.Right, destination.Left, destination.Right) {
		return nsterr.InvariantViolation(
			"destination is contained in or overlaps the moving subtree's own interval",
			map[string]string{"moving_path": moving.Path, "destination_path": destination.Path},
		)
	}
	return nil
}

func contains(outerLeft, outerRight, innerLeft, innerRight *big.Rat) bool {
	return outerLeft.Cmp(innerLeft) <= 0 && innerRight.Cmp(outerRight) <= 0
}

// overlapsWithoutContainment reports whether the two intervals share any
// point but neither fully contains the other - a malformed overlap that
// cannot correspond to any well-formed move. Full containment either way
// is excluded on purpose: moving contains destination is already caught
// by checkMove's own containment test (moving into one's own descendant),
// and destination contains moving is the ordinary upward move (relocating
// a node to become a child of one of its own ancestors) and must pass.
func overlapsWithoutContainment(aLeft, aRight, bLeft, bRight *big.Rat) bool {
	disjoint := bRight.Cmp(aLeft) <= 0 || bLeft.Cmp(aRight) >= 0
	if disjoint {
		return false
	}
	if contains(bLeft, bRight, aLeft, aRight) {
		return false
	}
	return !contains(aLeft, aRight, bLeft, bRight)
}
