// Package validate implements the soundness checker (D4): a read-only,
// whole-forest batch pass that re-verifies the quantified invariants of
// §8 - determinant, boundary ordering, sibling-touch, level/segment-count
// agreement, and boundary/ancestry consistency - independent of any single
// mutation. It is used by the CLI verify command; treeengine never calls
// it from its own hot path.
package validate
