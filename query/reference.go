package query

import "math/big"

// Reference carries the boundary interval of the node a Builder is bound
// to. Left and Right are exact rationals (see matrix/pathcodec), but
// Prepare binds them as float64 parameters (see ratValue), so the SQL
// interval comparisons are only as exact as float64 is.
//
// ParentLeft/ParentRight carry the boundary interval of the node's parent,
// needed to compile a Siblings scope; both are nil for a root node.
type Reference struct {
	Path  string
	Left  *big.Rat
	Right *big.Rat
	Level int

	ParentLeft  *big.Rat
	ParentRight *big.Rat
}
