// Package treeengine implements MutationEngine (§4.5): saveInto, saveBefore,
// saveAfter, plain save (root allocation), and delete, each running inside
// a single transaction against the store package and rolling back on any
// error.
//
// The engine operates on Ref, a bare tuple of a row's tree-column state,
// rather than on node.Record - node wraps these calls and owns the
// friendlier record API, but the algorithm itself only ever needs a
// primary key, a path, and the boundary/level values that follow from it.
// That keeps the mutation protocol usable against any row shape a caller
// can describe with a query.ColumnSet.
package treeengine
