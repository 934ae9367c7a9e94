// Package node implements NodeRecord (§4.4): the per-row state of a tree
// table - the four tree columns plus an arbitrary Attrs payload - with a
// read-only guard on the tree columns and a lazily-computed, invalidated-
// on-write matrix cache.
//
// NodeRecord itself holds no mutation algorithm. saveInto/saveBefore/
// saveAfter/save/delete translate the record's state to a treeengine.Ref
// and delegate to the treeengine package (§4.5), then copy the engine's
// result back onto the record. This one-way dependency (node -> treeengine)
// keeps the mutation protocol reusable against any row shape a caller
// builds a Ref for, not just a NodeRecord.
package node
