// Package store is the generic SQLite-backed persistence layer the rest of
// the module runs against (the Store of §4.7). Unlike a fixed-schema log
// store, it knows nothing about tree semantics - it opens one connection,
// applies the pragmas a single-writer SQLite workload needs, and exposes
// a minimal transactional surface (select/updateRow/deleteWhere/insert)
// parameterized by table and column names, so node, query, and treeengine
// can drive arbitrary tree tables through it.
package store
