// Package schema implements the declarative column-naming configuration
// (D2) a caller's tree table must satisfy before any NodeRecord/Engine can
// be built against it: a SchemaSpec names the table and its five required
// columns, and SchemaValidator checks that configuration - first offline
// against a CUE schema definition, then (optionally) against a live
// database's actual catalog.
//
// Validation is CUE-based: a declarative shape compiled once, unified
// against an encoded Go value to reject malformed configuration before it
// ever reaches treeengine or query.
package schema
