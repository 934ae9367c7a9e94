// Package query implements the flag-bag QueryBuilder that compiles to
// parameterized SQL for navigating the tree: roots, children, parent,
// siblings, and exclusion queries, each built from a scope, a direction,
// and a handful of inclusion/exclusion booleans bound against a reference
// node's boundary interval.
//
// The package splits an abstract query IR (predicate.go's Predicate tree)
// from its SQL compiler (compile.go): no flag-bag method ever touches a
// database; only Builder.Prepare turns the current flag set into SQL text
// plus an ordered parameter slice, and even that runs no query. Terminal
// execution happens one layer up, through Store.
package query
