package query

import "fmt"

// Builder accumulates the eight orthogonal flags/enums of §4.6 and compiles
// them to SQL on Prepare. It is single-use: once Prepare has run, calling
// it again (or mutating the builder further) is a programming error, since
// callers must obtain a fresh Builder per query.
//
// Builder deliberately exposes no terminal operation of its own - callers
// pass a Compiled query's Where, Args and OrderBy to store.Tx's Select or
// SelectOne. Nothing here ever opens a connection.
type Builder struct {
	cols ColumnSet
	ref  Reference
	bound bool

	scope     Scope
	direction Direction

	includeSelf        bool
	includeDescendants bool
	includeAncestors   bool
	excludeSelf        bool
	excludeDescendants bool
	reverse            bool

	prepared bool
}

// New creates a Builder for the given table/column names. Order-independence
// is a contract: callers may interleave scope, direction, and include/
// exclude calls in any order before Prepare - only the final flag set
// affects the compiled query.
func New(cols ColumnSet) *Builder {
	return &Builder{cols: cols}
}

// Bind attaches the reference node's boundary interval. Every scope except
// Roots requires a bound reference.
func (b *Builder) Bind(ref Reference) *Builder {
	b.ref = ref
	b.bound = true
	return b
}

func (b *Builder) Roots() *Builder    { b.scope = ScopeRoots; return b }
func (b *Builder) Children() *Builder { b.scope = ScopeChildren; return b }
func (b *Builder) Parent() *Builder   { b.scope = ScopeParent; return b }
func (b *Builder) Siblings() *Builder { b.scope = ScopeSiblings; return b }
func (b *Builder) Excluding() *Builder { b.scope = ScopeExcluding; return b }

func (b *Builder) Next() *Builder     { b.direction = DirectionNext; return b }
func (b *Builder) Previous() *Builder { b.direction = DirectionPrevious; return b }

func (b *Builder) IncludeSelf() *Builder        { b.includeSelf = true; return b }
func (b *Builder) IncludeDescendants() *Builder { b.includeDescendants = true; return b }
func (b *Builder) IncludeAncestors() *Builder   { b.includeAncestors = true; return b }
func (b *Builder) ExcludeSelf() *Builder        { b.excludeSelf = true; return b }
func (b *Builder) ExcludeDescendants() *Builder { b.excludeDescendants = true; return b }

// Reverse inverts whichever default sort order applies to the compiled
// scope.
func (b *Builder) Reverse() *Builder { b.reverse = true; return b }

// Natural restores ascending order (or the direction-native order),
// undoing a prior Reverse.
func (b *Builder) Natural() *Builder { b.reverse = false; return b }

// Compiled is the SQL fragment produced by Prepare: a WHERE-clause body
// (no leading "WHERE"), its positional parameters, and an ORDER BY body
// (no leading "ORDER BY").
type Compiled struct {
	Table   string
	Where   string
	Args    []any
	OrderBy string
}

// Prepare compiles the current flag set into SQL. It is single-use: a
// second call returns an error.
func (b *Builder) Prepare() (*Compiled, error) {
	if b.prepared {
		return nil, fmt.Errorf("query: builder already prepared; obtain a fresh Builder per query")
	}
	b.prepared = true

	if b.scope != ScopeRoots && !b.bound {
		return nil, fmt.Errorf("query: scope %v requires a bound reference node", b.scope)
	}

	pred, err := b.predicate()
	if err != nil {
		return nil, err
	}

	where, args, err := compilePredicate(pred)
	if err != nil {
		return nil, err
	}

	return &Compiled{
		Table:   b.cols.Table,
		Where:   where,
		Args:    args,
		OrderBy: b.orderBy(),
	}, nil
}

// orderBy implements: left ASC by default, left DESC when direction is
// previous (so .one() yields the nearest sibling), reverse inverts
// whichever default applies.
func (b *Builder) orderBy() string {
	desc := b.direction == DirectionPrevious
	if b.reverse {
		desc = !desc
	}
	if desc {
		return b.cols.Left + " DESC"
	}
	return b.cols.Left + " ASC"
}
