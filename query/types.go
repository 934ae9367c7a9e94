package query

// Scope selects which family of rows a Builder targets.
type Scope int

const (
	ScopeNone Scope = iota
	ScopeRoots
	ScopeChildren
	ScopeParent
	ScopeSiblings
	ScopeExcluding
)

// Direction narrows siblings to one side of the reference node.
type Direction int

const (
	DirectionNone Direction = iota
	DirectionNext
	DirectionPrevious
)
