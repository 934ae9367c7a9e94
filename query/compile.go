package query

import (
	"fmt"
	"math/big"
	"strings"
)

// predicate builds the abstract WHERE-clause IR for the current flag set,
// following the compilation table of §4.6.
func (b *Builder) predicate() (Predicate, error) {
	switch b.scope {
	case ScopeRoots:
		return Cmp{Column: b.cols.Level, Op: "=", Value: int64(1)}, nil
	case ScopeChildren:
		return b.childrenPredicate(), nil
	case ScopeParent:
		return b.parentPredicate(), nil
	case ScopeSiblings:
		return b.siblingsPredicate(), nil
	case ScopeExcluding:
		return b.excludingPredicate(), nil
	default:
		return nil, fmt.Errorf("query: no scope selected; call Roots/Children/Parent/Siblings/Excluding before Prepare")
	}
}

func (b *Builder) childrenPredicate() Predicate {
	op := ">"
	if b.includeSelf {
		op = ">="
	}
	rightOp := "<"
	if b.includeSelf {
		rightOp = "<="
	}
	preds := []Predicate{
		Cmp{Column: b.cols.Left, Op: op, Value: ratValue(b.ref.Left)},
		Cmp{Column: b.cols.Right, Op: rightOp, Value: ratValue(b.ref.Right)},
	}
	if !b.includeDescendants {
		preds = append(preds, Cmp{Column: b.cols.Level, Op: "=", Value: int64(b.ref.Level + 1)})
	}
	return And{Predicates: preds}
}

func (b *Builder) parentPredicate() Predicate {
	preds := []Predicate{
		Cmp{Column: b.cols.Left, Op: "<", Value: ratValue(b.ref.Left)},
		Cmp{Column: b.cols.Right, Op: ">", Value: ratValue(b.ref.Right)},
	}
	if !b.includeAncestors {
		preds = append(preds, Cmp{Column: b.cols.Level, Op: "=", Value: int64(b.ref.Level - 1)})
	}
	return And{Predicates: preds}
}

// siblingsPredicate implements the non-root/root split of §4.6: a non-root
// reference is scoped to its parent's boundary interval (with the sibling
// level filter dropped under IncludeDescendants, symmetric with the root
// case below); a root reference gets no interval clause at all and is
// instead scoped to level=1 unless descendants are included.
func (b *Builder) siblingsPredicate() Predicate {
	var preds []Predicate

	if b.ref.Level > 1 && b.ref.ParentLeft != nil && b.ref.ParentRight != nil {
		preds = append(preds,
			Cmp{Column: b.cols.Left, Op: ">", Value: ratValue(b.ref.ParentLeft)},
			Cmp{Column: b.cols.Right, Op: "<", Value: ratValue(b.ref.ParentRight)},
		)
		if !b.includeDescendants {
			preds = append(preds, Cmp{Column: b.cols.Level, Op: "=", Value: int64(b.ref.Level)})
		}
	} else if !b.includeDescendants {
		preds = append(preds, Cmp{Column: b.cols.Level, Op: "=", Value: int64(1)})
	}

	switch b.direction {
	case DirectionNext:
		bound := b.ref.Right
		if b.includeSelf {
			bound = b.ref.Left
		}
		preds = append(preds, Cmp{Column: b.cols.Left, Op: ">=", Value: ratValue(bound)})
	case DirectionPrevious:
		bound := b.ref.Left
		if b.includeSelf {
			bound = b.ref.Right
		}
		preds = append(preds, Cmp{Column: b.cols.Right, Op: "<=", Value: ratValue(bound)})
	default:
		if !b.includeSelf {
			preds = append(preds, Cmp{Column: b.cols.Left, Op: "<>", Value: ratValue(b.ref.Left)})
		}
	}

	if len(preds) == 0 {
		return And{}
	}
	return And{Predicates: preds}
}

func (b *Builder) excludingPredicate() Predicate {
	switch {
	case b.excludeSelf && b.excludeDescendants:
		return Not{Predicate: And{Predicates: []Predicate{
			Cmp{Column: b.cols.Left, Op: ">=", Value: ratValue(b.ref.Left)},
			Cmp{Column: b.cols.Right, Op: "<=", Value: ratValue(b.ref.Right)},
		}}}
	case b.excludeDescendants:
		return Not{Predicate: And{Predicates: []Predicate{
			Cmp{Column: b.cols.Left, Op: ">", Value: ratValue(b.ref.Left)},
			Cmp{Column: b.cols.Right, Op: "<", Value: ratValue(b.ref.Right)},
		}}}
	default:
		return Cmp{Column: b.cols.Left, Op: "<>", Value: ratValue(b.ref.Left)}
	}
}

// ratValue converts an exact rational boundary to the float64 the tree
// table's left/right columns hold. Boundary comparisons are advisory over
// SQL (they narrow a candidate set); the path column remains the source
// of truth any caller decodes back to an exact matrix via pathcodec.
func ratValue(r *big.Rat) any {
	if r == nil {
		return nil
	}
	f, _ := r.Float64()
	return f
}

// compilePredicate renders a Predicate tree to parameterized SQL text.
// Values are never interpolated into the SQL string.
func compilePredicate(p Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case Cmp:
		return fmt.Sprintf("%s %s ?", pred.Column, pred.Op), []any{pred.Value}, nil
	case And:
		if len(pred.Predicates) == 0 {
			return "1 = 1", nil, nil
		}
		var parts []string
		var args []any
		for _, sub := range pred.Predicates {
			sql, subArgs, err := compilePredicate(sub)
			if err != nil {
				return "", nil, err
			}
			parts = append(parts, sql)
			args = append(args, subArgs...)
		}
		return strings.Join(parts, " AND "), args, nil
	case Not:
		sql, args, err := compilePredicate(pred.Predicate)
		if err != nil {
			return "", nil, err
		}
		return "NOT (" + sql + ")", args, nil
	case Raw:
		return pred.SQL, pred.Args, nil
	default:
		return "", nil, fmt.Errorf("query: unsupported predicate type %T", p)
	}
}
