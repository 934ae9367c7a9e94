package validate

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/nstlib/nst/nsterr"
	"github.com/nstlib/nst/pathcodec"
	"github.com/nstlib/nst/query"
	"github.com/nstlib/nst/store"
)

// floatTolerance absorbs the float64 storage approximation of left/right
// (see DESIGN.md's open-question decision on boundary representation):
// the checker compares the stored column against the exact rational
// pathcodec recomputes from path, not against another stored float.
const floatTolerance = 1e-6

// Violation reports one failed invariant from §8, against the row (or
// pair of rows) it was found on.
type Violation struct {
	Code    string
	Path    string
	Message string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s path=%q: %s", v.Code, v.Path, v.Message)
}

// Report is the result of one whole-forest Verify pass.
type Report struct {
	RowCount   int
	Violations []Violation
}

// OK reports whether the pass found no violations.
func (r Report) OK() bool { return len(r.Violations) == 0 }

// Checker runs the soundness pass against one table, through one
// *store.Store.
type Checker struct {
	store *store.Store
	cols  query.ColumnSet
}

// New builds a Checker for the given table/column configuration.
func New(s *store.Store, cols query.ColumnSet) *Checker {
	return &Checker{store: s, cols: cols}
}

type row struct {
	pk          any
	path        string
	left, right float64
	level       int
}

// Verify re-checks §8's quantified invariants against every row of the
// configured table in one read-only transaction.
func (c *Checker) Verify(ctx context.Context) (Report, error) {
	tx, err := c.store.BeginTx(ctx)
	if err != nil {
		return Report{}, err
	}
	defer tx.Rollback()

	rows, err := c.loadAll(ctx, tx)
	if err != nil {
		return Report{}, err
	}

	report := Report{RowCount: len(rows)}
	for _, r := range rows {
		report.Violations = append(report.Violations, c.checkRow(r)...)
	}
	report.Violations = append(report.Violations, checkSiblingTouch(rows)...)
	report.Violations = append(report.Violations, checkAncestryConsistency(rows)...)

	if err := tx.Commit(); err != nil {
		return Report{}, nsterr.DatabaseFailure("validate Verify commit", err)
	}
	return report, nil
}

func (c *Checker) loadAll(ctx context.Context, tx *store.Tx) ([]row, error) {
	cols := []string{c.cols.PK, c.cols.Path, c.cols.Left, c.cols.Right, c.cols.Level}
	rs, err := tx.Select(ctx, c.cols.Table, cols, "", nil, c.cols.Left+" ASC")
	if err != nil {
		return nil, nsterr.DatabaseFailure("validate loadAll", err)
	}
	defer rs.Close()

	var rows []row
	for rs.Next() {
		var r row
		if err := rs.Scan(&r.pk, &r.path, &r.left, &r.right, &r.level); err != nil {
			return nil, nsterr.DatabaseFailure("validate loadAll scan", err)
		}
		rows = append(rows, r)
	}
	if err := rs.Err(); err != nil {
		return nil, nsterr.DatabaseFailure("validate loadAll iterate", err)
	}
	return rows, nil
}

// checkRow re-derives r's matrix from its path alone and checks det=-1,
// left<right, the stored left/right agree with the recomputed exact
// values within floatTolerance, and level equals the path's segment
// count.
func (c *Checker) checkRow(r row) []Violation {
	var violations []Violation

	m, err := pathcodec.FromPath(r.path)
	if err != nil {
		return []Violation{{Code: "INVALID_PATH", Path: r.path, Message: err.Error()}}
	}

	if det := m.Determinant(); !det.IsInt64() || det.Int64() != -1 {
		violations = append(violations, Violation{Code: "BAD_DETERMINANT", Path: r.path,
			Message: fmt.Sprintf("det=%s, want -1", det)})
	}

	left, _ := pathcodec.Left(m).Float64()
	right, _ := pathcodec.Right(m).Float64()

	if r.left >= r.right {
		violations = append(violations, Violation{Code: "BAD_ORDERING", Path: r.path,
			Message: fmt.Sprintf("left=%v must be < right=%v", r.left, r.right)})
	}
	if math.Abs(r.left-left) > floatTolerance {
		violations = append(violations, Violation{Code: "LEFT_MISMATCH", Path: r.path,
			Message: fmt.Sprintf("stored left=%v, path decodes to %v", r.left, left)})
	}
	if math.Abs(r.right-right) > floatTolerance {
		violations = append(violations, Violation{Code: "RIGHT_MISMATCH", Path: r.path,
			Message: fmt.Sprintf("stored right=%v, path decodes to %v", r.right, right)})
	}

	level, err := pathcodec.LevelOfPath(r.path)
	if err != nil {
		violations = append(violations, Violation{Code: "INVALID_PATH", Path: r.path, Message: err.Error()})
	} else if level != r.level {
		violations = append(violations, Violation{Code: "LEVEL_MISMATCH", Path: r.path,
			Message: fmt.Sprintf("stored level=%d, segment_count(path)=%d", r.level, level)})
	}

	return violations
}

// checkSiblingTouch groups rows by parent path and checks that, ordered by
// left, each adjacent pair sharing a parent touches: the earlier's right
// equals the later's left.
func checkSiblingTouch(rows []row) []Violation {
	groups := make(map[string][]row)
	for _, r := range rows {
		groups[pathcodec.BasePath(r.path)] = append(groups[pathcodec.BasePath(r.path)], r)
	}

	var violations []Violation
	for _, group := range groups {
		sort.Slice(group, func(i, j int) bool { return group[i].left < group[j].left })
		for i := 0; i+1 < len(group); i++ {
			a, b := group[i], group[i+1]
			if math.Abs(a.right-b.left) > floatTolerance {
				violations = append(violations, Violation{Code: "SIBLINGS_DO_NOT_TOUCH", Path: a.path,
					Message: fmt.Sprintf("right=%v does not touch next sibling %q's left=%v", a.right, b.path, b.left)})
			}
		}
	}
	return violations
}

// checkAncestryConsistency checks, for every pair of rows whose boundary
// intervals nest, that the nesting agrees with the dotted-path prefix
// relation - and conversely, for every pair whose paths are in a prefix
// relation, that their intervals nest. O(n^2); this is a whole-forest
// batch pass, not a per-mutation check, so that cost is acceptable.
func checkAncestryConsistency(rows []row) []Violation {
	var violations []Violation
	for i := range rows {
		for j := range rows {
			if i == j {
				continue
			}
			x, y := rows[i], rows[j]
			nested := y.left > x.left && y.right < x.right
			isAncestor := pathcodec.IsAncestorOf(x.path, y.path)
			if nested != isAncestor {
				violations = append(violations, Violation{Code: "ANCESTRY_MISMATCH", Path: y.path,
					Message: fmt.Sprintf("boundary nesting under %q is %v but path-prefix ancestry is %v", x.path, nested, isAncestor)})
			}
		}
	}
	return violations
}
