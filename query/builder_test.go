package query

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testColumns() ColumnSet {
	return ColumnSet{Table: "nodes", PK: "id", Path: "path", Left: "lft", Right: "rgt", Level: "lvl"}
}

func rat(n, d int64) *big.Rat { return big.NewRat(n, d) }

func TestRootsScope(t *testing.T) {
	b := New(testColumns()).Roots()
	c, err := b.Prepare()
	require.NoError(t, err)

	assert.Equal(t, "lvl = ?", c.Where)
	assert.Equal(t, []any{int64(1)}, c.Args)
	assert.Equal(t, "lft ASC", c.OrderBy)
}

func TestChildrenScopeExcludesSelfByDefault(t *testing.T) {
	ref := Reference{Left: rat(2, 1), Right: rat(3, 1), Level: 1}
	c, err := New(testColumns()).Children().Bind(ref).Prepare()
	require.NoError(t, err)

	assert.Equal(t, "lft > ? AND rgt < ? AND lvl = ?", c.Where)
	assert.Equal(t, []any{2.0, 3.0, int64(2)}, c.Args)
}

func TestChildrenScopeIncludeSelfUsesClosedBounds(t *testing.T) {
	ref := Reference{Left: rat(2, 1), Right: rat(3, 1), Level: 1}
	c, err := New(testColumns()).Children().IncludeSelf().Bind(ref).Prepare()
	require.NoError(t, err)

	assert.Equal(t, "lft >= ? AND rgt <= ? AND lvl = ?", c.Where)
}

func TestChildrenScopeIncludeDescendantsDropsLevel(t *testing.T) {
	ref := Reference{Left: rat(2, 1), Right: rat(3, 1), Level: 1}
	c, err := New(testColumns()).Children().IncludeDescendants().Bind(ref).Prepare()
	require.NoError(t, err)

	assert.Equal(t, "lft > ? AND rgt < ?", c.Where)
}

func TestParentScope(t *testing.T) {
	ref := Reference{Left: rat(5, 2), Right: rat(7, 2), Level: 3}
	c, err := New(testColumns()).Parent().Bind(ref).Prepare()
	require.NoError(t, err)

	assert.Equal(t, "lft < ? AND rgt > ? AND lvl = ?", c.Where)
	assert.Equal(t, []any{2.5, 3.5, int64(2)}, c.Args)
}

func TestSiblingsRootScopeFiltersLevelOne(t *testing.T) {
	ref := Reference{Left: rat(2, 1), Right: rat(3, 1), Level: 1}
	c, err := New(testColumns()).Siblings().Bind(ref).Prepare()
	require.NoError(t, err)

	assert.Equal(t, "lvl = ? AND lft <> ?", c.Where)
}

func TestSiblingsNonRootScopeUsesParentInterval(t *testing.T) {
	ref := Reference{
		Left: rat(5, 1), Right: rat(6, 1), Level: 2,
		ParentLeft: rat(1, 1), ParentRight: rat(10, 1),
	}
	c, err := New(testColumns()).Siblings().Bind(ref).Prepare()
	require.NoError(t, err)

	assert.Equal(t, "lft > ? AND rgt < ? AND lvl = ? AND lft <> ?", c.Where)
}

func TestSiblingsDirectionNext(t *testing.T) {
	ref := Reference{Left: rat(5, 1), Right: rat(6, 1), Level: 2, ParentLeft: rat(1, 1), ParentRight: rat(10, 1)}
	c, err := New(testColumns()).Siblings().Next().Bind(ref).Prepare()
	require.NoError(t, err)

	assert.Equal(t, "lft > ? AND rgt < ? AND lvl = ? AND lft >= ?", c.Where)
	assert.Equal(t, []any{1.0, 10.0, int64(2), 6.0}, c.Args)
}

func TestSiblingsDirectionPreviousOrdersDescending(t *testing.T) {
	ref := Reference{Left: rat(5, 1), Right: rat(6, 1), Level: 2, ParentLeft: rat(1, 1), ParentRight: rat(10, 1)}
	c, err := New(testColumns()).Siblings().Previous().Bind(ref).Prepare()
	require.NoError(t, err)

	assert.Equal(t, "lft DESC", c.OrderBy)
}

func TestReverseInvertsDefaultOrder(t *testing.T) {
	c, err := New(testColumns()).Roots().Reverse().Prepare()
	require.NoError(t, err)
	assert.Equal(t, "lft DESC", c.OrderBy)
}

func TestNaturalUndoesReverse(t *testing.T) {
	c, err := New(testColumns()).Roots().Reverse().Natural().Prepare()
	require.NoError(t, err)
	assert.Equal(t, "lft ASC", c.OrderBy)
}

func TestExcludingBothDropsWholeSubtree(t *testing.T) {
	ref := Reference{Left: rat(2, 1), Right: rat(9, 1), Level: 1}
	c, err := New(testColumns()).Excluding().ExcludeSelf().ExcludeDescendants().Bind(ref).Prepare()
	require.NoError(t, err)

	assert.Equal(t, "NOT (lft >= ? AND rgt <= ?)", c.Where)
}

func TestExcludingDescendantsOnlyKeepsSelf(t *testing.T) {
	ref := Reference{Left: rat(2, 1), Right: rat(9, 1), Level: 1}
	c, err := New(testColumns()).Excluding().ExcludeDescendants().Bind(ref).Prepare()
	require.NoError(t, err)

	assert.Equal(t, "NOT (lft > ? AND rgt < ?)", c.Where)
}

func TestOrderIndependenceOfFlagsAndTokens(t *testing.T) {
	ref := Reference{Left: rat(2, 1), Right: rat(3, 1), Level: 1}

	a, err := New(testColumns()).IncludeSelf().Children().Bind(ref).Prepare()
	require.NoError(t, err)
	b, err := New(testColumns()).Bind(ref).Children().IncludeSelf().Prepare()
	require.NoError(t, err)

	assert.Equal(t, a.Where, b.Where)
	assert.Equal(t, a.Args, b.Args)
}

func TestPrepareRejectsSecondCall(t *testing.T) {
	b := New(testColumns()).Roots()
	_, err := b.Prepare()
	require.NoError(t, err)

	_, err = b.Prepare()
	assert.Error(t, err)
}

func TestPrepareRejectsUnboundNonRootScope(t *testing.T) {
	_, err := New(testColumns()).Children().Prepare()
	assert.Error(t, err)
}

func TestValuesAreParameterizedNeverInterpolated(t *testing.T) {
	ref := Reference{Left: rat(2, 1), Right: rat(3, 1), Level: 1}
	c, err := New(testColumns()).Children().Bind(ref).Prepare()
	require.NoError(t, err)

	assert.NotContains(t, c.Where, "2")
	assert.NotContains(t, c.Where, "3")
}
