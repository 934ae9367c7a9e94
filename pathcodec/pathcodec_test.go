package pathcodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromPathSingleSegment(t *testing.T) {
	m, err := FromPath("1")
	require.NoError(t, err)
	a, b, c, d := m.Int64()
	assert.Equal(t, [4]int64{1, 2, 1, 1}, [4]int64{a, b, c, d})

	m, err = FromPath("2")
	require.NoError(t, err)
	a, b, c, d = m.Int64()
	assert.Equal(t, [4]int64{2, 3, 1, 1}, [4]int64{a, b, c, d})
}

func TestFromPathMatchesPublishedExample(t *testing.T) {
	m, err := FromPath("2.4.3")
	require.NoError(t, err)

	a, b, c, d := m.Int64()
	assert.Equal(t, [4]int64{65, 82, 23, 29}, [4]int64{a, b, c, d})
	assert.Equal(t, int64(-1), m.Determinant().Int64())

	left := Left(m)
	right := Right(m)
	assert.Equal(t, "65/23", left.RatString())
	assert.Equal(t, "82/29", right.RatString())
}

func TestFromPathRejectsInvalidSegment(t *testing.T) {
	_, err := FromPath("2.0.3")
	require.Error(t, err)
	var invalid *InvalidSegmentError
	assert.ErrorAs(t, err, &invalid)
}

func TestFromPathRejectsEmptyPath(t *testing.T) {
	_, err := FromPath("")
	assert.Error(t, err)
}

func TestToPathRoundTrip(t *testing.T) {
	for _, path := range []string{"1", "2", "1.1", "2.4.3", "3.1.4.1.5"} {
		m, err := FromPath(path)
		require.NoError(t, err)

		got, err := ToPath(m)
		require.NoError(t, err)
		assert.Equal(t, path, got)
	}
}

func TestParentOfRootIsDegenerate(t *testing.T) {
	m, err := FromPath("2")
	require.NoError(t, err)

	_, ok := Parent(m)
	assert.False(t, ok)
}

func TestParentOfChildIsRoot(t *testing.T) {
	m, err := FromPath("2.4")
	require.NoError(t, err)

	parent, ok := Parent(m)
	require.True(t, ok)

	root, err := FromPath("2")
	require.NoError(t, err)
	assert.True(t, parent.Equal(root))
}

func TestAncestorPaths(t *testing.T) {
	paths, err := AncestorPaths("2.4.3")
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "2.4"}, paths)
}

func TestAncestorPathsOfRootIsEmpty(t *testing.T) {
	paths, err := AncestorPaths("2")
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestAncestorMatricesMatchesAncestorPaths(t *testing.T) {
	m, err := FromPath("2.4.3")
	require.NoError(t, err)
	a, _, c, _ := m.Int64()

	ancestors, err := AncestorMatrices(a, c)
	require.NoError(t, err)
	require.Len(t, ancestors, 2)

	root, err := FromPath("2")
	require.NoError(t, err)
	parent, err := FromPath("2.4")
	require.NoError(t, err)

	assert.True(t, ancestors[0].Equal(root))
	assert.True(t, ancestors[1].Equal(parent))
}

func TestAncestorMatricesOfRootIsEmpty(t *testing.T) {
	m, err := FromPath("2")
	require.NoError(t, err)
	a, _, c, _ := m.Int64()

	ancestors, err := AncestorMatrices(a, c)
	require.NoError(t, err)
	assert.Empty(t, ancestors)
}

func TestAncestorMatricesRejectsNonPositive(t *testing.T) {
	_, err := AncestorMatrices(0, 1)
	assert.Error(t, err)

	_, err = AncestorMatrices(1, 0)
	assert.Error(t, err)
}

func TestIsAncestorOf(t *testing.T) {
	assert.True(t, IsAncestorOf("2", "2.4"))
	assert.True(t, IsAncestorOf("2", "2.4.3"))
	assert.True(t, IsAncestorOf("2.4", "2.4.3"))
	assert.False(t, IsAncestorOf("2.4.3", "2.4.3"))
	assert.False(t, IsAncestorOf("2.4", "2"))
	assert.False(t, IsAncestorOf("3", "2.4.3"))
}

func TestBasePath(t *testing.T) {
	assert.Equal(t, "2.4", BasePath("2.4.3"))
	assert.Equal(t, "", BasePath("2"))
}

func TestLevelOfPath(t *testing.T) {
	level, err := LevelOfPath("2.4.3")
	require.NoError(t, err)
	assert.Equal(t, 3, level)
}

func TestLevelOfMatrix(t *testing.T) {
	m, err := FromPath("2.4.3")
	require.NoError(t, err)

	level, err := LevelOfMatrix(m)
	require.NoError(t, err)
	assert.Equal(t, 3, level)
}

func TestLastSegmentOfMatrix(t *testing.T) {
	m, err := FromPath("2.4.3")
	require.NoError(t, err)
	assert.Equal(t, int64(3), LastSegmentOfMatrix(m))
}

func TestBumpMatrixShiftsSegmentMatrix(t *testing.T) {
	sm, err := SegmentMatrix(3)
	require.NoError(t, err)

	shifted := BumpMatrix(1).Multiply(sm)

	want, err := SegmentMatrix(4)
	require.NoError(t, err)
	assert.True(t, shifted.Equal(want))
}

func TestBumpMatrixZeroIsIdentity(t *testing.T) {
	sm, err := SegmentMatrix(3)
	require.NoError(t, err)

	same := BumpMatrix(0).Multiply(sm)
	assert.True(t, sm.Equal(same))
}

func TestParsePathRejectsNonPositiveSegment(t *testing.T) {
	_, err := ParsePath("2.-1.3")
	require.Error(t, err)
	var invalid *InvalidSegmentError
	assert.ErrorAs(t, err, &invalid)
}

func TestFormatPathRoundTripsParsePath(t *testing.T) {
	segments := []int64{2, 4, 3}
	assert.Equal(t, "2.4.3", FormatPath(segments))

	parsed, err := ParsePath("2.4.3")
	require.NoError(t, err)
	assert.Equal(t, segments, parsed)
}
