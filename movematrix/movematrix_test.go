package movematrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nstlib/nst/pathcodec"
)

func TestBuildRelocatesNode(t *testing.T) {
	fromParent, err := pathcodec.FromPath("2")
	require.NoError(t, err)
	toParent, err := pathcodec.FromPath("3")
	require.NoError(t, err)

	node, err := pathcodec.FromPath("2.1")
	require.NoError(t, err)

	T, err := Build(fromParent, toParent, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), T.Determinant().Int64())

	moved := T.Multiply(node)
	path, err := pathcodec.ToPath(moved)
	require.NoError(t, err)
	assert.Equal(t, "3.1", path)
}

func TestBuildRelocatesWholeSubtreeConsistently(t *testing.T) {
	fromParent, err := pathcodec.FromPath("2")
	require.NoError(t, err)
	toParent, err := pathcodec.FromPath("5")
	require.NoError(t, err)

	T, err := Build(fromParent, toParent, 2) // old last segment 1 -> new last segment 3
	require.NoError(t, err)

	node, err := pathcodec.FromPath("2.1")
	require.NoError(t, err)
	grandchild, err := pathcodec.FromPath("2.1.5")
	require.NoError(t, err)

	movedNode := T.Multiply(node)
	movedGrandchild := T.Multiply(grandchild)

	nodePath, err := pathcodec.ToPath(movedNode)
	require.NoError(t, err)
	grandchildPath, err := pathcodec.ToPath(movedGrandchild)
	require.NoError(t, err)

	assert.Equal(t, "5.3", nodePath)
	assert.Equal(t, "5.3.5", grandchildPath)
}

func TestBuildWithinSameParentShiftsSiblingOrder(t *testing.T) {
	parent, err := pathcodec.FromPath("4")
	require.NoError(t, err)

	node, err := pathcodec.FromPath("4.2")
	require.NoError(t, err)

	T, err := Build(parent, parent, 1)
	require.NoError(t, err)

	moved := T.Multiply(node)
	path, err := pathcodec.ToPath(moved)
	require.NoError(t, err)
	assert.Equal(t, "4.3", path)
}

func TestBuildIntoUsesTargetAsNewParent(t *testing.T) {
	fromParent, err := pathcodec.FromPath("2.4")
	require.NoError(t, err)
	target, err := pathcodec.FromPath("5")
	require.NoError(t, err)

	node, err := pathcodec.FromPath("2.4.3")
	require.NoError(t, err)

	T, err := BuildInto(fromParent, target, 0)
	require.NoError(t, err)

	moved := T.Multiply(node)
	path, err := pathcodec.ToPath(moved)
	require.NoError(t, err)
	assert.Equal(t, "5.3", path)
}

func TestBuildAtForestRootUsesRootMatrix(t *testing.T) {
	root := pathcodec.RootMatrix()
	toParent, err := pathcodec.FromPath("9")
	require.NoError(t, err)

	node, err := pathcodec.FromPath("2")
	require.NoError(t, err)

	T, err := Build(root, toParent, 0)
	require.NoError(t, err)

	moved := T.Multiply(node)
	path, err := pathcodec.ToPath(moved)
	require.NoError(t, err)
	assert.Equal(t, "9.2", path)
}
