package nsterr

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPredicatesMatchCode(t *testing.T) {
	err := InvalidItemConfiguration("1.2", "path does not resolve to an existing record")

	assert.True(t, IsInvalidItemConfiguration(err))
	assert.False(t, IsReadOnlyTreeField(err))
	assert.False(t, IsDatabaseFailure(err))
	assert.False(t, IsInvariantViolation(err))
	assert.False(t, IsInvalidSegment(err))
}

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	inner := ReadOnlyTreeField("path")
	wrapped := fmt.Errorf("save: %w", inner)

	assert.True(t, IsReadOnlyTreeField(wrapped))
}

func TestDatabaseFailureWrapsCause(t *testing.T) {
	cause := fmt.Errorf("sqlite: database is locked")
	err := DatabaseFailure("saveInto", cause)

	assert.True(t, IsDatabaseFailure(err))
	assert.Contains(t, err.Error(), "saveInto")
	assert.Contains(t, err.Error(), "database is locked")
}

func TestErrorMessageIncludesPath(t *testing.T) {
	err := InvalidItemConfiguration("1.2.3", "new record already has a path")
	assert.Contains(t, err.Error(), "1.2.3")
}

func TestInvariantViolationCarriesDetails(t *testing.T) {
	err := InvariantViolation("parent of root matrix is degenerate", map[string]string{"matrix": "(0,1,1,0)"})
	assert.Equal(t, "(0,1,1,0)", err.Details["matrix"])
	assert.True(t, IsInvariantViolation(err))
}
