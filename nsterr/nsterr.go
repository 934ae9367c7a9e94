// Package nsterr defines the structured error type that node, treeengine,
// migrate and validate raise: a Code enum, a human-readable Message, and
// optional structured Details, with errors.As-friendly predicate helpers so
// callers can branch on error kind without type-switching on concrete
// types. pathcodec reports its own errors (*pathcodec.InvalidSegmentError
// and plain errors), not TreeErrors.
package nsterr

import (
	"errors"
	"fmt"
)

// Code categorizes a TreeError.
type Code string

const (
	// CodeInvalidSegment: a path segment <= 0. No constructor here builds
	// it, and pathcodec.SegmentMatrix reports that case as a
	// *pathcodec.InvalidSegmentError, which IsInvalidSegment does not match.
	CodeInvalidSegment Code = "INVALID_SEGMENT"

	// CodeInvalidItemConfiguration: a path-string target did not resolve to
	// an existing row, or a new record was handed to saveInto/saveBefore/
	// saveAfter while it already carries a path.
	CodeInvalidItemConfiguration Code = "INVALID_ITEM_CONFIGURATION"

	// CodeReadOnlyTreeField: a caller tried to write left/right/path/level
	// through the public NodeRecord surface while protection is on.
	CodeReadOnlyTreeField Code = "READ_ONLY_TREE_FIELD"

	// CodeDatabaseFailure: any underlying Store failure. The enclosing
	// transaction is rolled back before this is raised.
	CodeDatabaseFailure Code = "DATABASE_FAILURE"

	// CodeInvariantViolation: a defensive check (the subtree guard, the
	// soundness checker, a degenerate matrix) detected a state that should
	// be unreachable.
	CodeInvariantViolation Code = "INVARIANT_VIOLATION"
)

// TreeError is the structured error type raised across the module.
type TreeError struct {
	Code    Code
	Message string
	Path    string
	Details map[string]string
}

func (e *TreeError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (path=%s)", e.Code, e.Message, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func hasCode(err error, code Code) bool {
	var te *TreeError
	if errors.As(err, &te) {
		return te.Code == code
	}
	return false
}

// IsInvalidSegment reports whether err (or a wrapped cause) is a
// CodeInvalidSegment TreeError.
func IsInvalidSegment(err error) bool { return hasCode(err, CodeInvalidSegment) }

// IsInvalidItemConfiguration reports whether err (or a wrapped cause) is a
// CodeInvalidItemConfiguration TreeError.
func IsInvalidItemConfiguration(err error) bool { return hasCode(err, CodeInvalidItemConfiguration) }

// IsReadOnlyTreeField reports whether err (or a wrapped cause) is a
// CodeReadOnlyTreeField TreeError.
func IsReadOnlyTreeField(err error) bool { return hasCode(err, CodeReadOnlyTreeField) }

// IsDatabaseFailure reports whether err (or a wrapped cause) is a
// CodeDatabaseFailure TreeError.
func IsDatabaseFailure(err error) bool { return hasCode(err, CodeDatabaseFailure) }

// IsInvariantViolation reports whether err (or a wrapped cause) is a
// CodeInvariantViolation TreeError.
func IsInvariantViolation(err error) bool { return hasCode(err, CodeInvariantViolation) }

// InvalidItemConfiguration builds a CodeInvalidItemConfiguration TreeError.
func InvalidItemConfiguration(path, message string) *TreeError {
	return &TreeError{Code: CodeInvalidItemConfiguration, Message: message, Path: path}
}

// ReadOnlyTreeField builds a CodeReadOnlyTreeField TreeError for the named
// column.
func ReadOnlyTreeField(column string) *TreeError {
	return &TreeError{
		Code:    CodeReadOnlyTreeField,
		Message: fmt.Sprintf("%s is read-only through the record surface", column),
		Details: map[string]string{"column": column},
	}
}

// DatabaseFailure wraps an underlying Store error.
func DatabaseFailure(op string, cause error) *TreeError {
	return &TreeError{
		Code:    CodeDatabaseFailure,
		Message: fmt.Sprintf("%s: %s", op, cause),
		Details: map[string]string{"op": op},
	}
}

// InvariantViolation builds a CodeInvariantViolation TreeError.
func InvariantViolation(message string, details map[string]string) *TreeError {
	return &TreeError{Code: CodeInvariantViolation, Message: message, Details: details}
}
