package schema

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/nstlib/nst/query"
)

// SchemaSpec names the table and the five required columns of §6's minimum
// table shape: a primary key plus pathColumn/leftColumn/rightColumn/
// levelColumn. AttrsColumn is optional - a record built without one simply
// carries no payload column (node.Columns.Attrs == "").
type SchemaSpec struct {
	Table       string `yaml:"table" json:"table"`
	PK          string `yaml:"pk" json:"pk"`
	Path        string `yaml:"path" json:"path"`
	Left        string `yaml:"left" json:"left"`
	Right       string `yaml:"right" json:"right"`
	Level       string `yaml:"level" json:"level"`
	AttrsColumn string `yaml:"attrs,omitempty" json:"attrs,omitempty"`
}

// ColumnSet adapts spec to the query.ColumnSet the core algebra consumes.
func (s SchemaSpec) ColumnSet() query.ColumnSet {
	return query.ColumnSet{Table: s.Table, PK: s.PK, Path: s.Path, Left: s.Left, Right: s.Right, Level: s.Level}
}

// cueDefinition is the declarative shape of a SchemaSpec: every column name
// (and the table name) must be a bare SQL identifier, with no quoting
// hazard a caller's query construction would need to escape. Compiled once
// per process and unified against each SchemaSpec value being validated.
const cueDefinition = `
#SchemaSpec: {
	table: string & =~"^[A-Za-z_][A-Za-z0-9_]*$"
	pk:    string & =~"^[A-Za-z_][A-Za-z0-9_]*$"
	path:  string & =~"^[A-Za-z_][A-Za-z0-9_]*$"
	left:  string & =~"^[A-Za-z_][A-Za-z0-9_]*$"
	right: string & =~"^[A-Za-z_][A-Za-z0-9_]*$"
	level: string & =~"^[A-Za-z_][A-Za-z0-9_]*$"
	attrs?: string & =~"^[A-Za-z_][A-Za-z0-9_]*$"
}
`

// ValidationError reports one offline SchemaSpec defect. Field is "" when
// the failure is CUE's own (malformed identifier, etc.) rather than a
// field-specific Go-side check.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("schema: %s", e.Message)
	}
	return fmt.Sprintf("schema: %s: %s", e.Field, e.Message)
}

// SchemaValidator compiles cueDefinition once and reuses the compiled value
// across calls to Validate/ValidateLive.
type SchemaValidator struct {
	def cue.Value
}

// NewValidator compiles the CUE schema definition. An error here signals a
// bug in cueDefinition itself, not in any caller-supplied SchemaSpec.
func NewValidator() (*SchemaValidator, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(cueDefinition)
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("schema: compile definition: %w", err)
	}
	def := v.LookupPath(cue.ParsePath("#SchemaSpec"))
	if !def.Exists() {
		return nil, fmt.Errorf("schema: #SchemaSpec definition not found")
	}
	return &SchemaValidator{def: def}, nil
}

// Validate checks spec's shape offline: unifies the encoded spec against
// the compiled CUE definition (identifier-shaped names, via regex), then
// additionally checks - in Go, since CUE's structural unification has no
// convenient "all these strings are pairwise distinct" primitive - that
// the five required columns are all non-empty and mutually distinct.
func (v *SchemaValidator) Validate(spec SchemaSpec) error {
	ctx := v.def.Context()
	encoded := ctx.Encode(spec)
	if err := encoded.Err(); err != nil {
		return &ValidationError{Message: fmt.Sprintf("encode spec: %v", err)}
	}

	unified := v.def.Unify(encoded)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return &ValidationError{Message: err.Error()}
	}

	required := map[string]string{
		"pk":    spec.PK,
		"path":  spec.Path,
		"left":  spec.Left,
		"right": spec.Right,
		"level": spec.Level,
	}
	seen := make(map[string]string, len(required))
	for field, name := range required {
		if name == "" {
			return &ValidationError{Field: field, Message: "column name must not be empty"}
		}
		if other, ok := seen[name]; ok {
			return &ValidationError{Field: field, Message: fmt.Sprintf("column %q is also used by %q; the five required columns must be mutually distinct", name, other)}
		}
		seen[name] = field
	}
	if spec.AttrsColumn != "" {
		if other, ok := seen[spec.AttrsColumn]; ok {
			return &ValidationError{Field: "attrs", Message: fmt.Sprintf("column %q is also used by %q", spec.AttrsColumn, other)}
		}
	}
	if spec.Table == "" {
		return &ValidationError{Field: "table", Message: "table name must not be empty"}
	}
	return nil
}
