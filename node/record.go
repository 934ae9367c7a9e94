package node

import (
	"context"
	"fmt"
	"math/big"

	"github.com/nstlib/nst/attrs"
	"github.com/nstlib/nst/matrix"
	"github.com/nstlib/nst/nsterr"
	"github.com/nstlib/nst/pathcodec"
	"github.com/nstlib/nst/query"
	"github.com/nstlib/nst/treeengine"
)

// Columns names the four tree columns plus the column a Record stores its
// Attrs payload under.
type Columns struct {
	query.ColumnSet
	Attrs string
}

// Record is the per-row state of one tree-table entry: the tree columns
// (path, left, right, level - always derived, never set directly) plus an
// Attrs payload. It holds no mutation algorithm of its own; every
// positional method translates to a treeengine.Ref and delegates.
type Record struct {
	engine *treeengine.Engine
	cols   Columns

	pk      any
	path    string
	left    *big.Rat
	right   *big.Rat
	level   int
	payload attrs.Value

	cachedMatrix matrix.Matrix
	hasMatrix    bool

	// readonly gates checkExtraField: while true (the default), extra
	// fields passed to Save/SaveInto/SaveBefore/SaveAfter that name a tree
	// column fail fast with ReadOnlyTreeField. ProtectReadonly(false) lifts
	// that early check for diagnostic use; the engine's own guardFields
	// still rejects tree columns unconditionally, so turning this off
	// never actually lets a caller corrupt path/left/right/level - it only
	// trades this package's error for the engine's.
	readonly bool
}

// New returns an unsaved Record with no path yet. Set its payload with
// SetPayload, then call Save, SaveInto, SaveBefore, or SaveAfter to place
// it in the forest.
func New(engine *treeengine.Engine, cols Columns) *Record {
	return &Record{engine: engine, cols: cols, readonly: true, payload: attrs.Object{}}
}

// Load resolves path to an existing Record.
func Load(ctx context.Context, engine *treeengine.Engine, cols Columns, path string) (*Record, error) {
	r := &Record{engine: engine, cols: cols, readonly: true}
	var extra []string
	if cols.Attrs != "" {
		extra = []string{cols.Attrs}
	}
	ref, vals, err := engine.LoadRow(ctx, path, extra...)
	if err != nil {
		return nil, err
	}
	r.setFromRef(ref)
	if cols.Attrs != "" {
		payload, err := decodePayload(vals[0])
		if err != nil {
			return nil, fmt.Errorf("node: decode payload at %q: %w", path, err)
		}
		r.payload = payload
	} else {
		r.payload = attrs.Object{}
	}
	return r, nil
}

func decodePayload(raw any) (attrs.Value, error) {
	if raw == nil {
		return attrs.Object{}, nil
	}
	var data []byte
	switch v := raw.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return nil, fmt.Errorf("node: unexpected attrs column value of type %T", raw)
	}
	if len(data) == 0 {
		return attrs.Object{}, nil
	}
	return attrs.UnmarshalValue(data)
}

func (r *Record) setFromRef(ref treeengine.Ref) {
	r.pk = ref.PK
	r.path = ref.Path
	r.left = ref.Left
	r.right = ref.Right
	r.level = ref.Level
	r.hasMatrix = false
}

func (r *Record) toRef() treeengine.Ref {
	return treeengine.Ref{PK: r.pk, Path: r.path, Left: r.left, Right: r.right, Level: r.level}
}

func (r *Record) fieldsForSave(extra ...map[string]any) (map[string]any, error) {
	fields := make(map[string]any)
	if r.cols.Attrs != "" {
		encoded, err := attrs.MarshalValue(r.payload)
		if err != nil {
			// Payload was constructed through this package's own Value
			// algebra; an unmarshalable payload would mean a caller built a
			// Value outside that algebra.
			panic(fmt.Sprintf("node: payload does not marshal: %v", err))
		}
		fields[r.cols.Attrs] = string(encoded)
	}
	for _, m := range extra {
		for k, v := range m {
			if err := r.checkExtraField(k); err != nil {
				return nil, err
			}
			fields[k] = v
		}
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return fields, nil
}

// checkExtraField rejects a caller-supplied field name that names the
// primary key or one of the four tree columns, unless protection has been
// turned off.
func (r *Record) checkExtraField(name string) error {
	if !r.readonly {
		return nil
	}
	for _, reserved := range []string{r.cols.PK, r.cols.Path, r.cols.Left, r.cols.Right, r.cols.Level} {
		if reserved != "" && name == reserved {
			return nsterr.ReadOnlyTreeField(name)
		}
	}
	return nil
}

// ProtectReadonly toggles the early tree-column check in Save/SaveInto/
// SaveBefore/SaveAfter's extra-fields parameter. It is on by default;
// turning it off is a diagnostic escape hatch only - the engine beneath
// this package still refuses to write path/left/right/level directly, so
// this can never be used to desynchronize them from their derived values.
func (r *Record) ProtectReadonly(protect bool) { r.readonly = protect }

// PK returns the record's primary key, or nil if it has never been saved.
func (r *Record) PK() any { return r.pk }

// Path returns the record's current path, or "" if it has never been
// saved.
func (r *Record) Path() string { return r.path }

// Level returns the record's current depth (1 for a root).
func (r *Record) Level() int { return r.level }

// IsRoot reports whether the record sits at the forest's top level.
func (r *Record) IsRoot() bool { return r.level == 1 }

// Payload returns the record's current Attrs value.
func (r *Record) Payload() attrs.Value { return r.payload }

// SetPayload replaces the record's Attrs value. It takes effect on the
// next Save/SaveInto/SaveBefore/SaveAfter call.
func (r *Record) SetPayload(v attrs.Value) { r.payload = v }

// Matrix returns the record's canonical matrix, computed from its path on
// first use and cached until the next positional write.
func (r *Record) Matrix() (matrix.Matrix, error) {
	if r.path == "" {
		return matrix.Matrix{}, fmt.Errorf("node: record has no path yet")
	}
	if !r.hasMatrix {
		m, err := pathcodec.FromPath(r.path)
		if err != nil {
			return matrix.Matrix{}, err
		}
		r.cachedMatrix = m
		r.hasMatrix = true
	}
	return r.cachedMatrix, nil
}

// CanMove reports whether the record may be relocated to or adjacent to
// targetPath: moving a node into itself or one of its own descendants is
// never allowed.
func (r *Record) CanMove(targetPath string) bool {
	return r.toRef().CanMove(targetPath)
}

// RelativeQuery returns a query.Builder bound to this record's boundary
// interval. The caller selects a scope (Roots/Children/Parent/Siblings/
// Excluding) before calling Prepare.
func (r *Record) RelativeQuery() (*query.Builder, error) {
	ref, err := r.toRef().Reference()
	if err != nil {
		return nil, err
	}
	return query.New(r.cols.ColumnSet).Bind(ref), nil
}

// Save persists the record's current payload, plus any extra fields. An
// unsaved record (PK == nil) is appended as the forest's new last root; an
// existing record only has its fields saved - Save never repositions it.
func (r *Record) Save(ctx context.Context, extra ...map[string]any) error {
	fields, err := r.fieldsForSave(extra...)
	if err != nil {
		return err
	}
	result, err := r.engine.Save(ctx, r.toRef(), fields)
	if err != nil {
		return err
	}
	r.setFromRef(result)
	return nil
}

// SaveInto persists the record as the last child of targetPath, relocating
// it there if it already exists elsewhere and CanMove(targetPath) holds.
func (r *Record) SaveInto(ctx context.Context, targetPath string, extra ...map[string]any) error {
	fields, err := r.fieldsForSave(extra...)
	if err != nil {
		return err
	}
	result, err := r.engine.SaveInto(ctx, r.toRef(), targetPath, fields)
	if err != nil {
		return err
	}
	r.setFromRef(result)
	return nil
}

// SaveBefore persists the record positioned immediately before targetPath.
func (r *Record) SaveBefore(ctx context.Context, targetPath string, extra ...map[string]any) error {
	fields, err := r.fieldsForSave(extra...)
	if err != nil {
		return err
	}
	result, err := r.engine.SaveBefore(ctx, r.toRef(), targetPath, fields)
	if err != nil {
		return err
	}
	r.setFromRef(result)
	return nil
}

// SaveAfter persists the record positioned immediately after targetPath.
func (r *Record) SaveAfter(ctx context.Context, targetPath string, extra ...map[string]any) error {
	fields, err := r.fieldsForSave(extra...)
	if err != nil {
		return err
	}
	result, err := r.engine.SaveAfter(ctx, r.toRef(), targetPath, fields)
	if err != nil {
		return err
	}
	r.setFromRef(result)
	return nil
}

// Delete removes the record and its entire subtree, returning the number
// of rows removed.
func (r *Record) Delete(ctx context.Context) (int64, error) {
	return r.engine.Delete(ctx, r.toRef())
}
