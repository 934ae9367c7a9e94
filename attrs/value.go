package attrs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"unicode/utf16"
)

// Value is a sealed interface: only Null, String, Int, Bool, Array, and
// Object implement it. There is deliberately no Float — see the package
// doc comment.
type Value interface {
	attrsValue()
}

// Null is the explicit absence-of-value singleton. Callers reach for an
// empty Object rather than Null whenever "no payload" and "absent field"
// need to be distinguished; Null exists mainly so JSON round-tripping has
// somewhere to put a literal null.
type Null struct{}

func (Null) attrsValue() {}

// MarshalJSON implements json.Marshaler for Null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// String is a string-valued attribute.
type String string

func (String) attrsValue() {}

// Int is an integer-valued attribute. Always int64.
type Int int64

func (Int) attrsValue() {}

// Bool is a boolean-valued attribute.
type Bool bool

func (Bool) attrsValue() {}

// Array is an ordered sequence of Values.
type Array []Value

func (Array) attrsValue() {}

// Object is a map of string keys to Values. Use SortedKeys for
// deterministic iteration; plain map iteration is not stable.
type Object map[string]Value

func (Object) attrsValue() {}

// NewString constructs a String value.
func NewString(s string) String { return String(s) }

// NewInt constructs an Int value.
func NewInt(n int64) Int { return Int(n) }

// NewBool constructs a Bool value.
func NewBool(b bool) Bool { return Bool(b) }

// NewArray constructs an Array from its elements.
func NewArray(vals ...Value) Array { return Array(vals) }

// NewObject constructs an Object from an existing map.
func NewObject(m map[string]Value) Object { return Object(m) }

// SortedKeys returns obj's keys ordered by UTF-16 code unit, the ordering
// RFC 8785 canonical JSON requires. Go's sort.Strings compares UTF-8 bytes
// and produces a different order for any key containing a character
// outside the Basic Latin range, so it must not be used here.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	n := len(a16)
	if len(b16) < n {
		n = len(b16)
	}
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	return len(a16) - len(b16)
}

// MarshalJSON implements json.Marshaler for Object with deterministic
// (UTF-16 code unit order) key ordering, so two payloads with the same
// keys and values always marshal byte-identical regardless of the order
// fields were set in.
func (obj Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, k := range obj.SortedKeys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("attrs: marshal key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valBytes, err := MarshalValue(obj[k])
		if err != nil {
			return nil, fmt.Errorf("attrs: marshal value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler for Object.
func (obj *Object) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*obj = make(Object, len(raw))
	for k, v := range raw {
		val, err := unmarshalValue(v)
		if err != nil {
			return fmt.Errorf("attrs: object key %q: %w", k, err)
		}
		(*obj)[k] = val
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler for Array.
func (arr *Array) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*arr = make(Array, len(raw))
	for i, v := range raw {
		val, err := unmarshalValue(v)
		if err != nil {
			return fmt.Errorf("attrs: array index %d: %w", i, err)
		}
		(*arr)[i] = val
	}
	return nil
}

func unmarshalValue(data []byte) (Value, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("attrs: empty JSON value")
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return String(s), nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return Bool(b), nil
	case 'n':
		return Null{}, nil
	case '[':
		var arr Array
		if err := json.Unmarshal(data, &arr); err != nil {
			return nil, err
		}
		return arr, nil
	case '{':
		var obj Object
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, err
		}
		return obj, nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		i, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("attrs: floats are not representable: %s", string(data))
		}
		return Int(i), nil
	}
}

// MarshalValue marshals any Value to ordinary (non-canonical) JSON bytes.
func MarshalValue(v Value) ([]byte, error) {
	switch val := v.(type) {
	case Null:
		return []byte("null"), nil
	case String:
		return json.Marshal(string(val))
	case Int:
		return json.Marshal(int64(val))
	case Bool:
		return json.Marshal(bool(val))
	case Array:
		return marshalArray(val)
	case Object:
		return val.MarshalJSON()
	default:
		return nil, fmt.Errorf("attrs: unknown Value type %T", v)
	}
}

func marshalArray(arr Array) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := MarshalValue(elem)
		if err != nil {
			return nil, fmt.Errorf("attrs: array[%d]: %w", i, err)
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// UnmarshalValue decodes JSON into a Value with strict validation: floats
// and top-level null are rejected.
func UnmarshalValue(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return fromAny(raw)
}

func fromAny(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("attrs: null is not a valid top-level value")
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case json.Number:
		s := string(val)
		for _, c := range s {
			if c == '.' || c == 'e' || c == 'E' {
				return nil, fmt.Errorf("attrs: floats are not representable: %s", s)
			}
		}
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("attrs: number out of int64 range: %s", s)
		}
		return Int(n), nil
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			v, err := fromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("attrs: array[%d]: %w", i, err)
			}
			arr[i] = v
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			v, err := fromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("attrs: object[%q]: %w", k, err)
			}
			obj[k] = v
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("attrs: unsupported type %T", v)
	}
}
