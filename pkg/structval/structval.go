// Package structval provides an opaque, type-erased container for any
// serializable scalar, list, or map shape.
//
// A [Value] never retains the Go value it was built from. [FromTyped]
// serializes its input to a canonical byte form immediately and the box
// stores only those bytes. That single choice gives structural equality
// (byte comparison), safe sharing across goroutines (the stored bytes are
// never mutated), and removes any need for a visitor over arbitrary source
// types.
//
// The canonical form is compact JSON with object keys in sorted order.
// [DecodeCanonical] classifies an untyped blob into the supported shapes
// without type hints by probing in a fixed priority order:
//
//	bool -> int -> float -> string -> list -> map
//
// The order is load-bearing. It resolves ambiguous literals (a quoted
// numeric-looking string stays a string, a whole-number float collapses to
// an int) and changing it silently changes round-trip behavior. Anything
// that is valid input but matches none of the probes is retained as opaque
// raw bytes instead of failing.
package structval

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strconv"

	json "github.com/goccy/go-json"
)

// Kind identifies the shape a Value was classified as.
type Kind uint8

// Kind values enumerate the supported shapes.
const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindMap
	KindRaw
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindRaw:
		return "raw"
	default:
		return "invalid"
	}
}

var (
	nullBytes  = []byte("null")
	trueBytes  = []byte("true")
	falseBytes = []byte("false")
)

// Value is an immutable box holding one classified value as canonical
// bytes. The zero Value is the null value. Values are safe to share
// across goroutines without synchronization.
type Value struct {
	kind  Kind
	canon []byte
}

// Null returns the null value.
func Null() Value {
	return Value{kind: KindNull, canon: nullBytes}
}

// Kind returns the classified shape of the value.
func (v Value) Kind() Kind {
	return v.kind
}

// IsZero reports whether the value is the null value.
func (v Value) IsZero() bool {
	return bytes.Equal(v.canonical(), nullBytes)
}

// canonical returns the stored bytes, normalizing the zero Value to null.
func (v Value) canonical() []byte {
	if v.canon == nil {
		return nullBytes
	}

	return v.canon
}

// EncodeCanonical returns a copy of the canonical byte form.
func (v Value) EncodeCanonical() []byte {
	return append([]byte(nil), v.canonical()...)
}

// Equal reports structural equality, computed from canonical encoded
// bytes rather than reference identity or classified kind.
func (v Value) Equal(o Value) bool {
	return bytes.Equal(v.canonical(), o.canonical())
}

// String returns the canonical byte form as a string, for diagnostics.
func (v Value) String() string {
	return string(v.canonical())
}

// FromTyped serializes src to canonical bytes and boxes the result.
// The original value is not retained. Input that cannot be represented
// canonically (channels, cycles, NaN, ...) fails with *EncodeError.
func FromTyped[T any](src T) (Value, error) {
	data, err := json.Marshal(src)
	if err != nil {
		return Value{}, &EncodeError{GoType: fmt.Sprintf("%T", src), Cause: err}
	}

	val, decErr := DecodeCanonical(data)
	if decErr != nil {
		return Value{}, &EncodeError{GoType: fmt.Sprintf("%T", src), Cause: decErr}
	}

	return val, nil
}

// ToTyped decodes the canonical bytes into T. A shape mismatch fails with
// *TypeMismatchError naming the expected and actual shapes; it is never a
// silent coercion.
func ToTyped[T any](v Value) (T, error) {
	var out T

	err := json.Unmarshal(v.canonical(), &out)
	if err != nil {
		var zero T

		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return zero, &TypeMismatchError{Expected: typeErr.Type.String(), Actual: typeErr.Value, Cause: err}
		}

		return zero, &TypeMismatchError{Expected: fmt.Sprintf("%T", out), Actual: v.Kind().String(), Cause: err}
	}

	return out, nil
}

// DecodeCanonical classifies an untyped blob into a Value without type
// hints. Malformed input fails with ErrMalformed. Shapes are probed in
// the fixed order bool, int, float, string, list, map; valid input that
// matches none of them is retained as opaque raw bytes.
func DecodeCanonical(data []byte) (Value, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Value{}, fmt.Errorf("%w: empty input", ErrMalformed)
	}

	if !json.Valid(trimmed) {
		return Value{}, fmt.Errorf("%w: %s", ErrMalformed, summarize(trimmed))
	}

	// null is not ambiguous with any probe and must be handled first:
	// unmarshaling JSON null into a typed target is a no-op, not an
	// error, so the bool probe would otherwise claim it.
	if bytes.Equal(trimmed, nullBytes) {
		return Null(), nil
	}

	var b bool
	if err := json.Unmarshal(trimmed, &b); err == nil {
		if b {
			return Value{kind: KindBool, canon: trueBytes}, nil
		}

		return Value{kind: KindBool, canon: falseBytes}, nil
	}

	var i int64
	if err := json.Unmarshal(trimmed, &i); err == nil {
		return Value{kind: KindInt, canon: strconv.AppendInt(nil, i, 10)}, nil
	}

	var f float64
	if err := json.Unmarshal(trimmed, &f); err == nil {
		canon, marshalErr := json.Marshal(f)
		if marshalErr != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrMalformed, marshalErr)
		}

		// A whole-number float re-encodes without a fraction and would
		// classify as an int on the next pass. Keep the two paths
		// consistent by classifying it as an int here as well.
		if isIntegerLiteral(canon) {
			return Value{kind: KindInt, canon: canon}, nil
		}

		return Value{kind: KindFloat, canon: canon}, nil
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		canon, marshalErr := json.Marshal(s)
		if marshalErr != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrMalformed, marshalErr)
		}

		return Value{kind: KindString, canon: canon}, nil
	}

	var list []json.RawMessage
	if err := json.Unmarshal(trimmed, &list); err == nil {
		return decodeList(list)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err == nil {
		return decodeMap(obj)
	}

	// Valid input that matched no probe. Retain it opaquely rather than
	// failing outright.
	return Value{kind: KindRaw, canon: append([]byte(nil), trimmed...)}, nil
}

func decodeList(elems []json.RawMessage) (Value, error) {
	var buf bytes.Buffer

	buf.WriteByte('[')

	for i, elem := range elems {
		if i > 0 {
			buf.WriteByte(',')
		}

		child, err := DecodeCanonical(elem)
		if err != nil {
			return Value{}, fmt.Errorf("list index %d: %w", i, err)
		}

		buf.Write(child.canonical())
	}

	buf.WriteByte(']')

	return Value{kind: KindList, canon: buf.Bytes()}, nil
}

func decodeMap(entries map[string]json.RawMessage) (Value, error) {
	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, key := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}

		keyBytes, err := json.Marshal(key)
		if err != nil {
			return Value{}, fmt.Errorf("map key %q: %w", key, err)
		}

		buf.Write(keyBytes)
		buf.WriteByte(':')

		child, err := DecodeCanonical(entries[key])
		if err != nil {
			return Value{}, fmt.Errorf("map key %q: %w", key, err)
		}

		buf.Write(child.canonical())
	}

	buf.WriteByte('}')

	return Value{kind: KindMap, canon: buf.Bytes()}, nil
}

// Interface decodes the canonical bytes into plain Go values: nil, bool,
// int64, float64, string, []any, and map[string]any. Numbers that fit an
// int64 come back as int64 so downstream encoders keep them unquoted.
func (v Value) Interface() (any, error) {
	dec := json.NewDecoder(bytes.NewReader(v.canonical()))
	dec.UseNumber()

	var out any

	err := dec.Decode(&out)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return normalizeNumbers(out), nil
}

func normalizeNumbers(v any) any {
	switch typed := v.(type) {
	case json.Number:
		if i, err := typed.Int64(); err == nil {
			return i
		}

		if f, err := typed.Float64(); err == nil {
			return f
		}

		return typed.String()
	case []any:
		for i := range typed {
			typed[i] = normalizeNumbers(typed[i])
		}

		return typed
	case map[string]any:
		for key := range typed {
			typed[key] = normalizeNumbers(typed[key])
		}

		return typed
	default:
		return v
	}
}

// isIntegerLiteral reports whether the encoded number has no fraction or
// exponent.
func isIntegerLiteral(num []byte) bool {
	for _, c := range num {
		if c == '.' || c == 'e' || c == 'E' {
			return false
		}
	}

	return len(num) > 0
}

const maxErrorSnippet = 40

func summarize(data []byte) string {
	if len(data) <= maxErrorSnippet {
		return string(data)
	}

	return string(data[:maxErrorSnippet]) + "..."
}
