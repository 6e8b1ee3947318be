package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Value is a sealed interface representing an opaque structured value.
// Only Null, String, Int, Float, Bool, Array, and Object implement it.
// Values are carried through the serializer without interpretation;
// collection rules, default literals and where-clause operands are all
// Values.
type Value interface {
	value() // Sealed - only these types implement it
}

// Null represents an explicit null value.
// Using an explicit type ensures all Values satisfy the sealed interface.
type Null struct{}

func (Null) value() {}

// MarshalJSON implements json.Marshaler for Null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// String represents a string value.
type String string

func (String) value() {}

// Int represents an integer value. Always int64.
type Int int64

func (Int) value() {}

// Float represents a fractional number value.
// Schema defaults for the "number" kind may be fractional, so floats
// are part of this IR. NaN and infinities are rejected at the
// serialization boundary.
type Float float64

func (Float) value() {}

// Bool represents a boolean value.
type Bool bool

func (Bool) value() {}

// Array represents an ordered array of Value elements.
type Array []Value

func (Array) value() {}

// Field is one key/value entry of an Object.
type Field struct {
	Key   string
	Value Value
}

// Object represents a structured value with ordered fields.
// Declaration order is significant and preserved through serialization,
// so Object is a field list rather than a map. Keys are unique.
type Object []Field

func (Object) value() {}

// F is a shorthand Field constructor for ergonomic Object literals.
// Example: Object{F("read", Object{F("filter", Array{...})})}
func F(key string, value Value) Field {
	return Field{Key: key, Value: value}
}

// Get returns the value for key and whether it is present.
func (obj Object) Get(key string) (Value, bool) {
	for _, f := range obj {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Keys returns field keys in declaration order.
func (obj Object) Keys() []string {
	keys := make([]string, len(obj))
	for i, f := range obj {
		keys[i] = f.Key
	}
	return keys
}

// MarshalJSON implements json.Marshaler for Object, preserving field order.
func (obj Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, f := range obj {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(f.Key)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", f.Key, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valBytes, err := MarshalValue(f.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", f.Key, err)
		}
		buf.Write(valBytes)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON implements json.Marshaler for Array.
func (arr Array) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')

	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		elemBytes, err := MarshalValue(elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		buf.Write(elemBytes)
	}

	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// MarshalValue marshals a Value to JSON bytes.
// Uses type-switch dispatch to handle all Value types correctly.
// NOTE: This is NOT canonical marshaling. Use MarshalCanonical for hashing.
func MarshalValue(v Value) ([]byte, error) {
	switch val := v.(type) {
	case Null:
		return []byte("null"), nil
	case String:
		return json.Marshal(string(val))
	case Int:
		return json.Marshal(int64(val))
	case Float:
		return json.Marshal(float64(val))
	case Bool:
		return json.Marshal(bool(val))
	case Array:
		return val.MarshalJSON()
	case Object:
		return val.MarshalJSON()
	default:
		return nil, fmt.Errorf("unknown Value type: %T", v)
	}
}

// IsScalar reports whether v is a scalar (string, int, float, bool or
// null) as opposed to an array or object.
func IsScalar(v Value) bool {
	switch v.(type) {
	case Null, String, Int, Float, Bool:
		return true
	default:
		return false
	}
}
