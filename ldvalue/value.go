// Package ldvalue provides an immutable value type that can hold any JSON value supported by the
// LaunchDarkly data model: null, boolean, number, string, array, or object. Using a dedicated type
// instead of interface{} lets the evaluation engine and data model avoid type assertions and
// defensive copying in the common path.
package ldvalue

import (
	"encoding/json"
)

// ValueType describes the type of a Value.
type ValueType int

// The supported JSON value types.
const (
	NullType ValueType = iota
	BoolType
	NumberType
	StringType
	ArrayType
	ObjectType
)

func (t ValueType) String() string {
	switch t {
	case NullType:
		return "null"
	case BoolType:
		return "bool"
	case NumberType:
		return "number"
	case StringType:
		return "string"
	case ArrayType:
		return "array"
	case ObjectType:
		return "object"
	default:
		return "?"
	}
}

// Value is an immutable container for any JSON value.
type Value struct {
	valueType ValueType
	boolValue bool
	numValue  float64
	strValue  string
	arrValue  []Value
	objValue  map[string]Value
}

// Null returns a Value representing JSON null.
func Null() Value {
	return Value{valueType: NullType}
}

// Bool returns a Value wrapping a boolean.
func Bool(value bool) Value {
	return Value{valueType: BoolType, boolValue: value}
}

// Int returns a Value wrapping an integer, represented internally as a float64 per JSON semantics.
func Int(value int) Value {
	return Value{valueType: NumberType, numValue: float64(value)}
}

// Float64 returns a Value wrapping a floating-point number.
func Float64(value float64) Value {
	return Value{valueType: NumberType, numValue: value}
}

// String returns a Value wrapping a string.
func String(value string) Value {
	return Value{valueType: StringType, strValue: value}
}

// ArrayOf returns a Value wrapping an array of Values.
func ArrayOf(values ...Value) Value {
	return Value{valueType: ArrayType, arrValue: values}
}

// CopyObject returns a Value wrapping a copy of the given map.
func CopyObject(m map[string]Value) Value {
	copied := make(map[string]Value, len(m))
	for k, v := range m {
		copied[k] = v
	}
	return Value{valueType: ObjectType, objValue: copied}
}

// FromInterface converts an arbitrary Go value (as produced by encoding/json unmarshaling into
// interface{}) into a Value.
func FromInterface(v interface{}) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(x)
	case float64:
		return Float64(x)
	case int:
		return Int(x)
	case string:
		return String(x)
	case []interface{}:
		arr := make([]Value, 0, len(x))
		for _, item := range x {
			arr = append(arr, FromInterface(item))
		}
		return ArrayOf(arr...)
	case map[string]interface{}:
		obj := make(map[string]Value, len(x))
		for k, item := range x {
			obj[k] = FromInterface(item)
		}
		return CopyObject(obj)
	case Value:
		return x
	default:
		return Null()
	}
}

// Type returns the JSON type of the value.
func (v Value) Type() ValueType {
	return v.valueType
}

// IsNull returns true if this is a null value.
func (v Value) IsNull() bool {
	return v.valueType == NullType
}

// IsNumber returns true if this value is a number (integer or float).
func (v Value) IsNumber() bool {
	return v.valueType == NumberType
}

// IsInt returns true if this value is a number with no fractional part.
func (v Value) IsInt() bool {
	return v.valueType == NumberType && v.numValue == float64(int(v.numValue))
}

// BoolValue returns the value as a bool, or false if it is not a boolean.
func (v Value) BoolValue() bool {
	if v.valueType != BoolType {
		return false
	}
	return v.boolValue
}

// StringValue returns the value as a string, or "" if it is not a string.
func (v Value) StringValue() string {
	if v.valueType != StringType {
		return ""
	}
	return v.strValue
}

// Float64Value returns the value as a float64, or 0 if it is not a number.
func (v Value) Float64Value() float64 {
	if v.valueType != NumberType {
		return 0
	}
	return v.numValue
}

// IntValue returns the value as an int, truncating toward zero, or 0 if it is not a number.
func (v Value) IntValue() int {
	if v.valueType != NumberType {
		return 0
	}
	return int(v.numValue)
}

// Count returns the number of elements if this is an array or object, else 0.
func (v Value) Count() int {
	switch v.valueType {
	case ArrayType:
		return len(v.arrValue)
	case ObjectType:
		return len(v.objValue)
	default:
		return 0
	}
}

// GetByIndex returns the element at the given index of an array value, or Null() if out of range
// or not an array.
func (v Value) GetByIndex(index int) Value {
	if v.valueType != ArrayType || index < 0 || index >= len(v.arrValue) {
		return Null()
	}
	return v.arrValue[index]
}

// TryGetByKey returns the value for a key of an object value, and a bool indicating whether the
// key was present.
func (v Value) TryGetByKey(key string) (Value, bool) {
	if v.valueType != ObjectType {
		return Null(), false
	}
	val, ok := v.objValue[key]
	return val, ok
}

// Keys returns the keys of an object value, in unspecified order; nil for non-object values.
func (v Value) Keys() []string {
	if v.valueType != ObjectType {
		return nil
	}
	keys := make([]string, 0, len(v.objValue))
	for k := range v.objValue {
		keys = append(keys, k)
	}
	return keys
}

// AsArbitraryValue converts the Value back to an interface{} of the corresponding Go type, using
// the same shapes encoding/json would produce: nil, bool, float64, string, []interface{}, or
// map[string]interface{}.
func (v Value) AsArbitraryValue() interface{} {
	switch v.valueType {
	case NullType:
		return nil
	case BoolType:
		return v.boolValue
	case NumberType:
		return v.numValue
	case StringType:
		return v.strValue
	case ArrayType:
		out := make([]interface{}, len(v.arrValue))
		for i, item := range v.arrValue {
			out[i] = item.AsArbitraryValue()
		}
		return out
	case ObjectType:
		out := make(map[string]interface{}, len(v.objValue))
		for k, item := range v.objValue {
			out[k] = item.AsArbitraryValue()
		}
		return out
	default:
		return nil
	}
}

// Equal does a deep structural comparison of two values.
func (v Value) Equal(other Value) bool {
	if v.valueType != other.valueType {
		return false
	}
	switch v.valueType {
	case NullType:
		return true
	case BoolType:
		return v.boolValue == other.boolValue
	case NumberType:
		return v.numValue == other.numValue
	case StringType:
		return v.strValue == other.strValue
	case ArrayType:
		if len(v.arrValue) != len(other.arrValue) {
			return false
		}
		for i := range v.arrValue {
			if !v.arrValue[i].Equal(other.arrValue[i]) {
				return false
			}
		}
		return true
	case ObjectType:
		if len(v.objValue) != len(other.objValue) {
			return false
		}
		for k, val := range v.objValue {
			ov, ok := other.objValue[k]
			if !ok || !val.Equal(ov) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.AsArbitraryValue())
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = FromInterface(raw)
	return nil
}
