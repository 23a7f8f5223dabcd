package keypath

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"

	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/gjson"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// Kind is the JSON type of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

var kindNames = [...]string{"null", "bool", "number", "string", "array", "object"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is an immutable JSON value. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	num  string // raw literal
	str  string
	arr  []Value
	obj  map[string]Value
}

func Null() Value             { return Value{} }
func Bool(b bool) Value       { return Value{kind: KindBool, b: b} }
func String(s string) Value   { return Value{kind: KindString, str: s} }
func Int(n int64) Value       { return Value{kind: KindNumber, num: strconv.FormatInt(n, 10)} }
func Float(f float64) Value   { return Value{kind: KindNumber, num: strconv.FormatFloat(f, 'g', -1, 64)} }
func Array(vs ...Value) Value { return Value{kind: KindArray, arr: slices.Clone(vs)} }

// Number returns a number Value holding literal verbatim. The literal must be
// valid JSON number syntax.
func Number(literal string) (Value, error) {
	if !gjson.Valid(literal) || gjson.Parse(literal).Type != gjson.Number {
		return Value{}, fmt.Errorf("keypath: invalid number literal %q", literal)
	}
	return Value{kind: KindNumber, num: literal}, nil
}

// Object returns an object Value holding a copy of members.
func Object(members map[string]Value) Value {
	if members == nil {
		members = map[string]Value{}
	}
	return Value{kind: KindObject, obj: maps.Clone(members)}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

func (v Value) Str() (string, bool) { return v.str, v.kind == KindString }

// NumberLiteral returns the number exactly as written in the source document.
func (v Value) NumberLiteral() (string, bool) { return v.num, v.kind == KindNumber }

func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	f, err := strconv.ParseFloat(v.num, 64)
	return f, err == nil
}

func (v Value) Int() (int64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	n, err := strconv.ParseInt(v.num, 10, 64)
	return n, err == nil
}

// Array returns the elements of an array Value. The slice must not be modified.
func (v Value) Array() ([]Value, bool) { return v.arr, v.kind == KindArray }

// Object returns the members of an object Value. The map must not be modified.
func (v Value) Object() (map[string]Value, bool) { return v.obj, v.kind == KindObject }

// Len returns the number of elements or members, 0 for scalars.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return len(v.obj)
	}
	return 0
}

// Interface converts v to plain Go values: nil, bool, json.Number, string,
// []any and map[string]any.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return json.Number(v.num)
	case KindString:
		return v.str
	case KindArray:
		out := make([]any, len(v.arr))
		for i, e := range v.arr {
			out[i] = e.Interface()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.obj))
		for k, e := range v.obj {
			out[k] = e.Interface()
		}
		return out
	}
	return nil
}

// MarshalJSON encodes v with object keys sorted.
func (v Value) MarshalJSON() ([]byte, error) {
	return codec.Marshal(v.Interface())
}

// UnmarshalJSON parses data into v.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Equal reports whether a and b are the same JSON value. Numbers compare by
// numeric value when both parse as float64.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		if a.num == b.num {
			return true
		}
		af, aok := a.Float()
		bf, bok := b.Float()
		return aok && bok && af == bf
	case KindString:
		return a.str == b.str
	case KindArray:
		return slices.EqualFunc(a.arr, b.arr, Equal)
	case KindObject:
		return maps.EqualFunc(a.obj, b.obj, Equal)
	}
	return false
}

// FromInterface converts a Go value to a Value through its JSON encoding.
func FromInterface(x any) (Value, error) {
	b, err := codec.Marshal(x)
	if err != nil {
		return Value{}, fmt.Errorf("keypath: encode %T: %w", x, err)
	}
	return Parse(b)
}
