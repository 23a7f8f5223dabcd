package keypath

import (
	"errors"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

// ErrInvalidJSON is returned by Parse for malformed documents.
var ErrInvalidJSON = errors.New("keypath: invalid JSON")

// Parse decodes a JSON document. Numbers keep their source literal and
// duplicate object keys resolve to the last occurrence. Documents that are
// not valid UTF-8 are rejected.
func Parse(data []byte) (Value, error) {
	if !utf8.Valid(data) || !gjson.ValidBytes(data) {
		return Value{}, ErrInvalidJSON
	}
	return fromResult(gjson.ParseBytes(data)), nil
}

func fromResult(r gjson.Result) Value {
	switch r.Type {
	case gjson.True:
		return Bool(true)
	case gjson.False:
		return Bool(false)
	case gjson.Number:
		return Value{kind: KindNumber, num: r.Raw}
	case gjson.String:
		return String(r.Str)
	case gjson.JSON:
		if r.IsArray() {
			arr := make([]Value, 0)
			r.ForEach(func(_, elem gjson.Result) bool {
				arr = append(arr, fromResult(elem))
				return true
			})
			return Value{kind: KindArray, arr: arr}
		}
		obj := make(map[string]Value)
		r.ForEach(func(key, member gjson.Result) bool {
			obj[key.Str] = fromResult(member)
			return true
		})
		return Value{kind: KindObject, obj: obj}
	}
	return Null()
}
