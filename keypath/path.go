package keypath

import (
	"errors"
	"maps"
	"strings"
)

var (
	// ErrNotObject means the payload is not a JSON object.
	ErrNotObject = errors.New("keypath: payload is not a JSON object")
	// ErrNotFound means the path does not resolve in the payload.
	ErrNotFound = errors.New("keypath: path not found")
	// ErrEncode means the resolved value could not be re-encoded.
	ErrEncode = errors.New("keypath: cannot encode value")
)

// segments splits path on dots. ok is false when any segment is empty.
func segments(path string) ([]string, bool) {
	segs := strings.Split(path, ".")
	for _, s := range segs {
		if s == "" {
			return nil, false
		}
	}
	return segs, true
}

// Get returns the value at path. Every segment but the last must resolve to
// an object.
func Get(root Value, path string) (Value, bool) {
	segs, ok := segments(path)
	if !ok {
		return Value{}, false
	}
	cur := root
	for _, seg := range segs {
		obj, isObj := cur.Object()
		if !isObj {
			return Value{}, false
		}
		next, found := obj[seg]
		if !found {
			return Value{}, false
		}
		cur = next
	}
	return cur, true
}

// Set returns a copy of root with the value at path replaced by v. The last
// segment is created when its parent object lacks it. When an intermediate
// segment is missing or not an object, root is returned unchanged. root is
// never modified.
func Set(root Value, path string, v Value) Value {
	segs, ok := segments(path)
	if !ok {
		return root
	}
	out, _ := set(root, segs, v)
	return out
}

func set(cur Value, segs []string, v Value) (Value, bool) {
	obj, ok := cur.Object()
	if !ok {
		return cur, false
	}
	head := segs[0]
	if len(segs) == 1 {
		clone := maps.Clone(obj)
		clone[head] = v
		return Value{kind: KindObject, obj: clone}, true
	}
	child, ok := obj[head]
	if !ok {
		return cur, false
	}
	updated, changed := set(child, segs[1:], v)
	if !changed {
		return cur, false
	}
	clone := maps.Clone(obj)
	clone[head] = updated
	return Value{kind: KindObject, obj: clone}, true
}

// Extract parses payload, resolves path and re-encodes the value found.
func Extract(payload []byte, path string) ([]byte, error) {
	root, err := Parse(payload)
	if err != nil || root.Kind() != KindObject {
		return nil, ErrNotObject
	}
	v, ok := Get(root, path)
	if !ok {
		return nil, ErrNotFound
	}
	out, err := v.MarshalJSON()
	if err != nil {
		return nil, errors.Join(ErrEncode, err)
	}
	return out, nil
}
