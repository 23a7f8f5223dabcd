package netclient

import (
	jsoniter "github.com/json-iterator/go"
)

// Decoder turns a payload into a typed value. v is always a non-nil pointer.
type Decoder interface {
	Decode(data []byte, v any) error
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(data []byte, v any) error

func (f DecoderFunc) Decode(data []byte, v any) error { return f(data, v) }

// JSONDecoder decodes JSON with json-iterator.
type JSONDecoder struct {
	api jsoniter.API
}

// NewJSONDecoder returns a decoder compatible with encoding/json. When
// strict is set, unknown object fields are rejected.
func NewJSONDecoder(strict bool) *JSONDecoder {
	return &JSONDecoder{api: jsoniter.Config{
		EscapeHTML:             true,
		SortMapKeys:            true,
		ValidateJsonRawMessage: true,
		DisallowUnknownFields:  strict,
	}.Froze()}
}

// Decode unmarshals data into v. A *[]byte target receives the payload
// verbatim.
func (d *JSONDecoder) Decode(data []byte, v any) error {
	if raw, ok := v.(*[]byte); ok {
		*raw = append((*raw)[:0], data...)
		return nil
	}
	return d.api.Unmarshal(data, v)
}
