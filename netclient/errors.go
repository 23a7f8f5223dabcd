package netclient

import (
	"context"
	"errors"
	"fmt"
)

// ErrorCode classifies call failures. The set is closed.
type ErrorCode int

const (
	// ErrCodeInvalidServerResponse: the response could not be interpreted as HTTP.
	ErrCodeInvalidServerResponse ErrorCode = iota
	// ErrCodeInvalidStatusCode: the status code fell outside [200, 300).
	ErrCodeInvalidStatusCode
	// ErrCodeMissingBodyData: the caller required a body and the payload was empty.
	ErrCodeMissingBodyData
	// ErrCodeSerialization: the payload could not be parsed or re-encoded during key path extraction.
	ErrCodeSerialization
	// ErrCodeKeyPathNotFound: the declared key path is absent from the payload.
	ErrCodeKeyPathNotFound
	// ErrCodeDecoding: the decoder rejected the payload.
	ErrCodeDecoding
	// ErrCodeConnection: transport-level failure, including an exhausted retry.
	ErrCodeConnection
	// ErrCodeInvalidStubFile: a stubbed call named a fixture that does not exist.
	ErrCodeInvalidStubFile
	// ErrCodeFailedToDecodeImage: the payload is not a supported image.
	ErrCodeFailedToDecodeImage
	// ErrCodeUnderlying: any other failure, including request construction and cancellation.
	ErrCodeUnderlying
)

// String returns the error code name.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeInvalidServerResponse:
		return "invalid_server_response"
	case ErrCodeInvalidStatusCode:
		return "invalid_status_code"
	case ErrCodeMissingBodyData:
		return "missing_body_data"
	case ErrCodeSerialization:
		return "serialization"
	case ErrCodeKeyPathNotFound:
		return "key_path_not_found"
	case ErrCodeDecoding:
		return "decoding"
	case ErrCodeConnection:
		return "connection"
	case ErrCodeInvalidStubFile:
		return "invalid_stub_file"
	case ErrCodeFailedToDecodeImage:
		return "failed_to_decode_image"
	case ErrCodeUnderlying:
		return "underlying"
	default:
		return "unknown"
	}
}

// Serialization targets reported by ErrCodeSerialization.
const (
	SerializationJSON = "JSON"
	SerializationData = "Data"
)

// Error is the failure value delivered for every unsuccessful call.
type Error struct {
	Code ErrorCode
	// StatusCode is set for ErrCodeInvalidStatusCode.
	StatusCode int
	// KeyPath is set for ErrCodeKeyPathNotFound.
	KeyPath string
	// TargetType is SerializationJSON or SerializationData for ErrCodeSerialization.
	TargetType string
	// Fixture is set for ErrCodeInvalidStubFile.
	Fixture string
	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeInvalidServerResponse:
		return "Failed to parse the response to HTTPResponse"
	case ErrCodeInvalidStatusCode:
		return fmt.Sprintf("The server response didn't fall in the given range Status Code is: %d", e.StatusCode)
	case ErrCodeMissingBodyData:
		return "No body data provided from the server"
	case ErrCodeSerialization:
		return "Failed serialization type: " + e.TargetType
	case ErrCodeKeyPathNotFound:
		return "Response JSON not contain value by key path: " + e.KeyPath
	case ErrCodeDecoding:
		return "Decoding problem: " + errText(e.Err)
	case ErrCodeConnection:
		return "Network connection seems to be offline: " + errText(e.Err)
	case ErrCodeInvalidStubFile:
		return "Stub file not found for fixture: " + e.Fixture
	case ErrCodeFailedToDecodeImage:
		return "the body doesn't contain a valid data."
	default:
		return errText(e.Err)
	}
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

func errText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

func NewInvalidServerResponseError(err error) *Error {
	return &Error{Code: ErrCodeInvalidServerResponse, Err: err}
}

func NewStatusCodeError(statusCode int) *Error {
	return &Error{Code: ErrCodeInvalidStatusCode, StatusCode: statusCode}
}

func NewMissingBodyError() *Error {
	return &Error{Code: ErrCodeMissingBodyData}
}

func NewSerializationError(targetType string, err error) *Error {
	return &Error{Code: ErrCodeSerialization, TargetType: targetType, Err: err}
}

func NewKeyPathNotFoundError(keyPath string) *Error {
	return &Error{Code: ErrCodeKeyPathNotFound, KeyPath: keyPath}
}

func NewDecodingError(err error) *Error {
	return &Error{Code: ErrCodeDecoding, Err: err}
}

func NewConnectionError(err error) *Error {
	return &Error{Code: ErrCodeConnection, Err: err}
}

func NewInvalidStubFileError(fixture string) *Error {
	return &Error{Code: ErrCodeInvalidStubFile, Fixture: fixture}
}

func NewImageDecodeError(err error) *Error {
	return &Error{Code: ErrCodeFailedToDecodeImage, Err: err}
}

func NewUnderlyingError(err error) *Error {
	return &Error{Code: ErrCodeUnderlying, Err: err}
}

// AsError normalizes err into an *Error. Taxonomy errors pass through,
// everything else becomes ErrCodeUnderlying.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return NewUnderlyingError(err)
}

// AsErrorOr normalizes err like AsError but wraps foreign errors with code.
func AsErrorOr(err error, code ErrorCode) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Code: code, Err: err}
}

// CodeOf returns the code of err, or false when err is not an *Error.
func CodeOf(err error) (ErrorCode, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return 0, false
}

// HasCode reports whether err is an *Error with the given code.
func HasCode(err error, code ErrorCode) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}

// IsStatusCode reports whether err is a non-2xx status failure.
func IsStatusCode(err error) bool { return HasCode(err, ErrCodeInvalidStatusCode) }

// IsConnection reports whether err is a transport failure.
func IsConnection(err error) bool { return HasCode(err, ErrCodeConnection) }

// IsKeyPathNotFound reports whether err is a missing key path.
func IsKeyPathNotFound(err error) bool { return HasCode(err, ErrCodeKeyPathNotFound) }

// IsDecoding reports whether err is a decoder failure.
func IsDecoding(err error) bool { return HasCode(err, ErrCodeDecoding) }

// IsInvalidStubFile reports whether err is a missing fixture.
func IsInvalidStubFile(err error) bool { return HasCode(err, ErrCodeInvalidStubFile) }

// IsCancelled reports whether err resulted from context cancellation or deadline.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
