package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a typed error code.
type ErrorCode string

const (
	// ErrorCodeMissingParameter means a mandatory request parameter was not
	// supplied before the request was finalized.
	ErrorCodeMissingParameter ErrorCode = "MISSING_PARAMETER"
	// ErrorCodeTransport means the HTTP round trip itself failed.
	ErrorCodeTransport ErrorCode = "TRANSPORT_ERROR"
	// ErrorCodeUnexpectedStatus means the service answered with a status
	// code other than the one the operation expects.
	ErrorCodeUnexpectedStatus ErrorCode = "UNEXPECTED_STATUS"
	// ErrorCodeResponseParse means a success status was received but the
	// response headers could not be decoded.
	ErrorCodeResponseParse ErrorCode = "RESPONSE_PARSE_ERROR"
	// ErrorCodeConfiguration means the kit itself was misconfigured.
	ErrorCodeConfiguration ErrorCode = "CONFIGURATION_ERROR"
)

// StorageError is the single failure type surfaced by storage operations.
// Each stage of the request pipeline produces exactly one code, so a
// caller can tell from the code which stage failed.
type StorageError struct {
	Code    ErrorCode
	Message string

	// Parameter names the missing field for ErrorCodeMissingParameter.
	Parameter string
	// StatusCode and Body carry the wire response for ErrorCodeUnexpectedStatus.
	StatusCode int
	Body       string

	Err error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	switch {
	case e.Code == ErrorCodeMissingParameter:
		return fmt.Sprintf("%s: %s is not set", e.Code, e.Parameter)
	case e.Code == ErrorCodeUnexpectedStatus:
		return fmt.Sprintf("%s: %s (status %d)", e.Code, e.Message, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewMissingParameterError reports that a mandatory parameter was never set.
func NewMissingParameterError(parameter string) *StorageError {
	return &StorageError{
		Code:      ErrorCodeMissingParameter,
		Message:   "mandatory parameter is not set",
		Parameter: parameter,
	}
}

// NewTransportError wraps a network-level failure from the HTTP client.
func NewTransportError(err error) *StorageError {
	return &StorageError{
		Code:    ErrorCodeTransport,
		Message: "request could not be performed",
		Err:     err,
	}
}

// NewUnexpectedStatusError reports a response status other than the
// operation's expected success code. The body, if any, is carried along
// for diagnostics.
func NewUnexpectedStatusError(statusCode int, body []byte) *StorageError {
	return &StorageError{
		Code:       ErrorCodeUnexpectedStatus,
		Message:    "unexpected response status",
		StatusCode: statusCode,
		Body:       string(body),
	}
}

// NewResponseParseError reports response headers that could not be decoded
// into the operation's typed response.
func NewResponseParseError(message string) *StorageError {
	return &StorageError{
		Code:    ErrorCodeResponseParse,
		Message: message,
	}
}

// NewConfigurationError reports an invalid kit configuration.
func NewConfigurationError(message string, err error) *StorageError {
	return &StorageError{
		Code:    ErrorCodeConfiguration,
		Message: message,
		Err:     err,
	}
}

// AsStorageError extracts a *StorageError from err's chain.
func AsStorageError(err error) (*StorageError, bool) {
	var se *StorageError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsMissingParameter reports whether err is a MissingParameter error for
// the given field. An empty parameter matches any field.
func IsMissingParameter(err error, parameter string) bool {
	se, ok := AsStorageError(err)
	if !ok || se.Code != ErrorCodeMissingParameter {
		return false
	}
	return parameter == "" || se.Parameter == parameter
}

// FromError converts a standard error to a StorageError.
// If the error already is one, it is returned as-is; anything else is
// treated as a transport-level failure.
func FromError(err error) *StorageError {
	if err == nil {
		return nil
	}
	if se, ok := AsStorageError(err); ok {
		return se
	}
	return NewTransportError(err)
}

// ToHTTPStatus maps an error code to the HTTP status a facade should
// answer with when the underlying operation fails.
func ToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrorCodeMissingParameter, ErrorCodeConfiguration:
		return http.StatusBadRequest
	case ErrorCodeTransport, ErrorCodeUnexpectedStatus, ErrorCodeResponseParse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
