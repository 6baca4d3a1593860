package errors

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestMissingParameterError(t *testing.T) {
	err := NewMissingParameterError("container_name")

	if !IsMissingParameter(err, "container_name") {
		t.Error("Expected IsMissingParameter to match container_name")
	}
	if IsMissingParameter(err, "blob_name") {
		t.Error("Did not expect IsMissingParameter to match blob_name")
	}
	if !strings.Contains(err.Error(), "container_name") {
		t.Errorf("Expected message to name the parameter, got %q", err.Error())
	}
}

func TestUnexpectedStatusError(t *testing.T) {
	err := NewUnexpectedStatusError(http.StatusNotFound, []byte("BlobNotFound"))

	if err.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", err.StatusCode)
	}
	if err.Body != "BlobNotFound" {
		t.Errorf("Expected body to be carried, got %q", err.Body)
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("Expected message to include the status, got %q", err.Error())
	}
}

func TestTransportErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := NewTransportError(cause)

	if err.Unwrap() != cause {
		t.Error("Expected Unwrap to return the cause")
	}

	wrapped := fmt.Errorf("deleting blob: %w", err)
	se, ok := AsStorageError(wrapped)
	if !ok {
		t.Fatal("Expected AsStorageError to find the error in the chain")
	}
	if se.Code != ErrorCodeTransport {
		t.Errorf("Expected TRANSPORT_ERROR, got %s", se.Code)
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil) != nil {
		t.Error("Expected nil for nil error")
	}

	se := NewResponseParseError("x-ms-request-id missing")
	if FromError(se) != se {
		t.Error("Expected StorageError to pass through unchanged")
	}

	plain := fmt.Errorf("dial tcp: timeout")
	converted := FromError(plain)
	if converted.Code != ErrorCodeTransport {
		t.Errorf("Expected plain errors to convert to TRANSPORT_ERROR, got %s", converted.Code)
	}
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[ErrorCode]int{
		ErrorCodeMissingParameter: http.StatusBadRequest,
		ErrorCodeConfiguration:    http.StatusBadRequest,
		ErrorCodeTransport:        http.StatusBadGateway,
		ErrorCodeUnexpectedStatus: http.StatusBadGateway,
		ErrorCodeResponseParse:    http.StatusBadGateway,
		ErrorCode("UNKNOWN"):      http.StatusInternalServerError,
	}

	for code, want := range cases {
		if got := ToHTTPStatus(code); got != want {
			t.Errorf("ToHTTPStatus(%s) = %d, want %d", code, got, want)
		}
	}
}
