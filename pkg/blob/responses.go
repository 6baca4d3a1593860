package blob

import (
	"net/http"
	"time"

	"github.com/yourorg/azure-blob-kit/pkg/errors"
)

// DeleteBlobResponse is the typed result of a successful delete. The
// service answers 202 with no body, so everything here comes from
// response headers.
type DeleteBlobResponse struct {
	// RequestID is the server-assigned id of the request.
	RequestID string
	// ClientRequestID echoes the caller's correlation id, when one was sent.
	ClientRequestID string
	// Version is the service API version that handled the request.
	Version string
	// Date is the service clock at response time.
	Date time.Time
}

// DeleteBlobResponseFromHeaders decodes the response record from raw
// headers. A missing server request id or a malformed date is a
// ResponseParseError, never silently defaulted.
func DeleteBlobResponseFromHeaders(h http.Header) (*DeleteBlobResponse, error) {
	requestID := h.Get(headerRequestID)
	if requestID == "" {
		return nil, errors.NewResponseParseError("response is missing the " + headerRequestID + " header")
	}

	resp := &DeleteBlobResponse{
		RequestID:       requestID,
		ClientRequestID: h.Get(headerClientRequestID),
		Version:         h.Get(headerVersion),
	}

	if date := h.Get("Date"); date != "" {
		parsed, err := http.ParseTime(date)
		if err != nil {
			return nil, errors.NewResponseParseError("response carries a malformed Date header: " + date)
		}
		resp.Date = parsed
	}

	return resp, nil
}
