package blob

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/azure-blob-kit/pkg/errors"
)

// fakeClient records the single request a Finalize issues and answers
// with a canned response.
type fakeClient struct {
	endpoint    string
	status      int
	respHeaders http.Header
	respBody    string
	err         error

	calls      int
	gotURI     string
	gotMethod  string
	gotHeaders http.Header
	gotBody    io.Reader
}

func newFakeClient(status int, respHeaders http.Header) *fakeClient {
	return &fakeClient{
		endpoint:    "https://myaccount.blob.core.windows.net",
		status:      status,
		respHeaders: respHeaders,
	}
}

func (f *fakeClient) BlobURL(container, blob string) string {
	return f.endpoint + "/" + container + "/" + blob
}

func (f *fakeClient) PerformRequest(ctx context.Context, uri, method string, mutate func(http.Header), body io.Reader) (*http.Response, error) {
	f.calls++
	f.gotURI = uri
	f.gotMethod = method
	f.gotBody = body

	f.gotHeaders = http.Header{}
	if mutate != nil {
		mutate(f.gotHeaders)
	}

	if f.err != nil {
		return nil, f.err
	}

	headers := f.respHeaders
	if headers == nil {
		headers = http.Header{}
	}
	return &http.Response{
		StatusCode: f.status,
		Header:     headers,
		Body:       io.NopCloser(strings.NewReader(f.respBody)),
	}, nil
}

func acceptedHeaders() http.Header {
	h := http.Header{}
	h.Set("x-ms-request-id", "abc")
	return h
}

func TestMandatorySetterOrderings(t *testing.T) {
	type setter func(DeleteBlobBuilder) DeleteBlobBuilder
	container := func(b DeleteBlobBuilder) DeleteBlobBuilder { return b.WithContainerName("c") }
	name := func(b DeleteBlobBuilder) DeleteBlobBuilder { return b.WithBlobName("b") }
	method := func(b DeleteBlobBuilder) DeleteBlobBuilder {
		return b.WithDeleteSnapshotsMethod(DeleteSnapshotsInclude)
	}

	orderings := [][]setter{
		{container, name, method},
		{container, method, name},
		{name, container, method},
		{name, method, container},
		{method, container, name},
		{method, name, container},
	}

	for i, ordering := range orderings {
		client := newFakeClient(http.StatusAccepted, acceptedHeaders())
		builder := NewDeleteBlobBuilder(client)
		for _, apply := range ordering {
			builder = apply(builder)
		}

		resp, err := builder.Finalize(context.Background())
		require.NoError(t, err, "ordering %d", i)
		assert.Equal(t, "abc", resp.RequestID, "ordering %d", i)
	}
}

func TestFinalizeMissingParameters(t *testing.T) {
	client := newFakeClient(http.StatusAccepted, acceptedHeaders())

	cases := []struct {
		name      string
		builder   DeleteBlobBuilder
		wantParam string
	}{
		{
			name:      "nothing set",
			builder:   NewDeleteBlobBuilder(client),
			wantParam: "container_name",
		},
		{
			name:      "container only",
			builder:   NewDeleteBlobBuilder(client).WithContainerName("c"),
			wantParam: "blob_name",
		},
		{
			name:      "container and blob",
			builder:   NewDeleteBlobBuilder(client).WithContainerName("c").WithBlobName("b"),
			wantParam: "delete_snapshots_method",
		},
		{
			name: "optional fields never satisfy mandatory ones",
			builder: NewDeleteBlobBuilder(client).
				WithTimeout(30).
				WithClientRequestID("corr-1"),
			wantParam: "container_name",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client.calls = 0
			_, err := tc.builder.Finalize(context.Background())
			require.Error(t, err)
			assert.True(t, errors.IsMissingParameter(err, tc.wantParam),
				"expected MissingParameter(%s), got %v", tc.wantParam, err)
			assert.Zero(t, client.calls, "no request may be issued from an incomplete builder")
		})
	}
}

// The snapshots method carries a default of Include in the zero builder,
// yet the contract reads it as mandatory-to-set: the caller must confirm
// snapshot handling explicitly. This test pins the stricter reading.
func TestFinalizeDefaultSnapshotsMethodNotEnough(t *testing.T) {
	client := newFakeClient(http.StatusAccepted, acceptedHeaders())
	builder := NewDeleteBlobBuilder(client).
		WithContainerName("c").
		WithBlobName("b")

	_, err := builder.Finalize(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsMissingParameter(err, "delete_snapshots_method"))
}

func TestAccessors(t *testing.T) {
	client := newFakeClient(http.StatusAccepted, nil)
	empty := NewDeleteBlobBuilder(client)

	if _, err := empty.ContainerName(); !errors.IsMissingParameter(err, "container_name") {
		t.Errorf("Expected MissingParameter(container_name), got %v", err)
	}
	if _, err := empty.BlobName(); !errors.IsMissingParameter(err, "blob_name") {
		t.Errorf("Expected MissingParameter(blob_name), got %v", err)
	}
	if _, err := empty.SnapshotsMethod(); !errors.IsMissingParameter(err, "delete_snapshots_method") {
		t.Errorf("Expected MissingParameter(delete_snapshots_method), got %v", err)
	}

	full := empty.
		WithContainerName("c").
		WithBlobName("b").
		WithDeleteSnapshotsMethod(DeleteSnapshotsOnly)

	name, err := full.ContainerName()
	require.NoError(t, err)
	assert.Equal(t, "c", name)

	blobName, err := full.BlobName()
	require.NoError(t, err)
	assert.Equal(t, "b", blobName)

	method, err := full.SnapshotsMethod()
	require.NoError(t, err)
	assert.Equal(t, DeleteSnapshotsOnly, method)
}

func TestOptionalLastWriteWins(t *testing.T) {
	client := newFakeClient(http.StatusAccepted, acceptedHeaders())
	builder := NewDeleteBlobBuilder(client).
		WithContainerName("c").
		WithBlobName("b").
		WithDeleteSnapshotsMethod(DeleteSnapshotsInclude).
		WithTimeout(10).
		WithTimeout(30).
		WithClientRequestID("first").
		WithClientRequestID("second")

	_, err := builder.Finalize(context.Background())
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(client.gotURI, "?timeout=30"), "uri: %s", client.gotURI)
	assert.Equal(t, "second", client.gotHeaders.Get("x-ms-client-request-id"))
}

func TestBuilderIdempotence(t *testing.T) {
	client := newFakeClient(http.StatusAccepted, nil)
	base := NewDeleteBlobBuilder(client).WithBlobName("b").WithTimeout(30)

	once := base.WithContainerName("c")
	twice := base.WithContainerName("c").WithContainerName("c")

	assert.Equal(t, once, twice, "repeating a setter with the same value must be observable as a no-op")
}

func TestBuilderValueSemantics(t *testing.T) {
	client := newFakeClient(http.StatusAccepted, nil)
	base := NewDeleteBlobBuilder(client)

	forked := base.WithContainerName("c")

	// The original is untouched by the fork.
	if _, err := base.ContainerName(); !errors.IsMissingParameter(err, "container_name") {
		t.Errorf("Expected the base builder to remain unset, got %v", err)
	}
	name, err := forked.ContainerName()
	require.NoError(t, err)
	assert.Equal(t, "c", name)
}

func TestRequestShape(t *testing.T) {
	client := newFakeClient(http.StatusAccepted, acceptedHeaders())
	builder := NewDeleteBlobBuilder(client).
		WithContainerName("c").
		WithBlobName("b").
		WithDeleteSnapshotsMethod(DeleteSnapshotsOnly).
		WithTimeout(30)

	_, err := builder.Finalize(context.Background())
	require.NoError(t, err)

	assert.Equal(t, http.MethodDelete, client.gotMethod)
	assert.Equal(t, "https://myaccount.blob.core.windows.net/c/b?timeout=30", client.gotURI)
	assert.Nil(t, client.gotBody, "delete carries no body")

	assert.Equal(t, "only", client.gotHeaders.Get("x-ms-delete-snapshots"))
	assert.Empty(t, client.gotHeaders.Get("x-ms-lease-id"))
	assert.Empty(t, client.gotHeaders.Get("x-ms-client-request-id"))
	assert.Len(t, client.gotHeaders, 1, "exactly the snapshots directive, nothing else")
}

func TestRequestShapeWithoutTimeout(t *testing.T) {
	client := newFakeClient(http.StatusAccepted, acceptedHeaders())
	builder := NewDeleteBlobBuilder(client).
		WithContainerName("c").
		WithBlobName("b").
		WithDeleteSnapshotsMethod(DeleteSnapshotsInclude)

	_, err := builder.Finalize(context.Background())
	require.NoError(t, err)

	assert.NotContains(t, client.gotURI, "?", "no query parameters without a timeout")
}

func TestConditionalHeaders(t *testing.T) {
	lease, err := ParseLeaseID("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	require.NoError(t, err)

	client := newFakeClient(http.StatusAccepted, acceptedHeaders())
	builder := NewDeleteBlobBuilder(client).
		WithContainerName("c").
		WithBlobName("b").
		WithDeleteSnapshotsMethod(DeleteSnapshotsInclude).
		WithLeaseID(lease).
		WithClientRequestID("corr-42")

	_, err = builder.Finalize(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "include", client.gotHeaders.Get("x-ms-delete-snapshots"))
	assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", client.gotHeaders.Get("x-ms-lease-id"))
	assert.Equal(t, "corr-42", client.gotHeaders.Get("x-ms-client-request-id"))
}

func TestFinalizeSuccess(t *testing.T) {
	headers := http.Header{}
	headers.Set("x-ms-request-id", "abc")
	headers.Set("x-ms-client-request-id", "corr-42")
	headers.Set("x-ms-version", "2021-12-02")

	client := newFakeClient(http.StatusAccepted, headers)
	builder := NewDeleteBlobBuilder(client).
		WithContainerName("c").
		WithBlobName("b").
		WithDeleteSnapshotsMethod(DeleteSnapshotsInclude).
		WithClientRequestID("corr-42")

	resp, err := builder.Finalize(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "abc", resp.RequestID)
	assert.Equal(t, "corr-42", resp.ClientRequestID)
	assert.Equal(t, "2021-12-02", resp.Version)
}

func TestFinalizeUnexpectedStatus(t *testing.T) {
	// Even with a parseable request id present, a 404 must surface as
	// UnexpectedStatus; header parsing never runs for a failed status.
	client := newFakeClient(http.StatusNotFound, acceptedHeaders())
	client.respBody = "BlobNotFound"

	builder := NewDeleteBlobBuilder(client).
		WithContainerName("c").
		WithBlobName("b").
		WithDeleteSnapshotsMethod(DeleteSnapshotsInclude)

	_, err := builder.Finalize(context.Background())
	se, ok := errors.AsStorageError(err)
	require.True(t, ok, "expected a StorageError, got %v", err)
	assert.Equal(t, errors.ErrorCodeUnexpectedStatus, se.Code)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Equal(t, "BlobNotFound", se.Body)
}

func TestFinalizeTransportErrorPassesThrough(t *testing.T) {
	client := newFakeClient(0, nil)
	client.err = errors.NewTransportError(io.ErrUnexpectedEOF)

	builder := NewDeleteBlobBuilder(client).
		WithContainerName("c").
		WithBlobName("b").
		WithDeleteSnapshotsMethod(DeleteSnapshotsInclude)

	_, err := builder.Finalize(context.Background())
	se, ok := errors.AsStorageError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrorCodeTransport, se.Code)
}

func TestFinalizeResponseParseError(t *testing.T) {
	// 202 but no x-ms-request-id header.
	client := newFakeClient(http.StatusAccepted, http.Header{})

	builder := NewDeleteBlobBuilder(client).
		WithContainerName("c").
		WithBlobName("b").
		WithDeleteSnapshotsMethod(DeleteSnapshotsInclude)

	_, err := builder.Finalize(context.Background())
	se, ok := errors.AsStorageError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrorCodeResponseParse, se.Code)
}
