package blob

import (
	"context"
	"net/http"
	"strconv"

	"github.com/yourorg/azure-blob-kit/pkg/errors"
	"github.com/yourorg/azure-blob-kit/pkg/storageclient"
)

// fieldSet tracks which mandatory parameters have been explicitly set.
type fieldSet uint8

const (
	fieldContainerName fieldSet = 1 << iota
	fieldBlobName
	fieldSnapshotsMethod
)

// Mandatory parameter names, in the order Finalize checks them. The
// order is fixed so MissingParameter errors are deterministic.
const (
	paramContainerName   = "container_name"
	paramBlobName        = "blob_name"
	paramSnapshotsMethod = "delete_snapshots_method"
)

// DeleteBlobBuilder accumulates the parameters of a delete-blob request.
// Builders have value semantics: every With* call returns a modified
// copy, so a builder can be forked and chains can be written in any
// order. The zero snapshots method is Include, but Finalize still
// requires WithDeleteSnapshotsMethod to have been called; snapshot
// handling must be chosen consciously, not defaulted into.
type DeleteBlobBuilder struct {
	client storageclient.Client
	set    fieldSet

	containerName   string
	blobName        string
	snapshotsMethod DeleteSnapshotsMethod

	timeout    uint64
	timeoutSet bool

	leaseID  LeaseID
	leaseSet bool

	clientRequestID    string
	clientRequestIDSet bool
}

// NewDeleteBlobBuilder creates a builder bound to the given client with
// no parameters set.
func NewDeleteBlobBuilder(client storageclient.Client) DeleteBlobBuilder {
	return DeleteBlobBuilder{
		client:          client,
		snapshotsMethod: DeleteSnapshotsInclude,
	}
}

// WithContainerName sets the target container. Mandatory.
func (b DeleteBlobBuilder) WithContainerName(name string) DeleteBlobBuilder {
	b.containerName = name
	b.set |= fieldContainerName
	return b
}

// WithBlobName sets the target blob. Mandatory.
func (b DeleteBlobBuilder) WithBlobName(name string) DeleteBlobBuilder {
	b.blobName = name
	b.set |= fieldBlobName
	return b
}

// WithDeleteSnapshotsMethod chooses how snapshots are handled. Mandatory.
func (b DeleteBlobBuilder) WithDeleteSnapshotsMethod(method DeleteSnapshotsMethod) DeleteBlobBuilder {
	b.snapshotsMethod = method
	b.set |= fieldSnapshotsMethod
	return b
}

// WithTimeout sets the server-side timeout hint in seconds. Optional.
func (b DeleteBlobBuilder) WithTimeout(seconds uint64) DeleteBlobBuilder {
	b.timeout = seconds
	b.timeoutSet = true
	return b
}

// WithLeaseID attaches the lease token of a lease-protected blob. Optional.
func (b DeleteBlobBuilder) WithLeaseID(id LeaseID) DeleteBlobBuilder {
	b.leaseID = id
	b.leaseSet = true
	return b
}

// WithClientRequestID sets the correlation id the service echoes back.
// Optional.
func (b DeleteBlobBuilder) WithClientRequestID(id string) DeleteBlobBuilder {
	b.clientRequestID = id
	b.clientRequestIDSet = true
	return b
}

// ContainerName returns the container name, or MissingParameter if it
// was never set.
func (b DeleteBlobBuilder) ContainerName() (string, error) {
	if b.set&fieldContainerName == 0 {
		return "", errors.NewMissingParameterError(paramContainerName)
	}
	return b.containerName, nil
}

// BlobName returns the blob name, or MissingParameter if it was never set.
func (b DeleteBlobBuilder) BlobName() (string, error) {
	if b.set&fieldBlobName == 0 {
		return "", errors.NewMissingParameterError(paramBlobName)
	}
	return b.blobName, nil
}

// SnapshotsMethod returns the chosen snapshots handling, or
// MissingParameter if it was never explicitly set.
func (b DeleteBlobBuilder) SnapshotsMethod() (DeleteSnapshotsMethod, error) {
	if b.set&fieldSnapshotsMethod == 0 {
		return DeleteSnapshotsInclude, errors.NewMissingParameterError(paramSnapshotsMethod)
	}
	return b.snapshotsMethod, nil
}

// validate checks completeness in the documented order: container name,
// blob name, delete snapshots method.
func (b DeleteBlobBuilder) validate() error {
	if b.set&fieldContainerName == 0 {
		return errors.NewMissingParameterError(paramContainerName)
	}
	if b.set&fieldBlobName == 0 {
		return errors.NewMissingParameterError(paramBlobName)
	}
	if b.set&fieldSnapshotsMethod == 0 {
		return errors.NewMissingParameterError(paramSnapshotsMethod)
	}
	return nil
}

// requestURI assembles the resource URI. The timeout hint is the only
// query parameter this operation ever adds.
func (b DeleteBlobBuilder) requestURI() string {
	uri := b.client.BlobURL(b.containerName, b.blobName)
	if b.timeoutSet {
		uri += "?timeout=" + strconv.FormatUint(b.timeout, 10)
	}
	return uri
}

// addHeaders assembles the operation headers in a fixed order: the
// snapshots directive always, the lease and correlation headers only
// when set.
func (b DeleteBlobBuilder) addHeaders(h http.Header) {
	h.Set(headerDeleteSnapshots, b.snapshotsMethod.String())
	if b.leaseSet {
		h.Set(headerLeaseID, b.leaseID.String())
	}
	if b.clientRequestIDSet {
		h.Set(headerClientRequestID, b.clientRequestID)
	}
}

// Finalize validates completeness, issues the DELETE, and translates the
// response. It consumes the builder conceptually: the request is built
// in full before the round trip, no state is shared with other builders,
// and no retries happen at this level. A non-202 status is returned as
// UnexpectedStatus without attempting header parsing.
func (b DeleteBlobBuilder) Finalize(ctx context.Context) (*DeleteBlobResponse, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}

	resp, err := b.client.PerformRequest(ctx, b.requestURI(), http.MethodDelete, b.addHeaders, nil)
	if err != nil {
		return nil, err
	}

	headers, _, err := storageclient.CheckStatusAndExtract(resp, http.StatusAccepted)
	if err != nil {
		return nil, err
	}

	return DeleteBlobResponseFromHeaders(headers)
}
