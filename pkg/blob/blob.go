// Package blob builds wire-level requests for blob operations and
// translates their responses. A builder collects parameters through
// value-semantics With* calls, refuses to finalize until every mandatory
// parameter has been explicitly supplied, and then drives the request
// through a storageclient.Client.
package blob

import (
	"fmt"

	"github.com/google/uuid"
)

// Wire-level header names for the delete operation.
const (
	headerDeleteSnapshots = "x-ms-delete-snapshots"
	headerLeaseID         = "x-ms-lease-id"
	headerClientRequestID = "x-ms-client-request-id"
	headerRequestID       = "x-ms-request-id"
	headerVersion         = "x-ms-version"
)

// DeleteSnapshotsMethod selects how a delete treats the blob's snapshots.
type DeleteSnapshotsMethod int

const (
	// DeleteSnapshotsInclude deletes the blob and all of its snapshots.
	DeleteSnapshotsInclude DeleteSnapshotsMethod = iota
	// DeleteSnapshotsOnly deletes only the snapshots, keeping the base blob.
	DeleteSnapshotsOnly
)

// String returns the wire value for the x-ms-delete-snapshots header.
func (m DeleteSnapshotsMethod) String() string {
	switch m {
	case DeleteSnapshotsOnly:
		return "only"
	default:
		return "include"
	}
}

// ParseDeleteSnapshotsMethod parses a wire value back into the enum.
func ParseDeleteSnapshotsMethod(s string) (DeleteSnapshotsMethod, error) {
	switch s {
	case "include":
		return DeleteSnapshotsInclude, nil
	case "only":
		return DeleteSnapshotsOnly, nil
	default:
		return DeleteSnapshotsInclude, fmt.Errorf("invalid delete snapshots method %q", s)
	}
}

// LeaseID is the exclusive-access token required when deleting a
// lease-protected blob. Lease ids are GUID-shaped.
type LeaseID uuid.UUID

// ParseLeaseID validates and parses a lease token.
func ParseLeaseID(s string) (LeaseID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return LeaseID{}, fmt.Errorf("invalid lease id %q: %w", s, err)
	}
	return LeaseID(u), nil
}

// String returns the canonical textual form of the lease id.
func (l LeaseID) String() string {
	return uuid.UUID(l).String()
}
