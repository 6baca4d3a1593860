// Package events publishes blob lifecycle notifications to downstream
// consumers.
package events

import (
	"context"
	"time"
)

// DeletionEvent describes a completed blob deletion.
type DeletionEvent struct {
	Container       string    `json:"container"`
	Blob            string    `json:"blob"`
	SnapshotsMethod string    `json:"snapshots_method"`
	RequestID       string    `json:"request_id"`
	ClientRequestID string    `json:"client_request_id,omitempty"`
	DeletedAt       time.Time `json:"deleted_at"`
}

// Publisher publishes deletion events.
type Publisher interface {
	// PublishDeletion publishes a deletion event.
	PublishDeletion(ctx context.Context, event DeletionEvent) error
	// Close releases the underlying connection.
	Close(ctx context.Context) error
}
