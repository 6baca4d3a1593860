// Package audit persists a trail of blob deletions.
package audit

import (
	"context"
	"time"
)

// Outcome classifies how a deletion attempt ended.
type Outcome string

const (
	OutcomeDeleted  Outcome = "deleted"
	OutcomeRejected Outcome = "rejected"
	OutcomeFailed   Outcome = "failed"
)

// Entry is one audit record.
type Entry struct {
	Container       string
	Blob            string
	SnapshotsMethod string
	RequestID       string
	ClientRequestID string
	Outcome         Outcome
	StatusCode      int
	CreatedAt       time.Time
}

// Recorder persists audit entries.
type Recorder interface {
	// Record persists a single entry.
	Record(ctx context.Context, entry Entry) error
	// Close releases the underlying store.
	Close() error
}
