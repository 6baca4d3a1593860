package events

import (
	"context"
	"sync"
)

// MockPublisher is an in-memory Publisher for tests and for running the
// service without a Service Bus namespace.
type MockPublisher struct {
	mu        sync.Mutex
	published []DeletionEvent
	closed    bool

	// PublishError, when set, is returned by PublishDeletion.
	PublishError error
}

// NewMockPublisher creates a new mock publisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

// PublishDeletion records the event in memory.
func (m *MockPublisher) PublishDeletion(ctx context.Context, event DeletionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PublishError != nil {
		return m.PublishError
	}
	m.published = append(m.published, event)
	return nil
}

// Close marks the publisher closed.
func (m *MockPublisher) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Published returns a copy of the recorded events.
func (m *MockPublisher) Published() []DeletionEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]DeletionEvent, len(m.published))
	copy(out, m.published)
	return out
}

// Closed reports whether Close has been called.
func (m *MockPublisher) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
