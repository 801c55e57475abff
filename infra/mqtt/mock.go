package mqtt

import (
	"fmt"
	"sync"
)

// MockNotifier records published visits for tests.
type MockNotifier struct {
	mu      sync.Mutex
	Sent    map[int64][]VisitMessage
	FailIDs map[int64]bool
	Closed  bool
}

// NewMockNotifier creates an empty MockNotifier.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{Sent: make(map[int64][]VisitMessage), FailIDs: make(map[int64]bool)}
}

// NotifyVisits stores the visits or fails when configured to.
func (m *MockNotifier) NotifyVisits(technicianID int64, visits []VisitMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailIDs[technicianID] {
		return fmt.Errorf("publish failed")
	}
	m.Sent[technicianID] = visits
	return nil
}

// Close marks the notifier closed.
func (m *MockNotifier) Close() {
	m.mu.Lock()
	m.Closed = true
	m.mu.Unlock()
}
