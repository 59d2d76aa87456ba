package testutil

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/repairshop/backend/internal/domain/shared"
)

// MockEventHandler records what the bus delivers to it
type MockEventHandler struct {
	mu      sync.Mutex
	types   []string
	handled []shared.DomainEvent
	err     error
}

// NewMockEventHandler subscribes to types; none means every event
func NewMockEventHandler(types ...string) *MockEventHandler {
	return &MockEventHandler{types: types}
}

func (h *MockEventHandler) EventTypes() []string { return h.types }

// Handle records the event and returns the error set with SetError
func (h *MockEventHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	return h.err
}

// Handled returns a copy of the delivered events, in delivery order
func (h *MockEventHandler) Handled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.handled...)
}

func (h *MockEventHandler) HandledCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

// SetError makes later deliveries fail; nil makes them succeed again
func (h *MockEventHandler) SetError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.err = err
}

// TestEvent is an invoice event with an opaque payload
type TestEvent struct {
	shared.BaseDomainEvent
	Data string `json:"data"`
}

// NewTestEvent raises eventType on a fresh invoice
func NewTestEvent(eventType string) *TestEvent {
	return &TestEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "Invoice", uuid.New()),
		Data:            "test-data",
	}
}
