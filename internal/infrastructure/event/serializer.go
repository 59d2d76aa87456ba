package event

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/repairshop/backend/internal/domain/shared"
)

// EventSerializer encodes events into outbox payloads and decodes them on the way out.
// Only registered event types are accepted in either direction, so an event that could
// never be decoded is refused before it reaches the outbox.
type EventSerializer struct {
	mu    sync.RWMutex
	types map[string]func() shared.DomainEvent
}

func NewEventSerializer() *EventSerializer {
	return &EventSerializer{types: map[string]func() shared.DomainEvent{}}
}

// RegisterEvent makes eventType decode into a fresh *E
func RegisterEvent[E any, PE interface {
	*E
	shared.DomainEvent
}](s *EventSerializer, eventType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.types[eventType] = func() shared.DomainEvent { return PE(new(E)) }
}

func (s *EventSerializer) factory(eventType string) (func() shared.DomainEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if f, ok := s.types[eventType]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("unknown event type: %s", eventType)
}

func (s *EventSerializer) Serialize(event shared.DomainEvent) ([]byte, error) {
	if _, err := s.factory(event.EventType()); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event.EventType(), err)
	}
	return payload, nil
}

func (s *EventSerializer) Deserialize(eventType string, payload []byte) (shared.DomainEvent, error) {
	newEvent, err := s.factory(eventType)
	if err != nil {
		return nil, err
	}
	event := newEvent()
	if err := json.Unmarshal(payload, event); err != nil {
		return nil, fmt.Errorf("decode %s: %w", eventType, err)
	}
	return event, nil
}

func (s *EventSerializer) IsRegistered(eventType string) bool {
	_, err := s.factory(eventType)
	return err == nil
}

// RegisteredTypes lists event types in sorted order
func (s *EventSerializer) RegisteredTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	types := make([]string, 0, len(s.types))
	for t := range s.types {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}
