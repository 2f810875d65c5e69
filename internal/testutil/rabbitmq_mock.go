package testutil

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
)

// PublishedEvent is one event captured by MockPublisher.
type PublishedEvent struct {
	RoutingKey string
	EventData  interface{}
	RawJSON    []byte
}

// MockPublisher records events in memory instead of sending them to RabbitMQ.
type MockPublisher struct {
	mu     sync.RWMutex
	events []PublishedEvent
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

// Publish marshals eventData the way the real publisher does, so events that
// cannot be encoded fail here too.
func (m *MockPublisher) Publish(ctx context.Context, routingKey string, eventData interface{}) error {
	raw, err := json.Marshal(eventData)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, PublishedEvent{RoutingKey: routingKey, EventData: eventData, RawJSON: raw})
	return nil
}

func (m *MockPublisher) Close() error {
	return nil
}

func (m *MockPublisher) EventsByKey(routingKey string) []PublishedEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var filtered []PublishedEvent
	for _, event := range m.events {
		if event.RoutingKey == routingKey {
			filtered = append(filtered, event)
		}
	}
	return filtered
}

func (m *MockPublisher) EventCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events)
}

func (m *MockPublisher) AssertEventPublished(t *testing.T, routingKey string) {
	t.Helper()
	if len(m.EventsByKey(routingKey)) == 0 {
		t.Errorf("Expected event with routing key '%s' to be published, but found none", routingKey)
	}
}

func (m *MockPublisher) AssertEventNotPublished(t *testing.T, routingKey string) {
	t.Helper()
	if n := len(m.EventsByKey(routingKey)); n > 0 {
		t.Errorf("Expected no events with routing key '%s', but found %d", routingKey, n)
	}
}

func (m *MockPublisher) AssertEventCount(t *testing.T, routingKey string, expected int) {
	t.Helper()
	if n := len(m.EventsByKey(routingKey)); n != expected {
		t.Errorf("Expected %d events with routing key '%s', got %d", expected, routingKey, n)
	}
}
