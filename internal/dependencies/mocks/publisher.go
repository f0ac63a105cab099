package mocks

import (
	"sync"

	"github.com/mcoot/trivia-pot/internal/model"
)

// MockPublisher records published events for assertions.
// Safe for concurrent use.
type MockPublisher struct {
	mu     sync.Mutex
	events []model.Event
}

// Ensure MockPublisher implements Publisher
var _ model.Publisher = (*MockPublisher)(nil)

// NewMockPublisher creates an empty MockPublisher
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

// Publish records the event
func (p *MockPublisher) Publish(event model.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

// Events returns a copy of all recorded events in publish order
func (p *MockPublisher) Events() []model.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.Event, len(p.events))
	copy(out, p.events)
	return out
}

// OfType returns recorded events of the given type
func (p *MockPublisher) OfType(t model.EventType) []model.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []model.Event
	for _, e := range p.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// Reset clears recorded events
func (p *MockPublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}
