package mocks

import (
	"sync"

	"github.com/mcdonaldj/zipstore/internal/observability"
)

// RecordingObserver records every event for assertions.
type RecordingObserver struct {
	mu     sync.Mutex
	Events []observability.Event
}

// NewRecordingObserver creates a new recording observer.
func NewRecordingObserver() *RecordingObserver {
	return &RecordingObserver{}
}

// OnEvent records the event.
func (r *RecordingObserver) OnEvent(event observability.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, event)
}

// Types returns the recorded event types in order.
func (r *RecordingObserver) Types() []observability.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]observability.EventType, 0, len(r.Events))
	for _, e := range r.Events {
		types = append(types, e.Type)
	}
	return types
}

// Last returns the most recent event of the given type.
func (r *RecordingObserver) Last(typ observability.EventType) (observability.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.Events) - 1; i >= 0; i-- {
		if r.Events[i].Type == typ {
			return r.Events[i], true
		}
	}
	return observability.Event{}, false
}

// Compile-time check that RecordingObserver implements observability.Observer.
var _ observability.Observer = (*RecordingObserver)(nil)
