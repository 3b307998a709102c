package store

import (
	"time"

	"github.com/mcdonaldj/zipstore/internal/observability"
)

const eventSource = "store"

// Event types emitted around each public operation.
const (
	EventOpenStart     observability.EventType = "store.open.start"
	EventOpenComplete  observability.EventType = "store.open.complete"
	EventOpenError     observability.EventType = "store.open.error"
	EventListComplete  observability.EventType = "store.list.complete"
	EventGetComplete   observability.EventType = "store.get.complete"
	EventPutComplete   observability.EventType = "store.put.complete"
	EventRemoveDone    observability.EventType = "store.remove.complete"
	EventSaveStart     observability.EventType = "store.save.start"
	EventSaveComplete  observability.EventType = "store.save.complete"
	EventSaveError     observability.EventType = "store.save.error"
	EventTempCreated   observability.EventType = "store.save.temp_created"
	EventTargetCreated observability.EventType = "store.save.target_created"
)

func (s *Store) emit(typ observability.EventType, level observability.Level, data map[string]any) {
	if data == nil {
		data = make(map[string]any, 1)
	}
	data["store_id"] = s.id
	s.obs.OnEvent(observability.Event{
		Type:      typ,
		Level:     level,
		Timestamp: time.Now(),
		Source:    eventSource,
		Data:      data,
	})
}

func (s *Store) fail(typ observability.EventType, op, path string, kind, cause error) error {
	err := &Error{Op: op, Path: path, Kind: kind, Err: cause}
	s.emit(typ, observability.LevelError, map[string]any{"path": path, "error": err})
	return err
}
