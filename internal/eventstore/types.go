// Package eventstore implements the append-only session event log
// (C11 EventStore): events and checkpoints persisted to SQLite with
// strict per-session ordering and referential-integrity checks.
package eventstore

import "time"

// EventType is the closed set of event kinds the store accepts.
// Unknown types are rejected by Append/CreateEvent.
type EventType string

const (
	EventSessionStarted EventType = "SESSION_STARTED"
	EventSessionEnded   EventType = "SESSION_ENDED"
	EventSessionPaused  EventType = "SESSION_PAUSED"
	EventSessionResumed EventType = "SESSION_RESUMED"
	EventMemorySaved    EventType = "MEMORY_SAVED"
	EventMemoryUpdated  EventType = "MEMORY_UPDATED"
	EventMemoryDeleted  EventType = "MEMORY_DELETED"
)

// knownEventTypes backs IsKnownEventType without allocating on every
// call.
var knownEventTypes = map[EventType]struct{}{
	EventSessionStarted: {},
	EventSessionEnded:   {},
	EventSessionPaused:  {},
	EventSessionResumed: {},
	EventMemorySaved:    {},
	EventMemoryUpdated:  {},
	EventMemoryDeleted:  {},
}

// IsKnownEventType reports whether t belongs to the closed event-type
// enum.
func IsKnownEventType(t EventType) bool {
	_, ok := knownEventTypes[t]
	return ok
}

// Event is one append-only record in a session's log (spec §3
// "Event"). Payload and Metadata are opaque JSON so unknown fields of
// a given event kind round-trip unchanged.
type Event struct {
	EventID   string
	Timestamp time.Time
	SessionID string
	EventType EventType
	Payload   []byte
	CausedBy  string
	Metadata  []byte
}

// Checkpoint is a named pointer into a session's event log (spec §3
// "Checkpoint").
type Checkpoint struct {
	CheckpointID string
	SessionID    string
	Timestamp    time.Time
	LastEventID  string
	MemoryCount  int
	Description  string
}
