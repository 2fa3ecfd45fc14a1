package session

import (
	"github.com/aman-cerp/pingmem/internal/eventstore"
)

// foldSession replays a session's lifecycle events in order into a
// Session aggregate. events must already be sorted non-decreasing by
// timestamp (eventstore.GetBySession's contract). Returns nil if no
// SESSION_STARTED event is present.
func foldSession(sessionID string, events []eventstore.Event) *Session {
	var sess *Session
	for _, e := range events {
		switch e.EventType {
		case eventstore.EventSessionStarted:
			var p sessionStartedPayload
			_ = unmarshalPayload(e.Payload, &p)
			sess = &Session{
				SessionID:       sessionID,
				Name:            p.Name,
				ProjectDir:      p.ProjectDir,
				ParentSessionID: p.ParentSessionID,
				DefaultChannel:  p.DefaultChannel,
				Metadata:        p.Metadata,
				Status:          StatusActive,
				StartedAt:       e.Timestamp,
				LastEventAt:     e.Timestamp,
			}
		case eventstore.EventSessionEnded:
			if sess != nil {
				sess.Status = StatusEnded
				sess.LastEventAt = e.Timestamp
			}
		case eventstore.EventSessionPaused:
			if sess != nil && sess.Status != StatusEnded {
				sess.Status = StatusPaused
				sess.LastEventAt = e.Timestamp
			}
		case eventstore.EventSessionResumed:
			if sess != nil && sess.Status != StatusEnded {
				sess.Status = StatusActive
				sess.LastEventAt = e.Timestamp
			}
		default:
			if sess != nil {
				sess.LastEventAt = e.Timestamp
			}
		}
	}
	return sess
}

// foldMemories replays a session's MEMORY_* events into a
// key -> Memory projection. Last-write-wins by event timestamp; since
// events arrive already ordered non-decreasing by timestamp
// (tie-broken by EventID per Invariant E1), a simple forward fold
// gives the latest write for each key without an extra sort.
func foldMemories(events []eventstore.Event) map[string]Memory {
	memories := make(map[string]Memory)
	for _, e := range events {
		switch e.EventType {
		case eventstore.EventMemorySaved, eventstore.EventMemoryUpdated:
			var p memoryWritePayload
			if err := unmarshalPayload(e.Payload, &p); err != nil {
				continue
			}
			memories[p.Key] = Memory{
				Key:       p.Key,
				Value:     p.Value,
				Options:   p.Options.toOptions(),
				UpdatedAt: e.Timestamp,
				Deleted:   false,
			}
		case eventstore.EventMemoryDeleted:
			var p memoryDeletePayload
			if err := unmarshalPayload(e.Payload, &p); err != nil {
				continue
			}
			memories[p.Key] = Memory{Key: p.Key, UpdatedAt: e.Timestamp, Deleted: true}
		}
	}
	return memories
}
