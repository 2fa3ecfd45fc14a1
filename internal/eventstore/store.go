package eventstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // pure Go SQLite driver (no CGO)

	pmerrors "github.com/aman-cerp/pingmem/internal/errors"
	"github.com/aman-cerp/pingmem/internal/hashing"
)

// Store is the SQLite-backed append-only event/checkpoint log. It
// owns its backing database exclusively: all mutation goes through
// its prepared statements, and WAL mode keeps concurrent readers from
// ever blocking on a single writer (spec §5 shared-resource policy).
type Store struct {
	mu   sync.RWMutex
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS events (
	event_id   TEXT PRIMARY KEY,
	timestamp  TEXT NOT NULL,
	session_id TEXT NOT NULL,
	event_type TEXT NOT NULL,
	payload    TEXT NOT NULL,
	caused_by  TEXT REFERENCES events(event_id),
	metadata   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_session_ts ON events(session_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_events_ts ON events(timestamp);
CREATE INDEX IF NOT EXISTS idx_events_type ON events(event_type);

CREATE TABLE IF NOT EXISTS checkpoints (
	checkpoint_id TEXT PRIMARY KEY,
	session_id    TEXT NOT NULL,
	timestamp     TEXT NOT NULL,
	last_event_id TEXT NOT NULL REFERENCES events(event_id),
	memory_count  INTEGER NOT NULL,
	description   TEXT
);
CREATE INDEX IF NOT EXISTS idx_checkpoints_session_ts ON checkpoints(session_id, timestamp);
`

// NewStore opens (creating if necessary) the event store database at
// path. Pass ":memory:" for an ephemeral store, as the teacher's
// SQLite-backed indexes do for tests.
func NewStore(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, pmerrors.IoError("eventstore", "create database directory", err)
			}
		}
		dsn = path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, pmerrors.IoError("eventstore", "open database", err)
	}

	// A single writer connection avoids SQLITE_BUSY lock contention;
	// WAL mode still lets external readers proceed concurrently.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, pmerrors.IoError("eventstore", "set pragma", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, pmerrors.IoError("eventstore", "create schema", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close releases the database connection. Idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

const timeLayout = time.RFC3339Nano

// Append inserts a fully-formed event. Fails with Conflict on a
// duplicate EventID and with NotFound if CausedBy names an event that
// does not exist (Invariant: causedBy, when set, must reference an
// existing event).
func (s *Store) Append(ctx context.Context, e Event) error {
	return s.appendAll(ctx, []Event{e})
}

// AppendBatch inserts events atomically: either all are inserted or
// none are.
func (s *Store) AppendBatch(ctx context.Context, events []Event) error {
	return s.appendAll(ctx, events)
}

func (s *Store) appendAll(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}
	for _, e := range events {
		if !IsKnownEventType(e.EventType) {
			return pmerrors.InvalidArgument("eventstore", fmt.Sprintf("unknown event type %q", e.EventType), nil)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return pmerrors.IoError("eventstore", "append on closed store", nil)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return pmerrors.IoError("eventstore", "begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (event_id, timestamp, session_id, event_type, payload, caused_by, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return pmerrors.IoError("eventstore", "prepare insert", err)
	}
	defer stmt.Close()

	for _, e := range events {
		if e.CausedBy != "" {
			if err := eventExists(ctx, tx, e.CausedBy); err != nil {
				return err
			}
		}
		causedBy := sql.NullString{String: e.CausedBy, Valid: e.CausedBy != ""}
		_, err := stmt.ExecContext(ctx, e.EventID, e.Timestamp.UTC().Format(timeLayout), e.SessionID,
			string(e.EventType), string(e.Payload), causedBy, string(e.Metadata))
		if err != nil {
			if isUniqueConstraint(err) {
				return pmerrors.Conflict("eventstore", fmt.Sprintf("event %s already exists", e.EventID), err)
			}
			return pmerrors.IoError("eventstore", "insert event", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return pmerrors.IoError("eventstore", "commit transaction", err)
	}
	return nil
}

func eventExists(ctx context.Context, tx *sql.Tx, eventID string) error {
	var count int
	err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE event_id = ?`, eventID).Scan(&count)
	if err != nil {
		return pmerrors.IoError("eventstore", "check causedBy reference", err)
	}
	if count == 0 {
		return pmerrors.NotFound("eventstore", fmt.Sprintf("causedBy event %s not found", eventID), nil)
	}
	return nil
}

func isUniqueConstraint(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint") || strings.Contains(msg, "constraint failed")
}

// CreateEvent generates a UUIDv7 event ID, stamps the current
// wall-clock timestamp, appends the event, and returns it.
func (s *Store) CreateEvent(ctx context.Context, sessionID string, eventType EventType, payload, metadata []byte, causedBy string) (*Event, error) {
	if !IsKnownEventType(eventType) {
		return nil, pmerrors.InvalidArgument("eventstore", fmt.Sprintf("unknown event type %q", eventType), nil)
	}
	id, err := hashing.NewEventID()
	if err != nil {
		return nil, pmerrors.IoError("eventstore", "generate event id", err)
	}
	if metadata == nil {
		metadata = []byte("{}")
	}
	if payload == nil {
		payload = []byte("{}")
	}
	e := Event{
		EventID:   id,
		Timestamp: time.Now().UTC(),
		SessionID: sessionID,
		EventType: eventType,
		Payload:   payload,
		CausedBy:  causedBy,
		Metadata:  metadata,
	}
	if err := s.Append(ctx, e); err != nil {
		return nil, err
	}
	return &e, nil
}

func scanEvent(row interface {
	Scan(dest ...any) error
}) (*Event, error) {
	var e Event
	var ts string
	var causedBy sql.NullString
	var payload, metadata string
	if err := row.Scan(&e.EventID, &ts, &e.SessionID, &e.EventType, &payload, &causedBy, &metadata); err != nil {
		return nil, err
	}
	parsed, err := time.Parse(timeLayout, ts)
	if err != nil {
		return nil, err
	}
	e.Timestamp = parsed
	e.CausedBy = causedBy.String
	e.Payload = []byte(payload)
	e.Metadata = []byte(metadata)
	return &e, nil
}

// GetByID returns the event with the given ID, or NotFound.
func (s *Store) GetByID(ctx context.Context, eventID string) (*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, pmerrors.IoError("eventstore", "getByID on closed store", nil)
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT event_id, timestamp, session_id, event_type, payload, caused_by, metadata
		FROM events WHERE event_id = ?
	`, eventID)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, pmerrors.NotFound("eventstore", fmt.Sprintf("event %s not found", eventID), nil)
	}
	if err != nil {
		return nil, pmerrors.IoError("eventstore", "scan event", err)
	}
	return e, nil
}

// GetBySession returns every event for a session, ordered
// non-decreasing by timestamp and tie-broken by EventID (Invariant
// E1 — well-defined because UUIDv7 embeds a millisecond timestamp).
func (s *Store) GetBySession(ctx context.Context, sessionID string) ([]Event, error) {
	return s.queryEvents(ctx, `
		SELECT event_id, timestamp, session_id, event_type, payload, caused_by, metadata
		FROM events WHERE session_id = ?
		ORDER BY timestamp ASC, event_id ASC
	`, sessionID)
}

// GetByTimeRange returns every event with timestamp in [start, end],
// ordered the same way as GetBySession.
func (s *Store) GetByTimeRange(ctx context.Context, start, end time.Time) ([]Event, error) {
	return s.queryEvents(ctx, `
		SELECT event_id, timestamp, session_id, event_type, payload, caused_by, metadata
		FROM events WHERE timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC, event_id ASC
	`, start.UTC().Format(timeLayout), end.UTC().Format(timeLayout))
}

func (s *Store) queryEvents(ctx context.Context, query string, args ...any) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, pmerrors.IoError("eventstore", "query on closed store", nil)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, pmerrors.IoError("eventstore", "query events", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, pmerrors.IoError("eventstore", "scan event", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, pmerrors.IoError("eventstore", "iterate events", err)
	}
	return events, nil
}

// CreateCheckpoint snapshots the session's latest event as a named
// checkpoint. Fails with NotFound if the session has no events.
func (s *Store) CreateCheckpoint(ctx context.Context, sessionID string, memoryCount int, description string) (*Checkpoint, error) {
	events, err := s.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, pmerrors.NotFound("eventstore", fmt.Sprintf("session %s has no events", sessionID), nil)
	}
	last := events[len(events)-1]

	id, err := hashing.NewEventID()
	if err != nil {
		return nil, pmerrors.IoError("eventstore", "generate checkpoint id", err)
	}

	cp := Checkpoint{
		CheckpointID: id,
		SessionID:    sessionID,
		Timestamp:    time.Now().UTC(),
		LastEventID:  last.EventID,
		MemoryCount:  memoryCount,
		Description:  description,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, pmerrors.IoError("eventstore", "createCheckpoint on closed store", nil)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (checkpoint_id, session_id, timestamp, last_event_id, memory_count, description)
		VALUES (?, ?, ?, ?, ?, ?)
	`, cp.CheckpointID, cp.SessionID, cp.Timestamp.Format(timeLayout), cp.LastEventID, cp.MemoryCount,
		sql.NullString{String: cp.Description, Valid: cp.Description != ""})
	if err != nil {
		return nil, pmerrors.IoError("eventstore", "insert checkpoint", err)
	}
	return &cp, nil
}

func scanCheckpoint(row interface {
	Scan(dest ...any) error
}) (*Checkpoint, error) {
	var cp Checkpoint
	var ts string
	var desc sql.NullString
	if err := row.Scan(&cp.CheckpointID, &cp.SessionID, &ts, &cp.LastEventID, &cp.MemoryCount, &desc); err != nil {
		return nil, err
	}
	parsed, err := time.Parse(timeLayout, ts)
	if err != nil {
		return nil, err
	}
	cp.Timestamp = parsed
	cp.Description = desc.String
	return &cp, nil
}

// GetCheckpoint returns a checkpoint by ID, or NotFound.
func (s *Store) GetCheckpoint(ctx context.Context, checkpointID string) (*Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, pmerrors.IoError("eventstore", "getCheckpoint on closed store", nil)
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT checkpoint_id, session_id, timestamp, last_event_id, memory_count, description
		FROM checkpoints WHERE checkpoint_id = ?
	`, checkpointID)
	cp, err := scanCheckpoint(row)
	if err == sql.ErrNoRows {
		return nil, pmerrors.NotFound("eventstore", fmt.Sprintf("checkpoint %s not found", checkpointID), nil)
	}
	if err != nil {
		return nil, pmerrors.IoError("eventstore", "scan checkpoint", err)
	}
	return cp, nil
}

// GetCheckpointsBySession returns every checkpoint for a session,
// ordered by timestamp descending (most recent first).
func (s *Store) GetCheckpointsBySession(ctx context.Context, sessionID string) ([]Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, pmerrors.IoError("eventstore", "query on closed store", nil)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT checkpoint_id, session_id, timestamp, last_event_id, memory_count, description
		FROM checkpoints WHERE session_id = ?
		ORDER BY timestamp DESC
	`, sessionID)
	if err != nil {
		return nil, pmerrors.IoError("eventstore", "query checkpoints", err)
	}
	defer rows.Close()

	var out []Checkpoint
	for rows.Next() {
		cp, err := scanCheckpoint(rows)
		if err != nil {
			return nil, pmerrors.IoError("eventstore", "scan checkpoint", err)
		}
		out = append(out, *cp)
	}
	return out, rows.Err()
}

// DistinctSessionIDs returns every session ID that has at least one
// event, in no particular order. SessionManager uses this to rebuild
// its active-session view after a restart, since sessions themselves
// are never persisted outside their events.
func (s *Store) DistinctSessionIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, pmerrors.IoError("eventstore", "query on closed store", nil)
	}
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT session_id FROM events`)
	if err != nil {
		return nil, pmerrors.IoError("eventstore", "query distinct sessions", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, pmerrors.IoError("eventstore", "scan session id", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Clear wipes all events and checkpoints. Test-only: normal operation
// never deletes append-only records.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM checkpoints`); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM events`)
	return err
}
