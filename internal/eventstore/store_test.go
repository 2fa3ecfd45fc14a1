package eventstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.db")
	s, err := NewStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCreateEvent_AssignsUUIDv7AndAppends(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	e, err := s.CreateEvent(ctx, "sess-1", EventSessionStarted, []byte(`{"name":"demo"}`), nil, "")
	require.NoError(t, err)
	assert.NotEmpty(t, e.EventID)

	got, err := s.GetByID(ctx, e.EventID)
	require.NoError(t, err)
	assert.Equal(t, e.EventID, got.EventID)
	assert.Equal(t, EventSessionStarted, got.EventType)
	assert.JSONEq(t, `{"name":"demo"}`, string(got.Payload))
}

func TestAppend_RejectsUnknownEventType(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, err := s.CreateEvent(ctx, "sess-1", EventType("NOT_A_REAL_TYPE"), nil, nil, "")
	assert.Error(t, err)
}

func TestAppend_DuplicateEventIDConflicts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	e := Event{EventID: "dup-1", Timestamp: time.Now(), SessionID: "s", EventType: EventSessionStarted, Payload: []byte("{}"), Metadata: []byte("{}")}
	require.NoError(t, s.Append(ctx, e))
	err := s.Append(ctx, e)
	assert.Error(t, err)
}

func TestAppend_CausedByMustExist(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateEvent(ctx, "s", EventMemorySaved, nil, nil, "does-not-exist")
	assert.Error(t, err)
}

// S5 from spec.md §8: SESSION_STARTED then MEMORY_SAVED then a
// checkpoint; GetBySession has length 2 and the checkpoint's
// LastEventID is the second event's ID.
func TestSeedScenarioS5(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	e1, err := s.CreateEvent(ctx, "sess-5", EventSessionStarted, []byte(`{}`), nil, "")
	require.NoError(t, err)
	e2, err := s.CreateEvent(ctx, "sess-5", EventMemorySaved, []byte(`{"key":"k"}`), nil, "")
	require.NoError(t, err)

	events, err := s.GetBySession(ctx, "sess-5")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, e1.EventID, events[0].EventID)
	assert.Equal(t, e2.EventID, events[1].EventID)

	cp, err := s.CreateCheckpoint(ctx, "sess-5", 1, "")
	require.NoError(t, err)
	assert.Equal(t, e2.EventID, cp.LastEventID)

	cps, err := s.GetCheckpointsBySession(ctx, "sess-5")
	require.NoError(t, err)
	require.Len(t, cps, 1)
	assert.Equal(t, e2.EventID, cps[0].LastEventID)
}

func TestCreateCheckpoint_NotFoundWithoutEvents(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, err := s.CreateCheckpoint(ctx, "empty-session", 0, "")
	assert.Error(t, err)
}

func TestGetCheckpoint_ReferentialIntegrity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateEvent(ctx, "s", EventSessionStarted, nil, nil, "")
	require.NoError(t, err)
	cp, err := s.CreateCheckpoint(ctx, "s", 0, "first checkpoint")
	require.NoError(t, err)

	got, err := s.GetCheckpoint(ctx, cp.CheckpointID)
	require.NoError(t, err)

	// P8: every checkpoint's lastEventId resolves via GetByID.
	_, err = s.GetByID(ctx, got.LastEventID)
	assert.NoError(t, err)
}

func TestGetBySession_MonotoneOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		e, err := s.CreateEvent(ctx, "ordered", EventMemorySaved, nil, nil, "")
		require.NoError(t, err)
		ids = append(ids, e.EventID)
	}

	events, err := s.GetBySession(ctx, "ordered")
	require.NoError(t, err)
	require.Len(t, events, 5)
	for i := range events {
		assert.Equal(t, ids[i], events[i].EventID)
	}
	for i := 1; i < len(events); i++ {
		assert.False(t, events[i].Timestamp.Before(events[i-1].Timestamp))
	}
}

func TestAppendBatch_AllOrNothing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ok := Event{EventID: "batch-1", Timestamp: time.Now(), SessionID: "s", EventType: EventSessionStarted, Payload: []byte("{}"), Metadata: []byte("{}")}
	bad := Event{EventID: "batch-1", Timestamp: time.Now(), SessionID: "s", EventType: EventSessionEnded, Payload: []byte("{}"), Metadata: []byte("{}")}

	err := s.AppendBatch(ctx, []Event{ok, bad})
	assert.Error(t, err)

	_, err = s.GetByID(ctx, "batch-1")
	assert.Error(t, err, "partial batch must not have been committed")
}

func TestClear_RemovesAllRecords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateEvent(ctx, "s", EventSessionStarted, nil, nil, "")
	require.NoError(t, err)
	require.NoError(t, s.Clear(ctx))

	events, err := s.GetBySession(ctx, "s")
	require.NoError(t, err)
	assert.Empty(t, events)
}
