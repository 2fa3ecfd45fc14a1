package session

import (
	"context"
	"strings"

	pmerrors "github.com/aman-cerp/pingmem/internal/errors"
	"github.com/aman-cerp/pingmem/internal/eventstore"
)

// MemoryManager is the MemoryManager (C13): a per-session derived
// projection over MEMORY_SAVED / MEMORY_UPDATED / MEMORY_DELETED
// events. It caches nothing across calls except an optional hydrated
// snapshot — Hydrate must be called (directly, or implicitly by the
// first read) before Get/Recall/Delete see prior writes.
type MemoryManager struct {
	store     *eventstore.Store
	sessionID string
	memories  map[string]Memory
	hydrated  bool
}

// NewMemoryManager returns a MemoryManager scoped to one session.
func NewMemoryManager(store *eventstore.Store, sessionID string) *MemoryManager {
	return &MemoryManager{store: store, sessionID: sessionID}
}

// Hydrate reads every event for the session from the store and folds
// them into the (key -> memory) projection, replacing any
// previously-hydrated state.
func (m *MemoryManager) Hydrate(ctx context.Context) error {
	events, err := m.store.GetBySession(ctx, m.sessionID)
	if err != nil {
		return err
	}
	m.memories = foldMemories(events)
	m.hydrated = true
	return nil
}

func (m *MemoryManager) ensureHydrated(ctx context.Context) error {
	if m.hydrated {
		return nil
	}
	return m.Hydrate(ctx)
}

// Save emits MEMORY_SAVED for a new key. Use SaveOrUpdate if the key
// may already exist.
func (m *MemoryManager) Save(ctx context.Context, key, value string, opts MemoryOptions) (*Memory, error) {
	return m.write(ctx, eventstore.EventMemorySaved, key, value, opts)
}

// SaveOrUpdate emits MEMORY_SAVED if the key has never been written
// in this session, or MEMORY_UPDATED if it has (even if it was
// subsequently deleted — a later SaveOrUpdate resurrects the key).
func (m *MemoryManager) SaveOrUpdate(ctx context.Context, key, value string, opts MemoryOptions) (*Memory, error) {
	if err := m.ensureHydrated(ctx); err != nil {
		return nil, err
	}
	if _, exists := m.memories[key]; exists {
		return m.write(ctx, eventstore.EventMemoryUpdated, key, value, opts)
	}
	return m.write(ctx, eventstore.EventMemorySaved, key, value, opts)
}

func (m *MemoryManager) write(ctx context.Context, eventType eventstore.EventType, key, value string, opts MemoryOptions) (*Memory, error) {
	payload := marshalJSON(memoryWritePayload{Key: key, Value: value, Options: toOptsDTO(opts)})
	e, err := m.store.CreateEvent(ctx, m.sessionID, eventType, payload, nil, "")
	if err != nil {
		return nil, err
	}
	mem := Memory{Key: key, Value: value, Options: opts, UpdatedAt: e.Timestamp}
	if m.hydrated {
		m.memories[key] = mem
	}
	return &mem, nil
}

// Get returns the current value for key, or NotFound if it was never
// saved or has been deleted.
func (m *MemoryManager) Get(ctx context.Context, key string) (*Memory, error) {
	if err := m.ensureHydrated(ctx); err != nil {
		return nil, err
	}
	mem, ok := m.memories[key]
	if !ok || mem.Deleted {
		return nil, pmerrors.NotFound("session", "memory key "+key+" not found", nil)
	}
	return &mem, nil
}

// Delete emits MEMORY_DELETED, tombstoning the key. Deleting an
// already-absent key still emits a tombstone — deletion is
// append-only, like everything else in this store.
func (m *MemoryManager) Delete(ctx context.Context, key string) error {
	payload := marshalJSON(memoryDeletePayload{Key: key})
	e, err := m.store.CreateEvent(ctx, m.sessionID, eventstore.EventMemoryDeleted, payload, nil, "")
	if err != nil {
		return err
	}
	if m.hydrated {
		m.memories[key] = Memory{Key: key, UpdatedAt: e.Timestamp, Deleted: true}
	}
	return nil
}

// Recall returns every non-deleted memory whose key or value contains
// query as a case-insensitive substring — a best-effort local search
// over this session's memories, independent of C9's vector search.
func (m *MemoryManager) Recall(ctx context.Context, query string) ([]Memory, error) {
	if err := m.ensureHydrated(ctx); err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	var out []Memory
	for _, mem := range m.memories {
		if mem.Deleted {
			continue
		}
		if q == "" || strings.Contains(strings.ToLower(mem.Key), q) || strings.Contains(strings.ToLower(mem.Value), q) {
			out = append(out, mem)
		}
	}
	return out, nil
}

// Count returns the number of non-deleted memory keys, the value a
// checkpoint's MemoryCount field records.
func (m *MemoryManager) Count(ctx context.Context) (int, error) {
	if err := m.ensureHydrated(ctx); err != nil {
		return 0, err
	}
	count := 0
	for _, mem := range m.memories {
		if !mem.Deleted {
			count++
		}
	}
	return count, nil
}

// Checkpoint creates a checkpoint for this session at its current
// memory count (spec §4.10 CreateCheckpoint).
func (m *MemoryManager) Checkpoint(ctx context.Context, description string) (*eventstore.Checkpoint, error) {
	count, err := m.Count(ctx)
	if err != nil {
		return nil, err
	}
	return m.store.CreateCheckpoint(ctx, m.sessionID, count, description)
}
