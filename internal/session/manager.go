package session

import (
	"context"
	"fmt"

	pmerrors "github.com/aman-cerp/pingmem/internal/errors"
	"github.com/aman-cerp/pingmem/internal/eventstore"
	"github.com/aman-cerp/pingmem/internal/hashing"
)

// DefaultMaxActiveSessions is the default bound on simultaneously
// active sessions (spec §4.11: "A bounded set of 'active' sessions is
// enforced (configurable default 10)").
const DefaultMaxActiveSessions = 10

// Manager is the SessionManager (C12): session lifecycle built
// entirely on top of an eventstore.Store. It holds no state of its
// own beyond the store handle and the active-session cap — every
// Session is rebuilt by folding that session's events on read.
type Manager struct {
	store     *eventstore.Store
	maxActive int
}

// NewManager returns a Manager backed by store. maxActive <= 0 uses
// DefaultMaxActiveSessions.
func NewManager(store *eventstore.Store, maxActive int) *Manager {
	if maxActive <= 0 {
		maxActive = DefaultMaxActiveSessions
	}
	return &Manager{store: store, maxActive: maxActive}
}

// StartSession emits SESSION_STARTED for a freshly allocated UUIDv7
// session ID, failing with LimitExceeded if doing so would exceed the
// configured active-session cap (Invariant/property P11).
func (m *Manager) StartSession(ctx context.Context, cfg StartConfig) (*Session, error) {
	if err := ValidateName(cfg.Name); err != nil {
		return nil, pmerrors.InvalidArgument("session", err.Error(), err)
	}

	active, err := m.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if len(active) >= m.maxActive {
		return nil, pmerrors.LimitExceeded("session",
			fmt.Sprintf("maximum %d active sessions reached", m.maxActive), nil)
	}

	// SESSION_STARTED is the first event of a session, so it carries a
	// fresh session ID rather than one supplied by the caller —
	// sessions, like events, are identified by UUIDv7.
	sessionID, err := hashing.NewEventID()
	if err != nil {
		return nil, pmerrors.IoError("session", "generate session id", err)
	}

	payload := marshalJSON(sessionStartedPayload{
		Name:            cfg.Name,
		ProjectDir:      cfg.ProjectDir,
		ParentSessionID: cfg.ParentSessionID,
		DefaultChannel:  cfg.DefaultChannel,
		Metadata:        cfg.Metadata,
	})
	e, err := m.store.CreateEvent(ctx, sessionID, eventstore.EventSessionStarted, payload, nil, "")
	if err != nil {
		return nil, err
	}

	return m.GetSession(ctx, e.SessionID)
}

// EndSession emits SESSION_ENDED. Ended is terminal: a later
// Pause/Resume on the same session ID is a no-op at the fold layer,
// never reopening it.
func (m *Manager) EndSession(ctx context.Context, sessionID, reason string) error {
	return m.emitLifecycle(ctx, sessionID, eventstore.EventSessionEnded, reason)
}

// PauseSession emits SESSION_PAUSED.
func (m *Manager) PauseSession(ctx context.Context, sessionID, reason string) error {
	return m.emitLifecycle(ctx, sessionID, eventstore.EventSessionPaused, reason)
}

// ResumeSession emits SESSION_RESUMED.
func (m *Manager) ResumeSession(ctx context.Context, sessionID, reason string) error {
	return m.emitLifecycle(ctx, sessionID, eventstore.EventSessionResumed, reason)
}

func (m *Manager) emitLifecycle(ctx context.Context, sessionID string, eventType eventstore.EventType, reason string) error {
	sess, err := m.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess.Status == StatusEnded {
		return pmerrors.Conflict("session", fmt.Sprintf("session %s has already ended", sessionID), nil)
	}
	payload := marshalJSON(lifecycleReasonPayload{Reason: reason})
	_, err = m.store.CreateEvent(ctx, sessionID, eventType, payload, nil, "")
	return err
}

// GetSession rebuilds a Session from its event history. Returns
// NotFound if the session has no SESSION_STARTED event.
func (m *Manager) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	events, err := m.store.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sess := foldSession(sessionID, events)
	if sess == nil {
		return nil, pmerrors.NotFound("session", fmt.Sprintf("session %s not found", sessionID), nil)
	}
	return sess, nil
}

// ListSessions rebuilds every known session (every distinct session
// ID that has a SESSION_STARTED event).
func (m *Manager) ListSessions(ctx context.Context) ([]*Session, error) {
	ids, err := m.store.DistinctSessionIDs(ctx)
	if err != nil {
		return nil, err
	}
	var sessions []*Session
	for _, id := range ids {
		sess, err := m.GetSession(ctx, id)
		if err != nil {
			if pmerrors.GetCategory(err) == pmerrors.CategoryNotFound {
				continue
			}
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, nil
}

// ListActive returns every session currently in StatusActive.
func (m *Manager) ListActive(ctx context.Context) ([]*Session, error) {
	all, err := m.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	var active []*Session
	for _, s := range all {
		if s.Status == StatusActive {
			active = append(active, s)
		}
	}
	return active, nil
}
