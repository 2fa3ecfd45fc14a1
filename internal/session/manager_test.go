package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-cerp/pingmem/internal/eventstore"
)

func newTestManager(t *testing.T, maxActive int) (*Manager, *eventstore.Store) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.db")
	store, err := eventstore.NewStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return NewManager(store, maxActive), store
}

func TestStartSession_EmitsStartedAndHydrates(t *testing.T) {
	m, _ := newTestManager(t, 10)
	ctx := context.Background()

	sess, err := m.StartSession(ctx, StartConfig{Name: "demo", ProjectDir: "/tmp/proj"})
	require.NoError(t, err)
	assert.NotEmpty(t, sess.SessionID)
	assert.Equal(t, "demo", sess.Name)
	assert.Equal(t, StatusActive, sess.Status)

	got, err := m.GetSession(ctx, sess.SessionID)
	require.NoError(t, err)
	assert.Equal(t, sess.SessionID, got.SessionID)
}

func TestSessionLifecycle_EndIsTerminal(t *testing.T) {
	m, _ := newTestManager(t, 10)
	ctx := context.Background()

	sess, err := m.StartSession(ctx, StartConfig{Name: "demo"})
	require.NoError(t, err)

	require.NoError(t, m.PauseSession(ctx, sess.SessionID, "lunch"))
	got, err := m.GetSession(ctx, sess.SessionID)
	require.NoError(t, err)
	assert.Equal(t, StatusPaused, got.Status)

	require.NoError(t, m.ResumeSession(ctx, sess.SessionID, ""))
	got, err = m.GetSession(ctx, sess.SessionID)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, got.Status)

	require.NoError(t, m.EndSession(ctx, sess.SessionID, "done"))
	got, err = m.GetSession(ctx, sess.SessionID)
	require.NoError(t, err)
	assert.Equal(t, StatusEnded, got.Status)

	// P11/terminal: ended sessions reject further lifecycle transitions.
	err = m.ResumeSession(ctx, sess.SessionID, "")
	assert.Error(t, err)
}

// P11: starting more than maxActiveSessions active sessions fails
// with LimitExceeded.
func TestStartSession_EnforcesActiveCap(t *testing.T) {
	m, _ := newTestManager(t, 2)
	ctx := context.Background()

	_, err := m.StartSession(ctx, StartConfig{Name: "one"})
	require.NoError(t, err)
	_, err = m.StartSession(ctx, StartConfig{Name: "two"})
	require.NoError(t, err)

	_, err = m.StartSession(ctx, StartConfig{Name: "three"})
	assert.Error(t, err)
}

func TestStartSession_EndingFreesCapacity(t *testing.T) {
	m, _ := newTestManager(t, 1)
	ctx := context.Background()

	first, err := m.StartSession(ctx, StartConfig{Name: "one"})
	require.NoError(t, err)

	_, err = m.StartSession(ctx, StartConfig{Name: "two"})
	assert.Error(t, err)

	require.NoError(t, m.EndSession(ctx, first.SessionID, ""))
	_, err = m.StartSession(ctx, StartConfig{Name: "two"})
	assert.NoError(t, err)
}

func TestGetSession_NotFoundForUnknownID(t *testing.T) {
	m, _ := newTestManager(t, 10)
	_, err := m.GetSession(context.Background(), "nonexistent")
	assert.Error(t, err)
}

func TestListSessions_ReturnsAllStarted(t *testing.T) {
	m, _ := newTestManager(t, 10)
	ctx := context.Background()

	_, err := m.StartSession(ctx, StartConfig{Name: "a"})
	require.NoError(t, err)
	_, err = m.StartSession(ctx, StartConfig{Name: "b"})
	require.NoError(t, err)

	sessions, err := m.ListSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}

func TestValidateName_RejectsBadCharacters(t *testing.T) {
	assert.NoError(t, ValidateName(""))
	assert.NoError(t, ValidateName("my-session_1"))
	assert.Error(t, ValidateName("bad name!"))
}
