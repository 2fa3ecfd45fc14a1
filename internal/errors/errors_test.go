package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New("scanner", CategoryIoError, "cannot read file", nil)
	require.NotNil(t, err)
	assert.Equal(t, "scanner", err.Component)
	assert.Equal(t, CategoryIoError, err.Category)
	assert.Equal(t, SeverityError, err.Severity)
}

func TestWrap(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap("manifest", CategoryIoError, cause)
	require.NotNil(t, err)
	assert.Equal(t, "disk full", err.Message)
	assert.Equal(t, cause, err.Cause)
	assert.ErrorIs(t, err, cause)
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap("manifest", CategoryIoError, nil))
}

func TestCategoryConstructors(t *testing.T) {
	cases := []struct {
		name string
		err  *PingMemError
		cat  Category
	}{
		{"invalid-argument", InvalidArgument("gitlog", "bad hash", nil), CategoryInvalidArgument},
		{"not-found", NotFound("eventstore", "no such session", nil), CategoryNotFound},
		{"conflict", Conflict("eventstore", "duplicate event id", nil), CategoryConflict},
		{"limit-exceeded", LimitExceeded("session", "too many active sessions", nil), CategoryLimitExceeded},
		{"io-error", IoError("scanner", "read failed", nil), CategoryIoError},
		{"external-store", ExternalStoreError("graphsink", "neo4j unreachable", nil), CategoryExternalStoreError},
		{"parse-error", ParseError("diagnostics", "bad sarif", nil), CategoryParseError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.cat, tc.err.Category)
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ExternalStoreError("vectorsink", "timeout", nil)))
	assert.False(t, IsRetryable(InvalidArgument("gitlog", "bad hash", nil)))
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestWithDetailAndSuggestion(t *testing.T) {
	err := NotFound("session", "session missing", nil).
		WithDetail("sessionId", "abc").
		WithSuggestion("start a new session")
	assert.Equal(t, "abc", err.Details["sessionId"])
	assert.Equal(t, "start a new session", err.Suggestion)
}

func TestIsMatchesCategoryAndComponent(t *testing.T) {
	a := NotFound("session", "x", nil)
	b := NotFound("session", "y", nil)
	c := NotFound("eventstore", "z", nil)
	assert.ErrorIs(t, a, b)
	assert.False(t, errors.Is(a, c))
}

func TestGetCategory(t *testing.T) {
	assert.Equal(t, CategoryConflict, GetCategory(Conflict("eventstore", "dup", nil)))
	assert.Equal(t, Category(""), GetCategory(errors.New("plain")))
}
