package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatForUser(t *testing.T) {
	err := NotFound("session", "session not found", nil).WithSuggestion("check the session id")
	msg := FormatForUser(err, false)
	assert.Contains(t, msg, "session not found")
	assert.Contains(t, msg, "check the session id")
}

func TestFormatForUserPlainError(t *testing.T) {
	msg := FormatForUser(errors.New("boom"), false)
	assert.Equal(t, "boom", msg)
}

func TestFormatJSON(t *testing.T) {
	err := Conflict("eventstore", "duplicate event id", nil).WithDetail("eventId", "abc")
	data, jsonErr := FormatJSON(err)
	require.NoError(t, jsonErr)
	assert.Contains(t, string(data), "\"category\":\"CONFLICT\"")
	assert.Contains(t, string(data), "\"eventId\":\"abc\"")
}

func TestFormatForLog(t *testing.T) {
	err := ExternalStoreError("graphsink", "neo4j unreachable", errors.New("dial timeout"))
	attrs := FormatForLog(err)
	assert.Equal(t, "graphsink", attrs["component"])
	assert.Equal(t, "EXTERNAL_STORE_ERROR", attrs["category"])
	assert.Equal(t, "dial timeout", attrs["cause"])
}
