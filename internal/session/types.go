// Package session implements the SessionManager and MemoryManager
// (C12/C13): session lifecycle and per-session key/value memory, both
// derived entirely from the append-only event log of internal/eventstore.
// Nothing here is itself persisted directly — a Session or Memory is
// always a fold over that session's events, so hydration after a
// restart reproduces exactly the same aggregate (spec §3 "Session",
// "Memory").
package session

import (
	"fmt"
	"regexp"
	"time"
)

// Status is a session's derived lifecycle state.
type Status string

const (
	StatusActive   Status = "active"
	StatusPaused   Status = "paused"
	StatusEnded    Status = "ended"
	StatusArchived Status = "archived"
)

const (
	maxSessionNameLength = 64
)

var validSessionNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateName checks a human-facing session name: letters, digits,
// hyphens, underscores, at most 64 characters. An empty name is
// valid — session identity is the UUIDv7 session ID, not the name.
func ValidateName(name string) error {
	if name == "" {
		return nil
	}
	if len(name) > maxSessionNameLength {
		return fmt.Errorf("session name too long (max %d chars)", maxSessionNameLength)
	}
	if !validSessionNamePattern.MatchString(name) {
		return fmt.Errorf("session name can only contain letters, numbers, hyphens, and underscores")
	}
	return nil
}

// StartConfig is the caller-supplied configuration for a new session
// (spec §3 Session: "carrying {name, projectDir?, parentSessionId?,
// defaultChannel?, metadata}").
type StartConfig struct {
	Name            string
	ProjectDir      string
	ParentSessionID string
	DefaultChannel  string
	Metadata        map[string]string
}

// Session is the derived aggregate over a session's SESSION_*
// lifecycle events.
type Session struct {
	SessionID       string
	Name            string
	ProjectDir      string
	ParentSessionID string
	DefaultChannel  string
	Metadata        map[string]string
	Status          Status
	StartedAt       time.Time
	LastEventAt     time.Time
}

// MemoryOptions carries caller-supplied metadata about a saved memory
// entry (e.g. a TTL hint, a free-form tag); opaque to the fold logic.
type MemoryOptions struct {
	Tags []string
	TTL  *time.Duration
}

// Memory is the derived aggregate for one (sessionId, key) pair,
// after folding MEMORY_SAVED / MEMORY_UPDATED / MEMORY_DELETED events
// in order (spec §3 "Memory": "Last-write-wins by event timestamp;
// delete tombstones supersede earlier saves").
type Memory struct {
	Key       string
	Value     string
	Options   MemoryOptions
	UpdatedAt time.Time
	Deleted   bool
}
