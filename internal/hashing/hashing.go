// Package hashing provides the content-addressing primitives shared by
// every other component: SHA-256 digests over canonically joined keys,
// and time-sortable identifiers for append-only records.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"github.com/google/uuid"
)

// SHA256Hex returns the lowercase hex-encoded SHA-256 digest of data.
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SHA256String is a convenience wrapper for string input.
func SHA256String(s string) string {
	return SHA256Hex([]byte(s))
}

// JoinKey canonically joins a sequence of parts with "\n" the way every
// content-addressed ID in this system is built: relPath, hashes, byte
// offsets, and similar fields are concatenated in a fixed field order
// and separated by a single newline before hashing. Callers pass parts
// already stringified (see Itoa for integers) so the join has no
// ambiguity about numeric formatting.
func JoinKey(parts ...string) string {
	total := 0
	for i, p := range parts {
		total += len(p)
		if i > 0 {
			total++
		}
	}
	buf := make([]byte, 0, total)
	for i, p := range parts {
		if i > 0 {
			buf = append(buf, '\n')
		}
		buf = append(buf, p...)
	}
	return string(buf)
}

// Itoa formats an integer for inclusion in a JoinKey call. It exists so
// every call site uses the same base-10, no-sign-for-positive
// formatting when composing hash inputs.
func Itoa(n int) string {
	return strconv.Itoa(n)
}

// Itoa64 formats an int64 for inclusion in a JoinKey call.
func Itoa64(n int64) string {
	return strconv.FormatInt(n, 10)
}

// NewEventID returns a new UUIDv7, time-sortable and suitable for use
// as an Event's eventId (Invariant E1).
func NewEventID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
