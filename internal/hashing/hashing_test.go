package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSHA256HexMatchesStdlib(t *testing.T) {
	data := []byte("hello project state")
	want := sha256.Sum256(data)
	assert.Equal(t, hex.EncodeToString(want[:]), SHA256Hex(data))
}

func TestSHA256StringMatchesBytes(t *testing.T) {
	assert.Equal(t, SHA256Hex([]byte("abc")), SHA256String("abc"))
}

func TestJoinKeyUsesNewlineSeparator(t *testing.T) {
	got := JoinKey("a", "b", "c")
	assert.Equal(t, "a\nb\nc", got)
}

func TestJoinKeySingleElement(t *testing.T) {
	assert.Equal(t, "only", JoinKey("only"))
}

func TestJoinKeyEmpty(t *testing.T) {
	assert.Equal(t, "", JoinKey())
}

func TestItoaAndItoa64(t *testing.T) {
	assert.Equal(t, "42", Itoa(42))
	assert.Equal(t, "42", Itoa64(42))
	assert.Equal(t, "-7", Itoa(-7))
}

func TestNewEventIDIsUnique(t *testing.T) {
	a, err := NewEventID()
	require.NoError(t, err)
	b, err := NewEventID()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 36)
}
