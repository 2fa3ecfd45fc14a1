// Package embedding provides the default Vectorizer the CLI wires
// into vectorsink.Sink when no external embedding service is
// configured. Embedding-model selection is explicitly out of scope
// for this system (spec Non-goal): HashVectorizer is not a semantic
// model, only a deterministic, dependency-free placeholder that lets
// ingest/search run end to end without a real embedding backend.
package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
)

// HashVectorizer derives a fixed-dimension float32 vector from a
// SHA-256 digest of the input text, expanding the 32-byte digest
// across dims by re-hashing with an incrementing counter once the
// digest is exhausted. Two inputs that hash the same way the content
// store's own SHA256Hex helper would therefore never collide on their
// vector either, which is the only property the rest of the pipeline
// (idempotent upsert, repeatable search) actually needs from it.
type HashVectorizer struct {
	dims int
}

// NewHashVectorizer returns a HashVectorizer producing dims-length
// vectors. dims <= 0 defaults to 256.
func NewHashVectorizer(dims int) *HashVectorizer {
	if dims <= 0 {
		dims = 256
	}
	return &HashVectorizer{dims: dims}
}

// Vectorize implements vectorsink.Vectorizer.
func (h *HashVectorizer) Vectorize(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, h.dims)
	block := sha256.Sum256([]byte(text))
	counter := uint32(0)
	pos := 0
	for pos < h.dims {
		for i := 0; i < len(block) && pos < h.dims; i += 4 {
			if i+4 > len(block) {
				break
			}
			v := binary.BigEndian.Uint32(block[i : i+4])
			vec[pos] = (float32(v%20001) - 10000) / 10000.0
			pos++
		}
		counter++
		var seed [4]byte
		binary.BigEndian.PutUint32(seed[:], counter)
		next := sha256.Sum256(append(block[:], seed[:]...))
		block = next
	}
	return vec, nil
}
