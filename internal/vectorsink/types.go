// Package vectorsink upserts per-chunk vectors into Qdrant. It has no
// opinion about how vectors are produced; a Vectorizer capability is
// injected by the caller.
package vectorsink

import (
	"context"
	"time"
)

// Config configures the Qdrant connection and collection a Sink
// writes to.
type Config struct {
	URL              string
	CollectionName   string
	APIKey           string
	VectorDimensions int
}

// Vectorizer turns a chunk's text content into an embedding. It is
// out of scope for this package; callers inject a concrete
// implementation (a local model, a remote embedding API, a cache).
type Vectorizer interface {
	Vectorize(ctx context.Context, text string) ([]float32, error)
}

// Record is one chunk's vector-sink payload.
type Record struct {
	ProjectID  string
	FilePath   string
	ChunkID    string
	SHA256     string
	Type       string
	Content    string
	IngestedAt time.Time
	// DataType is "code" or "document".
	DataType string
}
