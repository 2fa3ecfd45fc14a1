// Package ingest implements the project ingestion orchestrator: it
// composes the scanner, chunker, symbol extractor, and git history
// reader into a single deterministic ingest operation, and persists
// the resulting manifest through the manifest store.
package ingest

import (
	"time"

	"github.com/aman-cerp/pingmem/internal/chunk"
	"github.com/aman-cerp/pingmem/internal/gitlog"
	"github.com/aman-cerp/pingmem/internal/manifest"
)

// FileRecord bundles one file's chunks and symbols alongside the
// content hash already recorded for it in the manifest.
type FileRecord struct {
	RelPath string
	SHA256  string
	Bytes   int64
	Chunks  []chunk.Chunk
	Symbols []chunk.Symbol
}

// CommitRecord bundles one commit with the file changes and diff hunks
// it introduced, so a graph sink can persist MODIFIES/CHANGES edges
// without a second pass over git.
type CommitRecord struct {
	gitlog.Commit
	Changes []gitlog.FileChange
	Hunks   []gitlog.DiffHunk
}

// IngestionRecord is the full output of one ingest: a manifest, every
// file's chunks/symbols, and the project's commit history, as of the
// moment the scan observed the tree.
//
// Determinism contract: for fixed filesystem and git state this is
// identical across runs except for IngestedAt and Manifest.GeneratedAt,
// which are system-time stamps recorded for display but never
// consulted for identity.
type IngestionRecord struct {
	Manifest   *manifest.ProjectManifest
	Files      []FileRecord
	Commits    []CommitRecord
	IngestedAt time.Time
}

// Options configures a single ingest operation.
type Options struct {
	// ForceReingest re-chunks and re-extracts symbols even when the
	// scan reports the tree hash is unchanged from the stored manifest.
	ForceReingest bool
}
