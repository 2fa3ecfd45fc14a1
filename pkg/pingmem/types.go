// Package pingmem exposes the IngestionFacade (C14): the single
// entry point that composes the ingest orchestrator with the graph
// and vector sinks so a caller never has to sequence C7, C8, and C9
// by hand.
package pingmem

import "time"

// IngestResult is the outcome of a successful IngestProject call.
type IngestResult struct {
	ProjectID      string
	TreeHash       string
	FilesIndexed   int
	ChunksIndexed  int
	CommitsIndexed int
	IngestedAt     time.Time
	HadChanges     bool
}

// VerifyResult is the outcome of VerifyProject.
type VerifyResult struct {
	ProjectID        string
	Valid            bool
	ManifestTreeHash string
	CurrentTreeHash  string
	Message          string
}

// SearchFilters narrows SearchCode's vector-search results. Every
// field is matched client-side against the candidates Qdrant returns;
// an empty field imposes no filter.
type SearchFilters struct {
	ProjectID string
	FilePath  string
	Type      string
	Limit     int
}

// SearchHit is one scored match from SearchCode.
type SearchHit struct {
	Score     float32
	ProjectID string
	FilePath  string
	ChunkID   string
	Type      string
	Content   string
}

// TimelineOptions configures QueryTimeline.
type TimelineOptions struct {
	ProjectID string
	FilePath  string
	Limit     int
}

// TimelineEntry is one commit in QueryTimeline's result, with its
// deterministically extracted reason.
type TimelineEntry struct {
	CommitHash string
	ChangeType string
	AuthorDate time.Time
	Message    string
	Why        string
}
