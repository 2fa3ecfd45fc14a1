// Package graphsink persists IngestionRecords into a Neo4j property
// graph and answers the listing/history queries that read the graph
// back.
package graphsink

import "time"

// Config configures the Neo4j connection a Sink writes to.
type Config struct {
	URI         string
	Username    string
	Password    string
	Database    string
	MaxPoolSize int
}

// ProjectSummary is one row of listProjects.
type ProjectSummary struct {
	ProjectID      string
	RootPath       string
	TreeHash       string
	LastIngestedAt time.Time
}

// ListOptions filters/sorts listProjects.
type ListOptions struct {
	ProjectID string
	Limit     int
	// SortBy is one of "lastIngestedAt" (default) or "projectId".
	SortBy string
}

// FileAtTime is one row of queryFilesAtTime.
type FileAtTime struct {
	RelPath string
	SHA256  string
}

// ChunkRow is one row of queryFileChunks.
type ChunkRow struct {
	ChunkID   string
	Type      string
	Start     int64
	End       int64
	LineStart int64
	LineEnd   int64
	Content   string
}

// CommitRow is one row of queryCommitHistory.
type CommitRow struct {
	Hash          string
	ShortHash     string
	AuthorName    string
	AuthorEmail   string
	AuthorDate    time.Time
	CommitterName string
	Message       string
	ParentHashes  []string
}

// FileHistoryRow is one row of queryFileHistory: a commit that
// touched the file, and how.
type FileHistoryRow struct {
	CommitHash string
	ChangeType string
	OldPath    string
	Message    string
	AuthorDate time.Time
}
