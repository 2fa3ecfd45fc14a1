package graphsink

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	pmerrors "github.com/aman-cerp/pingmem/internal/errors"
)

// listProjectsSortColumns restricts ORDER BY to a known-safe set so
// ListOptions.SortBy can be interpolated into the query text without
// risking injection from a caller-supplied string.
var listProjectsSortColumns = map[string]string{
	"lastIngestedAt": "p.lastIngestedAt",
	"projectId":      "p.projectId",
}

// ListProjects implements listProjects({projectId?, limit, sortBy}).
func (s *Sink) ListProjects(ctx context.Context, opts ListOptions) ([]ProjectSummary, error) {
	sortCol, ok := listProjectsSortColumns[opts.SortBy]
	if !ok {
		sortCol = listProjectsSortColumns["lastIngestedAt"]
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}

	cypher := fmt.Sprintf(`
MATCH (p:Project)
WHERE $projectId = "" OR p.projectId = $projectId
RETURN p.projectId AS projectId, p.rootPath AS rootPath, p.treeHash AS treeHash, p.lastIngestedAt AS lastIngestedAt
ORDER BY %s DESC
LIMIT $limit
`, sortCol)

	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, map[string]any{"projectId": opts.ProjectID, "limit": int64(limit)})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, pmerrors.ExternalStoreError("graphsink", "failed to list projects", err)
	}

	records := result.([]*neo4j.Record)
	out := make([]ProjectSummary, 0, len(records))
	for _, rec := range records {
		m := rec.AsMap()
		out = append(out, ProjectSummary{
			ProjectID:      asString(m["projectId"]),
			RootPath:       asString(m["rootPath"]),
			TreeHash:       asString(m["treeHash"]),
			LastIngestedAt: asTime(m["lastIngestedAt"]),
		})
	}
	return out, nil
}

// QueryFilesAtTime implements queryFilesAtTime(projectId, treeHash?):
// with no treeHash it returns the current (latest-ingested) file set;
// with a treeHash it returns that same set when treeHash equals the
// project's current treeHash, and no rows otherwise. Files are
// MERGE-ed in place, not versioned per treeHash, so an earlier
// treeHash has no file set of its own.
func (s *Sink) QueryFilesAtTime(ctx context.Context, projectID, treeHash string) ([]FileAtTime, error) {
	const cypher = `
MATCH (p:Project {projectId: $projectId})-[:HAS_FILE]->(f:File)
WHERE $treeHash = "" OR p.treeHash = $treeHash
RETURN f.path AS path, f.sha256 AS sha256
ORDER BY f.path
`
	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, map[string]any{"projectId": projectID, "treeHash": treeHash})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, pmerrors.ExternalStoreError("graphsink", "failed to query files at time", err)
	}

	records := result.([]*neo4j.Record)
	out := make([]FileAtTime, 0, len(records))
	for _, rec := range records {
		m := rec.AsMap()
		out = append(out, FileAtTime{RelPath: asString(m["path"]), SHA256: asString(m["sha256"])})
	}
	return out, nil
}

// QueryFileChunks implements queryFileChunks(projectId, relPath).
func (s *Sink) QueryFileChunks(ctx context.Context, projectID, relPath string) ([]ChunkRow, error) {
	const cypher = `
MATCH (p:Project {projectId: $projectId})-[:HAS_FILE]->(f:File {path: $path})-[:HAS_CHUNK]->(c:Chunk)
RETURN c.chunkId AS chunkId, c.type AS type, c.start AS start, c.end AS end,
       c.lineStart AS lineStart, c.lineEnd AS lineEnd, c.content AS content
ORDER BY c.start
`
	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, map[string]any{"projectId": projectID, "path": relPath})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, pmerrors.ExternalStoreError("graphsink", "failed to query file chunks", err)
	}

	records := result.([]*neo4j.Record)
	out := make([]ChunkRow, 0, len(records))
	for _, rec := range records {
		m := rec.AsMap()
		out = append(out, ChunkRow{
			ChunkID:   asString(m["chunkId"]),
			Type:      asString(m["type"]),
			Start:     asInt64(m["start"]),
			End:       asInt64(m["end"]),
			LineStart: asInt64(m["lineStart"]),
			LineEnd:   asInt64(m["lineEnd"]),
			Content:   asString(m["content"]),
		})
	}
	return out, nil
}

// QueryCommitHistory implements queryCommitHistory(projectId, limit).
func (s *Sink) QueryCommitHistory(ctx context.Context, projectID string, limit int) ([]CommitRow, error) {
	if limit <= 0 {
		limit = 100
	}
	const cypher = `
MATCH (p:Project {projectId: $projectId})-[:HAS_COMMIT]->(c:Commit)
OPTIONAL MATCH (c)-[:PARENT]->(parent:Commit)
RETURN c.hash AS hash, c.shortHash AS shortHash, c.authorName AS authorName,
       c.authorEmail AS authorEmail, c.authorDate AS authorDate,
       c.committerName AS committerName, c.message AS message,
       collect(parent.hash) AS parentHashes
ORDER BY c.authorDate DESC
LIMIT $limit
`
	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, map[string]any{"projectId": projectID, "limit": int64(limit)})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, pmerrors.ExternalStoreError("graphsink", "failed to query commit history", err)
	}

	records := result.([]*neo4j.Record)
	out := make([]CommitRow, 0, len(records))
	for _, rec := range records {
		m := rec.AsMap()
		out = append(out, CommitRow{
			Hash:          asString(m["hash"]),
			ShortHash:     asString(m["shortHash"]),
			AuthorName:    asString(m["authorName"]),
			AuthorEmail:   asString(m["authorEmail"]),
			AuthorDate:    asTime(m["authorDate"]),
			CommitterName: asString(m["committerName"]),
			Message:       asString(m["message"]),
			ParentHashes:  asStringSlice(m["parentHashes"]),
		})
	}
	return out, nil
}

// QueryFileHistory implements queryFileHistory(projectId, relPath):
// every commit that touched relPath, most recent first.
func (s *Sink) QueryFileHistory(ctx context.Context, projectID, relPath string) ([]FileHistoryRow, error) {
	const cypher = `
MATCH (p:Project {projectId: $projectId})-[:HAS_COMMIT]->(c:Commit)-[r:MODIFIES]->(f:File {path: $path})
RETURN c.hash AS hash, r.changeType AS changeType, c.message AS message, c.authorDate AS authorDate
ORDER BY c.authorDate DESC
`
	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, map[string]any{"projectId": projectID, "path": relPath})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, pmerrors.ExternalStoreError("graphsink", "failed to query file history", err)
	}

	records := result.([]*neo4j.Record)
	out := make([]FileHistoryRow, 0, len(records))
	for _, rec := range records {
		m := rec.AsMap()
		out = append(out, FileHistoryRow{
			CommitHash: asString(m["hash"]),
			ChangeType: asString(m["changeType"]),
			Message:    asString(m["message"]),
			AuthorDate: asTime(m["authorDate"]),
		})
	}
	return out, nil
}
