package graphsink

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	pmerrors "github.com/aman-cerp/pingmem/internal/errors"
	"github.com/aman-cerp/pingmem/internal/gitlog"
	"github.com/aman-cerp/pingmem/internal/hashing"
	"github.com/aman-cerp/pingmem/internal/ingest"
)

// Sink writes IngestionRecords into Neo4j and deletes project
// subgraphs. All writes are MERGE-keyed on content-addressed IDs, so
// Persist is idempotent: running it twice with the same record leaves
// the same graph state.
type Sink struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewSink dials Neo4j and returns a Sink. It does not verify
// connectivity; callers that want a fail-fast startup should call
// VerifyConnectivity themselves.
func NewSink(cfg Config) (*Sink, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""),
		func(c *neo4j.Config) {
			if cfg.MaxPoolSize > 0 {
				c.MaxConnectionPoolSize = cfg.MaxPoolSize
			}
		})
	if err != nil {
		return nil, pmerrors.ExternalStoreError("graphsink", "failed to create neo4j driver", err)
	}
	return &Sink{driver: driver, database: cfg.Database}, nil
}

// VerifyConnectivity pings the configured Neo4j instance.
func (s *Sink) VerifyConnectivity(ctx context.Context) error {
	if err := s.driver.VerifyConnectivity(ctx); err != nil {
		return pmerrors.ExternalStoreError("graphsink", "neo4j connectivity check failed", err)
	}
	return nil
}

// Close releases the underlying driver's connection pool.
func (s *Sink) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *Sink) session(ctx context.Context) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database})
}

func fileID(relPath string) string {
	return hashing.SHA256String(relPath)
}

// Persist writes rec's project, files, chunks, symbols, and commit
// history into the graph.
func (s *Sink) Persist(ctx context.Context, rec *ingest.IngestionRecord) error {
	session := s.session(ctx)
	defer session.Close(ctx)

	if err := s.persistProject(ctx, session, rec); err != nil {
		return err
	}
	for _, f := range rec.Files {
		if err := s.persistFile(ctx, session, rec.Manifest.ProjectID, rec.IngestedAt, f); err != nil {
			return err
		}
	}
	for _, c := range rec.Commits {
		if err := s.persistCommit(ctx, session, rec.Manifest.ProjectID, rec.Files, c); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sink) persistProject(ctx context.Context, session neo4j.SessionWithContext, rec *ingest.IngestionRecord) error {
	const cypher = `
MERGE (p:Project {projectId: $projectId})
SET p.rootPath = $rootPath, p.treeHash = $treeHash, p.lastIngestedAt = $lastIngestedAt
`
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, cypher, map[string]any{
			"projectId":      rec.Manifest.ProjectID,
			"rootPath":       rec.Manifest.RootPath,
			"treeHash":       rec.Manifest.TreeHash,
			"lastIngestedAt": rec.IngestedAt,
		})
		return nil, err
	})
	if err != nil {
		return pmerrors.ExternalStoreError("graphsink", "failed to merge project node", err)
	}
	return nil
}

func (s *Sink) persistFile(ctx context.Context, session neo4j.SessionWithContext, projectID string, ingestedAt time.Time, f ingest.FileRecord) error {
	const fileCypher = `
MATCH (p:Project {projectId: $projectId})
MERGE (f:File {fileId: $fileId})
SET f.path = $path, f.sha256 = $sha256, f.lastIngestedAt = $lastIngestedAt
MERGE (p)-[r:HAS_FILE]->(f)
SET r.ingestedAt = $ingestedAt
`
	id := fileID(f.RelPath)
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, fileCypher, map[string]any{
			"projectId":      projectID,
			"fileId":         id,
			"path":           f.RelPath,
			"sha256":         f.SHA256,
			"lastIngestedAt": ingestedAt,
			"ingestedAt":     ingestedAt,
		}); err != nil {
			return nil, err
		}

		for _, ch := range f.Chunks {
			const chunkCypher = `
MATCH (f:File {fileId: $fileId})
MERGE (c:Chunk {chunkId: $chunkId})
SET c.type = $type, c.start = $start, c.end = $end,
    c.lineStart = $lineStart, c.lineEnd = $lineEnd, c.content = $content,
    c.lastIngestedAt = $lastIngestedAt
MERGE (f)-[r:HAS_CHUNK]->(c)
SET r.ingestedAt = $ingestedAt
`
			if _, err := tx.Run(ctx, chunkCypher, map[string]any{
				"fileId":         id,
				"chunkId":        ch.ChunkID,
				"type":           string(ch.Type),
				"start":          ch.Start,
				"end":            ch.End,
				"lineStart":      ch.LineStart,
				"lineEnd":        ch.LineEnd,
				"content":        ch.Content,
				"lastIngestedAt": ingestedAt,
				"ingestedAt":     ingestedAt,
			}); err != nil {
				return nil, err
			}
		}

		for _, sym := range f.Symbols {
			const symbolCypher = `
MATCH (f:File {fileId: $fileId})
MERGE (sym:Symbol {symbolId: $symbolId})
SET sym.name = $name, sym.kind = $kind, sym.startLine = $startLine,
    sym.endLine = $endLine, sym.signature = $signature, sym.lastIngestedAt = $lastIngestedAt
MERGE (f)-[r:DEFINES_SYMBOL]->(sym)
SET r.ingestedAt = $ingestedAt
`
			if _, err := tx.Run(ctx, symbolCypher, map[string]any{
				"fileId":         id,
				"symbolId":       sym.SymbolID,
				"name":           sym.Name,
				"kind":           string(sym.Kind),
				"startLine":      sym.StartLine,
				"endLine":        sym.EndLine,
				"signature":      sym.Signature,
				"lastIngestedAt": ingestedAt,
				"ingestedAt":     ingestedAt,
			}); err != nil {
				return nil, err
			}

			for _, ch := range f.Chunks {
				if ch.LineStart <= sym.EndLine && ch.LineEnd >= sym.StartLine {
					const containsCypher = `
MATCH (c:Chunk {chunkId: $chunkId}), (sym:Symbol {symbolId: $symbolId})
MERGE (c)-[r:CONTAINS_SYMBOL]->(sym)
SET r.ingestedAt = $ingestedAt
`
					if _, err := tx.Run(ctx, containsCypher, map[string]any{
						"chunkId":    ch.ChunkID,
						"symbolId":   sym.SymbolID,
						"ingestedAt": ingestedAt,
					}); err != nil {
						return nil, err
					}
				}
			}
		}
		return nil, nil
	})
	if err != nil {
		return pmerrors.ExternalStoreError("graphsink", "failed to merge file subgraph: "+f.RelPath, err)
	}
	return nil
}

func (s *Sink) persistCommit(ctx context.Context, session neo4j.SessionWithContext, projectID string, files []ingest.FileRecord, c ingest.CommitRecord) error {
	const commitCypher = `
MATCH (p:Project {projectId: $projectId})
MERGE (commit:Commit {hash: $hash})
SET commit.shortHash = $shortHash, commit.authorName = $authorName, commit.authorEmail = $authorEmail,
    commit.authorDate = $authorDate, commit.committerName = $committerName, commit.committerEmail = $committerEmail,
    commit.committerDate = $committerDate, commit.message = $message
MERGE (p)-[:HAS_COMMIT]->(commit)
`
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, commitCypher, map[string]any{
			"projectId":      projectID,
			"hash":           c.Hash,
			"shortHash":      c.ShortHash,
			"authorName":     c.AuthorName,
			"authorEmail":    c.AuthorEmail,
			"authorDate":     c.AuthorDate,
			"committerName":  c.CommitterName,
			"committerEmail": c.CommitterEmail,
			"committerDate":  c.CommitterDate,
			"message":        c.Message,
		}); err != nil {
			return nil, err
		}

		for _, parent := range c.ParentHashes {
			const parentCypher = `
MATCH (child:Commit {hash: $child})
MERGE (parent:Commit {hash: $parent})
MERGE (child)-[:PARENT]->(parent)
`
			if _, err := tx.Run(ctx, parentCypher, map[string]any{"child": c.Hash, "parent": parent}); err != nil {
				return nil, err
			}
		}

		for _, change := range c.Changes {
			const modifiesCypher = `
MATCH (commit:Commit {hash: $hash})
MERGE (f:File {fileId: $fileId})
ON CREATE SET f.path = $path
MERGE (commit)-[r:MODIFIES]->(f)
SET r.changeType = $changeType
`
			if _, err := tx.Run(ctx, modifiesCypher, map[string]any{
				"hash":       c.Hash,
				"fileId":     fileID(change.FilePath),
				"path":       change.FilePath,
				"changeType": string(change.ChangeType),
			}); err != nil {
				return nil, err
			}
		}

		for _, hunk := range c.Hunks {
			for _, chunkID := range overlappingChunkIDs(files, hunk) {
				const changesCypher = `
MATCH (commit:Commit {hash: $hash}), (c:Chunk {chunkId: $chunkId})
MERGE (commit)-[r:CHANGES {hunkId: $hunkId}]->(c)
SET r.oldStart = $oldStart, r.oldLines = $oldLines, r.newStart = $newStart, r.newLines = $newLines
`
				hunkID := gitlogHunkID(hunk)
				if _, err := tx.Run(ctx, changesCypher, map[string]any{
					"hash":     c.Hash,
					"chunkId":  chunkID,
					"hunkId":   hunkID,
					"oldStart": hunk.OldStart,
					"oldLines": hunk.OldLines,
					"newStart": hunk.NewStart,
					"newLines": hunk.NewLines,
				}); err != nil {
					return nil, err
				}
			}
		}
		return nil, nil
	})
	if err != nil {
		return pmerrors.ExternalStoreError("graphsink", "failed to merge commit subgraph: "+c.Hash, err)
	}
	return nil
}

// DeleteProject removes a project and everything reachable from it
// over HAS_FILE/HAS_CHUNK/DEFINES_SYMBOL/HAS_COMMIT with DETACH DELETE.
// A node reached this way is deleted even when another project also
// links to it; File nodes are keyed by SHA256(relPath) and Commit
// nodes by hash alone, so projects with a common relPath or commit
// share those nodes.
func (s *Sink) DeleteProject(ctx context.Context, projectID string) error {
	const cypher = `
MATCH (p:Project {projectId: $projectId})
OPTIONAL MATCH (p)-[:HAS_FILE]->(f:File)
OPTIONAL MATCH (f)-[:HAS_CHUNK]->(c:Chunk)
OPTIONAL MATCH (f)-[:DEFINES_SYMBOL]->(sym:Symbol)
OPTIONAL MATCH (p)-[:HAS_COMMIT]->(commit:Commit)
DETACH DELETE p, f, c, sym, commit
`
	session := s.session(ctx)
	defer session.Close(ctx)
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, cypher, map[string]any{"projectId": projectID})
		return nil, err
	})
	if err != nil {
		return pmerrors.ExternalStoreError("graphsink", "failed to delete project: "+projectID, err)
	}
	return nil
}
