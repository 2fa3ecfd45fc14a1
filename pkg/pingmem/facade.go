package pingmem

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	pmerrors "github.com/aman-cerp/pingmem/internal/errors"
	"github.com/aman-cerp/pingmem/internal/graphsink"
	"github.com/aman-cerp/pingmem/internal/ingest"
	"github.com/aman-cerp/pingmem/internal/vectorsink"
)

// Facade is the IngestionFacade (C14): it orchestrates C7 (ingest)
// into C8 (graph) and C9 (vector), and answers the read-side
// listing/search/timeline queries over whichever of those two sinks
// answers them. The graph and vector calls of IngestProject,
// SearchCode and QueryTimeline are wrapped in their own circuit
// breaker, so a degraded external store fails fast instead of hanging
// every subsequent call; DeleteProject, ListProjects and Close call the
// sinks directly.
type Facade struct {
	orchestrator *ingest.Orchestrator
	graph        *graphsink.Sink
	vector       *vectorsink.Sink

	graphBreaker  *pmerrors.CircuitBreaker
	vectorBreaker *pmerrors.CircuitBreaker
}

// NewFacade composes an already-constructed orchestrator and sinks
// into a Facade. Breakers are created with the package defaults (5
// failures, 30s reset); callers that need different tuning should
// construct their own breakers and use the lower-level components
// directly.
func NewFacade(orchestrator *ingest.Orchestrator, graph *graphsink.Sink, vector *vectorsink.Sink) *Facade {
	return &Facade{
		orchestrator:  orchestrator,
		graph:         graph,
		vector:        vector,
		graphBreaker:  pmerrors.NewCircuitBreaker("graphsink"),
		vectorBreaker: pmerrors.NewCircuitBreaker("vectorsink"),
	}
}

// IngestProject runs the C7 pipeline over projectDir and persists the
// result into C8 and C9. It returns (nil, nil) when the tree is
// unchanged and forceReingest is false (Seed Scenario S6).
func (f *Facade) IngestProject(ctx context.Context, projectDir string, forceReingest bool) (*IngestResult, error) {
	rec, err := f.orchestrator.Ingest(ctx, projectDir, ingest.Options{ForceReingest: forceReingest})
	if err != nil {
		slog.Error("ingest_failed", slog.String("project_dir", projectDir), slog.String("error", err.Error()))
		return nil, fmt.Errorf("ingestProject: %w", err)
	}
	if rec == nil {
		slog.Debug("ingest_skipped_unchanged", slog.String("project_dir", projectDir))
		return nil, nil
	}

	_, err = pmerrors.CircuitExecuteWithResult(f.graphBreaker,
		func() (struct{}, error) { return struct{}{}, f.graph.Persist(ctx, rec) },
		func() (struct{}, error) {
			return struct{}{}, pmerrors.ExternalStoreError("pingmem", "ingestProject: graph sink circuit open", pmerrors.ErrCircuitOpen)
		})
	if err != nil {
		return nil, fmt.Errorf("ingestProject: %w", err)
	}

	if f.vector != nil {
		if err := f.upsertVectors(ctx, rec); err != nil {
			return nil, fmt.Errorf("ingestProject: %w", err)
		}
	}

	chunks, commits := 0, len(rec.Commits)
	for _, file := range rec.Files {
		chunks += len(file.Chunks)
	}

	slog.Info("ingest_completed",
		slog.String("project_id", rec.Manifest.ProjectID),
		slog.Int("files", len(rec.Files)),
		slog.Int("chunks", chunks),
		slog.Int("commits", commits))

	return &IngestResult{
		ProjectID:      rec.Manifest.ProjectID,
		TreeHash:       rec.Manifest.TreeHash,
		FilesIndexed:   len(rec.Files),
		ChunksIndexed:  chunks,
		CommitsIndexed: commits,
		IngestedAt:     rec.IngestedAt,
		HadChanges:     true,
	}, nil
}

func (f *Facade) upsertVectors(ctx context.Context, rec *ingest.IngestionRecord) error {
	records := make([]vectorsink.Record, 0)
	for _, file := range rec.Files {
		for _, ch := range file.Chunks {
			records = append(records, vectorsink.Record{
				ProjectID:  rec.Manifest.ProjectID,
				FilePath:   file.RelPath,
				ChunkID:    ch.ChunkID,
				SHA256:     file.SHA256,
				Type:       string(ch.Type),
				Content:    ch.Content,
				IngestedAt: rec.IngestedAt,
				DataType:   "code",
			})
		}
	}

	_, err := pmerrors.CircuitExecuteWithResult(f.vectorBreaker,
		func() (struct{}, error) { return struct{}{}, f.vector.Upsert(ctx, records) },
		func() (struct{}, error) {
			return struct{}{}, pmerrors.ExternalStoreError("pingmem", "ingestProject: vector sink circuit open", pmerrors.ErrCircuitOpen)
		})
	return err
}

// VerifyProject rescans projectDir and reports whether its current
// tree hash still matches the manifest recorded by the last ingest.
func (f *Facade) VerifyProject(ctx context.Context, projectDir string) (*VerifyResult, error) {
	result, err := f.orchestrator.VerifyDetailed(ctx, projectDir)
	if err != nil {
		return nil, fmt.Errorf("verifyProject: %w", err)
	}

	message := "tree hash matches the stored manifest"
	switch {
	case result.ManifestTreeHash == "":
		message = "no manifest on record for this project"
	case !result.Valid:
		message = "tree hash differs from the stored manifest; reingest is required"
	}

	return &VerifyResult{
		ProjectID:        result.ProjectID,
		Valid:            result.Valid,
		ManifestTreeHash: result.ManifestTreeHash,
		CurrentTreeHash:  result.CurrentTreeHash,
		Message:          message,
	}, nil
}

// SearchCode vectorizes query against C9 and filters the candidates
// client-side on filters.ProjectID / FilePath / Type, per spec: C9 is
// an out-of-scope embedding engine, so filtering happens after the
// nearest-neighbor lookup rather than as part of it.
func (f *Facade) SearchCode(ctx context.Context, query string, filters SearchFilters) ([]SearchHit, error) {
	if f.vector == nil {
		return nil, pmerrors.InvalidArgument("pingmem", "searchCode: no vector sink configured", nil)
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 20
	}
	// Over-fetch so client-side filtering still has enough candidates
	// to return up to limit matches.
	fetch := uint64(limit * 4)
	if fetch < uint64(limit) {
		fetch = uint64(limit)
	}

	results, err := pmerrors.CircuitExecuteWithResult(f.vectorBreaker,
		func() ([]vectorsink.SearchResult, error) { return f.vector.Search(ctx, query, fetch) },
		func() ([]vectorsink.SearchResult, error) {
			return nil, pmerrors.ExternalStoreError("pingmem", "searchCode: vector sink circuit open", pmerrors.ErrCircuitOpen)
		})
	if err != nil {
		return nil, fmt.Errorf("searchCode: %w", err)
	}

	hits := make([]SearchHit, 0, len(results))
	for _, r := range results {
		if filters.ProjectID != "" && r.Payload.ProjectID != filters.ProjectID {
			continue
		}
		if filters.FilePath != "" && r.Payload.FilePath != filters.FilePath {
			continue
		}
		if filters.Type != "" && r.Payload.Type != filters.Type {
			continue
		}
		hits = append(hits, SearchHit{
			Score:     r.Score,
			ProjectID: r.Payload.ProjectID,
			FilePath:  r.Payload.FilePath,
			ChunkID:   r.Payload.ChunkID,
			Type:      r.Payload.Type,
			Content:   r.Payload.Content,
		})
		if len(hits) >= limit {
			break
		}
	}
	return hits, nil
}

// QueryTimeline joins C8's file and commit history for a project,
// annotating every entry with its deterministically extracted reason.
// With FilePath set it returns only commits that touched that file,
// most recent first; otherwise it returns the project's most recent
// commits. Either way at most opts.Limit entries are returned (50 when
// Limit is not positive).
func (f *Facade) QueryTimeline(ctx context.Context, opts TimelineOptions) ([]TimelineEntry, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	if opts.FilePath != "" {
		rows, err := pmerrors.CircuitExecuteWithResult(f.graphBreaker,
			func() ([]graphsink.FileHistoryRow, error) {
				return f.graph.QueryFileHistory(ctx, opts.ProjectID, opts.FilePath)
			},
			func() ([]graphsink.FileHistoryRow, error) {
				return nil, pmerrors.ExternalStoreError("pingmem", "queryTimeline: graph sink circuit open", pmerrors.ErrCircuitOpen)
			})
		if err != nil {
			return nil, fmt.Errorf("queryTimeline: %w", err)
		}
		sort.Slice(rows, func(i, j int) bool { return rows[i].AuthorDate.After(rows[j].AuthorDate) })
		if len(rows) > limit {
			rows = rows[:limit]
		}
		entries := make([]TimelineEntry, 0, len(rows))
		for _, row := range rows {
			entries = append(entries, TimelineEntry{
				CommitHash: row.CommitHash,
				ChangeType: row.ChangeType,
				AuthorDate: row.AuthorDate,
				Message:    row.Message,
				Why:        extractWhy(row.Message),
			})
		}
		return entries, nil
	}

	rows, err := pmerrors.CircuitExecuteWithResult(f.graphBreaker,
		func() ([]graphsink.CommitRow, error) {
			return f.graph.QueryCommitHistory(ctx, opts.ProjectID, limit)
		},
		func() ([]graphsink.CommitRow, error) {
			return nil, pmerrors.ExternalStoreError("pingmem", "queryTimeline: graph sink circuit open", pmerrors.ErrCircuitOpen)
		})
	if err != nil {
		return nil, fmt.Errorf("queryTimeline: %w", err)
	}

	entries := make([]TimelineEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, TimelineEntry{
			CommitHash: row.Hash,
			AuthorDate: row.AuthorDate,
			Message:    row.Message,
			Why:        extractWhy(row.Message),
		})
	}
	return entries, nil
}

// DeleteProject cascades deletion of a project's subgraph (C8) and
// vector points (C9). Both deletes run even if the first fails, so a
// partial deletion in one store does not leave the other retaining
// data for a project the caller believes is gone; both errors are
// joined into the result if both occur.
func (f *Facade) DeleteProject(ctx context.Context, projectID string) error {
	var errs []string

	if err := f.graph.DeleteProject(ctx, projectID); err != nil {
		errs = append(errs, "graph: "+err.Error())
	}
	if f.vector != nil {
		if err := f.vector.DeleteProject(ctx, projectID); err != nil {
			errs = append(errs, "vector: "+err.Error())
		}
	}

	if len(errs) > 0 {
		slog.Warn("delete_project_partial_failure", slog.String("project_id", projectID), slog.String("errors", strings.Join(errs, "; ")))
		return pmerrors.ExternalStoreError("pingmem", "deleteProject: "+strings.Join(errs, "; "), nil)
	}
	return nil
}

// ListProjects delegates to C8's listProjects.
func (f *Facade) ListProjects(ctx context.Context, opts graphsink.ListOptions) ([]graphsink.ProjectSummary, error) {
	summaries, err := f.graph.ListProjects(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("listProjects: %w", err)
	}
	return summaries, nil
}

// Close calls the orchestrator's Close (which holds nothing open) and
// releases the graph and vector sinks' connections.
func (f *Facade) Close(ctx context.Context) error {
	f.orchestrator.Close()
	var errs []string
	if err := f.graph.Close(ctx); err != nil {
		errs = append(errs, "graph: "+err.Error())
	}
	if f.vector != nil {
		if err := f.vector.Close(); err != nil {
			errs = append(errs, "vector: "+err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close: %s", strings.Join(errs, "; "))
	}
	return nil
}
