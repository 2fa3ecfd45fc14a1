package ingest

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aman-cerp/pingmem/internal/chunk"
	pmerrors "github.com/aman-cerp/pingmem/internal/errors"
	"github.com/aman-cerp/pingmem/internal/gitlog"
	"github.com/aman-cerp/pingmem/internal/manifest"
	"github.com/aman-cerp/pingmem/internal/scanner"
)

// Orchestrator runs the full ingest pipeline for a project directory:
// scan, diff against the stored manifest, chunk and extract symbols
// for every file, read git history, and persist the new manifest.
type Orchestrator struct {
	scanner   *scanner.Scanner
	manifests *manifest.Store
	chunker   *chunk.Chunker
	scanOpts  scanner.ScanOptions
}

// NewOrchestrator creates an Orchestrator. scanOpts.RootDir is
// overridden per-call with the ingest's projectDir; the remaining
// fields (ignore dirs, extension allowlist, gitignore handling, max
// file size) are shared across calls.
func NewOrchestrator(scanOpts scanner.ScanOptions) (*Orchestrator, error) {
	sc, err := scanner.New()
	if err != nil {
		return nil, err
	}
	return &Orchestrator{
		scanner:   sc,
		manifests: manifest.NewStore(),
		chunker:   chunk.NewChunker(),
		scanOpts:  scanOpts,
	}, nil
}

// Close is a no-op kept for symmetry with the rest of the pipeline's
// lifecycle methods (pkg/pingmem.Facade.Close calls it unconditionally
// alongside the graph/vector sinks' own Close). extractFiles' per-file
// tree-sitter parsers are created and released within a single Ingest
// call, so there is nothing left for the orchestrator itself to hold
// open between calls.
func (o *Orchestrator) Close() {}

// Ingest scans projectDir and returns the resulting IngestionRecord.
// It returns (nil, nil), not an error, when the tree is unchanged from
// the stored manifest and opts.ForceReingest is false.
func (o *Orchestrator) Ingest(ctx context.Context, projectDir string, opts Options) (*IngestionRecord, error) {
	absRoot, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, pmerrors.IoError("ingest", "failed to resolve project directory", err)
	}

	previous, err := o.manifests.Load(absRoot)
	if err != nil {
		return nil, err
	}

	scanOpts := o.scanOpts
	scanOpts.RootDir = absRoot
	m, hasChanges, err := o.scanner.Scan(ctx, scanOpts, previous)
	if err != nil {
		return nil, err
	}

	if !hasChanges && !opts.ForceReingest {
		return nil, nil
	}

	files, err := o.extractFiles(ctx, absRoot, m.Files)
	if err != nil {
		return nil, err
	}

	commits, err := o.readCommitHistory(ctx, absRoot)
	if err != nil {
		return nil, err
	}

	if err := o.manifests.Save(absRoot, m); err != nil {
		return nil, err
	}

	return &IngestionRecord{
		Manifest:   m,
		Files:      files,
		Commits:    commits,
		IngestedAt: time.Now().UTC(),
	}, nil
}

// extractFiles chunks and symbol-extracts every scanned file in
// parallel (at most GOMAXPROCS files at a time), with a fresh
// tree-sitter parser for each file since sitter.Parser is not safe for
// concurrent use across goroutines. Results are written
// to their own slot by index, then re-sorted by RelPath once every
// worker has finished, so the output is identical regardless of which
// file happened to finish first (P1, P4).
func (o *Orchestrator) extractFiles(ctx context.Context, absRoot string, entries []manifest.FileHashEntry) ([]FileRecord, error) {
	files := make([]FileRecord, len(entries))

	group, gctx := errgroup.WithContext(ctx)
	workers := runtime.GOMAXPROCS(0)
	if workers > len(entries) {
		workers = len(entries)
	}
	if workers > 0 {
		group.SetLimit(workers)
	}

	for i, entry := range entries {
		i, entry := i, entry
		group.Go(func() error {
			absPath := filepath.Join(absRoot, filepath.FromSlash(entry.RelPath))
			data, err := os.ReadFile(absPath)
			if err != nil {
				return pmerrors.IoError("ingest", "failed to read file: "+entry.RelPath, err)
			}

			chunks := o.chunker.Chunk(entry.RelPath, entry.SHA256, data)

			symbols := chunk.NewSymbolExtractor()
			defer symbols.Close()

			language := scanner.DetectLanguage(entry.RelPath)
			syms, err := symbols.Extract(gctx, entry.RelPath, language, data)
			if err != nil {
				return pmerrors.Wrap("ingest", pmerrors.CategoryParseError, err)
			}

			files[i] = FileRecord{
				RelPath: entry.RelPath,
				SHA256:  entry.SHA256,
				Bytes:   entry.Bytes,
				Chunks:  chunks,
				Symbols: syms,
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

// readCommitHistory reads the full commit DAG and, for every commit,
// the file changes and diff hunks it introduced. Each commit costs two
// extra `git show` invocations (bounded by SafeGit's LogMaxBuffer and
// DiffMaxBuffer), which is the price of a self-contained
// IngestionRecord that a graph sink can persist without touching git
// again.
func (o *Orchestrator) readCommitHistory(ctx context.Context, absRoot string) ([]CommitRecord, error) {
	reader := gitlog.NewReader(absRoot)
	history, err := reader.ReadHistory(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]CommitRecord, 0, len(history.Commits))
	for _, c := range history.Commits {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		changes, err := reader.FileChanges(ctx, c.Hash)
		if err != nil {
			return nil, err
		}
		hunks, err := reader.DiffHunks(ctx, c.Hash)
		if err != nil {
			return nil, err
		}
		records = append(records, CommitRecord{Commit: c, Changes: changes, Hunks: hunks})
	}
	return records, nil
}

// Verify rescans projectDir and reports whether its tree hash still
// matches the stored manifest. A project with no stored manifest is
// never verified.
func (o *Orchestrator) Verify(ctx context.Context, projectDir string) (bool, error) {
	result, err := o.VerifyDetailed(ctx, projectDir)
	if err != nil {
		return false, err
	}
	return result.Valid, nil
}

// VerificationResult is the full outcome of VerifyDetailed, carrying
// enough detail for the facade's verifyProject to report both tree
// hashes without a second scan.
type VerificationResult struct {
	ProjectID        string
	Valid            bool
	ManifestTreeHash string
	CurrentTreeHash  string
}

// VerifyDetailed rescans projectDir and compares its tree hash against
// the stored manifest, returning both hashes. A project with no stored
// manifest reports Valid=false with empty hashes.
func (o *Orchestrator) VerifyDetailed(ctx context.Context, projectDir string) (*VerificationResult, error) {
	absRoot, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, pmerrors.IoError("ingest", "failed to resolve project directory", err)
	}

	previous, err := o.manifests.Load(absRoot)
	if err != nil {
		return nil, err
	}
	if previous == nil {
		return &VerificationResult{}, nil
	}

	scanOpts := o.scanOpts
	scanOpts.RootDir = absRoot
	m, _, err := o.scanner.Scan(ctx, scanOpts, previous)
	if err != nil {
		return nil, err
	}

	return &VerificationResult{
		ProjectID:        previous.ProjectID,
		Valid:            m.TreeHash == previous.TreeHash,
		ManifestTreeHash: previous.TreeHash,
		CurrentTreeHash:  m.TreeHash,
	}, nil
}
