package pingmem

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aman-cerp/pingmem/internal/graphsink"
	"github.com/aman-cerp/pingmem/internal/ingest"
	"github.com/aman-cerp/pingmem/internal/scanner"
	"github.com/aman-cerp/pingmem/internal/vectorsink"
)

// fakeVectorizer produces a short deterministic vector from text
// length, like vectorsink's own integration-test fixture but varying
// across dimensions.
type fakeVectorizer struct{}

func (fakeVectorizer) Vectorize(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, 8)
	for i := range vec {
		vec[i] = float32((len(text)+i)%7) / 7.0
	}
	return vec, nil
}

// These tests exercise real Neo4j and Qdrant instances and are
// skipped unless both PINGMEM_NEO4J_TEST_URI and
// PINGMEM_QDRANT_TEST_URL are set.
func newTestFacade(t *testing.T) *Facade {
	t.Helper()
	neo4jURI := os.Getenv("PINGMEM_NEO4J_TEST_URI")
	qdrantURL := os.Getenv("PINGMEM_QDRANT_TEST_URL")
	if neo4jURI == "" || qdrantURL == "" {
		t.Skip("PINGMEM_NEO4J_TEST_URI / PINGMEM_QDRANT_TEST_URL not set, skipping facade integration test")
	}

	graph, err := graphsink.NewSink(graphsink.Config{
		URI:      neo4jURI,
		Username: os.Getenv("PINGMEM_NEO4J_TEST_USER"),
		Password: os.Getenv("PINGMEM_NEO4J_TEST_PASSWORD"),
		Database: "neo4j",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = graph.Close(context.Background()) })

	vector, err := vectorsink.NewSink(vectorsink.Config{
		URL:              qdrantURL,
		CollectionName:   "pingmem_facade_test",
		VectorDimensions: 8,
	}, fakeVectorizer{})
	require.NoError(t, err)
	require.NoError(t, vector.EnsureCollection(context.Background(), 8))
	t.Cleanup(func() { _ = vector.Close() })

	orch, err := ingest.NewOrchestrator(scanner.ScanOptions{IgnoreDirs: []string{".ping-mem"}})
	require.NoError(t, err)
	t.Cleanup(orch.Close)

	return NewFacade(orch, graph, vector)
}

func writeFixtureFile(t *testing.T, root, relPath, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(relPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestFacade_IngestThenVerifyThenDelete(t *testing.T) {
	f := newTestFacade(t)
	ctx := context.Background()

	root := t.TempDir()
	writeFixtureFile(t, root, "main.go", "package main\n\nfunc main() {}\n")

	result, err := f.IngestProject(ctx, root, false)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.NotEmpty(t, result.ProjectID)
	require.Equal(t, 1, result.FilesIndexed)

	verify, err := f.VerifyProject(ctx, root)
	require.NoError(t, err)
	require.True(t, verify.Valid)

	// S6: an unchanged tree returns nil without forceReingest, and a
	// record with the same projectId/treeHash when forced.
	again, err := f.IngestProject(ctx, root, false)
	require.NoError(t, err)
	require.Nil(t, again)

	forced, err := f.IngestProject(ctx, root, true)
	require.NoError(t, err)
	require.NotNil(t, forced)
	require.Equal(t, result.ProjectID, forced.ProjectID)
	require.Equal(t, result.TreeHash, forced.TreeHash)

	require.NoError(t, f.DeleteProject(ctx, result.ProjectID))
}

func TestFacade_SearchCodeFiltersClientSide(t *testing.T) {
	f := newTestFacade(t)
	ctx := context.Background()

	root := t.TempDir()
	writeFixtureFile(t, root, "greet.go", "package main\n\nfunc Greet() string { return \"hi\" }\n")

	result, err := f.IngestProject(ctx, root, false)
	require.NoError(t, err)
	require.NotNil(t, result)
	t.Cleanup(func() { _ = f.DeleteProject(ctx, result.ProjectID) })

	hits, err := f.SearchCode(ctx, "Greet", SearchFilters{ProjectID: result.ProjectID, Limit: 5})
	require.NoError(t, err)
	for _, h := range hits {
		require.Equal(t, result.ProjectID, h.ProjectID)
	}

	noHits, err := f.SearchCode(ctx, "Greet", SearchFilters{ProjectID: "nonexistent-project", Limit: 5})
	require.NoError(t, err)
	require.Empty(t, noHits)
}

func TestFacade_ListProjectsAfterIngest(t *testing.T) {
	f := newTestFacade(t)
	ctx := context.Background()

	root := t.TempDir()
	writeFixtureFile(t, root, "a.go", "package a\n")

	result, err := f.IngestProject(ctx, root, false)
	require.NoError(t, err)
	require.NotNil(t, result)
	t.Cleanup(func() { _ = f.DeleteProject(ctx, result.ProjectID) })

	summaries, err := f.ListProjects(ctx, graphsink.ListOptions{ProjectID: result.ProjectID})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	require.Equal(t, result.ProjectID, summaries[0].ProjectID)
}
