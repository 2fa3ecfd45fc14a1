package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-cerp/pingmem/internal/manifest"
	"github.com/aman-cerp/pingmem/internal/scanner"
)

func writeProjectFile(t *testing.T, root, relPath, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(relPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func newOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	o, err := NewOrchestrator(scanner.ScanOptions{IgnoreDirs: []string{".ping-mem"}})
	require.NoError(t, err)
	t.Cleanup(o.Close)
	return o
}

func TestIngestProducesRecordOnFirstRun(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "main.go", "package main\n\nfunc main() {}\n")
	writeProjectFile(t, root, "util.ts", "function greet(name: string): string {\n  return name;\n}\n")

	o := newOrchestrator(t)
	rec, err := o.Ingest(context.Background(), root, Options{})
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Len(t, rec.Files, 2)
	assert.NotEmpty(t, rec.Manifest.TreeHash)
	assert.NotEmpty(t, rec.Manifest.ProjectID)

	var sawSymbol bool
	for _, f := range rec.Files {
		if f.RelPath == "util.ts" {
			for _, s := range f.Symbols {
				if s.Name == "greet" {
					sawSymbol = true
				}
			}
		}
	}
	assert.True(t, sawSymbol)

	// manifest persisted atomically to .ping-mem/manifest.json
	st := manifest.NewStore()
	stored, err := st.Load(root)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, rec.Manifest.TreeHash, stored.TreeHash)
}

func TestIngestReturnsNilWhenUnchanged(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "a.go", "package a\n")

	o := newOrchestrator(t)
	first, err := o.Ingest(context.Background(), root, Options{})
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := o.Ingest(context.Background(), root, Options{})
	require.NoError(t, err)
	assert.Nil(t, second, "unchanged tree with no ForceReingest yields no record")
}

func TestIngestForceReingestReprocessesUnchangedTree(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "a.go", "package a\n")

	o := newOrchestrator(t)
	first, err := o.Ingest(context.Background(), root, Options{})
	require.NoError(t, err)
	require.NotNil(t, first)

	forced, err := o.Ingest(context.Background(), root, Options{ForceReingest: true})
	require.NoError(t, err)
	require.NotNil(t, forced)
	assert.Equal(t, first.Manifest.TreeHash, forced.Manifest.TreeHash)
}

func TestIngestDetectsFileChange(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "a.go", "package a\n")

	o := newOrchestrator(t)
	first, err := o.Ingest(context.Background(), root, Options{})
	require.NoError(t, err)
	require.NotNil(t, first)

	writeProjectFile(t, root, "a.go", "package a\n\nvar x = 1\n")
	second, err := o.Ingest(context.Background(), root, Options{})
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.NotEqual(t, first.Manifest.TreeHash, second.Manifest.TreeHash)
}

func TestIngestDeterministicAcrossRunsModuloTimestamp(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "a.py", "def top():\n    return 1\n")

	o1 := newOrchestrator(t)
	rec1, err := o1.Ingest(context.Background(), root, Options{})
	require.NoError(t, err)
	require.NotNil(t, rec1)

	o2 := newOrchestrator(t)
	rec2, err := o2.Ingest(context.Background(), root, Options{ForceReingest: true})
	require.NoError(t, err)
	require.NotNil(t, rec2)

	assert.Equal(t, rec1.Manifest.TreeHash, rec2.Manifest.TreeHash)
	assert.Equal(t, rec1.Files, rec2.Files)
}

func TestVerifyDetectsDriftAfterExternalEdit(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "a.go", "package a\n")

	o := newOrchestrator(t)
	_, err := o.Ingest(context.Background(), root, Options{})
	require.NoError(t, err)

	ok, err := o.Verify(context.Background(), root)
	require.NoError(t, err)
	assert.True(t, ok)

	writeProjectFile(t, root, "a.go", "package a\n\nvar y = 2\n")
	ok, err = o.Verify(context.Background(), root)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyWithoutPriorIngestIsFalse(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "a.go", "package a\n")

	o := newOrchestrator(t)
	ok, err := o.Verify(context.Background(), root)
	require.NoError(t, err)
	assert.False(t, ok)
}
