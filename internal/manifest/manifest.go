// Package manifest defines the ProjectManifest record and the store
// that persists the single most-recent manifest for a project
// directory, atomically and with a stable on-disk shape.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	pmerrors "github.com/aman-cerp/pingmem/internal/errors"
)

// SchemaVersion is the current on-disk manifest schema version.
const SchemaVersion = 1

// ManifestDirName is the per-project directory pingmem keeps its own
// state in, sibling to the tracked source tree.
const ManifestDirName = ".ping-mem"

// ManifestFileName is the file name of the manifest within
// ManifestDirName.
const ManifestFileName = "manifest.json"

// FileHashEntry is one file's content-addressed identity within a
// ProjectManifest.
type FileHashEntry struct {
	RelPath string `json:"path"`
	SHA256  string `json:"sha256"`
	Bytes   int64  `json:"bytes"`
}

// ProjectManifest is the deterministic snapshot produced by a scan.
// Field order is fixed and mirrored by MarshalJSON, so two manifests
// with equal fields serialize to identical bytes. GeneratedAt is the
// wall-clock time of the scan, so manifests from two separate scans of
// an unchanged tree differ in that field.
type ProjectManifest struct {
	ProjectID     string          `json:"projectId"`
	RootPath      string          `json:"rootPath"`
	TreeHash      string          `json:"treeHash"`
	Files         []FileHashEntry `json:"files"`
	GeneratedAt   time.Time       `json:"generatedAt"`
	SchemaVersion int             `json:"schemaVersion"`
}

// manifestJSON pins key order in the serialized object to
// {projectId, rootPath, treeHash, files, generatedAt, schemaVersion}
// per the external-interface contract, independent of Go struct
// field reordering.
type manifestJSON struct {
	ProjectID     string          `json:"projectId"`
	RootPath      string          `json:"rootPath"`
	TreeHash      string          `json:"treeHash"`
	Files         []FileHashEntry `json:"files"`
	GeneratedAt   string          `json:"generatedAt"`
	SchemaVersion int             `json:"schemaVersion"`
}

// MarshalJSON renders the manifest with its canonical key order and
// an ISO-8601 timestamp.
func (m ProjectManifest) MarshalJSON() ([]byte, error) {
	return json.MarshalIndent(manifestJSON{
		ProjectID:     m.ProjectID,
		RootPath:      m.RootPath,
		TreeHash:      m.TreeHash,
		Files:         m.Files,
		GeneratedAt:   m.GeneratedAt.UTC().Format(time.RFC3339Nano),
		SchemaVersion: m.SchemaVersion,
	}, "", "  ")
}

// UnmarshalJSON parses a manifest previously written by MarshalJSON.
func (m *ProjectManifest) UnmarshalJSON(data []byte) error {
	var raw manifestJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ts, err := time.Parse(time.RFC3339Nano, raw.GeneratedAt)
	if err != nil {
		ts, err = time.Parse(time.RFC3339, raw.GeneratedAt)
		if err != nil {
			return fmt.Errorf("invalid generatedAt timestamp: %w", err)
		}
	}
	m.ProjectID = raw.ProjectID
	m.RootPath = raw.RootPath
	m.TreeHash = raw.TreeHash
	m.Files = raw.Files
	m.GeneratedAt = ts
	m.SchemaVersion = raw.SchemaVersion
	return nil
}

// Store persists and loads the single manifest belonging to a
// project directory, guarding concurrent access with an advisory
// file lock.
type Store struct{}

// NewStore creates a manifest Store. There is no per-instance state;
// the type exists so the store has a conventional, mockable surface
// alongside the other C2-C11 components.
func NewStore() *Store {
	return &Store{}
}

func manifestDir(rootPath string) string {
	return filepath.Join(rootPath, ManifestDirName)
}

func manifestPath(rootPath string) string {
	return filepath.Join(manifestDir(rootPath), ManifestFileName)
}

func lockPath(rootPath string) string {
	return filepath.Join(manifestDir(rootPath), ".manifest.lock")
}

// Load reads the manifest for rootPath. It returns (nil, nil) if no
// manifest exists, or if the on-disk schema version does not match
// SchemaVersion (treated as absent rather than an error, matching
// the "load returns None if missing or schema-version mismatch"
// contract).
func (s *Store) Load(rootPath string) (*ProjectManifest, error) {
	path := manifestPath(rootPath)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, pmerrors.IoError("manifest", "failed to read manifest", err)
	}

	var m ProjectManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, pmerrors.ParseError("manifest", "failed to parse manifest JSON", err)
	}
	if m.SchemaVersion != SchemaVersion {
		return nil, nil
	}
	return &m, nil
}

// Save writes the manifest for rootPath atomically: a temp file in
// the same directory is written and fsynced, then renamed over the
// existing manifest. An advisory lock is held for the duration; a Save
// that finds the lock for the same rootPath already held fails with
// Conflict rather than waiting for it.
func (s *Store) Save(rootPath string, m *ProjectManifest) error {
	dir := manifestDir(rootPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return pmerrors.IoError("manifest", "failed to create manifest directory", err)
	}

	lock := flock.New(lockPath(rootPath))
	locked, err := lock.TryLock()
	if err != nil {
		return pmerrors.IoError("manifest", "failed to acquire manifest lock", err)
	}
	if !locked {
		return pmerrors.Conflict("manifest", "manifest is locked by another ingest", nil)
	}
	defer func() { _ = lock.Unlock() }()

	data, err := m.MarshalJSON()
	if err != nil {
		return pmerrors.ParseError("manifest", "failed to marshal manifest", err)
	}

	tmp, err := os.CreateTemp(dir, "manifest-*.tmp")
	if err != nil {
		return pmerrors.IoError("manifest", "failed to create temp manifest file", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return pmerrors.IoError("manifest", "failed to write temp manifest file", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return pmerrors.IoError("manifest", "failed to sync temp manifest file", err)
	}
	if err := tmp.Close(); err != nil {
		return pmerrors.IoError("manifest", "failed to close temp manifest file", err)
	}

	if err := os.Rename(tmpPath, manifestPath(rootPath)); err != nil {
		return pmerrors.IoError("manifest", "failed to rename manifest into place", err)
	}
	return nil
}
