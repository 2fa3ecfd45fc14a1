package scanner

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aman-cerp/pingmem/internal/gitignore"
	"github.com/aman-cerp/pingmem/internal/gitlog"
	"github.com/aman-cerp/pingmem/internal/hashing"
	"github.com/aman-cerp/pingmem/internal/manifest"

	pmerrors "github.com/aman-cerp/pingmem/internal/errors"
)

// gitignoreCacheSize bounds the number of parsed .gitignore matchers
// a single scan keeps around, so a deeply nested tree with many
// nested .gitignore files cannot grow this cache unboundedly.
const gitignoreCacheSize = 1000

// Scanner discovers indexable files in a project directory and
// produces a ProjectManifest per Invariants M1/M2.
type Scanner struct {
	gitignoreCache *lru.Cache[string, *gitignore.Matcher]
	cacheMu        sync.RWMutex
}

// New creates a new Scanner.
func New() (*Scanner, error) {
	cache, err := lru.New[string, *gitignore.Matcher](gitignoreCacheSize)
	if err != nil {
		return nil, pmerrors.IoError("scanner", "failed to create gitignore cache", err)
	}
	return &Scanner{gitignoreCache: cache}, nil
}

// Scan walks rootPath, hashes every indexable file, and returns the
// resulting ProjectManifest along with whether it differs from
// previous (nil previous always yields hasChanges = true).
func (s *Scanner) Scan(ctx context.Context, opts ScanOptions, previous *manifest.ProjectManifest) (*manifest.ProjectManifest, bool, error) {
	rootDir := opts.RootDir
	if rootDir == "" {
		rootDir = "."
	}
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, false, pmerrors.IoError("scanner", "failed to resolve root path", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, false, pmerrors.IoError("scanner", "failed to stat root directory", err)
	}
	if !info.IsDir() {
		return nil, false, pmerrors.InvalidArgument("scanner", "root path is not a directory: "+absRoot, nil)
	}

	maxFileSize := opts.MaxFileSize
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}

	var entries []manifest.FileHashEntry

	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err != nil {
			return nil
		}

		relPath, relErr := filepath.Rel(absRoot, path)
		if relErr != nil || relPath == "." {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if s.shouldSkipDir(d.Name(), relPath, absRoot, opts) {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		if s.shouldSkipFile(d.Name(), relPath, absRoot, opts) {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return nil
		}
		if fi.Size() > maxFileSize {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return pmerrors.IoError("scanner", "failed to read file: "+relPath, err)
		}

		entries = append(entries, manifest.FileHashEntry{
			RelPath: relPath,
			SHA256:  hashing.SHA256Hex(data),
			Bytes:   int64(len(data)),
		})
		return nil
	})
	if walkErr != nil {
		return nil, false, pmerrors.Wrap("scanner", pmerrors.CategoryIoError, walkErr)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].RelPath < entries[j].RelPath })

	treeHash := ComputeTreeHash(entries)
	projectID, err := ComputeProjectID(ctx, absRoot)
	if err != nil {
		return nil, false, err
	}

	m := &manifest.ProjectManifest{
		ProjectID:     projectID,
		RootPath:      absRoot,
		TreeHash:      treeHash,
		Files:         entries,
		GeneratedAt:   time.Now().UTC(),
		SchemaVersion: manifest.SchemaVersion,
	}

	hasChanges := previous == nil || previous.TreeHash != treeHash
	return m, hasChanges, nil
}

// ComputeTreeHash implements Invariant M1: SHA256 over sorted
// (relPath "\n" sha256 "\n") pairs.
func ComputeTreeHash(entries []manifest.FileHashEntry) string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.RelPath)
		b.WriteByte('\n')
		b.WriteString(e.SHA256)
		b.WriteByte('\n')
	}
	return hashing.SHA256String(b.String())
}

// ComputeProjectID implements Invariant M2: stable across renames of
// rootPath when the project has a git remote.
func ComputeProjectID(ctx context.Context, rootPath string) (string, error) {
	git := gitlog.NewSafeGit(rootPath)
	gitRoot, err := git.GetRoot(ctx)
	if err != nil {
		return "", err
	}
	if gitRoot != "" {
		remoteURL, err := git.GetRemoteURL(ctx)
		if err != nil {
			return "", err
		}
		if remoteURL != "" {
			return hashing.SHA256String(hashing.JoinKey(filepath.ToSlash(gitRoot), "::"+remoteURL)), nil
		}
	}
	return hashing.SHA256String(filepath.ToSlash(rootPath)), nil
}

var defaultSkipDirs = map[string]bool{
	".git": true,
}

func (s *Scanner) shouldSkipDir(name, relPath, absRoot string, opts ScanOptions) bool {
	if defaultSkipDirs[name] {
		return true
	}
	for _, ignored := range opts.IgnoreDirs {
		if name == ignored || relPath == ignored {
			return true
		}
	}
	if opts.RespectGitignore && s.isGitignored(relPath, absRoot, true) {
		return true
	}
	return false
}

func (s *Scanner) shouldSkipFile(name, relPath, absRoot string, opts ScanOptions) bool {
	if len(opts.ExtensionAllowlist) > 0 {
		ext := extension(relPath)
		allowed := false
		for _, a := range opts.ExtensionAllowlist {
			if a == ext {
				allowed = true
				break
			}
		}
		if !allowed {
			return true
		}
	}
	if opts.RespectGitignore && s.isGitignored(relPath, absRoot, false) {
		return true
	}
	return false
}

func (s *Scanner) isGitignored(relPath, absRoot string, isDir bool) bool {
	rootMatcher := s.getGitignoreMatcher(absRoot, "")
	if rootMatcher != nil && rootMatcher.Match(relPath, isDir) {
		return true
	}

	parts := strings.Split(filepath.Dir(relPath), string(filepath.Separator))
	currentDir := absRoot
	currentBase := ""
	for _, part := range parts {
		if part == "." || part == "" {
			continue
		}
		currentDir = filepath.Join(currentDir, part)
		if currentBase == "" {
			currentBase = part
		} else {
			currentBase = filepath.Join(currentBase, part)
		}
		matcher := s.getGitignoreMatcher(currentDir, currentBase)
		if matcher != nil && matcher.Match(relPath, isDir) {
			return true
		}
	}
	return false
}

func (s *Scanner) getGitignoreMatcher(dir, base string) *gitignore.Matcher {
	s.cacheMu.RLock()
	matcher, ok := s.gitignoreCache.Get(dir)
	s.cacheMu.RUnlock()
	if ok {
		return matcher
	}

	gitignorePath := filepath.Join(dir, ".gitignore")
	if _, err := os.Stat(gitignorePath); os.IsNotExist(err) {
		return nil
	}

	matcher = gitignore.New()
	if err := matcher.AddFromFile(gitignorePath, base); err != nil {
		return nil
	}

	s.cacheMu.Lock()
	s.gitignoreCache.Add(dir, matcher)
	s.cacheMu.Unlock()

	return matcher
}

// InvalidateGitignoreCache clears the gitignore matcher cache. Call
// this between scans of the same tree if .gitignore files may have
// changed.
func (s *Scanner) InvalidateGitignoreCache() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.gitignoreCache.Purge()
}
