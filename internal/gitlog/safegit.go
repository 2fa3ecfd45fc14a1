// Package gitlog reads commit history, per-commit file changes, and
// diff hunks out of a git working tree, through a hardened subprocess
// wrapper that never interpolates untrusted input into a shell.
package gitlog

import (
	"bytes"
	"context"
	"os/exec"
	"regexp"

	pmerrors "github.com/aman-cerp/pingmem/internal/errors"
)

// commitHashPattern is the only shape a commit-hash-like argument may
// take before it is allowed anywhere near a subprocess argv.
var commitHashPattern = regexp.MustCompile(`^[a-f0-9]{7,40}$`)

// ValidCommitHash reports whether s is a syntactically valid abbreviated
// or full git commit hash.
func ValidCommitHash(s string) bool {
	return commitHashPattern.MatchString(s)
}

const (
	defaultLogMaxBuffer  = 100 * 1024 * 1024
	defaultDiffMaxBuffer = 50 * 1024 * 1024
)

// SafeGit runs git subcommands via exec.CommandContext (never through
// a shell) against a fixed working directory, validating any argument
// that looks like a commit hash before the process is ever spawned.
type SafeGit struct {
	Dir           string
	LogMaxBuffer  int
	DiffMaxBuffer int
}

// NewSafeGit returns a SafeGit rooted at dir with default buffer caps.
func NewSafeGit(dir string) *SafeGit {
	return &SafeGit{
		Dir:           dir,
		LogMaxBuffer:  defaultLogMaxBuffer,
		DiffMaxBuffer: defaultDiffMaxBuffer,
	}
}

// requireValidCommitHash validates a commit-hash argument before it
// is allowed anywhere near a subprocess argv (Invariant P10). Every
// Reader method that accepts a commitHash calls this first.
func requireValidCommitHash(hash string) error {
	if !ValidCommitHash(hash) {
		return pmerrors.InvalidArgument("safegit", "commit hash argument does not match ^[a-f0-9]{7,40}$: "+hash, nil)
	}
	return nil
}

// run executes `git <args...>` with the given output cap, returning
// stdout. maxBuffer of 0 or less means g.LogMaxBuffer. Commit-hash
// arguments must already have been validated by the caller via
// requireValidCommitHash before reaching here.
func (g *SafeGit) run(ctx context.Context, maxBuffer int, args ...string) ([]byte, error) {
	if maxBuffer <= 0 {
		maxBuffer = g.LogMaxBuffer
	}

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &limitedWriter{buf: &stdout, limit: maxBuffer}
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, pmerrors.IoError("safegit", "git "+args[0]+" failed: "+stderr.String(), err)
	}
	return stdout.Bytes(), nil
}

// limitedWriter caps how many bytes are buffered from a subprocess,
// enforcing the configurable maxBuffer policy (LimitExceeded beyond
// the cap) rather than letting a pathological repo exhaust memory.
type limitedWriter struct {
	buf     *bytes.Buffer
	limit   int
	written int
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	if w.written+len(p) > w.limit {
		return 0, pmerrors.LimitExceeded("safegit", "subprocess output exceeded max buffer", nil)
	}
	w.written += len(p)
	return w.buf.Write(p)
}

// GetRoot returns the repository's top-level directory, or "" if Dir
// is not inside a git working tree.
func (g *SafeGit) GetRoot(ctx context.Context) (string, error) {
	out, err := g.run(ctx, 0, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", nil // absence of a git root is not an error; caller treats it as "no history"
	}
	return trimTrailingNewline(string(out)), nil
}

// GetRemoteURL returns the origin remote URL, or "" if none is set.
func (g *SafeGit) GetRemoteURL(ctx context.Context) (string, error) {
	out, err := g.run(ctx, 0, "config", "--get", "remote.origin.url")
	if err != nil {
		return "", nil
	}
	return trimTrailingNewline(string(out)), nil
}

func trimTrailingNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
