package gitlog

import (
	"context"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aman-cerp/pingmem/internal/hashing"
)

// recordSep is a delimiter vanishingly unlikely to appear in a commit
// message, used to split `git log` output into per-commit records.
const recordSep = "\x1e\x1e\x1e"

const logFormat = "%H" + "\x1f" + "%h" + "\x1f" + "%an" + "\x1f" + "%ae" + "\x1f" + "%aI" + "\x1f" +
	"%cn" + "\x1f" + "%ce" + "\x1f" + "%cI" + "\x1f" + "%P" + "\x1f" + "%B" + recordSep

// Commit is one entry in the commit DAG.
type Commit struct {
	Hash            string
	ShortHash       string
	AuthorName      string
	AuthorEmail     string
	AuthorDate      time.Time
	CommitterName   string
	CommitterEmail  string
	CommitterDate   time.Time
	Message         string
	ParentHashes    []string
}

// ChangeType mirrors git's name-status letters.
type ChangeType string

const (
	ChangeAdded    ChangeType = "A"
	ChangeModified ChangeType = "M"
	ChangeDeleted  ChangeType = "D"
	ChangeRenamed  ChangeType = "R"
	ChangeCopied   ChangeType = "C"
)

// FileChange is one file touched by a commit.
type FileChange struct {
	CommitHash string
	FilePath   string
	ChangeType ChangeType
	OldPath    string
}

// DiffHunk is one unified-diff hunk for a file in a commit.
type DiffHunk struct {
	CommitHash string
	FilePath   string
	OldStart   int
	OldLines   int
	NewStart   int
	NewLines   int
	Content    string
}

// HunkID computes the content-addressed ID for a hunk per
// `SHA256(commitHash ‖ filePath ‖ newStart ‖ newLines)`.
func HunkID(commitHash, filePath string, newStart, newLines int) string {
	return hashing.SHA256String(hashing.JoinKey(commitHash, filePath, hashing.Itoa(newStart), hashing.Itoa(newLines)))
}

// History is the full parsed history of a project.
type History struct {
	Commits []Commit
}

// Reader reads commit history out of a git working tree via SafeGit.
type Reader struct {
	git *SafeGit
}

// NewReader returns a Reader rooted at dir.
func NewReader(dir string) *Reader {
	return &Reader{git: NewSafeGit(dir)}
}

// ReadHistory returns the full commit DAG, in the order `git log`
// emits it (topologically ordered, most recent first). If dir is not
// inside a git working tree, an empty History is returned.
func (r *Reader) ReadHistory(ctx context.Context) (*History, error) {
	root, err := r.git.GetRoot(ctx)
	if err != nil {
		return nil, err
	}
	if root == "" {
		return &History{}, nil
	}

	out, err := r.git.run(ctx, r.git.LogMaxBuffer,
		"log", "--all", "--topo-order", "--format="+logFormat)
	if err != nil {
		return &History{}, nil
	}

	records := strings.Split(string(out), recordSep)
	commits := make([]Commit, 0, len(records))
	for _, rec := range records {
		rec = strings.TrimPrefix(rec, "\n")
		if strings.TrimSpace(rec) == "" {
			continue
		}
		fields := strings.Split(rec, "\x1f")
		if len(fields) < 10 {
			continue
		}
		authorDate, _ := time.Parse(time.RFC3339, fields[4])
		committerDate, _ := time.Parse(time.RFC3339, fields[7])
		var parents []string
		if fields[8] != "" {
			parents = strings.Fields(fields[8])
		}
		commits = append(commits, Commit{
			Hash:           fields[0],
			ShortHash:      fields[1],
			AuthorName:     fields[2],
			AuthorEmail:    fields[3],
			AuthorDate:     authorDate,
			CommitterName:  fields[5],
			CommitterEmail: fields[6],
			CommitterDate:  committerDate,
			ParentHashes:   parents,
			Message:        strings.TrimRight(fields[9], "\n"),
		})
	}

	return &History{Commits: commits}, nil
}

// FileChanges returns the per-file name-status changes for a commit.
func (r *Reader) FileChanges(ctx context.Context, commitHash string) ([]FileChange, error) {
	if err := requireValidCommitHash(commitHash); err != nil {
		return nil, err
	}
	out, err := r.git.run(ctx, r.git.LogMaxBuffer,
		"show", "--name-status", "--format=", commitHash)
	if err != nil {
		return nil, err
	}

	var changes []FileChange
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) < 2 {
			continue
		}
		status := parts[0]
		ct := ChangeType(status[:1])

		switch ct {
		case ChangeRenamed, ChangeCopied:
			if len(parts) < 3 {
				continue
			}
			changes = append(changes, FileChange{
				CommitHash: commitHash,
				FilePath:   toPosix(parts[2]),
				ChangeType: ct,
				OldPath:    toPosix(parts[1]),
			})
		default:
			changes = append(changes, FileChange{
				CommitHash: commitHash,
				FilePath:   toPosix(parts[1]),
				ChangeType: ct,
			})
		}
	}
	return changes, nil
}

var hunkHeaderRe = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)
var newFileHeaderRe = regexp.MustCompile(`^\+\+\+ b/(.+)$`)

// DiffHunks returns the unified-diff hunks for a commit, across all
// files it touched.
func (r *Reader) DiffHunks(ctx context.Context, commitHash string) ([]DiffHunk, error) {
	if err := requireValidCommitHash(commitHash); err != nil {
		return nil, err
	}
	out, err := r.git.run(ctx, r.git.DiffMaxBuffer,
		"show", "--unified=3", commitHash)
	if err != nil {
		return nil, err
	}

	var hunks []DiffHunk
	var currentFile string
	var current *DiffHunk
	var body strings.Builder

	flush := func() {
		if current != nil {
			current.Content = body.String()
			hunks = append(hunks, *current)
			current = nil
			body.Reset()
		}
	}

	for _, line := range strings.Split(string(out), "\n") {
		if strings.HasPrefix(line, "diff --git") {
			flush()
			currentFile = ""
			continue
		}
		if m := newFileHeaderRe.FindStringSubmatch(line); m != nil {
			currentFile = toPosix(m[1])
			continue
		}
		if m := hunkHeaderRe.FindStringSubmatch(line); m != nil {
			flush()
			oldStart, _ := strconv.Atoi(m[1])
			oldLines := 1
			if m[2] != "" {
				oldLines, _ = strconv.Atoi(m[2])
			}
			newStart, _ := strconv.Atoi(m[3])
			newLines := 1
			if m[4] != "" {
				newLines, _ = strconv.Atoi(m[4])
			}
			current = &DiffHunk{
				CommitHash: commitHash,
				FilePath:   currentFile,
				OldStart:   oldStart,
				OldLines:   oldLines,
				NewStart:   newStart,
				NewLines:   newLines,
			}
			continue
		}
		if current != nil {
			body.WriteString(line)
			body.WriteByte('\n')
		}
	}
	flush()

	return hunks, nil
}

func toPosix(p string) string {
	return filepath.ToSlash(p)
}
