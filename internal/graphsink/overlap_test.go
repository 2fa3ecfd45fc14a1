package graphsink

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aman-cerp/pingmem/internal/chunk"
	"github.com/aman-cerp/pingmem/internal/gitlog"
	"github.com/aman-cerp/pingmem/internal/ingest"
)

func TestOverlappingChunkIDsMatchesOverlappingRange(t *testing.T) {
	files := []ingest.FileRecord{
		{
			RelPath: "a.go",
			Chunks: []chunk.Chunk{
				{ChunkID: "c1", LineStart: 1, LineEnd: 3},
				{ChunkID: "c2", LineStart: 4, LineEnd: 10},
			},
		},
	}
	hunk := gitlog.DiffHunk{FilePath: "a.go", NewStart: 2, NewLines: 3}

	ids := overlappingChunkIDs(files, hunk)
	assert.Equal(t, []string{"c1", "c2"}, ids)
}

func TestOverlappingChunkIDsPureDeletionAnchorsOnNewStart(t *testing.T) {
	files := []ingest.FileRecord{
		{
			RelPath: "a.go",
			Chunks: []chunk.Chunk{
				{ChunkID: "c1", LineStart: 1, LineEnd: 5},
			},
		},
	}
	hunk := gitlog.DiffHunk{FilePath: "a.go", NewStart: 3, NewLines: 0}

	ids := overlappingChunkIDs(files, hunk)
	assert.Equal(t, []string{"c1"}, ids)
}

func TestOverlappingChunkIDsNoMatchingFileReturnsNil(t *testing.T) {
	files := []ingest.FileRecord{{RelPath: "a.go"}}
	hunk := gitlog.DiffHunk{FilePath: "b.go", NewStart: 1, NewLines: 1}
	assert.Nil(t, overlappingChunkIDs(files, hunk))
}

func TestGitlogHunkIDMatchesGitlogPackage(t *testing.T) {
	h := gitlog.DiffHunk{CommitHash: "abc1234", FilePath: "a.go", NewStart: 1, NewLines: 2}
	assert.Equal(t, gitlog.HunkID(h.CommitHash, h.FilePath, h.NewStart, h.NewLines), gitlogHunkID(h))
}
