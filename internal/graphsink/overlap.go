package graphsink

import (
	"github.com/aman-cerp/pingmem/internal/gitlog"
	"github.com/aman-cerp/pingmem/internal/ingest"
)

// gitlogHunkID computes the content-addressed hunk ID so CHANGES
// edges are keyed the same way across ingests.
func gitlogHunkID(h gitlog.DiffHunk) string {
	return gitlog.HunkID(h.CommitHash, h.FilePath, h.NewStart, h.NewLines)
}

// overlappingChunkIDs returns the chunkIds of every current chunk of
// hunk's file whose line range overlaps the hunk's new-file range. A
// pure-deletion hunk (NewLines == 0) anchors to the single line at
// NewStart.
func overlappingChunkIDs(files []ingest.FileRecord, h gitlog.DiffHunk) []string {
	var file *ingest.FileRecord
	for i := range files {
		if files[i].RelPath == h.FilePath {
			file = &files[i]
			break
		}
	}
	if file == nil {
		return nil
	}

	hunkEnd := h.NewStart
	if h.NewLines > 1 {
		hunkEnd = h.NewStart + h.NewLines - 1
	}

	var ids []string
	for _, ch := range file.Chunks {
		if ch.LineStart <= hunkEnd && ch.LineEnd >= h.NewStart {
			ids = append(ids, ch.ChunkID)
		}
	}
	return ids
}
