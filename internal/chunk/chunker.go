package chunk

import (
	"bytes"

	"github.com/aman-cerp/pingmem/internal/hashing"
)

// tsExtensions are split with line/block-comment detection.
var tsExtensions = map[string]bool{
	".ts": true, ".tsx": true, ".js": true, ".jsx": true,
}

// Chunker splits file bytes into code/comment/docstring chunks with
// stable byte offsets and content-addressed IDs (Invariant C1).
type Chunker struct{}

// NewChunker returns a Chunker.
func NewChunker() *Chunker {
	return &Chunker{}
}

// region is an untiled span before chunk IDs are computed.
type region struct {
	typ   Type
	start int
	end   int
}

// Chunk splits content into an ordered, contiguous sequence of chunks
// tiling [0, len(content)). relPath and fileSHA256 feed Invariant C1's
// chunk ID formula.
func (c *Chunker) Chunk(relPath, fileSHA256 string, content []byte) []Chunk {
	if len(content) == 0 {
		return nil
	}

	ext := extOf(relPath)
	var regions []region
	switch {
	case ext == ".py":
		regions = splitPython(content)
	case tsExtensions[ext]:
		regions = splitTSJS(content)
	default:
		regions = []region{{typ: TypeCode, start: 0, end: len(content)}}
	}

	regions = mergeAdjacent(regions)
	lineOf := lineMapper(content)

	chunks := make([]Chunk, 0, len(regions))
	for _, r := range regions {
		body := string(content[r.start:r.end])
		id := hashing.SHA256String(hashing.JoinKey(
			relPath, fileSHA256, string(r.typ),
			hashing.Itoa(r.start), hashing.Itoa(r.end), body,
		))
		chunks = append(chunks, Chunk{
			ChunkID:   id,
			Type:      r.typ,
			Start:     r.start,
			End:       r.end,
			LineStart: lineOf(r.start),
			LineEnd:   lineOf(r.end - 1),
			Content:   body,
		})
	}
	return chunks
}

// mergeAdjacent merges consecutive regions of the same type (Invariant C2).
func mergeAdjacent(regions []region) []region {
	if len(regions) == 0 {
		return regions
	}
	merged := []region{regions[0]}
	for _, r := range regions[1:] {
		last := &merged[len(merged)-1]
		if last.typ == r.typ && last.end == r.start {
			last.end = r.end
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

// lineMapper returns a function mapping byte offset to 1-based line
// number, built from a single forward scan of content.
func lineMapper(content []byte) func(offset int) int {
	lineStarts := []int{0}
	for i, b := range content {
		if b == '\n' {
			lineStarts = append(lineStarts, i+1)
		}
	}
	return func(offset int) int {
		if offset < 0 {
			offset = 0
		}
		lo, hi := 0, len(lineStarts)-1
		for lo < hi {
			mid := (lo + hi + 1) / 2
			if lineStarts[mid] <= offset {
				lo = mid
			} else {
				hi = mid - 1
			}
		}
		return lo + 1
	}
}

// splitTSJS scans forward for the nearest "//" or "/* ... */" as the
// next non-code region; everything between consecutive comments is
// one code chunk.
func splitTSJS(content []byte) []region {
	var regions []region
	pos := 0
	n := len(content)
	for pos < n {
		lineIdx := bytes.Index(content[pos:], []byte("//"))
		blockIdx := bytes.Index(content[pos:], []byte("/*"))

		nextLine := -1
		if lineIdx >= 0 {
			nextLine = pos + lineIdx
		}
		nextBlock := -1
		if blockIdx >= 0 {
			nextBlock = pos + blockIdx
		}

		commentStart, isBlock := nearest(nextLine, nextBlock)
		if commentStart == -1 {
			regions = append(regions, region{typ: TypeCode, start: pos, end: n})
			break
		}

		if commentStart > pos {
			regions = append(regions, region{typ: TypeCode, start: pos, end: commentStart})
		}

		var commentEnd int
		if isBlock {
			if idx := bytes.Index(content[commentStart+2:], []byte("*/")); idx >= 0 {
				commentEnd = commentStart + 2 + idx + 2
			} else {
				commentEnd = n
			}
		} else {
			if idx := bytes.IndexByte(content[commentStart:], '\n'); idx >= 0 {
				commentEnd = commentStart + idx
			} else {
				commentEnd = n
			}
		}

		regions = append(regions, region{typ: TypeComment, start: commentStart, end: commentEnd})
		pos = commentEnd
	}
	return regions
}

// nearest returns whichever of lineIdx/blockIdx occurs first, and
// whether it is a block comment. -1 if neither was found.
func nearest(lineIdx, blockIdx int) (int, bool) {
	if lineIdx == -1 && blockIdx == -1 {
		return -1, false
	}
	if lineIdx == -1 {
		return blockIdx, true
	}
	if blockIdx == -1 {
		return lineIdx, false
	}
	if lineIdx < blockIdx {
		return lineIdx, false
	}
	return blockIdx, true
}

// splitPython treats "#" line comments as comment regions and
// triple-quoted blocks as docstring regions, picking whichever marker
// occurs first.
func splitPython(content []byte) []region {
	var regions []region
	pos := 0
	n := len(content)
	for pos < n {
		hashIdx := bytes.IndexByte(content[pos:], '#')
		dq := bytes.Index(content[pos:], []byte(`"""`))
		sq := bytes.Index(content[pos:], []byte(`'''`))

		next := -1
		kind := TypeCode
		tripleLen := 3
		if hashIdx >= 0 {
			next = pos + hashIdx
			kind = TypeComment
		}
		if dq >= 0 {
			cand := pos + dq
			if next == -1 || cand < next {
				next = cand
				kind = TypeDocstring
				tripleLen = 3
			}
		}
		if sq >= 0 {
			cand := pos + sq
			if next == -1 || cand < next {
				next = cand
				kind = TypeDocstring
				tripleLen = 3
			}
		}

		if next == -1 {
			regions = append(regions, region{typ: TypeCode, start: pos, end: n})
			break
		}

		if next > pos {
			regions = append(regions, region{typ: TypeCode, start: pos, end: next})
		}

		var end int
		switch kind {
		case TypeComment:
			if idx := bytes.IndexByte(content[next:], '\n'); idx >= 0 {
				end = next + idx
			} else {
				end = n
			}
		default:
			marker := content[next : next+tripleLen]
			if idx := bytes.Index(content[next+tripleLen:], marker); idx >= 0 {
				end = next + tripleLen + idx + tripleLen
			} else {
				end = n
			}
		}

		regions = append(regions, region{typ: kind, start: next, end: end})
		pos = end
	}
	return regions
}

func extOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			return path[i:]
		}
		if path[i] == '/' {
			break
		}
	}
	return ""
}
