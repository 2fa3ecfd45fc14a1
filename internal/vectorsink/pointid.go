package vectorsink

import "fmt"

// pointID reformats a 64-hex content hash as a UUID string: the first
// 32 hex characters become a standard 8-4-4-4-12 UUID. Two chunks
// with the same chunkId therefore always
// resolve to the same Qdrant point, which is what makes upsert a
// no-op retry rather than a duplicate insert.
func pointID(chunkID string) string {
	if len(chunkID) < 32 {
		chunkID = (chunkID + "00000000000000000000000000000000")[:32]
	}
	return fmt.Sprintf("%s-%s-%s-%s-%s",
		chunkID[0:8], chunkID[8:12], chunkID[12:16], chunkID[16:20], chunkID[20:32])
}
