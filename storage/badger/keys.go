package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/relayout/core"
)

const (
	documentPrefix     = "docrec"
	documentNamePrefix = "docnam"
	chunkPrefix        = "chunk"
)

// makeDocumentKey generates a key for a document by ID.
// Format: prefix:id, with the ID big-endian so keys sort by ID.
func makeDocumentKey(id core.ID) []byte {
	prefix := documentPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// documentIDFromKey extracts the ID from a document key.
func documentIDFromKey(key []byte) core.ID {
	return core.ID(binary.BigEndian.Uint64(key[len(documentPrefix)+1:]))
}

// makeDocumentNameKey generates a key for the (category, name) index.
// Format: prefix:category:name
func makeDocumentNameKey(category core.Category, name string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", documentNamePrefix, category, name))
}

// makePartialDocumentNameKey generates the prefix shared by every name index
// key of a category, or of all categories when category is empty.
func makePartialDocumentNameKey(category core.Category) []byte {
	if category == "" {
		return []byte(documentNamePrefix + ":")
	}
	return []byte(fmt.Sprintf("%s:%s:", documentNamePrefix, category))
}

// makeChunkKey generates a key for a chunk.
// Format: prefix:docID:index, both big-endian so a document's chunks sort by index.
func makeChunkKey(docID core.ID, index int) []byte {
	prefix := makePartialChunkKey(docID)
	buf := make([]byte, len(prefix)+4)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint32(buf[offset:], uint32(index))
	return buf
}

// makePartialChunkKey generates the prefix shared by every chunk of a document.
// Format: prefix:docID
func makePartialChunkKey(docID core.ID) []byte {
	prefix := chunkPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(docID))
	return buf
}

// makeCheckpointKey generates a key for processor checkpoints.
func makeCheckpointKey(processorType string) []byte {
	return []byte(fmt.Sprintf("%s:chkpt", processorType))
}
