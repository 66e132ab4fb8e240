package chunker

import (
	"fmt"
	"strings"

	"github.com/poiesic/stancewatch/core"
)

const (
	// DefaultChunkSize is the sliding window size in characters.
	DefaultChunkSize = 500

	// DefaultOverlap is the number of characters consecutive windows share.
	DefaultOverlap = 80
)

// Chunk is a bounded, overlapping slice of normalized source text. Chunks are
// the unit of embedding and retrieval; they exist only for the duration of one
// ingestion call and are never persisted relationally.
type Chunk struct {
	// Text is the trimmed window content.
	Text string

	// Index is the zero-based, dense position of the chunk.
	Index int

	// Hash is a deterministic digest over "{index}:{text}".
	Hash string
}

// Normalize collapses whitespace runs to single spaces and trims the result.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Split segments text into overlapping chunks of at most chunkSize characters.
// Consecutive windows share overlap characters, except possibly around the
// final window. The function is pure: identical inputs always yield identical
// chunk sequences, indices, and hashes.
//
// An empty normalized text yields zero chunks; callers must treat that as an
// ingestion failure, not a no-op.
func Split(text string, chunkSize, overlap int) []Chunk {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = DefaultOverlap
	}

	normalized := []rune(Normalize(text))
	if len(normalized) == 0 {
		return nil
	}

	var chunks []Chunk
	start := 0
	idx := 0

	for start < len(normalized) {
		end := min(start+chunkSize, len(normalized))
		window := strings.TrimSpace(string(normalized[start:end]))
		if len(window) > 0 {
			chunks = append(chunks, Chunk{
				Text:  window,
				Index: idx,
				Hash:  HashChunk(idx, window),
			})
			idx++
		}

		if end == len(normalized) {
			break
		}
		start = max(0, end-overlap)
	}

	return chunks
}

// HashChunk computes the deterministic hash of a chunk at the given index.
func HashChunk(index int, text string) string {
	return core.HashContent(fmt.Sprintf("%d:%s", index, text))
}
