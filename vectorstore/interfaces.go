package vectorstore

import (
	"context"
	"fmt"

	"github.com/poiesic/stancewatch/core"
)

// Payload is the metadata stored alongside every indexed chunk vector.
// Snippet is the empty string when the owning source disallows snippet
// storage.
type Payload struct {
	Snippet   string `json:"snippet"`
	ChunkHash string `json:"chunk_hash"`
	SourceURL string `json:"source_url"`
	Domain    string `json:"domain"`
	Date      string `json:"date,omitempty"`
}

// Point is one indexed chunk: a deterministic id, its embedding vector, and
// the payload returned by similarity search.
type Point struct {
	ID      string
	Vector  []float32
	Payload Payload
}

// ScoredPoint is a similarity search hit.
type ScoredPoint struct {
	ID      string
	Score   float32
	Payload Payload
}

// PointID derives the deterministic point id for a chunk of a source.
// Re-ingesting the same source yields the same ids, which is what makes
// point upserts idempotent.
func PointID(sourceID core.ID, chunkIndex int) string {
	return fmt.Sprintf("%s-%d", sourceID, chunkIndex)
}

// Index is a cosine-similarity vector index over chunk embeddings.
// Implementations must be thread-safe for concurrent use.
type Index interface {
	// EnsureCollection provisions the target collection sized to dim if it
	// does not exist yet. Idempotent: safe to invoke repeatedly with the same
	// dimensionality, from multiple call sites.
	EnsureCollection(ctx context.Context, dim int) error

	// Upsert writes points, overwriting any point that already exists under
	// the same id rather than duplicating it.
	Upsert(ctx context.Context, points []Point) error

	// Search returns the limit nearest points to vector by cosine
	// similarity, highest first, with their payloads.
	Search(ctx context.Context, vector []float32, limit int) ([]ScoredPoint, error)
}
