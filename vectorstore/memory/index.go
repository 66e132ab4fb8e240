package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/poiesic/stancewatch/vectorstore"
)

// Index is an in-process vectorstore.Index for tests. It stores points in a
// map keyed by id, so upserts are naturally idempotent, and ranks search
// hits by cosine similarity.
type Index struct {
	mu     sync.RWMutex
	dim    int
	points map[string]vectorstore.Point
}

var _ vectorstore.Index = (*Index)(nil)

// New creates an empty in-memory index.
func New() *Index {
	return &Index{points: make(map[string]vectorstore.Point)}
}

// EnsureCollection records the dimensionality on first call and rejects a
// conflicting dimensionality afterwards.
func (x *Index) EnsureCollection(ctx context.Context, dim int) error {
	if dim <= 0 {
		return fmt.Errorf("memory index: invalid vector dimensionality %d", dim)
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if x.dim == 0 {
		x.dim = dim
		return nil
	}
	if x.dim != dim {
		return fmt.Errorf("memory index: sized for dim %d, got %d", x.dim, dim)
	}
	return nil
}

// Upsert overwrites any point already stored under the same id.
func (x *Index) Upsert(ctx context.Context, points []vectorstore.Point) error {
	if len(points) == 0 {
		return nil
	}
	if err := x.EnsureCollection(ctx, len(points[0].Vector)); err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	for _, p := range points {
		x.points[p.ID] = p
	}
	return nil
}

// Search ranks all stored points by cosine similarity to vector.
func (x *Index) Search(ctx context.Context, vector []float32, limit int) ([]vectorstore.ScoredPoint, error) {
	if err := x.EnsureCollection(ctx, len(vector)); err != nil {
		return nil, err
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	hits := make([]vectorstore.ScoredPoint, 0, len(x.points))
	for _, p := range x.points {
		hits = append(hits, vectorstore.ScoredPoint{
			ID:      p.ID,
			Score:   cosineSimilarity(vector, p.Vector),
			Payload: p.Payload,
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Len returns the number of stored points.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.points)
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
