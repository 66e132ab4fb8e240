package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/poiesic/stancewatch/core"
	"github.com/poiesic/stancewatch/vectorstore"
)

// DefaultTimeout is the hard per-call budget for every index operation.
const DefaultTimeout = 10 * time.Second

// DefaultCollection is the collection name used when none is configured.
const DefaultCollection = "stancewatch_chunks"

// Index implements vectorstore.Index against Qdrant's REST API.
//
// The instance owns the known embedding dimensionality: it starts unset and
// is bootstrapped by the first EnsureCollection call, after which repeated
// calls are cheap no-ops.
type Index struct {
	baseURL    string
	collection string
	timeout    time.Duration
	client     *http.Client
	logger     *slog.Logger

	mu  sync.Mutex
	dim int // 0 until bootstrapped
}

var _ vectorstore.Index = (*Index)(nil)

// Option configures an Index.
type Option func(*Index)

// WithCollection sets the collection name.
func WithCollection(name string) Option {
	return func(x *Index) {
		if name != "" {
			x.collection = name
		}
	}
}

// WithTimeout overrides the per-call budget.
func WithTimeout(d time.Duration) Option {
	return func(x *Index) {
		if d > 0 {
			x.timeout = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(x *Index) {
		if logger != nil {
			x.logger = logger
		}
	}
}

// New creates a Qdrant-backed index client for the given server URL.
func New(url string, opts ...Option) (*Index, error) {
	if url == "" {
		return nil, errors.New("qdrant: url required")
	}

	x := &Index{
		baseURL:    url,
		collection: DefaultCollection,
		timeout:    DefaultTimeout,
		client:     &http.Client{},
		logger:     slog.Default().With("component", "qdrant-index"),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x, nil
}

type collectionsResponse struct {
	Result struct {
		Collections []struct {
			Name string `json:"name"`
		} `json:"collections"`
	} `json:"result"`
}

type createCollectionRequest struct {
	Vectors vectorParams `json:"vectors"`
}

type vectorParams struct {
	Size     int    `json:"size"`
	Distance string `json:"distance"`
}

type upsertRequest struct {
	Points []pointStruct `json:"points"`
}

type pointStruct struct {
	ID      string              `json:"id"`
	Vector  []float32           `json:"vector"`
	Payload vectorstore.Payload `json:"payload"`
}

type searchRequest struct {
	Vector      []float32 `json:"vector"`
	Limit       int       `json:"limit"`
	WithPayload bool      `json:"with_payload"`
}

type searchResponse struct {
	Result []struct {
		ID      string              `json:"id"`
		Score   float32             `json:"score"`
		Payload vectorstore.Payload `json:"payload"`
	} `json:"result"`
}

// EnsureCollection provisions the collection sized to dim with cosine
// distance if it does not exist. Once the dimensionality is bootstrapped the
// call returns immediately.
func (x *Index) EnsureCollection(ctx context.Context, dim int) error {
	if dim <= 0 {
		return fmt.Errorf("qdrant: invalid vector dimensionality %d", dim)
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if x.dim != 0 {
		if x.dim != dim {
			return fmt.Errorf("qdrant: collection %s sized for dim %d, got %d", x.collection, x.dim, dim)
		}
		return nil
	}

	var listed collectionsResponse
	if err := x.do(ctx, http.MethodGet, "/collections", nil, &listed); err != nil {
		return err
	}

	exists := false
	for _, c := range listed.Result.Collections {
		if c.Name == x.collection {
			exists = true
			break
		}
	}

	if !exists {
		x.logger.Info("creating collection", "collection", x.collection, "dim", dim)
		body := createCollectionRequest{Vectors: vectorParams{Size: dim, Distance: "Cosine"}}
		if err := x.do(ctx, http.MethodPut, "/collections/"+x.collection, body, nil); err != nil {
			return err
		}
	}

	x.dim = dim
	return nil
}

// Upsert writes points with wait-for-durability enabled. A point that already
// exists under the same id is overwritten. If the dimensionality has not been
// bootstrapped yet it is derived from the first point.
func (x *Index) Upsert(ctx context.Context, points []vectorstore.Point) error {
	if len(points) == 0 {
		return nil
	}

	if err := x.EnsureCollection(ctx, len(points[0].Vector)); err != nil {
		return err
	}

	body := upsertRequest{Points: make([]pointStruct, len(points))}
	for i, p := range points {
		body.Points[i] = pointStruct{ID: p.ID, Vector: p.Vector, Payload: p.Payload}
	}

	path := "/collections/" + x.collection + "/points?wait=true"
	return x.do(ctx, http.MethodPut, path, body, nil)
}

// Search returns the limit nearest points with payloads included.
func (x *Index) Search(ctx context.Context, vector []float32, limit int) ([]vectorstore.ScoredPoint, error) {
	if err := x.EnsureCollection(ctx, len(vector)); err != nil {
		return nil, err
	}

	body := searchRequest{Vector: vector, Limit: limit, WithPayload: true}

	var decoded searchResponse
	path := "/collections/" + x.collection + "/points/search"
	if err := x.do(ctx, http.MethodPost, path, body, &decoded); err != nil {
		return nil, err
	}

	hits := make([]vectorstore.ScoredPoint, len(decoded.Result))
	for i, r := range decoded.Result {
		hits[i] = vectorstore.ScoredPoint{ID: r.ID, Score: r.Score, Payload: r.Payload}
	}
	return hits, nil
}

// do issues one HTTP request under the per-call budget and maps failures onto
// the typed taxonomy: core.ErrUpstreamTimeout on budget expiry and
// core.ErrTransport on connection failure, non-success status, or an
// undecodable body.
func (x *Index) do(ctx context.Context, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, x.timeout)
	defer cancel()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, x.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := x.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			x.logger.Error("qdrant request timed out", "path", path, "timeout", x.timeout)
			return fmt.Errorf("%w: qdrant %s exceeded %s", core.ErrUpstreamTimeout, path, x.timeout)
		}
		x.logger.Error("qdrant request failed", "path", path, "err", err)
		return fmt.Errorf("%w: %v", core.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		x.logger.Error("qdrant request rejected", "path", path, "status", resp.StatusCode)
		return fmt.Errorf("%w: qdrant %s failed with status %d", core.ErrTransport, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: %v", core.ErrTransport, err)
		}
	}
	return nil
}
