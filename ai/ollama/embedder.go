package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/poiesic/stancewatch/ai"
	"github.com/poiesic/stancewatch/core"
)

// Embedder implements ai.Embedder against Ollama's native embed endpoint.
//
// The endpoint has two historical response shapes: a batched "embeddings"
// field and a legacy single "embedding" field. Both are accepted; the single
// vector is normalized internally to a one-element list so output is always
// positionally aligned with input.
type Embedder struct {
	baseURL string
	model   string
	timeout time.Duration
	client  *http.Client
	logger  *slog.Logger
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Embedding  []float32   `json:"embedding"`
}

// newEmbedder is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Embedder{
		baseURL: config.EmbeddingHost,
		model:   config.EmbeddingModel,
		timeout: config.EmbedTimeout,
		client:  &http.Client{},
		logger:  slog.Default().With("component", "ollama-embedder"),
	}, nil
}

// NewEmbedder creates a new embedder using the provided configuration.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts sends one batched request for all texts. The call fails with
// core.ErrUpstreamTimeout when the budget is exceeded, core.ErrTransport on a
// non-success status, and core.ErrEmbeddingShape when the response carries no
// vectors in either accepted shape.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("generating embeddings", "count", len(texts))

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	body, err := json.Marshal(embedRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			e.logger.Error("embed request timed out", "timeout", e.timeout)
			return nil, fmt.Errorf("%w: embed exceeded %s", core.ErrUpstreamTimeout, e.timeout)
		}
		e.logger.Error("embed request failed", "err", err)
		return nil, fmt.Errorf("%w: %v", core.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		e.logger.Error("embed request rejected", "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: embed failed with status %d", core.ErrTransport, resp.StatusCode)
	}

	var decoded embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrTransport, err)
	}

	switch {
	case len(decoded.Embeddings) > 0:
		return decoded.Embeddings, nil
	case len(decoded.Embedding) > 0:
		return [][]float32{decoded.Embedding}, nil
	default:
		e.logger.Error("embed response carried no vectors")
		return nil, core.ErrEmbeddingShape
	}
}
