package ai

import (
	"context"

	"github.com/poiesic/stancewatch/core"
)

// Embedder generates vector embeddings from text for semantic similarity
// search. Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates embeddings for multiple strings in one batched
	// request. The returned slice is positionally aligned with the input.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Extraction is the outcome of a successful stance extraction: the validated
// structured output together with the raw model response text. The raw text
// is kept so callers can audit what the model actually produced.
type Extraction struct {
	Output *core.StatementOutput
	Raw    string
}

// StanceExtractor asks a generative model to extract a structured political
// statement from an assembled prompt. Implementations must be thread-safe for
// concurrent use.
//
// Failures are classified into the typed taxonomy: core.ErrTransport for
// non-success upstream status, core.ErrUpstreamTimeout for an exceeded
// budget, *core.ParseError for output that is not well-formed JSON (raw text
// preserved), and *core.SchemaError for well-formed but invalid output.
type StanceExtractor interface {
	ExtractStatement(ctx context.Context, prompt string) (*Extraction, error)
}

// AIProvider aggregates AI services for convenient initialization and
// lifecycle management. A provider creates and manages Embedder and
// StanceExtractor instances, ensuring they share configuration.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// StanceExtractor returns the statement extraction service.
	StanceExtractor() StanceExtractor

	// Close releases resources held by the provider and its services.
	Close() error
}
