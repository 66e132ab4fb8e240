// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/poiesic/stancewatch/ai"
	"github.com/poiesic/stancewatch/chunker"
	"github.com/poiesic/stancewatch/core"
	"github.com/poiesic/stancewatch/storage"
	"github.com/poiesic/stancewatch/vectorstore"
)

// minContentLen is the minimum normalized content length worth ingesting.
// Anything shorter cannot produce a usable chunk.
const minContentLen = 20

// Pipeline orchestrates source ingestion: policy gating, source upsert,
// chunking, embedding, and vector index writes. Re-running the pipeline on
// the same URL is idempotent end to end.
type Pipeline struct {
	sources   storage.SourceRepository
	policies  storage.PolicyRepository
	provider  ai.AIProvider
	index     vectorstore.Index
	chunkSize int
	overlap   int
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithChunking overrides the sliding window geometry.
// Default is chunker.DefaultChunkSize / chunker.DefaultOverlap.
func WithChunking(chunkSize, overlap int) Option {
	return func(p *Pipeline) error {
		if chunkSize < 1 {
			return fmt.Errorf("chunk size must be positive, got %d", chunkSize)
		}
		if overlap < 0 || overlap >= chunkSize {
			return fmt.Errorf("overlap must be in [0, %d), got %d", chunkSize, overlap)
		}
		p.chunkSize = chunkSize
		p.overlap = overlap
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	sources storage.SourceRepository,
	policies storage.PolicyRepository,
	provider ai.AIProvider,
	index vectorstore.Index,
	opts ...Option,
) (*Pipeline, error) {
	if sources == nil {
		return nil, ErrSourceRepositoryRequired
	}
	if policies == nil {
		return nil, ErrPolicyRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}
	if index == nil {
		return nil, ErrVectorIndexRequired
	}

	p := &Pipeline{
		sources:   sources,
		policies:  policies,
		provider:  provider,
		index:     index,
		chunkSize: chunker.DefaultChunkSize,
		overlap:   chunker.DefaultOverlap,
		logger:    slog.Default().With("component", "ingest-pipeline"),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Input is one document to ingest.
type Input struct {
	URL      string
	Title    string
	Content  string
	Date     *time.Time
	Metadata map[string]string
}

// Result summarizes one completed ingestion.
type Result struct {
	Source        *core.Source
	ChunkCount    int
	VectorDim     int
	SnippetStored bool
}

// Ingest runs one document through the full pipeline. The domain policy is
// resolved (and lazily created) before any write happens; a domain with
// ingestion disabled fails with core.ErrPolicyViolation and leaves no trace.
func (p *Pipeline) Ingest(ctx context.Context, input Input) (*Result, error) {
	if input.URL == "" {
		return nil, ErrURLRequired
	}

	normalized := chunker.Normalize(input.Content)
	if len([]rune(normalized)) < minContentLen {
		return nil, fmt.Errorf("%w: content below %d characters", core.ErrEmptyContent, minContentLen)
	}

	domain, err := DomainFromURL(input.URL)
	if err != nil {
		return nil, err
	}

	policy, err := p.policies.GetOrCreateDomainPolicy(ctx, domain)
	if err != nil {
		return nil, err
	}
	if !policy.AllowIngest {
		p.logger.Warn("ingestion blocked by domain policy", "domain", domain, "url", input.URL)
		return nil, fmt.Errorf("%w: domain %s disallows ingestion", core.ErrPolicyViolation, domain)
	}

	snippetMax := policy.SnippetMaxLen
	if snippetMax <= 0 || snippetMax > chunker.MaxSnippetLen {
		snippetMax = chunker.MaxSnippetLen
	}

	source := &core.Source{
		URL:               input.URL,
		Domain:            domain,
		Date:              input.Date,
		Title:             input.Title,
		ContentHash:       core.HashContent(normalized),
		Metadata:          input.Metadata,
		AllowIngest:       policy.AllowIngest,
		AllowStoreSnippet: policy.AllowStoreSnippet,
		AllowFulltext:     policy.AllowFulltext,
		SnippetMaxLen:     snippetMax,
		AccessTier:        policy.AccessTier,
	}

	source, err = p.sources.UpsertSource(ctx, source)
	if err != nil {
		return nil, err
	}

	chunks := chunker.Split(normalized, p.chunkSize, p.overlap)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no chunks produced for %s", core.ErrEmptyContent, input.URL)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := p.provider.Embedder().EmbedTexts(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: %d chunks, %d vectors", core.ErrEmbeddingShape, len(chunks), len(vectors))
	}

	dim := len(vectors[0])
	if err := p.index.EnsureCollection(ctx, dim); err != nil {
		return nil, err
	}

	var date string
	if source.Date != nil {
		date = source.Date.UTC().Format(time.RFC3339)
	}

	points := make([]vectorstore.Point, len(chunks))
	for i, c := range chunks {
		snippet := ""
		if source.AllowStoreSnippet {
			snippet = chunker.CapSnippet(c.Text, snippetMax)
		}
		points[i] = vectorstore.Point{
			ID:     vectorstore.PointID(source.Id, c.Index),
			Vector: vectors[i],
			Payload: vectorstore.Payload{
				Snippet:   snippet,
				ChunkHash: c.Hash,
				SourceURL: source.URL,
				Domain:    source.Domain,
				Date:      date,
			},
		}
	}

	if err := p.index.Upsert(ctx, points); err != nil {
		return nil, err
	}

	p.logger.Info("ingested source",
		"url", source.URL,
		"domain", source.Domain,
		"chunks", len(chunks),
		"dim", dim,
		"snippets", source.AllowStoreSnippet)

	return &Result{
		Source:        source,
		ChunkCount:    len(chunks),
		VectorDim:     dim,
		SnippetStored: source.AllowStoreSnippet,
	}, nil
}

// DomainFromURL extracts the lowercased host of a URL, stripping any port
// and a leading "www." label.
func DomainFromURL(raw string) (string, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid source url %q: %w", raw, err)
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return "", fmt.Errorf("invalid source url %q: no host", raw)
	}
	return strings.TrimPrefix(host, "www."), nil
}
