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

// Package stancewatch tracks political stances over time. It ingests raw
// text documents about public statements, embeds them for semantic
// retrieval, and answers targeted queries by retrieving evidence, extracting
// a structured statement with a generative model, and recording significant
// stance shifts per (politician, topic) pair.
package stancewatch

import (
	"context"
	"log/slog"

	"github.com/poiesic/stancewatch/ai"
	"github.com/poiesic/stancewatch/ai/ollama"
	"github.com/poiesic/stancewatch/analysis"
	"github.com/poiesic/stancewatch/core"
	"github.com/poiesic/stancewatch/ingest"
	"github.com/poiesic/stancewatch/storage"
	"github.com/poiesic/stancewatch/storage/badger"
	"github.com/poiesic/stancewatch/vectorstore"
	"github.com/poiesic/stancewatch/vectorstore/qdrant"
)

// DefaultQdrantURL is the vector index endpoint used when none is configured.
const DefaultQdrantURL = "http://localhost:6333"

// Tracker is the top-level facade wiring storage, the AI provider, the
// vector index, the ingestion pipeline, and the analyzer.
type Tracker struct {
	repos    *badger.Repositories
	provider ai.AIProvider
	index    vectorstore.Index
	pipeline *ingest.Pipeline
	analyzer *analysis.Analyzer
	logger   *slog.Logger
}

// TrackerOption configures a Tracker.
type TrackerOption func(*trackerOptions)

type trackerOptions struct {
	aiConfig  *ai.Config
	provider  ai.AIProvider
	index     vectorstore.Index
	qdrantURL string
	inMemory  bool
}

// WithAIConfig sets the AI gateway configuration used to build the default
// Ollama provider. Ignored when WithAIProvider is also given.
func WithAIConfig(cfg *ai.Config) TrackerOption {
	return func(o *trackerOptions) {
		if cfg != nil {
			o.aiConfig = cfg
		}
	}
}

// WithAIProvider injects a pre-built AI provider, bypassing the default
// Ollama provider. Useful for tests.
func WithAIProvider(provider ai.AIProvider) TrackerOption {
	return func(o *trackerOptions) {
		o.provider = provider
	}
}

// WithVectorIndex injects a pre-built vector index, bypassing the default
// Qdrant client. Useful for tests.
func WithVectorIndex(index vectorstore.Index) TrackerOption {
	return func(o *trackerOptions) {
		o.index = index
	}
}

// WithQdrantURL sets the Qdrant endpoint for the default vector index.
func WithQdrantURL(url string) TrackerOption {
	return func(o *trackerOptions) {
		if url != "" {
			o.qdrantURL = url
		}
	}
}

// WithInMemoryStorage keeps all repositories in memory instead of on disk.
func WithInMemoryStorage() TrackerOption {
	return func(o *trackerOptions) {
		o.inMemory = true
	}
}

// NewTracker opens a tracker persisting to filePath.
func NewTracker(filePath string, opts ...TrackerOption) (*Tracker, error) {
	options := &trackerOptions{
		aiConfig:  ai.DefaultConfig(),
		qdrantURL: DefaultQdrantURL,
	}
	for _, opt := range opts {
		opt(options)
	}

	repos, err := badger.OpenRepositories(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = ollama.NewProvider(options.aiConfig)
		if err != nil {
			repos.Close()
			return nil, err
		}
	}

	index := options.index
	if index == nil {
		index, err = qdrant.New(options.qdrantURL)
		if err != nil {
			provider.Close()
			repos.Close()
			return nil, err
		}
	}

	pipeline, err := ingest.NewPipeline(repos.Sources, repos.Policies, provider, index)
	if err != nil {
		provider.Close()
		repos.Close()
		return nil, err
	}

	analyzer, err := analysis.NewAnalyzer(
		repos.References, repos.Sources, repos.Statements, repos.Changes,
		provider, index)
	if err != nil {
		provider.Close()
		repos.Close()
		return nil, err
	}

	return &Tracker{
		repos:    repos,
		provider: provider,
		index:    index,
		pipeline: pipeline,
		analyzer: analyzer,
		logger:   slog.Default(),
	}, nil
}

// Close releases the analyzer pool, the AI provider, and storage.
func (t *Tracker) Close() error {
	t.analyzer.Release()
	if err := t.provider.Close(); err != nil {
		t.logger.Error("error closing AI provider", "err", err)
	}
	return t.repos.Close()
}

// Ingest runs one document through the ingestion pipeline.
func (t *Tracker) Ingest(ctx context.Context, input ingest.Input) (*ingest.Result, error) {
	return t.pipeline.Ingest(ctx, input)
}

// Analyze runs the retrieve/generate/reconcile flow for one query.
func (t *Tracker) Analyze(ctx context.Context, politicianID, topicID core.ID, query string) (*analysis.Result, error) {
	return t.analyzer.Analyze(ctx, politicianID, topicID, query)
}

// Timeline lists recent statements joined with their reference entities.
func (t *Tracker) Timeline(ctx context.Context, filter storage.StatementFilter) ([]analysis.TimelineEntry, error) {
	return t.analyzer.Timeline(ctx, filter)
}

// Summary gathers corpus-wide counters and activity timestamps.
func (t *Tracker) Summary(ctx context.Context) (*analysis.Summary, error) {
	return t.analyzer.Summary(ctx)
}

// OverrideSourcePolicy applies a policy patch to a source and propagates the
// resulting flags to the source's domain policy, so the edit becomes the
// default for future ingests from that domain.
func (t *Tracker) OverrideSourcePolicy(ctx context.Context, id core.ID, patch storage.PolicyPatch) (*core.Source, error) {
	source, err := t.repos.Sources.UpdateSourcePolicy(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	_, err = t.repos.Policies.UpsertDomainPolicy(ctx, &core.DomainPolicy{
		Domain:            source.Domain,
		AllowIngest:       source.AllowIngest,
		AllowStoreSnippet: source.AllowStoreSnippet,
		AllowFulltext:     source.AllowFulltext,
		SnippetMaxLen:     source.SnippetMaxLen,
		AccessTier:        source.AccessTier,
	})
	if err != nil {
		return nil, err
	}
	return source, nil
}

// SourceRepository exposes the source repository.
func (t *Tracker) SourceRepository() storage.SourceRepository {
	return t.repos.Sources
}

// PolicyRepository exposes the domain policy repository.
func (t *Tracker) PolicyRepository() storage.PolicyRepository {
	return t.repos.Policies
}

// ReferenceRepository exposes the politician and topic repository.
func (t *Tracker) ReferenceRepository() storage.ReferenceRepository {
	return t.repos.References
}

// StatementRepository exposes the statement repository.
func (t *Tracker) StatementRepository() storage.StatementRepository {
	return t.repos.Statements
}

// StanceChangeRepository exposes the stance change repository.
func (t *Tracker) StanceChangeRepository() storage.StanceChangeRepository {
	return t.repos.Changes
}
