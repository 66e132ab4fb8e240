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

package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/stancewatch/ai"
	"github.com/poiesic/stancewatch/core"
	"github.com/poiesic/stancewatch/storage"
	"github.com/poiesic/stancewatch/vectorstore"
)

const (
	// DefaultRetrieveLimit is the number of evidence items fetched per query.
	DefaultRetrieveLimit = 5

	// DefaultChangeThreshold is the absolute score delta at which a stance
	// change is recorded. The boundary is closed: a delta of exactly the
	// threshold fires.
	DefaultChangeThreshold = 0.3

	// DefaultEvidenceMatchLen is the number of leading quote characters used
	// for the evidence-to-snippet substring match.
	DefaultEvidenceMatchLen = 60
)

// Analyzer runs the analyze operation: retrieve evidence for a query, ask the
// generative model for a structured stance extraction, persist the resulting
// statement, and reconcile it against the previous statement for the same
// (politician, topic) pair.
type Analyzer struct {
	references storage.ReferenceRepository
	sources    storage.SourceRepository
	statements storage.StatementRepository
	changes    storage.StanceChangeRepository
	provider   ai.AIProvider
	index      vectorstore.Index

	pool            *ants.Pool
	retrieveLimit   int
	changeThreshold float64
	matchLen        int
	logger          *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer) error

// WithRetrieveLimit overrides the evidence count per query.
func WithRetrieveLimit(limit int) Option {
	return func(a *Analyzer) error {
		if limit < 1 {
			return fmt.Errorf("retrieve limit must be positive, got %d", limit)
		}
		a.retrieveLimit = limit
		return nil
	}
}

// WithChangeThreshold overrides the stance-change delta threshold.
func WithChangeThreshold(threshold float64) Option {
	return func(a *Analyzer) error {
		if threshold <= 0 {
			return fmt.Errorf("change threshold must be positive, got %v", threshold)
		}
		a.changeThreshold = threshold
		return nil
	}
}

// WithEvidenceMatchLen overrides the quote prefix length used for evidence
// matching.
func WithEvidenceMatchLen(n int) Option {
	return func(a *Analyzer) error {
		if n < 1 {
			return fmt.Errorf("evidence match length must be positive, got %d", n)
		}
		a.matchLen = n
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
		return nil
	}
}

// NewAnalyzer creates a new Analyzer.
func NewAnalyzer(
	references storage.ReferenceRepository,
	sources storage.SourceRepository,
	statements storage.StatementRepository,
	changes storage.StanceChangeRepository,
	provider ai.AIProvider,
	index vectorstore.Index,
	opts ...Option,
) (*Analyzer, error) {
	if references == nil {
		return nil, ErrReferenceRepositoryRequired
	}
	if sources == nil {
		return nil, ErrSourceRepositoryRequired
	}
	if statements == nil {
		return nil, ErrStatementRepositoryRequired
	}
	if changes == nil {
		return nil, ErrChangeRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}
	if index == nil {
		return nil, ErrVectorIndexRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 2 {
		poolSize = 2
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	a := &Analyzer{
		references:      references,
		sources:         sources,
		statements:      statements,
		changes:         changes,
		provider:        provider,
		index:           index,
		pool:            pool,
		retrieveLimit:   DefaultRetrieveLimit,
		changeThreshold: DefaultChangeThreshold,
		matchLen:        DefaultEvidenceMatchLen,
		logger:          slog.Default().With("component", "analyzer"),
	}

	for _, opt := range opts {
		if optErr := opt(a); optErr != nil {
			a.Release()
			return nil, optErr
		}
	}

	return a, nil
}

// Release releases the worker pool. The analyzer should not be used after
// calling Release.
func (a *Analyzer) Release() {
	if a.pool != nil {
		a.pool.Release()
	}
}

// submit runs fn on the worker pool, falling back to the calling goroutine
// if the pool rejects the task.
func (a *Analyzer) submit(fn func()) {
	if err := a.pool.Submit(fn); err != nil {
		fn()
	}
}

// Result is the outcome of one analyze operation.
type Result struct {
	Statement *core.Statement
	Output    *core.StatementOutput
	Evidence  []Evidence
	// Change is non-nil only when the reconciliation threshold fired.
	Change *core.StanceChange
}

// Analyze runs the full retrieve/generate/reconcile flow for one
// (politician, topic, query) triple. The politician and topic lookups run
// concurrently; every later stage is sequential and blocking, with no retry.
func (a *Analyzer) Analyze(ctx context.Context, politicianID, topicID core.ID, query string) (*Result, error) {
	if query == "" {
		return nil, ErrQueryRequired
	}

	var (
		politician *core.Politician
		topic      *core.Topic
		polErr     error
		topErr     error
		wg         sync.WaitGroup
	)
	wg.Add(2)
	a.submit(func() {
		defer wg.Done()
		politician, polErr = a.references.GetPolitician(ctx, politicianID)
	})
	a.submit(func() {
		defer wg.Done()
		topic, topErr = a.references.GetTopic(ctx, topicID)
	})
	wg.Wait()

	if errors.Is(polErr, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: politician %s", core.ErrMissingEntity, politicianID)
	}
	if polErr != nil {
		return nil, polErr
	}
	if errors.Is(topErr, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: topic %s", core.ErrMissingEntity, topicID)
	}
	if topErr != nil {
		return nil, topErr
	}

	queryVector, err := a.provider.Embedder().EmbedText(ctx, query)
	if err != nil {
		return nil, err
	}

	hits, err := a.index.Search(ctx, queryVector, a.retrieveLimit)
	if err != nil {
		return nil, err
	}
	evidence := ShapeEvidence(hits)

	prompt, err := BuildPrompt(PromptVersion, politician, topic, query, evidence)
	if err != nil {
		return nil, err
	}

	extraction, err := a.provider.StanceExtractor().ExtractStatement(ctx, prompt)
	if err != nil {
		return nil, err
	}
	output := extraction.Output

	matched, err := matchEvidence(evidence, output.EvidenceQuote, a.matchLen)
	if err != nil {
		return nil, err
	}

	source, err := a.sources.GetSourceByURL(ctx, matched.SourceURL)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: source %s for matched evidence", core.ErrMissingEntity, matched.SourceURL)
	}
	if err != nil {
		return nil, err
	}

	statement, err := a.statements.AddStatement(ctx, &core.Statement{
		PoliticianId:  politician.Id,
		TopicId:       topic.Id,
		SourceId:      source.Id,
		SourceURL:     source.URL,
		ClaimSummary:  output.ClaimSummary,
		StanceLabel:   output.StanceLabel,
		StanceScore:   output.StanceScore,
		Confidence:    output.Confidence,
		EvidenceQuote: output.EvidenceQuote,
		Query:         query,
		PromptVersion: PromptVersion,
	})
	if err != nil {
		return nil, err
	}

	change, err := a.reconcile(ctx, statement, len(extraction.Raw))
	if err != nil {
		return nil, err
	}

	a.logger.Info("analyzed statement",
		"politician", politician.Name,
		"topic", topic.Slug,
		"label", statement.StanceLabel,
		"score", statement.StanceScore,
		"change", change != nil)

	return &Result{
		Statement: statement,
		Output:    output,
		Evidence:  evidence,
		Change:    change,
	}, nil
}
