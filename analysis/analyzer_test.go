package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/stancewatch/ai/mock"
	"github.com/poiesic/stancewatch/core"
	"github.com/poiesic/stancewatch/storage"
	"github.com/poiesic/stancewatch/storage/badger"
	"github.com/poiesic/stancewatch/vectorstore"
	"github.com/poiesic/stancewatch/vectorstore/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type analyzerFixture struct {
	repos      *badger.Repositories
	index      *memory.Index
	extractor  *mock.MockStanceExtractor
	analyzer   *Analyzer
	politician *core.Politician
	topic      *core.Topic
	source     *core.Source
}

func testVector(seed float32) []float32 {
	v := make([]float32, 384)
	v[0] = 1
	v[1] = seed
	return v
}

func setupAnalyzer(t *testing.T) *analyzerFixture {
	t.Helper()
	ctx := context.Background()

	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	index := memory.New()
	extractor := mock.NewMockStanceExtractor()
	provider := mock.NewMockProviderWithServices(mock.NewMockEmbedder(), extractor)

	analyzer, err := NewAnalyzer(repos.References, repos.Sources, repos.Statements, repos.Changes, provider, index)
	require.NoError(t, err)
	t.Cleanup(analyzer.Release)

	politician, err := repos.References.AddPolitician(ctx, &core.Politician{Name: "Mette Holm", Party: "Socialdemokratiet", Active: true})
	require.NoError(t, err)
	topic, err := repos.References.AddTopic(ctx, &core.Topic{Name: "Atomkraft", Slug: "atomkraft"})
	require.NoError(t, err)

	source, err := repos.Sources.UpsertSource(ctx, &core.Source{
		URL:               "https://nyheder.dk/atomkraft-debat",
		Domain:            "nyheder.dk",
		ContentHash:       core.HashContent("debat"),
		AllowIngest:       true,
		AllowStoreSnippet: true,
		SnippetMaxLen:     240,
		AccessTier:        core.TierPublic,
	})
	require.NoError(t, err)

	require.NoError(t, index.Upsert(ctx, []vectorstore.Point{
		{
			ID:     vectorstore.PointID(source.Id, 0),
			Vector: testVector(0.1),
			Payload: vectorstore.Payload{
				Snippet:   "Mette Holm støtter atomkraft som supplement til vindenergi.",
				SourceURL: source.URL,
				Domain:    source.Domain,
			},
		},
		{
			ID:     vectorstore.PointID(source.Id, 1),
			Vector: testVector(0.2),
			Payload: vectorstore.Payload{
				Snippet:   "Debatten om energiforsyning fortsætter i Folketinget.",
				SourceURL: source.URL,
				Domain:    source.Domain,
			},
		},
	}))

	return &analyzerFixture{
		repos:      repos,
		index:      index,
		extractor:  extractor,
		analyzer:   analyzer,
		politician: politician,
		topic:      topic,
		source:     source,
	}
}

func (f *analyzerFixture) setScore(score float64) {
	f.extractor.Output = &core.StatementOutput{
		ClaimSummary:  "Politikeren støtter atomkraft.",
		StanceLabel:   core.StanceFor,
		StanceScore:   score,
		Confidence:    0.8,
		EvidenceQuote: "Mette Holm støtter atomkraft",
	}
}

func TestNewAnalyzerRequiresCollaborators(t *testing.T) {
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	provider := mock.NewMockProvider()
	index := memory.New()

	_, err = NewAnalyzer(nil, repos.Sources, repos.Statements, repos.Changes, provider, index)
	assert.ErrorIs(t, err, ErrReferenceRepositoryRequired)
	_, err = NewAnalyzer(repos.References, nil, repos.Statements, repos.Changes, provider, index)
	assert.ErrorIs(t, err, ErrSourceRepositoryRequired)
	_, err = NewAnalyzer(repos.References, repos.Sources, nil, repos.Changes, provider, index)
	assert.ErrorIs(t, err, ErrStatementRepositoryRequired)
	_, err = NewAnalyzer(repos.References, repos.Sources, repos.Statements, nil, provider, index)
	assert.ErrorIs(t, err, ErrChangeRepositoryRequired)
	_, err = NewAnalyzer(repos.References, repos.Sources, repos.Statements, repos.Changes, nil, index)
	assert.ErrorIs(t, err, ErrAIProviderRequired)
	_, err = NewAnalyzer(repos.References, repos.Sources, repos.Statements, repos.Changes, provider, nil)
	assert.ErrorIs(t, err, ErrVectorIndexRequired)
}

func TestAnalyzerOptionValidation(t *testing.T) {
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	provider := mock.NewMockProvider()
	index := memory.New()

	_, err = NewAnalyzer(repos.References, repos.Sources, repos.Statements, repos.Changes, provider, index, WithRetrieveLimit(0))
	assert.Error(t, err)
	_, err = NewAnalyzer(repos.References, repos.Sources, repos.Statements, repos.Changes, provider, index, WithChangeThreshold(-0.1))
	assert.Error(t, err)
	_, err = NewAnalyzer(repos.References, repos.Sources, repos.Statements, repos.Changes, provider, index, WithEvidenceMatchLen(0))
	assert.Error(t, err)
}

func TestAnalyzeHappyPath(t *testing.T) {
	f := setupAnalyzer(t)
	ctx := context.Background()
	f.setScore(0.8)

	result, err := f.analyzer.Analyze(ctx, f.politician.Id, f.topic.Id, "Hvad mener Mette Holm om atomkraft?")
	require.NoError(t, err)

	statement := result.Statement
	assert.NotEmpty(t, statement.Id)
	assert.Equal(t, f.politician.Id, statement.PoliticianId)
	assert.Equal(t, f.topic.Id, statement.TopicId)
	assert.Equal(t, f.source.Id, statement.SourceId)
	assert.Equal(t, f.source.URL, statement.SourceURL)
	assert.Equal(t, core.StanceFor, statement.StanceLabel)
	assert.Equal(t, 0.8, statement.StanceScore)
	assert.Equal(t, "Hvad mener Mette Holm om atomkraft?", statement.Query)
	assert.Equal(t, PromptVersion, statement.PromptVersion)

	// First statement for the pair: nothing to reconcile against.
	assert.Nil(t, result.Change)

	assert.Len(t, result.Evidence, 2)
	assert.Equal(t, 1, result.Evidence[0].Rank)

	stored, err := f.repos.Statements.GetStatement(ctx, statement.Id)
	require.NoError(t, err)
	assert.Equal(t, statement.ClaimSummary, stored.ClaimSummary)
}

func TestAnalyzeRequiresQuery(t *testing.T) {
	f := setupAnalyzer(t)

	_, err := f.analyzer.Analyze(context.Background(), f.politician.Id, f.topic.Id, "")
	assert.ErrorIs(t, err, ErrQueryRequired)
}

func TestAnalyzeUnknownReferences(t *testing.T) {
	f := setupAnalyzer(t)
	ctx := context.Background()

	_, err := f.analyzer.Analyze(ctx, "missing-politician", f.topic.Id, "q")
	assert.ErrorIs(t, err, core.ErrMissingEntity)

	_, err = f.analyzer.Analyze(ctx, f.politician.Id, "missing-topic", "q")
	assert.ErrorIs(t, err, core.ErrMissingEntity)
}

func TestAnalyzeNoEvidenceWritesNothing(t *testing.T) {
	f := setupAnalyzer(t)
	ctx := context.Background()

	// Rebuild the analyzer against an empty index.
	empty := memory.New()
	provider := mock.NewMockProviderWithServices(mock.NewMockEmbedder(), f.extractor)
	analyzer, err := NewAnalyzer(f.repos.References, f.repos.Sources, f.repos.Statements, f.repos.Changes, provider, empty)
	require.NoError(t, err)
	defer analyzer.Release()

	_, err = analyzer.Analyze(ctx, f.politician.Id, f.topic.Id, "q")
	assert.ErrorIs(t, err, core.ErrEvidenceNotFound)

	count, err := f.repos.Statements.CountStatements(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestAnalyzeUnknownSourceForEvidence(t *testing.T) {
	f := setupAnalyzer(t)
	ctx := context.Background()

	// Point to a URL nothing in the source table matches.
	require.NoError(t, f.index.Upsert(ctx, []vectorstore.Point{{
		ID:     "orphan-0",
		Vector: testVector(0.3),
		Payload: vectorstore.Payload{
			Snippet:   "uddrag uden kilde",
			SourceURL: "https://ukendt.dk/vaek",
			Domain:    "ukendt.dk",
		},
	}}))

	f.extractor.Output = &core.StatementOutput{
		ClaimSummary:  "Et citat fra en kilde der er forsvundet.",
		StanceLabel:   core.StanceUnclear,
		StanceScore:   0,
		Confidence:    0.4,
		EvidenceQuote: "uddrag uden kilde",
	}

	_, err := f.analyzer.Analyze(ctx, f.politician.Id, f.topic.Id, "q")
	assert.ErrorIs(t, err, core.ErrMissingEntity)
}

func TestReconcileThresholdClosedBoundary(t *testing.T) {
	f := setupAnalyzer(t)
	ctx := context.Background()

	f.setScore(0.0)
	first, err := f.analyzer.Analyze(ctx, f.politician.Id, f.topic.Id, "q")
	require.NoError(t, err)
	assert.Nil(t, first.Change)

	time.Sleep(2 * time.Millisecond)

	// Delta of exactly the threshold fires.
	f.setScore(0.3)
	second, err := f.analyzer.Analyze(ctx, f.politician.Id, f.topic.Id, "q")
	require.NoError(t, err)
	require.NotNil(t, second.Change)
	assert.Equal(t, first.Statement.Id, second.Change.FromStatementId)
	assert.Equal(t, second.Statement.Id, second.Change.ToStatementId)
	assert.InDelta(t, 0.3, second.Change.DeltaScore, 1e-9)
	assert.Contains(t, second.Change.Note, "Raw model output length=")

	time.Sleep(2 * time.Millisecond)

	// Delta below the threshold does not.
	f.setScore(0.5)
	third, err := f.analyzer.Analyze(ctx, f.politician.Id, f.topic.Id, "q")
	require.NoError(t, err)
	assert.Nil(t, third.Change)

	changes, err := f.repos.Changes.ListStanceChanges(ctx, f.politician.Id, f.topic.Id)
	require.NoError(t, err)
	assert.Len(t, changes, 1)
}

func TestReconcileNegativeDelta(t *testing.T) {
	f := setupAnalyzer(t)
	ctx := context.Background()

	f.setScore(0.5)
	_, err := f.analyzer.Analyze(ctx, f.politician.Id, f.topic.Id, "q")
	require.NoError(t, err)

	time.Sleep(2 * time.Millisecond)

	f.setScore(-0.5)
	result, err := f.analyzer.Analyze(ctx, f.politician.Id, f.topic.Id, "q")
	require.NoError(t, err)
	require.NotNil(t, result.Change)
	assert.InDelta(t, -1.0, result.Change.DeltaScore, 1e-9)
}

func TestReconcileScopedToPair(t *testing.T) {
	f := setupAnalyzer(t)
	ctx := context.Background()

	other, err := f.repos.References.AddTopic(ctx, &core.Topic{Name: "Topskat", Slug: "topskat"})
	require.NoError(t, err)

	f.setScore(-0.9)
	_, err = f.analyzer.Analyze(ctx, f.politician.Id, f.topic.Id, "q")
	require.NoError(t, err)

	time.Sleep(2 * time.Millisecond)

	// A large swing on a different topic is that topic's first statement.
	f.setScore(0.9)
	result, err := f.analyzer.Analyze(ctx, f.politician.Id, other.Id, "q")
	require.NoError(t, err)
	assert.Nil(t, result.Change)
}

func TestTimelineJoinsReferences(t *testing.T) {
	f := setupAnalyzer(t)
	ctx := context.Background()

	f.setScore(0.1)
	_, err := f.analyzer.Analyze(ctx, f.politician.Id, f.topic.Id, "første")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	f.setScore(0.2)
	second, err := f.analyzer.Analyze(ctx, f.politician.Id, f.topic.Id, "anden")
	require.NoError(t, err)

	entries, err := f.analyzer.Timeline(ctx, storage.StatementFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first, with reference entities resolved.
	assert.Equal(t, second.Statement.Id, entries[0].Statement.Id)
	assert.Equal(t, "Mette Holm", entries[0].Politician.Name)
	assert.Equal(t, "atomkraft", entries[0].Topic.Slug)

	filtered, err := f.analyzer.Timeline(ctx, storage.StatementFilter{PoliticianId: "nobody"})
	require.NoError(t, err)
	assert.Empty(t, filtered)
}

func TestSummaryAggregates(t *testing.T) {
	f := setupAnalyzer(t)
	ctx := context.Background()

	f.setScore(0.0)
	_, err := f.analyzer.Analyze(ctx, f.politician.Id, f.topic.Id, "q")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	f.setScore(0.9)
	_, err = f.analyzer.Analyze(ctx, f.politician.Id, f.topic.Id, "q")
	require.NoError(t, err)

	summary, err := f.analyzer.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Sources)
	assert.Equal(t, 2, summary.Statements)
	assert.Equal(t, 1, summary.StanceChanges)
	assert.False(t, summary.LatestIngest.IsZero())
	assert.False(t, summary.LatestAnalyze.IsZero())
}
