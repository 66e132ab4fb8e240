package stancewatch

import (
	"context"
	"strings"
	"testing"

	"github.com/poiesic/stancewatch/ai/mock"
	"github.com/poiesic/stancewatch/core"
	"github.com/poiesic/stancewatch/ingest"
	"github.com/poiesic/stancewatch/storage"
	"github.com/poiesic/stancewatch/vectorstore/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const trackerArticle = "Mette Holm erklærede i dag at hun støtter en CO2-afgift på landbruget. " +
	"Afgiften skal ifølge hende indfases gradvist frem mod 2030, så erhvervet kan nå at omstille sig. " +
	"Oppositionen kalder forslaget en skjult skat på fødevarer og varsler modstand i folketingssalen."

type trackerFixture struct {
	tracker   *Tracker
	extractor *mock.MockStanceExtractor
}

func setupTracker(t *testing.T) *trackerFixture {
	t.Helper()

	extractor := mock.NewMockStanceExtractor()
	provider := mock.NewMockProviderWithServices(mock.NewMockEmbedder(), extractor)

	tracker, err := NewTracker("",
		WithInMemoryStorage(),
		WithAIProvider(provider),
		WithVectorIndex(memory.New()))
	require.NoError(t, err)
	t.Cleanup(func() { tracker.Close() })

	return &trackerFixture{tracker: tracker, extractor: extractor}
}

func TestTrackerEndToEnd(t *testing.T) {
	f := setupTracker(t)
	ctx := context.Background()

	politician, err := f.tracker.ReferenceRepository().AddPolitician(ctx, &core.Politician{
		Name:   "Mette Holm",
		Party:  "Socialdemokratiet",
		Active: true,
	})
	require.NoError(t, err)
	topic, err := f.tracker.ReferenceRepository().AddTopic(ctx, &core.Topic{
		Name: "CO2-afgift på landbrug",
		Slug: "co2-afgift-landbrug",
	})
	require.NoError(t, err)

	ingested, err := f.tracker.Ingest(ctx, ingest.Input{
		URL:     "https://example-nyheder.dk/politik/co2-afgift",
		Title:   "Holm støtter CO2-afgift",
		Content: trackerArticle,
	})
	require.NoError(t, err)
	assert.Greater(t, ingested.ChunkCount, 0)
	assert.True(t, ingested.SnippetStored)

	quote := string([]rune(trackerArticle)[:50])
	f.extractor.Output = &core.StatementOutput{
		ClaimSummary:  "Mette Holm støtter en CO2-afgift på landbruget.",
		StanceLabel:   core.StanceFor,
		StanceScore:   0.7,
		Confidence:    0.85,
		EvidenceQuote: quote,
	}

	result, err := f.tracker.Analyze(ctx, politician.Id, topic.Id, "Hvad mener Mette Holm om CO2-afgiften?")
	require.NoError(t, err)
	assert.Equal(t, ingested.Source.Id, result.Statement.SourceId)
	assert.Equal(t, core.StanceFor, result.Statement.StanceLabel)
	assert.Nil(t, result.Change)

	entries, err := f.tracker.Timeline(ctx, storage.StatementFilter{PoliticianId: politician.Id})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, result.Statement.Id, entries[0].Statement.Id)
	assert.Equal(t, "Mette Holm", entries[0].Politician.Name)

	summary, err := f.tracker.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Sources)
	assert.Equal(t, 1, summary.Statements)
	assert.Equal(t, 0, summary.StanceChanges)
}

func TestOverrideSourcePolicyPropagatesToDomain(t *testing.T) {
	f := setupTracker(t)
	ctx := context.Background()

	ingested, err := f.tracker.Ingest(ctx, ingest.Input{
		URL:     "https://example-avisen.dk/leder",
		Content: trackerArticle,
	})
	require.NoError(t, err)

	disallow := false
	shorter := 120
	source, err := f.tracker.OverrideSourcePolicy(ctx, ingested.Source.Id, storage.PolicyPatch{
		AllowStoreSnippet: &disallow,
		SnippetMaxLen:     &shorter,
	})
	require.NoError(t, err)
	assert.False(t, source.AllowStoreSnippet)
	assert.Equal(t, 120, source.SnippetMaxLen)
	// Untouched fields survive the patch.
	assert.True(t, source.AllowIngest)

	// The edit becomes the domain default for future ingests.
	policy, err := f.tracker.PolicyRepository().GetDomainPolicy(ctx, "example-avisen.dk")
	require.NoError(t, err)
	assert.False(t, policy.AllowStoreSnippet)
	assert.Equal(t, 120, policy.SnippetMaxLen)

	reingested, err := f.tracker.Ingest(ctx, ingest.Input{
		URL:     "https://example-avisen.dk/ny-artikel",
		Content: strings.Repeat("En anden artikel fra samme avis. ", 10),
	})
	require.NoError(t, err)
	assert.False(t, reingested.SnippetStored)
	assert.Equal(t, 120, reingested.Source.SnippetMaxLen)
}

func TestOverrideSourcePolicyUnknownSource(t *testing.T) {
	f := setupTracker(t)

	allow := true
	_, err := f.tracker.OverrideSourcePolicy(context.Background(), "missing", storage.PolicyPatch{
		AllowIngest: &allow,
	})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
