package ingest

import (
	"context"
	"strings"
	"testing"

	"github.com/poiesic/stancewatch/ai/mock"
	"github.com/poiesic/stancewatch/core"
	"github.com/poiesic/stancewatch/storage/badger"
	"github.com/poiesic/stancewatch/vectorstore"
	"github.com/poiesic/stancewatch/vectorstore/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pipelineFixture struct {
	repos    *badger.Repositories
	index    *memory.Index
	pipeline *Pipeline
}

func setupPipeline(t *testing.T) *pipelineFixture {
	t.Helper()

	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	index := memory.New()
	pipeline, err := NewPipeline(repos.Sources, repos.Policies, mock.NewMockProvider(), index)
	require.NoError(t, err)

	return &pipelineFixture{repos: repos, index: index, pipeline: pipeline}
}

func articleText() string {
	return strings.Repeat("Ministeren udtalte sig om forslaget under samrådet i dag. ", 20)
}

func TestNewPipelineRequiresCollaborators(t *testing.T) {
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	provider := mock.NewMockProvider()
	index := memory.New()

	_, err = NewPipeline(nil, repos.Policies, provider, index)
	assert.ErrorIs(t, err, ErrSourceRepositoryRequired)
	_, err = NewPipeline(repos.Sources, nil, provider, index)
	assert.ErrorIs(t, err, ErrPolicyRepositoryRequired)
	_, err = NewPipeline(repos.Sources, repos.Policies, nil, index)
	assert.ErrorIs(t, err, ErrAIProviderRequired)
	_, err = NewPipeline(repos.Sources, repos.Policies, provider, nil)
	assert.ErrorIs(t, err, ErrVectorIndexRequired)
}

func TestIngestCreatesSourceWithPolicyDefaults(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()

	result, err := f.pipeline.Ingest(ctx, Input{
		URL:     "https://www.Nyheder.dk/politik/artikel",
		Title:   "Artikel",
		Content: articleText(),
	})
	require.NoError(t, err)

	// Lazily created domain policy carries the safe defaults, and the source
	// snapshots them.
	source := result.Source
	assert.Equal(t, "nyheder.dk", source.Domain)
	assert.True(t, source.AllowIngest)
	assert.True(t, source.AllowStoreSnippet)
	assert.False(t, source.AllowFulltext)
	assert.Equal(t, 240, source.SnippetMaxLen)
	assert.Equal(t, core.TierPublic, source.AccessTier)

	policy, err := f.repos.Policies.GetDomainPolicy(ctx, "nyheder.dk")
	require.NoError(t, err)
	assert.True(t, policy.AllowIngest)
	assert.Equal(t, 240, policy.SnippetMaxLen)

	assert.Greater(t, result.ChunkCount, 0)
	assert.Equal(t, 384, result.VectorDim)
	assert.Equal(t, result.ChunkCount, f.index.Len())
}

func TestIngestIdempotent(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()

	input := Input{URL: "https://nyheder.dk/a", Content: articleText()}

	first, err := f.pipeline.Ingest(ctx, input)
	require.NoError(t, err)
	second, err := f.pipeline.Ingest(ctx, input)
	require.NoError(t, err)

	// Same source identity, same point ids, no duplicate points.
	assert.Equal(t, first.Source.Id, second.Source.Id)
	assert.Equal(t, first.ChunkCount, second.ChunkCount)
	assert.Equal(t, first.ChunkCount, f.index.Len())

	count, err := f.repos.Sources.CountSources(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestIngestBlockedByDomainPolicy(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()

	_, err := f.repos.Policies.UpsertDomainPolicy(ctx, &core.DomainPolicy{
		Domain:        "lukket.dk",
		AllowIngest:   false,
		SnippetMaxLen: 240,
		AccessTier:    core.TierRestricted,
	})
	require.NoError(t, err)

	_, err = f.pipeline.Ingest(ctx, Input{URL: "https://lukket.dk/x", Content: articleText()})
	assert.ErrorIs(t, err, core.ErrPolicyViolation)

	// Nothing written or embedded.
	count, err := f.repos.Sources.CountSources(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Equal(t, 0, f.index.Len())
}

func TestIngestSnippetDisallowedStoresEmptyString(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()

	_, err := f.repos.Policies.UpsertDomainPolicy(ctx, &core.DomainPolicy{
		Domain:            "diskret.dk",
		AllowIngest:       true,
		AllowStoreSnippet: false,
		SnippetMaxLen:     240,
		AccessTier:        core.TierPublic,
	})
	require.NoError(t, err)

	result, err := f.pipeline.Ingest(ctx, Input{URL: "https://diskret.dk/y", Content: articleText()})
	require.NoError(t, err)
	assert.False(t, result.SnippetStored)

	hits, err := f.index.Search(ctx, make([]float32, 384), result.ChunkCount)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	for _, hit := range hits {
		assert.Empty(t, hit.Payload.Snippet)
		assert.NotEmpty(t, hit.Payload.ChunkHash)
		assert.Equal(t, "https://diskret.dk/y", hit.Payload.SourceURL)
	}
}

func TestIngestSnippetCapHonorsDomainPolicy(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()

	_, err := f.repos.Policies.UpsertDomainPolicy(ctx, &core.DomainPolicy{
		Domain:            "kort.dk",
		AllowIngest:       true,
		AllowStoreSnippet: true,
		SnippetMaxLen:     100,
		AccessTier:        core.TierPublic,
	})
	require.NoError(t, err)

	result, err := f.pipeline.Ingest(ctx, Input{URL: "https://kort.dk/z", Content: articleText()})
	require.NoError(t, err)
	assert.Equal(t, 100, result.Source.SnippetMaxLen)

	hits, err := f.index.Search(ctx, make([]float32, 384), result.ChunkCount)
	require.NoError(t, err)
	for _, hit := range hits {
		assert.LessOrEqual(t, len([]rune(hit.Payload.Snippet)), 100)
	}
}

func TestIngestSnippetCapNeverExceedsGlobalMax(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()

	_, err := f.repos.Policies.UpsertDomainPolicy(ctx, &core.DomainPolicy{
		Domain:            "lang.dk",
		AllowIngest:       true,
		AllowStoreSnippet: true,
		SnippetMaxLen:     1000,
		AccessTier:        core.TierPublic,
	})
	require.NoError(t, err)

	result, err := f.pipeline.Ingest(ctx, Input{URL: "https://lang.dk/w", Content: articleText()})
	require.NoError(t, err)
	assert.Equal(t, 240, result.Source.SnippetMaxLen)
}

func TestIngestRejectsShortContent(t *testing.T) {
	f := setupPipeline(t)

	_, err := f.pipeline.Ingest(context.Background(), Input{URL: "https://nyheder.dk/kort", Content: "for kort"})
	assert.ErrorIs(t, err, core.ErrEmptyContent)
}

func TestIngestRequiresURL(t *testing.T) {
	f := setupPipeline(t)

	_, err := f.pipeline.Ingest(context.Background(), Input{Content: articleText()})
	assert.ErrorIs(t, err, ErrURLRequired)
}

func TestIngestEmbeddingMisalignmentFails(t *testing.T) {
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{1, 2, 3}}, nil
	}
	provider := mock.NewMockProviderWithServices(embedder, mock.NewMockStanceExtractor())

	pipeline, err := NewPipeline(repos.Sources, repos.Policies, provider, memory.New())
	require.NoError(t, err)

	// Enough text for several chunks against a single returned vector.
	long := strings.Repeat("x", 1500)
	_, err = pipeline.Ingest(context.Background(), Input{URL: "https://nyheder.dk/m", Content: long})
	assert.ErrorIs(t, err, core.ErrEmbeddingShape)
}

func TestDomainFromURL(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{"https://www.Example.DK/path", "example.dk"},
		{"http://nyheder.dk:8080/x", "nyheder.dk"},
		{"https://sub.domain.dk/", "sub.domain.dk"},
	}
	for _, tt := range tests {
		domain, err := DomainFromURL(tt.url)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, domain)
	}

	_, err := DomainFromURL("not a url")
	assert.Error(t, err)
	_, err = DomainFromURL("/relative/path")
	assert.Error(t, err)
}

func TestPointIDsAreDeterministic(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()

	result, err := f.pipeline.Ingest(ctx, Input{URL: "https://nyheder.dk/d", Content: articleText()})
	require.NoError(t, err)

	hits, err := f.index.Search(ctx, make([]float32, 384), result.ChunkCount)
	require.NoError(t, err)

	expected := make(map[string]bool)
	for i := 0; i < result.ChunkCount; i++ {
		expected[vectorstore.PointID(result.Source.Id, i)] = true
	}
	for _, hit := range hits {
		assert.True(t, expected[hit.ID], "unexpected point id %s", hit.ID)
	}
}
