package analysis

import (
	"strings"
	"testing"

	"github.com/poiesic/stancewatch/core"
	"github.com/poiesic/stancewatch/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeEvidenceRanksAndDefaults(t *testing.T) {
	hits := []vectorstore.ScoredPoint{
		{ID: "a-0", Score: 0.9, Payload: vectorstore.Payload{Snippet: "s1", SourceURL: "https://a.dk", Domain: "a.dk"}},
		{ID: "a-1", Score: 0.8},
	}

	evidence := ShapeEvidence(hits)
	require.Len(t, evidence, 2)
	assert.Equal(t, 1, evidence[0].Rank)
	assert.Equal(t, 2, evidence[1].Rank)
	assert.Equal(t, "s1", evidence[0].Snippet)
	// Absent payload fields come through as empty strings.
	assert.Equal(t, "", evidence[1].Snippet)
	assert.Equal(t, "", evidence[1].SourceURL)
	assert.Equal(t, "", evidence[1].Domain)
}

func TestMatchEvidencePrefixHit(t *testing.T) {
	evidence := []Evidence{
		{Rank: 1, Snippet: "noget helt andet indhold"},
		{Rank: 2, Snippet: "ministeren sagde at forslaget bliver vedtaget i næste uge"},
	}

	matched, err := matchEvidence(evidence, "ministeren sagde at forslaget", DefaultEvidenceMatchLen)
	require.NoError(t, err)
	assert.Equal(t, 2, matched.Rank)
}

func TestMatchEvidenceTruncatesLongQuote(t *testing.T) {
	snippet := strings.Repeat("a", 10) + strings.Repeat("b", 100)
	evidence := []Evidence{{Rank: 1, Snippet: snippet}}

	// The quote diverges from the snippet after the match window, so only the
	// leading prefix decides.
	quote := snippet[:DefaultEvidenceMatchLen] + "DIVERGES HERE"
	matched, err := matchEvidence(evidence, quote, DefaultEvidenceMatchLen)
	require.NoError(t, err)
	assert.Equal(t, 1, matched.Rank)
}

func TestMatchEvidenceFallsBackToTopRank(t *testing.T) {
	evidence := []Evidence{
		{Rank: 1, Snippet: "øverste uddrag"},
		{Rank: 2, Snippet: "andet uddrag"},
	}

	matched, err := matchEvidence(evidence, "citat der ikke findes i noget uddrag", DefaultEvidenceMatchLen)
	require.NoError(t, err)
	assert.Equal(t, 1, matched.Rank)
}

func TestMatchEvidenceEmptyQuoteUsesTopRank(t *testing.T) {
	evidence := []Evidence{
		{Rank: 1, Snippet: "øverste uddrag"},
		{Rank: 2, Snippet: "andet uddrag"},
	}

	matched, err := matchEvidence(evidence, "", DefaultEvidenceMatchLen)
	require.NoError(t, err)
	assert.Equal(t, 1, matched.Rank)
}

func TestMatchEvidenceNoEvidence(t *testing.T) {
	_, err := matchEvidence(nil, "citat", DefaultEvidenceMatchLen)
	assert.ErrorIs(t, err, core.ErrEvidenceNotFound)
}
