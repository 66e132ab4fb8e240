package analysis

import (
	"fmt"
	"strings"

	"github.com/poiesic/stancewatch/core"
	"github.com/poiesic/stancewatch/vectorstore"
)

// Evidence is one ranked retrieval hit shaped for prompting and matching.
// Missing payload fields default to the empty string.
type Evidence struct {
	Rank      int    `json:"rank"`
	Snippet   string `json:"snippet"`
	SourceURL string `json:"source_url"`
	Domain    string `json:"domain"`
}

// ShapeEvidence numbers search hits with 1-based ranks and extracts the
// prompt-relevant payload fields.
func ShapeEvidence(hits []vectorstore.ScoredPoint) []Evidence {
	evidence := make([]Evidence, len(hits))
	for i, hit := range hits {
		evidence[i] = Evidence{
			Rank:      i + 1,
			Snippet:   hit.Payload.Snippet,
			SourceURL: hit.Payload.SourceURL,
			Domain:    hit.Payload.Domain,
		}
	}
	return evidence
}

// matchEvidence attributes a generated evidence quote to one retrieved item:
// the first item whose snippet contains the leading matchLen characters of
// the quote, falling back to the top-ranked item when nothing matches. The
// substring heuristic is a deliberate approximation; the fallback rule is the
// only guaranteed behavior.
func matchEvidence(evidence []Evidence, quote string, matchLen int) (Evidence, error) {
	if len(evidence) == 0 {
		return Evidence{}, fmt.Errorf("%w: retrieval returned no evidence", core.ErrEvidenceNotFound)
	}

	if quote != "" {
		prefix := quote
		if runes := []rune(quote); len(runes) > matchLen {
			prefix = string(runes[:matchLen])
		}
		for _, e := range evidence {
			if strings.Contains(e.Snippet, prefix) {
				return e, nil
			}
		}
	}

	return evidence[0], nil
}
