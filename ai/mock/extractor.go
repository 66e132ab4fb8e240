package mock

import (
	"context"
	"encoding/json"

	"github.com/poiesic/stancewatch/ai"
	"github.com/poiesic/stancewatch/core"
)

// MockStanceExtractor is a test double for ai.StanceExtractor.
// It allows custom behavior injection via function fields.
type MockStanceExtractor struct {
	// ExtractStatementFunc is called by ExtractStatement if set.
	// If nil, uses the default fixed output.
	ExtractStatementFunc func(ctx context.Context, prompt string) (*ai.Extraction, error)

	// Output overrides the default structured output when
	// ExtractStatementFunc is nil.
	Output *core.StatementOutput

	callCount int
}

// NewMockStanceExtractor creates a mock extractor with default behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockStanceExtractor() *MockStanceExtractor {
	return &MockStanceExtractor{}
}

// ExtractStatement returns a schema-valid statement output.
// Default behavior: an unclear stance with a neutral score, with the raw text
// set to the JSON serialization of the output so raw/parsed stay consistent.
func (m *MockStanceExtractor) ExtractStatement(ctx context.Context, prompt string) (*ai.Extraction, error) {
	m.callCount++

	if m.ExtractStatementFunc != nil {
		return m.ExtractStatementFunc(ctx, prompt)
	}

	output := m.Output
	if output == nil {
		output = &core.StatementOutput{
			ClaimSummary:  "mock claim summary",
			StanceLabel:   core.StanceUnclear,
			StanceScore:   0,
			Confidence:    0.5,
			EvidenceQuote: "",
		}
	}

	raw, err := json.Marshal(output)
	if err != nil {
		return nil, err
	}

	return &ai.Extraction{Output: output, Raw: string(raw)}, nil
}

// CallCount returns the number of times ExtractStatement was called.
func (m *MockStanceExtractor) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom behavior.
func (m *MockStanceExtractor) Reset() {
	m.callCount = 0
	m.ExtractStatementFunc = nil
	m.Output = nil
}
