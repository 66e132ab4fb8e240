// Package mock provides test double implementations of the AI service
// interfaces.
//
// The mocks allow tests to run without external AI services and enable
// controlled, deterministic behavior:
//
//   - MockEmbedder: returns deterministic vectors based on text hash
//   - MockStanceExtractor: returns a fixed, schema-valid statement output
//   - MockProvider: aggregates mock embedder and extractor
//
// Custom behavior is injected through function fields:
//
//	embedder := mock.NewMockEmbedder()
//	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
//	    return nil, core.ErrUpstreamTimeout
//	}
package mock
