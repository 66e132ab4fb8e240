package ingest

import "errors"

var (
	// ErrSourceRepositoryRequired is returned when a source repository is not provided.
	ErrSourceRepositoryRequired = errors.New("source repository required")

	// ErrPolicyRepositoryRequired is returned when a policy repository is not provided.
	ErrPolicyRepositoryRequired = errors.New("policy repository required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrVectorIndexRequired is returned when a vector index is not provided.
	ErrVectorIndexRequired = errors.New("vector index required")

	// ErrURLRequired is returned when an ingest input has no URL.
	ErrURLRequired = errors.New("source url required")
)
