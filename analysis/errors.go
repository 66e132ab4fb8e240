package analysis

import "errors"

var (
	// ErrReferenceRepositoryRequired is returned when a reference repository is not provided.
	ErrReferenceRepositoryRequired = errors.New("reference repository required")

	// ErrSourceRepositoryRequired is returned when a source repository is not provided.
	ErrSourceRepositoryRequired = errors.New("source repository required")

	// ErrStatementRepositoryRequired is returned when a statement repository is not provided.
	ErrStatementRepositoryRequired = errors.New("statement repository required")

	// ErrChangeRepositoryRequired is returned when a stance change repository is not provided.
	ErrChangeRepositoryRequired = errors.New("stance change repository required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrVectorIndexRequired is returned when a vector index is not provided.
	ErrVectorIndexRequired = errors.New("vector index required")

	// ErrQueryRequired is returned when an analyze call has an empty query.
	ErrQueryRequired = errors.New("query required")
)
