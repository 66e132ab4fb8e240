package badger

import "github.com/poiesic/stancewatch/storage"

// Repositories bundles every repository sharing one backend.
type Repositories struct {
	Sources    storage.SourceRepository
	Policies   storage.PolicyRepository
	References storage.ReferenceRepository
	Statements storage.StatementRepository
	Changes    storage.StanceChangeRepository

	backend *Backend
}

// OpenRepositories opens a backend at path (or in memory) and wires every
// repository on top of it. The caller owns the bundle and must Close it.
func OpenRepositories(path string, inMemory bool) (*Repositories, error) {
	backend, err := OpenBackend(path, inMemory)
	if err != nil {
		return nil, err
	}

	sources, err := NewSourceRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	policies, err := NewPolicyRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	references, err := NewReferenceRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	statements, err := NewStatementRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	changes, err := NewStanceChangeRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &Repositories{
		Sources:    sources,
		Policies:   policies,
		References: references,
		Statements: statements,
		Changes:    changes,
		backend:    backend,
	}, nil
}

// Close closes every repository and the shared backend.
func (r *Repositories) Close() error {
	r.Sources.Close()
	r.Policies.Close()
	r.References.Close()
	r.Statements.Close()
	r.Changes.Close()
	return r.backend.Close()
}
