package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/stancewatch/core"
	"github.com/poiesic/stancewatch/storage"
)

// PolicyRepository implements storage.PolicyRepository for BadgerDB.
// Domain policies are keyed directly by domain name.
type PolicyRepository struct {
	backend *Backend
}

var _ storage.PolicyRepository = (*PolicyRepository)(nil)

// NewPolicyRepository creates a new PolicyRepository.
func NewPolicyRepository(backend *Backend) (*PolicyRepository, error) {
	return &PolicyRepository{backend: backend}, nil
}

// Close releases resources. PolicyRepository has no resources to release.
func (r *PolicyRepository) Close() error {
	return nil
}

// GetDomainPolicy retrieves the policy row for a domain.
func (r *PolicyRepository) GetDomainPolicy(ctx context.Context, domain string) (*core.DomainPolicy, error) {
	var result core.DomainPolicy
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		found, err := readValue(tx, makeLookupKey(domainPolicyPrefix, domain), &result)
		if err != nil {
			return err
		}
		if !found {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetOrCreateDomainPolicy retrieves the policy for a domain, lazily inserting
// the safe defaults the first time the domain is seen.
func (r *PolicyRepository) GetOrCreateDomainPolicy(ctx context.Context, domain string) (*core.DomainPolicy, error) {
	policy, err := r.GetDomainPolicy(ctx, domain)
	if err == nil {
		return policy, nil
	}
	if err != storage.ErrNotFound {
		return nil, err
	}

	created := core.DefaultDomainPolicy(domain)
	return r.UpsertDomainPolicy(ctx, created)
}

// UpsertDomainPolicy inserts or replaces the policy row for its domain.
func (r *PolicyRepository) UpsertDomainPolicy(ctx context.Context, policy *core.DomainPolicy) (*core.DomainPolicy, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		key := makeLookupKey(domainPolicyPrefix, policy.Domain)

		var old core.DomainPolicy
		found, err := readValue(tx, key, &old)
		if err != nil {
			return err
		}
		if found {
			policy.Id = old.Id
			policy.InsertedAt = old.InsertedAt
		} else {
			if policy.Id == "" {
				policy.Id = core.NewID()
			}
			policy.InsertedAt = now
		}
		policy.UpdatedAt = now

		if err := setValue(tx, key, policy); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return policy, nil
}
