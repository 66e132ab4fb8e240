package storage

import (
	"context"
	"time"

	"github.com/poiesic/stancewatch/core"
)

// SourceFilter narrows and pages a source listing.
type SourceFilter struct {
	// Domain filters on exact domain match when non-empty.
	Domain string
	// URLContains filters on URL substring when non-empty.
	URLContains string
	// Page is 1-based; values below 1 are treated as 1.
	Page int
	// PageSize caps the page; values outside [1, 100] are clamped.
	PageSize int
}

// PolicyPatch carries optional policy field overrides for a source.
// Nil fields are left unchanged.
type PolicyPatch struct {
	AllowIngest       *bool
	AllowStoreSnippet *bool
	AllowFulltext     *bool
	SnippetMaxLen     *int
	AccessTier        *core.AccessTier
}

// StatementFilter narrows a statement timeline query.
type StatementFilter struct {
	// PoliticianId filters on politician when non-empty.
	PoliticianId core.ID
	// TopicId filters on topic when non-empty.
	TopicId core.ID
	// Limit caps the result; values below 1 fall back to the default cap.
	Limit int
}

// SourceRepository provides operations for managing ingested sources.
// Implementations must be thread-safe and support concurrent access.
type SourceRepository interface {
	// UpsertSource inserts a source or, when a row with the same URL exists,
	// updates that row in place keeping its identity. Timestamps are
	// maintained automatically. Returns the stored source.
	UpsertSource(ctx context.Context, source *core.Source) (*core.Source, error)

	// GetSource retrieves a source by id. Returns ErrNotFound if absent.
	GetSource(ctx context.Context, id core.ID) (*core.Source, error)

	// GetSourceByURL retrieves a source by its unique URL.
	// Returns ErrNotFound if absent.
	GetSourceByURL(ctx context.Context, url string) (*core.Source, error)

	// ListSources returns one page of sources, newest first, plus the total
	// number of sources matching the filter.
	ListSources(ctx context.Context, filter SourceFilter) ([]*core.Source, int, error)

	// UpdateSourcePolicy applies a policy patch to a source and returns the
	// updated row. Returns ErrNotFound if the source is absent.
	UpdateSourcePolicy(ctx context.Context, id core.ID, patch PolicyPatch) (*core.Source, error)

	// CountSources returns the total number of sources.
	CountSources(ctx context.Context) (int, error)

	// LatestSourceTime returns the creation time of the most recent source,
	// or the zero time when there are none.
	LatestSourceTime(ctx context.Context) (time.Time, error)

	// Close releases resources held by the repository.
	Close() error
}

// PolicyRepository provides operations for per-domain ingestion policies.
type PolicyRepository interface {
	// GetDomainPolicy retrieves the policy for a domain.
	// Returns ErrNotFound if absent.
	GetDomainPolicy(ctx context.Context, domain string) (*core.DomainPolicy, error)

	// GetOrCreateDomainPolicy retrieves the policy for a domain, inserting a
	// new row with safe defaults when the domain has never been seen.
	GetOrCreateDomainPolicy(ctx context.Context, domain string) (*core.DomainPolicy, error)

	// UpsertDomainPolicy inserts or replaces the policy for its domain,
	// keeping the existing row identity when present.
	UpsertDomainPolicy(ctx context.Context, policy *core.DomainPolicy) (*core.DomainPolicy, error)

	// Close releases resources held by the repository.
	Close() error
}

// ReferenceRepository provides operations for the politician and topic
// reference entities.
type ReferenceRepository interface {
	// AddPolitician inserts a politician, generating its id.
	AddPolitician(ctx context.Context, politician *core.Politician) (*core.Politician, error)

	// UpdatePolitician updates an existing politician.
	// Returns ErrNotFound if absent.
	UpdatePolitician(ctx context.Context, politician *core.Politician) (*core.Politician, error)

	// GetPolitician retrieves a politician by id.
	// Returns ErrNotFound if absent.
	GetPolitician(ctx context.Context, id core.ID) (*core.Politician, error)

	// ListPoliticians returns all politicians ordered by name.
	ListPoliticians(ctx context.Context) ([]*core.Politician, error)

	// AddTopic inserts a topic, generating its id. The slug must be unique;
	// returns ErrDuplicateKey otherwise.
	AddTopic(ctx context.Context, topic *core.Topic) (*core.Topic, error)

	// UpdateTopic updates an existing topic. Returns ErrNotFound if absent.
	UpdateTopic(ctx context.Context, topic *core.Topic) (*core.Topic, error)

	// GetTopic retrieves a topic by id. Returns ErrNotFound if absent.
	GetTopic(ctx context.Context, id core.ID) (*core.Topic, error)

	// GetTopicBySlug retrieves a topic by its unique slug.
	// Returns ErrNotFound if absent.
	GetTopicBySlug(ctx context.Context, slug string) (*core.Topic, error)

	// ListTopics returns all topics ordered by name.
	ListTopics(ctx context.Context) ([]*core.Topic, error)

	// Close releases resources held by the repository.
	Close() error
}

// StatementRepository provides operations for immutable statements.
type StatementRepository interface {
	// AddStatement inserts a statement, generating its id and creation time.
	// Statements are never updated afterwards.
	AddStatement(ctx context.Context, statement *core.Statement) (*core.Statement, error)

	// GetStatement retrieves a statement by id. Returns ErrNotFound if absent.
	GetStatement(ctx context.Context, id core.ID) (*core.Statement, error)

	// LatestStatement returns the most recently created statement for the
	// (politician, topic) pair, excluding the statement with the exclude id.
	// Returns ErrNotFound when no prior statement exists.
	LatestStatement(ctx context.Context, politicianID, topicID, exclude core.ID) (*core.Statement, error)

	// ListStatements returns statements matching the filter, newest first.
	ListStatements(ctx context.Context, filter StatementFilter) ([]*core.Statement, error)

	// CountStatements returns the total number of statements.
	CountStatements(ctx context.Context) (int, error)

	// LatestStatementTime returns the creation time of the most recent
	// statement, or the zero time when there are none.
	LatestStatementTime(ctx context.Context) (time.Time, error)

	// Close releases resources held by the repository.
	Close() error
}

// StanceChangeRepository provides operations for derived stance changes.
type StanceChangeRepository interface {
	// AddStanceChange inserts a stance change, generating its id and
	// creation time.
	AddStanceChange(ctx context.Context, change *core.StanceChange) (*core.StanceChange, error)

	// ListStanceChanges returns changes for a (politician, topic) pair,
	// newest first. Empty ids match everything.
	ListStanceChanges(ctx context.Context, politicianID, topicID core.ID) ([]*core.StanceChange, error)

	// CountStanceChanges returns the total number of stance changes.
	CountStanceChanges(ctx context.Context) (int, error)

	// Close releases resources held by the repository.
	Close() error
}
