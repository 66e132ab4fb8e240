package core

import (
	"encoding/hex"
	"time"

	"github.com/go-crypt/x/blake2b"
	"github.com/google/uuid"
)

// ID is a unique identifier for domain entities.
// IDs are random UUID strings, matching the identifiers the surrounding
// application uses when it references politicians, topics, and sources.
type ID string

// NewID generates a new random ID.
func NewID() ID {
	return ID(uuid.NewString())
}

// HashContent computes a deterministic BLAKE2b-256 hex digest of text content.
// Identical content always produces identical digests, which keeps chunk and
// source hashes stable across re-ingestion.
func HashContent(text string) string {
	h, _ := blake2b.New(32, nil)
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// StanceLabel classifies how a statement relates to a topic.
type StanceLabel string

const (
	// StanceFor indicates support for the topic position.
	StanceFor StanceLabel = "for"
	// StanceAgainst indicates opposition to the topic position.
	StanceAgainst StanceLabel = "imod"
	// StanceUnclear indicates the position cannot be determined.
	StanceUnclear StanceLabel = "uklar"
)

// StanceLabels lists every valid stance label.
var StanceLabels = []StanceLabel{StanceFor, StanceAgainst, StanceUnclear}

// IsValidStanceLabel reports whether label belongs to the closed label set.
func IsValidStanceLabel(label StanceLabel) bool {
	for _, l := range StanceLabels {
		if l == label {
			return true
		}
	}
	return false
}

// AccessTier describes how content from a source may be exposed.
type AccessTier string

const (
	TierPublic     AccessTier = "public"
	TierRestricted AccessTier = "restricted"
	TierPaywalled  AccessTier = "paywalled"
)

// DomainPolicy holds per-domain ingestion and retention defaults.
// A policy row is created lazily with safe defaults the first time a source
// from its domain is ingested.
type DomainPolicy struct {
	Id                ID         `json:"id"`
	Domain            string     `json:"domain"`
	AllowIngest       bool       `json:"allow_ingest"`
	AllowStoreSnippet bool       `json:"allow_store_snippet"`
	AllowFulltext     bool       `json:"allow_fulltext"`
	SnippetMaxLen     int        `json:"snippet_max_len"`
	AccessTier        AccessTier `json:"access_tier"`
	InsertedAt        time.Time  `json:"inserted_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// DefaultDomainPolicy returns the safe defaults applied to a previously
// unseen domain: ingest allowed, snippet storage allowed, fulltext disallowed,
// 240-char snippet cap, public tier.
func DefaultDomainPolicy(domain string) *DomainPolicy {
	return &DomainPolicy{
		Domain:            domain,
		AllowIngest:       true,
		AllowStoreSnippet: true,
		AllowFulltext:     false,
		SnippetMaxLen:     240,
		AccessTier:        TierPublic,
	}
}

// Source is a unique (by URL) ingested document. Re-ingesting the same URL
// updates the row in place: same identity, new content hash, refreshed policy
// snapshot.
type Source struct {
	Id                ID                `json:"id"`
	URL               string            `json:"url"`
	Domain            string            `json:"domain"`
	Date              *time.Time        `json:"date,omitempty"`
	Title             string            `json:"title,omitempty"`
	ContentHash       string            `json:"content_hash"`
	Metadata          map[string]string `json:"metadata,omitempty"`
	AllowIngest       bool              `json:"allow_ingest"`
	AllowStoreSnippet bool              `json:"allow_store_snippet"`
	AllowFulltext     bool              `json:"allow_fulltext"`
	SnippetMaxLen     int               `json:"snippet_max_len"`
	AccessTier        AccessTier        `json:"access_tier"`
	InsertedAt        time.Time         `json:"inserted_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// Politician is a lightweight reference entity with a stable id.
type Politician struct {
	Id         ID        `json:"id"`
	Name       string    `json:"name"`
	Party      string    `json:"party,omitempty"`
	Active     bool      `json:"active"`
	InsertedAt time.Time `json:"inserted_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Topic is a lightweight reference entity with a stable id and unique slug.
type Topic struct {
	Id          ID        `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	InsertedAt  time.Time `json:"inserted_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Statement is an immutable record of one extracted claim.
// Statements are never updated after creation.
type Statement struct {
	Id            ID          `json:"id"`
	PoliticianId  ID          `json:"politician_id"`
	TopicId       ID          `json:"topic_id"`
	SourceId      ID          `json:"source_id"`
	SourceURL     string      `json:"source_url"`
	ClaimSummary  string      `json:"claim_summary"`
	StanceLabel   StanceLabel `json:"stance_label"`
	StanceScore   float64     `json:"stance_score"`
	Confidence    float64     `json:"confidence"`
	EvidenceQuote string      `json:"evidence_quote"`
	Query         string      `json:"query"`
	PromptVersion string      `json:"prompt_version"`
	InsertedAt    time.Time   `json:"inserted_at"`
}

// StanceChange links two statements for the same (politician, topic) pair
// whose score delta crossed the reconciliation threshold.
type StanceChange struct {
	Id              ID        `json:"id"`
	PoliticianId    ID        `json:"politician_id"`
	TopicId         ID        `json:"topic_id"`
	FromStatementId ID        `json:"from_statement_id"`
	ToStatementId   ID        `json:"to_statement_id"`
	DeltaScore      float64   `json:"delta_score"`
	Note            string    `json:"note,omitempty"`
	InsertedAt      time.Time `json:"inserted_at"`
}

// StatementOutput is the structured value a generative model must return for
// one stance extraction. It is validated against the closed output schema
// before any statement is persisted.
type StatementOutput struct {
	ClaimSummary  string      `json:"claim_summary"`
	StanceLabel   StanceLabel `json:"stance_label"`
	StanceScore   float64     `json:"stance_score"`
	Confidence    float64     `json:"confidence"`
	EvidenceQuote string      `json:"evidence_quote"`
}
