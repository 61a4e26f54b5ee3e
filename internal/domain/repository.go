package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Incr(ctx context.Context, key string) (int64, error)
}

// Transactor runs fn inside a datastore transaction. Repositories called with
// the ctx passed to fn take part in that transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// CatalogRepository persists catalog entries
type CatalogRepository interface {
	Create(ctx context.Context, entry *CatalogEntry) error
	GetByID(ctx context.Context, id uuid.UUID) (*CatalogEntry, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]CatalogEntry, error)
}

// KeywordRepository persists the keyword index of catalog entries
type KeywordRepository interface {
	CreateBatch(ctx context.Context, rows []KeywordEntry) error
	GetByCatalogIDs(ctx context.Context, catalogIDs []uuid.UUID) (map[uuid.UUID][]KeywordEntry, error)
}

// CandidateSource finds catalog entries whose keywords intersect tokens.
type CandidateSource interface {
	FindCandidates(ctx context.Context, tokens []string, categoryID *uuid.UUID, limit int) ([]Candidate, error)
}

// CandidateInvalidator is implemented by candidate sources that hold derived
// state which must be dropped after catalog or keyword writes.
type CandidateInvalidator interface {
	Invalidate(ctx context.Context) error
}

// OfferRepository persists product offers
type OfferRepository interface {
	Create(ctx context.Context, offer *ProductOffer) error
	ListActiveByCatalogID(ctx context.Context, catalogID uuid.UUID) ([]ProductOffer, error)
}

// FeedbackRepository is the append-only match feedback log
type FeedbackRepository interface {
	Append(ctx context.Context, fb *MatchFeedback) error
	ListSince(ctx context.Context, since time.Time) ([]MatchFeedback, error)
}

// BrandLookup provides the brand reference set
type BrandLookup interface {
	KnownBrands(ctx context.Context) ([]string, error)
}

// BrandRepository stores the brand reference set
type BrandRepository interface {
	BrandLookup
	Upsert(ctx context.Context, names []string) (int, error)
}

// CategoryRepository reads categories
type CategoryRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Category, error)
}

// VendorRepository reads vendors
type VendorRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Vendor, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Vendor, error)
}

// ProfileRepository reads the role column of a user
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error)
}
