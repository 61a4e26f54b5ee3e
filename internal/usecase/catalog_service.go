package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vendora/backend/internal/domain"
	"github.com/vendora/backend/internal/platform/logger"
)

// CatalogServiceConfig holds configuration for the catalog read service
type CatalogServiceConfig struct {
	CacheTTL time.Duration
}

// CatalogService reads one catalog entry with its keywords and offer summary.
// Entry and keywords are written once at creation and are served through the
// cache; offers change on every link and are always read fresh.
type CatalogService struct {
	catalog    domain.CatalogRepository
	keywords   domain.KeywordRepository
	categories domain.CategoryRepository
	offers     domain.OfferRepository
	cache      domain.CacheRepository // optional
	log        *logger.Logger
	cacheTTL   time.Duration
}

// cachedEntry is the immutable part of a CatalogDetail.
type cachedEntry struct {
	Entry        domain.CatalogEntry   `json:"entry"`
	CategoryName string                `json:"categoryName"`
	Keywords     []domain.KeywordEntry `json:"keywords"`
}

// NewCatalogService creates a catalog read service. cache may be nil.
func NewCatalogService(
	catalog domain.CatalogRepository,
	keywords domain.KeywordRepository,
	categories domain.CategoryRepository,
	offers domain.OfferRepository,
	cache domain.CacheRepository,
	log *logger.Logger,
	config CatalogServiceConfig,
) *CatalogService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = time.Hour
	}

	return &CatalogService{
		catalog:    catalog,
		keywords:   keywords,
		categories: categories,
		offers:     offers,
		cache:      cache,
		log:        log.With("component", "catalog"),
		cacheTTL:   cacheTTL,
	}
}

// Get returns the entry with id or a NotFound error.
func (s *CatalogService) Get(ctx context.Context, id uuid.UUID) (*domain.CatalogDetail, error) {
	key := "catalog:" + id.String()

	base, err := s.getFromCache(ctx, key)
	if err != nil {
		base, err = s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := s.setInCache(ctx, key, base); err != nil {
			s.log.Warn("catalog cache write failed", "catalogId", id, "error", err)
		}
	}

	detail := &domain.CatalogDetail{
		Entry:        base.Entry,
		CategoryName: base.CategoryName,
		Keywords:     base.Keywords,
	}

	offers, err := s.offers.ListActiveByCatalogID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	detail.OfferCount = len(offers)
	if best := bestOffer(offers); best != nil {
		b := *best
		detail.BestOffer = &b
	}
	return detail, nil
}

func (s *CatalogService) load(ctx context.Context, id uuid.UUID) (*cachedEntry, error) {
	entry, err := s.catalog.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	byCatalog, err := s.keywords.GetByCatalogIDs(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, fmt.Errorf("load keywords: %w", err)
	}
	keywords := byCatalog[id]
	if keywords == nil {
		keywords = []domain.KeywordEntry{}
	}

	base := &cachedEntry{Entry: *entry, Keywords: keywords}

	category, err := s.categories.GetByID(ctx, entry.CategoryID)
	switch {
	case err == nil:
		base.CategoryName = category.Name
	case errors.Is(err, domain.ErrNotFound):
		s.log.Warn("catalog entry references missing category", "catalogId", id, "categoryId", entry.CategoryID)
	default:
		return nil, fmt.Errorf("load category: %w", err)
	}
	return base, nil
}

// getFromCache retrieves the immutable part of an entry from cache
func (s *CatalogService) getFromCache(ctx context.Context, key string) (*cachedEntry, error) {
	if s.cache == nil {
		return nil, domain.ErrCacheMiss
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var base cachedEntry
	if err := json.Unmarshal(raw, &base); err != nil {
		return nil, err
	}
	return &base, nil
}

// setInCache stores the immutable part of an entry
func (s *CatalogService) setInCache(ctx context.Context, key string, base *cachedEntry) error {
	if s.cache == nil {
		return nil
	}
	raw, err := json.Marshal(base)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, key, raw, s.cacheTTL)
}
