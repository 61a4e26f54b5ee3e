package app

import (
	"fmt"

	"github.com/vendora/backend/config"
	"github.com/vendora/backend/internal/domain"
	"github.com/vendora/backend/internal/infrastructure/auth"
	"github.com/vendora/backend/internal/infrastructure/cache"
	"github.com/vendora/backend/internal/platform/logger"
	"github.com/vendora/backend/internal/platform/metrics"
	"github.com/vendora/backend/internal/usecase"
)

type Services struct {
	Brands      *usecase.BrandExtractor
	BrandCache  *cache.BrandCache // nil when caching is off
	Matcher     *usecase.MatchingService
	Feedback    *usecase.FeedbackService
	Suggestions *usecase.SuggestionService
	AutoLink    *usecase.AutoLinkService
	Catalog     *usecase.CatalogService
	Tokens      *auth.TokenService
	Identities  *auth.IdentityResolver
}

// openCache returns nil for cache type "none"
func openCache(cfg config.CacheConfig, log *logger.Logger) (domain.CacheRepository, func() error, error) {
	switch cfg.Type {
	case "memory":
		c := cache.NewMemoryCache()
		return c, c.Close, nil
	case "redis":
		c, err := cache.NewRedisCache(cfg.RedisURL, log)
		if err != nil {
			return nil, nil, fmt.Errorf("init redis cache: %w", err)
		}
		return c, c.Close, nil
	case "none", "":
		return nil, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache type %q", cfg.Type)
	}
}

func wireServices(cfg *config.Config, log *logger.Logger, m *metrics.Metrics, repos Repos, cacheRepo domain.CacheRepository) Services {
	log.Info("Wiring services...")

	var (
		brandLookup domain.BrandLookup      = repos.Brands
		candidates  domain.CandidateSource  = repos.Candidates
		invalidator domain.CandidateInvalidator
		brandCache  *cache.BrandCache
	)
	if cacheRepo != nil {
		brandCache = cache.NewBrandCache(repos.Brands, cacheRepo, cfg.Cache.TTL, log)
		brandLookup = brandCache
		candidateCache := cache.NewCandidateCache(repos.Candidates, cacheRepo, cfg.Cache.TTL, log, m)
		candidates = candidateCache
		invalidator = candidateCache
	}

	brands := usecase.NewBrandExtractor(brandLookup)
	matcher := usecase.NewMatchingService(candidates, brands, log, usecase.MatchConfig{
		MaxCandidates:      cfg.Matching.MaxCandidates,
		EnableDebugLogging: cfg.Server.Environment == "development",
	})
	feedback := usecase.NewFeedbackService(repos.Feedback, log, m)

	suggestions := usecase.NewSuggestionService(matcher, repos.Offers, repos.Vendors, log, m, usecase.SuggestionServiceConfig{
		Threshold:         cfg.Matching.SuggestThreshold,
		DefaultLimit:      cfg.Matching.SuggestLimit,
		MaxLimit:          cfg.Matching.MaxSuggestLimit,
		MinQueryLength:    cfg.Matching.MinQueryLength,
		EnrichConcurrency: cfg.Matching.EnrichConcurrency,
		AdminSellerName:   cfg.Matching.AdminSellerName,
	})

	autoLink := usecase.NewAutoLinkService(usecase.AutoLinkDeps{
		Transactor:  repos.Tx,
		Catalog:     repos.Catalog,
		Categories:  repos.Categories,
		Offers:      repos.Offers,
		Indexer:     usecase.NewKeywordIndexer(repos.Keywords),
		Brands:      brands,
		Matcher:     matcher,
		Feedback:    feedback,
		Invalidator: invalidator,
		Metrics:     m,
	}, log, usecase.AutoLinkConfig{
		Threshold:     cfg.Matching.AutoLinkThreshold,
		Transactional: cfg.Matching.TransactionalLink,
	})

	catalog := usecase.NewCatalogService(repos.Catalog, repos.Keywords, repos.Categories, repos.Offers, cacheRepo, log,
		usecase.CatalogServiceConfig{CacheTTL: cfg.Cache.TTL})

	return Services{
		Brands:      brands,
		BrandCache:  brandCache,
		Matcher:     matcher,
		Feedback:    feedback,
		Suggestions: suggestions,
		AutoLink:    autoLink,
		Catalog:     catalog,
		Tokens:      auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL),
		Identities:  auth.NewIdentityResolver(repos.Profiles, repos.Vendors, log),
	}
}
