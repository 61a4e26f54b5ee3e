package usecase

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vendora/backend/internal/domain"
	"github.com/vendora/backend/internal/platform/logger"
	"github.com/vendora/backend/internal/platform/metrics"
)

// SimilarityFinder ranks catalog entries against a product name
type SimilarityFinder interface {
	FindSimilar(ctx context.Context, productName string, categoryID *uuid.UUID, threshold float64) ([]domain.MatchSuggestion, error)
}

// SuggestionServiceConfig holds configuration for the suggestion service
type SuggestionServiceConfig struct {
	Threshold         float64
	DefaultLimit      int
	MaxLimit          int
	MinQueryLength    int
	EnrichConcurrency int
	AdminSellerName   string
}

// SuggestionService serves interactive catalog suggestions
type SuggestionService struct {
	matcher SimilarityFinder
	offers  domain.OfferRepository
	vendors domain.VendorRepository
	config  SuggestionServiceConfig
	log     *logger.Logger
	metrics *metrics.Metrics
}

// NewSuggestionService creates a new suggestion service with dependencies
func NewSuggestionService(
	matcher SimilarityFinder,
	offers domain.OfferRepository,
	vendors domain.VendorRepository,
	log *logger.Logger,
	m *metrics.Metrics,
	config SuggestionServiceConfig,
) *SuggestionService {
	if config.Threshold <= 0 {
		config.Threshold = 0.5
	}
	if config.DefaultLimit <= 0 {
		config.DefaultLimit = 5
	}
	if config.MaxLimit <= 0 {
		config.MaxLimit = 20
	}
	if config.MinQueryLength <= 0 {
		config.MinQueryLength = 3
	}
	if config.EnrichConcurrency <= 0 {
		config.EnrichConcurrency = 4
	}

	return &SuggestionService{
		matcher: matcher,
		offers:  offers,
		vendors: vendors,
		config:  config,
		log:     log.With("component", "suggestions"),
		metrics: m,
	}
}

// Suggest returns up to limit enriched suggestions for query.
// Flow: length floor -> match at the suggest threshold -> enrich each result
//
// Matcher failures degrade to an empty result; the error return is reserved
// for callers that need to tell cancellation apart.
func (s *SuggestionService) Suggest(
	ctx context.Context,
	query string,
	categoryID *uuid.UUID,
	limit int,
) (*domain.SuggestResult, error) {
	query = strings.TrimSpace(query)
	result := &domain.SuggestResult{
		Suggestions: []domain.MatchSuggestion{},
		Query:       query,
	}

	if utf8.RuneCountInString(query) < s.config.MinQueryLength {
		s.metrics.ObserveSuggest("short")
		return result, nil
	}

	limit = s.clampLimit(limit)

	matches, err := s.matcher.FindSimilar(ctx, query, categoryID, s.config.Threshold)
	if err != nil {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		s.log.Warn("suggestion lookup failed", "query", query, "error", err)
		s.metrics.ObserveSuggest("error")
		return result, nil
	}

	if len(matches) > limit {
		matches = matches[:limit]
	}
	if len(matches) == 0 {
		s.metrics.ObserveSuggest("empty")
		return result, nil
	}
	s.metrics.ObserveTopConfidence("suggest", matches[0].Confidence)

	s.enrich(ctx, matches)

	result.Suggestions = matches
	result.HasMatches = true
	s.metrics.ObserveSuggest("ok")
	return result, nil
}

func (s *SuggestionService) clampLimit(limit int) int {
	if limit <= 0 {
		return s.config.DefaultLimit
	}
	if limit > s.config.MaxLimit {
		return s.config.MaxLimit
	}
	return limit
}

// enrich fills price, vendor count and vendor name for each suggestion in
// place. Failures leave the fields at their zero values.
func (s *SuggestionService) enrich(ctx context.Context, suggestions []domain.MatchSuggestion) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.EnrichConcurrency)

	for i := range suggestions {
		sug := &suggestions[i]
		g.Go(func() error {
			s.enrichOne(gctx, sug)
			return nil
		})
	}
	_ = g.Wait()
}

func (s *SuggestionService) enrichOne(ctx context.Context, sug *domain.MatchSuggestion) {
	offers, err := s.offers.ListActiveByCatalogID(ctx, sug.CatalogID)
	if err != nil {
		s.log.Warn("offer enrichment failed", "catalogId", sug.CatalogID, "error", err)
		return
	}

	sug.VendorCount = len(offers)
	best := bestOffer(offers)
	if best == nil {
		return
	}
	price := best.Price
	sug.BestPrice = &price

	if best.VendorID == nil {
		name := s.config.AdminSellerName
		sug.BestVendorName = &name
		return
	}

	vendor, err := s.vendors.GetByID(ctx, *best.VendorID)
	if err != nil {
		s.log.Warn("vendor enrichment failed", "catalogId", sug.CatalogID, "vendorId", *best.VendorID, "error", err)
		return
	}
	name := vendor.BusinessName
	sug.BestVendorName = &name
}

// bestOffer is the cheapest offer; the earliest created wins a price tie
func bestOffer(offers []domain.ProductOffer) *domain.ProductOffer {
	var best *domain.ProductOffer
	for i := range offers {
		o := &offers[i]
		if best == nil {
			best = o
			continue
		}
		switch cmp := o.Price.Cmp(best.Price); {
		case cmp < 0:
			best = o
		case cmp == 0 && o.CreatedAt.Before(best.CreatedAt):
			best = o
		}
	}
	return best
}
