package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/google/uuid"

	"github.com/vendora/backend/internal/domain"
	"github.com/vendora/backend/internal/platform/logger"
)

// Score composition
const (
	overlapFactor    = 0.55 // weighted keyword overlap
	similarityFactor = 0.30 // character trigram similarity of the names
	brandMatchBonus  = 0.15 // both sides name the same brand

	// Without brand evidence either way the base is rescaled to the full range
	unknownBrandScale = overlapFactor + similarityFactor

	defaultMaxCandidates = 200
	trigramSize          = 3
)

// Reason thresholds
const (
	highOverlapThreshold    = 0.6
	partialOverlapThreshold = 0.3
	similarNameThreshold    = 0.6
)

// Match reasons reported with each suggestion
const (
	ReasonExactName      = "exact name match"
	ReasonBrand          = "brand match"
	ReasonHighOverlap    = "high keyword overlap"
	ReasonPartialOverlap = "partial keyword overlap"
	ReasonSimilarName    = "similar name"
)

type brandSignal int

const (
	brandUnknown brandSignal = iota
	brandMatch
	brandMismatch
)

func (b brandSignal) String() string {
	switch b {
	case brandMatch:
		return "match"
	case brandMismatch:
		return "mismatch"
	default:
		return "unknown"
	}
}

// MatchConfig holds configuration for the matching service
type MatchConfig struct {
	MaxCandidates      int
	EnableDebugLogging bool
}

// MatchingService scores catalog entries against free-text product names
type MatchingService struct {
	candidates         domain.CandidateSource
	brands             *BrandExtractor
	metric             *metrics.SorensenDice
	maxCandidates      int
	enableDebugLogging bool
	log                *logger.Logger
}

// NewMatchingService creates a new matching service with the given configuration
func NewMatchingService(
	candidates domain.CandidateSource,
	brands *BrandExtractor,
	log *logger.Logger,
	config MatchConfig,
) *MatchingService {
	maxCandidates := config.MaxCandidates
	if maxCandidates <= 0 {
		maxCandidates = defaultMaxCandidates
	}

	metric := metrics.NewSorensenDice()
	metric.CaseSensitive = false
	metric.NgramSize = trigramSize

	return &MatchingService{
		candidates:         candidates,
		brands:             brands,
		metric:             metric,
		maxCandidates:      maxCandidates,
		enableDebugLogging: config.EnableDebugLogging,
		log:                log.With("component", "matcher"),
	}
}

// queryProfile is everything derived once from the input name
type queryProfile struct {
	tokens      []string // T: unique, capped
	all         []string // every normalized token, in order
	joined      string
	brand       string
	hasBrand    bool
	brandTokens map[string]bool
}

type scoredCandidate struct {
	candidate  domain.Candidate
	score      float64
	overlap    float64
	similarity float64
	signal     brandSignal
	exact      bool
}

// FindSimilar returns the catalog entries scoring at least threshold against
// productName, best first. categoryID optionally restricts the search.
func (s *MatchingService) FindSimilar(
	ctx context.Context,
	productName string,
	categoryID *uuid.UUID,
	threshold float64,
) ([]domain.MatchSuggestion, error) {
	if threshold < 0 || threshold > 1 {
		return nil, domain.NewValidationError("threshold", "must be within [0, 1]")
	}

	all := Normalize(productName)
	tokens := UniqueTokens(all, MaxKeywords)
	if len(tokens) == 0 {
		return []domain.MatchSuggestion{}, nil
	}

	brand, hasBrand, err := s.brands.Extract(ctx, productName)
	if err != nil {
		return nil, err
	}

	q := queryProfile{
		tokens:      tokens,
		all:         all,
		joined:      strings.Join(all, " "),
		brand:       brand,
		hasBrand:    hasBrand,
		brandTokens: map[string]bool{},
	}
	if hasBrand {
		q.brandTokens = brandTokenSet(&brand)
	}

	candidates, err := s.candidates.FindCandidates(ctx, tokens, categoryID, s.maxCandidates)
	if err != nil {
		return nil, fmt.Errorf("find candidates: %w", err)
	}

	if s.enableDebugLogging {
		s.log.Debug("scoring candidates", "query", productName, "tokens", tokens, "brand", brand, "candidates", len(candidates))
	}

	scored := make([]scoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		sc := s.scoreCandidate(q, c)

		if s.enableDebugLogging {
			s.log.Debug("candidate scored",
				"catalogId", c.Entry.ID, "name", c.Entry.Name,
				"score", sc.score, "overlap", sc.overlap, "similarity", sc.similarity, "brand", sc.signal.String())
		}

		if sc.score < threshold {
			continue
		}
		scored = append(scored, sc)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if !a.candidate.Entry.CreatedAt.Equal(b.candidate.Entry.CreatedAt) {
			return a.candidate.Entry.CreatedAt.After(b.candidate.Entry.CreatedAt)
		}
		return a.candidate.Entry.ID.String() < b.candidate.Entry.ID.String()
	})

	out := make([]domain.MatchSuggestion, 0, len(scored))
	for _, sc := range scored {
		entry := sc.candidate.Entry
		out = append(out, domain.MatchSuggestion{
			CatalogID:    entry.ID,
			Name:         entry.Name,
			Brand:        entry.Brand,
			Model:        entry.Model,
			CategoryName: sc.candidate.CategoryName,
			Confidence:   sc.score,
			MatchReasons: matchReasons(sc),
		})
	}
	return out, nil
}

// scoreCandidate computes the confidence of one candidate.
//
//	base  = 0.55*overlap + 0.30*similarity
//	score = base+0.15 (brand match) | base (mismatch) | base/0.85 (unknown)
//	score = 1 when the normalized names are identical
func (s *MatchingService) scoreCandidate(q queryProfile, c domain.Candidate) scoredCandidate {
	signal, candidateBrandTokens := compareBrands(q, c.Entry.Brand)

	keywordWeights := make(map[string]int, len(c.Keywords)+len(candidateBrandTokens))
	for _, kw := range c.Keywords {
		if kw.Weight > keywordWeights[kw.Keyword] {
			keywordWeights[kw.Keyword] = kw.Weight
		}
	}
	if signal == brandMatch {
		for tok := range candidateBrandTokens {
			if _, ok := keywordWeights[tok]; !ok {
				keywordWeights[tok] = weightBrand
			}
		}
	}

	overlap := weightedOverlap(q, keywordWeights, signal == brandMatch, candidateBrandTokens)

	candidateJoined := NormalizedString(c.Entry.Name)
	similarity := strutil.Similarity(q.joined, candidateJoined, s.metric)

	base := overlapFactor*overlap + similarityFactor*similarity
	var score float64
	switch signal {
	case brandMatch:
		score = base + brandMatchBonus
	case brandMismatch:
		score = base
	default:
		score = base / unknownBrandScale
	}

	// identical names are the same product whatever the stored brand says
	exact := q.joined != "" && q.joined == candidateJoined
	if exact {
		score = 1
	}

	return scoredCandidate{
		candidate:  c,
		score:      roundScore(clamp01(score)),
		overlap:    overlap,
		similarity: similarity,
		signal:     signal,
		exact:      exact,
	}
}

// compareBrands classifies the brand evidence between the query and a
// candidate. The candidate brand also matches when its tokens appear in order
// within the query, which covers brands missing from the reference set.
func compareBrands(q queryProfile, candidateBrand *string) (brandSignal, map[string]bool) {
	if candidateBrand == nil || strings.TrimSpace(*candidateBrand) == "" {
		return brandUnknown, nil
	}

	tokens := brandTokenSet(candidateBrand)
	if q.hasBrand && strings.EqualFold(strings.TrimSpace(q.brand), strings.TrimSpace(*candidateBrand)) {
		return brandMatch, tokens
	}
	if seq := Normalize(*candidateBrand); len(seq) > 0 && indexOfSequence(q.all, seq) >= 0 {
		return brandMatch, tokens
	}
	if q.hasBrand {
		return brandMismatch, tokens
	}
	return brandUnknown, tokens
}

// weightedOverlap is a weighted Dice coefficient between the query tokens and
// the candidate keywords: shared weight over total weight.
func weightedOverlap(q queryProfile, keywordWeights map[string]int, brandMatched bool, candidateBrandTokens map[string]bool) float64 {
	var sumK, sumT, shared int
	for _, w := range keywordWeights {
		sumK += w
	}
	for _, tok := range q.tokens {
		w := weightDefault
		if q.brandTokens[tok] || (brandMatched && candidateBrandTokens[tok]) {
			w = weightBrand
		}
		sumT += w
		if kw, ok := keywordWeights[tok]; ok {
			shared += kw + w
		}
	}
	if sumK+sumT == 0 {
		return 0
	}
	return float64(shared) / float64(sumK+sumT)
}

func matchReasons(sc scoredCandidate) []string {
	reasons := []string{}
	if sc.exact {
		reasons = append(reasons, ReasonExactName)
	}
	if sc.signal == brandMatch {
		reasons = append(reasons, ReasonBrand)
	}
	switch {
	case sc.overlap >= highOverlapThreshold:
		reasons = append(reasons, ReasonHighOverlap)
	case sc.overlap >= partialOverlapThreshold:
		reasons = append(reasons, ReasonPartialOverlap)
	}
	if sc.similarity >= similarNameThreshold {
		reasons = append(reasons, ReasonSimilarName)
	}
	return reasons
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// roundScore keeps six decimals so equal inputs compare equal across platforms
func roundScore(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
