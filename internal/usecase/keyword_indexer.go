package usecase

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/vendora/backend/internal/domain"
)

// Keyword weights
const (
	weightBrand   = 3
	weightDefault = 1
)

// KeywordIndexer derives and stores the retrieval keywords of a catalog entry
type KeywordIndexer struct {
	keywords domain.KeywordRepository
}

// NewKeywordIndexer creates a keyword indexer
func NewKeywordIndexer(keywords domain.KeywordRepository) *KeywordIndexer {
	return &KeywordIndexer{keywords: keywords}
}

// BuildKeywords returns at most MaxKeywords distinct keywords of name. The
// token equal to the lowercased brand is weighted higher.
func BuildKeywords(catalogID uuid.UUID, name string, brand *string) []domain.KeywordEntry {
	brandTokens := brandTokenSet(brand)

	tokens := QueryTokens(name)
	rows := make([]domain.KeywordEntry, 0, len(tokens))
	for _, tok := range tokens {
		weight := weightDefault
		if brandTokens[tok] {
			weight = weightBrand
		}
		rows = append(rows, domain.KeywordEntry{
			CatalogID: catalogID,
			Keyword:   tok,
			Weight:    weight,
		})
	}
	return rows
}

// Index builds and persists the keywords of a newly created entry in one
// batch. Calling it twice for the same entry duplicates rows.
func (k *KeywordIndexer) Index(ctx context.Context, catalogID uuid.UUID, name string, brand *string) ([]domain.KeywordEntry, error) {
	rows := BuildKeywords(catalogID, name, brand)
	if len(rows) == 0 {
		return rows, nil
	}
	if err := k.keywords.CreateBatch(ctx, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// brandTokenSet holds the keyword a brand is weighted under: the lowercased
// brand itself, provided it survives normalization as a single token.
// Multi-word and short brands weight nothing.
func brandTokenSet(brand *string) map[string]bool {
	set := make(map[string]bool)
	if brand == nil {
		return set
	}
	key := strings.ToLower(strings.TrimSpace(*brand))
	if tokens := Normalize(key); len(tokens) == 1 && tokens[0] == key {
		set[key] = true
	}
	return set
}
