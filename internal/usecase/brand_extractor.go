package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vendora/backend/internal/domain"
)

// BrandExtractor resolves the brand mentioned in a free-text product name
// against the brand reference set.
type BrandExtractor struct {
	brands domain.BrandLookup
}

// NewBrandExtractor creates a brand extractor backed by lookup
func NewBrandExtractor(lookup domain.BrandLookup) *BrandExtractor {
	return &BrandExtractor{brands: lookup}
}

// Extract returns the strongest brand found in name in its reference
// spelling. ok is false when no known brand occurs.
func (e *BrandExtractor) Extract(ctx context.Context, name string) (string, bool, error) {
	known, err := e.brands.KnownBrands(ctx)
	if err != nil {
		return "", false, fmt.Errorf("load brands: %w", err)
	}
	brand, ok := extractBrand(name, known)
	return brand, ok, nil
}

// extractBrand picks the brand whose token sequence starts earliest in name.
// Ties go to the brand with more tokens, then to the alphabetically first.
func extractBrand(name string, known []string) (string, bool) {
	nameTokens := looseTokens(name)
	if len(nameTokens) == 0 {
		return "", false
	}

	type hit struct {
		brand  string
		pos    int
		length int
	}
	var hits []hit
	for _, brand := range known {
		brandTokens := looseTokens(brand)
		if len(brandTokens) == 0 {
			continue
		}
		if pos := indexOfSequence(nameTokens, brandTokens); pos >= 0 {
			hits = append(hits, hit{brand: strings.TrimSpace(brand), pos: pos, length: len(brandTokens)})
		}
	}
	if len(hits) == 0 {
		return "", false
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].pos != hits[j].pos {
			return hits[i].pos < hits[j].pos
		}
		if hits[i].length != hits[j].length {
			return hits[i].length > hits[j].length
		}
		return hits[i].brand < hits[j].brand
	})
	return hits[0].brand, true
}

// indexOfSequence returns the first index at which needle occurs contiguously
// in haystack, or -1.
func indexOfSequence(haystack, needle []string) int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return -1
	}
outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j := range needle {
			if haystack[i+j] != needle[j] {
				continue outer
			}
		}
		return i
	}
	return -1
}
