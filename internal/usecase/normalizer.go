package usecase

import (
	"regexp"
	"strings"
)

// Compiled regex patterns for text normalization
var (
	// Anything that is not a lowercase letter, digit or whitespace is dropped
	nonAlphanumericRegex = regexp.MustCompile(`[^a-z0-9\s]`)

	// Slugs keep hyphens
	nonSlugRegex = regexp.MustCompile(`[^a-z0-9\s-]`)

	multipleSpacesRegex  = regexp.MustCompile(`\s+`)
	multipleHyphensRegex = regexp.MustCompile(`-+`)

	// Alphanumeric runs, used for brand matching where short tokens matter
	alphanumericRunRegex = regexp.MustCompile(`[a-z0-9]+`)
)

const (
	// Tokens of this length or shorter carry no signal
	minTokenLength = 3

	// MaxKeywords caps the tokens considered per name
	MaxKeywords = 10

	maxSlugLength = 100
)

// Normalize lowercases text, strips punctuation and returns the tokens longer
// than two characters in their original order. Duplicates are kept.
func Normalize(text string) []string {
	cleaned := nonAlphanumericRegex.ReplaceAllString(strings.ToLower(text), "")

	var tokens []string
	for _, word := range strings.Fields(cleaned) {
		if len(word) < minTokenLength {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// UniqueTokens dedupes tokens preserving first occurrence and keeps at most
// limit of them. A limit <= 0 means no cap.
func UniqueTokens(tokens []string, limit int) []string {
	seen := make(map[string]bool, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// QueryTokens is the token set T used for retrieval and scoring
func QueryTokens(text string) []string {
	return UniqueTokens(Normalize(text), MaxKeywords)
}

// NormalizedString joins the normalized tokens of text with single spaces
func NormalizedString(text string) string {
	return strings.Join(Normalize(text), " ")
}

// Slugify derives the URL slug of a catalog entry name.
// "Apple iPhone 13 Pro Max (256GB)" -> "apple-iphone-13-pro-max-256gb"
func Slugify(name string) string {
	s := nonSlugRegex.ReplaceAllString(strings.ToLower(name), "")
	s = multipleSpacesRegex.ReplaceAllString(strings.TrimSpace(s), "-")
	s = multipleHyphensRegex.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > maxSlugLength {
		s = strings.TrimRight(s[:maxSlugLength], "-")
	}
	return s
}

// looseTokens splits text into lowercase alphanumeric runs with no length floor
func looseTokens(text string) []string {
	return alphanumericRunRegex.FindAllString(strings.ToLower(text), -1)
}
