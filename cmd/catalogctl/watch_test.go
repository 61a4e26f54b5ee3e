package main

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendora/backend/internal/domain"
)

func TestRunWatch(t *testing.T) {
	t.Run("only the last line of a burst is queried", func(t *testing.T) {
		var (
			mu      sync.Mutex
			queried []string
		)
		brand := "Apple"
		price := decimal.RequireFromString("949.5")
		seller := "Acme"
		suggest := func(ctx context.Context, query string) (*domain.SuggestResult, error) {
			mu.Lock()
			queried = append(queried, query)
			mu.Unlock()
			return &domain.SuggestResult{
				Query:      query,
				HasMatches: true,
				Suggestions: []domain.MatchSuggestion{{
					Name:           "iPhone 13 Pro Max",
					Brand:          &brand,
					Confidence:     0.857692,
					BestPrice:      &price,
					BestVendorName: &seller,
				}},
			}, nil
		}

		var out bytes.Buffer
		in := strings.NewReader("ip\niph\niphone 13\n")
		err := runWatch(context.Background(), in, &out, suggest, 50*time.Millisecond)
		require.NoError(t, err)

		assert.Equal(t, []string{"iphone 13"}, queried)
		text := out.String()
		assert.Contains(t, text, `[querying] "iphone 13"`)
		assert.Contains(t, text, `[suggested] "iphone 13": 1 match(es)`)
		assert.Contains(t, text, "0.858  iPhone 13 Pro Max (Apple)  from 949.50 by Acme")
	})

	t.Run("blank line returns to idle", func(t *testing.T) {
		suggest := func(ctx context.Context, query string) (*domain.SuggestResult, error) {
			return &domain.SuggestResult{Query: query}, nil
		}
		var out bytes.Buffer
		err := runWatch(context.Background(), strings.NewReader("sony\n\n"), &out, suggest, 20*time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, "[idle]\n", out.String())
	})

	t.Run("no matches", func(t *testing.T) {
		suggest := func(ctx context.Context, query string) (*domain.SuggestResult, error) {
			return &domain.SuggestResult{Query: query, Suggestions: []domain.MatchSuggestion{}}, nil
		}
		var out bytes.Buffer
		err := runWatch(context.Background(), strings.NewReader("zzzz\n"), &out, suggest, time.Millisecond)
		require.NoError(t, err)
		assert.Contains(t, out.String(), `[empty] "zzzz"`)
	})
}

func TestParseOptionalUUID(t *testing.T) {
	id, err := parseOptionalUUID("category", "")
	require.NoError(t, err)
	assert.Nil(t, id)

	_, err = parseOptionalUUID("category", "nope")
	assert.ErrorIs(t, err, domain.ErrValidation)

	id, err = parseOptionalUUID("category", "6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	require.NoError(t, err)
	assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", id.String())
}
