package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendora/backend/internal/domain"
)

func resultFor(query string, n int) *domain.SuggestResult {
	res := &domain.SuggestResult{Query: query, Suggestions: []domain.MatchSuggestion{}}
	for i := 0; i < n; i++ {
		res.Suggestions = append(res.Suggestions, domain.MatchSuggestion{CatalogID: uuid.New(), Name: query})
	}
	res.HasMatches = n > 0
	return res
}

func TestSuggestionSession(t *testing.T) {
	t.Run("debounces bursts into one request", func(t *testing.T) {
		var mu sync.Mutex
		var queries []string
		suggest := func(ctx context.Context, q string) (*domain.SuggestResult, error) {
			mu.Lock()
			queries = append(queries, q)
			mu.Unlock()
			return resultFor(q, 1), nil
		}

		s := NewSuggestionSession(context.Background(), suggest, 50*time.Millisecond, nil)
		s.Input("i")
		s.Input("ip")
		s.Input("iph")
		s.Wait()

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, []string{"iph"}, queries)

		state, query, result := s.State()
		assert.Equal(t, SessionSuggested, state)
		assert.Equal(t, "iph", query)
		require.NotNil(t, result)
		assert.Equal(t, "iph", result.Query)
	})

	t.Run("discards a slow stale response", func(t *testing.T) {
		started := make(chan struct{})
		release := make(chan struct{})
		staleCtxErr := make(chan error, 1)

		suggest := func(ctx context.Context, q string) (*domain.SuggestResult, error) {
			if q == "ip" {
				close(started)
				<-release
				staleCtxErr <- ctx.Err()
				return resultFor("ip", 3), nil
			}
			return resultFor(q, 1), nil
		}

		var transitions []SessionState
		var tmu sync.Mutex
		listener := func(state SessionState, query string, _ *domain.SuggestResult) {
			tmu.Lock()
			transitions = append(transitions, state)
			tmu.Unlock()
		}

		s := NewSuggestionSession(context.Background(), suggest, time.Millisecond, listener)
		s.Input("ip")
		<-started

		s.Input("iphone")
		require.Eventually(t, func() bool {
			state, query, _ := s.State()
			return state == SessionSuggested && query == "iphone"
		}, time.Second, 5*time.Millisecond)

		close(release)
		s.Wait()

		state, query, result := s.State()
		assert.Equal(t, SessionSuggested, state)
		assert.Equal(t, "iphone", query)
		require.NotNil(t, result)
		assert.Equal(t, "iphone", result.Query)
		assert.Len(t, result.Suggestions, 1)

		assert.ErrorIs(t, <-staleCtxErr, context.Canceled)

		tmu.Lock()
		defer tmu.Unlock()
		assert.Equal(t, []SessionState{SessionQuerying, SessionQuerying, SessionSuggested}, transitions)
	})

	t.Run("no results and errors end empty", func(t *testing.T) {
		s := NewSuggestionSession(context.Background(), func(ctx context.Context, q string) (*domain.SuggestResult, error) {
			if q == "fail" {
				return nil, errors.New("boom")
			}
			return resultFor(q, 0), nil
		}, time.Millisecond, nil)

		s.Input("nothing")
		s.Wait()
		state, _, _ := s.State()
		assert.Equal(t, SessionEmpty, state)

		s.Input("fail")
		s.Wait()
		state, _, result := s.State()
		assert.Equal(t, SessionEmpty, state)
		assert.Nil(t, result)
	})

	t.Run("blank input returns to idle", func(t *testing.T) {
		s := NewSuggestionSession(context.Background(), func(ctx context.Context, q string) (*domain.SuggestResult, error) {
			return resultFor(q, 1), nil
		}, time.Millisecond, nil)

		s.Input("iphone")
		s.Wait()
		s.Input("   ")
		s.Wait()

		state, query, result := s.State()
		assert.Equal(t, SessionIdle, state)
		assert.Empty(t, query)
		assert.Nil(t, result)
	})

	t.Run("close drops pending input", func(t *testing.T) {
		calls := 0
		s := NewSuggestionSession(context.Background(), func(ctx context.Context, q string) (*domain.SuggestResult, error) {
			calls++
			return resultFor(q, 1), nil
		}, time.Hour, nil)

		s.Input("iphone")
		s.Close()
		s.Input("ipad")

		assert.Equal(t, 0, calls)
		state, _, _ := s.State()
		assert.Equal(t, SessionIdle, state)
	})
}
