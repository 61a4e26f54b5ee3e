package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vendora/backend/internal/domain"
	"github.com/vendora/backend/internal/platform/logger"
	"github.com/vendora/backend/internal/platform/metrics"
)

const candidateGenerationKey = "candidates:generation"

// CandidateCache is a read-through cache in front of a candidate source.
// Every entry is keyed under the current generation, so Invalidate only has
// to bump the generation counter; stale entries age out with their TTL.
type CandidateCache struct {
	source  domain.CandidateSource
	cache   domain.CacheRepository
	ttl     time.Duration
	log     *logger.Logger
	metrics *metrics.Metrics
}

func NewCandidateCache(source domain.CandidateSource, cache domain.CacheRepository, ttl time.Duration, log *logger.Logger, m *metrics.Metrics) *CandidateCache {
	return &CandidateCache{
		source:  source,
		cache:   cache,
		ttl:     ttl,
		log:     log.With("service", "CandidateCache"),
		metrics: m,
	}
}

// FindCandidates serves from the cache when possible. Cache failures are
// logged and fall through to the source.
func (c *CandidateCache) FindCandidates(ctx context.Context, tokens []string, categoryID *uuid.UUID, limit int) ([]domain.Candidate, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		c.log.Warn("candidate cache generation unavailable", "error", err)
		return c.source.FindCandidates(ctx, tokens, categoryID, limit)
	}
	key := candidateKey(gen, tokens, categoryID, limit)

	raw, err := c.cache.Get(ctx, key)
	switch {
	case err == nil:
		var out []domain.Candidate
		uerr := json.Unmarshal(raw, &out)
		if uerr == nil {
			c.metrics.ObserveCandidateCache(true)
			return out, nil
		}
		c.log.Warn("discarding undecodable candidate cache entry", "key", key, "error", uerr)
	case !errors.Is(err, domain.ErrCacheMiss):
		c.log.Warn("candidate cache read failed", "key", key, "error", err)
	}
	c.metrics.ObserveCandidateCache(false)

	out, err := c.source.FindCandidates(ctx, tokens, categoryID, limit)
	if err != nil {
		return nil, err
	}

	if encoded, merr := json.Marshal(out); merr != nil {
		c.log.Warn("candidate cache encode failed", "error", merr)
	} else if serr := c.cache.Set(ctx, key, encoded, c.ttl); serr != nil {
		c.log.Warn("candidate cache write failed", "key", key, "error", serr)
	}
	return out, nil
}

// Invalidate drops every cached candidate list.
func (c *CandidateCache) Invalidate(ctx context.Context) error {
	gen, err := c.cache.Incr(ctx, candidateGenerationKey)
	if err != nil {
		return fmt.Errorf("bump candidate generation: %w", err)
	}
	c.log.Debug("candidate cache invalidated", "generation", gen)
	return nil
}

func (c *CandidateCache) generation(ctx context.Context) (int64, error) {
	raw, err := c.cache.Get(ctx, candidateGenerationKey)
	if errors.Is(err, domain.ErrCacheMiss) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(string(raw), 10, 64)
}

// candidateKey is independent of token order; the source query is too.
func candidateKey(gen int64, tokens []string, categoryID *uuid.UUID, limit int) string {
	sorted := append([]string(nil), tokens...)
	sort.Strings(sorted)

	category := "all"
	if categoryID != nil {
		category = categoryID.String()
	}

	sum := sha256.Sum256([]byte(strings.Join(sorted, " ")))
	return fmt.Sprintf("candidates:%d:%s:%d:%s", gen, category, limit, hex.EncodeToString(sum[:12]))
}
