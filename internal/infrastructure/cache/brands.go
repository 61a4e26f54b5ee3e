package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/vendora/backend/internal/domain"
	"github.com/vendora/backend/internal/platform/logger"
)

const brandsKey = "brands:known"

// BrandCache reads the brand reference set through the cache.
type BrandCache struct {
	lookup domain.BrandLookup
	cache  domain.CacheRepository
	ttl    time.Duration
	log    *logger.Logger
}

func NewBrandCache(lookup domain.BrandLookup, cache domain.CacheRepository, ttl time.Duration, log *logger.Logger) *BrandCache {
	return &BrandCache{
		lookup: lookup,
		cache:  cache,
		ttl:    ttl,
		log:    log.With("service", "BrandCache"),
	}
}

func (b *BrandCache) KnownBrands(ctx context.Context) ([]string, error) {
	raw, err := b.cache.Get(ctx, brandsKey)
	if err == nil {
		var names []string
		if uerr := json.Unmarshal(raw, &names); uerr == nil {
			return names, nil
		}
	} else if !errors.Is(err, domain.ErrCacheMiss) {
		b.log.Warn("brand cache read failed", "error", err)
	}

	names, err := b.lookup.KnownBrands(ctx)
	if err != nil {
		return nil, err
	}
	if encoded, merr := json.Marshal(names); merr == nil {
		if serr := b.cache.Set(ctx, brandsKey, encoded, b.ttl); serr != nil {
			b.log.Warn("brand cache write failed", "error", serr)
		}
	}
	return names, nil
}

// Invalidate forces the next read to hit the lookup, e.g. after seeding.
func (b *BrandCache) Invalidate(ctx context.Context) error {
	return b.cache.Delete(ctx, brandsKey)
}
