package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora/backend/internal/domain"
	"github.com/vendora/backend/internal/pkg/dbctx"
	"github.com/vendora/backend/internal/platform/logger"
)

// CandidateRepo selects catalog entries sharing keywords with a query
type CandidateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCandidateRepo(db *gorm.DB, baseLog *logger.Logger) *CandidateRepo {
	return &CandidateRepo{
		db:  db,
		log: baseLog.With("repo", "CandidateRepo"),
	}
}

type keywordHit struct {
	CatalogID uuid.UUID
	Hits      int
}

// FindCandidates returns active entries whose keywords intersect tokens, most
// shared keywords first, each with its full keyword set and category name.
func (r *CandidateRepo) FindCandidates(ctx context.Context, tokens []string, categoryID *uuid.UUID, limit int) ([]domain.Candidate, error) {
	out := []domain.Candidate{}
	if len(tokens) == 0 || limit <= 0 {
		return out, nil
	}
	conn := dbctx.Conn(ctx, r.db)

	q := conn.Table("catalog_keywords AS k").
		Select("k.catalog_id AS catalog_id, COUNT(DISTINCT k.keyword) AS hits").
		Joins("JOIN catalog_entries AS c ON c.id = k.catalog_id").
		Where("k.keyword IN ?", tokens).
		Where("c.is_active = ?", true)
	if categoryID != nil {
		q = q.Where("c.category_id = ?", *categoryID)
	}

	var hits []keywordHit
	// newest first among equal hits, matching the ranking tie-break
	if err := q.Group("k.catalog_id, c.created_at").
		Order("hits DESC").
		Order("c.created_at DESC").
		Order("k.catalog_id ASC").
		Limit(limit).
		Scan(&hits).Error; err != nil {
		return nil, fmt.Errorf("keyword hits: %w", err)
	}
	if len(hits) == 0 {
		return out, nil
	}

	ids := make([]uuid.UUID, len(hits))
	for i, h := range hits {
		ids[i] = h.CatalogID
	}

	var entries []domain.CatalogEntry
	if err := conn.Where("id IN ?", ids).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	byID := make(map[uuid.UUID]domain.CatalogEntry, len(entries))
	categoryIDs := make([]uuid.UUID, 0, len(entries))
	seenCategory := map[uuid.UUID]bool{}
	for _, e := range entries {
		byID[e.ID] = e
		if !seenCategory[e.CategoryID] {
			seenCategory[e.CategoryID] = true
			categoryIDs = append(categoryIDs, e.CategoryID)
		}
	}

	var keywords []domain.KeywordEntry
	if err := conn.Where("catalog_id IN ?", ids).Order("id").Find(&keywords).Error; err != nil {
		return nil, fmt.Errorf("load keywords: %w", err)
	}
	keywordsByID := make(map[uuid.UUID][]domain.KeywordEntry, len(ids))
	for _, kw := range keywords {
		keywordsByID[kw.CatalogID] = append(keywordsByID[kw.CatalogID], kw)
	}

	var categories []domain.Category
	if err := conn.Where("id IN ?", categoryIDs).Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	categoryNames := make(map[uuid.UUID]string, len(categories))
	for _, c := range categories {
		categoryNames[c.ID] = c.Name
	}

	for _, id := range ids {
		entry, ok := byID[id]
		if !ok {
			continue
		}
		out = append(out, domain.Candidate{
			Entry:        entry,
			Keywords:     keywordsByID[id],
			CategoryName: categoryNames[entry.CategoryID],
		})
	}

	r.log.Debug("candidates loaded", "tokens", len(tokens), "candidates", len(out))
	return out, nil
}
