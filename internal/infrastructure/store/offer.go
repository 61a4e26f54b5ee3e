package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora/backend/internal/domain"
	"github.com/vendora/backend/internal/pkg/dbctx"
	"github.com/vendora/backend/internal/platform/logger"
)

type OfferRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOfferRepo(db *gorm.DB, baseLog *logger.Logger) *OfferRepo {
	return &OfferRepo{
		db:  db,
		log: baseLog.With("repo", "OfferRepo"),
	}
}

func (r *OfferRepo) Create(ctx context.Context, offer *domain.ProductOffer) error {
	if offer.ID == uuid.Nil {
		offer.ID = uuid.New()
	}
	return dbctx.Conn(ctx, r.db).Create(offer).Error
}

// ListActiveByCatalogID returns active offers, oldest first
func (r *OfferRepo) ListActiveByCatalogID(ctx context.Context, catalogID uuid.UUID) ([]domain.ProductOffer, error) {
	var out []domain.ProductOffer
	if err := dbctx.Conn(ctx, r.db).
		Where("catalog_id = ? AND is_active = ?", catalogID, true).
		Order("created_at ASC").
		Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// FeedbackRepo is append-only: it has no update or delete
type FeedbackRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFeedbackRepo(db *gorm.DB, baseLog *logger.Logger) *FeedbackRepo {
	return &FeedbackRepo{
		db:  db,
		log: baseLog.With("repo", "FeedbackRepo"),
	}
}

func (r *FeedbackRepo) Append(ctx context.Context, fb *domain.MatchFeedback) error {
	if fb.ID == uuid.Nil {
		fb.ID = uuid.New()
	}
	return dbctx.Conn(ctx, r.db).Create(fb).Error
}

func (r *FeedbackRepo) ListSince(ctx context.Context, since time.Time) ([]domain.MatchFeedback, error) {
	var out []domain.MatchFeedback
	if err := dbctx.Conn(ctx, r.db).
		Where("created_at >= ?", since.UTC()).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
