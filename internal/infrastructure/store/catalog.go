package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora/backend/internal/domain"
	"github.com/vendora/backend/internal/pkg/dbctx"
	"github.com/vendora/backend/internal/platform/logger"
)

type CatalogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCatalogRepo(db *gorm.DB, baseLog *logger.Logger) *CatalogRepo {
	return &CatalogRepo{
		db:  db,
		log: baseLog.With("repo", "CatalogRepo"),
	}
}

func (r *CatalogRepo) Create(ctx context.Context, entry *domain.CatalogEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return dbctx.Conn(ctx, r.db).Create(entry).Error
}

func (r *CatalogRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.CatalogEntry, error) {
	var entry domain.CatalogEntry
	err := dbctx.Conn(ctx, r.db).Where("id = ?", id).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("catalog entry %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *CatalogRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.CatalogEntry, error) {
	var out []domain.CatalogEntry
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbctx.Conn(ctx, r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

type KeywordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewKeywordRepo(db *gorm.DB, baseLog *logger.Logger) *KeywordRepo {
	return &KeywordRepo{
		db:  db,
		log: baseLog.With("repo", "KeywordRepo"),
	}
}

// CreateBatch inserts all rows in one statement
func (r *KeywordRepo) CreateBatch(ctx context.Context, rows []domain.KeywordEntry) error {
	if len(rows) == 0 {
		return nil
	}
	return dbctx.Conn(ctx, r.db).Create(&rows).Error
}

func (r *KeywordRepo) GetByCatalogIDs(ctx context.Context, catalogIDs []uuid.UUID) (map[uuid.UUID][]domain.KeywordEntry, error) {
	out := make(map[uuid.UUID][]domain.KeywordEntry, len(catalogIDs))
	if len(catalogIDs) == 0 {
		return out, nil
	}
	var rows []domain.KeywordEntry
	if err := dbctx.Conn(ctx, r.db).
		Where("catalog_id IN ?", catalogIDs).
		Order("catalog_id").
		Order("id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.CatalogID] = append(out[row.CatalogID], row)
	}
	return out, nil
}
