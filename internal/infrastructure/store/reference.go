package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vendora/backend/internal/domain"
	"github.com/vendora/backend/internal/pkg/dbctx"
	"github.com/vendora/backend/internal/platform/logger"
)

// BrandRepo stores the brand reference set
type BrandRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBrandRepo(db *gorm.DB, baseLog *logger.Logger) *BrandRepo {
	return &BrandRepo{
		db:  db,
		log: baseLog.With("repo", "BrandRepo"),
	}
}

func (r *BrandRepo) KnownBrands(ctx context.Context) ([]string, error) {
	var names []string
	if err := dbctx.Conn(ctx, r.db).Model(&domain.Brand{}).Order("name").Pluck("name", &names).Error; err != nil {
		return nil, err
	}
	return names, nil
}

// Upsert inserts the names not yet present and returns how many were added
func (r *BrandRepo) Upsert(ctx context.Context, names []string) (int, error) {
	seen := make(map[string]bool, len(names))
	rows := make([]domain.Brand, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		rows = append(rows, domain.Brand{Name: n})
	}
	if len(rows) == 0 {
		return 0, nil
	}

	res := dbctx.Conn(ctx, r.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&rows)
	if res.Error != nil {
		return 0, res.Error
	}
	r.log.Debug("brands upserted", "requested", len(rows), "inserted", res.RowsAffected)
	return int(res.RowsAffected), nil
}

type CategoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCategoryRepo(db *gorm.DB, baseLog *logger.Logger) *CategoryRepo {
	return &CategoryRepo{
		db:  db,
		log: baseLog.With("repo", "CategoryRepo"),
	}
}

func (r *CategoryRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	var c domain.Category
	err := dbctx.Conn(ctx, r.db).Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("category %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

type VendorRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVendorRepo(db *gorm.DB, baseLog *logger.Logger) *VendorRepo {
	return &VendorRepo{
		db:  db,
		log: baseLog.With("repo", "VendorRepo"),
	}
}

func (r *VendorRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Vendor, error) {
	var v domain.Vendor
	err := dbctx.Conn(ctx, r.db).Where("id = ?", id).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("vendor %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VendorRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Vendor, error) {
	var v domain.Vendor
	err := dbctx.Conn(ctx, r.db).Where("user_id = ?", userID).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("vendor for user %s: %w", userID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

type ProfileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProfileRepo(db *gorm.DB, baseLog *logger.Logger) *ProfileRepo {
	return &ProfileRepo{
		db:  db,
		log: baseLog.With("repo", "ProfileRepo"),
	}
}

func (r *ProfileRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	var p domain.Profile
	err := dbctx.Conn(ctx, r.db).Where("user_id = ?", userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("profile %s: %w", userID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
