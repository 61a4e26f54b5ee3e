// Package storetest opens throwaway sqlite databases and seeds the reference
// tables for repository and handler tests.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/vendora/backend/internal/domain"
	"github.com/vendora/backend/internal/infrastructure/store"
	"github.com/vendora/backend/internal/platform/logger"
)

var (
	logOnce sync.Once
	logg    *logger.Logger
	logErr  error
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

// DB returns a migrated in-memory database private to the test
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
		NowFunc:                                  func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := store.AutoMigrate(db); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	return db
}

func SeedCategory(tb testing.TB, db *gorm.DB, name string) *domain.Category {
	tb.Helper()
	c := &domain.Category{ID: uuid.New(), Name: name, Slug: name}
	if err := db.WithContext(context.Background()).Create(c).Error; err != nil {
		tb.Fatalf("seed category: %v", err)
	}
	return c
}

func SeedProfile(tb testing.TB, db *gorm.DB, userID uuid.UUID, role domain.Role) *domain.Profile {
	tb.Helper()
	p := &domain.Profile{UserID: userID, Role: role, CreatedAt: time.Now().UTC()}
	if err := db.WithContext(context.Background()).Create(p).Error; err != nil {
		tb.Fatalf("seed profile: %v", err)
	}
	return p
}

func SeedVendor(tb testing.TB, db *gorm.DB, userID uuid.UUID, name, status string) *domain.Vendor {
	tb.Helper()
	v := &domain.Vendor{
		ID:           uuid.New(),
		UserID:       userID,
		BusinessName: name,
		Status:       status,
		CreatedAt:    time.Now().UTC(),
	}
	if err := db.WithContext(context.Background()).Create(v).Error; err != nil {
		tb.Fatalf("seed vendor: %v", err)
	}
	return v
}

func SeedBrands(tb testing.TB, db *gorm.DB, names ...string) {
	tb.Helper()
	repo := store.NewBrandRepo(db, Logger(tb))
	if _, err := repo.Upsert(context.Background(), names); err != nil {
		tb.Fatalf("seed brands: %v", err)
	}
}

// SeedCatalog inserts an active entry with the given keywords (weight 1
// unless listed in brandKeywords).
func SeedCatalog(tb testing.TB, db *gorm.DB, categoryID uuid.UUID, name string, brand *string, createdAt time.Time, keywords []string, brandKeywords ...string) *domain.CatalogEntry {
	tb.Helper()
	e := &domain.CatalogEntry{
		ID:         uuid.New(),
		Name:       name,
		Brand:      brand,
		CategoryID: categoryID,
		Slug:       name,
		IsActive:   true,
		CreatedAt:  createdAt.UTC(),
		UpdatedAt:  createdAt.UTC(),
	}
	if err := db.WithContext(context.Background()).Create(e).Error; err != nil {
		tb.Fatalf("seed catalog: %v", err)
	}

	heavy := map[string]bool{}
	for _, k := range brandKeywords {
		heavy[k] = true
	}
	rows := make([]domain.KeywordEntry, 0, len(keywords))
	for _, k := range keywords {
		w := 1
		if heavy[k] {
			w = 3
		}
		rows = append(rows, domain.KeywordEntry{CatalogID: e.ID, Keyword: k, Weight: w})
	}
	if len(rows) > 0 {
		if err := db.WithContext(context.Background()).Create(&rows).Error; err != nil {
			tb.Fatalf("seed keywords: %v", err)
		}
	}
	return e
}
