// Package app wires configuration, storage, caches and use cases into the
// HTTP server and the operator CLI.
package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora/backend/config"
	httpDelivery "github.com/vendora/backend/internal/delivery/http"
	"github.com/vendora/backend/internal/domain"
	"github.com/vendora/backend/internal/infrastructure/store"
	"github.com/vendora/backend/internal/platform/logger"
	"github.com/vendora/backend/internal/platform/metrics"
)

type App struct {
	Cfg      *config.Config
	Log      *logger.Logger
	DB       *gorm.DB
	Cache    domain.CacheRepository // nil when caching is off
	Metrics  *metrics.Metrics
	Repos    Repos
	Services Services

	closeCache func() error
}

// New opens the database and cache and wires every service. Tables are
// migrated when database.auto_migrate is set.
func New(cfg *config.Config, log *logger.Logger) (*App, error) {
	db, err := store.Open(cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if cfg.Database.AutoMigrate {
		log.Info("Running migrations...")
		if err := store.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("automigrate: %w", err)
		}
	}
	return NewWithDB(cfg, db, log)
}

// NewWithDB wires the app around an existing connection.
func NewWithDB(cfg *config.Config, db *gorm.DB, log *logger.Logger) (*App, error) {
	cacheRepo, closeCache, err := openCache(cfg.Cache, log)
	if err != nil {
		return nil, err
	}
	log.Info("cache ready", "type", cfg.Cache.Type, "ttl", cfg.Cache.TTL)
	if cfg.Cache.Type == "memory" && cfg.Server.Environment == "production" {
		log.Warn("memory cache invalidation is per process; use redis when running more than one instance")
	}

	m := metrics.New()
	repos := wireRepos(db, log)
	services := wireServices(cfg, log, m, repos, cacheRepo)

	return &App{
		Cfg:        cfg,
		Log:        log,
		DB:         db,
		Cache:      cacheRepo,
		Metrics:    m,
		Repos:      repos,
		Services:   services,
		closeCache: closeCache,
	}, nil
}

// Router builds the HTTP surface.
func (a *App) Router() *gin.Engine {
	handler := httpDelivery.NewHandler(httpDelivery.HandlerDeps{
		AutoLink:    a.Services.AutoLink,
		Suggestions: a.Services.Suggestions,
		Feedback:    a.Services.Feedback,
		Catalog:     a.Services.Catalog,
		Health: func(ctx context.Context) error {
			return store.Ping(ctx, a.DB)
		},
	}, a.Log)
	authMW := httpDelivery.NewAuthMiddleware(a.Services.Tokens, a.Services.Identities, a.Log)
	return httpDelivery.SetupRouter(a.Cfg, handler, authMW, a.Metrics, a.Log)
}

// SeedBrands adds names to the brand reference set and drops the cached copy.
func (a *App) SeedBrands(ctx context.Context, names []string) (int, error) {
	added, err := a.Repos.Brands.Upsert(ctx, names)
	if err != nil {
		return 0, fmt.Errorf("seed brands: %w", err)
	}
	if a.Services.BrandCache != nil {
		if err := a.Services.BrandCache.Invalidate(ctx); err != nil {
			a.Log.Warn("brand cache invalidation failed", "error", err)
		}
	}
	return added, nil
}

// ResolveUser loads the identity of userID, as RequireAuth does for tokens.
func (a *App) ResolveUser(ctx context.Context, userID string) (domain.Identity, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return domain.Identity{}, domain.NewValidationError("user", "must be a UUID")
	}
	return a.Services.Identities.Resolve(ctx, id)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.closeCache != nil {
		if err := a.closeCache(); err != nil {
			a.Log.Warn("cache close failed", "error", err)
		}
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	a.Log.Sync()
}
