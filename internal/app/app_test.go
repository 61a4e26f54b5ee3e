package app

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendora/backend/config"
	"github.com/vendora/backend/internal/domain"
	"github.com/vendora/backend/internal/infrastructure/store/storetest"
)

func testConfig(cacheType string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: "0", Environment: "test"},
		Database: config.DatabaseConfig{
			Driver:      "sqlite",
			DSN:         fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
			AutoMigrate: true,
		},
		Auth:  config.AuthConfig{JWTSecret: "test-secret", Issuer: "vendora", TokenTTL: time.Hour},
		Cache: config.CacheConfig{Type: cacheType, TTL: time.Minute},
		Matching: config.MatchingConfig{
			SuggestThreshold:  0.5,
			AutoLinkThreshold: 0.95,
			TransactionalLink: true,
			AdminSellerName:   "Vendora Marketplace",
		},
	}
}

func TestNew(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for _, cacheType := range []string{"memory", "none"} {
		t.Run("cache "+cacheType, func(t *testing.T) {
			a, err := New(testConfig(cacheType), storetest.Logger(t))
			require.NoError(t, err)
			t.Cleanup(a.Close)

			assert.Equal(t, cacheType == "memory", a.Cache != nil)
			assert.Equal(t, cacheType == "memory", a.Services.BrandCache != nil)

			ctx := context.Background()
			added, err := a.SeedBrands(ctx, []string{"Apple", "Samsung"})
			require.NoError(t, err)
			assert.Equal(t, 2, added)

			brand, ok, err := a.Services.Brands.Extract(ctx, "Samsung Galaxy S23")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "Samsung", brand)

			// a second seed must be visible through the cache
			_, err = a.SeedBrands(ctx, []string{"Sony"})
			require.NoError(t, err)
			brand, ok, err = a.Services.Brands.Extract(ctx, "Sony WH-1000XM5")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "Sony", brand)

			w := httptest.NewRecorder()
			a.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}

func TestNewRejectsUnknownCache(t *testing.T) {
	_, err := New(testConfig("memcached"), storetest.Logger(t))
	assert.Error(t, err)
}

func TestResolveUser(t *testing.T) {
	a, err := New(testConfig("none"), storetest.Logger(t))
	require.NoError(t, err)
	t.Cleanup(a.Close)

	_, err = a.ResolveUser(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, domain.ErrValidation)

	userID := uuid.New()
	id, err := a.ResolveUser(context.Background(), userID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCustomer, id.Role)
	assert.Equal(t, userID, id.UserID)
}
