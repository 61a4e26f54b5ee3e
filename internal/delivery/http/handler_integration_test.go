package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vendora/backend/config"
	"github.com/vendora/backend/internal/domain"
	"github.com/vendora/backend/internal/infrastructure/auth"
	"github.com/vendora/backend/internal/infrastructure/cache"
	"github.com/vendora/backend/internal/infrastructure/store"
	"github.com/vendora/backend/internal/infrastructure/store/storetest"
	"github.com/vendora/backend/internal/platform/metrics"
	"github.com/vendora/backend/internal/usecase"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	// Set Gin to test mode once for all tests
	gin.SetMode(gin.TestMode)
	decimal.MarshalJSONWithoutQuotes = true

	os.Exit(m.Run())
}

const adminSellerName = "Vendora Marketplace"

type testEnv struct {
	router   *gin.Engine
	db       *gorm.DB
	tokens   *auth.TokenService
	category *domain.Category

	admin         uuid.UUID
	vendorUser    uuid.UUID
	vendor        *domain.Vendor
	pendingVendor uuid.UUID
	customer      uuid.UUID
}

// newTestEnv wires the real services over a private sqlite database, the
// same way the app package does.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := storetest.DB(t)
	log := storetest.Logger(t)
	m := metrics.New()
	mem := cache.NewMemoryCache()
	t.Cleanup(func() { _ = mem.Close() })

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Cache: config.CacheConfig{Type: "memory", TTL: time.Minute},
	}

	catalogRepo := store.NewCatalogRepo(db, log)
	keywordRepo := store.NewKeywordRepo(db, log)
	offerRepo := store.NewOfferRepo(db, log)
	categoryRepo := store.NewCategoryRepo(db, log)
	vendorRepo := store.NewVendorRepo(db, log)

	candidates := cache.NewCandidateCache(store.NewCandidateRepo(db, log), mem, time.Minute, log, m)
	brands := usecase.NewBrandExtractor(cache.NewBrandCache(store.NewBrandRepo(db, log), mem, time.Minute, log))
	matcher := usecase.NewMatchingService(candidates, brands, log, usecase.MatchConfig{})
	feedback := usecase.NewFeedbackService(store.NewFeedbackRepo(db, log), log, m)

	suggestions := usecase.NewSuggestionService(matcher, offerRepo, vendorRepo, log, m, usecase.SuggestionServiceConfig{
		AdminSellerName: adminSellerName,
	})
	autoLink := usecase.NewAutoLinkService(usecase.AutoLinkDeps{
		Transactor:  store.NewTransactor(db),
		Catalog:     catalogRepo,
		Categories:  categoryRepo,
		Offers:      offerRepo,
		Indexer:     usecase.NewKeywordIndexer(keywordRepo),
		Brands:      brands,
		Matcher:     matcher,
		Feedback:    feedback,
		Invalidator: candidates,
		Metrics:     m,
	}, log, usecase.AutoLinkConfig{Threshold: 0.95, Transactional: true})
	catalog := usecase.NewCatalogService(catalogRepo, keywordRepo, categoryRepo, offerRepo, mem, log, usecase.CatalogServiceConfig{})

	tokens := auth.NewTokenService("test-secret", "vendora", time.Hour)
	identities := auth.NewIdentityResolver(store.NewProfileRepo(db, log), vendorRepo, log)

	handler := NewHandler(HandlerDeps{
		AutoLink:    autoLink,
		Suggestions: suggestions,
		Feedback:    feedback,
		Catalog:     catalog,
		Health:      func(ctx context.Context) error { return store.Ping(ctx, db) },
	}, log)
	router := SetupRouter(cfg, handler, NewAuthMiddleware(tokens, identities, log), m, log)

	env := &testEnv{
		router:        router,
		db:            db,
		tokens:        tokens,
		category:      storetest.SeedCategory(t, db, "Phones"),
		admin:         uuid.New(),
		vendorUser:    uuid.New(),
		pendingVendor: uuid.New(),
		customer:      uuid.New(),
	}
	storetest.SeedBrands(t, db, "Apple", "Samsung", "Sony")
	storetest.SeedProfile(t, db, env.admin, domain.RoleAdmin)
	storetest.SeedProfile(t, db, env.vendorUser, domain.RoleVendor)
	env.vendor = storetest.SeedVendor(t, db, env.vendorUser, "Acme Electronics", domain.VendorStatusApproved)
	storetest.SeedProfile(t, db, env.pendingVendor, domain.RoleVendor)
	storetest.SeedVendor(t, db, env.pendingVendor, "Slow Co", domain.VendorStatusPending)
	storetest.SeedProfile(t, db, env.customer, domain.RoleCustomer)
	return env
}

func (e *testEnv) token(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	tok, err := e.tokens.Issue(userID)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (e *testEnv) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(model).Count(&n).Error)
	return n
}

func autoLinkBody(name, categoryID string, price float64) map[string]interface{} {
	return map[string]interface{}{
		"productName": name,
		"categoryId":  categoryID,
		"productData": map[string]interface{}{"price": price},
	}
}

// TestHealthCheckEndpoint tests the health check endpoint
func TestHealthCheckEndpoint(t *testing.T) {
	env := newTestEnv(t)

	t.Run("returns healthy status", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/health", "", nil)
		require.Equal(t, http.StatusOK, w.Code)

		response := decodeBody(t, w)
		assert.Equal(t, "healthy", response["status"])
		assert.Equal(t, "vendora-backend", response["service"])
		version, ok := response["version"].(string)
		assert.True(t, ok && strings.TrimSpace(version) != "")
	})

	t.Run("accepts GET requests only", func(t *testing.T) {
		for _, method := range []string{"POST", "PUT", "DELETE", "PATCH"} {
			w := env.do(t, method, "/health", "", nil)
			assert.Equal(t, http.StatusNotFound, w.Code, "method %s", method)
		}
	})

	t.Run("exposes prometheus metrics", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/metrics", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `vendora_http_requests_total{method="GET",route="/health",status="200"}`)
	})
}

func TestAuthentication(t *testing.T) {
	env := newTestEnv(t)
	body := autoLinkBody("Apple iPhone 13 Pro Max", env.category.ID.String(), 999.99)

	t.Run("missing token is 401 on every api route", func(t *testing.T) {
		routes := []struct{ method, path string }{
			{http.MethodPost, "/api/v1/products/auto-link"},
			{http.MethodGet, "/api/v1/products/suggestions?q=iphone"},
			{http.MethodPost, "/api/v1/products/suggestions/feedback"},
			{http.MethodGet, "/api/v1/products/suggestions/feedback/summary"},
			{http.MethodGet, "/api/v1/catalog/" + uuid.NewString()},
		}
		for _, r := range routes {
			w := env.do(t, r.method, r.path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", r.method, r.path)
		}
	})

	t.Run("invalid token is 401", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/products/auto-link", "garbage", body)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("customers and pending vendors cannot auto-link", func(t *testing.T) {
		for _, user := range []uuid.UUID{env.customer, env.pendingVendor, uuid.New()} {
			w := env.do(t, http.MethodPost, "/api/v1/products/auto-link", env.token(t, user), body)
			assert.Equal(t, http.StatusForbidden, w.Code)
		}
		assert.Equal(t, int64(0), env.count(t, &domain.CatalogEntry{}))
	})

	t.Run("feedback summary is admin only", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/products/suggestions/feedback/summary", env.token(t, env.vendorUser), nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestAutoLinkEndpoint(t *testing.T) {
	env := newTestEnv(t)
	categoryID := env.category.ID.String()
	var createdID string

	t.Run("validation errors are 400", func(t *testing.T) {
		tests := []struct {
			name  string
			body  interface{}
			field string
		}{
			{name: "missing product name", body: autoLinkBody("  ", categoryID, 10), field: "productName"},
			{name: "missing category", body: autoLinkBody("Sony WH-1000XM5", "", 10), field: "categoryId"},
			{name: "malformed category", body: autoLinkBody("Sony WH-1000XM5", "phones", 10), field: "categoryId"},
			{name: "negative price", body: autoLinkBody("Sony WH-1000XM5", categoryID, -1), field: "productData.price"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				w := env.do(t, http.MethodPost, "/api/v1/products/auto-link", env.token(t, env.vendorUser), tt.body)
				require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
				assert.Equal(t, tt.field, decodeBody(t, w)["field"])
			})
		}

		w := env.do(t, http.MethodPost, "/api/v1/products/auto-link", env.token(t, env.vendorUser), "{not json")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown category is 404", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/products/auto-link", env.token(t, env.vendorUser),
			autoLinkBody("Sony WH-1000XM5", uuid.NewString(), 10))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("new product creates entry, keywords and offer", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/products/auto-link", env.token(t, env.vendorUser),
			autoLinkBody("Apple iPhone 13 Pro Max", categoryID, 999.99))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		resp := decodeBody(t, w)
		assert.Equal(t, true, resp["success"])
		assert.Equal(t, domain.ActionCreated, resp["action"])
		createdID, _ = resp["catalogId"].(string)
		require.NotEmpty(t, createdID)
		require.NotEmpty(t, resp["offerId"])

		product := resp["product"].(map[string]interface{})
		assert.Equal(t, 999.99, product["price"])
		assert.Equal(t, env.vendor.ID.String(), product["vendorId"])
		assert.Equal(t, "new", product["condition"])

		var entry domain.CatalogEntry
		require.NoError(t, env.db.First(&entry, "id = ?", createdID).Error)
		require.NotNil(t, entry.Brand)
		assert.Equal(t, "Apple", *entry.Brand)
		assert.Equal(t, "apple-iphone-13-pro-max", entry.Slug)

		var keywords []domain.KeywordEntry
		require.NoError(t, env.db.Where("catalog_id = ?", createdID).Order("id").Find(&keywords).Error)
		require.Len(t, keywords, 4)
		assert.Equal(t, "apple", keywords[0].Keyword)
		assert.Equal(t, 3, keywords[0].Weight)

		assert.Equal(t, int64(1), env.count(t, &domain.ProductOffer{}))
		assert.Equal(t, int64(0), env.count(t, &domain.MatchFeedback{}), "created path writes no feedback")
	})

	t.Run("identical name links and records implicit feedback", func(t *testing.T) {
		require.NotEmpty(t, createdID)
		w := env.do(t, http.MethodPost, "/api/v1/products/auto-link", env.token(t, env.admin),
			autoLinkBody("Apple iPhone 13 Pro Max", categoryID, 949))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		resp := decodeBody(t, w)
		assert.Equal(t, domain.ActionLinked, resp["action"])
		assert.Equal(t, createdID, resp["catalogId"])
		assert.Equal(t, 1.0, resp["confidence"])
		assert.Nil(t, resp["product"].(map[string]interface{})["vendorId"], "admin offers carry no vendor")

		var rows []domain.MatchFeedback
		require.NoError(t, env.db.Find(&rows).Error)
		require.Len(t, rows, 1)
		assert.True(t, rows[0].UserChoice)
		assert.Equal(t, domain.FeedbackSourceAutoLink, rows[0].Source)
		assert.Equal(t, env.admin, rows[0].UserID)
		assert.Equal(t, int64(1), env.count(t, &domain.CatalogEntry{}))
	})

	t.Run("explicit catalog id links without matching", func(t *testing.T) {
		body := autoLinkBody("Totally different words", categoryID, 10)
		body["catalogId"] = createdID
		w := env.do(t, http.MethodPost, "/api/v1/products/auto-link", env.token(t, env.vendorUser), body)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		resp := decodeBody(t, w)
		assert.Equal(t, domain.ActionLinked, resp["action"])
		assert.Equal(t, createdID, resp["catalogId"])
		_, hasConfidence := resp["confidence"]
		assert.False(t, hasConfidence)
		assert.Equal(t, int64(1), env.count(t, &domain.MatchFeedback{}))
	})

	t.Run("explicit unknown catalog id is 404", func(t *testing.T) {
		body := autoLinkBody("Apple iPhone 13 Pro Max", categoryID, 10)
		body["catalogId"] = uuid.NewString()
		w := env.do(t, http.MethodPost, "/api/v1/products/auto-link", env.token(t, env.vendorUser), body)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("force creates a duplicate entry", func(t *testing.T) {
		body := autoLinkBody("Apple iPhone 13 Pro Max", categoryID, 10)
		body["forceNewCatalog"] = true
		w := env.do(t, http.MethodPost, "/api/v1/products/auto-link", env.token(t, env.vendorUser), body)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		resp := decodeBody(t, w)
		assert.Equal(t, domain.ActionCreated, resp["action"])
		assert.NotEqual(t, createdID, resp["catalogId"])
		assert.Equal(t, int64(2), env.count(t, &domain.CatalogEntry{}))
	})
}

func TestSuggestionsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	categoryID := env.category.ID.String()

	w := env.do(t, http.MethodPost, "/api/v1/products/auto-link", env.token(t, env.vendorUser),
		autoLinkBody("iPhone 13 Pro Max", categoryID, 999.99))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	catalogID := decodeBody(t, w)["catalogId"].(string)

	body := autoLinkBody("unused", categoryID, 949)
	body["catalogId"] = catalogID
	w = env.do(t, http.MethodPost, "/api/v1/products/auto-link", env.token(t, env.admin), body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	token := env.token(t, env.customer)

	t.Run("short query returns empty without error", func(t *testing.T) {
		for _, path := range []string{"/api/v1/products/suggestions?q=ab", "/api/v1/products/suggestions"} {
			w := env.do(t, http.MethodGet, path, token, nil)
			require.Equal(t, http.StatusOK, w.Code)
			resp := decodeBody(t, w)
			assert.Equal(t, []interface{}{}, resp["suggestions"])
			assert.Equal(t, false, resp["hasMatches"])
		}
	})

	t.Run("matches are enriched with the best offer", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/products/suggestions?q=Apple+iPhone+13+Pro+Max+256GB&categoryId="+categoryID, token, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		resp := decodeBody(t, w)
		assert.Equal(t, true, resp["hasMatches"])
		assert.Equal(t, "Apple iPhone 13 Pro Max 256GB", resp["query"])

		suggestions := resp["suggestions"].([]interface{})
		require.Len(t, suggestions, 1)
		top := suggestions[0].(map[string]interface{})
		assert.Equal(t, catalogID, top["catalogId"])
		assert.Equal(t, "Phones", top["categoryName"])
		assert.GreaterOrEqual(t, top["confidence"].(float64), 0.5)
		assert.NotEmpty(t, top["matchReasons"])
		assert.Equal(t, 949.0, top["bestPrice"])
		assert.Equal(t, 2.0, top["vendorCount"])
		assert.Equal(t, adminSellerName, top["bestVendorName"])
	})

	t.Run("other category yields nothing", func(t *testing.T) {
		other := storetest.SeedCategory(t, env.db, "Laptops")
		w := env.do(t, http.MethodGet, "/api/v1/products/suggestions?q=iphone+pro&categoryId="+other.ID.String(), token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, false, decodeBody(t, w)["hasMatches"])
	})

	t.Run("malformed category id is 400", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/products/suggestions?q=iphone&categoryId=phones", token, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestFeedbackEndpoints(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, env.vendorUser)

	t.Run("records explicit feedback", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/products/suggestions/feedback", token, map[string]interface{}{
			"inputText":          "galaxy s23",
			"suggestedCatalogId": uuid.NewString(),
			"userChoice":         false,
			"confidenceScore":    0.62,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, true, decodeBody(t, w)["success"])

		var rows []domain.MatchFeedback
		require.NoError(t, env.db.Find(&rows).Error)
		require.Len(t, rows, 1)
		assert.Equal(t, env.vendorUser, rows[0].UserID)
		assert.Equal(t, domain.FeedbackSourceExplicit, rows[0].Source)
		assert.Nil(t, rows[0].ActualCatalogID)
	})

	t.Run("malformed ids are 400", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/products/suggestions/feedback", token, map[string]interface{}{
			"inputText":       "galaxy s23",
			"actualCatalogId": "not-a-uuid",
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "actualCatalogId", decodeBody(t, w)["field"])
	})

	t.Run("admin reads the summary", func(t *testing.T) {
		since := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
		w := env.do(t, http.MethodGet, "/api/v1/products/suggestions/feedback/summary?since="+since, env.token(t, env.admin), nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		resp := decodeBody(t, w)
		assert.Equal(t, 1.0, resp["total"])
		assert.Equal(t, 1.0, resp["rejected"])
		assert.Len(t, resp["buckets"], 4)
	})

	t.Run("malformed since is 400", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/products/suggestions/feedback/summary?since=yesterday", env.token(t, env.admin), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCatalogEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, env.customer)
	entry := storetest.SeedCatalog(t, env.db, env.category.ID, "Galaxy S23 Ultra", nil, time.Now(),
		[]string{"galaxy", "s23", "ultra"})

	t.Run("returns the entry", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/catalog/"+entry.ID.String(), token, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		resp := decodeBody(t, w)
		assert.Equal(t, "Phones", resp["categoryName"])
		assert.Equal(t, 0.0, resp["offerCount"])
		assert.Len(t, resp["keywords"], 3)
		assert.Equal(t, "Galaxy S23 Ultra", resp["entry"].(map[string]interface{})["name"])
	})

	t.Run("malformed id is 400", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/catalog/abc", token, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown id is 404", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/catalog/"+uuid.NewString(), token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
