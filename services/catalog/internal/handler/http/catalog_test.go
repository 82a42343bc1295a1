package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront-catalog/pkg/health"
	"github.com/utafrali/storefront-catalog/pkg/middleware"
	"github.com/utafrali/storefront-catalog/services/catalog/internal/catalog"
	"github.com/utafrali/storefront-catalog/services/catalog/internal/service"
)

// =============================================================================
// Helpers
// =============================================================================

type stubFetcher struct {
	mu     sync.Mutex
	status int
	body   []byte
}

func (f *stubFetcher) Fetch(context.Context) (int, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status, f.body, nil
}

func (f *stubFetcher) setStatus(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

type paginated struct {
	Data       []ProductResponse `json:"data"`
	TotalCount int               `json:"total_count"`
	Page       int               `json:"page"`
	PerPage    int               `json:"per_page"`
	TotalPages int               `json:"total_pages"`
	HasNext    bool              `json:"has_next"`
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func storeProducts(t *testing.T) []byte {
	t.Helper()
	body, err := os.ReadFile("../../decoder/testdata/store_products.json")
	require.NoError(t, err)
	return body
}

func setupRouter(t *testing.T, load bool) (http.Handler, *stubFetcher) {
	t.Helper()
	fetcher := &stubFetcher{status: http.StatusOK, body: storeProducts(t)}
	idx := catalog.New(fetcher, catalog.Options{Logger: testLogger()})
	svc := service.NewCatalogService(idx, service.Options{}, testLogger())
	if load {
		_, err := svc.Refresh(context.Background())
		require.NoError(t, err)
	}

	hh := health.NewHandler()
	hh.RegisterCritical("catalog", svc.Ready)

	cfg := DefaultRouterConfig()
	cfg.RefreshAuth = middleware.HMACValidator(testJWTSecret)
	cfg.RefreshRPS = 100
	cfg.RefreshBurst = 100
	return NewRouter(svc, hh, cfg, testLogger()), fetcher
}

const testJWTSecret = "handler-test-secret-0123456789abcdef"

func signToken(t *testing.T, role string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "usr_ops",
		"role":    role,
		"exp":     time.Now().Add(time.Minute).Unix(),
	}).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return token
}

func refresh(t *testing.T, h http.Handler, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/refresh", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func do(t *testing.T, h http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func productIDs(products []ProductResponse) []string {
	out := make([]string, len(products))
	for i := range products {
		out[i] = products[i].ID
	}
	return out
}

// =============================================================================
// Products
// =============================================================================

func TestListProducts(t *testing.T) {
	router, _ := setupRouter(t, true)

	tests := []struct {
		name   string
		target string
		ids    []string
		total  int
	}{
		{"all", "/api/v1/products", []string{"prod_01", "prod_02"}, 2},
		{"category All", "/api/v1/products?category=All", []string{"prod_01", "prod_02"}, 2},
		{"category", "/api/v1/products?category=merchandise", []string{"prod_02"}, 1},
		{"search", "/api/v1/products?q=sweat", []string{"prod_01"}, 1},
		{"search and category", "/api/v1/products?q=medusa&category=Tops", []string{"prod_01"}, 1},
		{"second page", "/api/v1/products?page=2&per_page=1", []string{"prod_02"}, 2},
		{"no match", "/api/v1/products?q=nothing-like-this", []string{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodGet, tt.target, nil)
			require.Equal(t, http.StatusOK, rec.Code)

			var body paginated
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.ids, productIDs(body.Data))
			assert.Equal(t, tt.total, body.TotalCount)
		})
	}
}

func TestListProducts_Pagination(t *testing.T) {
	router, _ := setupRouter(t, true)

	rec := do(t, router, http.MethodGet, "/api/v1/products?per_page=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body paginated
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Page)
	assert.Equal(t, 1, body.PerPage)
	assert.Equal(t, 2, body.TotalPages)
	assert.True(t, body.HasNext)
	assert.Equal(t, "public, max-age=60", rec.Header().Get("Cache-Control"))
	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))
}

func TestListProducts_InvalidPagination(t *testing.T) {
	router, _ := setupRouter(t, true)

	for _, target := range []string{
		"/api/v1/products?page=0",
		"/api/v1/products?page=abc",
		"/api/v1/products?per_page=101",
	} {
		rec := do(t, router, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		env := decodeEnvelope(t, rec)
		require.NotNil(t, env.Error)
		assert.Equal(t, "INVALID_INPUT", env.Error.Code)
	}
}

func TestListProducts_NotReady(t *testing.T) {
	router, _ := setupRouter(t, false)

	rec := do(t, router, http.MethodGet, "/api/v1/products", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, service.CodeCatalogNotReady, env.Error.Code)
}

func TestGetProduct(t *testing.T) {
	router, _ := setupRouter(t, true)

	rec := do(t, router, http.MethodGet, "/api/v1/products/prod_01", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	env := decodeEnvelope(t, rec)
	var product ProductResponse
	require.NoError(t, json.Unmarshal(env.Data, &product))
	assert.Equal(t, "prod_01", product.ID)
	assert.Equal(t, "Medusa Sweatshirt", product.Title)
	assert.Equal(t, "Tops", product.Category)
	assert.Equal(t, "https://cdn.example.com/sweatshirt-front.png", product.PrimaryImage)
	assert.Len(t, product.ImageURLs, 2)
	assert.True(t, product.InStock)
	assert.Len(t, product.Variants, 2)
}

func TestGetProduct_NotFound(t *testing.T) {
	router, _ := setupRouter(t, true)

	rec := do(t, router, http.MethodGet, "/api/v1/products/prod_missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestListCategories(t *testing.T) {
	router, _ := setupRouter(t, true)

	rec := do(t, router, http.MethodGet, "/api/v1/categories", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	env := decodeEnvelope(t, rec)
	var cats []string
	require.NoError(t, json.Unmarshal(env.Data, &cats))
	assert.Equal(t, []string{"All", "Merchandise", "Tops"}, cats)
}

// =============================================================================
// Variant resolution
// =============================================================================

func TestResolveVariant(t *testing.T) {
	router, _ := setupRouter(t, true)

	rec := do(t, router, http.MethodPost, "/api/v1/products/prod_01/variants/resolve",
		[]byte(`{"selections":{"Size":"S"}}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Cache-Control"))

	env := decodeEnvelope(t, rec)
	var res ResolveVariantResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "prod_01", res.ProductID)
	require.Len(t, res.Variants, 1)
	assert.Equal(t, "variant_s", res.Variants[0].ID)
	require.NotNil(t, res.Current)
	assert.Equal(t, "variant_s", res.Current.ID)
	assert.Equal(t, "S", res.Selected["Size"])
	assert.Equal(t, []string{"S", "M"}, res.Available["Size"])
}

func TestResolveVariant_EmptyBody(t *testing.T) {
	router, _ := setupRouter(t, true)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/prod_01/variants/resolve", http.NoBody)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	env := decodeEnvelope(t, rec)
	var res ResolveVariantResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Len(t, res.Variants, 2)
}

func TestResolveVariant_NoMatch(t *testing.T) {
	router, _ := setupRouter(t, true)

	rec := do(t, router, http.MethodPost, "/api/v1/products/prod_01/variants/resolve",
		[]byte(`{"selections":{"Size":"XXL"}}`))
	require.Equal(t, http.StatusOK, rec.Code)

	env := decodeEnvelope(t, rec)
	var res ResolveVariantResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Empty(t, res.Variants)
	assert.Nil(t, res.Current)
}

func TestResolveVariant_BadRequest(t *testing.T) {
	router, _ := setupRouter(t, true)

	tests := []struct {
		name string
		body string
		code string
	}{
		{"malformed json", `{"selections":`, "INVALID_INPUT"},
		{"wrong type", `{"selections":["Size"]}`, "INVALID_INPUT"},
		{"empty option title", `{"selections":{"":"S"}}`, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/api/v1/products/prod_01/variants/resolve", []byte(tt.body))
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			env := decodeEnvelope(t, rec)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}

func TestResolveVariant_UnknownProduct(t *testing.T) {
	router, _ := setupRouter(t, true)

	rec := do(t, router, http.MethodPost, "/api/v1/products/prod_missing/variants/resolve", []byte(`{}`))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// Catalog operations
// =============================================================================

func TestRefresh(t *testing.T) {
	router, _ := setupRouter(t, false)

	rec := refresh(t, router, signToken(t, "admin"))
	require.Equal(t, http.StatusOK, rec.Code)

	env := decodeEnvelope(t, rec)
	var res RefreshResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, uint64(1), res.Generation)
	assert.Equal(t, 2, res.Products)
	assert.Positive(t, res.Bytes)
	assert.False(t, res.Shared)

	rec = do(t, router, http.MethodGet, "/api/v1/products", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRefresh_UpstreamFailure(t *testing.T) {
	router, fetcher := setupRouter(t, true)
	fetcher.setStatus(http.StatusServiceUnavailable)

	rec := refresh(t, router, signToken(t, "admin"))
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, service.CodeUpstreamUnavailable, env.Error.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/products/prod_02", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "previous catalog keeps serving")
}

func TestRefresh_RequiresAdmin(t *testing.T) {
	router, _ := setupRouter(t, false)

	rec := refresh(t, router, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeEnvelope(t, rec).Error.Code)

	rec = refresh(t, router, signToken(t, "customer"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", decodeEnvelope(t, rec).Error.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/products", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, "rejected refresh loads nothing")
}

func TestRefresh_RateLimited(t *testing.T) {
	fetcher := &stubFetcher{status: http.StatusOK, body: storeProducts(t)}
	svc := service.NewCatalogService(catalog.New(fetcher, catalog.Options{Logger: testLogger()}), service.Options{}, testLogger())
	cfg := DefaultRouterConfig()
	cfg.RefreshAuth = middleware.HMACValidator(testJWTSecret)
	cfg.RefreshRPS = 0.001
	cfg.RefreshBurst = 1
	router := NewRouter(svc, health.NewHandler(), cfg, testLogger())

	token := signToken(t, "admin")
	require.Equal(t, http.StatusOK, refresh(t, router, token).Code)

	rec := refresh(t, router, token)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMITED", decodeEnvelope(t, rec).Error.Code)

	rec = refresh(t, router, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code, "limit applies before auth")
}

func TestRefresh_NotMountedWithoutValidator(t *testing.T) {
	fetcher := &stubFetcher{status: http.StatusOK, body: storeProducts(t)}
	svc := service.NewCatalogService(catalog.New(fetcher, catalog.Options{Logger: testLogger()}), service.Options{}, testLogger())
	router := NewRouter(svc, health.NewHandler(), DefaultRouterConfig(), testLogger())

	rec := refresh(t, router, signToken(t, "admin"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStats(t *testing.T) {
	router, _ := setupRouter(t, true)

	rec := do(t, router, http.MethodGet, "/api/v1/catalog/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	env := decodeEnvelope(t, rec)
	var stats catalog.Stats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.True(t, stats.Loaded)
	assert.Equal(t, uint64(1), stats.Generation)
	assert.Equal(t, 2, stats.Products)
	assert.Equal(t, 2, stats.Categories)
}

// =============================================================================
// Health and metrics
// =============================================================================

func TestHealth(t *testing.T) {
	router, _ := setupRouter(t, false)

	rec := do(t, router, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = refresh(t, router, signToken(t, "admin"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := setupRouter(t, true)
	do(t, router, http.MethodGet, "/api/v1/products", nil)

	rec := do(t, router, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}
