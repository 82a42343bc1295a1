package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront-catalog/pkg/httputil"
	"github.com/utafrali/storefront-catalog/pkg/pagination"
	"github.com/utafrali/storefront-catalog/pkg/validator"
	"github.com/utafrali/storefront-catalog/services/catalog/internal/service"
	"github.com/utafrali/storefront-catalog/services/catalog/internal/variant"
)

// maxResolveBody caps the resolve request body.
const maxResolveBody = 64 << 10

// CatalogHandler handles HTTP requests for catalog endpoints.
type CatalogHandler struct {
	service *service.CatalogService
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler.
func NewCatalogHandler(svc *service.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: svc,
		logger:  logger,
	}
}

// ListProducts handles GET /api/v1/products
// @Summary List catalog products
// @Description Returns a page of products filtered by derived category and search text
// @Tags products
// @Produce json
// @Param q query string false "Case-insensitive search over title, description and category"
// @Param category query string false "Derived category; All or empty disables the filter"
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page (max 100)" default(20)
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /api/v1/products [get]
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	params, err := pagination.Parse(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	input := service.ListProductsInput{
		Category: strings.TrimSpace(r.URL.Query().Get("category")),
		Query:    r.URL.Query().Get("q"),
		Page:     params,
	}

	products, total, err := h.service.ListProducts(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	data := newProductResponses(products, h.service.DefaultCategory())
	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(data, total, params.Page, params.PerPage))
}

// GetProduct handles GET /api/v1/products/{id}
// @Summary Get product by ID
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/products/{id} [get]
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, newProductResponse(product, h.service.DefaultCategory()))
}

// ListCategories handles GET /api/v1/categories
// @Summary List categories
// @Description Returns "All" followed by the distinct derived categories in lexicographic order
// @Tags categories
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/categories [get]
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, categories)
}

// ResolveVariant handles POST /api/v1/products/{id}/variants/resolve
// @Summary Resolve a variant from option selections
// @Tags products
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param request body ResolveVariantRequest false "Option title to value selections"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/products/{id}/variants/resolve [post]
func (h *CatalogHandler) ResolveVariant(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxResolveBody)

	var req ResolveVariantRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil && !errors.Is(err, io.EOF) {
		httputil.WriteValidationError(w, err)
		return
	}

	res, err := h.service.ResolveVariant(r.Context(), chi.URLParam(r, "id"), variant.Selections(req.Selections))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, newResolveVariantResponse(res))
}

// Refresh handles POST /api/v1/catalog/refresh
// @Summary Refresh the catalog from upstream
// @Description Joins an in-flight refresh when one is running
// @Tags catalog
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /api/v1/catalog/refresh [post]
func (h *CatalogHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Refresh(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, newRefreshResponse(res))
}

// Stats handles GET /api/v1/catalog/stats
// @Summary Describe the live catalog
// @Tags catalog
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/catalog/stats [get]
func (h *CatalogHandler) Stats(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, h.service.Stats(r.Context()))
}
