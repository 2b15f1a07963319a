package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/torunhut/api/internal/platform/httpx"
	"github.com/torunhut/api/internal/platform/pagination"
	"github.com/torunhut/api/internal/services"
)

const (
	defaultProductPageSize = 24
	maxProductPageSize     = 100
)

// PublicHandlers exposes the storefront catalog and settings without
// authentication.
type PublicHandlers struct {
	catalog  services.CatalogService
	settings services.SettingsService
}

// NewPublicHandlers constructs a new PublicHandlers instance.
func NewPublicHandlers(catalog services.CatalogService, settings services.SettingsService) *PublicHandlers {
	return &PublicHandlers{
		catalog:  catalog,
		settings: settings,
	}
}

// Routes registers the /public endpoints.
func (h *PublicHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/products", h.listProducts)
	r.Get("/products/{productID}", h.getProduct)
	r.Get("/settings", h.getSettings)
}

type productListResponse struct {
	Items         []productPayload `json:"items"`
	NextPageToken string           `json:"nextPageToken,omitempty"`
}

func (h *PublicHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	pager, err := parseListPagination(r, defaultProductPageSize, maxProductPageSize)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	// The storefront only ever sees active products.
	filter := services.ListProductsFilter{
		Category:   strings.TrimSpace(r.URL.Query().Get("category")),
		ActiveOnly: true,
		Pagination: pager,
	}

	page, err := h.catalog.ListProducts(ctx, filter)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	items := make([]productPayload, 0, len(page.Items))
	for _, product := range page.Items {
		items = append(items, buildProductPayload(product))
	}
	writeJSONResponse(w, http.StatusOK, productListResponse{
		Items:         items,
		NextPageToken: page.NextPageToken,
	})
}

func (h *PublicHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	if productID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product id is required", http.StatusBadRequest))
		return
	}

	product, err := h.catalog.GetProduct(ctx, productID)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	if !product.Active {
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"product": buildProductPayload(product)})
}

func (h *PublicHandlers) getSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.settings == nil {
		httpx.WriteError(ctx, w, httpx.NewError("settings_unavailable", "settings service unavailable", http.StatusServiceUnavailable))
		return
	}

	settings, err := h.settings.GetSettings(ctx)
	if err != nil {
		writeSettingsError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"settings": buildSettingsPayload(settings)})
}

// parseListPagination validates pageSize and pageToken for the list
// endpoints. Tokens are checked here so a malformed cursor is rejected
// before any repository query runs.
func parseListPagination(r *http.Request, fallback, ceiling int) (services.Pagination, error) {
	params, err := pagination.FromRequest(r, pagination.Options{
		DefaultPageSize: fallback,
		MaxPageSize:     ceiling,
	})
	if err != nil {
		return services.Pagination{}, err
	}
	return services.Pagination{
		PageSize:  params.PageSize,
		PageToken: params.PageToken,
	}, nil
}

func writeCatalogError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrCatalogInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCatalogNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCatalogUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog temporarily unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("catalog_error", "failed to process catalog request", http.StatusInternalServerError))
	}
}

func writeSettingsError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrSettingsInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrSettingsUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("settings_unavailable", "settings temporarily unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("settings_error", "failed to process settings request", http.StatusInternalServerError))
	}
}
