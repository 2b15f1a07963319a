package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	domain "github.com/torunhut/api/internal/domain"
	"github.com/torunhut/api/internal/platform/pagination"
	"github.com/torunhut/api/internal/services"
)

// testPageToken mints a cursor token in the same format the repositories
// hand back as nextPageToken.
func testPageToken(t *testing.T) string {
	t.Helper()
	token, err := pagination.EncodeToken(pagination.Cursor{StartAfter: []any{"cursor-1"}})
	if err != nil {
		t.Fatalf("EncodeToken: %v", err)
	}
	return token
}

type catalogServiceStub struct {
	getProduct    func(ctx context.Context, productID string) (services.Product, error)
	listProducts  func(ctx context.Context, filter services.ListProductsFilter) (domain.CursorPage[services.Product], error)
	createProduct func(ctx context.Context, cmd services.SaveProductCommand) (services.Product, error)
	updateProduct func(ctx context.Context, cmd services.SaveProductCommand) (services.Product, error)
	deleteProduct func(ctx context.Context, productID string) error
}

func (s *catalogServiceStub) GetProduct(ctx context.Context, productID string) (services.Product, error) {
	return s.getProduct(ctx, productID)
}

func (s *catalogServiceStub) ListProducts(ctx context.Context, filter services.ListProductsFilter) (domain.CursorPage[services.Product], error) {
	return s.listProducts(ctx, filter)
}

func (s *catalogServiceStub) CreateProduct(ctx context.Context, cmd services.SaveProductCommand) (services.Product, error) {
	return s.createProduct(ctx, cmd)
}

func (s *catalogServiceStub) UpdateProduct(ctx context.Context, cmd services.SaveProductCommand) (services.Product, error) {
	return s.updateProduct(ctx, cmd)
}

func (s *catalogServiceStub) DeleteProduct(ctx context.Context, productID string) error {
	return s.deleteProduct(ctx, productID)
}

type settingsServiceStub struct {
	getSettings    func(ctx context.Context) (services.Settings, error)
	updateSettings func(ctx context.Context, cmd services.UpdateSettingsCommand) (services.Settings, error)
}

func (s *settingsServiceStub) GetSettings(ctx context.Context) (services.Settings, error) {
	return s.getSettings(ctx)
}

func (s *settingsServiceStub) UpdateSettings(ctx context.Context, cmd services.UpdateSettingsCommand) (services.Settings, error) {
	return s.updateSettings(ctx, cmd)
}

func newPublicRouter(catalog services.CatalogService, settings services.SettingsService) chi.Router {
	r := chi.NewRouter()
	NewPublicHandlers(catalog, settings).Routes(r)
	return r
}

func TestListProductsDefaultsToActiveOnly(t *testing.T) {
	var captured services.ListProductsFilter
	catalog := &catalogServiceStub{
		listProducts: func(_ context.Context, filter services.ListProductsFilter) (domain.CursorPage[services.Product], error) {
			captured = filter
			return domain.CursorPage[services.Product]{
				Items: []services.Product{{
					ID:        "prod-1",
					Name:      "Classic Tee",
					Category:  domain.CategoryTShirt,
					ListPrice: 550,
					Active:    true,
				}},
			}, nil
		},
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/products?category=tshirt", nil)
	newPublicRouter(catalog, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !captured.ActiveOnly {
		t.Fatal("expected the public listing to request active products only")
	}
	if captured.Category != "tshirt" {
		t.Fatalf("unexpected category %q", captured.Category)
	}
	if captured.Pagination.PageSize != 24 {
		t.Fatalf("unexpected default page size %d", captured.Pagination.PageSize)
	}

	payload := decodeBody(t, rec)
	items, ok := payload["items"].([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("expected one item, got %v", payload)
	}
	item := items[0].(map[string]any)
	if item["price"] != float64(550) {
		t.Fatalf("unexpected price %v", item["price"])
	}
}

func TestListProductsRejectsBadPageSize(t *testing.T) {
	catalog := &catalogServiceStub{
		listProducts: func(context.Context, services.ListProductsFilter) (domain.CursorPage[services.Product], error) {
			t.Fatal("service should not be called")
			return domain.CursorPage[services.Product]{}, nil
		},
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/products?pageSize=abc", nil)
	newPublicRouter(catalog, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestListProductsRejectsMalformedPageToken(t *testing.T) {
	catalog := &catalogServiceStub{
		listProducts: func(context.Context, services.ListProductsFilter) (domain.CursorPage[services.Product], error) {
			t.Fatal("service should not be called")
			return domain.CursorPage[services.Product]{}, nil
		},
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/products?pageToken=%21%21not-a-cursor", nil)
	newPublicRouter(catalog, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetProductMapsNotFound(t *testing.T) {
	catalog := &catalogServiceStub{
		getProduct: func(_ context.Context, productID string) (services.Product, error) {
			return services.Product{}, services.ErrCatalogNotFound
		},
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/products/missing", nil)
	newPublicRouter(catalog, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	payload := decodeBody(t, rec)
	if payload["error"] != "product_not_found" {
		t.Fatalf("unexpected error code %v", payload["error"])
	}
}

func TestGetSettingsReturnsPayload(t *testing.T) {
	settings := &settingsServiceStub{
		getSettings: func(context.Context) (services.Settings, error) {
			return domain.Settings{
				StoreName:              "Torun Hut",
				PreorderEnabled:        true,
				LocalDeliveryCharge:    0,
				NationalDeliveryCharge: 100,
			}, nil
		},
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/settings", nil)
	newPublicRouter(nil, settings).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	payload := decodeBody(t, rec)
	body, ok := payload["settings"].(map[string]any)
	if !ok {
		t.Fatalf("expected settings envelope, got %v", payload)
	}
	if body["storeName"] != "Torun Hut" {
		t.Fatalf("unexpected store name %v", body["storeName"])
	}
	if body["nationalDeliveryCharge"] != float64(100) {
		t.Fatalf("unexpected national delivery charge %v", body["nationalDeliveryCharge"])
	}
}
