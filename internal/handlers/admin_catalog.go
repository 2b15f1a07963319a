package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/torunhut/api/internal/domain"
	"github.com/torunhut/api/internal/platform/auth"
	"github.com/torunhut/api/internal/platform/httpx"
	"github.com/torunhut/api/internal/platform/storage"
	"github.com/torunhut/api/internal/services"
)

const maxImageUploadMemory = 8 << 20

// AdminCatalogHandlers exposes the back-office product management endpoints,
// including the product image upload.
type AdminCatalogHandlers struct {
	authn    *auth.Authenticator
	catalog  services.CatalogService
	uploader *storage.Uploader
}

// NewAdminCatalogHandlers constructs a new AdminCatalogHandlers instance.
func NewAdminCatalogHandlers(authn *auth.Authenticator, catalog services.CatalogService, uploader *storage.Uploader) *AdminCatalogHandlers {
	return &AdminCatalogHandlers{
		authn:    authn,
		catalog:  catalog,
		uploader: uploader,
	}
}

// Routes registers the /admin catalog endpoints. Both staff roles may manage
// products.
func (h *AdminCatalogHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Group(func(g chi.Router) {
		if h.authn != nil {
			g.Use(h.authn.RequireFirebaseAuth(auth.RoleSubAdmin, auth.RoleAdmin))
		}
		g.Get("/products", h.listProducts)
		g.Post("/products", h.createProduct)
		g.Get("/products/{productID}", h.getProduct)
		g.Put("/products/{productID}", h.updateProduct)
		g.Delete("/products/{productID}", h.deleteProduct)
		g.Post("/uploads/images", h.uploadImage)
	})
}

type saveProductRequest struct {
	Name                string             `json:"name"`
	Description         string             `json:"description"`
	Category            string             `json:"category"`
	Price               int64              `json:"price"`
	DiscountedPrice     *int64             `json:"discountedPrice"`
	TieredPricing       []priceTierPayload `json:"tieredPricing"`
	Sizes               []string           `json:"sizes"`
	Image               string             `json:"image"`
	Stock               int                `json:"stock"`
	IsPreorder          bool               `json:"isPreorder"`
	PreorderPaymentType string             `json:"preorderPaymentType"`
	RequiresCustomText  bool               `json:"requiresCustomText"`
	Active              bool               `json:"active"`
}

func (req saveProductRequest) toCommand(productID, actorID string) services.SaveProductCommand {
	cmd := services.SaveProductCommand{
		ProductID:           productID,
		Name:                sanitizeText(req.Name),
		Description:         sanitizeText(req.Description),
		Category:            strings.ToLower(strings.TrimSpace(req.Category)),
		ListPrice:           req.Price,
		DiscountedPrice:     req.DiscountedPrice,
		Sizes:               make([]string, 0, len(req.Sizes)),
		ImageURL:            strings.TrimSpace(req.Image),
		Stock:               req.Stock,
		IsPreorder:          req.IsPreorder,
		PreorderPaymentType: strings.ToLower(strings.TrimSpace(req.PreorderPaymentType)),
		RequiresCustomText:  req.RequiresCustomText,
		Active:              req.Active,
		ActorID:             actorID,
	}
	for _, tier := range req.TieredPricing {
		cmd.TieredPricing = append(cmd.TieredPricing, domain.PriceTier{
			Quantity:  tier.Quantity,
			UnitPrice: tier.UnitPrice,
		})
	}
	for _, size := range req.Sizes {
		if trimmed := sanitizeText(size); trimmed != "" {
			cmd.Sizes = append(cmd.Sizes, trimmed)
		}
	}
	return cmd
}

func (h *AdminCatalogHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()
	pager, err := parseListPagination(r, 24, 100)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	filter := services.ListProductsFilter{
		Category:   strings.ToLower(strings.TrimSpace(query.Get("category"))),
		ActiveOnly: query.Get("active") == "true",
		Pagination: pager,
	}

	page, err := h.catalog.ListProducts(ctx, filter)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	resp := productListResponse{
		Items:         make([]productPayload, 0, len(page.Items)),
		NextPageToken: page.NextPageToken,
	}
	for _, product := range page.Items {
		resp.Items = append(resp.Items, buildProductPayload(product))
	}
	writeJSONResponse(w, http.StatusOK, resp)
}

func (h *AdminCatalogHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
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
	writeJSONResponse(w, http.StatusOK, map[string]any{"product": buildProductPayload(product)})
}

func (h *AdminCatalogHandlers) createProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := actorID(ctx)

	var req saveProductRequest
	if err := decodeJSONBody(r, defaultBodyLimit, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	product, err := h.catalog.CreateProduct(ctx, req.toCommand("", actor))
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, map[string]any{"product": buildProductPayload(product)})
}

func (h *AdminCatalogHandlers) updateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := actorID(ctx)

	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	if productID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product id is required", http.StatusBadRequest))
		return
	}

	var req saveProductRequest
	if err := decodeJSONBody(r, defaultBodyLimit, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	product, err := h.catalog.UpdateProduct(ctx, req.toCommand(productID, actor))
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"product": buildProductPayload(product)})
}

func (h *AdminCatalogHandlers) deleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	if productID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product id is required", http.StatusBadRequest))
		return
	}

	if err := h.catalog.DeleteProduct(ctx, productID); err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminCatalogHandlers) uploadImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.uploader == nil {
		httpx.WriteError(ctx, w, httpx.NewError("uploads_unavailable", "image uploads are not configured", http.StatusServiceUnavailable))
		return
	}

	if err := r.ParseMultipartForm(maxImageUploadMemory); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "expected multipart form upload", http.StatusBadRequest))
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "missing image file field", http.StatusBadRequest))
		return
	}
	defer file.Close()

	url, err := h.uploader.Upload(ctx, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrUploadTooLarge):
			httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "image exceeds the allowed size", http.StatusRequestEntityTooLarge))
		default:
			httpx.WriteError(ctx, w, httpx.NewError("invalid_upload", err.Error(), http.StatusBadRequest))
		}
		return
	}
	writeJSONResponse(w, http.StatusCreated, map[string]any{"url": url})
}

// actorID resolves the acting staff member from the request identity.
func actorID(ctx context.Context) string {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || identity == nil {
		return ""
	}
	return strings.TrimSpace(identity.UID)
}
