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
	"github.com/torunhut/api/internal/services"
)

const maxCartBodySize = 128 * 1024

// CartHandlers exposes the per-user cart endpoints. Every mutation returns
// the stored cart together with the server-computed breakdown so the client
// displays exactly the numbers checkout will recompute.
type CartHandlers struct {
	authn *auth.Authenticator
	carts services.CartService
}

// NewCartHandlers constructs a new CartHandlers instance.
func NewCartHandlers(authn *auth.Authenticator, carts services.CartService) *CartHandlers {
	return &CartHandlers{
		authn: authn,
		carts: carts,
	}
}

// Routes registers the /cart endpoints.
func (h *CartHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth())
	}
	r.Get("/", h.getCart)
	r.Put("/", h.replaceCart)
	r.Delete("/", h.clearCart)
	r.Post("/lines", h.addLine)
	r.Patch("/lines/{lineID}", h.setQuantity)
	r.Post("/lines/{lineID}:clone", h.cloneLine)
}

type cartPayload struct {
	UserID          string                 `json:"userId"`
	Lines           []cartLinePayload      `json:"lines"`
	ShippingType    string                 `json:"shippingType"`
	ShippingDetails shippingDetailsPayload `json:"shippingDetails"`
	PaymentMethod   string                 `json:"paymentMethod,omitempty"`
	UpdatedAt       string                 `json:"updatedAt,omitempty"`
}

type cartResponse struct {
	Cart      cartPayload      `json:"cart"`
	Breakdown breakdownPayload `json:"breakdown"`
}

func buildCartResponse(view services.CartView) cartResponse {
	cart := cartPayload{
		UserID:          view.Cart.UserID,
		Lines:           make([]cartLinePayload, 0, len(view.Cart.Lines)),
		ShippingType:    string(view.Cart.ShippingZone),
		ShippingDetails: buildShippingDetailsPayload(view.Cart.ShippingDetails),
		PaymentMethod:   string(view.Cart.PaymentMethod),
		UpdatedAt:       formatTime(view.Cart.UpdatedAt),
	}
	for _, line := range view.Cart.Lines {
		cart.Lines = append(cart.Lines, buildCartLinePayload(line))
	}
	return cartResponse{
		Cart:      cart,
		Breakdown: buildBreakdownPayload(view.Breakdown),
	}
}

func (h *CartHandlers) getCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	view, err := h.carts.GetCart(ctx, uid)
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildCartResponse(view))
}

type replaceCartRequest struct {
	Lines           []requestLine          `json:"lines"`
	ShippingType    string                 `json:"shippingType"`
	ShippingDetails requestShippingDetails `json:"shippingDetails"`
	PaymentMethod   string                 `json:"paymentMethod"`
}

func (h *CartHandlers) replaceCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req replaceCartRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	lines := make([]domain.CartLine, 0, len(req.Lines))
	for _, line := range req.Lines {
		lines = append(lines, line.toDomain())
	}

	view, err := h.carts.ReplaceCart(ctx, services.ReplaceCartCommand{
		UserID:          uid,
		Lines:           lines,
		ShippingZone:    domain.ShippingZone(strings.ToLower(strings.TrimSpace(req.ShippingType))),
		ShippingDetails: req.ShippingDetails.toDomain(),
		PaymentMethod:   domain.PaymentMethod(strings.ToUpper(strings.TrimSpace(req.PaymentMethod))),
	})
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildCartResponse(view))
}

type addLineRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size"`
}

func (h *CartHandlers) addLine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req addLineRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	view, err := h.carts.AddLine(ctx, services.AddCartLineCommand{
		UserID:    uid,
		ProductID: strings.TrimSpace(req.ProductID),
		Quantity:  req.Quantity,
		Size:      sanitizeText(req.Size),
	})
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildCartResponse(view))
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandlers) setQuantity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	lineID := strings.TrimSpace(chi.URLParam(r, "lineID"))
	if lineID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "line id is required", http.StatusBadRequest))
		return
	}

	var req setQuantityRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	view, err := h.carts.SetQuantity(ctx, services.SetQuantityCommand{
		UserID:   uid,
		LineID:   lineID,
		Quantity: req.Quantity,
	})
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildCartResponse(view))
}

type cloneLineRequest struct {
	Size string `json:"size"`
}

func (h *CartHandlers) cloneLine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	lineID := strings.TrimSpace(chi.URLParam(r, "lineID"))
	if lineID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "line id is required", http.StatusBadRequest))
		return
	}

	var req cloneLineRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	view, err := h.carts.CloneLineForSize(ctx, services.CloneLineCommand{
		UserID: uid,
		LineID: lineID,
		Size:   sanitizeText(req.Size),
	})
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildCartResponse(view))
}

func (h *CartHandlers) clearCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	if err := h.carts.ClearCart(ctx, uid); err != nil {
		writeCartError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandlers) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_service_unavailable", "cart service unavailable", http.StatusServiceUnavailable))
		return "", false
	}
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || identity == nil || strings.TrimSpace(identity.UID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return "", false
	}
	return strings.TrimSpace(identity.UID), true
}

func (h *CartHandlers) decodeBody(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := decodeJSONBody(r, maxCartBodySize, target); err != nil {
		writeBodyError(r.Context(), w, err)
		return false
	}
	return true
}

func writeBodyError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errBodyTooLarge):
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	}
}

func writeCartError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrCartInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCartNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("cart_not_found", "cart line not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCartUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart temporarily unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("cart_error", "failed to process cart request", http.StatusInternalServerError))
	}
}
