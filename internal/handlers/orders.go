package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/torunhut/api/internal/domain"
	"github.com/torunhut/api/internal/platform/auth"
	"github.com/torunhut/api/internal/platform/httpx"
	"github.com/torunhut/api/internal/services"
)

const (
	maxOrderBodySize = 256 * 1024

	// Checkout submissions per user within the window. Retries with the
	// same idempotency key replay the stored response before this check.
	createOrderLimit  = 5
	createOrderWindow = time.Minute
)

// OrderHandlers exposes the shopper-facing order endpoints: checkout,
// order history and tracking lookups.
type OrderHandlers struct {
	authn   *auth.Authenticator
	orders  services.OrderService
	limiter rateLimiter
}

// OrderHandlersOption customizes an OrderHandlers instance.
type OrderHandlersOption func(*OrderHandlers)

// WithCreateOrderLimiter overrides the checkout rate limiter.
func WithCreateOrderLimiter(limiter rateLimiter) OrderHandlersOption {
	return func(h *OrderHandlers) {
		h.limiter = limiter
	}
}

// NewOrderHandlers constructs a new OrderHandlers instance.
func NewOrderHandlers(authn *auth.Authenticator, orders services.OrderService, opts ...OrderHandlersOption) *OrderHandlers {
	h := &OrderHandlers{
		authn:   authn,
		orders:  orders,
		limiter: newSimpleRateLimiter(createOrderLimit, createOrderWindow, time.Now),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes registers the /orders endpoints.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth())
	}
	r.Post("/", h.createOrder)
	r.Get("/", h.listMyOrders)
	r.Get("/track/{shortID}", h.trackOrder)
	r.Get("/{orderID}", h.getOrder)
}

type createOrderRequest struct {
	CustomerName    string                 `json:"customerName"`
	Items           []requestLine          `json:"items"`
	ShippingType    string                 `json:"shippingType"`
	ShippingDetails requestShippingDetails `json:"shippingDetails"`
	PaymentMethod   string                 `json:"paymentMethod"`
	PaymentInfo     *paymentInfoPayload    `json:"paymentInfo"`
}

func (h *OrderHandlers) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	if h.limiter != nil && !h.limiter.Allow(identity.UID) {
		httpx.WriteError(ctx, w, httpx.NewError("rate_limited", "too many checkout attempts, slow down", http.StatusTooManyRequests))
		return
	}

	var req createOrderRequest
	if err := decodeJSONBody(r, maxOrderBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	lines := make([]domain.CartLine, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, item.toDomain())
	}

	shipping := req.ShippingDetails.toDomain()
	customerName := sanitizeText(req.CustomerName)
	if customerName == "" {
		customerName = shipping.Name
	}

	cmd := services.CreateOrderCommand{
		UserID:          identity.UID,
		CustomerName:    customerName,
		CustomerEmail:   strings.TrimSpace(identity.Email),
		Lines:           lines,
		ShippingZone:    domain.ShippingZone(strings.ToLower(strings.TrimSpace(req.ShippingType))),
		ShippingDetails: shipping,
		PaymentMethod:   domain.PaymentMethod(strings.ToUpper(strings.TrimSpace(req.PaymentMethod))),
	}
	if req.PaymentInfo != nil {
		cmd.PaymentInfo = &domain.PaymentInfo{
			Provider:      sanitizeText(req.PaymentInfo.Provider),
			PaymentNumber: sanitizeText(req.PaymentInfo.PaymentNumber),
			TrxID:         sanitizeText(req.PaymentInfo.TrxID),
		}
	}

	order, err := h.orders.CreateOrder(ctx, cmd)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, orderResponse{Order: buildOrderPayload(order)})
}

type orderResponse struct {
	Order orderPayload `json:"order"`
}

type orderListResponse struct {
	Items         []orderPayload `json:"items"`
	NextPageToken string         `json:"nextPageToken,omitempty"`
}

func buildOrderListResponse(page domain.CursorPage[services.Order]) orderListResponse {
	resp := orderListResponse{
		Items:         make([]orderPayload, 0, len(page.Items)),
		NextPageToken: page.NextPageToken,
	}
	for _, order := range page.Items {
		resp.Items = append(resp.Items, buildOrderPayload(order))
	}
	return resp
}

func (h *OrderHandlers) listMyOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	pager, err := parseListPagination(r, 20, 100)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	page, err := h.orders.ListUserOrders(ctx, identity.UID, pager)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildOrderListResponse(page))
}

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "order id is required", http.StatusBadRequest))
		return
	}

	order, err := h.orders.GetOrder(ctx, orderID)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	if !canViewOrder(identity, order) {
		// Hide existence from other shoppers.
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
		return
	}
	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

func (h *OrderHandlers) trackOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	shortID := strings.TrimSpace(chi.URLParam(r, "shortID"))
	if shortID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "short order id is required", http.StatusBadRequest))
		return
	}

	order, err := h.orders.GetOrderByShortID(ctx, shortID)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	if !canViewOrder(identity, order) {
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
		return
	}
	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

func canViewOrder(identity *auth.Identity, order services.Order) bool {
	if identity == nil {
		return false
	}
	if order.UserID != "" && order.UserID == identity.UID {
		return true
	}
	return identity.HasAnyRole(auth.RoleSubAdmin, auth.RoleAdmin)
}

func (h *OrderHandlers) requireIdentity(w http.ResponseWriter, r *http.Request) (*auth.Identity, bool) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return nil, false
	}
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || identity == nil || strings.TrimSpace(identity.UID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return nil, false
	}
	return identity, true
}

func writeOrderError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrOrderInsufficientStock):
		httpx.WriteError(ctx, w, httpx.NewError("insufficient_stock", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrOrderInvalidTransition):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_status_transition", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrOrderConflict):
		httpx.WriteError(ctx, w, httpx.NewError("order_conflict", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrOrderUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("order_unavailable", "orders temporarily unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("order_error", "failed to process order request", http.StatusInternalServerError))
	}
}
