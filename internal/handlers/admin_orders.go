package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/torunhut/api/internal/domain"
	"github.com/torunhut/api/internal/platform/auth"
	"github.com/torunhut/api/internal/platform/httpx"
	"github.com/torunhut/api/internal/services"
)

// AdminOrderHandlers exposes the back-office order management endpoints and
// the dashboard stats aggregate.
type AdminOrderHandlers struct {
	authn  *auth.Authenticator
	orders services.OrderService
	stats  services.StatsService
}

// NewAdminOrderHandlers constructs a new AdminOrderHandlers instance.
func NewAdminOrderHandlers(authn *auth.Authenticator, orders services.OrderService, stats services.StatsService) *AdminOrderHandlers {
	return &AdminOrderHandlers{
		authn:  authn,
		orders: orders,
		stats:  stats,
	}
}

// Routes registers the /admin order endpoints.
func (h *AdminOrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Group(func(g chi.Router) {
		if h.authn != nil {
			g.Use(h.authn.RequireFirebaseAuth(auth.RoleSubAdmin, auth.RoleAdmin))
		}
		g.Get("/orders", h.listOrders)
		g.Get("/orders/{orderID}", h.getOrder)
		g.Patch("/orders/{orderID}/status", h.transitionStatus)
		g.Patch("/orders/{orderID}/fulfilment", h.updateFulfilment)
		g.Get("/stats", h.collectStats)
	})
}

func (h *AdminOrderHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	pager, err := parseListPagination(r, 20, 100)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	filter := services.ListOrdersFilter{Pagination: pager}
	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		status, ok := domain.ParseOrderStatus(raw)
		if !ok {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "unknown order status filter", http.StatusBadRequest))
			return
		}
		filter.Status = &status
	}

	page, err := h.orders.ListOrders(ctx, filter)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildOrderListResponse(page))
}

func (h *AdminOrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
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
	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

type transitionStatusRequest struct {
	Status string `json:"status"`
}

func (h *AdminOrderHandlers) transitionStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "order id is required", http.StatusBadRequest))
		return
	}

	var req transitionStatusRequest
	if err := decodeJSONBody(r, defaultBodyLimit, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	status, ok := domain.ParseOrderStatus(strings.TrimSpace(req.Status))
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "unknown order status", http.StatusBadRequest))
		return
	}

	order, err := h.orders.TransitionStatus(ctx, services.OrderStatusCommand{
		OrderID: orderID,
		Status:  status,
		ActorID: actorID(ctx),
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

type updateFulfilmentRequest struct {
	TrackingNumber *string `json:"trackingNumber"`
	Notes          *string `json:"notes"`
}

func (h *AdminOrderHandlers) updateFulfilment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "order id is required", http.StatusBadRequest))
		return
	}

	var req updateFulfilmentRequest
	if err := decodeJSONBody(r, defaultBodyLimit, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	if req.TrackingNumber == nil && req.Notes == nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "nothing to update", http.StatusBadRequest))
		return
	}

	cmd := services.OrderFulfilmentCommand{
		OrderID: orderID,
		ActorID: actorID(ctx),
	}
	if req.TrackingNumber != nil {
		cleaned := sanitizeText(*req.TrackingNumber)
		cmd.TrackingNumber = &cleaned
	}
	if req.Notes != nil {
		cleaned := sanitizeText(*req.Notes)
		cmd.Notes = &cleaned
	}

	order, err := h.orders.UpdateFulfilment(ctx, cmd)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

type statsPayload struct {
	TotalOrders    int            `json:"totalOrders"`
	PendingOrders  int            `json:"pendingOrders"`
	TotalRevenue   int64          `json:"totalRevenue"`
	TotalProducts  int            `json:"totalProducts"`
	TotalUsers     int            `json:"totalUsers"`
	OrdersByStatus map[string]int `json:"ordersByStatus"`
	GeneratedAt    string         `json:"generatedAt"`
}

func (h *AdminOrderHandlers) collectStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.stats == nil {
		httpx.WriteError(ctx, w, httpx.NewError("stats_unavailable", "stats are not configured", http.StatusServiceUnavailable))
		return
	}

	stats, err := h.stats.Collect(ctx)
	if err != nil {
		if errors.Is(err, services.ErrStatsUnavailable) {
			httpx.WriteError(ctx, w, httpx.NewError("stats_unavailable", "stats temporarily unavailable", http.StatusServiceUnavailable))
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError("stats_error", "failed to collect stats", http.StatusInternalServerError))
		return
	}

	payload := statsPayload{
		TotalOrders:    stats.TotalOrders,
		PendingOrders:  stats.PendingOrders,
		TotalRevenue:   stats.TotalRevenue,
		TotalProducts:  stats.TotalProducts,
		TotalUsers:     stats.TotalUsers,
		OrdersByStatus: make(map[string]int, len(stats.OrdersByStatus)),
		GeneratedAt:    formatTime(stats.GeneratedAt),
	}
	for status, count := range stats.OrdersByStatus {
		payload.OrdersByStatus[string(status)] = count
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"stats": payload})
}
