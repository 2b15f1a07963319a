package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/torunhut/api/internal/domain"
	"github.com/torunhut/api/internal/services"
)

type statsServiceStub struct {
	collect func(ctx context.Context) (services.StoreStats, error)
}

func (s *statsServiceStub) Collect(ctx context.Context) (services.StoreStats, error) {
	return s.collect(ctx)
}

func newAdminOrderRouter(orders services.OrderService, stats services.StatsService) chi.Router {
	r := chi.NewRouter()
	NewAdminOrderHandlers(nil, orders, stats).Routes(r)
	return r
}

func TestAdminListOrdersParsesStatusFilter(t *testing.T) {
	var captured services.ListOrdersFilter
	svc := &orderServiceStub{
		listOrders: func(_ context.Context, filter services.ListOrdersFilter) (domain.CursorPage[services.Order], error) {
			captured = filter
			return domain.CursorPage[services.Order]{}, nil
		},
	}

	rec := httptest.NewRecorder()
	req := authedRequest(t, http.MethodGet, "/orders?status=shipped&pageSize=10", "", staffIdentity("sub-1", "subadmin"))
	newAdminOrderRouter(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.Status == nil || *captured.Status != domain.OrderStatusShipped {
		t.Fatalf("unexpected status filter %v", captured.Status)
	}
	if captured.Pagination.PageSize != 10 {
		t.Fatalf("unexpected page size %d", captured.Pagination.PageSize)
	}
}

func TestAdminListOrdersRejectsUnknownStatus(t *testing.T) {
	svc := &orderServiceStub{
		listOrders: func(context.Context, services.ListOrdersFilter) (domain.CursorPage[services.Order], error) {
			t.Fatal("service should not be called")
			return domain.CursorPage[services.Order]{}, nil
		},
	}

	rec := httptest.NewRecorder()
	req := authedRequest(t, http.MethodGet, "/orders?status=teleported", "", staffIdentity("sub-1", "subadmin"))
	newAdminOrderRouter(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestTransitionStatusForwardsCommand(t *testing.T) {
	var captured services.OrderStatusCommand
	svc := &orderServiceStub{
		transitionStatus: func(_ context.Context, cmd services.OrderStatusCommand) (services.Order, error) {
			captured = cmd
			return domain.Order{ID: cmd.OrderID, Status: cmd.Status}, nil
		},
	}

	rec := httptest.NewRecorder()
	req := authedRequest(t, http.MethodPatch, "/orders/order-5/status", `{"status":"processing"}`, staffIdentity("sub-2", "subadmin"))
	newAdminOrderRouter(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.OrderID != "order-5" {
		t.Fatalf("unexpected order id %q", captured.OrderID)
	}
	if captured.Status != domain.OrderStatusProcessing {
		t.Fatalf("unexpected status %q", captured.Status)
	}
	if captured.ActorID != "sub-2" {
		t.Fatalf("unexpected actor %q", captured.ActorID)
	}
}

func TestTransitionStatusMapsInvalidTransition(t *testing.T) {
	svc := &orderServiceStub{
		transitionStatus: func(context.Context, services.OrderStatusCommand) (services.Order, error) {
			return domain.Order{}, services.ErrOrderInvalidTransition
		},
	}

	rec := httptest.NewRecorder()
	req := authedRequest(t, http.MethodPatch, "/orders/order-5/status", `{"status":"delivered"}`, staffIdentity("sub-2", "subadmin"))
	newAdminOrderRouter(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	payload := decodeBody(t, rec)
	if payload["error"] != "invalid_status_transition" {
		t.Fatalf("unexpected error code %v", payload["error"])
	}
}

func TestUpdateFulfilmentRequiresAField(t *testing.T) {
	svc := &orderServiceStub{
		updateFulfilment: func(context.Context, services.OrderFulfilmentCommand) (services.Order, error) {
			t.Fatal("service should not be called")
			return domain.Order{}, nil
		},
	}

	rec := httptest.NewRecorder()
	req := authedRequest(t, http.MethodPatch, "/orders/order-5/fulfilment", `{}`, staffIdentity("sub-2", "subadmin"))
	newAdminOrderRouter(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUpdateFulfilmentSanitizesFields(t *testing.T) {
	var captured services.OrderFulfilmentCommand
	svc := &orderServiceStub{
		updateFulfilment: func(_ context.Context, cmd services.OrderFulfilmentCommand) (services.Order, error) {
			captured = cmd
			return domain.Order{ID: cmd.OrderID}, nil
		},
	}

	body := `{"trackingNumber":" TRK-99 ","notes":"<img src=x>fragile"}`
	rec := httptest.NewRecorder()
	req := authedRequest(t, http.MethodPatch, "/orders/order-6/fulfilment", body, staffIdentity("sub-2", "subadmin"))
	newAdminOrderRouter(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.TrackingNumber == nil || *captured.TrackingNumber != "TRK-99" {
		t.Fatalf("unexpected tracking number %v", captured.TrackingNumber)
	}
	if captured.Notes == nil || *captured.Notes != "fragile" {
		t.Fatalf("unexpected notes %v", captured.Notes)
	}
}

func TestCollectStatsReturnsAggregate(t *testing.T) {
	stats := &statsServiceStub{
		collect: func(context.Context) (services.StoreStats, error) {
			return domain.StoreStats{
				TotalOrders:   42,
				PendingOrders: 5,
				TotalRevenue:  123400,
				TotalProducts: 18,
				TotalUsers:    230,
				OrdersByStatus: map[domain.OrderStatus]int{
					domain.OrderStatusPending:   5,
					domain.OrderStatusDelivered: 30,
				},
				GeneratedAt: time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC),
			}, nil
		},
	}

	rec := httptest.NewRecorder()
	req := authedRequest(t, http.MethodGet, "/stats", "", staffIdentity("admin-1", "admin"))
	newAdminOrderRouter(&orderServiceStub{}, stats).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	payload := decodeBody(t, rec)
	body, ok := payload["stats"].(map[string]any)
	if !ok {
		t.Fatalf("expected stats envelope, got %v", payload)
	}
	if body["totalOrders"] != float64(42) {
		t.Fatalf("unexpected total orders %v", body["totalOrders"])
	}
	byStatus, ok := body["ordersByStatus"].(map[string]any)
	if !ok || byStatus["delivered"] != float64(30) {
		t.Fatalf("unexpected orders by status %v", body["ordersByStatus"])
	}
}
