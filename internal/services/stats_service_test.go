package services

import (
	"context"
	"testing"
	"time"

	domain "github.com/torunhut/api/internal/domain"
)

func TestCollectStats(t *testing.T) {
	orders := newFakeOrderRepo()
	orders.orders["o1"] = domain.Order{ID: "o1", Status: domain.OrderStatusPending, Total: 1000}
	orders.orders["o2"] = domain.Order{ID: "o2", Status: domain.OrderStatusDelivered, Total: 2500}
	orders.orders["o3"] = domain.Order{ID: "o3", Status: domain.OrderStatusCancelled, Total: 9999}

	products := newFakeProductRepo(
		domain.Product{ID: "p1"},
		domain.Product{ID: "p2"},
	)
	users := newFakeUserRepo(domain.User{ID: "u1"})

	svc, err := NewStatsService(StatsServiceDeps{
		Orders:   orders,
		Products: products,
		Users:    users,
		Clock:    func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("NewStatsService: %v", err)
	}

	stats, err := svc.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if stats.TotalOrders != 3 {
		t.Fatalf("total orders = %d, want 3", stats.TotalOrders)
	}
	if stats.PendingOrders != 1 {
		t.Fatalf("pending orders = %d, want 1", stats.PendingOrders)
	}
	// Cancelled orders do not count toward revenue.
	if stats.TotalRevenue != 3500 {
		t.Fatalf("revenue = %d, want 3500", stats.TotalRevenue)
	}
	if stats.TotalProducts != 2 || stats.TotalUsers != 1 {
		t.Fatalf("counts = %d products / %d users, want 2 / 1", stats.TotalProducts, stats.TotalUsers)
	}
	if stats.OrdersByStatus[domain.OrderStatusDelivered] != 1 {
		t.Fatalf("byStatus = %+v, want one delivered", stats.OrdersByStatus)
	}
}
