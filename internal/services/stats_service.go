package services

import (
	"context"
	"errors"
	"time"

	domain "github.com/torunhut/api/internal/domain"
	"github.com/torunhut/api/internal/repositories"
)

// ErrStatsUnavailable indicates the stats service cannot reach its backend.
var ErrStatsUnavailable = errors.New("stats service: unavailable")

// StatsServiceDeps wires the stats service dependencies.
type StatsServiceDeps struct {
	Orders   repositories.OrderRepository
	Products repositories.ProductRepository
	Users    repositories.UserRepository
	Clock    func() time.Time
}

type statsService struct {
	orders   repositories.OrderRepository
	products repositories.ProductRepository
	users    repositories.UserRepository
	now      func() time.Time
}

// NewStatsService constructs a StatsService enforcing dependency validation.
func NewStatsService(deps StatsServiceDeps) (StatsService, error) {
	if deps.Orders == nil {
		return nil, errors.New("stats service: order repository is required")
	}
	if deps.Products == nil {
		return nil, errors.New("stats service: product repository is required")
	}
	if deps.Users == nil {
		return nil, errors.New("stats service: user repository is required")
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	clock := deps.Clock
	return &statsService{
		orders:   deps.Orders,
		products: deps.Products,
		users:    deps.Users,
		now:      func() time.Time { return clock().UTC() },
	}, nil
}

// Collect assembles the back-office dashboard figures. Revenue excludes
// cancelled orders.
func (s *statsService) Collect(ctx context.Context) (StoreStats, error) {
	if s == nil || s.orders == nil {
		return StoreStats{}, ErrStatsUnavailable
	}

	byStatus, err := s.orders.CountByStatus(ctx)
	if err != nil {
		return StoreStats{}, ErrStatsUnavailable
	}
	revenue, err := s.orders.SumTotals(ctx, []domain.OrderStatus{domain.OrderStatusCancelled})
	if err != nil {
		return StoreStats{}, ErrStatsUnavailable
	}
	productCount, err := s.products.Count(ctx)
	if err != nil {
		return StoreStats{}, ErrStatsUnavailable
	}
	userCount, err := s.users.Count(ctx)
	if err != nil {
		return StoreStats{}, ErrStatsUnavailable
	}

	total := 0
	for _, n := range byStatus {
		total += n
	}

	return StoreStats{
		TotalOrders:    total,
		PendingOrders:  byStatus[domain.OrderStatusPending],
		TotalRevenue:   revenue,
		TotalProducts:  productCount,
		TotalUsers:     userCount,
		OrdersByStatus: byStatus,
		GeneratedAt:    s.now(),
	}, nil
}
