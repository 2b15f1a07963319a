package repositories

import (
	"context"
	"time"

	domain "github.com/torunhut/api/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Products() ProductRepository
	Orders() OrderRepository
	Carts() CartRepository
	Users() UserRepository
	Settings() SettingsRepository
	Health() HealthRepository
	UnitOfWork
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork allows grouping repository operations in a transactional boundary when supported.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ProductRepository persists catalog entries.
type ProductRepository interface {
	Insert(ctx context.Context, product domain.Product) (domain.Product, error)
	Update(ctx context.Context, product domain.Product) (domain.Product, error)
	Delete(ctx context.Context, productID string) error
	FindByID(ctx context.Context, productID string) (domain.Product, error)
	List(ctx context.Context, filter ProductListFilter) (domain.CursorPage[domain.Product], error)
	Count(ctx context.Context) (int, error)
	// AdjustStock atomically changes the stock counter by delta (negative to
	// decrement). It never drives the counter below zero; the stored value
	// is clamped.
	AdjustStock(ctx context.Context, productID string, delta int) (int, error)
}

// ProductListFilter narrows catalog listings.
type ProductListFilter struct {
	Category   *domain.ProductCategory
	ActiveOnly bool
	Pagination domain.Pagination
}

// OrderRepository persists orders and enforces short-id uniqueness.
type OrderRepository interface {
	// Insert persists the order and atomically reserves its ShortOrderID.
	// A colliding short id fails with a conflict error and persists nothing.
	Insert(ctx context.Context, order domain.Order) (domain.Order, error)
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	FindByShortID(ctx context.Context, shortOrderID string) (domain.Order, error)
	List(ctx context.Context, filter OrderListFilter) (domain.CursorPage[domain.Order], error)
	ListByUser(ctx context.Context, userID string, pager domain.Pagination) (domain.CursorPage[domain.Order], error)
	UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus, updatedAt time.Time) (domain.Order, error)
	UpdateFulfilment(ctx context.Context, orderID string, update OrderFulfilmentUpdate) (domain.Order, error)
	MarkExported(ctx context.Context, orderID string, exportedAt time.Time) error
	ListUnexported(ctx context.Context, limit int) ([]domain.Order, error)
	CountByStatus(ctx context.Context) (map[domain.OrderStatus]int, error)
	// SumTotals returns the sum of Total over orders excluding the given
	// statuses.
	SumTotals(ctx context.Context, exclude []domain.OrderStatus) (int64, error)
}

// OrderListFilter narrows back-office order listings.
type OrderListFilter struct {
	Status     *domain.OrderStatus
	CreatedAt  *TimeRange
	Pagination domain.Pagination
}

// TimeRange is an inclusive timestamp window.
type TimeRange struct {
	From *time.Time
	To   *time.Time
}

// OrderFulfilmentUpdate carries the mutable post-creation order fields.
type OrderFulfilmentUpdate struct {
	TrackingNumber *string
	Notes          *string
	UpdatedAt      time.Time
}

// CartRepository persists the per-user cart state document.
type CartRepository interface {
	Get(ctx context.Context, userID string) (domain.CartState, error)
	Save(ctx context.Context, cart domain.CartState) (domain.CartState, error)
	Clear(ctx context.Context, userID string) error
}

// UserRepository persists shopper accounts synced from the identity provider.
type UserRepository interface {
	Upsert(ctx context.Context, user domain.User) (domain.User, error)
	FindByID(ctx context.Context, userID string) (domain.User, error)
	List(ctx context.Context, pager domain.Pagination) (domain.CursorPage[domain.User], error)
	UpdateRole(ctx context.Context, userID string, role domain.UserRole, updatedAt time.Time) (domain.User, error)
	Count(ctx context.Context) (int, error)
}

// SettingsRepository owns the storefront settings singleton.
type SettingsRepository interface {
	Get(ctx context.Context) (domain.Settings, error)
	Save(ctx context.Context, settings domain.Settings) (domain.Settings, error)
}

// HealthRepository reports backend connectivity for readiness probes.
type HealthRepository interface {
	Ping(ctx context.Context) error
}
