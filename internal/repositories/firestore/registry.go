package firestore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"

	pfirestore "github.com/torunhut/api/internal/platform/firestore"
	"github.com/torunhut/api/internal/repositories"
)

// Registry bundles the Firestore-backed repositories behind the
// repositories.Registry interface for dependency injection.
type Registry struct {
	provider *pfirestore.Provider
	products *ProductRepository
	orders   *OrderRepository
	carts    *CartRepository
	users    *UserRepository
	settings *SettingsRepository
	health   repositories.HealthRepository
}

// NewRegistry wires every repository on top of one shared provider.
func NewRegistry(provider *pfirestore.Provider) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("registry requires firestore provider")
	}

	products, err := NewProductRepository(provider)
	if err != nil {
		return nil, err
	}
	orders, err := NewOrderRepository(provider)
	if err != nil {
		return nil, err
	}
	carts, err := NewCartRepository(provider)
	if err != nil {
		return nil, err
	}
	users, err := NewUserRepository(provider)
	if err != nil {
		return nil, err
	}
	settings, err := NewSettingsRepository(provider)
	if err != nil {
		return nil, err
	}
	health, err := repositories.NewProbeHealthRepository([]repositories.Probe{
		{
			Name: "firestore",
			Check: func(ctx context.Context) error {
				_, err := provider.Client(ctx)
				return err
			},
		},
	})
	if err != nil {
		return nil, err
	}

	return &Registry{
		provider: provider,
		products: products,
		orders:   orders,
		carts:    carts,
		users:    users,
		settings: settings,
		health:   health,
	}, nil
}

var _ repositories.Registry = (*Registry)(nil)

func (r *Registry) Close(ctx context.Context) error {
	if r == nil || r.provider == nil {
		return nil
	}
	return r.provider.Close(ctx)
}

func (r *Registry) Products() repositories.ProductRepository { return r.products }
func (r *Registry) Orders() repositories.OrderRepository     { return r.orders }
func (r *Registry) Carts() repositories.CartRepository       { return r.carts }
func (r *Registry) Users() repositories.UserRepository       { return r.users }
func (r *Registry) Settings() repositories.SettingsRepository {
	return r.settings
}
func (r *Registry) Health() repositories.HealthRepository { return r.health }

// RunInTx groups repository calls into one Firestore transaction.
func (r *Registry) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if r == nil || r.provider == nil {
		return errors.New("registry not initialised")
	}
	return r.provider.RunTransaction(ctx, func(ctx context.Context, _ *firestore.Transaction) error {
		return fn(ctx)
	})
}
