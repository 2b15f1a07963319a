package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/torunhut/api/internal/domain"
	"github.com/torunhut/api/internal/repositories"
)

var (
	// ErrCatalogInvalidInput indicates the caller supplied an invalid product payload.
	ErrCatalogInvalidInput = errors.New("catalog service: invalid input")
	// ErrCatalogNotFound indicates the product does not exist.
	ErrCatalogNotFound = errors.New("catalog service: not found")
	// ErrCatalogUnavailable indicates the service cannot reach its backend.
	ErrCatalogUnavailable = errors.New("catalog service: unavailable")
)

// CatalogServiceDeps wires the catalog service dependencies.
type CatalogServiceDeps struct {
	Products    repositories.ProductRepository
	Clock       func() time.Time
	Logger      func(context.Context, string, map[string]any)
	IDGenerator func() string
}

type catalogService struct {
	products repositories.ProductRepository
	now      func() time.Time
	logger   func(context.Context, string, map[string]any)
	newID    func() string
}

// NewCatalogService constructs a CatalogService enforcing dependency validation.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Products == nil {
		return nil, errors.New("catalog service: product repository is required")
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = func(context.Context, string, map[string]any) {}
	}
	if deps.IDGenerator == nil {
		deps.IDGenerator = func() string { return "prod_" + ulid.Make().String() }
	}

	clock := deps.Clock
	return &catalogService{
		products: deps.Products,
		now:      func() time.Time { return clock().UTC() },
		logger:   deps.Logger,
		newID:    deps.IDGenerator,
	}, nil
}

func (s *catalogService) GetProduct(ctx context.Context, productID string) (Product, error) {
	if s == nil || s.products == nil {
		return Product{}, ErrCatalogUnavailable
	}
	id := strings.TrimSpace(productID)
	if id == "" {
		return Product{}, ErrCatalogInvalidInput
	}
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return Product{}, s.translateRepoError(err)
	}
	return product, nil
}

func (s *catalogService) ListProducts(ctx context.Context, filter ListProductsFilter) (domain.CursorPage[Product], error) {
	if s == nil || s.products == nil {
		return domain.CursorPage[Product]{}, ErrCatalogUnavailable
	}

	repoFilter := repositories.ProductListFilter{
		ActiveOnly: filter.ActiveOnly,
		Pagination: filter.Pagination,
	}
	if raw := strings.TrimSpace(filter.Category); raw != "" {
		category, ok := domain.NormalizeCategory(raw)
		if !ok {
			return domain.CursorPage[Product]{}, fmt.Errorf("%w: unknown category %q", ErrCatalogInvalidInput, raw)
		}
		repoFilter.Category = &category
	}

	page, err := s.products.List(ctx, repoFilter)
	if err != nil {
		return domain.CursorPage[Product]{}, s.translateRepoError(err)
	}
	return page, nil
}

func (s *catalogService) CreateProduct(ctx context.Context, cmd SaveProductCommand) (Product, error) {
	if s == nil || s.products == nil {
		return Product{}, ErrCatalogUnavailable
	}
	product, err := s.productFromCommand(cmd)
	if err != nil {
		return Product{}, err
	}

	now := s.now()
	if product.ID == "" {
		product.ID = s.newID()
	}
	product.CreatedAt = now
	product.UpdatedAt = now

	saved, err := s.products.Insert(ctx, product)
	if err != nil {
		return Product{}, s.translateRepoError(err)
	}
	s.logger(ctx, "catalog.product_created", map[string]any{
		"productID": saved.ID,
		"actorID":   cmd.ActorID,
	})
	return saved, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, cmd SaveProductCommand) (Product, error) {
	if s == nil || s.products == nil {
		return Product{}, ErrCatalogUnavailable
	}
	if strings.TrimSpace(cmd.ProductID) == "" {
		return Product{}, fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}
	product, err := s.productFromCommand(cmd)
	if err != nil {
		return Product{}, err
	}

	existing, err := s.products.FindByID(ctx, product.ID)
	if err != nil {
		return Product{}, s.translateRepoError(err)
	}
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = s.now()

	saved, err := s.products.Update(ctx, product)
	if err != nil {
		return Product{}, s.translateRepoError(err)
	}
	s.logger(ctx, "catalog.product_updated", map[string]any{
		"productID": saved.ID,
		"actorID":   cmd.ActorID,
	})
	return saved, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, productID string) error {
	if s == nil || s.products == nil {
		return ErrCatalogUnavailable
	}
	id := strings.TrimSpace(productID)
	if id == "" {
		return ErrCatalogInvalidInput
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return s.translateRepoError(err)
	}
	s.logger(ctx, "catalog.product_deleted", map[string]any{"productID": id})
	return nil
}

// productFromCommand validates the admin payload and maps it onto the domain
// type. Category synonyms normalize to the canonical value; tier thresholds
// must be at least one unit with a positive price.
func (s *catalogService) productFromCommand(cmd SaveProductCommand) (domain.Product, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return domain.Product{}, fmt.Errorf("%w: name is required", ErrCatalogInvalidInput)
	}
	if cmd.ListPrice < 0 {
		return domain.Product{}, fmt.Errorf("%w: list price cannot be negative", ErrCatalogInvalidInput)
	}
	if cmd.DiscountedPrice != nil && *cmd.DiscountedPrice < 0 {
		return domain.Product{}, fmt.Errorf("%w: discounted price cannot be negative", ErrCatalogInvalidInput)
	}
	if cmd.Stock < 0 {
		return domain.Product{}, fmt.Errorf("%w: stock cannot be negative", ErrCatalogInvalidInput)
	}

	category, ok := domain.NormalizeCategory(cmd.Category)
	if !ok {
		return domain.Product{}, fmt.Errorf("%w: unknown category %q", ErrCatalogInvalidInput, cmd.Category)
	}

	for _, tier := range cmd.TieredPricing {
		if tier.Quantity < 1 {
			return domain.Product{}, fmt.Errorf("%w: tier threshold must be at least one", ErrCatalogInvalidInput)
		}
		if tier.UnitPrice <= 0 {
			return domain.Product{}, fmt.Errorf("%w: tier price must be positive", ErrCatalogInvalidInput)
		}
	}

	var preorderType domain.PreorderPaymentType
	if cmd.IsPreorder {
		switch strings.ToLower(strings.TrimSpace(cmd.PreorderPaymentType)) {
		case string(domain.PreorderPaymentHalf), "":
			preorderType = domain.PreorderPaymentHalf
		case string(domain.PreorderPaymentFull):
			preorderType = domain.PreorderPaymentFull
		default:
			return domain.Product{}, fmt.Errorf("%w: unknown preorder payment type %q", ErrCatalogInvalidInput, cmd.PreorderPaymentType)
		}
	}

	return domain.Product{
		ID:                  strings.TrimSpace(cmd.ProductID),
		Name:                name,
		Description:         strings.TrimSpace(cmd.Description),
		Category:            category,
		ListPrice:           cmd.ListPrice,
		DiscountedPrice:     cmd.DiscountedPrice,
		TieredPricing:       cmd.TieredPricing,
		Sizes:               cmd.Sizes,
		ImageURL:            strings.TrimSpace(cmd.ImageURL),
		Stock:               cmd.Stock,
		IsPreorder:          cmd.IsPreorder,
		PreorderPaymentType: preorderType,
		RequiresCustomText:  cmd.RequiresCustomText,
		Active:              cmd.Active,
	}, nil
}

func (s *catalogService) translateRepoError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return ErrCatalogNotFound
		case repoErr.IsConflict():
			return fmt.Errorf("%w: product already exists", ErrCatalogInvalidInput)
		}
	}
	return ErrCatalogUnavailable
}
