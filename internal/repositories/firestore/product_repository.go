package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/torunhut/api/internal/domain"
	pfirestore "github.com/torunhut/api/internal/platform/firestore"
	"github.com/torunhut/api/internal/repositories"
)

const productCollection = "products"

type priceTierDocument struct {
	Quantity  int   `firestore:"quantity"`
	UnitPrice int64 `firestore:"unitPrice"`
}

type productDocument struct {
	Name                string              `firestore:"name"`
	Description         string              `firestore:"description,omitempty"`
	Category            string              `firestore:"category"`
	ListPrice           int64               `firestore:"listPrice"`
	DiscountedPrice     *int64              `firestore:"discountedPrice,omitempty"`
	TieredPricing       []priceTierDocument `firestore:"tieredPricing,omitempty"`
	Sizes               []string            `firestore:"sizes,omitempty"`
	ImageURL            string              `firestore:"imageUrl,omitempty"`
	Stock               int                 `firestore:"stock"`
	IsPreorder          bool                `firestore:"isPreorder"`
	PreorderPaymentType string              `firestore:"preorderPaymentType,omitempty"`
	RequiresCustomText  bool                `firestore:"requiresCustomText"`
	Active              bool                `firestore:"active"`
	CreatedAt           time.Time           `firestore:"createdAt"`
	UpdatedAt           time.Time           `firestore:"updatedAt"`
}

// ProductRepository persists catalog entries in Firestore.
type ProductRepository struct {
	products *pfirestore.Collection[productDocument]
	provider *pfirestore.Provider
}

// NewProductRepository constructs a Firestore-backed product repository.
func NewProductRepository(provider *pfirestore.Provider) (*ProductRepository, error) {
	if provider == nil {
		return nil, errors.New("product repository requires firestore provider")
	}
	return &ProductRepository{
		products: pfirestore.NewCollection[productDocument](provider, productCollection, nil),
		provider: provider,
	}, nil
}

var _ repositories.ProductRepository = (*ProductRepository)(nil)

func (r *ProductRepository) Insert(ctx context.Context, product domain.Product) (domain.Product, error) {
	if r == nil || r.products == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	if strings.TrimSpace(product.ID) == "" {
		return domain.Product{}, errors.New("product id is required")
	}
	if _, err := r.products.Create(ctx, product.ID, fromDomainProduct(product)); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

func (r *ProductRepository) Update(ctx context.Context, product domain.Product) (domain.Product, error) {
	if r == nil || r.products == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	if strings.TrimSpace(product.ID) == "" {
		return domain.Product{}, errors.New("product id is required")
	}
	if _, err := r.products.Set(ctx, product.ID, fromDomainProduct(product)); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

func (r *ProductRepository) Delete(ctx context.Context, productID string) error {
	if r == nil || r.products == nil {
		return errors.New("product repository not initialised")
	}
	// Set-then-delete would race; rely on a transactional existence check.
	return r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.products.Doc(ctx, productID)
		if err != nil {
			return err
		}
		if _, err := tx.Get(ref); err != nil {
			return pfirestore.WrapError("products.delete", err)
		}
		return tx.Delete(ref)
	})
}

func (r *ProductRepository) FindByID(ctx context.Context, productID string) (domain.Product, error) {
	if r == nil || r.products == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	doc, err := r.products.Get(ctx, productID)
	if err != nil {
		return domain.Product{}, err
	}
	return toDomainProduct(doc.ID, doc.Data), nil
}

func (r *ProductRepository) List(ctx context.Context, filter repositories.ProductListFilter) (domain.CursorPage[domain.Product], error) {
	if r == nil || r.products == nil {
		return domain.CursorPage[domain.Product]{}, errors.New("product repository not initialised")
	}

	pageSize := normalisePageSize(filter.Pagination.PageSize)
	cursor, err := decodeCursor(filter.Pagination.PageToken)
	if err != nil {
		return domain.CursorPage[domain.Product]{}, err
	}

	docs, err := r.products.Query(ctx, func(q firestore.Query) firestore.Query {
		if filter.Category != nil {
			q = q.Where("category", "==", string(*filter.Category))
		}
		if filter.ActiveOnly {
			q = q.Where("active", "==", true)
		}
		q = q.OrderBy("createdAt", firestore.Desc).OrderBy(firestore.DocumentID, firestore.Desc)
		if len(cursor) > 0 {
			q = q.StartAfter(cursor...)
		}
		return q.Limit(pageSize + 1)
	})
	if err != nil {
		return domain.CursorPage[domain.Product]{}, err
	}

	page := domain.CursorPage[domain.Product]{}
	for i, doc := range docs {
		if i == pageSize {
			break
		}
		page.Items = append(page.Items, toDomainProduct(doc.ID, doc.Data))
	}
	if len(docs) > pageSize {
		last := docs[pageSize-1]
		token, err := encodeCursor(last.Data.CreatedAt, last.ID)
		if err != nil {
			return domain.CursorPage[domain.Product]{}, err
		}
		page.NextPageToken = token
	}
	return page, nil
}

func (r *ProductRepository) Count(ctx context.Context) (int, error) {
	if r == nil || r.products == nil {
		return 0, errors.New("product repository not initialised")
	}
	ref, err := r.products.Ref(ctx)
	if err != nil {
		return 0, err
	}
	return runCountAggregation(ctx, ref.Query, "products.count")
}

// AdjustStock changes the stock counter by delta inside a transaction. The
// stored value never goes below zero.
func (r *ProductRepository) AdjustStock(ctx context.Context, productID string, delta int) (int, error) {
	if r == nil || r.provider == nil {
		return 0, errors.New("product repository not initialised")
	}
	id := strings.TrimSpace(productID)
	if id == "" {
		return 0, errors.New("product id is required")
	}

	var remaining int
	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.products.Doc(ctx, id)
		if err != nil {
			return err
		}
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var doc productDocument
		if err := snap.DataTo(&doc); err != nil {
			return err
		}
		doc.Stock += delta
		if doc.Stock < 0 {
			doc.Stock = 0
		}
		remaining = doc.Stock
		return tx.Update(ref, []firestore.Update{
			{Path: "stock", Value: doc.Stock},
			{Path: "updatedAt", Value: time.Now().UTC()},
		})
	})
	if err != nil {
		return 0, pfirestore.WrapError("products.adjustStock", err)
	}
	return remaining, nil
}

func fromDomainProduct(product domain.Product) productDocument {
	tiers := make([]priceTierDocument, 0, len(product.TieredPricing))
	for _, tier := range product.TieredPricing {
		tiers = append(tiers, priceTierDocument{Quantity: tier.Quantity, UnitPrice: tier.UnitPrice})
	}
	if len(tiers) == 0 {
		tiers = nil
	}
	return productDocument{
		Name:                strings.TrimSpace(product.Name),
		Description:         strings.TrimSpace(product.Description),
		Category:            string(product.Category),
		ListPrice:           product.ListPrice,
		DiscountedPrice:     product.DiscountedPrice,
		TieredPricing:       tiers,
		Sizes:               product.Sizes,
		ImageURL:            strings.TrimSpace(product.ImageURL),
		Stock:               product.Stock,
		IsPreorder:          product.IsPreorder,
		PreorderPaymentType: string(product.PreorderPaymentType),
		RequiresCustomText:  product.RequiresCustomText,
		Active:              product.Active,
		CreatedAt:           product.CreatedAt,
		UpdatedAt:           product.UpdatedAt,
	}
}

func toDomainProduct(id string, doc productDocument) domain.Product {
	tiers := make([]domain.PriceTier, 0, len(doc.TieredPricing))
	for _, tier := range doc.TieredPricing {
		tiers = append(tiers, domain.PriceTier{Quantity: tier.Quantity, UnitPrice: tier.UnitPrice})
	}
	if len(tiers) == 0 {
		tiers = nil
	}
	return domain.Product{
		ID:                  id,
		Name:                doc.Name,
		Description:         doc.Description,
		Category:            domain.ProductCategory(doc.Category),
		ListPrice:           doc.ListPrice,
		DiscountedPrice:     doc.DiscountedPrice,
		TieredPricing:       tiers,
		Sizes:               doc.Sizes,
		ImageURL:            doc.ImageURL,
		Stock:               doc.Stock,
		IsPreorder:          doc.IsPreorder,
		PreorderPaymentType: domain.PreorderPaymentType(doc.PreorderPaymentType),
		RequiresCustomText:  doc.RequiresCustomText,
		Active:              doc.Active,
		CreatedAt:           doc.CreatedAt,
		UpdatedAt:           doc.UpdatedAt,
	}
}
