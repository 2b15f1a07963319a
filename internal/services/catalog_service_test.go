package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/torunhut/api/internal/domain"
)

func newCatalogFixture(t *testing.T, products ...domain.Product) (*fakeProductRepo, CatalogService) {
	t.Helper()
	repo := newFakeProductRepo(products...)
	svc, err := NewCatalogService(CatalogServiceDeps{
		Products:    repo,
		Clock:       func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) },
		IDGenerator: func() string { return "prod_fixed" },
	})
	if err != nil {
		t.Fatalf("NewCatalogService: %v", err)
	}
	return repo, svc
}

func TestCreateProductNormalizesCategory(t *testing.T) {
	cases := []struct {
		raw  string
		want domain.ProductCategory
	}{
		{"jersey", domain.CategoryJersey},
		{"Jerseys", domain.CategoryJersey},
		{"t-shirt", domain.CategoryTShirt},
		{"tshirt", domain.CategoryTShirt},
		{"HOODIE", domain.CategoryHoodie},
	}

	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			_, svc := newCatalogFixture(t)
			product, err := svc.CreateProduct(context.Background(), SaveProductCommand{
				Name:      "Test Product",
				Category:  tc.raw,
				ListPrice: 500,
				Active:    true,
			})
			if err != nil {
				t.Fatalf("CreateProduct: %v", err)
			}
			if product.Category != tc.want {
				t.Fatalf("category = %s, want %s", product.Category, tc.want)
			}
		})
	}
}

func TestCreateProductValidation(t *testing.T) {
	cases := []struct {
		name string
		cmd  SaveProductCommand
	}{
		{"missing name", SaveProductCommand{Category: "jersey", ListPrice: 500}},
		{"unknown category", SaveProductCommand{Name: "X", Category: "mug", ListPrice: 500}},
		{"negative list price", SaveProductCommand{Name: "X", Category: "jersey", ListPrice: -1}},
		{"zero tier threshold", SaveProductCommand{
			Name: "X", Category: "jersey", ListPrice: 500,
			TieredPricing: []domain.PriceTier{{Quantity: 0, UnitPrice: 400}},
		}},
		{"zero tier price", SaveProductCommand{
			Name: "X", Category: "jersey", ListPrice: 500,
			TieredPricing: []domain.PriceTier{{Quantity: 2, UnitPrice: 0}},
		}},
		{"bad preorder type", SaveProductCommand{
			Name: "X", Category: "jersey", ListPrice: 500,
			IsPreorder: true, PreorderPaymentType: "installments",
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, svc := newCatalogFixture(t)
			if _, err := svc.CreateProduct(context.Background(), tc.cmd); !errors.Is(err, ErrCatalogInvalidInput) {
				t.Fatalf("err = %v, want invalid input", err)
			}
		})
	}
}

func TestCreateProductDefaultsPreorderTypeToHalf(t *testing.T) {
	_, svc := newCatalogFixture(t)
	product, err := svc.CreateProduct(context.Background(), SaveProductCommand{
		Name:       "Preorder Kit",
		Category:   "jersey",
		ListPrice:  1000,
		IsPreorder: true,
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if product.PreorderPaymentType != domain.PreorderPaymentHalf {
		t.Fatalf("preorder type = %s, want half", product.PreorderPaymentType)
	}
}

func TestUpdateProductKeepsCreatedAt(t *testing.T) {
	created := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	repo, svc := newCatalogFixture(t, domain.Product{
		ID:        "prod-1",
		Name:      "Old Name",
		Category:  domain.CategoryTShirt,
		ListPrice: 400,
		CreatedAt: created,
	})

	updated, err := svc.UpdateProduct(context.Background(), SaveProductCommand{
		ProductID: "prod-1",
		Name:      "New Name",
		Category:  "tshirt",
		ListPrice: 450,
		Active:    true,
	})
	if err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	if !updated.CreatedAt.Equal(created) {
		t.Fatalf("createdAt = %v, want preserved %v", updated.CreatedAt, created)
	}
	if repo.products["prod-1"].Name != "New Name" {
		t.Fatalf("name not persisted")
	}
}

func TestUpdateProductUnknownID(t *testing.T) {
	_, svc := newCatalogFixture(t)
	_, err := svc.UpdateProduct(context.Background(), SaveProductCommand{
		ProductID: "prod-missing",
		Name:      "X",
		Category:  "jersey",
		ListPrice: 100,
	})
	if !errors.Is(err, ErrCatalogNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestListProductsFiltersCategory(t *testing.T) {
	_, svc := newCatalogFixture(t,
		domain.Product{ID: "p1", Name: "Jersey", Category: domain.CategoryJersey, Active: true},
		domain.Product{ID: "p2", Name: "Hoodie", Category: domain.CategoryHoodie, Active: true},
		domain.Product{ID: "p3", Name: "Hidden Jersey", Category: domain.CategoryJersey, Active: false},
	)

	page, err := svc.ListProducts(context.Background(), ListProductsFilter{Category: "jerseys", ActiveOnly: true})
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != "p1" {
		t.Fatalf("items = %+v, want only p1", page.Items)
	}

	if _, err := svc.ListProducts(context.Background(), ListProductsFilter{Category: "mug"}); !errors.Is(err, ErrCatalogInvalidInput) {
		t.Fatalf("err = %v, want invalid input for unknown category", err)
	}
}

func TestDeleteProduct(t *testing.T) {
	repo, svc := newCatalogFixture(t, domain.Product{ID: "p1", Name: "Jersey", Category: domain.CategoryJersey})

	if err := svc.DeleteProduct(context.Background(), "p1"); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}
	if len(repo.products) != 0 {
		t.Fatalf("product still present after delete")
	}
	if err := svc.DeleteProduct(context.Background(), "p1"); !errors.Is(err, ErrCatalogNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}
