package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/torunhut/api/internal/domain"
	pfirestore "github.com/torunhut/api/internal/platform/firestore"
	"github.com/torunhut/api/internal/repositories"
)

// Carts are stored one document per user, keyed by uid. The whole line list
// lives in the document; carts are small and always read together.
const cartCollection = "carts"

type cartLineDocument struct {
	LineID              string              `firestore:"lineId"`
	ProductID           string              `firestore:"productId"`
	OriginalProductID   string              `firestore:"originalProductId,omitempty"`
	Name                string              `firestore:"name"`
	Quantity            int                 `firestore:"quantity"`
	Size                string              `firestore:"size,omitempty"`
	UnitListPrice       int64               `firestore:"unitListPrice"`
	DiscountedPrice     *int64              `firestore:"discountedPrice,omitempty"`
	TieredPricing       []priceTierDocument `firestore:"tieredPricing,omitempty"`
	IsPreorder          bool                `firestore:"isPreorder"`
	PreorderPaymentType string              `firestore:"preorderPaymentType,omitempty"`
	CustomName          string              `firestore:"customName,omitempty"`
	CustomNumber        string              `firestore:"customNumber,omitempty"`
	ImageURL            string              `firestore:"imageUrl,omitempty"`
	AddedAt             time.Time           `firestore:"addedAt"`
}

type cartDocument struct {
	Lines           []cartLineDocument      `firestore:"lines"`
	ShippingZone    string                  `firestore:"shippingZone,omitempty"`
	ShippingDetails shippingDetailsDocument `firestore:"shippingDetails,omitempty"`
	PaymentMethod   string                  `firestore:"paymentMethod,omitempty"`
	CreatedAt       time.Time               `firestore:"createdAt"`
	UpdatedAt       time.Time               `firestore:"updatedAt"`
}

// CartRepository persists per-user cart documents in Firestore.
type CartRepository struct {
	carts *pfirestore.Collection[cartDocument]
}

// NewCartRepository constructs a Firestore-backed cart repository.
func NewCartRepository(provider *pfirestore.Provider) (*CartRepository, error) {
	if provider == nil {
		return nil, errors.New("cart repository requires firestore provider")
	}
	return &CartRepository{
		carts: pfirestore.NewCollection[cartDocument](provider, cartCollection, nil),
	}, nil
}

var _ repositories.CartRepository = (*CartRepository)(nil)

func (r *CartRepository) Get(ctx context.Context, userID string) (domain.CartState, error) {
	if r == nil || r.carts == nil {
		return domain.CartState{}, errors.New("cart repository not initialised")
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return domain.CartState{}, errors.New("user id is required")
	}
	doc, err := r.carts.Get(ctx, uid)
	if err != nil {
		return domain.CartState{}, err
	}
	return toDomainCart(uid, doc.Data), nil
}

func (r *CartRepository) Save(ctx context.Context, cart domain.CartState) (domain.CartState, error) {
	if r == nil || r.carts == nil {
		return domain.CartState{}, errors.New("cart repository not initialised")
	}
	uid := strings.TrimSpace(cart.UserID)
	if uid == "" {
		return domain.CartState{}, errors.New("user id is required")
	}
	if _, err := r.carts.Set(ctx, uid, fromDomainCart(cart)); err != nil {
		return domain.CartState{}, err
	}
	return cart, nil
}

func (r *CartRepository) Clear(ctx context.Context, userID string) error {
	if r == nil || r.carts == nil {
		return errors.New("cart repository not initialised")
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return errors.New("user id is required")
	}
	return r.carts.Delete(ctx, uid)
}

func fromDomainCart(cart domain.CartState) cartDocument {
	lines := make([]cartLineDocument, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		tiers := make([]priceTierDocument, 0, len(line.TieredPricing))
		for _, tier := range line.TieredPricing {
			tiers = append(tiers, priceTierDocument{Quantity: tier.Quantity, UnitPrice: tier.UnitPrice})
		}
		if len(tiers) == 0 {
			tiers = nil
		}
		lines = append(lines, cartLineDocument{
			LineID:              line.LineID,
			ProductID:           line.ProductID,
			OriginalProductID:   line.OriginalProductID,
			Name:                line.Name,
			Quantity:            line.Quantity,
			Size:                line.Size,
			UnitListPrice:       line.UnitListPrice,
			DiscountedPrice:     line.DiscountedPrice,
			TieredPricing:       tiers,
			IsPreorder:          line.IsPreorder,
			PreorderPaymentType: string(line.PreorderPaymentType),
			CustomName:          line.CustomName,
			CustomNumber:        line.CustomNumber,
			ImageURL:            line.ImageURL,
			AddedAt:             line.AddedAt,
		})
	}
	return cartDocument{
		Lines:        lines,
		ShippingZone: string(cart.ShippingZone),
		ShippingDetails: shippingDetailsDocument{
			Name:    cart.ShippingDetails.Name,
			Phone:   cart.ShippingDetails.Phone,
			Email:   cart.ShippingDetails.Email,
			Address: cart.ShippingDetails.Address,
			Area:    cart.ShippingDetails.Area,
			Notes:   cart.ShippingDetails.Notes,
		},
		PaymentMethod: string(cart.PaymentMethod),
		CreatedAt:     cart.CreatedAt,
		UpdatedAt:     cart.UpdatedAt,
	}
}

func toDomainCart(userID string, doc cartDocument) domain.CartState {
	lines := make([]domain.CartLine, 0, len(doc.Lines))
	for _, line := range doc.Lines {
		tiers := make([]domain.PriceTier, 0, len(line.TieredPricing))
		for _, tier := range line.TieredPricing {
			tiers = append(tiers, domain.PriceTier{Quantity: tier.Quantity, UnitPrice: tier.UnitPrice})
		}
		if len(tiers) == 0 {
			tiers = nil
		}
		lines = append(lines, domain.CartLine{
			LineID:              line.LineID,
			ProductID:           line.ProductID,
			OriginalProductID:   line.OriginalProductID,
			Name:                line.Name,
			Quantity:            line.Quantity,
			Size:                line.Size,
			UnitListPrice:       line.UnitListPrice,
			DiscountedPrice:     line.DiscountedPrice,
			TieredPricing:       tiers,
			IsPreorder:          line.IsPreorder,
			PreorderPaymentType: domain.PreorderPaymentType(line.PreorderPaymentType),
			CustomName:          line.CustomName,
			CustomNumber:        line.CustomNumber,
			ImageURL:            line.ImageURL,
			AddedAt:             line.AddedAt,
		})
	}
	return domain.CartState{
		UserID:       userID,
		Lines:        lines,
		ShippingZone: domain.ShippingZone(doc.ShippingZone),
		ShippingDetails: domain.ShippingDetails{
			Name:    doc.ShippingDetails.Name,
			Phone:   doc.ShippingDetails.Phone,
			Email:   doc.ShippingDetails.Email,
			Address: doc.ShippingDetails.Address,
			Area:    doc.ShippingDetails.Area,
			Notes:   doc.ShippingDetails.Notes,
		},
		PaymentMethod: domain.PaymentMethod(doc.PaymentMethod),
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}
}
