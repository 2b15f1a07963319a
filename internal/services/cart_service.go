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
	// ErrCartInvalidInput indicates the caller supplied invalid cart data.
	ErrCartInvalidInput = errors.New("cart service: invalid input")
	// ErrCartNotFound indicates a referenced line or product does not exist.
	ErrCartNotFound = errors.New("cart service: not found")
	// ErrCartUnavailable indicates the service cannot reach its backend.
	ErrCartUnavailable = errors.New("cart service: unavailable")
)

// CartServiceDeps wires the cart service dependencies.
type CartServiceDeps struct {
	Carts    repositories.CartRepository
	Products repositories.ProductRepository
	Pricing  *PricingEngine
	Settings settingsReader
	Clock    func() time.Time
	Logger   func(context.Context, string, map[string]any)
	// LineIDGenerator mints ids for new cart lines.
	LineIDGenerator func() string
}

type cartService struct {
	carts     repositories.CartRepository
	products  repositories.ProductRepository
	pricing   *PricingEngine
	settings  settingsReader
	now       func() time.Time
	logger    func(context.Context, string, map[string]any)
	newLineID func() string
}

// NewCartService constructs a CartService enforcing dependency validation.
func NewCartService(deps CartServiceDeps) (CartService, error) {
	if deps.Carts == nil {
		return nil, errors.New("cart service: cart repository is required")
	}
	if deps.Products == nil {
		return nil, errors.New("cart service: product repository is required")
	}
	if deps.Pricing == nil {
		return nil, errors.New("cart service: pricing engine is required")
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = func(context.Context, string, map[string]any) {}
	}
	if deps.LineIDGenerator == nil {
		deps.LineIDGenerator = func() string { return "line_" + ulid.Make().String() }
	}

	clock := deps.Clock
	return &cartService{
		carts:     deps.Carts,
		products:  deps.Products,
		pricing:   deps.Pricing,
		settings:  deps.Settings,
		now:       func() time.Time { return clock().UTC() },
		logger:    deps.Logger,
		newLineID: deps.LineIDGenerator,
	}, nil
}

// GetCart returns the stored cart with a fresh breakdown. A user without a
// cart document gets an empty cart, not an error.
func (s *cartService) GetCart(ctx context.Context, userID string) (CartView, error) {
	if s == nil || s.carts == nil {
		return CartView{}, ErrCartUnavailable
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return CartView{}, ErrCartInvalidInput
	}

	cart, err := s.carts.Get(ctx, uid)
	if err != nil {
		if isRepoNotFound(err) {
			cart = domain.CartState{UserID: uid, ShippingZone: domain.ZoneNational}
		} else {
			return CartView{}, s.translateRepoError(err)
		}
	}
	return s.view(ctx, cart)
}

// ReplaceCart swaps the cart document wholesale. The storefront keeps its
// cart client-side and syncs it on login, so the replace is last-write-wins.
func (s *cartService) ReplaceCart(ctx context.Context, cmd ReplaceCartCommand) (CartView, error) {
	if s == nil || s.carts == nil {
		return CartView{}, ErrCartUnavailable
	}
	uid := strings.TrimSpace(cmd.UserID)
	if uid == "" {
		return CartView{}, ErrCartInvalidInput
	}
	zone := cmd.ShippingZone
	if zone == "" {
		zone = domain.ZoneNational
	}
	if _, ok := domain.ParseShippingZone(string(zone)); !ok {
		return CartView{}, fmt.Errorf("%w: unknown shipping zone %q", ErrCartInvalidInput, zone)
	}
	for i := range cmd.Lines {
		if cmd.Lines[i].Quantity < 1 {
			return CartView{}, fmt.Errorf("%w: line %s has quantity below one", ErrCartInvalidInput, cmd.Lines[i].LineID)
		}
		if cmd.Lines[i].LineID == "" {
			cmd.Lines[i].LineID = s.newLineID()
		}
	}

	now := s.now()
	existing, err := s.carts.Get(ctx, uid)
	createdAt := now
	if err == nil && !existing.CreatedAt.IsZero() {
		createdAt = existing.CreatedAt
	}

	cart := domain.CartState{
		UserID:          uid,
		Lines:           cmd.Lines,
		ShippingZone:    zone,
		ShippingDetails: cmd.ShippingDetails,
		PaymentMethod:   cmd.PaymentMethod,
		CreatedAt:       createdAt,
		UpdatedAt:       now,
	}
	saved, err := s.carts.Save(ctx, cart)
	if err != nil {
		return CartView{}, s.translateRepoError(err)
	}
	return s.view(ctx, saved)
}

// AddLine snapshots the product into a new cart line, or bumps the quantity
// of an existing line for the same product and size.
func (s *cartService) AddLine(ctx context.Context, cmd AddCartLineCommand) (CartView, error) {
	if s == nil || s.carts == nil {
		return CartView{}, ErrCartUnavailable
	}
	uid := strings.TrimSpace(cmd.UserID)
	pid := strings.TrimSpace(cmd.ProductID)
	if uid == "" || pid == "" {
		return CartView{}, ErrCartInvalidInput
	}
	if cmd.Quantity < 1 {
		return CartView{}, fmt.Errorf("%w: quantity must be at least one", ErrCartInvalidInput)
	}

	product, err := s.products.FindByID(ctx, pid)
	if err != nil {
		if isRepoNotFound(err) {
			return CartView{}, fmt.Errorf("%w: product %s", ErrCartNotFound, pid)
		}
		return CartView{}, s.translateRepoError(err)
	}
	if !product.Active {
		return CartView{}, fmt.Errorf("%w: product %s is not for sale", ErrCartInvalidInput, pid)
	}

	now := s.now()
	cart, err := s.carts.Get(ctx, uid)
	if err != nil {
		if !isRepoNotFound(err) {
			return CartView{}, s.translateRepoError(err)
		}
		cart = domain.CartState{UserID: uid, ShippingZone: domain.ZoneNational, CreatedAt: now}
	}

	merged := false
	for i := range cart.Lines {
		if cart.Lines[i].ProductID == pid && cart.Lines[i].Size == cmd.Size {
			cart.Lines[i].Quantity += cmd.Quantity
			merged = true
			break
		}
	}
	if !merged {
		cart.Lines = append(cart.Lines, domain.CartLine{
			LineID:              s.newLineID(),
			ProductID:           product.ID,
			Name:                product.Name,
			Quantity:            cmd.Quantity,
			Size:                cmd.Size,
			UnitListPrice:       product.ListPrice,
			DiscountedPrice:     product.DiscountedPrice,
			TieredPricing:       product.TieredPricing,
			IsPreorder:          product.IsPreorder,
			PreorderPaymentType: product.PreorderPaymentType,
			ImageURL:            product.ImageURL,
			AddedAt:             now,
		})
	}

	cart.UpdatedAt = now
	saved, err := s.carts.Save(ctx, cart)
	if err != nil {
		return CartView{}, s.translateRepoError(err)
	}
	return s.view(ctx, saved)
}

// SetQuantity adjusts a line's quantity. A value below one removes the line.
func (s *cartService) SetQuantity(ctx context.Context, cmd SetQuantityCommand) (CartView, error) {
	if s == nil || s.carts == nil {
		return CartView{}, ErrCartUnavailable
	}
	uid := strings.TrimSpace(cmd.UserID)
	lineID := strings.TrimSpace(cmd.LineID)
	if uid == "" || lineID == "" {
		return CartView{}, ErrCartInvalidInput
	}

	cart, err := s.carts.Get(ctx, uid)
	if err != nil {
		return CartView{}, s.translateRepoError(err)
	}

	idx := -1
	for i := range cart.Lines {
		if cart.Lines[i].LineID == lineID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return CartView{}, fmt.Errorf("%w: line %s", ErrCartNotFound, lineID)
	}

	if cmd.Quantity < 1 {
		cart.Lines = append(cart.Lines[:idx], cart.Lines[idx+1:]...)
	} else {
		cart.Lines[idx].Quantity = cmd.Quantity
	}

	cart.UpdatedAt = s.now()
	saved, err := s.carts.Save(ctx, cart)
	if err != nil {
		return CartView{}, s.translateRepoError(err)
	}
	return s.view(ctx, saved)
}

// CloneLineForSize copies a line into a new single-unit line for another
// size. The clone records the root product id so both lines keep counting
// into the same tiered-pricing aggregate, and cloning a clone still points
// at the root rather than nesting.
func (s *cartService) CloneLineForSize(ctx context.Context, cmd CloneLineCommand) (CartView, error) {
	if s == nil || s.carts == nil {
		return CartView{}, ErrCartUnavailable
	}
	uid := strings.TrimSpace(cmd.UserID)
	lineID := strings.TrimSpace(cmd.LineID)
	size := strings.TrimSpace(cmd.Size)
	if uid == "" || lineID == "" {
		return CartView{}, ErrCartInvalidInput
	}
	if size == "" {
		return CartView{}, fmt.Errorf("%w: size is required", ErrCartInvalidInput)
	}

	cart, err := s.carts.Get(ctx, uid)
	if err != nil {
		return CartView{}, s.translateRepoError(err)
	}

	var source *domain.CartLine
	for i := range cart.Lines {
		if cart.Lines[i].LineID == lineID {
			source = &cart.Lines[i]
			break
		}
	}
	if source == nil {
		return CartView{}, fmt.Errorf("%w: line %s", ErrCartNotFound, lineID)
	}

	root := source.RootProductID()
	clone := *source
	clone.LineID = s.newLineID()
	clone.ProductID = root + "-" + size
	clone.OriginalProductID = root
	clone.Quantity = 1
	clone.Size = size
	clone.AddedAt = s.now()
	cart.Lines = append(cart.Lines, clone)

	cart.UpdatedAt = s.now()
	saved, err := s.carts.Save(ctx, cart)
	if err != nil {
		return CartView{}, s.translateRepoError(err)
	}
	return s.view(ctx, saved)
}

func (s *cartService) ClearCart(ctx context.Context, userID string) error {
	if s == nil || s.carts == nil {
		return ErrCartUnavailable
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return ErrCartInvalidInput
	}
	if err := s.carts.Clear(ctx, uid); err != nil {
		if isRepoNotFound(err) {
			return nil
		}
		return s.translateRepoError(err)
	}
	return nil
}

func (s *cartService) view(ctx context.Context, cart domain.CartState) (CartView, error) {
	zone := cart.ShippingZone
	if zone == "" {
		zone = domain.ZoneNational
	}
	if len(cart.Lines) == 0 {
		// No delivery charge on an empty cart.
		return CartView{Cart: cart}, nil
	}
	breakdown, err := s.pricing.AggregateWith(cart.Lines, zone, s.deliveryRates(ctx))
	if err != nil {
		return CartView{}, fmt.Errorf("%w: %v", ErrCartInvalidInput, err)
	}
	return CartView{Cart: cart, Breakdown: breakdown}, nil
}

// deliveryRates prefers the admin-editable settings charges and falls back to
// the configured defaults when settings cannot be read.
func (s *cartService) deliveryRates(ctx context.Context) domain.DeliveryRates {
	if s.settings == nil {
		return s.pricing.Rates()
	}
	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		return s.pricing.Rates()
	}
	return domain.DeliveryRates{
		Local:    settings.LocalDeliveryCharge,
		National: settings.NationalDeliveryCharge,
	}
}

func (s *cartService) translateRepoError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsNotFound() {
		return ErrCartNotFound
	}
	return ErrCartUnavailable
}
