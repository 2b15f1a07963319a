package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/torunhut/api/internal/domain"
	"github.com/torunhut/api/internal/repositories"
)

var (
	// ErrOrderInvalidInput indicates the caller supplied invalid checkout data.
	ErrOrderInvalidInput = errors.New("order service: invalid input")
	// ErrOrderNotFound indicates the requested order does not exist.
	ErrOrderNotFound = errors.New("order service: not found")
	// ErrOrderUnavailable indicates the service cannot reach its backend.
	ErrOrderUnavailable = errors.New("order service: unavailable")
	// ErrOrderConflict indicates a write conflict, such as short-id space
	// exhaustion after repeated collisions.
	ErrOrderConflict = errors.New("order service: conflict")
	// ErrOrderInsufficientStock indicates a line requested more units than the
	// stored product has. The wrapped message names the product.
	ErrOrderInsufficientStock = errors.New("order service: insufficient stock")
	// ErrOrderInvalidTransition indicates a disallowed status change.
	ErrOrderInvalidTransition = errors.New("order service: invalid status transition")
)

// Allowed lifecycle edges. Cancellation is only reachable from pending;
// delivered and cancelled are terminal.
var orderStateTransitions = map[domain.OrderStatus][]domain.OrderStatus{
	domain.OrderStatusPending:    {domain.OrderStatusProcessing, domain.OrderStatusCancelled},
	domain.OrderStatusProcessing: {domain.OrderStatusShipped},
	domain.OrderStatusShipped:    {domain.OrderStatusDelivered},
}

func canTransitionOrder(from, to domain.OrderStatus) bool {
	for _, allowed := range orderStateTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

type settingsReader interface {
	GetSettings(ctx context.Context) (Settings, error)
}

// OrderServiceDeps wires the order service dependencies.
type OrderServiceDeps struct {
	Orders   repositories.OrderRepository
	Products repositories.ProductRepository
	Carts    repositories.CartRepository
	Pricing  *PricingEngine
	Exporter OrderExporter
	Events   OrderEventPublisher
	Settings settingsReader
	// ShortIDAttempts bounds the redraw loop on short-id collisions.
	ShortIDAttempts int
	Clock           func() time.Time
	Logger          func(context.Context, string, map[string]any)
	IDGenerator     func() string
	ShortIDDraw     func() string
}

type orderService struct {
	orders      repositories.OrderRepository
	products    repositories.ProductRepository
	carts       repositories.CartRepository
	pricing     *PricingEngine
	exporter    OrderExporter
	events      OrderEventPublisher
	settings    settingsReader
	idAttempts  int
	now         func() time.Time
	logger      func(context.Context, string, map[string]any)
	newID       func() string
	drawShortID func() string
}

// NewOrderService constructs an OrderService enforcing dependency validation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	if deps.Products == nil {
		return nil, errors.New("order service: product repository is required")
	}
	if deps.Pricing == nil {
		return nil, errors.New("order service: pricing engine is required")
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = func(context.Context, string, map[string]any) {}
	}
	if deps.IDGenerator == nil {
		deps.IDGenerator = func() string { return "ord_" + ulid.Make().String() }
	}
	if deps.ShortIDDraw == nil {
		deps.ShortIDDraw = func() string {
			return fmt.Sprintf("%05d", rand.IntN(90000)+10000)
		}
	}
	attempts := deps.ShortIDAttempts
	if attempts <= 0 {
		attempts = 10
	}

	clock := deps.Clock
	return &orderService{
		orders:      deps.Orders,
		products:    deps.Products,
		carts:       deps.Carts,
		pricing:     deps.Pricing,
		exporter:    deps.Exporter,
		events:      deps.Events,
		settings:    deps.Settings,
		idAttempts:  attempts,
		now:         func() time.Time { return clock().UTC() },
		logger:      deps.Logger,
		newID:       deps.IDGenerator,
		drawShortID: deps.ShortIDDraw,
	}, nil
}

// CreateOrder re-derives the monetary breakdown from the submitted lines,
// validates stock, assigns a unique 5-digit short order id, persists the
// order, and then runs the best-effort post-commit steps (stock decrement,
// spreadsheet export, event publish, cart clear).
//
// Trust boundary: the submitted unit prices, tier snapshots and preorder
// flags are the client's resolved values. The server recomputes every
// subtotal from them but does not re-resolve prices against the stored
// catalog unless the VerifyClientPricing setting is on, and even then a
// mismatch is only logged.
func (s *orderService) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (Order, error) {
	if s == nil || s.orders == nil {
		return Order{}, ErrOrderUnavailable
	}

	if err := validateCreateOrder(cmd); err != nil {
		return Order{}, err
	}

	lines := make([]domain.CartLine, len(cmd.Lines))
	copy(lines, cmd.Lines)

	if err := s.checkStockAndBackfill(ctx, lines); err != nil {
		return Order{}, err
	}

	s.verifyClientPricing(ctx, lines)

	breakdown, err := s.pricing.AggregateWith(lines, cmd.ShippingZone, s.deliveryRates(ctx))
	if err != nil {
		if errors.Is(err, ErrPricingInvalidInput) {
			return Order{}, fmt.Errorf("%w: %v", ErrOrderInvalidInput, err)
		}
		return Order{}, ErrOrderUnavailable
	}

	now := s.now()
	order := domain.Order{
		ID:                      s.newID(),
		UserID:                  strings.TrimSpace(cmd.UserID),
		CustomerName:            strings.TrimSpace(cmd.CustomerName),
		CustomerEmail:           strings.TrimSpace(cmd.CustomerEmail),
		Lines:                   frozenOrderLines(lines, breakdown),
		Subtotal:                breakdown.CartTotal,
		RegularSubtotal:         breakdown.RegularSubtotal,
		PreorderSubtotal:        breakdown.PreorderPayableNow,
		RemainingPreorderAmount: breakdown.PreorderDeferred,
		DeliveryCharge:          breakdown.DeliveryCharge,
		Total:                   breakdown.Total,
		ShippingZone:            cmd.ShippingZone,
		ShippingDetails:         cmd.ShippingDetails,
		PaymentMethod:           cmd.PaymentMethod,
		PaymentStatus:           resolvePaymentStatus(cmd.PaymentMethod, breakdown),
		PaymentInfo:             clonePaymentInfo(cmd.PaymentInfo),
		Status:                  domain.OrderStatusPending,
		CreatedAt:               now,
		UpdatedAt:               now,
	}

	saved, err := s.insertWithShortID(ctx, order)
	if err != nil {
		return Order{}, err
	}

	// Everything below is best-effort: the order, once accepted, is never
	// retracted because of downstream bookkeeping failures.
	s.decrementStock(ctx, saved)
	s.exportOrder(ctx, saved)
	s.publishEvent(ctx, "order.created", saved)
	s.clearCart(ctx, saved.UserID)

	return saved, nil
}

func validateCreateOrder(cmd CreateOrderCommand) error {
	if len(cmd.Lines) == 0 {
		return fmt.Errorf("%w: order has no items", ErrOrderInvalidInput)
	}
	if _, ok := domain.ParseShippingZone(string(cmd.ShippingZone)); !ok {
		return fmt.Errorf("%w: unknown shipping zone %q", ErrOrderInvalidInput, cmd.ShippingZone)
	}
	if _, ok := domain.ParsePaymentMethod(string(cmd.PaymentMethod)); !ok {
		return fmt.Errorf("%w: unknown payment method %q", ErrOrderInvalidInput, cmd.PaymentMethod)
	}
	details := cmd.ShippingDetails
	if strings.TrimSpace(details.Name) == "" || strings.TrimSpace(details.Phone) == "" || strings.TrimSpace(details.Address) == "" {
		return fmt.Errorf("%w: shipping name, phone and address are required", ErrOrderInvalidInput)
	}
	for _, line := range cmd.Lines {
		if line.Quantity < 1 {
			return fmt.Errorf("%w: line %s has quantity below one", ErrOrderInvalidInput, line.LineID)
		}
	}
	return nil
}

// checkStockAndBackfill verifies stock for lines whose root product still
// exists and fills the preorder flag, payment type, name and image from the
// stored product where the client omitted them. The stored product decides
// whether a line is a preorder; a client cannot turn a preorder line into a
// fully-charged regular one by dropping the flag. Unknown product ids pass
// through untouched.
func (s *orderService) checkStockAndBackfill(ctx context.Context, lines []domain.CartLine) error {
	for i := range lines {
		root := lines[i].RootProductID()
		if root == "" {
			continue
		}
		product, err := s.products.FindByID(ctx, root)
		if err != nil {
			if isRepoNotFound(err) {
				continue
			}
			return ErrOrderUnavailable
		}
		if product.Stock < lines[i].Quantity {
			return fmt.Errorf("%w: %s has %d left", ErrOrderInsufficientStock, product.Name, product.Stock)
		}
		if product.IsPreorder {
			lines[i].IsPreorder = true
		}
		if lines[i].PreorderPaymentType == "" {
			lines[i].PreorderPaymentType = product.PreorderPaymentType
		}
		if strings.TrimSpace(lines[i].Name) == "" {
			lines[i].Name = product.Name
		}
		if strings.TrimSpace(lines[i].ImageURL) == "" {
			lines[i].ImageURL = product.ImageURL
		}
	}
	return nil
}

// deliveryRates prefers the admin-editable settings charges and falls back to
// the configured defaults when settings cannot be read.
func (s *orderService) deliveryRates(ctx context.Context) domain.DeliveryRates {
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

// verifyClientPricing re-resolves each line against the stored tier table
// when the settings flag is on. Mismatches are logged, never rejected.
func (s *orderService) verifyClientPricing(ctx context.Context, lines []domain.CartLine) {
	if s.settings == nil {
		return
	}
	settings, err := s.settings.GetSettings(ctx)
	if err != nil || !settings.VerifyClientPricing {
		return
	}

	familyQty := FamilyQuantities(lines)
	for _, line := range lines {
		root := line.RootProductID()
		if root == "" {
			continue
		}
		product, err := s.products.FindByID(ctx, root)
		if err != nil {
			continue
		}
		stored := ResolveUnitPrice(product.TieredPricing, product.DiscountedPrice, product.ListPrice, familyQty[line.FamilyKey()])
		submitted := ResolveUnitPrice(line.TieredPricing, line.DiscountedPrice, line.UnitListPrice, familyQty[line.FamilyKey()])
		if stored != submitted {
			s.logger(ctx, "order.price_mismatch", map[string]any{
				"lineID":    line.LineID,
				"productID": root,
				"submitted": submitted,
				"stored":    stored,
			})
		}
	}
}

func frozenOrderLines(lines []domain.CartLine, breakdown domain.Breakdown) []domain.OrderLine {
	priceByLine := make(map[string]int64, len(breakdown.Lines))
	for _, lp := range breakdown.Lines {
		priceByLine[lp.LineID] = lp.EffectiveUnitPrice
	}

	out := make([]domain.OrderLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, domain.OrderLine{
			LineID:              line.LineID,
			ProductID:           line.ProductID,
			OriginalProductID:   line.OriginalProductID,
			Name:                line.Name,
			Quantity:            line.Quantity,
			Size:                line.Size,
			UnitPrice:           priceByLine[line.LineID],
			IsPreorder:          line.IsPreorder,
			PreorderPaymentType: line.PreorderPaymentType,
			CustomName:          line.CustomName,
			CustomNumber:        line.CustomNumber,
			ImageURL:            line.ImageURL,
		})
	}
	return out
}

func resolvePaymentStatus(method domain.PaymentMethod, breakdown domain.Breakdown) domain.PaymentStatus {
	if method == domain.PaymentMethodCOD {
		return domain.PaymentStatusPending
	}
	if breakdown.PreorderDeferred > 0 {
		return domain.PaymentStatusPartial
	}
	return domain.PaymentStatusPaid
}

func clonePaymentInfo(info *domain.PaymentInfo) *domain.PaymentInfo {
	if info == nil {
		return nil
	}
	dup := *info
	return &dup
}

// insertWithShortID draws random 5-digit ids until the repository accepts
// one. The repository reserves the id atomically, so two concurrent
// checkouts drawing the same id cannot both win; the loser redraws here.
func (s *orderService) insertWithShortID(ctx context.Context, order domain.Order) (domain.Order, error) {
	for attempt := 0; attempt < s.idAttempts; attempt++ {
		order.ShortOrderID = s.drawShortID()
		saved, err := s.orders.Insert(ctx, order)
		if err == nil {
			return saved, nil
		}
		if isRepoConflict(err) {
			s.logger(ctx, "order.short_id_collision", map[string]any{
				"shortOrderID": order.ShortOrderID,
				"attempt":      attempt + 1,
			})
			continue
		}
		return domain.Order{}, s.translateRepoError(err)
	}
	return domain.Order{}, fmt.Errorf("%w: short order id space exhausted after %d attempts", ErrOrderConflict, s.idAttempts)
}

func (s *orderService) decrementStock(ctx context.Context, order domain.Order) {
	for _, line := range order.Lines {
		root := strings.TrimSpace(line.OriginalProductID)
		if root == "" {
			root = strings.TrimSpace(line.ProductID)
		}
		if root == "" {
			continue
		}
		if _, err := s.products.AdjustStock(ctx, root, -line.Quantity); err != nil {
			s.logger(ctx, "order.stock_decrement_failed", map[string]any{
				"orderID":   order.ID,
				"productID": root,
				"quantity":  line.Quantity,
				"error":     err.Error(),
			})
		}
	}
}

func (s *orderService) exportOrder(ctx context.Context, order domain.Order) {
	if s.exporter == nil {
		return
	}
	if err := s.exporter.ExportOrder(ctx, order); err != nil {
		s.logger(ctx, "order.export_failed", map[string]any{
			"orderID": order.ID,
			"error":   err.Error(),
		})
		return
	}
	if err := s.orders.MarkExported(ctx, order.ID, s.now()); err != nil {
		s.logger(ctx, "order.export_mark_failed", map[string]any{
			"orderID": order.ID,
			"error":   err.Error(),
		})
	}
}

func (s *orderService) publishEvent(ctx context.Context, eventType string, order domain.Order) {
	if s.events == nil {
		return
	}
	err := s.events.PublishOrderEvent(ctx, OrderEvent{
		Type:         eventType,
		OrderID:      order.ID,
		ShortOrderID: order.ShortOrderID,
		UserID:       order.UserID,
		Status:       order.Status,
		Total:        order.Total,
	})
	if err != nil {
		s.logger(ctx, "order.event_publish_failed", map[string]any{
			"orderID": order.ID,
			"type":    eventType,
			"error":   err.Error(),
		})
	}
}

func (s *orderService) clearCart(ctx context.Context, userID string) {
	if s.carts == nil || strings.TrimSpace(userID) == "" {
		return
	}
	if err := s.carts.Clear(ctx, userID); err != nil {
		s.logger(ctx, "order.cart_clear_failed", map[string]any{
			"userID": userID,
			"error":  err.Error(),
		})
	}
}

func (s *orderService) GetOrder(ctx context.Context, orderID string) (Order, error) {
	if s == nil || s.orders == nil {
		return Order{}, ErrOrderUnavailable
	}
	id := strings.TrimSpace(orderID)
	if id == "" {
		return Order{}, ErrOrderInvalidInput
	}
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return Order{}, s.translateRepoError(err)
	}
	return order, nil
}

func (s *orderService) GetOrderByShortID(ctx context.Context, shortOrderID string) (Order, error) {
	if s == nil || s.orders == nil {
		return Order{}, ErrOrderUnavailable
	}
	id := strings.TrimSpace(shortOrderID)
	if len(id) != 5 {
		return Order{}, ErrOrderInvalidInput
	}
	order, err := s.orders.FindByShortID(ctx, id)
	if err != nil {
		return Order{}, s.translateRepoError(err)
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, filter ListOrdersFilter) (domain.CursorPage[Order], error) {
	if s == nil || s.orders == nil {
		return domain.CursorPage[Order]{}, ErrOrderUnavailable
	}
	repoFilter := repositories.OrderListFilter{Pagination: filter.Pagination}
	if filter.Status != nil {
		status, ok := domain.ParseOrderStatus(string(*filter.Status))
		if !ok {
			return domain.CursorPage[Order]{}, fmt.Errorf("%w: unknown status %q", ErrOrderInvalidInput, *filter.Status)
		}
		repoFilter.Status = &status
	}
	page, err := s.orders.List(ctx, repoFilter)
	if err != nil {
		return domain.CursorPage[Order]{}, s.translateRepoError(err)
	}
	return page, nil
}

func (s *orderService) ListUserOrders(ctx context.Context, userID string, pager Pagination) (domain.CursorPage[Order], error) {
	if s == nil || s.orders == nil {
		return domain.CursorPage[Order]{}, ErrOrderUnavailable
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return domain.CursorPage[Order]{}, ErrOrderInvalidInput
	}
	page, err := s.orders.ListByUser(ctx, uid, pager)
	if err != nil {
		return domain.CursorPage[Order]{}, s.translateRepoError(err)
	}
	return page, nil
}

func (s *orderService) TransitionStatus(ctx context.Context, cmd OrderStatusCommand) (Order, error) {
	if s == nil || s.orders == nil {
		return Order{}, ErrOrderUnavailable
	}
	id := strings.TrimSpace(cmd.OrderID)
	if id == "" {
		return Order{}, ErrOrderInvalidInput
	}
	target, ok := domain.ParseOrderStatus(string(cmd.Status))
	if !ok {
		return Order{}, fmt.Errorf("%w: unknown status %q", ErrOrderInvalidInput, cmd.Status)
	}

	current, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return Order{}, s.translateRepoError(err)
	}
	if !canTransitionOrder(current.Status, target) {
		return Order{}, fmt.Errorf("%w: %s to %s", ErrOrderInvalidTransition, current.Status, target)
	}

	updated, err := s.orders.UpdateStatus(ctx, id, target, s.now())
	if err != nil {
		return Order{}, s.translateRepoError(err)
	}

	s.publishEvent(ctx, "order.status_changed", updated)
	return updated, nil
}

func (s *orderService) UpdateFulfilment(ctx context.Context, cmd OrderFulfilmentCommand) (Order, error) {
	if s == nil || s.orders == nil {
		return Order{}, ErrOrderUnavailable
	}
	id := strings.TrimSpace(cmd.OrderID)
	if id == "" {
		return Order{}, ErrOrderInvalidInput
	}
	if cmd.TrackingNumber == nil && cmd.Notes == nil {
		return Order{}, fmt.Errorf("%w: nothing to update", ErrOrderInvalidInput)
	}

	updated, err := s.orders.UpdateFulfilment(ctx, id, repositories.OrderFulfilmentUpdate{
		TrackingNumber: cmd.TrackingNumber,
		Notes:          cmd.Notes,
		UpdatedAt:      s.now(),
	})
	if err != nil {
		return Order{}, s.translateRepoError(err)
	}
	return updated, nil
}

func (s *orderService) translateRepoError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return ErrOrderNotFound
		case repoErr.IsConflict():
			return ErrOrderConflict
		}
	}
	return ErrOrderUnavailable
}

func isRepoNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}

func isRepoConflict(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsConflict()
}
