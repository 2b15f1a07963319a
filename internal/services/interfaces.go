package services

import (
	"context"

	domain "github.com/torunhut/api/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Pagination          = domain.Pagination
	Product             = domain.Product
	ProductCategory     = domain.ProductCategory
	PriceTier           = domain.PriceTier
	CartLine            = domain.CartLine
	CartState           = domain.CartState
	Breakdown           = domain.Breakdown
	DeliveryRates       = domain.DeliveryRates
	ShippingZone        = domain.ShippingZone
	ShippingDetails     = domain.ShippingDetails
	PaymentMethod       = domain.PaymentMethod
	PaymentInfo         = domain.PaymentInfo
	PaymentStatus       = domain.PaymentStatus
	Order               = domain.Order
	OrderLine           = domain.OrderLine
	OrderStatus         = domain.OrderStatus
	User                = domain.User
	UserRole            = domain.UserRole
	Settings            = domain.Settings
	StoreStats          = domain.StoreStats
	PreorderPaymentType = domain.PreorderPaymentType
)

// CartService manages the per-user cart state: line mutations, size-variant
// cloning, and breakdown recomputation on every read.
type CartService interface {
	GetCart(ctx context.Context, userID string) (CartView, error)
	ReplaceCart(ctx context.Context, cmd ReplaceCartCommand) (CartView, error)
	AddLine(ctx context.Context, cmd AddCartLineCommand) (CartView, error)
	SetQuantity(ctx context.Context, cmd SetQuantityCommand) (CartView, error)
	CloneLineForSize(ctx context.Context, cmd CloneLineCommand) (CartView, error)
	ClearCart(ctx context.Context, userID string) error
}

// CartView pairs the stored cart with its freshly computed breakdown so the
// client never recomputes numbers the server did not confirm.
type CartView struct {
	Cart      CartState
	Breakdown Breakdown
}

// ReplaceCartCommand swaps the whole cart document for a user.
type ReplaceCartCommand struct {
	UserID          string
	Lines           []CartLine
	ShippingZone    ShippingZone
	ShippingDetails ShippingDetails
	PaymentMethod   PaymentMethod
}

// AddCartLineCommand appends a line, merging with an existing line for the
// same product and size.
type AddCartLineCommand struct {
	UserID    string
	ProductID string
	Quantity  int
	Size      string
}

// SetQuantityCommand adjusts a line's quantity; values below one remove the line.
type SetQuantityCommand struct {
	UserID   string
	LineID   string
	Quantity int
}

// CloneLineCommand clones a line so the shopper can buy another size of the
// same product while both lines share the tiered-pricing aggregate.
type CloneLineCommand struct {
	UserID string
	LineID string
	Size   string
}

// OrderService is the server-authoritative checkout builder plus order
// management flows.
type OrderService interface {
	CreateOrder(ctx context.Context, cmd CreateOrderCommand) (Order, error)
	GetOrder(ctx context.Context, orderID string) (Order, error)
	GetOrderByShortID(ctx context.Context, shortOrderID string) (Order, error)
	ListOrders(ctx context.Context, filter ListOrdersFilter) (domain.CursorPage[Order], error)
	ListUserOrders(ctx context.Context, userID string, pager Pagination) (domain.CursorPage[Order], error)
	TransitionStatus(ctx context.Context, cmd OrderStatusCommand) (Order, error)
	UpdateFulfilment(ctx context.Context, cmd OrderFulfilmentCommand) (Order, error)
}

// CreateOrderCommand carries the submitted checkout payload. Line prices and
// preorder flags are the client's resolved values; see CreateOrder for the
// trust boundary.
type CreateOrderCommand struct {
	UserID          string
	CustomerName    string
	CustomerEmail   string
	Lines           []CartLine
	ShippingZone    ShippingZone
	ShippingDetails ShippingDetails
	PaymentMethod   PaymentMethod
	PaymentInfo     *PaymentInfo
}

// ListOrdersFilter narrows back-office order listings.
type ListOrdersFilter struct {
	Status     *OrderStatus
	Pagination Pagination
}

// OrderStatusCommand requests a lifecycle transition.
type OrderStatusCommand struct {
	OrderID string
	Status  OrderStatus
	ActorID string
}

// OrderFulfilmentCommand updates the mutable post-creation fields.
type OrderFulfilmentCommand struct {
	OrderID        string
	TrackingNumber *string
	Notes          *string
	ActorID        string
}

// CatalogService manages products.
type CatalogService interface {
	GetProduct(ctx context.Context, productID string) (Product, error)
	ListProducts(ctx context.Context, filter ListProductsFilter) (domain.CursorPage[Product], error)
	CreateProduct(ctx context.Context, cmd SaveProductCommand) (Product, error)
	UpdateProduct(ctx context.Context, cmd SaveProductCommand) (Product, error)
	DeleteProduct(ctx context.Context, productID string) error
}

// ListProductsFilter narrows catalog listings.
type ListProductsFilter struct {
	Category   string
	ActiveOnly bool
	Pagination Pagination
}

// SaveProductCommand carries the admin-facing product payload.
type SaveProductCommand struct {
	ProductID           string
	Name                string
	Description         string
	Category            string
	ListPrice           int64
	DiscountedPrice     *int64
	TieredPricing       []PriceTier
	Sizes               []string
	ImageURL            string
	Stock               int
	IsPreorder          bool
	PreorderPaymentType string
	RequiresCustomText  bool
	Active              bool
	ActorID             string
}

// UserService syncs shopper accounts and manages back-office roles.
type UserService interface {
	SyncUser(ctx context.Context, cmd SyncUserCommand) (User, error)
	GetUser(ctx context.Context, userID string) (User, error)
	ListUsers(ctx context.Context, pager Pagination) (domain.CursorPage[User], error)
	ChangeRole(ctx context.Context, cmd ChangeRoleCommand) (User, error)
}

// SyncUserCommand upserts the user from a verified identity token.
type SyncUserCommand struct {
	UserID      string
	Email       string
	DisplayName string
	PhotoURL    string
}

// ChangeRoleCommand is an admin-only role update.
type ChangeRoleCommand struct {
	UserID  string
	Role    string
	ActorID string
}

// SettingsService owns the storefront settings singleton.
type SettingsService interface {
	GetSettings(ctx context.Context) (Settings, error)
	UpdateSettings(ctx context.Context, cmd UpdateSettingsCommand) (Settings, error)
}

// UpdateSettingsCommand carries partial settings updates.
type UpdateSettingsCommand struct {
	StoreName              *string
	AnnouncementText       *string
	PreorderEnabled        *bool
	LocalDeliveryCharge    *int64
	NationalDeliveryCharge *int64
	VerifyClientPricing    *bool
	ActorID                string
}

// StatsService aggregates back-office dashboard figures.
type StatsService interface {
	Collect(ctx context.Context) (StoreStats, error)
}

// OrderExporter mirrors completed orders to the external spreadsheet. The
// sink is best-effort; callers log failures and move on.
type OrderExporter interface {
	ExportOrder(ctx context.Context, order Order) error
}

// OrderEventPublisher emits order lifecycle events for downstream consumers.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
}

// OrderEvent is the payload published on order lifecycle changes.
type OrderEvent struct {
	Type         string
	OrderID      string
	ShortOrderID string
	UserID       string
	Status       OrderStatus
	Total        int64
}
