package domain

import (
	"strings"
	"time"
)

// Pagination defines standard cursor-based paging inputs for list operations.
type Pagination struct {
	PageSize  int
	PageToken string
}

// SortOrder indicates ascending or descending ordering for list queries.
type SortOrder string

const (
	// SortAsc sorts results in ascending order.
	SortAsc SortOrder = "asc"
	// SortDesc sorts results in descending order.
	SortDesc SortOrder = "desc"
)

// ProductCategory enumerates the catalog categories carried by the shop.
type ProductCategory string

const (
	// CategoryTShirt covers standard printed tees.
	CategoryTShirt ProductCategory = "tshirt"
	// CategoryHoodie covers hoodies and sweatshirts.
	CategoryHoodie ProductCategory = "hoodie"
	// CategoryJersey covers customizable sports jerseys.
	CategoryJersey ProductCategory = "jersey"
)

// NormalizeCategory maps free-form category input onto a canonical category.
// Unknown values return an empty category and ok=false.
func NormalizeCategory(raw string) (ProductCategory, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "tshirt", "t-shirt", "t shirt", "tee", "tshirts":
		return CategoryTShirt, true
	case "hoodie", "hoodies", "sweatshirt":
		return CategoryHoodie, true
	case "jersey", "jerseys":
		return CategoryJersey, true
	default:
		return "", false
	}
}

// PreorderPaymentType selects how much of a preorder line is collected upfront.
type PreorderPaymentType string

const (
	// PreorderPaymentHalf collects half upfront and the rest on delivery.
	PreorderPaymentHalf PreorderPaymentType = "half"
	// PreorderPaymentFull collects the entire line value upfront.
	PreorderPaymentFull PreorderPaymentType = "full"
)

// PriceTier pairs a quantity threshold with the unit price unlocked at that
// threshold. Thresholds are inclusive.
type PriceTier struct {
	Quantity  int
	UnitPrice int64
}

// Product is a catalog entry. Prices are BDT in whole taka (int64 minor units,
// the catalog carries no fractional amounts).
type Product struct {
	ID                  string
	Name                string
	Description         string
	Category            ProductCategory
	ListPrice           int64
	DiscountedPrice     *int64
	TieredPricing       []PriceTier
	Sizes               []string
	ImageURL            string
	Stock               int
	IsPreorder          bool
	PreorderPaymentType PreorderPaymentType
	RequiresCustomText  bool
	Active              bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// ShippingZone selects the flat delivery fee band.
type ShippingZone string

const (
	// ZoneLocal is on-campus / local pickup area delivery.
	ZoneLocal ShippingZone = "local"
	// ZoneNational is nationwide courier delivery.
	ZoneNational ShippingZone = "national"
)

// ParseShippingZone validates a wire-level zone value.
func ParseShippingZone(raw string) (ShippingZone, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(ZoneLocal):
		return ZoneLocal, true
	case string(ZoneNational):
		return ZoneNational, true
	default:
		return "", false
	}
}

// CartLine is one purchasable line in a cart. A size-variant line cloned from
// another keeps OriginalProductID pointing at the TRUE root product so tiered
// pricing aggregates quantity across the whole family.
type CartLine struct {
	LineID              string
	ProductID           string
	OriginalProductID   string
	Name                string
	Quantity            int
	Size                string
	UnitListPrice       int64
	DiscountedPrice     *int64
	TieredPricing       []PriceTier
	IsPreorder          bool
	PreorderPaymentType PreorderPaymentType
	CustomName          string
	CustomNumber        string
	ImageURL            string
	AddedAt             time.Time
}

// FamilyKey returns the key grouping size-variant lines of the same product
// for aggregate-quantity tier resolution.
func (l CartLine) FamilyKey() string {
	if root := strings.TrimSpace(l.OriginalProductID); root != "" {
		return root
	}
	return strings.TrimSpace(l.ProductID)
}

// RootProductID returns the stored product the line ultimately refers to,
// used for stock checks and decrements.
func (l CartLine) RootProductID() string {
	return l.FamilyKey()
}

// CartState is the explicit, serializable cart owned by the session layer.
// The aggregator receives it as an argument; nothing reads it as ambient
// state.
type CartState struct {
	UserID          string
	Lines           []CartLine
	ShippingZone    ShippingZone
	ShippingDetails ShippingDetails
	PaymentMethod   PaymentMethod
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ShippingDetails is the free-text shipping record captured at checkout.
type ShippingDetails struct {
	Name    string
	Phone   string
	Email   string
	Address string
	Area    string
	Notes   string
}

// PaymentMethod distinguishes pay-on-delivery from prepaid checkout.
type PaymentMethod string

const (
	// PaymentMethodCOD is cash on delivery.
	PaymentMethodCOD PaymentMethod = "COD"
	// PaymentMethodPayNow is prepaid via a mobile-money transfer.
	PaymentMethodPayNow PaymentMethod = "PAY_NOW"
)

// ParsePaymentMethod validates a wire-level payment method value.
func ParsePaymentMethod(raw string) (PaymentMethod, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case string(PaymentMethodCOD):
		return PaymentMethodCOD, true
	case string(PaymentMethodPayNow):
		return PaymentMethodPayNow, true
	default:
		return "", false
	}
}

// PaymentInfo records a self-reported mobile-money transfer.
type PaymentInfo struct {
	Provider      string
	PaymentNumber string
	TrxID         string
}

// PaymentStatus tracks how much of the order value has been collected.
type PaymentStatus string

const (
	// PaymentStatusPending means nothing collected yet (COD).
	PaymentStatusPending PaymentStatus = "pending"
	// PaymentStatusPartial means the payable-now portion was collected and a
	// preorder balance remains for delivery.
	PaymentStatusPartial PaymentStatus = "partial"
	// PaymentStatusPaid means the full payable amount was collected.
	PaymentStatusPaid PaymentStatus = "paid"
)

// OrderStatus tracks order fulfilment lifecycle.
type OrderStatus string

const (
	// OrderStatusPending is the state every order is created in.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusProcessing means the order is being prepared.
	OrderStatusProcessing OrderStatus = "processing"
	// OrderStatusShipped means the order left with the courier.
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusDelivered is terminal.
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCancelled is terminal.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// ParseOrderStatus validates a wire-level status value.
func ParseOrderStatus(raw string) (OrderStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(OrderStatusPending):
		return OrderStatusPending, true
	case string(OrderStatusProcessing):
		return OrderStatusProcessing, true
	case string(OrderStatusShipped):
		return OrderStatusShipped, true
	case string(OrderStatusDelivered):
		return OrderStatusDelivered, true
	case string(OrderStatusCancelled):
		return OrderStatusCancelled, true
	default:
		return "", false
	}
}

// OrderLine mirrors the cart line it was built from plus the unit price frozen
// at order time. Catalog changes never retroactively alter past orders.
type OrderLine struct {
	LineID              string
	ProductID           string
	OriginalProductID   string
	Name                string
	Quantity            int
	Size                string
	UnitPrice           int64
	IsPreorder          bool
	PreorderPaymentType PreorderPaymentType
	CustomName          string
	CustomNumber        string
	ImageURL            string
}

// Order is the persisted, server-authoritative checkout result. Monetary
// fields are immutable after creation; only Status, TrackingNumber and Notes
// mutate afterwards.
type Order struct {
	ID                      string
	ShortOrderID            string
	UserID                  string
	CustomerName            string
	CustomerEmail           string
	Lines                   []OrderLine
	Subtotal                int64
	RegularSubtotal         int64
	PreorderSubtotal        int64
	RemainingPreorderAmount int64
	DeliveryCharge          int64
	Total                   int64
	ShippingZone            ShippingZone
	ShippingDetails         ShippingDetails
	PaymentMethod           PaymentMethod
	PaymentStatus           PaymentStatus
	PaymentInfo             *PaymentInfo
	Status                  OrderStatus
	TrackingNumber          string
	Notes                   string
	ExportedAt              *time.Time
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// UserRole enumerates back-office access levels.
type UserRole string

const (
	// RoleUser is a regular shopper.
	RoleUser UserRole = "user"
	// RoleSubAdmin may manage orders but not users or settings.
	RoleSubAdmin UserRole = "subadmin"
	// RoleAdmin has full back-office access.
	RoleAdmin UserRole = "admin"
)

// ParseUserRole validates a wire-level role value.
func ParseUserRole(raw string) (UserRole, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(RoleUser):
		return RoleUser, true
	case string(RoleSubAdmin):
		return RoleSubAdmin, true
	case string(RoleAdmin):
		return RoleAdmin, true
	default:
		return "", false
	}
}

// User is a shopper account synced from the identity provider on first login.
type User struct {
	ID          string
	Email       string
	DisplayName string
	PhotoURL    string
	Role        UserRole
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastLoginAt time.Time
}

// Settings is the singleton storefront configuration document.
type Settings struct {
	StoreName              string
	AnnouncementText       string
	PreorderEnabled        bool
	LocalDeliveryCharge    int64
	NationalDeliveryCharge int64
	VerifyClientPricing    bool
	UpdatedAt              time.Time
	UpdatedBy              string
}

// CursorPage is a generic page of results with an opaque continuation token.
type CursorPage[T any] struct {
	Items         []T
	NextPageToken string
}

// StoreStats aggregates back-office dashboard figures.
type StoreStats struct {
	TotalOrders    int
	PendingOrders  int
	TotalRevenue   int64
	TotalProducts  int
	TotalUsers     int
	OrdersByStatus map[OrderStatus]int
	GeneratedAt    time.Time
}
