package handlers

import (
	"strings"

	domain "github.com/torunhut/api/internal/domain"
	"github.com/torunhut/api/internal/services"
)

type priceTierPayload struct {
	Quantity  int   `json:"quantity"`
	UnitPrice int64 `json:"unitPrice"`
}

type productPayload struct {
	ID                  string             `json:"id"`
	Name                string             `json:"name"`
	Description         string             `json:"description,omitempty"`
	Category            string             `json:"category"`
	Price               int64              `json:"price"`
	DiscountedPrice     *int64             `json:"discountedPrice,omitempty"`
	TieredPricing       []priceTierPayload `json:"tieredPricing,omitempty"`
	Sizes               []string           `json:"sizes,omitempty"`
	Image               string             `json:"image,omitempty"`
	Stock               int                `json:"stock"`
	IsPreorder          bool               `json:"isPreorder"`
	PreorderPaymentType string             `json:"preorderPaymentType,omitempty"`
	RequiresCustomText  bool               `json:"requiresCustomText,omitempty"`
	Active              bool               `json:"active"`
	CreatedAt           string             `json:"createdAt,omitempty"`
	UpdatedAt           string             `json:"updatedAt,omitempty"`
}

func buildProductPayload(product services.Product) productPayload {
	payload := productPayload{
		ID:                  product.ID,
		Name:                product.Name,
		Description:         product.Description,
		Category:            string(product.Category),
		Price:               product.ListPrice,
		DiscountedPrice:     product.DiscountedPrice,
		Sizes:               product.Sizes,
		Image:               product.ImageURL,
		Stock:               product.Stock,
		IsPreorder:          product.IsPreorder,
		PreorderPaymentType: string(product.PreorderPaymentType),
		RequiresCustomText:  product.RequiresCustomText,
		Active:              product.Active,
		CreatedAt:           formatTime(product.CreatedAt),
		UpdatedAt:           formatTime(product.UpdatedAt),
	}
	for _, tier := range product.TieredPricing {
		payload.TieredPricing = append(payload.TieredPricing, priceTierPayload{
			Quantity:  tier.Quantity,
			UnitPrice: tier.UnitPrice,
		})
	}
	return payload
}

type cartLinePayload struct {
	LineID              string             `json:"lineId"`
	ProductID           string             `json:"productId"`
	OriginalProductID   string             `json:"originalProductId,omitempty"`
	Name                string             `json:"name"`
	Quantity            int                `json:"quantity"`
	Size                string             `json:"size,omitempty"`
	Price               int64              `json:"price"`
	DiscountedPrice     *int64             `json:"discountedPrice,omitempty"`
	TieredPricing       []priceTierPayload `json:"tieredPricing,omitempty"`
	IsPreorder          bool               `json:"isPreorder"`
	PreorderPaymentType string             `json:"preorderPaymentType,omitempty"`
	CustomName          string             `json:"customName,omitempty"`
	CustomNumber        string             `json:"customNumber,omitempty"`
	Image               string             `json:"image,omitempty"`
	AddedAt             string             `json:"addedAt,omitempty"`
}

func buildCartLinePayload(line domain.CartLine) cartLinePayload {
	payload := cartLinePayload{
		LineID:              line.LineID,
		ProductID:           line.ProductID,
		OriginalProductID:   line.OriginalProductID,
		Name:                line.Name,
		Quantity:            line.Quantity,
		Size:                line.Size,
		Price:               line.UnitListPrice,
		DiscountedPrice:     line.DiscountedPrice,
		IsPreorder:          line.IsPreorder,
		PreorderPaymentType: string(line.PreorderPaymentType),
		CustomName:          line.CustomName,
		CustomNumber:        line.CustomNumber,
		Image:               line.ImageURL,
		AddedAt:             formatTime(line.AddedAt),
	}
	for _, tier := range line.TieredPricing {
		payload.TieredPricing = append(payload.TieredPricing, priceTierPayload{
			Quantity:  tier.Quantity,
			UnitPrice: tier.UnitPrice,
		})
	}
	return payload
}

type linePricingPayload struct {
	LineID             string `json:"lineId"`
	ProductID          string `json:"productId"`
	AggregateQuantity  int    `json:"aggregateQuantity"`
	Quantity           int    `json:"quantity"`
	EffectiveUnitPrice int64  `json:"effectiveUnitPrice"`
	LineTotal          int64  `json:"lineTotal"`
	IsPreorder         bool   `json:"isPreorder"`
	PayableNow         int64  `json:"payableNow"`
	Deferred           int64  `json:"deferred"`
}

type breakdownPayload struct {
	Lines                 []linePricingPayload `json:"lines"`
	CartTotal             int64                `json:"cartTotal"`
	RegularSubtotal       int64                `json:"regularSubtotal"`
	PreorderPayableNow    int64                `json:"preorderPayableNow"`
	PreorderDeferred      int64                `json:"preorderDeferred"`
	QuantityDiscount      int64                `json:"quantityDiscount"`
	DeliveryCharge        int64                `json:"deliveryCharge"`
	PayableSubtotal       int64                `json:"payableSubtotal"`
	Total                 int64                `json:"total"`
	DeferredDeliveryShare int64                `json:"deferredDeliveryShare"`
	DeferredTotal         int64                `json:"deferredTotal"`
}

func buildBreakdownPayload(breakdown domain.Breakdown) breakdownPayload {
	payload := breakdownPayload{
		Lines:                 make([]linePricingPayload, 0, len(breakdown.Lines)),
		CartTotal:             breakdown.CartTotal,
		RegularSubtotal:       breakdown.RegularSubtotal,
		PreorderPayableNow:    breakdown.PreorderPayableNow,
		PreorderDeferred:      breakdown.PreorderDeferred,
		QuantityDiscount:      breakdown.QuantityDiscount,
		DeliveryCharge:        breakdown.DeliveryCharge,
		PayableSubtotal:       breakdown.PayableSubtotal,
		Total:                 breakdown.Total,
		DeferredDeliveryShare: breakdown.DeferredDeliveryShare,
		DeferredTotal:         breakdown.DeferredTotal(),
	}
	for _, line := range breakdown.Lines {
		payload.Lines = append(payload.Lines, linePricingPayload{
			LineID:             line.LineID,
			ProductID:          line.ProductID,
			AggregateQuantity:  line.AggregateQuantity,
			Quantity:           line.Quantity,
			EffectiveUnitPrice: line.EffectiveUnitPrice,
			LineTotal:          line.LineTotal,
			IsPreorder:         line.IsPreorder,
			PayableNow:         line.PayableNow,
			Deferred:           line.Deferred,
		})
	}
	return payload
}

type shippingDetailsPayload struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address"`
	Area    string `json:"area,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

func buildShippingDetailsPayload(details domain.ShippingDetails) shippingDetailsPayload {
	return shippingDetailsPayload{
		Name:    details.Name,
		Phone:   details.Phone,
		Email:   details.Email,
		Address: details.Address,
		Area:    details.Area,
		Notes:   details.Notes,
	}
}

type paymentInfoPayload struct {
	Provider      string `json:"provider"`
	PaymentNumber string `json:"paymentNumber"`
	TrxID         string `json:"trxId"`
}

type orderLinePayload struct {
	LineID              string `json:"lineId"`
	ProductID           string `json:"productId"`
	OriginalProductID   string `json:"originalProductId,omitempty"`
	Name                string `json:"name"`
	Quantity            int    `json:"quantity"`
	Size                string `json:"size,omitempty"`
	Price               int64  `json:"price"`
	IsPreorder          bool   `json:"isPreorder"`
	PreorderPaymentType string `json:"preorderPaymentType,omitempty"`
	CustomName          string `json:"customName,omitempty"`
	CustomNumber        string `json:"customNumber,omitempty"`
	Image               string `json:"image,omitempty"`
}

type orderPayload struct {
	ID                      string                 `json:"id"`
	ShortOrderID            string                 `json:"shortOrderId"`
	UserID                  string                 `json:"userId"`
	CustomerName            string                 `json:"customerName"`
	CustomerEmail           string                 `json:"customerEmail,omitempty"`
	Items                   []orderLinePayload     `json:"items"`
	Subtotal                int64                  `json:"subtotal"`
	RegularSubtotal         int64                  `json:"regularSubtotal"`
	PreorderSubtotal        int64                  `json:"preorderSubtotal"`
	RemainingPreorderAmount int64                  `json:"remainingPreorderAmount"`
	DeliveryCharge          int64                  `json:"deliveryCharge"`
	Total                   int64                  `json:"total"`
	ShippingType            string                 `json:"shippingType"`
	ShippingDetails         shippingDetailsPayload `json:"shippingDetails"`
	PaymentMethod           string                 `json:"paymentMethod"`
	PaymentStatus           string                 `json:"paymentStatus"`
	PaymentInfo             *paymentInfoPayload    `json:"paymentInfo,omitempty"`
	Status                  string                 `json:"status"`
	TrackingNumber          string                 `json:"trackingNumber,omitempty"`
	Notes                   string                 `json:"notes,omitempty"`
	CreatedAt               string                 `json:"createdAt"`
	UpdatedAt               string                 `json:"updatedAt,omitempty"`
}

func buildOrderPayload(order services.Order) orderPayload {
	payload := orderPayload{
		ID:                      order.ID,
		ShortOrderID:            order.ShortOrderID,
		UserID:                  order.UserID,
		CustomerName:            order.CustomerName,
		CustomerEmail:           order.CustomerEmail,
		Items:                   make([]orderLinePayload, 0, len(order.Lines)),
		Subtotal:                order.Subtotal,
		RegularSubtotal:         order.RegularSubtotal,
		PreorderSubtotal:        order.PreorderSubtotal,
		RemainingPreorderAmount: order.RemainingPreorderAmount,
		DeliveryCharge:          order.DeliveryCharge,
		Total:                   order.Total,
		ShippingType:            string(order.ShippingZone),
		ShippingDetails:         buildShippingDetailsPayload(order.ShippingDetails),
		PaymentMethod:           string(order.PaymentMethod),
		PaymentStatus:           string(order.PaymentStatus),
		Status:                  string(order.Status),
		TrackingNumber:          order.TrackingNumber,
		Notes:                   order.Notes,
		CreatedAt:               formatTime(order.CreatedAt),
		UpdatedAt:               formatTime(order.UpdatedAt),
	}
	if order.PaymentInfo != nil {
		payload.PaymentInfo = &paymentInfoPayload{
			Provider:      order.PaymentInfo.Provider,
			PaymentNumber: order.PaymentInfo.PaymentNumber,
			TrxID:         order.PaymentInfo.TrxID,
		}
	}
	for _, line := range order.Lines {
		payload.Items = append(payload.Items, orderLinePayload{
			LineID:              line.LineID,
			ProductID:           line.ProductID,
			OriginalProductID:   line.OriginalProductID,
			Name:                line.Name,
			Quantity:            line.Quantity,
			Size:                line.Size,
			Price:               line.UnitPrice,
			IsPreorder:          line.IsPreorder,
			PreorderPaymentType: string(line.PreorderPaymentType),
			CustomName:          line.CustomName,
			CustomNumber:        line.CustomNumber,
			Image:               line.ImageURL,
		})
	}
	return payload
}

type userPayload struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
	PhotoURL    string `json:"photoUrl,omitempty"`
	Role        string `json:"role"`
	CreatedAt   string `json:"createdAt,omitempty"`
	LastLoginAt string `json:"lastLoginAt,omitempty"`
}

func buildUserPayload(user services.User) userPayload {
	return userPayload{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		PhotoURL:    user.PhotoURL,
		Role:        string(user.Role),
		CreatedAt:   formatTime(user.CreatedAt),
		LastLoginAt: formatTime(user.LastLoginAt),
	}
}

type settingsPayload struct {
	StoreName              string `json:"storeName"`
	AnnouncementText       string `json:"announcementText,omitempty"`
	PreorderEnabled        bool   `json:"preorderEnabled"`
	LocalDeliveryCharge    int64  `json:"localDeliveryCharge"`
	NationalDeliveryCharge int64  `json:"nationalDeliveryCharge"`
	VerifyClientPricing    bool   `json:"verifyClientPricing"`
	UpdatedAt              string `json:"updatedAt,omitempty"`
}

func buildSettingsPayload(settings services.Settings) settingsPayload {
	return settingsPayload{
		StoreName:              settings.StoreName,
		AnnouncementText:       settings.AnnouncementText,
		PreorderEnabled:        settings.PreorderEnabled,
		LocalDeliveryCharge:    settings.LocalDeliveryCharge,
		NationalDeliveryCharge: settings.NationalDeliveryCharge,
		VerifyClientPricing:    settings.VerifyClientPricing,
		UpdatedAt:              formatTime(settings.UpdatedAt),
	}
}

// requestLine is the wire shape shared by the cart replace and checkout
// payloads. Free-text fields are sanitized before they become domain values.
type requestLine struct {
	LineID              string             `json:"lineId"`
	ProductID           string             `json:"productId"`
	OriginalProductID   string             `json:"originalProductId"`
	Name                string             `json:"name"`
	Price               int64              `json:"price"`
	DiscountedPrice     *int64             `json:"discountedPrice"`
	TieredPricing       []priceTierPayload `json:"tieredPricing"`
	Quantity            int                `json:"quantity"`
	Size                string             `json:"size"`
	Image               string             `json:"image"`

	// IsPreorder is a pointer so an omitted flag can be backfilled from
	// the stored product instead of defaulting to a regular line.
	IsPreorder          *bool  `json:"isPreorder"`
	PreorderPaymentType string `json:"preorderPaymentType"`
	CustomName          string `json:"customName"`
	CustomNumber        string `json:"customNumber"`
}

func (l requestLine) toDomain() domain.CartLine {
	line := domain.CartLine{
		LineID:              strings.TrimSpace(l.LineID),
		ProductID:           strings.TrimSpace(l.ProductID),
		OriginalProductID:   strings.TrimSpace(l.OriginalProductID),
		Name:                sanitizeText(l.Name),
		Quantity:            l.Quantity,
		Size:                sanitizeText(l.Size),
		UnitListPrice:       l.Price,
		DiscountedPrice:     l.DiscountedPrice,
		IsPreorder:          l.IsPreorder != nil && *l.IsPreorder,
		PreorderPaymentType: domain.PreorderPaymentType(strings.ToLower(strings.TrimSpace(l.PreorderPaymentType))),
		CustomName:          sanitizeText(l.CustomName),
		CustomNumber:        sanitizeText(l.CustomNumber),
		ImageURL:            strings.TrimSpace(l.Image),
	}
	for _, tier := range l.TieredPricing {
		line.TieredPricing = append(line.TieredPricing, domain.PriceTier{
			Quantity:  tier.Quantity,
			UnitPrice: tier.UnitPrice,
		})
	}
	return line
}

type requestShippingDetails struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Area    string `json:"area"`
	Notes   string `json:"notes"`
}

func (d requestShippingDetails) toDomain() domain.ShippingDetails {
	return domain.ShippingDetails{
		Name:    sanitizeText(d.Name),
		Phone:   sanitizeText(d.Phone),
		Email:   strings.TrimSpace(d.Email),
		Address: sanitizeText(d.Address),
		Area:    sanitizeText(d.Area),
		Notes:   sanitizeText(d.Notes),
	}
}
