package domain

// LinePricing is the resolved monetary view of one cart line.
type LinePricing struct {
	LineID             string
	ProductID          string
	FamilyKey          string
	AggregateQuantity  int
	Quantity           int
	EffectiveUnitPrice int64
	LineTotal          int64
	IsPreorder         bool
	PayableNow         int64
	Deferred           int64
}

// Breakdown is the full monetary decomposition of a cart. Every sub-total is
// exposed individually because both the storefront display and the persisted
// order record need them.
type Breakdown struct {
	Lines              []LinePricing
	CartTotal          int64
	RegularSubtotal    int64
	PreorderPayableNow int64
	PreorderDeferred   int64
	QuantityDiscount   int64
	DeliveryCharge     int64
	PayableSubtotal    int64
	Total              int64
	// DeferredDeliveryShare is a display-only estimate of the delivery
	// charge portion attributable to half-paid preorder value. The full
	// delivery charge is collected at checkout regardless.
	DeferredDeliveryShare int64
}

// DeferredTotal returns the display figure for the balance collected on
// delivery, including the estimated delivery share.
func (b Breakdown) DeferredTotal() int64 {
	return b.PreorderDeferred + b.DeferredDeliveryShare
}

// DeliveryRates carries the flat per-zone delivery fees.
type DeliveryRates struct {
	Local    int64
	National int64
}

// Charge returns the flat fee for a zone. Unknown zones fall back to the
// national rate.
func (r DeliveryRates) Charge(zone ShippingZone) int64 {
	if zone == ZoneLocal {
		return r.Local
	}
	return r.National
}
