package services

import (
	"errors"
	"sort"
	"strings"

	domain "github.com/torunhut/api/internal/domain"
)

var (
	// ErrPricingInvalidInput signals bad aggregation input such as a line
	// with a non-positive quantity or a negative price snapshot.
	ErrPricingInvalidInput = errors.New("pricing: invalid input")
)

// ResolveUnitPrice returns the effective unit price for a product family
// purchased at aggregateQuantity units in total. An empty tier table falls
// back to the discounted price when it undercuts the list price. With tiers
// present the largest threshold not exceeding the aggregate quantity wins;
// below the smallest threshold the tierless fallback applies.
//
// Tiers are sorted here rather than trusted pre-sorted. The sort is stable so
// duplicate thresholds keep their definition order and the last-defined tier
// wins.
func ResolveUnitPrice(tiers []domain.PriceTier, discountedPrice *int64, listPrice int64, aggregateQuantity int) int64 {
	fallback := listPrice
	if discountedPrice != nil && *discountedPrice > 0 && *discountedPrice < listPrice {
		fallback = *discountedPrice
	}
	if len(tiers) == 0 {
		return fallback
	}

	sorted := make([]domain.PriceTier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Quantity < sorted[j].Quantity
	})

	price := int64(-1)
	for _, tier := range sorted {
		if tier.Quantity > aggregateQuantity {
			break
		}
		price = tier.UnitPrice
	}
	if price < 0 {
		return fallback
	}
	return price
}

// FamilyQuantities sums line quantities per product family so size-variant
// lines of the same product resolve tiers against the combined quantity.
func FamilyQuantities(lines []domain.CartLine) map[string]int {
	totals := make(map[string]int, len(lines))
	for _, line := range lines {
		key := line.FamilyKey()
		if key == "" || line.Quantity <= 0 {
			continue
		}
		totals[key] += line.Quantity
	}
	return totals
}

// PricingEngine folds cart lines into the monetary breakdown. It is pure and
// side-effect free so the display path and the authoritative order path can
// run it on every mutation and get identical numbers.
type PricingEngine struct {
	rates domain.DeliveryRates
}

// PricingEngineDeps wires the delivery fee configuration.
type PricingEngineDeps struct {
	DeliveryRates domain.DeliveryRates
}

// NewPricingEngine constructs a PricingEngine.
func NewPricingEngine(deps PricingEngineDeps) (*PricingEngine, error) {
	if deps.DeliveryRates.Local < 0 || deps.DeliveryRates.National < 0 {
		return nil, errors.New("pricing engine: delivery rates must be non-negative")
	}
	return &PricingEngine{rates: deps.DeliveryRates}, nil
}

// Aggregate computes the full breakdown for a set of cart lines and a
// shipping zone using the configured delivery rates. Calling it twice on the
// same input yields identical output.
func (e *PricingEngine) Aggregate(lines []domain.CartLine, zone domain.ShippingZone) (domain.Breakdown, error) {
	if e == nil {
		return domain.Breakdown{}, ErrPricingInvalidInput
	}
	return e.AggregateWith(lines, zone, e.rates)
}

// AggregateWith is Aggregate with the delivery rates supplied by the caller.
// The store settings override the configured rates, so both checkout and the
// cart display resolve rates at aggregation time.
func (e *PricingEngine) AggregateWith(lines []domain.CartLine, zone domain.ShippingZone, rates domain.DeliveryRates) (domain.Breakdown, error) {
	if e == nil {
		return domain.Breakdown{}, ErrPricingInvalidInput
	}
	if rates.Local < 0 || rates.National < 0 {
		rates = e.rates
	}
	for _, line := range lines {
		if strings.TrimSpace(line.ProductID) == "" && strings.TrimSpace(line.OriginalProductID) == "" {
			return domain.Breakdown{}, ErrPricingInvalidInput
		}
		if line.Quantity <= 0 {
			return domain.Breakdown{}, ErrPricingInvalidInput
		}
		if line.UnitListPrice < 0 {
			return domain.Breakdown{}, ErrPricingInvalidInput
		}
	}

	familyQty := FamilyQuantities(lines)

	breakdown := domain.Breakdown{Lines: make([]domain.LinePricing, 0, len(lines))}
	var preorderFaceValue int64
	hasHalfPreorder := false

	for _, line := range lines {
		key := line.FamilyKey()
		aggQty := familyQty[key]
		unit := ResolveUnitPrice(line.TieredPricing, line.DiscountedPrice, line.UnitListPrice, aggQty)
		lineTotal := unit * int64(line.Quantity)

		pricing := domain.LinePricing{
			LineID:             line.LineID,
			ProductID:          line.ProductID,
			FamilyKey:          key,
			AggregateQuantity:  aggQty,
			Quantity:           line.Quantity,
			EffectiveUnitPrice: unit,
			LineTotal:          lineTotal,
			IsPreorder:         line.IsPreorder,
		}

		if line.IsPreorder {
			preorderFaceValue += lineTotal
			if line.PreorderPaymentType == domain.PreorderPaymentHalf {
				hasHalfPreorder = true
				// Deferred takes the floor half so the two parts
				// always sum exactly to the line total.
				pricing.Deferred = lineTotal / 2
				pricing.PayableNow = lineTotal - pricing.Deferred
			} else {
				pricing.PayableNow = lineTotal
			}
			breakdown.PreorderPayableNow += pricing.PayableNow
			breakdown.PreorderDeferred += pricing.Deferred
		} else {
			pricing.PayableNow = lineTotal
			breakdown.RegularSubtotal += lineTotal
		}

		breakdown.Lines = append(breakdown.Lines, pricing)
	}

	breakdown.CartTotal = breakdown.RegularSubtotal + preorderFaceValue
	// Quantity discount is a retained hook with no active rule; it always
	// evaluates to zero.
	breakdown.QuantityDiscount = 0
	breakdown.DeliveryCharge = rates.Charge(zone)
	breakdown.PayableSubtotal = breakdown.RegularSubtotal + breakdown.PreorderPayableNow - breakdown.QuantityDiscount
	breakdown.Total = breakdown.PayableSubtotal + breakdown.DeliveryCharge

	if hasHalfPreorder && breakdown.CartTotal > 0 {
		breakdown.DeferredDeliveryShare = breakdown.DeliveryCharge * preorderFaceValue / breakdown.CartTotal / 2
	}

	return breakdown, nil
}

// Rates exposes the configured delivery fees, used by the settings endpoint
// and the checkout display.
func (e *PricingEngine) Rates() domain.DeliveryRates {
	return e.rates
}
