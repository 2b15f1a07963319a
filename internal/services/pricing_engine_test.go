package services

import (
	"reflect"
	"testing"

	domain "github.com/torunhut/api/internal/domain"
)

func newTestEngine(t *testing.T) *PricingEngine {
	t.Helper()
	engine, err := NewPricingEngine(PricingEngineDeps{
		DeliveryRates: domain.DeliveryRates{Local: 0, National: 100},
	})
	if err != nil {
		t.Fatalf("NewPricingEngine returned error: %v", err)
	}
	return engine
}

func int64Ptr(v int64) *int64 {
	return &v
}

func TestResolveUnitPriceWithoutTiers(t *testing.T) {
	cases := []struct {
		name       string
		discounted *int64
		list       int64
		want       int64
	}{
		{name: "list price only", discounted: nil, list: 1000, want: 1000},
		{name: "discount below list", discounted: int64Ptr(800), list: 1000, want: 800},
		{name: "discount above list ignored", discounted: int64Ptr(1200), list: 1000, want: 1000},
		{name: "zero discount ignored", discounted: int64Ptr(0), list: 1000, want: 1000},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveUnitPrice(nil, tc.discounted, tc.list, 3)
			if got != tc.want {
				t.Fatalf("ResolveUnitPrice = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestResolveUnitPriceTierSelection(t *testing.T) {
	tiers := []domain.PriceTier{
		{Quantity: 10, UnitPrice: 700},
		{Quantity: 3, UnitPrice: 900},
		{Quantity: 5, UnitPrice: 800},
	}

	cases := []struct {
		qty  int
		want int64
	}{
		{qty: 1, want: 1000},
		{qty: 2, want: 1000},
		{qty: 3, want: 900},
		{qty: 4, want: 900},
		{qty: 5, want: 800},
		{qty: 9, want: 800},
		{qty: 10, want: 700},
		{qty: 50, want: 700},
	}

	for _, tc := range cases {
		got := ResolveUnitPrice(tiers, nil, 1000, tc.qty)
		if got != tc.want {
			t.Fatalf("qty %d: ResolveUnitPrice = %d, want %d", tc.qty, got, tc.want)
		}
	}
}

func TestResolveUnitPriceDoesNotMutateInput(t *testing.T) {
	tiers := []domain.PriceTier{
		{Quantity: 10, UnitPrice: 700},
		{Quantity: 3, UnitPrice: 900},
	}
	original := make([]domain.PriceTier, len(tiers))
	copy(original, tiers)

	_ = ResolveUnitPrice(tiers, nil, 1000, 12)

	if !reflect.DeepEqual(tiers, original) {
		t.Fatalf("ResolveUnitPrice reordered caller's tier slice: %+v", tiers)
	}
}

func TestResolveUnitPriceDuplicateThresholdLastWins(t *testing.T) {
	tiers := []domain.PriceTier{
		{Quantity: 5, UnitPrice: 850},
		{Quantity: 5, UnitPrice: 820},
	}

	if got := ResolveUnitPrice(tiers, nil, 1000, 5); got != 820 {
		t.Fatalf("duplicate threshold: got %d, want last-defined 820", got)
	}
}

func TestResolveUnitPriceBelowSmallestTierUsesDiscount(t *testing.T) {
	tiers := []domain.PriceTier{{Quantity: 5, UnitPrice: 800}}

	if got := ResolveUnitPrice(tiers, int64Ptr(950), 1000, 2); got != 950 {
		t.Fatalf("below smallest tier: got %d, want discounted 950", got)
	}
}

func TestResolveUnitPriceMonotonic(t *testing.T) {
	tiers := []domain.PriceTier{
		{Quantity: 3, UnitPrice: 900},
		{Quantity: 5, UnitPrice: 800},
		{Quantity: 10, UnitPrice: 700},
	}

	prev := ResolveUnitPrice(tiers, nil, 1000, 3)
	for qty := 4; qty <= 30; qty++ {
		got := ResolveUnitPrice(tiers, nil, 1000, qty)
		if got > prev {
			t.Fatalf("price increased from %d to %d at qty %d", prev, got, qty)
		}
		prev = got
	}
}

func TestFamilyQuantitiesSumsVariants(t *testing.T) {
	lines := []domain.CartLine{
		{LineID: "l1", ProductID: "prod_a", Quantity: 3, Size: "M"},
		{LineID: "l2", ProductID: "prod_a_1700000000_42", OriginalProductID: "prod_a", Quantity: 2, Size: "L"},
		{LineID: "l3", ProductID: "prod_b", Quantity: 1},
	}

	totals := FamilyQuantities(lines)
	if totals["prod_a"] != 5 {
		t.Fatalf("family prod_a quantity = %d, want 5", totals["prod_a"])
	}
	if totals["prod_b"] != 1 {
		t.Fatalf("family prod_b quantity = %d, want 1", totals["prod_b"])
	}
}

func TestAggregateVariantLinesShareTier(t *testing.T) {
	engine := newTestEngine(t)
	tiers := []domain.PriceTier{{Quantity: 5, UnitPrice: 800}}
	lines := []domain.CartLine{
		{LineID: "l1", ProductID: "prod_a", Quantity: 3, UnitListPrice: 1000, TieredPricing: tiers},
		{LineID: "l2", ProductID: "prod_a_clone", OriginalProductID: "prod_a", Quantity: 2, UnitListPrice: 1000, TieredPricing: tiers},
	}

	breakdown, err := engine.Aggregate(lines, domain.ZoneLocal)
	if err != nil {
		t.Fatalf("Aggregate returned error: %v", err)
	}

	for _, lp := range breakdown.Lines {
		if lp.AggregateQuantity != 5 {
			t.Fatalf("line %s aggregate quantity = %d, want 5", lp.LineID, lp.AggregateQuantity)
		}
		if lp.EffectiveUnitPrice != 800 {
			t.Fatalf("line %s unit price = %d, want tier price 800", lp.LineID, lp.EffectiveUnitPrice)
		}
	}
	if breakdown.RegularSubtotal != 4000 {
		t.Fatalf("regular subtotal = %d, want 4000", breakdown.RegularSubtotal)
	}
}

func TestAggregatePreorderHalfSplitExact(t *testing.T) {
	engine := newTestEngine(t)

	cases := []struct {
		name      string
		unit      int64
		qty       int
		wantNow   int64
		wantDefer int64
	}{
		{name: "even total", unit: 500, qty: 2, wantNow: 500, wantDefer: 500},
		{name: "odd total favours payable now", unit: 333, qty: 3, wantNow: 500, wantDefer: 499},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lines := []domain.CartLine{{
				LineID:              "l1",
				ProductID:           "prod_p",
				Quantity:            tc.qty,
				UnitListPrice:       tc.unit,
				IsPreorder:          true,
				PreorderPaymentType: domain.PreorderPaymentHalf,
			}}

			breakdown, err := engine.Aggregate(lines, domain.ZoneLocal)
			if err != nil {
				t.Fatalf("Aggregate returned error: %v", err)
			}
			if breakdown.PreorderPayableNow != tc.wantNow {
				t.Fatalf("payable now = %d, want %d", breakdown.PreorderPayableNow, tc.wantNow)
			}
			if breakdown.PreorderDeferred != tc.wantDefer {
				t.Fatalf("deferred = %d, want %d", breakdown.PreorderDeferred, tc.wantDefer)
			}
			lineTotal := tc.unit * int64(tc.qty)
			if breakdown.PreorderPayableNow+breakdown.PreorderDeferred != lineTotal {
				t.Fatalf("split parts %d+%d do not sum to line total %d",
					breakdown.PreorderPayableNow, breakdown.PreorderDeferred, lineTotal)
			}
		})
	}
}

func TestAggregateFullPreorderHasNoDeferred(t *testing.T) {
	engine := newTestEngine(t)
	lines := []domain.CartLine{
		{LineID: "l1", ProductID: "prod_r", Quantity: 1, UnitListPrice: 1000},
		{LineID: "l2", ProductID: "prod_p", Quantity: 1, UnitListPrice: 800, IsPreorder: true, PreorderPaymentType: domain.PreorderPaymentFull},
	}

	breakdown, err := engine.Aggregate(lines, domain.ZoneNational)
	if err != nil {
		t.Fatalf("Aggregate returned error: %v", err)
	}
	if breakdown.PreorderDeferred != 0 {
		t.Fatalf("deferred = %d, want 0 for full-payment preorder", breakdown.PreorderDeferred)
	}
	if breakdown.Total != 1000+800+100 {
		t.Fatalf("total = %d, want 1900", breakdown.Total)
	}
	if breakdown.DeferredDeliveryShare != 0 {
		t.Fatalf("deferred delivery share = %d, want 0 without half-payment lines", breakdown.DeferredDeliveryShare)
	}
}

func TestAggregateTieredRegularNationalScenario(t *testing.T) {
	engine := newTestEngine(t)
	lines := []domain.CartLine{{
		LineID:        "l1",
		ProductID:     "prod_a",
		Quantity:      3,
		UnitListPrice: 1000,
		TieredPricing: []domain.PriceTier{{Quantity: 3, UnitPrice: 900}},
	}}

	breakdown, err := engine.Aggregate(lines, domain.ZoneNational)
	if err != nil {
		t.Fatalf("Aggregate returned error: %v", err)
	}
	if breakdown.RegularSubtotal != 2700 {
		t.Fatalf("regular subtotal = %d, want 2700", breakdown.RegularSubtotal)
	}
	if breakdown.DeliveryCharge != 100 {
		t.Fatalf("delivery charge = %d, want 100", breakdown.DeliveryCharge)
	}
	if breakdown.Total != 2800 {
		t.Fatalf("total = %d, want 2800", breakdown.Total)
	}
}

func TestAggregateWithOverridesDeliveryRates(t *testing.T) {
	engine := newTestEngine(t)
	lines := []domain.CartLine{{
		LineID:        "l1",
		ProductID:     "prod_a",
		Quantity:      1,
		UnitListPrice: 1000,
	}}

	breakdown, err := engine.AggregateWith(lines, domain.ZoneNational, domain.DeliveryRates{Local: 60, National: 150})
	if err != nil {
		t.Fatalf("AggregateWith returned error: %v", err)
	}
	if breakdown.DeliveryCharge != 150 {
		t.Fatalf("delivery charge = %d, want override 150", breakdown.DeliveryCharge)
	}
	if breakdown.Total != 1150 {
		t.Fatalf("total = %d, want 1150", breakdown.Total)
	}
}

func TestAggregateWithNegativeRatesFallsBackToConfigured(t *testing.T) {
	engine := newTestEngine(t)
	lines := []domain.CartLine{{
		LineID:        "l1",
		ProductID:     "prod_a",
		Quantity:      1,
		UnitListPrice: 1000,
	}}

	breakdown, err := engine.AggregateWith(lines, domain.ZoneNational, domain.DeliveryRates{Local: -1, National: -1})
	if err != nil {
		t.Fatalf("AggregateWith returned error: %v", err)
	}
	if breakdown.DeliveryCharge != 100 {
		t.Fatalf("delivery charge = %d, want configured 100", breakdown.DeliveryCharge)
	}
}

func TestAggregateHalfPreorderLocalScenario(t *testing.T) {
	engine := newTestEngine(t)
	lines := []domain.CartLine{{
		LineID:              "l1",
		ProductID:           "prod_b",
		Quantity:            2,
		UnitListPrice:       500,
		IsPreorder:          true,
		PreorderPaymentType: domain.PreorderPaymentHalf,
	}}

	breakdown, err := engine.Aggregate(lines, domain.ZoneLocal)
	if err != nil {
		t.Fatalf("Aggregate returned error: %v", err)
	}
	if breakdown.PreorderPayableNow != 500 || breakdown.PreorderDeferred != 500 {
		t.Fatalf("split = %d/%d, want 500/500", breakdown.PreorderPayableNow, breakdown.PreorderDeferred)
	}
	if breakdown.Total != 500 {
		t.Fatalf("total = %d, want 500", breakdown.Total)
	}
}

func TestAggregateDeferredDeliveryShare(t *testing.T) {
	engine := newTestEngine(t)
	lines := []domain.CartLine{
		{LineID: "l1", ProductID: "prod_r", Quantity: 1, UnitListPrice: 1000},
		{LineID: "l2", ProductID: "prod_p", Quantity: 1, UnitListPrice: 1000, IsPreorder: true, PreorderPaymentType: domain.PreorderPaymentHalf},
	}

	breakdown, err := engine.Aggregate(lines, domain.ZoneNational)
	if err != nil {
		t.Fatalf("Aggregate returned error: %v", err)
	}
	// 100 * (1000/2000) / 2 = 25, display only.
	if breakdown.DeferredDeliveryShare != 25 {
		t.Fatalf("deferred delivery share = %d, want 25", breakdown.DeferredDeliveryShare)
	}
	if breakdown.Total != 1000+500+100 {
		t.Fatalf("total = %d, want 1600 (full delivery charge collected now)", breakdown.Total)
	}
	if breakdown.DeferredTotal() != 500+25 {
		t.Fatalf("deferred display total = %d, want 525", breakdown.DeferredTotal())
	}
}

func TestAggregateIdempotent(t *testing.T) {
	engine := newTestEngine(t)
	lines := []domain.CartLine{
		{LineID: "l1", ProductID: "prod_a", Quantity: 3, UnitListPrice: 1000, TieredPricing: []domain.PriceTier{{Quantity: 3, UnitPrice: 900}}},
		{LineID: "l2", ProductID: "prod_p", Quantity: 2, UnitListPrice: 501, IsPreorder: true, PreorderPaymentType: domain.PreorderPaymentHalf},
	}

	first, err := engine.Aggregate(lines, domain.ZoneNational)
	if err != nil {
		t.Fatalf("first Aggregate returned error: %v", err)
	}
	second, err := engine.Aggregate(lines, domain.ZoneNational)
	if err != nil {
		t.Fatalf("second Aggregate returned error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("Aggregate not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestAggregateTotalConsistency(t *testing.T) {
	engine := newTestEngine(t)
	lines := []domain.CartLine{
		{LineID: "l1", ProductID: "prod_a", Quantity: 2, UnitListPrice: 750},
		{LineID: "l2", ProductID: "prod_p", Quantity: 3, UnitListPrice: 333, IsPreorder: true, PreorderPaymentType: domain.PreorderPaymentHalf},
		{LineID: "l3", ProductID: "prod_q", Quantity: 1, UnitListPrice: 800, IsPreorder: true, PreorderPaymentType: domain.PreorderPaymentFull},
	}

	for _, zone := range []domain.ShippingZone{domain.ZoneLocal, domain.ZoneNational} {
		breakdown, err := engine.Aggregate(lines, zone)
		if err != nil {
			t.Fatalf("Aggregate(%s) returned error: %v", zone, err)
		}
		if breakdown.PayableSubtotal+breakdown.DeliveryCharge != breakdown.Total {
			t.Fatalf("zone %s: payable %d + delivery %d != total %d",
				zone, breakdown.PayableSubtotal, breakdown.DeliveryCharge, breakdown.Total)
		}
	}
}

func TestAggregateRejectsInvalidLines(t *testing.T) {
	engine := newTestEngine(t)

	cases := []struct {
		name string
		line domain.CartLine
	}{
		{name: "missing product id", line: domain.CartLine{LineID: "l1", Quantity: 1, UnitListPrice: 100}},
		{name: "zero quantity", line: domain.CartLine{LineID: "l1", ProductID: "p", Quantity: 0, UnitListPrice: 100}},
		{name: "negative price", line: domain.CartLine{LineID: "l1", ProductID: "p", Quantity: 1, UnitListPrice: -5}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := engine.Aggregate([]domain.CartLine{tc.line}, domain.ZoneLocal); err == nil {
				t.Fatalf("expected error for %s", tc.name)
			}
		})
	}
}

func TestAggregateQuantityDiscountAlwaysZero(t *testing.T) {
	engine := newTestEngine(t)
	lines := []domain.CartLine{
		{LineID: "l1", ProductID: "prod_a", Quantity: 50, UnitListPrice: 1000},
	}

	breakdown, err := engine.Aggregate(lines, domain.ZoneLocal)
	if err != nil {
		t.Fatalf("Aggregate returned error: %v", err)
	}
	if breakdown.QuantityDiscount != 0 {
		t.Fatalf("quantity discount = %d, want 0", breakdown.QuantityDiscount)
	}
}
