package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Equal(t, want, got.StringFixed(MoneyPlaces))
}

func monsteraCart(qty int) ([]CartLine, Catalog) {
	lines := []CartLine{{ProductRef: "plant_001", Quantity: qty}}
	catalog := Catalog{"plant_001": {Ref: "plant_001", UnitPrice: amount("29.99")}}
	return lines, catalog
}

func TestComputeBreakdownWithoutDiscount(t *testing.T) {
	lines, catalog := monsteraCart(2)

	got := ComputeBreakdown(lines, catalog, nil, now)

	requireAmount(t, "59.98", got.Subtotal)
	requireAmount(t, "4.80", got.TaxAmount)
	requireAmount(t, "0.00", got.ShippingCost)
	requireAmount(t, "0.00", got.DiscountAmount)
	requireAmount(t, "64.78", got.Total)
}

func TestComputeBreakdownPercentageDiscount(t *testing.T) {
	lines, catalog := monsteraCart(2)
	discount := &Discount{Code: "SPRING20", Kind: DiscountPercentage, Value: amount("20"), Active: true, ExpiresAt: now.Add(24 * time.Hour)}

	got := ComputeBreakdown(lines, catalog, discount, now)

	requireAmount(t, "12.00", got.DiscountAmount)
	requireAmount(t, "52.78", got.Total)
}

func TestComputeBreakdownFixedDiscountClampsToSubtotal(t *testing.T) {
	lines := []CartLine{{ProductRef: "seed", Quantity: 4}}
	catalog := Catalog{"seed": {Ref: "seed", UnitPrice: amount("2.50")}}
	discount := &Discount{Code: "BIG", Kind: DiscountFixed, Value: amount("50"), Active: true, ExpiresAt: now.Add(time.Hour)}

	got := ComputeBreakdown(lines, catalog, discount, now)

	requireAmount(t, "10.00", got.Subtotal)
	requireAmount(t, "10.00", got.DiscountAmount)
	requireAmount(t, "8.99", got.ShippingCost)
	requireAmount(t, "9.79", got.Total)
}

func TestComputeBreakdownEmptyCart(t *testing.T) {
	got := ComputeBreakdown(nil, Catalog{}, nil, now)

	for _, v := range []decimal.Decimal{got.Subtotal, got.TaxAmount, got.ShippingCost, got.DiscountAmount, got.Total} {
		require.True(t, v.IsZero())
	}
}

func TestComputeBreakdownNothingPriceable(t *testing.T) {
	_, catalog := monsteraCart(1)
	cases := map[string][]CartLine{
		"unknown plants":  {{ProductRef: "plant_404", Quantity: 2}, {ProductRef: "plant_405", Quantity: 1}},
		"zero quantities": {{ProductRef: "plant_001", Quantity: 0}, {ProductRef: "plant_001", Quantity: -1}},
	}
	for name, lines := range cases {
		t.Run(name, func(t *testing.T) {
			got := ComputeBreakdown(lines, catalog, nil, now)
			requireAmount(t, "0.00", got.ShippingCost)
			requireAmount(t, "0.00", got.Total)
		})
	}
}

func TestComputeBreakdownSkipsMissingProducts(t *testing.T) {
	lines, catalog := monsteraCart(1)
	lines = append(lines, CartLine{ProductRef: "plant_404", Quantity: 3})

	got := ComputeBreakdown(lines, catalog, nil, now)

	requireAmount(t, "29.99", got.Subtotal)
	requireAmount(t, "8.99", got.ShippingCost)
	requireAmount(t, "41.38", got.Total)
}

func TestComputeBreakdownIgnoresUnusableDiscounts(t *testing.T) {
	lines, catalog := monsteraCart(2)
	cases := map[string]*Discount{
		"nil":      nil,
		"inactive": {Kind: DiscountPercentage, Value: amount("20"), Active: false, ExpiresAt: now.Add(time.Hour)},
		"expired":  {Kind: DiscountFixed, Value: amount("10"), Active: true, ExpiresAt: now.Add(-time.Second)},
		"unknown":  {Kind: DiscountKind("bogo"), Value: amount("10"), Active: true},
	}
	for name, discount := range cases {
		t.Run(name, func(t *testing.T) {
			got := ComputeBreakdown(lines, catalog, discount, now)
			require.True(t, got.DiscountAmount.IsZero())
			requireAmount(t, "64.78", got.Total)
		})
	}
}

func TestDiscountValidAtExpiryInstant(t *testing.T) {
	lines, catalog := monsteraCart(2)
	atExpiry := &Discount{Kind: DiscountPercentage, Value: amount("20"), Active: true, ExpiresAt: now}

	got := ComputeBreakdown(lines, catalog, atExpiry, now)
	requireAmount(t, "12.00", got.DiscountAmount)

	got = ComputeBreakdown(lines, catalog, atExpiry, now.Add(time.Nanosecond))
	require.True(t, got.DiscountAmount.IsZero())
}

func TestShippingThresholdIsExclusive(t *testing.T) {
	require.True(t, ShippingFor(amount("50.00")).Equal(FlatShippingCost))
	require.True(t, ShippingFor(amount("50.01")).IsZero())
}

func TestTotalMatchesRoundedComponents(t *testing.T) {
	discounts := []*Discount{
		nil,
		{Kind: DiscountPercentage, Value: amount("20"), Active: true},
		{Kind: DiscountPercentage, Value: amount("15"), Active: true},
		{Kind: DiscountFixed, Value: amount("10"), Active: true},
	}
	for cents := int64(1); cents <= 20000; cents += 7 {
		price := decimal.New(cents, -MoneyPlaces)
		catalog := Catalog{"p": {Ref: "p", UnitPrice: price}}
		for qty := 1; qty <= 3; qty++ {
			for _, discount := range discounts {
				got := ComputeBreakdown([]CartLine{{ProductRef: "p", Quantity: qty}}, catalog, discount, now)

				sum := got.Subtotal.Add(got.TaxAmount).Add(got.ShippingCost).Sub(got.DiscountAmount)
				require.True(t, got.Total.Equal(Round(sum)), "price %s qty %d total %s sum %s", price, qty, got.Total, sum)
				require.False(t, got.DiscountAmount.GreaterThan(got.Subtotal))
			}
		}
	}
}

func TestTotalAddsUpWhereUnroundedSumWouldDrift(t *testing.T) {
	// Unrounded: 0.03 + 0.0024 + 8.99 - 0.006 = 9.0164.
	catalog := Catalog{"p": {Ref: "p", UnitPrice: amount("0.03")}}
	discount := &Discount{Kind: DiscountPercentage, Value: amount("20"), Active: true}

	got := ComputeBreakdown([]CartLine{{ProductRef: "p", Quantity: 1}}, catalog, discount, now)

	requireAmount(t, "0.00", got.TaxAmount)
	requireAmount(t, "0.01", got.DiscountAmount)
	requireAmount(t, "9.01", got.Total)
}

func TestIncreasingQuantityNeverLowersSubtotal(t *testing.T) {
	catalog := Catalog{"p": {Ref: "p", UnitPrice: amount("19.99")}}
	prev := decimal.Zero
	for qty := 1; qty <= 10; qty++ {
		got := ComputeBreakdown([]CartLine{{ProductRef: "p", Quantity: qty}}, catalog, nil, now)
		require.True(t, got.Subtotal.GreaterThanOrEqual(prev))
		prev = got.Subtotal
	}
}
