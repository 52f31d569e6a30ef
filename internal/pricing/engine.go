package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of fraction digits kept on every money amount.
const MoneyPlaces = 2

var (
	// TaxRate is the flat sales tax applied to the subtotal.
	TaxRate = decimal.RequireFromString("0.08")
	// FreeShippingThreshold is the subtotal that must be exceeded for free shipping.
	FreeShippingThreshold = decimal.RequireFromString("50.00")
	// FlatShippingCost is charged when the subtotal does not exceed FreeShippingThreshold.
	FlatShippingCost = decimal.RequireFromString("8.99")

	hundred = decimal.NewFromInt(100)
)

// DiscountKind enumerates the supported discount code types.
type DiscountKind string

const (
	DiscountPercentage DiscountKind = "percentage"
	DiscountFixed      DiscountKind = "fixed"
)

// Valid reports whether k is a known discount kind.
func (k DiscountKind) Valid() bool {
	return k == DiscountPercentage || k == DiscountFixed
}

// CartLine is a product reference with the requested quantity.
type CartLine struct {
	ProductRef string
	Quantity   int
}

// Product is the priceable subset of a catalog entry.
type Product struct {
	Ref       string
	UnitPrice decimal.Decimal
}

// Catalog resolves product references to priceable products.
type Catalog map[string]Product

// Discount is a discount code as stored. Percentage values are 0-100,
// fixed values are currency amounts.
type Discount struct {
	Code      string
	Kind      DiscountKind
	Value     decimal.Decimal
	Active    bool
	ExpiresAt time.Time
}

// Applicable reports whether the discount is active and not expired at now.
// A zero ExpiresAt never expires.
func (d *Discount) Applicable(now time.Time) bool {
	if d == nil || !d.Active {
		return false
	}
	return d.ExpiresAt.IsZero() || !d.ExpiresAt.Before(now)
}

// Breakdown is the priced result of a cart. All amounts carry two fraction digits.
type Breakdown struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	ShippingCost   decimal.Decimal `json:"shipping_cost"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Total          decimal.Decimal `json:"total"`
}

// ComputeBreakdown prices lines against catalog and applies discount as of now.
//
// Lines whose product is missing from catalog contribute nothing. A cart with
// no priceable lines yields a zero breakdown. Each component is rounded half
// away from zero to MoneyPlaces and Total is the sum of the rounded components,
// so the breakdown always adds up to the cent.
func ComputeBreakdown(lines []CartLine, catalog Catalog, discount *Discount, now time.Time) Breakdown {
	subtotal := decimal.Zero
	priced := 0
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		product, ok := catalog[line.ProductRef]
		if !ok {
			continue
		}
		subtotal = subtotal.Add(product.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
		priced++
	}
	if priced == 0 {
		return zeroBreakdown()
	}

	b := Breakdown{
		Subtotal:       Round(subtotal),
		TaxAmount:      Round(subtotal.Mul(TaxRate)),
		ShippingCost:   Round(ShippingFor(subtotal)),
		DiscountAmount: Round(DiscountFor(subtotal, discount, now)),
	}
	b.Total = Round(b.Subtotal.Add(b.TaxAmount).Add(b.ShippingCost).Sub(b.DiscountAmount))
	return b
}

// ShippingFor returns the shipping charge for subtotal.
func ShippingFor(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThan(FreeShippingThreshold) {
		return decimal.Zero
	}
	return FlatShippingCost
}

// DiscountFor returns the unrounded discount for subtotal. The result never
// exceeds subtotal and is zero when the discount is not applicable at now.
func DiscountFor(subtotal decimal.Decimal, discount *Discount, now time.Time) decimal.Decimal {
	if !discount.Applicable(now) || !subtotal.IsPositive() {
		return decimal.Zero
	}
	var off decimal.Decimal
	switch discount.Kind {
	case DiscountPercentage:
		off = subtotal.Mul(discount.Value).Div(hundred)
	case DiscountFixed:
		off = decimal.Min(discount.Value, subtotal)
	default:
		return decimal.Zero
	}
	if off.IsNegative() {
		return decimal.Zero
	}
	if off.GreaterThan(subtotal) {
		return subtotal
	}
	return off
}

// Round rounds an amount to MoneyPlaces, half away from zero.
func Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(MoneyPlaces)
}

func zeroBreakdown() Breakdown {
	return Breakdown{
		Subtotal:       decimal.Zero,
		TaxAmount:      decimal.Zero,
		ShippingCost:   decimal.Zero,
		DiscountAmount: decimal.Zero,
		Total:          decimal.Zero,
	}
}
