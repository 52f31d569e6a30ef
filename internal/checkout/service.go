package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/noah-isme/backend-nursery/internal/discount"
	"github.com/noah-isme/backend-nursery/internal/obs"
	"github.com/noah-isme/backend-nursery/internal/pricing"
	"github.com/noah-isme/backend-nursery/internal/store"
)

// PlantLoader resolves plant ids to stored plants. Unknown ids are omitted.
type PlantLoader interface {
	PlantsByID(ctx context.Context, ids []string) (map[string]store.Plant, error)
}

// DiscountLookup resolves a discount code into a pricing rule.
type DiscountLookup interface {
	Lookup(ctx context.Context, code string) (*pricing.Discount, error)
}

// ShippingInfo is the delivery address attached to quotes and orders.
type ShippingInfo struct {
	Address string `json:"address" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	ZipCode string `json:"zip_code" validate:"required"`
	Country string `json:"country"`
}

// CountryOrDefault returns the country, defaulting to US.
func (s ShippingInfo) CountryOrDefault() string {
	if s.Country == "" {
		return "US"
	}
	return s.Country
}

// Item is one requested cart line. Quantities are capped so they fit the
// order_items column.
type Item struct {
	PlantID  string `json:"plant_id" validate:"required"`
	Quantity int    `json:"quantity" validate:"min=1,max=999"`
}

// Request is the calculate-total body.
type Request struct {
	Items        []Item       `json:"items" validate:"dive"`
	ShippingInfo ShippingInfo `json:"shipping_info"`
	DiscountCode string       `json:"discount_code"`
	UserID       string       `json:"user_id"`
}

// QuoteInput describes a cart to price. Fallback prices lines whose
// reference is not a known plant.
type QuoteInput struct {
	Lines        []pricing.CartLine
	Fallback     pricing.Catalog
	DiscountCode string
}

// Quote is a priced cart together with the rows used to price it.
type Quote struct {
	Breakdown pricing.Breakdown
	Plants    map[string]store.Plant
	Discount  *pricing.Discount
}

// Service prices carts against the live catalog.
type Service struct {
	Plants    PlantLoader
	Discounts DiscountLookup
	Now       func() time.Time
}

// Quote loads the referenced plants and discount and computes the breakdown.
// An unknown or unusable discount code prices as no discount. Any other
// lookup failure is returned so a valid code is never silently dropped.
func (s *Service) Quote(ctx context.Context, in QuoteInput) (Quote, error) {
	if s == nil || s.Plants == nil {
		return Quote{}, errors.New("checkout service not configured")
	}
	ids := make([]string, 0, len(in.Lines))
	for _, line := range in.Lines {
		ids = append(ids, line.ProductRef)
	}
	plants, err := s.Plants.PlantsByID(ctx, ids)
	if err != nil {
		return Quote{}, err
	}

	catalog := make(pricing.Catalog, len(plants)+len(in.Fallback))
	for ref, p := range in.Fallback {
		catalog[ref] = p
	}
	for id, p := range plants {
		catalog[id] = pricing.Product{Ref: id, UnitPrice: p.Price}
	}

	var rule *pricing.Discount
	if in.DiscountCode != "" && s.Discounts != nil {
		rule, err = s.Discounts.Lookup(ctx, in.DiscountCode)
		if err != nil {
			if !errors.Is(err, discount.ErrNotFound) {
				return Quote{}, fmt.Errorf("lookup discount: %w", err)
			}
			rule = nil
		}
	}

	now := s.now()
	breakdown := pricing.ComputeBreakdown(in.Lines, catalog, rule, now)
	obs.PricingQuotesTotal.WithLabelValues(discountOutcome(in.DiscountCode, rule, now)).Inc()
	return Quote{Breakdown: breakdown, Plants: plants, Discount: rule}, nil
}

// Calculate prices a calculate-total request.
func (s *Service) Calculate(ctx context.Context, req Request) (pricing.Breakdown, error) {
	lines := make([]pricing.CartLine, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, pricing.CartLine{ProductRef: it.PlantID, Quantity: it.Quantity})
	}
	q, err := s.Quote(ctx, QuoteInput{Lines: lines, DiscountCode: req.DiscountCode})
	if err != nil {
		return pricing.Breakdown{}, err
	}
	return q.Breakdown, nil
}

func discountOutcome(code string, d *pricing.Discount, now time.Time) string {
	switch {
	case code == "":
		return "none"
	case d == nil:
		return "unknown"
	case !d.Applicable(now):
		return "inapplicable"
	default:
		return "applied"
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
