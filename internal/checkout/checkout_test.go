package checkout_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-nursery/internal/checkout"
	"github.com/noah-isme/backend-nursery/internal/discount"
	"github.com/noah-isme/backend-nursery/internal/obs"
	"github.com/noah-isme/backend-nursery/internal/pricing"
	"github.com/noah-isme/backend-nursery/internal/store"
)

type fakePlants map[string]store.Plant

func (f fakePlants) PlantsByID(_ context.Context, ids []string) (map[string]store.Plant, error) {
	out := map[string]store.Plant{}
	for _, id := range ids {
		if p, ok := f[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type fakeDiscounts map[string]pricing.Discount

func (f fakeDiscounts) Lookup(_ context.Context, code string) (*pricing.Discount, error) {
	d, ok := f[code]
	if !ok {
		return nil, discount.ErrNotFound
	}
	return &d, nil
}

func newService() *checkout.Service {
	return &checkout.Service{
		Plants: fakePlants{
			"plant_001": {ID: "plant_001", Price: decimal.RequireFromString("29.99")},
			"plant_002": {ID: "plant_002", Price: decimal.RequireFromString("19.99")},
			"plant_004": {ID: "plant_004", Price: decimal.RequireFromString("15.99")},
		},
		Discounts: fakeDiscounts{
			"SPRING20": {Code: "SPRING20", Kind: pricing.DiscountPercentage, Value: decimal.NewFromInt(20), Active: true},
			"SAVE10":   {Code: "SAVE10", Kind: pricing.DiscountFixed, Value: decimal.NewFromInt(10), Active: true},
		},
		Now: func() time.Time { return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC) },
	}
}

func postTotal(t *testing.T, h *checkout.Handler, body string) (*httptest.ResponseRecorder, checkout.Totals) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/calculate-total", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.CalculateTotal(rec, req)
	var totals checkout.Totals
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &totals))
	}
	return rec, totals
}

const shipping = `"shipping_info":{"address":"1 Fern St","city":"Portland","state":"OR","zip_code":"97201"}`

func TestCalculateTotal(t *testing.T) {
	h := &checkout.Handler{Svc: newService()}

	t.Run("percentage discount with free shipping", func(t *testing.T) {
		rec, got := postTotal(t, h, `{"items":[{"plant_id":"plant_001","quantity":2}],`+shipping+`,"discount_code":"SPRING20"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, checkout.Totals{Subtotal: 59.98, TaxAmount: 4.8, ShippingCost: 0, DiscountAmount: 12, Total: 52.78}, got)
	})

	t.Run("flat shipping under threshold", func(t *testing.T) {
		rec, got := postTotal(t, h, `{"items":[{"plant_id":"plant_002","quantity":1}],`+shipping+`}`)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, checkout.Totals{Subtotal: 19.99, TaxAmount: 1.6, ShippingCost: 8.99, DiscountAmount: 0, Total: 30.58}, got)
	})

	t.Run("unknown plant and code are ignored", func(t *testing.T) {
		rec, got := postTotal(t, h, `{"items":[{"plant_id":"nope","quantity":3},{"plant_id":"plant_004","quantity":1}],`+shipping+`,"discount_code":"BOGUS"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		require.InDelta(t, 15.99, got.Subtotal, 1e-9)
		require.InDelta(t, 0.0, got.DiscountAmount, 1e-9)
	})

	t.Run("empty cart", func(t *testing.T) {
		rec, got := postTotal(t, h, `{"items":[],`+shipping+`}`)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, checkout.Totals{}, got)
	})

	t.Run("rejects zero quantity", func(t *testing.T) {
		rec, _ := postTotal(t, h, `{"items":[{"plant_id":"plant_001","quantity":0}],`+shipping+`}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "items[0].quantity")
	})

	t.Run("rejects oversized quantity", func(t *testing.T) {
		rec, _ := postTotal(t, h, `{"items":[{"plant_id":"plant_001","quantity":4294967297}],`+shipping+`}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "items[0].quantity")
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		rec, _ := postTotal(t, h, `{"items":`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestQuoteUsesFallbackPrices(t *testing.T) {
	svc := newService()
	q, err := svc.Quote(context.Background(), checkout.QuoteInput{
		Lines: []pricing.CartLine{
			{ProductRef: "plant_001", Quantity: 1},
			{ProductRef: "gift-wrap", Quantity: 1},
		},
		Fallback: pricing.Catalog{
			"plant_001": {Ref: "plant_001", UnitPrice: decimal.NewFromInt(1)},
			"gift-wrap": {Ref: "gift-wrap", UnitPrice: decimal.RequireFromString("4.01")},
		},
		DiscountCode: "SAVE10",
	})
	require.NoError(t, err)
	require.Equal(t, "34.00", q.Breakdown.Subtotal.StringFixed(2))
	require.Equal(t, "10.00", q.Breakdown.DiscountAmount.StringFixed(2))
	require.Len(t, q.Plants, 1)
	require.NotNil(t, q.Discount)
}

func TestQuoteRecordsMetric(t *testing.T) {
	before := testutil.ToFloat64(obs.PricingQuotesTotal.WithLabelValues("applied"))
	_, err := newService().Quote(context.Background(), checkout.QuoteInput{
		Lines:        []pricing.CartLine{{ProductRef: "plant_001", Quantity: 1}},
		DiscountCode: "SAVE10",
	})
	require.NoError(t, err)
	require.Equal(t, before+1, testutil.ToFloat64(obs.PricingQuotesTotal.WithLabelValues("applied")))
}

type failingDiscounts struct{ err error }

func (f failingDiscounts) Lookup(context.Context, string) (*pricing.Discount, error) {
	return nil, f.err
}

func TestQuoteSurfacesDiscountLookupFailure(t *testing.T) {
	svc := newService()
	outage := errors.New("connection refused")
	svc.Discounts = failingDiscounts{err: outage}

	_, err := svc.Calculate(context.Background(), checkout.Request{
		Items:        []checkout.Item{{PlantID: "plant_001", Quantity: 2}},
		DiscountCode: "SPRING20",
	})
	require.ErrorIs(t, err, outage)

	rec, _ := postTotal(t, &checkout.Handler{Svc: svc}, `{"items":[{"plant_id":"plant_001","quantity":2}],`+shipping+`,"discount_code":"SPRING20"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestQuoteWithoutCodeSkipsLookup(t *testing.T) {
	svc := newService()
	svc.Discounts = failingDiscounts{err: errors.New("unreachable")}

	q, err := svc.Quote(context.Background(), checkout.QuoteInput{
		Lines: []pricing.CartLine{{ProductRef: "plant_001", Quantity: 2}},
	})
	require.NoError(t, err)
	require.Equal(t, "64.78", q.Breakdown.Total.StringFixed(2))
}
