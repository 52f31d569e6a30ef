package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-nursery/internal/resilience"
)

func newPayPal(t *testing.T, handler http.Handler) *PayPal {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &PayPal{
		BaseURL:      srv.URL,
		ClientID:     "client",
		ClientSecret: "secret",
		ReturnURL:    "https://shop.example/success",
		HTTP: resilience.HTTPClient{
			Client:      srv.Client(),
			MaxAttempts: 2,
			BaseBackoff: time.Millisecond,
		},
	}
}

func TestPayPalCreateAndCapture(t *testing.T) {
	var tokenCalls atomic.Int32
	var created map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "client", user)
		require.Equal(t, "secret", pass)
		tokenCalls.Add(1)
		_, _ = w.Write([]byte(`{"access_token":"tok","expires_in":3600}`))
	})
	mux.HandleFunc("POST /v2/checkout/orders", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.Equal(t, "order-1", r.Header.Get("PayPal-Request-Id"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"5O190127TN364715T","status":"CREATED","links":[
			{"href":"https://api.sandbox.paypal.com/v2/checkout/orders/5O190127TN364715T","rel":"self"},
			{"href":"https://www.sandbox.paypal.com/checkoutnow?token=5O190127TN364715T","rel":"approve"}]}`))
	})
	mux.HandleFunc("POST /v2/checkout/orders/{id}/capture", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "5O190127TN364715T", r.PathValue("id"))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"5O190127TN364715T","status":"COMPLETED","payer":{"payer_id":"QYR5Z8XDVJNXQ"},
			"purchase_units":[{"payments":{"captures":[{"id":"3C679366HH908993F","status":"COMPLETED"}]}}]}`))
	})
	pp := newPayPal(t, mux)

	order, err := pp.CreateOrder(context.Background(), CreateOrderRequest{
		Reference: "order-1",
		Currency:  "USD",
		Items:     []LineItem{{Name: "Monstera Deliciosa", Sku: "plant_001", Quantity: 2, UnitAmount: decimal.RequireFromString("29.99")}},
		ItemTotal: decimal.RequireFromString("59.98"),
		Tax:       decimal.RequireFromString("4.80"),
		Shipping:  decimal.Zero,
		Discount:  decimal.RequireFromString("12.00"),
		Total:     decimal.RequireFromString("52.78"),
	})
	require.NoError(t, err)
	require.Equal(t, "5O190127TN364715T", order.ID)
	require.Contains(t, order.ApprovalURL, "checkoutnow")

	units := created["purchase_units"].([]any)
	amount := units[0].(map[string]any)["amount"].(map[string]any)
	require.Equal(t, "52.78", amount["value"])
	require.Equal(t, "USD", amount["currency_code"])
	require.Equal(t, "12.00", amount["breakdown"].(map[string]any)["discount"].(map[string]any)["value"])
	require.Len(t, units[0].(map[string]any)["items"], 1)

	capture, err := pp.CaptureOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, capture.Status)
	require.Equal(t, "3C679366HH908993F", capture.ID)
	require.Equal(t, "QYR5Z8XDVJNXQ", capture.PayerID)
	require.Equal(t, int32(1), tokenCalls.Load())
}

func TestPayPalOmitsInconsistentBreakdown(t *testing.T) {
	req := CreateOrderRequest{
		Items:     []LineItem{{Quantity: 1, UnitAmount: decimal.RequireFromString("10.005")}},
		ItemTotal: decimal.RequireFromString("10.00"),
		Tax:       decimal.RequireFromString("0.80"),
		Shipping:  decimal.RequireFromString("8.99"),
		Total:     decimal.RequireFromString("19.80"),
	}
	require.False(t, breakdownMatches(req))

	req.Items[0].UnitAmount = decimal.RequireFromString("10.00")
	req.ItemTotal = decimal.RequireFromString("10.00")
	req.Total = decimal.RequireFromString("19.79")
	require.True(t, breakdownMatches(req))
}

func TestPayPalCaptureDeclined(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/oauth2/token", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"access_token":"tok","expires_in":3600}`))
	})
	mux.HandleFunc("POST /v2/checkout/orders/{id}/capture", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"name":"UNPROCESSABLE_ENTITY","details":[{"issue":"INSTRUMENT_DECLINED"}]}`))
	})
	pp := newPayPal(t, mux)

	_, err := pp.CaptureOrder(context.Background(), "X")
	require.ErrorIs(t, err, ErrCaptureDeclined)
}

func TestPayPalTokenFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/oauth2/token", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
	})
	pp := newPayPal(t, mux)

	_, err := pp.CreateOrder(context.Background(), CreateOrderRequest{Reference: "o", Currency: "USD", Total: decimal.NewFromInt(1)})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestMockProviderDeterministic(t *testing.T) {
	m := Mock{}
	a, err := m.CreateOrder(context.Background(), CreateOrderRequest{Reference: "ab-cd"})
	require.NoError(t, err)
	b, err := m.CreateOrder(context.Background(), CreateOrderRequest{Reference: "ab-cd"})
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.Equal(t, "MOCK-ABCD", a.ID)

	_, err = m.CreateOrder(context.Background(), CreateOrderRequest{})
	require.Error(t, err)
}
