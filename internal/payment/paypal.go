package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-nursery/internal/resilience"
)

// PayPal API hosts.
const (
	PayPalSandboxURL = "https://api-m.sandbox.paypal.com"
	PayPalLiveURL    = "https://api-m.paypal.com"
)

// PayPal talks to the PayPal Orders v2 API.
type PayPal struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	ReturnURL    string
	CancelURL    string
	HTTP         resilience.HTTPClient
	Now          func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

// Name implements Provider.
func (p *PayPal) Name() string { return "paypal" }

type ppMoney struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type ppItem struct {
	Name       string  `json:"name"`
	Sku        string  `json:"sku,omitempty"`
	Quantity   string  `json:"quantity"`
	UnitAmount ppMoney `json:"unit_amount"`
}

type ppBreakdown struct {
	ItemTotal ppMoney `json:"item_total"`
	TaxTotal  ppMoney `json:"tax_total"`
	Shipping  ppMoney `json:"shipping"`
	Discount  ppMoney `json:"discount"`
}

type ppAmount struct {
	ppMoney
	Breakdown *ppBreakdown `json:"breakdown,omitempty"`
}

type ppPurchaseUnit struct {
	ReferenceID string   `json:"reference_id"`
	Amount      ppAmount `json:"amount"`
	Items       []ppItem `json:"items,omitempty"`
}

type ppCreateOrder struct {
	Intent             string           `json:"intent"`
	PurchaseUnits      []ppPurchaseUnit `json:"purchase_units"`
	ApplicationContext struct {
		ReturnURL  string `json:"return_url,omitempty"`
		CancelURL  string `json:"cancel_url,omitempty"`
		UserAction string `json:"user_action"`
	} `json:"application_context"`
}

type ppLink struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

type ppOrder struct {
	ID     string   `json:"id"`
	Status string   `json:"status"`
	Links  []ppLink `json:"links"`
	Payer  struct {
		PayerID string `json:"payer_id"`
	} `json:"payer"`
	PurchaseUnits []struct {
		Payments struct {
			Captures []struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			} `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

// CreateOrder implements Provider.
func (p *PayPal) CreateOrder(ctx context.Context, req CreateOrderRequest) (ProviderOrder, error) {
	money := func(v decimal.Decimal) ppMoney {
		return ppMoney{CurrencyCode: req.Currency, Value: v.StringFixed(2)}
	}
	unit := ppPurchaseUnit{
		ReferenceID: req.Reference,
		Amount:      ppAmount{ppMoney: money(req.Total)},
	}
	// PayPal rejects a breakdown that does not add up to the amount to the cent.
	if breakdownMatches(req) {
		unit.Amount.Breakdown = &ppBreakdown{
			ItemTotal: money(req.ItemTotal),
			TaxTotal:  money(req.Tax),
			Shipping:  money(req.Shipping),
			Discount:  money(req.Discount),
		}
		unit.Items = toPPItems(req, money)
	}
	body := ppCreateOrder{Intent: "CAPTURE", PurchaseUnits: []ppPurchaseUnit{unit}}
	body.ApplicationContext.ReturnURL = p.ReturnURL
	body.ApplicationContext.CancelURL = p.CancelURL
	body.ApplicationContext.UserAction = "PAY_NOW"

	var out ppOrder
	if err := p.call(ctx, http.MethodPost, "/v2/checkout/orders", req.Reference, body, &out); err != nil {
		return ProviderOrder{}, err
	}
	order := ProviderOrder{ID: out.ID, Status: out.Status}
	for _, l := range out.Links {
		if l.Rel == "approve" || l.Rel == "payer-action" {
			order.ApprovalURL = l.Href
			break
		}
	}
	if order.ID == "" {
		return ProviderOrder{}, errors.New("paypal: order id missing in response")
	}
	return order, nil
}

// CaptureOrder implements Provider.
func (p *PayPal) CaptureOrder(ctx context.Context, providerOrderID string) (Capture, error) {
	var out ppOrder
	path := "/v2/checkout/orders/" + url.PathEscape(providerOrderID) + "/capture"
	if err := p.call(ctx, http.MethodPost, path, "capture-"+providerOrderID, struct{}{}, &out); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnprocessableEntity {
			return Capture{}, fmt.Errorf("%w: %s", ErrCaptureDeclined, apiErr.Body)
		}
		return Capture{}, err
	}
	capture := Capture{Status: out.Status, PayerID: out.Payer.PayerID}
	for _, pu := range out.PurchaseUnits {
		for _, c := range pu.Payments.Captures {
			capture.ID = c.ID
		}
	}
	return capture, nil
}

func breakdownMatches(req CreateOrderRequest) bool {
	r := func(d decimal.Decimal) decimal.Decimal { return d.Round(2) }
	items := decimal.Zero
	for _, it := range req.Items {
		items = items.Add(r(it.UnitAmount).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	if !items.Equal(r(req.ItemTotal)) {
		return false
	}
	sum := r(req.ItemTotal).Add(r(req.Tax)).Add(r(req.Shipping)).Sub(r(req.Discount))
	return sum.Equal(r(req.Total))
}

func toPPItems(req CreateOrderRequest, money func(decimal.Decimal) ppMoney) []ppItem {
	items := make([]ppItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, ppItem{
			Name:       truncate(it.Name, 127),
			Sku:        truncate(it.Sku, 127),
			Quantity:   strconv.Itoa(it.Quantity),
			UnitAmount: money(it.UnitAmount),
		})
	}
	return items
}

// APIError is a non-success response from PayPal.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paypal: status %d: %s", e.StatusCode, e.Body)
}

func (p *PayPal) call(ctx context.Context, method, path, requestID string, in, out any) error {
	token, err := p.accessToken(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, p.baseURL()+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	if requestID != "" {
		req.Header.Set("PayPal-Request-Id", requestID)
	}
	resp, err := p.HTTP.Do(ctx, req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusUnauthorized {
			p.resetToken()
		}
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func (p *PayPal) accessToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	if p.token != "" && now.Before(p.expires) {
		return p.token, nil
	}
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL()+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(p.ClientID, p.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := p.HTTP.Do(ctx, req)
	if err != nil {
		return "", fmt.Errorf("paypal: token request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("paypal: decode token: %w", err)
	}
	if tok.AccessToken == "" {
		return "", errors.New("paypal: empty access token")
	}
	// renewed a minute before PayPal expires it
	ttl := time.Duration(max(tok.ExpiresIn-60, 0)) * time.Second
	p.token = tok.AccessToken
	p.expires = now.Add(ttl)
	return p.token, nil
}

func (p *PayPal) resetToken() {
	p.mu.Lock()
	p.token = ""
	p.mu.Unlock()
}

func (p *PayPal) baseURL() string {
	if p.BaseURL == "" {
		return PayPalSandboxURL
	}
	return strings.TrimRight(p.BaseURL, "/")
}

func (p *PayPal) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
