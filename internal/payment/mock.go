package payment

import (
	"context"
	"errors"
	"net/url"
	"strings"
)

// Mock is an offline provider with deterministic ids, used in development
// and whenever PayPal credentials are absent.
type Mock struct {
	ApprovalBase string
	// Decline makes every capture fail.
	Decline bool
}

// Name implements Provider.
func (Mock) Name() string { return "mock" }

// CreateOrder implements Provider.
func (m Mock) CreateOrder(_ context.Context, req CreateOrderRequest) (ProviderOrder, error) {
	if strings.TrimSpace(req.Reference) == "" {
		return ProviderOrder{}, errors.New("reference is required")
	}
	id := "MOCK-" + strings.ToUpper(strings.ReplaceAll(req.Reference, "-", ""))
	base := m.ApprovalBase
	if base == "" {
		base = "https://www.sandbox.paypal.com/checkoutnow"
	}
	return ProviderOrder{
		ID:          id,
		Status:      StatusCreated,
		ApprovalURL: base + "?token=" + url.QueryEscape(id),
	}, nil
}

// CaptureOrder implements Provider.
func (m Mock) CaptureOrder(_ context.Context, providerOrderID string) (Capture, error) {
	if m.Decline {
		return Capture{}, ErrCaptureDeclined
	}
	return Capture{
		ID:      "CAPTURE-" + strings.TrimPrefix(providerOrderID, "MOCK-"),
		Status:  StatusCompleted,
		PayerID: "MOCKPAYER",
	}, nil
}
