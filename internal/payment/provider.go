package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// Provider status values reported back to clients.
const (
	StatusCreated   = "CREATED"
	StatusCompleted = "COMPLETED"
)

// ErrCaptureDeclined is returned when the provider refuses to capture funds.
var ErrCaptureDeclined = errors.New("payment: capture declined")

// LineItem is one priced order line sent to the provider.
type LineItem struct {
	Name       string
	Sku        string
	Quantity   int
	UnitAmount decimal.Decimal
}

// CreateOrderRequest describes a priced order awaiting buyer approval.
type CreateOrderRequest struct {
	Reference string
	Currency  string
	Items     []LineItem
	ItemTotal decimal.Decimal
	Tax       decimal.Decimal
	Shipping  decimal.Decimal
	Discount  decimal.Decimal
	Total     decimal.Decimal
}

// ProviderOrder is the provider-side order created for approval.
type ProviderOrder struct {
	ID          string
	Status      string
	ApprovalURL string
}

// Capture is the outcome of capturing an approved provider order.
type Capture struct {
	ID      string
	Status  string
	PayerID string
}

// Provider abstracts the operations required from an upstream payment provider.
type Provider interface {
	Name() string
	CreateOrder(ctx context.Context, req CreateOrderRequest) (ProviderOrder, error)
	CaptureOrder(ctx context.Context, providerOrderID string) (Capture, error)
}
