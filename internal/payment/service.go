package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/backend-nursery/internal/checkout"
	"github.com/noah-isme/backend-nursery/internal/common"
	"github.com/noah-isme/backend-nursery/internal/events"
	"github.com/noah-isme/backend-nursery/internal/lock"
	"github.com/noah-isme/backend-nursery/internal/obs"
	"github.com/noah-isme/backend-nursery/internal/pricing"
	"github.com/noah-isme/backend-nursery/internal/store"
)

var (
	ErrEmptyOrder       = common.NewAppError("empty_order", "Order must contain at least one priced item", http.StatusBadRequest, nil)
	ErrEmailRequired    = common.NewAppError("validation_failed", "customer_email is required", http.StatusBadRequest, nil)
	ErrProvider         = common.NewAppError("payment_provider_error", "Payment provider request failed", http.StatusBadGateway, nil)
	ErrOrderNotFound    = common.NewAppError("order_not_found", "Order not found for payment", http.StatusNotFound, nil)
	ErrPaymentInFlight  = common.NewAppError("payment_in_progress", "Payment is already being processed", http.StatusConflict, nil)
	ErrPaymentDeclined  = common.NewAppError("payment_declined", "Payment was not completed", http.StatusPaymentRequired, nil)
	ErrPaymentIDMissing = common.NewAppError("bad_request", "payment_id is required", http.StatusBadRequest, nil)
)

// Quoter prices a cart.
type Quoter interface {
	Quote(ctx context.Context, in checkout.QuoteInput) (checkout.Quote, error)
}

// OrderStore persists orders and their payment state.
type OrderStore interface {
	CreateOrderWithItems(ctx context.Context, arg store.CreateOrderParams, items []store.CreateOrderItemParams) (store.Order, []store.OrderItem, error)
	SetOrderPaymentID(ctx context.Context, arg store.SetOrderPaymentIDParams) error
	GetOrderByPaymentID(ctx context.Context, paymentID string) (store.Order, error)
	MarkOrderPaid(ctx context.Context, arg store.MarkOrderPaidParams) (store.Order, error)
	MarkOrderPaymentFailed(ctx context.Context, id pgtype.UUID) error
}

// Emitter publishes domain events.
type Emitter interface {
	Emit(ctx context.Context, topic, aggregateID string, payload any) (store.DomainEvent, error)
}

// Locker serialises work on a key.
type Locker interface {
	TryWithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// OrderLine is a cart line as submitted by the storefront.
type OrderLine struct {
	Name       string          `json:"name" validate:"required"`
	Quantity   int             `json:"quantity" validate:"min=1,max=999"`
	UnitAmount decimal.Decimal `json:"unit_amount"`
	Sku        string          `json:"sku"`
}

// CreateOrderInput is the create-order body.
type CreateOrderInput struct {
	Items         []OrderLine           `json:"items" validate:"required,min=1,dive"`
	TotalAmount   decimal.Decimal       `json:"total_amount"`
	Currency      string                `json:"currency" validate:"omitempty,len=3"`
	CustomerEmail string                `json:"customer_email" validate:"omitempty,email"`
	ShippingInfo  checkout.ShippingInfo `json:"shipping_info"`
	DiscountCode  string                `json:"discount_code"`
}

// CreateOrderResult is returned once the provider order exists.
type CreateOrderResult struct {
	ID          string `json:"id"`
	OrderID     string `json:"order_id"`
	Status      string `json:"status"`
	ApprovalURL string `json:"approval_url"`
}

// ExecuteResult reports a captured payment.
type ExecuteResult struct {
	Status    string `json:"status"`
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	CaptureID string `json:"capture_id,omitempty"`
}

// Service runs the PayPal checkout flow: price, persist, create, capture.
type Service struct {
	Orders   OrderStore
	Pricing  Quoter
	Provider Provider
	Events   Emitter
	Locks    Locker
	LockTTL  time.Duration
	Logger   zerolog.Logger
}

// CreateOrder prices the submitted cart on the server, stores a pending
// order and opens a provider order for buyer approval.
func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (CreateOrderResult, error) {
	if s == nil || s.Orders == nil || s.Pricing == nil || s.Provider == nil {
		return CreateOrderResult{}, errors.New("payment service not configured")
	}
	ctx, span := otel.Tracer("payment.Service").Start(ctx, "PaymentService.CreateOrder")
	defer span.End()

	principal, authed := common.CurrentPrincipal(ctx)
	email := strings.TrimSpace(in.CustomerEmail)
	if email == "" && authed {
		email = principal.Email
	}
	if email == "" {
		return CreateOrderResult{}, ErrEmailRequired
	}
	for i, it := range in.Items {
		if it.UnitAmount.IsNegative() {
			return CreateOrderResult{}, common.NewAppError("validation_failed", "unit_amount must not be negative", http.StatusBadRequest, nil).
				WithDetails([]common.FieldError{{Field: fmt.Sprintf("items[%d].unit_amount", i), Rule: "gte"}})
		}
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = "USD"
	}

	lines, fallback := cartLines(in.Items)
	quote, err := s.Pricing.Quote(ctx, checkout.QuoteInput{Lines: lines, Fallback: fallback, DiscountCode: in.DiscountCode})
	if err != nil {
		return CreateOrderResult{}, err
	}
	b := quote.Breakdown
	if !b.Subtotal.IsPositive() {
		return CreateOrderResult{}, ErrEmptyOrder
	}
	if !in.TotalAmount.IsZero() && !in.TotalAmount.Round(2).Equal(b.Total) {
		s.Logger.Warn().
			Str("client_total", in.TotalAmount.StringFixed(2)).
			Str("server_total", b.Total.StringFixed(2)).
			Msg("client total differs from server price")
	}

	params := store.CreateOrderParams{
		CustomerEmail:   email,
		PaymentProvider: s.Provider.Name(),
		Currency:        currency,
		Subtotal:        b.Subtotal,
		TaxAmount:       b.TaxAmount,
		ShippingCost:    b.ShippingCost,
		DiscountAmount:  b.DiscountAmount,
		Total:           b.Total,
		ShippingAddress: in.ShippingInfo.Address,
		ShippingCity:    in.ShippingInfo.City,
		ShippingState:   in.ShippingInfo.State,
		ShippingZip:     in.ShippingInfo.ZipCode,
		ShippingCountry: in.ShippingInfo.CountryOrDefault(),
	}
	if quote.Discount != nil && b.DiscountAmount.IsPositive() {
		params.DiscountCode = store.Text(quote.Discount.Code)
	}
	if authed {
		if uid, err := store.ParseUUID(principal.UserID); err == nil {
			params.UserID = uid
		}
	}
	items, providerItems := orderItems(in.Items, quote.Plants, fallback)

	order, _, err := s.Orders.CreateOrderWithItems(ctx, params, items)
	if err != nil {
		return CreateOrderResult{}, fmt.Errorf("persist order: %w", err)
	}
	orderID := store.UUIDString(order.ID)
	span.SetAttributes(attribute.String("order.id", orderID), attribute.String("order.total", b.Total.StringFixed(2)))
	s.emit(ctx, events.TopicOrderCreated, orderID, map[string]any{
		"order_id":       orderID,
		"customer_email": email,
		"total":          b.Total.StringFixed(2),
		"items":          len(items),
	})

	provOrder, err := s.Provider.CreateOrder(ctx, CreateOrderRequest{
		Reference: orderID,
		Currency:  currency,
		Items:     providerItems,
		ItemTotal: b.Subtotal,
		Tax:       b.TaxAmount,
		Shipping:  b.ShippingCost,
		Discount:  b.DiscountAmount,
		Total:     b.Total,
	})
	s.observe("create", err)
	if err != nil {
		span.RecordError(err)
		s.fail(ctx, order, err)
		return CreateOrderResult{}, ErrProvider
	}
	if err := s.Orders.SetOrderPaymentID(ctx, store.SetOrderPaymentIDParams{ID: order.ID, PaymentID: provOrder.ID}); err != nil {
		return CreateOrderResult{}, fmt.Errorf("attach payment id: %w", err)
	}
	s.Logger.Info().Str("order_id", orderID).Str("payment_id", provOrder.ID).Msg("payment order created")
	return CreateOrderResult{
		ID:          provOrder.ID,
		OrderID:     orderID,
		Status:      StatusCreated,
		ApprovalURL: provOrder.ApprovalURL,
	}, nil
}

// ExecutePayment captures an approved provider order and confirms the
// stored order. Replays for an already paid order return the same result.
func (s *Service) ExecutePayment(ctx context.Context, paymentID, payerID string) (ExecuteResult, error) {
	if s == nil || s.Orders == nil || s.Provider == nil {
		return ExecuteResult{}, errors.New("payment service not configured")
	}
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return ExecuteResult{}, ErrPaymentIDMissing
	}
	ctx, span := otel.Tracer("payment.Service").Start(ctx, "PaymentService.ExecutePayment")
	defer span.End()
	span.SetAttributes(attribute.String("payment.id", paymentID))

	var result ExecuteResult
	run := func(ctx context.Context) error {
		var err error
		result, err = s.capture(ctx, paymentID, strings.TrimSpace(payerID))
		return err
	}
	var err error
	if s.Locks != nil {
		err = s.Locks.TryWithLock(ctx, "payment:"+paymentID, s.LockTTL, run)
	} else {
		err = run(ctx)
	}
	if errors.Is(err, lock.ErrNotAcquired) {
		return ExecuteResult{}, ErrPaymentInFlight
	}
	if err != nil {
		span.RecordError(err)
		return ExecuteResult{}, err
	}
	return result, nil
}

func (s *Service) capture(ctx context.Context, paymentID, payerID string) (ExecuteResult, error) {
	order, err := s.Orders.GetOrderByPaymentID(ctx, paymentID)
	if err != nil {
		if store.IsNotFound(err) {
			return ExecuteResult{}, ErrOrderNotFound
		}
		return ExecuteResult{}, err
	}
	orderID := store.UUIDString(order.ID)
	if order.PaymentStatus == "paid" {
		return ExecuteResult{Status: StatusCompleted, OrderID: orderID, PaymentID: paymentID, CaptureID: order.CaptureID.String}, nil
	}

	capture, err := s.Provider.CaptureOrder(ctx, paymentID)
	if err == nil && capture.Status != StatusCompleted {
		err = fmt.Errorf("%w: status %s", ErrCaptureDeclined, capture.Status)
	}
	s.observe("capture", err)
	if err != nil {
		s.fail(ctx, order, err)
		if errors.Is(err, ErrCaptureDeclined) {
			return ExecuteResult{}, ErrPaymentDeclined
		}
		return ExecuteResult{}, ErrProvider
	}
	if payerID == "" {
		payerID = capture.PayerID
	}
	paid, err := s.Orders.MarkOrderPaid(ctx, store.MarkOrderPaidParams{
		ID:        order.ID,
		PayerID:   store.Text(payerID),
		CaptureID: store.Text(capture.ID),
	})
	if err != nil {
		return ExecuteResult{}, fmt.Errorf("mark order paid: %w", err)
	}
	obs.OrderTransitionsTotal.WithLabelValues(order.Status, paid.Status).Inc()
	s.emit(ctx, events.TopicOrderPaid, orderID, map[string]any{
		"order_id":       orderID,
		"payment_id":     paymentID,
		"capture_id":     capture.ID,
		"customer_email": paid.CustomerEmail,
		"total":          paid.Total.StringFixed(2),
	})
	s.Logger.Info().Str("order_id", orderID).Str("capture_id", capture.ID).Msg("payment captured")
	return ExecuteResult{Status: StatusCompleted, OrderID: orderID, PaymentID: paymentID, CaptureID: capture.ID}, nil
}

func (s *Service) fail(ctx context.Context, order store.Order, cause error) {
	orderID := store.UUIDString(order.ID)
	s.Logger.Error().Err(cause).Str("order_id", orderID).Msg("payment provider call failed")
	if err := s.Orders.MarkOrderPaymentFailed(ctx, order.ID); err != nil {
		s.Logger.Error().Err(err).Str("order_id", orderID).Msg("mark payment failed")
	}
	s.emit(ctx, events.TopicPaymentFailed, orderID, map[string]any{
		"order_id": orderID,
		"reason":   cause.Error(),
	})
}

func (s *Service) emit(ctx context.Context, topic, aggregateID string, payload any) {
	if s.Events == nil {
		return
	}
	if _, err := s.Events.Emit(ctx, topic, aggregateID, payload); err != nil {
		s.Logger.Error().Err(err).Str("topic", topic).Msg("emit event")
	}
}

func (s *Service) observe(operation string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	obs.PaymentOrdersTotal.WithLabelValues(s.Provider.Name(), operation, result).Inc()
}

// lineRef is the pricing reference of the i-th submitted line. A sku names a
// plant; lines without one are priced from their unit_amount alone.
func lineRef(i int, it OrderLine) string {
	if sku := strings.TrimSpace(it.Sku); sku != "" {
		return sku
	}
	return "line:" + strconv.Itoa(i)
}

func cartLines(items []OrderLine) ([]pricing.CartLine, pricing.Catalog) {
	lines := make([]pricing.CartLine, 0, len(items))
	fallback := make(pricing.Catalog, len(items))
	for i, it := range items {
		ref := lineRef(i, it)
		lines = append(lines, pricing.CartLine{ProductRef: ref, Quantity: it.Quantity})
		if _, seen := fallback[ref]; !seen {
			fallback[ref] = pricing.Product{Ref: ref, UnitPrice: it.UnitAmount}
		}
	}
	return lines, fallback
}

func orderItems(items []OrderLine, plants map[string]store.Plant, fallback pricing.Catalog) ([]store.CreateOrderItemParams, []LineItem) {
	rows := make([]store.CreateOrderItemParams, 0, len(items))
	lines := make([]LineItem, 0, len(items))
	for i, it := range items {
		ref := lineRef(i, it)
		name, unit := it.Name, fallback[ref].UnitPrice
		var plantID pgtype.Text
		if p, ok := plants[ref]; ok {
			name, unit, plantID = p.Name, p.Price, store.Text(p.ID)
		}
		rows = append(rows, store.CreateOrderItemParams{
			PlantID:   plantID,
			Name:      name,
			Sku:       it.Sku,
			Quantity:  int32(it.Quantity),
			UnitPrice: unit,
			LineTotal: unit.Mul(decimal.NewFromInt(int64(it.Quantity))),
		})
		lines = append(lines, LineItem{Name: name, Sku: it.Sku, Quantity: it.Quantity, UnitAmount: unit})
	}
	return rows, lines
}
