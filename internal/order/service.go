package order

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-nursery/internal/auth"
	"github.com/noah-isme/backend-nursery/internal/common"
	"github.com/noah-isme/backend-nursery/internal/events"
	"github.com/noah-isme/backend-nursery/internal/obs"
	"github.com/noah-isme/backend-nursery/internal/store"
)

var (
	ErrNotFound          = common.NewAppError("order_not_found", "Order not found", http.StatusNotFound, nil)
	ErrInvalidStatus     = common.NewAppError("invalid_status", "Unknown order status", http.StatusBadRequest, nil)
	ErrInvalidTransition = common.NewAppError("invalid_transition", "Order cannot move to the requested status", http.StatusConflict, nil)
	errUnauthenticated   = common.NewAppError("unauthorized", "authentication required", http.StatusUnauthorized, nil)
)

// Querier is the store subset used by the order service.
type Querier interface {
	GetOrder(ctx context.Context, id pgtype.UUID) (store.Order, error)
	ListOrderItems(ctx context.Context, orderID pgtype.UUID) ([]store.OrderItem, error)
	ListOrderItemsByOrderIDs(ctx context.Context, orderIDs []pgtype.UUID) ([]store.OrderItem, error)
	ListOrdersForCustomer(ctx context.Context, arg store.ListOrdersForCustomerParams) ([]store.Order, error)
	CountOrdersForCustomer(ctx context.Context, arg store.CountOrdersForCustomerParams) (int64, error)
	UpdateOrderStatus(ctx context.Context, arg store.UpdateOrderStatusParams) (store.Order, error)
}

// Emitter publishes domain events.
type Emitter interface {
	Emit(ctx context.Context, topic, aggregateID string, payload any) (store.DomainEvent, error)
}

// Item is one line of an order response.
type Item struct {
	PlantID    *string `json:"plant_id"`
	Name       string  `json:"name"`
	Sku        string  `json:"sku"`
	Quantity   int32   `json:"quantity"`
	UnitAmount float64 `json:"unit_amount"`
	LineTotal  float64 `json:"line_total"`
}

// ShippingInfo is the delivery address stored on an order.
type ShippingInfo struct {
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
	Country string `json:"country"`
}

// Order is the JSON view of a stored order.
type Order struct {
	OrderID        string       `json:"order_id"`
	Status         string       `json:"status"`
	OrderStatus    string       `json:"order_status"`
	PaymentStatus  string       `json:"payment_status"`
	PaymentID      *string      `json:"payment_id"`
	CustomerEmail  string       `json:"customer_email"`
	Currency       string       `json:"currency"`
	Subtotal       float64      `json:"subtotal"`
	TaxAmount      float64      `json:"tax_amount"`
	ShippingCost   float64      `json:"shipping_cost"`
	DiscountAmount float64      `json:"discount_amount"`
	TotalAmount    float64      `json:"total_amount"`
	DiscountCode   *string      `json:"discount_code"`
	ShippingInfo   ShippingInfo `json:"shipping_info"`
	Notes          *string      `json:"notes"`
	Items          []Item       `json:"items"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// ListResult is a page of orders.
type ListResult struct {
	Items []Order
	Total int64
}

// Service reads customer orders and applies status changes.
type Service struct {
	Q      Querier
	Events Emitter
	Logger zerolog.Logger
}

// List returns the caller's orders newest first. Orders placed as a guest
// with the caller's email are included.
func (s *Service) List(ctx context.Context, page, perPage int) (ListResult, error) {
	p, ok := common.CurrentPrincipal(ctx)
	if !ok {
		return ListResult{}, errUnauthenticated
	}
	uid, _ := store.ParseUUID(p.UserID)
	total, err := s.Q.CountOrdersForCustomer(ctx, store.CountOrdersForCustomerParams{UserID: uid, Email: p.Email})
	if err != nil {
		return ListResult{}, err
	}
	rows, err := s.Q.ListOrdersForCustomer(ctx, store.ListOrdersForCustomerParams{
		UserID: uid,
		Email:  p.Email,
		Limit:  int32(perPage),
		Offset: int32(common.Offset(page, perPage)),
	})
	if err != nil {
		return ListResult{}, err
	}
	ids := make([]pgtype.UUID, 0, len(rows))
	for _, o := range rows {
		ids = append(ids, o.ID)
	}
	byOrder := map[pgtype.UUID][]store.OrderItem{}
	if len(ids) > 0 {
		items, err := s.Q.ListOrderItemsByOrderIDs(ctx, ids)
		if err != nil {
			return ListResult{}, err
		}
		for _, it := range items {
			byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
		}
	}
	out := make([]Order, 0, len(rows))
	for _, o := range rows {
		out = append(out, ToOrder(o, byOrder[o.ID]))
	}
	return ListResult{Items: out, Total: total}, nil
}

// Get returns one of the caller's orders. Admins may read any order.
func (s *Service) Get(ctx context.Context, id string) (Order, error) {
	o, err := s.load(ctx, id)
	if err != nil {
		return Order{}, err
	}
	items, err := s.Q.ListOrderItems(ctx, o.ID)
	if err != nil {
		return Order{}, err
	}
	return ToOrder(o, items), nil
}

// StatusUpdate is the body of a status change request.
type StatusUpdate struct {
	Status string  `json:"status" validate:"required"`
	Notes  *string `json:"notes" validate:"omitnil,max=500"`
}

// UpdateStatus applies a status change on behalf of the caller.
func (s *Service) UpdateStatus(ctx context.Context, id string, in StatusUpdate) (Order, error) {
	target := strings.ToLower(strings.TrimSpace(in.Status))
	if target == "canceled" {
		target = StatusCancelled
	}
	if !KnownStatus(target) {
		return Order{}, ErrInvalidStatus.WithDetails(map[string]string{"field": "status"})
	}
	o, err := s.load(ctx, id)
	if err != nil {
		return Order{}, err
	}
	p, _ := common.CurrentPrincipal(ctx)
	if !CanTransition(o.Status, target, p.Role == auth.RoleAdmin) {
		return Order{}, ErrInvalidTransition.WithDetails(map[string]string{"from": o.Status, "to": target})
	}
	updated, err := s.Q.UpdateOrderStatus(ctx, store.UpdateOrderStatusParams{
		ID:         o.ID,
		Status:     target,
		Notes:      store.TextPtr(in.Notes),
		FromStatus: o.Status,
	})
	if err != nil {
		if store.IsNotFound(err) {
			// lost a race with a concurrent update
			return Order{}, ErrInvalidTransition
		}
		return Order{}, err
	}
	obs.OrderTransitionsTotal.WithLabelValues(o.Status, target).Inc()

	orderID := store.UUIDString(updated.ID)
	topic := events.TopicOrderStatusChanged
	if target == StatusCancelled {
		topic = events.TopicOrderCanceled
	}
	if s.Events != nil {
		if _, err := s.Events.Emit(ctx, topic, orderID, map[string]any{
			"order_id": orderID,
			"from":     o.Status,
			"to":       target,
			"by":       p.UserID,
		}); err != nil {
			s.Logger.Error().Err(err).Str("order_id", orderID).Msg("emit status event")
		}
	}
	items, err := s.Q.ListOrderItems(ctx, updated.ID)
	if err != nil {
		return Order{}, err
	}
	return ToOrder(updated, items), nil
}

func (s *Service) load(ctx context.Context, id string) (store.Order, error) {
	p, ok := common.CurrentPrincipal(ctx)
	if !ok {
		return store.Order{}, errUnauthenticated
	}
	oid, err := store.ParseUUID(id)
	if err != nil {
		return store.Order{}, ErrNotFound
	}
	o, err := s.Q.GetOrder(ctx, oid)
	if err != nil {
		if store.IsNotFound(err) {
			return store.Order{}, ErrNotFound
		}
		return store.Order{}, err
	}
	if p.Role != auth.RoleAdmin && !owns(p, o) {
		return store.Order{}, ErrNotFound
	}
	return o, nil
}

func owns(p common.Principal, o store.Order) bool {
	if o.UserID.Valid && store.UUIDString(o.UserID) == p.UserID {
		return true
	}
	return p.Email != "" && strings.EqualFold(p.Email, o.CustomerEmail)
}

// ToOrder renders a stored order and its items.
func ToOrder(o store.Order, items []store.OrderItem) Order {
	out := Order{
		OrderID:        store.UUIDString(o.ID),
		Status:         o.Status,
		OrderStatus:    o.Status,
		PaymentStatus:  o.PaymentStatus,
		PaymentID:      textPtr(o.PaymentID),
		CustomerEmail:  o.CustomerEmail,
		Currency:       o.Currency,
		Subtotal:       o.Subtotal.InexactFloat64(),
		TaxAmount:      o.TaxAmount.InexactFloat64(),
		ShippingCost:   o.ShippingCost.InexactFloat64(),
		DiscountAmount: o.DiscountAmount.InexactFloat64(),
		TotalAmount:    o.Total.InexactFloat64(),
		DiscountCode:   textPtr(o.DiscountCode),
		ShippingInfo: ShippingInfo{
			Address: o.ShippingAddress,
			City:    o.ShippingCity,
			State:   o.ShippingState,
			ZipCode: o.ShippingZip,
			Country: o.ShippingCountry,
		},
		Notes:     textPtr(o.Notes),
		Items:     make([]Item, 0, len(items)),
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
	for _, it := range items {
		out.Items = append(out.Items, Item{
			PlantID:    textPtr(it.PlantID),
			Name:       it.Name,
			Sku:        it.Sku,
			Quantity:   it.Quantity,
			UnitAmount: it.UnitPrice.InexactFloat64(),
			LineTotal:  it.LineTotal.InexactFloat64(),
		})
	}
	return out
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}
