package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-nursery/internal/common"
	"github.com/noah-isme/backend-nursery/internal/obs"
	"github.com/noah-isme/backend-nursery/internal/store"
)

// OrderReader loads the order rows needed for a confirmation email.
type OrderReader interface {
	GetOrder(ctx context.Context, id pgtype.UUID) (store.Order, error)
	ListOrderItems(ctx context.Context, orderID pgtype.UUID) ([]store.OrderItem, error)
}

// RatingRefresher recomputes and stores the rating summary of a plant.
type RatingRefresher interface {
	RefreshRating(ctx context.Context, plantID string) error
}

// Handlers processes the task types defined in this package.
type Handlers struct {
	Orders  OrderReader
	Ratings RatingRefresher
	Mailer  common.EmailSender
	Logger  zerolog.Logger
}

// Register attaches every handler to mux.
func (h *Handlers) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeOrderConfirmation, h.observe(TypeOrderConfirmation, h.handleOrderConfirmation))
	mux.HandleFunc(TypeRatingRefresh, h.observe(TypeRatingRefresh, h.handleRatingRefresh))
}

func (h *Handlers) observe(taskType string, fn asynq.HandlerFunc) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		err := fn(ctx, t)
		result := "ok"
		if err != nil {
			result = "error"
			h.Logger.Error().Err(err).Str("task_type", taskType).Msg("task failed")
		}
		obs.TasksProcessedTotal.WithLabelValues(taskType, result).Inc()
		return err
	}
}

func (h *Handlers) handleOrderConfirmation(ctx context.Context, t *asynq.Task) error {
	var p OrderConfirmationPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	id, err := store.ParseUUID(p.OrderID)
	if err != nil {
		return fmt.Errorf("order id %q: %v: %w", p.OrderID, err, asynq.SkipRetry)
	}
	order, err := h.Orders.GetOrder(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return fmt.Errorf("order %s not found: %w", p.OrderID, asynq.SkipRetry)
		}
		return err
	}
	items, err := h.Orders.ListOrderItems(ctx, id)
	if err != nil {
		return err
	}
	body, err := renderConfirmation(order, items)
	if err != nil {
		return fmt.Errorf("render confirmation: %v: %w", err, asynq.SkipRetry)
	}
	subject := "Your plant order " + shortID(p.OrderID) + " is confirmed"
	if err := h.Mailer.Send(order.CustomerEmail, subject, body); err != nil {
		return fmt.Errorf("send confirmation: %w", err)
	}
	h.Logger.Info().Str("order_id", p.OrderID).Msg("order confirmation sent")
	return nil
}

func (h *Handlers) handleRatingRefresh(ctx context.Context, t *asynq.Task) error {
	var p RatingRefreshPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil || p.PlantID == "" {
		return fmt.Errorf("decode payload: %w", asynq.SkipRetry)
	}
	return h.Ratings.RefreshRating(ctx, p.PlantID)
}

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<h1>Thank you for your order!</h1>
<p>Order {{.ID}} has been paid and is being prepared.</p>
<table>
{{range .Items}}<tr><td>{{.Name}}</td><td>x{{.Quantity}}</td><td>${{.LineTotal}}</td></tr>
{{end}}</table>
<p>Subtotal: ${{.Subtotal}}<br>Tax: ${{.Tax}}<br>Shipping: ${{.Shipping}}<br>Discount: -${{.Discount}}<br><strong>Total: ${{.Total}}</strong></p>
<p>Shipping to {{.Address}}</p>`))

type confirmationItem struct {
	Name      string
	Quantity  int32
	LineTotal string
}

func renderConfirmation(o store.Order, items []store.OrderItem) (string, error) {
	view := struct {
		ID                                     string
		Items                                  []confirmationItem
		Subtotal, Tax, Shipping, Discount, Total string
		Address                                string
	}{
		ID:       store.UUIDString(o.ID),
		Subtotal: o.Subtotal.StringFixed(2),
		Tax:      o.TaxAmount.StringFixed(2),
		Shipping: o.ShippingCost.StringFixed(2),
		Discount: o.DiscountAmount.StringFixed(2),
		Total:    o.Total.StringFixed(2),
		Address:  strings.Join([]string{o.ShippingAddress, o.ShippingCity, o.ShippingState, o.ShippingZip, o.ShippingCountry}, ", "),
	}
	for _, it := range items {
		view.Items = append(view.Items, confirmationItem{Name: it.Name, Quantity: it.Quantity, LineTotal: it.LineTotal.StringFixed(2)})
	}
	var b strings.Builder
	if err := confirmationTmpl.Execute(&b, view); err != nil {
		return "", err
	}
	return b.String(), nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
