package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-nursery/internal/common"
	"github.com/noah-isme/backend-nursery/internal/obs"
	"github.com/noah-isme/backend-nursery/internal/store"
)

type fakeOrders struct {
	order store.Order
	items []store.OrderItem
}

func (f *fakeOrders) GetOrder(_ context.Context, id pgtype.UUID) (store.Order, error) {
	if id != f.order.ID {
		return store.Order{}, pgx.ErrNoRows
	}
	return f.order, nil
}

func (f *fakeOrders) ListOrderItems(context.Context, pgtype.UUID) ([]store.OrderItem, error) {
	return f.items, nil
}

type fakeRatings struct {
	plants []string
	err    error
}

func (f *fakeRatings) RefreshRating(_ context.Context, plantID string) error {
	f.plants = append(f.plants, plantID)
	return f.err
}

func newHandlers() (*Handlers, *common.InMemoryEmail, *fakeRatings, string) {
	id := uuid.New()
	orders := &fakeOrders{
		order: store.Order{
			ID:             pgtype.UUID{Bytes: id, Valid: true},
			CustomerEmail:  "fern@example.com",
			Subtotal:       decimal.RequireFromString("59.98"),
			TaxAmount:      decimal.RequireFromString("4.80"),
			DiscountAmount: decimal.RequireFromString("12.00"),
			Total:          decimal.RequireFromString("52.78"),
			ShippingCity:   "Portland",
		},
		items: []store.OrderItem{{Name: "Monstera <Deliciosa>", Quantity: 2, LineTotal: decimal.RequireFromString("59.98")}},
	}
	mail := &common.InMemoryEmail{}
	ratings := &fakeRatings{}
	return &Handlers{Orders: orders, Ratings: ratings, Mailer: mail, Logger: zerolog.Nop()}, mail, ratings, id.String()
}

func TestOrderConfirmationSendsEmail(t *testing.T) {
	h, mail, _, orderID := newHandlers()
	task, err := NewOrderConfirmation(orderID)
	require.NoError(t, err)

	before := testutil.ToFloat64(obs.TasksProcessedTotal.WithLabelValues(TypeOrderConfirmation, "ok"))
	require.NoError(t, h.observe(TypeOrderConfirmation, h.handleOrderConfirmation)(context.Background(), task))
	require.Equal(t, before+1, testutil.ToFloat64(obs.TasksProcessedTotal.WithLabelValues(TypeOrderConfirmation, "ok")))

	sent := mail.Sent()
	require.Len(t, sent, 1)
	require.Equal(t, "fern@example.com", sent[0].To)
	require.Contains(t, sent[0].Subject, orderID[:8])
	require.Contains(t, sent[0].HTML, "Total: $52.78")
	require.Contains(t, sent[0].HTML, "Monstera &lt;Deliciosa&gt;")
}

func TestOrderConfirmationUnknownOrderSkipsRetry(t *testing.T) {
	h, mail, _, _ := newHandlers()
	task, err := NewOrderConfirmation(uuid.NewString())
	require.NoError(t, err)

	err = h.handleOrderConfirmation(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
	require.Empty(t, mail.Sent())
}

func TestRatingRefresh(t *testing.T) {
	h, _, ratings, _ := newHandlers()
	task, err := NewRatingRefresh("plant_001")
	require.NoError(t, err)
	require.NoError(t, h.handleRatingRefresh(context.Background(), task))
	require.Equal(t, []string{"plant_001"}, ratings.plants)

	ratings.err = errors.New("db down")
	require.Error(t, h.handleRatingRefresh(context.Background(), task))

	bad := asynq.NewTask(TypeRatingRefresh, []byte(`{}`))
	require.ErrorIs(t, h.handleRatingRefresh(context.Background(), bad), asynq.SkipRetry)
}

func TestNewOrderConfirmationPayload(t *testing.T) {
	task, err := NewOrderConfirmation("abc")
	require.NoError(t, err)
	require.Equal(t, TypeOrderConfirmation, task.Type())
	var p OrderConfirmationPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &p))
	require.Equal(t, "abc", p.OrderID)
}
