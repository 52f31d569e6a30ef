package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const orderColumns = `id, user_id, customer_email, status, payment_status, payment_provider, payment_id,
       payer_id, capture_id, currency, subtotal, tax_amount, shipping_cost, discount_amount, total,
       discount_code, shipping_address, shipping_city, shipping_state, shipping_zip, shipping_country,
       notes, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.CustomerEmail,
		&o.Status,
		&o.PaymentStatus,
		&o.PaymentProvider,
		&o.PaymentID,
		&o.PayerID,
		&o.CaptureID,
		&o.Currency,
		&o.Subtotal,
		&o.TaxAmount,
		&o.ShippingCost,
		&o.DiscountAmount,
		&o.Total,
		&o.DiscountCode,
		&o.ShippingAddress,
		&o.ShippingCity,
		&o.ShippingState,
		&o.ShippingZip,
		&o.ShippingCountry,
		&o.Notes,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	return o, err
}

const createOrder = `-- name: CreateOrder :one
INSERT INTO orders (
    user_id, customer_email, payment_provider, currency, subtotal, tax_amount, shipping_cost,
    discount_amount, total, discount_code, shipping_address, shipping_city, shipping_state,
    shipping_zip, shipping_country
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
RETURNING ` + orderColumns

type CreateOrderParams struct {
	UserID          pgtype.UUID
	CustomerEmail   string
	PaymentProvider string
	Currency        string
	Subtotal        decimal.Decimal
	TaxAmount       decimal.Decimal
	ShippingCost    decimal.Decimal
	DiscountAmount  decimal.Decimal
	Total           decimal.Decimal
	DiscountCode    pgtype.Text
	ShippingAddress string
	ShippingCity    string
	ShippingState   string
	ShippingZip     string
	ShippingCountry string
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.UserID,
		arg.CustomerEmail,
		arg.PaymentProvider,
		arg.Currency,
		arg.Subtotal,
		arg.TaxAmount,
		arg.ShippingCost,
		arg.DiscountAmount,
		arg.Total,
		arg.DiscountCode,
		arg.ShippingAddress,
		arg.ShippingCity,
		arg.ShippingState,
		arg.ShippingZip,
		arg.ShippingCountry,
	)
	return scanOrder(row)
}

const createOrderItem = `-- name: CreateOrderItem :one
INSERT INTO order_items (order_id, plant_id, name, sku, quantity, unit_price, line_total)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, order_id, plant_id, name, sku, quantity, unit_price, line_total`

type CreateOrderItemParams struct {
	OrderID   pgtype.UUID
	PlantID   pgtype.Text
	Name      string
	Sku       string
	Quantity  int32
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, createOrderItem,
		arg.OrderID,
		arg.PlantID,
		arg.Name,
		arg.Sku,
		arg.Quantity,
		arg.UnitPrice,
		arg.LineTotal,
	)
	var i OrderItem
	err := row.Scan(&i.ID, &i.OrderID, &i.PlantID, &i.Name, &i.Sku, &i.Quantity, &i.UnitPrice, &i.LineTotal)
	return i, err
}

const getOrder = `-- name: GetOrder :one
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1`

func (q *Queries) GetOrder(ctx context.Context, id pgtype.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, id))
}

const getOrderByPaymentID = `-- name: GetOrderByPaymentID :one
SELECT ` + orderColumns + `
FROM orders
WHERE payment_id = $1`

func (q *Queries) GetOrderByPaymentID(ctx context.Context, paymentID string) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderByPaymentID, paymentID))
}

const customerFilter = `
WHERE ($1::uuid IS NOT NULL AND user_id = $1) OR lower(customer_email) = lower($2::text)`

const listOrdersForCustomer = `-- name: ListOrdersForCustomer :many
SELECT ` + orderColumns + `
FROM orders` + customerFilter + `
ORDER BY created_at DESC
LIMIT $3 OFFSET $4`

type ListOrdersForCustomerParams struct {
	UserID pgtype.UUID
	Email  string
	Limit  int32
	Offset int32
}

func (q *Queries) ListOrdersForCustomer(ctx context.Context, arg ListOrdersForCustomerParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrdersForCustomer, arg.UserID, arg.Email, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countOrdersForCustomer = `-- name: CountOrdersForCustomer :one
SELECT count(*) FROM orders` + customerFilter

type CountOrdersForCustomerParams struct {
	UserID pgtype.UUID
	Email  string
}

func (q *Queries) CountOrdersForCustomer(ctx context.Context, arg CountOrdersForCustomerParams) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countOrdersForCustomer, arg.UserID, arg.Email).Scan(&count)
	return count, err
}

const listOrderItems = `-- name: ListOrderItems :many
SELECT id, order_id, plant_id, name, sku, quantity, unit_price, line_total
FROM order_items
WHERE order_id = $1
ORDER BY name`

func (q *Queries) ListOrderItems(ctx context.Context, orderID pgtype.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItems, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderItem
	for rows.Next() {
		var i OrderItem
		if err := rows.Scan(&i.ID, &i.OrderID, &i.PlantID, &i.Name, &i.Sku, &i.Quantity, &i.UnitPrice, &i.LineTotal); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listOrderItemsByOrderIDs = `-- name: ListOrderItemsByOrderIDs :many
SELECT id, order_id, plant_id, name, sku, quantity, unit_price, line_total
FROM order_items
WHERE order_id = ANY($1::uuid[])
ORDER BY order_id, name`

func (q *Queries) ListOrderItemsByOrderIDs(ctx context.Context, orderIDs []pgtype.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrderIDs, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderItem
	for rows.Next() {
		var i OrderItem
		if err := rows.Scan(&i.ID, &i.OrderID, &i.PlantID, &i.Name, &i.Sku, &i.Quantity, &i.UnitPrice, &i.LineTotal); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const setOrderPaymentID = `-- name: SetOrderPaymentID :exec
UPDATE orders SET payment_id = $2, updated_at = now() WHERE id = $1`

type SetOrderPaymentIDParams struct {
	ID        pgtype.UUID
	PaymentID string
}

func (q *Queries) SetOrderPaymentID(ctx context.Context, arg SetOrderPaymentIDParams) error {
	_, err := q.db.Exec(ctx, setOrderPaymentID, arg.ID, arg.PaymentID)
	return err
}

const updateOrderStatus = `-- name: UpdateOrderStatus :one
UPDATE orders
SET status = $2, notes = COALESCE($3, notes), updated_at = now()
WHERE id = $1 AND status = $4
RETURNING ` + orderColumns

// UpdateOrderStatusParams moves an order from FromStatus to Status. No row is
// returned when the order no longer has FromStatus.
type UpdateOrderStatusParams struct {
	ID         pgtype.UUID
	Status     string
	Notes      pgtype.Text
	FromStatus string
}

func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderStatus, arg.ID, arg.Status, arg.Notes, arg.FromStatus))
}

const markOrderPaid = `-- name: MarkOrderPaid :one
UPDATE orders
SET status = 'confirmed', payment_status = 'paid', payer_id = $2, capture_id = $3, updated_at = now()
WHERE id = $1
RETURNING ` + orderColumns

type MarkOrderPaidParams struct {
	ID        pgtype.UUID
	PayerID   pgtype.Text
	CaptureID pgtype.Text
}

func (q *Queries) MarkOrderPaid(ctx context.Context, arg MarkOrderPaidParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, markOrderPaid, arg.ID, arg.PayerID, arg.CaptureID))
}

const markOrderPaymentFailed = `-- name: MarkOrderPaymentFailed :exec
UPDATE orders SET payment_status = 'failed', updated_at = now() WHERE id = $1`

func (q *Queries) MarkOrderPaymentFailed(ctx context.Context, id pgtype.UUID) error {
	_, err := q.db.Exec(ctx, markOrderPaymentFailed, id)
	return err
}
