package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store couples Queries with the pool so multi-statement writes can run in
// one transaction.
type Store struct {
	*Queries
	pool *pgxpool.Pool
}

// NewStore returns a Store backed by pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{Queries: New(pool), pool: pool}
}

// Pool exposes the underlying connection pool.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// ExecTx runs fn inside a transaction, committing only when fn returns nil.
func (s *Store) ExecTx(ctx context.Context, fn func(*Queries) error) error {
	if s == nil || s.pool == nil {
		return errors.New("store: pool not configured")
	}
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(s.WithTx(tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// CreateOrderWithItems inserts an order and its lines atomically.
func (s *Store) CreateOrderWithItems(ctx context.Context, arg CreateOrderParams, items []CreateOrderItemParams) (Order, []OrderItem, error) {
	var (
		order Order
		rows  []OrderItem
	)
	err := s.ExecTx(ctx, func(q *Queries) error {
		var err error
		order, err = q.CreateOrder(ctx, arg)
		if err != nil {
			return err
		}
		rows = make([]OrderItem, 0, len(items))
		for _, it := range items {
			it.OrderID = order.ID
			row, err := q.CreateOrderItem(ctx, it)
			if err != nil {
				return err
			}
			rows = append(rows, row)
		}
		return nil
	})
	if err != nil {
		return Order{}, nil, err
	}
	return order, rows, nil
}
