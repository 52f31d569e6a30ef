package store

import (
	"context"
)

const getDiscountCode = `-- name: GetDiscountCode :one
SELECT code, kind, value, active, expires_at, created_at
FROM discount_codes
WHERE code = $1`

func (q *Queries) GetDiscountCode(ctx context.Context, code string) (DiscountCode, error) {
	row := q.db.QueryRow(ctx, getDiscountCode, code)
	var d DiscountCode
	err := row.Scan(&d.Code, &d.Kind, &d.Value, &d.Active, &d.ExpiresAt, &d.CreatedAt)
	return d, err
}
