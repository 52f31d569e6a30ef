package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const addWishlistItem = `-- name: AddWishlistItem :exec
INSERT INTO wishlist_items (user_id, plant_id) VALUES ($1, $2)`

type AddWishlistItemParams struct {
	UserID  pgtype.UUID
	PlantID string
}

func (q *Queries) AddWishlistItem(ctx context.Context, arg AddWishlistItemParams) error {
	_, err := q.db.Exec(ctx, addWishlistItem, arg.UserID, arg.PlantID)
	return err
}

const removeWishlistItem = `-- name: RemoveWishlistItem :execrows
DELETE FROM wishlist_items WHERE user_id = $1 AND plant_id = $2`

type RemoveWishlistItemParams struct {
	UserID  pgtype.UUID
	PlantID string
}

func (q *Queries) RemoveWishlistItem(ctx context.Context, arg RemoveWishlistItemParams) (int64, error) {
	tag, err := q.db.Exec(ctx, removeWishlistItem, arg.UserID, arg.PlantID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const listWishlistPlants = `-- name: ListWishlistPlants :many
SELECT p.id, p.name, p.price, p.description, p.care_instructions, p.sunlight_requirements, p.category,
       p.stock_quantity, p.image_url, p.weight, p.average_rating, p.total_reviews, p.created_at, p.updated_at
FROM wishlist_items w
JOIN plants p ON p.id = w.plant_id
WHERE w.user_id = $1
ORDER BY w.created_at DESC`

func (q *Queries) ListWishlistPlants(ctx context.Context, userID pgtype.UUID) ([]Plant, error) {
	rows, err := q.db.Query(ctx, listWishlistPlants, userID)
	if err != nil {
		return nil, err
	}
	return collectPlants(rows)
}
