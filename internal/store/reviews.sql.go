package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const reviewColumns = `id, plant_id, user_id, user_name, rating, comment, helpful_count, created_at`

func scanReview(row pgx.Row) (Review, error) {
	var r Review
	err := row.Scan(&r.ID, &r.PlantID, &r.UserID, &r.UserName, &r.Rating, &r.Comment, &r.HelpfulCount, &r.CreatedAt)
	return r, err
}

const createReview = `-- name: CreateReview :one
INSERT INTO reviews (plant_id, user_id, user_name, rating, comment)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + reviewColumns

type CreateReviewParams struct {
	PlantID  string
	UserID   pgtype.UUID
	UserName string
	Rating   int32
	Comment  string
}

func (q *Queries) CreateReview(ctx context.Context, arg CreateReviewParams) (Review, error) {
	return scanReview(q.db.QueryRow(ctx, createReview, arg.PlantID, arg.UserID, arg.UserName, arg.Rating, arg.Comment))
}

const listReviewsByPlant = `-- name: ListReviewsByPlant :many
SELECT ` + reviewColumns + `
FROM reviews
WHERE plant_id = $1
ORDER BY created_at DESC`

func (q *Queries) ListReviewsByPlant(ctx context.Context, plantID string) ([]Review, error) {
	rows, err := q.db.Query(ctx, listReviewsByPlant, plantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const incrementReviewHelpful = `-- name: IncrementReviewHelpful :one
UPDATE reviews SET helpful_count = helpful_count + 1
WHERE id = $1
RETURNING ` + reviewColumns

func (q *Queries) IncrementReviewHelpful(ctx context.Context, id pgtype.UUID) (Review, error) {
	return scanReview(q.db.QueryRow(ctx, incrementReviewHelpful, id))
}
