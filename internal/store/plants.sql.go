package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const plantColumns = `id, name, price, description, care_instructions, sunlight_requirements, category,
       stock_quantity, image_url, weight, average_rating, total_reviews, created_at, updated_at`

func scanPlant(row pgx.Row) (Plant, error) {
	var p Plant
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Price,
		&p.Description,
		&p.CareInstructions,
		&p.SunlightRequirements,
		&p.Category,
		&p.StockQuantity,
		&p.ImageURL,
		&p.Weight,
		&p.AverageRating,
		&p.TotalReviews,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

func collectPlants(rows pgx.Rows) ([]Plant, error) {
	defer rows.Close()
	var items []Plant
	for rows.Next() {
		p, err := scanPlant(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const plantFilter = `
WHERE ($1::text IS NULL OR category = $1)
  AND ($2::text IS NULL OR name ILIKE '%' || $2 || '%' OR description ILIKE '%' || $2 || '%')
  AND ($3::numeric IS NULL OR price >= $3)
  AND ($4::numeric IS NULL OR price <= $4)`

const listPlants = `-- name: ListPlants :many
SELECT ` + plantColumns + `
FROM plants` + plantFilter + `
ORDER BY
  CASE WHEN $5 = 'price_asc' THEN price END ASC,
  CASE WHEN $5 = 'price_desc' THEN price END DESC,
  CASE WHEN $5 = 'rating' THEN average_rating END DESC,
  name ASC
LIMIT $6 OFFSET $7`

type ListPlantsParams struct {
	Category pgtype.Text
	Search   pgtype.Text
	MinPrice decimal.NullDecimal
	MaxPrice decimal.NullDecimal
	SortBy   string
	Limit    int32
	Offset   int32
}

func (q *Queries) ListPlants(ctx context.Context, arg ListPlantsParams) ([]Plant, error) {
	rows, err := q.db.Query(ctx, listPlants,
		arg.Category,
		arg.Search,
		arg.MinPrice,
		arg.MaxPrice,
		arg.SortBy,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	return collectPlants(rows)
}

const countPlants = `-- name: CountPlants :one
SELECT count(*) FROM plants` + plantFilter

type CountPlantsParams struct {
	Category pgtype.Text
	Search   pgtype.Text
	MinPrice decimal.NullDecimal
	MaxPrice decimal.NullDecimal
}

func (q *Queries) CountPlants(ctx context.Context, arg CountPlantsParams) (int64, error) {
	row := q.db.QueryRow(ctx, countPlants, arg.Category, arg.Search, arg.MinPrice, arg.MaxPrice)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const getPlant = `-- name: GetPlant :one
SELECT ` + plantColumns + `
FROM plants
WHERE id = $1`

func (q *Queries) GetPlant(ctx context.Context, id string) (Plant, error) {
	return scanPlant(q.db.QueryRow(ctx, getPlant, id))
}

const listPlantsByIDs = `-- name: ListPlantsByIDs :many
SELECT ` + plantColumns + `
FROM plants
WHERE id = ANY($1::text[])`

func (q *Queries) ListPlantsByIDs(ctx context.Context, ids []string) ([]Plant, error) {
	rows, err := q.db.Query(ctx, listPlantsByIDs, ids)
	if err != nil {
		return nil, err
	}
	return collectPlants(rows)
}

const listCategories = `-- name: ListCategories :many
SELECT DISTINCT category FROM plants ORDER BY category`

func (q *Queries) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := q.db.Query(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, err
		}
		items = append(items, category)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updatePlantRating = `-- name: UpdatePlantRating :exec
UPDATE plants
SET average_rating = $2, total_reviews = $3, updated_at = now()
WHERE id = $1`

type UpdatePlantRatingParams struct {
	ID            string
	AverageRating decimal.Decimal
	TotalReviews  int32
}

func (q *Queries) UpdatePlantRating(ctx context.Context, arg UpdatePlantRatingParams) error {
	_, err := q.db.Exec(ctx, updatePlantRating, arg.ID, arg.AverageRating, arg.TotalReviews)
	return err
}
