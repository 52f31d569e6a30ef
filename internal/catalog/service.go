package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-nursery/internal/common"
	"github.com/noah-isme/backend-nursery/internal/store"
)

// Sort orders accepted by the plant listing.
const (
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortRating    = "rating"
)

// ErrPlantNotFound is returned when a plant id does not exist.
var ErrPlantNotFound = &common.AppError{Code: "plant_not_found", Message: "Plant not found", HTTPStatus: http.StatusNotFound}

type queryProvider interface {
	ListPlants(ctx context.Context, arg store.ListPlantsParams) ([]store.Plant, error)
	CountPlants(ctx context.Context, arg store.CountPlantsParams) (int64, error)
	GetPlant(ctx context.Context, id string) (store.Plant, error)
	ListPlantsByIDs(ctx context.Context, ids []string) ([]store.Plant, error)
	ListCategories(ctx context.Context) ([]string, error)
}

// Service orchestrates catalog queries, DTO assembly, and caching.
type Service struct {
	queries      queryProvider
	cache        *Cache
	defaultLimit int
	maxLimit     int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Queries      queryProvider
	Cache        *Cache
	DefaultLimit int
	MaxLimit     int
}

// ListParams captures filters for plant listing.
type ListParams struct {
	Category string
	Search   string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	SortBy   string
	Page     int
	Limit    int
}

// Plant is the public plant payload.
type Plant struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Price                float64   `json:"price"`
	Description          string    `json:"description"`
	CareInstructions     string    `json:"care_instructions"`
	SunlightRequirements string    `json:"sunlight_requirements"`
	Category             string    `json:"category"`
	StockQuantity        int       `json:"stock_quantity"`
	ImageURL             string    `json:"image_url"`
	Weight               float64   `json:"weight"`
	AverageRating        float64   `json:"average_rating"`
	TotalReviews         int       `json:"total_reviews"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// ListResult contains list data and pagination metadata.
type ListResult struct {
	Items []Plant `json:"items"`
	Total int64   `json:"total"`
	Page  int     `json:"page"`
	Limit int     `json:"limit"`
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Queries == nil {
		return nil, errors.New("catalog: queries provider is required")
	}
	maxLimit := cfg.MaxLimit
	if maxLimit < 1 {
		maxLimit = 100
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit < 1 || defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
	return &Service{
		queries:      cfg.Queries,
		cache:        cfg.Cache,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}, nil
}

// ParseListParams normalises raw query values into typed filters.
func (s *Service) ParseListParams(values url.Values) (ListParams, error) {
	params := ListParams{Page: 1, Limit: s.defaultLimit}
	params.Category = strings.TrimSpace(values.Get("category"))
	params.Search = strings.TrimSpace(values.Get("search"))

	if v := strings.TrimSpace(values.Get("page")); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return params, badRequest("page", "page must be a positive integer", err)
		}
		params.Page = page
	}
	if v := strings.TrimSpace(values.Get("per_page")); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			return params, badRequest("per_page", "per_page must be a positive integer", err)
		}
		params.Limit = min(limit, s.maxLimit)
	}

	var err error
	if params.MinPrice, err = parsePrice(values, "min_price"); err != nil {
		return params, err
	}
	if params.MaxPrice, err = parsePrice(values, "max_price"); err != nil {
		return params, err
	}
	if params.MinPrice != nil && params.MaxPrice != nil && params.MinPrice.GreaterThan(*params.MaxPrice) {
		return params, badRequest("min_price", "min_price cannot be greater than max_price", nil)
	}

	sortBy := strings.ToLower(strings.TrimSpace(values.Get("sort_by")))
	switch sortBy {
	case "", SortPriceAsc, SortPriceDesc, SortRating:
		params.SortBy = sortBy
	default:
		return params, badRequest("sort_by", "sort_by must be one of price_asc, price_desc, rating", nil)
	}
	return params, nil
}

// ListPlants returns the filtered plant list with pagination metadata.
func (s *Service) ListPlants(ctx context.Context, params ListParams) (ListResult, error) {
	key := s.listCacheKey(ctx, params)
	var cached ListResult
	if ok, err := s.cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}

	filter := store.CountPlantsParams{
		Category: store.Text(params.Category),
		Search:   store.Text(params.Search),
		MinPrice: nullDecimal(params.MinPrice),
		MaxPrice: nullDecimal(params.MaxPrice),
	}
	total, err := s.queries.CountPlants(ctx, filter)
	if err != nil {
		return ListResult{}, fmt.Errorf("count plants: %w", err)
	}
	rows, err := s.queries.ListPlants(ctx, store.ListPlantsParams{
		Category: filter.Category,
		Search:   filter.Search,
		MinPrice: filter.MinPrice,
		MaxPrice: filter.MaxPrice,
		SortBy:   params.SortBy,
		Limit:    int32(params.Limit),
		Offset:   int32(common.Offset(params.Page, params.Limit)),
	})
	if err != nil {
		return ListResult{}, fmt.Errorf("list plants: %w", err)
	}
	result := ListResult{Items: toPlants(rows), Total: total, Page: params.Page, Limit: params.Limit}
	_ = s.cache.SetJSON(ctx, key, result)
	return result, nil
}

// GetPlant returns one plant by id.
func (s *Service) GetPlant(ctx context.Context, id string) (Plant, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Plant{}, badRequest("id", "plant id is required", nil)
	}
	key := detailCacheKey(id)
	var cached Plant
	if ok, err := s.cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}
	row, err := s.queries.GetPlant(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Plant{}, ErrPlantNotFound
		}
		return Plant{}, fmt.Errorf("get plant: %w", err)
	}
	plant := ToPlant(row)
	_ = s.cache.SetJSON(ctx, key, plant)
	return plant, nil
}

// PlantsByID loads the given plants keyed by id. Unknown ids are absent from the result.
func (s *Service) PlantsByID(ctx context.Context, ids []string) (map[string]store.Plant, error) {
	out := make(map[string]store.Plant, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.queries.ListPlantsByIDs(ctx, dedupe(ids))
	if err != nil {
		return nil, fmt.Errorf("list plants by id: %w", err)
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

// ListCategories returns the distinct plant categories.
func (s *Service) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := s.queries.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if rows == nil {
		rows = []string{}
	}
	return rows, nil
}

// Invalidate drops cached data for a plant after its record changed.
func (s *Service) Invalidate(ctx context.Context, plantID string) error {
	return s.cache.Evict(ctx, detailCacheKey(plantID))
}

// ToPlant converts a stored plant into its public payload.
func ToPlant(row store.Plant) Plant {
	return Plant{
		ID:                   row.ID,
		Name:                 row.Name,
		Price:                row.Price.InexactFloat64(),
		Description:          row.Description,
		CareInstructions:     row.CareInstructions,
		SunlightRequirements: row.SunlightRequirements,
		Category:             row.Category,
		StockQuantity:        int(row.StockQuantity),
		ImageURL:             row.ImageURL,
		Weight:               row.Weight.InexactFloat64(),
		AverageRating:        row.AverageRating.InexactFloat64(),
		TotalReviews:         int(row.TotalReviews),
		UpdatedAt:            row.UpdatedAt,
	}
}

func toPlants(rows []store.Plant) []Plant {
	items := make([]Plant, 0, len(rows))
	for _, row := range rows {
		items = append(items, ToPlant(row))
	}
	return items
}

func (s *Service) listCacheKey(ctx context.Context, p ListParams) string {
	if s.cache == nil {
		return ""
	}
	raw := fmt.Sprintf("%s|%s|%s|%s|%s|%d|%d",
		strings.ToLower(p.Category), strings.ToLower(p.Search), decimalKey(p.MinPrice), decimalKey(p.MaxPrice), p.SortBy, p.Page, p.Limit)
	sum := sha256.Sum256([]byte(raw))
	return "catalog:list:" + s.cache.ListVersion(ctx) + ":" + hex.EncodeToString(sum[:12])
}

func detailCacheKey(id string) string {
	return "catalog:plant:" + id
}

func decimalKey(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func parsePrice(values url.Values, field string) (*decimal.Decimal, error) {
	v := strings.TrimSpace(values.Get(field))
	if v == "" {
		return nil, nil
	}
	parsed, err := decimal.NewFromString(v)
	if err != nil || parsed.IsNegative() {
		return nil, badRequest(field, field+" must be a non-negative number", err)
	}
	return &parsed, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func badRequest(field, message string, err error) *common.AppError {
	return &common.AppError{
		Code:       "bad_request",
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
		Details: map[string]any{
			"field": field,
		},
	}
}
