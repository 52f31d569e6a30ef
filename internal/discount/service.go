package discount

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/backend-nursery/internal/common"
	"github.com/noah-isme/backend-nursery/internal/obs"
	"github.com/noah-isme/backend-nursery/internal/pricing"
	"github.com/noah-isme/backend-nursery/internal/store"
)

var (
	// ErrNotFound is returned when a code does not exist or is switched off.
	ErrNotFound = &common.AppError{Code: "discount_not_found", Message: "Invalid discount code", HTTPStatus: http.StatusNotFound}
	// ErrExpired is returned when a code is past its expiry instant.
	ErrExpired = &common.AppError{Code: "discount_expired", Message: "Discount code has expired", HTTPStatus: http.StatusBadRequest}
)

// Querier captures the database methods required by the discount service.
type Querier interface {
	GetDiscountCode(ctx context.Context, code string) (store.DiscountCode, error)
}

// Service resolves discount codes into pricing rules.
type Service struct {
	Q   Querier
	Now func() time.Time
}

// Validation is the public outcome of a successful code check.
type Validation struct {
	Valid       bool    `json:"valid"`
	Type        string  `json:"type"`
	Value       float64 `json:"value"`
	Description string  `json:"description"`
}

// Lookup returns the stored code as a pricing rule. Codes match exactly,
// including case and surrounding whitespace.
func (s *Service) Lookup(ctx context.Context, code string) (*pricing.Discount, error) {
	if s == nil || s.Q == nil {
		return nil, errors.New("discount service not configured")
	}
	if strings.TrimSpace(code) == "" {
		return nil, ErrNotFound
	}
	row, err := s.Q.GetDiscountCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get discount code: %w", err)
	}
	return FromModel(row), nil
}

// Validate checks that code exists, is active and has not expired.
func (s *Service) Validate(ctx context.Context, code string) (Validation, error) {
	d, err := s.Lookup(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			obs.DiscountValidationsTotal.WithLabelValues("not_found").Inc()
		}
		return Validation{}, err
	}
	if !d.Active {
		obs.DiscountValidationsTotal.WithLabelValues("not_found").Inc()
		return Validation{}, ErrNotFound
	}
	if !d.Applicable(s.now()) {
		obs.DiscountValidationsTotal.WithLabelValues("expired").Inc()
		return Validation{}, ErrExpired
	}
	obs.DiscountValidationsTotal.WithLabelValues("valid").Inc()
	return Validation{
		Valid:       true,
		Type:        string(d.Kind),
		Value:       d.Value.InexactFloat64(),
		Description: Describe(d),
	}, nil
}

// Describe renders the shopper-facing summary of d, e.g. "Save 20%" or "Save $10".
func Describe(d *pricing.Discount) string {
	if d.Kind == pricing.DiscountPercentage {
		return "Save " + d.Value.String() + "%"
	}
	return "Save $" + d.Value.String()
}

// FromModel converts a stored code into a pricing rule.
func FromModel(row store.DiscountCode) *pricing.Discount {
	return &pricing.Discount{
		Code:      row.Code,
		Kind:      pricing.DiscountKind(row.Kind),
		Value:     row.Value,
		Active:    row.Active,
		ExpiresAt: row.ExpiresAt,
	}
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
