package wishlist

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-nursery/internal/catalog"
	"github.com/noah-isme/backend-nursery/internal/common"
	"github.com/noah-isme/backend-nursery/internal/store"
)

var (
	ErrDuplicate       = common.NewAppError("already_in_wishlist", "Plant already in wishlist", http.StatusBadRequest, nil)
	ErrNotInWishlist   = common.NewAppError("not_in_wishlist", "Plant not in wishlist", http.StatusNotFound, nil)
	errUnauthenticated = common.NewAppError("unauthorized", "authentication required", http.StatusUnauthorized, nil)
)

type Querier interface {
	AddWishlistItem(ctx context.Context, arg store.AddWishlistItemParams) error
	RemoveWishlistItem(ctx context.Context, arg store.RemoveWishlistItemParams) (int64, error)
	ListWishlistPlants(ctx context.Context, userID pgtype.UUID) ([]store.Plant, error)
}

// PlantGetter confirms a plant exists.
type PlantGetter interface {
	GetPlant(ctx context.Context, id string) (catalog.Plant, error)
}

type Service struct {
	Q      Querier
	Plants PlantGetter
}

// List returns the caller's wishlisted plants, most recently added first.
func (s *Service) List(ctx context.Context) ([]catalog.Plant, error) {
	uid, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.Q.ListWishlistPlants(ctx, uid)
	if err != nil {
		return nil, err
	}
	out := make([]catalog.Plant, 0, len(rows))
	for _, p := range rows {
		out = append(out, catalog.ToPlant(p))
	}
	return out, nil
}

// Add puts a plant on the caller's wishlist.
func (s *Service) Add(ctx context.Context, plantID string) error {
	uid, err := caller(ctx)
	if err != nil {
		return err
	}
	plant, err := s.Plants.GetPlant(ctx, plantID)
	if err != nil {
		return err
	}
	if err := s.Q.AddWishlistItem(ctx, store.AddWishlistItemParams{UserID: uid, PlantID: plant.ID}); err != nil {
		if store.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// Remove takes a plant off the caller's wishlist.
func (s *Service) Remove(ctx context.Context, plantID string) error {
	uid, err := caller(ctx)
	if err != nil {
		return err
	}
	n, err := s.Q.RemoveWishlistItem(ctx, store.RemoveWishlistItemParams{UserID: uid, PlantID: plantID})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotInWishlist
	}
	return nil
}

func caller(ctx context.Context) (pgtype.UUID, error) {
	id, ok := common.UserID(ctx)
	if !ok {
		return pgtype.UUID{}, errUnauthenticated
	}
	uid, err := store.ParseUUID(id)
	if err != nil {
		return pgtype.UUID{}, errUnauthenticated
	}
	return uid, nil
}
