package profile

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-nursery/internal/common"
	"github.com/noah-isme/backend-nursery/internal/store"
)

var errUnauthorized = common.NewAppError("unauthorized", "Not authenticated", http.StatusUnauthorized, nil)

// ErrNotFound is returned when the token refers to a deleted account.
var ErrNotFound = common.NewAppError("user_not_found", "User not found", http.StatusNotFound, nil)

// Querier captures the user queries the profile service needs.
type Querier interface {
	GetUserByID(ctx context.Context, id pgtype.UUID) (store.User, error)
	UpdateUserProfile(ctx context.Context, arg store.UpdateUserProfileParams) (store.User, error)
}

// Profile is the account view returned to its owner.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	ZipCode   string    `json:"zip_code"`
	Country   string    `json:"country"`
	CreatedAt time.Time `json:"created_at"`
}

// Update carries a partial profile change. Nil fields are left untouched.
type Update struct {
	FirstName *string `json:"first_name" validate:"omitnil,min=1,max=100"`
	LastName  *string `json:"last_name" validate:"omitnil,min=1,max=100"`
	Phone     *string `json:"phone" validate:"omitempty,max=32"`
	Address   *string `json:"address" validate:"omitempty,max=255"`
	City      *string `json:"city" validate:"omitempty,max=100"`
	State     *string `json:"state" validate:"omitempty,max=100"`
	ZipCode   *string `json:"zip_code" validate:"omitempty,max=20"`
	Country   *string `json:"country" validate:"omitempty,max=100"`
}

// Service reads and updates the caller's own account.
type Service struct {
	Q Querier
}

// Get returns the profile of userID.
func (s *Service) Get(ctx context.Context, userID string) (Profile, error) {
	id, err := store.ParseUUID(userID)
	if err != nil {
		return Profile{}, errUnauthorized
	}
	row, err := s.Q.GetUserByID(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, fmt.Errorf("get user: %w", err)
	}
	return toProfile(row), nil
}

// Update applies in to userID's profile and returns the result.
func (s *Service) Update(ctx context.Context, userID string, in Update) (Profile, error) {
	id, err := store.ParseUUID(userID)
	if err != nil {
		return Profile{}, errUnauthorized
	}
	row, err := s.Q.UpdateUserProfile(ctx, store.UpdateUserProfileParams{
		ID:        id,
		FirstName: trimmed(in.FirstName),
		LastName:  trimmed(in.LastName),
		Phone:     trimmed(in.Phone),
		Address:   trimmed(in.Address),
		City:      trimmed(in.City),
		State:     trimmed(in.State),
		ZipCode:   trimmed(in.ZipCode),
		Country:   trimmed(in.Country),
	})
	if err != nil {
		if store.IsNotFound(err) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, fmt.Errorf("update user profile: %w", err)
	}
	return toProfile(row), nil
}

func toProfile(u store.User) Profile {
	return Profile{
		ID:        store.UUIDString(u.ID),
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone.String,
		Address:   u.Address.String,
		City:      u.City.String,
		State:     u.State.String,
		ZipCode:   u.ZipCode.String,
		Country:   u.Country.String,
		CreatedAt: u.CreatedAt,
	}
}

func trimmed(v *string) pgtype.Text {
	if v == nil {
		return pgtype.Text{}
	}
	s := strings.TrimSpace(*v)
	return store.TextPtr(&s)
}

// requireUser pulls the authenticated id from ctx.
func requireUser(ctx context.Context) (string, error) {
	id, ok := common.UserID(ctx)
	if !ok {
		return "", errUnauthorized
	}
	return id, nil
}

