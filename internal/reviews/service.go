package reviews

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-nursery/internal/catalog"
	"github.com/noah-isme/backend-nursery/internal/common"
	"github.com/noah-isme/backend-nursery/internal/events"
	"github.com/noah-isme/backend-nursery/internal/obs"
	"github.com/noah-isme/backend-nursery/internal/rating"
	"github.com/noah-isme/backend-nursery/internal/store"
)

var (
	ErrAlreadyReviewed = common.NewAppError("already_reviewed", "You have already reviewed this plant", http.StatusBadRequest, nil)
	ErrReviewNotFound  = common.NewAppError("review_not_found", "Review not found", http.StatusNotFound, nil)
	errUnauthenticated = common.NewAppError("unauthorized", "authentication required", http.StatusUnauthorized, nil)
)

// Querier is the store subset used by reviews.
type Querier interface {
	CreateReview(ctx context.Context, arg store.CreateReviewParams) (store.Review, error)
	ListReviewsByPlant(ctx context.Context, plantID string) ([]store.Review, error)
	IncrementReviewHelpful(ctx context.Context, id pgtype.UUID) (store.Review, error)
	UpdatePlantRating(ctx context.Context, arg store.UpdatePlantRatingParams) error
	GetUserByID(ctx context.Context, id pgtype.UUID) (store.User, error)
}

// Catalog resolves plants and drops cached copies after their rating changes.
type Catalog interface {
	GetPlant(ctx context.Context, id string) (catalog.Plant, error)
	Invalidate(ctx context.Context, plantID string) error
}

// Emitter publishes domain events.
type Emitter interface {
	Emit(ctx context.Context, topic, aggregateID string, payload any) (store.DomainEvent, error)
}

// Review is the JSON view of a stored review.
type Review struct {
	ID           string    `json:"id"`
	PlantID      string    `json:"plant_id"`
	UserID       string    `json:"user_id"`
	UserName     string    `json:"user_name"`
	Rating       int32     `json:"rating"`
	Comment      string    `json:"comment"`
	HelpfulCount int32     `json:"helpful_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateInput is the body of a new review.
type CreateInput struct {
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

type Service struct {
	Q       Querier
	Catalog Catalog
	Events  Emitter
	Logger  zerolog.Logger
}

// List returns the reviews of a plant, newest first. Unknown plants have none.
func (s *Service) List(ctx context.Context, plantID string) ([]Review, error) {
	rows, err := s.Q.ListReviewsByPlant(ctx, strings.TrimSpace(plantID))
	if err != nil {
		return nil, err
	}
	out := make([]Review, 0, len(rows))
	for _, r := range rows {
		out = append(out, toReview(r))
	}
	return out, nil
}

// Create stores the caller's review of a plant and refreshes the plant's
// rating summary.
func (s *Service) Create(ctx context.Context, plantID string, in CreateInput) (Review, error) {
	p, ok := common.CurrentPrincipal(ctx)
	if !ok {
		return Review{}, errUnauthenticated
	}
	uid, err := store.ParseUUID(p.UserID)
	if err != nil {
		return Review{}, errUnauthenticated
	}
	if !rating.ValidRating(in.Rating) {
		return Review{}, common.NewAppError("validation_failed", "rating must be between 1 and 5", http.StatusBadRequest, nil).
			WithDetails([]common.FieldError{{Field: "rating", Rule: "range"}})
	}
	plant, err := s.Catalog.GetPlant(ctx, plantID)
	if err != nil {
		return Review{}, err
	}
	user, err := s.Q.GetUserByID(ctx, uid)
	if err != nil {
		if store.IsNotFound(err) {
			return Review{}, errUnauthenticated
		}
		return Review{}, err
	}

	row, err := s.Q.CreateReview(ctx, store.CreateReviewParams{
		PlantID:  plant.ID,
		UserID:   uid,
		UserName: displayName(user),
		Rating:   int32(in.Rating),
		Comment:  strings.TrimSpace(in.Comment),
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			return Review{}, ErrAlreadyReviewed
		}
		return Review{}, err
	}

	// the review is stored; a failed refresh is repaired by the rating:refresh task
	if err := s.RefreshRating(ctx, plant.ID); err != nil {
		s.Logger.Error().Err(err).Str("plant_id", plant.ID).Msg("refresh rating after review")
	}
	review := toReview(row)
	if s.Events != nil {
		if _, err := s.Events.Emit(ctx, events.TopicReviewCreated, review.ID, map[string]any{
			"review_id": review.ID,
			"plant_id":  plant.ID,
			"rating":    in.Rating,
		}); err != nil {
			s.Logger.Error().Err(err).Str("review_id", review.ID).Msg("emit review event")
		}
	}
	return review, nil
}

// RefreshRating recomputes a plant's rating summary from all of its stored
// reviews. A plant without reviews keeps its stored summary.
func (s *Service) RefreshRating(ctx context.Context, plantID string) error {
	rows, err := s.Q.ListReviewsByPlant(ctx, plantID)
	if err != nil {
		obs.RatingRecomputeTotal.WithLabelValues("error").Inc()
		return err
	}
	reviews := make([]rating.Review, 0, len(rows))
	for _, r := range rows {
		reviews = append(reviews, rating.Review{
			ID:           store.UUIDString(r.ID),
			ProductRef:   r.PlantID,
			AuthorRef:    store.UUIDString(r.UserID),
			Rating:       int(r.Rating),
			Comment:      r.Comment,
			CreatedAt:    r.CreatedAt,
			HelpfulCount: int(r.HelpfulCount),
		})
	}
	summary, ok := rating.Recompute(reviews)
	if !ok {
		obs.RatingRecomputeTotal.WithLabelValues("empty").Inc()
		return nil
	}
	if err := s.Q.UpdatePlantRating(ctx, store.UpdatePlantRatingParams{
		ID:            plantID,
		AverageRating: summary.AverageRating,
		TotalReviews:  int32(summary.TotalReviews),
	}); err != nil {
		obs.RatingRecomputeTotal.WithLabelValues("error").Inc()
		return err
	}
	obs.RatingRecomputeTotal.WithLabelValues("updated").Inc()
	if s.Catalog != nil {
		if err := s.Catalog.Invalidate(ctx, plantID); err != nil {
			s.Logger.Warn().Err(err).Str("plant_id", plantID).Msg("invalidate catalog cache")
		}
	}
	return nil
}

// MarkHelpful increments a review's helpful counter.
func (s *Service) MarkHelpful(ctx context.Context, reviewID string) (Review, error) {
	id, err := store.ParseUUID(reviewID)
	if err != nil {
		return Review{}, ErrReviewNotFound
	}
	row, err := s.Q.IncrementReviewHelpful(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return Review{}, ErrReviewNotFound
		}
		return Review{}, err
	}
	return toReview(row), nil
}

func displayName(u store.User) string {
	name := strings.TrimSpace(u.FirstName)
	if last := strings.TrimSpace(u.LastName); last != "" {
		name += " " + string([]rune(last)[:1]) + "."
	}
	return strings.TrimSpace(name)
}

func toReview(r store.Review) Review {
	return Review{
		ID:           store.UUIDString(r.ID),
		PlantID:      r.PlantID,
		UserID:       store.UUIDString(r.UserID),
		UserName:     r.UserName,
		Rating:       r.Rating,
		Comment:      r.Comment,
		HelpfulCount: r.HelpfulCount,
		CreatedAt:    r.CreatedAt,
	}
}
