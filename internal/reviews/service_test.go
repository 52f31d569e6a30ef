package reviews

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-nursery/internal/catalog"
	"github.com/noah-isme/backend-nursery/internal/common"
	"github.com/noah-isme/backend-nursery/internal/obs"
	"github.com/noah-isme/backend-nursery/internal/store"
)

type fakeQueries struct {
	reviews []store.Review
	ratings map[string]store.UpdatePlantRatingParams
	users   map[pgtype.UUID]store.User
	clock   time.Time
}

func (f *fakeQueries) CreateReview(_ context.Context, arg store.CreateReviewParams) (store.Review, error) {
	for _, r := range f.reviews {
		if r.PlantID == arg.PlantID && r.UserID == arg.UserID {
			return store.Review{}, &pgconn.PgError{Code: "23505"}
		}
	}
	f.clock = f.clock.Add(time.Minute)
	r := store.Review{
		ID:        pgtype.UUID{Bytes: uuid.New(), Valid: true},
		PlantID:   arg.PlantID,
		UserID:    arg.UserID,
		UserName:  arg.UserName,
		Rating:    arg.Rating,
		Comment:   arg.Comment,
		CreatedAt: f.clock,
	}
	f.reviews = append([]store.Review{r}, f.reviews...)
	return r, nil
}

func (f *fakeQueries) ListReviewsByPlant(_ context.Context, plantID string) ([]store.Review, error) {
	var out []store.Review
	for _, r := range f.reviews {
		if r.PlantID == plantID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeQueries) IncrementReviewHelpful(_ context.Context, id pgtype.UUID) (store.Review, error) {
	for i := range f.reviews {
		if f.reviews[i].ID == id {
			f.reviews[i].HelpfulCount++
			return f.reviews[i], nil
		}
	}
	return store.Review{}, pgx.ErrNoRows
}

func (f *fakeQueries) UpdatePlantRating(_ context.Context, arg store.UpdatePlantRatingParams) error {
	f.ratings[arg.ID] = arg
	return nil
}

func (f *fakeQueries) GetUserByID(_ context.Context, id pgtype.UUID) (store.User, error) {
	u, ok := f.users[id]
	if !ok {
		return store.User{}, pgx.ErrNoRows
	}
	return u, nil
}

type fakeCatalog struct {
	plants      map[string]bool
	invalidated []string
}

func (f *fakeCatalog) GetPlant(_ context.Context, id string) (catalog.Plant, error) {
	if !f.plants[id] {
		return catalog.Plant{}, catalog.ErrPlantNotFound
	}
	return catalog.Plant{ID: id}, nil
}

func (f *fakeCatalog) Invalidate(_ context.Context, plantID string) error {
	f.invalidated = append(f.invalidated, plantID)
	return nil
}

type captureEmitter struct{ payloads []map[string]any }

func (c *captureEmitter) Emit(_ context.Context, topic, aggregateID string, payload any) (store.DomainEvent, error) {
	c.payloads = append(c.payloads, payload.(map[string]any))
	return store.DomainEvent{Topic: topic, AggregateID: aggregateID}, nil
}

type fixture struct {
	svc     *Service
	q       *fakeQueries
	cat     *fakeCatalog
	emitter *captureEmitter
	users   []string
}

func newFixture() fixture {
	q := &fakeQueries{
		ratings: map[string]store.UpdatePlantRatingParams{},
		users:   map[pgtype.UUID]store.User{},
		clock:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	var ids []string
	for _, name := range []string{"Fern", "Ivy", "Rose"} {
		id := uuid.New()
		q.users[pgtype.UUID{Bytes: id, Valid: true}] = store.User{FirstName: name, LastName: "Green"}
		ids = append(ids, id.String())
	}
	cat := &fakeCatalog{plants: map[string]bool{"plant_001": true, "plant_002": true}}
	emitter := &captureEmitter{}
	return fixture{
		svc:     &Service{Q: q, Catalog: cat, Events: emitter, Logger: zerolog.Nop()},
		q:       q,
		cat:     cat,
		emitter: emitter,
		users:   ids,
	}
}

func as(userID string) context.Context {
	return common.WithPrincipal(context.Background(), common.Principal{UserID: userID})
}

func TestCreateRecomputesRating(t *testing.T) {
	fx := newFixture()
	before := testutil.ToFloat64(obs.RatingRecomputeTotal.WithLabelValues("updated"))

	for i, stars := range []int{5, 4, 4} {
		_, err := fx.svc.Create(as(fx.users[i]), "plant_001", CreateInput{Rating: stars, Comment: "  lovely  "})
		require.NoError(t, err)
	}

	got := fx.q.ratings["plant_001"]
	require.True(t, decimal.RequireFromString("4.3").Equal(got.AverageRating), got.AverageRating.String())
	require.Equal(t, int32(3), got.TotalReviews)
	require.Equal(t, []string{"plant_001", "plant_001", "plant_001"}, fx.cat.invalidated)
	require.Equal(t, before+3, testutil.ToFloat64(obs.RatingRecomputeTotal.WithLabelValues("updated")))

	list, err := fx.svc.List(context.Background(), "plant_001")
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, "Rose G.", list[0].UserName)
	require.Equal(t, "lovely", list[0].Comment)
	require.Len(t, fx.emitter.payloads, 3)
	require.Equal(t, "plant_001", fx.emitter.payloads[0]["plant_id"])
}

func TestCreateRejects(t *testing.T) {
	fx := newFixture()
	ctx := as(fx.users[0])

	_, err := fx.svc.Create(ctx, "plant_001", CreateInput{Rating: 5})
	require.NoError(t, err)
	_, err = fx.svc.Create(ctx, "plant_001", CreateInput{Rating: 3})
	require.ErrorIs(t, err, ErrAlreadyReviewed)
	require.Equal(t, int32(1), fx.q.ratings["plant_001"].TotalReviews)

	_, err = fx.svc.Create(ctx, "nonexistent_plant", CreateInput{Rating: 5})
	require.ErrorIs(t, err, catalog.ErrPlantNotFound)

	_, err = fx.svc.Create(ctx, "plant_002", CreateInput{Rating: 6})
	require.Error(t, err)
	_, ok := fx.q.ratings["plant_002"]
	require.False(t, ok)

	_, err = fx.svc.Create(context.Background(), "plant_002", CreateInput{Rating: 5})
	require.ErrorIs(t, err, errUnauthenticated)
}

func TestRefreshRatingWithoutReviewsKeepsSummary(t *testing.T) {
	fx := newFixture()
	require.NoError(t, fx.svc.RefreshRating(context.Background(), "plant_002"))
	require.Empty(t, fx.q.ratings)
	require.Empty(t, fx.cat.invalidated)
}

func TestHandlers(t *testing.T) {
	fx := newFixture()
	h := &Handler{Svc: fx.svc}
	user := fx.users[0]
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(as(user)))
		})
	})
	r.Get("/api/plants/{id}/reviews", h.List)
	r.Post("/api/plants/{id}/reviews", h.Create)
	r.Post("/api/reviews/{id}/helpful", h.Helpful)
	do := func(method, path, body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
		return rec
	}

	rec := do(http.MethodGet, "/api/plants/nonexistent_plant/reviews", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[]`, rec.Body.String())

	rec = do(http.MethodPost, "/api/plants/plant_001/reviews", `{"plant_id":"plant_001","rating":5,"comment":"Excellent plant!"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Contains(t, rec.Body.String(), `"review_id"`)
	reviewID := store.UUIDString(fx.q.reviews[0].ID)

	rec = do(http.MethodPost, "/api/plants/plant_001/reviews", `{"rating":5,"comment":"again"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "You have already reviewed this plant")

	rec = do(http.MethodPost, "/api/plants/plant_001/reviews", `{"rating":0}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "validation_failed")

	rec = do(http.MethodPost, "/api/reviews/"+reviewID+"/helpful", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"helpful_count":1`)

	rec = do(http.MethodPost, "/api/reviews/"+uuid.NewString()+"/helpful", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(http.MethodGet, "/api/plants/plant_001/reviews", "")
	require.Contains(t, rec.Body.String(), `"rating":5`)
}
