package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	pgconn "github.com/jackc/pgx/v5/pgconn"

	"github.com/noah-isme/backend-nursery/internal/store"
)

type fakeQueries struct {
	mu           sync.Mutex
	usersByEmail map[string]store.User
	usersByID    map[string]store.User
}

func newFakeQueries() *fakeQueries {
	return &fakeQueries{
		usersByEmail: make(map[string]store.User),
		usersByID:    make(map[string]store.User),
	}
}

func (f *fakeQueries) CreateUser(_ context.Context, arg store.CreateUserParams) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.usersByEmail[arg.Email]; exists {
		return store.User{}, &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	}
	now := time.Now()
	user := store.User{
		ID:           pgtype.UUID{Bytes: uuid.New(), Valid: true},
		Email:        arg.Email,
		PasswordHash: arg.PasswordHash,
		FirstName:    arg.FirstName,
		LastName:     arg.LastName,
		Role:         RoleCustomer,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.usersByEmail[user.Email] = user
	f.usersByID[store.UUIDString(user.ID)] = user
	return user, nil
}

func (f *fakeQueries) GetUserByEmail(_ context.Context, email string) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.usersByEmail[email]
	if !ok {
		return store.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (f *fakeQueries) GetUserByID(_ context.Context, id pgtype.UUID) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.usersByID[store.UUIDString(id)]
	if !ok {
		return store.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (f *fakeQueries) promote(email, role string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user := f.usersByEmail[email]
	user.Role = role
	f.usersByEmail[email] = user
	f.usersByID[store.UUIDString(user.ID)] = user
}

func newTestService(queries *fakeQueries) *Service {
	svc, err := NewService(Config{
		Queries:        queries,
		Secret:         "test-secret",
		AccessTokenTTL: time.Hour,
		Issuer:         "test-issuer",
		Audience:       "test-audience",
	})
	if err != nil {
		panic(err)
	}
	return svc
}
