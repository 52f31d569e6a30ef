package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/noah-isme/backend-nursery/internal/common"
	"github.com/noah-isme/backend-nursery/internal/store"
)

const (
	defaultAccessTTL = 24 * time.Hour

	// RoleCustomer is assigned to every self-registered account.
	RoleCustomer = "customer"
	// RoleAdmin may advance order fulfilment status.
	RoleAdmin = "admin"

	claimEmail = "email"
	claimRole  = "role"
)

var errInvalidCredentials = common.NewAppError("invalid_credentials", "Invalid email or password", http.StatusUnauthorized, nil)

// Querier captures the user queries the auth service needs.
type Querier interface {
	CreateUser(ctx context.Context, arg store.CreateUserParams) (store.User, error)
	GetUserByEmail(ctx context.Context, email string) (store.User, error)
	GetUserByID(ctx context.Context, id pgtype.UUID) (store.User, error)
}

// Service coordinates registration, login and access token handling.
type Service struct {
	queries   Querier
	secret    []byte
	accessTTL time.Duration
	now       func() time.Time
	signer    jwa.SignatureAlgorithm
	validator TokenValidator
	issuer    string
	audience  string
	clockSkew time.Duration
}

// Config configures the auth service.
type Config struct {
	Queries        Querier
	Secret         string
	AccessTokenTTL time.Duration
	Issuer         string
	Audience       string
	ClockSkew      time.Duration
}

// User is the account summary returned alongside tokens.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Result bundles the token issued after register or login.
type Result struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	AccessExpiry time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

// RegisterInput is the register request body.
type RegisterInput struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
}

// LoginInput is the login request body.
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// NewService constructs a Service instance with sane defaults.
func NewService(cfg Config) (*Service, error) {
	if cfg.Queries == nil {
		return nil, errors.New("auth: queries is required")
	}
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("auth: secret is required")
	}
	accessTTL := cfg.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = "backend-nursery"
	}
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		audience = "nursery-storefront"
	}
	clockSkew := max(cfg.ClockSkew, 0)

	return &Service{
		queries:   cfg.Queries,
		secret:    []byte(secret),
		accessTTL: accessTTL,
		now:       time.Now,
		signer:    jwa.HS256,
		validator: TokenValidator{
			Issuer:    issuer,
			Audience:  audience,
			ClockSkew: clockSkew,
			Algorithm: jwa.HS256,
		},
		issuer:    issuer,
		audience:  audience,
		clockSkew: clockSkew,
	}, nil
}

// WithNow allows tests to override the time provider.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Register creates a customer account and signs a token for it.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Result, error) {
	email := normalizeEmail(in.Email)
	hash, err := argon2id.CreateHash(in.Password, argon2id.DefaultParams)
	if err != nil {
		return Result{}, fmt.Errorf("hash password: %w", err)
	}
	created, err := s.queries.CreateUser(ctx, store.CreateUserParams{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			return Result{}, common.NewAppError("email_taken", "Email already registered", http.StatusBadRequest, err)
		}
		return Result{}, fmt.Errorf("create user: %w", err)
	}
	return s.issue(created)
}

// Login verifies credentials and signs a new access token.
func (s *Service) Login(ctx context.Context, in LoginInput) (Result, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return Result{}, errInvalidCredentials
	}
	user, err := s.queries.GetUserByEmail(ctx, email)
	if err != nil {
		if store.IsNotFound(err) {
			return Result{}, errInvalidCredentials
		}
		return Result{}, fmt.Errorf("get user: %w", err)
	}
	ok, err := argon2id.ComparePasswordAndHash(in.Password, user.PasswordHash)
	if err != nil || !ok {
		return Result{}, errInvalidCredentials
	}
	return s.issue(user)
}

// Claims is the verified content of an access token.
type Claims struct {
	UserID string
	Email  string
	Role   string
}

// ParseAccessToken validates an access token and returns its claims.
func (s *Service) ParseAccessToken(token string) (Claims, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return Claims{}, common.NewAppError("unauthorized", "missing token", http.StatusUnauthorized, nil)
	}
	algorithm, err := extractTokenAlgorithm(trimmed)
	if err != nil {
		return Claims{}, common.NewAppError("unauthorized", "Invalid token", http.StatusUnauthorized, err)
	}
	if s.validator.Algorithm != "" && algorithm != s.validator.Algorithm {
		return Claims{}, common.NewAppError("unauthorized", "Invalid token", http.StatusUnauthorized, fmt.Errorf("unexpected token algorithm %s", algorithm))
	}
	parsed, err := jwt.ParseString(trimmed, jwt.WithKey(algorithm, s.secret), jwt.WithValidate(false))
	if err != nil {
		return Claims{}, common.NewAppError("unauthorized", "Invalid token", http.StatusUnauthorized, err)
	}
	claims, err := s.validator.Validate(parsed, algorithm, s.now())
	if err != nil {
		return Claims{}, common.NewAppError("unauthorized", "Invalid token", http.StatusUnauthorized, err)
	}
	return claims, nil
}

func (s *Service) issue(u store.User) (Result, error) {
	userID := store.UUIDString(u.ID)
	if userID == "" {
		return Result{}, errors.New("auth: invalid user identifier")
	}
	role := u.Role
	if role == "" {
		role = RoleCustomer
	}
	token, expiry, err := s.signAccessToken(userID, u.Email, role)
	if err != nil {
		return Result{}, fmt.Errorf("sign access token: %w", err)
	}
	return Result{
		AccessToken:  token,
		TokenType:    "bearer",
		AccessExpiry: expiry,
		User: User{
			ID:        userID,
			Email:     u.Email,
			FirstName: u.FirstName,
			LastName:  u.LastName,
		},
	}, nil
}

func (s *Service) signAccessToken(userID, email, role string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.accessTTL)
	token, err := jwt.NewBuilder().
		Subject(userID).
		Issuer(s.issuer).
		Audience([]string{s.audience}).
		IssuedAt(now).
		NotBefore(now.Add(-s.clockSkew)).
		Expiration(expiresAt).
		Claim(claimEmail, email).
		Claim(claimRole, role).
		Build()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(s.signer, s.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(signed), expiresAt, nil
}

func extractTokenAlgorithm(token string) (jwa.SignatureAlgorithm, error) {
	message, err := jws.ParseString(token)
	if err != nil {
		return "", err
	}
	signatures := message.Signatures()
	if len(signatures) == 0 {
		return "", errors.New("auth: token contains no signatures")
	}
	var algorithm jwa.SignatureAlgorithm
	for _, sig := range signatures {
		headers := sig.ProtectedHeaders()
		if headers == nil {
			return "", errors.New("auth: token missing protected headers")
		}
		alg := headers.Algorithm()
		switch {
		case alg == "":
			return "", errors.New("auth: token missing algorithm")
		case alg == jwa.NoSignature:
			return "", errors.New("auth: token uses none algorithm")
		case algorithm == "":
			algorithm = alg
		case algorithm != alg:
			return "", errors.New("auth: mixed token algorithms detected")
		}
	}
	return algorithm, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
