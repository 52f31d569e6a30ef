package app

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-nursery/internal/auth"
	"github.com/noah-isme/backend-nursery/internal/catalog"
	"github.com/noah-isme/backend-nursery/internal/checkout"
	"github.com/noah-isme/backend-nursery/internal/common"
	"github.com/noah-isme/backend-nursery/internal/config"
	"github.com/noah-isme/backend-nursery/internal/discount"
	"github.com/noah-isme/backend-nursery/internal/events"
	"github.com/noah-isme/backend-nursery/internal/health"
	"github.com/noah-isme/backend-nursery/internal/lock"
	"github.com/noah-isme/backend-nursery/internal/obs"
	"github.com/noah-isme/backend-nursery/internal/order"
	"github.com/noah-isme/backend-nursery/internal/payment"
	"github.com/noah-isme/backend-nursery/internal/profile"
	"github.com/noah-isme/backend-nursery/internal/ratelimit"
	"github.com/noah-isme/backend-nursery/internal/resilience"
	"github.com/noah-isme/backend-nursery/internal/reviews"
	"github.com/noah-isme/backend-nursery/internal/store"
	"github.com/noah-isme/backend-nursery/internal/wishlist"
)

// Deps are the live connections the API is assembled from.
type Deps struct {
	Pool  *pgxpool.Pool
	Redis *redis.Client
	// Queue receives background tasks. Nil disables task fan-out.
	Queue       events.Enqueuer
	HTTPMetrics *obs.HTTPMetrics
	Tracing     bool
}

// App holds the wired services and handlers of the API process.
type App struct {
	cfg    *config.Config
	logger zerolog.Logger
	deps   Deps

	Store    *store.Store
	Bus      *events.Bus
	Catalog  *catalog.Service
	Auth     *auth.Service
	Checkout *checkout.Service
	Payments *payment.Service
	Orders   *order.Service
	Reviews  *reviews.Service
	Wishlist *wishlist.Service
	Profile  *profile.Service
	Discount *discount.Service

	authLimit func(http.Handler) http.Handler
}

// New wires every service against deps.
func New(cfg *config.Config, logger zerolog.Logger, deps Deps) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: config is required")
	}
	if deps.Redis == nil {
		return nil, errors.New("app: redis client is required")
	}
	a := &App{cfg: cfg, logger: logger, deps: deps}
	a.Store = store.NewStore(deps.Pool)

	notifiers := []events.Notifier{events.LogNotifier{Logger: logger}}
	if deps.Queue != nil {
		notifiers = append(notifiers, &events.TaskNotifier{Queue: deps.Queue, Logger: logger})
	}
	a.Bus = &events.Bus{Store: a.Store, Notifiers: notifiers}

	var err error
	a.Catalog, err = catalog.NewService(catalog.ServiceConfig{
		Queries: a.Store,
		Cache:   catalog.NewCache(deps.Redis, cfg.CatalogCacheTTL),
	})
	if err != nil {
		return nil, err
	}
	a.Discount = &discount.Service{Q: a.Store}
	a.Checkout = &checkout.Service{Plants: a.Catalog, Discounts: a.Discount}

	a.Auth, err = auth.NewService(auth.Config{
		Queries:        a.Store,
		Secret:         cfg.JWTSecret,
		AccessTokenTTL: cfg.AccessTokenTTL,
		Issuer:         cfg.JWTIssuer,
		Audience:       cfg.JWTAudience,
	})
	if err != nil {
		return nil, err
	}
	a.Profile = &profile.Service{Q: a.Store}

	a.Payments = &payment.Service{
		Orders:   a.Store,
		Pricing:  a.Checkout,
		Provider: newPaymentProvider(cfg, logger),
		Events:   a.Bus,
		Locks:    lock.Locker{R: deps.Redis, Prefix: "nursery:lock:", RetryBackoff: cfg.RetryBase},
		LockTTL:  cfg.PaymentLockTTL,
		Logger:   logger.With().Str("component", "payment").Logger(),
	}
	a.Orders = &order.Service{Q: a.Store, Events: a.Bus, Logger: logger.With().Str("component", "order").Logger()}
	a.Reviews = &reviews.Service{Q: a.Store, Catalog: a.Catalog, Events: a.Bus, Logger: logger.With().Str("component", "reviews").Logger()}
	a.Wishlist = &wishlist.Service{Q: a.Store, Plants: a.Catalog}

	a.authLimit, err = ratelimit.PerIP(deps.Redis, "nursery:rl:auth", cfg.AuthRateLimit)
	if err != nil {
		return nil, fmt.Errorf("auth rate limit: %w", err)
	}
	return a, nil
}

// newPaymentProvider picks PayPal when credentials are configured and the
// offline mock otherwise.
func newPaymentProvider(cfg *config.Config, logger zerolog.Logger) payment.Provider {
	if cfg.PayPalMock() {
		logger.Warn().Msg("paypal credentials missing or mode=mock, using mock payment provider")
		return payment.Mock{ApprovalBase: strings.TrimSuffix(cfg.PayPalReturnURL, "/")}
	}
	baseURL := payment.PayPalSandboxURL
	if cfg.PayPalMode == "live" {
		baseURL = payment.PayPalLiveURL
	}
	breakerLogger := logger.With().Str("component", "breaker").Logger()
	return &payment.PayPal{
		BaseURL:      baseURL,
		ClientID:     cfg.PayPalClientID,
		ClientSecret: cfg.PayPalClientSecret,
		ReturnURL:    cfg.PayPalReturnURL,
		CancelURL:    cfg.PayPalCancelURL,
		HTTP: resilience.HTTPClient{
			Client: &http.Client{Transport: obs.HTTPTransport(http.DefaultTransport)},
			Breaker: resilience.NewBreaker(resilience.BreakerConfig{
				Target:       "paypal",
				MinRequests:  cfg.BreakerMinRequests,
				FailureRatio: cfg.BreakerFailureRatio,
				OpenFor:      cfg.BreakerOpenFor,
				Logger:       breakerLogger,
			}),
			Target:      "paypal",
			MaxAttempts: cfg.RetryMaxAttempts,
			BaseBackoff: cfg.RetryBase,
			Jitter:      0.2,
			Timeout:     cfg.OutboundTimeout,
		},
	}
}

// Health returns the readiness probe over the app's connections.
func (a *App) Health() health.Handler {
	return health.Handler{Checker: health.Deps{DB: a.deps.Pool, Redis: a.deps.Redis}}
}

// Idempotency returns the Idempotency-Key replay middleware.
func (a *App) Idempotency() common.Idem {
	return common.Idem{R: a.deps.Redis, TTL: a.cfg.IdempotencyTTL}
}
