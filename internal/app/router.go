package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/backend-nursery/internal/auth"
	"github.com/noah-isme/backend-nursery/internal/catalog"
	"github.com/noah-isme/backend-nursery/internal/checkout"
	"github.com/noah-isme/backend-nursery/internal/common"
	"github.com/noah-isme/backend-nursery/internal/discount"
	"github.com/noah-isme/backend-nursery/internal/obs"
	"github.com/noah-isme/backend-nursery/internal/order"
	"github.com/noah-isme/backend-nursery/internal/payment"
	"github.com/noah-isme/backend-nursery/internal/profile"
	"github.com/noah-isme/backend-nursery/internal/ratelimit"
	"github.com/noah-isme/backend-nursery/internal/reviews"
	"github.com/noah-isme/backend-nursery/internal/security"
	"github.com/noah-isme/backend-nursery/internal/wishlist"
)

// Router mounts every API route with the shared middleware chain.
func (a *App) Router() http.Handler {
	authMW := auth.Middleware{Service: a.Auth}
	idem := a.Idempotency()
	writes := ratelimit.Handler{
		Limiter: ratelimit.Sliding{Client: a.deps.Redis, Prefix: "nursery:rl:writes:"},
		Config: ratelimit.Config{
			Key:    ratelimit.ByUserOrIP("writes"),
			Window: a.cfg.WriteRateWindow,
			Max:    a.cfg.WriteRateLimit,
		},
		OnError: func(err error) { a.logger.Warn().Err(err).Msg("write rate limiter unavailable") },
	}.Middleware

	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{Service: a.Catalog})
	discountHandler := &discount.Handler{Svc: a.Discount}
	checkoutHandler := &checkout.Handler{Svc: a.Checkout}
	authHandler := &auth.Handler{Service: a.Auth}
	profileHandler := &profile.Handler{Service: a.Profile}
	paymentHandler := &payment.Handler{Svc: a.Payments}
	orderHandler := &order.Handler{Svc: a.Orders}
	reviewHandler := &reviews.Handler{Svc: a.Reviews}
	wishlistHandler := &wishlist.Handler{Svc: a.Wishlist}
	healthHandler := a.Health()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if a.deps.Tracing {
		r.Use(obs.TracingMiddleware)
	}
	if a.deps.HTTPMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: a.deps.HTTPMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: a.logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: a.cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders: []string{"X-Total-Count", "X-Page", "X-Per-Page", "X-Request-Id"},
		MaxAge:         300,
	}))
	r.Use(security.Headers{Enable: true, EnableHSTS: a.cfg.IsProduction()}.Middleware)
	r.Use(security.BodyLimit{Max: a.cfg.MaxRequestBodySize}.Middleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		common.JSONError(w, http.StatusNotFound, "not_found", "Resource not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		common.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed", nil)
	})

	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)
	if a.cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		api.Get("/plants", catalogHandler.Plants)
		api.Get("/plants/{id}", catalogHandler.Plant)
		api.Get("/categories", catalogHandler.Categories)
		api.Get("/validate-discount", discountHandler.Validate)
		api.Post("/calculate-total", checkoutHandler.CalculateTotal)

		api.With(a.authLimit).Post("/register", authHandler.Register)
		api.With(a.authLimit).Post("/login", authHandler.Login)

		api.Group(func(p chi.Router) {
			p.Use(authMW.OptionalAuth)
			p.With(idem.Middleware).Post("/paypal/create-order", paymentHandler.CreateOrder)
			p.Post("/paypal/execute-payment", paymentHandler.ExecutePayment)
			p.Get("/plants/{id}/reviews", reviewHandler.List)
		})

		api.Group(func(p chi.Router) {
			p.Use(authMW.RequireAuth)
			p.Get("/profile", profileHandler.Get)
			p.Put("/profile", profileHandler.Update)

			p.Get("/orders", orderHandler.List)
			p.Get("/orders/{id}", orderHandler.Get)
			p.Put("/orders/{id}/status", orderHandler.UpdateStatus)

			p.With(writes).Post("/plants/{id}/reviews", reviewHandler.Create)
			p.With(writes).Post("/reviews/{id}/helpful", reviewHandler.Helpful)

			p.Get("/wishlist", wishlistHandler.List)
			p.With(writes).Post("/wishlist/{plant_id}", wishlistHandler.Add)
			p.With(writes).Delete("/wishlist/{plant_id}", wishlistHandler.Remove)
		})
	})
	return r
}
