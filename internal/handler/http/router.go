package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/foodtuck/storefront/internal/service"
	"github.com/foodtuck/storefront/pkg/health"
	"github.com/foodtuck/storefront/pkg/middleware"
)

const serviceName = "storefront"

// RouterConfig holds the cross-cutting settings of the HTTP surface.
type RouterConfig struct {
	// Session attaches the shopper's session to cart and checkout requests.
	Session func(http.Handler) http.Handler
	// CheckoutLimiter throttles order submissions. Nil disables it.
	CheckoutLimiter *middleware.RateLimiter
	// CatalogMaxAge is the Cache-Control max-age for catalog reads, in seconds.
	CatalogMaxAge int
	CORS          middleware.CORSConfig
	PprofCIDRs    []string
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(
	cartService *service.CartService,
	checkoutService *service.CheckoutService,
	catalogService *service.CatalogService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.CORS(cfg.CORS))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	cartHandler := NewCartHandler(cartService, logger)
	checkoutHandler := NewCheckoutHandler(checkoutService, logger)
	catalogHandler := NewCatalogHandler(catalogService, logger)

	session := cfg.Session
	if session == nil {
		session = middleware.SessionHeader("X-Session-ID")
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		// Catalog reads are shared across shoppers.
		r.Group(func(r chi.Router) {
			r.Use(middleware.CacheControl(cfg.CatalogMaxAge))
			r.Use(middleware.RequestLogger(logger))

			r.Get("/foods", catalogHandler.SearchFoods)
			r.Get("/foods/{id}", catalogHandler.GetFood)
			r.Get("/foods/{id}/similar", catalogHandler.SimilarFoods)
			r.Get("/menu", catalogHandler.Menu)
			r.Get("/chefs", catalogHandler.Chefs)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.Use(session)
			r.Use(middleware.RequestLogger(logger))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.GetCart)
				r.Delete("/", cartHandler.ClearCart)

				r.Post("/items", cartHandler.AddItem)
				r.Put("/items/{id}", cartHandler.UpdateItemQuantity)
				r.Delete("/items/{id}", cartHandler.RemoveItem)
			})

			r.Route("/checkout", func(r chi.Router) {
				if cfg.CheckoutLimiter != nil {
					r.With(cfg.CheckoutLimiter.Handler).Post("/", checkoutHandler.Checkout)
				} else {
					r.Post("/", checkoutHandler.Checkout)
				}
				r.Get("/attempts", checkoutHandler.ListAttempts)
				r.Get("/attempts/{id}", checkoutHandler.GetAttempt)
			})
		})
	})

	return r
}
