package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/saborhub/saborhub-backend/api/controllers"
	cartcontrollers "github.com/saborhub/saborhub-backend/api/controllers/cart"
	ordercontrollers "github.com/saborhub/saborhub-backend/api/controllers/orders"
	"github.com/saborhub/saborhub-backend/api/middleware"
	"github.com/saborhub/saborhub-backend/internal/cart"
	"github.com/saborhub/saborhub-backend/internal/companies"
	"github.com/saborhub/saborhub-backend/internal/menu"
	"github.com/saborhub/saborhub-backend/internal/orders"
	"github.com/saborhub/saborhub-backend/pkg/config"
	"github.com/saborhub/saborhub-backend/pkg/enums"
	"github.com/saborhub/saborhub-backend/pkg/logger"
	"github.com/saborhub/saborhub-backend/pkg/metrics"
	pkgredis "github.com/saborhub/saborhub-backend/pkg/redis"
)

// RedisStore is the slice of the Redis client the HTTP layer needs: idempotency
// records, rate limit counters and the readiness ping.
type RedisStore interface {
	pkgredis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
	Ping(ctx context.Context) error
}

// Services bundles the domain services mounted by the router.
type Services struct {
	Companies companies.Service
	Menu      menu.Service
	Cart      cart.Service
	Orders    orders.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	commerce *metrics.Commerce,
	gatherer prometheus.Gatherer,
	dbP controllers.Pinger,
	redisStore RedisStore,
	svc Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Recoverer(logg),
		middleware.Logging(logg, commerce),
		middleware.CORS(cfg.CORS),
	)

	publicPolicy := middleware.NewRateLimitPolicy("public", cfg.RateLimit.Window, cfg.RateLimit.PublicIPLimit, 0)
	checkoutPolicy := middleware.NewRateLimitPolicy(
		"checkout",
		cfg.RateLimit.Window,
		cfg.RateLimit.CheckoutIPLimit,
		cfg.RateLimit.CheckoutSessionLimit,
	)
	idempotent := middleware.Idempotency(redisStore, cfg.Cart.IdempotencyTTL, logg)

	readiness := map[string]controllers.Pinger{}
	if dbP != nil {
		readiness["db"] = dbP
	}
	if redisStore != nil {
		readiness["redis"] = redisStore
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public/companies/{slug}", func(r chi.Router) {
		r.Use(middleware.RateLimit(publicPolicy, redisStore, logg))
		r.Use(middleware.StorefrontCompany(svc.Companies, logg))
		r.Get("/menu", controllers.PublicMenu(svc.Menu, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.CartSession(logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartcontrollers.CartFetch(svc.Cart, logg))
				r.Delete("/", cartcontrollers.CartClear(svc.Cart, logg))
				r.Get("/quote", cartcontrollers.CartQuote(svc.Cart, logg))
				r.Post("/items", cartcontrollers.CartAddItem(svc.Cart, logg))
				r.Post("/items/{lineKey}/decrement", cartcontrollers.CartDecrementItem(svc.Cart, logg))
				r.Delete("/items/{lineKey}", cartcontrollers.CartRemoveItem(svc.Cart, logg))
				r.Put("/delivery", cartcontrollers.CartSetDelivery(svc.Cart, logg))
				r.Delete("/delivery", cartcontrollers.CartClearDelivery(svc.Cart, logg))
			})
			r.With(
				middleware.RateLimit(checkoutPolicy, redisStore, logg),
				idempotent,
			).Post("/checkout", cartcontrollers.Checkout(svc.Orders, logg))
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.CompanyScope(logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.StaffRoleCompanyAdmin))
			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.ProductList(svc.Menu, logg))
				r.Post("/", controllers.ProductCreate(svc.Menu, logg))
				r.Get("/{productId}", controllers.ProductGet(svc.Menu, logg))
				r.Put("/{productId}", controllers.ProductUpdate(svc.Menu, logg))
				r.Patch("/{productId}/availability", controllers.ProductSetAvailability(svc.Menu, logg))
				r.Delete("/{productId}", controllers.ProductDelete(svc.Menu, logg))
			})
			r.Get("/company", controllers.CompanyProfile(svc.Companies, logg))
			r.Patch("/company", controllers.CompanyUpdateSettings(svc.Companies, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.StaffRoleCompanyAdmin, enums.StaffRoleAttendant))
			r.Get("/", ordercontrollers.List(svc.Orders, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(svc.Orders, logg))
			r.With(idempotent).Post("/{orderId}/status", ordercontrollers.UpdateStatus(svc.Orders, logg))
			r.With(idempotent).Post("/{orderId}/payment", ordercontrollers.ConfirmPayment(svc.Orders, logg))
		})

		r.Route("/driver/orders", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.StaffRoleDriver))
			r.Get("/", ordercontrollers.DriverOrders(svc.Orders, logg))
			r.With(idempotent).Post("/{orderId}/status", ordercontrollers.DriverUpdateStatus(svc.Orders, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(logg, enums.StaffRoleSuperAdmin))
		r.Route("/companies", func(r chi.Router) {
			r.Post("/", controllers.AdminCompanyCreate(svc.Companies, logg))
			r.Get("/{companyId}", controllers.AdminCompanyGet(svc.Companies, logg))
			r.Patch("/{companyId}", controllers.AdminCompanyUpdate(svc.Companies, logg))
		})
	})

	return r
}
