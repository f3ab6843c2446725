package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/posengine-backend/api/controllers"
	"github.com/angelmondragon/posengine-backend/api/middleware"
	"github.com/angelmondragon/posengine-backend/internal/cart"
	"github.com/angelmondragon/posengine-backend/internal/checkout"
	product "github.com/angelmondragon/posengine-backend/internal/products"
	"github.com/angelmondragon/posengine-backend/internal/sales"
	"github.com/angelmondragon/posengine-backend/internal/stock"
	"github.com/angelmondragon/posengine-backend/pkg/config"
	"github.com/angelmondragon/posengine-backend/pkg/enums"
	"github.com/angelmondragon/posengine-backend/pkg/logger"
	"github.com/angelmondragon/posengine-backend/pkg/redis"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          controllers.Pinger
	Redis       controllers.Pinger
	Idempotency redis.IdempotencyStore
	Gatherer    prometheus.Gatherer
	Clock       func() time.Time

	Products product.Service
	Stock    stock.Service
	Cart     cart.Service
	Checkout checkout.Service
	Sales    sales.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg.App.Env))
		r.Get("/ready", controllers.HealthReady(cfg.App.Env, logg, map[string]controllers.Pinger{
			"db":    deps.DB,
			"redis": deps.Redis,
		}))
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(deps.Idempotency, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(deps.Products, logg))
			r.With(middleware.RequireRole(logg, enums.MemberRoleOwner, enums.MemberRoleManager)).
				Post("/", controllers.CreateProduct(deps.Products, logg))
			r.Get("/{productId}", controllers.GetProduct(deps.Products, logg))
			r.With(middleware.RequireRole(logg, enums.MemberRoleOwner)).
				Delete("/{productId}", controllers.DeleteProduct(deps.Products, logg))
		})

		r.Route("/variants", func(r chi.Router) {
			r.Post("/preview", controllers.PreviewVariants(deps.Products, logg))
			r.With(middleware.RequireRole(logg, enums.MemberRoleOwner)).
				Put("/{variantId}/prices", controllers.UpdateVariantPrices(deps.Products, logg))
		})

		r.Route("/stock", func(r chi.Router) {
			r.Get("/", controllers.ListStock(deps.Stock, logg))
			r.Get("/low", controllers.LowStock(deps.Stock, logg))
			r.Put("/", controllers.AdjustStock(deps.Stock, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(deps.Cart, logg))
			r.Put("/", controllers.ReplaceCart(deps.Cart, logg))
			r.Delete("/", controllers.DiscardCart(deps.Cart, logg))
			r.Patch("/", controllers.UpdateCartSettings(deps.Cart, logg))
			r.Get("/total", controllers.CartTotal(deps.Cart, logg))
			r.Post("/lines", controllers.AddCartLine(deps.Cart, logg))
			r.Patch("/lines/{variantId}", controllers.UpdateCartLine(deps.Cart, logg))
			r.Delete("/lines/{variantId}", controllers.RemoveCartLine(deps.Cart, logg))
		})

		r.Route("/sales", func(r chi.Router) {
			r.Post("/", controllers.Checkout(deps.Checkout, logg))
			r.Get("/", controllers.ListSales(deps.Sales, logg))
			r.Get("/summary", controllers.SalesSummary(deps.Sales, deps.Clock, logg))
			r.Get("/{saleId}", controllers.GetSale(deps.Sales, logg))
		})
	})

	return r
}
