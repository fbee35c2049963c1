package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mfigueroa/shopsync-backend/api/controllers"
	"github.com/mfigueroa/shopsync-backend/api/middleware"
	"github.com/mfigueroa/shopsync-backend/internal/cart"
	"github.com/mfigueroa/shopsync-backend/internal/orders"
	"github.com/mfigueroa/shopsync-backend/internal/products"
	"github.com/mfigueroa/shopsync-backend/internal/realtime"
	"github.com/mfigueroa/shopsync-backend/internal/sales"
	"github.com/mfigueroa/shopsync-backend/pkg/config"
	"github.com/mfigueroa/shopsync-backend/pkg/db"
	"github.com/mfigueroa/shopsync-backend/pkg/enums"
	"github.com/mfigueroa/shopsync-backend/pkg/logger"
	"github.com/mfigueroa/shopsync-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	registry *prometheus.Registry,
	hub *realtime.Hub,
	cartService cart.Service,
	orderService orders.Service,
	productService products.Service,
	salesService sales.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	// cart sync socket; authentication happens in-band after the upgrade
	r.Get("/ws", controllers.WebSocket(hub, cfg.Realtime, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(cartService, logg))
			r.Put("/", controllers.CartReplace(cartService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OrderCreate(orderService, logg))
			r.Get("/", controllers.OrderList(orderService, logg))
			r.Get("/{orderId}", controllers.OrderDetail(orderService, logg))
			r.Put("/{orderId}/pay", controllers.OrderPay(orderService, logg))
			r.Put("/{orderId}/deliver", controllers.OrderDeliver(orderService, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/{productId}", controllers.ProductDetail(productService, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(enums.RoleSeller, logg))
				r.Post("/", controllers.ProductCreate(productService, logg))
				r.Patch("/{productId}/price", controllers.ProductUpdatePrice(productService, logg))
			})
		})

		r.Route("/sellers", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.RoleSeller, logg))
			r.Get("/dashboard", controllers.SellerDashboard(salesService, logg))
			r.Get("/sales", controllers.SellerSales(salesService, logg))
			r.Get("/sales-history", controllers.SellerSalesHistory(salesService, logg))
		})
	})

	return r
}
