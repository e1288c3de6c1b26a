package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/redeciclos/ciclos-backend/api/controllers"
	"github.com/redeciclos/ciclos-backend/api/middleware"
	"github.com/redeciclos/ciclos-backend/internal/catalog"
	"github.com/redeciclos/ciclos-backend/internal/compositions"
	"github.com/redeciclos/ciclos-backend/internal/cycles"
	"github.com/redeciclos/ciclos-backend/internal/marketcycles"
	"github.com/redeciclos/ciclos-backend/internal/offers"
	"github.com/redeciclos/ciclos-backend/internal/orders"
	"github.com/redeciclos/ciclos-backend/internal/payments"
	"github.com/redeciclos/ciclos-backend/pkg/config"
	"github.com/redeciclos/ciclos-backend/pkg/logger"
	"github.com/redeciclos/ciclos-backend/pkg/metrics"
	pkgredis "github.com/redeciclos/ciclos-backend/pkg/redis"
)

// Services groups the engines exposed over HTTP.
type Services struct {
	Catalog      catalog.Service
	Cycles       cycles.Service
	MarketCycles marketcycles.Service
	Compositions compositions.Service
	Offers       offers.Service
	Orders       orders.Service
	Payments     payments.Service
}

// Params carries router dependencies. Redis may be nil, which disables
// idempotency and reports the dependency as disabled on /health/ready.
type Params struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       controllers.Pinger
	Redis    *pkgredis.Client
	Registry *prometheus.Registry
	Services Services
}

func NewRouter(p Params) http.Handler {
	cfg, logg, svc := p.Config, p.Logger, p.Services

	var (
		store       pkgredis.IdempotencyStore
		redisPinger controllers.Pinger
	)
	if p.Redis != nil {
		store = p.Redis
		redisPinger = p.Redis
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)
	if p.Registry != nil {
		r.Use(middleware.Metrics(metrics.NewHTTPMetrics(p.Registry)))
		r.Handle("/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": p.DB,
			"redis":    redisPinger,
		}))
	})

	// write routes opt into idempotency individually; settlement keys live longer.
	idem := middleware.Idempotency(store, logg, middleware.CreateTTL)
	settle := middleware.Idempotency(store, logg, middleware.SettlementTTL)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/catalog", func(r chi.Router) {
			r.Get("/markets", controllers.CatalogMarkets(svc.Catalog, logg))
			r.Get("/delivery-points", controllers.CatalogDeliveryPoints(svc.Catalog, logg))
			r.Get("/basket-types", controllers.CatalogBasketTypes(svc.Catalog, logg))
			r.Get("/products", controllers.CatalogProducts(svc.Catalog, logg))
		})

		r.Route("/cycles", func(r chi.Router) {
			r.With(idem).Post("/", controllers.CycleCreate(svc.Cycles, logg))
			r.Get("/", controllers.CycleList(svc.Cycles, logg))
			r.Route("/{cycleId}", func(r chi.Router) {
				r.Get("/", controllers.CycleGet(svc.Cycles, logg))
				r.Patch("/", controllers.CycleUpdate(svc.Cycles, logg))
				r.Delete("/", controllers.CycleDelete(svc.Cycles, logg))
				r.Post("/deactivate", controllers.CycleDeactivate(svc.Cycles, logg))
				r.Post("/advance", controllers.CycleAdvance(svc.Cycles, logg))

				r.Get("/market-cycles", controllers.MarketCyclesByCycle(svc.MarketCycles, logg))
				r.Get("/baskets", controllers.CompositionsByCycle(svc.Compositions, logg))
				r.Get("/offers", controllers.OffersByCycle(svc.Offers, logg))
				r.Get("/orders", controllers.OrdersByCycle(svc.Orders, logg))
				r.With(settle).Post("/payments/generate", controllers.PaymentsGenerate(svc.Payments, logg))
				r.Get("/payments/totals", controllers.PaymentTotals(svc.Payments, cfg.Settlement.CurrencyCode, logg))
			})
		})

		r.Route("/market-cycles", func(r chi.Router) {
			r.With(idem).Post("/", controllers.MarketCycleAssociate(svc.MarketCycles, logg))
			r.Get("/{marketCycleId}", controllers.MarketCycleGet(svc.MarketCycles, logg))
			r.Patch("/{marketCycleId}", controllers.MarketCycleUpdate(svc.MarketCycles, logg))
			r.Delete("/{marketCycleId}", controllers.MarketCycleRemove(svc.MarketCycles, logg))
		})

		r.With(idem).Post("/cycle-baskets", controllers.CycleBasketBind(svc.Compositions, logg))
		r.Patch("/cycle-baskets/{bindingId}", controllers.CycleBasketUpdateCount(svc.Compositions, logg))

		r.Route("/compositions", func(r chi.Router) {
			r.With(idem).Post("/", controllers.CompositionCreate(svc.Compositions, logg))
			r.Put("/{compositionId}/products", controllers.CompositionSyncProducts(svc.Compositions, logg))
			r.Get("/{compositionId}/products/{productId}", controllers.CompositionProductQuantity(svc.Compositions, logg))
			r.Get("/{compositionId}/availability", controllers.CompositionAvailability(svc.Compositions, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.With(idem).Post("/", controllers.OrderCreate(svc.Orders, logg))
			r.Get("/{orderId}", controllers.OrderGet(svc.Orders, logg))
			r.Patch("/{orderId}/status", controllers.OrderUpdateStatus(svc.Orders, logg))
			r.With(idem).Post("/{orderId}/products", controllers.OrderAddProduct(svc.Orders, logg))
			r.Get("/{orderId}/total", controllers.OrderTotal(svc.Orders, logg))
		})
		r.Patch("/order-lines/{lineId}", controllers.OrderLineUpdate(svc.Orders, logg))
		r.Delete("/order-lines/{lineId}", controllers.OrderLineRemove(svc.Orders, logg))

		r.Route("/payments", func(r chi.Router) {
			r.With(idem).Post("/", controllers.PaymentCreate(svc.Payments, logg))
			r.Get("/", controllers.PaymentList(svc.Payments, logg))
			r.Get("/{paymentId}", controllers.PaymentGet(svc.Payments, logg))
			r.Delete("/{paymentId}", controllers.PaymentDelete(svc.Payments, logg))
			r.With(settle).Post("/{paymentId}/pay", controllers.PaymentMarkPaid(svc.Payments, logg))
			r.With(settle).Post("/{paymentId}/cancel", controllers.PaymentCancel(svc.Payments, logg))
		})
	})

	return r
}
