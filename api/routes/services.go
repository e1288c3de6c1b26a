package routes

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/redeciclos/ciclos-backend/internal/catalog"
	"github.com/redeciclos/ciclos-backend/internal/compositions"
	"github.com/redeciclos/ciclos-backend/internal/cycles"
	"github.com/redeciclos/ciclos-backend/internal/marketcycles"
	"github.com/redeciclos/ciclos-backend/internal/offers"
	"github.com/redeciclos/ciclos-backend/internal/orders"
	"github.com/redeciclos/ciclos-backend/internal/payments"
	"github.com/redeciclos/ciclos-backend/pkg/db"
	"github.com/redeciclos/ciclos-backend/pkg/logger"
	"github.com/redeciclos/ciclos-backend/pkg/metrics"
)

// NewServices builds every engine over one database client. reg may be nil.
func NewServices(client *db.Client, logg *logger.Logger, reg prometheus.Registerer) (Services, error) {
	if client == nil {
		return Services{}, fmt.Errorf("db client required")
	}
	conn := client.DB()

	catalogRepo := catalog.NewRepository(conn)
	offersRepo := offers.NewRepository(conn)
	ordersRepo := orders.NewRepository(conn)
	marketCyclesRepo := marketcycles.NewRepository(conn)

	var (
		out Services
		err error
	)
	if out.Catalog, err = catalog.NewService(catalogRepo); err != nil {
		return Services{}, fmt.Errorf("catalog service: %w", err)
	}
	if out.Offers, err = offers.NewService(offersRepo); err != nil {
		return Services{}, fmt.Errorf("offers service: %w", err)
	}
	if out.Cycles, err = cycles.NewService(cycles.ServiceParams{
		Logger:  logg,
		DB:      client,
		Repo:    cycles.NewRepository(conn),
		Catalog: catalogRepo,
	}); err != nil {
		return Services{}, fmt.Errorf("cycles service: %w", err)
	}
	if out.MarketCycles, err = marketcycles.NewService(marketcycles.ServiceParams{
		Logger:  logg,
		DB:      client,
		Repo:    marketCyclesRepo,
		Catalog: catalogRepo,
	}); err != nil {
		return Services{}, fmt.Errorf("market cycles service: %w", err)
	}
	if out.Compositions, err = compositions.NewService(compositions.ServiceParams{
		Logger:  logg,
		DB:      client,
		Repo:    compositions.NewRepository(conn),
		Catalog: catalogRepo,
		Offers:  offersRepo,
	}); err != nil {
		return Services{}, fmt.Errorf("compositions service: %w", err)
	}
	if out.Orders, err = orders.NewService(orders.ServiceParams{
		Logger:  logg,
		DB:      client,
		Repo:    ordersRepo,
		Catalog: catalogRepo,
		Offers:  offersRepo,
	}); err != nil {
		return Services{}, fmt.Errorf("orders service: %w", err)
	}
	if out.Payments, err = payments.NewService(payments.ServiceParams{
		Logger:       logg,
		DB:           client,
		Repo:         payments.NewRepository(conn),
		Catalog:      catalogRepo,
		Offers:       offersRepo,
		Orders:       ordersRepo,
		MarketCycles: marketCyclesRepo,
		Metrics:      metrics.NewSettlementMetrics(reg),
		Clock:        time.Now,
	}); err != nil {
		return Services{}, fmt.Errorf("payments service: %w", err)
	}
	return out, nil
}
