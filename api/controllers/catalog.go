package controllers

import (
	"context"
	"net/http"

	"github.com/redeciclos/ciclos-backend/api/responses"
	"github.com/redeciclos/ciclos-backend/internal/catalog"
	"github.com/redeciclos/ciclos-backend/internal/offers"
	"github.com/redeciclos/ciclos-backend/pkg/logger"
)

func listAll[T any](list func(ctx context.Context) ([]T, error), logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := list(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func CatalogMarkets(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return listAll(svc.Markets, logg)
}

func CatalogDeliveryPoints(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return listAll(svc.DeliveryPoints, logg)
}

func CatalogBasketTypes(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return listAll(svc.BasketTypes, logg)
}

func CatalogProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return listAll(svc.Products, logg)
}

// OffersByCycle lists supplier offers with their lines.
func OffersByCycle(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return pathAction("cycleId", svc.ListByCycle, logg)
}
